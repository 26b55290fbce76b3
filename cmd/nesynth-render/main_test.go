package main

import (
	"testing"
	"time"

	"github.com/cwbudde/algo-nesynth/synth"
)

func TestApplyOverrides(t *testing.T) {
	p := synth.NewDefaultParams()
	if err := applyOverrides(p, "a.waveform=0.6, master_volume=0.25,,bypass=1"); err != nil {
		t.Fatalf("applyOverrides: %v", err)
	}
	if p.Gen[synth.GenA].Waveform != synth.WaveformFromNormalized(0.6) || p.MasterVolume != 0.25 || !p.Bypass {
		t.Fatalf("overrides not applied: %+v", p)
	}
	for _, bad := range []string{"nope=0.5", "master_volume", "master_volume=2", "master_volume=x"} {
		if err := applyOverrides(synth.NewDefaultParams(), bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestSingleNote(t *testing.T) {
	seq := singleNote(60, 127, 0.25, 0.5, 300*time.Millisecond)
	if len(seq.Events) != 2 || seq.Length != 300*time.Millisecond {
		t.Fatalf("centred pan should add no expression: %+v", seq.Events)
	}
	on := seq.Events[0].Event
	if on.Kind != synth.EventNoteOn || on.Velocity != 1 || on.Tuning != 0.25 {
		t.Fatalf("note-on=%+v", on)
	}
	if seq := singleNote(60, 64, 0, 1, time.Second); len(seq.Events) != 3 {
		t.Fatalf("pan expression missing: %+v", seq.Events)
	}
}
