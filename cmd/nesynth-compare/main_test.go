package main

import (
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-nesynth/analysis"
	"github.com/cwbudde/algo-nesynth/internal/wavio"
)

func TestRenderedCandidateRoundTripsThroughWAV(t *testing.T) {
	const sr = 22050
	out, err := renderCandidate("", 69, 100, 0.3, 0.5, sr)
	if err != nil {
		t.Fatalf("renderCandidate: %v", err)
	}
	mono := wavio.Mono(out)
	if m := analysis.Compare(mono, mono, sr); m.Similarity < 0.99 {
		t.Fatalf("a render compared with itself: %+v", m)
	}

	path := filepath.Join(t.TempDir(), "ref.wav")
	if err := wavio.WriteStereo(path, out, sr); err != nil {
		t.Fatalf("write: %v", err)
	}
	ref, err := readResampled(path, sr)
	if err != nil {
		t.Fatalf("readResampled: %v", err)
	}
	if len(ref) != len(mono) {
		t.Fatalf("read %d frames, rendered %d", len(ref), len(mono))
	}
	half, err := readResampled(path, sr/2)
	if err != nil {
		t.Fatalf("readResampled at half rate: %v", err)
	}
	if len(half) < len(mono)/4 || len(half) >= len(mono) {
		t.Fatalf("half-rate length %d for %d frames", len(half), len(mono))
	}
}

func TestRenderCandidateMissingPreset(t *testing.T) {
	if _, err := renderCandidate(filepath.Join(t.TempDir(), "none.json"), 69, 100, 0.1, 0.1, 22050); err == nil {
		t.Fatalf("expected error for missing preset")
	}
}
