package sequence

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cwbudde/algo-nesynth/synth"
)

func testSMF(t *testing.T) *smf.SMF {
	t.Helper()
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(0, 60, 100))
	tr.Add(480, midi.NoteOn(0, 64, 127))
	tr.Add(480, midi.NoteOff(0, 60))
	tr.Add(0, midi.ControlChange(0, 10, 127))
	tr.Add(480, midi.NoteOff(0, 64))
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)
	if err := s.Add(tr); err != nil {
		t.Fatalf("add track: %v", err)
	}
	return s
}

func near(a, b time.Duration) bool {
	d := a - b
	return d < time.Millisecond && d > -time.Millisecond
}

func TestReadSMFTranslatesNotesAndControllers(t *testing.T) {
	var bf bytes.Buffer
	if _, err := testSMF(t).WriteTo(&bf); err != nil {
		t.Fatalf("write smf: %v", err)
	}
	seq, err := ReadSMF(&bf)
	if err != nil {
		t.Fatalf("ReadSMF: %v", err)
	}
	if len(seq.Events) != 5 {
		t.Fatalf("expected 5 events, got %d: %+v", len(seq.Events), seq.Events)
	}

	want := []struct {
		at   time.Duration
		kind synth.EventKind
		id   int32
	}{
		{0, synth.EventNoteOn, 0},
		{250 * time.Millisecond, synth.EventNoteOn, 1},
		{500 * time.Millisecond, synth.EventNoteOff, 0},
		{500 * time.Millisecond, synth.EventExpression, -1},
		{750 * time.Millisecond, synth.EventNoteOff, 1},
	}
	for i, w := range want {
		got := seq.Events[i]
		if !near(got.Time, w.at) || got.Event.Kind != w.kind || got.Event.NoteID != w.id {
			t.Fatalf("event %d: got %v %v id=%d, want %v %v id=%d",
				i, got.Time, got.Event.Kind, got.Event.NoteID, w.at, w.kind, w.id)
		}
	}
	if ev := seq.Events[1].Event; ev.Pitch != 64 || ev.Velocity != 1 {
		t.Fatalf("note-on fields: %+v", ev)
	}
	if ev := seq.Events[3].Event; ev.Expression != synth.PanExpression || ev.Value != 1 {
		t.Fatalf("pan controller: %+v", ev)
	}
	if !near(seq.Length, 750*time.Millisecond) {
		t.Fatalf("length=%v", seq.Length)
	}
}

func TestLoadSMF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mid")
	if err := testSMF(t).WriteFile(path); err != nil {
		t.Fatalf("write smf: %v", err)
	}
	seq, err := LoadSMF(path)
	if err != nil {
		t.Fatalf("LoadSMF: %v", err)
	}
	if len(seq.Events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(seq.Events))
	}
	if _, err := LoadSMF(filepath.Join(t.TempDir(), "missing.mid")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTranslatorPairsRetriggeredNotes(t *testing.T) {
	tl := NewTranslator()
	on1, _ := tl.Translate(midi.NoteOn(1, 60, 64))
	on2, _ := tl.Translate(midi.NoteOn(1, 60, 64))
	if tl.Held() != 2 {
		t.Fatalf("held=%d", tl.Held())
	}
	off1, _ := tl.Translate(midi.NoteOff(1, 60))
	off2, _ := tl.Translate(midi.NoteOff(1, 60))
	if off1.NoteID != on1.NoteID || off2.NoteID != on2.NoteID || on1.NoteID == on2.NoteID {
		t.Fatalf("ids: on %d,%d off %d,%d", on1.NoteID, on2.NoteID, off1.NoteID, off2.NoteID)
	}
	stray, ok := tl.Translate(midi.NoteOff(1, 61))
	if !ok || stray.NoteID != -1 || stray.Pitch != 61 {
		t.Fatalf("unmatched note-off should address the pitch: %+v", stray)
	}
	// A zero-velocity note-on is a note-off.
	tl.Translate(midi.NoteOn(2, 70, 90))
	off, _ := tl.Translate(midi.NoteOn(2, 70, 0))
	if off.Kind != synth.EventNoteOff || tl.Held() != 0 {
		t.Fatalf("velocity 0: %+v held=%d", off, tl.Held())
	}
	if _, ok := tl.Translate(midi.ProgramChange(0, 3)); ok {
		t.Fatalf("program change should be ignored")
	}
}

func TestTranslatorPitchBendIsTuning(t *testing.T) {
	tl := NewTranslator()
	ev, ok := tl.Translate(midi.Pitchbend(0, 0))
	if !ok || ev.Expression != synth.TuningExpression {
		t.Fatalf("pitch bend: %+v", ev)
	}
	if ev.Value < 0.49 || ev.Value > 0.51 {
		t.Fatalf("centred bend should map near 0.5, got %f", ev.Value)
	}
}

func newEngine(t *testing.T) *synth.Engine[float32] {
	t.Helper()
	e, err := synth.NewEngine[float32](synth.EngineConfig{SampleRate: 48000, MaxVoices: 8})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestRenderNoteThenSilence(t *testing.T) {
	e := newEngine(t)
	out := Render(e, Note(69, 1, 200*time.Millisecond), 256, 300*time.Millisecond)
	if len(out[0]) != 24000 || len(out[1]) != 24000 {
		t.Fatalf("length=%d", len(out[0]))
	}
	var head, tail float64
	for _, s := range out[0][:9600] {
		head += float64(s * s)
	}
	for _, s := range out[0][len(out[0])-1000:] {
		tail += float64(s * s)
	}
	if head == 0 {
		t.Fatalf("note is silent")
	}
	if tail != 0 {
		t.Fatalf("tail should be silent after the release")
	}
	if e.ActiveVoices() != 0 {
		t.Fatalf("voice still active after render")
	}
}

func TestRenderKeepsSampleOffsets(t *testing.T) {
	e := newEngine(t)
	seq := &Sequence{}
	seq.Add(10*time.Millisecond, synth.NoteOnEvent(0, 69, 1))
	out := Render(e, seq, 256, 50*time.Millisecond)

	first := -1
	for i, s := range out[0] {
		if s != 0 {
			first = i
			break
		}
	}
	if first < 479 || first > 490 {
		t.Fatalf("first sample at %d, want ~480", first)
	}
}

func TestRenderUntilSilentStopsAfterRelease(t *testing.T) {
	e := newEngine(t)
	out := RenderUntilSilent(e, Note(69, 1, 100*time.Millisecond), 256, 2*time.Second)
	n := len(out[0])
	if n < 4800 || n > 4800+4800 {
		t.Fatalf("rendered %d frames, want just past the 4800-frame hold", n)
	}
	if n%256 != 0 || len(out[1]) != n {
		t.Fatalf("output should end on a block boundary: %d/%d", n, len(out[1]))
	}
}
