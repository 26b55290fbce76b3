package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-nesynth/dsp"
	"github.com/cwbudde/algo-nesynth/synth"
)

func writePreset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preset.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	return path
}

func TestLoadJSONAppliesGlobalAndGenerators(t *testing.T) {
	path := writePreset(t, `{
  "master_volume": 0.6,
  "master_tuning": -0.5,
  "release_time": 0.25,
  "tuning_range": "wide",
  "bypass": true,
  "filter": {"type": "highpass", "freq": 0.4, "q": 0.3},
  "generators": {
    "b": {
      "waveform": "triangle",
      "sine_detune": 0.5,
      "triangle_slope": 0.9,
      "filter": {"type": "bandpass", "freq_mod_depth": -1}
    }
  },
  "normalized": {"a.square_volume": 0.7}
}`)

	p, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if p.MasterVolume != 0.6 || p.MasterTuning != -0.5 || p.ReleaseTime != 0.25 {
		t.Fatalf("global fields mismatch: %+v", p)
	}
	if p.TuningRange != synth.TuningRangeWide || !p.Bypass {
		t.Fatalf("tuning range/bypass mismatch: %v %v", p.TuningRange, p.Bypass)
	}
	if p.MasterFilter.Type != dsp.Highpass || p.MasterFilter.Freq != 0.4 || p.MasterFilter.Q != 0.3 {
		t.Fatalf("master filter mismatch: %+v", p.MasterFilter)
	}
	b := p.Gen[synth.GenB]
	if b.Waveform != synth.WaveTriangle || b.SineDetune != 0.5 || b.TriangleSlope != 0.9 {
		t.Fatalf("generator b mismatch: %+v", b)
	}
	if b.Filter.Type != dsp.Bandpass || b.Filter.FreqModDepth != -1 {
		t.Fatalf("generator b filter mismatch: %+v", b.Filter)
	}
	if p.Gen[synth.GenA].SquareVolume != 0.7 {
		t.Fatalf("normalized override not applied: %f", p.Gen[synth.GenA].SquareVolume)
	}

	def := synth.NewDefaultParams()
	if p.Gen[synth.GenA].SineVolume != def.Gen[synth.GenA].SineVolume || p.AttackTime != def.AttackTime {
		t.Fatalf("fields absent from the file must keep their defaults")
	}
}

func TestLoadJSONRejectsInvalidGeneratorKey(t *testing.T) {
	path := writePreset(t, `{"generators": {"c": {"sine_volume": 0.5}}}`)
	if _, err := LoadJSON(path); err == nil {
		t.Fatalf("expected error for invalid generator key")
	}
}

func TestLoadJSONRejectsInvalidRanges(t *testing.T) {
	bad := []string{
		`{"master_volume": 1.2}`,
		`{"master_tuning": -2}`,
		`{"generators": {"a": {"sine_detune": 3}}}`,
		`{"filter": {"q": -0.1}}`,
		`{"generators": {"a": {"waveform": "saw"}}}`,
		`{"filter": {"type": "notch"}}`,
		`{"tuning_range": "huge"}`,
		`{"normalized": {"nope": 0.5}}`,
		`{"normalized": {"master_volume": 2}}`,
		`{"master_volume": "loud"}`,
	}
	for _, content := range bad {
		if _, err := LoadJSON(writePreset(t, content)); err == nil {
			t.Fatalf("expected error for %s", content)
		}
	}
}

func TestSaveJSONRoundTrip(t *testing.T) {
	p := synth.NewDefaultParams()
	p.MasterVolume = 0.33
	p.DecayTime = 0.7
	p.StereoMS = 0.2
	p.TuningRange = synth.TuningRangeWide
	p.Gen[synth.GenA].Waveform = synth.WaveNoise
	p.Gen[synth.GenA].Filter.Type = dsp.Bandpass
	p.Gen[synth.GenB].SineDetune = -0.25
	p.MasterFilter.FreqModDepth = 0.5

	path := filepath.Join(t.TempDir(), "out.json")
	if err := SaveJSON(path, p); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	got, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if *got != *p {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, p)
	}
}

func TestApplyFileNilHandling(t *testing.T) {
	if err := ApplyFile(nil, &File{}); err == nil {
		t.Fatalf("expected error for nil destination")
	}
	p := synth.NewDefaultParams()
	if err := ApplyFile(p, nil); err != nil {
		t.Fatalf("nil file should be a no-op: %v", err)
	}
}
