package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-nesynth/analysis"
	"github.com/cwbudde/algo-nesynth/preset"
)

func metricsWithScore(s float64) analysis.Metrics {
	return analysis.Metrics{Score: s, Similarity: 1 - s}
}

func TestParseWorkers(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "1", want: 1},
		{in: "8", want: 8},
		{in: "auto", want: 0},
		{in: "AUTO", want: 0},
		{in: "0", wantErr: true},
		{in: "-2", wantErr: true},
		{in: "abc", wantErr: true},
		{in: " ", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseWorkers(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("parseWorkers(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseWorkers(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("parseWorkers(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLoadCandidateFromReportBestKnobs(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "rep.json")
	if err := os.WriteFile(reportPath, []byte(`{"best_knobs":{"decay_time":0.4,"render.velocity":200.4}}`), 0o644); err != nil {
		t.Fatalf("write report: %v", err)
	}
	defs := []knobDef{
		{Name: "decay_time", Min: 0, Max: 1},
		{Name: knobVelocity, Param: -1, Min: 1, Max: 127, IsInt: true},
	}
	fallback := candidate{Vals: []float64{0, 100}}

	got, ok, err := loadCandidateFromReport(reportPath, defs, fallback)
	if err != nil || !ok {
		t.Fatalf("load report: ok=%v err=%v", ok, err)
	}
	if got.Vals[0] != 0.4 || got.Vals[1] != 127 {
		t.Fatalf("vals=%v", got.Vals)
	}
	if fallback.Vals[0] != 0 {
		t.Fatalf("fallback mutated")
	}
}

func TestLoadCandidateFromReportMissing(t *testing.T) {
	fallback := candidate{Vals: []float64{1}}
	got, ok, err := loadCandidateFromReport(filepath.Join(t.TempDir(), "none.json"), nil, fallback)
	if err != nil || ok || got.Vals[0] != 1 {
		t.Fatalf("missing report: %v %v %v", got, ok, err)
	}
}

func TestWriteOutputsRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	ev, err := evaluateCandidate(cfg, cfg.initCandidate)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	dir := t.TempDir()
	paths := outputPaths{
		reference: "ref.wav",
		output:    filepath.Join(dir, "presets", "fit.json"),
		wav:       filepath.Join(dir, "best.wav"),
	}
	top := updateTopCandidates(nil, 1, 1, ev.metrics, cfg.defs, cfg.initCandidate)
	if err := writeOutputs(paths, cfg, cfg.initCandidate, ev, 1, 0.5, 0, top); err != nil {
		t.Fatalf("writeOutputs: %v", err)
	}

	p, err := preset.LoadJSON(paths.output)
	if err != nil {
		t.Fatalf("load fitted preset: %v", err)
	}
	if *p != *ev.params {
		t.Fatalf("fitted preset differs from the evaluated patch")
	}
	if _, err := os.Stat(paths.wav); err != nil {
		t.Fatalf("best render missing: %v", err)
	}
	got, ok, err := loadCandidateFromReport(paths.reportPath(), cfg.defs, candidate{Vals: make([]float64, len(cfg.defs))})
	if err != nil || !ok {
		t.Fatalf("resume from written report: ok=%v err=%v", ok, err)
	}
	for i := range got.Vals {
		if got.Vals[i] != cfg.initCandidate.Vals[i] {
			t.Fatalf("knob %s: %f want %f", cfg.defs[i].Name, got.Vals[i], cfg.initCandidate.Vals[i])
		}
	}
}
