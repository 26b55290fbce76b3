package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-nesynth/analysis"
	"github.com/cwbudde/algo-nesynth/internal/wavio"
	"github.com/cwbudde/algo-nesynth/preset"
)

type runReport struct {
	ReferencePath  string             `json:"reference_path"`
	PresetPath     string             `json:"preset_path,omitempty"`
	OutputPreset   string             `json:"output_preset"`
	OutputWAV      string             `json:"output_wav,omitempty"`
	SampleRate     int                `json:"sample_rate"`
	Note           int                `json:"note"`
	Velocity       int                `json:"velocity"`
	HoldSec        float64            `json:"hold_seconds"`
	DurationSec    float64            `json:"elapsed_seconds"`
	Evaluations    int                `json:"evaluations"`
	MayflyVariant  string             `json:"mayfly_variant"`
	BestScore      float64            `json:"best_score"`
	BestSimilarity float64            `json:"best_similarity"`
	BestMetrics    analysis.Metrics   `json:"best_metrics"`
	BestKnobs      map[string]float64 `json:"best_knobs"`
	Checkpoints    int                `json:"checkpoint_count"`
	TopCandidates  []topCandidate     `json:"top_candidates,omitempty"`
}

type outputPaths struct {
	reference string
	preset    string
	output    string
	report    string
	wav       string
}

func (o outputPaths) reportPath() string {
	if o.report != "" {
		return o.report
	}
	return o.output + ".report.json"
}

// writeOutputs saves the fitted preset, the run report and optionally a
// render of the best candidate.
func writeOutputs(paths outputPaths, cfg *optimizationConfig, best candidate, ev optimizationEval, evals int, elapsed float64, checkpoints int, top []topCandidate) error {
	if err := os.MkdirAll(filepath.Dir(paths.output), 0o755); err != nil {
		return err
	}
	if err := preset.SaveJSON(paths.output, ev.params); err != nil {
		return err
	}
	if paths.wav != "" {
		out, err := renderNote(ev.params, cfg.note, ev.velocity, ev.hold, cfg.tail, cfg.sampleRate, cfg.blockSize, cfg.seed)
		if err != nil {
			return err
		}
		if err := wavio.WriteStereo(paths.wav, out, cfg.sampleRate); err != nil {
			return err
		}
	}

	knobs := make(map[string]float64, len(cfg.defs))
	for i, d := range cfg.defs {
		knobs[d.Name] = best.Vals[i]
	}
	rep := runReport{
		ReferencePath:  paths.reference,
		PresetPath:     paths.preset,
		OutputPreset:   paths.output,
		OutputWAV:      paths.wav,
		SampleRate:     cfg.sampleRate,
		Note:           cfg.note,
		Velocity:       ev.velocity,
		HoldSec:        ev.hold,
		DurationSec:    elapsed,
		Evaluations:    evals,
		MayflyVariant:  cfg.mayflyVariant,
		BestScore:      ev.metrics.Score,
		BestSimilarity: ev.metrics.Similarity,
		BestMetrics:    ev.metrics,
		BestKnobs:      knobs,
		Checkpoints:    checkpoints,
		TopCandidates:  top,
	}
	return writeJSON(paths.reportPath(), rep)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
