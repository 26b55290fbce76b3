package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cwbudde/algo-nesynth/analysis"
	"github.com/cwbudde/algo-nesynth/internal/wavio"
	"github.com/cwbudde/algo-nesynth/preset"
	"github.com/cwbudde/algo-nesynth/sequence"
	"github.com/cwbudde/algo-nesynth/synth"
)

func main() {
	referencePath := flag.String("reference", "reference/a4.wav", "Reference WAV path")
	candidatePath := flag.String("candidate", "", "Candidate WAV path; if empty, render the candidate from a preset")
	presetPath := flag.String("preset", "", "Preset JSON path for the rendered candidate (default patch when empty)")
	note := flag.Int("note", 69, "MIDI note for the rendered candidate")
	velocity := flag.Int("velocity", 100, "MIDI velocity for the rendered candidate")
	hold := flag.Float64("hold", 1.0, "Note hold time before the note-off")
	tail := flag.Float64("tail", 2.0, "Maximum seconds rendered after the note-off")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	writeCandidate := flag.String("write-candidate", "", "Optional path to write the rendered candidate WAV")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	ref, err := readResampled(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}

	var cand []float64
	if *candidatePath != "" {
		if cand, err = readResampled(*candidatePath, *sampleRate); err != nil {
			die("failed to read candidate: %v", err)
		}
	} else {
		out, err := renderCandidate(*presetPath, *note, *velocity, *hold, *tail, *sampleRate)
		if err != nil {
			die("failed to render candidate: %v", err)
		}
		if *writeCandidate != "" {
			if err := wavio.WriteStereo(*writeCandidate, out, *sampleRate); err != nil {
				die("failed to write candidate wav: %v", err)
			}
		}
		cand = wavio.Mono(out)
	}

	m := analysis.Compare(ref, cand, *sampleRate)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Reference frames: %d\n", m.ReferenceFrames)
	fmt.Printf("Candidate frames: %d\n", m.CandidateFrames)
	fmt.Printf("Aligned frames:   %d\n", m.AlignedFrames)
	fmt.Printf("Lag:              %d samples (%.3f ms)\n", m.LagSamples, 1000.0*float64(m.LagSamples)/float64(*sampleRate))
	fmt.Println()
	fmt.Printf("Time RMSE:        %.6f\n", m.TimeRMSE)
	fmt.Printf("Envelope RMSE:    %.1f dB\n", m.EnvelopeRMSEDB)
	fmt.Printf("Spectral RMSE:    %.1f dB\n", m.SpectralRMSEDB)
	fmt.Printf("Decay slopes:     ref=%.1f dB/s  cand=%.1f dB/s\n", m.RefDecayDBPerS, m.CandDecayDBPerS)
	fmt.Printf("Pitch:            ref=%.2f Hz  cand=%.2f Hz  (%.1f cents)\n", m.RefPitchHz, m.CandPitchHz, m.PitchErrorCents)
	fmt.Println()
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", m.Score)
	fmt.Printf("Similarity:       %.2f%%\n", m.Similarity*100.0)
}

func readResampled(path string, sampleRate int) ([]float64, error) {
	x, sr, err := wavio.ReadMono(path)
	if err != nil {
		return nil, err
	}
	return wavio.ResampleIfNeeded(x, sr, sampleRate)
}

func renderCandidate(presetPath string, note, velocity int, hold, tail float64, sampleRate int) ([2][]float32, error) {
	params := synth.NewDefaultParams()
	if presetPath != "" {
		p, err := preset.LoadJSON(presetPath)
		if err != nil {
			return [2][]float32{}, err
		}
		params = p
	}
	e, err := synth.NewEngine[float32](synth.EngineConfig{SampleRate: float64(sampleRate), Params: params})
	if err != nil {
		return [2][]float32{}, err
	}
	seq := sequence.Note(note, float64(velocity)/127, time.Duration(hold*float64(time.Second)))
	return sequence.RenderUntilSilent(e, seq, 128, time.Duration(tail*float64(time.Second))), nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
