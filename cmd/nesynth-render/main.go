package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cwbudde/algo-nesynth/analysis"
	"github.com/cwbudde/algo-nesynth/internal/wavio"
	"github.com/cwbudde/algo-nesynth/preset"
	"github.com/cwbudde/algo-nesynth/sequence"
	"github.com/cwbudde/algo-nesynth/synth"
)

func main() {
	note := flag.Int("note", 69, "MIDI note number (69 = A4 = 440 Hz)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (1-127)")
	hold := flag.Float64("hold", 1.0, "Seconds before the note-off")
	tail := flag.Float64("tail", 1.0, "Seconds rendered after the last event")
	autoStop := flag.Bool("auto-stop", true, "Stop once every voice has finished after the last event (tail becomes a maximum)")
	tuning := flag.Float64("tuning", 0, "Per-note tuning in octaves")
	pan := flag.Float64("pan", 0.5, "Note pan expression (0 left, 0.5 centre, 1 right)")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	blockSize := flag.Int("block-size", 128, "Render block size")
	seed := flag.Int64("seed", 1, "Noise buffer seed")
	presetPath := flag.String("preset", "", "Preset JSON file path (default patch when empty)")
	set := flag.String("set", "", "Comma-separated name=normalized parameter overrides, e.g. a.waveform=0.5")
	midiPath := flag.String("midi", "", "Render a Standard MIDI File instead of a single note")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	params := synth.NewDefaultParams()
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
		params = p
	}
	if err := applyOverrides(params, *set); err != nil {
		fmt.Fprintf(os.Stderr, "Error in -set: %v\n", err)
		os.Exit(1)
	}

	e, err := synth.NewEngine[float32](synth.EngineConfig{
		SampleRate: float64(*sampleRate),
		Params:     params,
		NoiseSeed:  *seed,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}

	var seq *sequence.Sequence
	if *midiPath != "" {
		seq, err = sequence.LoadSMF(*midiPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading MIDI file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Rendering %s (%d events, %v) at %d Hz...\n", *midiPath, len(seq.Events), seq.Length, *sampleRate)
	} else {
		seq = singleNote(*note, *velocity, *tuning, *pan, seconds(*hold))
		fmt.Printf("Rendering note %d, velocity %d, hold %.2fs at %d Hz...\n", *note, *velocity, *hold, *sampleRate)
	}

	render := sequence.Render[float32]
	if *autoStop {
		render = sequence.RenderUntilSilent[float32]
	}
	out := render(e, seq, *blockSize, seconds(*tail))
	if err := wavio.WriteStereo(*output, out, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *output, err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s: %d frames, peak %.4f, rms %.4f\n", *output, len(out[0]), wavio.Peak(out), wavio.RMS(out))
	if *midiPath == "" {
		if hz, err := analysis.EstimatePitch(wavio.Mono(out), *sampleRate); err == nil {
			fmt.Printf("Estimated pitch: %.2f Hz\n", hz)
		}
	}
}

func seconds(s float64) time.Duration {
	if s < 0 {
		s = 0
	}
	return time.Duration(s * float64(time.Second))
}

func singleNote(note, velocity int, tuning, pan float64, hold time.Duration) *sequence.Sequence {
	on := synth.NoteOnEvent(0, note, float64(velocity)/127)
	on.Tuning = tuning
	seq := &sequence.Sequence{}
	seq.Add(0, on)
	if pan != 0.5 {
		seq.Add(0, synth.ExpressionEvent(0, synth.PanExpression, pan))
	}
	seq.Add(hold, synth.NoteOffEvent(0, note))
	return seq
}

// applyOverrides parses "name=value,name=value" with normalized values.
func applyOverrides(p *synth.Params, raw string) error {
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, val, ok := strings.Cut(item, "=")
		if !ok {
			return fmt.Errorf("%q: expected name=value", item)
		}
		id, ok := synth.ParamIDByName(strings.TrimSpace(name))
		if !ok {
			return fmt.Errorf("unknown parameter %q", name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || v < 0 || v > 1 {
			return fmt.Errorf("%s: value %q must be in [0,1]", name, val)
		}
		p.SetNormalized(id, v)
	}
	return nil
}
