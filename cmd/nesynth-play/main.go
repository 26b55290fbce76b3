package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/cwbudde/algo-nesynth/host"
	"github.com/cwbudde/algo-nesynth/preset"
	"github.com/cwbudde/algo-nesynth/sequence"
	"github.com/cwbudde/algo-nesynth/synth"
)

func main() {
	backend := flag.String("backend", "oto", "Audio backend: oto or jack")
	clientName := flag.String("jack-name", "nesynth", "JACK client name")
	presetPath := flag.String("preset", "", "Preset JSON file path (default patch when empty)")
	midiPath := flag.String("midi", "", "Standard MIDI File to play (oto backend)")
	note := flag.Int("note", 60, "Demo note when no MIDI file is given")
	velocity := flag.Int("velocity", 100, "Demo note velocity (1-127)")
	hold := flag.Float64("hold", 1.0, "Demo note hold in seconds")
	tail := flag.Float64("tail", 1.0, "Seconds to keep playing after the last event")
	sampleRate := flag.Int("sample-rate", 48000, "Output sample rate (oto backend)")
	latency := flag.Duration("latency", host.DefaultLatency, "Device buffer length (oto backend)")
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
	e, err := synth.NewEngine[float32](synth.EngineConfig{SampleRate: float64(*sampleRate), Params: params})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}

	switch *backend {
	case "jack":
		err = runJack(*clientName, e)
	case "oto":
		var seq *sequence.Sequence
		if *midiPath != "" {
			if seq, err = sequence.LoadSMF(*midiPath); err != nil {
				break
			}
		} else {
			seq = sequence.Note(*note, float64(*velocity)/127, seconds(*hold))
		}
		err = runOto(e, *sampleRate, *latency, seq, seconds(*tail))
	default:
		err = fmt.Errorf("unknown backend %q", *backend)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(max(s, 0) * float64(time.Second))
}

// runOto plays seq in real time. Events are posted to the engine queue at
// their wall-clock time and land at the start of the next audio block.
func runOto(e *synth.Engine[float32], sampleRate int, latency time.Duration, seq *sequence.Sequence, tail time.Duration) error {
	player, err := host.NewPlayer(sampleRate, e, latency)
	if err != nil {
		return err
	}
	defer player.Close()
	player.Start()

	fmt.Printf("Playing %d events (%v) at %d Hz...\n", len(seq.Events), seq.Length, sampleRate)
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	start := time.Now()
	for _, te := range seq.Events {
		select {
		case <-time.After(time.Until(start.Add(te.Time))):
		case <-interrupt:
			return nil
		}
		for !e.Post(te.Event) {
			time.Sleep(time.Millisecond)
		}
	}
	select {
	case <-time.After(tail):
	case <-interrupt:
	}
	return nil
}

func runJack(name string, e *synth.Engine[float32]) error {
	jc, err := host.NewJackClient(name, e)
	if err != nil {
		return err
	}
	defer jc.Close()
	if err := jc.Start(); err != nil {
		return err
	}
	fmt.Printf("JACK client %q running; connect its ports and press Ctrl-C to quit\n", name)
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt
	return nil
}
