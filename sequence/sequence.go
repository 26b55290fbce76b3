// Package sequence loads Standard MIDI Files into timed engine events and
// renders them offline.
package sequence

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/GeoffreyPlitt/debuggo"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cwbudde/algo-nesynth/synth"
)

var debug = debuggo.Debug("nesynth:sequence")

// TimedEvent is an engine event at an absolute time.
type TimedEvent struct {
	Time  time.Duration
	Event synth.Event
}

// Sequence is a time-ordered list of events.
type Sequence struct {
	Events []TimedEvent
	// Length is the time of the last event.
	Length time.Duration
}

// Add appends an event and keeps Length current. Events must be added in
// time order, or Sort called afterwards.
func (s *Sequence) Add(at time.Duration, ev synth.Event) {
	s.Events = append(s.Events, TimedEvent{Time: at, Event: ev})
	if at > s.Length {
		s.Length = at
	}
}

// Sort orders the events by time, keeping the insertion order of events at
// the same time.
func (s *Sequence) Sort() {
	sort.SliceStable(s.Events, func(i, j int) bool {
		return s.Events[i].Time < s.Events[j].Time
	})
}

// LoadSMF reads a Standard MIDI File.
func LoadSMF(path string) (*Sequence, error) {
	seq, err := collect(smf.ReadTracks(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	debug("loaded %s: %d events, %v", path, len(seq.Events), seq.Length)
	return seq, nil
}

// ReadSMF reads a Standard MIDI File from r.
func ReadSMF(r io.Reader) (*Sequence, error) {
	return collect(smf.ReadTracksFrom(r))
}

func collect(tr *smf.TracksReader) (*Sequence, error) {
	var raw []smf.TrackEvent
	tr.Do(func(te smf.TrackEvent) {
		raw = append(raw, te)
	})
	if err := tr.Error(); err != nil {
		return nil, err
	}
	// Tracks are delivered one after another; merge them on the time axis
	// before assigning note ids.
	sort.SliceStable(raw, func(i, j int) bool {
		return raw[i].AbsMicroSeconds < raw[j].AbsMicroSeconds
	})

	seq := &Sequence{}
	tl := NewTranslator()
	for _, te := range raw {
		ev, ok := tl.Translate(midi.Message(te.Message))
		if !ok {
			continue
		}
		seq.Add(time.Duration(te.AbsMicroSeconds)*time.Microsecond, ev)
	}
	return seq, nil
}

// Render plays seq through e and returns the stereo result, tail included.
// Note events keep their exact sample position through the event offset;
// expressions and parameter changes apply at the start of their block.
func Render[T synth.Sample](e *synth.Engine[T], seq *Sequence, blockSize int, tail time.Duration) [2][]T {
	return render(e, seq, blockSize, tail, false)
}

// RenderUntilSilent is Render but stops at the first silent block after
// the last event, so tail is an upper bound.
func RenderUntilSilent[T synth.Sample](e *synth.Engine[T], seq *Sequence, blockSize int, tail time.Duration) [2][]T {
	return render(e, seq, blockSize, tail, true)
}

func render[T synth.Sample](e *synth.Engine[T], seq *Sequence, blockSize int, tail time.Duration, stopOnSilence bool) [2][]T {
	if blockSize <= 0 {
		blockSize = 256
	}
	if seq == nil {
		seq = &Sequence{}
	}
	sr := e.SampleRate()
	total := int(math.Ceil((seq.Length + tail).Seconds() * sr))
	out := [2][]T{make([]T, total), make([]T, total)}

	next := 0
	for pos := 0; pos < total; pos += blockSize {
		n := min(blockSize, total-pos)
		for next < len(seq.Events) {
			te := seq.Events[next]
			at := int(te.Time.Seconds() * sr)
			if at >= pos+n {
				break
			}
			ev := te.Event
			ev.Offset = max(at-pos, 0)
			e.Apply(ev)
			next++
		}
		sounding := e.Process([2][]T{out[0][pos : pos+n], out[1][pos : pos+n]}, n)
		if stopOnSilence && !sounding && next == len(seq.Events) {
			debug("silent after %d frames", pos+n)
			return [2][]T{out[0][:pos+n], out[1][:pos+n]}
		}
	}
	return out
}

// Note builds a one-note sequence: note-on at zero, note-off after hold.
func Note(pitch int, velocity float64, hold time.Duration) *Sequence {
	seq := &Sequence{}
	seq.Add(0, synth.NoteOnEvent(0, pitch, velocity))
	seq.Add(hold, synth.NoteOffEvent(0, pitch))
	return seq
}
