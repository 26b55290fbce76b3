package synth

import (
	"fmt"

	"github.com/GeoffreyPlitt/debuggo"
	"github.com/cwbudde/algo-nesynth/dsp"
)

var debug = debuggo.Debug("nesynth:engine")

const (
	// MaxVoices is the default polyphony.
	MaxVoices = 64
	// DefaultQueueSize is the default capacity of the event queue.
	DefaultQueueSize = 256
)

// EngineConfig configures NewEngine. Zero fields take defaults.
type EngineConfig struct {
	SampleRate float64
	MaxVoices  int
	Params     *Params
	Filters    FilterFactory
	QueueSize  int
	// NoiseSeed seeds the two brown-noise buffers and the voices' walks.
	NoiseSeed int64
}

// Engine is the polyphonic voice pool. It owns the patch and the shared
// noise buffers. All methods except Post and Queue must be called from
// the goroutine running Process.
type Engine[T Sample] struct {
	sampleRate float64
	params     *Params
	mapper     *ExpressionMapper
	voices     []*Voice[T]
	noise      [NumGenerators]*dsp.BrownNoise
	noiseSeed  int64
	queue      chan Event

	counter uint64
	active  int
}

// NewEngine creates an engine with idle voices.
func NewEngine[T Sample](cfg EngineConfig) (*Engine[T], error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %v", cfg.SampleRate)
	}
	if cfg.MaxVoices <= 0 {
		cfg.MaxVoices = MaxVoices
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Params == nil {
		cfg.Params = NewDefaultParams()
	}
	e := &Engine[T]{
		sampleRate: cfg.SampleRate,
		params:     cfg.Params,
		mapper:     NewExpressionMapper(),
		voices:     make([]*Voice[T], cfg.MaxVoices),
		noiseSeed:  cfg.NoiseSeed,
		queue:      make(chan Event, cfg.QueueSize),
	}
	if err := e.buildNoise(); err != nil {
		return nil, err
	}
	for i := range e.voices {
		e.voices[i] = NewVoice[T](VoiceConfig{
			SampleRate: cfg.SampleRate,
			Params:     e.params,
			Noise:      [NumGenerators]NoiseSource{e.noise[GenA], e.noise[GenB]},
			Filters:    cfg.Filters,
			Mapper:     e.mapper,
			Seed:       uint64(cfg.NoiseSeed) + uint64(i),
		})
	}
	debug("engine created: %d voices at %.0f Hz", len(e.voices), cfg.SampleRate)
	return e, nil
}

// buildNoise creates the two brown-noise buffers, one second long each.
func (e *Engine[T]) buildNoise() error {
	size := int(e.sampleRate)
	for g := range e.noise {
		n, err := dsp.NewBrownNoise(size, e.sampleRate, e.noiseSeed+int64(g)+1)
		if err != nil {
			return fmt.Errorf("noise buffer %d: %w", g, err)
		}
		e.noise[g] = n
	}
	return nil
}

// Params returns the live patch. Changes apply from the next block.
func (e *Engine[T]) Params() *Params { return e.params }

// SetParams replaces the patch.
func (e *Engine[T]) SetParams(p *Params) {
	if p == nil {
		return
	}
	e.params = p
	for _, v := range e.voices {
		v.SetParams(p)
	}
}

// SampleRate returns the current sample rate.
func (e *Engine[T]) SampleRate() float64 { return e.sampleRate }

// SetSampleRate stops every voice, rebuilds the noise buffers and retunes
// the voices for the new rate.
func (e *Engine[T]) SetSampleRate(hz float64) error {
	if hz <= 0 {
		return fmt.Errorf("invalid sample rate %v", hz)
	}
	e.sampleRate = hz
	if err := e.buildNoise(); err != nil {
		return err
	}
	for _, v := range e.voices {
		v.Reset()
		v.SetSampleRate(hz)
		for g := range v.gen {
			v.gen[g].noise = usableNoise(e.noise[g])
		}
	}
	e.active = 0
	debug("sample rate changed to %.0f Hz", hz)
	return nil
}

// Queue returns the channel other goroutines post events through. It is
// drained at the start of every Process call.
func (e *Engine[T]) Queue() chan<- Event { return e.queue }

// Post queues ev without blocking and reports whether it fit.
func (e *Engine[T]) Post(ev Event) bool {
	select {
	case e.queue <- ev:
		return true
	default:
		return false
	}
}

// Apply executes one event immediately.
func (e *Engine[T]) Apply(ev Event) {
	switch ev.Kind {
	case EventNoteOn:
		e.NoteOn(ev.Pitch, ev.Velocity, ev.Tuning, ev.Offset, ev.NoteID)
	case EventNoteOff:
		e.NoteOff(ev.NoteID, ev.Pitch, ev.Velocity, ev.Offset)
	case EventExpression:
		e.SetExpression(ev.NoteID, ev.Expression, ev.Value)
	case EventParam:
		e.SetParam(ev.Param, ev.Value)
	case EventReset:
		e.Reset()
	}
}

// NoteOn starts a note on a free voice, stealing one when the pool is
// full. A zero velocity is a note-off.
func (e *Engine[T]) NoteOn(pitch int, velocity, tuning float64, sampleOffset int, noteID int32) {
	if velocity <= 0 {
		e.NoteOff(noteID, pitch, 0, sampleOffset)
		return
	}
	v := e.freeVoice()
	if v == nil {
		v = e.stealVoice()
		v.Reset()
	}
	e.counter++
	v.started = e.counter
	v.NoteOn(pitch, velocity, tuning, sampleOffset, noteID)
}

func (e *Engine[T]) freeVoice() *Voice[T] {
	for _, v := range e.voices {
		if !v.Active() {
			return v
		}
	}
	return nil
}

// stealVoice picks the oldest releasing voice, or the oldest voice when
// none is releasing.
func (e *Engine[T]) stealVoice() *Voice[T] {
	var oldest, oldestReleasing *Voice[T]
	for _, v := range e.voices {
		if oldest == nil || v.started < oldest.started {
			oldest = v
		}
		if v.Releasing() && (oldestReleasing == nil || v.started < oldestReleasing.started) {
			oldestReleasing = v
		}
	}
	if oldestReleasing != nil {
		return oldestReleasing
	}
	return oldest
}

// NoteOff releases the voice playing noteID. With a negative noteID every
// held voice playing pitch is released instead.
func (e *Engine[T]) NoteOff(noteID int32, pitch int, velocity float64, sampleOffset int) {
	for _, v := range e.voices {
		if !v.Active() || v.Releasing() {
			continue
		}
		if noteID >= 0 {
			if v.NoteID() == noteID {
				v.NoteOff(velocity, sampleOffset)
				return
			}
			continue
		}
		if v.Pitch() == pitch {
			v.NoteOff(velocity, sampleOffset)
		}
	}
}

// SetExpression sends a note expression to the voice playing noteID, or
// to every active voice when noteID is negative.
func (e *Engine[T]) SetExpression(noteID int32, id ExpressionID, value float64) {
	for _, v := range e.voices {
		if !v.Active() {
			continue
		}
		if noteID < 0 || v.NoteID() == noteID {
			v.SetExpressionValue(id, value)
		}
	}
}

// SetParam applies a host-normalized patch parameter.
func (e *Engine[T]) SetParam(id ParamID, normalized float64) {
	e.params.SetNormalized(id, normalized)
}

// Reset stops every voice and empties the queue.
func (e *Engine[T]) Reset() {
	for _, v := range e.voices {
		v.Reset()
	}
	e.active = 0
	for {
		select {
		case <-e.queue:
		default:
			return
		}
	}
}

// Process drains the event queue, clears out and renders numSamples of
// every active voice into it. It reports whether any voice sounded.
func (e *Engine[T]) Process(out [2][]T, numSamples int) bool {
	e.drain()

	numSamples = min(numSamples, len(out[0]), len(out[1]))
	left, right := out[0][:numSamples], out[1][:numSamples]
	clear(left)
	clear(right)

	active := 0
	for _, v := range e.voices {
		if !v.Active() {
			continue
		}
		if v.Process(out, numSamples) {
			active++
		} else {
			v.Reset()
		}
	}
	e.active = active

	if w := e.params.StereoMS; w > 0 && active > 0 {
		midGain, sideGain := T(1-w), T(1+w)
		for i := range left {
			mid := (left[i] + right[i]) / 2
			side := (left[i] - right[i]) / 2
			mid *= midGain
			side *= sideGain
			left[i] = mid + side
			right[i] = mid - side
		}
	}
	return active > 0
}

func (e *Engine[T]) drain() {
	for {
		select {
		case ev := <-e.queue:
			if ev.Kind == EventReset {
				// Reset would drain the queue we are reading.
				for _, v := range e.voices {
					v.Reset()
				}
				e.active = 0
				continue
			}
			e.Apply(ev)
		default:
			return
		}
	}
}

// ActiveVoices returns the number of voices that sounded in the last block.
func (e *Engine[T]) ActiveVoices() int { return e.active }

// ActiveVoicesNormalized is ActiveVoices over the pool size, for hosts that
// expect a normalized output parameter.
func (e *Engine[T]) ActiveVoicesNormalized() float64 {
	return float64(e.active) / float64(len(e.voices))
}

// Voices returns the pool, for inspection.
func (e *Engine[T]) Voices() []*Voice[T] { return e.voices }
