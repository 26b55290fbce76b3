package synth

import (
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-nesynth/dsp"
)

// Waveform selects what a generator plays.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveTriangle
	WaveNoise

	// NumWaveforms is the number of selectable waveforms.
	NumWaveforms
)

func (w Waveform) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveSquare:
		return "square"
	case WaveTriangle:
		return "triangle"
	case WaveNoise:
		return "noise"
	default:
		return "unknown"
	}
}

// WaveformFromNormalized maps a normalized control to a waveform using
// floor(N*v), clamped to the last one.
func WaveformFromNormalized(v float64) Waveform {
	return Waveform(dsp.SelectMode(v, int(NumWaveforms)))
}

// NoiseSource is a read-only sample buffer shared by all voices. Sources
// shorter than dsp.MinNoiseSize are treated as absent.
type NoiseSource interface {
	At(i int) float64
	Len() int
}

// Filter is the resonant filter each generator and the master bus own.
// damping is in [0,1], 1 meaning no resonance.
type Filter interface {
	SetType(t dsp.FilterType)
	SetFreqAndQ(freqHz, damping float64)
	Process(x float64) float64
	Reset()
	SetSampleRate(sampleRate float64)
}

// FilterFactory builds the filters a voice owns.
type FilterFactory func(sampleRate float64) Filter

// NewDefaultFilter is the FilterFactory backed by dsp.MultimodeFilter.
func NewDefaultFilter(sampleRate float64) Filter {
	return dsp.NewMultimodeFilter(sampleRate)
}

// filterStage is a filter with ramped frequency and resonance controls,
// both normalized. Coefficients are only redesigned while a ramp moves.
type filterStage struct {
	filter Filter
	kind   dsp.FilterType
	freq   Ramp
	q      Ramp
}

func (f *filterStage) setType(t dsp.FilterType) {
	if t == f.kind {
		return
	}
	f.kind = t
	f.filter.SetType(t)
}

// jump moves the controls without ramping and redesigns immediately.
func (f *filterStage) jump(freq, q float64) {
	f.freq.Jump(freq)
	f.q.Jump(q)
	f.filter.SetFreqAndQ(dsp.FrequencyScale.Scale(freq), 1-q)
}

func (f *filterStage) prepare(freq, q float64, rampTime int) {
	f.freq.SetTarget(freq)
	f.q.SetTarget(q)
	f.freq.Prepare(rampTime)
	f.q.Prepare(rampTime)
}

func (f *filterStage) process(x float64) float64 {
	if f.freq.Active() || f.q.Active() {
		f.freq.Advance()
		f.q.Advance()
		f.filter.SetFreqAndQ(dsp.FrequencyScale.Scale(f.freq.Value()), 1-f.q.Value())
	}
	return f.filter.Process(x)
}

func (f *filterStage) reset() {
	f.filter.Reset()
	f.setType(dsp.Lowpass)
	f.jump(1, 0)
}

// noiseWalk is a read position bouncing inside [2, size-2).
type noiseWalk struct {
	pos  int
	step int
}

func (w *noiseWalk) reset() {
	w.pos = 2
	w.step = 1
}

// advance moves one sample. Hitting the upper bound jumps to a random
// position and turns downwards; hitting the lower bound turns upwards.
func (w *noiseWalk) advance(size int, rng *rand.Rand) {
	w.pos += w.step
	switch {
	case w.pos >= size-2:
		w.pos = 2 + rng.IntN(size-4)
		w.step = -1
	case w.pos < 2:
		w.pos = 2
		w.step = 1
	}
}

type waveShape func(g *Generator, n float64) float64

var waveShapes = [NumWaveforms]waveShape{
	WaveSine:     sineShape,
	WaveSquare:   squareShape,
	WaveTriangle: triangleShape,
	WaveNoise:    noiseShape,
}

func sineShape(g *Generator, n float64) float64 {
	return g.sine.value(n, 0) * g.sineVol.Value()
}

func squareShape(g *Generator, n float64) float64 {
	osc := g.tri.value(n, 0)
	return (math.Floor(osc) + 0.5) * g.squareVol.Value()
}

func triangleShape(g *Generator, n float64) float64 {
	osc := g.tri.value(n, 0)
	return (osc - math.Abs(g.tri.value(n, 1+g.slope.Value()))) * g.triVol.Value()
}

func noiseShape(g *Generator, _ float64) float64 {
	if g.noise == nil {
		return 0
	}
	return g.noise.At(g.walk.pos) * g.noiseVol.Value()
}

// Generator is one oscillator+filter chain of a voice.
type Generator struct {
	waveform Waveform
	shape    waveShape

	sine partial
	tri  partial
	// Last resolved frequencies, for inspection.
	sineHz float64
	triHz  float64

	sineVol   Ramp
	triVol    Ramp
	squareVol Ramp
	noiseVol  Ramp
	slope     Ramp

	noise NoiseSource
	walk  noiseWalk

	filter filterStage
}

func newGenerator(filter Filter, noise NoiseSource) Generator {
	g := Generator{
		filter: filterStage{filter: filter, kind: dsp.Lowpass},
		noise:  usableNoise(noise),
	}
	g.setWaveform(WaveSine)
	g.walk.reset()
	return g
}

// usableNoise drops sources too short for the walk to bounce inside.
func usableNoise(n NoiseSource) NoiseSource {
	if n == nil || n.Len() < dsp.MinNoiseSize {
		return nil
	}
	return n
}

// setWaveform swaps the shape function; the hot loop never branches on
// the waveform.
func (g *Generator) setWaveform(w Waveform) {
	if w < 0 || w >= NumWaveforms {
		w = WaveSine
	}
	g.waveform = w
	g.shape = waveShapes[w]
}

// Waveform returns the selected waveform.
func (g *Generator) Waveform() Waveform { return g.waveform }

// Frequencies returns the sine and triangle partial frequencies in Hz.
func (g *Generator) Frequencies() (sineHz, triHz float64) { return g.sineHz, g.triHz }

func (g *Generator) next(n float64) float64 {
	return g.filter.process(g.shape(g, n))
}

func (g *Generator) advance(rng *rand.Rand) {
	g.sineVol.Advance()
	g.triVol.Advance()
	g.squareVol.Advance()
	g.noiseVol.Advance()
	g.slope.Advance()
	if g.noise != nil {
		g.walk.advance(g.noise.Len(), rng)
	}
}

func (g *Generator) reset() {
	g.sine.reset()
	g.tri.reset()
	g.sineHz, g.triHz = 0, 0
	g.sineVol.Jump(0.5)
	g.triVol.Jump(0.5)
	g.squareVol.Jump(0.5)
	g.noiseVol.Jump(0.5)
	g.slope.Jump(0.5)
	g.walk.reset()
	g.setWaveform(WaveSine)
	g.filter.reset()
}
