package synth

import (
	"math"

	"github.com/cwbudde/algo-nesynth/dsp"
)

const (
	twoPi = 2 * math.Pi

	// counterRebase bounds the sample counter so n*increment keeps its
	// precision on long notes.
	counterRebase = 1 << 20
)

// FrequencyResolver turns pitch, tuning and per-generator offsets into
// oscillator increments for one voice.
type FrequencyResolver struct {
	sampleRate float64
	scale      dsp.LogScale
}

// NewFrequencyResolver creates a resolver using dsp.FrequencyScale for
// the generator frequency offsets.
func NewFrequencyResolver(sampleRate float64) FrequencyResolver {
	return FrequencyResolver{sampleRate: sampleRate, scale: dsp.FrequencyScale}
}

// TuningHz is the offset in Hz produced by the tuning expression, the
// master tuning and the per-note tuning together. It is zero, without any
// exponentials, when all three are zero.
func (r FrequencyResolver) TuningHz(base, tuningMod, masterTuning, noteTuning float64) float64 {
	if tuningMod == 0 && masterTuning == 0 && noteTuning == 0 {
		return 0
	}
	return base * (math.Exp2(tuningMod*10+masterTuning*2/12+noteTuning) - 1)
}

// DetuneHz is the sine detune offset; detune is in [-1,1] and spans two
// semitones each way.
func (r FrequencyResolver) DetuneHz(base, detune float64) float64 {
	if detune == 0 {
		return 0
	}
	return base * (math.Exp2(detune*2/12) - 1)
}

// OffsetHz is the generator frequency offset relative to middle C for a
// control position on the log scale.
func (r FrequencyResolver) OffsetHz(genFreq float64) float64 {
	return r.scale.Scale(genFreq) - MiddleCHz
}

// GeneratorHz sums the frequency terms of one generator and floors the
// result at MinGeneratorHz.
func (r FrequencyResolver) GeneratorHz(base, tuningHz, detuneHz, offsetHz float64) float64 {
	hz := base + tuningHz + detuneHz + offsetHz
	if !(hz >= MinGeneratorHz) {
		return MinGeneratorHz
	}
	return hz
}

// Increment converts Hz to radians per sample.
func (r FrequencyResolver) Increment(hz float64) float64 {
	return hz * twoPi / r.sampleRate
}

// partial is one sinusoidal oscillator evaluated as sin(n*inc + phase),
// where n is the voice's shared sample counter.
type partial struct {
	inc   float64
	phase float64
	set   bool
}

// retune switches to a new increment. The phase is corrected so that
// sin(n*inc + phase) takes the same value at counter n before and after.
func (p *partial) retune(inc, n float64) {
	if !p.set {
		p.inc = inc
		p.set = true
		return
	}
	if inc == p.inc {
		return
	}
	p.phase = (p.inc-inc)*n + p.phase
	p.inc = inc
}

// value evaluates the partial at counter n with an extra phase offset.
func (p *partial) value(n, offset float64) float64 {
	return math.Sin(n*p.inc + p.phase + offset)
}

// rebase folds the accumulated angle into the phase for a counter reset.
func (p *partial) rebase(n float64) {
	p.phase = math.Mod(n*p.inc+p.phase, twoPi)
}

func (p *partial) reset() {
	*p = partial{}
}
