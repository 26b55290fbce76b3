package dsp

import (
	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

const (
	minFilterHz    = 20.0
	maxFilterRatio = 0.45 // of the sample rate, keeps the design below Nyquist
	minResonanceQ  = 0.70710678
	maxResonanceQ  = 10.0
)

// MultimodeFilter is a resonant lowpass/highpass/bandpass biquad.
// Coefficients come from algo-dsp's RBJ designs; state is kept across
// type and frequency changes so sweeps stay click-free.
type MultimodeFilter struct {
	section    biquad.Section
	kind       FilterType
	sampleRate float64
	freq       float64
	damping    float64
}

// NewMultimodeFilter creates a lowpass filter fully open at the given rate.
func NewMultimodeFilter(sampleRate float64) *MultimodeFilter {
	f := &MultimodeFilter{
		kind:       Lowpass,
		sampleRate: sampleRate,
		damping:    1,
	}
	f.freq = f.maxFreq()
	f.update()
	return f
}

// Type returns the current response.
func (f *MultimodeFilter) Type() FilterType { return f.kind }

// SetType switches the response. Unknown types fall back to lowpass.
func (f *MultimodeFilter) SetType(t FilterType) {
	if t < 0 || t >= NumFilterTypes {
		t = Lowpass
	}
	if t == f.kind {
		return
	}
	f.kind = t
	f.update()
}

// SetFreqAndQ sets the cutoff in Hz and the damping in [0,1], where 1 is a
// flat Butterworth corner and 0 the strongest resonance.
func (f *MultimodeFilter) SetFreqAndQ(freqHz, damping float64) {
	freqHz = core.Clamp(freqHz, minFilterHz, f.maxFreq())
	damping = core.Clamp(damping, 0, 1)
	if freqHz == f.freq && damping == f.damping {
		return
	}
	f.freq = freqHz
	f.damping = damping
	f.update()
}

// Process filters one sample.
func (f *MultimodeFilter) Process(x float64) float64 {
	return core.FlushDenormals(f.section.ProcessSample(x))
}

// Reset clears the filter memory without touching its settings.
func (f *MultimodeFilter) Reset() {
	f.section.Reset()
}

// SetSampleRate redesigns the filter for a new rate.
func (f *MultimodeFilter) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 || sampleRate == f.sampleRate {
		return
	}
	f.sampleRate = sampleRate
	f.freq = core.Clamp(f.freq, minFilterHz, f.maxFreq())
	f.section.Reset()
	f.update()
}

// Freq returns the cutoff currently designed in.
func (f *MultimodeFilter) Freq() float64 { return f.freq }

func (f *MultimodeFilter) maxFreq() float64 {
	return f.sampleRate * maxFilterRatio
}

func (f *MultimodeFilter) update() {
	q := resonanceQ(f.damping)
	switch f.kind {
	case Highpass:
		f.section.Coefficients = design.Highpass(f.freq, q, f.sampleRate)
	case Bandpass:
		f.section.Coefficients = design.Bandpass(f.freq, q, f.sampleRate)
	default:
		f.section.Coefficients = design.Lowpass(f.freq, q, f.sampleRate)
	}
}

// resonanceQ maps damping 1..0 onto Q 0.707..10 with a squared taper.
func resonanceQ(damping float64) float64 {
	r := 1 - damping
	return minResonanceQ + (maxResonanceQ-minResonanceQ)*r*r
}
