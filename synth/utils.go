package synth

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

const (
	// MaxVolume is the envelope ceiling reached at the end of the attack.
	MaxVolume = 0.8

	MaxAttackSec  = 5.0
	MaxDecaySec   = 5.0
	MaxReleaseSec = 5.0

	// MinGeneratorHz floors every resolved generator frequency.
	MinGeneratorHz = 10.0
	// MiddleCHz is the reference the generator frequency offset is
	// measured against.
	MiddleCHz      = 261.0

	minRampSec   = 0.005
	timeFloorSec = 0.005
)

// Gain law constants: 12 dB of headroom at the centre position and a 24 dB
// span above it.
var (
	scaleHeadRoom    = math.Pow(10, -12.0/20.0) * 0.70710677
	scaleNorm2GainC1 = scaleHeadRoom * math.Pow(10, 24.0/20.0)
	scaleNorm2GainC2 = (24.0 / 20.0) / math.Log10(2)
)

// NormalizedLevelToGain maps a normalized level to linear gain. Above 0.5
// it is exponential in dB, below 0.5 a power curve that meets it at 0.5.
func NormalizedLevelToGain(v float64) float64 {
	if v >= 0.5 {
		return scaleHeadRoom * math.Pow(10, (v-0.5)*24.0/20.0)
	}
	return scaleNorm2GainC1 * math.Pow(v, scaleNorm2GainC2)
}

// FrequencyTable maps a MIDI note to its equal-tempered frequency, A4 = 440 Hz.
var FrequencyTable = func() [128]float64 {
	var t [128]float64
	for i := range t {
		t[i] = midiNoteToFreq(i)
	}
	return t
}()

func midiNoteToFreq(note int) float64 {
	const a4Freq = 440.0
	const a4Note = 69
	return a4Freq * math.Exp2(float64(note-a4Note)/12.0)
}

// timeFactor scales envelope times by 100^mod; a zero modulation leaves
// them untouched.
func timeFactor(mod float64) float64 {
	if mod == 0 {
		return 1
	}
	const ln100 = 4.605170185988092
	return float64(approx.FastExp(float32(mod * ln100)))
}

// envelopeRate returns the per-sample volume increment for a stage that
// takes timeNorm*maxSec seconds at the given modulation.
func envelopeRate(sampleRate, timeNorm, maxSec, mod float64) float64 {
	return 1.0 / (timeFactor(mod) * sampleRate * (timeNorm*maxSec + timeFloorSec))
}

// rampSamples is the ramp window for a block: at least the block and at
// least 5 ms.
func rampSamples(sampleRate float64, blockLen int) int {
	n := int(math.Ceil(sampleRate * minRampSec))
	if blockLen > n {
		n = blockLen
	}
	if n < 1 {
		n = 1
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
