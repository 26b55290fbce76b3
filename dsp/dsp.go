// Package dsp holds the signal primitives the synth voices are built from:
// a multimode resonant filter, the shared brown-noise buffers and the
// logarithmic frequency scale used by the frequency controls.
package dsp

import "math"

// FilterType selects the response of a MultimodeFilter.
type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass

	// NumFilterTypes is the number of selectable filter responses.
	NumFilterTypes
)

func (t FilterType) String() string {
	switch t {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	default:
		return "unknown"
	}
}

// FilterTypeFromNormalized maps a normalized control value to a filter type
// using floor(N*v), clamped to the last type.
func FilterTypeFromNormalized(v float64) FilterType {
	return FilterType(SelectMode(v, int(NumFilterTypes)))
}

// SelectMode maps v in [0,1] to an integer mode in [0, n-1].
func SelectMode(v float64, n int) int {
	if n <= 1 || !(v > 0) {
		return 0
	}
	m := int(math.Floor(float64(n) * v))
	if m > n-1 {
		m = n - 1
	}
	return m
}
