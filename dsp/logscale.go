package dsp

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// LogScale maps a normalized control in [x0, x1] onto an exponential curve
// y = a*exp(b*x) + c that passes through (x0, min), the midpoint of the
// control range at mid, and (x1, max).
type LogScale struct {
	x0, x1  float64
	a, b, c float64
}

// NewLogScale builds the curve. mid must lie strictly between min and max
// and must not be their arithmetic mean.
func NewLogScale(x0, x1, min, max, mid float64) LogScale {
	r := (max - mid) / (mid - min)
	a := (mid - min) / (r - 1)
	b := 2 * math.Log(r) / (x1 - x0)
	return LogScale{
		x0: x0,
		x1: x1,
		a:  a,
		b:  b,
		c:  min - a,
	}
}

// FrequencyScale is the 80 Hz .. 18 kHz curve used by the filter and
// generator frequency controls, centred on 1.8 kHz.
var FrequencyScale = NewLogScale(0, 1, 80, 18000, 1800)

// Scale maps x to the curve, clamping x to the control range.
func (s LogScale) Scale(x float64) float64 {
	x = core.Clamp(x, s.x0, s.x1)
	return s.a*math.Exp(s.b*(x-s.x0)) + s.c
}

// Invert returns the control value that produces y.
func (s LogScale) Invert(y float64) float64 {
	v := (y - s.c) / s.a
	if v <= 0 {
		return s.x0
	}
	return core.Clamp(math.Log(v)/s.b+s.x0, s.x0, s.x1)
}
