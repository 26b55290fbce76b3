package dsp

import (
	"math"
	"testing"
)

func TestFrequencyScaleEndpoints(t *testing.T) {
	cases := []struct {
		x, want float64
	}{
		{0, 80},
		{0.5, 1800},
		{1, 18000},
	}
	for _, c := range cases {
		got := FrequencyScale.Scale(c.x)
		if math.Abs(got-c.want) > 1e-6*c.want {
			t.Fatalf("Scale(%v) = %f, want %f", c.x, got, c.want)
		}
	}
}

func TestFrequencyScaleClampsInput(t *testing.T) {
	if got := FrequencyScale.Scale(-3); math.Abs(got-80) > 1e-6 {
		t.Fatalf("expected clamp to 80 Hz, got %f", got)
	}
	if got := FrequencyScale.Scale(7); math.Abs(got-18000) > 1e-3 {
		t.Fatalf("expected clamp to 18 kHz, got %f", got)
	}
}

func TestFrequencyScaleInvert(t *testing.T) {
	for _, hz := range []float64{80, 261, 440, 1800, 9000, 18000} {
		x := FrequencyScale.Invert(hz)
		back := FrequencyScale.Scale(x)
		if math.Abs(back-hz) > 1e-6*hz {
			t.Fatalf("Invert(%f) -> %f -> %f", hz, x, back)
		}
	}
	if x := FrequencyScale.Invert(-500); x != 0 {
		t.Fatalf("expected out-of-range inversion to clamp to 0, got %f", x)
	}
}

func TestFrequencyScaleMonotonic(t *testing.T) {
	prev := FrequencyScale.Scale(0)
	for i := 1; i <= 100; i++ {
		y := FrequencyScale.Scale(float64(i) / 100)
		if y <= prev {
			t.Fatalf("expected increasing curve at %d: %f <= %f", i, y, prev)
		}
		prev = y
	}
}
