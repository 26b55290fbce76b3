package dsp

import (
	"math"
	"testing"
)

func TestBrownNoiseRejectsTinyBuffers(t *testing.T) {
	if _, err := NewBrownNoise(4, 48000, 1); err == nil {
		t.Fatalf("expected error for size below %d", MinNoiseSize)
	}
	if _, err := NewNoiseFromSamples([]float64{1, 2}); err == nil {
		t.Fatalf("expected error for short sample slice")
	}
}

func TestBrownNoiseIsNormalizedAndDeterministic(t *testing.T) {
	a, err := NewBrownNoise(48000, 48000, 7)
	if err != nil {
		t.Fatalf("NewBrownNoise: %v", err)
	}
	b, err := NewBrownNoise(48000, 48000, 7)
	if err != nil {
		t.Fatalf("NewBrownNoise: %v", err)
	}
	if a.Len() != 48000 {
		t.Fatalf("expected 48000 samples, got %d", a.Len())
	}

	peak := 0.0
	for i := 0; i < a.Len(); i++ {
		if a.At(i) != b.At(i) {
			t.Fatalf("expected identical buffers for same seed at %d", i)
		}
		peak = math.Max(peak, math.Abs(a.At(i)))
	}
	if math.Abs(peak-1) > 1e-9 {
		t.Fatalf("expected unit peak, got %f", peak)
	}
}

func TestBrownNoiseIsLowFrequencyHeavy(t *testing.T) {
	n, err := NewBrownNoise(48000, 48000, 3)
	if err != nil {
		t.Fatalf("NewBrownNoise: %v", err)
	}
	// Integrated noise changes slowly: neighbouring samples are much closer
	// than the overall spread.
	var diff, total float64
	for i := 1; i < n.Len(); i++ {
		d := n.At(i) - n.At(i-1)
		diff += d * d
		total += n.At(i) * n.At(i)
	}
	if diff > total*0.05 {
		t.Fatalf("expected brown spectrum, diff energy %f vs total %f", diff, total)
	}
}
