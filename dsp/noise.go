package dsp

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
)

// MinNoiseSize is the smallest buffer a noise walk can bounce inside.
const MinNoiseSize = 5

const brownLeak = 0.997

// BrownNoise is a precomputed, read-only buffer of leaky-integrated white
// noise. It is safe to share between voices once built.
type BrownNoise struct {
	data []float64
}

// NewBrownNoise builds size samples of brown noise, normalized to a unit
// peak. The seed makes the buffer reproducible.
func NewBrownNoise(size int, sampleRate float64, seed int64) (*BrownNoise, error) {
	if size < MinNoiseSize {
		return nil, fmt.Errorf("noise size must be >= %d: %d", MinNoiseSize, size)
	}
	gen := signal.NewGeneratorWithOptions(
		[]core.ProcessorOption{core.WithSampleRate(sampleRate)},
		signal.WithSeed(seed),
	)
	white, err := gen.WhiteNoise(1, size)
	if err != nil {
		return nil, fmt.Errorf("white noise: %w", err)
	}

	var acc, mean float64
	for i, w := range white {
		acc = brownLeak*acc + (1-brownLeak)*w
		white[i] = acc
		mean += acc
	}
	mean /= float64(size)
	for i := range white {
		white[i] -= mean
	}

	data, err := signal.Normalize(white, 1)
	if err != nil {
		return nil, fmt.Errorf("normalize noise: %w", err)
	}
	return &BrownNoise{data: data}, nil
}

// NewNoiseFromSamples wraps an existing sample slice. The slice must not be
// modified afterwards.
func NewNoiseFromSamples(data []float64) (*BrownNoise, error) {
	if len(data) < MinNoiseSize {
		return nil, fmt.Errorf("noise size must be >= %d: %d", MinNoiseSize, len(data))
	}
	return &BrownNoise{data: data}, nil
}

// At returns the sample at index i.
func (b *BrownNoise) At(i int) float64 { return b.data[i] }

// Len returns the buffer size.
func (b *BrownNoise) Len() int { return len(b.data) }
