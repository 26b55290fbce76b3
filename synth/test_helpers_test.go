package synth

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-nesynth/dsp"
)

const testSampleRate = 48000.0

func newTestVoice(t testing.TB, p *Params) *Voice[float32] {
	t.Helper()
	if p == nil {
		p = NewDefaultParams()
	}
	var noise [NumGenerators]NoiseSource
	for g := range noise {
		n, err := dsp.NewBrownNoise(4800, testSampleRate, int64(g+1))
		if err != nil {
			t.Fatalf("noise: %v", err)
		}
		noise[g] = n
	}
	return NewVoice[float32](VoiceConfig{
		SampleRate: testSampleRate,
		Params:     p,
		Noise:      noise,
		Seed:       1,
	})
}

func newStereo(n int) [2][]float32 {
	return [2][]float32{make([]float32, n), make([]float32, n)}
}

func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func allFinite(samples []float32) bool {
	for _, s := range samples {
		if !isFinite(float64(s)) {
			return false
		}
	}
	return true
}

func zeroCrossingHz(samples []float32, sampleRate float64) float64 {
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] < 0 && samples[i] >= 0) || (samples[i-1] >= 0 && samples[i] < 0) {
			crossings++
		}
	}
	duration := float64(len(samples)) / sampleRate
	return float64(crossings) / (2 * duration)
}
