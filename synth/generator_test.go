package synth

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cwbudde/algo-nesynth/dsp"
)

func TestNoiseWalkStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for size := dsp.MinNoiseSize; size <= 200; size++ {
		var w noiseWalk
		w.reset()
		for i := 0; i < 10000; i++ {
			w.advance(size, rng)
			if w.pos < 2 || w.pos >= size-2 {
				t.Fatalf("size=%d step %d: pos=%d out of [2,%d)", size, i, w.pos, size-2)
			}
		}
	}
}

func TestNoiseWalkTurnsAtBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	var w noiseWalk
	w.reset()
	sawDown := false
	for i := 0; i < 1000; i++ {
		w.advance(64, rng)
		if w.step == -1 {
			sawDown = true
		}
	}
	if !sawDown {
		t.Fatalf("walk never turned at the upper bound")
	}
}

func TestWaveformFromNormalized(t *testing.T) {
	cases := map[float64]Waveform{
		0:    WaveSine,
		0.2:  WaveSine,
		0.25: WaveSquare,
		0.5:  WaveTriangle,
		0.75: WaveNoise,
		1:    WaveNoise,
		-3:   WaveSine,
	}
	for v, want := range cases {
		if got := WaveformFromNormalized(v); got != want {
			t.Fatalf("WaveformFromNormalized(%v)=%v want %v", v, got, want)
		}
	}
}

func TestSquareShapeIsTwoLevel(t *testing.T) {
	g := newGenerator(NewDefaultFilter(testSampleRate), nil)
	g.reset()
	g.setWaveform(WaveSquare)
	g.tri.retune(0.01, 0)
	for n := 0; n < 1000; n++ {
		v := squareShape(&g, float64(n))
		if math.Abs(math.Abs(v)-0.25) > 1e-12 {
			t.Fatalf("square sample %d=%f want +-0.25", n, v)
		}
	}
}

func TestNoiseShapeWithoutSourceIsSilent(t *testing.T) {
	g := newGenerator(NewDefaultFilter(testSampleRate), nil)
	g.reset()
	g.setWaveform(WaveNoise)
	if v := g.shape(&g, 10); v != 0 {
		t.Fatalf("nil noise source gave %f", v)
	}
}

type shortNoise []float64

func (s shortNoise) At(i int) float64 { return s[i] }
func (s shortNoise) Len() int         { return len(s) }

func TestShortNoiseSourceIsSilent(t *testing.T) {
	p := NewDefaultParams()
	p.Gen[GenA].Waveform = WaveNoise
	p.Gen[GenB].Waveform = WaveNoise
	v := NewVoice[float32](VoiceConfig{
		SampleRate: testSampleRate,
		Params:     p,
		Noise:      [NumGenerators]NoiseSource{shortNoise{1, 1, 1}, shortNoise{1, 1, 1, 1}},
		Seed:       1,
	})
	v.NoteOn(60, 1, 0, 0, 1)
	out := newStereo(512)
	v.Process(out, 512)
	if rms(out[0]) != 0 || rms(out[1]) != 0 {
		t.Fatalf("noise from a too-short source should be silent")
	}
}

func TestSetWaveformRejectsUnknown(t *testing.T) {
	g := newGenerator(NewDefaultFilter(testSampleRate), nil)
	g.setWaveform(Waveform(42))
	if g.Waveform() != WaveSine {
		t.Fatalf("unknown waveform selected %v", g.Waveform())
	}
}
