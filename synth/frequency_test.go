package synth

import (
	"math"
	"testing"
)

func TestGeneratorHzNeverBelowFloor(t *testing.T) {
	r := NewFrequencyResolver(testSampleRate)
	mods := []float64{-1, -0.1, 0, 0.1}
	masters := []float64{-1, 0, 1}
	notes := []float64{-10, 0, 2}
	detunes := []float64{-1, 0, 1}
	genFreqs := []float64{0, NeutralGenFreq, 1}

	for pitch := 0; pitch < 128; pitch++ {
		base := FrequencyTable[pitch]
		for _, mod := range mods {
			for _, master := range masters {
				for _, note := range notes {
					tuning := r.TuningHz(base, mod, master, note)
					for _, d := range detunes {
						for _, gf := range genFreqs {
							hz := r.GeneratorHz(base, tuning, r.DetuneHz(base, d), r.OffsetHz(gf))
							if !(hz >= MinGeneratorHz) || math.IsInf(hz, 0) {
								t.Fatalf("pitch=%d mod=%v master=%v note=%v detune=%v genFreq=%v: hz=%v",
									pitch, mod, master, note, d, gf, hz)
							}
						}
					}
				}
			}
		}
	}
}

func TestGeneratorHzFloorsNaN(t *testing.T) {
	r := NewFrequencyResolver(testSampleRate)
	if hz := r.GeneratorHz(math.NaN(), 0, 0, 0); hz != MinGeneratorHz {
		t.Fatalf("NaN input gave %v", hz)
	}
}

func TestNeutralGenFreqAddsNoOffset(t *testing.T) {
	r := NewFrequencyResolver(testSampleRate)
	if off := r.OffsetHz(NeutralGenFreq); math.Abs(off) > 1e-6 {
		t.Fatalf("neutral offset=%g", off)
	}
}

func TestTuningAndDetune(t *testing.T) {
	r := NewFrequencyResolver(testSampleRate)
	if hz := r.TuningHz(440, 0, 0, 0); hz != 0 {
		t.Fatalf("zero tuning gave %v", hz)
	}
	// One octave up through the tuning expression (0.1 * 10 = 1 octave).
	if hz := r.TuningHz(440, 0.1, 0, 0); math.Abs(hz-440) > 1e-9 {
		t.Fatalf("octave tuning gave %v", hz)
	}
	// Master tuning 1 = +2 semitones.
	want := 440 * (math.Exp2(2.0/12) - 1)
	if hz := r.TuningHz(440, 0, 1, 0); math.Abs(hz-want) > 1e-9 {
		t.Fatalf("master tuning gave %v want %v", hz, want)
	}
	if hz := r.DetuneHz(440, -1); math.Abs(hz-440*(math.Exp2(-2.0/12)-1)) > 1e-9 {
		t.Fatalf("detune gave %v", hz)
	}
}

func TestPartialRetuneIsPhaseContinuous(t *testing.T) {
	r := NewFrequencyResolver(testSampleRate)
	var p partial
	p.retune(r.Increment(440), 0)
	n := 12345.0
	before := p.value(n, 0)

	p.retune(r.Increment(523.25), n)
	after := p.value(n, 0)
	if math.Abs(before-after) > 1e-9 {
		t.Fatalf("retune jumped: %f -> %f", before, after)
	}

	// The next sample advances by the new increment.
	p2 := p
	next := p2.value(n+1, 0)
	want := math.Sin(n*r.Increment(440) + r.Increment(523.25))
	if math.Abs(next-want) > 1e-9 {
		t.Fatalf("next sample=%f want %f", next, want)
	}
}

func TestPartialRebaseKeepsValue(t *testing.T) {
	var p partial
	p.retune(0.0573, 0)
	n := float64(counterRebase)
	before := p.value(n, 0.3)
	p.rebase(n)
	after := p.value(0, 0.3)
	if math.Abs(before-after) > 1e-9 {
		t.Fatalf("rebase moved phase: %f -> %f", before, after)
	}
}
