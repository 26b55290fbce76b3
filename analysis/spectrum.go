package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

const (
	minSpectrumSize = 512
	maxSpectrumSize = 4096
)

// spectralRMSEDB is the RMS difference in dB between the magnitude spectra
// of the Hann-windowed heads of a and b, DC excluded.
func spectralRMSEDB(a []float64, b []float64) float64 {
	aw, bw, bins := spectralWindowedInputs(a, b)
	if bins < 2 {
		return 0
	}
	n := len(aw)
	plan, err := algofft.NewPlanReal64(n)
	if err != nil {
		return spectralRMSEDBNaiveWindowed(aw, bw, bins)
	}
	sa := make([]complex128, n/2+1)
	sb := make([]complex128, n/2+1)
	plan.Forward(sa, aw)
	plan.Forward(sb, bw)

	var sum float64
	for k := 1; k < bins; k++ {
		d := linToDB(cmplx.Abs(sa[k])) - linToDB(cmplx.Abs(sb[k]))
		sum += d * d
	}
	return math.Sqrt(sum / float64(bins-1))
}

// spectralWindowedInputs windows the first power-of-two samples shared by
// a and b (between 512 and 4096). bins is zero when they are too short.
func spectralWindowedInputs(a []float64, b []float64) ([]float64, []float64, int) {
	n := min(len(a), len(b))
	if n < minSpectrumSize {
		return nil, nil, 0
	}
	n = powerOfTwoFloor(min(n, maxSpectrumSize))
	win := hann(n)
	aw := make([]float64, n)
	bw := make([]float64, n)
	for i, w := range win {
		aw[i] = a[i] * w
		bw[i] = b[i] * w
	}
	return aw, bw, n / 2
}

// spectralRMSEDBNaiveWindowed is the direct-DFT reference for
// spectralRMSEDB.
func spectralRMSEDBNaiveWindowed(aw []float64, bw []float64, bins int) float64 {
	if bins < 2 {
		return 0
	}
	var sum float64
	for k := 1; k < bins; k++ {
		d := linToDB(dftBinMag(aw, k)) - linToDB(dftBinMag(bw, k))
		sum += d * d
	}
	return math.Sqrt(sum / float64(bins-1))
}

func dftBinMag(x []float64, bin int) float64 {
	n := len(x)
	var re, im float64
	for i := 0; i < n; i++ {
		phi := -2.0 * math.Pi * float64(bin*i) / float64(n)
		re += x[i] * math.Cos(phi)
		im += x[i] * math.Sin(phi)
	}
	return math.Hypot(re, im)
}

func hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func powerOfTwoFloor(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

const (
	minPitchHz      = 20.0
	minPitchFrames  = 1024
	maxPitchFrames  = 1 << 16
	pitchSilenceRMS = 1e-9
)

// EstimatePitch returns the frequency of the strongest spectral peak above
// 20 Hz, refined by parabolic interpolation of the log magnitudes around
// the peak bin.
func EstimatePitch(x []float64, sampleRate int) (float64, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	x = trimLeadingSilence(x, 1e-6)
	if len(x) < minPitchFrames {
		return 0, fmt.Errorf("need at least %d non-silent samples, got %d", minPitchFrames, len(x))
	}
	n := powerOfTwoFloor(min(len(x), maxPitchFrames))
	if rms1(x[:n]) < pitchSilenceRMS {
		return 0, fmt.Errorf("signal is silent")
	}

	plan, err := algofft.NewPlanReal64(n)
	if err != nil {
		return 0, fmt.Errorf("fft plan: %w", err)
	}
	buf := make([]float64, n)
	for i, w := range hann(n) {
		buf[i] = x[i] * w
	}
	spec := make([]complex128, n/2+1)
	plan.Forward(spec, buf)

	binHz := float64(sampleRate) / float64(n)
	lo := max(1, int(math.Ceil(minPitchHz/binHz)))
	hi := n/2 - 1
	if lo >= hi {
		return 0, fmt.Errorf("sample rate %d too low for pitch search", sampleRate)
	}
	peak := lo
	peakMag := cmplx.Abs(spec[lo])
	for k := lo + 1; k < hi; k++ {
		if m := cmplx.Abs(spec[k]); m > peakMag {
			peak, peakMag = k, m
		}
	}

	a := linToDB(cmplx.Abs(spec[peak-1]))
	b := linToDB(peakMag)
	c := linToDB(cmplx.Abs(spec[peak+1]))
	offset := 0.0
	if den := a - 2*b + c; den < 0 {
		offset = 0.5 * (a - c) / den
	}
	return (float64(peak) + offset) * binHz, nil
}
