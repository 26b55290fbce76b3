package analysis

import (
	"math"

	algofft "github.com/cwbudde/algo-fft"
)

// estimateLag returns the lag in [-maxLag, maxLag] maximizing the
// cross-correlation sum(ref[i+lag] * cand[i]). It correlates in the
// frequency domain and falls back to the direct search when no FFT plan
// can be built.
func estimateLag(ref []float64, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	corr, ok := crossCorrelate(ref, cand)
	if !ok {
		return estimateLagExhaustive(ref, cand, maxLag)
	}
	n := len(corr)
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		if lag >= len(ref) || -lag >= len(cand) {
			continue
		}
		idx := lag
		if idx < 0 {
			idx += n
		}
		if s := corr[idx]; s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

// crossCorrelate returns the circular cross-correlation of the zero-padded
// signals; padding to len(ref)+len(cand) makes it equal the linear one.
// Negative lags wrap to the end.
func crossCorrelate(ref, cand []float64) ([]float64, bool) {
	n := nextPowerOfTwo(len(ref) + len(cand))
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, false
	}
	a := make([]complex128, n)
	b := make([]complex128, n)
	for i, v := range ref {
		a[i] = complex(v, 0)
	}
	for i, v := range cand {
		b[i] = complex(v, 0)
	}
	fa := make([]complex128, n)
	fb := make([]complex128, n)
	if err := plan.Forward(fa, a); err != nil {
		return nil, false
	}
	if err := plan.Forward(fb, b); err != nil {
		return nil, false
	}
	for i := range fa {
		re, im := real(fb[i]), imag(fb[i])
		fa[i] *= complex(re, -im)
	}
	if err := plan.Inverse(a, fa); err != nil {
		return nil, false
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = real(a[i])
	}
	return out, true
}

// estimateLagExhaustive evaluates every lag directly.
func estimateLagExhaustive(ref []float64, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		s := dotAtLag(ref, cand, lag)
		if s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

func dotAtLag(a []float64, b []float64, lag int) float64 {
	var ai, bi int
	if lag >= 0 {
		ai = lag
	} else {
		bi = -lag
	}
	n := min(len(a)-ai, len(b)-bi)
	if n <= 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[ai+i] * b[bi+i]
	}
	return sum
}
