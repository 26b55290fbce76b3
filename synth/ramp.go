package synth

// Ramp linearly moves a parameter from its current value to a target.
// The step is computed once per block by Prepare; Advance applies it one
// sample at a time and lands exactly on the target after the ramp window.
type Ramp struct {
	current   float64
	target    float64
	step      float64
	remaining int
}

// Jump sets both current and target, cancelling any ramp in progress.
func (r *Ramp) Jump(v float64) {
	r.current = v
	r.target = v
	r.step = 0
	r.remaining = 0
}

// SetTarget changes the value the next Prepare will ramp towards.
func (r *Ramp) SetTarget(v float64) { r.target = v }

// Prepare computes the per-sample step for a window of rampTime samples.
// A held target yields a zero step.
func (r *Ramp) Prepare(rampTime int) {
	if rampTime < 1 {
		rampTime = 1
	}
	if r.target == r.current {
		r.step = 0
		r.remaining = 0
		return
	}
	r.step = (r.target - r.current) / float64(rampTime)
	r.remaining = rampTime
}

// Advance moves one sample along the ramp.
func (r *Ramp) Advance() {
	if r.remaining == 0 {
		return
	}
	r.remaining--
	if r.remaining == 0 {
		r.current = r.target
		r.step = 0
		return
	}
	r.current += r.step
}

// Value returns the current value.
func (r *Ramp) Value() float64 { return r.current }

// Target returns the value being ramped towards.
func (r *Ramp) Target() float64 { return r.target }

// Step returns the per-sample increment of the prepared ramp.
func (r *Ramp) Step() float64 { return r.step }

// Active reports whether the ramp is still moving.
func (r *Ramp) Active() bool { return r.remaining > 0 }
