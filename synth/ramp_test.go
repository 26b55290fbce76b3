package synth

import "testing"

func TestRampLandsExactlyOnTarget(t *testing.T) {
	var r Ramp
	r.Jump(0.1)
	r.SetTarget(0.7)
	r.Prepare(7)
	prev := r.Value()
	for i := 0; i < 7; i++ {
		if !r.Active() {
			t.Fatalf("ramp finished early at %d", i)
		}
		r.Advance()
		if r.Value() <= prev {
			t.Fatalf("ramp not increasing at %d: %f <= %f", i, r.Value(), prev)
		}
		prev = r.Value()
	}
	if r.Value() != 0.7 {
		t.Fatalf("ramp ended at %v want exactly 0.7", r.Value())
	}
	if r.Active() {
		t.Fatalf("ramp still active after its window")
	}
	r.Advance()
	if r.Value() != 0.7 {
		t.Fatalf("finished ramp moved to %v", r.Value())
	}
}

func TestRampHeldTargetHasZeroStep(t *testing.T) {
	var r Ramp
	r.Jump(0.5)
	r.SetTarget(0.5)
	r.Prepare(100)
	if r.Step() != 0 || r.Active() {
		t.Fatalf("held ramp: step=%v active=%v", r.Step(), r.Active())
	}
}

func TestRampJumpCancels(t *testing.T) {
	var r Ramp
	r.SetTarget(1)
	r.Prepare(10)
	r.Advance()
	r.Jump(0.25)
	if r.Active() || r.Value() != 0.25 || r.Target() != 0.25 {
		t.Fatalf("jump did not cancel: value=%v target=%v active=%v", r.Value(), r.Target(), r.Active())
	}
}

func TestRampPrepareZeroWindow(t *testing.T) {
	var r Ramp
	r.SetTarget(1)
	r.Prepare(0)
	r.Advance()
	if r.Value() != 1 {
		t.Fatalf("zero window should behave as one sample, got %v", r.Value())
	}
}
