package core

import (
	"context"
	"time"
)

// FixedStep paces simulation steps at a steady rate, independent of how
// often the caller polls it. A rate of zero or less means unpaced.
type FixedStep struct {
	step        time.Duration
	accumulator time.Duration
	last        time.Time
	now         func() time.Time
}

// NewFixedStep constructs a FixedStep targeting tps steps per second. The
// first poll always steps.
func NewFixedStep(tps int) *FixedStep {
	fs := &FixedStep{now: time.Now}
	fs.SetTPS(tps)
	fs.accumulator = fs.step
	return fs
}

// SetTPS changes the step rate.
func (f *FixedStep) SetTPS(tps int) {
	if tps <= 0 {
		f.step = 0
		return
	}
	f.step = time.Second / time.Duration(tps)
}

// TPS returns the step rate, or 0 when unpaced.
func (f *FixedStep) TPS() int {
	if f.step == 0 {
		return 0
	}
	return int(time.Second / f.step)
}

// ShouldStep reports whether one step is due. Time left over carries into
// the next poll, capped at one step so a stall does not cause a burst.
func (f *FixedStep) ShouldStep() bool {
	if f.step == 0 {
		return true
	}
	now := f.now()
	if f.last.IsZero() {
		f.last = now
	}
	f.accumulator += now.Sub(f.last)
	f.last = now
	if f.accumulator >= f.step {
		f.accumulator = min(f.accumulator-f.step, f.step)
		return true
	}
	return false
}

// Wait blocks until the next step is due or ctx ends.
func (f *FixedStep) Wait(ctx context.Context) error {
	for !f.ShouldStep() {
		timer := time.NewTimer(f.step - f.accumulator)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return ctx.Err()
}
