package motion

import (
	"fmt"
	"sync/atomic"
	"time"

	"pawnshop/core"
)

// Direction of travel along an axis
type Direction int8

const (
	Negative Direction = -1
	Positive Direction = 1
)

func (d Direction) String() string {
	if d == Negative {
		return "negative"
	}
	return "positive"
}

// PulseGenerator drives the step and direction inputs of a stepper driver.
// Step blocks for one full period and is the only source of pacing.
//
// Frequency and direction are written by one goroutine (the ramp) and read by
// another (the stepping loop), so both live in atomics.
type PulseGenerator struct {
	step     core.OutputLine
	dir      core.OutputLine
	inverted bool

	period    atomic.Int64 // nanoseconds between pulses, 0 when stopped
	direction atomic.Int32
}

// NewPulseGenerator creates a stopped generator pointing in the positive direction.
// inverted flips the direction line for mirrored motors and never changes afterwards.
func NewPulseGenerator(step, dir core.OutputLine, inverted bool) (*PulseGenerator, error) {
	p := &PulseGenerator{
		step:     step,
		dir:      dir,
		inverted: inverted,
	}
	if err := p.SetDirection(Positive); err != nil {
		return nil, err
	}
	return p, nil
}

// Step emits one pulse (high for half a period, then low for half a period)
// and returns the signed increment: +1, -1, or 0 when stopped.
func (p *PulseGenerator) Step() (int, error) {
	period := time.Duration(p.period.Load())
	if period == 0 {
		return 0, nil
	}
	dir := p.Direction()

	if err := p.step.SetValue(1); err != nil {
		return 0, fmt.Errorf("step line high: %w", err)
	}
	time.Sleep(period / 2)
	if err := p.step.SetValue(0); err != nil {
		return 0, fmt.Errorf("step line low: %w", err)
	}
	time.Sleep(period / 2)

	return int(dir), nil
}

// SetFrequency sets the pulse rate. Zero stops the generator.
func (p *PulseGenerator) SetFrequency(hz uint32) {
	if hz == 0 {
		p.period.Store(0)
		return
	}
	period := time.Second / time.Duration(hz)
	if period <= 0 {
		period = 1
	}
	p.period.Store(int64(period))
}

// Frequency returns the pulse rate in Hz, 0 when stopped
func (p *PulseGenerator) Frequency() uint32 {
	period := p.period.Load()
	if period == 0 {
		return 0
	}
	return uint32(int64(time.Second) / period)
}

// Period returns the time between pulses, 0 when stopped
func (p *PulseGenerator) Period() time.Duration {
	return time.Duration(p.period.Load())
}

// Stopped reports whether Step is currently a no-op
func (p *PulseGenerator) Stopped() bool {
	return p.period.Load() == 0
}

// SetDirection drives the direction line and records the logical direction
func (p *PulseGenerator) SetDirection(dir Direction) error {
	level := 0
	if (dir == Positive) != p.inverted {
		level = 1
	}
	if err := p.dir.SetValue(level); err != nil {
		return fmt.Errorf("direction line: %w", err)
	}
	p.direction.Store(int32(dir))
	return nil
}

// Direction returns the logical direction last set
func (p *PulseGenerator) Direction() Direction {
	return Direction(p.direction.Load())
}
