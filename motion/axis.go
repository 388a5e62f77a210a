package motion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"

	"pawnshop/core"
	"pawnshop/metrics"
)

const (
	// rampInterval is the tick of the speed ramp loop
	rampInterval = time.Millisecond

	// idlePoll is how long the stepping loop waits while the generator is stopped
	idlePoll = time.Millisecond
)

// ErrHomingTimeout is returned when the limit switch did not trip in time
var ErrHomingTimeout = errors.New("homing timed out before limit switch triggered")

// AxisParams is the validated geometry and kinematics of one axis
type AxisParams struct {
	Name      string
	Length    float64 // mm
	StepCount uint32  // steps over Length
	Limits

	// Abort homing after this long, 0 waits forever
	HomingTimeout time.Duration
	// Nice value for the stepping thread, 0 leaves the priority alone
	Nice int
}

// MoveReport describes the last executed move
type MoveReport struct {
	Profile Profile

	// AccelTravel is the distance covered when speed was last raised
	AccelTravel float64
	PeakSpeed   float64
	Pulses      uint64
	// LimitHit is set when the negative limit switch cut the move short
	LimitHit bool
	Duration time.Duration
}

// Axis is one linear degree of freedom: a stepper, an optional negative
// limit switch and the absolute carriage position.
//
// Move and Calibrate must not run concurrently on the same axis.
// Position may be read from any goroutine.
type Axis struct {
	name       string
	motor      *PulseGenerator
	limit      *LimitSensor // nil when no switch is wired
	length     float64
	stepLength float64
	limits     Limits

	homingTimeout time.Duration
	nice          int
	logger        *slog.Logger

	mu       sync.RWMutex
	position float64
	homed    atomic.Bool

	reportMu sync.Mutex
	report   MoveReport
}

// NewAxis creates an axis. limit may be nil.
func NewAxis(params AxisParams, motor *PulseGenerator, limit *LimitSensor, logger *slog.Logger) (*Axis, error) {
	switch {
	case motor == nil:
		return nil, errors.New("axis needs a pulse generator")
	case params.Length <= 0:
		return nil, fmt.Errorf("axis %s: length must be positive", params.Name)
	case params.StepCount == 0:
		return nil, fmt.Errorf("axis %s: step count must be positive", params.Name)
	case params.MinSpeed <= 0 || params.MaxSpeed < params.MinSpeed:
		return nil, fmt.Errorf("axis %s: need 0 < min speed <= max speed", params.Name)
	case params.Acceleration <= 0:
		return nil, fmt.Errorf("axis %s: acceleration must be positive", params.Name)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Axis{
		name:          params.Name,
		motor:         motor,
		limit:         limit,
		length:        params.Length,
		stepLength:    params.Length / float64(params.StepCount),
		limits:        params.Limits,
		homingTimeout: params.HomingTimeout,
		nice:          params.Nice,
		logger:        logger.With("axis", params.Name),
	}, nil
}

// Name returns the axis label
func (a *Axis) Name() string {
	return a.name
}

// StepLength returns the travel per step in mm, the position resolution
func (a *Axis) StepLength() float64 {
	return a.stepLength
}

// Homed reports whether Calibrate has completed at least once
func (a *Axis) Homed() bool {
	return a.homed.Load()
}

// Position returns the carriage position in mm
func (a *Axis) Position() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.position
}

func (a *Axis) setPosition(pos float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.position = pos
}

func (a *Axis) incPosition(inc float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.position += inc
}

// Speed returns the signed speed in mm/s as realised by the pulse generator
func (a *Axis) Speed() float64 {
	return float64(a.motor.Frequency()) * a.stepLength * float64(a.motor.Direction())
}

// setSpeed converts a signed speed to a step frequency and direction.
// A non-zero speed never rounds down to a stopped generator.
func (a *Axis) setSpeed(speed float64) error {
	hz := math.Abs(speed) / a.stepLength
	var freq uint32
	switch {
	case hz >= math.MaxUint32:
		freq = math.MaxUint32
	case hz >= 1:
		freq = uint32(hz)
	case speed != 0:
		freq = 1
	}
	a.motor.SetFrequency(freq)

	dir := Negative
	if speed > 0 {
		dir = Positive
	}
	return a.motor.SetDirection(dir)
}

// LastMove returns the report of the most recent move
func (a *Axis) LastMove() MoveReport {
	a.reportMu.Lock()
	defer a.reportMu.Unlock()
	return a.report
}

// Calibrate drives the axis towards its negative limit switch at minimum
// speed and sets the position to zero once the switch trips.
// Without a switch the current position is taken as zero.
func (a *Axis) Calibrate(ctx context.Context) error {
	start := time.Now()

	if a.limit == nil {
		a.logger.Warn("no limit switch, taking current position as zero")
		a.setPosition(0)
		a.homed.Store(true)
		return nil
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := a.setSpeed(-a.limits.MinSpeed); err != nil {
		return fmt.Errorf("axis %s: %w", a.name, err)
	}
	defer a.motor.SetFrequency(0)

	var deadline <-chan time.Time
	if a.homingTimeout > 0 {
		timer := time.NewTimer(a.homingTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for pulses := 0; ; pulses++ {
		hit, err := a.limit.Triggered()
		if err != nil {
			return fmt.Errorf("axis %s: limit switch: %w", a.name, err)
		}
		if hit {
			a.logger.Debug("limit switch reached", "pulses", pulses)
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("axis %s: %w", a.name, ErrHomingTimeout)
		default:
		}

		if _, err := a.motor.Step(); err != nil {
			return fmt.Errorf("axis %s: %w", a.name, err)
		}
	}

	a.setPosition(0)
	a.homed.Store(true)

	elapsed := time.Since(start)
	metrics.ObserveHoming(a.name, elapsed)
	a.logger.Info("axis homed", "duration", elapsed)
	return nil
}

// Move drives the axis to target (mm) along a trapezoidal speed profile.
// scaling in [0,1] scales speeds and acceleration so several axes can be
// synchronised. The call returns once every pulse has been issued.
func (a *Axis) Move(target, scaling float64) error {
	start := time.Now()

	p := PlanMove(a.Position(), target, scaling, a.stepLength, a.limits)
	if p.Empty() {
		return nil
	}
	a.logger.Debug("planned move",
		"from", p.Start, "to", p.Target, "distance", p.Distance,
		"v0", p.V0, "vmax", p.VMax, "accel", p.Accel,
		"accel_distance", p.AccelDistance, "triangular", p.Triangular, "steps", p.Steps)

	dir := float64(p.Direction)
	if err := a.setSpeed(dir * p.V0); err != nil {
		return fmt.Errorf("axis %s: %w", a.name, err)
	}

	report := MoveReport{Profile: p}

	done := make(chan struct{})
	var stepErr error
	go func() {
		defer close(done)
		report.Pulses, report.LimitHit, stepErr = a.step(p.Steps)
	}()

	rampErr := a.ramp(p, done, &report)
	<-done
	a.motor.SetFrequency(0)

	report.Duration = time.Since(start)
	a.reportMu.Lock()
	a.report = report
	a.reportMu.Unlock()

	if err := multierr.Combine(stepErr, rampErr); err != nil {
		return fmt.Errorf("axis %s: %w", a.name, err)
	}

	metrics.ObserveMove(a.name, report.Duration)
	return nil
}

// ramp adjusts the speed every rampInterval until stepping is done:
// accelerate over AccelDistance, cruise, then decelerate over the last
// AccelDistance. Only the ramp writes frequency and direction.
func (a *Axis) ramp(p Profile, done <-chan struct{}, report *MoveReport) error {
	ticker := time.NewTicker(rampInterval)
	defer ticker.Stop()

	dir := float64(p.Direction)
	v0 := dir * p.V0
	vMax := dir * p.VMax
	dv := dir * p.Accel * rampInterval.Seconds()

	wait := func() bool {
		select {
		case <-done:
			return false
		case <-ticker.C:
			return true
		}
	}

	// Acceleration
	for {
		travelled := dir * (a.Position() - p.Start)
		speed := a.Speed()
		if travelled >= p.AccelDistance || dir*(vMax-speed) <= 0 {
			break
		}
		next := speed + dv
		if dir*(next-vMax) > 0 {
			next = vMax
		}
		if err := a.setSpeed(next); err != nil {
			return err
		}
		report.AccelTravel = travelled
		report.PeakSpeed = math.Max(report.PeakSpeed, math.Abs(a.Speed()))
		if !wait() {
			return nil
		}
	}

	// Constant speed
	for dir*(p.Target-a.Position()) > p.AccelDistance {
		if !wait() {
			return nil
		}
	}

	// Deceleration
	for dir*(p.Target-a.Position()) > 0 && dir*(a.Speed()-v0) > 0 {
		next := a.Speed() - dv
		if dir*(next-v0) < 0 {
			next = v0
		}
		if err := a.setSpeed(next); err != nil {
			return err
		}
		if !wait() {
			return nil
		}
	}
	return nil
}

// step issues pulses until steps have been taken, or until the negative
// limit switch trips while moving negative. It is the only writer of the
// position during a move and runs on its own OS thread.
func (a *Axis) step(steps uint64) (pulses uint64, limitHit bool, err error) {
	runtime.LockOSThread()
	if a.nice == 0 {
		defer runtime.UnlockOSThread()
	} else if err := core.RaiseThreadPriority(a.nice); err != nil {
		// The thread stays locked and is discarded when this goroutine exits,
		// so the changed priority never returns to the scheduler pool.
		a.logger.Warn("failed to raise stepping priority", "error", err)
	}

	for pulses < steps {
		if a.limit != nil && a.motor.Direction() == Negative {
			hit, err := a.limit.Triggered()
			if err != nil {
				return pulses, false, fmt.Errorf("limit switch: %w", err)
			}
			if hit {
				a.logger.Warn("limit switch hit during move", "pulses", pulses, "planned", steps)
				return pulses, true, nil
			}
		}

		inc, err := a.motor.Step()
		if err != nil {
			return pulses, false, err
		}
		if inc == 0 {
			time.Sleep(idlePoll)
			continue
		}
		a.incPosition(float64(inc) * a.stepLength)
		pulses++
	}
	return pulses, false, nil
}
