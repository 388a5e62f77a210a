package motion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"go.uber.org/multierr"
)

// Rails is the three-axis positioning rig: X, Y, Z in that order.
type Rails struct {
	axes   [3]*Axis
	lines  []io.Closer
	logger *slog.Logger
}

// NewRails groups three axes. lines are released by Close.
func NewRails(x, y, z *Axis, lines []io.Closer, logger *slog.Logger) *Rails {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rails{
		axes:   [3]*Axis{x, y, z},
		lines:  lines,
		logger: logger.With("component", "rails"),
	}
}

// Axis returns the axis at index X, Y or Z
func (r *Rails) Axis(i int) *Axis {
	return r.axes[i]
}

// Position returns the current carriage position. Each coordinate is read
// independently, so during a move the result is not one instant.
func (r *Rails) Position() Vec3D {
	var pos Vec3D
	for i, a := range r.axes {
		pos[i] = a.Position()
	}
	return pos
}

// Homed reports whether every axis has been calibrated
func (r *Rails) Homed() bool {
	for _, a := range r.axes {
		if !a.Homed() {
			return false
		}
	}
	return true
}

// Move drives all axes to target at once. Each axis is scaled by the
// magnitude of its share of the travel direction so that all three arrive
// together along a straight line. Targets outside the rails are refused.
func (r *Rails) Move(target Vec3D) error {
	if err := r.CheckTravel(target); err != nil {
		return err
	}

	track := target.Sub(r.Position())
	direction, ok := track.Normalize()
	if !ok {
		return nil
	}
	r.logger.Debug("moving", "target", target, "track", track)

	var (
		wg   sync.WaitGroup
		errs [3]error
	)
	for i, a := range r.axes {
		wg.Add(1)
		go func(i int, a *Axis) {
			defer wg.Done()
			errs[i] = a.Move(target[i], math.Abs(direction[i]))
		}(i, a)
	}
	wg.Wait()

	return multierr.Combine(errs[:]...)
}

// Calibrate homes X, Y and Z one after another
func (r *Rails) Calibrate(ctx context.Context) error {
	for _, a := range r.axes {
		if err := a.Calibrate(ctx); err != nil {
			return fmt.Errorf("calibrate: %w", err)
		}
	}
	return nil
}

// CalibrateAxes homes only the listed axes, in the order given
func (r *Rails) CalibrateAxes(ctx context.Context, axes ...int) error {
	for _, i := range axes {
		if err := r.axes[i].Calibrate(ctx); err != nil {
			return fmt.Errorf("calibrate: %w", err)
		}
	}
	return nil
}

// Close releases every GPIO line held by the rig
func (r *Rails) Close() error {
	var err error
	for _, l := range r.lines {
		err = multierr.Append(err, l.Close())
	}
	r.lines = nil
	return err
}
