package motion

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrOutOfTravel is returned for targets beyond the physical rails
var ErrOutOfTravel = errors.New("position out of travel")

// Length returns the travel of the axis in mm
func (a *Axis) Length() float64 {
	return a.length
}

// Reachable reports whether target lies between the endstop and the far end
func (a *Axis) Reachable(target float64) bool {
	return target >= 0 && target <= a.length
}

// CheckTravel validates that every coordinate of pos is reachable
func (r *Rails) CheckTravel(pos Vec3D) error {
	var err error
	for i, a := range r.axes {
		if !a.Reachable(pos[i]) {
			err = multierr.Append(err, fmt.Errorf("%s=%.3f not in [0, %.3f]: %w", a.name, pos[i], a.length, ErrOutOfTravel))
		}
	}
	return err
}
