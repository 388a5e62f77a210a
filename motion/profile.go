package motion

import "math"

// stepEpsilon absorbs floating point noise in distance/stepLength so an exact
// multiple of the step length does not round up to an extra step
const stepEpsilon = 1e-9

// Limits are the kinematic limits of an axis at full scale
type Limits struct {
	MinSpeed     float64 // mm/s, start/stop speed
	MaxSpeed     float64 // mm/s, cruise speed
	Acceleration float64 // mm/s^2
}

// Profile is the plan for one trapezoidal (or triangular) axis move.
// Speeds and acceleration are magnitudes already multiplied by the scaling factor.
type Profile struct {
	Start     float64
	Target    float64
	Distance  float64 // |Target - Start|
	Direction Direction

	V0    float64
	VMax  float64
	Accel float64

	// Distance spent accelerating, and again decelerating
	AccelDistance float64
	// Triangular is set when the move is too short to reach VMax
	Triangular bool

	Steps uint64
}

// Empty reports whether the profile issues no pulses
func (p Profile) Empty() bool {
	return p.Steps == 0
}

// PlanMove calculates the velocity profile for moving from start to target.
// scaling in [0,1] slows the axis down so that several axes arrive together.
func PlanMove(start, target, scaling, stepLength float64, lim Limits) Profile {
	p := Profile{
		Start:     start,
		Target:    target,
		Distance:  math.Abs(target - start),
		Direction: Positive,
	}
	if target-start <= 0 {
		p.Direction = Negative
	}

	scaling = math.Abs(scaling)
	if p.Distance == 0 || scaling == 0 {
		return p
	}

	p.Accel = lim.Acceleration * scaling
	p.V0 = lim.MinSpeed * scaling
	p.VMax = lim.MaxSpeed * scaling

	// Assume the target is far enough to reach full speed
	tAccel := (p.VMax - p.V0) / p.Accel
	p.AccelDistance = math.Abs(p.V0*tAccel + p.Accel*tAccel*tAccel/2)

	if p.AccelDistance > p.Distance/2 {
		// Triangle profile: accelerate for only half of the distance
		p.AccelDistance = p.Distance / 2
		p.Triangular = true
	}

	p.Steps = uint64(math.Ceil(p.Distance/stepLength - stepEpsilon))
	return p
}
