package motion

import (
	"fmt"
	"math"
)

// Vec3D is a position or displacement in machine coordinates (mm)
type Vec3D [3]float64

// Axis indices into a Vec3D
const (
	X = 0
	Y = 1
	Z = 2
)

// Sub returns v - o
func (v Vec3D) Sub(o Vec3D) Vec3D {
	return Vec3D{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Add returns v + o
func (v Vec3D) Add(o Vec3D) Vec3D {
	return Vec3D{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Scale returns v * s
func (v Vec3D) Scale(s float64) Vec3D {
	return Vec3D{v[0] * s, v[1] * s, v[2] * s}
}

// Length returns the euclidean norm
func (v Vec3D) Length() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Normalize returns the unit vector along v.
// ok is false for the zero vector, which has no direction.
func (v Vec3D) Normalize() (unit Vec3D, ok bool) {
	l := v.Length()
	if l == 0 {
		return Vec3D{}, false
	}
	return v.Scale(1 / l), true
}

func (v Vec3D) String() string {
	return fmt.Sprintf("[%.3f, %.3f, %.3f]", v[0], v[1], v[2])
}
