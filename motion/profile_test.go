package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanMove(t *testing.T) {
	const stepLength = 0.01
	lim := testParams.Limits

	tests := []struct {
		name       string
		start      float64
		target     float64
		scaling    float64
		dir        Direction
		accelDist  float64
		triangular bool
		steps      uint64
	}{
		{"Trapezoid", 0, 5, 1, Positive, 1.2, false, 500},
		{"Triangle", 0, 1, 1, Positive, 0.5, true, 100},
		{"Backwards", 5, 2, 1, Negative, 1.2, false, 300},
		{"Scaled", 0, 5, 0.5, Positive, 0.6, false, 500},
		{"NegativeScaling", 0, 5, -0.5, Positive, 0.6, false, 500},
		{"PartialStep", 0, 0.015, 1, Positive, 0.0075, true, 2},
		{"ExactMultiple", 0, 0.03, 1, Positive, 0.015, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PlanMove(tt.start, tt.target, tt.scaling, stepLength, lim)
			assert.Equal(t, tt.dir, p.Direction)
			assert.InDelta(t, tt.accelDist, p.AccelDistance, 1e-9)
			assert.Equal(t, tt.triangular, p.Triangular)
			assert.Equal(t, tt.steps, p.Steps)
			assert.LessOrEqual(t, p.AccelDistance, p.Distance/2+1e-12)
		})
	}
}

func TestPlanMoveScalesKinematics(t *testing.T) {
	p := PlanMove(0, 5, 0.25, 0.01, testParams.Limits)

	assert.InDelta(t, 2.5, p.V0, 1e-12)
	assert.InDelta(t, 12.5, p.VMax, 1e-12)
	assert.InDelta(t, 250, p.Accel, 1e-12)
}

func TestPlanMoveNothingToDo(t *testing.T) {
	p := PlanMove(3, 3, 1, 0.01, testParams.Limits)
	assert.True(t, p.Empty())
	assert.Equal(t, Negative, p.Direction)

	p = PlanMove(0, 3, 0, 0.01, testParams.Limits)
	assert.True(t, p.Empty(), "zero scaling must not move")
}
