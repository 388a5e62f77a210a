package motion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pawnshop/core"
)

// Small rig: 10 mm over 1000 steps, 0.01 mm per step
var testParams = AxisParams{
	Name:      "t",
	Length:    10,
	StepCount: 1000,
	Limits: Limits{
		MinSpeed:     10,
		MaxSpeed:     50,
		Acceleration: 1000,
	},
}

type simAxis struct {
	axis     *Axis
	carriage *core.Carriage
	chip     *core.SimChip
}

// newSimAxis builds an axis on a simulated chip with the carriage startSteps
// away from its endstop. withLimit controls whether the endstop is wired.
func newSimAxis(t *testing.T, params AxisParams, startSteps int64, withLimit bool) simAxis {
	t.Helper()

	chip := core.NewSimChip()
	limitPin := core.GPIOPin(2)
	if !withLimit {
		limitPin = core.NoPin
	}
	car := chip.AttachCarriage(0, 1, limitPin, false, startSteps)

	step, err := chip.RequestOutput(0, "step")
	require.NoError(t, err)
	dir, err := chip.RequestOutput(1, "dir")
	require.NoError(t, err)

	var limit *LimitSensor
	if withLimit {
		in, err := chip.RequestInput(2, "limit")
		require.NoError(t, err)
		limit = NewLimitSensor(in)
	}

	motor, err := NewPulseGenerator(step, dir, false)
	require.NoError(t, err)

	axis, err := NewAxis(params, motor, limit, nil)
	require.NoError(t, err)

	return simAxis{axis: axis, carriage: car, chip: chip}
}

// within fails the test when fn does not return in d
func within(t *testing.T, d time.Duration, fn func() error) error {
	t.Helper()

	errc := make(chan error, 1)
	go func() { errc <- fn() }()

	select {
	case err := <-errc:
		return err
	case <-time.After(d):
		t.Fatalf("did not finish within %v", d)
		return nil
	}
}
