package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimOutputBasic(t *testing.T) {
	chip := NewSimChip()

	pin := GPIOPin(25)
	line, err := chip.RequestOutput(pin, "test")
	require.NoError(t, err)

	require.NoError(t, line.SetValue(1))
	assert.Equal(t, 1, chip.Output(pin))

	require.NoError(t, line.SetValue(0))
	assert.Equal(t, 0, chip.Output(pin))
}

func TestSimPinClaimedTwice(t *testing.T) {
	chip := NewSimChip()

	line, err := chip.RequestOutput(4, "first")
	require.NoError(t, err)

	_, err = chip.RequestInput(4, "second")
	assert.True(t, errors.Is(err, ErrPinInUse))

	require.NoError(t, line.Close())
	_, err = chip.RequestInput(4, "second")
	assert.NoError(t, err)
}

func TestSimClosedLine(t *testing.T) {
	chip := NewSimChip()

	line, err := chip.RequestOutput(1, "test")
	require.NoError(t, err)
	require.NoError(t, line.Close())

	assert.ErrorIs(t, line.SetValue(1), ErrLineClosed)
}

func TestSimInputDefaultsHigh(t *testing.T) {
	chip := NewSimChip()

	in, err := chip.RequestInput(7, "test")
	require.NoError(t, err)

	v, err := in.Value()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	chip.SetInput(7, 0)
	v, err = in.Value()
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestSimCarriage(t *testing.T) {
	tests := []struct {
		name     string
		inverted bool
		dir      int
		want     int64
	}{
		{"ForwardHigh", false, 1, 5},
		{"BackwardLow", false, 0, -1},
		{"InvertedHigh", true, 1, -1},
		{"InvertedLow", true, 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chip := NewSimChip()
			car := chip.AttachCarriage(0, 1, 2, tt.inverted, 2)

			step, err := chip.RequestOutput(0, "step")
			require.NoError(t, err)
			dir, err := chip.RequestOutput(1, "dir")
			require.NoError(t, err)
			limit, err := chip.RequestInput(2, "limit")
			require.NoError(t, err)

			require.NoError(t, dir.SetValue(tt.dir))
			for i := 0; i < 3; i++ {
				require.NoError(t, step.SetValue(1))
				// A repeated high is not a new edge
				require.NoError(t, step.SetValue(1))
				require.NoError(t, step.SetValue(0))
			}

			assert.Equal(t, tt.want, car.Steps())
			assert.Equal(t, int64(3), car.Pulses())

			v, err := limit.Value()
			require.NoError(t, err)
			if tt.want <= 0 {
				assert.Equal(t, 0, v, "endstop should read low when closed")
			} else {
				assert.Equal(t, 1, v)
			}
		})
	}
}
