package motion

import (
	"fmt"
	"io"
	"log/slog"

	"go.uber.org/multierr"

	"pawnshop/config"
	"pawnshop/core"
)

var axisNames = [3]string{"x", "y", "z"}

// NewRailsFromConfig requests the step, direction and limit lines of all
// three axes from chip and builds the rig. On failure every line already
// requested is released again.
func NewRailsFromConfig(chip core.Chip, cfg config.RailsConfig, logger *slog.Logger) (_ *Rails, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	var lines []io.Closer
	defer func() {
		if err != nil {
			for _, l := range lines {
				err = multierr.Append(err, l.Close())
			}
		}
	}()

	var axes [3]*Axis
	for i, ac := range cfg.Axes() {
		name := axisNames[i]

		step, err := chip.RequestOutput(core.GPIOPin(ac.StepPin), "pawnshop-"+name+"-step")
		if err != nil {
			return nil, fmt.Errorf("axis %s step line: %w", name, err)
		}
		lines = append(lines, step)

		dir, err := chip.RequestOutput(core.GPIOPin(ac.DirPin), "pawnshop-"+name+"-dir")
		if err != nil {
			return nil, fmt.Errorf("axis %s dir line: %w", name, err)
		}
		lines = append(lines, dir)

		var limit *LimitSensor
		if ac.LimitPin != nil {
			in, err := chip.RequestInput(core.GPIOPin(*ac.LimitPin), "pawnshop-"+name+"-limit")
			if err != nil {
				return nil, fmt.Errorf("axis %s limit line: %w", name, err)
			}
			lines = append(lines, in)
			limit = NewLimitSensor(in)
		}

		motor, err := NewPulseGenerator(step, dir, ac.Inverted)
		if err != nil {
			return nil, fmt.Errorf("axis %s: %w", name, err)
		}

		axes[i], err = NewAxis(AxisParams{
			Name:      name,
			Length:    ac.LengthMM,
			StepCount: ac.StepCount,
			Limits: Limits{
				MinSpeed:     ac.MinSpeed,
				MaxSpeed:     ac.MaxSpeed,
				Acceleration: ac.Acceleration,
			},
			HomingTimeout: ac.HomingTimeout,
			Nice:          cfg.Nice,
		}, motor, limit, logger)
		if err != nil {
			return nil, err
		}
	}

	return NewRails(axes[0], axes[1], axes[2], lines, logger), nil
}
