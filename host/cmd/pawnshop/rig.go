package main

import (
	"fmt"
	"math"
	"time"

	"pawnshop/core"
	"pawnshop/host/serial"
	"pawnshop/motion"
	"pawnshop/scale"
)

// Simulated sample: a gram-sized piece of pure gold on a 100 g holder
const (
	simHolderWeight = 100.0
	simSampleWeight = 19.3
	simSampleVolume = 1.0

	simLineInterval = 50 * time.Millisecond
)

// openRails builds the rails on the configured GPIO chip, or on a simulated
// chip with each carriage a tenth of its travel away from the endstop
func (a *app) openRails() (*motion.Rails, error) {
	var chip core.Chip
	if a.simulate {
		sim := core.NewSimChip()
		for _, ac := range a.cfg.Rails.Axes() {
			limit := core.NoPin
			if ac.LimitPin != nil {
				limit = core.GPIOPin(*ac.LimitPin)
			}
			sim.AttachCarriage(core.GPIOPin(ac.StepPin), core.GPIOPin(ac.DirPin), limit,
				ac.Inverted, int64(ac.StepCount/10))
		}
		chip = sim
	} else {
		cdev, err := core.OpenCdevChip(a.cfg.Rails.Chip)
		if err != nil {
			return nil, err
		}
		chip = cdev
	}
	a.closers = append(a.closers, chip)

	rails, err := motion.NewRailsFromConfig(chip, a.cfg.Rails, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, rails)
	return rails, nil
}

// openScale opens the scale port. In simulation the weight follows the
// carriage height: the sample rests in the cup at the cup coordinate and
// floats at the float height.
func (a *app) openScale(rails *motion.Rails) (*scale.Scale, error) {
	if a.simulate {
		cup := a.cfg.Devices.Scales.Cup
		sim := scale.NewSimulator(simLineInterval, func() float64 {
			if rails == nil {
				return simHolderWeight
			}
			z := rails.Position()[motion.Z]
			switch {
			case math.Abs(z-cup.Coordinate[motion.Z]) < 0.5:
				return simHolderWeight + simSampleWeight
			case math.Abs(z-cup.FloatHeight) < 0.5:
				return simHolderWeight + simSampleVolume
			}
			return simHolderWeight
		})
		return scale.New(sim, a.cfg.Scale, a.logger)
	}

	port, err := serial.Open(&serial.Config{
		Device:      a.cfg.Scale.SerialPath,
		Baud:        a.cfg.Scale.Baud,
		ReadTimeout: serial.DefaultConfig(a.cfg.Scale.SerialPath).ReadTimeout,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, port)

	s, err := scale.New(port, a.cfg.Scale, a.logger)
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}
	return s, nil
}
