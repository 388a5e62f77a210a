package gcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"pawnshop/motion"
)

// ErrNotHomed is returned for moves before the rig has been calibrated
var ErrNotHomed = errors.New("rails not homed, run G28 first")

// ErrUnknownCommand is returned for commands the console does not implement
var ErrUnknownCommand = errors.New("unknown command")

// defaultProbeTimeout is used by M701 without an S argument
const defaultProbeTimeout = 2 * time.Second

// Machine is the motion side of the station
type Machine interface {
	Position() motion.Vec3D
	Homed() bool
	Move(target motion.Vec3D) error
	CalibrateAxes(ctx context.Context, axes ...int) error
}

// Scale is the weighing side of the station
type Scale interface {
	Weight() (float64, bool)
	PoweredOn(timeout time.Duration) bool
}

// Interpreter executes console commands against the rails and the scale
type Interpreter struct {
	machine  Machine
	scale    Scale // nil when no scale is connected
	out      io.Writer
	logger   *slog.Logger
	absolute bool
}

// NewInterpreter creates an interpreter in absolute mode. Reports are
// written to out.
func NewInterpreter(machine Machine, scale Scale, out io.Writer, logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{
		machine:  machine,
		scale:    scale,
		out:      out,
		logger:   logger.With("component", "gcode"),
		absolute: true,
	}
}

// Absolute reports whether G0/G1 coordinates are absolute (G90)
func (interp *Interpreter) Absolute() bool {
	return interp.absolute
}

// Execute executes a parsed command
func (interp *Interpreter) Execute(ctx context.Context, cmd *Command) error {
	if cmd == nil || cmd.Type == 0 {
		return nil
	}
	interp.logger.Debug("executing", "command", cmd.String())

	switch cmd.Type {
	case 'G':
		return interp.executeG(ctx, cmd)
	case 'M':
		return interp.executeM(cmd)
	}
	return fmt.Errorf("%s: %w", cmd.Name(), ErrUnknownCommand)
}

// executeG handles G-codes
func (interp *Interpreter) executeG(ctx context.Context, cmd *Command) error {
	switch cmd.Number {
	case 0, 1: // Linear move
		return interp.doMove(cmd)
	case 28: // Home
		return interp.doHome(ctx, cmd)
	case 90: // Absolute positioning
		interp.absolute = true
	case 91: // Relative positioning
		interp.absolute = false
	default:
		return fmt.Errorf("%s: %w", cmd.Name(), ErrUnknownCommand)
	}
	return nil
}

// executeM handles M-codes
func (interp *Interpreter) executeM(cmd *Command) error {
	switch cmd.Number {
	case 114: // Report position
		pos := interp.machine.Position()
		_, err := fmt.Fprintf(interp.out, "X:%.3f Y:%.3f Z:%.3f\n", pos[motion.X], pos[motion.Y], pos[motion.Z])
		return err
	case 700: // Weigh
		return interp.doWeigh()
	case 701: // Probe scale
		return interp.doProbe(cmd)
	}
	return fmt.Errorf("%s: %w", cmd.Name(), ErrUnknownCommand)
}

// doMove executes a straight line move (G0/G1). F is accepted and ignored,
// the rails always run at their configured speeds.
func (interp *Interpreter) doMove(cmd *Command) error {
	if !interp.machine.Homed() {
		return ErrNotHomed
	}

	current := interp.machine.Position()
	target := current
	for i, letter := range []byte{'X', 'Y', 'Z'} {
		if !cmd.HasParameter(letter) {
			continue
		}
		if interp.absolute {
			target[i] = cmd.GetParameter(letter, current[i])
		} else {
			target[i] = current[i] + cmd.GetParameter(letter, 0)
		}
	}

	return interp.machine.Move(target)
}

// doHome homes the listed axes, or all of them in X, Y, Z order
func (interp *Interpreter) doHome(ctx context.Context, cmd *Command) error {
	var axes []int
	for i, letter := range []byte{'X', 'Y', 'Z'} {
		if cmd.HasParameter(letter) {
			axes = append(axes, i)
		}
	}
	if len(axes) == 0 {
		axes = []int{motion.X, motion.Y, motion.Z}
	}
	return interp.machine.CalibrateAxes(ctx, axes...)
}

func (interp *Interpreter) doWeigh() error {
	if interp.scale == nil {
		return errors.New("no scale configured")
	}
	w, ok := interp.scale.Weight()
	if !ok {
		_, err := fmt.Fprintln(interp.out, "weight: unavailable")
		return err
	}
	_, err := fmt.Fprintf(interp.out, "weight: %.4f\n", w)
	return err
}

func (interp *Interpreter) doProbe(cmd *Command) error {
	if interp.scale == nil {
		return errors.New("no scale configured")
	}
	timeout := defaultProbeTimeout
	if cmd.HasParameter('S') {
		timeout = time.Duration(cmd.GetParameter('S', 0) * float64(time.Second))
	}
	state := "off"
	if interp.scale.PoweredOn(timeout) {
		state = "on"
	}
	_, err := fmt.Fprintf(interp.out, "scale: %s\n", state)
	return err
}
