package core

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrLineClosed is returned when a released line is used
var ErrLineClosed = errors.New("gpio: line closed")

// SimChip is an in-memory GPIO chip.
// Carriages attached to it turn step pulses into motion and drive their
// active-low endstop, so homing and moves run without hardware.
type SimChip struct {
	mu        sync.Mutex
	outputs   map[GPIOPin]int
	inputs    map[GPIOPin]int
	claimed   map[GPIOPin]string
	carriages map[GPIOPin]*Carriage // keyed by step pin
	endstops  map[GPIOPin]*Carriage // keyed by limit pin
}

var _ Chip = (*SimChip)(nil)

// Carriage simulates one stepper-driven slide with a negative endstop at step 0
type Carriage struct {
	StepPin  GPIOPin
	DirPin   GPIOPin
	LimitPin GPIOPin
	// Inverted mirrors the motor mounting: a high direction line moves negative
	Inverted bool

	steps  atomic.Int64
	pulses atomic.Int64
}

// NewSimChip creates an empty simulated chip
func NewSimChip() *SimChip {
	return &SimChip{
		outputs:   make(map[GPIOPin]int),
		inputs:    make(map[GPIOPin]int),
		claimed:   make(map[GPIOPin]string),
		carriages: make(map[GPIOPin]*Carriage),
		endstops:  make(map[GPIOPin]*Carriage),
	}
}

// AttachCarriage wires a simulated slide to the given lines.
// startSteps is the carriage distance from the endstop, in steps.
func (c *SimChip) AttachCarriage(step, dir, limit GPIOPin, inverted bool, startSteps int64) *Carriage {
	car := &Carriage{StepPin: step, DirPin: dir, LimitPin: limit, Inverted: inverted}
	car.steps.Store(startSteps)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.carriages[step] = car
	if limit.Valid() {
		c.endstops[limit] = car
	}
	return car
}

// Steps returns the carriage position in steps from the endstop
func (car *Carriage) Steps() int64 {
	return car.steps.Load()
}

// Pulses returns the number of step pulses received
func (car *Carriage) Pulses() int64 {
	return car.pulses.Load()
}

// SetInput forces the raw value of an input that has no carriage attached
func (c *SimChip) SetInput(pin GPIOPin, value int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs[pin] = value
}

// Output returns the last value written to an output line
func (c *SimChip) Output(pin GPIOPin) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outputs[pin]
}

// RequestOutput claims a simulated output line
func (c *SimChip) RequestOutput(pin GPIOPin, consumer string) (OutputLine, error) {
	if err := c.claim(pin, consumer); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.outputs[pin] = 0
	c.mu.Unlock()
	return &simLine{chip: c, pin: pin}, nil
}

// RequestInput claims a simulated input line
func (c *SimChip) RequestInput(pin GPIOPin, consumer string) (InputLine, error) {
	if err := c.claim(pin, consumer); err != nil {
		return nil, err
	}
	return &simLine{chip: c, pin: pin}, nil
}

// Close is a no-op for the simulated chip
func (c *SimChip) Close() error {
	return nil
}

func (c *SimChip) claim(pin GPIOPin, consumer string) error {
	if !pin.Valid() {
		return fmt.Errorf("invalid pin %d", pin)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if owner, ok := c.claimed[pin]; ok {
		return fmt.Errorf("pin %d held by %s: %w", pin, owner, ErrPinInUse)
	}
	c.claimed[pin] = consumer
	return nil
}

func (c *SimChip) release(pin GPIOPin) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.claimed, pin)
}

func (c *SimChip) write(pin GPIOPin, value int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.outputs[pin]
	c.outputs[pin] = value

	// Carriages advance on the rising edge of the step line
	car, ok := c.carriages[pin]
	if !ok || prev != 0 || value == 0 {
		return
	}
	positive := (c.outputs[car.DirPin] == 1) != car.Inverted
	if positive {
		car.steps.Add(1)
	} else {
		car.steps.Add(-1)
	}
	car.pulses.Add(1)
}

func (c *SimChip) read(pin GPIOPin) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if car, ok := c.endstops[pin]; ok {
		// Active-low switch closes at or behind the home position
		if car.steps.Load() <= 0 {
			return 0
		}
		return 1
	}
	if v, ok := c.inputs[pin]; ok {
		return v
	}
	// Pulled up, switch open
	return 1
}

type simLine struct {
	chip   *SimChip
	pin    GPIOPin
	closed atomic.Bool
}

func (l *simLine) SetValue(value int) error {
	if l.closed.Load() {
		return ErrLineClosed
	}
	l.chip.write(l.pin, value)
	return nil
}

func (l *simLine) Value() (int, error) {
	if l.closed.Load() {
		return 0, ErrLineClosed
	}
	return l.chip.read(l.pin), nil
}

func (l *simLine) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	l.chip.release(l.pin)
	return nil
}
