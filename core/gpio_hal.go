package core

import "errors"

// GPIOPin identifies a line offset on a GPIO chip
type GPIOPin int

// NoPin marks an optional line that is not wired
const NoPin GPIOPin = -1

// ErrPinInUse is returned when a line is requested twice
var ErrPinInUse = errors.New("gpio: line already requested")

// OutputLine drives a single digital output.
// Values are 0 (low) or 1 (high).
type OutputLine interface {
	SetValue(value int) error
	Close() error
}

// InputLine samples a single digital input
type InputLine interface {
	Value() (int, error)
	Close() error
}

// Chip is the abstract GPIO interface that motion code uses.
// Platform-specific implementations handle actual hardware control.
type Chip interface {
	// RequestOutput claims a line as a digital output, initially low
	RequestOutput(pin GPIOPin, consumer string) (OutputLine, error)

	// RequestInput claims a line as a digital input
	RequestInput(pin GPIOPin, consumer string) (InputLine, error)

	// Close releases the chip. Lines handed out must be closed separately.
	Close() error
}

// Valid reports whether the pin refers to a real line
func (p GPIOPin) Valid() bool {
	return p >= 0
}
