//go:build linux

package core

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// CdevChip drives lines through the Linux GPIO character device (/dev/gpiochipN)
type CdevChip struct {
	name string
	chip *gpiocdev.Chip
}

var _ Chip = (*CdevChip)(nil)

// OpenCdevChip opens a GPIO chip by name ("gpiochip0") or path ("/dev/gpiochip0")
func OpenCdevChip(name string) (*CdevChip, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer("pawnshop"))
	if err != nil {
		return nil, fmt.Errorf("failed to open gpio chip %s: %w", name, err)
	}
	return &CdevChip{name: name, chip: chip}, nil
}

// RequestOutput claims a line as a digital output driven low
func (c *CdevChip) RequestOutput(pin GPIOPin, consumer string) (OutputLine, error) {
	line, err := c.chip.RequestLine(int(pin), gpiocdev.AsOutput(0), gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("failed to request output %s:%d: %w", c.name, pin, err)
	}
	return line, nil
}

// RequestInput claims a line as a digital input
func (c *CdevChip) RequestInput(pin GPIOPin, consumer string) (InputLine, error) {
	line, err := c.chip.RequestLine(int(pin), gpiocdev.AsInput, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("failed to request input %s:%d: %w", c.name, pin, err)
	}
	return line, nil
}

// Close closes the chip
func (c *CdevChip) Close() error {
	return c.chip.Close()
}
