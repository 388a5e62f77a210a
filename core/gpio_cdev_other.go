//go:build !linux

package core

import "errors"

// CdevChip is only available on Linux
type CdevChip struct{}

var _ Chip = (*CdevChip)(nil)

// OpenCdevChip always fails outside Linux
func OpenCdevChip(name string) (*CdevChip, error) {
	return nil, errors.New("gpio character device requires linux (use --simulate)")
}

func (c *CdevChip) RequestOutput(pin GPIOPin, consumer string) (OutputLine, error) {
	return nil, errors.New("gpio character device requires linux")
}

func (c *CdevChip) RequestInput(pin GPIOPin, consumer string) (InputLine, error) {
	return nil, errors.New("gpio character device requires linux")
}

func (c *CdevChip) Close() error {
	return nil
}
