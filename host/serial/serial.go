package serial

import (
	"io"
	"time"
)

// Port represents a serial port interface.
// The scale only reads, but the port stays a full ReadWriteCloser so a
// simulated device or a test double can stand in for the tty.
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not yet read
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyS0", "/dev/ttyUSB0")
	Device string

	// Baud rate of the weighing device
	Baud int

	// ReadTimeout bounds a single Read (0 = blocking). A non-zero value lets
	// abandoned line reads notice they were cancelled.
	ReadTimeout time.Duration
}

// DefaultConfig returns the configuration of a typical lab scale port
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        9600,
		ReadTimeout: 100 * time.Millisecond,
	}
}
