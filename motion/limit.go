package motion

import "pawnshop/core"

// LimitSensor reads an active-low limit switch
type LimitSensor struct {
	line core.InputLine
}

// NewLimitSensor wraps an input line wired to a normally-open switch with pull-up
func NewLimitSensor(line core.InputLine) *LimitSensor {
	return &LimitSensor{line: line}
}

// Triggered samples the switch. The value is never cached.
func (l *LimitSensor) Triggered() (bool, error) {
	v, err := l.line.Value()
	if err != nil {
		return false, err
	}
	return v == 0, nil
}
