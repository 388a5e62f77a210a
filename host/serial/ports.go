package serial

import (
	"fmt"
	"slices"

	bugst "go.bug.st/serial"
)

// ListPorts returns the serial devices present on the system, sorted by name
func ListPorts() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	slices.Sort(ports)
	return ports, nil
}
