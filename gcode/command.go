package gcode

import (
	"fmt"
	"sort"
	"strings"
)

// Command is one parsed console line
type Command struct {
	Type       byte             // 'G' or 'M'
	Number     int              // e.g. 28 for G28
	Parameters map[byte]float64 // letter arguments; a bare letter reads as 0
	Comment    string
}

// HasParameter checks if a parameter letter is present
func (cmd *Command) HasParameter(param byte) bool {
	_, ok := cmd.Parameters[param]
	return ok
}

// GetParameter gets a parameter value, or returns the default if not present
func (cmd *Command) GetParameter(param byte, defaultValue float64) float64 {
	if val, ok := cmd.Parameters[param]; ok {
		return val
	}
	return defaultValue
}

// Name returns the command word, e.g. "G28"
func (cmd *Command) Name() string {
	return fmt.Sprintf("%c%d", cmd.Type, cmd.Number)
}

func (cmd *Command) String() string {
	letters := make([]byte, 0, len(cmd.Parameters))
	for l := range cmd.Parameters {
		letters = append(letters, l)
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })

	var b strings.Builder
	b.WriteString(cmd.Name())
	for _, l := range letters {
		fmt.Fprintf(&b, " %c%g", l, cmd.Parameters[l])
	}
	return b.String()
}
