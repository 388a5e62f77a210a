package scale

import (
	"regexp"
	"strconv"
	"strings"
)

// Reading is one parsed line from the scale
type Reading struct {
	Stable    bool    // the scale's settling detector reports a steady value
	Container bool    // net (tare adjusted) rather than gross weight
	Weight    float64 // in Unit
	Unit      string
}

// A line is "<ST|US>,<GS|NT>" followed by an 8 column number (sign column and
// 7 columns of digits, point and padding) and a 2 or 3 column unit.
// Right-aligned output may put the minus sign inside the digit columns.
var lineFormat = regexp.MustCompile(`^(ST|US),(GS|NT)([-+ ][-0-9. ]{7})([a-z ]{2,3})$`)

// ParseLine parses one scale line. ok is false for anything that does not
// match the wire format, which callers treat as line noise.
func ParseLine(line string) (r Reading, ok bool) {
	m := lineFormat.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return Reading{}, false
	}

	number := strings.Join(strings.Fields(m[3]), "")
	weight, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return Reading{}, false
	}

	unit := strings.TrimSpace(m[4])
	if unit == "" {
		return Reading{}, false
	}

	return Reading{
		Stable:    m[1] == "ST",
		Container: m[2] == "NT",
		Weight:    weight,
		Unit:      unit,
	}, true
}
