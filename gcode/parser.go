package gcode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parser turns console lines into commands
type Parser struct{}

// NewParser creates a new G-code parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseLine parses a single line. Blank lines yield a nil command; a line
// holding only a comment yields a command with Type 0.
func (p *Parser) ParseLine(line string) (*Command, error) {
	code, comment := splitComment(line)
	fields := strings.Fields(code)
	if len(fields) == 0 {
		if comment == "" {
			return nil, nil
		}
		return &Command{Comment: comment, Parameters: map[byte]float64{}}, nil
	}

	cmd := &Command{
		Parameters: make(map[byte]float64),
		Comment:    comment,
	}

	word := fields[0]
	cmd.Type = toUpper(word[0])
	if cmd.Type != 'G' && cmd.Type != 'M' {
		return nil, fmt.Errorf("unsupported command %q", word)
	}
	num, err := strconv.Atoi(word[1:])
	if err != nil || num < 0 {
		return nil, fmt.Errorf("invalid command number in %q", word)
	}
	cmd.Number = num

	for _, f := range fields[1:] {
		letter := toUpper(f[0])
		if !isLetter(letter) {
			return nil, fmt.Errorf("invalid parameter %q", f)
		}
		if cmd.HasParameter(letter) {
			return nil, fmt.Errorf("parameter %c given twice", letter)
		}

		value := 0.0
		if len(f) > 1 {
			value, err = strconv.ParseFloat(f[1:], 64)
			if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
				return nil, fmt.Errorf("invalid value for %c: %q", letter, f[1:])
			}
		}
		cmd.Parameters[letter] = value
	}

	return cmd, nil
}

// splitComment cuts a line at the first ';' or '('
func splitComment(line string) (code, comment string) {
	if i := strings.IndexAny(line, ";("); i >= 0 {
		return line[:i], strings.TrimSpace(line[i:])
	}
	return line, ""
}

// isLetter checks if a byte is an upper case letter
func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

// toUpper converts a byte to uppercase
func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
