package gcode

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// Console reads commands line by line and answers each with "ok" or an
// "!! " error line, in the style of a printer host
type Console struct {
	parser *Parser
	interp *Interpreter
	out    io.Writer
}

// NewConsole creates a console writing to the interpreter's output
func NewConsole(interp *Interpreter) *Console {
	return &Console{
		parser: NewParser(),
		interp: interp,
		out:    interp.out,
	}
}

// Run processes lines from in until EOF or until ctx is cancelled.
// Command errors are reported and do not stop the console.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Exec(ctx, scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Exec runs one line. The returned error is only about writing the answer.
func (c *Console) Exec(ctx context.Context, line string) error {
	cmd, err := c.parser.ParseLine(line)
	if err == nil && cmd == nil {
		return nil
	}
	if err == nil {
		err = c.interp.Execute(ctx, cmd)
	}
	if err != nil {
		c.interp.logger.Warn("command failed", "line", line, "error", err)
		_, werr := fmt.Fprintf(c.out, "!! %v\n", err)
		return werr
	}
	_, err = fmt.Fprintln(c.out, "ok")
	return err
}
