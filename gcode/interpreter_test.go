package gcode

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawnshop/motion"
)

type fakeMachine struct {
	pos    motion.Vec3D
	homed  bool
	moves  []motion.Vec3D
	homing [][]int
}

func (m *fakeMachine) Position() motion.Vec3D { return m.pos }
func (m *fakeMachine) Homed() bool            { return m.homed }

func (m *fakeMachine) Move(target motion.Vec3D) error {
	m.moves = append(m.moves, target)
	m.pos = target
	return nil
}

func (m *fakeMachine) CalibrateAxes(_ context.Context, axes ...int) error {
	m.homing = append(m.homing, axes)
	for _, a := range axes {
		m.pos[a] = 0
	}
	m.homed = true
	return nil
}

type fakeScale struct {
	weight  float64
	ok      bool
	on      bool
	timeout time.Duration
}

func (s *fakeScale) Weight() (float64, bool) { return s.weight, s.ok }

func (s *fakeScale) PoweredOn(timeout time.Duration) bool {
	s.timeout = timeout
	return s.on
}

func run(t *testing.T, c *Console, lines ...string) {
	t.Helper()
	for _, l := range lines {
		require.NoError(t, c.Exec(context.Background(), l))
	}
}

func newTestConsole(m *fakeMachine, s Scale) (*Console, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewConsole(NewInterpreter(m, s, out, nil)), out
}

func TestHomeAll(t *testing.T) {
	m := &fakeMachine{pos: motion.Vec3D{1, 2, 3}}
	c, out := newTestConsole(m, nil)

	run(t, c, "G28")
	assert.Equal(t, [][]int{{motion.X, motion.Y, motion.Z}}, m.homing)
	assert.Equal(t, "ok\n", out.String())
}

func TestHomeSelectedAxes(t *testing.T) {
	m := &fakeMachine{pos: motion.Vec3D{1, 2, 3}}
	c, _ := newTestConsole(m, nil)

	run(t, c, "G28 Z X")
	assert.Equal(t, [][]int{{motion.X, motion.Z}}, m.homing)
	assert.Equal(t, motion.Vec3D{0, 2, 0}, m.pos)
}

func TestMoveAbsoluteAndRelative(t *testing.T) {
	m := &fakeMachine{homed: true}
	c, _ := newTestConsole(m, nil)

	run(t, c,
		"G0 X10 Y5",
		"G91",
		"G1 Z2 X-1",
		"G90",
		"G1 Z7",
	)

	assert.Equal(t, []motion.Vec3D{
		{10, 5, 0},
		{9, 5, 2},
		{9, 5, 7},
	}, m.moves)
}

func TestMoveRequiresHoming(t *testing.T) {
	m := &fakeMachine{}
	c, out := newTestConsole(m, nil)

	run(t, c, "G1 X1")
	assert.Empty(t, m.moves)
	assert.Contains(t, out.String(), "!! "+ErrNotHomed.Error())
}

func TestReportPosition(t *testing.T) {
	m := &fakeMachine{pos: motion.Vec3D{1.5, 2, 0.25}}
	c, out := newTestConsole(m, nil)

	run(t, c, "M114")
	assert.Equal(t, "X:1.500 Y:2.000 Z:0.250\nok\n", out.String())
}

func TestWeigh(t *testing.T) {
	s := &fakeScale{weight: 12.34, ok: true}
	c, out := newTestConsole(&fakeMachine{}, s)

	run(t, c, "M700")
	assert.Equal(t, "weight: 12.3400\nok\n", out.String())

	out.Reset()
	s.ok = false
	run(t, c, "M700")
	assert.Equal(t, "weight: unavailable\nok\n", out.String())
}

func TestProbe(t *testing.T) {
	s := &fakeScale{on: true}
	c, out := newTestConsole(&fakeMachine{}, s)

	run(t, c, "M701 S0.5")
	assert.Equal(t, "scale: on\nok\n", out.String())
	assert.Equal(t, 500*time.Millisecond, s.timeout)

	run(t, c, "M701")
	assert.Equal(t, defaultProbeTimeout, s.timeout)
}

func TestUnknownCommand(t *testing.T) {
	m := &fakeMachine{}
	interp := NewInterpreter(m, nil, &bytes.Buffer{}, nil)

	err := interp.Execute(context.Background(), &Command{Type: 'G', Number: 92})
	assert.True(t, errors.Is(err, ErrUnknownCommand))

	err = interp.Execute(context.Background(), &Command{Type: 'M', Number: 104})
	assert.True(t, errors.Is(err, ErrUnknownCommand))
}

func TestConsoleRun(t *testing.T) {
	m := &fakeMachine{}
	c, out := newTestConsole(m, nil)

	script := strings.Join([]string{
		"; home first",
		"G28",
		"",
		"G1 X4",
		"bogus",
		"M114",
	}, "\n")
	require.NoError(t, c.Run(context.Background(), strings.NewReader(script)))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "ok", lines[0])
	assert.Equal(t, "ok", lines[1])
	assert.Equal(t, "ok", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "!! "))
	assert.Equal(t, "X:4.000 Y:0.000 Z:0.000", lines[4])
	assert.Equal(t, "ok", lines[5])
}
