package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawnshop/config"
)

const simConfig = `
[rails.x]
length_mm = 10
step_count = 1000
min_speed = 10
max_speed = 50
acceleration = 1000
step_pin = 0
dir_pin = 1
limit_pin = 2

[rails.y]
length_mm = 10
step_count = 1000
min_speed = 10
max_speed = 50
acceleration = 1000
step_pin = 3
dir_pin = 4
limit_pin = 5
inverted = true

[rails.z]
length_mm = 10
step_count = 1000
min_speed = 10
max_speed = 50
acceleration = 1000
step_pin = 6
dir_pin = 7
limit_pin = 8

[scale]
sample_size = 3
line_timeout = "2s"
probe_timeout = "2s"

[devices]
safe_height = 9.0

[devices.scales]
coordinate = [1.0, 1.0, 8.0]

[devices.scales.cup]
coordinate = [1.0, 1.0, 2.0]
float_height = 5.0
settle = "1ms"

[log]
level = "error"
`

// runCLI executes the command line against the simulated rig
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "station.toml")
	require.NoError(t, os.WriteFile(path, []byte(simConfig), 0o644))

	a := &app{}
	root := newRootCommand(a)
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--simulate", "--config", path}, args...))

	err := root.ExecuteContext(context.Background())
	require.NoError(t, a.teardown())
	return out.String(), err
}

func TestHomeCommand(t *testing.T) {
	out, err := runCLI(t, "", "home")
	require.NoError(t, err)
	assert.Equal(t, "[0.000, 0.000, 0.000]\n", out)
}

func TestHomeCommandUnknownAxis(t *testing.T) {
	_, err := runCLI(t, "", "home", "w")
	assert.ErrorContains(t, err, `unknown axis "w"`)
}

func TestMoveCommand(t *testing.T) {
	out, err := runCLI(t, "", "move", "1", "2", "3")
	require.NoError(t, err)
	assert.Equal(t, "[1.000, 2.000, 3.000]\n", out)
}

func TestConsoleCommand(t *testing.T) {
	out, err := runCLI(t, "G28\nG1 X4 Z1\nG91\nG1 X-1\nM114\nM700\n", "console")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "X:3.000 Y:0.000 Z:1.000", lines[4])
	assert.Equal(t, "weight: 100.0000", lines[6])
}

func TestMeasureCommand(t *testing.T) {
	out, err := runCLI(t, "", "measure")
	require.NoError(t, err)
	assert.Equal(t, "weight=19.3000 volume=1.0000 density=19.300\n", out)
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := newLogger(config.LogConfig{Level: "warn", Format: "json"}, buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "axis", "x")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"axis":"x"`)

	_, err = newLogger(config.LogConfig{Level: "loud"}, buf)
	assert.Error(t, err)
	_, err = newLogger(config.LogConfig{Level: "info", Format: "xml"}, buf)
	assert.Error(t, err)
}
