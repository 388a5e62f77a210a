package scale

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawnshop/config"
)

// fakePort behaves like a serial port opened with a read timeout:
// an empty buffer reads as (0, io.EOF) instead of blocking.
type fakePort struct {
	mu   sync.Mutex
	data []byte
	err  error
}

func (p *fakePort) Feed(lines ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range lines {
		p.data = append(p.data, l...)
		p.data = append(p.data, '\n')
	}
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	if len(p.data) == 0 {
		return 0, io.EOF
	}
	n := copy(b, p.data)
	p.data = p.data[n:]
	return n, nil
}

func stableLine(w float64) string {
	return fmt.Sprintf("ST,GS%8.3fg ", w)
}

func unstableLine(w float64) string {
	return fmt.Sprintf("US,GS%8.3fg ", w)
}

func newTestScale(t *testing.T, port io.Reader, filter string) *Scale {
	t.Helper()
	s, err := New(port, config.ScaleConfig{
		SampleSize:  20,
		LineTimeout: 100 * time.Millisecond,
		Filter:      filter,
	}, nil)
	require.NoError(t, err)
	return s
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Reading
	}{
		{"ST,GS -12.340kg", Reading{Stable: true, Container: false, Weight: -12.34, Unit: "kg"}},
		{"US,NT  0.500 lb", Reading{Stable: false, Container: true, Weight: 0.5, Unit: "lb"}},
		{"ST,GS+ 12.340 g", Reading{Stable: true, Weight: 12.34, Unit: "g"}},
		{"ST,NT   -1.50 kg", Reading{Stable: true, Container: true, Weight: -1.5, Unit: "kg"}},
		{"ST,GS -12.340kg\r", Reading{Stable: true, Weight: -12.34, Unit: "kg"}},
		{stableLine(3.25), Reading{Stable: true, Weight: 3.25, Unit: "g"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLineRejects(t *testing.T) {
	lines := []string{
		"garbage",
		"",
		"XX,GS -12.340kg",
		"ST,XX -12.340kg",
		"ST,GS -12.340KG",
		"ST,GS -1.2.34kg",
		"ST,GS        kg",
		"ST,GS -12.340kilo",
		"prefix ST,GS -12.340kg",
	}

	for _, line := range lines {
		_, ok := ParseLine(line)
		assert.False(t, ok, "%q", line)
	}
}

func TestWeightMedian(t *testing.T) {
	port := &fakePort{}
	for i := 0; i < 20; i++ {
		port.Feed(stableLine(float64(i)))
	}

	w, ok := newTestScale(t, port, "").Weight()
	require.True(t, ok)
	assert.Equal(t, 10.0, w)
}

func TestWeightStabilityReset(t *testing.T) {
	port := &fakePort{}
	for i := 0; i < 19; i++ {
		port.Feed(stableLine(100))
	}
	port.Feed(unstableLine(50))
	for i := 0; i < 20; i++ {
		port.Feed(stableLine(float64(10 + i)))
	}

	w, ok := newTestScale(t, port, config.FilterMedian).Weight()
	require.True(t, ok)
	assert.Equal(t, 20.0, w, "only the final stable run counts")
}

func TestWeightIgnoresNoise(t *testing.T) {
	port := &fakePort{}
	for i := 0; i < 10; i++ {
		port.Feed(stableLine(5))
	}
	port.Feed("garbage", "ST,GS", "")
	for i := 0; i < 10; i++ {
		port.Feed(stableLine(5))
	}
	// Reached only if the noise broke the run
	port.Feed(unstableLine(9))
	for i := 0; i < 20; i++ {
		port.Feed(stableLine(9))
	}

	w, ok := newTestScale(t, port, "").Weight()
	require.True(t, ok)
	assert.Equal(t, 5.0, w)
}

func TestWeightTrimmedMean(t *testing.T) {
	port := &fakePort{}
	for i := 0; i < 20; i++ {
		port.Feed(stableLine(float64(i + 1)))
	}

	w, ok := newTestScale(t, port, config.FilterTrimmedMean).Weight()
	require.True(t, ok)
	assert.InDelta(t, 10.5, w, 1e-9)
}

func TestWeightOffline(t *testing.T) {
	port := &fakePort{}
	for i := 0; i < 5; i++ {
		port.Feed(stableLine(1))
	}
	s := newTestScale(t, port, "")

	start := time.Now()
	w, ok := s.Weight()
	assert.False(t, ok)
	assert.Equal(t, 0.0, w)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.False(t, s.PoweredOn(50*time.Millisecond))
}

func TestWeightPortError(t *testing.T) {
	port := &fakePort{err: errors.New("device unplugged")}

	_, ok := newTestScale(t, port, "").Weight()
	assert.False(t, ok)
}

func TestPoweredOn(t *testing.T) {
	port := &fakePort{}
	port.Feed("anything at all")

	s := newTestScale(t, port, "")
	assert.True(t, s.PoweredOn(time.Second))
}

func TestNewRejectsUnknownFilter(t *testing.T) {
	_, err := New(&fakePort{}, config.ScaleConfig{Filter: "mode"}, nil)
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	s, err := New(&fakePort{}, config.ScaleConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSampleSize, s.sampleSize)
	assert.Equal(t, DefaultLineTimeout, s.lineTimeout)
}

func TestSimulator(t *testing.T) {
	sim := NewSimulator(time.Millisecond, func() float64 { return 12.5 })
	s := newTestScale(t, sim, "")

	assert.True(t, s.PoweredOn(time.Second))

	w, ok := s.Weight()
	require.True(t, ok)
	assert.Equal(t, 12.5, w)

	sim.Resettle()
	w, ok = s.Weight()
	require.True(t, ok)
	assert.Equal(t, 12.5, w)
}
