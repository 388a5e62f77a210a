package scale

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// settlingLines is how many unstable lines a simulated scale prints after
// its weight source is (re)attached
const settlingLines = 3

// Simulator is a fake weighing device. It produces one line per interval
// and, like a serial port opened with a read timeout, reports an empty
// read as io.EOF instead of blocking.
type Simulator struct {
	interval time.Duration
	weight   func() float64

	mu       sync.Mutex
	next     time.Time
	pending  []byte
	settling int
}

// NewSimulator creates a simulated scale printing the value of weight
func NewSimulator(interval time.Duration, weight func() float64) *Simulator {
	return &Simulator{
		interval: interval,
		weight:   weight,
		next:     time.Now(),
		settling: settlingLines,
	}
}

// Read implements io.Reader
func (s *Simulator) Read(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		now := time.Now()
		if now.Before(s.next) {
			return 0, io.EOF
		}
		s.next = now.Add(s.interval)

		status := "ST"
		if s.settling > 0 {
			status = "US"
			s.settling--
		}
		s.pending = fmt.Appendf(nil, "%s,GS%8.3fg \r\n", status, s.weight())
	}

	n := copy(b, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Resettle makes the next few lines unstable, as after a load change
func (s *Simulator) Resettle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settling = settlingLines
}
