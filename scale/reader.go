package scale

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// emptyPoll is the back-off after a read that returned no data
	emptyPoll = time.Millisecond

	// maxLineLength bounds the buffer when the stream carries no newlines
	maxLineLength = 256
)

// ErrTimeout is returned when no complete line arrived in time
var ErrTimeout = errors.New("scale: line read timed out")

type lineResult struct {
	line string
	err  error
}

// lineReader turns a blocking byte stream into line reads with a deadline.
//
// Every ReadLine starts one read attempt goroutine with a private buffer.
// On timeout the attempt is told to stop and is abandoned; it writes nothing
// shared afterwards and delivers nothing, since its result channel is
// buffered and nobody reads it. Attempts take mu before touching the stream,
// so an abandoned attempt and the next one never read concurrently.
type lineReader struct {
	r  io.Reader
	mu sync.Mutex
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: r}
}

// ReadLine returns the next line without its terminator, or ErrTimeout
func (lr *lineReader) ReadLine(timeout time.Duration) (string, error) {
	stop := new(atomic.Bool)
	result := make(chan lineResult, 1)
	go lr.attempt(stop, result)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-result:
		return res.line, res.err
	case <-timer.C:
		stop.Store(true)
		return "", ErrTimeout
	}
}

func (lr *lineReader) attempt(stop *atomic.Bool, result chan<- lineResult) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	var (
		buf []byte
		b   [1]byte
	)
	for !stop.Load() {
		n, err := lr.r.Read(b[:])
		if n == 1 {
			if b[0] == '\n' {
				result <- lineResult{line: string(buf)}
				return
			}
			buf = append(buf, b[0])
			if len(buf) > maxLineLength {
				buf = buf[:0]
			}
			continue
		}

		// Serial ports opened with a read timeout report an empty read as EOF
		if err == nil || errors.Is(err, io.EOF) {
			time.Sleep(emptyPoll)
			continue
		}
		result <- lineResult{err: err}
		return
	}
}
