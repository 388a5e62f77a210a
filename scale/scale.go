package scale

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"pawnshop/config"
	"pawnshop/metrics"
)

// Default acquisition settings
const (
	DefaultSampleSize  = 20
	DefaultLineTimeout = 10 * time.Second
)

// Scale reads weights from a serial weighing device that continuously
// prints lines in the ST/US,GS/NT format.
type Scale struct {
	lines       *lineReader
	sampleSize  int
	lineTimeout time.Duration
	filter      Filter
	logger      *slog.Logger

	// Weight and PoweredOn consume the stream, one caller at a time
	mu sync.Mutex
}

// New creates a scale reading from port. Zero sample size and line timeout
// fall back to the defaults.
func New(port io.Reader, cfg config.ScaleConfig, logger *slog.Logger) (*Scale, error) {
	if port == nil {
		return nil, errors.New("scale needs a port")
	}
	if cfg.SampleSize < 0 {
		return nil, fmt.Errorf("invalid sample size %d", cfg.SampleSize)
	}
	filter, err := FilterByName(cfg.Filter)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scale{
		lines:       newLineReader(port),
		sampleSize:  cfg.SampleSize,
		lineTimeout: cfg.LineTimeout,
		filter:      filter,
		logger:      logger.With("component", "scale"),
	}
	if s.sampleSize == 0 {
		s.sampleSize = DefaultSampleSize
	}
	if s.lineTimeout <= 0 {
		s.lineTimeout = DefaultLineTimeout
	}
	return s, nil
}

// PoweredOn reports whether the device sends anything within timeout.
// The line content is not checked.
func (s *Scale) PoweredOn(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.lines.ReadLine(timeout)
	if err != nil {
		s.logger.Debug("scale probe failed", "timeout", timeout, "error", err)
		return false
	}
	return true
}

// Weight waits for a run of consecutive stable readings and returns the
// filtered weight. Malformed lines are skipped without breaking the run;
// an unstable reading starts the run over. ok is false when the device
// goes quiet for longer than the line timeout or the port fails.
func (s *Scale) Weight() (weight float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	samples := make([]float64, 0, s.sampleSize)
	for {
		line, err := s.lines.ReadLine(s.lineTimeout)
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				metrics.CountScaleTimeout()
				s.logger.Warn("scale is silent", "timeout", s.lineTimeout, "samples", len(samples))
			} else {
				s.logger.Error("failed to read scale", "error", err)
			}
			return 0, false
		}

		r, ok := ParseLine(line)
		if !ok {
			metrics.CountScaleLine(metrics.LineMalformed)
			s.logger.Debug("discarding malformed line", "line", line)
			continue
		}
		if !r.Stable {
			metrics.CountScaleLine(metrics.LineUnstable)
			samples = samples[:0]
			continue
		}
		metrics.CountScaleLine(metrics.LineStable)

		samples = append(samples, r.Weight)
		if len(samples) < s.sampleSize {
			continue
		}

		weight = s.filter(samples)
		metrics.SetWeight(weight)
		s.logger.Info("weight acquired", "weight", weight, "unit", r.Unit, "net", r.Container)
		return weight, true
	}
}
