// Package station sequences the rails and the scale into the steps of an
// assay: washing, drying and hydrostatic density measurement.
package station

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pawnshop/config"
	"pawnshop/motion"
)

var (
	// ErrScaleOffline is returned when a weighing produced no value
	ErrScaleOffline = errors.New("scale did not deliver a weight")

	// ErrNoBuoyancy is returned when the floating weight equals the lifted
	// weight, so no volume can be derived
	ErrNoBuoyancy = errors.New("sample displaced no water")
)

// Rails is the motion interface the station drives
type Rails interface {
	Position() motion.Vec3D
	Move(target motion.Vec3D) error
}

// Scale is the weighing interface the station reads
type Scale interface {
	Weight() (float64, bool)
	PoweredOn(timeout time.Duration) bool
}

// Tare holds the readings of the empty holder, subtracted from every sample
type Tare struct {
	Weight float64 // laying minus lifted with no sample
	Volume float64 // floating minus lifted with no sample
}

// Measurement is the outcome of one density run. Weights are in scale
// units; with water as the bath liquid a gram of buoyancy is a cubic
// centimetre of volume.
type Measurement struct {
	Lifted   float64
	Laying   float64
	Floating float64

	Weight  float64
	Volume  float64
	Density float64
}

// Station runs the measurement choreography
type Station struct {
	rails        Rails
	scale        Scale
	devices      config.DevicesConfig
	probeTimeout time.Duration
	logger       *slog.Logger

	tare Tare
}

// New creates a station. probeTimeout bounds the scale power probe.
func New(rails Rails, scale Scale, devices config.DevicesConfig, probeTimeout time.Duration, logger *slog.Logger) *Station {
	if logger == nil {
		logger = slog.Default()
	}
	return &Station{
		rails:        rails,
		scale:        scale,
		devices:      devices,
		probeTimeout: probeTimeout,
		logger:       logger.With("component", "station"),
	}
}

// SetTare replaces the holder readings used by MeasureDensity
func (s *Station) SetTare(t Tare) {
	s.tare = t
}

// Tare returns the holder readings in use
func (s *Station) Tare() Tare {
	return s.tare
}

// moveVia travels to target over the safe height: rise, cross, descend
func (s *Station) moveVia(ctx context.Context, target motion.Vec3D) error {
	safe := s.devices.SafeHeight
	pos := s.rails.Position()

	path := []motion.Vec3D{
		{pos[motion.X], pos[motion.Y], max(pos[motion.Z], safe)},
		{target[motion.X], target[motion.Y], max(pos[motion.Z], safe)},
		target,
	}
	for _, p := range path {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.rails.Move(p); err != nil {
			return fmt.Errorf("move to %v: %w", p, err)
		}
	}
	return nil
}

// dwell waits for d unless ctx ends first
func dwell(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// visit moves to a station, stays there and rises back to the safe height
func (s *Station) visit(ctx context.Context, name string, st config.Station) error {
	s.logger.Info("visiting", "station", name, "duration", st.Duration)
	if err := s.moveVia(ctx, st.Coordinate); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := dwell(ctx, st.Duration); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return s.rise(ctx)
}

// rise lifts the carriage to the safe height in place
func (s *Station) rise(ctx context.Context) error {
	pos := s.rails.Position()
	if pos[motion.Z] >= s.devices.SafeHeight {
		return nil
	}
	pos[motion.Z] = s.devices.SafeHeight
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.rails.Move(pos)
}

// Wash holds the sample in the ultrasonic bath
func (s *Station) Wash(ctx context.Context) error {
	return s.visit(ctx, "ultrasonic bath", s.devices.UltrasonicBath)
}

// Dry holds the sample in the dryer
func (s *Station) Dry(ctx context.Context) error {
	return s.visit(ctx, "dryer", s.devices.Dryer)
}

// Deliver drops the sample off at the gold receiver
func (s *Station) Deliver(ctx context.Context) error {
	return s.visit(ctx, "gold receiver", config.Station{Coordinate: s.devices.GoldReceiver.Coordinate})
}

// EnsureScale probes the scale and, when it is silent, presses its power
// button with the carriage and probes again
func (s *Station) EnsureScale(ctx context.Context) error {
	if s.scale.PoweredOn(s.probeTimeout) {
		return nil
	}
	s.logger.Warn("scale is silent, pressing power button")

	if err := s.moveVia(ctx, s.devices.Scales.PowerButton.Coordinate); err != nil {
		return fmt.Errorf("power button: %w", err)
	}
	if err := s.rise(ctx); err != nil {
		return fmt.Errorf("power button: %w", err)
	}
	if !s.scale.PoweredOn(s.probeTimeout) {
		return ErrScaleOffline
	}
	return nil
}

func (s *Station) weigh(ctx context.Context, what string) (float64, error) {
	if err := dwell(ctx, s.devices.Scales.Cup.Settle); err != nil {
		return 0, err
	}
	w, ok := s.scale.Weight()
	if !ok {
		return 0, fmt.Errorf("%s: %w", what, ErrScaleOffline)
	}
	s.logger.Debug("weighed", "what", what, "weight", w)
	return w, nil
}

// hydrostatic takes the three readings of a density run: sample held above
// the cup, sample laying in the cup and sample floating free in the water
func (s *Station) hydrostatic(ctx context.Context) (m Measurement, err error) {
	sc := s.devices.Scales
	cup := motion.Vec3D(sc.Cup.Coordinate)
	floating := cup
	floating[motion.Z] = sc.Cup.FloatHeight

	if err := s.moveVia(ctx, sc.Coordinate); err != nil {
		return m, err
	}
	if m.Lifted, err = s.weigh(ctx, "lifted"); err != nil {
		return m, err
	}

	if err := s.rails.Move(cup); err != nil {
		return m, err
	}
	if m.Laying, err = s.weigh(ctx, "laying"); err != nil {
		return m, err
	}

	if err := s.rails.Move(floating); err != nil {
		return m, err
	}
	if m.Floating, err = s.weigh(ctx, "floating"); err != nil {
		return m, err
	}

	if err := s.rails.Move(motion.Vec3D(sc.Coordinate)); err != nil {
		return m, err
	}
	return m, s.rise(ctx)
}

// CalibrateTare runs the density sequence with an empty holder and keeps
// the result as the tare for later measurements
func (s *Station) CalibrateTare(ctx context.Context) (Tare, error) {
	m, err := s.hydrostatic(ctx)
	if err != nil {
		return Tare{}, fmt.Errorf("tare: %w", err)
	}
	s.tare = Tare{
		Weight: m.Laying - m.Lifted,
		Volume: m.Floating - m.Lifted,
	}
	s.logger.Info("tare calibrated", "weight", s.tare.Weight, "volume", s.tare.Volume)
	return s.tare, nil
}

// MeasureDensity weighs the held sample dry and submerged and derives its
// density from the buoyancy
func (s *Station) MeasureDensity(ctx context.Context) (Measurement, error) {
	m, err := s.hydrostatic(ctx)
	if err != nil {
		return m, fmt.Errorf("measure: %w", err)
	}

	m.Weight = m.Laying - m.Lifted - s.tare.Weight
	m.Volume = m.Floating - m.Lifted - s.tare.Volume
	if m.Volume == 0 {
		return m, fmt.Errorf("measure: %w", ErrNoBuoyancy)
	}
	m.Density = m.Weight / m.Volume

	s.logger.Info("density measured", "weight", m.Weight, "volume", m.Volume, "density", m.Density)
	return m, nil
}
