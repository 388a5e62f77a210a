package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

// Filters understood by the scale
const (
	FilterMedian      = "median"
	FilterTrimmedMean = "trimmed-mean"
)

// Load reads and validates a TOML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML configuration, applies defaults and validates the result
func Parse(data []byte) (*Config, error) {
	var cfg Config

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(cfg *Config) {
	if cfg.Rails.Chip == "" {
		cfg.Rails.Chip = "/dev/gpiochip0"
	}

	for _, axis := range []*AxisConfig{&cfg.Rails.X, &cfg.Rails.Y, &cfg.Rails.Z} {
		if axis.MinSpeed == 0 {
			axis.MinSpeed = 30.0
		}
		if axis.MaxSpeed == 0 {
			axis.MaxSpeed = 600.0
		}
		if axis.Acceleration == 0 {
			axis.Acceleration = 100.0
		}
	}

	if cfg.Scale.SerialPath == "" {
		cfg.Scale.SerialPath = "/dev/ttyS0"
	}
	if cfg.Scale.Baud == 0 {
		cfg.Scale.Baud = 9600
	}
	if cfg.Scale.SampleSize == 0 {
		cfg.Scale.SampleSize = 20
	}
	if cfg.Scale.LineTimeout == 0 {
		cfg.Scale.LineTimeout = 10 * time.Second
	}
	if cfg.Scale.ProbeTimeout == 0 {
		cfg.Scale.ProbeTimeout = 10 * time.Second
	}
	if cfg.Scale.Filter == "" {
		cfg.Scale.Filter = FilterMedian
	}

	if cfg.Devices.Scales.Cup.Settle == 0 {
		cfg.Devices.Scales.Cup.Settle = 5 * time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate reports every configuration problem at once
func (c *Config) Validate() error {
	var err error

	names := [3]string{"x", "y", "z"}
	pins := make(map[int]string)
	claim := func(pin int, owner string) {
		if pin < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: negative pin %d", owner, pin))
			return
		}
		if other, ok := pins[pin]; ok {
			err = multierr.Append(err, fmt.Errorf("%s: pin %d already used by %s", owner, pin, other))
			return
		}
		pins[pin] = owner
	}

	for i, axis := range c.Rails.Axes() {
		name := "rails." + names[i]
		if axis.LengthMM <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s: length_mm must be positive", name))
		}
		if axis.StepCount == 0 {
			err = multierr.Append(err, fmt.Errorf("%s: step_count must be positive", name))
		}
		if axis.MinSpeed <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s: min_speed must be positive", name))
		}
		if axis.MaxSpeed < axis.MinSpeed {
			err = multierr.Append(err, fmt.Errorf("%s: max_speed %.1f below min_speed %.1f", name, axis.MaxSpeed, axis.MinSpeed))
		}
		if axis.Acceleration <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s: acceleration must be positive", name))
		}
		if axis.HomingTimeout < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: homing_timeout must not be negative", name))
		}
		claim(axis.StepPin, name+".step_pin")
		claim(axis.DirPin, name+".dir_pin")
		if axis.LimitPin != nil {
			claim(*axis.LimitPin, name+".limit_pin")
		}
	}

	if c.Scale.SerialPath == "" {
		err = multierr.Append(err, errors.New("scale: serial_path is required"))
	}
	if c.Scale.Baud <= 0 {
		err = multierr.Append(err, errors.New("scale: baud must be positive"))
	}
	if c.Scale.SampleSize <= 0 {
		err = multierr.Append(err, errors.New("scale: sample_size must be positive"))
	}
	if c.Scale.LineTimeout <= 0 || c.Scale.ProbeTimeout <= 0 {
		err = multierr.Append(err, errors.New("scale: timeouts must be positive"))
	}
	switch c.Scale.Filter {
	case FilterMedian, FilterTrimmedMean:
	default:
		err = multierr.Append(err, fmt.Errorf("scale: unknown filter %q", c.Scale.Filter))
	}

	err = multierr.Append(err, c.validateDevices())

	switch c.Log.Format {
	case "text", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("log: unknown format %q", c.Log.Format))
	}

	return err
}

// validateDevices checks that every station lies inside the travel of the rails
func (c *Config) validateDevices() error {
	var err error

	axes := c.Rails.Axes()
	names := [3]string{"x", "y", "z"}
	inside := func(owner string, coord [3]float64) {
		for i, v := range coord {
			if v < 0 || v > axes[i].LengthMM {
				err = multierr.Append(err, fmt.Errorf("%s: %s=%.1f outside [0, %.1f]", owner, names[i], v, axes[i].LengthMM))
			}
		}
	}

	d := c.Devices
	if d.SafeHeight < 0 || d.SafeHeight > axes[2].LengthMM {
		err = multierr.Append(err, fmt.Errorf("devices: safe_height %.1f outside [0, %.1f]", d.SafeHeight, axes[2].LengthMM))
	}
	inside("devices.dryer", d.Dryer.Coordinate)
	inside("devices.ultrasonic_bath", d.UltrasonicBath.Coordinate)
	inside("devices.scales", d.Scales.Coordinate)
	inside("devices.scales.cup", d.Scales.Cup.Coordinate)
	inside("devices.scales.power_button", d.Scales.PowerButton.Coordinate)
	inside("devices.gold_receiver", d.GoldReceiver.Coordinate)

	if d.Scales.Cup.FloatHeight < 0 || d.Scales.Cup.FloatHeight > axes[2].LengthMM {
		err = multierr.Append(err, fmt.Errorf("devices.scales.cup: float_height %.1f outside [0, %.1f]", d.Scales.Cup.FloatHeight, axes[2].LengthMM))
	}
	if d.Dryer.Duration < 0 || d.UltrasonicBath.Duration < 0 || d.Scales.Cup.Settle < 0 {
		err = multierr.Append(err, errors.New("devices: durations must not be negative"))
	}
	return err
}

// Default returns the configuration of the station rig
func Default() *Config {
	limit := func(pin int) *int { return &pin }

	cfg := &Config{
		Rails: RailsConfig{
			Chip: "/dev/gpiochip0",
			X: AxisConfig{
				LengthMM: 435.0, StepCount: 17250,
				MinSpeed: 30.0, MaxSpeed: 600.0, Acceleration: 100.0,
				StepPin: 6, DirPin: 13, LimitPin: limit(25), Inverted: true,
			},
			Y: AxisConfig{
				LengthMM: 530.0, StepCount: 26750,
				MinSpeed: 30.0, MaxSpeed: 600.0, Acceleration: 100.0,
				StepPin: 20, DirPin: 16, LimitPin: limit(5),
			},
			Z: AxisConfig{
				LengthMM: 150.0, StepCount: 47000,
				MinSpeed: 30.0, MaxSpeed: 600.0, Acceleration: 100.0,
				StepPin: 19, DirPin: 26, LimitPin: limit(12), Inverted: true,
			},
		},
		Scale: ScaleConfig{
			SerialPath: "/dev/ttyS0",
		},
		Devices: DevicesConfig{
			SafeHeight: 140.0,
			Dryer:      Station{Coordinate: [3]float64{401.0, 455.7, 6.0}, Duration: 90 * time.Second},
			UltrasonicBath: Station{
				Coordinate: [3]float64{401.0, 495.3, 6.0},
				Duration:   60 * time.Second,
			},
			Scales: ScaleStation{
				Coordinate: [3]float64{0, 416.1, 140.0},
				Cup: Cup{
					Coordinate:    [3]float64{0, 416.1, 3.2},
					DesiredWeight: 25.0,
					FloatHeight:   47.9,
				},
				PowerButton: Point{Coordinate: [3]float64{30.0, 416.1, 20.0}},
			},
			GoldReceiver: Point{Coordinate: [3]float64{200.0, 20.0, 60.0}},
		},
	}
	applyDefaults(cfg)
	return cfg
}
