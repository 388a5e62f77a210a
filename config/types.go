package config

import "time"

// Config is the complete station configuration
type Config struct {
	Rails   RailsConfig   `toml:"rails"`
	Scale   ScaleConfig   `toml:"scale"`
	Devices DevicesConfig `toml:"devices"`
	Metrics MetricsConfig `toml:"metrics"`
	Log     LogConfig     `toml:"log"`
}

// RailsConfig describes the three-axis positioning rig
type RailsConfig struct {
	Chip string `toml:"chip"` // GPIO chip name or path, e.g. "/dev/gpiochip0"

	// Nice value applied to stepping threads (negative raises priority, 0 leaves it alone)
	Nice int `toml:"nice"`

	X AxisConfig `toml:"x"`
	Y AxisConfig `toml:"y"`
	Z AxisConfig `toml:"z"`
}

// Axes returns the axis configurations in X, Y, Z order
func (r RailsConfig) Axes() [3]AxisConfig {
	return [3]AxisConfig{r.X, r.Y, r.Z}
}

// AxisConfig represents configuration for a single axis
type AxisConfig struct {
	LengthMM     float64 `toml:"length_mm"`    // Travel length (mm)
	StepCount    uint32  `toml:"step_count"`   // Steps over the full length
	MinSpeed     float64 `toml:"min_speed"`    // Start/stop and homing speed (mm/s)
	MaxSpeed     float64 `toml:"max_speed"`    // Cruise speed (mm/s)
	Acceleration float64 `toml:"acceleration"` // mm/s^2

	StepPin  int  `toml:"step_pin"`  // GPIO line for step pulses
	DirPin   int  `toml:"dir_pin"`   // GPIO line for direction
	LimitPin *int `toml:"limit_pin"` // GPIO line for the negative limit switch (optional)
	Inverted bool `toml:"inverted"`  // Motor mounted mirrored

	// Abort homing after this long (0 = wait forever)
	HomingTimeout time.Duration `toml:"homing_timeout"`
}

// StepLength returns the travel per step in mm
func (a AxisConfig) StepLength() float64 {
	return a.LengthMM / float64(a.StepCount)
}

// ScaleConfig describes the serial weighing device
type ScaleConfig struct {
	SerialPath   string        `toml:"serial_path"`
	Baud         int           `toml:"baud"`
	SampleSize   int           `toml:"sample_size"`   // Consecutive stable samples per weight
	LineTimeout  time.Duration `toml:"line_timeout"`  // Give up when no line arrives in this time
	ProbeTimeout time.Duration `toml:"probe_timeout"` // Timeout for the power-on probe
	Filter       string        `toml:"filter"`        // "median" or "trimmed-mean"
}

// Station is a fixed location the rig visits for a while
type Station struct {
	Coordinate [3]float64    `toml:"coordinate"`
	Duration   time.Duration `toml:"duration"`
}

// Cup is the weighing cup hanging from the scale
type Cup struct {
	Coordinate    [3]float64 `toml:"coordinate"`
	DesiredWeight float64    `toml:"desired_weight"`
	// Height at which the sample floats free in the cup
	FloatHeight float64 `toml:"float_height"`
	// Wait before weighing so the water calms down
	Settle time.Duration `toml:"settle"`
}

// ScaleStation groups the scale-side coordinates
type ScaleStation struct {
	Coordinate  [3]float64 `toml:"coordinate"`
	Cup         Cup        `toml:"cup"`
	PowerButton Point      `toml:"power_button"`
}

// Point is a bare coordinate
type Point struct {
	Coordinate [3]float64 `toml:"coordinate"`
}

// DevicesConfig holds the station coordinates used by the measurement sequence
type DevicesConfig struct {
	SafeHeight     float64      `toml:"safe_height"`
	Dryer          Station      `toml:"dryer"`
	UltrasonicBath Station      `toml:"ultrasonic_bath"`
	Scales         ScaleStation `toml:"scales"`
	GoldReceiver   Point        `toml:"gold_receiver"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Addr string `toml:"addr"` // Listen address, empty disables the endpoint
}

// LogConfig controls process logging
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}
