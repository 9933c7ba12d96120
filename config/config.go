// Package config holds the library-level tunable bundle an embedding
// application decodes from its own YAML file and applies to the
// generator and receiver through their setters; no constructor in this
// module takes a Config. The library itself never
// reads a file path or environment variable — modeled on the teacher
// repo's deviceid.go, which decodes a caller-supplied []byte with
// yaml.Unmarshal rather than owning its own file-discovery logic.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/n1cw/gocw/cwerrors"
)

// Generator holds the send-side tunables.
type Generator struct {
	SpeedWPM      int    `yaml:"speed_wpm"`
	FrequencyHz   int    `yaml:"frequency_hz"`
	VolumePercent int    `yaml:"volume_percent"`
	GapWPM        int    `yaml:"gap_wpm"`
	Weighting     int    `yaml:"weighting"`
	SlopeShape    string `yaml:"slope_shape"` // "linear", "sine", "raised-cosine", "rectangular"
	ToneSlopeUs   int64  `yaml:"tone_slope_us"`
}

// Receiver holds the receive-side tunables.
type Receiver struct {
	SpeedWPM            float64 `yaml:"speed_wpm"`
	TolerancePercent    int     `yaml:"tolerance_percent"`
	GapWPM              int     `yaml:"gap_wpm"`
	NoiseThresholdUs    int64   `yaml:"noise_threshold_us"`
	AdaptiveModeEnabled bool    `yaml:"adaptive_mode"`
}

// Sink selects and configures the audio backend.
type Sink struct {
	Backend string `yaml:"backend"` // "null", "console", "portaudio"
	Device  string `yaml:"device"`
}

// GPIOKey configures an optional key/gpiokey adapter.
type GPIOKey struct {
	Enabled   bool   `yaml:"enabled"`
	Chip      string `yaml:"chip"`
	Line      int    `yaml:"line"`
	ActiveLow bool   `yaml:"active_low"`
}

// SerialKey configures an optional key/serialkey adapter.
type SerialKey struct {
	Enabled bool   `yaml:"enabled"`
	Device  string `yaml:"device"`
}

// PTT configures an optional key/ptt rig-control adapter.
type PTT struct {
	Enabled    bool   `yaml:"enabled"`
	RigModel   int    `yaml:"rig_model"`
	RigDevice  string `yaml:"rig_device"`
	HangDelay  string `yaml:"hang_delay"` // parsed with time.ParseDuration by the caller
}

// Config is the full tunable bundle for one embedding application.
type Config struct {
	Generator Generator  `yaml:"generator"`
	Receiver  Receiver   `yaml:"receiver"`
	Sink      Sink       `yaml:"sink"`
	GPIOKey   *GPIOKey   `yaml:"gpio_key,omitempty"`
	SerialKey *SerialKey `yaml:"serial_key,omitempty"`
	PTT       *PTT       `yaml:"ptt,omitempty"`
}

// Default returns a Config carrying the library's documented initial
// values (speed 12 WPM, frequency 800 Hz, volume 70%, tolerance 50%,
// noise threshold 10ms, null sink).
func Default() Config {
	return Config{
		Generator: Generator{
			SpeedWPM:      12,
			FrequencyHz:   800,
			VolumePercent: 70,
			GapWPM:        0,
			Weighting:     50,
			SlopeShape:    "raised-cosine",
			ToneSlopeUs:   2000,
		},
		Receiver: Receiver{
			SpeedWPM:         12,
			TolerancePercent: 50,
			GapWPM:           0,
			NoiseThresholdUs: 10_000,
		},
		Sink: Sink{
			Backend: "null",
		},
	}
}

// Load decodes a Config from YAML bytes, starting from Default() so
// that any field the document omits keeps its documented initial
// value rather than zeroing out.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse yaml: %w", err)
	}
	return cfg, nil
}

// Marshal renders cfg back to YAML, for an embedding application that
// wants to persist a config it built or modified programmatically.
func Marshal(cfg Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: marshal yaml: %w", err)
	}
	return out, nil
}

// Validate checks the numeric tunables against the ranges documented
// in the generator and receiver packages, without importing either
// (to avoid a dependency cycle from config into the packages it
// configures); the literal bounds are duplicated here, and this
// package's tests do not compare them with generator/receiver's
// exported constants.
func Validate(cfg Config) error {
	if cfg.Generator.SpeedWPM < 4 || cfg.Generator.SpeedWPM > 60 {
		return fmt.Errorf("config: generator.speed_wpm %d out of range [4,60]: %w", cfg.Generator.SpeedWPM, cwerrors.ErrInvalidArgument)
	}
	if cfg.Generator.FrequencyHz < 0 || cfg.Generator.FrequencyHz > 4000 {
		return fmt.Errorf("config: generator.frequency_hz %d out of range [0,4000]: %w", cfg.Generator.FrequencyHz, cwerrors.ErrInvalidArgument)
	}
	if cfg.Generator.VolumePercent < 0 || cfg.Generator.VolumePercent > 100 {
		return fmt.Errorf("config: generator.volume_percent %d out of range [0,100]: %w", cfg.Generator.VolumePercent, cwerrors.ErrInvalidArgument)
	}
	if cfg.Generator.GapWPM < 0 || cfg.Generator.GapWPM > 60 {
		return fmt.Errorf("config: generator.gap_wpm %d out of range [0,60]: %w", cfg.Generator.GapWPM, cwerrors.ErrInvalidArgument)
	}
	if cfg.Generator.Weighting < 20 || cfg.Generator.Weighting > 80 {
		return fmt.Errorf("config: generator.weighting %d out of range [20,80]: %w", cfg.Generator.Weighting, cwerrors.ErrInvalidArgument)
	}
	if cfg.Receiver.SpeedWPM < 4 || cfg.Receiver.SpeedWPM > 60 {
		return fmt.Errorf("config: receiver.speed_wpm %v out of range [4,60]: %w", cfg.Receiver.SpeedWPM, cwerrors.ErrInvalidArgument)
	}
	if cfg.Receiver.TolerancePercent < 0 || cfg.Receiver.TolerancePercent > 90 {
		return fmt.Errorf("config: receiver.tolerance_percent %d out of range [0,90]: %w", cfg.Receiver.TolerancePercent, cwerrors.ErrInvalidArgument)
	}
	switch cfg.Sink.Backend {
	case "null", "console", "portaudio":
	default:
		return fmt.Errorf("config: sink.backend %q not one of null/console/portaudio: %w", cfg.Sink.Backend, cwerrors.ErrInvalidArgument)
	}
	return nil
}
