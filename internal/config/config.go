package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/cbegin/pitchsing-go/internal/osc"
	"github.com/cbegin/pitchsing-go/internal/synth"
)

// Fixed output format.
const (
	SampleRate          = 22050
	BitDepth            = 16
	Channels            = 1
	DefaultDeviceBuffer = 4096
)

// EnvPrefix is prepended to every environment variable, e.g. PITCHSING_LOG_LEVEL.
const EnvPrefix = "PITCHSING"

// Env holds the defaults that can be set from the environment or a .env file.
// Command-line flags take precedence.
type Env struct {
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`     // debug, info, warn, error
	LogPretty       bool   `envconfig:"LOG_PRETTY" default:"true"`    // console output instead of JSON
	DeviceBuffer    int    `envconfig:"DEVICE_BUFFER" default:"4096"` // device buffer in frames
	MetricsTextfile string `envconfig:"METRICS_TEXTFILE" default:""`
	OnSilence       string `envconfig:"ON_SILENCE" default:"rest"` // rest or stop
}

// LogLevels lists the accepted log level names.
var LogLevels = []string{"debug", "info", "warn", "error", "fatal"}

func validateLogLevel(level string) error {
	if !slices.Contains(LogLevels, level) {
		return fmt.Errorf("invalid log level %q (expected debug|info|warn|error|fatal)", level)
	}
	return nil
}

// Validate rejects unknown log levels and silence policies.
func (e *Env) Validate() error {
	if err := validateLogLevel(e.LogLevel); err != nil {
		return fmt.Errorf("%s_LOG_LEVEL: %w", EnvPrefix, err)
	}
	if _, err := synth.ParseSilencePolicy(e.OnSilence); err != nil {
		return fmt.Errorf("%s_ON_SILENCE: %w", EnvPrefix, err)
	}
	return nil
}

// LoadEnv reads a .env file if one exists, then the process environment.
func LoadEnv() (*Env, error) {
	_ = godotenv.Load()
	return LoadEnvOnly()
}

// LoadEnvOnly reads the process environment without looking for a .env file.
func LoadEnvOnly() (*Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &env, nil
}

// Config is built once at startup and passed by value to every component.
type Config struct {
	SampleRate          int
	BitDepth            int
	Channels            int
	DeviceBufferSamples int

	Shape         osc.Shape
	SilencePolicy synth.SilencePolicy

	InputPath  string
	OutputPath string // empty selects device playback

	Watch           bool
	MetricsTextfile string

	LogLevel  string
	LogPretty bool
}

// Default returns a Config with the fixed format and env defaults applied.
func Default(env *Env) Config {
	cfg := Config{
		SampleRate:          SampleRate,
		BitDepth:            BitDepth,
		Channels:            Channels,
		DeviceBufferSamples: DefaultDeviceBuffer,
		Shape:               osc.DefaultShape,
		SilencePolicy:       synth.SilenceRest,
		LogLevel:            "info",
		LogPretty:           true,
	}
	if env != nil {
		cfg.DeviceBufferSamples = env.DeviceBuffer
		cfg.MetricsTextfile = env.MetricsTextfile
		cfg.LogLevel = env.LogLevel
		cfg.LogPretty = env.LogPretty
		// Left unparsed so Validate reports a bad value.
		cfg.SilencePolicy = synth.SilencePolicy(env.OnSilence)
	}
	return cfg
}

// DeviceMode reports whether the output goes to the sound card.
func (c Config) DeviceMode() bool { return c.OutputPath == "" }

func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}
	if c.BitDepth != BitDepth || c.Channels != Channels {
		return fmt.Errorf("unsupported format %d-bit/%d channel(s)", c.BitDepth, c.Channels)
	}
	if c.DeviceBufferSamples <= 0 {
		return fmt.Errorf("device buffer must be positive, got %d", c.DeviceBufferSamples)
	}
	if c.InputPath == "" {
		return errors.New("input path is required")
	}
	if c.Watch && c.DeviceMode() {
		return errors.New("watch requires an output file")
	}
	if _, err := osc.ParseShape(string(c.Shape)); err != nil {
		return err
	}
	if _, err := synth.ParseSilencePolicy(string(c.SilencePolicy)); err != nil {
		return err
	}
	return validateLogLevel(c.LogLevel)
}
