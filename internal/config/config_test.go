package config

import (
	"strings"
	"testing"

	"github.com/cbegin/pitchsing-go/internal/osc"
	"github.com/cbegin/pitchsing-go/internal/synth"
)

func TestLoadEnvDefaults(t *testing.T) {
	env, err := LoadEnvOnly()
	if err != nil {
		t.Fatalf("LoadEnvOnly() failed: %v", err)
	}
	if env.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", env.LogLevel)
	}
	if !env.LogPretty {
		t.Error("Expected LogPretty to default to true")
	}
	if env.DeviceBuffer != 4096 {
		t.Errorf("Expected default DeviceBuffer 4096, got %d", env.DeviceBuffer)
	}
	if env.OnSilence != "rest" {
		t.Errorf("Expected default OnSilence 'rest', got '%s'", env.OnSilence)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PITCHSING_LOG_LEVEL", "debug")
	t.Setenv("PITCHSING_LOG_PRETTY", "false")
	t.Setenv("PITCHSING_DEVICE_BUFFER", "1024")
	t.Setenv("PITCHSING_METRICS_TEXTFILE", "/tmp/pitchsing.prom")
	t.Setenv("PITCHSING_ON_SILENCE", "stop")

	env, err := LoadEnvOnly()
	if err != nil {
		t.Fatalf("LoadEnvOnly() failed: %v", err)
	}
	cfg := Default(env)
	if cfg.LogLevel != "debug" || cfg.LogPretty {
		t.Errorf("log settings not applied: %q pretty=%v", cfg.LogLevel, cfg.LogPretty)
	}
	if cfg.DeviceBufferSamples != 1024 {
		t.Errorf("DeviceBufferSamples = %d, want 1024", cfg.DeviceBufferSamples)
	}
	if cfg.MetricsTextfile != "/tmp/pitchsing.prom" {
		t.Errorf("MetricsTextfile = %q", cfg.MetricsTextfile)
	}
	if cfg.SilencePolicy != synth.SilenceStop {
		t.Errorf("SilencePolicy = %q, want stop", cfg.SilencePolicy)
	}
}

func TestLoadEnvInvalidNumber(t *testing.T) {
	t.Setenv("PITCHSING_DEVICE_BUFFER", "lots")
	if _, err := LoadEnvOnly(); err == nil {
		t.Fatal("expected error for non-numeric device buffer")
	}
}

func TestLoadEnvRejectsInvalidValues(t *testing.T) {
	for _, tc := range []struct {
		key, value string
	}{
		{"PITCHSING_ON_SILENCE", "skip"},
		{"PITCHSING_LOG_LEVEL", "loud"},
	} {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := LoadEnvOnly()
			if err == nil {
				t.Fatalf("%s=%s accepted", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.key) || !strings.Contains(err.Error(), tc.value) {
				t.Fatalf("error does not name the setting: %v", err)
			}
		})
	}
}

func TestDefaultKeepsInvalidPolicyForValidate(t *testing.T) {
	cfg := Default(&Env{LogLevel: "info", DeviceBuffer: 4096, OnSilence: "skip"})
	cfg.InputPath = "in.csv"
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid silence policy from env passed validation")
	}
}

func TestDefaultFormat(t *testing.T) {
	cfg := Default(nil)
	if cfg.SampleRate != 22050 || cfg.BitDepth != 16 || cfg.Channels != 1 {
		t.Fatalf("unexpected format: %+v", cfg)
	}
	if cfg.Shape != osc.ShapeTriangle {
		t.Fatalf("default shape = %q, want triangle", cfg.Shape)
	}
	if !cfg.DeviceMode() {
		t.Fatal("no output path should select device mode")
	}
}

func TestValidate(t *testing.T) {
	base := Default(nil)
	base.InputPath = "in.csv"
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"no input", func(c *Config) { c.InputPath = "" }},
		{"zero rate", func(c *Config) { c.SampleRate = 0 }},
		{"stereo", func(c *Config) { c.Channels = 2 }},
		{"zero buffer", func(c *Config) { c.DeviceBufferSamples = 0 }},
		{"watch without output", func(c *Config) { c.Watch = true }},
		{"bad shape", func(c *Config) { c.Shape = "square" }},
		{"bad policy", func(c *Config) { c.SilencePolicy = "skip" }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
