package main

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cbegin/pitchsing-go"
	"github.com/cbegin/pitchsing-go/internal/config"
	"github.com/cbegin/pitchsing-go/internal/osc"
	"github.com/cbegin/pitchsing-go/internal/synth"
)

func testEnv() *config.Env {
	return &config.Env{LogLevel: "info", LogPretty: true, DeviceBuffer: 4096, OnSilence: "rest"}
}

func TestParseArgsFileMode(t *testing.T) {
	cfg, warnings, err := parseArgs([]string{"--shape=sine", "in.csv", "out.wav"}, testEnv(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if cfg.Shape != osc.ShapeSine || cfg.InputPath != "in.csv" || cfg.OutputPath != "out.wav" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.DeviceMode() {
		t.Fatal("output path given, expected file mode")
	}
	if cfg.SampleRate != 22050 {
		t.Fatalf("sample rate = %d", cfg.SampleRate)
	}
}

func TestParseArgsDeviceModeDefaultShape(t *testing.T) {
	cfg, _, err := parseArgs([]string{"in.csv"}, testEnv(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !cfg.DeviceMode() {
		t.Fatal("expected device mode")
	}
	if cfg.Shape != osc.ShapeTriangle {
		t.Fatalf("shape = %q, want triangle", cfg.Shape)
	}
}

func TestParseArgsUnknownShapeFallsBack(t *testing.T) {
	cfg, warnings, err := parseArgs([]string{"--shape=square", "in.csv"}, testEnv(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unknown shape must not be fatal: %v", err)
	}
	if cfg.Shape != osc.ShapeTriangle {
		t.Fatalf("shape = %q, want triangle", cfg.Shape)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "square") {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestParseArgsUsageErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
	}{
		{"no input", nil},
		{"too many", []string{"a.csv", "b.wav", "c"}},
		{"bad policy", []string{"--on-silence=skip", "in.csv"}},
		{"watch without output", []string{"--watch", "in.csv"}},
		{"zero buffer", []string{"--buffer=0", "in.csv"}},
		{"bad log level", []string{"--log-level=loud", "in.csv"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := parseArgs(tc.args, testEnv(), &bytes.Buffer{})
			var uerr *usageError
			if !errors.As(err, &uerr) {
				t.Fatalf("err = %v, want usage error", err)
			}
		})
	}
}

func TestParseArgsUndefinedFlag(t *testing.T) {
	var stderr bytes.Buffer
	_, _, err := parseArgs([]string{"--loud", "in.csv"}, testEnv(), &stderr)
	if err == nil {
		t.Fatal("expected error for undefined flag")
	}
	if !strings.Contains(stderr.String(), usageLine) {
		t.Fatalf("usage not printed: %q", stderr.String())
	}
}

func TestParseArgsHelp(t *testing.T) {
	_, _, err := parseArgs([]string{"-h"}, testEnv(), &bytes.Buffer{})
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("err = %v, want flag.ErrHelp", err)
	}
}

func TestParseArgsOptions(t *testing.T) {
	cfg, _, err := parseArgs([]string{"--on-silence=stop", "--watch", "--metrics-textfile=m.prom", "--log-level=debug", "--buffer=1024", "in.csv", "out.wav"}, testEnv(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.SilencePolicy != synth.SilenceStop || !cfg.Watch || cfg.MetricsTextfile != "m.prom" || cfg.LogLevel != "debug" || cfg.DeviceBufferSamples != 1024 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestRunExitCodes(t *testing.T) {
	if code := run(nil, &bytes.Buffer{}); code != 2 {
		t.Fatalf("missing args exit = %d, want 2", code)
	}

	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.wav")
	metrics := filepath.Join(dir, "pitchsing.prom")
	if err := os.WriteFile(in, []byte("0,440\n0.25,0\n0.5,330\n1.0,330\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var stderr bytes.Buffer
	code := run([]string{"--shape=sawtooth", "--metrics-textfile=" + metrics, "--log-level=error", in, out}, &stderr)
	if code != 0 {
		t.Fatalf("exit = %d, stderr:\n%s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "Generating audio... 100%") {
		t.Errorf("progress missing from stderr: %q", stderr.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	samples, rate, err := pitchsing.DecodeWAVPCM16(data)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 22050 || len(samples) < 22050 {
		t.Fatalf("rate=%d len=%d", rate, len(samples))
	}
	prom, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("metrics not written: %v", err)
	}
	if !strings.Contains(string(prom), `pitchsing_blocks_generated_total{shape="sawtooth"}`) {
		t.Errorf("metrics missing block counter:\n%s", prom)
	}

	t.Setenv("PITCHSING_ON_SILENCE", "skip")
	if code := run([]string{in, out}, &stderr); code != 1 {
		t.Fatalf("invalid env exit = %d, want 1", code)
	}
	t.Setenv("PITCHSING_ON_SILENCE", "rest")

	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("zero,440\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if code := run([]string{bad, out}, &bytes.Buffer{}); code != 1 {
		t.Fatalf("parse failure exit = %d, want 1", code)
	}
}
