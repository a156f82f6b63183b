package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/cbegin/pitchsing-go/internal/config"
	"github.com/cbegin/pitchsing-go/internal/osc"
	"github.com/cbegin/pitchsing-go/internal/synth"
)

const usageLine = "Usage: pitchsing [--shape=triangle] input.csv [output.wav]"

// usageError means the command line itself was wrong.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// parseArgs builds the run Config from flags layered over env defaults. The
// returned warnings describe settings that were replaced by defaults.
func parseArgs(args []string, env *config.Env, stderr io.Writer) (config.Config, []string, error) {
	cfg := config.Default(env)

	fs := flag.NewFlagSet("pitchsing", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usageLine)
		fs.PrintDefaults()
	}
	var (
		shape    = fs.String("shape", string(osc.DefaultShape), "waveform shape: sine|sawtooth|triangle")
		silence  = fs.String("on-silence", string(cfg.SilencePolicy), "unvoiced spans: rest (emit silence) or stop (end synthesis)")
		watch    = fs.Bool("watch", false, "re-render the output file whenever the input changes")
		metrics  = fs.String("metrics-textfile", cfg.MetricsTextfile, "write prometheus metrics to this file on exit")
		logLevel = fs.String("log-level", cfg.LogLevel, "log level: debug|info|warn|error|fatal")
		buffer   = fs.Int("buffer", cfg.DeviceBufferSamples, "audio device buffer size in frames")
	)
	if err := fs.Parse(args); err != nil {
		return cfg, nil, err
	}

	var warnings []string
	if s, err := osc.ParseShape(*shape); err == nil {
		cfg.Shape = s
	} else {
		cfg.Shape = osc.DefaultShape
		warnings = append(warnings, fmt.Sprintf("unrecognised wave shape %q, using %s instead", *shape, osc.DefaultShape))
	}
	policy, err := synth.ParseSilencePolicy(*silence)
	if err != nil {
		return cfg, warnings, &usageError{msg: err.Error()}
	}
	cfg.SilencePolicy = policy
	cfg.Watch = *watch
	cfg.MetricsTextfile = *metrics
	cfg.LogLevel = *logLevel
	cfg.DeviceBufferSamples = *buffer

	rest := fs.Args()
	if len(rest) < 1 || len(rest) > 2 {
		return cfg, warnings, &usageError{msg: usageLine}
	}
	cfg.InputPath = rest[0]
	if len(rest) > 1 {
		cfg.OutputPath = rest[1]
	}
	if err := cfg.Validate(); err != nil {
		return cfg, warnings, &usageError{msg: err.Error()}
	}
	return cfg, warnings, nil
}
