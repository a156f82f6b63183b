package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/cbegin/pitchsing-go"
	"github.com/cbegin/pitchsing-go/internal/config"
	"github.com/cbegin/pitchsing-go/internal/observability"
	"github.com/cbegin/pitchsing-go/internal/watch"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	cfg, warnings, err := parseArgs(args, env, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		var uerr *usageError
		if errors.As(err, &uerr) && uerr.msg != usageLine {
			fmt.Fprintln(stderr, err)
		}
		fmt.Fprintln(stderr, usageLine)
		return 2
	}

	logger, _ := observability.WithRunID(observability.InitLogger(cfg.LogLevel, cfg.LogPretty))
	for _, w := range warnings {
		logger.Warn().Msg(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, logger: logger, metrics: observability.NewMetrics(), stderr: stderr}
	err = a.run(ctx)
	if cfg.MetricsTextfile != "" {
		if merr := a.metrics.WriteTextfile(cfg.MetricsTextfile); merr != nil {
			logger.Error().Err(merr).Str("path", cfg.MetricsTextfile).Msg("failed to write metrics")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("pitchsing failed")
		return 1
	}
	return 0
}

type app struct {
	cfg     config.Config
	logger  zerolog.Logger
	metrics *observability.Metrics
	stderr  io.Writer
	player  *pitchsing.Player
}

func (a *app) run(ctx context.Context) error {
	if a.cfg.DeviceMode() {
		a.logger.Info().Int("sample_rate", a.cfg.SampleRate).Int("buffer", a.cfg.DeviceBufferSamples).Msg("initialising audio device")
		pl, err := pitchsing.NewPlayer(a.cfg.SampleRate, pitchsing.WithBufferSamples(a.cfg.DeviceBufferSamples))
		if err != nil {
			return err
		}
		if err := pl.Init(); err != nil {
			return err
		}
		a.player = pl
	}

	renderer, err := pitchsing.NewRenderer(a.cfg,
		pitchsing.WithLogger(a.logger),
		pitchsing.WithMetrics(a.metrics),
		pitchsing.WithProgress(a.printProgress),
	)
	if err != nil {
		return err
	}
	if err := a.renderOnce(ctx, renderer); err != nil {
		return err
	}
	if !a.cfg.Watch {
		return nil
	}
	return a.watch(ctx, renderer)
}

func (a *app) renderOnce(ctx context.Context, renderer *pitchsing.Renderer) error {
	a.logger.Info().Str("input", a.cfg.InputPath).Str("shape", string(a.cfg.Shape)).Msg("importing data")
	tl, err := pitchsing.LoadTimeline(a.cfg.InputPath)
	if err != nil {
		return err
	}
	a.logger.Info().Int("points", tl.Len()).Float64("end_time", tl.EndTime()).Msg("generating audio")
	res, err := renderer.Render(tl)
	fmt.Fprintln(a.stderr)
	if err != nil {
		return err
	}
	if res.Stopped {
		a.logger.Warn().Float64("at", res.Duration()).Msg("unvoiced span reached, synthesis stopped early")
	}

	if !a.cfg.DeviceMode() {
		a.logger.Info().Str("output", a.cfg.OutputPath).Float64("seconds", res.Duration()).Msg("writing wav file")
		return renderer.WriteWAV(a.cfg.OutputPath, res)
	}
	if len(res.Samples) == 0 {
		a.logger.Warn().Msg("nothing to play")
		return nil
	}
	a.logger.Info().Float64("seconds", res.Duration()).Msg("playing audio")
	if err := a.player.Play(res.Samples); err != nil {
		return err
	}
	defer a.player.Stop()
	err = a.player.Wait(ctx, func(elapsed time.Duration) {
		fmt.Fprintf(a.stderr, "\r%.1f  ", elapsed.Seconds())
	})
	fmt.Fprintln(a.stderr)
	if err != nil {
		return err
	}
	a.metrics.PlaybackSeconds.Add(res.Duration())
	return nil
}

func (a *app) watch(ctx context.Context, renderer *pitchsing.Renderer) error {
	fw, err := watch.New(a.cfg.InputPath, watch.DefaultDebounce)
	if err != nil {
		return err
	}
	defer fw.Close()
	a.logger.Info().Str("input", a.cfg.InputPath).Msg("watching for changes")
	return fw.Run(ctx, func() {
		if err := a.renderOnce(ctx, renderer); err != nil {
			a.logger.Error().Err(err).Msg("re-render failed")
		}
	}, func(err error) {
		a.logger.Warn().Err(err).Msg("watcher error")
	})
}

func (a *app) printProgress(done, total float64) {
	pct := 100
	if total > 0 {
		pct = int(done / total * 100)
	}
	fmt.Fprintf(a.stderr, "\rGenerating audio... %d%% ", pct)
}
