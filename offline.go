package pitchsing

import (
	"bytes"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/cbegin/pitchsing-go/internal/config"
	intcontour "github.com/cbegin/pitchsing-go/internal/contour"
	intobs "github.com/cbegin/pitchsing-go/internal/observability"
	intosc "github.com/cbegin/pitchsing-go/internal/osc"
	intsynth "github.com/cbegin/pitchsing-go/internal/synth"
	intwav "github.com/cbegin/pitchsing-go/internal/wavfile"
)

type Shape = intosc.Shape

const (
	ShapeSine     = intosc.ShapeSine
	ShapeSawtooth = intosc.ShapeSawtooth
	ShapeTriangle = intosc.ShapeTriangle
)

type PitchPoint = intcontour.Point

var (
	// ErrInvalidPoint is returned for negative or non-finite point values.
	ErrInvalidPoint = intcontour.ErrInvalidPoint
	// ErrTimelineTooLong is returned when a timeline would exceed the sample limit.
	ErrTimelineTooLong = intsynth.ErrTimelineTooLong
)

type Timeline = intcontour.Timeline

// Rendering is a fully synthesized sample buffer.
type Rendering = intsynth.Result

// NewTimeline builds a timeline from points kept in the given order.
func NewTimeline(points []PitchPoint) (*Timeline, error) {
	return intcontour.New(points)
}

// LoadTimeline reads a "<time>,<pitch>" CSV file.
func LoadTimeline(path string) (*Timeline, error) {
	return intcontour.LoadFile(path)
}

type RendererOption func(*Renderer)

func WithLogger(logger zerolog.Logger) RendererOption {
	return func(r *Renderer) {
		r.logger = logger
	}
}

func WithMetrics(m *intobs.Metrics) RendererOption {
	return func(r *Renderer) {
		r.metrics = m
	}
}

// WithProgress installs a callback receiving synthesized and total seconds.
func WithProgress(fn func(done, total float64)) RendererOption {
	return func(r *Renderer) {
		r.progress = fn
	}
}

// Renderer turns timelines into sample buffers and WAV files for one Config.
type Renderer struct {
	cfg      config.Config
	osc      *intosc.Oscillator
	logger   zerolog.Logger
	metrics  *intobs.Metrics
	progress func(done, total float64)
}

func NewRenderer(cfg config.Config, opts ...RendererOption) (*Renderer, error) {
	o, err := intosc.New(cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	r := &Renderer{cfg: cfg, osc: o, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Renderer) Config() config.Config { return r.cfg }

// Render synthesizes tl with the configured shape and silence policy.
func (r *Renderer) Render(tl *Timeline) (*Rendering, error) {
	if tl == nil {
		return nil, errors.New("nil timeline")
	}
	driver := intsynth.New(r.osc,
		intsynth.WithSilencePolicy(r.cfg.SilencePolicy),
		intsynth.WithProgress(r.progress),
	)
	start := time.Now()
	res, err := driver.Synthesize(tl, r.cfg.Shape)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	if r.metrics != nil {
		r.metrics.ObserveRender(string(r.cfg.Shape), res.Blocks, len(res.Samples), res.SilentSamples, elapsed)
	}
	ev := r.logger.Debug().
		Int("blocks", res.Blocks).
		Int("samples", len(res.Samples)).
		Int("silent_samples", res.SilentSamples).
		Dur("elapsed", elapsed)
	if res.Stopped {
		ev = ev.Bool("stopped_at_silence", true)
	}
	ev.Msg("synthesis finished")
	return res, nil
}

// RenderFile loads the CSV at path and renders it.
func (r *Renderer) RenderFile(path string) (*Rendering, error) {
	tl, err := intcontour.LoadFile(path)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Int("points", tl.Len()).Float64("end_time", tl.EndTime()).Msg("timeline loaded")
	return r.Render(tl)
}

// WriteWAV writes res to path as 16-bit mono PCM.
func (r *Renderer) WriteWAV(path string, res *Rendering) error {
	if err := intwav.WriteFile(path, res.Samples, res.SampleRate); err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.WavFilesWritten.Inc()
	}
	return nil
}

// RenderSamples synthesizes tl at the standard 22050 Hz rate using shape,
// resting through unvoiced spans.
func RenderSamples(tl *Timeline, shape Shape) ([]int16, error) {
	cfg := config.Default(nil)
	cfg.Shape = shape
	r, err := NewRenderer(cfg)
	if err != nil {
		return nil, err
	}
	res, err := r.Render(tl)
	if err != nil {
		return nil, err
	}
	return res.Samples, nil
}

// EncodeWAVPCM16 returns samples as a complete mono 16-bit PCM WAV file.
func EncodeWAVPCM16(samples []int16, sampleRate int) ([]byte, error) {
	var buf bytes.Buffer
	if err := intwav.Encode(&buf, samples, sampleRate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeWAVPCM16 is the inverse of EncodeWAVPCM16.
func DecodeWAVPCM16(data []byte) ([]int16, int, error) {
	return intwav.Decode(bytes.NewReader(data))
}
