package synth

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cbegin/pitchsing-go/internal/contour"
	"github.com/cbegin/pitchsing-go/internal/osc"
)

var (
	ErrNoProgress      = errors.New("synthesis made no progress")
	ErrTimelineTooLong = errors.New("timeline too long")
)

// DefaultMaxDuration bounds the buffer a single Synthesize call may build.
const DefaultMaxDuration = time.Hour

// preallocSeconds caps the up-front reservation; append grows past it.
const preallocSeconds = 60

// Generator produces one phase-aligned cycle per call.
type Generator interface {
	Generate(freqHz float64, shape osc.Shape) ([]int16, error)
	SampleRate() int
}

// SilencePolicy decides what happens when the cursor lands in an unvoiced span.
type SilencePolicy string

const (
	// SilenceRest writes zero samples up to the end of the unvoiced span.
	SilenceRest SilencePolicy = "rest"
	// SilenceStop ends synthesis at the first unvoiced span.
	SilenceStop SilencePolicy = "stop"
)

func ParseSilencePolicy(name string) (SilencePolicy, error) {
	switch p := SilencePolicy(name); p {
	case SilenceRest, SilenceStop:
		return p, nil
	default:
		return "", fmt.Errorf("invalid silence policy %q (expected rest|stop)", name)
	}
}

// ProgressFunc is called after every appended block with the synthesized
// time and the timeline end time, both in seconds.
type ProgressFunc func(done, total float64)

type Option func(*Driver)

func WithSilencePolicy(p SilencePolicy) Option {
	return func(d *Driver) {
		d.silence = p
	}
}

// WithMaxDuration sets the longest timeline Synthesize accepts. A value <= 0
// leaves only the hard cap of math.MaxInt32 samples.
func WithMaxDuration(d time.Duration) Option {
	return func(drv *Driver) {
		drv.maxDuration = d
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(d *Driver) {
		d.progress = fn
	}
}

// Driver walks a pitch timeline and concatenates oscillator blocks into one
// sample buffer.
type Driver struct {
	gen         Generator
	silence     SilencePolicy
	progress    ProgressFunc
	maxDuration time.Duration
}

func New(gen Generator, opts ...Option) *Driver {
	d := &Driver{gen: gen, silence: SilenceRest, maxDuration: DefaultMaxDuration}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Result is a completed synthesis. Samples is owned by the caller.
type Result struct {
	Samples       []int16
	SampleRate    int
	Blocks        int
	SilentSamples int
	Stopped       bool // synthesis ended early at an unvoiced span
}

// Duration returns the length of the buffer in seconds.
func (r *Result) Duration() float64 {
	if r.SampleRate == 0 {
		return 0
	}
	return float64(len(r.Samples)) / float64(r.SampleRate)
}

// Synthesize renders the timeline from time 0 until the cursor reaches the
// timeline's end time. The cursor is derived from the integer sample count, so
// the output is identical across runs.
func (d *Driver) Synthesize(tl *contour.Timeline, shape osc.Shape) (*Result, error) {
	rate := d.gen.SampleRate()
	if rate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	end := tl.EndTime()
	// Compared in float space so huge end times never reach an int conversion.
	total := math.Ceil(end * float64(rate))
	limit := float64(math.MaxInt32)
	if d.maxDuration > 0 {
		limit = math.Min(limit, math.Ceil(d.maxDuration.Seconds()*float64(rate)))
	}
	if math.IsNaN(total) || total > limit {
		return nil, fmt.Errorf("%w: end time %vs needs more than %.0f samples", ErrTimelineTooLong, end, limit)
	}
	res := &Result{
		SampleRate: rate,
		Samples:    make([]int16, 0, int(math.Min(total, float64(preallocSeconds*rate)))),
	}
	cursor := 0.0
	for cursor < end {
		n, err := d.step(tl, shape, cursor, res)
		if err != nil {
			return nil, err
		}
		if res.Stopped {
			break
		}
		if n <= 0 {
			return nil, fmt.Errorf("%w at %.6fs", ErrNoProgress, cursor)
		}
		cursor = float64(len(res.Samples)) / float64(rate)
		if d.progress != nil {
			d.progress(math.Min(cursor, end), end)
		}
	}
	return res, nil
}

// step appends one voiced block or one rest and returns the samples added.
func (d *Driver) step(tl *contour.Timeline, shape osc.Shape, cursor float64, res *Result) (int, error) {
	if pitch, ok := tl.FindActivePitch(cursor); ok {
		block, err := d.gen.Generate(pitch, shape)
		if err != nil {
			return 0, fmt.Errorf("at %.6fs: %w", cursor, err)
		}
		res.Samples = append(res.Samples, block...)
		res.Blocks++
		return len(block), nil
	}
	if d.silence == SilenceStop {
		res.Stopped = true
		return 0, nil
	}
	seg, ok := tl.SegmentAt(cursor)
	if !ok {
		return 0, nil
	}
	n := int(math.Ceil(seg.End*float64(res.SampleRate))) - len(res.Samples)
	if n < 1 {
		n = 1
	}
	res.Samples = append(res.Samples, make([]int16, n)...)
	res.SilentSamples += n
	return n, nil
}
