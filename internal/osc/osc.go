package osc

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MaxAmplitude is the peak sample value of every generated block.
const MaxAmplitude = math.MaxInt16

var (
	// ErrInvalidFrequency is returned for zero, negative or non-finite frequencies.
	ErrInvalidFrequency = errors.New("frequency must be positive")
	// ErrAboveNyquist is returned for frequencies above half the sample rate.
	ErrAboveNyquist = errors.New("frequency above nyquist")
	// ErrUnknownShape is returned by ParseShape for unsupported names.
	ErrUnknownShape = errors.New("unknown waveform shape")
)

// Shape names the waveform rendered for each cycle.
type Shape string

const (
	ShapeSine     Shape = "sine"
	ShapeSawtooth Shape = "sawtooth"
	ShapeTriangle Shape = "triangle"
)

// DefaultShape is used when no shape, or an unrecognised one, is requested.
const DefaultShape = ShapeTriangle

// Shapes lists the supported waveform shapes.
func Shapes() []Shape {
	return []Shape{ShapeSine, ShapeSawtooth, ShapeTriangle}
}

// ParseShape matches name case-insensitively against the supported shapes.
func ParseShape(name string) (Shape, error) {
	switch s := Shape(strings.ToLower(strings.TrimSpace(name))); s {
	case ShapeSine, ShapeSawtooth, ShapeTriangle:
		return s, nil
	default:
		return "", fmt.Errorf("%w %q (expected sine|sawtooth|triangle)", ErrUnknownShape, name)
	}
}

// Oscillator renders single cycles of a periodic waveform at a fixed sample rate.
type Oscillator struct {
	sampleRate int
}

// New returns an oscillator for sampleRate, which must be positive.
func New(sampleRate int) (*Oscillator, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	return &Oscillator{sampleRate: sampleRate}, nil
}

func (o *Oscillator) SampleRate() int { return o.sampleRate }

// BlockLen returns the number of samples in one cycle at freqHz.
func (o *Oscillator) BlockLen(freqHz float64) int {
	return int(math.Floor(float64(o.sampleRate) / freqHz))
}

// Generate returns one cycle of shape at freqHz, starting at phase 0.
// The block holds floor(sampleRate/freqHz) samples in [-32767, 32767].
func (o *Oscillator) Generate(freqHz float64, shape Shape) ([]int16, error) {
	if !(freqHz > 0) || math.IsInf(freqHz, 0) {
		return nil, fmt.Errorf("%w: %v Hz", ErrInvalidFrequency, freqHz)
	}
	if freqHz > float64(o.sampleRate)/2 {
		return nil, fmt.Errorf("%w: %v Hz at %d Hz sample rate", ErrAboveNyquist, freqHz, o.sampleRate)
	}
	n := o.BlockLen(freqHz)
	out := make([]int16, n)
	step := freqHz / float64(o.sampleRate)
	switch shape {
	case ShapeSine:
		for i := range out {
			out[i] = scale(math.Sin(twoPi * step * float64(i)))
		}
	case ShapeSawtooth:
		for i := range out {
			out[i] = scale(rampUp(phaseAt(step, i)))
		}
	case ShapeTriangle:
		// Rising ramp over the first half, falling ramp over the rest. Both
		// halves read the absolute phase of their sample index.
		half := n / 2
		for i := 0; i < half; i++ {
			out[i] = scale(rampUp(phaseAt(step, i)))
		}
		for i := half; i < n; i++ {
			out[i] = scale(rampDown(phaseAt(step, i)))
		}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownShape, string(shape))
	}
	return out, nil
}

const twoPi = math.Pi * 2

func phaseAt(step float64, i int) float64 {
	p := step * float64(i)
	return p - math.Floor(p)
}

// rampUp goes from -1 at phase 0 towards +1 at phase 1.
func rampUp(phase float64) float64 {
	return 2*phase - 1
}

// rampDown goes from +1 at phase 0 towards -1 at phase 1.
func rampDown(phase float64) float64 {
	return 1 - 2*phase
}

// scale maps a unit value to int16, truncating toward zero like an integer cast.
func scale(v float64) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(MaxAmplitude * v)
}
