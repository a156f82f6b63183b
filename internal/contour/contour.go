package contour

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyTimeline = errors.New("pitch timeline is empty")
	ErrInvalidPoint  = errors.New("invalid pitch point")
)

// Point is a single pitch event. A pitch <= 0 marks an unvoiced (silent) span.
type Point struct {
	Time  float64 // seconds from the start of playback
	Pitch float64 // Hz
}

func (p Point) Voiced() bool { return p.Pitch > 0 }

// Validate rejects non-finite values and negative times.
func (p Point) Validate() error {
	switch {
	case math.IsNaN(p.Time) || math.IsInf(p.Time, 0):
		return fmt.Errorf("%w: non-finite time %v", ErrInvalidPoint, p.Time)
	case p.Time < 0:
		return fmt.Errorf("%w: time must not be negative: %v", ErrInvalidPoint, p.Time)
	case math.IsNaN(p.Pitch) || math.IsInf(p.Pitch, 0):
		return fmt.Errorf("%w: non-finite pitch %v", ErrInvalidPoint, p.Pitch)
	}
	return nil
}

// Timeline is a pitch contour kept in load order. Point i-1 is active over
// [points[i-1].Time, points[i].Time).
type Timeline struct {
	points  []Point
	endTime float64
}

// New copies points into a Timeline. The order is preserved as given; every
// point must pass Validate.
func New(points []Point) (*Timeline, error) {
	if len(points) == 0 {
		return nil, ErrEmptyTimeline
	}
	t := &Timeline{points: make([]Point, len(points))}
	copy(t.points, points)
	for i, p := range t.points {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		if p.Time > t.endTime {
			t.endTime = p.Time
		}
	}
	return t, nil
}

func (t *Timeline) Len() int { return len(t.points) }

// Point returns the i-th point in load order.
func (t *Timeline) Point(i int) Point { return t.points[i] }

// Points returns a copy of the timeline's points.
func (t *Timeline) Points() []Point {
	out := make([]Point, len(t.points))
	copy(out, t.points)
	return out
}

// EndTime is the largest time of any point; synthesis stops there.
func (t *Timeline) EndTime() float64 { return t.endTime }

// Segment is the span during which one point's pitch is active.
type Segment struct {
	Start float64
	End   float64
	Pitch float64
}

func (s Segment) Voiced() bool { return s.Pitch > 0 }

// SegmentAt finds the first point after the leading one whose time is strictly
// greater than at, and returns the span opened by the point before it. ok is
// false when no point lies beyond at.
func (t *Timeline) SegmentAt(at float64) (seg Segment, ok bool) {
	for i := 1; i < len(t.points); i++ {
		if at < t.points[i].Time {
			prev := t.points[i-1]
			return Segment{Start: prev.Time, End: t.points[i].Time, Pitch: prev.Pitch}, true
		}
	}
	return Segment{}, false
}

// FindActivePitch returns the voiced pitch active at the given time. It does not
// look past an unvoiced span for another candidate.
func (t *Timeline) FindActivePitch(at float64) (float64, bool) {
	seg, ok := t.SegmentAt(at)
	if !ok || !seg.Voiced() {
		return 0, false
	}
	return seg.Pitch, true
}
