package contour

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseError reports a malformed row in a pitch CSV.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads "<time seconds>,<pitch Hz>" rows without a header. Extra columns
// are ignored and rows are kept in file order.
func Load(r io.Reader) (*Timeline, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	cr.ReuseRecord = true

	var points []Point
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var line int
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.Line
			}
			return nil, &ParseError{Line: line, Err: err}
		}
		line, _ := cr.FieldPos(0)
		p, err := parseRow(rec)
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		points = append(points, p)
	}
	return New(points)
}

// LoadFile opens path and loads it with Load.
func LoadFile(path string) (*Timeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tl, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tl, nil
}

func parseRow(rec []string) (Point, error) {
	if len(rec) < 2 {
		return Point{}, fmt.Errorf("expected time,pitch but got %d field(s)", len(rec))
	}
	t, err := parseFloat(rec[0])
	if err != nil {
		return Point{}, fmt.Errorf("time: %w", err)
	}
	p, err := parseFloat(rec[1])
	if err != nil {
		return Point{}, fmt.Errorf("pitch: %w", err)
	}
	pt := Point{Time: t, Pitch: p}
	if err := pt.Validate(); err != nil {
		return Point{}, err
	}
	return pt, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
