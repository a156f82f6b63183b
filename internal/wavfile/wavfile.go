// Package wavfile reads and writes 16-bit mono PCM WAV files.
package wavfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/youpy/go-wav"
)

const (
	bitsPerSample = 16
	numChannels   = 1
)

var ErrUnsupportedFormat = errors.New("unsupported wav format")

// Encode writes samples as a mono 16-bit PCM WAV stream.
func Encode(w io.Writer, samples []int16, sampleRate int) error {
	if sampleRate <= 0 {
		return errors.New("sampleRate must be positive")
	}
	out := make([]wav.Sample, len(samples))
	for i, s := range samples {
		out[i].Values[0] = int(s)
	}
	ww := wav.NewWriter(w, uint32(len(samples)), numChannels, uint32(sampleRate), bitsPerSample)
	if err := ww.WriteSamples(out); err != nil {
		return fmt.Errorf("write samples: %w", err)
	}
	return nil
}

// WriteFile creates path and encodes samples into it.
func WriteFile(path string, samples []int16, sampleRate int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return Encode(f, samples, sampleRate)
}

// Source is what Decode needs to walk the RIFF chunks.
type Source interface {
	io.Reader
	io.ReaderAt
}

// Decode reads a 16-bit mono PCM stream and returns its samples and sample rate.
func Decode(r Source) ([]int16, int, error) {
	wr := wav.NewReader(r)
	format, err := wr.Format()
	if err != nil {
		return nil, 0, fmt.Errorf("read format: %w", err)
	}
	if format.AudioFormat != wav.AudioFormatPCM || format.BitsPerSample != bitsPerSample || format.NumChannels != numChannels {
		return nil, 0, fmt.Errorf("%w: format=%d bits=%d channels=%d",
			ErrUnsupportedFormat, format.AudioFormat, format.BitsPerSample, format.NumChannels)
	}
	var out []int16
	for {
		samples, err := wr.ReadSamples()
		for _, s := range samples {
			out = append(out, int16(wr.IntValue(s, 0)))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read samples: %w", err)
		}
		if len(samples) == 0 {
			break
		}
	}
	return out, int(format.SampleRate), nil
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return Decode(f)
}
