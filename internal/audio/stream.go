package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

var ErrEmptyBuffer = errors.New("nothing to play")

// PCMReader serves a mono int16 buffer as the 16-bit little-endian stereo
// stream ebiten expects, duplicating each sample to both channels.
type PCMReader struct {
	mu      sync.Mutex
	samples []int16
	pos     int
}

func NewPCMReader(samples []int16) *PCMReader {
	return &PCMReader{samples: samples}
}

func (r *PCMReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pos >= len(r.samples) {
		return 0, io.EOF
	}
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	if rem := len(r.samples) - r.pos; frames > rem {
		frames = rem
	}
	for i := 0; i < frames; i++ {
		u := uint16(r.samples[r.pos+i])
		binary.LittleEndian.PutUint16(p[i*4:], u)
		binary.LittleEndian.PutUint16(p[i*4+2:], u)
	}
	r.pos += frames
	n := frames * 4
	if r.pos >= len(r.samples) {
		return n, io.EOF
	}
	return n, nil
}

// Remaining returns how many mono samples have not been read yet.
func (r *PCMReader) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples) - r.pos
}

func (r *PCMReader) Close() error { return nil }

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioContextErr  error
	audioSampleRate  int
)

// Init creates the process-wide audio context. Calling it again with the same
// rate is a no-op; a different rate is an error.
func Init(sampleRate int) error {
	_, err := sharedAudioContext(sampleRate)
	return err
}

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				audioContextErr = fmt.Errorf("init audio device: %v", r)
			}
		}()
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioContextErr != nil {
		return nil, audioContextErr
	}
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// Player plays one fully rendered buffer on the default output device.
type Player struct {
	player   *ebitaudio.Player
	reader   *PCMReader
	duration time.Duration
}

// NewPlayer prepares samples for playback. bufferSamples sets the device
// buffer size in frames; zero keeps the driver default.
func NewPlayer(sampleRate int, samples []int16, bufferSamples int) (*Player, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyBuffer
	}
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewPCMReader(samples)
	pl, err := ctx.NewPlayer(reader)
	if err != nil {
		return nil, err
	}
	if bufferSamples > 0 {
		pl.SetBufferSize(time.Duration(bufferSamples) * time.Second / time.Duration(sampleRate))
	}
	return &Player{
		player:   pl,
		reader:   reader,
		duration: time.Duration(len(samples)) * time.Second / time.Duration(sampleRate),
	}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

// Duration is the length of the whole buffer.
func (p *Player) Duration() time.Duration { return p.duration }

// Position returns the current playback position (what the listener actually hears).
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

// Wait blocks until the buffer has played out or ctx is done. tick, if not
// nil, receives the elapsed position every interval.
func (p *Player) Wait(ctx context.Context, interval time.Duration, tick func(time.Duration)) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		pos := p.Position()
		if tick != nil {
			tick(pos)
		}
		if pos >= p.duration || (!p.IsPlaying() && p.reader.Remaining() == 0) {
			return nil
		}
	}
}

func (p *Player) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
