package pitchsing

import (
	"context"
	"errors"
	"sync"
	"time"

	intaudio "github.com/cbegin/pitchsing-go/internal/audio"
	"github.com/cbegin/pitchsing-go/internal/config"
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	bufferSamples int
	tickInterval  time.Duration
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{bufferSamples: config.DefaultDeviceBuffer, tickInterval: 100 * time.Millisecond}
}

// WithBufferSamples sets the device buffer size in frames.
func WithBufferSamples(n int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.bufferSamples = n
	}
}

// WithTickInterval sets how often Wait reports the elapsed position.
func WithTickInterval(d time.Duration) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.tickInterval = d
	}
}

// Player plays rendered buffers on the default output device, one at a time.
type Player struct {
	mu            sync.Mutex
	sampleRate    int
	bufferSamples int
	tickInterval  time.Duration
	audio         *intaudio.Player
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Player{
		sampleRate:    sampleRate,
		bufferSamples: cfg.bufferSamples,
		tickInterval:  cfg.tickInterval,
	}, nil
}

// Init opens the audio device. Play does this on demand; calling Init first
// surfaces device failures before any synthesis work.
func (p *Player) Init() error {
	return intaudio.Init(p.sampleRate)
}

// Play starts playback of samples, replacing anything already playing.
func (p *Player) Play(samples []int16) error {
	if len(samples) == 0 {
		return intaudio.ErrEmptyBuffer
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	backend, err := intaudio.NewPlayer(p.sampleRate, samples, p.bufferSamples)
	if err != nil {
		return err
	}
	if p.audio != nil {
		_ = p.audio.Stop()
	}
	p.audio = backend
	p.audio.Play()
	return nil
}

// Wait blocks until the current buffer has finished playing or ctx is done.
// tick receives the elapsed position periodically. Wait returns immediately
// if nothing is playing.
func (p *Player) Wait(ctx context.Context, tick func(elapsed time.Duration)) error {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return nil
	}
	return a.Wait(ctx, p.tickInterval, tick)
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	return err
}

// PlaybackPosition returns what the listener hears right now, or 0 if idle.
func (p *Player) PlaybackPosition() time.Duration {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	return a.Position()
}

// Duration returns the length of the current buffer, or 0 if idle.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return 0
	}
	return p.audio.Duration()
}
