//go:build cgo

package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep"
)

// Player plays synthesized files through the system audio device.
// Only one Player may exist per process.
type Player struct {
	context *oto.Context
	config  PlayerConfig

	mu     sync.Mutex
	closed bool
}

// NewPlayer opens the audio device
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(config.BufferSize) * time.Second / time.Duration(config.SampleRate*config.Channels*2),
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	return &Player{context: ctx, config: config}, nil
}

// PlayFile decodes path and blocks until playback ends or ctx is cancelled.
// volume is 0.0 to 1.0.
func (p *Player) PlayFile(ctx context.Context, path string, volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("player is closed")
	}
	p.mu.Unlock()

	s, format, err := Decode(path)
	if err != nil {
		return err
	}
	defer s.Close()

	var stream beep.Streamer = s
	if rate := beep.SampleRate(p.config.SampleRate); format.SampleRate != rate {
		stream = beep.Resample(4, format.SampleRate, rate, s)
	}

	player := p.context.NewPlayer(newPCMReader(stream, p.config.Channels))
	defer player.Close()
	player.SetVolume(volume)
	player.Play()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return player.Err()
}

// Close releases the player. oto keeps its context until process exit.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
