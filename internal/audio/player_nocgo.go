//go:build !cgo

package audio

import "context"

// Player is unavailable without cgo
type Player struct{}

// NewPlayer reports ErrPlaybackUnavailable after validating config
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return nil, ErrPlaybackUnavailable
}

func (p *Player) PlayFile(ctx context.Context, path string, volume float64) error {
	return ErrPlaybackUnavailable
}

func (p *Player) Close() error {
	return nil
}
