package audio

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgnsrekt/announce/internal/proc"
)

// DefaultPlayer is the macOS command line audio player.
const DefaultPlayer = "afplay"

// ErrPlaybackFailed wraps every player failure.
var ErrPlaybackFailed = errors.New("playback failed")

// Player plays audio files through the system output.
type Player struct {
	binary string
	runner proc.Runner
}

// NewPlayer creates a player. An empty binary selects afplay.
func NewPlayer(binary string, runner proc.Runner) *Player {
	if binary == "" {
		binary = DefaultPlayer
	}
	return &Player{binary: binary, runner: runner}
}

// Command returns the program and arguments that play path.
func (p *Player) Command(path string) (string, []string) {
	return p.binary, []string{path}
}

// Play blocks until the file has finished playing.
func (p *Player) Play(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %w", ErrPlaybackFailed, err)
	}
	name, args := p.Command(path)
	if _, err := p.runner.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrPlaybackFailed, err)
	}
	return nil
}
