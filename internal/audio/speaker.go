package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog/log"

	"github.com/rfievet/betterMind/internal/voice"
)

// Speaker renders agent audio through the default output device. It
// implements voice.Sink: one oto player per chunk, completion reported via
// callback once the player drains.
type Speaker struct {
	ctx   *oto.Context
	ready <-chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewSpeaker opens the output context. The context may not be ready for
// playback immediately; until then the speaker reports itself suspended and
// the playback queue holds its backlog.
func NewSpeaker() (*Speaker, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   voice.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("init output device: %w", err)
	}
	return &Speaker{ctx: ctx, ready: ready}, nil
}

// Suspended reports whether the output context is not yet ready to render.
func (s *Speaker) Suspended() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()
	select {
	case <-s.ready:
		return false
	default:
		return true
	}
}

// Resume waits briefly for the output context to become ready.
func (s *Speaker) Resume() error {
	select {
	case <-s.ready:
		return nil
	case <-time.After(2 * time.Second):
		return fmt.Errorf("output device not ready")
	}
}

// Play starts rendering one chunk. onDone fires from a background goroutine
// after the player drains; the returned stop halts rendering early without
// firing onDone.
func (s *Speaker) Play(pcm []float32, onDone func()) (func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("output device closed")
	}
	s.mu.Unlock()

	player := s.ctx.NewPlayer(bytes.NewReader(float32ToS16LE(pcm)))
	player.Play()

	var stopOnce sync.Once
	stopped := make(chan struct{})
	stop := func() {
		stopOnce.Do(func() {
			close(stopped)
			if err := player.Close(); err != nil {
				log.Debug().Err(err).Msg("audio: player close failed")
			}
		})
	}

	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for player.IsPlaying() {
			select {
			case <-stopped:
				return
			case <-ticker.C:
			}
		}
		select {
		case <-stopped:
			return
		default:
		}
		if err := player.Close(); err != nil {
			log.Debug().Err(err).Msg("audio: player close failed")
		}
		onDone()
	}()

	return stop, nil
}

// Close releases the output device. oto contexts cannot be torn down, so this
// suspends rendering and marks the speaker unusable.
func (s *Speaker) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.ctx.Suspend()
}
