package tts

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/announce/internal/cache"
)

// Store is the subset of the disk cache the wrapper needs.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// CachedSynthesizer serves repeated requests from a Store.
type CachedSynthesizer struct {
	next  Synthesizer
	store Store
}

// NewCachedSynthesizer wraps next with store. A nil store disables caching.
func NewCachedSynthesizer(next Synthesizer, store Store) *CachedSynthesizer {
	return &CachedSynthesizer{next: next, store: store}
}

// Name returns the wrapped engine's name.
func (c *CachedSynthesizer) Name() string {
	return c.next.Name()
}

// Synthesize returns cached audio when available, otherwise asks the wrapped
// engine and stores the result. Failures are never cached and a failed cache
// write does not fail the synthesis.
func (c *CachedSynthesizer) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	if req.Text == "" {
		return nil, ErrEmptyText
	}
	if c.store == nil {
		return c.next.Synthesize(ctx, req)
	}

	key := RequestKey(req)
	m := StartSynthesis(c.Name(), req.Text)

	if data, ok := c.store.Get(key); ok {
		m.End(len(data), true, nil)
		return &Audio{Data: data, Format: req.Format, Cached: true}, nil
	}

	audio, err := c.next.Synthesize(ctx, req)
	if err != nil {
		m.End(0, false, err)
		return nil, err
	}
	m.End(len(audio.Data), false, nil)

	if err := c.store.Put(key, audio.Data); err != nil {
		log.Warn("Could not cache synthesized audio", "error", err)
	}
	return audio, nil
}

// Describe describes the wrapped engine's request, noting the cache.
func (c *CachedSynthesizer) Describe(req Request) string {
	if c.store == nil {
		return Describe(c.next, req)
	}
	return Describe(c.next, req) + " (unless cached)"
}

// RequestKey is the cache key for a request.
func RequestKey(req Request) string {
	return cache.Key(req.Text, req.VoiceID, req.Format, req.Model)
}
