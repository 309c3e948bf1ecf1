package main

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/announce/internal/cache"
	"github.com/dgnsrekt/announce/internal/config"
	"github.com/dgnsrekt/announce/internal/proc"
	"github.com/dgnsrekt/announce/internal/tts"
	"github.com/dgnsrekt/announce/internal/tts/engines"
	gap "github.com/muesli/go-app-paths"
)

// newSynthesizer builds the configured engine: the external script when one
// is set, the ElevenLabs API otherwise. When caching is enabled the engine
// is wrapped with the disk cache; the returned func closes it.
func newSynthesizer(cfg *config.Config, runner proc.Runner) (tts.Synthesizer, func() error, error) {
	noop := func() error { return nil }

	var (
		engine tts.Synthesizer
		err    error
	)
	if script := cfg.ScriptPath(); script != "" {
		engine, err = engines.NewScriptEngine(engines.ScriptConfig{Script: script}, runner)
	} else {
		engine, err = engines.NewElevenLabsEngine(env.APIKey,
			engines.WithBaseURL(env.BaseURL),
			engines.WithTimeout(cfg.ElevenLabs.Timeout),
			engines.WithRequestsPerMinute(cfg.ElevenLabs.RequestsPerMinute),
		)
	}
	if err != nil {
		return nil, noop, fmt.Errorf("unable to create TTS engine: %w", err)
	}
	log.Debug("Using TTS engine", "engine", engine.Name())

	if !cfg.Cache.Enabled {
		return engine, noop, nil
	}
	store, err := openCache(cfg)
	if err != nil {
		log.Warn("Audio cache unavailable, continuing without it", "error", err)
		return engine, noop, nil
	}
	return tts.NewCachedSynthesizer(engine, store), store.Close, nil
}

// openCache opens the audio cache at its configured or default location.
func openCache(cfg *config.Config) (*cache.DiskCache, error) {
	dir := cfg.CachePath()
	if dir == "" {
		base, err := gap.NewScope(gap.User, "announce").CacheDir()
		if err != nil {
			return nil, fmt.Errorf("unable to locate cache directory: %w", err)
		}
		dir = filepath.Join(base, "audio")
	}

	capacity, err := cfg.CacheMaxBytes()
	if err != nil {
		return nil, err
	}
	return cache.NewDiskCache(dir, capacity, cfg.Cache.CompressionLevel)
}
