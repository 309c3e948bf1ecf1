// Package announce runs the announcement pipeline: synthesize speech,
// convert it for AirPlay, route Airfoil to the chosen speakers, play the
// chime and the announcement, then disconnect.
package announce

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/announce/internal/airfoil"
	"github.com/dgnsrekt/announce/internal/audio"
	"github.com/dgnsrekt/announce/internal/config"
	"github.com/dgnsrekt/announce/internal/progress"
	"github.com/dgnsrekt/announce/internal/proc"
	"github.com/dgnsrekt/announce/internal/tts"
	"github.com/google/uuid"
)

// ErrNoSpeakers is returned when neither the flags nor the config name a
// speaker.
var ErrNoSpeakers = errors.New(`no speakers configured: pass --speakers or set "speakers" in the config file`)

// Options describe one announcement.
type Options struct {
	Text string

	// Speakers overrides the configured speaker list.
	Speakers []string

	// Match resolves speaker names against Airfoil's list with fuzzy
	// matching.
	Match bool

	KeepConnected bool
	NoChime       bool
}

// Result summarises a finished announcement.
type Result struct {
	RunID    string
	Speakers []string
	Wait     *airfoil.WaitResult
	Cached   bool
	Elapsed  time.Duration
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Announcer wires the pipeline stages together.
type Announcer struct {
	cfg        *config.Config
	synth      tts.Synthesizer
	transcoder *audio.Transcoder
	player     *audio.Player
	airfoil    *airfoil.Client
	reporter   progress.Reporter
	sleep      SleepFunc
	tempDir    string
}

// Option configures an Announcer.
type Option func(*Announcer)

// WithReporter sets where progress goes.
func WithReporter(r progress.Reporter) Option {
	return func(a *Announcer) {
		if r != nil {
			a.reporter = r
		}
	}
}

// WithSleep replaces the pause used for the chime gap and the disconnect
// delay.
func WithSleep(fn SleepFunc) Option {
	return func(a *Announcer) {
		if fn != nil {
			a.sleep = fn
		}
	}
}

// WithTempDir sets the parent of each run's working directory.
func WithTempDir(dir string) Option {
	return func(a *Announcer) {
		a.tempDir = dir
	}
}

// New creates an Announcer. Every external program is started through
// runner.
func New(cfg *config.Config, synth tts.Synthesizer, runner proc.Runner, opts ...Option) *Announcer {
	a := &Announcer{
		cfg:   cfg,
		synth: synth,
		transcoder: audio.NewTranscoder(audio.TranscodeOptions{
			Channels:   cfg.Audio.Channels,
			SampleRate: cfg.Audio.SampleRate,
			Codec:      cfg.Audio.Codec,
			Bitrate:    cfg.Audio.Bitrate,
		}, runner),
		player:   audio.NewPlayer("", runner),
		airfoil:  airfoil.NewClient(runner, cfg.Airfoil.Source),
		reporter: progress.NewLogReporter(os.Stderr),
		sleep:    Sleep,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Airfoil returns the client used to drive Airfoil.
func (a *Announcer) Airfoil() *airfoil.Client {
	return a.airfoil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (a *Announcer) request(text string) tts.Request {
	return tts.Request{
		Text:    text,
		VoiceID: a.cfg.ElevenLabs.VoiceID,
		Format:  a.cfg.ElevenLabs.Format,
		Model:   a.cfg.ElevenLabs.Model,
	}
}

// Say speaks opts.Text on the target speakers. Failures to synthesize,
// convert, configure Airfoil or play the announcement abort the run. Once
// Airfoil has been configured the speakers are disconnected again on every
// exit path unless opts.KeepConnected is set. Speakers that fail to connect
// in time are reported but do not fail the run.
func (a *Announcer) Say(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := log.With("run", runID[:8])

	text := strings.TrimSpace(opts.Text)
	if text == "" {
		return nil, tts.ErrEmptyText
	}

	speakers, err := a.ResolveSpeakers(ctx, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("Starting announcement", "speakers", len(speakers), "chars", len(text))

	dir, err := os.MkdirTemp(a.tempDir, "announce-")
	if err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	a.reporter.Step("Generating TTS...")
	speech, err := a.synth.Synthesize(ctx, a.request(text))
	if err != nil {
		return nil, fmt.Errorf("TTS failed: %w", err)
	}
	raw := filepath.Join(dir, "tts."+speech.Ext())
	if err := os.WriteFile(raw, speech.Data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write audio: %w", err)
	}
	logger.Debug("Speech ready", "bytes", len(speech.Data), "cached", speech.Cached)

	a.reporter.Step("Converting to stereo MP3...")
	mp3 := filepath.Join(dir, "tts.mp3")
	if err := a.transcoder.Transcode(ctx, raw, speech.Format, mp3); err != nil {
		return nil, err
	}

	a.reporter.Step(fmt.Sprintf("Setting up Airfoil (%d speakers)...", len(speakers)))
	if err := a.airfoil.Setup(ctx, speakers, a.cfg.Airfoil.Volume); err != nil {
		return nil, err
	}

	wait, err := a.play(ctx, speakers, mp3, opts)

	if !opts.KeepConnected {
		if err == nil {
			// Receivers are still draining their buffers
			if sleepErr := a.sleep(ctx, a.cfg.Airfoil.DisconnectDelay); sleepErr != nil {
				err = sleepErr
			}
		}
		a.disconnect(ctx, logger)
	}
	if err != nil {
		return nil, err
	}

	a.reporter.Done()
	res := &Result{
		RunID:    runID,
		Speakers: speakers,
		Wait:     wait,
		Cached:   speech.Cached,
		Elapsed:  time.Since(start),
	}
	logger.Debug("Announcement finished", "elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// play waits for the speakers, then plays the chime and the announcement.
func (a *Announcer) play(ctx context.Context, speakers []string, mp3 string, opts Options) (*airfoil.WaitResult, error) {
	a.reporter.Step("Waiting for connections...")
	wait, err := a.airfoil.Wait(ctx, speakers, airfoil.WaitOptions{
		Timeout:    a.cfg.Airfoil.ConnectTimeout,
		Interval:   a.cfg.Airfoil.PollInterval,
		OnProgress: a.reporter.Connections,
	})
	if err != nil {
		return nil, err
	}
	if !wait.AllConnected {
		a.reporter.Warn(fmt.Sprintf("Only %d/%d speakers connected after %s",
			len(wait.Connected), len(speakers), a.cfg.Airfoil.ConnectTimeout))
		if len(wait.Connected) > 0 {
			a.reporter.Detail("✓ Connected: " + strings.Join(wait.Connected, ", "))
		}
		a.reporter.Detail("✗ Failed: " + strings.Join(wait.Failed, ", "))
	}

	if !opts.NoChime {
		if err := a.chime(ctx); err != nil {
			return wait, err
		}
	}

	a.reporter.Step("Playing announcement...")
	if err := a.player.Play(ctx, mp3); err != nil {
		return wait, err
	}
	return wait, nil
}

// chime plays the configured chime followed by the gap. A missing or
// unplayable chime only warns.
func (a *Announcer) chime(ctx context.Context) error {
	path := a.cfg.ChimePath()
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		log.Debug("Skipping chime", "path", path, "error", err)
		return nil
	}

	a.reporter.Step("Playing gong...")
	if err := a.player.Play(ctx, path); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.reporter.Warn(fmt.Sprintf("Could not play chime: %v", err))
		return nil
	}
	return a.sleep(ctx, a.cfg.Audio.ChimeGap)
}

// disconnect ignores cancellation of ctx.
func (a *Announcer) disconnect(ctx context.Context, logger *log.Logger) {
	if err := a.airfoil.DisconnectAll(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("Could not disconnect speakers", "error", err)
	}
}
