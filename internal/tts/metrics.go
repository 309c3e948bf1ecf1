package tts

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// Metrics tracks a single synthesis for logging.
type Metrics struct {
	Engine     string
	TextLength int
	Start      time.Time
	Duration   time.Duration
	AudioBytes int
	CacheHit   bool
	Err        error
}

// StartSynthesis starts tracking a synthesis.
func StartSynthesis(engine, text string) *Metrics {
	m := &Metrics{
		Engine:     engine,
		TextLength: len([]rune(text)),
		Start:      time.Now(),
	}
	log.Debug("Synthesis started", "engine", engine, "textLength", m.TextLength)
	return m
}

// End records the outcome and logs it.
func (m *Metrics) End(audioBytes int, cacheHit bool, err error) {
	m.Duration = time.Since(m.Start)
	m.AudioBytes = audioBytes
	m.CacheHit = cacheHit
	m.Err = err

	if err != nil {
		log.Debug("Synthesis failed",
			"engine", m.Engine,
			"duration", m.Duration,
			"error", err)
		return
	}
	log.Debug("Synthesis completed",
		"engine", m.Engine,
		"textLength", m.TextLength,
		"audio", humanize.Bytes(uint64(audioBytes)), //nolint:gosec
		"duration", m.Duration.Round(time.Millisecond),
		"cacheHit", cacheHit,
		"throughput", m.Throughput())
}

// Throughput returns audio bytes produced per second of synthesis.
func (m *Metrics) Throughput() string {
	if m.Duration <= 0 {
		return "N/A"
	}
	bps := float64(m.AudioBytes) / m.Duration.Seconds()
	return fmt.Sprintf("%s/s", humanize.Bytes(uint64(bps)))
}
