package tts

import (
	"context"
	"strconv"
	"strings"
)

// Request describes one synthesis.
type Request struct {
	Text    string
	VoiceID string
	// Format is an ElevenLabs output format such as "opus_48000_192" or
	// "pcm_24000": codec, sample rate and optional bitrate.
	Format string
	Model  string
}

// Audio is synthesized speech in the requested format.
type Audio struct {
	Data   []byte
	Format string

	// Cached is set when the audio came from the cache.
	Cached bool
}

// Ext returns the file extension for the audio, derived from its codec.
func (a *Audio) Ext() string {
	return Codec(a.Format)
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Name identifies the engine in logs.
	Name() string

	// Synthesize produces audio for req.
	Synthesize(ctx context.Context, req Request) (*Audio, error)
}

// Describer is implemented by synthesizers that can show what a request
// would invoke without running it.
type Describer interface {
	Describe(req Request) string
}

// Describe returns the description s gives for req, or its name.
func Describe(s Synthesizer, req Request) string {
	if d, ok := s.(Describer); ok {
		return d.Describe(req)
	}
	return s.Name()
}

// Codec returns the codec part of an output format ("opus" for
// "opus_48000_192").
func Codec(format string) string {
	codec, _, _ := strings.Cut(format, "_")
	return codec
}

// SampleRate returns the sample rate encoded in an output format, or 0 when
// the format carries none.
func SampleRate(format string) int {
	parts := strings.Split(format, "_")
	if len(parts) < 2 {
		return 0
	}
	rate, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return rate
}

// IsRaw reports whether the format is headerless sample data that needs
// explicit input hints to be decoded.
func IsRaw(format string) bool {
	switch Codec(format) {
	case "pcm", "ulaw", "alaw":
		return true
	}
	return false
}
