package audio

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgnsrekt/announce/internal/proc"
	"github.com/dgnsrekt/announce/internal/tts"
)

// TranscodeOptions configure the ffmpeg conversion.
type TranscodeOptions struct {
	Binary     string // ffmpeg by default
	Channels   int
	SampleRate int
	Codec      string
	Bitrate    string
}

// DefaultTranscodeOptions returns the AirPlay friendly defaults.
func DefaultTranscodeOptions() TranscodeOptions {
	return TranscodeOptions{
		Binary:     "ffmpeg",
		Channels:   2, // stereo required for AirPlay
		SampleRate: 48000,
		Codec:      "libmp3lame",
		Bitrate:    "256k",
	}
}

// ErrConversionFailed wraps every ffmpeg failure.
var ErrConversionFailed = errors.New("conversion failed")

// Transcoder drives ffmpeg.
type Transcoder struct {
	opts   TranscodeOptions
	runner proc.Runner
}

// NewTranscoder creates a transcoder. Zero option fields take defaults.
func NewTranscoder(opts TranscodeOptions, runner proc.Runner) *Transcoder {
	def := DefaultTranscodeOptions()
	if opts.Binary == "" {
		opts.Binary = def.Binary
	}
	if opts.Channels <= 0 {
		opts.Channels = def.Channels
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = def.SampleRate
	}
	if opts.Codec == "" {
		opts.Codec = def.Codec
	}
	if opts.Bitrate == "" {
		opts.Bitrate = def.Bitrate
	}
	return &Transcoder{opts: opts, runner: runner}
}

// Args returns the ffmpeg arguments converting input (in the given TTS
// output format) to output.
func (t *Transcoder) Args(input, inputFormat, output string) []string {
	args := []string{"-y"}
	args = append(args, InputHints(inputFormat)...)
	return append(args,
		"-i", input,
		"-ac", strconv.Itoa(t.opts.Channels),
		"-ar", strconv.Itoa(t.opts.SampleRate),
		"-c:a", t.opts.Codec,
		"-b:a", t.opts.Bitrate,
		output,
	)
}

// Command returns the program and arguments for a conversion.
func (t *Transcoder) Command(input, inputFormat, output string) (string, []string) {
	return t.opts.Binary, t.Args(input, inputFormat, output)
}

// Transcode converts input to output.
func (t *Transcoder) Transcode(ctx context.Context, input, inputFormat, output string) error {
	name, args := t.Command(input, inputFormat, output)
	if _, err := t.runner.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	return nil
}

// InputHints returns the ffmpeg input options needed for headerless formats.
// Raw PCM from the TTS service is signed 16-bit little endian mono.
func InputHints(format string) []string {
	rate := tts.SampleRate(format)
	if rate <= 0 {
		return nil
	}
	var sampleFormat string
	switch tts.Codec(format) {
	case "pcm":
		sampleFormat = "s16le"
	case "ulaw":
		sampleFormat = "mulaw"
	case "alaw":
		sampleFormat = "alaw"
	default:
		return nil
	}
	return []string{"-f", sampleFormat, "-ar", strconv.Itoa(rate), "-ac", "1"}
}
