package tts

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyText is returned when attempting to synthesize empty text.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrMissingAPIKey is returned when the HTTP engine has no credentials.
	ErrMissingAPIKey = errors.New("ElevenLabs API key is required (set ELEVENLABS_API_KEY)")

	// ErrRateLimited is returned when the service rejects a request for
	// exceeding its rate limit.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidVoice is returned when the voice ID is unknown to the service.
	ErrInvalidVoice = errors.New("invalid or unknown voice")

	// ErrUnauthorized is returned for a rejected API key.
	ErrUnauthorized = errors.New("invalid API key")

	// ErrNoAudio is returned when an engine finished without producing audio.
	ErrNoAudio = errors.New("engine produced no audio")
)

// SynthesisError describes a failed synthesis request.
type SynthesisError struct {
	// Engine that returned the error.
	Engine string

	// StatusCode is the HTTP status, or 0 for non-HTTP engines.
	StatusCode int

	// Message from the service or the failing process.
	Message string

	// Cause is the underlying error, if any.
	Cause error

	// Retryable is set for transient failures (429 and 5xx).
	Retryable bool
}

func (e *SynthesisError) Error() string {
	msg := e.Engine
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *SynthesisError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether err is a transient synthesis failure.
func IsRetryable(err error) bool {
	var synthErr *SynthesisError
	if errors.As(err, &synthErr) {
		return synthErr.Retryable
	}
	return false
}
