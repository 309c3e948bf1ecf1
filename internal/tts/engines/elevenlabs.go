package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgnsrekt/announce/internal/tts"
	"golang.org/x/time/rate"
)

const (
	// DefaultElevenLabsURL is the public API root.
	DefaultElevenLabsURL = "https://api.elevenlabs.io/v1"

	defaultElevenLabsTimeout = 60 * time.Second

	// Voice settings sent with every request.
	defaultStability       = 0.5
	defaultSimilarityBoost = 0.75

	// Largest error body we bother reading.
	maxErrorBody = 64 << 10
)

// ElevenLabsEngine synthesizes speech with the ElevenLabs REST API.
type ElevenLabsEngine struct {
	apiKey  string
	baseURL string
	client  *http.Client

	// Pacing so bursts of announcements do not trip the service's limits
	limiter *rate.Limiter
}

// ElevenLabsOption configures the engine.
type ElevenLabsOption func(*ElevenLabsEngine)

// WithBaseURL points the engine at a different API root.
func WithBaseURL(u string) ElevenLabsOption {
	return func(e *ElevenLabsEngine) {
		if u != "" {
			e.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) ElevenLabsOption {
	return func(e *ElevenLabsEngine) {
		e.client = c
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ElevenLabsOption {
	return func(e *ElevenLabsEngine) {
		if d <= 0 {
			return
		}
		if e.client == nil {
			e.client = &http.Client{}
		}
		e.client.Timeout = d
	}
}

// WithRequestsPerMinute limits how often requests are sent. Zero disables
// pacing.
func WithRequestsPerMinute(n int) ElevenLabsOption {
	return func(e *ElevenLabsEngine) {
		if n <= 0 {
			e.limiter = nil
			return
		}
		e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// NewElevenLabsEngine creates the HTTP engine.
func NewElevenLabsEngine(apiKey string, opts ...ElevenLabsOption) (*ElevenLabsEngine, error) {
	if apiKey == "" {
		return nil, tts.ErrMissingAPIKey
	}

	e := &ElevenLabsEngine{
		apiKey:  apiKey,
		baseURL: DefaultElevenLabsURL,
		client:  &http.Client{Timeout: defaultElevenLabsTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		e.client = &http.Client{Timeout: defaultElevenLabsTimeout}
	}
	return e, nil
}

// Name returns the engine identifier.
func (e *ElevenLabsEngine) Name() string {
	return "elevenlabs"
}

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id,omitempty"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type elevenLabsError struct {
	Detail json.RawMessage `json:"detail"`
}

// Synthesize posts the text to /text-to-speech/{voice} and returns the audio
// body.
func (e *ElevenLabsEngine) Synthesize(ctx context.Context, req tts.Request) (*tts.Audio, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, tts.ErrEmptyText
	}
	if req.VoiceID == "" {
		return nil, fmt.Errorf("%w: voice ID is empty", tts.ErrInvalidVoice)
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
		}
	}

	body, err := json.Marshal(elevenLabsRequest{
		Text:    req.Text,
		ModelID: req.Model,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       defaultStability,
			SimilarityBoost: defaultSimilarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint(req), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", e.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/*")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, &tts.SynthesisError{Engine: e.Name(), Message: "request failed", Cause: err, Retryable: true}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, e.handleError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &tts.SynthesisError{Engine: e.Name(), Message: "reading audio", Cause: err, Retryable: true}
	}
	if len(data) == 0 {
		return nil, tts.ErrNoAudio
	}

	return &tts.Audio{Data: data, Format: req.Format}, nil
}

func (e *ElevenLabsEngine) endpoint(req tts.Request) string {
	endpoint := fmt.Sprintf("%s/text-to-speech/%s", e.baseURL, url.PathEscape(req.VoiceID))
	if req.Format != "" {
		endpoint += "?output_format=" + url.QueryEscape(req.Format)
	}
	return endpoint
}

// Describe returns the request line sent for req.
func (e *ElevenLabsEngine) Describe(req tts.Request) string {
	return "POST " + e.endpoint(req)
}

// handleError turns a non-200 response into a *tts.SynthesisError.
func (e *ElevenLabsEngine) handleError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var cause error
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		cause = tts.ErrRateLimited
	case http.StatusUnauthorized:
		cause = tts.ErrUnauthorized
	case http.StatusNotFound:
		cause = tts.ErrInvalidVoice
	}

	return &tts.SynthesisError{
		Engine:     e.Name(),
		StatusCode: resp.StatusCode,
		Message:    errorMessage(raw),
		Cause:      cause,
		Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
	}
}

// errorMessage extracts a readable message from an error body. The API
// returns detail either as {"status","message"} or as a plain string.
func errorMessage(raw []byte) string {
	var body elevenLabsError
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Detail) > 0 {
		var detail struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body.Detail, &detail); err == nil && detail.Message != "" {
			return detail.Message
		}
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil && s != "" {
			return s
		}
	}
	return strings.TrimSpace(string(raw))
}
