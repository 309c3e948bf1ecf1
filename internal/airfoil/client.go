package airfoil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/announce/internal/proc"
)

// Timeouts for each kind of osascript call.
const (
	SetupTimeout      = 30 * time.Second
	StatusTimeout     = 5 * time.Second
	ListTimeout       = 10 * time.Second
	DisconnectTimeout = 10 * time.Second
	RunningTimeout    = 5 * time.Second
)

// Osascript is the binary used to run AppleScript.
const Osascript = "osascript"

// ErrNoSpeakers is returned when an operation needs at least one target.
var ErrNoSpeakers = errors.New("no speakers given")

// Client drives Airfoil by running AppleScript through a proc.Runner.
type Client struct {
	runner proc.Runner
	source string
}

// NewClient creates a client that routes source to the speakers it
// connects. An empty source selects "System-Wide Audio".
func NewClient(runner proc.Runner, source string) *Client {
	if source == "" {
		source = "System-Wide Audio"
	}
	return &Client{runner: runner, source: source}
}

// Source returns the audio source selected by Setup.
func (c *Client) Source() string {
	return c.source
}

func (c *Client) run(ctx context.Context, timeout time.Duration, script string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := c.runner.Run(ctx, Osascript, "-e", script)
	if err != nil {
		return "", err
	}
	// osascript appends one newline of its own.
	return strings.TrimSuffix(string(res.Stdout), "\n"), nil
}

// Setup selects the audio source, connects speakers at volume and
// disconnects everything else.
func (c *Client) Setup(ctx context.Context, speakers []string, volume float64) error {
	if len(speakers) == 0 {
		return ErrNoSpeakers
	}
	if volume < 0 || volume > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %.2f", volume)
	}

	log.Debug("Configuring Airfoil", "source", c.source, "speakers", strings.Join(speakers, ", "), "volume", volume)
	if _, err := c.run(ctx, SetupTimeout, SetupScript(c.source, speakers, volume)); err != nil {
		return fmt.Errorf("airfoil setup failed: %w", err)
	}
	return nil
}

// Status reports the connection state of the given speakers. Speakers that
// Airfoil does not know are absent from the result.
func (c *Client) Status(ctx context.Context, speakers []string) ([]Speaker, error) {
	if len(speakers) == 0 {
		return nil, ErrNoSpeakers
	}
	out, err := c.run(ctx, StatusTimeout, StatusScript(speakers))
	if err != nil {
		return nil, fmt.Errorf("airfoil status query failed: %w", err)
	}
	return ParseStatus(out), nil
}

// List reports every speaker Airfoil knows.
func (c *Client) List(ctx context.Context) ([]Speaker, error) {
	out, err := c.run(ctx, ListTimeout, ListScript())
	if err != nil {
		return nil, fmt.Errorf("airfoil speaker query failed: %w", err)
	}
	return ParseStatus(out), nil
}

// DisconnectAll disconnects every speaker.
func (c *Client) DisconnectAll(ctx context.Context) error {
	if _, err := c.run(ctx, DisconnectTimeout, DisconnectScript()); err != nil {
		return fmt.Errorf("airfoil disconnect failed: %w", err)
	}
	return nil
}

// Running reports whether the Airfoil application is open.
func (c *Client) Running(ctx context.Context) (bool, error) {
	out, err := c.run(ctx, RunningTimeout, RunningScript())
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(out), "true"), nil
}
