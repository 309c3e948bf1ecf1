package airfoil

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// WaitOptions control how Wait polls.
type WaitOptions struct {
	Timeout  time.Duration
	Interval time.Duration

	// OnProgress is called whenever the number of connected speakers
	// changes, including the first poll.
	OnProgress func(connected, total int)
}

// WaitResult is the connection state when Wait returned.
type WaitResult struct {
	Connected    []string
	Failed       []string
	AllConnected bool
	Elapsed      time.Duration
}

// Wait polls Status until every speaker is connected or the timeout runs
// out. Failed status queries are retried. On timeout a last query decides
// which speakers connected. Only context cancellation is returned as an
// error.
func (c *Client) Wait(ctx context.Context, speakers []string, opts WaitOptions) (*WaitResult, error) {
	if len(speakers) == 0 {
		return nil, ErrNoSpeakers
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}

	start := time.Now()
	deadline := start.Add(opts.Timeout)
	last := -1

	for time.Now().Before(deadline) {
		statuses, err := c.Status(ctx, speakers)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			log.Debug("Status poll failed", "error", err)
		} else {
			connected, failed := Partition(speakers, statuses)
			if len(connected) != last {
				last = len(connected)
				if opts.OnProgress != nil {
					opts.OnProgress(last, len(speakers))
				}
			}
			if len(failed) == 0 {
				return &WaitResult{
					Connected:    connected,
					AllConnected: true,
					Elapsed:      time.Since(start),
				}, nil
			}
		}

		timer := time.NewTimer(min(opts.Interval, max(time.Until(deadline), 0)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	result := &WaitResult{}
	statuses, err := c.Status(ctx, speakers)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		log.Debug("Final status query failed", "error", err)
	}
	result.Connected, result.Failed = Partition(speakers, statuses)
	result.AllConnected = len(result.Failed) == 0
	result.Elapsed = time.Since(start)
	return result, nil
}
