// Package mock provides a scripted subprocess runner for testing.
package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/dgnsrekt/announce/internal/proc"
)

// Call records one invocation made through the Runner.
type Call struct {
	Name string
	Args []string
}

// String renders the call the way a shell would show it.
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Response is what the Runner answers for a call.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err is returned as-is, e.g. to simulate a missing binary.
	Err error
}

// Handler computes a response from the call's arguments.
type Handler func(args []string) Response

// Runner implements proc.Runner without spawning anything.
type Runner struct {
	mu       sync.Mutex
	calls    []Call
	queues   map[string][]Response
	handlers map[string]Handler

	// Default answers commands with no queued response or handler.
	Default Response
}

// New creates a Runner that answers every command successfully with no
// output.
func New() *Runner {
	return &Runner{
		queues:   make(map[string][]Response),
		handlers: make(map[string]Handler),
	}
}

// On queues responses for a command name. They are consumed in order and the
// last one repeats.
func (r *Runner) On(name string, responses ...Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues[name] = append(r.queues[name], responses...)
	return r
}

// OnFunc installs a handler for a command name. Handlers take precedence
// over queued responses.
func (r *Runner) OnFunc(name string, fn Handler) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
	return r
}

// Run records the call and answers it.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (*proc.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Name: name, Args: append([]string(nil), args...)})
	resp := r.next(name, args)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &proc.Result{ExitCode: -1}, err
	}

	res := &proc.Result{
		Stdout:   []byte(resp.Stdout),
		Stderr:   []byte(resp.Stderr),
		ExitCode: resp.ExitCode,
	}
	if resp.Err != nil {
		res.ExitCode = -1
		return res, resp.Err
	}
	if resp.ExitCode != 0 {
		return res, &proc.ExitError{Name: name, Code: resp.ExitCode, Stderr: strings.TrimSpace(resp.Stderr)}
	}
	return res, nil
}

// next must be called with mu held.
func (r *Runner) next(name string, args []string) Response {
	if fn, ok := r.handlers[name]; ok {
		r.mu.Unlock()
		resp := fn(args)
		r.mu.Lock()
		return resp
	}
	q := r.queues[name]
	switch len(q) {
	case 0:
		return r.Default
	case 1:
		return q[0]
	default:
		r.queues[name] = q[1:]
		return q[0]
	}
}

// Calls returns every recorded call in order.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsTo returns the recorded calls for one command name.
func (r *Runner) CallsTo(name string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Names returns the command names in call order.
func (r *Runner) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		names = append(names, c.Name)
	}
	return names
}

// Reset forgets all recorded calls. Queued responses and handlers stay.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

var _ proc.Runner = (*Runner)(nil)
