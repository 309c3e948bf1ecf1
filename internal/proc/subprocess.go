package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultTimeout bounds a subprocess when neither the caller's context nor
// the manager carries a deadline.
const DefaultTimeout = 30 * time.Second

// DefaultGracePeriod is how long a timed out process gets between the
// interrupt signal and the kill.
const DefaultGracePeriod = 500 * time.Millisecond

// ErrTimeout is returned when a subprocess exceeds its deadline.
var ErrTimeout = errors.New("subprocess timed out")

// Runner executes external programs.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// Result holds what a finished subprocess produced.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Output returns stdout with surrounding whitespace removed.
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Stdout))
}

// ExitError reports a subprocess that ran but exited non-zero.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with status %d: %s", e.Name, e.Code, e.Stderr)
	}
	return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
}

// ExitCode returns the exit status carried by err, or -1 when err is not an
// *ExitError.
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

// SubprocessManager runs commands one at a time with a bounded lifetime.
type SubprocessManager struct {
	// mu serialises invocations; the pipeline never needs two at once
	mu sync.Mutex

	defaultTimeout time.Duration
	gracePeriod    time.Duration
}

// NewSubprocessManager creates a subprocess manager. A non-positive timeout
// selects DefaultTimeout.
func NewSubprocessManager(timeout time.Duration) *SubprocessManager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SubprocessManager{
		defaultTimeout: timeout,
		gracePeriod:    DefaultGracePeriod,
	}
}

// Run executes name with args and waits for it to finish. Stdout and stderr
// are captured separately. A non-zero exit returns the populated Result
// together with an *ExitError.
func (sm *SubprocessManager) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	timeout := sm.defaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	} else {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	// Interrupt first, kill once the grace period runs out.
	cmd.Cancel = func() error {
		if runtime.GOOS == "windows" {
			return cmd.Process.Kill()
		}
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = sm.gracePeriod

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	defer func() {
		logExecution(name, args, res.Duration, err)
	}()

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			err = fmt.Errorf("%s: %w after %v", name, ErrTimeout, timeout.Round(time.Millisecond))
			return res, err
		}
		err = fmt.Errorf("%s cancelled: %w", name, ctxErr)
		return res, err
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			err = &ExitError{
				Name:   name,
				Code:   res.ExitCode,
				Stderr: strings.TrimSpace(stderr.String()),
			}
			return res, err
		}
		res.ExitCode = -1
		err = fmt.Errorf("failed to start %s: %w", name, err)
		return res, err
	}

	return res, nil
}

// LookPath checks that a binary exists in the system PATH and returns its
// location.
func LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("binary '%s' not found in PATH: %w", name, err)
	}
	return path, nil
}

func logExecution(command string, args []string, duration time.Duration, err error) {
	if err != nil {
		log.Debug("Subprocess failed",
			"command", command,
			"args", len(args),
			"duration", duration,
			"error", err)
		return
	}
	log.Debug("Subprocess executed",
		"command", command,
		"args", len(args),
		"duration", duration)
}
