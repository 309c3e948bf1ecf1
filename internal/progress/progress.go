// Package progress reports the steps of an announcement to the user.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

// Reporter receives pipeline events. Implementations must be safe for
// concurrent use.
type Reporter interface {
	// Step announces the start of a pipeline stage.
	Step(msg string)
	// Connections reports how many target speakers are connected.
	Connections(connected, total int)
	// Warn reports a non-fatal problem.
	Warn(msg string)
	// Detail prints a supplementary line under the last step or warning.
	Detail(msg string)
	// Done marks a successful run.
	Done()
	// Close releases the reporter. It is safe to call after Done.
	Close()
}

// New picks a spinner on terminals and plain lines otherwise.
func New(w *os.File, plain bool) Reporter {
	if !plain && IsTerminal(w) {
		return NewSpinnerReporter(w)
	}
	return NewLogReporter(w)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd())) //nolint:gosec
}

// LogReporter writes one plain line per event.
type LogReporter struct {
	logger *log.Logger
}

// NewLogReporter writes to w without timestamps.
func NewLogReporter(w io.Writer) *LogReporter {
	return &LogReporter{logger: log.NewWithOptions(w, log.Options{ReportTimestamp: false})}
}

func (r *LogReporter) Step(msg string) { r.logger.Print(msg) }

func (r *LogReporter) Connections(connected, total int) {
	r.logger.Print(fmt.Sprintf("  %d/%d speakers connected...", connected, total))
}

func (r *LogReporter) Warn(msg string)   { r.logger.Warn(msg) }
func (r *LogReporter) Detail(msg string) { r.logger.Print("  " + msg) }
func (r *LogReporter) Done()             { r.logger.Print("Done!") }
func (r *LogReporter) Close()            {}

// Event is one recorded Reporter call.
type Event struct {
	Kind string // step, connections, warn, detail or done
	Text string
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) add(kind, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: kind, Text: text})
}

func (r *Recorder) Step(msg string) { r.add("step", msg) }

func (r *Recorder) Connections(connected, total int) {
	r.add("connections", fmt.Sprintf("%d/%d", connected, total))
}

func (r *Recorder) Warn(msg string)   { r.add("warn", msg) }
func (r *Recorder) Detail(msg string) { r.add("detail", msg) }
func (r *Recorder) Done()             { r.add("done", "") }
func (r *Recorder) Close()            {}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Texts returns the text of every event of kind.
func (r *Recorder) Texts(kind string) []string {
	var out []string
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e.Text)
		}
	}
	return out
}

var (
	_ Reporter = (*LogReporter)(nil)
	_ Reporter = (*Recorder)(nil)
	_ Reporter = (*SpinnerReporter)(nil)
)
