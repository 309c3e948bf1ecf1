package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"golang.org/x/term"
)

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#89F0CB"}
	yellow    = lipgloss.AdaptiveColor{Light: "#A67C00", Dark: "#FFFF00"}
	gray      = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}

	spinnerStyle = lipgloss.NewStyle().Foreground(mintGreen)
	doneStyle    = lipgloss.NewStyle().Foreground(mintGreen)
	warnStyle    = lipgloss.NewStyle().Foreground(yellow)
	detailStyle  = lipgloss.NewStyle().Foreground(gray)
)

type (
	statusMsg string
	printMsg  string
	quitMsg   struct{}
)

type spinnerModel struct {
	spinner spinner.Model
	lines   []string // finished steps, warnings and details
	status  string
	width   int
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.status = string(msg)
		return m, nil
	case printMsg:
		m.lines = append(m.lines, string(msg))
		return m, nil
	case quitMsg:
		m.done = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(line + "\n")
	}
	if m.done || m.status == "" {
		return b.String()
	}
	status := m.status
	if m.width > 4 {
		status = truncate.StringWithTail(status, uint(m.width-3), "…") //nolint:gosec
	}
	b.WriteString(m.spinner.View() + " " + status)
	return b.String()
}

// SpinnerReporter shows the current step next to a spinner and keeps
// finished steps above it.
type SpinnerReporter struct {
	program *tea.Program
	done    chan struct{}

	mu      sync.Mutex
	current string
	closed  bool
}

// NewSpinnerReporter starts the spinner on w.
func NewSpinnerReporter(w io.Writer) *SpinnerReporter {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	m := spinnerModel{spinner: s}
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil { //nolint:gosec
			m.width = width
		}
	}

	r := &SpinnerReporter{
		program: tea.NewProgram(m,
			tea.WithOutput(w),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return r
}

// finish records the current step as completed. mu must be held.
func (r *SpinnerReporter) finish() {
	if r.current != "" {
		r.program.Send(printMsg(doneStyle.Render("✓") + " " + r.current))
		r.current = ""
	}
}

func (r *SpinnerReporter) Step(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.finish()
	r.current = msg
	r.program.Send(statusMsg(msg))
}

func (r *SpinnerReporter) Connections(connected, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.program.Send(statusMsg(fmt.Sprintf("%s %d/%d speakers connected", r.current, connected, total)))
}

func (r *SpinnerReporter) Warn(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.finish()
	r.program.Send(printMsg(warnStyle.Render("Warning: " + msg)))
}

func (r *SpinnerReporter) Detail(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.program.Send(printMsg("  " + detailStyle.Render(msg)))
}

func (r *SpinnerReporter) Done() {
	r.mu.Lock()
	if !r.closed {
		r.finish()
		r.program.Send(printMsg(doneStyle.Render("Done!")))
	}
	r.mu.Unlock()
	r.Close()
}

// Close stops the spinner and waits for the terminal to be restored.
func (r *SpinnerReporter) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.program.Send(quitMsg{})
	<-r.done
}
