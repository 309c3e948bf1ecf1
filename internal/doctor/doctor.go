// Package doctor checks that the programs and credentials an announcement
// needs are available.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/announce/internal/airfoil"
	"github.com/dgnsrekt/announce/internal/proc"
)

// ErrMissingDependencies is returned when a required check fails.
var ErrMissingDependencies = errors.New("missing required dependencies")

// Status is the outcome of one check.
type Status struct {
	Name         string
	Required     bool
	Installed    bool
	Version      string
	Path         string
	Error        error
	Instructions string
}

// Checker inspects one dependency.
type Checker interface {
	Check(ctx context.Context) Status
}

// Report holds check results in the order they ran.
type Report struct {
	Results []Status
}

// Run executes every checker.
func Run(ctx context.Context, checkers ...Checker) *Report {
	r := &Report{}
	for _, c := range checkers {
		status := c.Check(ctx)
		r.Results = append(r.Results, status)

		if status.Required && !status.Installed {
			log.Debug("Missing required dependency", "name", status.Name, "error", status.Error)
		} else if status.Installed {
			log.Debug("Dependency found", "name", status.Name, "version", status.Version, "path", status.Path)
		}
	}
	return r
}

// Err returns ErrMissingDependencies naming each failed required check, or
// nil.
func (r *Report) Err() error {
	var missing []string
	for _, s := range r.Results {
		if s.Required && !s.Installed {
			missing = append(missing, s.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingDependencies, strings.Join(missing, ", "))
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginBottom(1)
	installedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	missingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	optionalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Render formats the report for the terminal.
func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Announce Dependency Check"))
	b.WriteString("\n\n")

	for _, s := range r.Results {
		switch {
		case s.Installed:
			b.WriteString(installedStyle.Render("  ✓ " + s.Name + ": "))
			b.WriteString(strings.TrimSpace(s.Path + " " + s.Version))
			b.WriteString("\n")
		case s.Required:
			b.WriteString(missingStyle.Render("  ✗ " + s.Name + ": "))
			b.WriteString(describeFailure(s) + "\n")
		default:
			b.WriteString(optionalStyle.Render("  ○ " + s.Name + ": "))
			b.WriteString(describeFailure(s) + " (optional)\n")
		}
		if !s.Installed && s.Instructions != "" {
			fmt.Fprintf(&b, "    %s\n", s.Instructions)
		}
	}
	return b.String()
}

func describeFailure(s Status) string {
	if s.Error != nil {
		return s.Error.Error()
	}
	return "Not installed"
}

// BinaryChecker looks a program up in PATH and optionally asks it for its
// version.
type BinaryChecker struct {
	Binary       string
	VersionArgs  []string
	Required     bool
	Instructions string

	Runner   proc.Runner
	LookPath func(string) (string, error)
}

// Check implements Checker.
func (c *BinaryChecker) Check(ctx context.Context) Status {
	status := Status{Name: c.Binary, Required: c.Required}

	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = proc.LookPath
	}
	path, err := lookPath(c.Binary)
	if err != nil {
		status.Instructions = c.Instructions
		return status
	}
	status.Path = path

	if len(c.VersionArgs) > 0 && c.Runner != nil {
		res, err := c.Runner.Run(ctx, c.Binary, c.VersionArgs...)
		if err != nil {
			status.Error = fmt.Errorf("%s does not run: %w", c.Binary, err)
			status.Instructions = c.Instructions
			return status
		}
		status.Version = parseVersion(res.Output())
	}

	status.Installed = true
	return status
}

// parseVersion extracts "6.1.1" from "ffmpeg version 6.1.1 Copyright ..."
// and "3.12.1" from "Python 3.12.1".
func parseVersion(output string) string {
	line, _, _ := strings.Cut(output, "\n")
	parts := strings.Fields(line)
	for i, p := range parts {
		if p == "version" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}

// AirfoilChecker asks whether Airfoil is running.
type AirfoilChecker struct {
	Client *airfoil.Client
}

// Check implements Checker.
func (c *AirfoilChecker) Check(ctx context.Context) Status {
	status := Status{
		Name:         airfoil.Application,
		Required:     true,
		Instructions: "Install Airfoil from https://rogueamoeba.com/airfoil/mac/ and open it",
	}
	running, err := c.Client.Running(ctx)
	switch {
	case err != nil:
		status.Error = fmt.Errorf("could not ask for Airfoil: %w", err)
	case !running:
		status.Error = errors.New("not running")
	default:
		status.Installed = true
		status.Version = "running"
	}
	return status
}

// CredentialsChecker verifies that speech can be synthesized: either the
// configured script exists or an API key is set.
type CredentialsChecker struct {
	APIKey string
	Script string
}

// Check implements Checker.
func (c *CredentialsChecker) Check(context.Context) Status {
	if c.Script != "" {
		status := Status{Name: "tts script", Required: true, Path: c.Script}
		info, err := os.Stat(c.Script)
		switch {
		case err != nil:
			status.Error = err
			status.Instructions = `Fix "elevenlabs.script" in the config file`
		case info.IsDir():
			status.Error = fmt.Errorf("%s is a directory", c.Script)
		default:
			status.Installed = true
		}
		return status
	}

	status := Status{Name: "ELEVENLABS_API_KEY", Required: true}
	if c.APIKey == "" {
		status.Error = errors.New("not set")
		status.Instructions = "Export ELEVENLABS_API_KEY or set \"elevenlabs.script\" in the config file"
		return status
	}
	status.Installed = true
	status.Version = "set"
	return status
}

// Default returns the checks an announcement depends on.
func Default(runner proc.Runner, client *airfoil.Client, apiKey, script string) []Checker {
	checkers := []Checker{
		&BinaryChecker{
			Binary:       airfoil.Osascript,
			Required:     true,
			Instructions: "osascript ships with macOS",
		},
		&BinaryChecker{
			Binary:       "afplay",
			Required:     true,
			Instructions: "afplay ships with macOS",
		},
		&BinaryChecker{
			Binary:       "ffmpeg",
			VersionArgs:  []string{"-version"},
			Required:     true,
			Instructions: "Install with: brew install ffmpeg",
			Runner:       runner,
		},
	}
	if strings.HasSuffix(script, ".py") {
		checkers = append(checkers, &BinaryChecker{
			Binary:       "python3",
			VersionArgs:  []string{"--version"},
			Required:     true,
			Instructions: "Install with: brew install python",
			Runner:       runner,
		})
	}
	return append(checkers,
		&AirfoilChecker{Client: client},
		&CredentialsChecker{APIKey: apiKey, Script: script},
	)
}
