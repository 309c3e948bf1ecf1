package announce

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/announce/internal/airfoil"
	"github.com/dgnsrekt/announce/internal/tts"
)

// Step is one stage of a planned announcement.
type Step struct {
	Title   string
	Command string
	Lang    string // code block language for Command
	Note    string
}

// Plan is what Say would do, without doing it.
type Plan struct {
	Text     string
	Speakers []string
	Steps    []Step
}

// Plan resolves the speakers and lists the commands Say would run for
// opts. Nothing is synthesized, played or routed; with opts.Match Airfoil is
// only queried for its speaker names.
func (a *Announcer) Plan(ctx context.Context, opts Options) (*Plan, error) {
	text := strings.TrimSpace(opts.Text)
	if text == "" {
		return nil, tts.ErrEmptyText
	}
	speakers, err := a.ResolveSpeakers(ctx, opts)
	if err != nil {
		return nil, err
	}

	req := a.request(text)
	raw := "tts." + tts.Codec(req.Format)
	p := &Plan{Text: text, Speakers: speakers}

	p.add(Step{Title: "Generate speech", Command: tts.Describe(a.synth, req), Lang: "sh"})

	name, args := a.transcoder.Command(raw, req.Format, "tts.mp3")
	p.add(Step{Title: "Convert to stereo MP3", Command: shellJoin(name, args), Lang: "sh"})

	p.add(Step{
		Title:   fmt.Sprintf("Set up Airfoil (%d speakers)", len(speakers)),
		Command: airfoil.SetupScript(a.airfoil.Source(), speakers, a.cfg.Airfoil.Volume),
		Lang:    "applescript",
	})

	p.add(Step{
		Title:   "Wait for connections",
		Command: airfoil.StatusScript(speakers),
		Lang:    "applescript",
		Note: fmt.Sprintf("Polled every %s for up to %s.",
			a.cfg.Airfoil.PollInterval, a.cfg.Airfoil.ConnectTimeout),
	})

	if chime := a.cfg.ChimePath(); !opts.NoChime && chime != "" {
		name, args := a.player.Command(chime)
		p.add(Step{
			Title:   "Play chime",
			Command: shellJoin(name, args),
			Lang:    "sh",
			Note:    fmt.Sprintf("Followed by a %s pause. Skipped when the file is missing.", a.cfg.Audio.ChimeGap),
		})
	}

	name, args = a.player.Command("tts.mp3")
	p.add(Step{Title: "Play announcement", Command: shellJoin(name, args), Lang: "sh"})

	if opts.KeepConnected {
		p.add(Step{Title: "Leave speakers connected"})
	} else {
		p.add(Step{
			Title:   "Disconnect",
			Command: airfoil.DisconnectScript(),
			Lang:    "applescript",
			Note:    fmt.Sprintf("After a %s delay.", a.cfg.Airfoil.DisconnectDelay),
		})
	}
	return p, nil
}

func (p *Plan) add(s Step) {
	p.Steps = append(p.Steps, s)
}

// Markdown renders the plan as a markdown document.
func (p *Plan) Markdown() string {
	var b strings.Builder
	b.WriteString("# Announcement plan\n\n")
	fmt.Fprintf(&b, "**Text:** %s\n\n", p.Text)
	fmt.Fprintf(&b, "**Speakers:** %s\n\n", strings.Join(p.Speakers, ", "))

	for i, s := range p.Steps {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, s.Title)
		if s.Command != "" {
			fmt.Fprintf(&b, "```%s\n%s\n```\n\n", s.Lang, s.Command)
		}
		if s.Note != "" {
			b.WriteString(s.Note + "\n\n")
		}
	}
	return b.String()
}

// Render renders the plan for the terminal. style is a glamour style name
// or path; width 0 disables wrapping.
func (p *Plan) Render(style string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(p.Markdown())
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}

func shellJoin(name string, args []string) string {
	parts := []string{name}
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
