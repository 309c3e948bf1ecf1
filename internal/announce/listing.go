package announce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/announce/internal/airfoil"
	"github.com/dgnsrekt/announce/internal/config"
	"github.com/mattn/go-runewidth"
)

var (
	configuredStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#89F0CB"})
	excludedStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"})
)

// Speaker is an Airfoil speaker annotated with its configuration state.
type Speaker struct {
	Name       string `json:"name"`
	Connected  bool   `json:"connected"`
	Configured bool   `json:"configured"`
	Excluded   bool   `json:"excluded"`
}

// Speakers lists every speaker Airfoil knows.
func (a *Announcer) Speakers(ctx context.Context) ([]Speaker, error) {
	list, err := a.airfoil.List(ctx)
	if err != nil {
		return nil, err
	}
	return Annotate(a.cfg, list), nil
}

// Annotate marks configured and excluded speakers and sorts them:
// configured first, excluded last, then by name.
func Annotate(cfg *config.Config, list []airfoil.Speaker) []Speaker {
	out := make([]Speaker, 0, len(list))
	for _, s := range list {
		out = append(out, Speaker{
			Name:       s.Name,
			Connected:  s.Connected,
			Configured: cfg.IsConfigured(s.Name),
			Excluded:   cfg.IsExcluded(s.Name),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Configured != b.Configured {
			return a.Configured
		}
		if a.Excluded != b.Excluded {
			return !a.Excluded
		}
		return a.Name < b.Name
	})
	return out
}

// WriteSpeakers prints one line per speaker followed by a summary.
func WriteSpeakers(w io.Writer, speakers []Speaker) error {
	width := 0
	for _, s := range speakers {
		width = max(width, runewidth.StringWidth(s.Name))
	}

	configured := 0
	for _, s := range speakers {
		marker := "⚪"
		if s.Connected {
			marker = "🟢"
		}

		var tag string
		switch {
		case s.Configured:
			configured++
			tag = " " + configuredStyle.Render("[configured]")
		case s.Excluded:
			tag = " " + excludedStyle.Render("[excluded]")
		}

		name := s.Name
		if tag != "" {
			name = runewidth.FillRight(name, width)
		}
		if _, err := fmt.Fprintf(w, "  %s %s%s\n", marker, name, tag); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n%d speakers found, %d configured\n", len(speakers), configured)
	return err
}

// WriteSpeakersJSON prints the speakers as an indented JSON array.
func WriteSpeakersJSON(w io.Writer, speakers []Speaker) error {
	if speakers == nil {
		speakers = []Speaker{}
	}
	b, err := json.MarshalIndent(speakers, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
