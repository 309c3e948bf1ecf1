package announce

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"
)

// SplitSpeakers parses a comma separated speaker list.
func SplitSpeakers(s string) []string {
	var out []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// ResolveSpeakers returns the target speakers for opts: the explicit list
// when given, otherwise the configured one. Duplicates are dropped. With
// opts.Match each name is resolved against the speakers Airfoil knows.
func (a *Announcer) ResolveSpeakers(ctx context.Context, opts Options) ([]string, error) {
	names := opts.Speakers
	if len(names) == 0 {
		names = a.cfg.Speakers
	}
	names = dedupe(names)
	if len(names) == 0 {
		return nil, ErrNoSpeakers
	}
	if !opts.Match {
		return names, nil
	}

	known, err := a.airfoil.List(ctx)
	if err != nil {
		a.reporter.Warn(fmt.Sprintf("Could not list speakers for matching, using names as given: %v", err))
		return names, nil
	}
	all := make([]string, 0, len(known))
	candidates := make([]string, 0, len(known))
	for _, s := range known {
		all = append(all, s.Name)
		if !a.cfg.IsExcluded(s.Name) {
			candidates = append(candidates, s.Name)
		}
	}

	// Exact names are honoured even for excluded speakers; only fuzzy
	// matches skip them.
	resolved := make([]string, 0, len(names))
	for _, name := range names {
		match, ok := exact(name, all)
		if !ok {
			match, ok = Match(name, candidates)
		}
		switch {
		case !ok:
			a.reporter.Warn(fmt.Sprintf("No speaker matches %q", name))
			match = name
		case match != name:
			log.Info("Matched speaker", "input", name, "speaker", match)
		}
		resolved = append(resolved, match)
	}
	return dedupe(resolved), nil
}

// Match finds the candidate best matching name. Case-insensitive equality
// wins; otherwise the highest scoring fuzzy match is used.
func Match(name string, candidates []string) (string, bool) {
	if c, ok := exact(name, candidates); ok {
		return c, true
	}
	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}

func exact(name string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		key := strings.ToLower(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
