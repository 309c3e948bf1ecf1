package airfoil

import (
	"strings"
)

// Speaker is one output device as Airfoil reports it.
type Speaker struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// ParseStatus parses osascript output of "name|connected" items. Output
// containing a newline is read one item per line. Otherwise a single item
// (exactly one "|") is taken whole and anything else is treated as a bare
// list separated by ", ". Items without a separator are skipped and the name
// is split on the last "|".
func ParseStatus(output string) []Speaker {
	var items []string
	switch {
	case strings.TrimSpace(output) == "":
		return nil
	case strings.Contains(output, "\n"):
		items = strings.Split(output, "\n")
	case strings.Count(output, "|") == 1:
		items = []string{output}
	default:
		items = strings.Split(output, ", ")
	}

	var speakers []Speaker
	for _, item := range items {
		item = strings.TrimSpace(item)
		i := strings.LastIndex(item, "|")
		if i < 0 {
			continue
		}
		name := strings.TrimSpace(item[:i])
		if name == "" {
			continue
		}
		speakers = append(speakers, Speaker{
			Name:      name,
			Connected: strings.EqualFold(strings.TrimSpace(item[i+1:]), "true"),
		})
	}
	return speakers
}

// Partition splits targets into connected and unconnected according to
// statuses. Names compare case-insensitively, as AppleScript does; targets
// missing from statuses count as unconnected. Result names keep the
// target's spelling.
func Partition(targets []string, statuses []Speaker) (connected, failed []string) {
	for _, target := range targets {
		ok := false
		for _, s := range statuses {
			if strings.EqualFold(s.Name, target) && s.Connected {
				ok = true
				break
			}
		}
		if ok {
			connected = append(connected, target)
		} else {
			failed = append(failed, target)
		}
	}
	return connected, failed
}
