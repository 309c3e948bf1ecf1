package airfoil

import (
	"strconv"
	"strings"
)

// Application is the scripting target.
const Application = "Airfoil"

// quote returns s as an AppleScript string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// list returns names as an AppleScript list literal.
func list(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return "{" + strings.Join(quoted, ", ") + "}"
}

// volumeLiteral formats a 0..1 volume as an AppleScript real.
func volumeLiteral(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// tell wraps body in a tell block addressed to the application.
func tell(body ...string) string {
	var b strings.Builder
	b.WriteString("tell application " + quote(Application) + "\n")
	for _, line := range body {
		b.WriteString("\t" + line + "\n")
	}
	b.WriteString("end tell")
	return b.String()
}

// joined makes the script return its list one item per line, each line
// terminated, so speaker names containing ", " survive parsing even when
// only one speaker is reported.
var joined = []string{
	"set AppleScript's text item delimiters to linefeed",
	"return (statusList as text) & linefeed",
}

// SetupScript selects the system-wide source, connects the target speakers
// at volume and disconnects every other speaker.
func SetupScript(source string, speakers []string, volume float64) string {
	return tell(
		"set current audio source to system source "+quote(source),
		"set targetSpeakers to "+list(speakers),
		"repeat with s in (every speaker)",
		"\tif (name of s) is in targetSpeakers then",
		"\t\tconnect to s",
		"\t\tset (volume of s) to "+volumeLiteral(volume),
		"\telse",
		"\t\tdisconnect from s",
		"\tend if",
		"end repeat",
		`return "ok"`,
	)
}

// StatusScript reports "name|connected" for each target speaker.
func StatusScript(speakers []string) string {
	body := []string{
		"set targetSpeakers to " + list(speakers),
		"set statusList to {}",
		"repeat with s in (every speaker)",
		"\tif (name of s) is in targetSpeakers then",
		"\t\tset end of statusList to (name of s) & \"|\" & (connected of s as text)",
		"\tend if",
		"end repeat",
	}
	return tell(append(body, joined...)...)
}

// ListScript reports "name|connected" for every speaker Airfoil knows.
func ListScript() string {
	body := []string{
		"set statusList to {}",
		"repeat with s in (every speaker)",
		"\tset end of statusList to (name of s) & \"|\" & (connected of s as text)",
		"end repeat",
	}
	return tell(append(body, joined...)...)
}

// DisconnectScript disconnects every speaker.
func DisconnectScript() string {
	return tell(
		"repeat with s in (every speaker)",
		"\tdisconnect from s",
		"end repeat",
	)
}

// RunningScript asks whether Airfoil is running without launching it.
func RunningScript() string {
	return "application " + quote(Application) + " is running"
}
