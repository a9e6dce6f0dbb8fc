package report

import (
	"strings"

	"github.com/fatih/color"
)

// Colorize highlights the hunk headers, removed and added lines of a
// rendered report. With enabled false the message is returned unchanged.
func Colorize(message string, enabled bool) string {
	if !enabled {
		return message
	}
	header := color.New(color.Bold)
	hunk := color.New(color.FgCyan)
	removed := color.New(color.FgRed)
	added := color.New(color.FgGreen)
	for _, c := range []*color.Color{header, hunk, removed, added} {
		c.EnableColor()
	}

	lines := strings.Split(message, "\n")
	for i, line := range lines {
		body, isDiff := strings.CutPrefix(line, diffIndent)
		switch {
		case i == 0 && line == Header:
			lines[i] = header.Sprint(line)
		case !isDiff:
		case strings.HasPrefix(body, "@@"):
			lines[i] = diffIndent + hunk.Sprint(body)
		case strings.HasPrefix(body, "-"):
			lines[i] = diffIndent + removed.Sprint(body)
		case strings.HasPrefix(body, "+"):
			lines[i] = diffIndent + added.Sprint(body)
		}
	}
	return strings.Join(lines, "\n")
}
