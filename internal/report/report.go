// Package report renders check violations as a bounded, human-readable
// message with whitespace and line endings made visible.
package report

import (
	"fmt"
	"strings"

	"github.com/donaldgifford/cellfmt/internal/lineending"
	"github.com/donaldgifford/cellfmt/pkg/diff"
)

// Header opens every report.
const Header = "The following files had format violations:"

// DefaultRunToFix is appended to every report.
const DefaultRunToFix = "Run 'cellfmt apply' to fix these violations."

const (
	normalIndent = "    "
	diffIndent   = normalIndent + normalIndent
	middleDot    = "\u00b7"
)

// Limits bound the size of a report.
type Limits struct {
	// MaxLines is the total number of lines spent on file names and diffs.
	MaxLines int
	// MinLinesPerFile is how many lines of a file are always shown, even
	// past MaxLines.
	MinLinesPerFile int
	// MaxFilesToList is the threshold above which files which did not fit
	// are only counted instead of listed.
	MaxFilesToList int
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{MaxLines: 50, MinLinesPerFile: 4, MaxFilesToList: 10}
}

// Problem is one file which failed the check.
type Problem struct {
	// Path is shown as the file name, usually relative to the project root.
	Path string
	// Raw is the file content as found on disk.
	Raw string
	// Formatted is the clean content with its line endings applied.
	Formatted string
}

// Renderer builds violation reports.
type Renderer struct {
	Limits   Limits
	RunToFix string
}

// NewRenderer returns a renderer with the default limits and instruction.
func NewRenderer() *Renderer {
	return &Renderer{Limits: DefaultLimits(), RunToFix: DefaultRunToFix}
}

// Render returns the report for problems, in order.
func (r *Renderer) Render(problems []Problem) string {
	m := &message{limits: r.Limits}
	m.b.WriteString(Header)
	m.b.WriteByte('\n')

	i := 0
	for ; i < len(problems) && m.lines < r.Limits.MaxLines; i++ {
		p := problems[i]
		m.addFile(p.Path + "\n" + Visualize(p.Raw, p.Formatted))
	}

	if remaining := len(problems) - i; remaining > 0 {
		if remaining >= r.Limits.MaxFilesToList {
			fmt.Fprintf(&m.b, "Violations also present in %d other files.\n", remaining)
		} else {
			m.b.WriteString("Violations also present in:\n")
			for _, p := range problems[i:] {
				m.addLine(normalIndent, p.Path)
			}
		}
	}

	m.b.WriteString(r.RunToFix)
	return m.b.String()
}

type message struct {
	limits Limits
	b      strings.Builder
	lines  int
}

// addFile writes the file name and as much of its diff as fits. The first
// MinLinesPerFile lines are always written.
func (m *message) addFile(block string) {
	lines := strings.Split(block, "\n")
	m.addLine(normalIndent, lines[0])

	first := min(m.limits.MinLinesPerFile, len(lines))
	for _, line := range lines[1:max(first, 1)] {
		m.addLine(diffIndent, line)
	}

	next := max(first, 1)
	for next < len(lines) && m.lines < m.limits.MaxLines {
		m.addLine(diffIndent, lines[next])
		next++
	}

	if m.lines >= m.limits.MaxLines && next < len(lines) {
		m.addLine(normalIndent, fmt.Sprintf("... (%d more lines that didn't fit)", len(lines)-next))
	}
}

func (m *message) addLine(indent, line string) {
	m.b.WriteString(indent)
	m.b.WriteString(line)
	m.b.WriteByte('\n')
	m.lines++
}

// Visualize returns the hunks turning raw into formatted, with no trailing
// newline. When the content differs, spaces and tabs are made visible and
// line endings are ignored. When only the line endings differ, every
// "\r" and "\n" is made visible instead.
func Visualize(raw, formatted string) string {
	rawUnix := lineending.ToUnix(raw)
	formattedUnix := lineending.ToUnix(formatted)
	if rawUnix != formattedUnix {
		return diff.Hunks(visibleWhitespace(rawUnix), visibleWhitespace(formattedUnix))
	}
	return diff.Hunks(visibleLineEndings(raw), visibleLineEndings(formatted))
}

var (
	whitespaceReplacer  = strings.NewReplacer(" ", middleDot, "\t", `\t`, "\r", "")
	lineEndingsReplacer = strings.NewReplacer("\n", "\\n\n", "\r", `\r`)
)

func visibleWhitespace(s string) string { return whitespaceReplacer.Replace(s) }

func visibleLineEndings(s string) string { return lineEndingsReplacer.Replace(s) }
