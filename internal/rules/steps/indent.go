package steps

import (
	"fmt"
	"strings"

	"github.com/donaldgifford/cellfmt/internal/formatter"
)

// TypeIndent is the config name of the Indent step.
const TypeIndent = "indent"

// Indent styles.
const (
	IndentSpaces = "spaces"
	IndentTabs   = "tabs"
)

// DefaultTabWidth is how many spaces a tab is worth when none is configured.
const DefaultTabWidth = 4

// IndentParams configures Indent.
type IndentParams struct {
	Style string `yaml:"style" msgpack:"style"`
	Width int    `yaml:"width" msgpack:"width"`
}

// Indent rewrites the leading whitespace of every line with either spaces
// or tabs, counting a tab as Width spaces. With tabs, leftover spaces that
// do not fill a whole tab are dropped.
func Indent(p IndentParams) (formatter.Step, error) {
	if p.Width == 0 {
		p.Width = DefaultTabWidth
	}
	if p.Width < 0 {
		return nil, fmt.Errorf("indent width must be positive, got %d", p.Width)
	}
	switch p.Style {
	case IndentSpaces, IndentTabs:
	case "":
		p.Style = IndentSpaces
	default:
		return nil, fmt.Errorf("unknown indent style %q", p.Style)
	}

	return formatter.NewStep(TypeIndent, p, func(p IndentParams) (formatter.Func, error) {
		return func(raw, _ string) (string, error) {
			return reindent(raw, p), nil
		}, nil
	}), nil
}

func reindent(raw string, p IndentParams) string {
	var b strings.Builder
	b.Grow(len(raw))
	for line := range strings.SplitAfterSeq(raw, "\n") {
		content := strings.TrimLeft(line, " \t")
		width := 0
		for _, c := range line[:len(line)-len(content)] {
			if c == '\t' {
				width += p.Width
			} else {
				width++
			}
		}
		if p.Style == IndentTabs {
			b.WriteString(strings.Repeat("\t", width/p.Width))
		} else {
			b.WriteString(strings.Repeat(" ", width))
		}
		b.WriteString(content)
	}
	return b.String()
}
