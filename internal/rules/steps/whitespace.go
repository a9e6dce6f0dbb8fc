// Package steps contains the built-in plain text formatting steps.
package steps

import (
	"strings"

	"github.com/donaldgifford/cellfmt/internal/formatter"
)

// Step type names, as used in configuration.
const (
	TypeTrimTrailingWhitespace = "trim_trailing_whitespace"
	TypeEndWithNewline         = "end_with_newline"
	TypeMaxBlankLines          = "max_blank_lines"
)

type noParams struct{}

// TrimTrailingWhitespace removes trailing spaces and tabs from every line.
func TrimTrailingWhitespace() formatter.Step {
	return formatter.NewStep(TypeTrimTrailingWhitespace, noParams{}, func(noParams) (formatter.Func, error) {
		return func(raw, _ string) (string, error) {
			return trimLines(raw), nil
		}, nil
	})
}

func trimLines(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// EndWithNewline makes the content end with exactly one newline. Content
// which is only whitespace becomes empty.
func EndWithNewline() formatter.Step {
	return formatter.NewStep(TypeEndWithNewline, noParams{}, func(noParams) (formatter.Func, error) {
		return func(raw, _ string) (string, error) {
			trimmed := strings.TrimRight(raw, " \t\n")
			if trimmed == "" {
				return "", nil
			}
			return trimmed + "\n", nil
		}, nil
	})
}

// MaxBlankLinesParams configures MaxBlankLines.
type MaxBlankLinesParams struct {
	Max int `yaml:"max" msgpack:"max"`
}

// MaxBlankLines collapses runs of blank lines down to p.Max. A negative
// maximum disables the step.
func MaxBlankLines(p MaxBlankLinesParams) formatter.Step {
	return formatter.NewStep(TypeMaxBlankLines, p, func(p MaxBlankLinesParams) (formatter.Func, error) {
		return func(raw, _ string) (string, error) {
			if p.Max < 0 {
				return raw, nil
			}
			lines := strings.Split(raw, "\n")
			out := make([]string, 0, len(lines))
			blankCount := 0
			for i, line := range lines {
				// The empty element after a final newline is not a blank line.
				if line == "" && i < len(lines)-1 {
					blankCount++
					if blankCount > p.Max {
						continue
					}
				} else {
					blankCount = 0
				}
				out = append(out, line)
			}
			return strings.Join(out, "\n"), nil
		}, nil
	})
}
