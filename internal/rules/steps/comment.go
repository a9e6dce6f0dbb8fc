package steps

import (
	"strings"

	"github.com/donaldgifford/cellfmt/internal/formatter"
)

// TypeSpaceAfterComment is the config name of the SpaceAfterComment step.
const TypeSpaceAfterComment = "space_after_comment"

// SpaceAfterCommentParams configures SpaceAfterComment.
type SpaceAfterCommentParams struct {
	// Prefix starts a line comment. Defaults to "#".
	Prefix string `yaml:"prefix" msgpack:"prefix"`
}

// SpaceAfterComment ensures a space after the comment prefix of comment
// lines. Doubled prefixes ("##"), shebangs and bare prefixes are left
// alone.
func SpaceAfterComment(p SpaceAfterCommentParams) formatter.Step {
	if p.Prefix == "" {
		p.Prefix = "#"
	}
	return formatter.NewStep(TypeSpaceAfterComment, p, func(p SpaceAfterCommentParams) (formatter.Func, error) {
		return func(raw, _ string) (string, error) {
			lines := strings.Split(raw, "\n")
			for i, line := range lines {
				lines[i] = spaceComment(line, p.Prefix)
			}
			return strings.Join(lines, "\n"), nil
		}, nil
	})
}

func spaceComment(line, prefix string) string {
	body := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(body)]
	rest, ok := strings.CutPrefix(body, prefix)
	switch {
	case !ok, rest == "":
		return line
	case strings.HasPrefix(rest, prefix), strings.HasPrefix(body, "#!"):
		return line
	case rest[0] == ' ' || rest[0] == '\t':
		return line
	}
	return indent + prefix + " " + rest
}
