package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/cellfmt/internal/rules/steps"
)

func TestTypes(t *testing.T) {
	assert.Equal(t, []string{
		steps.TypeEndWithNewline,
		steps.TypeIndent,
		steps.TypeLicenseHeader,
		steps.TypeMaxBlankLines,
		steps.TypeReplace,
		steps.TypeReplaceRegex,
		steps.TypeSpaceAfterComment,
		steps.TypeTrimTrailingWhitespace,
	}, Types())
	assert.True(t, Known("indent"))
	assert.False(t, Known("prettier"))
}

func TestBuild(t *testing.T) {
	s, err := Build(steps.TypeMaxBlankLines, "", Params{"max": 0})
	require.NoError(t, err)
	assert.Equal(t, steps.TypeMaxBlankLines, s.Name())

	out, err := s.Format("a\n\nb\n", "f")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", out)
}

func TestBuildNamedReplace(t *testing.T) {
	s, err := Build(steps.TypeReplace, "tabs", Params{"find": "\t", "replacement": "  "})
	require.NoError(t, err)
	assert.Equal(t, "tabs", s.Name())
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		typ    string
		params Params
	}{
		{"unknown type", "prettier", nil},
		{"unknown param", steps.TypeIndent, Params{"colour": "blue"}},
		{"params on parameterless step", steps.TypeTrimTrailingWhitespace, Params{"max": 1}},
		{"wrong param type", steps.TypeMaxBlankLines, Params{"max": "lots"}},
		{"invalid value", steps.TypeIndent, Params{"style": "both"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.typ, "", tt.params)
			assert.Error(t, err)
		})
	}
}

func TestRegisterTwicePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register(steps.TypeIndent, nil)
	})
}
