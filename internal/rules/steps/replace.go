package steps

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/donaldgifford/cellfmt/internal/formatter"
)

// Config names of the replacement steps.
const (
	TypeReplace      = "replace"
	TypeReplaceRegex = "replace_regex"
)

// ReplaceParams configures Replace.
type ReplaceParams struct {
	Find        string `yaml:"find" msgpack:"find"`
	Replacement string `yaml:"replacement" msgpack:"replacement"`
}

// Replace substitutes every occurrence of p.Find.
func Replace(name string, p ReplaceParams) (formatter.Step, error) {
	if p.Find == "" {
		return nil, errors.New("replace: find must not be empty")
	}
	return formatter.NewStep(name, p, func(p ReplaceParams) (formatter.Func, error) {
		return func(raw, _ string) (string, error) {
			return strings.ReplaceAll(raw, p.Find, p.Replacement), nil
		}, nil
	}), nil
}

// ReplaceRegexParams configures ReplaceRegex.
type ReplaceRegexParams struct {
	Pattern     string `yaml:"pattern" msgpack:"pattern"`
	Replacement string `yaml:"replacement" msgpack:"replacement"`
}

// ReplaceRegex substitutes every match of p.Pattern, where ^ and $ match
// at line boundaries. The replacement may use $1 style group references.
// The pattern is compiled on first use.
func ReplaceRegex(name string, p ReplaceRegexParams) (formatter.Step, error) {
	if p.Pattern == "" {
		return nil, errors.New("replace_regex: pattern must not be empty")
	}
	return formatter.NewStep(name, p, func(p ReplaceRegexParams) (formatter.Func, error) {
		re, err := regexp.Compile("(?m)" + p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling %q: %w", p.Pattern, err)
		}
		return func(raw, _ string) (string, error) {
			return re.ReplaceAllString(raw, p.Replacement), nil
		}, nil
	}), nil
}
