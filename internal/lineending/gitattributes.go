package lineending

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// AttrState is how a .gitattributes rule assigns an attribute.
type AttrState int

const (
	// AttrSet is a bare "name".
	AttrSet AttrState = iota
	// AttrUnset is "-name".
	AttrUnset
	// AttrUnspecified is "!name".
	AttrUnspecified
	// AttrValue is "name=value".
	AttrValue
)

// Attribute is one attribute assignment of a rule.
type Attribute struct {
	Key   string
	Value string
	State AttrState
}

// Rule is a single non-comment line of a .gitattributes file.
type Rule struct {
	Pattern    string
	Attributes []Attribute

	anchored bool // pattern contains a slash, so it matches the full relative path.
	dirOnly  bool
	negated  bool
}

// Negated reports whether the rule used a "!pattern", which git forbids
// in attribute files. Negated rules never match.
func (r Rule) Negated() bool { return r.negated }

// Match reports whether the rule applies to the file at rel, a
// slash-separated path relative to the directory holding the rule file.
func (r Rule) Match(rel string) bool {
	if r.negated || r.dirOnly {
		return false
	}
	target := rel
	if !r.anchored {
		target = path.Base(rel)
	}
	ok, err := doublestar.Match(r.Pattern, target)
	return err == nil && ok
}

// ParseRules reads .gitattributes content. Blank lines, comments and macro
// definitions are skipped.
func ParseRules(r io.Reader) ([]Rule, error) {
	var rules []Rule
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "[attr]") {
			continue
		}
		rule, err := parseRule(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rules = append(rules, rule)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

func parseRule(line string) (Rule, error) {
	pattern, rest, err := splitPattern(line)
	if err != nil {
		return Rule{}, err
	}

	var rule Rule
	if strings.HasPrefix(pattern, "!") {
		rule.negated = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		rule.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.Contains(pattern, "/") {
		rule.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	}
	rule.Pattern = pattern

	for _, field := range strings.Fields(rest) {
		rule.Attributes = append(rule.Attributes, parseAttribute(field))
	}
	return rule, nil
}

// splitPattern separates the pattern from the attribute list, decoding a
// C-style quoted pattern.
func splitPattern(line string) (pattern, rest string, err error) {
	if !strings.HasPrefix(line, `"`) {
		idx := strings.IndexAny(line, " \t")
		if idx < 0 {
			return line, "", nil
		}
		return line[:idx], line[idx+1:], nil
	}

	var b strings.Builder
	for i := 1; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			return b.String(), line[i+1:], nil
		case c == '\\' && i+1 < len(line):
			i++
			switch line[i] {
			case 't':
				b.WriteByte('\t')
			case 'n':
				b.WriteByte('\n')
			default:
				b.WriteByte(line[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", "", fmt.Errorf("unterminated quoted pattern %s", line)
}

func parseAttribute(field string) Attribute {
	switch {
	case strings.HasPrefix(field, "-"):
		return Attribute{Key: field[1:], State: AttrUnset}
	case strings.HasPrefix(field, "!"):
		return Attribute{Key: field[1:], State: AttrUnspecified}
	}
	if key, value, ok := strings.Cut(field, "="); ok {
		return Attribute{Key: key, Value: value, State: AttrValue}
	}
	return Attribute{Key: field, State: AttrSet}
}

// FindAttribute returns the value of key for rel. Later rules override
// earlier ones; a set, unset or unspecified assignment clears any value an
// earlier rule gave.
func FindAttribute(rules []Rule, rel, key string) (string, bool) {
	value, found := "", false
	for _, rule := range rules {
		if !rule.Match(rel) {
			continue
		}
		for _, attr := range rule.Attributes {
			if attr.Key != key {
				continue
			}
			if attr.State == AttrValue {
				value, found = attr.Value, true
			} else {
				value, found = "", false
			}
		}
	}
	return value, found
}
