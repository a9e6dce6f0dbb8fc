package steps

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/donaldgifford/cellfmt/internal/formatter"
)

// TypeLicenseHeader is the config name of the LicenseHeader step.
const TypeLicenseHeader = "license_header"

// YearToken in a header is replaced with the current year. A header
// already carrying any year or year range there is kept as is.
const YearToken = "$YEAR"

// LicenseHeaderParams configures LicenseHeader.
type LicenseHeaderParams struct {
	Header string `yaml:"header" msgpack:"header"`
	// Delimiter is a regular expression matching the start of the first
	// line which is not part of the header.
	Delimiter string `yaml:"delimiter" msgpack:"delimiter"`
	// Year is the year substituted for YearToken. Zero means the current
	// year, resolved when the step is built.
	Year int `yaml:"year" msgpack:"year"`
}

// LicenseHeader replaces everything before the first line matching
// p.Delimiter with p.Header. Content without such a line is an error.
func LicenseHeader(p LicenseHeaderParams) (formatter.Step, error) {
	if p.Header == "" {
		return nil, errors.New("license_header: header must not be empty")
	}
	if p.Delimiter == "" {
		return nil, errors.New("license_header: delimiter must not be empty")
	}
	if strings.Contains(p.Delimiter, "\n") {
		return nil, errors.New("license_header: delimiter must not contain newlines")
	}
	if !strings.HasSuffix(p.Header, "\n") {
		p.Header += "\n"
	}
	if p.Year == 0 && strings.Contains(p.Header, YearToken) {
		p.Year = time.Now().Year()
	}

	return formatter.NewStep(TypeLicenseHeader, p, func(p LicenseHeaderParams) (formatter.Func, error) {
		delimiter, err := regexp.Compile("(?m)^" + p.Delimiter)
		if err != nil {
			return nil, fmt.Errorf("compiling delimiter %q: %w", p.Delimiter, err)
		}
		header := strings.ReplaceAll(p.Header, YearToken, strconv.Itoa(p.Year))
		existing := yearPattern(p.Header)

		return func(raw, _ string) (string, error) {
			loc := delimiter.FindStringIndex(raw)
			if loc == nil {
				return "", fmt.Errorf("unable to find delimiter regex %s", delimiter)
			}
			current := raw[:loc[0]]
			if current == header || (existing != nil && existing.MatchString(current)) {
				return raw, nil
			}
			return header + raw[loc[0]:], nil
		}, nil
	}), nil
}

// yearPattern matches header with any year or year range in place of each
// token, or returns nil when the header has no token.
func yearPattern(header string) *regexp.Regexp {
	parts := strings.Split(header, YearToken)
	if len(parts) == 1 {
		return nil
	}
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile(`\A` + strings.Join(parts, `[0-9]{4}(?:-[0-9]{4})?`) + `\z`)
}
