package formatter

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// ErrEncoding is returned when file bytes cannot be represented in the
// configured charset.
var ErrEncoding = errors.New("encoding error")

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "UTF-8"

// encodingContext is how many characters around a bad byte are quoted.
const encodingContext = 3

// Charsets tried when suggesting a better encoding, after the configured one.
var suggestedCharsets = []string{
	"UTF-8", "windows-1252", "ISO-8859-2", "Shift_JIS", "Big5", "GBK", "GB18030",
}

// Charset decodes file bytes to text and back.
type Charset struct {
	name string
	enc  encoding.Encoding
}

// LookupCharset resolves a WHATWG encoding label such as "utf-8" or "latin1".
func LookupCharset(label string) (*Charset, error) {
	if label == "" {
		label = DefaultEncoding
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = label
	}
	return &Charset{name: name, enc: enc}, nil
}

// Name returns the canonical name of the charset.
func (c *Charset) Name() string { return c.name }

func (c *Charset) isUTF8() bool { return strings.EqualFold(c.name, "utf-8") }

// Decode converts raw bytes to text. Bytes which are not valid in the
// charset yield an error wrapping ErrEncoding which points at the first
// bad position and lists charsets that would decode the file cleanly.
func (c *Charset) Decode(raw []byte) (string, error) {
	text, ok := c.decode(raw)
	if ok {
		return text, nil
	}
	return "", c.decodeError(raw, text)
}

// decode reports false when the decoded text does not round trip.
func (c *Charset) decode(raw []byte) (string, bool) {
	if c.isUTF8() {
		return string(raw), utf8.Valid(raw)
	}
	text, err := c.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	if !strings.ContainsRune(string(text), utf8.RuneError) {
		return string(text), true
	}
	// The replacement character may really be in the file.
	back, err := c.enc.NewEncoder().Bytes(text)
	return string(text), err == nil && string(back) == string(raw)
}

func (c *Charset) decodeError(raw []byte, text string) error {
	if c.isUTF8() {
		text = strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	}
	bad := strings.IndexRune(text, utf8.RuneError)
	if bad < 0 {
		bad = 0
	}
	line, col := 1, 1
	for _, r := range text[:bad] {
		switch r {
		case '\n':
			line++
			col = 1
		case '\r':
		default:
			col++
		}
	}

	var b strings.Builder
	if c.name == "utf-8" {
		b.WriteString("cellfmt uses UTF-8 by default.")
	} else {
		fmt.Fprintf(&b, "configured encoding is %s.", c.name)
	}
	fmt.Fprintf(&b, " At line %d col %d:", line, col)
	fmt.Fprintf(&b, "\n%s <- %s", excerpt(text, bad), c.name)
	for _, label := range suggestedCharsets {
		alt, err := LookupCharset(label)
		if err != nil || alt.name == c.name {
			continue
		}
		altText, ok := alt.decode(raw)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n%s <- %s", excerpt(altText, runeOffset(text, bad, altText)), alt.name)
	}
	return fmt.Errorf("%w: %s", ErrEncoding, b.String())
}

// Encode converts text to bytes in the charset.
func (c *Charset) Encode(text string) ([]byte, error) {
	if c.isUTF8() {
		return []byte(text), nil
	}
	out, err := c.enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot represent content in %s: %w", ErrEncoding, c.name, err)
	}
	return out, nil
}

// excerpt quotes a few characters either side of byte offset at.
func excerpt(text string, at int) string {
	runes := []rune(text)
	idx := utf8.RuneCountInString(text[:min(at, len(text))])
	start := max(0, idx-encodingContext)
	end := min(len(runes), idx+encodingContext+1)
	return strings.NewReplacer("\n", "␤", "\r", "").Replace(string(runes[start:end]))
}

// runeOffset maps byte offset at in text to the byte offset of the same
// rune index in other.
func runeOffset(text string, at int, other string) int {
	n := utf8.RuneCountInString(text[:at])
	for i := range other {
		if n == 0 {
			return i
		}
		n--
	}
	return len(other)
}
