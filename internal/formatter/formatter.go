// Package formatter runs an ordered pipeline of formatting steps over file
// content and enforces the resolved line ending on the result.
package formatter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/donaldgifford/cellfmt/internal/lineending"
)

// Formatter is an immutable pipeline of steps plus the encoding and line
// ending policy of one format. It is safe for concurrent use when its
// steps are.
type Formatter struct {
	name    string
	policy  lineending.Policy
	charset *Charset
	rootDir string
	steps   []Step
	logger  *slog.Logger
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithName sets the format name used in logs and diagnosis paths.
func WithName(name string) Option {
	return func(f *Formatter) { f.name = name }
}

// WithPolicy sets the line ending policy. Defaults to platform native.
func WithPolicy(p lineending.Policy) Option {
	return func(f *Formatter) { f.policy = p }
}

// WithCharset sets the file encoding. Defaults to UTF-8.
func WithCharset(c *Charset) Option {
	return func(f *Formatter) { f.charset = c }
}

// WithRootDir sets the directory file paths are reported relative to.
func WithRootDir(dir string) Option {
	return func(f *Formatter) { f.rootDir = dir }
}

// WithLogger sets the logger step failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(f *Formatter) { f.logger = l }
}

// New builds a Formatter running steps in order.
func New(steps []Step, opts ...Option) (*Formatter, error) {
	f := &Formatter{
		policy:  lineending.Fixed(lineending.PlatformNative),
		rootDir: ".",
		steps:   append([]Step(nil), steps...),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.charset == nil {
		c, err := LookupCharset(DefaultEncoding)
		if err != nil {
			return nil, err
		}
		f.charset = c
	}
	return f, nil
}

// Name returns the format name.
func (f *Formatter) Name() string { return f.name }

// Policy returns the line ending policy.
func (f *Formatter) Policy() lineending.Policy { return f.policy }

// Charset returns the file encoding.
func (f *Formatter) Charset() *Charset { return f.charset }

// RootDir returns the directory file paths are reported relative to.
func (f *Formatter) RootDir() string { return f.rootDir }

// Steps returns a copy of the steps in order.
func (f *Formatter) Steps() []Step { return append([]Step(nil), f.steps...) }

// Rel returns file relative to the root dir with forward slashes, or file
// itself when it lies outside the root.
func (f *Formatter) Rel(file string) string {
	rel, err := filepath.Rel(f.rootDir, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

// Compute runs every step over unix content. A failing step is logged and
// skipped so the next step sees the content as it was before it. Output
// is normalized back to unix newlines after each step.
func (f *Formatter) Compute(unix, file string) string {
	for _, step := range f.steps {
		formatted, err := step.Format(unix, file)
		if err != nil {
			f.logger.Warn("unable to apply step",
				"step", step.Name(), "file", f.Rel(file), "error", err.Error())
			f.logger.Debug("step failure detail",
				"step", step.Name(), "file", f.Rel(file), "error", fmt.Sprintf("%+v", err))
			continue
		}
		unix = lineending.ToUnix(formatted)
	}
	return unix
}

// ComputeLineEndings converts unix content to the ending the policy
// resolves for file.
func (f *Formatter) ComputeLineEndings(unix, file string) string {
	return lineending.Apply(unix, f.policy.EndingFor(file).Sequence())
}

// Decode reads raw file bytes with the configured charset.
func (f *Formatter) Decode(raw []byte) (string, error) {
	return f.charset.Decode(raw)
}

// Encode writes text with the configured charset.
func (f *Formatter) Encode(text string) ([]byte, error) {
	return f.charset.Encode(text)
}

// Format returns the raw text of file and its fully formatted form with
// line endings applied.
func (f *Formatter) Format(file string, raw []byte) (text, formatted string, err error) {
	text, err = f.Decode(raw)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", f.Rel(file), err)
	}
	unix := f.Compute(lineending.ToUnix(text), file)
	return text, f.ComputeLineEndings(unix, file), nil
}

// IsClean reports whether file's content and line endings are already
// formatted. Line endings are checked before any step runs.
func (f *Formatter) IsClean(file string) (bool, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", file, err)
	}
	text, err := f.Decode(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", f.Rel(file), err)
	}
	unix := lineending.ToUnix(text)

	totalNewlines := strings.Count(unix, "\n")
	windowsNewlines := len(text) - len(unix)
	if lineending.IsUnix(f.policy, file) {
		if windowsNewlines != 0 {
			return false, nil
		}
	} else if windowsNewlines != totalNewlines {
		return false, nil
	}

	return f.Compute(unix, file) == unix, nil
}

// ApplyFormat formats file in place. The file is only written when its
// bytes change.
func (f *Formatter) ApplyFormat(file string) (changed bool, err error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", file, err)
	}
	_, formatted, err := f.Format(file, raw)
	if err != nil {
		return false, err
	}
	out, err := f.Encode(formatted)
	if err != nil {
		return false, fmt.Errorf("%s: %w", f.Rel(file), err)
	}
	if bytes.Equal(raw, out) {
		return false, nil
	}
	if err := WriteFile(file, out); err != nil {
		return false, err
	}
	return true, nil
}

// WriteFile replaces the content of an existing file, keeping its mode.
func WriteFile(file string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(file); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(file, data, mode); err != nil {
		return fmt.Errorf("writing %s: %w", file, err)
	}
	return nil
}

// Finish hints that the steps will not be used for a while. Steps
// implementing io.Closer release their resources.
func (f *Formatter) Finish() error {
	var errs []error
	for _, step := range f.steps {
		c, ok := step.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Identity is the ordered list of step keys plus the encoding and line
// ending settings. Equal identities format identically.
type Identity struct {
	Name    string
	Charset string
	Steps   []StepKey
}

// Identity computes the identity of the pipeline. It fails when any step
// has no key.
func (f *Formatter) Identity() (Identity, error) {
	id := Identity{Name: f.name, Charset: f.charset.Name()}
	for _, step := range f.steps {
		k, err := keyOf(step)
		if err != nil {
			return Identity{}, err
		}
		id.Steps = append(id.Steps, k)
	}
	return id, nil
}

// Equal reports whether two identities describe the same pipeline.
func (id Identity) Equal(other Identity) bool {
	if id.Name != other.Name || id.Charset != other.Charset || len(id.Steps) != len(other.Steps) {
		return false
	}
	for i := range id.Steps {
		if id.Steps[i] != other.Steps[i] {
			return false
		}
	}
	return true
}
