// Package config defines the configuration types and defaults for cellfmt.
package config

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/cellfmt/internal/formatter"
	"github.com/donaldgifford/cellfmt/internal/lineending"
	"github.com/donaldgifford/cellfmt/internal/report"
	"github.com/donaldgifford/cellfmt/internal/rules"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the top-level configuration.
type Config struct {
	Root    string         `yaml:"root" toml:"root"`
	Formats []FormatConfig `yaml:"formats" toml:"formats"`
	Report  ReportConfig   `yaml:"report" toml:"report"`
	Log     LogConfig      `yaml:"log" toml:"log"`
}

// FormatConfig describes one set of files and the steps applied to them.
type FormatConfig struct {
	Name        string       `yaml:"name" toml:"name"`
	Target      []string     `yaml:"target" toml:"target"`
	Exclude     []string     `yaml:"exclude" toml:"exclude"`
	Encoding    string       `yaml:"encoding" toml:"encoding"`
	LineEndings string       `yaml:"line_endings" toml:"line_endings"`
	PaddedCell  bool         `yaml:"padded_cell" toml:"padded_cell"`
	Steps       []StepConfig `yaml:"steps" toml:"steps"`
}

// StepConfig is one configured step. Files optionally restricts the step
// to matching paths relative to the root. Every other key is a parameter
// of the step.
type StepConfig struct {
	Type   string
	Name   string
	Files  []string
	Params rules.Params
}

// ReportConfig bounds the violation report.
type ReportConfig struct {
	MaxLines        int    `yaml:"max_lines" toml:"max_lines"`
	MinLinesPerFile int    `yaml:"min_lines_per_file" toml:"min_lines_per_file"`
	MaxFilesToList  int    `yaml:"max_files_to_list" toml:"max_files_to_list"`
	RunToFix        string `yaml:"run_to_fix" toml:"run_to_fix"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// DefaultConfig returns a Config with every default filled in and no
// formats.
func DefaultConfig() *Config {
	limits := report.DefaultLimits()
	return &Config{
		Root: ".",
		Report: ReportConfig{
			MaxLines:        limits.MaxLines,
			MinLinesPerFile: limits.MinLinesPerFile,
			MaxFilesToList:  limits.MaxFilesToList,
			RunToFix:        report.DefaultRunToFix,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// applyDefaults fills the per-format fields a file may leave out.
func (c *Config) applyDefaults() {
	if c.Root == "" {
		c.Root = "."
	}
	for i := range c.Formats {
		f := &c.Formats[i]
		if f.Encoding == "" {
			f.Encoding = formatter.DefaultEncoding
		}
		if f.LineEndings == "" {
			f.LineEndings = string(lineending.ModeGitAttributes)
		}
	}
}

// Limits returns the report limits.
func (r ReportConfig) Limits() report.Limits {
	return report.Limits{
		MaxLines:        r.MaxLines,
		MinLinesPerFile: r.MinLinesPerFile,
		MaxFilesToList:  r.MaxFilesToList,
	}
}

// Format returns the format named name.
func (c *Config) Format(name string) (*FormatConfig, bool) {
	for i := range c.Formats {
		if c.Formats[i].Name == name {
			return &c.Formats[i], true
		}
	}
	return nil, false
}

// StepName is the configured name, or the type when none was given.
func (s StepConfig) StepName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Type
}

// UnmarshalYAML splits a step mapping into its type, name and params.
func (s *StepConfig) UnmarshalYAML(value *yaml.Node) error {
	var m map[string]any
	if err := value.Decode(&m); err != nil {
		return err
	}
	return s.fromMap(m)
}

// UnmarshalTOML does the same for a TOML table.
func (s *StepConfig) UnmarshalTOML(data any) error {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("step must be a table, got %T", data)
	}
	return s.fromMap(m)
}

func (s *StepConfig) fromMap(m map[string]any) error {
	typ, ok := m["type"].(string)
	if !ok || typ == "" {
		return errors.New("step is missing a type")
	}
	s.Type = typ
	s.Name = ""
	if name, ok := m["name"]; ok {
		str, ok := name.(string)
		if !ok {
			return fmt.Errorf("step %s: name must be a string", typ)
		}
		s.Name = str
	}
	s.Files = nil
	if files, ok := m["files"]; ok {
		list, ok := files.([]any)
		if !ok {
			return fmt.Errorf("step %s: files must be a list", typ)
		}
		for _, f := range list {
			str, ok := f.(string)
			if !ok {
				return fmt.Errorf("step %s: files must be strings", typ)
			}
			s.Files = append(s.Files, str)
		}
	}
	s.Params = nil
	for k, v := range m {
		if k == "type" || k == "name" || k == "files" {
			continue
		}
		if s.Params == nil {
			s.Params = rules.Params{}
		}
		s.Params[k] = v
	}
	return nil
}

// Validate reports the first problem found in c.
func (c *Config) Validate() error {
	if c.Report.MaxLines < 0 || c.Report.MinLinesPerFile < 0 || c.Report.MaxFilesToList < 0 {
		return fmt.Errorf("%w: report limits must not be negative", ErrInvalid)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Log.Format)
	}

	formats := make(map[string]struct{}, len(c.Formats))
	for i, f := range c.Formats {
		if f.Name == "" {
			return fmt.Errorf("%w: formats[%d] has no name", ErrInvalid, i)
		}
		if _, dup := formats[f.Name]; dup {
			return fmt.Errorf("%w: duplicate format %q", ErrInvalid, f.Name)
		}
		formats[f.Name] = struct{}{}
		if err := f.validate(); err != nil {
			return fmt.Errorf("%w: format %s: %w", ErrInvalid, f.Name, err)
		}
	}
	return nil
}

func (f *FormatConfig) validate() error {
	if _, err := lineending.ParseMode(f.LineEndings); err != nil {
		return err
	}
	if _, err := formatter.LookupCharset(f.Encoding); err != nil {
		return err
	}
	steps := make(map[string]struct{}, len(f.Steps))
	for _, s := range f.Steps {
		if !rules.Known(s.Type) {
			return fmt.Errorf("unknown step type %q", s.Type)
		}
		for _, p := range s.Files {
			if !doublestar.ValidatePattern(p) {
				return fmt.Errorf("step %s: invalid glob %q", s.StepName(), p)
			}
		}
		name := s.StepName()
		if _, dup := steps[name]; dup {
			return fmt.Errorf("duplicate step %q", name)
		}
		steps[name] = struct{}{}
	}
	return nil
}
