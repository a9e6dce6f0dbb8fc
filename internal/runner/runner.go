// Package runner orchestrates the resolve -> format -> report pipeline for
// every configured format.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/donaldgifford/cellfmt/internal/config"
	"github.com/donaldgifford/cellfmt/internal/ctxlog"
	"github.com/donaldgifford/cellfmt/internal/formatter"
	"github.com/donaldgifford/cellfmt/internal/lineending"
	"github.com/donaldgifford/cellfmt/internal/rules"
	"github.com/donaldgifford/cellfmt/internal/target"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitFormatDiff = 1
	ExitError      = 2
)

// Command selects what Run does with the resolved files.
type Command string

// Commands.
const (
	// CommandCheck reports violations without touching files.
	CommandCheck Command = "check"
	// CommandApply rewrites files to their canonical form.
	CommandApply Command = "apply"
	// CommandDiff prints what apply would change.
	CommandDiff Command = "diff"
)

var (
	// ErrViolations is wrapped by every ViolationError.
	ErrViolations = errors.New("format violations")
	// ErrMisbehaving means a check found files on which the steps do not
	// converge while padded cell is off.
	ErrMisbehaving = errors.New("steps misbehave")
)

// ViolationError is the failure of a check which found unformatted files.
type ViolationError struct {
	Format string
	Files  []string
	Report string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("format %s: %d files with violations", e.Format, len(e.Files))
}

func (e *ViolationError) Unwrap() error { return ErrViolations }

// Options configures the runner behavior.
type Options struct {
	Command    Command
	Paths      []string
	ConfigPath string
	// Format restricts the run to one format.
	Format string
	// Jobs bounds the files processed concurrently. Defaults to GOMAXPROCS.
	Jobs int
	// Color enables ANSI colors in the violation report.
	Color   bool
	Quiet   bool
	Verbose bool
	// LogLevel and LogFormat override the config file when set.
	LogLevel  string
	LogFormat string
	Stdout    io.Writer
	Stderr    io.Writer
	// Logger replaces the logger built from the settings above.
	Logger *slog.Logger
}

type runner struct {
	opts *Options
	cfg  *config.Config
	root string
}

// Run executes the command for every selected format and returns an exit
// code. The highest code of any format wins.
func Run(ctx context.Context, opts *Options) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Command == "" {
		opts.Command = CommandCheck
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		writeErr(opts.Stderr, "cellfmt: %v\n", err)
		return ExitError
	}

	logger := opts.Logger
	if logger == nil {
		logger = newLogger(opts, cfg)
	}
	ctx = ctxlog.WithLogger(ctx, logger)

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		writeErr(opts.Stderr, "cellfmt: resolving root: %v\n", err)
		return ExitError
	}
	r := &runner{opts: opts, cfg: cfg, root: root}

	formats, err := r.selectFormats()
	if err != nil {
		writeErr(opts.Stderr, "cellfmt: %v\n", err)
		return ExitError
	}
	if len(formats) == 0 {
		logger.Warn("no formats configured")
		return ExitOK
	}

	exitCode := ExitOK
	for _, fc := range formats {
		code := r.runFormat(ctx, fc)
		if code > exitCode {
			exitCode = code
		}
	}
	return exitCode
}

func newLogger(opts *Options, cfg *config.Config) *slog.Logger {
	level, format := cfg.Log.Level, cfg.Log.Format
	switch {
	case opts.LogLevel != "":
		level = opts.LogLevel
	case opts.Verbose:
		level = "debug"
	case opts.Quiet:
		level = "error"
	}
	if opts.LogFormat != "" {
		format = opts.LogFormat
	}
	return ctxlog.New(level, format, opts.Stderr)
}

func (r *runner) selectFormats() ([]*config.FormatConfig, error) {
	if r.opts.Format != "" {
		fc, ok := r.cfg.Format(r.opts.Format)
		if !ok {
			return nil, fmt.Errorf("unknown format %q", r.opts.Format)
		}
		return []*config.FormatConfig{fc}, nil
	}
	formats := make([]*config.FormatConfig, len(r.cfg.Formats))
	for i := range r.cfg.Formats {
		formats[i] = &r.cfg.Formats[i]
	}
	return formats, nil
}

func (r *runner) runFormat(ctx context.Context, fc *config.FormatConfig) int {
	logger := ctxlog.FromContext(ctx).With("format", fc.Name)
	ctx = ctxlog.WithLogger(ctx, logger)

	f, err := buildFormatter(ctx, r.root, fc)
	if err != nil {
		writeErr(r.opts.Stderr, "cellfmt: format %s: %v\n", fc.Name, err)
		return ExitError
	}
	defer func() {
		if err := f.Finish(); err != nil {
			logger.Warn("releasing steps", "error", err.Error())
		}
	}()

	rels, err := target.Resolve(r.root, fc.Target, fc.Exclude, r.opts.Paths)
	if err != nil {
		writeErr(r.opts.Stderr, "cellfmt: format %s: %v\n", fc.Name, err)
		return ExitError
	}
	logger.Debug("resolved targets", "files", len(rels))

	files := make([]string, len(rels))
	for i, rel := range rels {
		files[i] = filepath.Join(r.root, filepath.FromSlash(rel))
	}

	switch r.opts.Command {
	case CommandCheck:
		return r.check(ctx, f, fc, files)
	case CommandApply:
		return r.apply(ctx, f, files)
	case CommandDiff:
		return r.diff(ctx, f, files)
	default:
		writeErr(r.opts.Stderr, "cellfmt: unknown command %q\n", r.opts.Command)
		return ExitError
	}
}

// buildFormatter turns a format's configuration into its pipeline.
func buildFormatter(ctx context.Context, root string, fc *config.FormatConfig) (*formatter.Formatter, error) {
	logger := ctxlog.FromContext(ctx)

	steps := make([]formatter.Step, 0, len(fc.Steps))
	for _, sc := range fc.Steps {
		step, err := rules.Build(sc.Type, sc.Name, sc.Params)
		if err != nil {
			return nil, err
		}
		if len(sc.Files) > 0 {
			step = formatter.FilterByFile(step, sc.Files, target.Matcher(root, sc.Files))
		}
		steps = append(steps, step)
	}

	mode, err := lineending.ParseMode(fc.LineEndings)
	if err != nil {
		return nil, err
	}
	policy, err := lineending.NewPolicy(mode, root, logger)
	if err != nil {
		return nil, err
	}
	charset, err := formatter.LookupCharset(fc.Encoding)
	if err != nil {
		return nil, err
	}

	f, err := formatter.New(steps,
		formatter.WithName(fc.Name),
		formatter.WithPolicy(policy),
		formatter.WithCharset(charset),
		formatter.WithRootDir(root),
		formatter.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	if logger.Enabled(ctx, slog.LevelDebug) {
		if id, err := f.Identity(); err == nil {
			keys := make([]string, len(id.Steps))
			for i, k := range id.Steps {
				keys[i] = k.String()
			}
			logger.Debug("formatter ready", "charset", id.Charset, "line_endings", mode, "steps", keys)
		}
	}
	return f, nil
}

// writeOut writes to stdout.
func writeOut(w io.Writer, s string) {
	fmt.Fprint(w, s)
}

// writeErr formats and writes to stderr.
func writeErr(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
