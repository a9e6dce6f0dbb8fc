// Package main is the entry point for cellfmt.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/donaldgifford/cellfmt/internal/runner"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type globalFlags struct {
	config    string
	format    string
	jobs      int
	color     string
	quiet     bool
	verbose   bool
	logLevel  string
	logFormat string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs the command line in args and returns the exit code.
func execute(ctx context.Context, args []string) int {
	exitCode := runner.ExitOK
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "cellfmt",
		Short: "Check and apply formatting steps to files",
		Long: `cellfmt runs configured formatting steps over files, reports violations
as bounded diffs and rewrites files to their canonical form. Steps which
fail to converge are detected and resolved with padded cell mode.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetArgs(args)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "path to config file")
	pf.StringVar(&flags.format, "format", "", "only run the named format")
	pf.IntVar(&flags.jobs, "jobs", 0, "files processed concurrently (default: number of CPUs)")
	pf.StringVar(&flags.color, "color", "auto", "colorize output (auto|on|off)")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "suppress informational output")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "print files as they are processed")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format (text|json)")

	command := func(cmd runner.Command, short string) *cobra.Command {
		return &cobra.Command{
			Use:   string(cmd) + " [paths...]",
			Short: short,
			RunE: func(c *cobra.Command, paths []string) error {
				opts, err := flags.options(cmd, paths)
				if err != nil {
					return err
				}
				opts.Stdout = c.OutOrStdout()
				opts.Stderr = c.ErrOrStderr()
				exitCode = runner.Run(c.Context(), opts)
				return nil
			},
		}
	}

	root.AddCommand(
		command(runner.CommandCheck, "Report files which are not formatted"),
		command(runner.CommandApply, "Rewrite files to their canonical form"),
		command(runner.CommandDiff, "Print the changes apply would make"),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(c *cobra.Command, _ []string) {
				fmt.Fprintf(c.OutOrStdout(), "cellfmt %s (%s) %s\n", version, commit, date)
			},
		},
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "cellfmt: %v\n", err)
		return runner.ExitError
	}
	return exitCode
}

func (g *globalFlags) options(cmd runner.Command, paths []string) (*runner.Options, error) {
	color, err := useColor(g.color, os.Stderr)
	if err != nil {
		return nil, err
	}
	return &runner.Options{
		Command:    cmd,
		Paths:      paths,
		ConfigPath: g.config,
		Format:     g.format,
		Jobs:       g.jobs,
		Color:      color,
		Quiet:      g.quiet,
		Verbose:    g.verbose,
		LogLevel:   g.logLevel,
		LogFormat:  g.logFormat,
	}, nil
}

// useColor resolves the --color flag. auto colors only when f is a
// terminal.
func useColor(mode string, f *os.File) (bool, error) {
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(f), nil
	default:
		return false, fmt.Errorf("invalid --color %q (want auto|on|off)", mode)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
