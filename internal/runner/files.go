package runner

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/cellfmt/internal/config"
	"github.com/donaldgifford/cellfmt/internal/ctxlog"
	"github.com/donaldgifford/cellfmt/internal/formatter"
	"github.com/donaldgifford/cellfmt/internal/paddedcell"
	"github.com/donaldgifford/cellfmt/internal/report"
	"github.com/donaldgifford/cellfmt/pkg/diff"
)

// Status is the outcome for one file.
type Status int

// Statuses.
const (
	Clean Status = iota
	Violation
	Unresolvable
	Error
)

func (s Status) String() string {
	switch s {
	case Clean:
		return "clean"
	case Violation:
		return "violation"
	case Unresolvable:
		return "unresolvable"
	default:
		return "error"
	}
}

// fileResult is what one worker found for one file.
type fileResult struct {
	file   string
	status Status
	// output is printed on stdout in file order.
	output string
	err    error
}

// forEach runs fn over files with at most jobs at a time. Results are in
// file order. Only cancellation stops the run early; per-file failures
// are carried in the results.
func forEach(ctx context.Context, jobs int, files []string, fn func(ctx context.Context, file string) fileResult) ([]fileResult, error) {
	results := make([]fileResult, len(files))
	if len(files) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = fn(gctx, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// summarize prints per-file output and errors in file order and returns
// the exit code for the results of one format. With changesFail set a
// Violation is a failure.
func (r *runner) summarize(f *formatter.Formatter, results []fileResult, changesFail bool) int {
	code := ExitOK
	for _, res := range results {
		switch {
		case res.status == Error:
			writeErr(r.opts.Stderr, "cellfmt: %v\n", res.err)
			code = ExitError
		case res.output != "":
			writeOut(r.opts.Stdout, res.output)
		}
		if r.opts.Verbose {
			writeErr(r.opts.Stderr, "%s: %s\n", f.Rel(res.file), res.status)
		}
		if changesFail && res.status == Violation && code == ExitOK {
			code = ExitFormatDiff
		}
	}
	return code
}

func (r *runner) check(ctx context.Context, f *formatter.Formatter, fc *config.FormatConfig, files []string) int {
	logger := ctxlog.FromContext(ctx)

	results, err := forEach(ctx, r.opts.Jobs, files, func(_ context.Context, file string) fileResult {
		ok, err := f.IsClean(file)
		switch {
		case err != nil:
			return fileResult{file: file, status: Error, err: err}
		case ok:
			return fileResult{file: file, status: Clean}
		default:
			return fileResult{file: file, status: Violation}
		}
	})
	if err != nil {
		writeErr(r.opts.Stderr, "cellfmt: %v\n", err)
		return ExitError
	}

	var problemFiles []string
	for _, res := range results {
		if res.status == Violation {
			problemFiles = append(problemFiles, res.file)
		}
	}
	if len(problemFiles) == 0 {
		return r.summarize(f, results, false)
	}

	failing := problemFiles
	var unresolvable map[string]bool
	if fc.PaddedCell {
		failing, unresolvable, err = r.checkPadded(ctx, f, problemFiles)
	} else {
		err = r.checkMisbehave(ctx, f, problemFiles)
	}
	for i := range results {
		if unresolvable[results[i].file] {
			results[i].status = Unresolvable
		}
	}
	code := r.summarize(f, results, false)
	if err != nil {
		writeErr(r.opts.Stderr, "cellfmt: %v\n", err)
		return ExitError
	}
	if len(failing) == 0 {
		return code
	}

	verr, err := r.violations(f, failing, fc.PaddedCell)
	if err != nil {
		writeErr(r.opts.Stderr, "cellfmt: %v\n", err)
		return ExitError
	}
	logger.Debug("check failed", "error", verr.Error())
	if !r.opts.Quiet {
		writeErr(r.opts.Stderr, "%s\n", report.Colorize(verr.Report, r.opts.Color))
	}
	return max(code, ExitFormatDiff)
}

// checkMisbehave fails the check when a quick search finds a problem file
// the steps do not converge on.
func (r *runner) checkMisbehave(ctx context.Context, f *formatter.Formatter, problemFiles []string) error {
	misbehave, err := paddedcell.AnyMisbehave(ctx, f, problemFiles, paddedcell.DefaultBudget)
	if err != nil {
		return err
	}
	if misbehave {
		return fmt.Errorf("%w: the steps of format %s do not converge on some files; "+
			"set padded_cell: true on the format to resolve them and write a diagnosis to %s",
			ErrMisbehaving, f.Name(), paddedcell.DiagnoseDir(r.root, f.Name()))
	}
	return nil
}

// checkPadded classifies every problem file and returns those still failing
// once cycles are resolved, plus the set of unresolvable files. Those are
// warned about and dropped from the failing list.
func (r *runner) checkPadded(ctx context.Context, f *formatter.Formatter, problemFiles []string) ([]string, map[string]bool, error) {
	logger := ctxlog.FromContext(ctx)
	dir := paddedcell.DiagnoseDir(r.root, f.Name())

	bulk, err := paddedcell.CheckBulk(ctx, f, dir, problemFiles)
	if err != nil {
		return nil, nil, err
	}
	unresolvable := make(map[string]bool, len(bulk.Unresolvable))
	for _, u := range bulk.Unresolvable {
		unresolvable[u.File()] = true
		logger.Warn("unable to resolve file",
			"file", f.Rel(u.File()), "behavior", u.UserMessage(), "diagnosis", dir)
	}
	if bulk.Misbehaving == 0 {
		logger.Info("padded cell found no misbehaving files and can be turned off")
	} else {
		logger.Info("wrote padded cell diagnosis", "files", bulk.Misbehaving, "dir", dir)
	}
	return bulk.StillFailing, unresolvable, nil
}

// violations builds the report for the failing files. In padded mode the
// expected content is the canonical form instead of one pass of the steps.
func (r *runner) violations(f *formatter.Formatter, files []string, padded bool) (*ViolationError, error) {
	problems := make([]report.Problem, 0, len(files))
	rels := make([]string, 0, len(files))
	for _, file := range files {
		p, err := problemFor(f, file, padded)
		if err != nil {
			return nil, err
		}
		problems = append(problems, p)
		rels = append(rels, p.Path)
	}

	renderer := &report.Renderer{Limits: r.cfg.Report.Limits(), RunToFix: r.cfg.Report.RunToFix}
	return &ViolationError{Format: f.Name(), Files: rels, Report: renderer.Render(problems)}, nil
}

func problemFor(f *formatter.Formatter, file string, padded bool) (report.Problem, error) {
	rel := f.Rel(file)
	if !padded {
		raw, err := readFile(file)
		if err != nil {
			return report.Problem{}, err
		}
		text, formatted, err := f.Format(file, raw)
		if err != nil {
			return report.Problem{}, err
		}
		return report.Problem{Path: rel, Raw: text, Formatted: formatted}, nil
	}

	text, canonical, err := canonicalText(f, file)
	if err != nil {
		return report.Problem{}, err
	}
	return report.Problem{Path: rel, Raw: text, Formatted: canonical}, nil
}

// canonicalText returns the decoded content of file and the decoded
// content apply would write. Both are equal when there is nothing to do.
func canonicalText(f *formatter.Formatter, file string) (text, canonical string, err error) {
	raw, err := readFile(file)
	if err != nil {
		return "", "", err
	}
	text, err = f.Decode(raw)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", f.Rel(file), err)
	}
	state, err := paddedcell.CalculateDirtyState(f, file, raw)
	if err != nil {
		return "", "", err
	}
	if state.IsClean() || state.DidNotConverge() {
		return text, text, nil
	}
	b, err := state.CanonicalBytes()
	if err != nil {
		return "", "", err
	}
	canonical, err = f.Decode(b)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", f.Rel(file), err)
	}
	return text, canonical, nil
}

func (r *runner) apply(ctx context.Context, f *formatter.Formatter, files []string) int {
	logger := ctxlog.FromContext(ctx)

	results, err := forEach(ctx, r.opts.Jobs, files, func(_ context.Context, file string) fileResult {
		state, err := paddedcell.CalculateDirtyStateFile(f, file)
		if err != nil {
			return fileResult{file: file, status: Error, err: err}
		}
		switch {
		case state.IsClean():
			return fileResult{file: file, status: Clean}
		case state.DidNotConverge():
			logger.Warn("skipping file the steps do not converge on",
				"file", f.Rel(file), "behavior", state.Result().UserMessage())
			return fileResult{file: file, status: Unresolvable}
		}
		if err := state.WriteCanonicalTo(file); err != nil {
			return fileResult{file: file, status: Error, err: err}
		}
		res := fileResult{file: file, status: Violation}
		if !r.opts.Quiet {
			res.output = f.Rel(file) + "\n"
		}
		return res
	})
	if err != nil {
		writeErr(r.opts.Stderr, "cellfmt: %v\n", err)
		return ExitError
	}
	return r.summarize(f, results, false)
}

func (r *runner) diff(ctx context.Context, f *formatter.Formatter, files []string) int {
	results, err := forEach(ctx, r.opts.Jobs, files, func(_ context.Context, file string) fileResult {
		text, canonical, err := canonicalText(f, file)
		if err != nil {
			return fileResult{file: file, status: Error, err: err}
		}
		if text == canonical {
			return fileResult{file: file, status: Clean}
		}
		return fileResult{file: file, status: Violation, output: diff.Unified(f.Rel(file), text, canonical)}
	})
	if err != nil {
		writeErr(r.opts.Stderr, "cellfmt: %v\n", err)
		return ExitError
	}
	return r.summarize(f, results, true)
}

func readFile(file string) ([]byte, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return raw, nil
}
