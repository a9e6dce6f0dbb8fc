package paddedcell

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/donaldgifford/cellfmt/internal/ctxlog"
	"github.com/donaldgifford/cellfmt/internal/formatter"
	"github.com/donaldgifford/cellfmt/internal/lineending"
)

// DefaultBudget is how long AnyMisbehave searches before giving up.
const DefaultBudget = 500 * time.Millisecond

// DiagnoseDir returns the directory diagnosis files for the named format
// are written to.
func DiagnoseDir(root, format string) string {
	return filepath.Join(root, "build", "cellfmt-diagnose-"+format)
}

// CheckFile reads file and classifies its content.
func CheckFile(f *formatter.Formatter, file string) (*Result, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	text, err := f.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Rel(file), err)
	}
	return Check(f, file, lineending.ToUnix(text)), nil
}

// AnyMisbehave reports whether any of the problem files is caused by a
// misbehaving pipeline. It stops searching once budget has elapsed, so a
// false answer only means none was found in time. A budget of zero or
// less searches every file.
func AnyMisbehave(ctx context.Context, f *formatter.Formatter, problemFiles []string, budget time.Duration) (bool, error) {
	start := time.Now()
	for _, file := range problemFiles {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		r, err := CheckFile(f, file)
		if err != nil {
			return false, err
		}
		if r.Misbehaved() {
			return true, nil
		}
		if budget > 0 && time.Since(start) > budget {
			return false, nil
		}
	}
	return false, nil
}

// CleanDir turns dir into an empty directory, creating it if needed.
func CleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cleaning %s: %w", dir, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("cleaning %s: %w", dir, err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

// Encoder converts text to file bytes.
type Encoder interface {
	Encode(text string) ([]byte, error)
}

// WriteDiagnosis writes every state of r next to relPath inside dir, as
// <relPath>.<type><index>. A nil enc writes UTF-8.
func WriteDiagnosis(dir, relPath string, r *Result, enc Encoder) error {
	base := filepath.Join(dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return fmt.Errorf("creating diagnosis dir: %w", err)
	}
	for i, state := range r.steps {
		data := []byte(state)
		if enc != nil {
			var err error
			if data, err = enc.Encode(state); err != nil {
				return fmt.Errorf("encoding %s state %d: %w", relPath, i, err)
			}
		}
		path := fmt.Sprintf("%s.%s%d", base, r.typ, i)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing diagnosis: %w", err)
		}
	}
	return nil
}

// BulkResult is the outcome of CheckBulk.
type BulkResult struct {
	// StillFailing are the files whose canonical form differs from the
	// content on disk, in input order.
	StillFailing []string
	// Unresolvable are the files the pipeline diverges on.
	Unresolvable []*Result
	// Misbehaving counts files which needed padded cell to resolve.
	Misbehaving int
}

// CheckBulk classifies every problem file, dumps the states of the
// misbehaving ones into diagnoseDir (emptied first) and returns the files
// which still fail after their canonical form is taken into account.
func CheckBulk(ctx context.Context, f *formatter.Formatter, diagnoseDir string, problemFiles []string) (*BulkResult, error) {
	logger := ctxlog.FromContext(ctx)
	if err := CleanDir(diagnoseDir); err != nil {
		return nil, err
	}

	out := &BulkResult{}
	for _, file := range problemFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		text, err := f.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Rel(file), err)
		}
		rel := f.Rel(file)
		logger.Debug("running padded cell check", "file", rel)

		r := Check(f, file, lineending.ToUnix(text))
		if !r.Misbehaved() {
			logger.Debug("well-behaved", "file", rel)
			out.StillFailing = append(out.StillFailing, file)
			continue
		}

		out.Misbehaving++
		if err := WriteDiagnosis(diagnoseDir, rel, r, f); err != nil {
			return nil, err
		}
		logger.Debug("misbehaving", "file", rel, "behavior", r.UserMessage())

		canonical, err := r.Canonical()
		if err != nil {
			out.Unresolvable = append(out.Unresolvable, r)
			continue
		}
		canonicalBytes, err := encode(f, file, canonical)
		if err != nil {
			return nil, err
		}
		if string(canonicalBytes) != string(raw) {
			out.StillFailing = append(out.StillFailing, file)
		}
	}
	return out, nil
}
