package paddedcell

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/donaldgifford/cellfmt/internal/formatter"
	"github.com/donaldgifford/cellfmt/internal/lineending"
)

// errNotDirty is returned when canonical bytes are requested from a clean
// or non-converging state.
var errNotDirty = errors.New("state has no canonical bytes; check IsClean and DidNotConverge first")

type dirtyKind int

const (
	clean dirtyKind = iota
	didNotConverge
	dirty
)

// DirtyState is the outcome of a padded apply: the file is clean, the
// pipeline did not converge, or the file must be rewritten.
type DirtyState struct {
	kind      dirtyKind
	canonical []byte
	result    *Result
}

// IsClean reports whether the file already has its canonical form.
func (d DirtyState) IsClean() bool { return d.kind == clean }

// DidNotConverge reports whether the pipeline diverged on the file.
func (d DirtyState) DidNotConverge() bool { return d.kind == didNotConverge }

// Result returns the full classification when one was needed, or nil when
// a fast path decided the state.
func (d DirtyState) Result() *Result { return d.result }

// CanonicalBytes returns the bytes to write for a dirty file.
func (d DirtyState) CanonicalBytes() ([]byte, error) {
	if d.kind != dirty {
		return nil, errNotDirty
	}
	return d.canonical, nil
}

// WriteCanonicalTo writes the canonical bytes to file.
func (d DirtyState) WriteCanonicalTo(file string) error {
	b, err := d.CanonicalBytes()
	if err != nil {
		return err
	}
	return formatter.WriteFile(file, b)
}

// CalculateDirtyStateFile reads file and calls CalculateDirtyState.
func CalculateDirtyStateFile(f *formatter.Formatter, file string) (DirtyState, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return DirtyState{}, fmt.Errorf("reading %s: %w", file, err)
	}
	return CalculateDirtyState(f, file, raw)
}

// CalculateDirtyState decides whether rawBytes, the content of file, are
// clean under f. Most dirty files are dirty in an idempotent way, which is
// detected after two applications; everything else goes through a full
// Check.
func CalculateDirtyState(f *formatter.Formatter, file string, rawBytes []byte) (DirtyState, error) {
	raw, err := f.Decode(rawBytes)
	if err != nil {
		return DirtyState{}, fmt.Errorf("%s: %w", f.Rel(file), err)
	}
	rawUnix := lineending.ToUnix(raw)

	formattedUnix := f.Compute(rawUnix, file)
	formattedBytes, err := encode(f, file, formattedUnix)
	if err != nil {
		return DirtyState{}, err
	}
	if bytes.Equal(rawBytes, formattedBytes) {
		return DirtyState{kind: clean}, nil
	}

	if f.Compute(formattedUnix, file) == formattedUnix {
		return DirtyState{kind: dirty, canonical: formattedBytes}, nil
	}

	cell := Check(f, file, rawUnix)
	canonicalUnix, err := cell.Canonical()
	if err != nil {
		return DirtyState{kind: didNotConverge, result: cell}, nil
	}
	canonicalBytes, err := encode(f, file, canonicalUnix)
	if err != nil {
		return DirtyState{}, err
	}
	if bytes.Equal(rawBytes, canonicalBytes) {
		return DirtyState{kind: clean, result: cell}, nil
	}
	return DirtyState{kind: dirty, canonical: canonicalBytes, result: cell}, nil
}

func encode(f *formatter.Formatter, file, unix string) ([]byte, error) {
	b, err := f.Encode(f.ComputeLineEndings(unix, file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Rel(file), err)
	}
	return b, nil
}
