// Package paddedcell classifies how a formatting pipeline behaves when it
// is applied to its own output: it either converges on a fixed point,
// cycles between a few states, or keeps producing new output.
package paddedcell

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
)

// DefaultMaxCycle bounds how many states are examined before giving up.
const DefaultMaxCycle = 10

// ErrNoCanonical is returned by Canonical for diverging results.
var ErrNoCanonical = errors.New("no canonical form for a diverging result")

// Type is the behavior a Result describes.
type Type int

// Result types.
const (
	Converge Type = iota
	Cycle
	Diverge
)

// String returns the lowercase name used in messages and diagnosis files.
func (t Type) String() string {
	switch t {
	case Converge:
		return "converge"
	case Cycle:
		return "cycle"
	case Diverge:
		return "diverge"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Computer applies the full pipeline once.
type Computer interface {
	Compute(unix, file string) string
}

// ComputeFunc adapts a function to Computer.
type ComputeFunc func(unix, file string) string

// Compute implements Computer.
func (fn ComputeFunc) Compute(unix, file string) string { return fn(unix, file) }

// Result is the classification of one file.
type Result struct {
	file       string
	typ        Type
	steps      []string
	iterations uint32
}

// File returns the file the result was computed for.
func (r *Result) File() string { return r.file }

// Type returns the classification.
func (r *Result) Type() Type { return r.typ }

// Steps returns the trace: the states up to the fixed point for Converge,
// the loop starting at its canonical element for Cycle, and every state
// seen for Diverge.
func (r *Result) Steps() []string { return slices.Clone(r.steps) }

// Iterations returns how many applications it took to reach the fixed
// point. Only meaningful for Converge.
func (r *Result) Iterations() uint32 { return r.iterations }

// Misbehaved reports whether the pipeline is anything other than
// idempotent on this input.
func (r *Result) Misbehaved() bool {
	wellBehaved := r.typ == Converge && len(r.steps) <= 1
	return !wellBehaved
}

// Resolvable reports whether a single canonical value exists.
func (r *Result) Resolvable() bool { return r.typ != Diverge }

// Canonical returns the value that is safe to write: the fixed point of a
// converging result or the first element of a cycle.
func (r *Result) Canonical() (string, error) {
	switch r.typ {
	case Converge:
		return r.steps[len(r.steps)-1], nil
	case Cycle:
		return r.steps[0], nil
	default:
		return "", ErrNoCanonical
	}
}

// UserMessage describes the result, e.g. "cycles between 2 steps".
func (r *Result) UserMessage() string {
	switch r.typ {
	case Converge:
		return fmt.Sprintf("converges after %d steps", len(r.steps))
	case Cycle:
		return fmt.Sprintf("cycles between %d steps", len(r.steps))
	default:
		return fmt.Sprintf("diverges after %d steps", len(r.steps))
	}
}

// Check classifies original with DefaultMaxCycle.
func Check(c Computer, file, originalUnix string) *Result {
	r, err := CheckN(c, file, originalUnix, DefaultMaxCycle)
	if err != nil {
		// DefaultMaxCycle is always a valid bound.
		panic(err)
	}
	return r
}

// CheckN applies c repeatedly to original, examining at most maxLength
// states. maxLength must be at least 2.
func CheckN(c Computer, file, original string, maxLength int) (*Result, error) {
	if maxLength < 2 {
		return nil, fmt.Errorf("maxLength must be at least 2, got %d", maxLength)
	}

	appliedOnce := c.Compute(original, file)
	if appliedOnce == original {
		return converge(file, []string{appliedOnce}, 0)
	}
	appliedTwice := c.Compute(appliedOnce, file)
	if appliedTwice == appliedOnce {
		return converge(file, []string{appliedOnce}, 1)
	}

	applied := []string{appliedOnce, appliedTwice}
	for len(applied) < maxLength {
		last := applied[len(applied)-1]
		next := c.Compute(last, file)
		if next == last {
			return converge(file, applied, len(applied))
		}
		if idx := slices.Index(applied, next); idx >= 0 {
			if idx == len(applied)-1 {
				return converge(file, applied[:idx+1], idx)
			}
			return &Result{file: file, typ: Cycle, steps: rotate(applied[idx:])}, nil
		}
		applied = append(applied, next)
	}
	return &Result{file: file, typ: Diverge, steps: applied}, nil
}

func converge(file string, steps []string, iterations int) (*Result, error) {
	n, err := safecast.Conv[uint32](iterations)
	if err != nil {
		return nil, fmt.Errorf("iteration count: %w", err)
	}
	return &Result{file: file, typ: Converge, steps: slices.Clone(steps), iterations: n}, nil
}

// rotate returns a copy of loop starting at its shortest element, ties
// broken lexicographically.
func rotate(loop []string) []string {
	start := 0
	for i, s := range loop {
		if less(s, loop[start]) {
			start = i
		}
	}
	out := make([]string, 0, len(loop))
	out = append(out, loop[start:]...)
	return append(out, loop[:start]...)
}

func less(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return strings.Compare(a, b) < 0
}
