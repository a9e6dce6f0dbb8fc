package paddedcell

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lowercase = ComputeFunc(func(s, _ string) string { return strings.ToLower(s) })

	toggleAB = ComputeFunc(func(s, _ string) string {
		if s == "A" {
			return "B"
		}
		return "A"
	})

	dropLastChar = ComputeFunc(func(s, _ string) string {
		if s == "" {
			return s
		}
		return s[:len(s)-1]
	})

	appendSpace = ComputeFunc(func(s, _ string) string { return s + " " })
)

func TestCheckAlreadyClean(t *testing.T) {
	r := Check(lowercase, "f", "abc")
	assert.Equal(t, Converge, r.Type())
	assert.Equal(t, uint32(0), r.Iterations())
	assert.False(t, r.Misbehaved())

	canonical, err := r.Canonical()
	require.NoError(t, err)
	assert.Equal(t, "abc", canonical)
}

func TestCheckIdempotentDirty(t *testing.T) {
	r := Check(lowercase, "f", "ABC")
	assert.Equal(t, Converge, r.Type())
	assert.Equal(t, uint32(1), r.Iterations())
	assert.False(t, r.Misbehaved())
	assert.Equal(t, "converges after 1 steps", r.UserMessage())

	canonical, err := r.Canonical()
	require.NoError(t, err)
	assert.Equal(t, "abc", canonical)
}

func TestCheckCycle(t *testing.T) {
	r := Check(toggleAB, "f", "CCC")
	assert.Equal(t, Cycle, r.Type())
	assert.Equal(t, []string{"A", "B"}, r.Steps())
	assert.True(t, r.Misbehaved())
	assert.True(t, r.Resolvable())
	assert.Equal(t, "cycles between 2 steps", r.UserMessage())

	canonical, err := r.Canonical()
	require.NoError(t, err)
	assert.Equal(t, "A", canonical)
}

func TestCheckConvergesSlowly(t *testing.T) {
	r := Check(dropLastChar, "f", "CCC")
	assert.Equal(t, Converge, r.Type())
	assert.Equal(t, uint32(3), r.Iterations())
	assert.Equal(t, []string{"CC", "C", ""}, r.Steps())
	assert.True(t, r.Misbehaved())

	canonical, err := r.Canonical()
	require.NoError(t, err)
	assert.Empty(t, canonical)
}

func TestCheckDiverge(t *testing.T) {
	r := Check(appendSpace, "f", "C")
	assert.Equal(t, Diverge, r.Type())
	require.Len(t, r.Steps(), DefaultMaxCycle)
	for i, s := range r.Steps() {
		assert.Equal(t, "C"+strings.Repeat(" ", i+1), s)
	}
	assert.False(t, r.Resolvable())
	assert.True(t, r.Misbehaved())
	assert.Equal(t, "diverges after 10 steps", r.UserMessage())

	_, err := r.Canonical()
	assert.ErrorIs(t, err, ErrNoCanonical)
}

func TestCheckNBounds(t *testing.T) {
	_, err := CheckN(appendSpace, "f", "C", 1)
	assert.Error(t, err)

	r, err := CheckN(appendSpace, "f", "C", 2)
	require.NoError(t, err)
	assert.Equal(t, Diverge, r.Type())
	assert.Len(t, r.Steps(), 2)
}

// cycleOf returns a pipeline walking through states in order forever,
// entering the loop from any other input at states[0].
func cycleOf(states ...string) ComputeFunc {
	return func(s, _ string) string {
		for i, st := range states {
			if st == s {
				return states[(i+1)%len(states)]
			}
		}
		return states[0]
	}
}

func TestCycleRotation(t *testing.T) {
	tests := []struct {
		name   string
		states []string
		want   []string
	}{
		{"shortest first", []string{"ccc", "a", "bb"}, []string{"a", "bb", "ccc"}},
		{"ties broken alphabetically", []string{"yy", "xx", "zz"}, []string{"xx", "zz", "yy"}},
		{"already canonical", []string{"1", "22"}, []string{"1", "22"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Check(cycleOf(tt.states...), "f", "start")
			require.Equal(t, Cycle, r.Type())
			if diff := cmp.Diff(tt.want, r.Steps()); diff != "" {
				t.Errorf("loop mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCycleDeterministicAcrossEntryPoints(t *testing.T) {
	pipeline := cycleOf("bbb", "a", "cc")
	first := Check(pipeline, "f", "bbb").Steps()
	for _, entry := range []string{"a", "cc", "elsewhere"} {
		assert.Equal(t, first, Check(pipeline, "f", entry).Steps(), "entry %q", entry)
	}
}

func TestCycleLoopWellFormed(t *testing.T) {
	pipeline := cycleOf("one", "two", "three", "four")
	r := Check(pipeline, "f", "x")
	require.Equal(t, Cycle, r.Type())

	loop := r.Steps()
	seen := map[string]bool{}
	for i, s := range loop {
		assert.False(t, seen[s], "state %q repeats", s)
		seen[s] = true
		assert.Equal(t, loop[(i+1)%len(loop)], pipeline.Compute(s, "f"))
	}
}

func TestConvergeIsIdempotent(t *testing.T) {
	for _, input := range []string{"", "A", "ABC", "hello WORLD"} {
		for _, c := range []Computer{lowercase, dropLastChar} {
			r := Check(c, "f", input)
			if r.Type() != Converge {
				continue
			}
			canonical, err := r.Canonical()
			require.NoError(t, err)
			assert.Equal(t, canonical, c.Compute(canonical, "f"))
		}
	}
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "converge", Converge.String())
	assert.Equal(t, "cycle", Cycle.String())
	assert.Equal(t, "diverge", Diverge.String())
}
