package target

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/cellfmt/internal/testutil"
)

func tree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"README.md":          "",
		"a.txt":              "",
		"docs/b.txt":         "",
		"docs/deep/c.txt":    "",
		"vendor/d.txt":       "",
		"src/e.txt":          "",
		"src/f.go":           "",
		".git/config":        "",
		".git/objects/x.txt": "",
	})
	return root
}

func TestResolve(t *testing.T) {
	root := tree(t)

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    []string
	}{
		{
			name:    "recursive glob",
			include: []string{"**/*.txt"},
			want:    []string{"a.txt", "docs/b.txt", "docs/deep/c.txt", "src/e.txt", "vendor/d.txt"},
		},
		{
			name:    "exclude directory",
			include: []string{"**/*.txt"},
			exclude: []string{"vendor/**"},
			want:    []string{"a.txt", "docs/b.txt", "docs/deep/c.txt", "src/e.txt"},
		},
		{
			name:    "overlapping includes are deduplicated",
			include: []string{"**/*.txt", "docs/*.txt", "*.md"},
			exclude: []string{"vendor/**", "src/**"},
			want:    []string{"README.md", "a.txt", "docs/b.txt", "docs/deep/c.txt"},
		},
		{
			name:    "top level only",
			include: []string{"*"},
			want:    []string{"README.md", "a.txt"},
		},
		{
			name: "no includes",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(root, tt.include, tt.exclude, nil)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveArgs(t *testing.T) {
	root := tree(t)
	include := []string{"**/*.txt"}

	got, err := Resolve(root, include, nil, []string{filepath.Join(root, "docs")})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/b.txt", "docs/deep/c.txt"}, got)

	got, err = Resolve(root, include, nil, []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "src", "f.go"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, got, "args never widen the targets")

	got, err = Resolve(root, include, []string{"docs/deep/**"}, []string{root})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "docs/b.txt", "src/e.txt", "vendor/d.txt"}, got)
}

func TestResolveErrors(t *testing.T) {
	root := tree(t)

	_, err := Resolve(root, []string{"[a-"}, nil, nil)
	assert.ErrorContains(t, err, "invalid glob")

	_, err = Resolve(root, []string{"**/*.txt"}, nil, []string{filepath.Join(root, "missing")})
	assert.ErrorContains(t, err, "no such file or directory")

	_, err = Resolve(filepath.Join(root, "docs"), []string{"**/*.txt"}, nil, []string{filepath.Join(root, "a.txt")})
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestMatcher(t *testing.T) {
	root := t.TempDir()
	match := Matcher(root, []string{"docs/**", "*.md"})

	assert.True(t, match(filepath.Join(root, "docs", "deep", "a.txt")))
	assert.True(t, match(filepath.Join(root, "README.md")))
	assert.False(t, match(filepath.Join(root, "sub", "README.md")))
	assert.False(t, match(filepath.Join(filepath.Dir(root), "README.md")), "outside the root")
}
