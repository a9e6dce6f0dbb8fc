// Package target resolves the files a format applies to.
package target

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrOutsideRoot is returned for an explicit path which is not under the
// project root.
var ErrOutsideRoot = errors.New("path is outside the project root")

// Resolve returns the files under root matching any include glob and no
// exclude glob. When args is not empty, only files at or under one of the
// args are kept. Paths are relative to root, slash separated, sorted and
// unique. Anything inside a .git directory is never returned.
func Resolve(root string, include, exclude, args []string) ([]string, error) {
	for _, p := range slices.Concat(include, exclude) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob %q", p)
		}
	}
	scopes, err := scopesFor(root, args)
	if err != nil {
		return nil, err
	}

	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", pattern, err)
		}
		for _, rel := range matches {
			if _, ok := seen[rel]; ok {
				continue
			}
			if inGitDir(rel) || matchesAny(exclude, rel) || !inScope(scopes, rel) {
				continue
			}
			seen[rel] = struct{}{}
			out = append(out, rel)
		}
	}
	slices.Sort(out)
	return out, nil
}

// scopesFor converts explicit paths to slash separated paths relative to
// root. A nil result means no restriction.
func scopesFor(root string, args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	scopes := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", arg, err)
		}
		if _, err := os.Stat(abs); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%s: no such file or directory", arg)
			}
			return nil, err
		}
		rel, err := filepath.Rel(absRoot, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%s: %w", arg, ErrOutsideRoot)
		}
		scopes = append(scopes, filepath.ToSlash(rel))
	}
	return scopes, nil
}

func inScope(scopes []string, rel string) bool {
	if scopes == nil {
		return true
	}
	for _, s := range scopes {
		if s == "." || s == rel || strings.HasPrefix(rel, s+"/") {
			return true
		}
	}
	return false
}

func inGitDir(rel string) bool {
	return rel == ".git" || strings.HasPrefix(rel, ".git/") || strings.Contains(rel, "/.git/")
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// Matcher returns a predicate reporting whether a file, given by any path,
// matches one of patterns relative to root. Files outside root never match.
func Matcher(root string, patterns []string) func(file string) bool {
	return func(file string) bool {
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return false
		}
		rel = filepath.ToSlash(rel)
		if rel == ".." || strings.HasPrefix(rel, "../") {
			return false
		}
		return matchesAny(patterns, rel)
	}
}
