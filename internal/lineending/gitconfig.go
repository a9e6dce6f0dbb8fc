package lineending

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// repository locates a git work tree and its git directory.
type repository struct {
	workTree string
	gitDir   string
}

// findRepository walks up from start looking for a ".git" directory or a
// ".git" file pointing at one (worktrees, submodules).
func findRepository(start string) (*repository, error) {
	dir := filepath.Clean(start)
	for {
		dotGit := filepath.Join(dir, ".git")
		info, err := os.Stat(dotGit)
		if err == nil {
			if info.IsDir() {
				return &repository{workTree: dir, gitDir: dotGit}, nil
			}
			gitDir, err := readGitFile(dotGit)
			if err != nil {
				return nil, err
			}
			return &repository{workTree: dir, gitDir: gitDir}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

func readGitFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	line := strings.TrimSpace(string(data))
	target, ok := strings.CutPrefix(line, "gitdir:")
	if !ok {
		return "", fmt.Errorf("%s: missing gitdir: prefix", path)
	}
	target = strings.TrimSpace(target)
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return filepath.Clean(target), nil
}

// gitConfig is the merged view of the git config files that matter for
// line endings. Later files override earlier ones.
type gitConfig struct {
	file *ini.File
}

func loadGitConfig(paths ...string) (*gitConfig, error) {
	sources := make([]any, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			sources = append(sources, p)
		}
	}
	opts := ini.LoadOptions{
		Loose:            true,
		Insensitive:      true,
		AllowBooleanKeys: true,
	}
	if len(sources) == 0 {
		return &gitConfig{file: ini.Empty(opts)}, nil
	}
	f, err := ini.LoadSources(opts, sources[0], sources[1:]...)
	if err != nil {
		return nil, err
	}
	return &gitConfig{file: f}, nil
}

func (c *gitConfig) core(key string) (string, bool) {
	sec, err := c.file.GetSection("core")
	if err != nil || !sec.HasKey(key) {
		return "", false
	}
	return strings.TrimSpace(sec.Key(key).String()), true
}

// expandHome resolves a leading "~/" against home.
func expandHome(path, home string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return path
}
