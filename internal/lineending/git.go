package lineending

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const keyEOL = "eol"

// GitOptions configures a GitAttributes policy. Zero fields are filled from
// the environment.
type GitOptions struct {
	// Root is the directory whose files the policy is asked about.
	Root string
	// HomeDir holds ~/.gitconfig. Defaults to os.UserHomeDir.
	HomeDir string
	// XDGConfigHome holds git/config and git/attributes. Defaults to
	// $XDG_CONFIG_HOME, then HomeDir/.config.
	XDGConfigHome string
	// SystemConfig is the system-wide config file. Defaults to
	// $GIT_CONFIG_SYSTEM, then /etc/gitconfig.
	SystemConfig string
	Logger       *slog.Logger
}

// GitAttributes resolves line endings the way git does for checkouts:
//
//  1. <gitdir>/info/attributes, matched against the repo-relative path
//  2. the nearest .gitattributes between the file and the work tree root,
//     or opts.Root outside a repository
//  3. the global attributes file (core.attributesFile)
//  4. core.eol from the system, user and repository config
//  5. the platform native line ending
type GitAttributes struct {
	logger *slog.Logger

	workTree    string // empty outside a repository.
	base        string // paths for info and global rules are relative to this.
	infoRules   []Rule
	globalRules []Rule
	cache       *AttributesCache
	fallback    Kind
}

// NewGitAttributes builds the policy for files below opts.Root.
func NewGitAttributes(opts GitOptions) (*GitAttributes, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	opts = withEnvDefaults(opts)

	repo, err := findRepository(root)
	if err != nil {
		return nil, err
	}

	configPaths := []string{
		opts.SystemConfig,
		filepath.Join(opts.XDGConfigHome, "git", "config"),
		filepath.Join(opts.HomeDir, ".gitconfig"),
	}
	g := &GitAttributes{
		logger: logger,
		base:   root,
		cache:  NewAttributesCache(logger),
	}
	if repo != nil {
		g.workTree = repo.workTree
		g.base = repo.workTree
		g.infoRules = loadRules(filepath.Join(repo.gitDir, "info", "attributes"), logger)
		configPaths = append(configPaths, filepath.Join(repo.gitDir, "config"))
	}

	cfg, err := loadGitConfig(configPaths...)
	if err != nil {
		return nil, fmt.Errorf("reading git config: %w", err)
	}

	globalPath := filepath.Join(opts.XDGConfigHome, "git", "attributes")
	if p, ok := cfg.core("attributesfile"); ok && p != "" {
		globalPath = expandHome(p, opts.HomeDir)
	}
	g.globalRules = loadRules(globalPath, logger)

	g.fallback = PlatformNative
	if eol, ok := cfg.core(keyEOL); ok {
		g.fallback = g.configEOL(eol)
	}
	return g, nil
}

func withEnvDefaults(opts GitOptions) GitOptions {
	if opts.HomeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			opts.HomeDir = home
		}
	}
	if opts.XDGConfigHome == "" {
		opts.XDGConfigHome = os.Getenv("XDG_CONFIG_HOME")
		if opts.XDGConfigHome == "" && opts.HomeDir != "" {
			opts.XDGConfigHome = filepath.Join(opts.HomeDir, ".config")
		}
	}
	if opts.SystemConfig == "" {
		opts.SystemConfig = os.Getenv("GIT_CONFIG_SYSTEM")
		if opts.SystemConfig == "" {
			opts.SystemConfig = "/etc/gitconfig"
		}
	}
	return opts
}

// EndingFor implements Policy.
func (g *GitAttributes) EndingFor(file string) Kind {
	abs, err := filepath.Abs(file)
	if err != nil {
		abs = filepath.Clean(file)
	}

	if g.workTree != "" && len(g.infoRules) > 0 {
		if rel, ok := relativeTo(g.workTree, abs); ok {
			if eol, ok := FindAttribute(g.infoRules, rel, keyEOL); ok {
				return g.attributeEOL(eol, file)
			}
		}
	}

	if eol, ok := g.cache.ValueFor(abs, keyEOL, g.base); ok {
		return g.attributeEOL(eol, file)
	}

	if len(g.globalRules) > 0 {
		rel, ok := relativeTo(g.base, abs)
		if !ok {
			rel = filepath.ToSlash(abs)
		}
		if eol, ok := FindAttribute(g.globalRules, rel, keyEOL); ok {
			return g.attributeEOL(eol, file)
		}
	}

	return g.fallback
}

func (g *GitAttributes) attributeEOL(eol, file string) Kind {
	switch strings.ToLower(eol) {
	case "lf":
		return Unix
	case "crlf":
		return Windows
	default:
		g.logger.Warn("unrecognized eol attribute, using platform native",
			"eol", eol, "file", file)
		return PlatformNative
	}
}

func (g *GitAttributes) configEOL(eol string) Kind {
	switch strings.ToLower(eol) {
	case "lf":
		return Unix
	case "crlf":
		return Windows
	case "native", "":
		return PlatformNative
	default:
		g.logger.Warn("unrecognized core.eol, using platform native", "eol", eol)
		return PlatformNative
	}
}

// relativeTo returns path relative to base with forward slashes, or false
// when path is not below base.
func relativeTo(base, path string) (string, bool) {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
