package lineending

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// AttributesFile is the per-directory attributes file name.
const AttributesFile = ".gitattributes"

// AttributesCache parses and caches .gitattributes files by directory.
// Entries live as long as the cache; files changed afterwards are not
// re-read.
type AttributesCache struct {
	logger *slog.Logger

	mu      sync.Mutex
	rulesAt map[string][]Rule
}

// NewAttributesCache returns an empty cache.
func NewAttributesCache(logger *slog.Logger) *AttributesCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttributesCache{
		logger:  logger,
		rulesAt: make(map[string][]Rule),
	}
}

// ValueFor walks from the directory of file up to stop (inclusive), or to
// the filesystem root when stop is empty, and returns the value of key from
// the nearest .gitattributes which assigns it.
func (c *AttributesCache) ValueFor(file, key, stop string) (string, bool) {
	file = filepath.Clean(file)
	dir := filepath.Dir(file)
	rel := filepath.Base(file)
	for {
		if value, ok := FindAttribute(c.rulesFor(dir), rel, key); ok {
			return value, true
		}
		if stop != "" && dir == stop {
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		rel = filepath.Base(dir) + "/" + rel
		dir = parent
	}
}

func (c *AttributesCache) rulesFor(dir string) []Rule {
	c.mu.Lock()
	rules, ok := c.rulesAt[dir]
	c.mu.Unlock()
	if ok {
		return rules
	}

	rules = loadRules(filepath.Join(dir, AttributesFile), c.logger)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.rulesAt[dir]; ok {
		return existing
	}
	c.rulesAt[dir] = rules
	return rules
}

// loadRules parses the rules in path. A missing file yields no rules; an
// unreadable or malformed one is logged and also yields no rules.
func loadRules(path string, logger *slog.Logger) []Rule {
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("unable to read attributes file", "path", path, "error", err)
		}
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return nil
	}

	rules, err := ParseRules(f)
	if err != nil {
		logger.Warn("unable to parse attributes file", "path", path, "error", err)
		return nil
	}
	for _, r := range rules {
		if r.Negated() {
			logger.Warn("negative patterns are ignored in attributes files", "path", path, "pattern", "!"+r.Pattern)
		}
	}
	return rules
}
