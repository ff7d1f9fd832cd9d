package filter

import (
	"path"
	"path/filepath"
	"strings"
)

// DefaultSkipNames are sync-client metadata files that never belong in a
// migration. Matching is case-insensitive.
var DefaultSkipNames = []string{
	"desktop.ini",
	"thumbs.db",
	".ds_store",
	".dropbox",
	".dropbox.attr",
	"icon\r",
}

// Rule represents a single include or exclude filter rule.
type Rule struct {
	Pattern *compiledPattern
	Include bool // true=include, false=exclude
}

// Chain holds the skip-name set, an ordered list of glob rules and size filters.
type Chain struct {
	skipNames map[string]struct{}
	rules     []Rule
	minSize   int64
	maxSize   int64
}

// NewChain creates an empty filter chain.
func NewChain() *Chain {
	return &Chain{skipNames: make(map[string]struct{})}
}

// AddSkipName excludes every file whose base name equals name, ignoring case.
func (c *Chain) AddSkipName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	c.skipNames[strings.ToLower(name)] = struct{}{}
}

// SkipNames returns the number of names in the skip set.
func (c *Chain) SkipNames() int { return len(c.skipNames) }

// AddExclude adds an exclude rule for the given pattern.
func (c *Chain) AddExclude(pattern string) error {
	cp, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{Pattern: cp, Include: false})
	return nil
}

// AddInclude adds an include rule for the given pattern.
func (c *Chain) AddInclude(pattern string) error {
	cp, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{Pattern: cp, Include: true})
	return nil
}

// SetMinSize sets the minimum file size filter.
func (c *Chain) SetMinSize(n int64) {
	c.minSize = n
}

// SetMaxSize sets the maximum file size filter.
func (c *Chain) SetMaxSize(n int64) {
	c.maxSize = n
}

// Empty reports whether the chain has no skip names, rules or size filters.
func (c *Chain) Empty() bool {
	return len(c.skipNames) == 0 && len(c.rules) == 0 && c.minSize == 0 && c.maxSize == 0
}

// Match returns true if the path should be INCLUDED (not filtered out).
// relPath is relative to the source root, isDir indicates directories,
// and size is the file size (ignored for directories).
func (c *Chain) Match(relPath string, isDir bool, size int64) bool {
	relPath = filepath.ToSlash(relPath)

	if !isDir {
		if _, skip := c.skipNames[strings.ToLower(path.Base(relPath))]; skip {
			return false
		}
		if c.minSize > 0 && size < c.minSize {
			return false
		}
		if c.maxSize > 0 && size > c.maxSize {
			return false
		}
	}

	// First match wins.
	for _, rule := range c.rules {
		if rule.Pattern.match(relPath, isDir) {
			return rule.Include
		}
	}

	return true
}
