package filter

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// compiledPattern is a validated, lower-cased glob that matches relative paths.
type compiledPattern struct {
	glob     string
	original string
	anchored bool // pattern starts with / or contains one
	dirOnly  bool // pattern ends with /
}

// compilePattern turns an rsync-style glob into a case-insensitive matcher.
// Patterns without a slash match the base name at any depth; patterns with a
// slash match the whole relative path from the root.
func compilePattern(pattern string) (*compiledPattern, error) {
	cp := &compiledPattern{original: pattern}

	if strings.HasSuffix(pattern, "/") {
		cp.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}

	if strings.HasPrefix(pattern, "/") {
		cp.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	} else if strings.Contains(pattern, "/") {
		cp.anchored = true
	}

	if pattern == "" {
		return nil, fmt.Errorf("empty pattern %q", cp.original)
	}

	cp.glob = strings.ToLower(pattern)
	if !doublestar.ValidatePattern(cp.glob) {
		return nil, fmt.Errorf("invalid pattern %q", cp.original)
	}
	return cp, nil
}

// match tests whether a slash-separated relative path matches this pattern.
func (cp *compiledPattern) match(relPath string, isDir bool) bool {
	if cp.dirOnly && !isDir {
		return false
	}
	relPath = strings.ToLower(relPath)
	if cp.anchored {
		ok, _ := doublestar.Match(cp.glob, relPath)
		return ok
	}
	ok, _ := doublestar.Match(cp.glob, path.Base(relPath))
	return ok
}
