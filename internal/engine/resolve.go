package engine

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultMaxPath is the path length ceiling shared by common filesystems.
const DefaultMaxPath = 260

// ResolveRoot returns the absolute form of path with symlinks resolved in
// its longest existing prefix. Trailing components that do not exist yet
// are kept as given.
func ResolveRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	var missing []string
	cur := abs
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, missing...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		missing = append([]string{filepath.Base(cur)}, missing...)
		cur = parent
	}
}

// RelPath returns full relative to root. Both paths are cleaned and compared
// case-insensitively; full must lie strictly inside root, otherwise a
// *PathEscapeError is returned.
func RelPath(root, full string) (string, error) {
	r := trimSeparators(filepath.Clean(root))
	f := trimSeparators(filepath.Clean(full))

	if len(f) <= len(r) || !strings.EqualFold(f[:len(r)], r) || !os.IsPathSeparator(f[len(r)]) {
		return "", &PathEscapeError{Root: root, Path: full}
	}

	rel := f[len(r)+1:]
	if rel == "" || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathEscapeError{Root: root, Path: full}
	}
	return rel, nil
}

// PathTooLong reports whether path has max or more characters. A
// non-positive max disables the check.
func PathTooLong(path string, max int) bool {
	return max > 0 && utf8.RuneCountInString(path) >= max
}

// DestPath maps src under srcRoot onto dstRoot. No destination is produced
// when src escapes srcRoot.
func DestPath(srcRoot, dstRoot, src string) (rel, dst string, err error) {
	rel, err = RelPath(srcRoot, src)
	if err != nil {
		return "", "", err
	}
	return rel, filepath.Join(dstRoot, rel), nil
}

// trimSeparators strips trailing separators so "C:\data\" and "C:\data"
// compare equal. The filesystem root collapses to "".
func trimSeparators(p string) string {
	return strings.TrimRightFunc(p, func(r rune) bool {
		return r < utf8.RuneSelf && os.IsPathSeparator(uint8(r))
	})
}
