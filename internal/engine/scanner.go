package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/bamsammich/cloudmig/internal/filter"
)

// ScanConfig controls enumeration of the source tree.
type ScanConfig struct {
	SrcRoot string
	Filter  *filter.Chain // optional skip names and exclusions
	Logger  *slog.Logger
}

// Scan lists the regular files under cfg.SrcRoot, minus anything the filter
// rejects, ordered by ascending size and then by path. Only directory
// entries and lstat metadata are read, so enumeration never hydrates a
// placeholder. Symlinks and special files are skipped and symlinked
// directories are not followed.
//
// A source root that is itself a symlink is followed; task paths stay
// under cfg.SrcRoot as given.
// A missing or non-directory source root is returned as a *SourceRootError.
// Unreadable subdirectories are logged and skipped.
func Scan(ctx context.Context, cfg ScanConfig) ([]FileTask, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	info, err := os.Stat(cfg.SrcRoot)
	if err != nil {
		return nil, &SourceRootError{Root: cfg.SrcRoot, Err: err}
	}
	if !info.IsDir() {
		return nil, &SourceRootError{Root: cfg.SrcRoot, Err: errors.New("not a directory")}
	}
	// WalkDir does not descend into a symlinked root, so walk its target
	// and report paths under the root as given.
	root, err := filepath.EvalSymlinks(cfg.SrcRoot)
	if err != nil {
		return nil, &SourceRootError{Root: cfg.SrcRoot, Err: err}
	}

	var tasks []FileTask
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return &SourceRootError{Root: cfg.SrcRoot, Err: walkErr}
			}
			logger.Warn("skipping unreadable entry", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, err := RelPath(root, path)
		if err != nil {
			logger.Warn("skipping entry outside source root", "path", path, "error", err)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if cfg.Filter != nil && !cfg.Filter.Match(rel, true, 0) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			// Removed between readdir and lstat.
			logger.Warn("skipping entry", "path", path, "error", err)
			return nil
		}
		if cfg.Filter != nil && !cfg.Filter.Match(rel, false, fi.Size()) {
			logger.Debug("filtered", "path", rel)
			return nil
		}

		tasks = append(tasks, FileTask{SrcPath: filepath.Join(cfg.SrcRoot, rel), RelPath: rel, Size: fi.Size()})
		return nil
	})
	if err != nil {
		var rootErr *SourceRootError
		if errors.As(err, &rootErr) {
			return nil, rootErr
		}
		return nil, fmt.Errorf("scan %s: %w", cfg.SrcRoot, err)
	}

	SortTasks(tasks)
	return tasks, nil
}

// SortTasks orders tasks by ascending size, then by source path, so small
// files finish first and the order is reproducible across runs.
func SortTasks(tasks []FileTask) {
	slices.SortFunc(tasks, func(a, b FileTask) int {
		if c := cmp.Compare(a.Size, b.Size); c != 0 {
			return c
		}
		return cmp.Compare(a.SrcPath, b.SrcPath)
	})
}
