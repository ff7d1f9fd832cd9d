package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bamsammich/cloudmig/internal/engine"
	"github.com/bamsammich/cloudmig/internal/filter"
	"github.com/bamsammich/cloudmig/internal/platform"
)

const maxBufferSize = 1 << 30

// Options are the raw run settings, after config-file defaults and flags
// have been merged.
type Options struct {
	Src            string
	Dst            string
	Dehydrate      string
	SkipNames      []string
	NoDefaultSkips bool
	SkipFile       string
	Exclude        []string
	MaxPath        *int // nil = engine.DefaultMaxPath, 0 = no limit
	HydrateTimeout time.Duration
	BufferSize     string
	BWLimit        string
	Placeholders   string
	Journal        string
	DryRun         bool
}

// Run holds the validated, immutable inputs of one migration.
type Run struct {
	SrcRoot        string
	DstRoot        string
	Mode           engine.DehydrateMode
	Filter         *filter.Chain
	MaxPath        int // 0 = no limit
	HydrateTimeout time.Duration
	BufferSize     int
	BWLimit        int64
	Backend        platform.Backend
	JournalPath    string
	DryRun         bool
}

// Assemble validates o and resolves it into a Run. Roots are made absolute;
// the source root must be an existing directory and the two roots must not
// contain one another.
func Assemble(o Options) (Run, error) {
	if o.Src == "" || o.Dst == "" {
		return Run{}, errors.New("source and destination are required")
	}

	// Roots are compared and scanned by their symlink-resolved form so a
	// linked sync folder and its target are recognized as the same tree.
	src, err := engine.ResolveRoot(o.Src)
	if err != nil {
		return Run{}, &engine.SourceRootError{Root: o.Src, Err: err}
	}
	dst, err := engine.ResolveRoot(o.Dst)
	if err != nil {
		return Run{}, fmt.Errorf("destination %s: %w", o.Dst, err)
	}

	info, err := os.Stat(src)
	if err != nil {
		return Run{}, &engine.SourceRootError{Root: src, Err: err}
	}
	if !info.IsDir() {
		return Run{}, &engine.SourceRootError{Root: src, Err: errors.New("not a directory")}
	}

	if _, err := engine.RelPath(src, dst); err == nil || equalRoots(src, dst) {
		return Run{}, fmt.Errorf("destination %s must not be inside source %s", dst, src)
	}
	if _, err := engine.RelPath(dst, src); err == nil {
		return Run{}, fmt.Errorf("source %s must not be inside destination %s", src, dst)
	}

	r := Run{
		SrcRoot:        src,
		DstRoot:        dst,
		MaxPath:        engine.DefaultMaxPath,
		HydrateTimeout: o.HydrateTimeout,
		JournalPath:    o.Journal,
		DryRun:         o.DryRun,
	}

	r.Mode = engine.HydratedOnly
	if o.Dehydrate != "" {
		if r.Mode, err = engine.ParseDehydrateMode(o.Dehydrate); err != nil {
			return Run{}, err
		}
	}

	if r.Filter, err = buildFilter(o); err != nil {
		return Run{}, err
	}

	if o.MaxPath != nil {
		if *o.MaxPath < 0 {
			return Run{}, fmt.Errorf("max path must not be negative, got %d", *o.MaxPath)
		}
		r.MaxPath = *o.MaxPath
	}

	switch {
	case r.HydrateTimeout < 0:
		return Run{}, fmt.Errorf("hydrate timeout must not be negative, got %s", r.HydrateTimeout)
	case r.HydrateTimeout == 0:
		r.HydrateTimeout = engine.DefaultHydrateTimeout
	}

	r.BufferSize = platform.DefaultBufferSize
	if o.BufferSize != "" {
		n, err := filter.ParseSize(o.BufferSize)
		if err != nil {
			return Run{}, fmt.Errorf("buffer size: %w", err)
		}
		if n <= 0 || n > maxBufferSize {
			return Run{}, fmt.Errorf("buffer size %s out of range (1 B to 1 GiB)", o.BufferSize)
		}
		r.BufferSize = int(n)
	}

	if o.BWLimit != "" {
		if r.BWLimit, err = filter.ParseSize(o.BWLimit); err != nil {
			return Run{}, fmt.Errorf("bandwidth limit: %w", err)
		}
	}

	r.Backend = platform.BackendAuto
	if o.Placeholders != "" {
		if err := r.Backend.Set(o.Placeholders); err != nil {
			return Run{}, err
		}
	}

	return r, nil
}

func buildFilter(o Options) (*filter.Chain, error) {
	chain := filter.NewChain()
	if !o.NoDefaultSkips {
		for _, name := range filter.DefaultSkipNames {
			chain.AddSkipName(name)
		}
	}
	for _, name := range o.SkipNames {
		chain.AddSkipName(name)
	}
	if o.SkipFile != "" {
		if err := chain.LoadFile(o.SkipFile); err != nil {
			return nil, err
		}
	}
	for _, pattern := range o.Exclude {
		if err := chain.AddExclude(pattern); err != nil {
			return nil, fmt.Errorf("exclude: %w", err)
		}
	}
	return chain, nil
}

func equalRoots(a, b string) bool {
	return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
}
