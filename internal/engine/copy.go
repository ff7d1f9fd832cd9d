package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"golang.org/x/time/rate"

	"github.com/bamsammich/cloudmig/internal/platform"
	"github.com/bamsammich/cloudmig/internal/stats"
)

// CopierConfig controls the streaming copier.
type CopierConfig struct {
	BufferSize int           // bytes per read; <= 0 selects platform.DefaultBufferSize
	Limiter    *rate.Limiter // optional bandwidth cap
	Stats      stats.Writer  // optional; receives bytes as they are written
	Logger     *slog.Logger
}

// StreamCopier copies one file at a time through a fixed-size pooled buffer,
// so memory use is independent of file size.
type StreamCopier struct {
	pool    *platform.BufferPool
	limiter *rate.Limiter
	stats   stats.Writer
	logger  *slog.Logger

	// wrapDst lets tests inject write faults.
	wrapDst func(io.Writer) io.Writer
}

// NewStreamCopier creates a StreamCopier.
func NewStreamCopier(cfg CopierConfig) *StreamCopier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &StreamCopier{
		pool:    platform.NewBufferPool(cfg.BufferSize),
		limiter: cfg.Limiter,
		stats:   cfg.Stats,
		logger:  logger,
	}
}

// Copy streams src into dst, creating or truncating dst, and returns the
// number of bytes written. The destination is synced before it is closed and
// is closed on every return path. Faults are reported as *CopyIOError; the
// caller decides whether to remove the partial destination.
func (c *StreamCopier) Copy(ctx context.Context, src, dst string) (written int64, err error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, &CopyIOError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	var size int64
	if fi, statErr := in.Stat(); statErr == nil {
		size = fi.Size()
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, &CopyIOError{Op: "create", Path: dst, Err: err}
	}
	RegisterPartial(dst)
	defer DeregisterPartial(dst)

	closed := false
	defer func() {
		if !closed {
			_ = out.Close()
		}
	}()

	if err := platform.Preallocate(out, size); err != nil {
		c.logger.Debug("preallocate failed", "path", dst, "size", size, "error", err)
	}

	bufp := c.pool.Get()
	defer c.pool.Put(bufp)
	buf := *bufp

	var r io.Reader = in
	if c.limiter != nil {
		r = newRateLimitedReader(ctx, in, c.limiter)
	}
	var w io.Writer = out
	if c.wrapDst != nil {
		w = c.wrapDst(out)
	}

	for {
		if err := ctx.Err(); err != nil {
			return written, &CopyIOError{Op: "read", Path: src, Err: err}
		}

		nr, rerr := r.Read(buf)
		if nr > 0 {
			nw, werr := w.Write(buf[:nr])
			if nw > 0 {
				written += int64(nw)
				if c.stats != nil {
					c.stats.AddBytesCopied(int64(nw))
				}
			}
			if werr == nil && nw != nr {
				werr = io.ErrShortWrite
			}
			if werr != nil {
				return written, &CopyIOError{Op: "write", Path: dst, Err: werr}
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return written, &CopyIOError{Op: "read", Path: src, Err: rerr}
		}
	}

	// Preallocation sized the file up front; trim it back if the source
	// turned out shorter so verification sees what was actually copied.
	if written != size {
		if err := out.Truncate(written); err != nil {
			return written, &CopyIOError{Op: "truncate", Path: dst, Err: err}
		}
	}

	if err := out.Sync(); err != nil {
		return written, &CopyIOError{Op: "sync", Path: dst, Err: err}
	}
	closed = true
	if err := out.Close(); err != nil {
		return written, &CopyIOError{Op: "close", Path: dst, Err: err}
	}
	return written, nil
}
