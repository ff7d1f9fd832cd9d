package engine

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/bamsammich/cloudmig/internal/event"
)

// Verify confirms dst has exactly the byte length of src. It is a size-only
// check. On mismatch dst is removed (best effort; a removal failure is
// logged, never returned) and a *SizeMismatchError is returned.
func Verify(src, dst string, logger *slog.Logger) error {
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return &VerificationError{Path: dst, Err: err}
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return &VerificationError{Path: src, Err: err}
	}

	if srcInfo.Size() == dstInfo.Size() {
		return nil
	}

	if rmErr := os.Remove(dst); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
		if logger != nil {
			logger.Warn("could not remove mismatched destination", "path", dst, "error", rmErr)
		}
	}
	return &SizeMismatchError{Path: dst, SrcSize: srcInfo.Size(), DstSize: dstInfo.Size()}
}

// emitEvent sends e without blocking; a slow presenter drops events rather
// than stalling the copy.
func emitEvent(ch chan<- event.Event, e event.Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}
