package engine

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. The typed errors below unwrap to one of these so callers
// can classify failures with errors.Is and inspect details with errors.As.
var (
	ErrSourceRoot       = errors.New("source root unavailable")
	ErrPathEscape       = errors.New("path escapes root")
	ErrPathTooLong      = errors.New("path too long")
	ErrNotFound         = errors.New("file not found")
	ErrHydrationRequest = errors.New("hydration request failed")
	ErrHydrateTimeout   = errors.New("hydration timed out")
	ErrCopyIO           = errors.New("copy i/o error")
	ErrVerification     = errors.New("verification failed")
	ErrSizeMismatch     = errors.New("size mismatch")
	ErrDehydrateRequest = errors.New("dehydrate request failed")
)

// SourceRootError reports a source root that is missing or not a directory.
// It is the only error that aborts a whole run.
type SourceRootError struct {
	Root string
	Err  error
}

func (e *SourceRootError) Error() string {
	return fmt.Sprintf("source root %s: %v", e.Root, e.Err)
}

func (e *SourceRootError) Unwrap() []error { return []error{ErrSourceRoot, e.Err} }

// PathEscapeError reports a path that does not resolve strictly inside root.
type PathEscapeError struct {
	Root string
	Path string
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("path %s escapes root %s", e.Path, e.Root)
}

func (e *PathEscapeError) Unwrap() error { return ErrPathEscape }

// PathTooLongError is a policy rejection for paths at or above the limit.
type PathTooLongError struct {
	Path   string
	Length int
	Max    int
}

func (e *PathTooLongError) Error() string {
	return fmt.Sprintf("path too long (%d chars, limit %d): %s", e.Length, e.Max, e.Path)
}

func (e *PathTooLongError) Unwrap() error { return ErrPathTooLong }

// NotFoundError reports a source file that disappeared after enumeration.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string { return "file not found: " + e.Path }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// HydrationRequestError reports that the OS refused a hydrate or pin request.
type HydrationRequestError struct {
	Path string
	Op   string // "request" or "pin"
	Err  error
}

func (e *HydrationRequestError) Error() string {
	return fmt.Sprintf("hydration %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *HydrationRequestError) Unwrap() []error { return []error{ErrHydrationRequest, e.Err} }

// HydrateTimeoutError reports a file that never became local within Timeout.
// LastReadErr is the error from the most recent probe read, if any.
type HydrateTimeoutError struct {
	Path        string
	Timeout     time.Duration
	LastReadErr error
}

func (e *HydrateTimeoutError) Error() string {
	if e.LastReadErr != nil {
		return fmt.Sprintf("hydration of %s timed out after %s (last read error: %v)",
			e.Path, e.Timeout, e.LastReadErr)
	}
	return fmt.Sprintf("hydration of %s timed out after %s", e.Path, e.Timeout)
}

func (e *HydrateTimeoutError) Unwrap() error { return ErrHydrateTimeout }

// CopyIOError reports a fault in the streaming copy. Op is one of open,
// create, read, write, truncate, sync or close.
type CopyIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *CopyIOError) Error() string {
	return fmt.Sprintf("copy %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CopyIOError) Unwrap() []error { return []error{ErrCopyIO, e.Err} }

// VerificationError reports a destination (or source) that could not be
// inspected after the copy.
type VerificationError struct {
	Path string
	Err  error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verify %s: %v", e.Path, e.Err)
}

func (e *VerificationError) Unwrap() []error { return []error{ErrVerification, e.Err} }

// SizeMismatchError reports a destination whose length differs from the source.
type SizeMismatchError struct {
	Path    string
	SrcSize int64
	DstSize int64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("size mismatch for %s: source %d bytes, destination %d bytes",
		e.Path, e.SrcSize, e.DstSize)
}

func (e *SizeMismatchError) Unwrap() []error { return []error{ErrSizeMismatch, ErrVerification} }

// DehydrateRequestFailure is a non-fatal failure to return a source file to
// cloud-only state. It is only ever logged.
type DehydrateRequestFailure struct {
	Path string
	Err  error
}

func (e *DehydrateRequestFailure) Error() string {
	return fmt.Sprintf("dehydrate %s: %v", e.Path, e.Err)
}

func (e *DehydrateRequestFailure) Unwrap() []error { return []error{ErrDehydrateRequest, e.Err} }
