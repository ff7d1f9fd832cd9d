package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/bamsammich/cloudmig/internal/clock"
	"github.com/bamsammich/cloudmig/internal/platform"
)

const (
	// DefaultHydrateTimeout bounds how long a single file may take to hydrate.
	DefaultHydrateTimeout = 1800 * time.Second

	initialPollInterval = 200 * time.Millisecond
	maxPollInterval     = 2000 * time.Millisecond
)

// Hydrator drives cloud-only placeholders to fully local state. The sync
// client hydrates asynchronously, so the only way to observe progress is to
// poll the placeholder state.
type Hydrator struct {
	placeholders platform.Placeholders
	clock        clock.Clock
	timeout      time.Duration
	logger       *slog.Logger
}

// NewHydrator creates a Hydrator. A nil clock uses the system clock and a
// non-positive timeout selects DefaultHydrateTimeout.
func NewHydrator(p platform.Placeholders, clk clock.Clock, timeout time.Duration, logger *slog.Logger) *Hydrator {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if timeout <= 0 {
		timeout = DefaultHydrateTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hydrator{placeholders: p, clock: clk, timeout: timeout, logger: logger}
}

// Hydrate ensures path is local. It reports whether this call had to hydrate
// the file; an already-local file is left untouched and reports false.
func (h *Hydrator) Hydrate(ctx context.Context, path string) (bool, error) {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, &NotFoundError{Path: path}
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	state, err := h.placeholders.State(path)
	if err != nil {
		return false, &HydrationRequestError{Path: path, Op: "state", Err: err}
	}
	if state == platform.Local {
		return false, nil
	}

	if err := h.placeholders.RequestHydration(path); err != nil {
		return false, &HydrationRequestError{Path: path, Op: "request", Err: err}
	}
	// Pin straight away so the client cannot evict the file mid-copy.
	if err := h.placeholders.Pin(path); err != nil {
		return false, &HydrationRequestError{Path: path, Op: "pin", Err: err}
	}

	start := h.clock.Now()
	interval := initialPollInterval
	var lastReadErr error
	for polls := 1; ; polls++ {
		lastReadErr = probeRead(path)

		state, err := h.placeholders.State(path)
		if err == nil && state == platform.Local {
			h.logger.Debug("hydrated", "path", path, "polls", polls,
				"elapsed", h.clock.Now().Sub(start))
			return true, nil
		}
		if err != nil {
			h.logger.Debug("placeholder state unavailable", "path", path, "error", err)
		}

		if elapsed := h.clock.Now().Sub(start); elapsed > h.timeout {
			return false, &HydrateTimeoutError{Path: path, Timeout: h.timeout, LastReadErr: lastReadErr}
		}

		if err := h.clock.Sleep(ctx, interval); err != nil {
			return false, fmt.Errorf("hydration of %s interrupted: %w", path, err)
		}
		interval = min(interval*2, maxPollInterval)
	}
}

// probeRead reads a single byte. The read proves the data is reachable and
// nudges clients that hydrate on first access. Errors are informational.
func probeRead(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var b [1]byte
	if _, err := f.Read(b[:]); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
