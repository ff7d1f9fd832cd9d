package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bamsammich/cloudmig/internal/clock"
	"github.com/bamsammich/cloudmig/internal/event"
	"github.com/bamsammich/cloudmig/internal/stats"
)

// hydrator, copier and dehydrator are the per-file stages the Migrator
// drives. They are interfaces so the pipeline can be exercised with doubles.
type hydrator interface {
	Hydrate(ctx context.Context, path string) (bool, error)
}

type copier interface {
	Copy(ctx context.Context, src, dst string) (int64, error)
}

type dehydrator interface {
	Dehydrate(path string) error
}

// Recorder receives one entry per processed file. *Journal implements it.
type Recorder interface {
	Record(e JournalEntry) error
}

// MigratorConfig wires a Migrator.
type MigratorConfig struct {
	SrcRoot string
	DstRoot string
	Mode    DehydrateMode
	MaxPath int // <= 0 disables the length check
	DryRun  bool

	Hydrator   hydrator
	Copier     copier
	Dehydrator dehydrator

	Events   chan<- event.Event // optional, non-blocking
	Stats    stats.Writer       // optional
	Recorder Recorder           // optional
	Clock    clock.Clock        // optional, for elapsed time
	Logger   *slog.Logger
}

// Summary is the outcome of a run. When Interrupted is false,
// Total == Succeeded + Skipped + Errored.
type Summary struct {
	Total       int
	Succeeded   int
	Skipped     int
	Errored     int
	Errors      []string // "[i/total] rel/path: cause", in processing order
	BytesCopied int64
	Hydrated    int
	Dehydrated  int
	Elapsed     time.Duration
	Interrupted bool
}

func (s Summary) String() string {
	return fmt.Sprintf("total=%d succeeded=%d skipped=%d errored=%d", s.Total, s.Succeeded, s.Skipped, s.Errored)
}

// Outcome of a single file.
type Outcome int

const (
	OutcomeCopied Outcome = iota
	OutcomeSkipped
	OutcomeFailed
	OutcomeWouldCopy
)

var outcomeNames = [...]string{
	OutcomeCopied:    "copied",
	OutcomeSkipped:   "skipped",
	OutcomeFailed:    "failed",
	OutcomeWouldCopy: "would-copy",
}

func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// fileResult is what processing one file produced.
type fileResult struct {
	outcome    Outcome
	bytes      int64
	hydrated   bool
	requested  bool // hydration was requested but did not complete
	dehydrated bool
	err        error
}

// Migrator processes FileTasks strictly one at a time, in order. A failure
// is recorded against its file and the run moves on; nothing a single file
// does aborts the run.
type Migrator struct {
	cfg    MigratorConfig
	logger *slog.Logger
	clock  clock.Clock
}

// NewMigrator creates a Migrator.
func NewMigrator(cfg MigratorConfig) *Migrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Migrator{cfg: cfg, logger: logger, clock: clk}
}

// Run migrates tasks and returns the summary. Cancelling ctx stops the run
// after the current file, whose partial destination is removed, and marks
// the summary Interrupted.
func (m *Migrator) Run(ctx context.Context, tasks []FileTask) Summary {
	start := m.clock.Now()
	sum := Summary{Total: len(tasks)}
	var lastCompleted string

	for i, task := range tasks {
		if ctx.Err() != nil {
			sum.Interrupted = true
			break
		}
		idx := i + 1
		m.emit(event.FileStarted, idx, sum.Total, task, lastCompleted, nil)

		res := m.migrateOne(ctx, idx, sum.Total, task, lastCompleted)
		if res.hydrated {
			sum.Hydrated++
			m.addStat(func(w stats.Writer) { w.AddFilesHydrated(1) })
		}
		if res.dehydrated {
			sum.Dehydrated++
			m.addStat(func(w stats.Writer) { w.AddFilesDehydrated(1) })
		}

		switch res.outcome {
		case OutcomeFailed:
			sum.Errored++
			sum.Errors = append(sum.Errors, fmt.Sprintf("[%d/%d] %s: %v", idx, sum.Total, task.RelPath, res.err))
			m.logger.Error("file failed", "index", idx, "total", sum.Total, "path", task.RelPath, "error", res.err)
			m.addStat(func(w stats.Writer) { w.AddFilesFailed(1) })
			m.emit(event.FileFailed, idx, sum.Total, task, lastCompleted, res.err)
		case OutcomeSkipped:
			sum.Skipped++
			m.logger.Info("skipped, already migrated", "index", idx, "total", sum.Total, "path", task.RelPath, "size", task.Size)
			m.addStat(func(w stats.Writer) {
				w.AddFilesSkipped(1)
				w.AddBytesSkipped(task.Size)
			})
			m.emit(event.FileSkipped, idx, sum.Total, task, lastCompleted, nil)
		case OutcomeWouldCopy:
			sum.Succeeded++
			m.logger.Info("would copy", "index", idx, "total", sum.Total, "path", task.RelPath, "size", task.Size)
			m.addStat(func(w stats.Writer) {
				w.AddFilesSucceeded(1)
				w.AddBytesSkipped(task.Size)
			})
			m.emit(event.FileCompleted, idx, sum.Total, task, lastCompleted, nil)
		default:
			sum.Succeeded++
			sum.BytesCopied += res.bytes
			m.logger.Info("migrated", "index", idx, "total", sum.Total, "path", task.RelPath,
				"size", res.bytes, "hydrated", res.hydrated, "dehydrated", res.dehydrated)
			m.addStat(func(w stats.Writer) { w.AddFilesSucceeded(1) })
			m.emit(event.FileCompleted, idx, sum.Total, task, lastCompleted, nil)
		}

		m.record(task, res)
		lastCompleted = task.RelPath

		if res.outcome == OutcomeFailed && ctx.Err() != nil {
			sum.Interrupted = true
			break
		}
	}

	sum.Elapsed = m.clock.Now().Sub(start)
	return sum
}

func (m *Migrator) migrateOne(ctx context.Context, idx, total int, task FileTask, lastCompleted string) fileResult {
	rel, dst, err := DestPath(m.cfg.SrcRoot, m.cfg.DstRoot, task.SrcPath)
	if err != nil {
		return fileResult{outcome: OutcomeFailed, err: err}
	}
	for _, p := range []string{task.SrcPath, dst} {
		if PathTooLong(p, m.cfg.MaxPath) {
			return fileResult{outcome: OutcomeFailed, err: &PathTooLongError{
				Path: p, Length: len([]rune(p)), Max: m.cfg.MaxPath,
			}}
		}
	}

	// Zero-byte files are never treated as already migrated: an empty
	// destination cannot be told apart from an unhydrated placeholder.
	if task.Size > 0 {
		if fi, err := os.Stat(dst); err == nil && fi.Mode().IsRegular() && fi.Size() == task.Size {
			res := fileResult{outcome: OutcomeSkipped}
			if !m.cfg.DryRun {
				res.dehydrated = m.applyPolicy(idx, total, task, lastCompleted, false)
			}
			return res
		}
	}

	if m.cfg.DryRun {
		return fileResult{outcome: OutcomeWouldCopy}
	}

	res := fileResult{outcome: OutcomeCopied}

	m.emit(event.FileHydrating, idx, total, task, lastCompleted, nil)
	res.hydrated, err = m.cfg.Hydrator.Hydrate(ctx, task.SrcPath)
	if err != nil {
		res.requested = hydrationRequested(err)
		return m.fail(idx, total, task, lastCompleted, res, "", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return m.fail(idx, total, task, lastCompleted, res, "",
			fmt.Errorf("create destination directory for %s: %w", rel, err))
	}

	m.emit(event.FileCopying, idx, total, task, lastCompleted, nil)
	res.bytes, err = m.cfg.Copier.Copy(ctx, task.SrcPath, dst)
	if err != nil {
		written := dst
		if !destinationTouched(err) {
			written = ""
		}
		return m.fail(idx, total, task, lastCompleted, res, written, err)
	}

	m.emit(event.FileVerifying, idx, total, task, lastCompleted, nil)
	if err := Verify(task.SrcPath, dst, m.logger); err != nil {
		return m.fail(idx, total, task, lastCompleted, res, dst, err)
	}

	res.dehydrated = m.applyPolicy(idx, total, task, lastCompleted, res.hydrated)
	return res
}

// fail finishes a failed file: the source gets the same dehydration it
// would have had on success and any destination this run wrote is removed.
func (m *Migrator) fail(idx, total int, task FileTask, lastCompleted string, res fileResult, dst string, err error) fileResult {
	res.outcome = OutcomeFailed
	res.err = err

	if res.hydrated || res.requested {
		res.dehydrated = m.applyPolicy(idx, total, task, lastCompleted, true)
	}
	if dst != "" {
		if rmErr := os.Remove(dst); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			m.logger.Warn("could not remove partial destination", "path", dst, "error", rmErr)
		}
	}
	return res
}

// destinationTouched reports whether a failed copy got as far as creating
// or truncating the destination. Open and create failures leave whatever
// already sits at the destination path untouched.
func destinationTouched(err error) bool {
	var ioErr *CopyIOError
	if errors.As(err, &ioErr) {
		return ioErr.Op != "open" && ioErr.Op != "create"
	}
	return true
}

// hydrationRequested reports whether a hydrate failure happened after the
// file was already asked to hydrate and pinned, leaving it to be released.
func hydrationRequested(err error) bool {
	var reqErr *HydrationRequestError
	if errors.As(err, &reqErr) {
		return reqErr.Op == "pin"
	}
	return errors.Is(err, ErrHydrateTimeout) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// applyPolicy dehydrates the source when the mode calls for it and reports
// whether the request was accepted. Failures are warnings only.
func (m *Migrator) applyPolicy(idx, total int, task FileTask, lastCompleted string, hydrated bool) bool {
	if !ShouldDehydrate(m.cfg.Mode, hydrated) || m.cfg.Dehydrator == nil {
		return false
	}
	m.emit(event.FileDehydrating, idx, total, task, lastCompleted, nil)
	if err := m.cfg.Dehydrator.Dehydrate(task.SrcPath); err != nil {
		m.logger.Warn("dehydrate failed, file stays local", "path", task.RelPath, "error", err)
		m.emit(event.DehydrateFailed, idx, total, task, lastCompleted, err)
		return false
	}
	return true
}

func (m *Migrator) emit(t event.Type, idx, total int, task FileTask, lastCompleted string, err error) {
	emitEvent(m.cfg.Events, event.Event{
		Type:          t,
		Path:          task.RelPath,
		LastCompleted: lastCompleted,
		Index:         idx,
		Total:         total,
		Size:          task.Size,
		Error:         err,
	})
}

func (m *Migrator) addStat(fn func(stats.Writer)) {
	if m.cfg.Stats != nil {
		fn(m.cfg.Stats)
	}
}

func (m *Migrator) record(task FileTask, res fileResult) {
	if m.cfg.Recorder == nil {
		return
	}
	entry := JournalEntry{
		RelPath:    task.RelPath,
		Size:       task.Size,
		Outcome:    res.outcome.String(),
		Hydrated:   res.hydrated,
		Dehydrated: res.dehydrated,
		At:         m.clock.Now(),
	}
	if res.err != nil {
		entry.Error = res.err.Error()
	}
	if err := m.cfg.Recorder.Record(entry); err != nil {
		m.logger.Warn("journal write failed", "path", task.RelPath, "error", err)
	}
}
