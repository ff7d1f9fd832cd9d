package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bamsammich/cloudmig/internal/clock"
	"github.com/bamsammich/cloudmig/internal/event"
	"github.com/bamsammich/cloudmig/internal/filter"
	"github.com/bamsammich/cloudmig/internal/platform"
	"github.com/bamsammich/cloudmig/internal/stats"
)

// Config describes a migration run. SrcRoot and DstRoot must be absolute.
type Config struct {
	SrcRoot        string
	DstRoot        string
	Mode           DehydrateMode
	Filter         *filter.Chain
	MaxPath        int
	HydrateTimeout time.Duration
	BufferSize     int
	BWLimit        int64 // bytes/sec, 0 = unlimited
	DryRun         bool

	Placeholders platform.Placeholders // nil = platform.LocalOnly
	JournalPath  string                // "" = no journal, "auto" = DefaultJournalPath
	Clock        clock.Clock
	Events       chan<- event.Event
	Stats        stats.Writer
	Logger       *slog.Logger
}

// Run enumerates cfg.SrcRoot and migrates every file, blocking until done.
// Per-file failures are reported in the Summary; the returned error is only
// set when the run could not start (missing source root, journal failure).
func Run(ctx context.Context, cfg Config) (Summary, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	placeholders := cfg.Placeholders
	if placeholders == nil {
		placeholders = platform.LocalOnly{}
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	logger.Info("migration started",
		"src", cfg.SrcRoot, "dst", cfg.DstRoot, "dehydrate", cfg.Mode.String(),
		"placeholders", placeholders.Name(), "dry_run", cfg.DryRun)
	emitEvent(cfg.Events, event.Event{Type: event.RunStarted})

	tasks, err := Scan(ctx, ScanConfig{SrcRoot: cfg.SrcRoot, Filter: cfg.Filter, Logger: logger})
	if err != nil {
		return Summary{}, err
	}

	var totalBytes int64
	for _, t := range tasks {
		totalBytes += t.Size
	}
	if cfg.Stats != nil {
		cfg.Stats.SetTotals(int64(len(tasks)), totalBytes)
	}
	logger.Info("scan complete", "files", len(tasks), "bytes", totalBytes)
	emitEvent(cfg.Events, event.Event{Type: event.ScanComplete, Total: len(tasks), Size: totalBytes})

	var journal *Journal
	if cfg.JournalPath != "" && !cfg.DryRun {
		path := cfg.JournalPath
		if path == "auto" {
			path = ""
		}
		journal, err = OpenJournal(path, cfg.SrcRoot, cfg.DstRoot)
		if err != nil {
			return Summary{}, fmt.Errorf("journal: %w", err)
		}
		defer journal.Close()
		logger.Info("journal opened", "path", journal.Path(), "run_id", journal.RunID())
	}

	copierCfg := CopierConfig{BufferSize: cfg.BufferSize, Stats: cfg.Stats, Logger: logger}
	if cfg.BWLimit > 0 {
		copierCfg.Limiter = NewBWLimiter(cfg.BWLimit)
	}

	migCfg := MigratorConfig{
		SrcRoot:    cfg.SrcRoot,
		DstRoot:    cfg.DstRoot,
		Mode:       cfg.Mode,
		MaxPath:    cfg.MaxPath,
		DryRun:     cfg.DryRun,
		Hydrator:   NewHydrator(placeholders, clk, cfg.HydrateTimeout, logger),
		Copier:     NewStreamCopier(copierCfg),
		Dehydrator: NewDehydrator(placeholders),
		Events:     cfg.Events,
		Stats:      cfg.Stats,
		Clock:      clk,
		Logger:     logger,
	}
	if journal != nil {
		migCfg.Recorder = journal
	}

	sum := NewMigrator(migCfg).Run(ctx, tasks)

	if journal != nil {
		if err := journal.Finish(sum); err != nil {
			logger.Warn("journal finish failed", "error", err)
		}
	}

	logAttrs := []any{
		"total", sum.Total, "succeeded", sum.Succeeded, "skipped", sum.Skipped,
		"errored", sum.Errored, "bytes", sum.BytesCopied, "hydrated", sum.Hydrated,
		"dehydrated", sum.Dehydrated, "elapsed", sum.Elapsed.Round(time.Millisecond),
	}
	switch {
	case sum.Interrupted:
		logger.Warn("migration interrupted", logAttrs...)
	case sum.Errored > 0:
		logger.Warn("migration finished with errors", logAttrs...)
	default:
		logger.Info("migration finished", logAttrs...)
	}
	emitEvent(cfg.Events, event.Event{Type: event.RunComplete, Total: sum.Total, Size: sum.BytesCopied})

	return sum, nil
}
