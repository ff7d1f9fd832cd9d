package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bamsammich/cloudmig/internal/config"
	"github.com/bamsammich/cloudmig/internal/engine"
	"github.com/bamsammich/cloudmig/internal/event"
	"github.com/bamsammich/cloudmig/internal/platform"
	"github.com/bamsammich/cloudmig/internal/stats"
	"github.com/bamsammich/cloudmig/internal/ui"
)

var version = "dev"

// Process exit codes.
const (
	exitOK          = 0
	exitFileErrors  = 1
	exitFatal       = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// flags holds every root command flag value.
type flags struct {
	configFile     string
	mode           engine.DehydrateMode
	skipNames      []string
	noDefaultSkips bool
	skipFile       string
	exclude        []string
	maxPath        int
	hydrateTimeout time.Duration
	bufferSize     string
	bwLimit        string
	backend        platform.Backend
	journal        string
	dryRun         bool
	logFile        string
	verbose        bool
	quiet          bool
	noProgress     bool
	showVersion    bool
}

//nolint:revive // cognitive-complexity: CLI entry point wires every component
func run(args []string, stdout, stderr io.Writer) int {
	f := flags{
		mode:    engine.HydratedOnly,
		backend: platform.BackendAuto,
	}

	rootCmd := &cobra.Command{
		Use:   "cloudmig [flags] <source> <destination>",
		Short: "Migrate a cloud-synced folder to local storage, hydrating placeholders on demand",
		Args: func(cmd *cobra.Command, args []string) error {
			if f.showVersion {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.showVersion {
				fmt.Fprintf(stdout, "cloudmig %s\n", version)
				return nil
			}
			return migrate(cmd, &f, args[0], args[1], stdout, stderr)
		},
	}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	fl := rootCmd.Flags()
	fl.BoolVar(&f.showVersion, "version", false, "print version and exit")
	fl.StringVar(&f.configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/cloudmig/config.toml)")
	fl.Var(&f.mode, "dehydrate", "return sources to cloud-only after copy: hydrated-only, all, none")
	fl.StringArrayVar(&f.skipNames, "skip-name", nil, "skip files with this name, in any directory (repeatable)")
	fl.BoolVar(&f.noDefaultSkips, "no-default-skips", false, "do not skip desktop.ini, thumbs.db and friends")
	fl.StringVar(&f.skipFile, "skip-file", "", "read skip rules from FILE")
	fl.StringArrayVar(&f.exclude, "exclude", nil, "exclude paths matching GLOB (repeatable)")
	fl.IntVar(&f.maxPath, "max-path", engine.DefaultMaxPath, "fail files whose path reaches this many characters (0 disables)")
	fl.DurationVar(&f.hydrateTimeout, "hydrate-timeout", engine.DefaultHydrateTimeout, "give up hydrating a file after this long")
	fl.StringVar(&f.bufferSize, "buffer-size", "4M", "copy buffer size")
	fl.StringVar(&f.bwLimit, "bwlimit", "", "bandwidth limit (e.g. 50M)")
	fl.Var(&f.backend, "placeholders", "placeholder backend: auto, windows, xattr, none")
	fl.StringVar(&f.journal, "journal", "", "record per-file outcomes in a SQLite journal (default location with no value)")
	fl.Lookup("journal").NoOptDefVal = "auto"
	fl.BoolVar(&f.dryRun, "dry-run", false, "show what would be copied without hydrating or writing")
	fl.StringVar(&f.logFile, "log", "", "write structured JSON log to FILE")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "verbose output")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "suppress all output except errors")
	fl.BoolVar(&f.noProgress, "no-progress", false, "disable progress display")

	rootCmd.AddCommand(docsCmd)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFatal
	}
	return exitOK
}

func migrate(cmd *cobra.Command, f *flags, src, dst string, stdout, stderr io.Writer) error {
	var (
		cfg config.Config
		err error
	)
	if f.configFile != "" {
		cfg, err = config.LoadFile(f.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := applyConfigDefaults(cmd, cfg.Defaults, f); err != nil {
		return err
	}
	ui.ApplyTheme(cfg.Theme)

	r, err := config.Assemble(config.Options{
		Src:            src,
		Dst:            dst,
		Dehydrate:      f.mode.String(),
		SkipNames:      f.skipNames,
		NoDefaultSkips: f.noDefaultSkips,
		SkipFile:       f.skipFile,
		Exclude:        f.exclude,
		MaxPath:        &f.maxPath,
		HydrateTimeout: f.hydrateTimeout,
		BufferSize:     f.bufferSize,
		BWLimit:        f.bwLimit,
		Placeholders:   string(f.backend),
		Journal:        f.journal,
		DryRun:         f.dryRun,
	})
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(f, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	placeholders, err := platform.NewPlaceholders(r.Backend)
	if err != nil {
		return fmt.Errorf("placeholders: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopSignals := handleSignals(cancel, logger, stderr)
	defer stopSignals()

	collector := stats.NewCollector()
	events := make(chan event.Event, 256)

	presenter := ui.NewPresenter(ui.Config{
		Writer:     stdout,
		ErrWriter:  stderr,
		Stats:      collector,
		IsTTY:      isTerminal(stderr),
		Quiet:      f.quiet,
		NoProgress: f.noProgress,
		Width:      termWidth(stderr),
	})

	var presenterErr error
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		presenterErr = presenter.Run(events)
	}()

	summary, runErr := engine.Run(ctx, engine.Config{
		SrcRoot:        r.SrcRoot,
		DstRoot:        r.DstRoot,
		Mode:           r.Mode,
		Filter:         r.Filter,
		MaxPath:        r.MaxPath,
		HydrateTimeout: r.HydrateTimeout,
		BufferSize:     r.BufferSize,
		BWLimit:        r.BWLimit,
		DryRun:         r.DryRun,
		Placeholders:   placeholders,
		JournalPath:    r.JournalPath,
		Events:         events,
		Stats:          collector,
		Logger:         logger,
	})
	close(events)
	presenterWg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(stderr, "presenter: %v\n", presenterErr)
	}

	if runErr != nil {
		return runErr
	}

	if !f.quiet {
		if line := presenter.Summary(); line != "" {
			fmt.Fprintln(stderr, line)
		}
		fmt.Fprintln(stderr, summary.String())
	}
	ui.WriteErrors(stderr, summary.Errors)

	if summary.Errored > 0 || summary.Interrupted {
		return &exitError{code: exitFileErrors}
	}
	return nil
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, d config.DefaultsConfig, f *flags) error {
	changed := cmd.Flags().Changed

	if !changed("dehydrate") && d.Dehydrate != nil {
		if err := f.mode.Set(*d.Dehydrate); err != nil {
			return fmt.Errorf("config dehydrate: %w", err)
		}
	}
	if !changed("placeholders") && d.Placeholders != nil {
		if err := f.backend.Set(*d.Placeholders); err != nil {
			return fmt.Errorf("config placeholders: %w", err)
		}
	}
	if d.SkipNames != nil {
		// Config names are added to, not replaced by, the command line.
		f.skipNames = append(append([]string{}, *d.SkipNames...), f.skipNames...)
	}
	if d.Exclude != nil {
		f.exclude = append(append([]string{}, *d.Exclude...), f.exclude...)
	}
	if !changed("skip-file") && d.SkipFile != nil {
		f.skipFile = *d.SkipFile
	}
	if !changed("max-path") && d.MaxPath != nil {
		f.maxPath = *d.MaxPath
	}
	if !changed("hydrate-timeout") && d.HydrateTimeout != nil {
		f.hydrateTimeout = d.HydrateTimeout.Duration
	}
	if !changed("buffer-size") && d.BufferSize != nil {
		f.bufferSize = *d.BufferSize
	}
	if !changed("bwlimit") && d.BWLimit != nil {
		f.bwLimit = *d.BWLimit
	}
	if !changed("journal") && d.Journal != nil {
		f.journal = *d.Journal
	}
	if !changed("log") && d.Log != nil {
		f.logFile = *d.Log
	}
	return nil
}

// newLogger builds the run logger: text on stderr, plus JSON to --log FILE.
func newLogger(f *flags, stderr io.Writer) (*slog.Logger, func(), error) {
	logLevel := slog.LevelInfo
	switch {
	case f.verbose:
		logLevel = slog.LevelDebug
	case f.quiet:
		logLevel = slog.LevelWarn
	}
	textHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel})
	if f.logFile == "" {
		return slog.New(textHandler), func() {}, nil
	}

	lf, err := os.Create(f.logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(ui.NewMultiHandler(textHandler, jsonHandler))
	return logger, func() { _ = lf.Close() }, nil
}

// handleSignals cancels the run on the first SIGINT/SIGTERM. A second signal
// removes any in-flight destination files and exits immediately.
func handleSignals(cancel context.CancelFunc, logger *slog.Logger, stderr io.Writer) func() {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigs:
			logger.Warn("interrupted, finishing current file", "signal", sig.String())
			cancel()
		case <-done:
			return
		}
		select {
		case <-sigs:
			for _, p := range engine.CleanupPartials() {
				logger.Warn("removed partial file", "path", p)
			}
			fmt.Fprintln(stderr, "aborted")
			os.Exit(exitInterrupted)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && ui.IsTTY(f.Fd())
}

func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		return ui.TermWidth(f.Fd())
	}
	return 0
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
