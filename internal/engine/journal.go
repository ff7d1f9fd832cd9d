package engine

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"
)

const journalBatchSize = 100

// Journal is an SQLite audit log of per-file outcomes. Every run appends a
// row to runs and one row per processed file to files. The journal is never
// consulted to decide whether a file needs copying: resume always compares
// destination sizes.
type Journal struct {
	db    *sql.DB
	path  string
	runID string
	jobID string

	// Batch buffer for Record calls.
	mu      sync.Mutex
	batch   []JournalEntry
	done    chan struct{}
	stopped bool
}

// JournalEntry is the journal row for one file.
type JournalEntry struct {
	RelPath    string
	Size       int64
	Outcome    string
	Hydrated   bool
	Dehydrated bool
	Error      string
	At         time.Time
}

// OpenJournal opens (or creates) the journal at path and starts a new run
// for the src/dst pair. An empty path selects DefaultJournalPath.
func OpenJournal(path, src, dst string) (*Journal, error) {
	jobID := journalJobID(src, dst)
	if path == "" {
		path = DefaultJournalPath(src, dst)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	j := &Journal{
		db:    db,
		path:  path,
		runID: uuid.NewString(),
		jobID: jobID,
		done:  make(chan struct{}),
	}

	if err := j.init(src, dst); err != nil {
		db.Close()
		return nil, err
	}

	go j.flushLoop()

	return j, nil
}

func (j *Journal) init(src, dst string) error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			job_id      TEXT NOT NULL,
			src_root    TEXT NOT NULL,
			dst_root    TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER,
			total       INTEGER,
			succeeded   INTEGER,
			skipped     INTEGER,
			errored     INTEGER,
			interrupted INTEGER
		);
		CREATE TABLE IF NOT EXISTS files (
			run_id     TEXT NOT NULL,
			path       TEXT NOT NULL,
			size       INTEGER NOT NULL,
			outcome    TEXT NOT NULL,
			hydrated   INTEGER NOT NULL,
			dehydrated INTEGER NOT NULL,
			error      TEXT NOT NULL,
			at         INTEGER NOT NULL,
			PRIMARY KEY (run_id, path)
		);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	_, err = j.db.Exec(
		"INSERT INTO runs (run_id, job_id, src_root, dst_root, started_at) VALUES (?, ?, ?, ?, ?)",
		j.runID, j.jobID, src, dst, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("store run: %w", err)
	}
	return nil
}

// Record queues e for the current run. Writes are batched and flushed
// periodically.
func (j *Journal) Record(e JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.batch = append(j.batch, e)
	if len(j.batch) >= journalBatchSize {
		return j.flushLocked()
	}
	return nil
}

// Flush writes any pending entries to the database.
func (j *Journal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.flushLocked()
}

func (j *Journal) flushLocked() error {
	if len(j.batch) == 0 {
		return nil
	}

	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO files
		(run_id, path, size, outcome, hydrated, dehydrated, error, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range j.batch {
		_, err := stmt.Exec(j.runID, e.RelPath, e.Size, e.Outcome,
			e.Hydrated, e.Dehydrated, e.Error, e.At.UnixNano())
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", e.RelPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	j.batch = j.batch[:0]
	return nil
}

func (j *Journal) flushLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.mu.Lock()
			_ = j.flushLocked()
			j.mu.Unlock()
		}
	}
}

// Finish flushes pending entries and stores the run's final counts.
func (j *Journal) Finish(sum Summary) error {
	if err := j.Flush(); err != nil {
		return err
	}
	_, err := j.db.Exec(`UPDATE runs SET finished_at = ?, total = ?, succeeded = ?,
		skipped = ?, errored = ?, interrupted = ? WHERE run_id = ?`,
		time.Now().UnixNano(), sum.Total, sum.Succeeded, sum.Skipped, sum.Errored,
		sum.Interrupted, j.runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Outcomes returns path -> outcome for the current run's flushed entries.
func (j *Journal) Outcomes() (map[string]string, error) {
	if err := j.Flush(); err != nil {
		return nil, err
	}
	rows, err := j.db.Query("SELECT path, outcome FROM files WHERE run_id = ?", j.runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, outcome string
		if err := rows.Scan(&path, &outcome); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out[path] = outcome
	}
	return out, rows.Err()
}

// Close flushes any pending writes and closes the database.
func (j *Journal) Close() error {
	j.mu.Lock()
	if !j.stopped {
		j.stopped = true
		close(j.done)
	}
	_ = j.flushLocked()
	j.mu.Unlock()
	return j.db.Close()
}

// Path returns the journal database file.
func (j *Journal) Path() string { return j.path }

// RunID identifies this run's rows.
func (j *Journal) RunID() string { return j.runID }

// JobID identifies the src/dst pair; it is the same for every run of a pair.
func (j *Journal) JobID() string { return j.jobID }

// DefaultJournalPath returns $XDG_STATE_HOME/cloudmig/<job-id>.db, falling
// back to ~/.local/state and then the temp dir.
func DefaultJournalPath(src, dst string) string {
	name := journalJobID(src, dst) + ".db"
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "cloudmig", name)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "cloudmig", name)
	}
	return filepath.Join(os.TempDir(), "cloudmig-"+name)
}

// journalJobID computes a deterministic job ID from source and destination roots.
func journalJobID(src, dst string) string {
	h := blake3.New()
	h.Write([]byte(src))
	h.Write([]byte{0})
	h.Write([]byte(dst))
	digest := h.Sum(nil)
	return hex.EncodeToString(digest[:8])
}
