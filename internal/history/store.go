// Package history persists finished job runs to SQLite so past crawls,
// scans, packages, and clones survive restarts and stay queryable from
// the command line.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS job_runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id      TEXT NOT NULL,
	slot        TEXT NOT NULL,
	status      TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '',
	output_path TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_job_runs_slot ON job_runs(slot);
CREATE INDEX IF NOT EXISTS idx_job_runs_finished ON job_runs(finished_at);
`

// Run is one finished job as recorded in the database.
type Run struct {
	ID         int64
	JobID      string
	Slot       string
	Status     string
	Detail     string
	OutputPath string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall time the run took.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store manages the SQLite database of job runs.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the run database at dbPath and
// initializes its schema.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return openAndInitStore(dbPath)
}

// openAndInitStore opens the database connection and initializes schema.
func openAndInitStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout must come first so the remaining pragmas wait on locks
	// held by a concurrent instance instead of failing outright.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on
// lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun inserts one finished job run. The run's ID is filled in on
// return.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	query := `INSERT INTO job_runs
		(job_id, slot, status, detail, output_path, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		run.JobID,
		run.Slot,
		run.Status,
		run.Detail,
		run.OutputPath,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert job run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	run.ID = id
	return nil
}

// Recent returns up to limit runs, most recently finished first. A slot
// filter of "" returns runs from every slot.
func (s *Store) Recent(ctx context.Context, slot string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, job_id, slot, status, detail, output_path, started_at, finished_at
		FROM job_runs`
	args := []any{}
	if slot != "" {
		query += ` WHERE slot = ?`
		args = append(args, slot)
	}
	query += ` ORDER BY finished_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query job runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(
			&run.ID,
			&run.JobID,
			&run.Slot,
			&run.Status,
			&run.Detail,
			&run.OutputPath,
			&run.StartedAt,
			&run.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job runs: %w", err)
	}
	return runs, nil
}

// CountByStatus returns how many recorded runs ended in each status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM job_runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count job runs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

// Prune deletes runs finished before cutoff. Returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM job_runs WHERE finished_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune job runs: %w", err)
	}
	return result.RowsAffected()
}
