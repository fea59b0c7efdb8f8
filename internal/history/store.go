// Package history records test runs in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/cdf/internal/executor"
)

// Run is one recorded "cdf test" invocation.
type Run struct {
	ID          int64
	TaskID      string
	StartedAt   time.Time
	Duration    time.Duration
	Summary     executor.Summary
	BuildFailed bool
	Error       string // validation or build error, empty on a normal run
}

// OK reports whether the run built and every test passed.
func (r *Run) OK() bool {
	return r.Error == "" && !r.BuildFailed && r.Summary.OK()
}

// Store persists runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		total INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		errored INTEGER NOT NULL,
		build_failed INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_task_started ON runs(task_id, started_at);
	`)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts r and sets r.ID.
func (s *Store) Record(ctx context.Context, r *Run) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (task_id, started_at, duration_ns, total, passed, failed, errored, build_failed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.TaskID, r.StartedAt.UnixNano(), int64(r.Duration),
		r.Summary.Total, r.Summary.Passed, r.Summary.Failed, r.Summary.Errored,
		boolToInt(r.BuildFailed), r.Error)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read run id: %w", err)
	}
	r.ID = id
	return nil
}

// List returns the most recent runs first. An empty taskID lists all tasks;
// limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, taskID string, limit int) ([]Run, error) {
	query := `SELECT id, task_id, started_at, duration_ns, total, passed, failed, errored, build_failed, error FROM runs`
	var args []any
	if taskID != "" {
		query += ` WHERE task_id = ?`
		args = append(args, taskID)
	}
	query += ` ORDER BY started_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r           Run
			startedAt   int64
			durationNs  int64
			buildFailed int
		)
		if err := rows.Scan(&r.ID, &r.TaskID, &startedAt, &durationNs,
			&r.Summary.Total, &r.Summary.Passed, &r.Summary.Failed, &r.Summary.Errored,
			&buildFailed, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, startedAt)
		r.Duration = time.Duration(durationNs)
		r.BuildFailed = buildFailed != 0
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
