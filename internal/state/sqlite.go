package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed store.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		task TEXT NOT NULL,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		error TEXT,
		files INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_task ON runs(task);
	CREATE TABLE IF NOT EXISTS last_runs (
		task TEXT PRIMARY KEY,
		started INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LastRun implements Store.
func (s *SQLiteStore) LastRun(ctx context.Context, task string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var started int64
	err := s.db.QueryRowContext(ctx, "SELECT started FROM last_runs WHERE task = ?", task).Scan(&started)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query last run: %w", err)
	}
	return time.Unix(0, started), true, nil
}

// RecordRun implements Store.
func (s *SQLiteStore) RecordRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, task, started, finished, outcome, error, files) VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.RunID, run.Task, run.Started.UnixNano(), run.Finished.UnixNano(), string(run.Outcome), run.Error, run.Files,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if run.Outcome == OutcomeSuccess {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO last_runs (task, started) VALUES (?, ?) ON CONFLICT(task) DO UPDATE SET started = excluded.started",
			run.Task, run.Started.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("update last run: %w", err)
		}
	}
	return tx.Commit()
}

// Reset implements Store.
func (s *SQLiteStore) Reset(ctx context.Context, tasks ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range tasks {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM last_runs WHERE task = ?", task); err != nil {
			return fmt.Errorf("reset %s: %w", task, err)
		}
	}
	return nil
}

// History implements Store.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, run_id, task, started, finished, outcome, error, files FROM runs ORDER BY id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		var outcome string
		var errText sql.NullString
		if err := rows.Scan(&r.ID, &r.RunID, &r.Task, &started, &finished, &outcome, &errText, &r.Files); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Started = time.Unix(0, started)
		r.Finished = time.Unix(0, finished)
		r.Outcome = Outcome(outcome)
		r.Error = errText.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
