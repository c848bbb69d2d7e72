// Package history persists finalized run summaries in a local SQLite
// database. Recording is best-effort; a broken store never fails a run.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/deepdoc/internal/report"
)

// Store keeps run records in SQLite. Use ":memory:" for tests.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Record is one persisted run, as listed by the history command.
type Record struct {
	RunID      string
	Project    string
	Path       string
	Depth      int
	Status     string
	Quality    float64
	Documents  int
	FinishedAt time.Time
	Summary    report.Summary
}

// Open creates the store, creating parent directories and the schema as
// needed.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		project TEXT NOT NULL,
		path TEXT NOT NULL,
		depth INTEGER NOT NULL,
		status TEXT NOT NULL,
		quality REAL NOT NULL,
		documents INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		summary BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project);
	CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one finalized run.
func (s *Store) Record(ctx context.Context, summary report.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, project, path, depth, status, quality, documents, finished_at, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID, summary.Project, summary.Path, summary.Depth, summary.Status,
		summary.Quality.Overall, summary.DocumentCount, summary.FinishedAt.Unix(), payload,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent lists the most recent runs, newest first. A project filter of ""
// matches all projects.
func (s *Store) Recent(ctx context.Context, project string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	query := `SELECT run_id, project, path, depth, status, quality, documents, finished_at, summary
		 FROM runs WHERE (? = '' OR project = ?) ORDER BY finished_at DESC, id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, project, project, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var finishedUnix int64
		var payload []byte
		if err := rows.Scan(&r.RunID, &r.Project, &r.Path, &r.Depth, &r.Status,
			&r.Quality, &r.Documents, &finishedUnix, &payload); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.FinishedAt = time.Unix(finishedUnix, 0).UTC()
		if err := json.Unmarshal(payload, &r.Summary); err != nil {
			return nil, fmt.Errorf("decode run summary: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
