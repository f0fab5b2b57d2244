package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/docsync/internal/report"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
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
		run_id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		index_path TEXT NOT NULL,
		indexed_files INTEGER NOT NULL,
		output_digest TEXT
	);
	CREATE TABLE IF NOT EXISTS source_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		commit_hash TEXT,
		status TEXT NOT NULL,
		error TEXT,
		tasks INTEGER NOT NULL,
		files INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_results_run ON source_results(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record saves r in a single transaction.
func (s *SQLiteStore) Record(ctx context.Context, r *report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, started_at, duration_ns, index_path, indexed_files, output_digest) VALUES (?, ?, ?, ?, ?, ?)",
		r.RunID, r.StartedAt.UnixNano(), int64(r.Duration), r.IndexPath, r.IndexedFiles, r.OutputDigest,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for i, src := range r.Sources {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO source_results (run_id, position, name, url, commit_hash, status, error, tasks, files, duration_ns) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			r.RunID, i, src.Name, src.URL, src.Commit, string(src.Status), src.Error, src.Tasks, src.Files, int64(src.Duration),
		)
		if err != nil {
			return fmt.Errorf("insert source result %s: %w", src.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// List returns the most recent runs first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, started_at, duration_ns, index_path, indexed_files, output_digest FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	reports, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}

	for i := range reports {
		sources, err := s.sourceResults(ctx, reports[i].RunID)
		if err != nil {
			return nil, err
		}
		reports[i].Sources = sources
	}
	return reports, nil
}

func scanRuns(rows *sql.Rows) ([]report.Report, error) {
	defer func() { _ = rows.Close() }()
	var out []report.Report
	for rows.Next() {
		var (
			r         report.Report
			startedNs int64
			durNs     int64
			digest    sql.NullString
		)
		if err := rows.Scan(&r.RunID, &startedNs, &durNs, &r.IndexPath, &r.IndexedFiles, &digest); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, startedNs)
		r.Duration = time.Duration(durNs)
		r.OutputDigest = digest.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) sourceResults(ctx context.Context, runID string) ([]report.SourceResult, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, url, commit_hash, status, error, tasks, files, duration_ns FROM source_results WHERE run_id = ? ORDER BY position",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query source results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []report.SourceResult
	for rows.Next() {
		var (
			sr     report.SourceResult
			commit sql.NullString
			status string
			errMsg sql.NullString
			durNs  int64
		)
		if err := rows.Scan(&sr.Name, &sr.URL, &commit, &status, &errMsg, &sr.Tasks, &sr.Files, &durNs); err != nil {
			return nil, fmt.Errorf("scan source result: %w", err)
		}
		sr.Commit = commit.String
		sr.Status = report.Status(status)
		sr.Error = errMsg.String
		sr.Duration = time.Duration(durNs)
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source results: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
