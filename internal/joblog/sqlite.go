package joblog

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and creates if needed) the job log database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStore, "open job log database").
			WithContext("path", dbPath).
			Build()
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryStore, "initialize job log schema").Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS job_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		line TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_job_logs_job_id ON job_logs(job_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds a line to the job's log.
func (s *SQLiteStore) Append(ctx context.Context, jobID, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO job_logs (job_id, timestamp, line) VALUES (?, ?, ?)",
		jobID, time.Now().UnixMilli(), line,
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStore, "append job log line").
			WithContext("job_id", jobID).
			Build()
	}
	return nil
}

// Lines returns the job's log in append order.
func (s *SQLiteStore) Lines(ctx context.Context, jobID string) ([]Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, job_id, timestamp, line FROM job_logs WHERE job_id = ? ORDER BY id",
		jobID,
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStore, "query job log").Build()
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		var ts int64
		if err := rows.Scan(&l.ID, &l.JobID, &ts, &l.Text); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryStore, "scan job log line").Build()
		}
		l.Timestamp = time.UnixMilli(ts)
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStore, "iterate job log").Build()
	}
	return lines, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
