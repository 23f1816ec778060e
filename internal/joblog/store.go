// Package joblog persists per-job log lines so a run can be audited after
// the worker that executed it is gone.
package joblog

import (
	"context"
	"time"
)

// Line is one persisted job log entry.
type Line struct {
	ID        int64
	JobID     string
	Timestamp time.Time
	Text      string
}

// Store appends and reads job log lines.
type Store interface {
	// Append adds a line to the job's log.
	Append(ctx context.Context, jobID, line string) error

	// Lines returns the job's log in append order.
	Lines(ctx context.Context, jobID string) ([]Line, error)

	// Close releases resources.
	Close() error
}
