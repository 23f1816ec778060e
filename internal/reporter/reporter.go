// Package reporter sends job progress to the durable job log and to chat.
package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/docworker/internal/job"
	"git.home.luguber.info/inful/docworker/internal/logfields"
)

// Tags used to prefix job log lines for downstream filtering.
const (
	TagBuild    = "(BUILD)"
	TagSanitize = "(sanitize)"
	TagStage    = "(stage)"
)

const tagWidth = 15

// Tagged left-pads tag to the job log column width and appends msg.
func Tagged(tag, msg string) string {
	return fmt.Sprintf("%-*s%s", tagWidth, tag, msg)
}

// LogStore persists job log lines.
type LogStore interface {
	Append(ctx context.Context, jobID, line string) error
}

// Sender delivers chat messages.
type Sender interface {
	Send(ctx context.Context, message string) error
}

// Reporter writes job log lines and chat notifications for one job.
// Both sinks are optional.
type Reporter struct {
	store  LogStore
	sender Sender
	logger *slog.Logger
}

// New creates a reporter. A nil store or sender disables that sink.
func New(store LogStore, sender Sender) *Reporter {
	return &Reporter{store: store, sender: sender, logger: slog.Default()}
}

// WithLogger overrides the slog logger the reporter mirrors lines to.
func (r *Reporter) WithLogger(l *slog.Logger) *Reporter {
	if l != nil {
		r.logger = l
	}
	return r
}

// LogEntry appends msg to the job's log. It never fails; store errors are
// logged and dropped.
func (r *Reporter) LogEntry(ctx context.Context, j *job.Job, msg string) {
	r.logger.Info(strings.TrimSpace(msg), logfields.JobID(j.JobID()), logfields.Repository(j.RepoName()))
	if r.store == nil || j == nil {
		return
	}
	if err := r.store.Append(ctx, j.ID, msg); err != nil {
		r.logger.Warn("Failed to append job log entry", logfields.JobID(j.ID), logfields.Error(err))
	}
}

// SendChat posts message to the chat channel. Blank messages are skipped.
func (r *Reporter) SendChat(ctx context.Context, message string) error {
	if r.sender == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	if err := r.sender.Send(ctx, message); err != nil {
		return fmt.Errorf("send chat message: %w", err)
	}
	return nil
}
