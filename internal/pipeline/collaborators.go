package pipeline

import (
	"context"

	"git.home.luguber.info/inful/docworker/internal/job"
)

// Reporter receives job log lines and chat notifications.
type Reporter interface {
	// LogEntry appends to the durable job log. It must not fail.
	LogEntry(ctx context.Context, j *job.Job, msg string)
	SendChat(ctx context.Context, message string) error
}

// Builder checks out and builds the repository for one job.
type Builder interface {
	BuildRepo(ctx context.Context, r Reporter) (job.StageOutcome, error)
}

// Publisher pushes the built site to the staging location.
type Publisher interface {
	PushToStage(ctx context.Context, r Reporter) (job.StageOutcome, error)
}

// Lister enumerates the files under a directory. A missing directory is an error.
type Lister func(dir string) ([]string, error)

// Collaborators creates the job-scoped stage implementations.
type Collaborators struct {
	NewReporter  func(j *job.Job) Reporter
	NewBuilder   func(j *job.Job) Builder
	NewPublisher func(j *job.Job) Publisher
	List         Lister
}
