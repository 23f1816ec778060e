// Package worker combines validation and the push pipeline into the unit of
// work executed for every dequeued job.
package worker

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docworker/internal/job"
	"git.home.luguber.info/inful/docworker/internal/logfields"
)

// Validator rejects unsafe or unsupported jobs.
type Validator interface {
	ValidateJob(ctx context.Context, j *job.Job) error
}

// Runner runs a validated push job.
type Runner interface {
	RunGithubPush(ctx context.Context, j *job.Job) ([]string, error)
}

// Handler validates a job and then runs it.
type Handler struct {
	validator Validator
	runner    Runner
}

// NewHandler creates a handler.
func NewHandler(v Validator, r Runner) *Handler {
	return &Handler{validator: v, runner: r}
}

// Handle returns the files the job produced. Validation failures stop the job
// before any checkout happens.
func (h *Handler) Handle(ctx context.Context, j *job.Job) ([]string, error) {
	log := slog.With(logfields.JobID(j.JobID()), logfields.JobTitle(j.JobTitle()))
	if err := h.validator.ValidateJob(ctx, j); err != nil {
		log.Warn("Rejected push job", logfields.Error(err))
		return nil, err
	}
	files, err := h.runner.RunGithubPush(ctx, j)
	if err != nil {
		log.Error("Push job failed", logfields.Error(err))
		return nil, err
	}
	log.Info("Push job succeeded", logfields.Count(len(files)))
	return files, nil
}
