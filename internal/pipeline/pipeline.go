package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"git.home.luguber.info/inful/docworker/internal/deadline"
	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
	"git.home.luguber.info/inful/docworker/internal/job"
	"git.home.luguber.info/inful/docworker/internal/logfields"
	"git.home.luguber.info/inful/docworker/internal/metrics"
	"git.home.luguber.info/inful/docworker/internal/reporter"
)

// Stage names used in logs, errors and metrics.
const (
	StageBuild   = "build"
	StagePublish = "publish"
	StageList    = "list"
)

// warningMarker in build output means the build output is posted to chat.
const warningMarker = "WARNING:"

// Config holds the settings shared by every run.
type Config struct {
	// WorkRoot is the directory repositories are checked out under.
	WorkRoot string
	// StageTimeout bounds the build and publish stages individually.
	StageTimeout time.Duration
}

// Pipeline runs push jobs. It holds no per-job state and may be shared by
// concurrent runs as long as the collaborators it creates are job-scoped.
type Pipeline struct {
	cfg      Config
	collab   Collaborators
	recorder metrics.Recorder
}

// New creates a pipeline. Zero config values fall back to "." and
// deadline.StageBudget.
func New(cfg Config, collab Collaborators) *Pipeline {
	if cfg.WorkRoot == "" {
		cfg.WorkRoot = "."
	}
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = deadline.StageBudget
	}
	if collab.NewReporter == nil || collab.NewBuilder == nil || collab.NewPublisher == nil || collab.List == nil {
		panic("pipeline.New: all collaborators are required")
	}
	return &Pipeline{cfg: cfg, collab: collab, recorder: metrics.NoopRecorder{}}
}

// WithRecorder injects a metrics recorder.
func (p *Pipeline) WithRecorder(r metrics.Recorder) *Pipeline {
	if r != nil {
		p.recorder = r
	}
	return p
}

// OutputDir is the directory the job's site is built into and listed from.
func (p *Pipeline) OutputDir(j *job.Job) string {
	return job.OutputDir(p.cfg.WorkRoot, j.RepoName(), j.BranchName())
}

// RunGithubPush builds, publishes and lists the artifacts of j. The job is
// expected to have passed sanitize.ValidateJob; the presence of the repository
// and branch names is checked again here because this is also a direct entry
// point. On any failure no artifacts are returned.
func (p *Pipeline) RunGithubPush(ctx context.Context, j *job.Job) ([]string, error) {
	start := time.Now()
	files, err := p.run(ctx, j)
	p.recorder.ObservePipelineDuration(time.Since(start))
	p.recorder.IncPipelineOutcome(outcomeLabel(err))
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (p *Pipeline) run(ctx context.Context, j *job.Job) ([]string, error) {
	rep := p.collab.NewReporter(j)
	rep.LogEntry(ctx, j, " ** Running github push function")

	if j.RepoName() == "" || j.BranchName() == "" {
		rep.LogEntry(ctx, j, reporter.Tagged(reporter.TagBuild, "failed due to insufficient definition"))
		field := "repoName"
		if j.RepoName() != "" {
			field = "branchName"
		}
		return nil, ferrors.ValidationError("insufficient job definition").
			WithContext("job_id", j.JobID()).
			WithContext("field", field).
			Build()
	}

	log := slog.With(logfields.JobID(j.ID), logfields.Repository(j.RepoName()), logfields.Branch(j.BranchName()))

	builder := p.collab.NewBuilder(j)
	publisher := p.collab.NewPublisher(j)

	built, err := p.runStage(ctx, j, rep, StageBuild, "Timed out on build", builder.BuildRepo)
	if err != nil {
		return nil, err
	}
	if combined := built.Combined(); strings.Contains(combined, warningMarker) {
		p.recorder.IncStageResult(StageBuild, metrics.ResultWarning)
		p.notify(ctx, rep, log, combined)
	}
	log.Info("Completed build")

	log.Info("Pushing to stage", logfields.Path(p.OutputDir(j)))
	staged, err := p.runStage(ctx, j, rep, StagePublish, "Timed out on push to stage", publisher.PushToStage)
	if err != nil {
		return nil, err
	}
	p.notify(ctx, rep, log, staged.Stdout)

	dir := p.OutputDir(j)
	files, err := p.collab.List(dir)
	if err != nil {
		rep.LogEntry(context.WithoutCancel(ctx), j, reporter.Tagged(reporter.TagStage, "failed to list build output "+dir))
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "list build output").
			WithContext("job_id", j.ID).
			WithContext("stage", StageList).
			WithContext("path", dir).
			Build()
	}
	log.Info("Push job finished", logfields.Count(len(files)))
	return files, nil
}

type stageFunc func(ctx context.Context, r Reporter) (job.StageOutcome, error)

// runStage runs fn under the stage budget and turns a non-success outcome into
// a stage failure. Failures are written to the job log with enough context to
// diagnose them without rerunning.
func (p *Pipeline) runStage(ctx context.Context, j *job.Job, rep Reporter, stage, timeoutMsg string, fn stageFunc) (job.StageOutcome, error) {
	start := time.Now()
	out, err := deadline.Run(ctx, p.cfg.StageTimeout, func(stageCtx context.Context) (job.StageOutcome, error) {
		return fn(stageCtx, rep)
	}, timeoutMsg)
	elapsed := time.Since(start)
	p.recorder.ObserveStageDuration(stage, elapsed)

	if err == nil && out.Succeeded() {
		p.recorder.IncStageResult(stage, metrics.ResultSuccess)
		return out, nil
	}

	err = p.stageError(j, stage, out, err, elapsed)
	result := metrics.ResultFailure
	if ferrors.HasCategory(err, ferrors.CategoryTimeout) {
		result = metrics.ResultTimeout
	}
	p.recorder.IncStageResult(stage, result)

	slog.Error("Stage failed",
		logfields.JobID(j.ID),
		logfields.Stage(stage),
		logfields.Duration(elapsed),
		logfields.Deadline(p.cfg.StageTimeout),
		logfields.Error(err))
	rep.LogEntry(context.WithoutCancel(ctx), j, reporter.Tagged(stageTag(stage),
		fmt.Sprintf(" %s failed after %s (deadline %s): %v", stage, elapsed.Round(time.Millisecond), p.cfg.StageTimeout, err)))
	return out, err
}

func stageTag(stage string) string {
	if stage == StagePublish {
		return reporter.TagStage
	}
	return reporter.TagBuild
}

func (p *Pipeline) stageError(j *job.Job, stage string, out job.StageOutcome, err error, elapsed time.Duration) error {
	var classified *ferrors.ClassifiedError
	switch c, ok := ferrors.AsClassified(err); {
	case err == nil:
		classified = ferrors.StageError(stage+" stage did not succeed").
			WithContext("status", string(out.Status)).
			WithContext("stderr", tail(out.Stderr, 2048)).
			Build()
	case ok && (c.IsCategory(ferrors.CategoryTimeout) || c.IsCategory(ferrors.CategoryCanceled)):
		classified = c
	default:
		classified = ferrors.WrapError(err, ferrors.CategoryStage, stage+" stage failed").Build()
	}
	return classified.
		WithContext("job_id", j.ID).
		WithContext("stage", stage).
		WithContext("elapsed", elapsed.String()).
		WithContext("deadline", p.cfg.StageTimeout.String())
}

// notify posts to chat; delivery problems do not fail the run.
func (p *Pipeline) notify(ctx context.Context, rep Reporter, log *slog.Logger, msg string) {
	if err := rep.SendChat(ctx, msg); err != nil {
		log.Warn("Chat notification failed", logfields.Error(err))
	}
}

func outcomeLabel(err error) string {
	switch ferrors.GetCategory(err) {
	case ferrors.CategoryTimeout:
		return "timeout"
	case ferrors.CategoryCanceled:
		return "canceled"
	case ferrors.CategoryValidation, ferrors.CategoryPolicy:
		return "invalid"
	}
	if err == nil {
		return "success"
	}
	return "failed"
}

// tail keeps at most the last n bytes of s without splitting a rune.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}
