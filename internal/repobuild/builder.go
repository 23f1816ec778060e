// Package repobuild checks out a pushed branch and runs the documentation
// build command in it.
package repobuild

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
	"git.home.luguber.info/inful/docworker/internal/git"
	"git.home.luguber.info/inful/docworker/internal/job"
	"git.home.luguber.info/inful/docworker/internal/logfields"
	"git.home.luguber.info/inful/docworker/internal/pipeline"
	"git.home.luguber.info/inful/docworker/internal/reporter"
)

// maxOutputSize caps captured stdout and stderr.
const maxOutputSize = 1 << 20

// Environment variables handed to the build command.
const (
	EnvOutputDir = "DOCS_OUTPUT_DIR"
	EnvRepo      = "DOCS_REPO"
	EnvOwner     = "DOCS_OWNER"
	EnvBranch    = "DOCS_BRANCH"
	EnvJobID     = "DOCS_JOB_ID"
)

// Cloner fetches a branch into a directory.
type Cloner interface {
	Clone(ctx context.Context, url, branch, dir string) (git.CloneResult, error)
}

// Config controls checkout and build.
type Config struct {
	WorkRoot string
	// CloneURLTemplate may contain {owner} and {repo}.
	CloneURLTemplate string
	// Command is the argv run inside the checkout.
	Command []string
}

// Builder builds one job.
type Builder struct {
	cfg    Config
	cloner Cloner
	job    *job.Job
}

// New creates a builder for j.
func New(cfg Config, cloner Cloner, j *job.Job) *Builder {
	return &Builder{cfg: cfg, cloner: cloner, job: j}
}

// CloneURL expands the {owner} and {repo} placeholders of tmpl.
func CloneURL(tmpl, owner, repo string) string {
	return strings.NewReplacer("{owner}", owner, "{repo}", repo).Replace(tmpl)
}

// BuildRepo clones the job's branch and runs the build command. A command
// that exits non-zero produces a failure outcome, not an error; errors are
// reserved for checkout problems and commands that could not be started.
func (b *Builder) BuildRepo(ctx context.Context, r pipeline.Reporter) (job.StageOutcome, error) {
	if len(b.cfg.Command) == 0 {
		return job.StageOutcome{}, ferrors.ConfigError("build command is empty").Build()
	}
	owner := ""
	if b.job.Payload != nil {
		owner = b.job.Payload.RepoOwner
	}
	repo, branch := b.job.RepoName(), b.job.BranchName()
	checkout := job.CheckoutDir(b.cfg.WorkRoot, repo)
	url := CloneURL(b.cfg.CloneURLTemplate, owner, repo)

	r.LogEntry(ctx, b.job, reporter.Tagged(reporter.TagBuild, fmt.Sprintf("cloning %s at %s", url, branch)))
	cloned, err := b.cloner.Clone(ctx, url, branch, checkout)
	if err != nil {
		return job.StageOutcome{}, err
	}

	outputDir, err := filepath.Abs(job.OutputDir(b.cfg.WorkRoot, repo, branch))
	if err != nil {
		return job.StageOutcome{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve output directory").Build()
	}

	r.LogEntry(ctx, b.job, reporter.Tagged(reporter.TagBuild, "running "+strings.Join(b.cfg.Command, " ")))
	// #nosec G204 - the command comes from operator configuration
	cmd := exec.CommandContext(ctx, b.cfg.Command[0], b.cfg.Command[1:]...)
	cmd.Dir = checkout
	cmd.Env = append(os.Environ(),
		EnvOutputDir+"="+outputDir,
		EnvRepo+"="+repo,
		EnvOwner+"="+owner,
		EnvBranch+"="+branch,
		EnvJobID+"="+b.job.ID,
	)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	out := job.StageOutcome{
		Status: job.StatusSuccess,
		Stdout: capOutput(stdout.String()),
		Stderr: capOutput(stderr.String()),
	}

	log := slog.With(logfields.JobID(b.job.ID), logfields.Repository(repo), logfields.Branch(branch), slog.String("commit", cloned.Commit))
	if runErr != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return out, ferrors.WrapError(runErr, ferrors.CategoryConfig, "start build command").
				WithContext("command", b.cfg.Command[0]).
				Build()
		}
		out.Status = job.StatusFailure
		log.Warn("Build command failed", slog.Int("exit_code", exitErr.ExitCode()))
		return out, nil
	}
	log.Info("Build command finished", logfields.Path(outputDir))
	return out, nil
}

func capOutput(s string) string {
	return truncate(s, maxOutputSize)
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "\n... [truncated]"
}
