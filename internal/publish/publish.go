// Package publish pushes a built site into the staging object store.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/docworker/internal/artifacts"
	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
	"git.home.luguber.info/inful/docworker/internal/job"
	"git.home.luguber.info/inful/docworker/internal/logfields"
	"git.home.luguber.info/inful/docworker/internal/pipeline"
	"git.home.luguber.info/inful/docworker/internal/reporter"
	"git.home.luguber.info/inful/docworker/internal/storage"
)

// Store is the subset of storage.FSStore the publisher writes to.
type Store interface {
	Put(ctx context.Context, obj *storage.Object) (string, bool, error)
	PutStageRef(ref storage.StageRef) error
}

// StagePublisher stages the output of one job.
type StagePublisher struct {
	store    Store
	job      *job.Job
	workRoot string
}

// NewStagePublisher creates a publisher for j reading from workRoot.
func NewStagePublisher(store Store, j *job.Job, workRoot string) *StagePublisher {
	return &StagePublisher{store: store, job: j, workRoot: workRoot}
}

// RefName is the staging ref a job publishes to.
func RefName(j *job.Job) string {
	owner := ""
	if j.Payload != nil {
		owner = j.Payload.RepoOwner
	}
	return owner + "/" + j.RepoName() + "/" + j.BranchName()
}

// PushToStage stores every file of the job's output directory and points the
// job's staging ref at them. The ref is only replaced once all files are in.
func (p *StagePublisher) PushToStage(ctx context.Context, r pipeline.Reporter) (job.StageOutcome, error) {
	dir := job.OutputDir(p.workRoot, p.job.RepoName(), p.job.BranchName())
	ref := RefName(p.job)

	files, err := artifacts.ListFiles(dir)
	if err != nil {
		return job.StageOutcome{}, err
	}
	r.LogEntry(ctx, p.job, reporter.Tagged(reporter.TagStage, fmt.Sprintf("staging %d files to %s", len(files), ref)))

	entries := make([]storage.ManifestEntry, 0, len(files))
	created := 0
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return job.StageOutcome{}, err
		}
		entry, isNew, err := p.put(ctx, dir, path)
		if err != nil {
			return job.StageOutcome{}, err
		}
		if isNew {
			created++
		}
		entries = append(entries, entry)
	}

	err = p.store.PutStageRef(storage.StageRef{
		Name:      ref,
		JobID:     p.job.ID,
		UpdatedAt: time.Now().UTC(),
		Entries:   entries,
	})
	if err != nil {
		return job.StageOutcome{}, ferrors.WrapError(err, ferrors.CategoryStore, "write stage ref").
			WithContext("ref", ref).
			Build()
	}

	slog.Info("Staged build output",
		logfields.JobID(p.job.ID),
		logfields.Path(dir),
		logfields.Count(len(entries)),
		slog.Int("new_objects", created))

	return job.StageOutcome{
		Status: job.StatusSuccess,
		Stdout: fmt.Sprintf("Staged %d files (%d new) for %s", len(entries), created, ref),
	}, nil
}

func (p *StagePublisher) put(ctx context.Context, dir, path string) (storage.ManifestEntry, bool, error) {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return storage.ManifestEntry{}, false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve staged path").
			WithContext("path", path).
			Build()
	}
	rel = filepath.ToSlash(rel)

	// #nosec G304 - path comes from walking the job output directory
	data, err := os.ReadFile(path)
	if err != nil {
		return storage.ManifestEntry{}, false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read build output").
			WithContext("path", path).
			Build()
	}

	hash, created, err := p.store.Put(ctx, &storage.Object{
		Type:     storage.ObjectTypeSiteFile,
		Data:     data,
		Metadata: storage.Metadata{Custom: map[string]string{"path": rel}},
	})
	if err != nil {
		if ctx.Err() != nil {
			return storage.ManifestEntry{}, false, ctx.Err()
		}
		return storage.ManifestEntry{}, false, ferrors.WrapError(err, ferrors.CategoryStore, "store build output").
			WithContext("path", rel).
			Build()
	}
	return storage.ManifestEntry{Path: strings.TrimPrefix(rel, "./"), Hash: hash, Size: int64(len(data))}, created, nil
}
