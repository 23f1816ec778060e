// Package job defines the push job record handled by the worker and the
// on-disk layout its stages share.
package job

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
)

// MasterBranch is the branch whose output lives in the unsuffixed directory
// and which staging builds refuse by default.
const MasterBranch = "master"

// regressionTitle is the title the regression harness gives its child jobs.
const regressionTitle = "Regression Test Child Process"

// Payload is the untrusted part of a push job, taken from the webhook.
type Payload struct {
	RepoName   string   `json:"repoName"`
	RepoOwner  string   `json:"repoOwner"`
	BranchName string   `json:"branchName"`
	Upstream   []string `json:"upstream,omitempty"`
}

// Job wraps a payload with the identity used to correlate log lines.
// A Job is owned by the invocation that created it and is not modified while
// the pipeline runs.
type Job struct {
	ID        string
	Title     string
	Payload   *Payload
	CreatedAt time.Time

	// RegressionTest marks jobs spawned by the regression harness; they may
	// build master on staging.
	RegressionTest bool
}

// Record is the serialized job as it arrives from the queue.
type Record struct {
	ID        string    `json:"_id,omitempty"`
	Title     string    `json:"title"`
	Payload   *Payload  `json:"payload"`
	CreatedAt time.Time `json:"createdTime,omitzero"`
}

// New builds a job with a fresh id.
func New(title string, p *Payload) *Job {
	return &Job{ID: uuid.NewString(), Title: title, Payload: p, CreatedAt: time.Now()}
}

// FromRecord converts a queue record into a Job. Missing ids are generated.
func FromRecord(r Record) *Job {
	j := &Job{
		ID:             r.ID,
		Title:          r.Title,
		Payload:        r.Payload,
		CreatedAt:      r.CreatedAt,
		RegressionTest: r.Title == regressionTitle,
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	return j
}

// Decode parses a JSON job record.
func Decode(data []byte) (*Job, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "decode job record").
			UserAction().
			Build()
	}
	return FromRecord(r), nil
}

// RepoName returns the payload repository name, or "" when absent.
func (j *Job) RepoName() string {
	if j == nil || j.Payload == nil {
		return ""
	}
	return j.Payload.RepoName
}

// BranchName returns the payload branch, or "" when absent.
func (j *Job) BranchName() string {
	if j == nil || j.Payload == nil {
		return ""
	}
	return j.Payload.BranchName
}

// JobTitle returns the title, tolerating a nil job.
func (j *Job) JobTitle() string {
	if j == nil {
		return ""
	}
	return j.Title
}

// JobID returns the job id, or "" for a nil job.
func (j *Job) JobID() string {
	if j == nil {
		return ""
	}
	return j.ID
}

// BranchSuffix selects the per-branch output directory suffix.
func BranchSuffix(branch string) string {
	if branch == MasterBranch {
		return ""
	}
	return "-" + branch
}

// OutputDir is where the build writes the rendered site for a repository and
// branch. Build, publish and artifact listing all resolve the path here.
func OutputDir(root, repoName, branch string) string {
	return filepath.Join(root, repoName, "build", "public"+BranchSuffix(branch))
}

// CheckoutDir is where the repository is cloned.
func CheckoutDir(root, repoName string) string {
	return filepath.Join(root, repoName)
}
