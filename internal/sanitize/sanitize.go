// Package sanitize validates untrusted push job fields before any of them
// reach a process-invoking build step.
//
// "Sanitize" is used loosely: nothing is rewritten, values are only accepted
// or rejected.
package sanitize

import (
	"context"
	"regexp"
	"strings"

	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
	"git.home.luguber.info/inful/docworker/internal/job"
	"git.home.luguber.info/inful/docworker/internal/metrics"
	"git.home.luguber.info/inful/docworker/internal/reporter"
)

// Word characters optionally separated by a hyphen or dot, any number of times.
var safePattern = regexp.MustCompile(`^((\w)*[-.]?(\w)*)*$`)

// JobLogger is the job log sink validation failures are written to.
type JobLogger interface {
	LogEntry(ctx context.Context, j *job.Job, msg string)
}

// BranchPolicy decides which jobs may build the master branch on staging.
type BranchPolicy struct {
	// AllowMaster lets every job build master.
	AllowMaster bool
}

func (p BranchPolicy) allowsMaster(j *job.Job) bool {
	return p.AllowMaster || j.RegressionTest
}

// Sanitizer validates push jobs.
type Sanitizer struct {
	log      JobLogger
	policy   BranchPolicy
	recorder metrics.Recorder
}

// New creates a Sanitizer writing failures to log.
func New(log JobLogger, policy BranchPolicy) *Sanitizer {
	return &Sanitizer{log: log, policy: policy, recorder: metrics.NoopRecorder{}}
}

// WithRecorder injects a metrics recorder for validation failures.
func (s *Sanitizer) WithRecorder(r metrics.Recorder) *Sanitizer {
	if r != nil {
		s.recorder = r
	}
	return s
}

// SafeString reports whether s is ASCII and made only of word characters,
// hyphens and dots.
func SafeString(s string) bool {
	return isASCII(s) && safePattern.MatchString(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}

// ValidateJob runs the structural, character-set and branch checks in that
// order and returns the first failure.
func (s *Sanitizer) ValidateJob(ctx context.Context, j *job.Job) error {
	if field := missingField(j); field != "" {
		s.logEntry(ctx, j, reporter.Tagged("    "+reporter.TagSanitize, "failed due to insufficient job definition"))
		s.recorder.IncValidationFailure("missing_field")
		return invalidJob(j, field, "insufficient job definition")
	}

	p := j.Payload
	for _, f := range []struct{ name, value string }{
		{"repoName", p.RepoName},
		{"repoOwner", p.RepoOwner},
	} {
		if !SafeString(f.value) {
			s.logEntry(ctx, j, reporter.Tagged("    "+reporter.TagSanitize, "failed, unsafe "+f.name))
			s.recorder.IncValidationFailure("unsafe_string")
			return invalidJob(j, f.name, "job not valid")
		}
	}

	ok, err := s.SafeBranch(ctx, j)
	if err != nil {
		s.recorder.IncValidationFailure("master_branch")
		return err
	}
	if !ok {
		s.logEntry(ctx, j, reporter.Tagged("    "+reporter.TagSanitize, "failed, branch not in upstream"))
		s.recorder.IncValidationFailure("upstream_branch")
		return invalidJob(j, "branchName", "job not valid")
	}
	return nil
}

// SafeBranch applies the branch policy.
//
// With a non-empty upstream list the branch is allowed when any upstream entry
// contains it as a substring, so "feature/x" passes for ["feature/xyz"].
// Without one, master is refused unless the policy allows it.
func (s *Sanitizer) SafeBranch(ctx context.Context, j *job.Job) (bool, error) {
	p := j.Payload
	if len(p.Upstream) > 0 {
		for _, up := range p.Upstream {
			if strings.Contains(up, p.BranchName) {
				return true, nil
			}
		}
		return false, nil
	}

	if p.BranchName == job.MasterBranch && !s.policy.allowsMaster(j) {
		s.logEntry(ctx, j, reporter.Tagged(reporter.TagBuild, " failed, master branch not supported on staging builds"))
		return false, ferrors.PolicyError("master branches not supported").
			WithContext("job_id", j.ID).
			WithContext("branch", p.BranchName).
			Build()
	}
	return true, nil
}

func (s *Sanitizer) logEntry(ctx context.Context, j *job.Job, msg string) {
	if s.log != nil {
		s.log.LogEntry(ctx, j, msg)
	}
}

func missingField(j *job.Job) string {
	switch {
	case j == nil:
		return "job"
	case j.Payload == nil:
		return "payload"
	case j.Payload.RepoName == "":
		return "repoName"
	case j.Payload.RepoOwner == "":
		return "repoOwner"
	case j.Payload.BranchName == "":
		return "branchName"
	}
	return ""
}

func invalidJob(j *job.Job, field, msg string) error {
	return ferrors.ValidationError(msg).
		WithContext("job_id", j.JobID()).
		WithContext("field", field).
		Build()
}
