package commands

import (
	"os"

	"git.home.luguber.info/inful/docworker/internal/forge"
	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
	"git.home.luguber.info/inful/docworker/internal/job"
)

// JobSource selects where a single job comes from: a serialized job record or
// a raw GitHub push webhook body.
type JobSource struct {
	Job       string   `help:"Path to a JSON job record" type:"existingfile" xor:"source" required:""`
	Event     string   `help:"Path to a GitHub push webhook body" type:"existingfile" xor:"source" required:""`
	Signature string   `help:"X-Hub-Signature-256 (or X-Hub-Signature) value to verify the event against"`
	Title     string   `help:"Job title for events" default:"GitHub Push"`
	Upstream  []string `help:"Upstream branches of the repository" sep:","`
}

// Load reads the selected source into a job.
func (s *JobSource) Load(webhookSecret string) (*job.Job, error) {
	if s.Job != "" {
		// #nosec G304 - operator supplied path
		data, err := os.ReadFile(s.Job)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read job record").
				WithContext("path", s.Job).
				Build()
		}
		return job.Decode(data)
	}

	// #nosec G304 - operator supplied path
	body, err := os.ReadFile(s.Event)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read push event").
			WithContext("path", s.Event).
			Build()
	}
	if webhookSecret != "" && !forge.ValidateSignature(body, s.Signature, webhookSecret) {
		return nil, ferrors.ValidationError("push event signature mismatch").
			WithContext("field", "signature").
			UserAction().
			Build()
	}
	ev, err := forge.ParsePushEvent(body)
	if err != nil {
		return nil, err
	}
	if ev.Deleted {
		return nil, ferrors.ValidationError("push deleted the branch, nothing to build").
			WithContext("field", "branchName").
			Build()
	}
	p := ev.Payload()
	p.Upstream = s.Upstream
	return job.FromRecord(job.Record{Title: s.Title, Payload: p}), nil
}
