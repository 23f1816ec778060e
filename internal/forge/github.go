// Package forge turns GitHub push webhooks into push job payloads.
package forge

import (
	"crypto/hmac"
	"crypto/sha1" // #nosec G505 - GitHub still sends X-Hub-Signature (sha1)
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"hash"
	"strings"

	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
	"git.home.luguber.info/inful/docworker/internal/job"
)

const branchRefPrefix = "refs/heads/"

// PushEvent is the subset of a GitHub push event the worker needs.
type PushEvent struct {
	Ref        string
	Branch     string
	Owner      string
	Repository string
	HeadCommit string
	// Deleted is set when the push removed the branch.
	Deleted bool
}

// Payload converts the event into a job payload.
func (e *PushEvent) Payload() *job.Payload {
	return &job.Payload{RepoName: e.Repository, RepoOwner: e.Owner, BranchName: e.Branch}
}

type githubPushEvent struct {
	Ref        string `json:"ref"`
	Deleted    bool   `json:"deleted"`
	Repository *struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
			Name  string `json:"name"`
		} `json:"owner"`
	} `json:"repository"`
	HeadCommit *struct {
		ID string `json:"id"`
	} `json:"head_commit"`
}

// ParsePushEvent parses a GitHub push webhook body. Pushes of anything but a
// branch are rejected.
func ParsePushEvent(body []byte) (*PushEvent, error) {
	var raw githubPushEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "decode push event").Build()
	}
	if raw.Repository == nil {
		return nil, ferrors.ValidationError("missing repository in push event").Build()
	}
	if !strings.HasPrefix(raw.Ref, branchRefPrefix) {
		return nil, ferrors.ValidationError("push event is not a branch push").
			WithContext("ref", raw.Ref).
			Build()
	}

	owner := raw.Repository.Owner.Login
	if owner == "" {
		owner = raw.Repository.Owner.Name
	}
	ev := &PushEvent{
		Ref:        raw.Ref,
		Branch:     strings.TrimPrefix(raw.Ref, branchRefPrefix),
		Owner:      owner,
		Repository: raw.Repository.Name,
		Deleted:    raw.Deleted,
	}
	if raw.HeadCommit != nil {
		ev.HeadCommit = raw.HeadCommit.ID
	}
	return ev, nil
}

// ValidateSignature checks a GitHub webhook signature header value
// (sha256=<hex> preferred, legacy sha1=<hex> accepted).
func ValidateSignature(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	var newHash func() hash.Hash
	var expected string
	switch {
	case strings.HasPrefix(signature, "sha256="):
		newHash, expected = sha256.New, strings.TrimPrefix(signature, "sha256=")
	case strings.HasPrefix(signature, "sha1="):
		newHash, expected = sha1.New, strings.TrimPrefix(signature, "sha1=")
	default:
		return false
	}

	mac := hmac.New(newHash, []byte(secret))
	mac.Write(body)
	calc := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(calc))
}
