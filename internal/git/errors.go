package git

import (
	"strings"

	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
)

// classifyCloneError translates go-git errors into classified errors.
func classifyCloneError(url, branch string, err error) error {
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())
	category := ferrors.CategoryGit
	reason := "unknown"
	retryable := false
	switch {
	case containsAny(l, "authentication", "authorization", "invalid credentials"):
		reason = "auth"
	case containsAny(l, "couldn't find remote ref", "reference not found"):
		reason = "branch_not_found"
	case containsAny(l, "repository not found", "does not exist"):
		reason = "repository_not_found"
	case containsAny(l, "unsupported protocol", "protocol not supported"):
		category = ferrors.CategoryConfig
		reason = "unsupported_protocol"
	case containsAny(l, "rate limit", "too many requests"):
		category = ferrors.CategoryNetwork
		reason = "rate_limit"
		retryable = true
	case containsAny(l, "timeout", "connection reset", "connection refused", "remote hung up", "no route to host"):
		category = ferrors.CategoryNetwork
		reason = "network"
		retryable = true
	}

	b := ferrors.WrapError(err, category, "clone repository").
		WithContext("url", url).
		WithContext("branch", branch).
		WithContext("reason", reason)
	if retryable {
		b = b.Retryable()
	}
	return b.Build()
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isRetryable(err error) bool {
	c, ok := ferrors.AsClassified(err)
	return ok && c.CanRetry()
}
