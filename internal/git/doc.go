// Package git clones the pushed branch of a documentation repository.
//
// Clone failures are returned as classified errors: authentication and
// missing repositories are permanent, network failures are retried with the
// configured backoff policy.
package git
