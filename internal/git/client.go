package git

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/docworker/internal/logfields"
	"git.home.luguber.info/inful/docworker/internal/retry"
)

// Options configures clones.
type Options struct {
	// ShallowDepth limits history when > 0.
	ShallowDepth int
	// Token authenticates HTTPS clones when set.
	Token string
	Retry retry.Policy
}

// CloneResult describes a finished checkout.
type CloneResult struct {
	Path   string
	Commit string
}

// Client handles Git operations.
type Client struct {
	opts  Options
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client.
func NewClient(opts Options) *Client {
	return &Client{opts: opts, sleep: sleepCtx}
}

// Clone replaces dir with a fresh single-branch checkout of branch from url.
func (c *Client) Clone(ctx context.Context, url, branch, dir string) (CloneResult, error) {
	return c.withRetry(ctx, url, func() (CloneResult, error) {
		return c.cloneOnce(ctx, url, branch, dir)
	})
}

func (c *Client) cloneOnce(ctx context.Context, url, branch, dir string) (CloneResult, error) {
	slog.Debug("Cloning repository", slog.String("url", url), logfields.Branch(branch), logfields.Path(dir))
	if err := os.RemoveAll(dir); err != nil {
		return CloneResult{}, classifyCloneError(url, branch, err)
	}

	opts := &git.CloneOptions{
		URL:           url,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Depth:         c.opts.ShallowDepth,
		Auth:          c.auth(),
	}
	repository, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		if ctx.Err() != nil {
			return CloneResult{}, ctx.Err()
		}
		return CloneResult{}, classifyCloneError(url, branch, err)
	}

	result := CloneResult{Path: dir}
	if ref, herr := repository.Head(); herr == nil {
		result.Commit = ref.Hash().String()
	}
	slog.Info("Repository cloned", slog.String("url", url), logfields.Branch(branch), slog.String("commit", short(result.Commit)))
	return result, nil
}

func (c *Client) auth() transport.AuthMethod {
	if c.opts.Token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "token", Password: c.opts.Token}
}

func short(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
