package git

import (
	"context"
	"log/slog"
	"time"
)

// withRetry reruns fn on retryable errors according to the client's policy.
func (c *Client) withRetry(ctx context.Context, url string, fn func() (CloneResult, error)) (CloneResult, error) {
	var lastErr error
	for attempt := 0; attempt <= c.opts.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.opts.Retry.Delay(attempt)
			slog.Warn("Retrying clone", slog.String("url", url), slog.Int("attempt", attempt), slog.Duration("delay", delay))
			if err := c.sleep(ctx, delay); err != nil {
				return CloneResult{}, err
			}
		}
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return CloneResult{}, err
		}
	}
	return CloneResult{}, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
