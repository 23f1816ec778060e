package config

import (
	"net/url"
	"time"

	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
	"git.home.luguber.info/inful/docworker/internal/retry"
)

// Validate rejects configurations the worker cannot run with.
func (c *Config) Validate() error {
	if err := positiveDuration("worker.stage_timeout", c.Worker.StageTimeout); err != nil {
		return err
	}
	if err := positiveDuration("nats.fetch_wait", c.NATS.FetchWait); err != nil {
		return err
	}
	if err := positiveDuration("build.retry_initial_delay", c.Build.RetryInitialDelay); err != nil {
		return err
	}
	if err := positiveDuration("build.retry_max_delay", c.Build.RetryMaxDelay); err != nil {
		return err
	}

	if len(c.Build.Command) == 0 || c.Build.Command[0] == "" {
		return invalid("build.command", "build command is required")
	}
	if c.Build.MaxRetries < 0 {
		return invalid("build.max_retries", "max retries cannot be negative")
	}
	switch retry.BackoffMode(c.Build.RetryBackoff) {
	case retry.BackoffFixed, retry.BackoffLinear, retry.BackoffExponential:
	default:
		return invalid("build.retry_backoff", "unknown retry backoff "+c.Build.RetryBackoff)
	}

	if c.Slack.WebhookURL != "" {
		u, err := url.Parse(c.Slack.WebhookURL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return invalid("slack.webhook_url", "slack webhook url must be an http(s) url")
		}
	}
	return nil
}

func positiveDuration(field, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid duration").
			WithContext("field", field).
			Build()
	}
	if d <= 0 {
		return invalid(field, "duration must be positive")
	}
	return nil
}

func invalid(field, msg string) error {
	return ferrors.ConfigError(msg).WithContext("field", field).Build()
}
