package config

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docworker/internal/deadline"
	"git.home.luguber.info/inful/docworker/internal/retry"
)

// Defaults used when a value is omitted.
const (
	DefaultCloneURLTemplate = "https://github.com/{owner}/{repo}.git"
	DefaultNATSURL          = "nats://127.0.0.1:4222"
	DefaultStream           = "DOCWORKER_JOBS"
	DefaultSubject          = "docworker.jobs.githubPush"
	DefaultDurable          = "docworker"
	DefaultFetchWait        = "30s"
	DefaultMetricsPath      = "/metrics"
)

// DefaultBuildCommand is run in the checkout when none is configured.
var DefaultBuildCommand = []string{"make", "html"}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Worker.WorkRoot == "" {
		cfg.Worker.WorkRoot = "."
	}
	if cfg.Worker.StageTimeout == "" {
		cfg.Worker.StageTimeout = deadline.StageBudget.String()
	}

	if cfg.Build.CloneURLTemplate == "" {
		cfg.Build.CloneURLTemplate = DefaultCloneURLTemplate
	}
	if len(cfg.Build.Command) == 0 {
		cfg.Build.Command = append([]string(nil), DefaultBuildCommand...)
	}
	if cfg.Build.ShallowDepth < 0 {
		cfg.Build.ShallowDepth = 0
	}
	if cfg.Build.RetryBackoff == "" {
		cfg.Build.RetryBackoff = string(retry.BackoffLinear)
	}
	cfg.Build.RetryBackoff = strings.ToLower(cfg.Build.RetryBackoff)
	if cfg.Build.RetryInitialDelay == "" {
		cfg.Build.RetryInitialDelay = "1s"
	}
	if cfg.Build.RetryMaxDelay == "" {
		cfg.Build.RetryMaxDelay = "30s"
	}

	if cfg.Publish.StoreDir == "" {
		cfg.Publish.StoreDir = filepath.Join(cfg.Worker.WorkRoot, ".docworker", "stage")
	}
	if cfg.JobLog.Path == "" {
		cfg.JobLog.Path = filepath.Join(cfg.Worker.WorkRoot, ".docworker", "joblog.db")
	}

	if cfg.NATS.URL == "" {
		cfg.NATS.URL = DefaultNATSURL
	}
	if cfg.NATS.Stream == "" {
		cfg.NATS.Stream = DefaultStream
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = DefaultSubject
	}
	if cfg.NATS.Durable == "" {
		cfg.NATS.Durable = DefaultDurable
	}
	if cfg.NATS.FetchWait == "" {
		cfg.NATS.FetchWait = DefaultFetchWait
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}
