// Package config loads the worker configuration from YAML, the process
// environment and optional .env files.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
	"git.home.luguber.info/inful/docworker/internal/retry"
)

// Config is the complete worker configuration.
type Config struct {
	Worker  WorkerConfig  `yaml:"worker"`
	Build   BuildConfig   `yaml:"build"`
	Publish PublishConfig `yaml:"publish"`
	JobLog  JobLogConfig  `yaml:"joblog"`
	Slack   SlackConfig   `yaml:"slack"`
	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
	Forge   ForgeConfig   `yaml:"forge"`
}

// WorkerConfig controls how jobs are run.
type WorkerConfig struct {
	WorkRoot     string `yaml:"work_root"`     // checkout root
	StageTimeout string `yaml:"stage_timeout"` // per-stage budget, Go duration
	AllowMaster  bool   `yaml:"allow_master"`  // permit master builds on staging
}

// BuildConfig controls checkout and the build command.
type BuildConfig struct {
	CloneURLTemplate  string   `yaml:"clone_url_template"` // {owner} and {repo} are substituted
	Token             string   `yaml:"token"`
	Command           []string `yaml:"command"`
	ShallowDepth      int      `yaml:"shallow_depth"`
	MaxRetries        int      `yaml:"max_retries"`
	RetryBackoff      string   `yaml:"retry_backoff"` // fixed|linear|exponential
	RetryInitialDelay string   `yaml:"retry_initial_delay"`
	RetryMaxDelay     string   `yaml:"retry_max_delay"`
}

// PublishConfig locates the staging store.
type PublishConfig struct {
	StoreDir string `yaml:"store_dir"`
}

// JobLogConfig locates the durable job log.
type JobLogConfig struct {
	Path string `yaml:"path"`
}

// SlackConfig enables chat notifications when WebhookURL is set.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
}

// NATSConfig describes where jobs are consumed from.
type NATSConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Subject   string `yaml:"subject"`
	Durable   string `yaml:"durable"`
	FetchWait string `yaml:"fetch_wait"`
}

// MetricsConfig enables the Prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`
}

// ForgeConfig holds webhook settings.
type ForgeConfig struct {
	WebhookSecret string `yaml:"webhook_secret"`
}

// Load reads the configuration at path. An empty path yields the defaults.
// ${VAR} references are expanded after .env files have been loaded.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	var cfg Config
	if path != "" {
		// #nosec G304 - path is the operator supplied config file
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read config file").
				WithContext("path", path).
				Build()
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "parse config file").
				WithContext("path", path).
				Build()
		}
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// StageTimeoutDuration returns the parsed stage budget.
func (c *Config) StageTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Worker.StageTimeout)
	return d
}

// FetchWaitDuration returns how long a queue fetch blocks.
func (c *Config) FetchWaitDuration() time.Duration {
	d, _ := time.ParseDuration(c.NATS.FetchWait)
	return d
}

// RetryPolicy returns the clone retry policy.
func (c *Config) RetryPolicy() retry.Policy {
	initial, _ := time.ParseDuration(c.Build.RetryInitialDelay)
	maxDelay, _ := time.ParseDuration(c.Build.RetryMaxDelay)
	return retry.NewPolicy(retry.BackoffMode(c.Build.RetryBackoff), initial, maxDelay, c.Build.MaxRetries)
}
