package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docworker/internal/deadline"
	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
	"git.home.luguber.info/inful/docworker/internal/retry"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docworker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Worker.WorkRoot)
	assert.Equal(t, deadline.StageBudget, cfg.StageTimeoutDuration())
	assert.Equal(t, 450*time.Minute, cfg.StageTimeoutDuration())
	assert.False(t, cfg.Worker.AllowMaster)
	assert.Equal(t, DefaultBuildCommand, cfg.Build.Command)
	assert.Equal(t, DefaultCloneURLTemplate, cfg.Build.CloneURLTemplate)
	assert.Equal(t, filepath.Join(".docworker", "joblog.db"), cfg.JobLog.Path)
	assert.Equal(t, DefaultSubject, cfg.NATS.Subject)
	assert.Equal(t, 30*time.Second, cfg.FetchWaitDuration())
	assert.Empty(t, cfg.Metrics.Listen)
	assert.Equal(t, retry.DefaultPolicy(), cfg.RetryPolicy())
}

func TestLoadFileWithEnvExpansion(t *testing.T) {
	t.Setenv("DOCWORKER_TEST_HOOK", "https://hooks.slack.com/services/T/B/X")
	path := writeConfig(t, `
worker:
  work_root: /srv/docs
  stage_timeout: 20m
  allow_master: true
build:
  command: ["npm", "run", "docs"]
  shallow_depth: 1
  max_retries: 4
  retry_backoff: Exponential
slack:
  webhook_url: ${DOCWORKER_TEST_HOOK}
  channel: "#docs"
metrics:
  listen: ":9464"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/docs", cfg.Worker.WorkRoot)
	assert.Equal(t, 20*time.Minute, cfg.StageTimeoutDuration())
	assert.True(t, cfg.Worker.AllowMaster)
	assert.Equal(t, []string{"npm", "run", "docs"}, cfg.Build.Command)
	assert.Equal(t, "https://hooks.slack.com/services/T/B/X", cfg.Slack.WebhookURL)
	assert.Equal(t, filepath.Join("/srv/docs", ".docworker", "stage"), cfg.Publish.StoreDir)
	assert.Equal(t, ":9464", cfg.Metrics.Listen)

	pol := cfg.RetryPolicy()
	assert.Equal(t, retry.BackoffExponential, pol.Mode)
	assert.Equal(t, 4, pol.MaxRetries)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad timeout":      "worker:\n  stage_timeout: soon\n",
		"negative timeout": "worker:\n  stage_timeout: -5m\n",
		"bad backoff":      "build:\n  retry_backoff: random\n",
		"negative retries": "build:\n  max_retries: -1\n",
		"bad slack url":    "slack:\n  webhook_url: ftp://example.com\n",
		"empty command":    "build:\n  command: [\"\"]\n",
		"bad yaml":         "worker: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(".env", []byte("DOCWORKER_TEST_A=from-file\nDOCWORKER_TEST_B=from-file\n"), 0o600))
	t.Setenv("DOCWORKER_TEST_A", "from-env")
	t.Setenv("DOCWORKER_TEST_B", "")
	require.NoError(t, os.Unsetenv("DOCWORKER_TEST_B"))

	path := writeConfig(t, "forge:\n  webhook_secret: ${DOCWORKER_TEST_A}-${DOCWORKER_TEST_B}\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env-from-file", cfg.Forge.WebhookSecret)
}
