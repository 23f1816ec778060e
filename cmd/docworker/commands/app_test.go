package commands

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docworker/internal/config"
	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
	"git.home.luguber.info/inful/docworker/internal/job"
	"git.home.luguber.info/inful/docworker/internal/publish"
	helpers "git.home.luguber.info/inful/docworker/internal/testutil/testutils"
)

// testApp wires an App against a local source repository org/docs with a
// "v1" branch.
func testApp(t *testing.T) *App {
	t.Helper()

	src := t.TempDir()
	repoDir := filepath.Join(src, "org", "docs")
	repo, err := gogit.PlainInit(repoDir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	hash := helpers.CommitFiles(t, wt, repoDir, map[string]string{
		"docs/index.md": "# Docs",
		"docs/api.md":   "# API",
	}, "docs")
	helpers.CreateBranch(t, repo, "v1", hash)

	state := t.TempDir()
	cfg := config.Default()
	cfg.Worker.WorkRoot = filepath.Join(state, "work")
	cfg.Publish.StoreDir = filepath.Join(state, "stage")
	cfg.JobLog.Path = filepath.Join(state, "log", "joblog.db")
	cfg.Build.CloneURLTemplate = filepath.Join(src, "{owner}", "{repo}")
	cfg.Build.Command = []string{"sh", "-c", `mkdir -p "$DOCS_OUTPUT_DIR" && for f in docs/*.md; do cp "$f" "$DOCS_OUTPUT_DIR/$(basename "$f" .md).html"; done`}
	require.NoError(t, cfg.Validate())

	app, err := NewApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func jobLines(t *testing.T, app *App, id string) []string {
	t.Helper()
	lines, err := app.jobLog.Lines(t.Context(), id)
	require.NoError(t, err)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return out
}

func TestAppRunsPushJobEndToEnd(t *testing.T) {
	app := testApp(t)
	j := job.New("GitHub Push", &job.Payload{RepoName: "docs", RepoOwner: "org", BranchName: "v1"})

	files, err := app.Handler().Handle(t.Context(), j)
	require.NoError(t, err)

	out := job.OutputDir(app.cfg.Worker.WorkRoot, "docs", "v1")
	assert.Equal(t, []string{filepath.Join(out, "api.html"), filepath.Join(out, "index.html")}, files)

	ref, err := app.stage.StageRef(publish.RefName(j))
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Len(t, ref.Entries, 2)

	lines := jobLines(t, app, j.ID)
	require.NotEmpty(t, lines)
	assert.Equal(t, " ** Running github push function", lines[0])
}

func TestAppRejectsMasterBranch(t *testing.T) {
	app := testApp(t)
	j := job.New("GitHub Push", &job.Payload{RepoName: "docs", RepoOwner: "org", BranchName: "master"})

	_, err := app.Handler().Handle(t.Context(), j)
	require.ErrorIs(t, err, ferrors.MasterBranchNotSupported)

	lines := jobLines(t, app, j.ID)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "(BUILD)"))
	assert.Contains(t, lines[0], "master branch not supported on staging builds")

	_, statErr := os.Stat(job.CheckoutDir(app.cfg.Worker.WorkRoot, "docs"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestAppRejectsUnsafeRepoName(t *testing.T) {
	app := testApp(t)
	j := job.New("GitHub Push", &job.Payload{RepoName: "docs;rm -rf", RepoOwner: "org", BranchName: "v1"})

	_, err := app.Handler().Handle(t.Context(), j)
	require.ErrorIs(t, err, ferrors.InvalidJobDefinition)
}

func TestAppMetricsEndpoint(t *testing.T) {
	app := testApp(t)
	j := job.New("GitHub Push", &job.Payload{RepoName: "docs", RepoOwner: "org", BranchName: "v1"})
	_, err := app.Handler().Handle(t.Context(), j)
	require.NoError(t, err)

	srv := httptest.NewServer(app.metricsMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + app.cfg.Metrics.Path)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `docworker_pipeline_outcomes_total{outcome="success"} 1`)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
