package job

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
)

func TestOutputDir(t *testing.T) {
	tests := []struct {
		branch string
		want   string
	}{
		{"release-1", filepath.Join("docs", "build", "public-release-1")},
		{"master", filepath.Join("docs", "build", "public")},
		{"main", filepath.Join("docs", "build", "public-main")},
	}
	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputDir(".", "docs", tt.branch))
		})
	}
}

func TestBranchSuffix(t *testing.T) {
	assert.Equal(t, "", BranchSuffix("master"))
	assert.Equal(t, "-feature", BranchSuffix("feature"))
}

func TestDecode(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		j, err := Decode([]byte(`{"_id":"abc","title":"docs push","payload":{"repoName":"docs","repoOwner":"org","branchName":"release-1","upstream":["dev"]}}`))
		require.NoError(t, err)
		assert.Equal(t, "abc", j.ID)
		assert.Equal(t, "docs push", j.Title)
		assert.Equal(t, "docs", j.RepoName())
		assert.Equal(t, "release-1", j.BranchName())
		assert.Equal(t, []string{"dev"}, j.Payload.Upstream)
		assert.False(t, j.RegressionTest)
		assert.False(t, j.CreatedAt.IsZero())
	})

	t.Run("regression harness title sets flag", func(t *testing.T) {
		j, err := Decode([]byte(`{"title":"Regression Test Child Process","payload":{}}`))
		require.NoError(t, err)
		assert.True(t, j.RegressionTest)
		assert.NotEmpty(t, j.ID)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := Decode([]byte(`{`))
		assert.ErrorIs(t, err, ferrors.InvalidJobDefinition)
	})
}

func TestNilAccessors(t *testing.T) {
	var j *Job
	assert.Equal(t, "", j.RepoName())
	assert.Equal(t, "", j.BranchName())
	assert.Equal(t, "", j.JobID())
	assert.Equal(t, "", (&Job{}).RepoName())
}

func TestStageOutcome(t *testing.T) {
	o := StageOutcome{Status: StatusSuccess, Stdout: "out", Stderr: "err"}
	assert.True(t, o.Succeeded())
	assert.Equal(t, "out\n\nerr", o.Combined())
	assert.False(t, StageOutcome{Status: StatusFailure}.Succeeded())
}
