package joblog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreAppendAndLines(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	before := time.Now().Add(-time.Second)
	require.NoError(t, store.Append(ctx, "job-1", " ** Running github push function"))
	require.NoError(t, store.Append(ctx, "job-2", "other job"))
	require.NoError(t, store.Append(ctx, "job-1", "(BUILD)        build failed"))

	lines, err := store.Lines(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, " ** Running github push function", lines[0].Text)
	assert.Equal(t, "(BUILD)        build failed", lines[1].Text)
	assert.Equal(t, "job-1", lines[1].JobID)
	assert.True(t, lines[0].Timestamp.After(before))
	assert.Less(t, lines[0].ID, lines[1].ID)
}

func TestSQLiteStoreUnknownJob(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	lines, err := store.Lines(t.Context(), "missing")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "joblog.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(t.Context(), "job-1", "first"))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	lines, err := reopened.Lines(t.Context(), "job-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "first", lines[0].Text)
}
