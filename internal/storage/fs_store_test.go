package storage

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStorePutAndGet(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := t.Context()
	data := []byte("<html>docs</html>")
	hash, created, err := store.Put(ctx, &Object{
		Type:     ObjectTypeSiteFile,
		Data:     data,
		Metadata: Metadata{Custom: map[string]string{"path": "index.html"}},
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, hash, 64)

	_, err = os.Stat(store.objectPath(hash))
	require.NoError(t, err)

	obj, err := store.Get(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, data, obj.Data)
	assert.Equal(t, ObjectTypeSiteFile, obj.Type)
	assert.Equal(t, "index.html", obj.Metadata.Custom["path"])
	assert.Equal(t, int64(len(data)), obj.Size)
}

func TestFSStoreDeduplicates(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	ctx := t.Context()
	first, created, err := store.Put(ctx, &Object{Type: ObjectTypeSiteFile, Data: []byte("same")})
	require.NoError(t, err)
	require.True(t, created)
	second, created, err := store.Put(ctx, &Object{Type: ObjectTypeSiteFile, Data: []byte("same")})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)

	obj, err := store.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, obj.Metadata.RefCount)

	hashes, err := store.List(ctx, ObjectTypeSiteFile)
	require.NoError(t, err)
	assert.Equal(t, []string{first}, hashes)
}

func TestFSStoreGetMissing(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(t.Context(), "abcdef")
	assert.True(t, IsNotFound(err))

	ok, err := store.Exists(t.Context(), "abcdef")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFSStoreStageRefs(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	missing, err := store.StageRef("org/docs/release-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	ref := StageRef{
		Name:      "org/docs/../../etc",
		JobID:     "job-1",
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
		Entries:   []ManifestEntry{{Path: "index.html", Hash: "ab12", Size: 4}},
	}
	require.NoError(t, store.PutStageRef(ref))

	got, err := store.StageRef(ref.Name)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ref.JobID, got.JobID)
	assert.Equal(t, ref.Entries, got.Entries)
	assert.True(t, ref.UpdatedAt.Equal(got.UpdatedAt))
}
