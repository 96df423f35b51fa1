package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VPNLogSift/internal/config"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "processed.json")
	store := NewFileStore(path)

	got, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, got)

	at := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	want := map[string]Processed{
		"/inbox/a.zip": {Size: 1024, RunID: "6f1c", Sessions: 3, At: at},
		"/inbox/b.zip": {Size: 77, At: at},
	}
	require.NoError(t, store.Save(want))

	got, err = NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreEmptyAndBroken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	got, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	_, err = NewFileStore(path).Load()
	assert.ErrorContains(t, err, "decode")
}

func TestOpen(t *testing.T) {
	store, err := Open(&config.Config{ProcessedStorage: "file", ProcessedFile: "x.json"})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = Open(&config.Config{ProcessedStorage: "etcd"})
	assert.Error(t, err)
}
