package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"VPNLogSift/internal/storage"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
	fail  map[string]bool
}

func (r *recorder) handle(_ context.Context, path string) (storage.Processed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, filepath.Base(path))
	if r.fail[filepath.Base(path)] {
		return storage.Processed{}, errors.New("broken bundle")
	}
	return storage.Processed{RunID: "run-" + filepath.Base(path), Sessions: 1}, nil
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func start(t *testing.T, dir string, store storage.ProcessedStore, rec *recorder) (context.CancelFunc, <-chan error) {
	t.Helper()
	w, err := New(Config{
		Dir:         dir,
		FilePattern: "*.zip",
		SettleDelay: 20 * time.Millisecond,
		Logger:      zap.NewNop(),
		Store:       store,
	}, rec.handle)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()
	return cancel, errCh
}

func TestWatcherProcessesExistingAndNewBundles(t *testing.T) {
	inbox := t.TempDir()
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "processed.json"))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "old.zip"), []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "notes.txt"), []byte("skip"), 0o644))

	rec := &recorder{}
	cancel, errCh := start(t, inbox, store, rec)

	assert.Eventually(t, func() bool { return len(rec.seen()) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "NEW.ZIP"), []byte("new bundle"), 0o644))
	assert.Eventually(t, func() bool { return len(rec.seen()) == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
	assert.ElementsMatch(t, []string{"old.zip", "NEW.ZIP"}, rec.seen())

	processed, err := store.Load()
	require.NoError(t, err)
	require.Len(t, processed, 2)
	old := processed[filepath.Join(inbox, "old.zip")]
	assert.Equal(t, int64(3), old.Size)
	assert.Equal(t, "run-old.zip", old.RunID)
	assert.False(t, old.At.IsZero())
	assert.Equal(t, int64(10), processed[filepath.Join(inbox, "NEW.ZIP")].Size)
}

func TestWatcherSkipsProcessedBundles(t *testing.T) {
	inbox := t.TempDir()
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "processed.json"))
	done := filepath.Join(inbox, "done.zip")
	changed := filepath.Join(inbox, "changed.zip")
	require.NoError(t, os.WriteFile(done, []byte("12345"), 0o644))
	require.NoError(t, os.WriteFile(changed, []byte("grown since last run"), 0o644))
	require.NoError(t, store.Save(map[string]storage.Processed{done: {Size: 5}, changed: {Size: 3}}))

	rec := &recorder{}
	cancel, errCh := start(t, inbox, store, rec)
	assert.Eventually(t, func() bool { return len(rec.seen()) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)

	assert.Equal(t, []string{"changed.zip"}, rec.seen())
}

func TestWatcherDoesNotRecordFailedBundles(t *testing.T) {
	inbox := t.TempDir()
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "processed.json"))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "bad.zip"), []byte("x"), 0o644))

	rec := &recorder{fail: map[string]bool{"bad.zip": true}}
	cancel, errCh := start(t, inbox, store, rec)
	assert.Eventually(t, func() bool { return len(rec.seen()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)

	processed, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, processed)
}

func TestCompilePattern(t *testing.T) {
	re, err := compilePattern("*.zip")
	require.NoError(t, err)
	assert.True(t, re.MatchString("GlobalProtectLogs.ZIP"))
	assert.False(t, re.MatchString("logs.zip.part"))

	re, err = compilePattern("gp_??.zip")
	require.NoError(t, err)
	assert.True(t, re.MatchString("gp_01.zip"))
	assert.False(t, re.MatchString("gp_001.zip"))

	re, err = compilePattern("")
	require.NoError(t, err)
	assert.True(t, re.MatchString("anything"))
}

func TestWatcherMissingDir(t *testing.T) {
	rec := &recorder{}
	w, err := New(Config{
		Dir:    filepath.Join(t.TempDir(), "nope"),
		Logger: zap.NewNop(),
		Store:  storage.NewFileStore(filepath.Join(t.TempDir(), "p.json")),
	}, rec.handle)
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()))
}
