package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingReloader struct {
	reloads chan struct{}
}

func newCountingReloader() *countingReloader {
	return &countingReloader{reloads: make(chan struct{}, 16)}
}

func (c *countingReloader) Reload() { c.reloads <- struct{}{} }

// start runs w until the returned stop func is called.
func start(t *testing.T, w *Watcher) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	}
}

func waitReload(t *testing.T, r *countingReloader) {
	t.Helper()
	select {
	case <-r.reloads:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
}

func TestWatcher_FileChangeReloads(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "Home.jsx")
	require.NoError(t, os.WriteFile(src, []byte("export default 1;"), 0o644))

	r := newCountingReloader()
	w, err := New(r, 20*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Add(src))

	files, dirs := w.Watched()
	assert.Equal(t, 1, files)
	assert.Equal(t, 0, dirs)

	stop := start(t, w)
	defer stop()

	require.NoError(t, os.WriteFile(src, []byte("export default 2;"), 0o644))
	waitReload(t, r)
}

func TestWatcher_BurstIsDebounced(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "Nav.jsx")
	require.NoError(t, os.WriteFile(src, nil, 0o644))

	r := newCountingReloader()
	w, err := New(r, 200*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Add(src))

	stop := start(t, w)
	defer stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(src, []byte{byte('a' + i)}, 0o644))
	}
	waitReload(t, r)

	select {
	case <-r.reloads:
		t.Fatal("burst produced more than one reload")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_UnrelatedSiblingIgnored(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "watched.js")
	require.NoError(t, os.WriteFile(src, nil, 0o644))

	r := newCountingReloader()
	w, err := New(r, 20*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Add(src))

	stop := start(t, w)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.js"), []byte("x"), 0o644))

	select {
	case <-r.reloads:
		t.Fatal("change to an unwatched sibling triggered a reload")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_DirectoryTree(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested"), 0o755))

	r := newCountingReloader()
	w, err := New(r, 20*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Add(root))

	stop := start(t, w)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "nested", "deep.js"), []byte("x"), 0o644))
	waitReload(t, r)
}

func TestWatcher_AddMissingPath(t *testing.T) {
	r := newCountingReloader()
	w, err := New(r, 0, nil)
	require.NoError(t, err)
	defer func() { _ = w.fsw.Close() }()

	assert.Equal(t, DefaultDelay, w.delay)
	assert.Error(t, w.Add(filepath.Join(t.TempDir(), "missing.js")))
}

func TestWatcher_Relevant(t *testing.T) {
	w := &Watcher{
		files: map[string]struct{}{"/src/a.js": {}},
		dirs:  map[string]struct{}{"/src/assets": {}},
	}

	assert.True(t, w.relevant("/src/a.js"))
	assert.True(t, w.relevant("/src/assets"))
	assert.True(t, w.relevant("/src/assets/img/logo.svg"))
	assert.False(t, w.relevant("/src/b.js"))
	assert.False(t, w.relevant("/src/assets-old/x.js"))
}
