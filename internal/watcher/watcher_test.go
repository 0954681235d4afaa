package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcher_FiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "ideas.json")
	require.NoError(t, os.WriteFile(target, []byte("[]"), 0o644))

	var fired atomic.Int32
	w, err := New(target, func() { fired.Add(1) })
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(target, []byte(`[{"cluster_id":"a"}]`), 0o644))

	waitFor(t, func() bool { return fired.Load() > 0 })
}

func TestWatcher_FiresOnCreate(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "ideas.json")

	var fired atomic.Int32
	w, err := New(target, func() { fired.Add(1) })
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// The target does not exist yet; creating it counts as a change.
	require.NoError(t, os.WriteFile(target, []byte("[]"), 0o644))

	waitFor(t, func() bool { return fired.Load() > 0 })
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "ideas.json")
	require.NoError(t, os.WriteFile(target, []byte("[]"), 0o644))

	var fired atomic.Int32
	w, err := New(target, func() { fired.Add(1) })
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("x"), 0o644))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestWatcher_StartStopIdempotent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "ideas.json")

	w, err := New(target, nil)
	require.NoError(t, err)

	require.NoError(t, w.Start())
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
