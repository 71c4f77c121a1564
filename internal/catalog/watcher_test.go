package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingInvalidator struct {
	n atomic.Int32
}

func (c *countingInvalidator) Invalidate() { c.n.Add(1) }

func TestWatcher_InvalidatesOnChange(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "guidecards", "fall")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	inv := &countingInvalidator{}
	w, err := NewWatcher(root, inv, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "questions.json"), []byte(`[]`), 0o600))

	require.Eventually(t, func() bool { return inv.n.Load() > 0 }, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	inv := &countingInvalidator{}
	w, err := NewWatcher(root, inv, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)

	dir := filepath.Join(root, "protocols")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.Eventually(t, func() bool { return inv.n.Load() > 0 }, 5*time.Second, 20*time.Millisecond)

	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)
	before := inv.n.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.json"), []byte(`{}`), 0o600))
	require.Eventually(t, func() bool { return inv.n.Load() > before }, 5*time.Second, 20*time.Millisecond)
}

func TestNewWatcher_MissingRoot(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), &countingInvalidator{}, nil)
	require.Error(t, err)
}
