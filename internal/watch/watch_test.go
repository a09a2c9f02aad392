package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Test Plan:
// - Start/Stop is idempotent and leaves the watcher in the Stopped state.
// - A file write under a watched root is eventually dispatched as a change event.
// - Paths under the index directory are never dispatched.

func alwaysMatch(string) bool { return true }

func TestStartStop_Idempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, filepath.Join(dir, ".codesearch"), alwaysMatch, func([]Event) {})
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	require.Equal(t, StateReady, w.State())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	require.Equal(t, StateStopped, w.State())
}

func TestWatcher_DispatchesChangeOnWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	received := make(chan []Event, 8)
	w, err := New([]string{dir}, filepath.Join(dir, ".codesearch"), alwaysMatch, func(events []Event) {
		received <- events
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(target, []byte("package main\n\nfunc main() {}\n"), 0o644))

	select {
	case events := <-received:
		require.NotEmpty(t, events)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
}

func TestWatcher_IgnoresIndexDirectory(t *testing.T) {
	dir := t.TempDir()
	indexDir := filepath.Join(dir, ".codesearch")
	require.NoError(t, os.MkdirAll(indexDir, 0o755))

	received := make(chan []Event, 8)
	w, err := New([]string{dir}, indexDir, alwaysMatch, func(events []Event) {
		received <- events
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(indexDir, "index.db"), []byte("x"), 0o644))

	select {
	case events := <-received:
		t.Fatalf("expected no dispatch for index directory write, got %v", events)
	case <-time.After(700 * time.Millisecond):
	}
}
