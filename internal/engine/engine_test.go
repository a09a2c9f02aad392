package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegrove/codesearch/internal/watch"
)

// Test Plan:
// - Indexing a file with an exported function makes it findable by a related phrase.
// - The four case-shape forms of a query return the same top result.
// - Removing chunks for a deleted path empties search results for a term unique to it.
// - A file under node_modules never contributes a hit, even after a full index.

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestEngine(t *testing.T, root string) *Engine {
	t.Helper()
	indexDir := filepath.Join(root, ".codesearch")
	e, err := New(Options{Roots: []string{root}, IndexDir: indexDir})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestIndex_SingleFileThenSearch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export function loginWithOtp(code) {\n  return verify(code)\n}\n")

	e := newTestEngine(t, root)
	report, err := e.Index(context.Background(), NoOpProgressReporter{})
	require.NoError(t, err)
	require.True(t, report.Completed)
	require.Equal(t, 1, report.FilesProcessed)

	resp := e.Search("login otp", DefaultSearchOptions())
	require.NotEmpty(t, resp.Results)
	require.Contains(t, resp.Results[0].Path, "a.ts")
	require.Greater(t, resp.Results[0].Score, 0.0)
}

func TestSearch_CaseShapeFormsAgreeOnTopResult(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "profile.go", "package profile\n\nfunc userProfile() string {\n  return \"ok\"\n}\n")

	e := newTestEngine(t, root)
	_, err := e.Index(context.Background(), NoOpProgressReporter{})
	require.NoError(t, err)

	forms := []string{"user profile", "UserProfile", "user_profile", "user-profile"}
	var top string
	for i, f := range forms {
		resp := e.Search(f, DefaultSearchOptions())
		require.NotEmpty(t, resp.Results, "form %q returned no results", f)
		if i == 0 {
			top = resp.Results[0].ChunkID
		} else {
			require.Equal(t, top, resp.Results[0].ChunkID, "form %q disagreed on top result", f)
		}
	}
}

func TestWatchEvents_DeleteRemovesChunksFromSearch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.go", "package x\n\nfunc keepMe() {}\n")
	gonePath := writeFile(t, root, "gone.go", "package x\n\nfunc uniqueDoomedMarker() {}\n")

	e := newTestEngine(t, root)
	_, err := e.Index(context.Background(), NoOpProgressReporter{})
	require.NoError(t, err)

	before := e.Search("uniqueDoomedMarker", DefaultSearchOptions())
	require.NotEmpty(t, before.Results)

	require.NoError(t, os.Remove(gonePath))
	e.handleWatchEvents([]watch.Event{{Path: gonePath, Kind: watch.EventDelete}})

	after := e.Search("uniqueDoomedMarker", DefaultSearchOptions())
	require.Empty(t, after.Results)

	stats := e.Stats()
	require.Equal(t, 1, stats.TotalFiles)
}

func TestIndex_IgnoresNodeModules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/pkg/index.ts", "export const __ignored_marker__ = 1\n")
	writeFile(t, root, "real.ts", "export const realMarker = 1\n")

	e := newTestEngine(t, root)
	_, err := e.Index(context.Background(), NoOpProgressReporter{})
	require.NoError(t, err)

	resp := e.Search("__ignored_marker__", DefaultSearchOptions())
	require.Empty(t, resp.Results)
}
