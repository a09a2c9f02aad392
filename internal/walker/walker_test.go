package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Test Plan:
// - Recognized extensions are matched, unrecognized ones are skipped.
// - Default ignore globs (node_modules, .git, dist, ...) are enforced.
// - The index directory itself is never enumerated.
// - Output is deterministic: sorted by absolute path.
// - Oversized files are skipped.

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestDiscoverFiles_MatchesRecognizedExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a")
	writeFile(t, filepath.Join(root, "b.unknownext"), "whatever")

	w, err := New(Options{Roots: []string{root}})
	require.NoError(t, err)

	files, err := w.DiscoverFiles()
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "go", files[0].Language)
}

func TestDiscoverFiles_IgnoresDefaultSet(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "x.ts"), "const __ignored_marker__ = 1")
	writeFile(t, filepath.Join(root, "src", "main.ts"), "const y = 1")

	w, err := New(Options{Roots: []string{root}})
	require.NoError(t, err)

	files, err := w.DiscoverFiles()
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Contains(t, files[0].Path, "main.ts")
}

func TestDiscoverFiles_SkipsIndexDirectory(t *testing.T) {
	root := t.TempDir()
	indexDir := filepath.Join(root, ".codesearch-index")
	writeFile(t, filepath.Join(indexDir, "index.db"), "binary")
	writeFile(t, filepath.Join(root, "main.go"), "package main")

	w, err := New(Options{Roots: []string{root}, IndexDirectory: indexDir})
	require.NoError(t, err)

	files, err := w.DiscoverFiles()
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Contains(t, files[0].Path, "main.go")
}

func TestDiscoverFiles_DeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "z.go"), "package a")
	writeFile(t, filepath.Join(root, "a.go"), "package a")
	writeFile(t, filepath.Join(root, "m.go"), "package a")

	w, err := New(Options{Roots: []string{root}})
	require.NoError(t, err)

	files1, err := w.DiscoverFiles()
	require.NoError(t, err)
	files2, err := w.DiscoverFiles()
	require.NoError(t, err)

	require.Equal(t, files1, files2)
	for i := 1; i < len(files1); i++ {
		require.Less(t, files1[i-1].Path, files1[i].Path)
	}
}

func TestDiscoverFiles_SkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, 100)
	writeFile(t, filepath.Join(root, "big.go"), string(big))

	w, err := New(Options{Roots: []string{root}, MaxFileSize: 10})
	require.NoError(t, err)

	files, err := w.DiscoverFiles()
	require.NoError(t, err)
	require.Len(t, files, 0)
}
