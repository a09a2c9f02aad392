package store

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/codegrove/codesearch/internal/analyze"
	"github.com/codegrove/codesearch/internal/chunk"
)

// Test Plan:
// - Loading a directory with no snapshot file yields an empty snapshot, no error.
// - Save then Load round-trips chunks, attributes, and term frequencies.
// - A second Save replaces the prior snapshot in full.
// - Loading a snapshot with a bad format_version surfaces CorruptSnapshotError.

func TestLoad_MissingFileReturnsEmpty(t *testing.T) {
	snap, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, snap.Chunks)
	require.Zero(t, snap.PathCount)
}

func TestSaveLoad_RoundTrips(t *testing.T) {
	dir := t.TempDir()

	snap := Empty()
	snap.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap.PathCount = 1
	snap.Chunks = []chunk.Chunk{
		{ID: "c1", Path: "a.go", Language: "go", ChunkIndex: 0, StartLine: 1, EndLine: 30, Text: "package a", ContentHash: "h1", ModTime: 1000},
	}
	snap.Attributes["c1"] = &analyze.Attributes{Domain: analyze.DomainUtility, Complexity: 1, Quality: 0.5, Importance: 1}
	snap.TermFrequency["package"] = map[string]int{"c1": 2}

	require.NoError(t, Save(dir, snap))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, loaded.Chunks, 1)
	require.Equal(t, "c1", loaded.Chunks[0].ID)
	require.Equal(t, 1, loaded.PathCount)
	require.Equal(t, analyze.DomainUtility, loaded.Attributes["c1"].Domain)
	require.Equal(t, 2, loaded.TermFrequency["package"]["c1"])
}

func TestSave_OverwritesPriorSnapshotAtomically(t *testing.T) {
	dir := t.TempDir()

	first := Empty()
	first.Chunks = []chunk.Chunk{{ID: "c1", Path: "a.go", Language: "go"}}
	require.NoError(t, Save(dir, first))

	second := Empty()
	second.Chunks = []chunk.Chunk{{ID: "c2", Path: "b.go", Language: "go"}}
	require.NoError(t, Save(dir, second))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, loaded.Chunks, 1)
	require.Equal(t, "c2", loaded.Chunks[0].ID)
}

func TestLoad_CorruptVersionReturnsTypedError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, Empty()))

	badPath := dbPath(dir)
	require.NotEmpty(t, badPath)

	// Corrupt the format_version by overwriting the file with a database
	// whose snapshot_meta carries a version this package does not know.
	corruptEmptyDB(t, badPath)

	snap, err := Load(dir)
	require.Error(t, err)
	var corruptErr *CorruptSnapshotError
	require.ErrorAs(t, err, &corruptErr)
	require.NotNil(t, snap)
	require.Empty(t, snap.Chunks)
}

func corruptEmptyDB(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.Remove(path))
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE snapshot_meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO snapshot_meta (key, value) VALUES ('format_version', '999')`)
	require.NoError(t, err)
}
