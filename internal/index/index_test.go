package index

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Test Plan:
// - Add populates all three tables consistently.
// - Adding a duplicate chunk id is rejected.
// - RemoveChunksOfPath prunes terms that drop to zero chunks.
// - Stats reflects distinct terms and chunk count.
// - CheckInvariants passes after a sequence of adds/removes.

func TestAdd_PopulatesAllTables(t *testing.T) {
	idx := New()
	err := idx.Add("c1", "a.go", map[string]int{"foo": 2, "bar": 1})
	require.NoError(t, err)

	require.Equal(t, 1, idx.DocumentFrequency("foo"))
	require.Equal(t, 2, idx.TermFrequency("c1", "foo"))
	require.ElementsMatch(t, []string{"foo", "bar"}, idx.ChunkTerms("c1"))
	require.NoError(t, idx.CheckInvariants())
}

func TestAdd_DuplicateChunkIDRejected(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Add("c1", "a.go", map[string]int{"foo": 1}))
	err := idx.Add("c1", "a.go", map[string]int{"foo": 1})
	require.Error(t, err)
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
}

func TestRemoveChunksOfPath_PrunesExhaustedTerms(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Add("c1", "a.go", map[string]int{"unique": 1, "shared": 1}))
	require.NoError(t, idx.Add("c2", "b.go", map[string]int{"shared": 3}))

	idx.RemoveChunksOfPath("a.go")

	require.Equal(t, 0, idx.DocumentFrequency("unique"))
	require.Equal(t, 1, idx.DocumentFrequency("shared"))
	require.Equal(t, 3, idx.TermFrequency("c2", "shared"))
	require.Empty(t, idx.ChunkTerms("c1"))
	require.NoError(t, idx.CheckInvariants())
}

func TestRemoveChunksOfPath_UnknownPathIsNoop(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Add("c1", "a.go", map[string]int{"foo": 1}))
	idx.RemoveChunksOfPath("missing.go")
	require.Equal(t, 1, idx.DocumentFrequency("foo"))
}

func TestStats_ReflectsSize(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Add("c1", "a.go", map[string]int{"foo": 1, "bar": 1}))
	require.NoError(t, idx.Add("c2", "b.go", map[string]int{"foo": 1}))

	stats := idx.Stats()
	require.Equal(t, 2, stats.DistinctTerms)
	require.Equal(t, 2, stats.TotalChunks)
	require.InDelta(t, 1.5, stats.MeanTermsPerChunk, 0.001)
}

func TestClear_EmptiesAllTables(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Add("c1", "a.go", map[string]int{"foo": 1}))
	idx.Clear()

	require.Equal(t, Stats{}, idx.Stats())
	require.Equal(t, 0, idx.DocumentFrequency("foo"))
	require.NoError(t, idx.CheckInvariants())
}

func TestCheckInvariants_HoldsAcrossAddRemoveSequence(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Add("c1", "a.go", map[string]int{"foo": 2, "bar": 1}))
	require.NoError(t, idx.Add("c2", "a.go", map[string]int{"foo": 1, "baz": 4}))
	require.NoError(t, idx.Add("c3", "b.go", map[string]int{"foo": 1, "bar": 2}))
	require.NoError(t, idx.CheckInvariants())

	idx.RemoveChunksOfPath("a.go")
	require.NoError(t, idx.CheckInvariants())

	require.NoError(t, idx.Add("c4", "a.go", map[string]int{"foo": 5}))
	require.NoError(t, idx.CheckInvariants())
}

func TestCandidateChunks_ReturnsAllChunksContainingTerm(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Add("c1", "a.go", map[string]int{"shared": 1}))
	require.NoError(t, idx.Add("c2", "b.go", map[string]int{"shared": 1}))

	require.ElementsMatch(t, []string{"c1", "c2"}, idx.CandidateChunks("shared"))
	require.Empty(t, idx.CandidateChunks("absent"))
}
