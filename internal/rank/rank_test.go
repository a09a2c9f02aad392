package rank

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegrove/codesearch/internal/analyze"
	"github.com/codegrove/codesearch/internal/chunk"
	"github.com/codegrove/codesearch/internal/index"
	"github.com/codegrove/codesearch/internal/query"
	"github.com/codegrove/codesearch/internal/token"
)

func buildIndex(t *testing.T, chunks map[string]chunk.Chunk) *index.Index {
	t.Helper()
	idx := index.New()
	for id, c := range chunks {
		require.NoError(t, idx.Add(id, c.Path, token.Counts(c.Text)))
	}
	return idx
}

// Test Plan:
// - A chunk whose symbol contains the query keywords ranks above one without any match.
// - Exact-phrase substring match gives A a strictly higher score than B with equal other signals.
// - No returned result set exceeds 3 chunks from the same file.

func TestRank_SymbolMatchOutranksNoMatch(t *testing.T) {
	chunks := map[string]chunk.Chunk{
		"c1": {ID: "c1", Path: "a.ts", StartLine: 1, EndLine: 10, Text: "export function loginWithOtp(code) { return true }"},
		"c2": {ID: "c2", Path: "b.ts", StartLine: 1, EndLine: 10, Text: "export function unrelatedHelper() { return 1 }"},
	}
	attrs := map[string]*analyze.Attributes{
		"c1": analyze.Analyze("a.ts", "typescript", chunks["c1"].Text),
		"c2": analyze.Analyze("b.ts", "typescript", chunks["c2"].Text),
	}
	idx := buildIndex(t, chunks)

	pq := query.Process("login otp", query.DefaultOptions())
	results := Rank(pq, idx, chunks, attrs, DefaultOptions())

	require.NotEmpty(t, results)
	require.Equal(t, "c1", results[0].ChunkID)
}

func TestRank_ExactPhraseRanksAboveNonMatch(t *testing.T) {
	chunks := map[string]chunk.Chunk{
		"a": {ID: "a", Path: "a.go", StartLine: 1, EndLine: 5, Text: "// handles user profile updates\nfunc x() {}"},
		"b": {ID: "b", Path: "b.go", StartLine: 1, EndLine: 5, Text: "// handles something else entirely\nfunc y() {}"},
	}
	attrs := map[string]*analyze.Attributes{
		"a": analyze.Analyze("a.go", "go", chunks["a"].Text),
		"b": analyze.Analyze("b.go", "go", chunks["b"].Text),
	}
	idx := buildIndex(t, chunks)

	pq := query.Process("user profile", query.DefaultOptions())
	results := Rank(pq, idx, chunks, attrs, DefaultOptions())

	require.NotEmpty(t, results)
	require.Equal(t, "a", results[0].ChunkID)
}

func TestRank_DiversityCapLimitsPerFile(t *testing.T) {
	chunks := make(map[string]chunk.Chunk)
	attrs := make(map[string]*analyze.Attributes)
	for i := 0; i < 6; i++ {
		id := string(rune('a' + i))
		text := "function widget() { return 1 }"
		chunks[id] = chunk.Chunk{ID: id, Path: "same.go", StartLine: i * 20, EndLine: i*20 + 10, Text: text}
		attrs[id] = analyze.Analyze("same.go", "go", text)
	}
	idx := buildIndex(t, chunks)

	pq := query.Process("widget", query.DefaultOptions())
	opts := DefaultOptions()
	opts.MaxResults = 10
	opts.EnableClustering = false
	results := Rank(pq, idx, chunks, attrs, opts)

	count := 0
	for _, r := range results {
		if r.Path == "same.go" {
			count++
		}
	}
	require.LessOrEqual(t, count, 3)
}

func TestRank_RespectsMaxResults(t *testing.T) {
	chunks := make(map[string]chunk.Chunk)
	attrs := make(map[string]*analyze.Attributes)
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		path := id + ".go"
		text := "function widget() { return 1 }"
		chunks[id] = chunk.Chunk{ID: id, Path: path, StartLine: 1, EndLine: 5, Text: text}
		attrs[id] = analyze.Analyze(path, "go", text)
	}
	idx := buildIndex(t, chunks)

	pq := query.Process("widget", query.DefaultOptions())
	opts := DefaultOptions()
	opts.MaxResults = 2
	results := Rank(pq, idx, chunks, attrs, opts)

	require.LessOrEqual(t, len(results), 2)
}
