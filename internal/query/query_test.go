package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Test Plan:
// - Variant set always contains the normalized query and respects the cap.
// - Case-shape query forms normalize to the same keyword set.
// - Intent classification picks function_search for an explicit function query.
// - Processor cache returns a result equal to a fresh Process call.

func TestProcess_VariantsIncludeNormalizedAndRespectCap(t *testing.T) {
	pq := Process("find the login function", Options{MaxVariants: 3})
	require.Contains(t, pq.Variants, pq.Normalized)
	require.LessOrEqual(t, len(pq.Variants), 3)
}

func TestProcess_CaseShapeFormsShareKeywords(t *testing.T) {
	forms := []string{"user profile", "UserProfile", "user_profile", "user-profile"}
	var allKeywords [][]string
	for _, f := range forms {
		pq := Process(f, DefaultOptions())
		allKeywords = append(allKeywords, pq.Keywords)
	}
	for _, kws := range allKeywords[1:] {
		require.ElementsMatch(t, allKeywords[0], kws)
	}
}

func TestProcess_ClassifiesFunctionSearch(t *testing.T) {
	pq := Process("find the loginWithOtp function", DefaultOptions())
	require.Equal(t, IntentFunctionSearch, pq.Intent)
	require.GreaterOrEqual(t, pq.Confidence, 0.1)
	require.LessOrEqual(t, pq.Confidence, 1.0)
}

func TestProcess_NoSignalFallsBackToGeneral(t *testing.T) {
	pq := Process("hello world", DefaultOptions())
	require.Equal(t, IntentGeneral, pq.Intent)
}

func TestProcessor_CacheMatchesFreshProcess(t *testing.T) {
	p, err := NewProcessor(DefaultOptions())
	require.NoError(t, err)
	defer p.Close()

	first := p.Process("search for the auth handler")
	second := p.Process("search for the auth handler")
	require.Equal(t, first, second)
}

func TestNormalize_TrimsAndLowercases(t *testing.T) {
	require.Equal(t, "user profile", Normalize("  User   Profile  "))
}
