package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Test Plan:
// - camelCase/PascalCase/snake_case/kebab-case all normalize to the same component terms.
// - Function-call shaped identifiers are extracted.
// - Declared class/interface/type/enum names are captured.
// - Counts are deterministic across repeated calls.

func TestCounts_CaseShapeEquivalence(t *testing.T) {
	camel := Counts("const userProfile = {}")
	snake := Counts("const user_profile = {}")
	kebab := Counts("class='user-profile'")

	for _, m := range []map[string]int{camel, snake, kebab} {
		require.Contains(t, m, "user")
		require.Contains(t, m, "profile")
	}
}

func TestCounts_FunctionCallShaped(t *testing.T) {
	counts := Counts("loginWithOtp(code)")
	require.Contains(t, counts, "loginwithotp")
}

func TestCounts_DeclaredTypeNames(t *testing.T) {
	counts := Counts("interface UserAccount { id: string }")
	require.Contains(t, counts, "useraccount")
}

func TestCounts_Deterministic(t *testing.T) {
	text := "export function loginWithOtp(code: string) { return true }"
	require.Equal(t, Counts(text), Counts(text))
}

func TestTokenize_Deduplicated(t *testing.T) {
	terms := Tokenize("foo foo foo bar")
	seen := map[string]int{}
	for _, t := range terms {
		seen[t]++
	}
	for term, n := range seen {
		require.Equal(t, 1, n, "term %q should appear once", term)
	}
}
