package analyze

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Test Plan:
// - Pure function of (path, content): same input, same output, every time.
// - Function/class/interface declarations are found with line numbers.
// - Complexity counts decision tokens plus one.
// - Quality is clamped to [0, 1] and responds to documented indicators.
// - Unparseable/garbage input degrades to empty attributes, never panics.

func TestAnalyze_Deterministic(t *testing.T) {
	text := "export function loginWithOtp(code string) {\n  return true\n}\n"
	a1 := Analyze("src/auth/login.ts", "typescript", text)
	a2 := Analyze("src/auth/login.ts", "typescript", text)
	require.Equal(t, a1, a2)
}

func TestAnalyze_FindsFunctionDeclaration(t *testing.T) {
	text := "export function loginWithOtp(code string) {\n  return true\n}\n"
	a := Analyze("src/auth/login.ts", "typescript", text)
	require.NotEmpty(t, a.Functions)
	require.Equal(t, "loginWithOtp", a.Functions[0].Name)
	require.Contains(t, a.Symbols, "loginWithOtp")
}

func TestAnalyze_GoStruct(t *testing.T) {
	text := "package foo\n\ntype Widget struct {\n  Name string\n}\n"
	a := Analyze("widget.go", "go", text)
	require.NotEmpty(t, a.Classes)
	require.Equal(t, "Widget", a.Classes[0].Name)
}

func TestAnalyze_ComplexityCountsDecisionTokens(t *testing.T) {
	text := "if a {\n} else if b {\n} else {\n}\nfor i := 0; i < 10; i++ {\n}\n"
	a := Analyze("f.go", "go", text)
	require.Greater(t, a.Complexity, 1.0)
}

func TestAnalyze_QualityClamped(t *testing.T) {
	text := "// doc\nexport default function f(x: string): number {\n  try {\n  } catch (e) {\n  }\n  return 1\n}\n"
	a := Analyze("f.ts", "typescript", text)
	require.GreaterOrEqual(t, a.Quality, 0.0)
	require.LessOrEqual(t, a.Quality, 1.0)
	require.Greater(t, a.Quality, 0.3)
}

func TestAnalyze_NeverFailsOnGarbage(t *testing.T) {
	garbage := "{{{{ ] not valid code at all $$$ \x00\x01"
	require.NotPanics(t, func() {
		a := Analyze("weird.go", "go", garbage)
		require.NotNil(t, a)
	})
}

func TestAnalyze_UnknownLanguageYieldsEmptyDeclarations(t *testing.T) {
	a := Analyze("file.unknown", "unknown-lang", "whatever content")
	require.Empty(t, a.Functions)
	require.Empty(t, a.Classes)
}
