// Package token implements a code-aware tokenizer: it
// extracts normalized, lowercased terms from chunk text by splitting
// identifiers on case-shape boundaries and pulling words out of string
// literals, import/export clauses, and path-like substrings.
package token

import (
	"regexp"
	"strings"
)

var (
	identifierRe   = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)
	callShapedRe   = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`)
	declaredNameRe = regexp.MustCompile(`\b(?:class|interface|type|enum)\s+([A-Za-z_]\w*)`)
	importExportRe = regexp.MustCompile(`\b(?:import|export|from|require)\b[^;\n]*`)
	stringLitRe    = regexp.MustCompile(`"([^"\n]{0,200})"|'([^'\n]{0,200})'` + "|`([^`\n]{0,200})`")
	wordRe         = regexp.MustCompile(`[A-Za-z][A-Za-z0-9]*`)
	pathLikeRe     = regexp.MustCompile(`(?:[A-Za-z0-9_.-]+/)+[A-Za-z0-9_.-]+`)
)

var grammarKeywords = map[string]struct{}{
	"import": {}, "export": {}, "from": {}, "as": {}, "default": {}, "require": {},
}

// Counts returns term → occurrence count for text, applying the tokenizer's
// extraction rules in order. It is deterministic: identical text always
// yields identical counts.
func Counts(text string) map[string]int {
	counts := make(map[string]int)
	add := func(term string) {
		if term == "" {
			return
		}
		counts[strings.ToLower(term)]++
	}

	// Rules 1-3: camelCase / PascalCase / snake_case / kebab-case identifiers.
	for _, id := range identifierRe.FindAllString(text, -1) {
		add(id)
		for _, part := range splitCaseShape(id) {
			if len(part) > 1 {
				add(part)
			}
		}
	}

	// Rule 4: function-call shaped identifiers.
	for _, m := range callShapedRe.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if len(name) > 2 {
			add(name)
		}
	}

	// Rule 5: declared names following class|interface|type|enum.
	for _, m := range declaredNameRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	// Rule 6: names appearing in import/export clauses, excluding keywords.
	for _, clause := range importExportRe.FindAllString(text, -1) {
		for _, id := range identifierRe.FindAllString(clause, -1) {
			lower := strings.ToLower(id)
			if _, isKeyword := grammarKeywords[lower]; isKeyword {
				continue
			}
			if len(id) > 1 {
				add(id)
			}
		}
	}

	// Rule 7: string literal words of length 3-50.
	for _, m := range stringLitRe.FindAllStringSubmatch(text, -1) {
		literal := firstNonEmpty(m[1:])
		for _, w := range wordRe.FindAllString(literal, -1) {
			if len(w) >= 3 && len(w) <= 50 {
				add(w)
			}
		}
	}

	// Rule 8: fallback words of length 3-49 from the whole content.
	for _, w := range wordRe.FindAllString(text, -1) {
		if len(w) >= 3 && len(w) <= 49 {
			add(w)
		}
	}

	// Rule 9: path-like tokens — each component of length > 1.
	for _, p := range pathLikeRe.FindAllString(text, -1) {
		for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '.' }) {
			if len(seg) > 1 {
				add(seg)
			}
		}
	}

	return counts
}

// Tokenize returns the deduplicated set of terms extracted from text.
func Tokenize(text string) []string {
	counts := Counts(text)
	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	return terms
}

func firstNonEmpty(groups []string) string {
	for _, g := range groups {
		if g != "" {
			return g
		}
	}
	return ""
}

// splitCaseShape splits an identifier on camelCase / PascalCase /
// snake_case / kebab-case boundaries into lowercase components.
func splitCaseShape(id string) []string {
	if strings.ContainsAny(id, "_-") {
		return strings.FieldsFunc(id, func(r rune) bool { return r == '_' || r == '-' })
	}

	var parts []string
	var current []rune
	runes := []rune(id)
	for i, r := range runes {
		if i > 0 && isUpper(r) && (isLower(runes[i-1]) || (i+1 < len(runes) && isLower(runes[i+1]))) {
			if len(current) > 0 {
				parts = append(parts, string(current))
				current = nil
			}
		}
		current = append(current, r)
	}
	if len(current) > 0 {
		parts = append(parts, string(current))
	}
	return parts
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
