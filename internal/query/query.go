// Package query implements the query processor: it turns a
// raw query string into a normalized, intent-classified, variant-expanded
// ProcessedQuery that the ranker scores candidates against.
package query

import (
	"regexp"
	"sort"
	"strings"
)

// Intent is one label from a closed set.
type Intent string

const (
	IntentFunctionSearch       Intent = "function_search"
	IntentClassSearch          Intent = "class_search"
	IntentDebugSearch          Intent = "debug_search"
	IntentImplementationSearch Intent = "implementation_search"
	IntentConceptSearch        Intent = "concept_search"
	IntentPatternSearch        Intent = "pattern_search"
	IntentArchitectureSearch   Intent = "architecture_search"
	IntentUsageSearch          Intent = "usage_search"
	IntentGeneral              Intent = "general"
)

// ProcessedQuery is the output of Process.
type ProcessedQuery struct {
	Original   string
	Normalized string
	Intent     Intent
	Confidence float64
	Entities   []string
	Keywords   []string
	Variants   []string
}

// Options configures variant generation. RichOptions allows up to 15
// variants; DefaultOptions, the lean lexical path, caps at 5 and is what the
// engine uses when it is given no query options.
type Options struct {
	MaxVariants int
}

// DefaultOptions returns the lean lexical path's cap.
func DefaultOptions() Options {
	return Options{MaxVariants: 5}
}

// RichOptions returns the richer path's cap.
func RichOptions() Options {
	return Options{MaxVariants: 15}
}

var (
	identifierRe    = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_-]*`)
	callShapedRe    = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`)
	quotedRe        = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	safePunct       = regexp.MustCompile(`[^a-zA-Z0-9 _\-./'"]+`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
	camelBoundaryRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	caseSeparators  = strings.NewReplacer("_", " ", "-", " ")
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "on": {}, "to": {}, "for": {},
	"is": {}, "are": {}, "and": {}, "or": {}, "with": {}, "at": {}, "by": {}, "this": {},
	"that": {}, "it": {}, "how": {}, "what": {}, "where": {}, "why": {}, "when": {}, "who": {},
}

var questionWords = map[string]struct{}{
	"what": {}, "how": {}, "why": {}, "where": {}, "which": {}, "who": {}, "when": {},
}

var actionVerbs = []string{"find", "search", "get", "show", "create", "build", "fix", "debug", "use", "explain"}
var targetNouns = []string{"function", "class", "interface", "error", "pattern", "architecture", "usage", "concept"}

// Normalize trims, splits identifiers at case-shape boundaries (so
// "UserProfile", "user_profile", "user-profile", and "user profile" all
// converge on the same normalized form), drops characters outside a safe
// ASCII punctuation set, collapses whitespace, and lowercases.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = camelBoundaryRe.ReplaceAllString(s, "$1 $2")
	s = caseSeparators.Replace(s)
	s = safePunct.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// Process runs the full query pipeline: normalize, extract entities and
// keywords, classify intent, generate variants.
func Process(raw string, opts Options) *ProcessedQuery {
	normalized := Normalize(raw)
	entities := extractEntities(raw)
	keywords := extractKeywords(normalized)
	intent, confidence := classifyIntent(raw, normalized)
	variants := generateVariants(normalized, keywords, opts.MaxVariants)

	return &ProcessedQuery{
		Original:   raw,
		Normalized: normalized,
		Intent:     intent,
		Confidence: confidence,
		Entities:   entities,
		Keywords:   keywords,
		Variants:   variants,
	}
}

func extractEntities(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, id := range identifierRe.FindAllString(raw, -1) {
		if looksCodeShaped(id) {
			add(id)
		}
	}
	for _, m := range callShapedRe.FindAllStringSubmatch(raw, -1) {
		add(m[1])
	}
	for _, m := range quotedRe.FindAllStringSubmatch(raw, -1) {
		add(firstNonEmpty(m[1:]))
	}

	sort.Strings(out)
	return out
}

func looksCodeShaped(id string) bool {
	hasUpperAfterLower := false
	runes := []rune(id)
	for i := 1; i < len(runes); i++ {
		if runes[i] >= 'A' && runes[i] <= 'Z' && runes[i-1] >= 'a' && runes[i-1] <= 'z' {
			hasUpperAfterLower = true
			break
		}
	}
	return hasUpperAfterLower || strings.Contains(id, "_") || strings.Contains(id, "-")
}

func extractKeywords(normalized string) []string {
	var out []string
	for _, tok := range strings.Fields(normalized) {
		tok = strings.Trim(tok, `"'`)
		if tok == "" {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

type intentRule struct {
	intent         Intent
	verbs          []string
	nouns          []string
	questionWeight float64
	codeShapeBonus float64
}

var intentRules = []intentRule{
	{intent: IntentFunctionSearch, verbs: []string{"find", "get", "show", "search"}, nouns: []string{"function"}, codeShapeBonus: 0.5},
	{intent: IntentClassSearch, verbs: []string{"find", "get", "show", "search"}, nouns: []string{"class", "interface"}, codeShapeBonus: 0.5},
	{intent: IntentDebugSearch, verbs: []string{"fix", "debug"}, nouns: []string{"error"}, questionWeight: 0.3},
	{intent: IntentImplementationSearch, verbs: []string{"build", "create", "use"}, nouns: []string{}, codeShapeBonus: 0.3},
	{intent: IntentConceptSearch, verbs: []string{"explain"}, nouns: []string{"concept"}},
	{intent: IntentPatternSearch, verbs: []string{}, nouns: []string{"pattern"}},
	{intent: IntentArchitectureSearch, verbs: []string{}, nouns: []string{"architecture"}},
	{intent: IntentUsageSearch, verbs: []string{"use"}, nouns: []string{"usage"}},
}

const generalBaseline = 0.05

func classifyIntent(raw, normalized string) (Intent, float64) {
	tokens := strings.Fields(normalized)
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}

	hasQuestion := false
	for t := range tokenSet {
		if _, ok := questionWords[t]; ok {
			hasQuestion = true
			break
		}
	}

	hasCodeShape := false
	for _, id := range identifierRe.FindAllString(raw, -1) {
		if looksCodeShaped(id) {
			hasCodeShape = true
			break
		}
	}
	if callShapedRe.MatchString(raw) {
		hasCodeShape = true
	}

	scores := make(map[Intent]float64, len(intentRules)+1)
	scores[IntentGeneral] = generalBaseline

	for _, rule := range intentRules {
		score := 0.0
		for _, v := range rule.verbs {
			if _, ok := tokenSet[v]; ok {
				score += 1.0
			}
		}
		for _, n := range rule.nouns {
			if _, ok := tokenSet[n]; ok {
				score += 1.0
			}
		}
		if hasQuestion {
			score += rule.questionWeight
		}
		if hasCodeShape {
			score += rule.codeShapeBonus
		}
		scores[rule.intent] = score
	}

	type scored struct {
		intent Intent
		score  float64
	}
	var ranked []scored
	for _, rule := range intentRules {
		ranked = append(ranked, scored{rule.intent, scores[rule.intent]})
	}
	ranked = append(ranked, scored{IntentGeneral, scores[IntentGeneral]})
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	top := ranked[0]
	second := 0.0
	if len(ranked) > 1 {
		second = ranked[1].score
	}

	confidence := top.score - second
	if confidence < 0.1 {
		confidence = 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	if top.score <= generalBaseline {
		return IntentGeneral, 0.1
	}
	return top.intent, confidence
}

var synonyms = map[string][]string{
	"auth":    {"authentication", "login"},
	"fn":      {"function"},
	"func":    {"function"},
	"ui":      {"interface", "component"},
	"db":      {"database"},
	"config":  {"configuration", "settings"},
	"err":     {"error", "exception"},
	"login":   {"auth", "authentication", "session"},
	"signin":  {"login", "auth"},
	"fetch":   {"get", "request"},
}

var frameworkRelated = map[string][]string{
	"react":   {"component", "hook", "jsx"},
	"vue":     {"component", "directive"},
	"angular": {"component", "service", "module"},
	"express": {"route", "middleware", "handler"},
	"django":  {"view", "model", "serializer"},
	"rails":   {"controller", "model", "migration"},
}

var conceptGraph = map[string][]string{
	"login":   {"session", "token"},
	"auth":    {"permission", "role"},
	"error":   {"exception", "failure"},
	"cache":   {"memoize", "ttl"},
	"queue":   {"worker", "job"},
}

// generateVariants builds identifier-shape, synonym, framework, and
// concept-graph variants of normalized, capped at max (always including
// normalized itself).
func generateVariants(normalized string, keywords []string, max int) []string {
	if max < 1 {
		max = 1
	}

	seen := map[string]struct{}{normalized: {}}
	variants := []string{normalized}

	add := func(v string) bool {
		v = strings.TrimSpace(v)
		if v == "" || v == normalized {
			return len(variants) < max
		}
		if _, ok := seen[v]; ok {
			return len(variants) < max
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
		return len(variants) < max
	}

	if len(keywords) > 0 {
		if !add(toCamelCase(keywords)) {
			return variants
		}
		if !add(toPascalCase(keywords)) {
			return variants
		}
		if !add(strings.Join(keywords, "_")) {
			return variants
		}
		if !add(strings.Join(keywords, "-")) {
			return variants
		}
	}

	for _, kw := range keywords {
		for _, syn := range synonyms[kw] {
			if !add(strings.Replace(normalized, kw, syn, 1)) {
				return variants
			}
		}
		for _, related := range frameworkRelated[kw] {
			if !add(normalized + " " + related) {
				return variants
			}
		}
		for _, concept := range conceptGraph[kw] {
			if !add(normalized + " " + concept) {
				return variants
			}
		}
	}

	return variants
}

func toCamelCase(words []string) string {
	var b strings.Builder
	for i, w := range words {
		if w == "" {
			continue
		}
		if i == 0 {
			b.WriteString(w)
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}
	return b.String()
}

func toPascalCase(words []string) string {
	var b strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}
	return b.String()
}

func firstNonEmpty(groups []string) string {
	for _, g := range groups {
		if g != "" {
			return g
		}
	}
	return ""
}
