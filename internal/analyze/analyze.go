// Package analyze implements the structural analyzer: a regex-driven,
// purely-functional extractor that tags a chunk with derived attributes.
// It never fails on unparseable or partial code — any extraction that
// errors or finds nothing yields the empty set for that attribute.
package analyze

import (
	"regexp"
	"sort"
	"strings"
)

// Domain is a closed classification of what a chunk is "about".
type Domain string

const (
	DomainAPI           Domain = "api"
	DomainAuthentication Domain = "authentication"
	DomainDatabase      Domain = "database"
	DomainUI            Domain = "ui"
	DomainUtility       Domain = "utility"
	DomainConfiguration Domain = "configuration"
	DomainTesting       Domain = "testing"
	DomainGeneral       Domain = "general"
)

// Framework is a closed tag set of recognizable frameworks/platforms.
type Framework string

const (
	FrameworkReact     Framework = "react"
	FrameworkNextJS    Framework = "nextjs"
	FrameworkTypeScript Framework = "typescript"
	FrameworkVue       Framework = "vue"
	FrameworkAngular   Framework = "angular"
	FrameworkExpress   Framework = "express"
	FrameworkDjango    Framework = "django"
	FrameworkFlask     Framework = "flask"
	FrameworkSpring    Framework = "spring"
	FrameworkRails     Framework = "rails"
)

// Pattern is a closed tag set of recognizable code-structural patterns.
type Pattern string

const (
	PatternComponent  Pattern = "component"
	PatternHook       Pattern = "hook"
	PatternService    Pattern = "service"
	PatternMiddleware Pattern = "middleware"
	PatternRepository Pattern = "repository"
	PatternFactory    Pattern = "factory"
	PatternController Pattern = "controller"
	PatternHandler    Pattern = "handler"
	PatternSingleton  Pattern = "singleton"
)

// Declaration is a named declaration with its line span.
type Declaration struct {
	Name      string
	StartLine int
	EndLine   int
}

// Attributes is the fixed, closed record of derived attributes attached
// 1:1 to a chunk. It is reproducible from (path, content) alone.
type Attributes struct {
	Symbols       []string
	Functions     []Declaration
	Classes       []Declaration
	Interfaces    []Declaration
	Types         []Declaration
	Imports       []string
	Exports       []string
	Domain        Domain
	Frameworks    []Framework
	Patterns      []Pattern
	Concepts      []string
	BusinessLogic []string
	Complexity    float64
	Quality       float64
	Importance    float64
}

type langPatterns struct {
	function  []*regexp.Regexp
	class     []*regexp.Regexp
	iface     []*regexp.Regexp
	typeDecl  []*regexp.Regexp
	imports   []*regexp.Regexp
	exports   []*regexp.Regexp
	hasTypes  *regexp.Regexp // probe for "type annotations present"
}

func mustCompileAll(pats ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(pats))
	for _, p := range pats {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

var (
	cLikePatterns = langPatterns{
		function: mustCompileAll(
			`(?m)^\s*func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)\s*\(`,
			`(?m)^\s*(?:public|private|protected|static|final|async)?\s*[\w<>\[\],\s]+?\s+([A-Za-z_]\w*)\s*\([^;{}]*\)\s*\{`,
		),
		class: mustCompileAll(
			`(?m)^\s*(?:export\s+)?(?:public\s+|final\s+|abstract\s+)*class\s+([A-Za-z_]\w*)`,
			`(?m)^\s*type\s+([A-Za-z_]\w*)\s+struct\b`,
		),
		iface: mustCompileAll(
			`(?m)^\s*(?:export\s+)?(?:public\s+)?interface\s+([A-Za-z_]\w*)`,
			`(?m)^\s*type\s+([A-Za-z_]\w*)\s+interface\b`,
		),
		typeDecl: mustCompileAll(
			`(?m)^\s*type\s+([A-Za-z_]\w*)\s*=`,
			`(?m)^\s*enum\s+([A-Za-z_]\w*)`,
		),
		imports: mustCompileAll(
			`(?m)^\s*import\s+\(?\s*"([^"]+)"`,
			`(?m)^\s*#include\s*[<"]([^>"]+)[>"]`,
			`(?m)^\s*using\s+([A-Za-z_][\w.]*)\s*;`,
		),
		exports: mustCompileAll(
			`(?m)^\s*package\s+(\w+)`,
		),
		hasTypes: regexp.MustCompile(`:\s*[A-Za-z_][\w.<>\[\]]*\s*[={)]|<[A-Za-z_]\w*>`),
	}

	jsLikePatterns = langPatterns{
		function: mustCompileAll(
			`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`,
			`(?m)\b(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?\([^)]*\)\s*=>`,
			`(?m)^\s*(?:public|private|protected|static|async)?\s*([A-Za-z_$][\w$]*)\s*\([^)]*\)\s*\{`,
		),
		class: mustCompileAll(
			`(?m)^\s*(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_$][\w$]*)`,
		),
		iface: mustCompileAll(
			`(?m)^\s*(?:export\s+)?interface\s+([A-Za-z_$][\w$]*)`,
		),
		typeDecl: mustCompileAll(
			`(?m)^\s*(?:export\s+)?type\s+([A-Za-z_$][\w$]*)\s*=`,
			`(?m)^\s*(?:export\s+)?enum\s+([A-Za-z_$][\w$]*)`,
		),
		imports: mustCompileAll(
			`(?m)^\s*import\s+.*?\s+from\s+['"]([^'"]+)['"]`,
			`(?m)\brequire\(\s*['"]([^'"]+)['"]\s*\)`,
		),
		exports: mustCompileAll(
			`(?m)^\s*export\s+(?:default\s+)?(?:function|class|const|let|var|interface|type)\s+([A-Za-z_$][\w$]*)`,
		),
		hasTypes: regexp.MustCompile(`:\s*(?:string|number|boolean|void|any|[A-Z]\w*)\b`),
	}

	pyPatterns = langPatterns{
		function: mustCompileAll(`(?m)^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`),
		class:    mustCompileAll(`(?m)^\s*class\s+([A-Za-z_]\w*)\s*[:\(]`),
		imports: mustCompileAll(
			`(?m)^\s*import\s+([\w.]+)`,
			`(?m)^\s*from\s+([\w.]+)\s+import`,
		),
		hasTypes: regexp.MustCompile(`->\s*[\w\[\], ]+:|:\s*(?:str|int|float|bool|List|Dict|Optional)\b`),
	}

	rubyPatterns = langPatterns{
		function: mustCompileAll(`(?m)^\s*def\s+([A-Za-z_]\w*[?!=]?)`),
		class:    mustCompileAll(`(?m)^\s*class\s+([A-Za-z_]\w*)`),
		iface:    mustCompileAll(`(?m)^\s*module\s+([A-Za-z_]\w*)`),
		imports:  mustCompileAll(`(?m)^\s*require\s+['"]([^'"]+)['"]`),
	}

	phpPatterns = langPatterns{
		function: mustCompileAll(`(?m)^\s*(?:public|private|protected|static)*\s*function\s+([A-Za-z_]\w*)\s*\(`),
		class:    mustCompileAll(`(?m)^\s*class\s+([A-Za-z_]\w*)`),
		iface:    mustCompileAll(`(?m)^\s*interface\s+([A-Za-z_]\w*)`),
		imports:  mustCompileAll(`(?m)^\s*use\s+([\w\\]+)\s*;`),
	}
)

var languageTable = map[string]langPatterns{
	"go": cLikePatterns, "java": cLikePatterns, "c": cLikePatterns, "cpp": cLikePatterns,
	"csharp": cLikePatterns, "rust": cLikePatterns, "swift": cLikePatterns, "kotlin": cLikePatterns, "scala": cLikePatterns,
	"javascript": jsLikePatterns, "typescript": jsLikePatterns, "vue": jsLikePatterns, "svelte": jsLikePatterns,
	"python": pyPatterns,
	"ruby":   rubyPatterns,
	"php":    phpPatterns,
}

var decisionTokenRe = regexp.MustCompile(`\b(if|else if|while|for|switch|case|catch)\b|&&|\|\||\?.*:`)
var commentRe = regexp.MustCompile(`//[^\n]*|#[^\n]*|/\*[\s\S]*?\*/`)
var tryCatchRe = regexp.MustCompile(`\btry\b[\s\S]{0,400}?\bcatch\b`)
var defaultExportRe = regexp.MustCompile(`export\s+default\b`)
var anyExportRe = regexp.MustCompile(`\bexport\b|^\s*public\b`)

// Analyze derives StructuralAttributes for a chunk's text. Never fails;
// any sub-extraction that finds nothing contributes the zero value.
func Analyze(path, language, text string) *Attributes {
	attrs := &Attributes{}
	defer func() {
		// Regex-driven extraction is not expected to panic, but malformed
		// input must never fail analysis, so degrade to empty attributes.
		if r := recover(); r != nil {
			*attrs = Attributes{Domain: DomainGeneral, Quality: 0, Complexity: 1, Importance: 0.1}
		}
	}()

	pats, ok := languageTable[language]
	if !ok {
		pats = langPatterns{}
	}

	attrs.Functions = extractDeclarations(text, pats.function)
	attrs.Classes = extractDeclarations(text, pats.class)
	attrs.Interfaces = extractDeclarations(text, pats.iface)
	attrs.Types = extractDeclarations(text, pats.typeDecl)
	attrs.Imports = extractNames(text, pats.imports)
	attrs.Exports = extractNames(text, pats.exports)

	attrs.Symbols = collectSymbols(attrs)
	attrs.Domain = classifyDomain(path, text)
	attrs.Frameworks = detectFrameworks(text, language)
	attrs.Patterns = detectPatterns(path, text)
	attrs.Concepts, attrs.BusinessLogic = detectConcepts(text)

	hasTypeAnnotations := pats.hasTypes != nil && pats.hasTypes.MatchString(text)
	attrs.Complexity = computeComplexity(text)
	attrs.Quality = computeQuality(text, hasTypeAnnotations, len(attrs.Exports) > 0)
	attrs.Importance = computeImportance(path, text, attrs)

	return attrs
}

func extractDeclarations(text string, patterns []*regexp.Regexp) []Declaration {
	if len(patterns) == 0 {
		return nil
	}
	lineStarts := lineStartOffsets(text)
	seen := make(map[string]struct{})
	var out []Declaration
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if len(m) < 4 || m[2] < 0 {
				continue
			}
			name := text[m[2]:m[3]]
			if name == "" {
				continue
			}
			key := name
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			startLine := lineForOffset(lineStarts, m[0])
			endLine := lineForOffset(lineStarts, m[1])
			out = append(out, Declaration{Name: name, StartLine: startLine, EndLine: endLine})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartLine < out[j].StartLine })
	return out
}

func extractNames(text string, patterns []*regexp.Regexp) []string {
	if len(patterns) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			name := m[1]
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

func lineStartOffsets(text string) []int {
	offsets := []int{0}
	for i, r := range text {
		if r == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

func lineForOffset(lineStarts []int, offset int) int {
	lo, hi := 0, len(lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

func collectSymbols(a *Attributes) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(decls []Declaration) {
		for _, d := range decls {
			name := strings.ToLower(d.Name)
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, d.Name)
		}
	}
	add(a.Functions)
	add(a.Classes)
	add(a.Interfaces)
	add(a.Types)
	sort.Strings(out)
	return out
}

func classifyDomain(path, text string) Domain {
	lowerPath := strings.ToLower(path)
	lowerText := strings.ToLower(text)

	switch {
	case strings.Contains(lowerPath, "test") || strings.Contains(lowerPath, "spec") ||
		strings.Contains(lowerText, "func test") || strings.Contains(lowerText, "describe(") || strings.Contains(lowerText, "it("):
		return DomainTesting
	case strings.Contains(lowerPath, "auth") || strings.Contains(lowerText, "password") ||
		strings.Contains(lowerText, "jwt") || strings.Contains(lowerText, "oauth") || strings.Contains(lowerText, "login"):
		return DomainAuthentication
	case strings.Contains(lowerPath, "config") || strings.Contains(lowerText, "os.getenv") ||
		strings.Contains(lowerText, "viper.") || strings.Contains(lowerText, "process.env"):
		return DomainConfiguration
	case strings.Contains(lowerPath, "db") || strings.Contains(lowerPath, "database") ||
		strings.Contains(lowerText, "select ") || strings.Contains(lowerText, "insert into") ||
		strings.Contains(lowerText, "sql.open") || strings.Contains(lowerText, "query("):
		return DomainDatabase
	case strings.Contains(lowerPath, "api") || strings.Contains(lowerText, "http.handlefunc") ||
		strings.Contains(lowerText, "router.") || strings.Contains(lowerText, "@app.route") || strings.Contains(lowerText, "app.get("):
		return DomainAPI
	case strings.Contains(lowerPath, "component") || strings.Contains(lowerPath, "ui") ||
		strings.Contains(lowerText, "usestate") || strings.Contains(lowerText, "render("):
		return DomainUI
	case strings.Contains(lowerPath, "util") || strings.Contains(lowerPath, "helper"):
		return DomainUtility
	default:
		return DomainGeneral
	}
}

func detectFrameworks(text, language string) []Framework {
	lower := strings.ToLower(text)
	var out []Framework
	add := func(cond bool, f Framework) {
		if cond {
			out = append(out, f)
		}
	}
	add(strings.Contains(lower, "from \"react\"") || strings.Contains(lower, "from 'react'") || strings.Contains(lower, "usestate"), FrameworkReact)
	add(strings.Contains(lower, "next/") || strings.Contains(lower, "getserversideprops"), FrameworkNextJS)
	add(language == "typescript", FrameworkTypeScript)
	add(strings.Contains(lower, "from \"vue\"") || strings.Contains(lower, "defineComponent"), FrameworkVue)
	add(strings.Contains(lower, "@angular/core"), FrameworkAngular)
	add(strings.Contains(lower, "require(\"express\")") || strings.Contains(lower, "from 'express'"), FrameworkExpress)
	add(strings.Contains(lower, "from django"), FrameworkDjango)
	add(strings.Contains(lower, "from flask") || strings.Contains(lower, "import flask"), FrameworkFlask)
	add(strings.Contains(lower, "springframework"), FrameworkSpring)
	add(strings.Contains(lower, "activerecord") || strings.Contains(lower, "rails"), FrameworkRails)
	return out
}

func detectPatterns(path, text string) []Pattern {
	lowerPath := strings.ToLower(path)
	lower := strings.ToLower(text)
	var out []Pattern
	add := func(cond bool, p Pattern) {
		if cond {
			out = append(out, p)
		}
	}
	add(strings.Contains(lowerPath, "component") || regexp.MustCompile(`return\s*\(?\s*<`).MatchString(text), PatternComponent)
	add(regexp.MustCompile(`\buse[A-Z]\w*\s*\(`).MatchString(text), PatternHook)
	add(strings.Contains(lowerPath, "service") || strings.Contains(lower, "service{") || strings.Contains(lower, "service struct"), PatternService)
	add(strings.Contains(lowerPath, "middleware") || strings.Contains(lower, "next()") || strings.Contains(lower, "next http.handler"), PatternMiddleware)
	add(strings.Contains(lowerPath, "repository") || strings.Contains(lower, "repository"), PatternRepository)
	add(strings.Contains(lower, "factory") || strings.Contains(lower, "new(") && strings.Contains(lowerPath, "factory"), PatternFactory)
	add(strings.Contains(lowerPath, "controller") || strings.Contains(lower, "controller"), PatternController)
	add(strings.Contains(lowerPath, "handler") || strings.Contains(lower, "handlefunc") || strings.Contains(lower, "handler("), PatternHandler)
	add(strings.Contains(lower, "var instance") || strings.Contains(lower, "getinstance()") || strings.Contains(lower, "sync.once"), PatternSingleton)
	return out
}

func detectConcepts(text string) (concepts []string, businessLogic []string) {
	lower := strings.ToLower(text)
	conceptCandidates := map[string]string{
		"validation": "validate", "pagination": "paginate", "caching": "cache",
		"retry": "retry", "rate limiting": "ratelimit", "serialization": "marshal",
	}
	for concept, probe := range conceptCandidates {
		if strings.Contains(lower, probe) {
			concepts = append(concepts, concept)
		}
	}
	businessCandidates := []string{"invoice", "payment", "order", "checkout", "subscription", "inventory", "shipment"}
	for _, b := range businessCandidates {
		if strings.Contains(lower, b) {
			businessLogic = append(businessLogic, b)
		}
	}
	sort.Strings(concepts)
	sort.Strings(businessLogic)
	return concepts, businessLogic
}

func computeComplexity(text string) float64 {
	count := len(decisionTokenRe.FindAllString(text, -1))
	return float64(count) + 1
}

func computeQuality(text string, hasTypeAnnotations, hasAnyExport bool) float64 {
	score := 0.0
	if commentRe.MatchString(text) {
		score += 0.20
	}
	if hasTypeAnnotations {
		score += 0.15
	}
	if defaultExportRe.MatchString(text) {
		score += 0.15
	} else if hasAnyExport || anyExportRe.MatchString(text) {
		score += 0.10
	}
	if tryCatchRe.MatchString(text) {
		score += 0.10
	}

	lineCount := strings.Count(text, "\n") + 1
	switch {
	case lineCount >= 5 && lineCount <= 100:
		score += 0.10
	case lineCount > 200:
		score -= 0.10
	}
	if len(strings.TrimSpace(text)) < 50 {
		score -= 0.20
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

var pathBucketMultiplier = []struct {
	substr string
	weight float64
}{
	{"/api/", 1.5}, {"/components/", 1.4}, {"/pages/", 1.3},
	{"/lib/", 1.3}, {"/utils/", 1.2}, {"/hooks/", 1.3},
	{"/test/", 0.5}, {"/tests/", 0.5}, {"/__tests__/", 0.5},
	{"/generated/", 0.3}, {".d.ts", 0.3},
}

func computeImportance(path, text string, a *Attributes) float64 {
	lowerPath := strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
	multiplier := 1.0
	for _, bucket := range pathBucketMultiplier {
		if strings.Contains(lowerPath, bucket.substr) {
			multiplier *= bucket.weight
		}
	}

	depth := strings.Count(strings.Trim(lowerPath, "/"), "/")
	if depth > 5 {
		decay := 1.0 - float64(depth-5)*0.1
		if decay < 0.5 {
			decay = 0.5
		}
		multiplier *= decay
	}

	if len(a.Exports) > 0 {
		multiplier *= 1.2
	}
	lineCount := strings.Count(text, "\n") + 1
	if lineCount >= 20 && lineCount <= 150 {
		multiplier *= 1.1
	}

	if multiplier < 0.1 {
		multiplier = 0.1
	}
	if multiplier > 5.0 {
		multiplier = 5.0
	}
	return multiplier
}
