// Package rank implements a multi-signal ranker: it scores
// candidate chunks against a processed query by combining TF-IDF,
// structural boosts, and intent-conditioned multipliers, then applies
// clustering and diversity caps before returning the top-K.
package rank

import (
	"math"
	"sort"
	"strings"

	"github.com/codegrove/codesearch/internal/analyze"
	"github.com/codegrove/codesearch/internal/chunk"
	"github.com/codegrove/codesearch/internal/index"
	"github.com/codegrove/codesearch/internal/query"
)

// Options tunes the ranking pipeline.
type Options struct {
	MaxResults          int
	EnableClustering    bool
	Fuzzy               bool
	CodeSpecificRanking bool
	SemanticExpansion   bool
}

// DefaultOptions returns the ranker's default tuning.
func DefaultOptions() Options {
	return Options{
		MaxResults:          10,
		EnableClustering:    true,
		Fuzzy:               false,
		CodeSpecificRanking: true,
		SemanticExpansion:   true,
	}
}

// Result is one ranked chunk.
type Result struct {
	ChunkID     string
	Path        string
	StartLine   int
	EndLine     int
	Score       float64
	Relevance   float64
	Explanation string
}

// variantWeight returns the query-variant contribution weight: the
// original normalized query contributes full weight, every expanded
// variant contributes 0.7.
func variantWeight(index int) float64 {
	if index == 0 {
		return 1.0
	}
	return 0.7
}

// Rank scores every chunk reachable from pq's variants and returns the
// top Options.MaxResults after clustering and diversity capping.
func Rank(pq *query.ProcessedQuery, idx *index.Index, chunks map[string]chunk.Chunk, attrs map[string]*analyze.Attributes, opts Options) []Result {
	if opts.MaxResults <= 0 {
		opts = DefaultOptions()
	}

	best := make(map[string]*Result)

	for vi, variant := range pq.Variants {
		terms := strings.Fields(variant)
		if len(terms) == 0 {
			continue
		}
		weight := variantWeight(vi)

		candidates := candidateSet(idx, terms)
		for chunkID := range candidates {
			c, ok := chunks[chunkID]
			if !ok {
				continue
			}
			a := attrs[chunkID]
			if a == nil {
				a = &analyze.Attributes{Importance: 1.0}
			}

			score, relevance, why := scoreChunk(pq, terms, idx, c, a, opts)
			score *= weight
			relevance *= weight

			if prior, ok := best[chunkID]; !ok || score > prior.Score {
				best[chunkID] = &Result{
					ChunkID:     chunkID,
					Path:        c.Path,
					StartLine:   c.StartLine,
					EndLine:     c.EndLine,
					Score:       score,
					Relevance:   relevance,
					Explanation: why,
				}
			} else if ok && relevance > prior.Relevance {
				prior.Relevance = relevance
			}
		}
	}

	results := make([]Result, 0, len(best))
	for _, r := range best {
		if r.Score < 0.1 {
			continue
		}
		results = append(results, *r)
	}

	if opts.EnableClustering {
		results = cluster(results)
	}
	results = capDiversity(results, attrs)

	sortResults(results)

	if len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}
	return results
}

func candidateSet(idx *index.Index, terms []string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range terms {
		for _, chunkID := range idx.CandidateChunks(t) {
			out[chunkID] = struct{}{}
		}
	}
	return out
}

func scoreChunk(pq *query.ProcessedQuery, terms []string, idx *index.Index, c chunk.Chunk, a *analyze.Attributes, opts Options) (score, relevance float64, explanation string) {
	var parts []string

	tfidf := tfidfComponent(idx, c.ID, terms)
	score += tfidf
	if tfidf > 0 {
		parts = append(parts, "tfidf")
	}

	symbolScore := symbolMatchComponent(pq, a, c.Text, opts)
	score += symbolScore
	if symbolScore > 0 {
		parts = append(parts, "symbol-match")
	}

	relevance = saturate(tfidf + symbolScore)

	multiplier := intentMultiplier(pq.Intent, a, c.Text)
	score *= multiplier
	if multiplier != 1.0 {
		parts = append(parts, "intent-boost")
	}

	lowerText := strings.ToLower(c.Text)

	if fp := frameworkPatternBonus(pq.Normalized, a); fp > 0 {
		score += fp
		parts = append(parts, "framework-match")
	}

	if strings.Contains(lowerText, pq.Normalized) && pq.Normalized != "" {
		score += 1.5
		parts = append(parts, "exact-phrase")
	}

	if camel := camelJoin(pq.Keywords); camel != "" && strings.Contains(c.Text, camel) {
		score += 1.2
		parts = append(parts, "camelcase-match")
	}

	if commentBonus := commentMentionBonus(c.Text, pq.Normalized); commentBonus > 0 {
		score += commentBonus
		parts = append(parts, "comment-mention")
	}

	score *= a.Importance
	score *= qualityMultiplier(a.Quality)

	return score, relevance, strings.Join(parts, "+")
}

func tfidfComponent(idx *index.Index, chunkID string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	totalTerms := idx.TotalTermsInChunk(chunkID)
	if totalTerms == 0 {
		return 0
	}
	n := idx.TotalChunks()

	sum := 0.0
	for _, t := range terms {
		tf := idx.TermFrequency(chunkID, t)
		if tf == 0 {
			continue
		}
		df := idx.DocumentFrequency(t)
		if df < 1 {
			df = 1
		}
		sum += (float64(tf) / float64(totalTerms)) * math.Log(float64(n)/float64(df))
	}
	return sum / math.Sqrt(float64(len(terms)))
}

func symbolMatchComponent(pq *query.ProcessedQuery, a *analyze.Attributes, text string, opts Options) float64 {
	if len(a.Symbols) == 0 {
		return 0
	}

	matchWords := make(map[string]struct{})
	for _, k := range pq.Keywords {
		matchWords[k] = struct{}{}
	}
	for _, e := range pq.Entities {
		matchWords[strings.ToLower(e)] = struct{}{}
	}
	if len(matchWords) == 0 {
		return 0
	}

	exportSet := make(map[string]struct{}, len(a.Exports))
	for _, e := range a.Exports {
		exportSet[strings.ToLower(e)] = struct{}{}
	}

	score := 0.0
	for _, sym := range a.Symbols {
		symLower := strings.ToLower(sym)
		matched := false
		for w := range matchWords {
			switch {
			case w == symLower:
				score += 2.0
				matched = true
			case strings.Contains(symLower, w) || strings.Contains(w, symLower):
				score += 1.5
				matched = true
			case opts.Fuzzy:
				maxLen := len(w)
				if len(symLower) > maxLen {
					maxLen = len(symLower)
				}
				if maxLen == 0 {
					continue
				}
				dist := levenshtein(w, symLower)
				if dist <= 2 {
					score += 0.5 * (1 - float64(dist)/float64(maxLen))
					matched = true
				}
			}
		}
		if matched {
			if _, exported := exportSet[symLower]; exported {
				score += 0.3
			}
		}
	}

	if strings.Contains(pq.Normalized, "async") && strings.Contains(strings.ToLower(text), "async") {
		score += 0.2
	}

	return score
}

func intentMultiplier(intent query.Intent, a *analyze.Attributes, text string) float64 {
	lower := strings.ToLower(text)
	switch intent {
	case query.IntentFunctionSearch:
		if len(a.Functions) > 0 {
			return 1.5
		}
	case query.IntentClassSearch:
		if len(a.Classes) > 0 || len(a.Interfaces) > 0 || len(a.Types) > 0 {
			return 1.5
		}
	case query.IntentDebugSearch:
		if strings.Contains(lower, "error") || strings.Contains(lower, "exception") ||
			strings.Contains(lower, "try") || strings.Contains(lower, "catch") {
			return 1.8
		}
	case query.IntentImplementationSearch:
		if len(a.Functions) > 0 || len(a.Classes) > 0 {
			return 1.3
		}
	}
	return 1.0
}

func frameworkPatternBonus(normalized string, a *analyze.Attributes) float64 {
	bonus := 0.0
	for _, fw := range a.Frameworks {
		if strings.Contains(normalized, string(fw)) {
			bonus += 0.4
		}
	}
	for _, p := range a.Patterns {
		if strings.Contains(normalized, string(p)) {
			bonus += 0.4
		}
	}
	return bonus
}

func camelJoin(keywords []string) string {
	if len(keywords) == 0 {
		return ""
	}
	var b strings.Builder
	for i, w := range keywords {
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

func commentMentionBonus(text, normalized string) float64 {
	if normalized == "" {
		return 0
	}
	bonus := 0.0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		isComment := strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") || strings.Contains(trimmed, "/*")
		if isComment && strings.Contains(strings.ToLower(trimmed), normalized) {
			bonus += 0.2
		}
	}
	return bonus
}

func qualityMultiplier(quality float64) float64 {
	m := 1 + quality
	if m > 2.0 {
		m = 2.0
	}
	return m
}

func saturate(x float64) float64 {
	if x <= 0 {
		return 0
	}
	v := x / (x + 1)
	if v > 1 {
		return 1
	}
	return v
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			cur[j] = min3(del, ins, sub)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Path != results[j].Path {
			return results[i].Path < results[j].Path
		}
		return results[i].StartLine < results[j].StartLine
	})
}
