// Package index implements a persistent-in-memory inverted index: three
// tables (term_frequency, document_frequency, chunk_terms) maintained
// through exactly three mutating operations so the consistency invariants
// between them hold after every call.
package index

import (
	"fmt"
	"sync"
)

// InvariantError signals that a consistency invariant between the index's
// tables would have been violated. It is treated as a programmer bug: the
// mutation is rejected.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("index: invariant violation during %s: %s", e.Op, e.Msg)
}

// Stats summarizes the index's current size.
type Stats struct {
	DistinctTerms    int
	TotalChunks      int
	MeanTermsPerChunk float64
}

// Index is the inverted index. Safe for concurrent use; callers that need
// a consistent multi-operation view (e.g. the engine facade) should still
// hold their own higher-level lock, since Index only guarantees each
// individual operation is atomic.
type Index struct {
	mu sync.RWMutex

	termFrequency     map[string]map[string]int    // term -> chunkID -> count
	documentFrequency map[string]int                // term -> distinct chunk count
	chunkTerms        map[string]map[string]struct{} // chunkID -> term set
	chunkPath         map[string]string              // chunkID -> path
	pathChunks        map[string]map[string]struct{} // path -> chunk id set
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		termFrequency:     make(map[string]map[string]int),
		documentFrequency: make(map[string]int),
		chunkTerms:        make(map[string]map[string]struct{}),
		chunkPath:         make(map[string]string),
		pathChunks:        make(map[string]map[string]struct{}),
	}
}

// Add inserts a new chunk with its term→count contributions. Fails if the
// chunk id is already present.
func (idx *Index) Add(chunkID, path string, termCounts map[string]int) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.chunkTerms[chunkID]; exists {
		return &InvariantError{Op: "add", Msg: fmt.Sprintf("chunk %q already present", chunkID)}
	}

	terms := make(map[string]struct{}, len(termCounts))
	for term, count := range termCounts {
		if count <= 0 {
			continue
		}
		if idx.termFrequency[term] == nil {
			idx.termFrequency[term] = make(map[string]int)
		}
		idx.termFrequency[term][chunkID] = count
		idx.documentFrequency[term]++
		terms[term] = struct{}{}
	}

	idx.chunkTerms[chunkID] = terms
	idx.chunkPath[chunkID] = path
	if idx.pathChunks[path] == nil {
		idx.pathChunks[path] = make(map[string]struct{})
	}
	idx.pathChunks[path][chunkID] = struct{}{}

	return nil
}

// RemoveChunksOfPath removes every chunk indexed under path, pruning empty
// term entries. Never fails.
func (idx *Index) RemoveChunksOfPath(path string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	chunkIDs, ok := idx.pathChunks[path]
	if !ok {
		return
	}

	for chunkID := range chunkIDs {
		terms := idx.chunkTerms[chunkID]
		for term := range terms {
			delete(idx.termFrequency[term], chunkID)
			idx.documentFrequency[term]--
			if idx.documentFrequency[term] <= 0 {
				delete(idx.documentFrequency, term)
			}
			if len(idx.termFrequency[term]) == 0 {
				delete(idx.termFrequency, term)
			}
		}
		delete(idx.chunkTerms, chunkID)
		delete(idx.chunkPath, chunkID)
	}
	delete(idx.pathChunks, path)
}

// DocumentFrequency returns the current document frequency of term, or 0.
func (idx *Index) DocumentFrequency(term string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.documentFrequency[term]
}

// TermFrequency returns the term frequency of term within chunkID, or 0.
func (idx *Index) TermFrequency(chunkID, term string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	byChunk, ok := idx.termFrequency[term]
	if !ok {
		return 0
	}
	return byChunk[chunkID]
}

// ChunkTerms returns the term set for chunkID, or an empty slice.
func (idx *Index) ChunkTerms(chunkID string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	set, ok := idx.chunkTerms[chunkID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	return out
}

// CandidateChunks returns every chunk id that has a nonzero term frequency
// for term.
func (idx *Index) CandidateChunks(term string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	byChunk, ok := idx.termFrequency[term]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(byChunk))
	for chunkID := range byChunk {
		out = append(out, chunkID)
	}
	return out
}

// TotalTermsInChunk sums the term frequency of every term for chunkID;
// used by the ranker's TF-IDF normalization.
func (idx *Index) TotalTermsInChunk(chunkID string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	total := 0
	for term := range idx.chunkTerms[chunkID] {
		total += idx.termFrequency[term][chunkID]
	}
	return total
}

// TotalChunks returns the number of distinct chunks currently indexed;
// used as N in TF-IDF's log(N / df) term.
func (idx *Index) TotalChunks() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunkTerms)
}

// Stats returns aggregate index statistics.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	totalChunks := len(idx.chunkTerms)
	totalTermOccurrences := 0
	for _, terms := range idx.chunkTerms {
		totalTermOccurrences += len(terms)
	}

	mean := 0.0
	if totalChunks > 0 {
		mean = float64(totalTermOccurrences) / float64(totalChunks)
	}

	return Stats{
		DistinctTerms:    len(idx.termFrequency),
		TotalChunks:      totalChunks,
		MeanTermsPerChunk: mean,
	}
}

// Clear empties all tables.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.termFrequency = make(map[string]map[string]int)
	idx.documentFrequency = make(map[string]int)
	idx.chunkTerms = make(map[string]map[string]struct{})
	idx.chunkPath = make(map[string]string)
	idx.pathChunks = make(map[string]map[string]struct{})
}

// CheckInvariants verifies the index's four cross-table consistency
// invariants hold. Intended for tests and for the engine facade's
// post-mutation self-check.
func (idx *Index) CheckInvariants() error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for term, byChunk := range idx.termFrequency {
		df, hasDF := idx.documentFrequency[term]
		if !hasDF {
			return &InvariantError{Op: "check", Msg: fmt.Sprintf("term %q in term_frequency but not document_frequency", term)}
		}
		nonZero := 0
		for chunkID, count := range byChunk {
			if count <= 0 {
				return &InvariantError{Op: "check", Msg: fmt.Sprintf("term %q chunk %q has non-positive count", term, chunkID)}
			}
			nonZero++
			terms, ok := idx.chunkTerms[chunkID]
			if !ok {
				return &InvariantError{Op: "check", Msg: fmt.Sprintf("chunk %q missing from chunk_terms", chunkID)}
			}
			if _, inSet := terms[term]; !inSet {
				return &InvariantError{Op: "check", Msg: fmt.Sprintf("term %q not in chunk_terms[%q]", term, chunkID)}
			}
		}
		if nonZero != df {
			return &InvariantError{Op: "check", Msg: fmt.Sprintf("term %q document_frequency=%d but %d chunks have it", term, df, nonZero)}
		}
	}

	for term := range idx.documentFrequency {
		if _, ok := idx.termFrequency[term]; !ok {
			return &InvariantError{Op: "check", Msg: fmt.Sprintf("term %q in document_frequency but not term_frequency", term)}
		}
	}

	for chunkID, terms := range idx.chunkTerms {
		for term := range terms {
			byChunk, ok := idx.termFrequency[term]
			if !ok {
				return &InvariantError{Op: "check", Msg: fmt.Sprintf("chunk_terms[%q] has %q missing from term_frequency", chunkID, term)}
			}
			if byChunk[chunkID] <= 0 {
				return &InvariantError{Op: "check", Msg: fmt.Sprintf("chunk_terms[%q] has %q with non-positive term_frequency", chunkID, term)}
			}
		}
	}

	return nil
}
