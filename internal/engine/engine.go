// Package engine is the single facade over the indexing-and-ranking core:
// it owns the chunk store, the structural-attributes map, and the inverted
// index, coordinates full and incremental builds, and serves searches
// against a consistent read view.
package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/codegrove/codesearch/internal/analyze"
	"github.com/codegrove/codesearch/internal/chunk"
	"github.com/codegrove/codesearch/internal/index"
	"github.com/codegrove/codesearch/internal/query"
	"github.com/codegrove/codesearch/internal/rank"
	"github.com/codegrove/codesearch/internal/store"
	"github.com/codegrove/codesearch/internal/token"
	"github.com/codegrove/codesearch/internal/walker"
	"github.com/codegrove/codesearch/internal/watch"
)

const persistCoalesceDelay = time.Second

// Options configures a new Engine.
type Options struct {
	Roots       []string
	IndexDir    string
	IgnoreGlobs []string
	MaxFileSize int64
	ChunkOpts   chunk.Options
	QueryOpts   query.Options
	RankOpts    rank.Options
}

// Report summarizes one full index run.
type Report struct {
	RunID           string
	FilesDiscovered int
	FilesProcessed  int
	ChunksProduced  int
	Errors          []string
	Completed       bool
	Duration        time.Duration
}

// SearchOptions filters and bounds a single search.
type SearchOptions struct {
	TopK         int
	MinScore     float64
	Language     string
	FilePathHas  string
	IncludeText  bool
}

// DefaultSearchOptions returns the CLI/RPC default: top 10, no filters.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{TopK: 10, IncludeText: true}
}

// SearchResult is one ranked hit, with its source text attached when the
// caller asked for it.
type SearchResult struct {
	rank.Result
	Text string
}

// SearchResponse is the result of a single search call.
type SearchResponse struct {
	Query   *query.ProcessedQuery
	Results []SearchResult
}

// Stats is a point-in-time snapshot of engine state for the stats surface.
type Stats struct {
	TotalFiles        int
	TotalChunks       int
	DistinctTerms     int
	MeanTermsPerChunk float64
	Watching          bool
	Roots             []string
}

// Engine is the single-writer, multi-reader facade over the core. Readers
// (Search, Stats) take e.mu.RLock; the single logical writer (Index, the
// watcher dispatch path) takes e.mu.Lock. Full rebuilds use a
// publish-swap: the new chunk/attribute/index state is assembled off to
// the side and only swapped in under the write lock once complete.
type Engine struct {
	indexDir string
	walker   *walker.Walker
	queryProc *query.Processor
	rankOpts  rank.Options
	chunkOpts chunk.Options

	mu       sync.RWMutex
	chunks   map[string]chunk.Chunk
	attrs    map[string]*analyze.Attributes
	idx      *index.Index
	roots    []string
	safeMode bool

	watcherMu sync.Mutex
	watcher   *watch.Watcher
	watching  bool

	persistMu    sync.Mutex
	persistTimer *time.Timer
}

// New builds an Engine rooted at opts.IndexDir, loading any existing
// snapshot found there. A corrupt snapshot is logged and discarded; the
// engine starts empty rather than failing.
func New(opts Options) (*Engine, error) {
	if len(opts.Roots) == 0 {
		return nil, &ConfigError{Msg: "at least one root is required"}
	}
	if opts.IndexDir == "" {
		return nil, &ConfigError{Msg: "index directory is required"}
	}

	w, err := walker.New(walker.Options{
		Roots:          opts.Roots,
		IgnoreGlobs:    opts.IgnoreGlobs,
		MaxFileSize:    opts.MaxFileSize,
		IndexDirectory: opts.IndexDir,
	})
	if err != nil {
		return nil, &ConfigError{Msg: err.Error()}
	}

	qp, err := query.NewProcessor(orDefaultQueryOpts(opts.QueryOpts))
	if err != nil {
		return nil, fmt.Errorf("engine: building query processor: %w", err)
	}

	e := &Engine{
		indexDir:  opts.IndexDir,
		walker:    w,
		queryProc: qp,
		rankOpts:  orDefaultRankOpts(opts.RankOpts),
		chunkOpts: orDefaultChunkOpts(opts.ChunkOpts),
		chunks:    make(map[string]chunk.Chunk),
		attrs:     make(map[string]*analyze.Attributes),
		idx:       index.New(),
		roots:     opts.Roots,
	}

	snap, err := store.Load(opts.IndexDir)
	if err != nil {
		log.Printf("engine: %v; starting with an empty index", err)
		snap = store.Empty()
	}
	e.loadSnapshot(snap)

	return e, nil
}

func orDefaultQueryOpts(o query.Options) query.Options {
	if o.MaxVariants <= 0 {
		return query.DefaultOptions()
	}
	return o
}

func orDefaultRankOpts(o rank.Options) rank.Options {
	if o.MaxResults <= 0 {
		return rank.DefaultOptions()
	}
	return o
}

func orDefaultChunkOpts(o chunk.Options) chunk.Options {
	if o.WindowLines <= 0 {
		return chunk.DefaultOptions()
	}
	return o
}

func (e *Engine) loadSnapshot(snap *store.Snapshot) {
	chunks := make(map[string]chunk.Chunk, len(snap.Chunks))
	byChunkTerms := make(map[string]map[string]int)
	for term, byChunk := range snap.TermFrequency {
		for chunkID, count := range byChunk {
			if byChunkTerms[chunkID] == nil {
				byChunkTerms[chunkID] = make(map[string]int)
			}
			byChunkTerms[chunkID][term] = count
		}
	}

	idx := index.New()
	for _, c := range snap.Chunks {
		chunks[c.ID] = c
		if err := idx.Add(c.ID, c.Path, byChunkTerms[c.ID]); err != nil {
			log.Printf("engine: dropping chunk %s from loaded snapshot: %v", c.ID, err)
			delete(chunks, c.ID)
		}
	}

	e.mu.Lock()
	e.chunks = chunks
	e.attrs = snap.Attributes
	e.idx = idx
	e.mu.Unlock()
}

// Close releases resources held by the engine: stops any running watcher
// and closes the query processor's cache.
func (e *Engine) Close() error {
	_ = e.StopWatching()
	e.queryProc.Close()
	return nil
}

func workerCount() int {
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	if n > 64 {
		n = 64
	}
	return n
}

type pipelineOutput struct {
	path  string
	lang  string
	chunks []chunk.Chunk
	attrs  map[string]*analyze.Attributes
	terms  map[string]map[string]int // chunk id -> term -> count
	err    error
}

func processFile(path, language string, opts chunk.Options) pipelineOutput {
	out := pipelineOutput{path: path, lang: language}

	data, err := os.ReadFile(path)
	if err != nil {
		out.err = &IOError{Path: path, Err: err}
		return out
	}

	info, err := os.Stat(path)
	var modTime int64
	if err == nil {
		modTime = info.ModTime().UnixNano()
	}

	chunks := chunk.Split(path, language, string(data), modTime, opts)
	attrs := make(map[string]*analyze.Attributes, len(chunks))
	terms := make(map[string]map[string]int, len(chunks))
	for _, c := range chunks {
		attrs[c.ID] = analyze.Analyze(path, language, c.Text)
		terms[c.ID] = token.Counts(c.Text)
	}

	out.chunks = chunks
	out.attrs = attrs
	out.terms = terms
	return out
}

// Index performs a full rebuild: walk all roots, run the file pipeline over
// every discovered file with a bounded worker pool, assemble the result
// off to the side, and atomically swap it in before writing one snapshot.
func (e *Engine) Index(ctx context.Context, progress ProgressReporter) (*Report, error) {
	if progress == nil {
		progress = NoOpProgressReporter{}
	}

	start := time.Now()
	report := &Report{RunID: uuid.NewString()}

	e.mu.RLock()
	inSafeMode := e.safeMode
	e.mu.RUnlock()
	if inSafeMode {
		return report, &IndexInvariantError{Err: fmt.Errorf("engine is in a read-only safe state; call Clear first")}
	}

	progress.OnDiscoveryStart()
	files, err := e.walker.DiscoverFiles()
	if err != nil {
		return report, &IOError{Path: strings.Join(e.roots, ","), Err: err}
	}
	report.FilesDiscovered = len(files)
	progress.OnDiscoveryComplete(len(files))
	progress.OnFileProcessingStart(len(files))

	outputs := make([]pipelineOutput, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount())

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			outputs[i] = processFile(f.Path, f.Language, e.chunkOpts)
			return nil
		})
	}
	_ = g.Wait()

	newChunks := make(map[string]chunk.Chunk)
	newAttrs := make(map[string]*analyze.Attributes)
	newIdx := index.New()

	for _, out := range outputs {
		if out.path == "" {
			continue // cancelled before this file's worker ran
		}
		if out.err != nil {
			log.Printf("Warning: %v", out.err)
			report.Errors = append(report.Errors, out.err.Error())
			continue
		}
		for _, c := range out.chunks {
			newChunks[c.ID] = c
			newAttrs[c.ID] = out.attrs[c.ID]
			if err := newIdx.Add(c.ID, c.Path, out.terms[c.ID]); err != nil {
				report.Errors = append(report.Errors, err.Error())
				continue
			}
			report.ChunksProduced++
		}
		report.FilesProcessed++
		progress.OnFileProcessed(out.path)
	}

	if ctx.Err() != nil {
		report.Completed = false
		report.Errors = append(report.Errors, (&CancelledError{}).Error())
		report.Duration = time.Since(start)
		progress.OnComplete(report)
		return report, nil
	}

	if err := newIdx.CheckInvariants(); err != nil {
		e.mu.Lock()
		e.safeMode = true
		e.mu.Unlock()
		return report, &IndexInvariantError{Err: err}
	}

	e.mu.Lock()
	e.chunks = newChunks
	e.attrs = newAttrs
	e.idx = newIdx
	e.mu.Unlock()

	progress.OnWritingSnapshot()
	if err := e.persist(); err != nil {
		report.Duration = time.Since(start)
		return report, &IOError{Path: e.indexDir, Err: err}
	}

	report.Completed = true
	report.Duration = time.Since(start)
	progress.OnComplete(report)
	return report, nil
}

func (e *Engine) persist() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := &store.Snapshot{
		CreatedAt:     time.Now().UTC(),
		Attributes:    e.attrs,
		TermFrequency: make(map[string]map[string]int),
	}

	paths := make(map[string]struct{})
	snap.Chunks = make([]chunk.Chunk, 0, len(e.chunks))
	for id, c := range e.chunks {
		snap.Chunks = append(snap.Chunks, c)
		paths[c.Path] = struct{}{}
		for _, term := range e.idx.ChunkTerms(id) {
			if snap.TermFrequency[term] == nil {
				snap.TermFrequency[term] = make(map[string]int)
			}
			snap.TermFrequency[term][id] = e.idx.TermFrequency(id, term)
		}
	}
	snap.PathCount = len(paths)

	return store.Save(e.indexDir, snap)
}

// Search runs the query pipeline against the current state and returns a
// ranked, filtered, capped result set. It never touches the filesystem.
func (e *Engine) Search(raw string, opts SearchOptions) *SearchResponse {
	e.mu.RLock()
	defer e.mu.RUnlock()

	pq := e.queryProc.Process(raw)
	topK := opts.TopK
	if topK <= 0 {
		topK = e.rankOpts.MaxResults
	}

	// Rank with a wider pool than topK so that post-rank filters (language,
	// path substring) don't starve the final result count, then cap.
	rankOpts := e.rankOpts
	rankOpts.MaxResults = topK * 5
	if rankOpts.MaxResults < topK {
		rankOpts.MaxResults = topK
	}

	results := rank.Rank(pq, e.idx, e.chunks, e.attrs, rankOpts)
	filtered := make([]SearchResult, 0, len(results))
	for _, r := range results {
		c, ok := e.chunks[r.ChunkID]
		if opts.MinScore > 0 && r.Score < opts.MinScore {
			continue
		}
		if opts.Language != "" && (!ok || c.Language != opts.Language) {
			continue
		}
		if opts.FilePathHas != "" && !strings.Contains(r.Path, opts.FilePathHas) {
			continue
		}
		sr := SearchResult{Result: r}
		if opts.IncludeText && ok {
			sr.Text = c.Text
		}
		filtered = append(filtered, sr)
		if len(filtered) == topK {
			break
		}
	}

	return &SearchResponse{Query: pq, Results: filtered}
}

// Stats reports point-in-time counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	idxStats := e.idx.Stats()
	paths := make(map[string]struct{})
	for _, c := range e.chunks {
		paths[c.Path] = struct{}{}
	}
	e.mu.RUnlock()

	e.watcherMu.Lock()
	watching := e.watching
	e.watcherMu.Unlock()

	roots := make([]string, len(e.roots))
	copy(roots, e.roots)
	sort.Strings(roots)

	return Stats{
		TotalFiles:        len(paths),
		TotalChunks:       idxStats.TotalChunks,
		DistinctTerms:     idxStats.DistinctTerms,
		MeanTermsPerChunk: idxStats.MeanTermsPerChunk,
		Watching:          watching,
		Roots:             roots,
	}
}

// Clear empties all in-memory state, deletes the on-disk snapshot, and
// exits any safe-mode lockout from a prior invariant violation.
func (e *Engine) Clear() error {
	e.mu.Lock()
	e.chunks = make(map[string]chunk.Chunk)
	e.attrs = make(map[string]*analyze.Attributes)
	e.idx = index.New()
	e.safeMode = false
	e.mu.Unlock()

	return store.Remove(e.indexDir)
}

// StartWatching begins observing the engine's roots for changes. It is a
// thin wrapper over the watch package: Ready is the only watcher state
// that dispatches, and Start/Stop are each idempotent.
func (e *Engine) StartWatching(ctx context.Context) error {
	e.watcherMu.Lock()
	defer e.watcherMu.Unlock()

	if e.watcher == nil {
		w, err := watch.New(e.roots, e.indexDir, e.walker.MatchesFilter, e.handleWatchEvents)
		if err != nil {
			return fmt.Errorf("engine: building watcher: %w", err)
		}
		e.watcher = w
	}
	if err := e.watcher.Start(ctx); err != nil {
		return err
	}
	e.watching = true
	return nil
}

// StopWatching stops the watcher, if running.
func (e *Engine) StopWatching() error {
	e.watcherMu.Lock()
	defer e.watcherMu.Unlock()

	if e.watcher == nil {
		return nil
	}
	err := e.watcher.Stop()
	e.watching = false
	return err
}

// handleWatchEvents applies one coalesced batch of filesystem changes: for
// each path, remove its existing chunks, then for add/change re-run the
// file pipeline and insert the result. It schedules a debounced snapshot
// write afterward rather than writing synchronously per batch.
func (e *Engine) handleWatchEvents(events []watch.Event) {
	e.mu.Lock()
	if e.safeMode {
		e.mu.Unlock()
		log.Printf("engine: dropping %d watch events; engine is in a safe state after an invariant violation", len(events))
		return
	}

batch:
	for _, ev := range events {
		e.removeChunksOfPathLocked(ev.Path)
		if ev.Kind == watch.EventDelete {
			continue
		}

		lang, ok := walker.LanguageByExtension[strings.ToLower(filepath.Ext(ev.Path))]
		if !ok {
			continue
		}
		out := processFile(ev.Path, lang, e.chunkOpts)
		if out.err != nil {
			log.Printf("engine: %v", out.err)
			continue
		}
		for _, c := range out.chunks {
			if err := e.idx.Add(c.ID, c.Path, out.terms[c.ID]); err != nil {
				log.Printf("engine: %v", err)
				e.safeMode = true
				break batch
			}
			e.chunks[c.ID] = c
			e.attrs[c.ID] = out.attrs[c.ID]
		}
	}
	e.mu.Unlock()

	e.schedulePersist()
}

func (e *Engine) removeChunksOfPathLocked(path string) {
	e.idx.RemoveChunksOfPath(path)
	for id, c := range e.chunks {
		if c.Path == path {
			delete(e.chunks, id)
			delete(e.attrs, id)
		}
	}
}

func (e *Engine) schedulePersist() {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	if e.persistTimer != nil {
		e.persistTimer.Stop()
	}
	e.persistTimer = time.AfterFunc(persistCoalesceDelay, func() {
		if err := e.persist(); err != nil {
			log.Printf("engine: scheduled snapshot write failed: %v", err)
		}
	})
}
