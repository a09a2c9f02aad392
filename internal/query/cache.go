package query

import (
	"fmt"

	"github.com/maypok86/otter"
)

const defaultCacheCapacity = 512

// Processor wraps Process with a bounded LRU cache of recently processed
// queries. A cache miss just recomputes, so this is a pure optimization:
// it never changes what Process would have returned.
type Processor struct {
	opts  Options
	cache otter.Cache[string, *ProcessedQuery]
}

// NewProcessor builds a Processor with the given variant options and a
// bounded LRU cache keyed by raw query string.
func NewProcessor(opts Options) (*Processor, error) {
	cache, err := otter.MustBuilder[string, *ProcessedQuery](defaultCacheCapacity).
		Cost(func(key string, value *ProcessedQuery) uint32 { return 1 }).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("query: building cache: %w", err)
	}
	return &Processor{opts: opts, cache: cache}, nil
}

// Process returns the ProcessedQuery for raw, serving from cache when
// available.
func (p *Processor) Process(raw string) *ProcessedQuery {
	if pq, ok := p.cache.Get(raw); ok {
		return pq
	}
	pq := Process(raw, p.opts)
	p.cache.Set(raw, pq)
	return pq
}

// Close releases cache resources.
func (p *Processor) Close() {
	p.cache.Close()
}
