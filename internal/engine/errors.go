package engine

import (
	"fmt"

	"github.com/codegrove/codesearch/internal/store"
)

// ConfigError marks an invalid root path or option, reported before any
// work begins.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "engine: config error: " + e.Msg }

// IOError marks a failure to read a file, list a directory, or write a
// snapshot.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("engine: io error on %s: %v", e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// ParseError marks a structural-analysis failure for one chunk. The
// analyzer recovers such failures itself and degrades to empty attributes,
// so the indexing paths never construct a ParseError and it never appears
// in a Report's errors list.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("engine: parse error on %s: %v", e.Path, e.Err)
}
func (e *ParseError) Unwrap() error { return e.Err }

// IndexInvariantError marks a would-be violation of the inverted index's
// cross-table invariants. The mutation that triggered it is aborted and
// the engine is left in a read-only safe state until Clear is called.
type IndexInvariantError struct {
	Err error
}

func (e *IndexInvariantError) Error() string {
	return fmt.Sprintf("engine: index invariant violated: %v", e.Err)
}
func (e *IndexInvariantError) Unwrap() error { return e.Err }

// CorruptSnapshotError is returned (or logged) when an on-disk snapshot
// cannot be trusted: unknown format_version, or missing or unreadable
// tables. The engine discards it and continues empty. Cross-table
// consistency is not checked on load: the index is rebuilt from the
// term_frequency rows, and the stored document_frequency and chunk_terms
// tables are not read.
type CorruptSnapshotError = store.CorruptSnapshotError

// CancelledError marks a long operation that observed the caller's
// cancellation signal and rolled back to the last stable boundary. It is
// not treated as a failure by callers.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "engine: operation cancelled" }
