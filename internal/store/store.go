// Package store persists an index snapshot to a single SQLite file: schema
// creation inside a transaction, squirrel-built statements, and a full
// "clear then rewrite" pass per save rather than incremental row diffing.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	jsoniter "github.com/json-iterator/go"
	_ "modernc.org/sqlite"

	"github.com/codegrove/codesearch/internal/analyze"
	"github.com/codegrove/codesearch/internal/chunk"
)

const (
	fileName      = "index.db"
	formatVersion = 1
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CorruptSnapshotError indicates the on-disk snapshot could not be trusted
// (missing/garbled header, unreadable schema, version mismatch). Callers
// should fall back to an empty index rather than propagating the error as
// fatal.
type CorruptSnapshotError struct {
	Path string
	Err  error
}

func (e *CorruptSnapshotError) Error() string {
	return fmt.Sprintf("store: corrupt snapshot %s: %v", e.Path, e.Err)
}

func (e *CorruptSnapshotError) Unwrap() error { return e.Err }

// Snapshot is the full on-disk representation of an index.
type Snapshot struct {
	CreatedAt     time.Time
	PathCount     int
	Chunks        []chunk.Chunk
	Attributes    map[string]*analyze.Attributes // chunk id -> attributes
	TermFrequency map[string]map[string]int      // term -> chunk id -> count
}

// Empty returns a zero-value snapshot, used when no snapshot file exists
// yet or an existing one is unreadable.
func Empty() *Snapshot {
	return &Snapshot{
		Attributes:    make(map[string]*analyze.Attributes),
		TermFrequency: make(map[string]map[string]int),
	}
}

func dbPath(dir string) string {
	return filepath.Join(dir, fileName)
}

// Load reads the snapshot from dir. If no snapshot file exists it returns
// an empty snapshot and no error. If the file exists but is unreadable or
// carries an unknown format version, it returns a *CorruptSnapshotError
// alongside an empty snapshot so callers can choose to rebuild.
func Load(dir string) (*Snapshot, error) {
	path := dbPath(dir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Empty(), nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Empty(), &CorruptSnapshotError{Path: path, Err: err}
	}
	defer db.Close()

	snap, err := readSnapshot(db)
	if err != nil {
		return Empty(), &CorruptSnapshotError{Path: path, Err: err}
	}
	return snap, nil
}

func readSnapshot(db *sql.DB) (*Snapshot, error) {
	var versionStr string
	row := sq.Select("value").From("snapshot_meta").Where(sq.Eq{"key": "format_version"}).RunWith(db).QueryRow()
	if err := row.Scan(&versionStr); err != nil {
		return nil, fmt.Errorf("reading format_version: %w", err)
	}
	if versionStr != fmt.Sprintf("%d", formatVersion) {
		return nil, fmt.Errorf("unsupported format_version %q", versionStr)
	}

	var createdAtStr string
	row = sq.Select("value").From("snapshot_meta").Where(sq.Eq{"key": "created_at"}).RunWith(db).QueryRow()
	if err := row.Scan(&createdAtStr); err != nil {
		return nil, fmt.Errorf("reading created_at: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	snap := Empty()
	snap.CreatedAt = createdAt

	chunkRows, err := sq.Select("chunk_id", "path", "language", "chunk_index", "start_line", "end_line", "text", "content_hash", "mod_time").
		From("chunks").RunWith(db).Query()
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	paths := make(map[string]struct{})
	for chunkRows.Next() {
		var c chunk.Chunk
		if err := chunkRows.Scan(&c.ID, &c.Path, &c.Language, &c.ChunkIndex, &c.StartLine, &c.EndLine, &c.Text, &c.ContentHash, &c.ModTime); err != nil {
			chunkRows.Close()
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		snap.Chunks = append(snap.Chunks, c)
		paths[c.Path] = struct{}{}
	}
	chunkRows.Close()
	if err := chunkRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	snap.PathCount = len(paths)

	attrRows, err := sq.Select("chunk_id", "attributes_json").From("structural_attributes").RunWith(db).Query()
	if err != nil {
		return nil, fmt.Errorf("reading structural_attributes: %w", err)
	}
	for attrRows.Next() {
		var chunkID, blob string
		if err := attrRows.Scan(&chunkID, &blob); err != nil {
			attrRows.Close()
			return nil, fmt.Errorf("scanning attributes row: %w", err)
		}
		var attrs analyze.Attributes
		if err := json.Unmarshal([]byte(blob), &attrs); err != nil {
			attrRows.Close()
			return nil, fmt.Errorf("decoding attributes for %s: %w", chunkID, err)
		}
		snap.Attributes[chunkID] = &attrs
	}
	attrRows.Close()
	if err := attrRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attributes: %w", err)
	}

	termRows, err := sq.Select("term", "chunk_id", "count").From("term_frequency").RunWith(db).Query()
	if err != nil {
		return nil, fmt.Errorf("reading term_frequency: %w", err)
	}
	for termRows.Next() {
		var term, chunkID string
		var count int
		if err := termRows.Scan(&term, &chunkID, &count); err != nil {
			termRows.Close()
			return nil, fmt.Errorf("scanning term_frequency row: %w", err)
		}
		if snap.TermFrequency[term] == nil {
			snap.TermFrequency[term] = make(map[string]int)
		}
		snap.TermFrequency[term][chunkID] = count
	}
	termRows.Close()
	if err := termRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating term_frequency: %w", err)
	}

	return snap, nil
}

// Remove deletes the snapshot file in dir, if any. A missing snapshot is
// not an error.
func Remove(dir string) error {
	err := os.Remove(dbPath(dir))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing snapshot: %w", err)
	}
	return nil
}

// Save writes snap to dir as a new index.db, building the whole database
// in a temp file and renaming it over the live one so a crash mid-write
// never leaves a partially written snapshot at the canonical path.
func Save(dir string, snap *Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", fileName, time.Now().UnixNano()))
	if err := writeSnapshot(tmpPath, snap); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, dbPath(dir))
}

func writeSnapshot(path string, snap *Snapshot) error {
	os.Remove(path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening temp snapshot db: %w", err)
	}
	defer db.Close()

	if err := createSchema(db); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Unix(0, 0).UTC()
	}

	meta := sq.Insert("snapshot_meta").Columns("key", "value")
	meta = meta.Values("format_version", fmt.Sprintf("%d", formatVersion))
	meta = meta.Values("created_at", createdAt.Format(time.RFC3339))
	meta = meta.Values("path_count", fmt.Sprintf("%d", snap.PathCount))
	meta = meta.Values("chunk_count", fmt.Sprintf("%d", len(snap.Chunks)))
	if _, err := meta.RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("writing snapshot_meta: %w", err)
	}

	for _, c := range snap.Chunks {
		_, err := sq.Insert("chunks").
			Columns("chunk_id", "path", "language", "chunk_index", "start_line", "end_line", "text", "content_hash", "mod_time").
			Values(c.ID, c.Path, c.Language, c.ChunkIndex, c.StartLine, c.EndLine, c.Text, c.ContentHash, c.ModTime).
			RunWith(tx).Exec()
		if err != nil {
			return fmt.Errorf("writing chunk %s: %w", c.ID, err)
		}
	}

	for chunkID, attrs := range snap.Attributes {
		blob, err := json.Marshal(attrs)
		if err != nil {
			return fmt.Errorf("encoding attributes for %s: %w", chunkID, err)
		}
		_, err = sq.Insert("structural_attributes").
			Columns("chunk_id", "attributes_json").
			Values(chunkID, string(blob)).
			RunWith(tx).Exec()
		if err != nil {
			return fmt.Errorf("writing attributes for %s: %w", chunkID, err)
		}
	}

	documentFrequency := make(map[string]int)
	chunkTerms := make(map[string]map[string]struct{})
	for term, byChunk := range snap.TermFrequency {
		for chunkID, count := range byChunk {
			_, err := sq.Insert("term_frequency").Columns("term", "chunk_id", "count").
				Values(term, chunkID, count).RunWith(tx).Exec()
			if err != nil {
				return fmt.Errorf("writing term_frequency %s/%s: %w", term, chunkID, err)
			}
			documentFrequency[term]++
			if chunkTerms[chunkID] == nil {
				chunkTerms[chunkID] = make(map[string]struct{})
			}
			chunkTerms[chunkID][term] = struct{}{}
		}
	}

	for term, df := range documentFrequency {
		_, err := sq.Insert("document_frequency").Columns("term", "df").Values(term, df).RunWith(tx).Exec()
		if err != nil {
			return fmt.Errorf("writing document_frequency %s: %w", term, err)
		}
	}

	for chunkID, terms := range chunkTerms {
		for term := range terms {
			_, err := sq.Insert("chunk_terms").Columns("chunk_id", "term").Values(chunkID, term).RunWith(tx).Exec()
			if err != nil {
				return fmt.Errorf("writing chunk_terms %s/%s: %w", chunkID, term, err)
			}
		}
	}

	return tx.Commit()
}

func createSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE snapshot_meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
		`CREATE TABLE chunks (
			chunk_id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			language TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			text TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			mod_time INTEGER NOT NULL
		)`,
		`CREATE INDEX idx_chunks_path ON chunks(path)`,
		`CREATE TABLE structural_attributes (
			chunk_id TEXT PRIMARY KEY,
			attributes_json TEXT NOT NULL
		)`,
		`CREATE TABLE term_frequency (
			term TEXT NOT NULL,
			chunk_id TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (term, chunk_id)
		)`,
		`CREATE TABLE document_frequency (
			term TEXT PRIMARY KEY,
			df INTEGER NOT NULL
		)`,
		`CREATE TABLE chunk_terms (
			chunk_id TEXT NOT NULL,
			term TEXT NOT NULL,
			PRIMARY KEY (chunk_id, term)
		)`,
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return tx.Commit()
}
