// Package chunk splits file text into overlapping line-window chunks and
// derives their stable, content-addressed ids.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Chunk is an immutable, indexable span of a single file.
type Chunk struct {
	ID          string
	Path        string
	Language    string
	ChunkIndex  int
	StartLine   int // 1-based, inclusive
	EndLine     int // 1-based, inclusive
	Text        string
	ContentHash string
	ModTime     int64
}

// Options configures the line-window chunker.
type Options struct {
	WindowLines  int // default 30
	OverlapLines int // default 0
}

// DefaultOptions returns the fixed lexical-flow defaults: a 30-line window
// with no overlap.
func DefaultOptions() Options {
	return Options{WindowLines: 30, OverlapLines: 0}
}

const minNonWhitespaceChars = 3

// Split splits file text into an ordered, contiguous list of chunks
// covering the whole file. Two calls over identical (path, text, modTime)
// input produce byte-identical chunk ids.
func Split(path, language, text string, modTime int64, opts Options) []Chunk {
	if opts.WindowLines <= 0 {
		opts.WindowLines = 30
	}
	if opts.OverlapLines < 0 {
		opts.OverlapLines = 0
	}
	if opts.OverlapLines >= opts.WindowLines {
		opts.OverlapLines = opts.WindowLines - 1
	}

	lines := strings.Split(text, "\n")
	// strings.Split on a trailing newline produces a spurious empty final
	// element; drop it so the last chunk ends on the file's last real line.
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil
	}

	step := opts.WindowLines - opts.OverlapLines
	if step <= 0 {
		step = 1
	}

	var chunks []Chunk
	chunkIndex := 0
	for start := 0; start < len(lines); start += step {
		end := start + opts.WindowLines
		if end > len(lines) {
			end = len(lines)
		}

		body := strings.Join(lines[start:end], "\n")
		if countNonWhitespace(body) < minNonWhitespaceChars {
			if end == len(lines) {
				break
			}
			continue
		}

		contentHash := hashContent(body)
		chunks = append(chunks, Chunk{
			ID:          deriveID(path, chunkIndex, contentHash),
			Path:        path,
			Language:    language,
			ChunkIndex:  chunkIndex,
			StartLine:   start + 1,
			EndLine:     end,
			Text:        body,
			ContentHash: contentHash,
			ModTime:     modTime,
		})
		chunkIndex++

		if end == len(lines) {
			break
		}
	}

	return chunks
}

func countNonWhitespace(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			n++
		}
	}
	return n
}

func hashContent(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

func deriveID(path string, chunkIndex int, contentHash string) string {
	sum := sha256.Sum256([]byte(path + "\x00" + strconv.Itoa(chunkIndex) + "\x00" + contentHash))
	return hex.EncodeToString(sum[:])
}
