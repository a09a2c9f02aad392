package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoRoots indicates an empty root list.
	ErrNoRoots = errors.New("no roots configured")

	// ErrInvalidWindow indicates a non-positive chunk window.
	ErrInvalidWindow = errors.New("invalid chunk window")

	// ErrInvalidOverlap indicates a negative or too-large overlap.
	ErrInvalidOverlap = errors.New("invalid chunk overlap")

	// ErrInvalidMaxFileSize indicates a non-positive file size ceiling.
	ErrInvalidMaxFileSize = errors.New("invalid max file size")

	// ErrEmptyIndexDir indicates a missing snapshot directory.
	ErrEmptyIndexDir = errors.New("empty index directory")

	// ErrInvalidTopK indicates a non-positive default top-k.
	ErrInvalidTopK = errors.New("invalid top_k")
)

// Validate checks that cfg is internally consistent before it is handed to
// the engine.
func Validate(cfg *Config) error {
	var errs []error

	if len(cfg.Paths.Roots) == 0 {
		errs = append(errs, ErrNoRoots)
	}
	if strings.TrimSpace(cfg.Paths.IndexDir) == "" {
		errs = append(errs, ErrEmptyIndexDir)
	}
	if cfg.Chunk.WindowLines <= 0 {
		errs = append(errs, fmt.Errorf("%w: window_lines must be positive, got %d", ErrInvalidWindow, cfg.Chunk.WindowLines))
	}
	if cfg.Chunk.OverlapLines < 0 {
		errs = append(errs, fmt.Errorf("%w: overlap_lines cannot be negative, got %d", ErrInvalidOverlap, cfg.Chunk.OverlapLines))
	}
	if cfg.Chunk.WindowLines > 0 && cfg.Chunk.OverlapLines >= cfg.Chunk.WindowLines {
		errs = append(errs, fmt.Errorf("%w: overlap_lines (%d) must be less than window_lines (%d)", ErrInvalidOverlap, cfg.Chunk.OverlapLines, cfg.Chunk.WindowLines))
	}
	if cfg.Index.MaxFileSizeBytes <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_file_size_bytes must be positive, got %d", ErrInvalidMaxFileSize, cfg.Index.MaxFileSizeBytes))
	}
	if cfg.Search.TopK <= 0 {
		errs = append(errs, fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidTopK, cfg.Search.TopK))
	}

	if len(errs) == 0 {
		return nil
	}
	return joinErrors(errs)
}

func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}
