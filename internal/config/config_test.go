package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan:
// - Default() returns the fixed lexical defaults.
// - LoadConfigFromDir() falls back to defaults when no config file exists.
// - LoadConfigFromDir() merges a present .codesearch/config.yml over defaults.
// - CODESEARCH_* environment variables override both file and defaults.
// - PROJECT_PATHS overrides the resolved roots regardless of file/env.
// - Validate() rejects each invalid field individually.
// - Validate() reports every invalid field, not just the first.

func TestDefault_ReturnsFixedLexicalDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{"."}, cfg.Paths.Roots)
	assert.Equal(t, "./ultra-fast-index", cfg.Paths.IndexDir)
	assert.Equal(t, int64(1<<20), cfg.Index.MaxFileSizeBytes)
	assert.Equal(t, 30, cfg.Chunk.WindowLines)
	assert.Equal(t, 0, cfg.Chunk.OverlapLines)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 10, cfg.Search.TopK)
	assert.Contains(t, cfg.Index.IgnoreGlobs, "node_modules/**")
}

func TestLoadConfigFromDir_NoFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, Default().Chunk, cfg.Chunk)
}

func TestLoadConfigFromDir_MergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".codesearch"), 0o755))
	yml := "chunk:\n  window_lines: 50\npaths:\n  roots:\n    - ./src\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codesearch", "config.yml"), []byte(yml), 0o644))

	cfg, err := LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Chunk.WindowLines)
	assert.Equal(t, []string{"./src"}, cfg.Paths.Roots)
	assert.Equal(t, 0, cfg.Chunk.OverlapLines, "unset fields keep their default")
}

func TestLoadConfigFromDir_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".codesearch"), 0o755))
	yml := "chunk:\n  window_lines: 50\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codesearch", "config.yml"), []byte(yml), 0o644))

	t.Setenv("CODESEARCH_CHUNK_WINDOW_LINES", "75")
	cfg, err := LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 75, cfg.Chunk.WindowLines)
}

func TestLoadConfigFromDir_ProjectPathsOverridesRoots(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROJECT_PATHS", "/a,/b,/c")
	cfg, err := LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b", "/c"}, cfg.Paths.Roots)
}

func TestValidate_AcceptsDefault(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestValidate_RejectsEachInvalidFieldIndividually(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		errIs  error
	}{
		{"no roots", func(c *Config) { c.Paths.Roots = nil }, ErrNoRoots},
		{"empty index dir", func(c *Config) { c.Paths.IndexDir = "  " }, ErrEmptyIndexDir},
		{"zero window", func(c *Config) { c.Chunk.WindowLines = 0 }, ErrInvalidWindow},
		{"negative overlap", func(c *Config) { c.Chunk.OverlapLines = -1 }, ErrInvalidOverlap},
		{"overlap >= window", func(c *Config) { c.Chunk.OverlapLines = c.Chunk.WindowLines }, ErrInvalidOverlap},
		{"zero max file size", func(c *Config) { c.Index.MaxFileSizeBytes = 0 }, ErrInvalidMaxFileSize},
		{"zero top_k", func(c *Config) { c.Search.TopK = 0 }, ErrInvalidTopK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.errIs)
		})
	}
}

func TestValidate_ReportsEveryInvalidField(t *testing.T) {
	cfg := Default()
	cfg.Paths.Roots = nil
	cfg.Search.TopK = -1
	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoRoots)
	assert.ErrorIs(t, err, ErrInvalidTopK)
}
