package config

import (
	"github.com/codegrove/codesearch/internal/chunk"
	"github.com/codegrove/codesearch/internal/engine"
)

// EngineOptions adapts cfg into the engine's construction options.
func (cfg *Config) EngineOptions() engine.Options {
	return engine.Options{
		Roots:       cfg.Paths.Roots,
		IndexDir:    cfg.Paths.IndexDir,
		IgnoreGlobs: cfg.Index.IgnoreGlobs,
		MaxFileSize: cfg.Index.MaxFileSizeBytes,
		ChunkOpts: chunk.Options{
			WindowLines:  cfg.Chunk.WindowLines,
			OverlapLines: cfg.Chunk.OverlapLines,
		},
	}
}
