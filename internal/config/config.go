package config

// Config is the complete resolved configuration for one engine instance.
// Load resolves one from defaults, .codesearch/config.yml and the
// environment; the CLI subcommands start from Default() and apply their
// flags. EngineOptions turns it into engine.Options.
type Config struct {
	Paths  PathsConfig  `yaml:"paths" mapstructure:"paths"`
	Index  IndexConfig  `yaml:"index" mapstructure:"index"`
	Chunk  ChunkConfig  `yaml:"chunk" mapstructure:"chunk"`
	Watch  WatchConfig  `yaml:"watch" mapstructure:"watch"`
	Search SearchConfig `yaml:"search" mapstructure:"search"`
}

// PathsConfig selects the roots to walk and the directory holding the
// persisted snapshot.
type PathsConfig struct {
	Roots    []string `yaml:"roots" mapstructure:"roots"`
	IndexDir string   `yaml:"index_dir" mapstructure:"index_dir"`
}

// IndexConfig bounds what the walker will read.
type IndexConfig struct {
	MaxFileSizeBytes int64    `yaml:"max_file_size_bytes" mapstructure:"max_file_size_bytes"`
	IgnoreGlobs      []string `yaml:"ignore_globs" mapstructure:"ignore_globs"`
}

// ChunkConfig controls the fixed-window chunker.
type ChunkConfig struct {
	WindowLines  int `yaml:"window_lines" mapstructure:"window_lines"`
	OverlapLines int `yaml:"overlap_lines" mapstructure:"overlap_lines"`
}

// WatchConfig controls whether `index` stays resident after the first pass.
type WatchConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// SearchConfig supplies defaults for the search subcommand when a flag is
// left unset.
type SearchConfig struct {
	TopK int `yaml:"top_k" mapstructure:"top_k"`
}

// defaultIgnoreGlobs mirrors the engine's compiled-in ignore set so a user's
// config file can see and extend it rather than silently replace it.
var defaultIgnoreGlobs = []string{
	"node_modules/**", "bower_components/**", "vendor/**",
	".git/**", ".svn/**", ".hg/**",
	"dist/**", "build/**", "out/**", ".next/**", ".nuxt/**",
	".cache/**", "coverage/**", ".vscode/**", ".idea/**",
	"*.min.js", "*.min.css", "*.map", "*.d.ts",
	"package-lock.json", "yarn.lock", "pnpm-lock.yaml",
	"*.log", "*.env*",
}

// Default returns the fixed lexical defaults: a 30-line chunk window with no
// overlap, a 1 MB file size ceiling, watching on, and the standard ignore
// set.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Roots:    []string{"."},
			IndexDir: "./ultra-fast-index",
		},
		Index: IndexConfig{
			MaxFileSizeBytes: 1 << 20,
			IgnoreGlobs:      append([]string(nil), defaultIgnoreGlobs...),
		},
		Chunk: ChunkConfig{
			WindowLines:  30,
			OverlapLines: 0,
		},
		Watch: WatchConfig{
			Enabled: true,
		},
		Search: SearchConfig{
			TopK: 10,
		},
	}
}
