package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader loads configuration for one root directory.
type Loader interface {
	// Load reads configuration with priority (highest to lowest):
	// environment variables, config file, defaults.
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a loader rooted at rootDir; it looks for
// <rootDir>/.codesearch/config.yml.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".codesearch")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("CODESEARCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("paths.roots")
	v.BindEnv("paths.index_dir")
	v.BindEnv("index.max_file_size_bytes")
	v.BindEnv("chunk.window_lines")
	v.BindEnv("chunk.overlap_lines")
	v.BindEnv("watch.enabled")
	v.BindEnv("search.top_k")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	applyProjectPathEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("paths.roots", d.Paths.Roots)
	v.SetDefault("paths.index_dir", d.Paths.IndexDir)
	v.SetDefault("index.max_file_size_bytes", d.Index.MaxFileSizeBytes)
	v.SetDefault("index.ignore_globs", d.Index.IgnoreGlobs)
	v.SetDefault("chunk.window_lines", d.Chunk.WindowLines)
	v.SetDefault("chunk.overlap_lines", d.Chunk.OverlapLines)
	v.SetDefault("watch.enabled", d.Watch.Enabled)
	v.SetDefault("search.top_k", d.Search.TopK)
}

// applyProjectPathEnv lets PROJECT_PATH / PROJECT_PATHS override the
// resolved roots, the way a supervisor process launching this engine as a
// long-lived server would pin its working set without a config file.
func applyProjectPathEnv(cfg *Config) {
	if paths := os.Getenv("PROJECT_PATHS"); paths != "" {
		cfg.Paths.Roots = strings.Split(paths, ",")
		return
	}
	if path := os.Getenv("PROJECT_PATH"); path != "" {
		cfg.Paths.Roots = []string{path}
	}
}

// LoadConfig loads configuration rooted at the current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration rooted at dir.
func LoadConfigFromDir(dir string) (*Config, error) {
	return NewLoader(dir).Load()
}
