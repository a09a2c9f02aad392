// Package walker enumerates candidate source files under one or more
// project roots, applying extension-based language detection, glob ignore
// patterns, and a size limit.
package walker

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// FileInfo describes one candidate file discovered by a Walker.
type FileInfo struct {
	Path     string // absolute path
	Size     int64
	ModTime  int64 // unix nanoseconds
	Language string
}

// LanguageByExtension is the default extension → language map.
var LanguageByExtension = map[string]string{
	".js": "javascript", ".jsx": "javascript",
	".ts": "typescript", ".tsx": "typescript",
	".vue": "vue", ".svelte": "svelte",
	".py": "python", ".java": "java",
	".c": "c", ".cpp": "cpp", ".h": "c", ".hpp": "cpp",
	".cs": "csharp", ".php": "php", ".rb": "ruby",
	".go": "go", ".rs": "rust", ".swift": "swift",
	".kt": "kotlin", ".scala": "scala",
	".css": "css", ".scss": "css", ".sass": "css", ".less": "css",
	".html": "html", ".xml": "xml",
	".json": "json", ".yaml": "yaml", ".yml": "yaml",
	".toml": "toml", ".ini": "ini", ".md": "markdown",
	".sql": "sql", ".graphql": "graphql",
	".sh": "shell", ".bash": "shell", ".zsh": "shell",
	".ps1": "powershell", ".dockerfile": "dockerfile", ".makefile": "makefile",
}

// DefaultIgnoreGlobs is the default ignore set.
var DefaultIgnoreGlobs = []string{
	"node_modules/**", "bower_components/**", "vendor/**",
	".git/**", ".svn/**", ".hg/**",
	"dist/**", "build/**", "out/**",
	".next/**", ".nuxt/**", ".cache/**", "coverage/**",
	".vscode/**", ".idea/**",
	"*.min.js", "*.min.css", "*.map", "*.d.ts",
	"package-lock.json", "yarn.lock", "pnpm-lock.yaml",
	"*.log", "*.env*",
}

const defaultMaxFileSize = 1 << 20 // 1 MB

// Options configures a Walker.
type Options struct {
	Roots          []string
	IgnoreGlobs    []string          // in addition to DefaultIgnoreGlobs
	Extensions     map[string]string // extension → language; defaults to LanguageByExtension
	MaxFileSize    int64             // bytes; 0 means defaultMaxFileSize
	IndexDirectory string            // absolute path the walker must never enumerate into
}

// Walker discovers candidate files deterministically.
type Walker struct {
	roots       []string
	ignore      []glob.Glob
	extensions  map[string]string
	maxFileSize int64
	indexDir    string

	lastStats Stats
}

// Stats reports what the last DiscoverFiles call saw.
type Stats struct {
	Seen    int
	Matched int
	Skipped int
	Ignored int
	Warned  int
}

// New compiles ignore globs and returns a ready Walker.
func New(opts Options) (*Walker, error) {
	if len(opts.Roots) == 0 {
		return nil, fmt.Errorf("walker: at least one root is required")
	}

	extensions := opts.Extensions
	if extensions == nil {
		extensions = LanguageByExtension
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}

	patterns := make([]string, 0, len(DefaultIgnoreGlobs)+len(opts.IgnoreGlobs))
	patterns = append(patterns, DefaultIgnoreGlobs...)
	patterns = append(patterns, opts.IgnoreGlobs...)

	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("walker: invalid ignore glob %q: %w", p, err)
		}
		compiled = append(compiled, g)
	}

	roots := make([]string, len(opts.Roots))
	for i, r := range opts.Roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("walker: invalid root %q: %w", r, err)
		}
		roots[i] = abs
	}

	var indexDir string
	if opts.IndexDirectory != "" {
		abs, err := filepath.Abs(opts.IndexDirectory)
		if err != nil {
			return nil, fmt.Errorf("walker: invalid index directory %q: %w", opts.IndexDirectory, err)
		}
		indexDir = abs
	}

	return &Walker{
		roots:       roots,
		ignore:      compiled,
		extensions:  extensions,
		maxFileSize: maxSize,
		indexDir:    indexDir,
	}, nil
}

// DiscoverFiles walks every root and returns a deduplicated, byte-wise
// path-sorted list of candidate files. Unreadable directories are logged
// and skipped, never fatal.
func (w *Walker) DiscoverFiles() ([]FileInfo, error) {
	seen := make(map[string]struct{})
	var files []FileInfo
	stats := Stats{}

	for _, root := range w.roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				log.Printf("walker: warning: cannot access %s: %v", path, err)
				stats.Warned++
				if info != nil && info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if w.indexDir != "" && (path == w.indexDir || strings.HasPrefix(path, w.indexDir+string(filepath.Separator))) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			relForIgnore, relErr := filepath.Rel(root, path)
			if relErr == nil {
				relForIgnore = filepath.ToSlash(relForIgnore)
				if info.IsDir() {
					if w.matchesIgnore(relForIgnore) || w.matchesIgnore(relForIgnore+"/**") {
						return filepath.SkipDir
					}
					return nil
				}
				if w.matchesIgnore(relForIgnore) {
					stats.Ignored++
					return nil
				}
			}

			if info.IsDir() {
				return nil
			}

			// Symlinks are not followed.
			if info.Mode()&os.ModeSymlink != 0 {
				return nil
			}

			stats.Seen++

			lang, ok := w.extensions[strings.ToLower(filepath.Ext(path))]
			if !ok {
				stats.Skipped++
				return nil
			}

			if info.Size() > w.maxFileSize {
				stats.Skipped++
				return nil
			}

			if _, dup := seen[path]; dup {
				return nil
			}
			seen[path] = struct{}{}

			files = append(files, FileInfo{
				Path:     path,
				Size:     info.Size(),
				ModTime:  info.ModTime().UnixNano(),
				Language: lang,
			})
			stats.Matched++
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walker: walking %s: %w", root, err)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	w.lastStats = stats
	return files, nil
}

// Stats returns counts from the most recent DiscoverFiles call.
func (w *Walker) Stats() Stats { return w.lastStats }

// MatchesFilter reports whether path would be a candidate file based on its
// extension and the ignore glob set alone, without touching the filesystem.
// The watcher uses this to decide whether a change event is worth acting on,
// including for delete events where the file no longer exists to stat.
func (w *Walker) MatchesFilter(path string) bool {
	if w.indexDir != "" && (path == w.indexDir || strings.HasPrefix(path, w.indexDir+string(filepath.Separator))) {
		return false
	}
	if _, ok := w.extensions[strings.ToLower(filepath.Ext(path))]; !ok {
		return false
	}
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = filepath.ToSlash(rel)
		if !w.matchesIgnore(rel) {
			return true
		}
	}
	return false
}

func (w *Walker) matchesIgnore(relPath string) bool {
	for _, g := range w.ignore {
		if g.Match(relPath) {
			return true
		}
	}
	return false
}
