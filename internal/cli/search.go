package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codegrove/codesearch/internal/config"
	"github.com/codegrove/codesearch/internal/engine"
)

var (
	searchPaths     []string
	searchIndexDir  string
	searchTopK      int
	searchMinScore  float64
	searchLanguage  string
	searchFilePath  string
	searchNoContent bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a single query against a previously built snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringSliceVar(&searchPaths, "paths", nil, "project roots the snapshot was built from (informational)")
	searchCmd.Flags().StringVar(&searchIndexDir, "index", "./ultra-fast-index", "directory the snapshot was written to")
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 10, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "drop results scoring below this threshold (0..1)")
	searchCmd.Flags().StringVar(&searchLanguage, "language", "", "restrict results to this recognized language tag")
	searchCmd.Flags().StringVar(&searchFilePath, "file-path", "", "restrict results to paths containing this substring")
	searchCmd.Flags().BoolVar(&searchNoContent, "no-content", false, "omit chunk text from the output")
}

func runSearch(cmd *cobra.Command, args []string) error {
	roots := searchPaths
	if len(roots) == 0 {
		root, err := projectRoot()
		if err != nil {
			return fmt.Errorf("resolving project root: %w", err)
		}
		roots = []string{root}
	}

	cfg := config.Default()
	cfg.Paths.Roots = roots
	cfg.Paths.IndexDir = searchIndexDir

	e, err := engine.New(cfg.EngineOptions())
	if err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}
	defer e.Close()

	opts := engine.DefaultSearchOptions()
	opts.TopK = searchTopK
	opts.MinScore = searchMinScore
	opts.Language = searchLanguage
	opts.FilePathHas = searchFilePath
	opts.IncludeText = !searchNoContent

	resp := e.Search(args[0], opts)
	printSearchResults(resp)
	return nil
}

func printSearchResults(resp *engine.SearchResponse) {
	if len(resp.Results) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, r := range resp.Results {
		fmt.Printf("%d. %s:%d-%d  score=%.3f relevance=%.3f\n", i+1, r.Path, r.StartLine, r.EndLine, r.Score, r.Relevance)
		if r.Explanation != "" {
			fmt.Printf("   %s\n", r.Explanation)
		}
		if r.Text != "" {
			fmt.Println(indent(r.Text, "   | "))
		}
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
