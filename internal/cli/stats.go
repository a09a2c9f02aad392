package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codegrove/codesearch/internal/config"
	"github.com/codegrove/codesearch/internal/engine"
)

var (
	statsPaths    []string
	statsIndexDir string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print counters for a previously built snapshot",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringSliceVar(&statsPaths, "paths", nil, "project roots the snapshot was built from (informational)")
	statsCmd.Flags().StringVar(&statsIndexDir, "index", "./ultra-fast-index", "directory the snapshot was written to")
}

func runStats(cmd *cobra.Command, args []string) error {
	roots := statsPaths
	if len(roots) == 0 {
		root, err := projectRoot()
		if err != nil {
			return fmt.Errorf("resolving project root: %w", err)
		}
		roots = []string{root}
	}

	cfg := config.Default()
	cfg.Paths.Roots = roots
	cfg.Paths.IndexDir = statsIndexDir

	e, err := engine.New(cfg.EngineOptions())
	if err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}
	defer e.Close()

	s := e.Stats()
	fmt.Printf("total_files:          %d\n", s.TotalFiles)
	fmt.Printf("total_chunks:         %d\n", s.TotalChunks)
	fmt.Printf("distinct_terms:       %d\n", s.DistinctTerms)
	fmt.Printf("mean_terms_per_chunk: %.2f\n", s.MeanTermsPerChunk)
	fmt.Printf("watching:             %t\n", s.Watching)
	fmt.Printf("roots:                %v\n", s.Roots)
	return nil
}
