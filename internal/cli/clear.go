package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codegrove/codesearch/internal/config"
	"github.com/codegrove/codesearch/internal/engine"
)

var (
	clearPaths    []string
	clearIndexDir string
	clearYes      bool
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the snapshot and reset engine state",
	Long:  "clear removes the on-disk snapshot. The next index run starts from scratch.",
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().StringSliceVar(&clearPaths, "paths", nil, "project roots the snapshot was built from (informational)")
	clearCmd.Flags().StringVar(&clearIndexDir, "index", "./ultra-fast-index", "directory the snapshot was written to")
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "confirm deletion")
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		return fmt.Errorf("refusing to delete %s without --yes", clearIndexDir)
	}

	roots := clearPaths
	if len(roots) == 0 {
		root, err := projectRoot()
		if err != nil {
			return fmt.Errorf("resolving project root: %w", err)
		}
		roots = []string{root}
	}

	cfg := config.Default()
	cfg.Paths.Roots = roots
	cfg.Paths.IndexDir = clearIndexDir

	e, err := engine.New(cfg.EngineOptions())
	if err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}
	defer e.Close()

	if err := e.Clear(); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	fmt.Println("✓ Index cleared")
	return nil
}
