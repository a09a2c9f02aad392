package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codegrove/codesearch/internal/config"
	"github.com/codegrove/codesearch/internal/engine"
)

var (
	indexOutputDir string
	indexWatch     bool
	indexQuiet     bool
)

var indexCmd = &cobra.Command{
	Use:   "index [paths...]",
	Short: "Build or refresh the index over one or more project paths",
	Long: `index walks the given project paths (default: the current directory),
chunks and analyzes every recognized source file, and writes a persistent
snapshot of the resulting inverted index. With --watch (the default) it then
stays resident, applying incremental updates as files change until
interrupted.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVar(&indexOutputDir, "output", "./ultra-fast-index", "directory to write the index snapshot to")
	indexCmd.Flags().BoolVar(&indexWatch, "watch", true, "watch for file changes after the initial pass")
	indexCmd.Flags().BoolVarP(&indexQuiet, "quiet", "q", false, "suppress progress output")
}

func runIndex(cmd *cobra.Command, args []string) error {
	roots := args
	if len(roots) == 0 {
		root, err := projectRoot()
		if err != nil {
			return fmt.Errorf("resolving project root: %w", err)
		}
		roots = []string{root}
	}

	cfg := config.Default()
	cfg.Paths.Roots = roots
	cfg.Paths.IndexDir = indexOutputDir
	cfg.Watch.Enabled = indexWatch
	if err := config.Validate(cfg); err != nil {
		return err
	}

	e, err := engine.New(cfg.EngineOptions())
	if err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}
	defer e.Close()

	baseCtx := cmd.Context()
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, finishing current work...")
		cancel()
	}()

	report, err := e.Index(ctx, newIndexProgressReporter(indexQuiet))
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	if !report.Completed {
		return nil
	}

	if !cfg.Watch.Enabled {
		return nil
	}

	if !indexQuiet {
		fmt.Println("Watching for changes. Press Ctrl+C to stop.")
	}
	if err := e.StartWatching(ctx); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	<-ctx.Done()
	return e.StopWatching()
}
