package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgRoot string
	verbose bool
)

// rootCmd is the base command when codesearch is called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "codesearch",
	Short: "Local lexical code search over a directory tree",
	Long: `codesearch builds a persistent inverted index over source files on
disk and answers natural-language and identifier queries against it,
returning ranked chunks with file path and line span.`,
}

// Execute adds all child commands to rootCmd and runs it. Called once from
// main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgRoot, "project", "", "project root to index/search (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// projectRoot resolves the --project flag, falling back to the working
// directory.
func projectRoot() (string, error) {
	if cfgRoot != "" {
		return cfgRoot, nil
	}
	return os.Getwd()
}
