package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/codegrove/codesearch/internal/engine"
)

// indexProgressReporter drives a progress bar during `index`, or stays
// silent in quiet mode.
type indexProgressReporter struct {
	quiet   bool
	fileBar *progressbar.ProgressBar
}

func newIndexProgressReporter(quiet bool) *indexProgressReporter {
	return &indexProgressReporter{quiet: quiet}
}

func (r *indexProgressReporter) OnDiscoveryStart() {
	if r.quiet {
		return
	}
	log.Println("Discovering files...")
}

func (r *indexProgressReporter) OnDiscoveryComplete(fileCount int) {
	if r.quiet {
		return
	}
	log.Printf("Found %d files to index\n", fileCount)
}

func (r *indexProgressReporter) OnFileProcessingStart(totalFiles int) {
	if r.quiet {
		return
	}
	r.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetDescription("Indexing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() { fmt.Println() }),
	)
}

func (r *indexProgressReporter) OnFileProcessed(path string) {
	if r.quiet || r.fileBar == nil {
		return
	}
	r.fileBar.Add(1)
}

func (r *indexProgressReporter) OnWritingSnapshot() {
	if r.quiet {
		return
	}
	log.Println("Writing snapshot...")
}

func (r *indexProgressReporter) OnComplete(report *engine.Report) {
	if r.quiet {
		fmt.Printf("Indexing complete: %d chunks in %v\n", report.ChunksProduced, report.Duration)
		return
	}
	fmt.Println()
	fmt.Printf("✓ Indexing complete:\n")
	fmt.Printf("  Files:  %d discovered, %d processed\n", report.FilesDiscovered, report.FilesProcessed)
	fmt.Printf("  Chunks: %d\n", report.ChunksProduced)
	fmt.Printf("  Time:   %v\n", report.Duration)
	if len(report.Errors) > 0 {
		fmt.Printf("  Errors: %d (see above)\n", len(report.Errors))
	}
	if !report.Completed {
		fmt.Println("  Status: incomplete (cancelled)")
	}
}
