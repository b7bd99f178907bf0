package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var ingestClear bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the knowledge base documents",
	Long: `Load every .txt, .md and .pdf file under the data folder, split it into
overlapping chunks and store their embeddings in the knowledge base.
Re-ingesting unchanged files does not create duplicates.

Examples:
  supportagent ingest            # Add the data folder to the index
  supportagent ingest --clear    # Rebuild the index from scratch`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "clear the existing index first")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	c, err := openContainer(ctx, false)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("Scanning %s...\n", cfg.Index.DataFolder)

	// Create progress bar (will be initialized once we know total files)
	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	progress := func(done, total int, path string) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Loading[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		elapsed := time.Since(startTime)
		rate := float64(done) / elapsed.Seconds()
		if rate > 0 {
			eta := time.Duration(float64(total-done)/rate) * time.Second
			bar.Describe(fmt.Sprintf("[cyan]Loading[reset] ETA: %s", formatDuration(eta)))
		}
	}

	started := time.Now()
	result, err := c.Service.InitializeIndex(ctx, ingestClear, progress)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("\nIngestion complete in %s:\n", formatDuration(time.Since(started)))
	fmt.Printf("  Documents loaded: %d\n", result.DocsLoaded)
	fmt.Printf("  Chunks created:   %d\n", result.DocsChunked)
	fmt.Printf("  Collection size:  %d\n", result.CollectionSize)
	if result.FilesFailed > 0 {
		fmt.Printf("  Files skipped:    %d\n", result.FilesFailed)
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
