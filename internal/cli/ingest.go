package cli

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cmsrag/internal/adapter/chunker"
	"cmsrag/internal/adapter/loader"
	"cmsrag/internal/adapter/store"
	"cmsrag/internal/domain"
	"cmsrag/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the vector index from the source document",
	Long: `Load the configured source document, split it into overlapping chunks,
embed every chunk and replace the index directory with the result.

The previous index stays in place until the new one is complete, so a
failed run never leaves a partial index behind.

Examples:
  cmsrag ingest
  cmsrag ingest --config ./cmsrag.yaml`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()
	path := sourcePath()
	dir := indexDir()

	if err := checkSource(path); err != nil {
		return err
	}

	chk, err := chunker.NewRecursiveChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap, cfg.Index.Separators)
	if err != nil {
		return err
	}
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	ldr := loader.New(loader.Source{Name: cfg.Source.Name, DocType: cfg.Source.DocType}, nil)
	builder := usecase.NewBuildUseCase(embedder, dir, usecase.BuildOptions{
		BatchSize:  cfg.Index.BatchSize,
		Source:     path,
		ConfigHash: store.ComputeConfigHash(cfg),
	})
	ingestUC := usecase.NewIngestUseCase(ldr, chk, builder)

	fmt.Printf("Loading %s...\n", path)

	progress := usecase.IngestProgress{
		Loaded: func(pages int) {
			fmt.Printf("Loaded %d pages\n", pages)
		},
		Chunked: func(chunks int) {
			fmt.Printf("Created %d chunks (size %d, overlap %d)\n", chunks, cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
			fmt.Printf("Embedding with %s...\n", embedder.ModelName())
		},
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		progress.Embedded = newEmbedProgress()
	}

	result, err := ingestUC.Ingest(ctx, path, progress)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("\nCreated %d chunks with %d-dimension embeddings\n", result.Chunks, result.Dimension)
	fmt.Printf("Index saved to: %s\n", result.Dir)
	fmt.Printf("Completed in %s\n", formatDuration(result.Duration))
	return nil
}

// checkSource fails fast on a missing document, before any provider needs
// credentials.
func checkSource(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: source document %s", domain.ErrNotFound, path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return nil
}

// newEmbedProgress draws a progress bar with an ETA for embedding batches.
func newEmbedProgress() usecase.ProgressFunc {
	var bar *progressbar.ProgressBar
	var mu sync.Mutex
	var startTime time.Time

	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
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
		if done > 0 && elapsed > 0 {
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}
}

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
