package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cmsrag/internal/adapter/store"
	"cmsrag/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show details of the current index",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	dir := indexDir()

	info, err := store.ReadInfo(dir)
	if errors.Is(err, domain.ErrIndexNotFound) {
		fmt.Printf("No index at %s. Run 'cmsrag ingest' to build one.\n", dir)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Index:      %s\n", dir)
	fmt.Printf("Source:     %s\n", info.Source)
	fmt.Printf("Chunks:     %d\n", info.ChunkCount)
	fmt.Printf("Model:      %s (%d dimensions)\n", info.EmbeddingModel, info.Dimension)
	fmt.Printf("Schema:     v%d\n", info.SchemaVersion)
	fmt.Printf("Build:      %s\n", info.BuildID)
	fmt.Printf("Created:    %s\n", info.CreatedAt.Local().Format(time.RFC1123))

	if reason := store.StaleReason(info, cfg); reason != "" {
		fmt.Printf("Status:     %s\n", errorStyle.Render("stale ("+reason+"), re-run 'cmsrag ingest'"))
	} else {
		fmt.Println("Status:     up to date")
	}
	return nil
}
