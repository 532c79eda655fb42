package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cmsrag/internal/adapter/store"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the index directory",
	Long: `Delete the configured index directory. The next question fails until
'cmsrag ingest' builds a new index.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "delete without asking")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	dir := indexDir()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Printf("No index at %s.\n", dir)
		return nil
	}

	if !resetForce {
		fmt.Printf("Delete index at %s? [y/N] ", dir)
		var reply string
		fmt.Scanln(&reply)
		if reply != "y" && reply != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := store.Delete(dir); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", dir)
	return nil
}
