package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cmsrag/config"
	"cmsrag/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cmsrag",
	Short: "Question answering over the CMS Hospital-Wide Readmission methodology",
	Long: `cmsrag indexes the CMS Hospital-Wide Readmission Measure methodology report
and answers questions about it, grounding every answer in retrieved passages
and showing the pages they came from.

Example usage:
  cmsrag ingest                                   # Build the index
  cmsrag ask -q "Are planned readmissions counted?"
  cmsrag chat                                     # Interactive session
  cmsrag status                                   # Show index details`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
		if verbose {
			logger.SetVerbose(true)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./cmsrag.yaml, then ./.cmsrag/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "base directory for relative paths (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
}

func GetConfig() *config.Config {
	return cfg
}

// sourcePath is the configured document, resolved against the base directory.
func sourcePath() string {
	return config.ResolvePath(rootDir, cfg.Source.Path)
}

// indexDir is the configured index directory, resolved against the base directory.
func indexDir() string {
	return config.ResolvePath(rootDir, cfg.Index.Dir)
}
