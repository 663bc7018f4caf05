package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	planPath   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "verity",
	Short: "Raw GBD data validation and extraction",
	Long: `verity pulls draw-level tables from a local data warehouse, runs
metadata and data checks against each requested entity/measure pair, and
writes the datasets that survive validation to a parquet artifact run.

Extraction plans are YAML files naming the entities, measures, and
locations to pull. See 'verity extract --help' for the run workflow and
'verity validate' for offline plan and config checking.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
