// Package main provides the job_agent CLI: scrape job boards, rank postings
// against your preferences, and deliver the best matches.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "job_agent",
	Short: "Job posting recommendation engine",
	Long: `job_agent scrapes job boards, normalizes and deduplicates the postings, filters them
against your preferences and ranks the rest with a weighted multi-factor score.

Configuration is read from --config, or from $XDG_CONFIG_HOME/job-recommender/settings.yaml
when it exists. Secrets can come from the environment or a .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to settings YAML or JSON (defaults to the XDG config path)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
