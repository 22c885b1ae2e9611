package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/job-recommender/internal/observability"
	"github.com/jonathan/job-recommender/internal/scraper"
)

var scrapersCmd = &cobra.Command{
	Use:   "scrapers",
	Short: "List the supported sites with a sample search URL",
	RunE:  runScrapers,
}

var (
	scrapersSearch   string
	scrapersLocation string
)

func init() {
	scrapersCmd.Flags().StringVarP(&scrapersSearch, "search", "s", "software engineer", "Search term for the sample URLs")
	scrapersCmd.Flags().StringVarP(&scrapersLocation, "location", "l", "remote", "Location for the sample URLs")
	rootCmd.AddCommand(scrapersCmd)
}

func runScrapers(cmd *cobra.Command, _ []string) error {
	registry := scraper.DefaultRegistry()
	observability.NewPrinter(cmd.OutOrStdout()).PrintScraperList(registry.Names(), func(name string) string {
		s, err := registry.Build(name, scraper.Deps{})
		if err != nil {
			return ""
		}
		return s.SearchURL(scrapersSearch, scrapersLocation, 0)
	})
	return nil
}
