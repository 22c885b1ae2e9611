package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/job-recommender/internal/config"
	"github.com/jonathan/job-recommender/internal/observability"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Scrape, rank, export and notify in one pass",
	Long: `Runs the full pipeline: scrape every configured site -> normalize -> deduplicate ->
filter -> score -> rank -> export -> email/Telegram -> persist.

Command-line flags override values from the config file.`,
	Example: `  job_agent run
  job_agent run --test --verbose
  job_agent run --search "Python Developer" --location Remote
  job_agent run --scrapers linkedin,indeed --format json --output out/jobs
  job_agent run --no-email`,
	RunE: runRunCmd,
}

// runFlags are the overrides accepted by the run command.
type runFlags struct {
	search     []string
	locations  []string
	pages      int
	scrapers   []string
	output     string
	format     string
	top        int
	noEmail    bool
	noTelegram bool
	test       bool
	useBrowser bool
	dbURL      string
	verbose    bool
	showConfig bool
}

var runOpts runFlags

func init() {
	f := runCommand.Flags()
	f.StringSliceVarP(&runOpts.search, "search", "s", nil, "Job titles to search for (replaces preferences.job_titles)")
	f.StringSliceVarP(&runOpts.locations, "location", "l", nil, "Locations to search in (replaces preferences.locations)")
	f.IntVarP(&runOpts.pages, "pages", "p", 0, "Result pages per site")
	f.StringSliceVar(&runOpts.scrapers, "scrapers", nil, "Sites to scrape, e.g. linkedin,indeed")
	f.StringVarP(&runOpts.output, "output", "o", "", "Output file path; {timestamp} is expanded")
	f.StringVar(&runOpts.format, "format", "", "Output format: csv, json or excel")
	f.IntVar(&runOpts.top, "top", 0, "Keep only the top N recommendations (0 keeps all)")
	f.BoolVar(&runOpts.noEmail, "no-email", false, "Disable email delivery")
	f.BoolVar(&runOpts.noTelegram, "no-telegram", false, "Disable Telegram delivery")
	f.BoolVar(&runOpts.test, "test", false, "Test mode: one page from at most two sites")
	f.BoolVar(&runOpts.useBrowser, "use-browser", false, "Retry client-rendered pages in headless Chrome")
	f.StringVar(&runOpts.dbURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL)")
	f.BoolVarP(&runOpts.verbose, "verbose", "v", false, "Print detailed progress")
	f.BoolVar(&runOpts.showConfig, "show-config", false, "Print the effective configuration and exit")

	rootCmd.AddCommand(runCommand)
}

// apply copies explicitly set flags onto cfg.
func (f runFlags) apply(cfg *config.Config, changed func(name string) bool) {
	if changed("search") {
		cfg.Preferences.JobTitles = f.search
	}
	if changed("location") {
		cfg.Preferences.Locations = f.locations
	}
	if changed("pages") {
		cfg.Preferences.PagesPerSite = f.pages
	}
	if changed("scrapers") {
		cfg.Preferences.SitesToScrape = f.scrapers
	}
	if changed("output") {
		cfg.Output.Path = f.output
	}
	if changed("format") {
		cfg.Output.Format = f.format
	}
	if changed("top") {
		cfg.Output.TopN = f.top
	}
	if f.noEmail {
		cfg.Email.Enabled = false
	}
	if f.noTelegram {
		cfg.Telegram.Enabled = false
	}
	if changed("use-browser") {
		cfg.Scrapers.UseBrowser = f.useBrowser
	}
	if changed("db-url") {
		cfg.DatabaseURL = f.dbURL
	}
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if f.test {
		cfg.Preferences.PagesPerSite = 1
		if len(cfg.Preferences.SitesToScrape) > 2 {
			cfg.Preferences.SitesToScrape = cfg.Preferences.SitesToScrape[:2]
		}
	}
}

func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	runOpts.apply(cfg, cmd.Flags().Changed)
	if err := cfg.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runOpts.test {
		_, _ = fmt.Fprintln(out, "🧪 Running in TEST MODE - limited scraping")
	}
	if runOpts.showConfig {
		return printConfig(cmd, cfg)
	}
	if !cfg.Verbose {
		observability.NewPrinter(out).PrintPreferences(cfg.Preferences)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, _, cleanup, err := newRunner(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := r.Run(ctx, cfg.Preferences, nil)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if result.Recommendation == nil {
		_, _ = fmt.Fprintln(out, "❌ No jobs found. Try adjusting your search terms or locations.")
		return nil
	}
	if !cfg.Verbose {
		printer := observability.NewPrinter(out)
		printer.PrintRunStats(result.Recommendation.Stats)
		printer.PrintRecommendations(result.Recommendation.Ranked, 0)
	}
	if result.OutputFile != "" {
		_, _ = fmt.Fprintf(out, "💾 Saved %d recommendations to %s\n", len(result.Recommendation.Ranked), result.OutputFile)
	}
	for _, name := range result.Notified {
		_, _ = fmt.Fprintf(out, "📨 Sent %s digest\n", name)
	}
	for _, nerr := range result.NotifyErrors {
		_, _ = fmt.Fprintf(out, "⚠️  %v\n", nerr)
	}
	return nil
}

// printConfig writes cfg as YAML with secrets masked.
func printConfig(cmd *cobra.Command, cfg *config.Config) error {
	data, err := yaml.Marshal(redacted(*cfg))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n🔧 Full Configuration:\n%s", data)
	return nil
}

func redacted(cfg config.Config) config.Config {
	mask := func(s *string) {
		if *s != "" {
			*s = "********"
		}
	}
	mask(&cfg.Email.Password)
	mask(&cfg.Telegram.BotToken)
	mask(&cfg.Scrapers.Adzuna.AppKey)
	mask(&cfg.DatabaseURL)
	mask(&cfg.RedisURL)
	return cfg
}
