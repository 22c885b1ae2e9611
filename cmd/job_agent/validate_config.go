package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-recommender/internal/config"
	"github.com/jonathan/job-recommender/internal/notify"
	"github.com/jonathan/job-recommender/internal/observability"
	"github.com/jonathan/job-recommender/internal/scraper"
)

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Load and validate a config file, then print its summary",
	RunE:  runValidateConfig,
}

var (
	validateConfigInit      bool
	validateConfigCheckSMTP bool
)

func init() {
	validateConfigCmd.Flags().BoolVar(&validateConfigInit, "init", false, "Write the default config to the config path first if it does not exist")
	validateConfigCmd.Flags().BoolVar(&validateConfigCheckSMTP, "check-smtp", false, "Also connect and authenticate to the SMTP server when email is enabled")
	rootCmd.AddCommand(validateConfigCmd)
}

func runValidateConfig(cmd *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if validateConfigInit {
		created, err := initConfig(path)
		if err != nil {
			return err
		}
		if created {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", path)
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	registry := scraper.DefaultRegistry()
	for _, site := range cfg.Preferences.SitesToScrape {
		if !registry.Has(site) {
			return fmt.Errorf("config error: unknown site %q in sites_to_scrape (available: %v)", site, registry.Names())
		}
	}

	if validateConfigCheckSMTP && cfg.Email.Enabled {
		notifiers, err := buildNotifiers(cfg)
		if err != nil {
			return err
		}
		for _, n := range notifiers {
			if sender, ok := n.(*notify.EmailSender); ok {
				if err := sender.TestConnection(); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "📧 SMTP login to %s succeeded\n", cfg.Email.SMTPServer)
			}
		}
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintPreferences(cfg.Preferences)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ Configuration is valid (output: %s, email: %t, telegram: %t)\n",
		cfg.Output.Format, cfg.Email.Enabled, cfg.Telegram.Enabled)
	return nil
}

func initConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := config.WriteDefault(path); err != nil {
		return false, fmt.Errorf("failed to write default config: %w", err)
	}
	return true, nil
}
