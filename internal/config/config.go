// Package config provides configuration loading and validation for the CLI.
package config

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/job-recommender/internal/ranking"
	"github.com/jonathan/job-recommender/internal/types"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// AdzunaConfig holds Adzuna API credentials.
type AdzunaConfig struct {
	AppID   string `json:"app_id,omitempty" yaml:"app_id"`
	AppKey  string `json:"app_key,omitempty" yaml:"app_key"`
	Country string `json:"country,omitempty" yaml:"country"`
}

// ScraperConfig controls how sites are fetched.
type ScraperConfig struct {
	Parallel   bool              `json:"parallel" yaml:"parallel"`
	MaxWorkers int               `json:"max_workers,omitempty" yaml:"max_workers" validate:"gte=0"`
	Delay      string            `json:"delay,omitempty" yaml:"delay"`           // between sites, e.g. "2s"
	PageDelay  string            `json:"page_delay,omitempty" yaml:"page_delay"` // between result pages
	Timeout    string            `json:"timeout,omitempty" yaml:"timeout"`
	UseBrowser bool              `json:"use_browser,omitempty" yaml:"use_browser"`
	UserAgent  string            `json:"user_agent,omitempty" yaml:"user_agent"`
	CacheTTL   string            `json:"cache_ttl,omitempty" yaml:"cache_ttl"`
	BaseURLs   map[string]string `json:"base_urls,omitempty" yaml:"base_urls"`
	Adzuna     AdzunaConfig      `json:"adzuna" yaml:"adzuna"`
}

// ScoringConfig holds the scoring knobs.
type ScoringConfig struct {
	Weights ranking.Weights `json:"weights" yaml:"weights"`
	// UnresolvedDateFallback ages postings whose date cannot be parsed.
	UnresolvedDateFallback string `json:"unresolved_date_fallback,omitempty" yaml:"unresolved_date_fallback"`
}

// OutputConfig controls the exported file.
type OutputConfig struct {
	Format string `json:"format,omitempty" yaml:"format" validate:"omitempty,oneof=csv json excel xlsx"`
	Path   string `json:"path,omitempty" yaml:"path"` // may contain {timestamp}
	TopN   int    `json:"top_n,omitempty" yaml:"top_n" validate:"gte=0"`
}

// EmailConfig holds SMTP delivery settings.
type EmailConfig struct {
	Enabled      bool     `json:"enabled" yaml:"enabled"`
	SMTPServer   string   `json:"smtp_server,omitempty" yaml:"smtp_server"`
	SMTPPort     int      `json:"smtp_port,omitempty" yaml:"smtp_port" validate:"gte=0,lte=65535"`
	UseTLS       bool     `json:"use_tls" yaml:"use_tls"`
	Sender       string   `json:"sender,omitempty" yaml:"sender" validate:"omitempty,email"`
	Password     string   `json:"password,omitempty" yaml:"password"`
	Recipients   []string `json:"recipients,omitempty" yaml:"recipients" validate:"dive,email"`
	Subject      string   `json:"subject,omitempty" yaml:"subject"`
	MaxJobs      int      `json:"max_jobs,omitempty" yaml:"max_jobs" validate:"gte=0"`
	AttachExport bool     `json:"attach_export" yaml:"attach_export"`
}

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	BotToken string `json:"bot_token,omitempty" yaml:"bot_token"`
	ChatID   int64  `json:"chat_id,omitempty" yaml:"chat_id"`
	MaxJobs  int    `json:"max_jobs,omitempty" yaml:"max_jobs" validate:"gte=0"`
}

// ScheduleConfig drives the schedule command.
type ScheduleConfig struct {
	Cron       string `json:"cron,omitempty" yaml:"cron"`
	RunOnStart bool   `json:"run_on_start" yaml:"run_on_start"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr"`
	// RateLimit throttles POST /recommendations and POST /runs/stream per client.
	RateLimit bool `json:"rate_limit" yaml:"rate_limit"`
}

// Config is the full application configuration, loaded from YAML or JSON.
type Config struct {
	Preferences types.UserPreferences `json:"preferences" yaml:"preferences"`
	Scrapers    ScraperConfig         `json:"scrapers" yaml:"scrapers"`
	Scoring     ScoringConfig         `json:"scoring" yaml:"scoring"`
	Output      OutputConfig          `json:"output" yaml:"output"`
	Email       EmailConfig           `json:"email" yaml:"email"`
	Telegram    TelegramConfig        `json:"telegram" yaml:"telegram"`
	Schedule    ScheduleConfig        `json:"schedule" yaml:"schedule"`
	Server      ServerConfig          `json:"server" yaml:"server"`
	DatabaseURL string                `json:"database_url,omitempty" yaml:"database_url"`
	RedisURL    string                `json:"redis_url,omitempty" yaml:"redis_url"`
	Verbose     bool                  `json:"verbose,omitempty" yaml:"verbose"`
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/job-recommender/settings.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "job-recommender", "settings.yaml")
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}
	return &cfg, nil
}

// WriteDefault writes the built-in configuration to path, creating directories.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return fmt.Errorf("failed to read embedded config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadConfig reads path over the built-in defaults. Files ending in .json are
// decoded as JSON, anything else as YAML. An empty path means
// DefaultConfigPath, and a missing default file yields the defaults.
// Environment overrides are applied last. The result is not validated.
func LoadConfig(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg.ApplyEnv(os.Getenv)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides secrets and connection strings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.DatabaseURL, "DATABASE_URL")
	set(&c.RedisURL, "REDIS_URL")
	set(&c.Email.Password, "SMTP_PASSWORD")
	set(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	set(&c.Scrapers.Adzuna.AppID, "ADZUNA_APP_ID")
	set(&c.Scrapers.Adzuna.AppKey, "ADZUNA_APP_KEY")

	if v := strings.TrimSpace(getenv("TELEGRAM_CHAT_ID")); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}
}

// Validate checks field ranges and cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if !c.Scoring.Weights.IsZero() {
		if err := c.Scoring.Weights.Validate(); err != nil {
			return fmt.Errorf("config error: scoring weights: %w", err)
		}
	}

	durations := []struct {
		name  string
		value string
	}{
		{"scrapers.delay", c.Scrapers.Delay},
		{"scrapers.page_delay", c.Scrapers.PageDelay},
		{"scrapers.timeout", c.Scrapers.Timeout},
		{"scrapers.cache_ttl", c.Scrapers.CacheTTL},
		{"scoring.unresolved_date_fallback", c.Scoring.UnresolvedDateFallback},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("config error: '%s' is not a duration: %q", d.name, d.value)
		}
		if parsed < 0 {
			return fmt.Errorf("config error: '%s' must be non-negative", d.name)
		}
	}

	if c.Email.Enabled {
		if c.Email.SMTPServer == "" || c.Email.Sender == "" {
			return fmt.Errorf("config error: email requires 'smtp_server' and 'sender'")
		}
		if len(c.Email.Recipients) == 0 {
			return fmt.Errorf("config error: email requires at least one recipient")
		}
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		return fmt.Errorf("config error: telegram requires 'bot_token' and 'chat_id'")
	}

	return nil
}

// MergeWithDefaults returns a new Config with unset operational fields filled
// from defaults. Preference lists are left alone since an empty list is
// meaningful.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Preferences.MaxAgeHours == 0 {
		result.Preferences.MaxAgeHours = defaults.Preferences.MaxAgeHours
	}
	if result.Preferences.PagesPerSite == 0 {
		result.Preferences.PagesPerSite = defaults.Preferences.PagesPerSite
	}
	if len(result.Preferences.SitesToScrape) == 0 {
		result.Preferences.SitesToScrape = defaults.Preferences.SitesToScrape
	}

	if result.Scrapers.MaxWorkers == 0 {
		result.Scrapers.MaxWorkers = defaults.Scrapers.MaxWorkers
	}
	if result.Scrapers.Delay == "" {
		result.Scrapers.Delay = defaults.Scrapers.Delay
	}
	if result.Scrapers.PageDelay == "" {
		result.Scrapers.PageDelay = defaults.Scrapers.PageDelay
	}
	if result.Scrapers.Timeout == "" {
		result.Scrapers.Timeout = defaults.Scrapers.Timeout
	}
	if result.Scrapers.CacheTTL == "" {
		result.Scrapers.CacheTTL = defaults.Scrapers.CacheTTL
	}
	if result.Scoring.Weights.IsZero() {
		result.Scoring.Weights = defaults.Scoring.Weights
	}

	if result.Output.Format == "" {
		result.Output.Format = defaults.Output.Format
	}
	if result.Output.Path == "" {
		result.Output.Path = defaults.Output.Path
	}
	if result.Email.SMTPServer == "" {
		result.Email.SMTPServer = defaults.Email.SMTPServer
	}
	if result.Email.SMTPPort == 0 {
		result.Email.SMTPPort = defaults.Email.SMTPPort
	}
	if result.Email.Subject == "" {
		result.Email.Subject = defaults.Email.Subject
	}
	if result.Schedule.Cron == "" {
		result.Schedule.Cron = defaults.Schedule.Cron
	}
	if result.Server.Addr == "" {
		result.Server.Addr = defaults.Server.Addr
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge

	return result
}

// ScraperDelay returns the pause between sites.
func (c *Config) ScraperDelay() time.Duration {
	return parseDuration(c.Scrapers.Delay, 2*time.Second)
}

// PageDelay returns the pause between result pages of one site.
func (c *Config) PageDelay() time.Duration {
	return parseDuration(c.Scrapers.PageDelay, time.Second)
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return parseDuration(c.Scrapers.Timeout, 30*time.Second)
}

// CacheTTL returns how long fetched pages stay cached.
func (c *Config) CacheTTL() time.Duration {
	return parseDuration(c.Scrapers.CacheTTL, time.Hour)
}

// DateFallback returns how far before run start unresolved dates are placed.
func (c *Config) DateFallback() time.Duration {
	return parseDuration(c.Scoring.UnresolvedDateFallback, 0)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
