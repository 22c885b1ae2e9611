package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/jonathan/job-recommender/internal/config"
	"github.com/jonathan/job-recommender/internal/db"
	"github.com/jonathan/job-recommender/internal/notify"
	"github.com/jonathan/job-recommender/internal/pipeline"
	"github.com/jonathan/job-recommender/internal/rendering"
	"github.com/jonathan/job-recommender/internal/scraper"
	"github.com/jonathan/job-recommender/internal/server/ratelimit"
	"github.com/jonathan/job-recommender/internal/types"
)

// loadConfig reads path over the defaults and validates the result.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	defaults, err := config.Default()
	if err != nil {
		return nil, err
	}
	merged := cfg.MergeWithDefaults(*defaults)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

func recommendOptions(cfg *config.Config) pipeline.RecommendOptions {
	return pipeline.RecommendOptions{
		Weights:                cfg.Scoring.Weights,
		UnresolvedDateFallback: cfg.DateFallback(),
	}
}

func rateLimitConfig(cfg *config.Config) ratelimit.Config {
	return ratelimit.Config{
		Enabled: cfg.Server.RateLimit,
		Rules:   ratelimit.DefaultRules(),
		Exempt:  map[string]bool{"127.0.0.1": true, "::1": true},
	}
}

// scraperDeps builds the fetch stack: plain HTTP, optionally falling back to
// a headless browser, optionally behind the Redis page cache. The returned
// func releases the cache connection.
func scraperDeps(ctx context.Context, cfg *config.Config) (scraper.Deps, func()) {
	opts := scraper.DefaultOptions()
	opts.Timeout = cfg.RequestTimeout()
	if cfg.Scrapers.UserAgent != "" {
		opts.UserAgent = cfg.Scrapers.UserAgent
	}

	var fetcher scraper.Fetcher = scraper.NewHTTPFetcher(opts)
	if cfg.Scrapers.UseBrowser {
		fetcher = &scraper.FallbackFetcher{
			Primary:  fetcher,
			Fallback: &scraper.BrowserFetcher{Timeout: cfg.RequestTimeout(), Verbose: cfg.Verbose},
			Verbose:  cfg.Verbose,
		}
	}

	cleanup := func() {}
	if cfg.RedisURL != "" {
		client, err := scraper.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("[CLI] Warning: page cache disabled: %v", err)
		} else {
			fetcher = scraper.NewCachingFetcher(fetcher, scraper.NewRedisPageCache(client), cfg.CacheTTL(), cfg.Verbose)
			cleanup = func() { _ = client.Close() }
		}
	}

	return scraper.Deps{
		Fetcher: fetcher,
		Delay:   cfg.PageDelay(),
		Verbose: cfg.Verbose,
		Adzuna: scraper.AdzunaCredentials{
			AppID:   cfg.Scrapers.Adzuna.AppID,
			AppKey:  cfg.Scrapers.Adzuna.AppKey,
			Country: cfg.Scrapers.Adzuna.Country,
		},
		BaseURLs: cfg.Scrapers.BaseURLs,
	}, cleanup
}

// buildNotifiers returns one notifier per enabled channel.
func buildNotifiers(cfg *config.Config) ([]notify.Notifier, error) {
	var notifiers []notify.Notifier
	if cfg.Email.Enabled {
		notifiers = append(notifiers, notify.NewEmailSender(notify.SMTPConfig{
			Server:   cfg.Email.SMTPServer,
			Port:     cfg.Email.SMTPPort,
			Sender:   cfg.Email.Sender,
			Password: cfg.Email.Password,
			UseTLS:   cfg.Email.UseTLS,
		}, cfg.Email.Recipients, rendering.EmailOptions{
			Subject:     cfg.Email.Subject,
			MaxHTMLJobs: cfg.Email.MaxJobs,
		}))
	}
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxJobs)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, tg)
	}
	return notifiers, nil
}

// connectStore connects and migrates. It returns nil without a database URL.
func connectStore(ctx context.Context, databaseURL string) (*db.DB, error) {
	if databaseURL == "" {
		return nil, nil
	}
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// runner holds what every full run shares, so the run, schedule and serve
// commands execute identical pipelines.
type runner struct {
	cfg       *config.Config
	registry  *scraper.Registry
	deps      scraper.Deps
	notifiers []notify.Notifier
	store     pipeline.Store
	out       io.Writer
}

// Run implements server.RunFunc.
func (r *runner) Run(ctx context.Context, prefs types.UserPreferences, onProgress pipeline.ProgressCallback) (*pipeline.RunResult, error) {
	scrapers, unknown := r.registry.BuildAll(prefs.SitesToScrape, r.deps)
	for _, name := range unknown {
		log.Printf("[CLI] Warning: unknown scraper %q skipped (available: %v)", name, r.registry.Names())
	}

	opts := pipeline.RunOptions{
		Preferences: prefs,
		Recommend:   recommendOptions(r.cfg),
		Scrapers:    scrapers,
		Manager: scraper.ManagerOptions{
			Parallel:   r.cfg.Scrapers.Parallel,
			MaxWorkers: r.cfg.Scrapers.MaxWorkers,
			Delay:      r.cfg.ScraperDelay(),
			Verbose:    r.cfg.Verbose,
		},
		OutputPath:   r.cfg.Output.Path,
		OutputFormat: r.cfg.Output.Format,
		TopN:         r.cfg.Output.TopN,
		Notifiers:    r.notifiers,
		AttachExport: r.cfg.Email.AttachExport,
		Store:        r.store,
		Verbose:      r.cfg.Verbose,
		Out:          r.out,
		OnProgress:   onProgress,
	}
	return pipeline.Run(ctx, opts)
}

// newRunner wires the fetch stack, notifiers and optional database for cfg.
// The returned func releases every connection it opened.
func newRunner(ctx context.Context, cfg *config.Config, out io.Writer) (*runner, *db.DB, func(), error) {
	notifiers, err := buildNotifiers(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	deps, closeCache := scraperDeps(ctx, cfg)
	r := &runner{
		cfg:       cfg,
		registry:  scraper.DefaultRegistry(),
		deps:      deps,
		notifiers: notifiers,
		out:       out,
	}

	database, err := connectStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Printf("[CLI] Warning: failed to connect to database: %v", err)
		log.Printf("[CLI] Continuing without database persistence...")
	}
	if database != nil {
		r.store = database
	}

	cleanup := func() {
		closeCache()
		if database != nil {
			database.Close()
		}
	}
	return r, database, cleanup, nil
}
