// Package pipeline provides the high-level orchestration for a recommendation run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-recommender/internal/db"
	"github.com/jonathan/job-recommender/internal/export"
	"github.com/jonathan/job-recommender/internal/notify"
	"github.com/jonathan/job-recommender/internal/observability"
	"github.com/jonathan/job-recommender/internal/scraper"
	"github.com/jonathan/job-recommender/internal/types"
)

// Run steps reported through ProgressEvent.
const (
	StepScrape    = "scrape"
	StepRecommend = "recommend"
	StepExport    = "export"
	StepNotify    = "notify"
	StepPersist   = "persist"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Store persists the output of a run. *db.DB implements it.
type Store interface {
	SaveRun(ctx context.Context, runID uuid.UUID, runStart time.Time, preferences types.UserPreferences) error
	SaveRecommendations(ctx context.Context, runID uuid.UUID, ranked []types.ScoredPosting) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status string, stats types.RunStats) error
}

// RunOptions holds configuration for a full run
type RunOptions struct {
	Preferences types.UserPreferences
	Recommend   RecommendOptions

	Scrapers []scraper.Scraper
	Manager  scraper.ManagerOptions

	// OutputPath is an export.OutputPath template. Empty skips the export.
	OutputPath   string
	OutputFormat string
	// TopN limits exported and notified postings. Zero keeps all.
	TopN int

	Notifiers    []notify.Notifier
	AttachExport bool

	// Store is optional.
	Store Store

	Verbose    bool
	Out        io.Writer
	OnProgress ProgressCallback
}

// RunResult summarises a completed run.
type RunResult struct {
	// Recommendation is nil when nothing was scraped.
	Recommendation *Recommendation
	ScrapeStats    scraper.Stats
	OutputFile     string
	Notified       []string
	NotifyErrors   []error
	Persisted      bool
}

func emitProgress(opts *RunOptions, step, message, runID string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{Step: step, Message: message, RunID: runID, Content: content})
	}
}

// Run scrapes every configured site, recommends, exports, notifies and
// persists. Configuration errors are returned before anything is fetched.
// Notification and persistence failures are recorded but do not fail the run.
func Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if err := CheckConfig(opts.Preferences, opts.Recommend); err != nil {
		return nil, err
	}
	if len(opts.Scrapers) == 0 {
		return nil, &ConfigError{Message: "no scrapers selected"}
	}
	if opts.OutputPath != "" {
		if _, err := export.ForFormat(opts.OutputFormat); err != nil {
			return nil, &ConfigError{Message: "invalid output format", Cause: err}
		}
	}

	var printer *observability.Printer
	if opts.Verbose && opts.Out != nil {
		printer = observability.NewPrinter(opts.Out)
		printer.PrintPreferences(opts.Preferences)
	}

	prefs := opts.Preferences
	result := &RunResult{}

	log.Printf("[PIPELINE] Scraping %d sites...", len(opts.Scrapers))
	manager := scraper.NewManager(opts.Scrapers, opts.Manager)
	siteResults, scrapeStats := manager.ScrapeAll(ctx, scraper.Queries(prefs.JobTitles, prefs.Locations, prefs.PagesPerSite))
	result.ScrapeStats = scrapeStats
	if printer != nil {
		printer.PrintScrapeStats(scrapeStats)
	}
	emitProgress(&opts, StepScrape, fmt.Sprintf("Scraped %d postings from %d sites", scrapeStats.TotalJobs, len(opts.Scrapers)), "", scrapeStats)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	raw := scraper.Flatten(siteResults)
	if len(raw) == 0 {
		log.Printf("[PIPELINE] No postings scraped, nothing to recommend")
		emitProgress(&opts, StepRecommend, "No postings scraped", "", nil)
		return result, nil
	}

	recOpts := opts.Recommend
	if recOpts.RunStart.IsZero() {
		recOpts.RunStart = time.Now()
	}
	rec, err := Recommend(raw, prefs, recOpts)
	if err != nil {
		return nil, err
	}
	runID := rec.RunID.String()
	if printer != nil {
		printer.PrintRunStats(rec.Stats)
	}
	emitProgress(&opts, StepRecommend, fmt.Sprintf("Ranked %d of %d postings", rec.Stats.Ranked, rec.Stats.Raw), runID, rec.Stats)

	if opts.TopN > 0 && len(rec.Ranked) > opts.TopN {
		rec.Ranked = rec.Ranked[:opts.TopN]
	}
	result.Recommendation = rec
	if printer != nil {
		printer.PrintRecommendations(rec.Ranked, 0)
	}

	if opts.OutputPath != "" {
		path, err := export.OutputPath(opts.OutputPath, opts.OutputFormat, rec.RunStart)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve output path: %w", err)
		}
		if err := export.WriteFile(path, opts.OutputFormat, rec.Ranked, rec.RunStart); err != nil {
			return nil, fmt.Errorf("failed to export recommendations: %w", err)
		}
		result.OutputFile = path
		emitProgress(&opts, StepExport, "Exported recommendations to "+path, runID, nil)
	}

	if len(rec.Ranked) > 0 {
		notifyAll(ctx, &opts, rec, result)
	}

	if opts.Store != nil {
		if err := persist(ctx, opts.Store, rec, prefs); err != nil {
			log.Printf("[PIPELINE] Warning: failed to persist run %s: %v", runID, err)
		} else {
			result.Persisted = true
			emitProgress(&opts, StepPersist, "Saved run "+runID, runID, nil)
		}
	}

	log.Printf("[PIPELINE] Run %s complete: %d recommendations", runID, len(rec.Ranked))
	return result, nil
}

func notifyAll(ctx context.Context, opts *RunOptions, rec *Recommendation, result *RunResult) {
	digest := notify.Digest{
		Ranked:      rec.Ranked,
		Preferences: opts.Preferences,
		GeneratedAt: rec.RunStart,
	}
	if opts.AttachExport && result.OutputFile != "" {
		digest.Attachments = []string{result.OutputFile}
	}

	for _, n := range opts.Notifiers {
		if err := n.Notify(ctx, digest); err != nil {
			log.Printf("[PIPELINE] Warning: %v", err)
			result.NotifyErrors = append(result.NotifyErrors, err)
			continue
		}
		result.Notified = append(result.Notified, n.Name())
		emitProgress(opts, StepNotify, "Sent "+n.Name()+" notification", rec.RunID.String(), nil)
	}
}

func persist(ctx context.Context, store Store, rec *Recommendation, prefs types.UserPreferences) error {
	if err := store.SaveRun(ctx, rec.RunID, rec.RunStart, prefs); err != nil {
		return err
	}
	if err := store.SaveRecommendations(ctx, rec.RunID, rec.Ranked); err != nil {
		return errors.Join(err, store.CompleteRun(ctx, rec.RunID, db.RunStatusFailed, rec.Stats))
	}
	return store.CompleteRun(ctx, rec.RunID, db.RunStatusCompleted, rec.Stats)
}
