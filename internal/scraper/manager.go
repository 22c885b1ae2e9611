package scraper

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-recommender/internal/types"
)

// DefaultMaxWorkers bounds parallel site scrapes.
const DefaultMaxWorkers = 3

// ManagerOptions controls how sites are scraped.
type ManagerOptions struct {
	Parallel   bool
	MaxWorkers int
	// Delay separates sites in sequential mode.
	Delay   time.Duration
	Verbose bool
}

// SiteResult holds everything scraped from one site.
type SiteResult struct {
	Site     string
	Postings []types.RawPosting
	Err      error
}

// Stats summarises a scrape across all sites.
type Stats struct {
	TotalJobs      int            `json:"total_jobs"`
	JobsBySource   map[string]int `json:"jobs_by_source"`
	FailedScrapers []string       `json:"failed_scrapers,omitempty"`
	Duration       time.Duration  `json:"duration"`
}

// Manager runs a set of scrapers over a set of queries.
type Manager struct {
	scrapers []Scraper
	opts     ManagerOptions
}

// NewManager creates a manager for scrapers, kept in the given order.
func NewManager(scrapers []Scraper, opts ManagerOptions) *Manager {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	return &Manager{scrapers: scrapers, opts: opts}
}

// ScrapeAll runs every query against every site. Results come back in
// scraper order. A failing site is recorded and never aborts the others.
func (m *Manager) ScrapeAll(ctx context.Context, queries []Query) ([]SiteResult, Stats) {
	start := time.Now()
	results := make([]SiteResult, len(m.scrapers))

	if m.opts.Parallel {
		var g errgroup.Group
		g.SetLimit(m.opts.MaxWorkers)
		for i, s := range m.scrapers {
			g.Go(func() error {
				results[i] = m.scrapeSite(ctx, s, queries)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, s := range m.scrapers {
			if i > 0 {
				if err := sleepContext(ctx, m.opts.Delay); err != nil {
					results[i] = SiteResult{Site: s.Name(), Err: err}
					continue
				}
			}
			results[i] = m.scrapeSite(ctx, s, queries)
		}
	}

	stats := Stats{JobsBySource: make(map[string]int)}
	for _, r := range results {
		stats.JobsBySource[r.Site] += len(r.Postings)
		stats.TotalJobs += len(r.Postings)
		if r.Err != nil {
			stats.FailedScrapers = append(stats.FailedScrapers, r.Site)
		}
	}
	stats.Duration = time.Since(start)

	log.Printf("[SCRAPER] Scraped %d postings from %d sites in %s", stats.TotalJobs, len(results), stats.Duration.Round(time.Millisecond))
	return results, stats
}

// scrapeSite runs each query in turn. The site counts as failed only when
// every query failed.
func (m *Manager) scrapeSite(ctx context.Context, s Scraper, queries []Query) SiteResult {
	result := SiteResult{Site: s.Name()}
	failures := 0

	for _, q := range queries {
		postings, err := s.Scrape(ctx, q)
		if err != nil {
			failures++
			result.Err = err
			log.Printf("[SCRAPER] %s failed for %q in %q: %v", s.Name(), q.SearchTerm, q.Location, err)
		}
		result.Postings = append(result.Postings, postings...)
	}

	if failures < len(queries) {
		result.Err = nil
	}
	if m.opts.Verbose {
		log.Printf("[SCRAPER] %s: %d postings", s.Name(), len(result.Postings))
	}
	return result
}

// Queries expands search terms and locations into their cross product.
// An empty location list searches without a location.
func Queries(searchTerms, locations []string, pages int) []Query {
	if len(locations) == 0 {
		locations = []string{""}
	}
	queries := make([]Query, 0, len(searchTerms)*len(locations))
	for _, term := range searchTerms {
		for _, loc := range locations {
			queries = append(queries, Query{SearchTerm: term, Location: loc, Pages: pages})
		}
	}
	return queries
}

// Flatten concatenates site results in order.
func Flatten(results []SiteResult) []types.RawPosting {
	var all []types.RawPosting
	for _, r := range results {
		all = append(all, r.Postings...)
	}
	return all
}
