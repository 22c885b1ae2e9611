package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-recommender/internal/dedup"
	"github.com/jonathan/job-recommender/internal/filter"
	"github.com/jonathan/job-recommender/internal/parsing"
	"github.com/jonathan/job-recommender/internal/ranking"
	"github.com/jonathan/job-recommender/internal/types"
)

// ConfigError is returned when preferences or weights are invalid.
// No posting is processed when it occurs.
type ConfigError struct {
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// RecommendOptions tunes a single recommendation pass.
type RecommendOptions struct {
	// RunStart anchors relative dates and freshness. Zero means now.
	RunStart time.Time
	// Weights overrides the default scoring weights when non-zero.
	Weights                ranking.Weights
	UnresolvedDateFallback time.Duration
}

// Recommendation is the result of one pass through the engine.
type Recommendation struct {
	RunID    uuid.UUID             `json:"run_id"`
	RunStart time.Time             `json:"run_start"`
	Ranked   []types.ScoredPosting `json:"postings"`
	Stats    types.RunStats        `json:"stats"`
}

// Recommend normalizes, deduplicates, filters, scores and ranks raw postings.
// The only possible error is a *ConfigError, returned before any work is done.
func Recommend(raw []types.RawPosting, prefs types.UserPreferences, opts RecommendOptions) (*Recommendation, error) {
	weights, err := resolveWeights(prefs, opts)
	if err != nil {
		return nil, err
	}

	runStart := opts.RunStart
	if runStart.IsZero() {
		runStart = time.Now()
	}

	stats := types.RunStats{Raw: len(raw)}

	normalized := parsing.NormalizeAll(raw, runStart, parsing.Options{UnresolvedDateFallback: opts.UnresolvedDateFallback})
	stats.Normalized = len(normalized)
	for _, p := range normalized {
		if p.PostedAtEstimated {
			stats.EstimatedDates++
		}
	}

	unique, dedupStats := dedup.DedupeWithStats(normalized, prefs.SitesToScrape)
	stats.AfterDedup = dedupStats.Output
	stats.DuplicatesRemoved = dedupStats.Removed

	kept, dropped := filter.ApplyWithStats(unique, prefs, runStart)
	stats.AfterFilter = len(kept)
	stats.Dropped = dropped

	ranked := ranking.Rank(ranking.ScoreAll(kept, prefs, runStart, weights))
	stats.Ranked = len(ranked)

	return &Recommendation{
		RunID:    uuid.New(),
		RunStart: runStart,
		Ranked:   ranked,
		Stats:    stats,
	}, nil
}

// CheckConfig reports the *ConfigError Recommend would return, without
// processing anything.
func CheckConfig(prefs types.UserPreferences, opts RecommendOptions) error {
	_, err := resolveWeights(prefs, opts)
	return err
}

func resolveWeights(prefs types.UserPreferences, opts RecommendOptions) (ranking.Weights, error) {
	if err := prefs.Validate(); err != nil {
		return ranking.Weights{}, &ConfigError{Message: "invalid preferences", Cause: err}
	}

	weights := opts.Weights
	if weights.IsZero() {
		weights = ranking.DefaultWeights()
	}
	if err := weights.Validate(); err != nil {
		return ranking.Weights{}, &ConfigError{Message: "invalid scoring weights", Cause: err}
	}
	if opts.UnresolvedDateFallback < 0 {
		return ranking.Weights{}, &ConfigError{Message: "unresolved date fallback must not be negative"}
	}
	return weights, nil
}
