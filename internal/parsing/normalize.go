package parsing

import (
	"time"

	"github.com/jonathan/job-recommender/internal/types"
)

// Options tunes normalization.
type Options struct {
	// UnresolvedDateFallback moves postings with unparseable dates to
	// runStart minus this duration. Zero keeps them at runStart.
	UnresolvedDateFallback time.Duration
}

// Normalize converts a scraped posting into its canonical form. It never fails.
func Normalize(raw types.RawPosting, runStart time.Time, opts Options) types.NormalizedPosting {
	title := CleanText(raw.Title)
	description := CleanText(raw.Description)

	postedAt, resolved := ResolvePostedAt(raw.PostedDate, runStart)
	if !resolved {
		postedAt = runStart.Add(-opts.UnresolvedDateFallback)
	}

	return types.NormalizedPosting{
		Title:             title,
		Company:           CleanText(raw.Company),
		Location:          CleanText(raw.Location),
		Description:       description,
		ExperienceLevel:   InferExperienceLevel(title, description),
		PostedAt:          postedAt,
		PostedAtEstimated: !resolved,
		URL:               CleanText(raw.URL),
		Source:            CleanText(raw.Source),
		Salary:            CleanText(raw.Salary),
		JobType:           CleanText(raw.JobType),
	}
}

// NormalizeAll normalizes each posting, preserving order.
func NormalizeAll(raw []types.RawPosting, runStart time.Time, opts Options) []types.NormalizedPosting {
	out := make([]types.NormalizedPosting, 0, len(raw))
	for _, r := range raw {
		out = append(out, Normalize(r, runStart, opts))
	}
	return out
}
