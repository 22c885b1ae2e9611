package ranking

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/job-recommender/internal/types"
)

// Rank returns a new slice sorted by recommendation score, highest first.
// Ties go to the most recently posted, then to input order. Nothing is dropped.
func Rank(scored []types.ScoredPosting) []types.ScoredPosting {
	ranked := make([]types.ScoredPosting, len(scored))
	copy(ranked, scored)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].RecommendationScore != ranked[j].RecommendationScore {
			return ranked[i].RecommendationScore > ranked[j].RecommendationScore
		}
		return ranked[i].PostedAt.After(ranked[j].PostedAt)
	})

	return ranked
}

// TopN returns at most n postings from an already ranked list.
// n <= 0 means no limit.
func TopN(ranked []types.ScoredPosting, n int) []types.ScoredPosting {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}

// generateNotes creates a brief explanation of the score.
func generateNotes(p types.NormalizedPosting, b types.ScoreBreakdown, matchedKeywords []string, keywordCount int, runStart time.Time) string {
	var parts []string

	// Title match description
	switch {
	case b.Title >= 1.0:
		parts = append(parts, "Title matches a preferred role")
	case b.Title >= 0.5:
		parts = append(parts, "Partial title match")
	case b.Title > 0:
		parts = append(parts, "Weak title match")
	default:
		parts = append(parts, "No title match")
	}

	if b.Location >= 1.0 {
		parts = append(parts, "Preferred location")
	}

	if b.Company >= 1.0 {
		parts = append(parts, "Preferred company")
	}

	switch {
	case b.Experience >= 1.0:
		parts = append(parts, fmt.Sprintf("Experience level match (%s)", p.ExperienceLevel))
	case p.ExperienceLevel == types.ExperienceUnspecified:
		parts = append(parts, "Experience level not stated")
	case b.Experience == 0:
		parts = append(parts, fmt.Sprintf("Experience level %s not preferred", p.ExperienceLevel))
	}

	if keywordCount > 0 {
		if len(matchedKeywords) > 0 {
			parts = append(parts, fmt.Sprintf("Keywords %d/%d (%s)", len(matchedKeywords), keywordCount, strings.Join(matchedKeywords, ", ")))
		} else {
			parts = append(parts, "No keyword matches")
		}
	}

	if p.PostedAtEstimated {
		parts = append(parts, "Posting date unknown")
	} else {
		parts = append(parts, "Posted "+describeAge(runStart.Sub(p.PostedAt)))
	}

	return strings.Join(parts, ". ")
}

func describeAge(age time.Duration) string {
	switch {
	case age < time.Hour:
		return "within the hour"
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}
