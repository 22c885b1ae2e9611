package rendering

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/job-recommender/internal/types"
)

// TelegramSummary renders the MarkdownV2 header message of a digest.
func TelegramSummary(ranked []types.ScoredPosting, prefs types.UserPreferences, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 *%s*\n", EscapeMarkdownV2(fmt.Sprintf("%d New Job Recommendations", len(ranked))))
	fmt.Fprintf(&b, "📅 %s\n", EscapeMarkdownV2(now.Format("January 2, 2006")))
	fmt.Fprintf(&b, "🔍 %s\n", EscapeMarkdownV2(joinOr(prefs.JobTitles, "Any")))
	fmt.Fprintf(&b, "📍 %s", EscapeMarkdownV2(joinOr(prefs.Locations, "Any")))
	if len(ranked) == 0 {
		b.WriteString("\n\n" + EscapeMarkdownV2("No jobs matched your criteria this time."))
	}
	return b.String()
}

// TelegramJob renders one posting as a MarkdownV2 message. rank is 1-based.
func TelegramJob(rank int, p types.ScoredPosting, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", EscapeMarkdownV2(fmt.Sprintf("%d. %s", rank, orNA(p.Title))))
	fmt.Fprintf(&b, "🏢 %s\n", EscapeMarkdownV2(orNA(p.Company)))
	fmt.Fprintf(&b, "📍 %s\n", EscapeMarkdownV2(orNA(p.Location)))
	if p.Salary != "" {
		fmt.Fprintf(&b, "💰 %s\n", EscapeMarkdownV2(p.Salary))
	}
	fmt.Fprintf(&b, "🎓 %s\n", EscapeMarkdownV2(levelLabel(p.ExperienceLevel)))
	fmt.Fprintf(&b, "📅 %s\n", EscapeMarkdownV2(PostedLabel(p, now)))
	fmt.Fprintf(&b, "🤖 Match: %s\n", EscapeMarkdownV2(fmt.Sprintf("%.1f%%", p.RecommendationScore)))
	fmt.Fprintf(&b, "🔖 Source: %s", EscapeMarkdownV2(orNA(p.Source)))
	if p.URL != "" {
		fmt.Fprintf(&b, "\n🔗 [View Job](%s)", EscapeMarkdownV2URL(p.URL))
	}
	return b.String()
}
