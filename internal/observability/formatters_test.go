package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/job-recommender/internal/scraper"
	"github.com/jonathan/job-recommender/internal/types"
)

func TestPrintPreferences(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	prefs := types.DefaultPreferences()
	prefs.CompaniesToExclude = []string{"Initech"}
	p.PrintPreferences(prefs)
	output := buf.String()

	assert.Contains(t, output, "SEARCH PREFERENCES")
	assert.Contains(t, output, "Software Engineer, Python Developer")
	assert.Contains(t, output, "entry, mid, senior")
	assert.Contains(t, output, "Excluding:  Initech")
	assert.NotContains(t, output, "Only:")
	assert.Contains(t, output, "Max age:    72h")
	assert.Contains(t, output, "linkedin, indeed (2 pages each)")
}

func TestPrintPreferences_OptionalFilters(t *testing.T) {
	var buf bytes.Buffer
	prefs := types.DefaultPreferences()
	prefs.ExcludeKeywords = []string{"sales", "marketing"}
	prefs.MinSalary = 80000
	prefs.RemoteOnly = true
	prefs.FullTimeOnly = true

	NewPrinter(&buf).PrintPreferences(prefs)
	output := buf.String()

	assert.Contains(t, output, "Skip words: sales, marketing")
	assert.Contains(t, output, "Salary:     80000+")
	assert.Contains(t, output, "Job type:   remote, full-time only")
}

func TestPrintScrapeStats(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintScrapeStats(scraper.Stats{
		TotalJobs:      7,
		JobsBySource:   map[string]int{"linkedin": 5, "indeed": 2, "google": 0},
		FailedScrapers: []string{"google"},
		Duration:       1500 * time.Millisecond,
	})
	output := buf.String()

	assert.Contains(t, output, "SCRAPE RESULTS")
	assert.Contains(t, output, "Total postings: 7 in 1.5s")
	assert.Contains(t, output, "⚠ Failed: google")
	// sources are sorted
	assert.Less(t, strings.Index(output, "google"), strings.Index(output, "indeed"))
	assert.Less(t, strings.Index(output, "indeed"), strings.Index(output, "linkedin"))
}

func TestPrintRunStats(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRunStats(types.RunStats{
		Raw: 10, Normalized: 10, EstimatedDates: 2,
		AfterDedup: 8, DuplicatesRemoved: 2,
		AfterFilter: 5,
		Dropped:     map[string]int{types.ReasonTooOld: 2, types.ReasonExcludedCompany: 1},
		Ranked:      5,
	})
	output := buf.String()

	assert.Contains(t, output, "PIPELINE STATS")
	assert.Contains(t, output, "(2 estimated dates)")
	assert.Contains(t, output, "After dedup:         8 (-2 duplicates)")
	assert.Contains(t, output, "too_old:")
	assert.Contains(t, output, "Ranked:              5")
}

func TestPrintRecommendations(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	ranked := make([]types.ScoredPosting, 7)
	for i := range ranked {
		ranked[i] = types.ScoredPosting{
			NormalizedPosting:   types.NormalizedPosting{Title: "Go Developer", Company: "Acme", Location: "Remote", Source: "linkedin"},
			RecommendationScore: 81.67,
			ScoreBreakdown:      types.ScoreBreakdown{Title: 1, Freshness: 0.5},
			Notes:               "Preferred location",
		}
	}
	ranked[1].Company = ""

	p.PrintRecommendations(ranked, 3)
	output := buf.String()

	assert.Contains(t, output, "TOP RECOMMENDATIONS")
	assert.Contains(t, output, "#1  Go Developer")
	assert.Contains(t, output, "#3  Go Developer")
	assert.NotContains(t, output, "#4")
	assert.Contains(t, output, "Score: 81.67  [linkedin]")
	assert.Contains(t, output, "tit 1.00")
	assert.Contains(t, output, "fre 0.50")
	assert.Contains(t, output, "(unknown company)")
	assert.Contains(t, output, "... and 4 more recommendations")
}

func TestPrintRecommendations_BreakdownFitsBox(t *testing.T) {
	var buf bytes.Buffer
	ranked := []types.ScoredPosting{{
		NormalizedPosting:   types.NormalizedPosting{Title: "Go Developer", Company: "Acme", Location: "Remote", Source: "indeed"},
		RecommendationScore: 100,
		ScoreBreakdown: types.ScoreBreakdown{
			Title: 1, Location: 1, Company: 1, Experience: 1, Keyword: 1, Freshness: 1,
		},
	}}

	NewPrinter(&buf).PrintRecommendations(ranked, 1)
	output := buf.String()

	for _, label := range []string{"tit", "loc", "com", "exp", "key", "fre"} {
		assert.Contains(t, output, label+" 1.00")
	}
	assert.NotContains(t, output, "...")
	for _, line := range strings.Split(strings.TrimSuffix(output, "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), "line %q", line)
	}
}

func TestPrintRecommendations_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRecommendations(nil, 5)
	assert.Contains(t, buf.String(), "No recommendations matched")
}

func TestPrintScraperList(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintScraperList([]string{"indeed", "linkedin"}, func(name string) string {
		return "https://" + name + ".example/search"
	})
	output := buf.String()

	assert.Contains(t, output, "2 scrapers available")
	assert.Contains(t, output, "• indeed")
	assert.Contains(t, output, "https://linkedin.example/search")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééé...", truncate("éééééééé", 6))
}
