// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/job-recommender/internal/scraper"
	"github.com/jonathan/job-recommender/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func salaryBounds(lo, hi int) string {
	switch {
	case hi <= 0:
		return fmt.Sprintf("%d+", lo)
	case lo <= 0:
		return fmt.Sprintf("up to %d", hi)
	}
	return fmt.Sprintf("%d - %d", lo, hi)
}

func listOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}

// PrintPreferences outputs the search preferences a run will use.
func (p *Printer) PrintPreferences(prefs types.UserPreferences) {
	levels := make([]string, len(prefs.ExperienceLevels))
	for i, l := range prefs.ExperienceLevels {
		levels[i] = string(l)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Titles:     %s\n", listOr(prefs.JobTitles, "(none)")))
	sb.WriteString(fmt.Sprintf("Locations:  %s\n", listOr(prefs.Locations, "(any)")))
	sb.WriteString(fmt.Sprintf("Levels:     %s\n", listOr(levels, "(any)")))
	sb.WriteString(fmt.Sprintf("Keywords:   %s\n", listOr(prefs.Keywords, "(none)")))
	if len(prefs.CompaniesToInclude) > 0 {
		sb.WriteString(fmt.Sprintf("Only:       %s\n", strings.Join(prefs.CompaniesToInclude, ", ")))
	}
	if len(prefs.CompaniesToExclude) > 0 {
		sb.WriteString(fmt.Sprintf("Excluding:  %s\n", strings.Join(prefs.CompaniesToExclude, ", ")))
	}
	if len(prefs.ExcludeKeywords) > 0 {
		sb.WriteString(fmt.Sprintf("Skip words: %s\n", strings.Join(prefs.ExcludeKeywords, ", ")))
	}
	if prefs.MinSalary > 0 || prefs.MaxSalary > 0 {
		sb.WriteString(fmt.Sprintf("Salary:     %s\n", salaryBounds(prefs.MinSalary, prefs.MaxSalary)))
	}
	if prefs.RemoteOnly || prefs.FullTimeOnly {
		var only []string
		if prefs.RemoteOnly {
			only = append(only, "remote")
		}
		if prefs.FullTimeOnly {
			only = append(only, "full-time")
		}
		sb.WriteString(fmt.Sprintf("Job type:   %s only\n", strings.Join(only, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Max age:    %dh\n", prefs.MaxAgeHours))
	sb.WriteString(fmt.Sprintf("Sites:      %s (%d pages each)", listOr(prefs.SitesToScrape, "(none)"), prefs.PagesPerSite))

	p.printBox("SEARCH PREFERENCES", sb.String())
}

// PrintScrapeStats outputs per-site scrape counts and failures.
func (p *Printer) PrintScrapeStats(stats scraper.Stats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total postings: %d in %s\n", stats.TotalJobs, stats.Duration.Round(time.Millisecond)))

	sources := make([]string, 0, len(stats.JobsBySource))
	for s := range stats.JobsBySource {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	if len(sources) > 0 {
		sb.WriteString("\n")
	}
	for _, s := range sources {
		sb.WriteString(fmt.Sprintf("  %-12s %d\n", s, stats.JobsBySource[s]))
	}

	if len(stats.FailedScrapers) > 0 {
		sb.WriteString(fmt.Sprintf("\n⚠ Failed: %s\n", strings.Join(stats.FailedScrapers, ", ")))
	}

	p.printBox("SCRAPE RESULTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunStats outputs how many postings survived each pipeline stage.
func (p *Printer) PrintRunStats(stats types.RunStats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Raw postings:        %d\n", stats.Raw))
	sb.WriteString(fmt.Sprintf("Normalized:          %d", stats.Normalized))
	if stats.EstimatedDates > 0 {
		sb.WriteString(fmt.Sprintf(" (%d estimated dates)", stats.EstimatedDates))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("After dedup:         %d (-%d duplicates)\n", stats.AfterDedup, stats.DuplicatesRemoved))
	sb.WriteString(fmt.Sprintf("After filter:        %d\n", stats.AfterFilter))

	reasons := make([]string, 0, len(stats.Dropped))
	for r := range stats.Dropped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		sb.WriteString(fmt.Sprintf("  dropped %-20s %d\n", r+":", stats.Dropped[r]))
	}
	sb.WriteString(fmt.Sprintf("Ranked:              %d", stats.Ranked))

	p.printBox("PIPELINE STATS", sb.String())
}

// PrintRecommendations outputs the top n recommendations with their score
// breakdowns. n <= 0 uses the default list length.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRecommendations(ranked []types.ScoredPosting, n int) {
	if len(ranked) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "No recommendations matched your preferences")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}
	if n <= 0 {
		n = maxItemsToShow
	}

	var sb strings.Builder
	count := min(len(ranked), n)
	for i := 0; i < count; i++ {
		job := ranked[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, job.Title))
		company := job.Company
		if company == "" {
			company = "(unknown company)"
		}
		sb.WriteString(fmt.Sprintf("    %s · %s\n", company, job.Location))
		sb.WriteString(fmt.Sprintf("    Score: %.2f  [%s]\n", job.RecommendationScore, job.Source))

		parts := make([]string, len(types.FactorNames))
		for j, f := range types.FactorNames {
			parts[j] = fmt.Sprintf("%s %.2f", f[:3], job.ScoreBreakdown.Get(f))
		}
		// Three factors per line keeps the breakdown inside the box.
		for start := 0; start < len(parts); start += 3 {
			end := min(start+3, len(parts))
			sb.WriteString(fmt.Sprintf("    %s\n", strings.Join(parts[start:end], "  ")))
		}
		if job.Notes != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", job.Notes))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(ranked) > count {
		sb.WriteString(fmt.Sprintf("\n... and %d more recommendations", len(ranked)-count))
	}

	p.printBox("TOP RECOMMENDATIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScraperList outputs registered sites with a sample search URL each.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintScraperList(names []string, sampleURL func(name string) string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d scrapers available\n", len(names)))
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("\n• %s\n", name))
		if sampleURL != nil {
			if u := sampleURL(name); u != "" {
				sb.WriteString(fmt.Sprintf("  %s\n", u))
			}
		}
	}
	p.printBox("SCRAPERS", strings.TrimSuffix(sb.String(), "\n"))
}
