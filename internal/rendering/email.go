package rendering

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/jonathan/job-recommender/internal/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Email digest limits.
const (
	DefaultMaxHTMLJobs = 25
	DefaultMaxTextJobs = 10
)

// DefaultSubject is used when no subject template is configured.
const DefaultSubject = "🎯 {job_count} New Job Recommendations - {date}"

const notAvailable = "N/A"

// EmailOptions controls digest rendering.
type EmailOptions struct {
	// Subject may contain {job_count} and {date}.
	Subject     string
	MaxHTMLJobs int
	MaxTextJobs int
}

// Email is a rendered recommendation digest.
type Email struct {
	Subject string
	HTML    string
	Text    string
}

type digestJob struct {
	Rank       int
	Title      string
	Company    string
	Location   string
	URL        string
	Score      string
	Level      string
	LevelLabel string
	Posted     string
	Source     string
	Notes      string
}

type digestData struct {
	GeneratedAt string
	Date        string
	Total       int
	JobTitles   string
	Locations   string
	Levels      string
	Sites       string
	Jobs        []digestJob
}

// RenderEmail renders the HTML digest and its plain-text fallback.
// ranked is expected in rank order; only the leading postings are listed.
func RenderEmail(ranked []types.ScoredPosting, prefs types.UserPreferences, now time.Time, opts EmailOptions) (*Email, error) {
	if opts.MaxHTMLJobs <= 0 {
		opts.MaxHTMLJobs = DefaultMaxHTMLJobs
	}
	if opts.MaxTextJobs <= 0 {
		opts.MaxTextJobs = DefaultMaxTextJobs
	}

	data := digestData{
		GeneratedAt: now.Format("January 2, 2006 at 03:04 PM"),
		Date:        now.Format("January 2, 2006"),
		Total:       len(ranked),
		JobTitles:   joinOr(prefs.JobTitles, "Any"),
		Locations:   joinOr(prefs.Locations, "Any"),
		Levels:      joinOr(levelStrings(prefs.ExperienceLevels), "All"),
		Sites:       joinOr(prefs.SitesToScrape, notAvailable),
		Jobs:        digestJobs(ranked, opts.MaxHTMLJobs, now),
	}

	htmlTmpl, err := htmltemplate.ParseFS(templateFS, "templates/email.html.tmpl")
	if err != nil {
		return nil, &TemplateError{Message: "failed to parse HTML template", Cause: err}
	}
	var html bytes.Buffer
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return nil, &TemplateError{Message: "failed to execute HTML template", Cause: err}
	}

	textTmpl, err := template.ParseFS(templateFS, "templates/email.txt.tmpl")
	if err != nil {
		return nil, &TemplateError{Message: "failed to parse text template", Cause: err}
	}
	textData := data
	textData.Jobs = data.Jobs[:min(len(data.Jobs), opts.MaxTextJobs)]
	var text bytes.Buffer
	if err := textTmpl.Execute(&text, textData); err != nil {
		return nil, &TemplateError{Message: "failed to execute text template", Cause: err}
	}

	return &Email{
		Subject: Subject(opts.Subject, len(ranked), now),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

// Subject expands {job_count} and {date} in tmpl.
func Subject(tmpl string, jobCount int, now time.Time) string {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultSubject
	}
	return strings.NewReplacer(
		"{job_count}", strconv.Itoa(jobCount),
		"{date}", now.Format("January 2, 2006"),
	).Replace(tmpl)
}

func digestJobs(ranked []types.ScoredPosting, limit int, now time.Time) []digestJob {
	n := min(len(ranked), limit)
	jobs := make([]digestJob, n)
	for i, p := range ranked[:n] {
		level := p.ExperienceLevel
		if !level.Valid() {
			level = types.ExperienceUnspecified
		}
		jobs[i] = digestJob{
			Rank:       i + 1,
			Title:      orNA(p.Title),
			Company:    orNA(p.Company),
			Location:   orNA(p.Location),
			URL:        orDefault(p.URL, "#"),
			Score:      strconv.FormatFloat(p.RecommendationScore, 'f', 1, 64),
			Level:      string(level),
			LevelLabel: levelLabel(level),
			Posted:     PostedLabel(p, now),
			Source:     orNA(p.Source),
			Notes:      p.Notes,
		}
	}
	return jobs
}

// PostedLabel renders a posting date for people, flagging estimated dates.
func PostedLabel(p types.ScoredPosting, now time.Time) string {
	if p.PostedAt.IsZero() {
		return notAvailable
	}
	if p.PostedAtEstimated {
		return "unknown"
	}
	age := now.Sub(p.PostedAt)
	switch {
	case age < time.Hour:
		return "just now"
	case age < 24*time.Hour:
		return strconv.Itoa(int(age.Hours())) + "h ago"
	case age < 14*24*time.Hour:
		return strconv.Itoa(int(age.Hours()/24)) + "d ago"
	}
	return p.PostedAt.Format("Jan 2, 2006")
}

func levelLabel(level types.ExperienceLevel) string {
	if level == types.ExperienceUnspecified || !level.Valid() {
		return "Level Unspecified"
	}
	s := string(level)
	return strings.ToUpper(s[:1]) + s[1:] + " Level"
}

func levelStrings(levels []types.ExperienceLevel) []string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = string(l)
	}
	return out
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}

func orNA(s string) string {
	return orDefault(s, notAvailable)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
