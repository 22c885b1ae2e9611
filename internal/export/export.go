// Package export writes ranked recommendations to CSV, JSON and Excel files.
package export

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/job-recommender/internal/types"
)

// Supported formats.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatExcel = "excel"
)

// TimestampLayout replaces {timestamp} in output paths.
const TimestampLayout = "20060102_150405"

// DefaultOutputTemplate is used when no output path is configured.
const DefaultOutputTemplate = "job_recommendations_{timestamp}"

// Exporter writes ranked postings in one output format.
type Exporter interface {
	Format() string
	Extension() string
	Export(w io.Writer, postings []types.ScoredPosting, generatedAt time.Time) error
}

// Formats lists the accepted format names.
func Formats() []string {
	return []string{FormatCSV, FormatJSON, FormatExcel}
}

// ForFormat returns the exporter for a format name ("xlsx" is accepted for excel).
func ForFormat(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return CSVExporter{}, nil
	case FormatJSON:
		return JSONExporter{}, nil
	case FormatExcel, "xlsx":
		return ExcelExporter{}, nil
	}
	return nil, &Error{Message: fmt.Sprintf("unsupported format %q (supported: %s)", format, strings.Join(Formats(), ", "))}
}

// OutputPath expands {timestamp} in template and makes sure the path ends
// with the extension of format.
func OutputPath(template, format string, now time.Time) (string, error) {
	exp, err := ForFormat(format)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(template) == "" {
		template = DefaultOutputTemplate
	}
	path := strings.ReplaceAll(template, "{timestamp}", now.Format(TimestampLayout))

	ext := filepath.Ext(path)
	if strings.EqualFold(ext, exp.Extension()) {
		return path, nil
	}
	if isKnownExtension(ext) {
		path = strings.TrimSuffix(path, ext)
	}
	return path + exp.Extension(), nil
}

func isKnownExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".csv", ".json", ".xlsx":
		return true
	}
	return false
}

// WriteFile exports postings to path, creating parent directories as needed.
func WriteFile(path, format string, postings []types.ScoredPosting, generatedAt time.Time) error {
	exp, err := ForFormat(format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &Error{Path: path, Message: "failed to create output directory", Cause: err}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return &Error{Path: path, Message: "failed to create file", Cause: err}
	}

	if err := exp.Export(f, postings, generatedAt); err != nil {
		_ = f.Close()
		return &Error{Path: path, Message: "failed to write " + exp.Format(), Cause: err}
	}
	if err := f.Close(); err != nil {
		return &Error{Path: path, Message: "failed to close file", Cause: err}
	}

	log.Printf("[EXPORT] Wrote %d recommendations to %s", len(postings), path)
	return nil
}

// Header returns the tabular column names shared by CSV and Excel.
func Header() []string {
	cols := []string{
		"rank", "title", "company", "location", "experience_level",
		"posted_at", "posted_at_estimated", "source", "url", "salary",
		"job_type", "recommendation_score",
	}
	for _, f := range types.FactorNames {
		cols = append(cols, "score_"+f)
	}
	return append(cols, "notes")
}

// row renders one posting as strings in Header order. rank is 1-based.
func row(rank int, p types.ScoredPosting) []string {
	out := []string{
		strconv.Itoa(rank),
		p.Title,
		p.Company,
		p.Location,
		string(p.ExperienceLevel),
		formatTime(p.PostedAt),
		strconv.FormatBool(p.PostedAtEstimated),
		p.Source,
		p.URL,
		p.Salary,
		p.JobType,
		strconv.FormatFloat(p.RecommendationScore, 'f', 2, 64),
	}
	for _, f := range types.FactorNames {
		out = append(out, strconv.FormatFloat(p.ScoreBreakdown.Get(f), 'f', 4, 64))
	}
	return append(out, p.Notes)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
