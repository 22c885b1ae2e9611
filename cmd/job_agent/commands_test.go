package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-recommender/internal/config"
	"github.com/jonathan/job-recommender/internal/export"
	"github.com/jonathan/job-recommender/internal/pipeline"
	"github.com/jonathan/job-recommender/internal/scraper"
)

func TestRunFlags_Apply(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Email.Enabled = true

	f := runFlags{
		search:    []string{"Go Developer"},
		locations: []string{"Berlin", "Remote"},
		pages:     5,
		format:    "json",
		noEmail:   true,
		dbURL:     "postgres://localhost/jobs",
	}
	changed := map[string]bool{"search": true, "location": true, "pages": true, "format": true, "db-url": true}
	f.apply(cfg, func(name string) bool { return changed[name] })

	assert.Equal(t, []string{"Go Developer"}, cfg.Preferences.JobTitles)
	assert.Equal(t, []string{"Berlin", "Remote"}, cfg.Preferences.Locations)
	assert.Equal(t, 5, cfg.Preferences.PagesPerSite)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.False(t, cfg.Email.Enabled)
	assert.Equal(t, "postgres://localhost/jobs", cfg.DatabaseURL)
	assert.Equal(t, []string{"linkedin", "indeed"}, cfg.Preferences.SitesToScrape, "unchanged flags keep config values")
}

func TestRunFlags_TestMode(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Preferences.SitesToScrape = []string{"linkedin", "indeed", "google", "meta"}

	runFlags{test: true, pages: 9}.apply(cfg, func(string) bool { return false })

	assert.Equal(t, 1, cfg.Preferences.PagesPerSite)
	assert.Equal(t, []string{"linkedin", "indeed"}, cfg.Preferences.SitesToScrape)
}

func TestRedacted(t *testing.T) {
	cfg := config.Config{DatabaseURL: "postgres://u:p@h/db"}
	cfg.Email.Password = "hunter2"
	cfg.Telegram.BotToken = "123:abc"

	r := redacted(cfg)
	assert.Equal(t, "********", r.Email.Password)
	assert.Equal(t, "********", r.Telegram.BotToken)
	assert.Equal(t, "********", r.DatabaseURL)
	assert.Empty(t, r.RedisURL)
	assert.Equal(t, "hunter2", cfg.Email.Password, "original is untouched")
}

func TestBuildNotifiers(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)

	notifiers, err := buildNotifiers(cfg)
	require.NoError(t, err)
	assert.Empty(t, notifiers)

	cfg.Email.Enabled = true
	cfg.Email.Sender = "me@example.com"
	cfg.Email.Recipients = []string{"you@example.com"}
	notifiers, err = buildNotifiers(cfg)
	require.NoError(t, err)
	require.Len(t, notifiers, 1)
	assert.Equal(t, "email", notifiers[0].Name())
}

func TestRunner_UnknownSitesOnly(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)

	r := &runner{cfg: cfg, registry: scraper.DefaultRegistry()}
	prefs := cfg.Preferences
	prefs.SitesToScrape = []string{"monster"}

	_, err = r.Run(context.Background(), prefs, nil)
	var cfgErr *pipeline.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "no scrapers selected")
}

func TestRecommendCommand_JSONFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir, "")
	in := writeTestFile(t, dir, "raw.json", testRawPostings)
	out := filepath.Join(dir, "ranked.json")

	stdout, _, err := execute(t, "recommend", "--config", cfgPath, "--in", in, "--out", out, "--run-start", "2024-06-15T12:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, stdout, "PIPELINE STATS")
	assert.Contains(t, stdout, "Saved 3 recommendations")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc export.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 3, doc.Count)
	assert.Equal(t, "Acme", doc.Postings[0].Company)
	assert.Equal(t, 1, doc.Postings[0].Rank)
}

func TestRecommendCommand_Stdout(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir, "")
	in := writeTestFile(t, dir, "raw.json", testRawPostings)

	stdout, stderr, err := execute(t, "recommend", "-c", cfgPath, "-i", in, "--run-start", "2024-06-15T12:00:00Z", "--top", "2")
	require.NoError(t, err)
	assert.Contains(t, stderr, "PIPELINE STATS")

	var doc export.Document
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc), stdout)
	assert.Equal(t, 2, doc.Count)
}

func TestRecommendCommand_CSV(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir, "")
	in := writeTestFile(t, dir, "raw.json", testRawPostings)
	out := filepath.Join(dir, "ranked.csv")

	_, _, err := execute(t, "recommend", "--config", cfgPath, "--in", in, "--out", out, "--format", "csv", "--run-start", "2024-06-15T12:00:00Z")
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, export.Header(), rows[0])
}

func TestRecommendCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir, "")
	bad := writeTestFile(t, dir, "bad.json", `[{"title": "No URL", "source": "indeed"}]`)
	good := writeTestFile(t, dir, "raw.json", testRawPostings)

	_, _, err := execute(t, "recommend", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "in" not set`)

	_, _, err = execute(t, "recommend", "--config", cfgPath, "--in", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid postings file")

	_, _, err = execute(t, "recommend", "--config", cfgPath, "--in", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read postings file")

	_, _, err = execute(t, "recommend", "--config", cfgPath, "--in", good, "--run-start", "yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --run-start")

	badCfg := writeTestFile(t, dir, "bad.yaml", "scoring:\n  weights:\n    title: 0.9\n    location: 0.9\n")
	_, _, err = execute(t, "recommend", "--config", badCfg, "--in", good)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights")
}

func TestScrapersCommand(t *testing.T) {
	stdout, _, err := execute(t, "scrapers", "--search", "go developer")
	require.NoError(t, err)

	assert.Contains(t, stdout, "6 scrapers available")
	for _, name := range scraper.DefaultRegistry().Names() {
		assert.Contains(t, stdout, "• "+name)
	}
	assert.Contains(t, stdout, "linkedin.com")
}

func TestValidateConfigCommand(t *testing.T) {
	dir := t.TempDir()

	stdout, _, err := execute(t, "validate-config", "--config", writeTestConfig(t, dir, ""))
	require.NoError(t, err)
	assert.Contains(t, stdout, "SEARCH PREFERENCES")
	assert.Contains(t, stdout, "Configuration is valid")

	unknown := writeTestFile(t, dir, "unknown.yaml", "preferences:\n  sites_to_scrape: [linkedin, monster]\n")
	_, _, err = execute(t, "validate-config", "--config", unknown)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown site "monster"`)

	email := writeTestFile(t, dir, "email.yaml", "email:\n  enabled: true\n")
	_, _, err = execute(t, "validate-config", "--config", email)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email requires")
}

func TestValidateConfigCommand_Init(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	stdout, _, err := execute(t, "validate-config", "--config", path, "--init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote default config to "+path)
	assert.FileExists(t, path)

	stdout, _, err = execute(t, "validate-config", "--config", path, "--init")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "Wrote default config")
}

func TestRunCommand_ShowConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir, "email:\n  password: hunter2\n")

	stdout, _, err := execute(t, "run", "--config", cfgPath, "--show-config", "--search", "Go Developer", "--test")
	require.NoError(t, err)

	assert.Contains(t, stdout, "TEST MODE")
	assert.Contains(t, stdout, "Full Configuration")
	assert.Contains(t, stdout, "- Go Developer")
	assert.Contains(t, stdout, "pages_per_site: 1")
	assert.NotContains(t, stdout, "hunter2")
}

func TestRunCommand_InvalidOverride(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, "run", "--config", writeTestConfig(t, dir, ""), "--format", "pdf", "--show-config")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Format") || strings.Contains(err.Error(), "format"))
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeTestFile(t, dir, "raw.json", testRawPostings)
	bad := writeTestFile(t, dir, "bad.json", `[{"title": "No URL", "source": "indeed"}]`)

	stdout, _, err := execute(t, "validate", "--json", good)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Validation passed")

	stdout, _, err = execute(t, "validate", "--schema", "../../schemas/raw_postings.schema.json", "--json", good)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Validation passed")

	_, stderr, err := execute(t, "validate", "--json", bad)
	require.Error(t, err)
	assert.Contains(t, stderr, "Validation failed")
	assert.Contains(t, err.Error(), "1 schema violation(s)")

	_, _, err = execute(t, "validate", "--kind", "ranked", "--json", good)
	require.Error(t, err)

	_, _, err = execute(t, "validate", "--kind", "scored", "--json", good)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown --kind "scored"`)
}
