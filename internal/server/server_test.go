package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-recommender/internal/db"
	"github.com/jonathan/job-recommender/internal/pipeline"
	"github.com/jonathan/job-recommender/internal/scraper"
	"github.com/jonathan/job-recommender/internal/server/ratelimit"
	"github.com/jonathan/job-recommender/internal/types"
)

var testRunStart = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

const recommendBody = `{
  "preferences": {"job_titles": ["Python Developer"], "locations": ["Remote"], "max_age_hours": 72},
  "run_start": "2024-06-15T12:00:00Z",
  "postings": [
    {"title": "Python Developer", "company": "Acme", "location": "Remote", "posted_date": "today", "url": "https://a.example/1", "source": "linkedin"},
    {"title": "Senior Python Developer", "company": "Globex", "location": "Austin", "posted_date": "2 days ago", "url": "https://a.example/2", "source": "indeed"},
    {"title": "Java Developer", "company": "Initech", "location": "Remote", "posted_date": "1 day ago", "url": "https://a.example/3", "source": "indeed"}
  ]
}`

type fakeRuns struct {
	runs map[uuid.UUID]*db.Run
	recs map[uuid.UUID][]db.Recommendation
	err  error
}

func (f *fakeRuns) GetRun(_ context.Context, id uuid.UUID) (*db.Run, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.runs[id], nil
}

func (f *fakeRuns) ListRecommendations(_ context.Context, id uuid.UUID) ([]db.Recommendation, error) {
	return f.recs[id], nil
}

func newTestServer(cfg Config) http.Handler {
	return New(cfg).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthEndpoint(t *testing.T) {
	w := do(t, newTestServer(Config{}), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	w := do(t, newTestServer(Config{}), http.MethodOptions, "/recommendations", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestScrapersEndpoint(t *testing.T) {
	w := do(t, newTestServer(Config{}), http.MethodGet, "/scrapers", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[map[string][]ScraperInfo](t, w)
	infos := resp["scrapers"]
	require.Len(t, infos, len(scraper.DefaultRegistry().Names()))
	for _, info := range infos {
		if info.Name == "linkedin" {
			assert.Contains(t, info.SampleURL, "linkedin.com")
		}
	}
}

func TestRecommendEndpoint(t *testing.T) {
	w := do(t, newTestServer(Config{}), http.MethodPost, "/recommendations", recommendBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[RecommendResponse](t, w)
	assert.NotEqual(t, uuid.Nil, resp.RunID)
	assert.True(t, resp.RunStart.Equal(testRunStart))
	assert.Equal(t, 3, resp.Stats.Raw)
	assert.Equal(t, 3, resp.Count)
	require.Len(t, resp.Postings, 3)

	assert.Equal(t, 1, resp.Postings[0].Rank)
	assert.Equal(t, "Acme", resp.Postings[0].Company)
	for i := 1; i < len(resp.Postings); i++ {
		assert.Equal(t, i+1, resp.Postings[i].Rank)
		assert.GreaterOrEqual(t, resp.Postings[i-1].RecommendationScore, resp.Postings[i].RecommendationScore)
	}
}

func TestRecommendEndpoint_TopN(t *testing.T) {
	body := strings.Replace(recommendBody, `"run_start"`, `"top_n": 1, "run_start"`, 1)
	w := do(t, newTestServer(Config{}), http.MethodPost, "/recommendations", body)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[RecommendResponse](t, w)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 3, resp.Stats.Ranked)
}

func TestRecommendEndpoint_DefaultPreferences(t *testing.T) {
	body := `{"postings": [{"title": "Software Engineer", "url": "https://a.example/1", "source": "indeed", "posted_date": "today"}]}`
	w := do(t, newTestServer(Config{}), http.MethodPost, "/recommendations", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[RecommendResponse](t, w).Count)
}

func TestRecommendEndpoint_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"malformed json", `{"postings": [`, "Invalid request body"},
		{"missing postings", `{"preferences": {"job_titles": ["Go"], "max_age_hours": 1}}`, "postings"},
		{"negative top_n", `{"top_n": -1, "postings": []}`, "top_n"},
		{"invalid preferences", `{"preferences": {"max_age_hours": 0}, "postings": []}`, "configuration error"},
		{"schema violation", `{"postings": [{"title": "Go Developer", "source": "indeed"}]}`, "raw postings schema"},
	}

	h := newTestServer(Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/recommendations", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}

func TestRecommendEndpoint_SchemaDetails(t *testing.T) {
	w := do(t, newTestServer(Config{}), http.MethodPost, "/recommendations",
		`{"postings": [{"title": "Go Developer", "source": "indeed", "colour": "blue"}]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Details []map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, len(resp.Details), 2)
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(Config{RateLimit: ratelimit.Config{
		Enabled: true,
		Rules:   []ratelimit.Rule{{Method: "POST", Path: "/recommendations", Limit: 1, Window: time.Hour, Burst: 1}},
	}})

	first := do(t, h, http.MethodPost, "/recommendations", recommendBody)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := do(t, h, http.MethodPost, "/recommendations", recommendBody)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "rate_limit_exceeded")

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestRunStream_Disabled(t *testing.T) {
	w := do(t, newTestServer(Config{}), http.MethodPost, "/runs/stream", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRunStream(t *testing.T) {
	runID := uuid.New()
	var got types.UserPreferences
	runner := func(_ context.Context, prefs types.UserPreferences, progress pipeline.ProgressCallback) (*pipeline.RunResult, error) {
		got = prefs
		progress(pipeline.ProgressEvent{Step: pipeline.StepScrape, Message: "Scraped 4 postings"})
		progress(pipeline.ProgressEvent{Step: pipeline.StepRecommend, Message: "Ranked 2 of 4 postings", RunID: runID.String()})
		return &pipeline.RunResult{
			Recommendation: &pipeline.Recommendation{
				RunID:  runID,
				Ranked: make([]types.ScoredPosting, 2),
				Stats:  types.RunStats{Raw: 4, Ranked: 2},
			},
			ScrapeStats: scraper.Stats{TotalJobs: 4},
			Notified:    []string{"email"},
		}, nil
	}

	h := newTestServer(Config{Runner: runner})
	w := do(t, h, http.MethodPost, "/runs/stream", `{"preferences": {"job_titles": ["Go Developer"], "max_age_hours": 24}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event: step\n"))
	assert.Contains(t, body, "Ranked 2 of 4 postings")
	assert.Contains(t, body, "event: result\n")
	assert.Contains(t, body, `"count":2`)
	assert.Contains(t, body, "event: complete\n")
	assert.Contains(t, body, runID.String())
	// step, step, result, complete
	assert.Contains(t, body, "id: 4\nevent: complete\n")
	assert.Equal(t, []string{"Go Developer"}, got.JobTitles)
}

func TestRunStream_EmptyBodyUsesDefaults(t *testing.T) {
	var got types.UserPreferences
	runner := func(_ context.Context, prefs types.UserPreferences, _ pipeline.ProgressCallback) (*pipeline.RunResult, error) {
		got = prefs
		return &pipeline.RunResult{}, nil
	}

	w := do(t, newTestServer(Config{Runner: runner}), http.MethodPost, "/runs/stream", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.DefaultPreferences().JobTitles, got.JobTitles)
	assert.Contains(t, w.Body.String(), "event: complete\n")
}

func TestRunStream_Errors(t *testing.T) {
	runner := func(context.Context, types.UserPreferences, pipeline.ProgressCallback) (*pipeline.RunResult, error) {
		return nil, errors.New("all scrapers failed")
	}
	h := newTestServer(Config{Runner: runner})

	w := do(t, h, http.MethodPost, "/runs/stream", "")
	assert.Contains(t, w.Body.String(), "event: error\n")
	assert.Contains(t, w.Body.String(), "all scrapers failed")
	assert.NotContains(t, w.Body.String(), "event: complete")

	bad := do(t, h, http.MethodPost, "/runs/stream", `{"preferences": {"max_age_hours": -1}}`)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestGetRun(t *testing.T) {
	id := uuid.New()
	runs := &fakeRuns{
		runs: map[uuid.UUID]*db.Run{id: {ID: id, Status: db.RunStatusCompleted, RankedCount: 1}},
		recs: map[uuid.UUID][]db.Recommendation{id: {{RunID: id, Rank: 1}}},
	}
	h := newTestServer(Config{Runs: runs})

	w := do(t, h, http.MethodGet, "/runs/"+id.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[RunResponse](t, w)
	assert.Equal(t, db.RunStatusCompleted, resp.Run.Status)
	assert.Len(t, resp.Recommendations, 1)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/runs/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/runs/not-a-uuid", "").Code)

	runs.err = errors.New("connection refused")
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/runs/"+id.String(), "").Code)
}

func TestGetRun_NoDatabase(t *testing.T) {
	w := do(t, newTestServer(Config{}), http.MethodGet, "/runs/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunStreamWriter(t *testing.T) {
	w := httptest.NewRecorder()
	stream, err := newRunStream(w)
	require.NoError(t, err)
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	require.NoError(t, stream.Fail(errors.New("boom")))
	require.NoError(t, stream.Complete("abc"))

	assert.Equal(t, "id: 1\nevent: error\ndata: {\"error\":\"boom\"}\n\n"+
		"id: 2\nevent: complete\ndata: {\"run_id\":\"abc\",\"status\":\"completed\"}\n\n", w.Body.String())
	assert.True(t, bytes.HasSuffix(w.Body.Bytes(), []byte("\n\n")))
}
