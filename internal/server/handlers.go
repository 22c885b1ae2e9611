package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	schemafiles "github.com/jonathan/job-recommender/schemas"

	"github.com/jonathan/job-recommender/internal/db"
	"github.com/jonathan/job-recommender/internal/export"
	"github.com/jonathan/job-recommender/internal/pipeline"
	"github.com/jonathan/job-recommender/internal/schemas"
	"github.com/jonathan/job-recommender/internal/scraper"
	"github.com/jonathan/job-recommender/internal/types"
)

const maxBodyBytes = 10 << 20

// ScraperInfo describes one registered site
type ScraperInfo struct {
	Name      string `json:"name"`
	SampleURL string `json:"sample_url"`
}

// RecommendRequest is the body of POST /recommendations
type RecommendRequest struct {
	Preferences *types.UserPreferences `json:"preferences,omitempty"`
	Postings    json.RawMessage        `json:"postings"`
	RunStart    *time.Time             `json:"run_start,omitempty"`
	TopN        int                    `json:"top_n,omitempty"`
}

// RecommendResponse is the ranked-postings document plus run metadata
type RecommendResponse struct {
	RunID    uuid.UUID      `json:"run_id"`
	RunStart time.Time      `json:"run_start"`
	Stats    types.RunStats `json:"stats"`
	export.Document
}

// RunStreamRequest is the optional body of POST /runs/stream
type RunStreamRequest struct {
	Preferences *types.UserPreferences `json:"preferences,omitempty"`
}

// RunSummary is sent as the "result" event of a streamed run
type RunSummary struct {
	RunID       string          `json:"run_id,omitempty"`
	ScrapeStats scraper.Stats   `json:"scrape_stats"`
	Stats       *types.RunStats `json:"stats,omitempty"`
	Count       int             `json:"count"`
	OutputFile  string          `json:"output_file,omitempty"`
	Notified    []string        `json:"notified,omitempty"`
	Persisted   bool            `json:"persisted"`
}

// RunResponse is a stored run with its recommendations
type RunResponse struct {
	Run             *db.Run             `json:"run"`
	Recommendations []db.Recommendation `json:"recommendations"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScrapers lists the registered sites with a sample search URL each
func (s *Server) handleScrapers(w http.ResponseWriter, _ *http.Request) {
	names := s.registry.Names()
	infos := make([]ScraperInfo, 0, len(names))
	for _, name := range names {
		info := ScraperInfo{Name: name}
		if sc, err := s.registry.Build(name, scraper.Deps{}); err == nil {
			info.SampleURL = sc.SearchURL("software engineer", "remote", 0)
		}
		infos = append(infos, info)
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"scrapers": infos})
}

// handleRecommend ranks postings supplied in the request body
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	raw, err := decodePostings(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	prefs := s.preferences
	if req.Preferences != nil {
		prefs = *req.Preferences
	}
	opts := s.recommend
	if req.RunStart != nil {
		opts.RunStart = *req.RunStart
	}

	rec, err := pipeline.Recommend(raw, prefs, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ranked := rec.Ranked
	if req.TopN > 0 && len(ranked) > req.TopN {
		ranked = ranked[:req.TopN]
	}

	s.jsonResponse(w, http.StatusOK, RecommendResponse{
		RunID:    rec.RunID,
		RunStart: rec.RunStart,
		Stats:    rec.Stats,
		Document: export.NewDocument(ranked, rec.RunStart),
	})
}

func decodePostings(req RecommendRequest) ([]types.RawPosting, error) {
	if len(req.Postings) == 0 || string(req.Postings) == "null" {
		return nil, &ErrValidation{Field: "postings", Message: "is required"}
	}
	if req.TopN < 0 {
		return nil, &ErrValidation{Field: "top_n", Message: "must not be negative"}
	}
	if err := schemas.Validate(schemafiles.RawPostings, req.Postings); err != nil {
		return nil, err
	}

	var raw []types.RawPosting
	if err := json.Unmarshal(req.Postings, &raw); err != nil {
		return nil, &ErrValidation{Field: "postings", Message: err.Error()}
	}
	return raw, nil
}

// handleRunStream runs the full pipeline and streams its progress as SSE
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "runs are not enabled on this server")
		return
	}

	var req RunStreamRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	prefs := s.preferences
	if req.Preferences != nil {
		prefs = *req.Preferences
	}
	if err := pipeline.CheckConfig(prefs, s.recommend); err != nil {
		s.writeError(w, err)
		return
	}

	stream, err := newRunStream(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("[SERVER] Starting streamed run...")
	result, err := s.runner(r.Context(), prefs, func(event pipeline.ProgressEvent) {
		if err := stream.Step(event); err != nil {
			log.Printf("[SERVER] Error writing SSE event: %v", err)
		}
	})
	if err != nil {
		log.Printf("[SERVER] Streamed run failed: %v", err)
		_ = stream.Fail(err)
		return
	}

	summary := summarize(result)
	if err := stream.Result(summary); err != nil {
		log.Printf("[SERVER] Error writing SSE result: %v", err)
		return
	}
	_ = stream.Complete(summary.RunID)
	log.Printf("[SERVER] Streamed run completed")
}

func summarize(result *pipeline.RunResult) RunSummary {
	summary := RunSummary{
		ScrapeStats: result.ScrapeStats,
		OutputFile:  result.OutputFile,
		Notified:    result.Notified,
		Persisted:   result.Persisted,
	}
	if rec := result.Recommendation; rec != nil {
		summary.RunID = rec.RunID.String()
		summary.Stats = &rec.Stats
		summary.Count = len(rec.Ranked)
	}
	return summary
}

// handleGetRun returns a persisted run and its recommendations
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return
	}

	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if run == nil {
		s.writeError(w, &ErrRunNotFound{ID: id.String()})
		return
	}

	recs, err := s.runs.ListRecommendations(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if recs == nil {
		recs = []db.Recommendation{}
	}
	s.jsonResponse(w, http.StatusOK, RunResponse{Run: run, Recommendations: recs})
}
