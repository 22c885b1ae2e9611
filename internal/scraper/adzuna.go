package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/job-recommender/internal/types"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3
	httpTimeout    = 15 * time.Second
)

// AdzunaCredentials authenticate against the Adzuna API.
type AdzunaCredentials struct {
	AppID   string
	AppKey  string
	Country string // "us", "gb", "fr", ...
}

// AdzunaScraper fetches postings from the Adzuna public API.
// Without credentials Scrape returns (nil, nil) and logs a warning.
type AdzunaScraper struct {
	creds   AdzunaCredentials
	baseURL string
	delay   time.Duration
	client  *http.Client
	verbose bool
}

// NewAdzuna constructs the Adzuna adapter.
func NewAdzuna(deps Deps) Scraper {
	creds := deps.Adzuna
	if creds.Country == "" {
		creds.Country = "us"
	}
	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: httpTimeout}
	}
	return &AdzunaScraper{
		creds:   creds,
		baseURL: deps.baseURL("adzuna", adzunaBaseURL),
		delay:   deps.Delay,
		client:  client,
		verbose: deps.Verbose,
	}
}

// adzunaResponse mirrors the top-level Adzuna JSON response.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

// adzunaResult mirrors a single Adzuna job listing.
type adzunaResult struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Company      adzunaCompany  `json:"company"`
	Location     adzunaLocation `json:"location"`
	SalaryMin    float64        `json:"salary_min"`
	SalaryMax    float64        `json:"salary_max"`
	RedirectURL  string         `json:"redirect_url"`
	Created      string         `json:"created"`
	ContractTime string         `json:"contract_time"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

// Name implements Scraper.
func (a *AdzunaScraper) Name() string { return "adzuna" }

// SearchURL returns the API URL for a zero-based page, without credentials.
func (a *AdzunaScraper) SearchURL(searchTerm, location string, page int) string {
	return a.pageURL(searchTerm, location, page, false)
}

func (a *AdzunaScraper) pageURL(searchTerm, location string, page int, withCreds bool) string {
	params := url.Values{}
	if withCreds {
		params.Set("app_id", a.creds.AppID)
		params.Set("app_key", a.creds.AppKey)
	}
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	if searchTerm != "" {
		params.Set("what", searchTerm)
	}
	if location != "" && !strings.EqualFold(location, "remote") {
		params.Set("where", location)
	}
	params.Set("sort_by", "date")
	// Adzuna pages are 1-based
	return fmt.Sprintf("%s/%s/search/%d?%s", a.baseURL, a.creds.Country, page+1, params.Encode())
}

// Scrape iterates through pages until no more results, q.Pages or
// adzunaMaxPages is reached.
func (a *AdzunaScraper) Scrape(ctx context.Context, q Query) ([]types.RawPosting, error) {
	if a.creds.AppID == "" || a.creds.AppKey == "" {
		log.Println("[SCRAPER] ADZUNA_APP_ID / ADZUNA_APP_KEY not set, skipping adzuna")
		return nil, nil
	}

	pages := q.Pages
	if pages <= 0 {
		pages = 1
	}
	pages = min(pages, adzunaMaxPages)

	var postings []types.RawPosting
	for page := 0; page < pages; page++ {
		if page > 0 {
			if err := sleepContext(ctx, a.delay); err != nil {
				break
			}
		}
		batch, err := a.fetchPage(ctx, q.SearchTerm, q.Location, page)
		if err != nil {
			if page == 0 {
				return nil, err
			}
			log.Printf("[SCRAPER] adzuna: stopping at page %d: %v", page+1, err)
			break
		}
		postings = append(postings, batch...)
		if len(batch) < adzunaPageSize {
			break
		}
	}

	return completePostings(postings, a.Name()), nil
}

func (a *AdzunaScraper) fetchPage(ctx context.Context, searchTerm, location string, page int) ([]types.RawPosting, error) {
	reqURL := a.pageURL(searchTerm, location, page, true)
	logURL := a.SearchURL(searchTerm, location, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Site: "adzuna", URL: logURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &Error{Site: "adzuna", URL: logURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Site: "adzuna", URL: logURL, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Site: "adzuna", URL: logURL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	var apiResp adzunaResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, &Error{Site: "adzuna", URL: logURL, Message: "invalid JSON response", Cause: err}
	}

	postings := make([]types.RawPosting, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		postings = append(postings, types.RawPosting{
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			Location:    r.Location.DisplayName,
			Description: r.Description,
			PostedDate:  r.Created,
			URL:         r.RedirectURL,
			Salary:      formatSalary(r.SalaryMin, r.SalaryMax),
			JobType:     r.ContractTime,
		})
	}
	return postings, nil
}

func formatSalary(lo, hi float64) string {
	switch {
	case lo > 0 && hi > 0 && lo != hi:
		return fmt.Sprintf("%.0f - %.0f", lo, hi)
	case lo > 0:
		return fmt.Sprintf("%.0f", lo)
	case hi > 0:
		return fmt.Sprintf("%.0f", hi)
	}
	return ""
}
