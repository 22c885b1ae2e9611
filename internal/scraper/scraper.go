package scraper

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/job-recommender/internal/types"
)

// Query describes one search against a site.
type Query struct {
	SearchTerm string
	Location   string
	Pages      int
}

// Scraper collects raw postings from one site.
type Scraper interface {
	// Name is the source identifier stamped on every posting.
	Name() string
	// SearchURL returns the results URL for a zero-based page.
	SearchURL(searchTerm, location string, page int) string
	Scrape(ctx context.Context, q Query) ([]types.RawPosting, error)
}

// cardParser extracts postings from one parsed results page.
type cardParser func(doc *goquery.Document) []types.RawPosting

// htmlScraper is the paging loop shared by every HTML job board.
type htmlScraper struct {
	name     string
	fetcher  Fetcher
	delay    time.Duration
	verbose  bool
	buildURL func(searchTerm, location string, page int) string
	parse    cardParser
}

func (s *htmlScraper) Name() string { return s.name }

func (s *htmlScraper) SearchURL(searchTerm, location string, page int) string {
	return s.buildURL(searchTerm, location, page)
}

// Scrape walks result pages until q.Pages is reached or a page has no cards.
// A failure on the first page is an error; later failures end the walk.
func (s *htmlScraper) Scrape(ctx context.Context, q Query) ([]types.RawPosting, error) {
	pages := q.Pages
	if pages <= 0 {
		pages = 1
	}

	var postings []types.RawPosting
	for page := 0; page < pages; page++ {
		if page > 0 {
			if err := sleepContext(ctx, s.delay); err != nil {
				return postings, nil
			}
		}

		pageURL := s.buildURL(q.SearchTerm, q.Location, page)
		if s.verbose {
			log.Printf("[SCRAPER] %s page %d: %s", s.name, page+1, pageURL)
		}

		html, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if page == 0 {
				return nil, &Error{Site: s.name, URL: pageURL, Message: "failed to fetch results page", Cause: err}
			}
			log.Printf("[SCRAPER] %s: stopping at page %d: %v", s.name, page+1, err)
			break
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			if page == 0 {
				return nil, &Error{Site: s.name, URL: pageURL, Message: "failed to parse HTML", Cause: err}
			}
			break
		}

		found := completePostings(s.parse(doc), s.name)
		if s.verbose {
			log.Printf("[SCRAPER] %s page %d: %d postings", s.name, page+1, len(found))
		}
		if len(found) == 0 {
			break
		}
		postings = append(postings, found...)
	}

	return postings, nil
}

// completePostings stamps the source and drops cards without a title or URL.
func completePostings(postings []types.RawPosting, source string) []types.RawPosting {
	out := postings[:0]
	for _, p := range postings {
		if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.URL) == "" {
			continue
		}
		p.Source = source
		out = append(out, p)
	}
	return out
}

// firstMatch returns the first non-empty selection among selectors.
func firstMatch(sel *goquery.Selection, selectors ...string) *goquery.Selection {
	for _, selector := range selectors {
		if found := sel.Find(selector).First(); found.Length() > 0 {
			return found
		}
	}
	return nil
}

// firstText returns the trimmed text of the first selector that has any.
func firstText(sel *goquery.Selection, selectors ...string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(sel.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// findCards returns the cards matched by the first selector with any hits.
func findCards(doc *goquery.Document, selectors ...string) *goquery.Selection {
	for _, selector := range selectors {
		if cards := doc.Find(selector); cards.Length() > 0 {
			return cards
		}
	}
	return doc.Find("__none__")
}

// absoluteURL resolves href against base. Empty hrefs stay empty.
func absoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
