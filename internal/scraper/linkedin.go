package scraper

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/job-recommender/internal/types"
)

const (
	linkedInBaseURL  = "https://www.linkedin.com"
	linkedInPageSize = 25
)

// NewLinkedIn returns a scraper for the public LinkedIn job search.
func NewLinkedIn(deps Deps) Scraper {
	base := deps.baseURL("linkedin", linkedInBaseURL)
	return &htmlScraper{
		name:    "linkedin",
		fetcher: deps.Fetcher,
		delay:   deps.Delay,
		verbose: deps.Verbose,
		buildURL: func(searchTerm, location string, page int) string {
			return linkedInSearchURL(base, searchTerm, location, page)
		},
		parse: func(doc *goquery.Document) []types.RawPosting {
			return parseLinkedIn(doc, base)
		},
	}
}

// linkedInSearchURL limits results to the last 24 hours.
func linkedInSearchURL(base, searchTerm, location string, page int) string {
	var params []string
	if searchTerm != "" {
		params = append(params, "keywords="+url.QueryEscape(searchTerm))
	}
	if location != "" {
		params = append(params, "location="+url.QueryEscape(location))
	}
	if page > 0 {
		params = append(params, "start="+strconv.Itoa(page*linkedInPageSize))
	}
	params = append(params, "f_TPR=r86400")
	return base + "/jobs/search?" + strings.Join(params, "&")
}

func parseLinkedIn(doc *goquery.Document, base string) []types.RawPosting {
	cards := findCards(doc,
		"div.base-card",
		"div.job-search-card",
		"li.result-card",
		`div[data-entity-urn*="jobPosting"]`,
	)

	postings := make([]types.RawPosting, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		p := types.RawPosting{
			Company: firstText(card,
				"h4.base-search-card__subtitle a",
				"h4.base-search-card__subtitle",
				"a.hidden-nested-link",
				".job-result-card__company-name",
			),
			Location: firstText(card,
				"span.job-search-card__location",
				".job-result-card__location",
			),
			Salary: firstText(card, ".job-search-card__salary-info"),
		}

		p.Title = firstText(card,
			"h3.base-search-card__title",
			"h4.base-search-card__title",
			".job-title",
			"a.base-card__full-link",
		)
		if link := firstMatch(card, "a.base-card__full-link", "h3.base-search-card__title a", ".job-title a", "a[href]"); link != nil {
			href, _ := link.Attr("href")
			p.URL = absoluteURL(base, href)
		}

		if date := firstMatch(card, "time.job-search-card__listdate", "time[datetime]", ".job-result-card__listdate"); date != nil {
			if dt, ok := date.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
				p.PostedDate = dt
			} else {
				p.PostedDate = strings.TrimSpace(date.Text())
			}
		}

		// the seniority flavor is the only body text a search card carries
		if level := firstText(card, ".job-flavors__item"); level != "" {
			p.Description = level
		}

		postings = append(postings, p)
	})

	return postings
}
