package scraper

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/job-recommender/internal/types"
)

const (
	indeedBaseURL  = "https://www.indeed.com"
	indeedPageSize = 10
)

// NewIndeed returns a scraper for Indeed search results.
func NewIndeed(deps Deps) Scraper {
	base := deps.baseURL("indeed", indeedBaseURL)
	return &htmlScraper{
		name:    "indeed",
		fetcher: deps.Fetcher,
		delay:   deps.Delay,
		verbose: deps.Verbose,
		buildURL: func(searchTerm, location string, page int) string {
			return indeedSearchURL(base, searchTerm, location, page)
		},
		parse: func(doc *goquery.Document) []types.RawPosting {
			return parseIndeed(doc, base)
		},
	}
}

// indeedSearchURL limits results to the last 3 days.
func indeedSearchURL(base, searchTerm, location string, page int) string {
	var params []string
	if searchTerm != "" {
		params = append(params, "q="+url.QueryEscape(searchTerm))
	}
	if location != "" {
		params = append(params, "l="+url.QueryEscape(location))
	}
	if page > 0 {
		params = append(params, "start="+strconv.Itoa(page*indeedPageSize))
	}
	params = append(params, "fromage=3")
	return base + "/jobs?" + strings.Join(params, "&")
}

func parseIndeed(doc *goquery.Document, base string) []types.RawPosting {
	cards := findCards(doc,
		"div.job_seen_beacon",
		"div[data-jk]",
		"div.jobsearch-SerpJobCard",
		"div.slider_container div.slider_item",
	)

	postings := make([]types.RawPosting, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		p := types.RawPosting{
			Company: firstText(card,
				"span.companyName a",
				"span.companyName",
				`[data-testid="company-name"]`,
				".companyName",
			),
			Location: firstText(card,
				"div.companyLocation",
				`[data-testid="text-location"]`,
				`[data-testid="job-location"]`,
				".companyLocation",
			),
			PostedDate: firstText(card,
				"span.date",
				`[data-testid="myJobsStateDate"]`,
				".date",
			),
			Salary: firstText(card,
				".salary-snippet",
				".salaryText",
				`[data-testid="attribute_snippet_testid"]`,
			),
			Description: firstText(card,
				".job-snippet",
				`[data-testid="job-snippet"]`,
				".summary",
			),
		}
		p.PostedDate = strings.TrimPrefix(p.PostedDate, "Posted")
		p.PostedDate = strings.TrimPrefix(p.PostedDate, "Employer")

		link := firstMatch(card, "h2.jobTitle a", "h2 a[data-jk]", "a[data-jk]", ".jobTitle a")
		if link != nil {
			if span := link.Find("span[title]").First(); span.Length() > 0 {
				p.Title, _ = span.Attr("title")
			}
			if p.Title == "" {
				p.Title = strings.TrimSpace(link.Text())
			}
			href, _ := link.Attr("href")
			p.URL = absoluteURL(base, href)
		}
		if p.Title == "" {
			p.Title = firstText(card, "h2.jobTitle", ".jobTitle")
		}
		if p.URL == "" {
			jk, ok := card.Attr("data-jk")
			if !ok {
				jk, ok = card.Find("[data-jk]").First().Attr("data-jk")
			}
			if ok && jk != "" {
				p.URL = base + "/viewjob?jk=" + url.QueryEscape(jk)
			}
		}

		postings = append(postings, p)
	})

	return postings
}
