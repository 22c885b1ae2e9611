package scraper

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/job-recommender/internal/types"
)

// CareersSite describes a company careers page.
type CareersSite struct {
	Name    string // registry name and source identifier
	Company string
	URL     string
}

// Built-in careers pages.
var (
	GoogleCareers    = CareersSite{Name: "google", Company: "Google", URL: "https://careers.google.com/jobs/results/"}
	MetaCareers      = CareersSite{Name: "meta", Company: "Meta", URL: "https://www.metacareers.com/jobs/"}
	MicrosoftCareers = CareersSite{Name: "microsoft", Company: "Microsoft", URL: "https://careers.microsoft.com/us/en/search-results"}
)

// NewCareersPage returns a generic scraper for a company careers listing.
// Careers pages list every opening, so the search term and location are not
// part of the URL; scoring sorts out relevance.
func NewCareersPage(site CareersSite, deps Deps) Scraper {
	pageURL := deps.baseURL(site.Name, site.URL)
	return &htmlScraper{
		name:    site.Name,
		fetcher: deps.Fetcher,
		delay:   deps.Delay,
		verbose: deps.Verbose,
		buildURL: func(_, _ string, page int) string {
			return careersPageURL(pageURL, page)
		},
		parse: func(doc *goquery.Document) []types.RawPosting {
			return parseCareersPage(doc, pageURL, site.Company)
		},
	}
}

func careersPageURL(base string, page int) string {
	if page == 0 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "page=" + strconv.Itoa(page+1)
}

func parseCareersPage(doc *goquery.Document, pageURL, company string) []types.RawPosting {
	cards := findCards(doc,
		`div[class*="job"]`,
		`li[class*="job"]`,
		`article[class*="job"]`,
		`div[class*="position"]`,
		`li[class*="position"]`,
		`div[class*="opening"]`,
		`li[class*="opening"]`,
		`tr[class*="job"]`,
		`a[href*="/job"]`,
		`a[href*="/position"]`,
	)

	postings := make([]types.RawPosting, 0, cards.Length())
	seen := make(map[string]bool)
	cards.Each(func(_ int, card *goquery.Selection) {
		p := types.RawPosting{
			Company:    company,
			Title:      firstText(card, "h1", "h2", "h3", "h4", `[class*="title"]`, `[class*="name"]`, "a"),
			Location:   firstText(card, `[class*="location"]`, `[class*="city"]`, `[class*="office"]`, `[class*="region"]`),
			PostedDate: firstText(card, `[class*="date"]`, `[class*="posted"]`, "time"),
			JobType:    firstText(card, `[class*="employment"]`, `[class*="type"]`),
		}
		if p.Title == "" && goquery.NodeName(card) == "a" {
			p.Title = strings.TrimSpace(card.Text())
		}
		if dept := firstText(card, `[class*="department"]`, `[class*="team"]`); dept != "" {
			p.Description = dept
		}

		link := card
		if goquery.NodeName(card) != "a" {
			link = card.Find("a[href]").First()
		}
		href, _ := link.Attr("href")
		p.URL = absoluteURL(pageURL, href)
		if p.URL == "" {
			p.URL = pageURL
		}

		// nested matches (a job div inside a job div) produce repeats
		key := p.Title + "\x1f" + p.URL
		if seen[key] {
			return
		}
		seen[key] = true
		postings = append(postings, p)
	})

	return postings
}
