package scraper

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Deps carries everything a site factory may need.
type Deps struct {
	Fetcher    Fetcher
	HTTPClient *http.Client
	Delay      time.Duration // pause between result pages
	Verbose    bool
	Adzuna     AdzunaCredentials
	// BaseURLs overrides a site's base URL by registry name.
	BaseURLs map[string]string
}

func (d Deps) baseURL(site, fallback string) string {
	if u, ok := d.BaseURLs[site]; ok && u != "" {
		return strings.TrimRight(u, "/")
	}
	return fallback
}

// Factory builds a Scraper.
type Factory func(deps Deps) Scraper

// Registry maps site names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces a factory. Names are case-insensitive.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[strings.ToLower(strings.TrimSpace(name))] = factory
}

// Names returns the registered site names in alphabetical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Build constructs the scraper registered under name.
func (r *Registry) Build(name string, deps Deps) (Scraper, error) {
	factory, ok := r.factories[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown scraper %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	if deps.Fetcher == nil {
		deps.Fetcher = NewHTTPFetcher(nil)
	}
	return factory(deps), nil
}

// BuildAll constructs scrapers for names in order. Unknown names are returned
// separately instead of failing the whole set.
func (r *Registry) BuildAll(names []string, deps Deps) ([]Scraper, []string) {
	var scrapers []Scraper
	var unknown []string
	for _, name := range names {
		s, err := r.Build(name, deps)
		if err != nil {
			unknown = append(unknown, name)
			continue
		}
		scrapers = append(scrapers, s)
	}
	return scrapers, unknown
}

// DefaultRegistry registers every built-in site.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("linkedin", NewLinkedIn)
	r.Register("indeed", NewIndeed)
	r.Register("adzuna", NewAdzuna)
	for _, site := range []CareersSite{GoogleCareers, MetaCareers, MicrosoftCareers} {
		r.Register(site.Name, func(deps Deps) Scraper { return NewCareersPage(site, deps) })
	}
	return r
}
