package types

import (
	"github.com/go-playground/validator/v10"
)

// UserPreferences holds what the user is looking for. It is loaded once per run
// and never modified afterwards.
type UserPreferences struct {
	JobTitles          []string          `json:"job_titles" yaml:"job_titles" validate:"dive,required"`
	Locations          []string          `json:"locations,omitempty" yaml:"locations" validate:"dive,required"`
	ExperienceLevels   []ExperienceLevel `json:"experience_levels,omitempty" yaml:"experience_levels" validate:"dive,oneof=entry mid senior"`
	CompaniesToInclude []string          `json:"companies_to_include,omitempty" yaml:"companies_to_include" validate:"dive,required"`
	CompaniesToExclude []string          `json:"companies_to_exclude,omitempty" yaml:"companies_to_exclude" validate:"dive,required"`
	Keywords           []string          `json:"keywords,omitempty" yaml:"keywords" validate:"dive,required"`
	MaxAgeHours        int               `json:"max_age_hours" yaml:"max_age_hours" validate:"gt=0"`
	SitesToScrape      []string          `json:"sites_to_scrape,omitempty" yaml:"sites_to_scrape" validate:"dive,required"`
	PagesPerSite       int               `json:"pages_per_site,omitempty" yaml:"pages_per_site" validate:"gte=0"`

	// Optional hard filters. Zero values disable them.
	ExcludeKeywords []string `json:"exclude_keywords,omitempty" yaml:"exclude_keywords" validate:"dive,required"`
	MinSalary       int      `json:"min_salary,omitempty" yaml:"min_salary" validate:"gte=0"`
	MaxSalary       int      `json:"max_salary,omitempty" yaml:"max_salary" validate:"omitempty,gtefield=MinSalary"`
	RemoteOnly      bool     `json:"remote_only,omitempty" yaml:"remote_only"`
	FullTimeOnly    bool     `json:"full_time_only,omitempty" yaml:"full_time_only"`
}

// DefaultPreferences mirrors the defaults the tool has always shipped with.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		JobTitles:        []string{"Software Engineer", "Python Developer"},
		Locations:        []string{"Remote"},
		ExperienceLevels: []ExperienceLevel{ExperienceEntry, ExperienceMid, ExperienceSenior},
		MaxAgeHours:      72,
		SitesToScrape:    []string{"linkedin", "indeed"},
		PagesPerSite:     2,
	}
}

// Validate validates the UserPreferences using the validator.
func (p *UserPreferences) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// WantsLevel reports whether level appears in ExperienceLevels.
func (p *UserPreferences) WantsLevel(level ExperienceLevel) bool {
	for _, l := range p.ExperienceLevels {
		if l == level {
			return true
		}
	}
	return false
}
