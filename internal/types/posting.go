// Package types provides type definitions for structured data used throughout the job-recommender system.
package types

import "time"

// ExperienceLevel is the seniority band a posting targets.
type ExperienceLevel string

const (
	ExperienceEntry       ExperienceLevel = "entry"
	ExperienceMid         ExperienceLevel = "mid"
	ExperienceSenior      ExperienceLevel = "senior"
	ExperienceUnspecified ExperienceLevel = "unspecified"
)

// Valid reports whether the level is one of the known values.
func (l ExperienceLevel) Valid() bool {
	switch l {
	case ExperienceEntry, ExperienceMid, ExperienceSenior, ExperienceUnspecified:
		return true
	}
	return false
}

// RawPosting is a job posting as produced by a site scraper.
// Only Title and URL are guaranteed to be populated.
type RawPosting struct {
	Title       string `json:"title"`
	Company     string `json:"company,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	PostedDate  string `json:"posted_date,omitempty"` // relative ("3 days ago") or absolute, source-dependent
	URL         string `json:"url"`
	Source      string `json:"source"`
	Salary      string `json:"salary,omitempty"`
	JobType     string `json:"job_type,omitempty"`
}

// NormalizedPosting is the canonical form every downstream stage works on.
type NormalizedPosting struct {
	Title           string          `json:"title"`
	Company         string          `json:"company"`
	Location        string          `json:"location"`
	Description     string          `json:"description,omitempty"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	PostedAt        time.Time       `json:"posted_at"`
	// PostedAtEstimated marks postings whose date string could not be resolved.
	PostedAtEstimated bool   `json:"posted_at_estimated,omitempty"`
	URL               string `json:"url"`
	Source            string `json:"source"`
	Salary            string `json:"salary,omitempty"`
	JobType           string `json:"job_type,omitempty"`
}
