package types

// Filter drop reasons.
const (
	ReasonTooOld             = "too_old"
	ReasonExcludedCompany    = "excluded_company"
	ReasonNotIncludedCompany = "not_included_company"
	ReasonExperienceMismatch = "experience_mismatch"
	ReasonExcludedKeyword    = "excluded_keyword"
	ReasonSalaryOutOfRange   = "salary_out_of_range"
	ReasonNotRemote          = "not_remote"
	ReasonNotFullTime        = "not_full_time"
)

// RunStats counts postings at each stage of one recommendation run.
type RunStats struct {
	Raw               int            `json:"raw"`
	Normalized        int            `json:"normalized"`
	EstimatedDates    int            `json:"estimated_dates"`
	AfterDedup        int            `json:"after_dedup"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
	AfterFilter       int            `json:"after_filter"`
	Dropped           map[string]int `json:"dropped,omitempty"`
	Ranked            int            `json:"ranked"`
}
