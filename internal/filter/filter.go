// Package filter applies the hard inclusion and exclusion rules from
// UserPreferences. A posting either passes every rule or is dropped.
package filter

import (
	"strings"
	"time"

	"github.com/jonathan/job-recommender/internal/parsing"
	"github.com/jonathan/job-recommender/internal/types"
)

// Evaluate decides whether a posting survives. When it does not, reason names
// the first rule it failed. The optional rules (excluded keywords, salary
// bounds, remote only and full time only) run after the core four.
func Evaluate(p types.NormalizedPosting, prefs types.UserPreferences, runStart time.Time) (keep bool, reason string) {
	maxAge := time.Duration(prefs.MaxAgeHours) * time.Hour
	if runStart.Sub(p.PostedAt) > maxAge {
		return false, types.ReasonTooOld
	}

	if containsFold(prefs.CompaniesToExclude, p.Company) {
		return false, types.ReasonExcludedCompany
	}

	if len(prefs.CompaniesToInclude) > 0 && !containsFold(prefs.CompaniesToInclude, p.Company) {
		return false, types.ReasonNotIncludedCompany
	}

	if len(prefs.ExperienceLevels) > 0 &&
		p.ExperienceLevel != types.ExperienceUnspecified &&
		!prefs.WantsLevel(p.ExperienceLevel) {
		return false, types.ReasonExperienceMismatch
	}

	if len(prefs.ExcludeKeywords) > 0 && hasExcludedKeyword(p, prefs.ExcludeKeywords) {
		return false, types.ReasonExcludedKeyword
	}

	if !salaryInRange(p.Salary, prefs.MinSalary, prefs.MaxSalary) {
		return false, types.ReasonSalaryOutOfRange
	}

	if prefs.RemoteOnly && !isRemote(p) {
		return false, types.ReasonNotRemote
	}

	if prefs.FullTimeOnly && isPartTime(p) {
		return false, types.ReasonNotFullTime
	}

	return true, ""
}

// Apply returns the postings that pass every rule, in input order.
func Apply(postings []types.NormalizedPosting, prefs types.UserPreferences, runStart time.Time) []types.NormalizedPosting {
	kept, _ := ApplyWithStats(postings, prefs, runStart)
	return kept
}

// ApplyWithStats is Apply plus a count of dropped postings per reason.
func ApplyWithStats(postings []types.NormalizedPosting, prefs types.UserPreferences, runStart time.Time) ([]types.NormalizedPosting, map[string]int) {
	kept := make([]types.NormalizedPosting, 0, len(postings))
	dropped := make(map[string]int)
	for _, p := range postings {
		keep, reason := Evaluate(p, prefs, runStart)
		if !keep {
			dropped[reason]++
			continue
		}
		kept = append(kept, p)
	}
	return kept, dropped
}

// containsFold reports whether value equals any entry after normalization,
// ignoring case. Empty values never match.
func containsFold(list []string, value string) bool {
	value = parsing.MatchKey(value)
	if value == "" {
		return false
	}
	for _, item := range list {
		if parsing.MatchKey(item) == value {
			return true
		}
	}
	return false
}

func hasExcludedKeyword(p types.NormalizedPosting, keywords []string) bool {
	text := strings.ToLower(p.Title + " " + p.Description)
	for _, kw := range keywords {
		if k := parsing.MatchKey(kw); k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// salaryInRange keeps postings whose salary cannot be read. Zero bounds are
// unset.
func salaryInRange(salary string, minSalary, maxSalary int) bool {
	if minSalary <= 0 && maxSalary <= 0 {
		return true
	}
	amount, ok := parsing.SalaryFloor(salary)
	if !ok {
		return true
	}
	if minSalary > 0 && amount < minSalary {
		return false
	}
	if maxSalary > 0 && amount > maxSalary {
		return false
	}
	return true
}

func isRemote(p types.NormalizedPosting) bool {
	return strings.Contains(strings.ToLower(p.Location), "remote") ||
		strings.Contains(strings.ToLower(p.JobType), "remote")
}

// isPartTime is true only when the job type says part time and nothing marks
// the posting as full time. Missing job types count as full time.
func isPartTime(p types.NormalizedPosting) bool {
	jobType := strings.ToLower(p.JobType)
	if strings.Contains(jobType, "full") || strings.Contains(strings.ToLower(p.Title), "full-time") {
		return false
	}
	return strings.Contains(jobType, "part")
}
