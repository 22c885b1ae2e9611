package parsing

import (
	"regexp"
	"strings"

	"github.com/jonathan/job-recommender/internal/types"
)

var (
	seniorPattern = regexp.MustCompile(`\b(senior|sr|lead|principal|staff|head of|architect|director)\b`)
	entryPattern  = regexp.MustCompile(`\b(junior|jr|entry|entry-level|graduate|new grad|intern|internship|trainee|apprentice|fresher)\b`)
	midPattern    = regexp.MustCompile(`\b(mid|mid-level|intermediate|engineer ii|developer ii)\b`)
	yearsPattern  = regexp.MustCompile(`\b\d{1,2}\s*(\+|-\s*\d{1,2})?\s*(years?|yrs?)\b`)
)

// InferExperienceLevel scans the title, then the description, for level
// tokens. Within one field senior beats entry beats mid. When neither field
// names a level, any years-of-experience phrase yields mid.
func InferExperienceLevel(title, description string) types.ExperienceLevel {
	for _, field := range []string{title, description} {
		if level := levelFromTokens(strings.ToLower(field)); level != types.ExperienceUnspecified {
			return level
		}
	}
	if yearsPattern.MatchString(strings.ToLower(title + " " + description)) {
		return types.ExperienceMid
	}
	return types.ExperienceUnspecified
}

func levelFromTokens(text string) types.ExperienceLevel {
	if text == "" {
		return types.ExperienceUnspecified
	}
	switch {
	case seniorPattern.MatchString(text):
		return types.ExperienceSenior
	case entryPattern.MatchString(text):
		return types.ExperienceEntry
	case midPattern.MatchString(text):
		return types.ExperienceMid
	}
	return types.ExperienceUnspecified
}
