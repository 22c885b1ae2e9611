// Package ranking scores normalized postings against user preferences and
// orders them into the final recommendation list.
package ranking

import (
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/job-recommender/internal/parsing"
	"github.com/jonathan/job-recommender/internal/types"
)

// neutralScore is used when a factor carries no signal either way.
const neutralScore = 0.5

// remoteKeywords identify postings that can be worked from anywhere.
var remoteKeywords = []string{"remote", "work from home", "wfh", "telecommute", "anywhere"}

// Score computes the weighted recommendation score for one posting.
// It is deterministic for a given runStart.
func Score(p types.NormalizedPosting, prefs types.UserPreferences, runStart time.Time, w Weights) types.ScoredPosting {
	keyword, matchedKeywords := computeKeywordScore(p, prefs.Keywords)

	breakdown := types.ScoreBreakdown{
		Title:      computeTitleScore(p.Title, prefs.JobTitles),
		Location:   computeLocationScore(p.Location, prefs.Locations),
		Company:    computeCompanyScore(p.Company, prefs.CompaniesToInclude),
		Experience: computeExperienceScore(p.ExperienceLevel, prefs),
		Keyword:    keyword,
		Freshness:  computeFreshnessScore(p.PostedAt, runStart, prefs.MaxAgeHours),
	}

	total := 100 * (w.Title*breakdown.Title +
		w.Location*breakdown.Location +
		w.Company*breakdown.Company +
		w.Experience*breakdown.Experience +
		w.Keyword*breakdown.Keyword +
		w.Freshness*breakdown.Freshness)

	return types.ScoredPosting{
		NormalizedPosting:   p,
		RecommendationScore: roundScore(total),
		ScoreBreakdown:      breakdown,
		Notes:               generateNotes(p, breakdown, matchedKeywords, len(prefs.Keywords), runStart),
	}
}

// ScoreAll scores each posting, preserving order.
func ScoreAll(postings []types.NormalizedPosting, prefs types.UserPreferences, runStart time.Time, w Weights) []types.ScoredPosting {
	scored := make([]types.ScoredPosting, 0, len(postings))
	for _, p := range postings {
		scored = append(scored, Score(p, prefs, runStart, w))
	}
	return scored
}

// roundScore clamps to [0,100] and rounds half-to-even at two decimals.
func roundScore(total float64) float64 {
	total = clamp(total, 0, 100)
	return math.RoundToEven(total*100) / 100
}

// computeTitleScore returns 1.0 when a preferred title is a case-insensitive
// substring of the posting title, otherwise the best fraction of a preferred
// title's words found in it.
func computeTitleScore(title string, preferred []string) float64 {
	titleKey := parsing.MatchKey(title)
	if titleKey == "" {
		return 0.0
	}

	titleSet := make(map[string]bool)
	for _, tok := range tokenize(titleKey) {
		titleSet[tok] = true
	}

	best := 0.0
	for _, pref := range preferred {
		prefKey := parsing.MatchKey(pref)
		if prefKey == "" {
			continue
		}
		if strings.Contains(titleKey, prefKey) {
			return 1.0
		}

		prefTokens := tokenize(prefKey)
		if len(prefTokens) == 0 {
			continue
		}
		matched := 0
		for _, tok := range prefTokens {
			if titleSet[tok] {
				matched++
			}
		}
		best = math.Max(best, float64(matched)/float64(len(prefTokens)))
	}

	return clamp(best, 0, 1)
}

// computeLocationScore returns 1.0 if any preferred location matches.
// A preferred location matches when it appears in the posting location on
// word boundaries, or when the posting location is exactly its city part
// ("Austin" against "Austin, TX"). "Remote" matches any posting advertising
// remote work.
func computeLocationScore(location string, preferred []string) float64 {
	loc := parsing.MatchKey(location)

	for _, pref := range preferred {
		p := parsing.MatchKey(pref)
		if p == "" {
			continue
		}
		if p == "remote" {
			if isRemote(loc) {
				return 1.0
			}
			continue
		}
		if loc == "" {
			continue
		}
		if containsWord(loc, p) || loc == cityPart(p) {
			return 1.0
		}
	}

	return 0.0
}

// containsWord reports whether sub occurs in s with no letter or digit
// directly on either side.
func containsWord(s, sub string) bool {
	for offset := 0; offset <= len(s)-len(sub); {
		i := strings.Index(s[offset:], sub)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(sub)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(s) || !isWordRune(after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		offset = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// cityPart is the text before the first comma.
func cityPart(location string) string {
	city, _, _ := strings.Cut(location, ",")
	return strings.TrimSpace(city)
}

func isRemote(location string) bool {
	for _, kw := range remoteKeywords {
		if strings.Contains(location, kw) {
			return true
		}
	}
	return false
}

// computeCompanyScore is 1.0 for listed companies when an include list is
// set, and neutral otherwise.
func computeCompanyScore(company string, include []string) float64 {
	if len(include) == 0 {
		return neutralScore
	}
	c := parsing.MatchKey(company)
	if c == "" {
		return 0.0
	}
	for _, inc := range include {
		if parsing.MatchKey(inc) == c {
			return 1.0
		}
	}
	return 0.0
}

// computeExperienceScore rewards an exact level match. Unspecified postings
// and users with no level preference get the neutral score.
func computeExperienceScore(level types.ExperienceLevel, prefs types.UserPreferences) float64 {
	if len(prefs.ExperienceLevels) == 0 || level == types.ExperienceUnspecified {
		return neutralScore
	}
	if prefs.WantsLevel(level) {
		return 1.0
	}
	return 0.0
}

// computeKeywordScore returns the fraction of keywords found anywhere in the
// title or description, and the keywords that matched.
func computeKeywordScore(p types.NormalizedPosting, keywords []string) (float64, []string) {
	if len(keywords) == 0 {
		return 0.0, nil
	}

	text := strings.ToLower(p.Title + " " + p.Description)

	total := 0
	matched := make([]string, 0)
	for _, kw := range keywords {
		kwLower := parsing.MatchKey(kw)
		if kwLower == "" {
			continue
		}
		total++
		if strings.Contains(text, kwLower) {
			matched = append(matched, kw)
		}
	}
	if total == 0 {
		return 0.0, nil
	}

	return clamp(float64(len(matched))/float64(total), 0, 1), matched
}

// computeFreshnessScore decays linearly from 1.0 at runStart to 0.0 at
// maxAgeHours. Future dates get the max score.
func computeFreshnessScore(postedAt, runStart time.Time, maxAgeHours int) float64 {
	if maxAgeHours <= 0 {
		return 0.0
	}
	age := runStart.Sub(postedAt)
	if age <= 0 {
		return 1.0
	}
	score := 1.0 - age.Hours()/float64(maxAgeHours)
	return clamp(score, 0, 1)
}

// tokenize lower-cases s and splits it into words. '+' and '#' are kept so
// that C++ and C# survive.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
