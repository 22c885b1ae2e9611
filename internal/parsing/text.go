// Package parsing turns raw scraped postings into canonical NormalizedPostings.
// Every function here is total: malformed input degrades to defaults.
package parsing

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// placeholders are values scrapers emit when a field is missing.
var placeholders = map[string]bool{
	"n/a":           true,
	"na":            true,
	"none":          true,
	"null":          true,
	"unknown":       true,
	"not specified": true,
	"not available": true,
	"-":             true,
}

// CleanText applies Unicode NFC normalization, trims the value and collapses
// runs of whitespace to single spaces. Placeholder values become "".
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	if placeholders[strings.ToLower(s)] {
		return ""
	}
	return s
}

// MatchKey returns the case-folded form used for all comparisons.
func MatchKey(s string) string {
	return strings.ToLower(CleanText(s))
}
