// Package dedup collapses postings that appear on more than one site.
package dedup

import (
	"strings"

	"github.com/jonathan/job-recommender/internal/parsing"
	"github.com/jonathan/job-recommender/internal/types"
)

// keySeparator cannot appear in cleaned text.
const keySeparator = "\x1f"

// Key returns the identity of a posting: lower-cased title, company and location.
func Key(p types.NormalizedPosting) string {
	return strings.Join([]string{
		parsing.MatchKey(p.Title),
		parsing.MatchKey(p.Company),
		parsing.MatchKey(p.Location),
	}, keySeparator)
}

// Dedupe keeps one posting per Key. The survivor is the posting with the
// longest description; ties go to the source listed earliest in siteOrder,
// then to the first one seen. Output follows the order in which each key was
// first seen.
func Dedupe(postings []types.NormalizedPosting, siteOrder []string) []types.NormalizedPosting {
	rank := sourceRanks(siteOrder)

	index := make(map[string]int, len(postings))
	out := make([]types.NormalizedPosting, 0, len(postings))

	for _, p := range postings {
		key := Key(p)
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, p)
			continue
		}
		if better(p, out[i], rank) {
			out[i] = p
		}
	}

	return out
}

// better reports whether candidate should replace current.
func better(candidate, current types.NormalizedPosting, rank func(string) int) bool {
	cl, kl := len(candidate.Description), len(current.Description)
	if cl != kl {
		return cl > kl
	}
	return rank(candidate.Source) < rank(current.Source)
}

// sourceRanks maps a source to its position in siteOrder. Unlisted sources
// rank after every listed one.
func sourceRanks(siteOrder []string) func(string) int {
	positions := make(map[string]int, len(siteOrder))
	for i, site := range siteOrder {
		name := strings.ToLower(strings.TrimSpace(site))
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}
	unlisted := len(siteOrder)
	return func(source string) int {
		if pos, ok := positions[strings.ToLower(strings.TrimSpace(source))]; ok {
			return pos
		}
		return unlisted
	}
}

// Stats summarises a dedup pass.
type Stats struct {
	Input   int
	Output  int
	Removed int
}

// DedupeWithStats runs Dedupe and reports how many postings were removed.
func DedupeWithStats(postings []types.NormalizedPosting, siteOrder []string) ([]types.NormalizedPosting, Stats) {
	out := Dedupe(postings, siteOrder)
	return out, Stats{Input: len(postings), Output: len(out), Removed: len(postings) - len(out)}
}
