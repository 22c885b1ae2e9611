package parsing

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

var relativePattern = regexp.MustCompile(`(\d+)\s*\+?\s*(minutes?|mins?|m|hours?|hrs?|h|days?|d|weeks?|wks?|w|months?|mos?)\s+ago`)

// absoluteLayouts are tried in order. Day-first layouts come after US ones so
// that ambiguous values like 03/04/2024 resolve month-first.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02.01.2006",
}

// ResolvePostedAt converts a relative or absolute posted-date string into an
// absolute timestamp anchored at runStart. The second return value is false
// when the string could not be understood, in which case runStart is returned.
func ResolvePostedAt(raw string, runStart time.Time) (time.Time, bool) {
	s := strings.ToLower(CleanText(raw))
	s = strings.TrimPrefix(s, "posted ")
	s = strings.TrimPrefix(s, "active ")
	s = strings.TrimSpace(s)
	if s == "" {
		return runStart, false
	}

	switch s {
	case "just posted", "just now", "today", "now", "new", "posted today", "moments ago":
		return runStart, true
	case "yesterday":
		return runStart.Add(-day), true
	}

	if m := relativePattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return runStart.Add(-time.Duration(n) * unitDuration(m[2])), true
		}
	}

	original := CleanText(raw)
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, original); err == nil {
			return t, true
		}
	}

	return runStart, false
}

func unitDuration(unit string) time.Duration {
	switch {
	case strings.HasPrefix(unit, "mo"):
		return 30 * day
	case strings.HasPrefix(unit, "m"):
		return time.Minute
	case strings.HasPrefix(unit, "h"):
		return time.Hour
	case strings.HasPrefix(unit, "d"):
		return day
	case strings.HasPrefix(unit, "w"):
		return 7 * day
	}
	return day
}
