package parsing

import (
	"regexp"
	"strconv"
	"strings"
)

var salaryNumberPattern = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*([kK])?`)

// SalaryFloor extracts the first amount in a free-text salary such as
// "$120k - $150k" or "45,000 - 55,000 a year". A trailing k multiplies by a
// thousand. ok is false when the text holds no number.
func SalaryFloor(salary string) (amount int, ok bool) {
	m := salaryNumberPattern.FindStringSubmatch(CleanText(salary))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	if m[2] != "" {
		v *= 1000
	}
	return int(v), true
}
