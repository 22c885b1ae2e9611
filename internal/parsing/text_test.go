package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"trims", "  Go Developer  ", "Go Developer"},
		{"collapses internal whitespace", "Senior\t\tGo \n Developer", "Senior Go Developer"},
		{"non-breaking space", "Acme Corp", "Acme Corp"},
		{"preserves case", "iOS Engineer", "iOS Engineer"},
		{"placeholder N/A", "N/A", ""},
		{"placeholder with padding", "  not specified ", ""},
		{"NFC composes accents", "Montréal", "Montréal"},
		{"whitespace only", " \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}

func TestMatchKey(t *testing.T) {
	assert.Equal(t, "senior go developer", MatchKey("  Senior   GO Developer"))
	assert.Equal(t, "", MatchKey("N/A"))
}
