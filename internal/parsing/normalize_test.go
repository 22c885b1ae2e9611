package parsing

import (
	"testing"
	"time"

	"github.com/jonathan/job-recommender/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	runStart := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	raw := types.RawPosting{
		Title:       "  Senior   Python Developer ",
		Company:     "Acme\tCorp",
		Location:    "N/A",
		Description: "Work on\n\ndata pipelines",
		PostedDate:  "2 days ago",
		URL:         " https://example.com/jobs/1 ",
		Source:      "linkedin",
		Salary:      "Not specified",
	}

	got := Normalize(raw, runStart, Options{})

	assert.Equal(t, "Senior Python Developer", got.Title)
	assert.Equal(t, "Acme Corp", got.Company)
	assert.Equal(t, "", got.Location)
	assert.Equal(t, "Work on data pipelines", got.Description)
	assert.Equal(t, types.ExperienceSenior, got.ExperienceLevel)
	assert.Equal(t, runStart.Add(-48*time.Hour), got.PostedAt)
	assert.False(t, got.PostedAtEstimated)
	assert.Equal(t, "https://example.com/jobs/1", got.URL)
	assert.Equal(t, "linkedin", got.Source)
	assert.Equal(t, "", got.Salary)
}

func TestNormalize_UnparseableDate(t *testing.T) {
	runStart := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	raw := types.RawPosting{Title: "Go Developer", URL: "https://example.com", PostedDate: "whenever"}

	t.Run("defaults to run start", func(t *testing.T) {
		got := Normalize(raw, runStart, Options{})
		assert.Equal(t, runStart, got.PostedAt)
		assert.True(t, got.PostedAtEstimated)
	})

	t.Run("configured fallback", func(t *testing.T) {
		got := Normalize(raw, runStart, Options{UnresolvedDateFallback: 6 * time.Hour})
		assert.Equal(t, runStart.Add(-6*time.Hour), got.PostedAt)
		assert.True(t, got.PostedAtEstimated)
	})

	t.Run("missing date never yields zero time", func(t *testing.T) {
		got := Normalize(types.RawPosting{Title: "x"}, runStart, Options{})
		assert.False(t, got.PostedAt.IsZero())
	})
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	runStart := time.Now()
	raw := []types.RawPosting{
		{Title: "First", URL: "u1"},
		{Title: "Second", URL: "u2"},
		{Title: "Third", URL: "u3"},
	}

	got := NormalizeAll(raw, runStart, Options{})
	require.Len(t, got, 3)
	assert.Equal(t, "First", got[0].Title)
	assert.Equal(t, "Second", got[1].Title)
	assert.Equal(t, "Third", got[2].Title)

	assert.Empty(t, NormalizeAll(nil, runStart, Options{}))
}
