package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-recommender/internal/types"
)

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run represents a recommendation run record
type Run struct {
	ID          uuid.UUID             `json:"id"`
	RunStart    time.Time             `json:"run_start"`
	Status      string                `json:"status"`
	Preferences types.UserPreferences `json:"preferences"`
	Stats       *types.RunStats       `json:"stats,omitempty"`
	RankedCount int                   `json:"ranked_count"`
	CreatedAt   time.Time             `json:"created_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

// Recommendation is one stored row of a run's ranked output
type Recommendation struct {
	RunID uuid.UUID `json:"run_id"`
	Rank  int       `json:"rank"`
	types.ScoredPosting
}
