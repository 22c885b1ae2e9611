// Package notify delivers recommendation digests by email and Telegram.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/job-recommender/internal/types"
)

// Digest is what a notifier sends: the ranked list of one run.
type Digest struct {
	Ranked      []types.ScoredPosting
	Preferences types.UserPreferences
	GeneratedAt time.Time
	// Attachments are file paths, used by channels that support them.
	Attachments []string
}

// Notifier delivers a digest over one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, d Digest) error
}

// Error is returned when a channel fails to deliver.
type Error struct {
	Channel string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s notification failed: %s: %v", e.Channel, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s notification failed: %s", e.Channel, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
