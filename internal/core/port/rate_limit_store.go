package port

import (
	"context"
	"time"
)

// AttemptWindow describes a sliding window after one attempt has been evaluated.
type AttemptWindow struct {
	// Allowed is false when the window was already full; rejected attempts are not recorded.
	Allowed bool
	// Count is the number of attempts inside the window after evaluation.
	Count int
	// Oldest is the earliest attempt still inside the window, zero when empty.
	Oldest time.Time
}

// RateLimitStore evaluates and records attempts against a sliding window atomically.
type RateLimitStore interface {
	Attempt(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (AttemptWindow, error)
}
