package port

import (
	"context"
	"time"
)

// RevocationStore records tokens that must be rejected until the supplied TTL elapses.
// Implementations must make a completed Put visible to every subsequent Contains.
type RevocationStore interface {
	Put(ctx context.Context, key string, ttl time.Duration) error
	Contains(ctx context.Context, key string) (bool, error)
}
