package security

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRevocationCacheFull is returned by Put when every slot holds a live marker.
var ErrRevocationCacheFull = errors.New("revocation cache is full")

// RevocationCacheOptions controls in-memory revocation behaviour.
type RevocationCacheOptions struct {
	// MaxEntries caps the number of live markers; zero means unbounded. Live markers are never
	// dropped early: a full cache rejects new keys with ErrRevocationCacheFull.
	MaxEntries int
}

// RevocationCache is a process-local revocation store for single-node deployments and tests.
// Entries expire lazily on read and eagerly through Prune.
type RevocationCache struct {
	mu         sync.RWMutex
	entries    map[string]time.Time
	maxEntries int
	now        func() time.Time
}

// NewRevocationCache constructs an empty in-memory revocation store.
func NewRevocationCache(opts RevocationCacheOptions) *RevocationCache {
	return &RevocationCache{
		entries:    make(map[string]time.Time),
		maxEntries: opts.MaxEntries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic testing.
func (c *RevocationCache) WithClock(clock func() time.Time) *RevocationCache {
	if clock != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.now = clock
	}
	return c
}

// Put marks key as revoked for ttl. Re-inserting a key resets its expiry.
func (c *RevocationCache) Put(_ context.Context, key string, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("revocation key is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	expiresAt := c.currentTime().Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.pruneLocked(expiresAt.Add(-ttl))
		if len(c.entries) >= c.maxEntries {
			return ErrRevocationCacheFull
		}
	}

	c.entries[key] = expiresAt
	return nil
}

// Contains reports whether key holds a live revocation marker.
func (c *RevocationCache) Contains(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("revocation key is required")
	}

	now := c.currentTime()
	c.mu.RLock()
	expiresAt, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !expiresAt.After(now) {
		c.mu.Lock()
		if current, still := c.entries[key]; still && !current.After(now) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Prune drops every entry expired at now and returns how many were removed.
func (c *RevocationCache) Prune(now time.Time) int {
	cutoff := now.UTC()

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pruneLocked(cutoff)
}

func (c *RevocationCache) pruneLocked(cutoff time.Time) int {
	removed := 0
	for key, expiresAt := range c.entries {
		if !expiresAt.After(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored markers, expired or not.
func (c *RevocationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Run prunes expired entries every interval until ctx is cancelled.
func (c *RevocationCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Prune(c.currentTime())
		}
	}
}

func (c *RevocationCache) currentTime() time.Time {
	c.mu.RLock()
	nowFn := c.now
	c.mu.RUnlock()
	return nowFn().UTC()
}
