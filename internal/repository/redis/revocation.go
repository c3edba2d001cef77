package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/guestbook-api/internal/core/port"
)

// RevokedMarker is the value stored under every revoked token key.
const RevokedMarker = "blacklisted"

const defaultRevocationTimeout = 2 * time.Second

// RevocationRepository keeps logged-out tokens in Redis until they would have expired anyway.
// With an empty prefix the raw token is the key, which keeps existing deployments readable.
type RevocationRepository struct {
	client  *red.Client
	prefix  string
	timeout time.Duration
}

// NewRevocationRepository wires a Redis client into a revocation repository.
// Every call is bounded by timeout; non-positive values fall back to two seconds.
func NewRevocationRepository(client *red.Client, keyPrefix string, timeout time.Duration) *RevocationRepository {
	if timeout <= 0 {
		timeout = defaultRevocationTimeout
	}

	return &RevocationRepository{
		client:  client,
		prefix:  strings.TrimSpace(keyPrefix),
		timeout: timeout,
	}
}

// Put stores the revocation marker for token. Repeating the call resets the TTL.
func (r *RevocationRepository) Put(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	key := r.key(token)
	if key == "" {
		return errors.New("token must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Set(ctx, key, RevokedMarker, ttl).Err(); err != nil {
		return fmt.Errorf("redis set revocation marker: %w", err)
	}

	return nil
}

// Contains reports whether token currently carries a revocation marker.
func (r *RevocationRepository) Contains(ctx context.Context, token string) (bool, error) {
	key := r.key(token)
	if key == "" {
		return false, errors.New("token must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists revocation marker: %w", err)
	}

	return n > 0, nil
}

func (r *RevocationRepository) key(token string) string {
	if token == "" {
		return ""
	}
	if r.prefix == "" {
		return token
	}
	return r.prefix + ":" + token
}

var _ port.RevocationStore = (*RevocationRepository)(nil)
