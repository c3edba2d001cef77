package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	red "github.com/redis/go-redis/v9"

	"github.com/arklim/guestbook-api/internal/core/port"
)

// slidingWindowScript trims, counts and conditionally records in one round trip.
// Scores are unix milliseconds.
var slidingWindowScript = red.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, ARGV[4])
  count = count + 1
  allowed = 1
end

if count > 0 then
  redis.call('PEXPIRE', key, window)
end

local oldest = -1
local head = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if head[2] then
  oldest = tonumber(head[2])
end

return {allowed, count, oldest}
`)

// RateLimitRepository persists sliding-window attempts in Redis sorted sets.
type RateLimitRepository struct {
	client *red.Client
	prefix string
}

// NewRateLimitRepository constructs a repository using the provided Redis client and key prefix.
func NewRateLimitRepository(client *red.Client, keyPrefix string) *RateLimitRepository {
	return &RateLimitRepository{client: client, prefix: keyPrefix}
}

// Attempt records an attempt at now unless the window already holds limit attempts.
func (r *RateLimitRepository) Attempt(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (port.AttemptWindow, error) {
	if key == "" {
		return port.AttemptWindow{}, errors.New("rate limit key must not be empty")
	}
	if limit <= 0 {
		return port.AttemptWindow{}, errors.New("limit must be positive")
	}
	if window < time.Millisecond {
		return port.AttemptWindow{}, errors.New("window must be at least one millisecond")
	}

	nowMillis := now.UnixMilli()
	member := fmt.Sprintf("%d-%s", nowMillis, uuid.NewString())

	values, err := slidingWindowScript.Run(ctx, r.client,
		[]string{r.key(key)},
		nowMillis, window.Milliseconds(), limit, member,
	).Int64Slice()
	if err != nil {
		return port.AttemptWindow{}, fmt.Errorf("redis sliding window: %w", err)
	}
	if len(values) != 3 {
		return port.AttemptWindow{}, fmt.Errorf("redis sliding window: unexpected reply length %d", len(values))
	}

	result := port.AttemptWindow{
		Allowed: values[0] == 1,
		Count:   int(values[1]),
	}
	if values[2] >= 0 {
		result.Oldest = time.UnixMilli(values[2]).UTC()
	}

	return result, nil
}

func (r *RateLimitRepository) key(identifier string) string {
	if r.prefix == "" {
		return identifier
	}
	return r.prefix + ":" + identifier
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)
