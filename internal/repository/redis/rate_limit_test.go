package redis

import (
	"context"
	"testing"
	"time"
)

func TestRateLimitRepository_SlidingWindow(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRateLimitRepository(client, "ratelimit")

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := repo.Attempt(ctx, "login:192.0.2.1", 2, time.Minute, base)
	if err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}
	if !first.Allowed || first.Count != 1 || !first.Oldest.Equal(base) {
		t.Fatalf("unexpected first attempt result: %+v", first)
	}

	second, err := repo.Attempt(ctx, "login:192.0.2.1", 2, time.Minute, base.Add(time.Second))
	if err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}
	if !second.Allowed || second.Count != 2 {
		t.Fatalf("unexpected second attempt result: %+v", second)
	}

	blocked, err := repo.Attempt(ctx, "login:192.0.2.1", 2, time.Minute, base.Add(2*time.Second))
	if err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}
	if blocked.Allowed {
		t.Fatalf("expected third attempt to be rejected")
	}
	if blocked.Count != 2 {
		t.Fatalf("rejected attempts must not be recorded, count=%d", blocked.Count)
	}
	if !blocked.Oldest.Equal(base) {
		t.Fatalf("expected oldest %v, got %v", base, blocked.Oldest)
	}

	if !server.Exists("ratelimit:login:192.0.2.1") {
		t.Fatalf("expected prefixed sorted set key")
	}
	if ttl := server.TTL("ratelimit:login:192.0.2.1"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected key ttl within the window, got %v", ttl)
	}

	later, err := repo.Attempt(ctx, "login:192.0.2.1", 2, time.Minute, base.Add(61*time.Second))
	if err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}
	if !later.Allowed || later.Count != 1 {
		t.Fatalf("expected window to slide past old attempts: %+v", later)
	}
}

func TestRateLimitRepository_IsolatesKeys(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, "")

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := repo.Attempt(ctx, "login:a", 1, time.Minute, now); err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}
	res, err := repo.Attempt(ctx, "login:b", 1, time.Minute, now)
	if err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}
	if !res.Allowed {
		t.Fatalf("expected separate identifiers to have separate windows")
	}
}

func TestRateLimitRepository_InvalidInput(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, "")
	now := time.Now()

	if _, err := repo.Attempt(context.Background(), "", 1, time.Minute, now); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := repo.Attempt(context.Background(), "k", 0, time.Minute, now); err == nil {
		t.Fatalf("expected error for non-positive limit")
	}
	if _, err := repo.Attempt(context.Background(), "k", 1, 0, now); err == nil {
		t.Fatalf("expected error for zero window")
	}
}
