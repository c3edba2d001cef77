package security

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestRevocationCachePutContainsAndExpire(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewRevocationCache(RevocationCacheOptions{}).WithClock(func() time.Time { return base })

	if err := cache.Put(ctx, "token-a", 2*time.Minute); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	contains, err := cache.Contains(ctx, "token-a")
	if err != nil || !contains {
		t.Fatalf("expected token-a to be revoked, contains=%v err=%v", contains, err)
	}

	cache.WithClock(func() time.Time { return base.Add(2 * time.Minute) })
	contains, err = cache.Contains(ctx, "token-a")
	if err != nil || contains {
		t.Fatalf("expected token-a to expire, contains=%v err=%v", contains, err)
	}
	if cache.Len() != 0 {
		t.Fatalf("expected expired entry to be pruned lazily, len=%d", cache.Len())
	}
}

func TestRevocationCachePutResetsTTL(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	cache := NewRevocationCache(RevocationCacheOptions{}).WithClock(func() time.Time { return now })

	if err := cache.Put(ctx, "token-a", time.Minute); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	now = base.Add(50 * time.Second)
	if err := cache.Put(ctx, "token-a", time.Minute); err != nil {
		t.Fatalf("second Put returned error: %v", err)
	}

	now = base.Add(90 * time.Second)
	if contains, _ := cache.Contains(ctx, "token-a"); !contains {
		t.Fatalf("expected re-inserted token to outlive the original ttl")
	}
}

func TestRevocationCachePrune(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewRevocationCache(RevocationCacheOptions{}).WithClock(func() time.Time { return base })

	_ = cache.Put(ctx, "short", time.Minute)
	_ = cache.Put(ctx, "long", time.Hour)

	if removed := cache.Prune(base.Add(2 * time.Minute)); removed != 1 {
		t.Fatalf("expected one pruned entry, got %d", removed)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected one remaining entry, got %d", cache.Len())
	}
}

func TestRevocationCacheRefusesNewKeysWhenFull(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewRevocationCache(RevocationCacheOptions{MaxEntries: 2}).WithClock(func() time.Time { return now })

	if err := cache.Put(ctx, "first", time.Minute); err != nil {
		t.Fatalf("Put first: %v", err)
	}
	if err := cache.Put(ctx, "second", time.Hour); err != nil {
		t.Fatalf("Put second: %v", err)
	}

	if err := cache.Put(ctx, "third", time.Hour); !errors.Is(err, ErrRevocationCacheFull) {
		t.Fatalf("expected ErrRevocationCacheFull, got %v", err)
	}
	for _, key := range []string{"first", "second"} {
		if contains, err := cache.Contains(ctx, key); err != nil || !contains {
			t.Fatalf("expected %s to stay revoked, contains=%v err=%v", key, contains, err)
		}
	}
	if contains, _ := cache.Contains(ctx, "third"); contains {
		t.Fatalf("refused key must not be stored")
	}

	if err := cache.Put(ctx, "second", 2*time.Hour); err != nil {
		t.Fatalf("refreshing an existing key must succeed when full: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if err := cache.Put(ctx, "third", time.Hour); err != nil {
		t.Fatalf("expected expired slot to be reclaimed, got %v", err)
	}
	if contains, _ := cache.Contains(ctx, "second"); !contains {
		t.Fatalf("live marker dropped while reclaiming space")
	}
}

func TestRevocationCacheInvalidInput(t *testing.T) {
	cache := NewRevocationCache(RevocationCacheOptions{})

	if err := cache.Put(context.Background(), "", time.Minute); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if err := cache.Put(context.Background(), "token", 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
	if _, err := cache.Contains(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty key in Contains")
	}
}

func TestRevocationCacheConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	cache := NewRevocationCache(RevocationCacheOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("token-%d", i)
			if err := cache.Put(ctx, key, time.Hour); err != nil {
				t.Errorf("Put returned error: %v", err)
				return
			}
			if contains, err := cache.Contains(ctx, key); err != nil || !contains {
				t.Errorf("expected %s to be visible after Put, contains=%v err=%v", key, contains, err)
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() != 32 {
		t.Fatalf("expected 32 entries, got %d", cache.Len())
	}
}

func TestRevocationCacheRunStopsOnCancel(t *testing.T) {
	cache := NewRevocationCache(RevocationCacheOptions{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		cache.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Run to return after cancellation")
	}
}
