package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryGetAfterSet(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	payload, ok, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a live entry")
	}
	if string(payload) != "payload" {
		t.Fatalf("expected identical payload, got %q", payload)
	}
}

func TestMemoryMiss(t *testing.T) {
	store := NewMemory()

	_, ok, err := store.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok {
		t.Fatal("expected a miss for an absent key")
	}
}

func TestMemoryLazyExpiry(t *testing.T) {
	now := time.Now()
	store := NewMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	now = now.Add(2 * time.Hour)

	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("expected entry to expire after TTL")
	}

	store.mu.RLock()
	_, stillStored := store.entries["k"]
	store.mu.RUnlock()
	if stillStored {
		t.Fatal("expected expired entry to be evicted on lookup")
	}
}

func TestRedisStore(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()

	store, err := NewRedis(ctx, "redis://"+srv.Addr())
	if err != nil {
		t.Fatalf("failed to connect to miniredis: %v", err)
	}
	defer func() {
		_ = store.Close()
	}()

	if err := store.Set(ctx, "k", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	payload, ok, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok || string(payload) != "payload" {
		t.Fatalf("expected live entry with identical payload, got ok=%v payload=%q", ok, payload)
	}

	srv.FastForward(2 * time.Minute)

	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("expected entry to expire after TTL")
	}
}
