package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

func TestMemoryStoreSetNXAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := store.IdempotencyKey("POST|/api/v1/vendors/x/payments", "abc")

	ok, err := store.SetNX(ctx, key, "payload", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetNX should succeed: ok=%v err=%v", ok, err)
	}

	ok, err = store.SetNX(ctx, key, "other", time.Minute)
	if err != nil {
		t.Fatalf("second SetNX errored: %v", err)
	}
	if ok {
		t.Fatal("second SetNX should not overwrite")
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get errored: %v", err)
	}
	if got != "payload" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestMemoryStoreMissReturnsRedisNil(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, goredis.Nil) {
		t.Fatalf("expected redis.Nil, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if ok, _ := store.SetNX(ctx, "k", "v", time.Nanosecond); !ok {
		t.Fatal("SetNX should succeed")
	}
	time.Sleep(2 * time.Millisecond)

	if _, err := store.Get(ctx, "k"); !errors.Is(err, goredis.Nil) {
		t.Fatalf("expected expired key to miss, got %v", err)
	}
	if ok, _ := store.SetNX(ctx, "k", "v2", 0); !ok {
		t.Fatal("SetNX after expiry should succeed")
	}
}
