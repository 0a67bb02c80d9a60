package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client, mr
}

func TestRedisRoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedis(client, "perp", time.Minute, nil)
	ctx := context.Background()

	store.Set(ctx, "price:BTC", []byte(`{"price":1}`))
	got, ok := store.Get(ctx, "price:BTC")
	if !ok || string(got) != `{"price":1}` {
		t.Fatalf("expected hit, got %q %v", got, ok)
	}
	if !mr.Exists("perp:price:BTC") {
		t.Fatal("expected prefixed key in redis")
	}
	if ttl := mr.TTL("perp:price:BTC"); ttl != time.Minute {
		t.Fatalf("expected ttl of one minute, got %s", ttl)
	}
}

func TestRedisExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedis(client, "", time.Minute, nil)
	ctx := context.Background()

	store.Set(ctx, "funding:BTC", []byte("x"))
	mr.FastForward(61 * time.Second)
	if _, ok := store.Get(ctx, "funding:BTC"); ok {
		t.Fatal("expected miss after ttl")
	}
}

func TestRedisErrorIsMiss(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedis(client, "", time.Minute, nil)
	mr.Close()

	store.Set(context.Background(), "k", []byte("v"))
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatal("expected miss when redis is unreachable")
	}
}

func TestNewRedisClient(t *testing.T) {
	_, mr := setupTestRedis(t)
	client, err := NewRedisClient(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = client.Close()
}
