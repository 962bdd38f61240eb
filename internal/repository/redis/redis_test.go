package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	goredis "github.com/redis/go-redis/v9"

	"Backstage_Jobs/internal/model"
	"Backstage_Jobs/internal/repository/redis"
)

func newServer(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := redis.NewClient(context.Background(), redis.Options{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestTokenRepository_SlidingSession(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newServer(t)
	tokens := redis.NewTokenRepository(rdb, 30*time.Minute)

	if _, err := tokens.Get(ctx, 7); !errors.Is(err, redis.ErrTokenNotFound) {
		t.Fatalf("Get before login = %v, want ErrTokenNotFound", err)
	}
	if err := tokens.Add(ctx, 7, "tok-1"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := tokens.Add(ctx, 7, "tok-2"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got, err := tokens.Get(ctx, 7); err != nil || got != "tok-2" {
		t.Fatalf("Get = %q, %v; want the latest token", got, err)
	}

	mr.FastForward(20 * time.Minute)
	if err := tokens.Extend(ctx, 7); err != nil {
		t.Fatalf("Extend: %v", err)
	}
	mr.FastForward(20 * time.Minute)
	if _, err := tokens.Get(ctx, 7); err != nil {
		t.Fatalf("extended session expired early: %v", err)
	}
	mr.FastForward(31 * time.Minute)
	if _, err := tokens.Get(ctx, 7); !errors.Is(err, redis.ErrTokenNotFound) {
		t.Fatalf("idle session still live: %v", err)
	}

	if err := tokens.Add(ctx, 7, "tok-3"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := tokens.Delete(ctx, 7); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mr.Exists("login:user:token:7") {
		t.Fatalf("token key survived Delete")
	}

	mr.Close()
	if _, err := tokens.Get(ctx, 7); !errors.Is(err, redis.ErrRedisUnavailable) {
		t.Fatalf("Get with server down = %v, want ErrRedisUnavailable", err)
	}
}

func TestSavedCache_WarmSetLifecycle(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newServer(t)
	cache := redis.NewSavedCacheRepository(rdb, time.Hour)
	const key = "saved:set:user:42"

	if _, hit, err := cache.IsSaved(ctx, 42, 5); err != nil || hit {
		t.Fatalf("cold IsSaved hit=%v err=%v; want a miss", hit, err)
	}
	// a cold set is left for Fill to rebuild
	if err := cache.Add(ctx, 42, 5); err != nil {
		t.Fatalf("Add on cold set: %v", err)
	}
	if mr.Exists(key) {
		t.Fatalf("Add created a partial set")
	}

	if err := cache.Fill(ctx, 42, nil); err != nil {
		t.Fatalf("Fill empty: %v", err)
	}
	saved, hit, err := cache.IsSaved(ctx, 42, 5)
	if err != nil || !hit || saved {
		t.Fatalf("empty warm set: saved=%v hit=%v err=%v", saved, hit, err)
	}

	if err := cache.Add(ctx, 42, 5); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if saved, hit, _ := cache.IsSaved(ctx, 42, 5); !saved || !hit {
		t.Fatalf("after Add: saved=%v hit=%v", saved, hit)
	}
	if err := cache.Remove(ctx, 42, 5); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if saved, hit, _ := cache.IsSaved(ctx, 42, 5); saved || !hit {
		t.Fatalf("after Remove: saved=%v hit=%v", saved, hit)
	}

	if err := cache.Fill(ctx, 42, []uint64{7, 8}); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	members, err := mr.Members(key)
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if diff := cmp.Diff([]string{"0", "7", "8"}, members); diff != "" {
		t.Fatalf("Fill must replace the set (-want +got):\n%s", diff)
	}
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Fatalf("TTL = %v, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, hit, _ := cache.IsSaved(ctx, 42, 7); hit {
		t.Fatalf("expired set still reported as warm")
	}
}

func TestDistLock_ReleaseOnlyByHolder(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newServer(t)
	lock := redis.NewDistLock(rdb, "outbox-relayer", 30*time.Second)
	const key = "lock:outbox-relayer"

	if ok, err := lock.Acquire(ctx, "a"); err != nil || !ok {
		t.Fatalf("first Acquire = %v, %v", ok, err)
	}
	if ok, err := lock.Acquire(ctx, "b"); err != nil || ok {
		t.Fatalf("second Acquire = %v, %v; want held", ok, err)
	}

	if err := lock.Release(ctx, "b"); err != nil {
		t.Fatalf("Release by non-holder: %v", err)
	}
	if got, _ := mr.Get(key); got != "a" {
		t.Fatalf("non-holder released the lock, key = %q", got)
	}
	if err := lock.Release(ctx, "a"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if mr.Exists(key) {
		t.Fatalf("holder release left the key behind")
	}

	if ok, _ := lock.Acquire(ctx, "b"); !ok {
		t.Fatalf("Acquire after release failed")
	}
	mr.FastForward(31 * time.Second)
	if ok, _ := lock.Acquire(ctx, "c"); !ok {
		t.Fatalf("expired lock was not reclaimable")
	}
}

func TestCategoryCache_RoundTripAndCorruption(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newServer(t)
	cache := redis.NewCategoryCacheRepository(rdb, 0)

	if _, hit, err := cache.Get(ctx); err != nil || hit {
		t.Fatalf("empty cache hit=%v err=%v", hit, err)
	}
	want := []model.Category{
		{ID: 1, Name: "Music Production", Active: true, SortOrder: 1},
		{ID: 2, Name: "Live Performance", Active: true, SortOrder: 2},
	}
	if err := cache.Set(ctx, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := cache.Get(ctx)
	if err != nil || !hit {
		t.Fatalf("Get hit=%v err=%v", hit, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cached list (-want +got):\n%s", diff)
	}
	if ttl := mr.TTL(redis.CategoryListKey); ttl != redis.CategoryListTTL {
		t.Fatalf("TTL = %v, want default %v", ttl, redis.CategoryListTTL)
	}

	if err := mr.Set(redis.CategoryListKey, "{not json"); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}
	if _, hit, err := cache.Get(ctx); err == nil || hit {
		t.Fatalf("corrupt entry hit=%v err=%v; want an error", hit, err)
	}
}
