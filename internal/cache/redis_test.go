package cache

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestDefaultCacheConfig(t *testing.T) {
	config := DefaultCacheConfig()

	if config.Addr != "localhost:6379" {
		t.Errorf("Expected Addr to be localhost:6379, got %s", config.Addr)
	}

	if config.PoolSize != 10 {
		t.Errorf("Expected PoolSize to be 10, got %d", config.PoolSize)
	}

	if config.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries to be 3, got %d", config.MaxRetries)
	}

	if config.DialTimeout != 5*time.Second {
		t.Errorf("Expected DialTimeout to be 5s, got %v", config.DialTimeout)
	}
}

func setupTestRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := NewRedisClient(&CacheConfig{
		Addr:         mr.Addr(),
		PoolSize:     10,
		MinIdleConns: 1,
		MaxRetries:   0,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisStorage(client), mr
}

func sampleResponse(body string) *CachedResponse {
	return &CachedResponse{
		Status:   http.StatusOK,
		Header:   http.Header{"Content-Type": []string{"text/css"}},
		Body:     []byte(body),
		StoredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRedisStorage_PutAndMatch(t *testing.T) {
	storage, mr := setupTestRedis(t)
	ctx := context.Background()

	c, err := storage.Open(ctx, "v1")
	if err != nil {
		t.Fatalf("Expected no error opening cache, got %v", err)
	}

	if _, err := c.Match(ctx, "GET /styles.css"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}

	if err := c.Put(ctx, "GET /styles.css", sampleResponse("body{}")); err != nil {
		t.Fatalf("Expected no error on put, got %v", err)
	}

	got, err := c.Match(ctx, "GET /styles.css")
	if err != nil {
		t.Fatalf("Expected hit, got %v", err)
	}
	if string(got.Body) != "body{}" || got.Header.Get("Content-Type") != "text/css" {
		t.Errorf("Unexpected cached response: %+v", got)
	}

	if !mr.Exists("sw:cache:v1:GET /styles.css") {
		t.Error("Expected entry under the generation prefix")
	}
}

func TestRedisStorage_KeysAndDelete(t *testing.T) {
	storage, mr := setupTestRedis(t)
	ctx := context.Background()

	for _, gen := range []string{"v2", "v1"} {
		c, err := storage.Open(ctx, gen)
		if err != nil {
			t.Fatalf("Failed to open %s: %v", gen, err)
		}
		if err := c.Put(ctx, "GET /app.js?x=[1]", sampleResponse(gen)); err != nil {
			t.Fatalf("Failed to put into %s: %v", gen, err)
		}
	}

	names, err := storage.Keys(ctx)
	if err != nil {
		t.Fatalf("Expected no error listing caches, got %v", err)
	}
	if len(names) != 2 || names[0] != "v1" || names[1] != "v2" {
		t.Errorf("Expected [v1 v2], got %v", names)
	}

	deleted, err := storage.Delete(ctx, "v1")
	if err != nil || !deleted {
		t.Fatalf("Expected v1 to be deleted, got %v, %v", deleted, err)
	}

	if mr.Exists("sw:cache:v1:GET /app.js?x=[1]") {
		t.Error("Expected v1 entries to be removed")
	}
	if !mr.Exists("sw:cache:v2:GET /app.js?x=[1]") {
		t.Error("Expected v2 entries to survive")
	}

	deleted, err = storage.Delete(ctx, "v1")
	if err != nil || deleted {
		t.Errorf("Expected second delete to report false, got %v, %v", deleted, err)
	}
}

func TestRedisStorage_Unavailable(t *testing.T) {
	storage, mr := setupTestRedis(t)
	ctx := context.Background()

	c, err := storage.Open(ctx, "v1")
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}

	mr.Close()

	if _, err := c.Match(ctx, "GET /"); !errors.Is(err, ErrCacheDown) {
		t.Errorf("Expected ErrCacheDown, got %v", err)
	}
	if err := storage.Health(ctx); err == nil {
		t.Error("Expected health check to fail")
	}
}

func TestRedisStorage_Stats(t *testing.T) {
	storage, _ := setupTestRedis(t)

	stats := storage.Stats()
	if _, ok := stats["pool_total"]; !ok {
		t.Error("Expected pool_total in stats")
	}
}

func TestTieredStorage_ReadsFillLocalTier(t *testing.T) {
	shared, mr := setupTestRedis(t)
	ctx := context.Background()

	seed, _ := shared.Open(ctx, "v1")
	if err := seed.Put(ctx, "GET /", sampleResponse("<html>")); err != nil {
		t.Fatalf("Failed to seed shared tier: %v", err)
	}

	tiered := NewTieredStorage(shared)
	c, err := tiered.Open(ctx, "v1")
	if err != nil {
		t.Fatalf("Failed to open tiered cache: %v", err)
	}

	if _, err := c.Match(ctx, "GET /"); err != nil {
		t.Fatalf("Expected hit from shared tier, got %v", err)
	}

	mr.Close()

	got, err := c.Match(ctx, "GET /")
	if err != nil {
		t.Fatalf("Expected local hit after shared tier went away, got %v", err)
	}
	if string(got.Body) != "<html>" {
		t.Errorf("Expected cached body, got %q", got.Body)
	}
}

func TestTieredStorage_DeleteDropsBothTiers(t *testing.T) {
	shared, _ := setupTestRedis(t)
	ctx := context.Background()
	tiered := NewTieredStorage(shared)

	c, _ := tiered.Open(ctx, "old")
	if err := c.Put(ctx, "GET /", sampleResponse("old")); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}

	deleted, err := tiered.Delete(ctx, "old")
	if err != nil || !deleted {
		t.Fatalf("Expected delete to succeed, got %v, %v", deleted, err)
	}

	names, err := tiered.Keys(ctx)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("Expected no generations, got %v", names)
	}

	reopened, _ := tiered.Open(ctx, "old")
	if _, err := reopened.Match(ctx, "GET /"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected miss after delete, got %v", err)
	}
}
