package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestCacheWarmer_StoresAllPaths(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	var calls int32

	warmer := NewCacheWarmer(storage, func(_ context.Context, path string) (*CachedResponse, error) {
		atomic.AddInt32(&calls, 1)
		return sampleResponse(path), nil
	}, 2)

	paths := []string{"/", "/index.html", "/app.js"}
	if err := warmer.Warm(ctx, "v1", paths); err != nil {
		t.Fatalf("Expected warm to succeed, got %v", err)
	}

	if calls != int32(len(paths)) {
		t.Errorf("Expected %d fetches, got %d", len(paths), calls)
	}

	c := storage.open("v1")
	if c.len() != len(paths) {
		t.Errorf("Expected %d entries, got %d", len(paths), c.len())
	}
	got, err := c.Match(ctx, PathKey("/app.js"))
	if err != nil || string(got.Body) != "/app.js" {
		t.Errorf("Expected /app.js to be seeded, got %v, %v", got, err)
	}
}

func TestCacheWarmer_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	warmer := NewCacheWarmer(storage, func(_ context.Context, path string) (*CachedResponse, error) {
		if path == "/missing.css" {
			return nil, errors.New("status 404")
		}
		return sampleResponse(path), nil
	}, 0)

	err := warmer.Warm(ctx, "v1", []string{"/", "/missing.css", "/app.js"})
	if err == nil {
		t.Fatal("Expected warm to fail")
	}

	names, _ := storage.Keys(ctx)
	if len(names) != 0 {
		t.Errorf("Expected no generation to be created on failure, got %v", names)
	}
}

type flakyStorage struct {
	*MemoryStorage
	failAfter int
}

func (s *flakyStorage) Open(ctx context.Context, name string) (ResponseCache, error) {
	c, err := s.MemoryStorage.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &flakyCache{ResponseCache: c, remaining: s.failAfter}, nil
}

type flakyCache struct {
	ResponseCache
	remaining int
}

func (c *flakyCache) Put(ctx context.Context, key string, resp *CachedResponse) error {
	if c.remaining == 0 {
		return ErrCacheDown
	}
	c.remaining--
	return c.ResponseCache.Put(ctx, key, resp)
}

func TestCacheWarmer_FailedWriteDropsGeneration(t *testing.T) {
	ctx := context.Background()
	storage := &flakyStorage{MemoryStorage: NewMemoryStorage(), failAfter: 2}

	warmer := NewCacheWarmer(storage, func(_ context.Context, path string) (*CachedResponse, error) {
		return sampleResponse(path), nil
	}, 1)

	err := warmer.Warm(ctx, "v1", []string{"/", "/index.html", "/app.js"})
	if !errors.Is(err, ErrCacheDown) {
		t.Fatalf("Expected ErrCacheDown, got %v", err)
	}

	names, _ := storage.Keys(ctx)
	if len(names) != 0 {
		t.Errorf("Expected the partly seeded generation to be dropped, got %v", names)
	}
	if n := storage.open("v1").len(); n != 0 {
		t.Errorf("Expected no seeded entries, got %d", n)
	}
}
