package cache

import (
	"context"
	"errors"
	"log"
	"sort"
)

// TieredStorage fronts a shared storage (redis) with a process-local copy.
// Reads fill the local tier; writes and deletes go to both.
type TieredStorage struct {
	l1 *MemoryStorage
	l2 CacheStorage
}

func NewTieredStorage(l2 CacheStorage) *TieredStorage {
	return &TieredStorage{l1: NewMemoryStorage(), l2: l2}
}

func (s *TieredStorage) Open(ctx context.Context, name string) (ResponseCache, error) {
	local := s.l1.open(name)
	if s.l2 == nil {
		return local, nil
	}

	shared, err := s.l2.Open(ctx, name)
	if err != nil {
		log.Printf("Shared cache unavailable, serving %s from local tier: %v", name, err)
		return local, nil
	}
	return &tieredCache{l1: local, l2: shared}, nil
}

func (s *TieredStorage) Keys(ctx context.Context) ([]string, error) {
	names, _ := s.l1.Keys(ctx)
	if s.l2 == nil {
		return names, nil
	}

	shared, err := s.l2.Keys(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(names)+len(shared))
	out := make([]string, 0, len(names)+len(shared))
	for _, name := range append(names, shared...) {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (s *TieredStorage) Delete(ctx context.Context, name string) (bool, error) {
	local, _ := s.l1.Delete(ctx, name)
	if s.l2 == nil {
		return local, nil
	}

	shared, err := s.l2.Delete(ctx, name)
	return local || shared, err
}

type tieredCache struct {
	l1 *memoryCache
	l2 ResponseCache
}

func (c *tieredCache) Match(ctx context.Context, key string) (*CachedResponse, error) {
	if resp, err := c.l1.Match(ctx, key); err == nil {
		return resp, nil
	}

	resp, err := c.l2.Match(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = c.l1.Put(ctx, key, resp)
	return resp, nil
}

func (c *tieredCache) Put(ctx context.Context, key string, resp *CachedResponse) error {
	if err := c.l2.Put(ctx, key, resp); err != nil {
		if !errors.Is(err, ErrCacheDown) {
			return err
		}
		log.Printf("Shared cache unavailable, keeping %s locally: %v", key, err)
	}
	return c.l1.Put(ctx, key, resp)
}
