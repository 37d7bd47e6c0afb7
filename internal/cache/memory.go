package cache

import (
	"context"
	"sort"
	"sync"
)

// MemoryStorage keeps generations in process memory.
type MemoryStorage struct {
	mu          sync.RWMutex
	generations map[string]*memoryCache
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{generations: make(map[string]*memoryCache)}
}

func (s *MemoryStorage) Open(_ context.Context, name string) (ResponseCache, error) {
	return s.open(name), nil
}

func (s *MemoryStorage) open(name string) *memoryCache {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.generations[name]
	if !ok {
		c = &memoryCache{entries: make(map[string]*CachedResponse)}
		s.generations[name] = c
	}
	return c
}

func (s *MemoryStorage) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.generations))
	for name := range s.generations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.generations[name]; !ok {
		return false, nil
	}
	delete(s.generations, name)
	return true, nil
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*CachedResponse
}

func (c *memoryCache) Match(_ context.Context, key string) (*CachedResponse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resp, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return resp.Clone(), nil
}

func (c *memoryCache) Put(_ context.Context, key string, resp *CachedResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = resp.Clone()
	return nil
}

func (c *memoryCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
