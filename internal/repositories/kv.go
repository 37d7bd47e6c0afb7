package repositories

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("repositories: key not found")

// Well-known keys of the durable local state.
const (
	KeyTasks                  = "tasks"
	KeyNotificationsEnabled   = "notificationsEnabled"
	KeyNotificationPermission = "notificationPermission"
)

// KeyValueStore is string-keyed durable storage. GetItem returns ErrNotFound
// for keys that were never set or have been removed.
type KeyValueStore interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	Close() error
}

type MemoryKeyValueStore struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryKeyValueStore() *MemoryKeyValueStore {
	return &MemoryKeyValueStore{items: make(map[string]string)}
}

func (s *MemoryKeyValueStore) GetItem(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryKeyValueStore) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = value
	return nil
}

func (s *MemoryKeyValueStore) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

func (s *MemoryKeyValueStore) Close() error {
	return nil
}
