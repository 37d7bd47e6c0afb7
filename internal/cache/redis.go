package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix      = "sw:cache:"
	generationsKey = keyPrefix + "generations"
)

type CacheConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func NewRedisClient(config *CacheConfig) *redis.Client {
	if config == nil {
		config = DefaultCacheConfig()
	}

	return redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})
}

// RedisStorage stores each generation's entries under sw:cache:<gen>:<key>.
// The generation names live in a set, and each generation keeps an index set
// of its entry keys so it can be dropped without a KEYS scan.
type RedisStorage struct {
	client *redis.Client
}

func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

func entryKey(generation, key string) string {
	return keyPrefix + generation + ":" + key
}

func indexKey(generation string) string {
	return keyPrefix + "index:" + generation
}

func (s *RedisStorage) Open(ctx context.Context, name string) (ResponseCache, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := s.client.SAdd(ctx, generationsKey, name).Err(); err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", name, err)
	}
	return &redisCache{client: s.client, generation: name}, nil
}

func (s *RedisStorage) Keys(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	names, err := s.client.SMembers(ctx, generationsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list caches: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisStorage) Delete(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	removed, err := s.client.SRem(ctx, generationsKey, name).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete cache %s: %w", name, err)
	}

	members, err := s.client.SMembers(ctx, indexKey(name)).Result()
	if err != nil {
		return removed > 0, fmt.Errorf("failed to read cache index %s: %w", name, err)
	}

	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, entryKey(name, m))
	}
	keys = append(keys, indexKey(name))

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return removed > 0, fmt.Errorf("failed to delete cache entries %s: %w", name, err)
	}
	return removed > 0, nil
}

func (s *RedisStorage) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return s.client.Ping(ctx).Err()
}

func (s *RedisStorage) Stats() map[string]interface{} {
	poolStats := s.client.PoolStats()

	return map[string]interface{}{
		"pool_hits":     poolStats.Hits,
		"pool_misses":   poolStats.Misses,
		"pool_timeouts": poolStats.Timeouts,
		"pool_total":    poolStats.TotalConns,
		"pool_idle":     poolStats.IdleConns,
		"pool_stale":    poolStats.StaleConns,
	}
}

type redisCache struct {
	client     *redis.Client
	generation string
}

func (c *redisCache) Match(ctx context.Context, key string) (*CachedResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	data, err := c.client.Get(ctx, entryKey(c.generation, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: %v", ErrCacheDown, err)
	}

	var resp CachedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached response: %w", err)
	}
	return &resp, nil
}

func (c *redisCache) Put(ctx context.Context, key string, resp *CachedResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, entryKey(c.generation, key), data, 0)
	pipe.SAdd(ctx, indexKey(c.generation), key)
	pipe.SAdd(ctx, generationsKey, c.generation)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheDown, err)
	}
	return nil
}
