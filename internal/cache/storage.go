package cache

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrCacheDown = errors.New("cache unavailable")
)

// CachedResponse is a stored copy of an upstream response.
type CachedResponse struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// Clone returns a deep copy so a stored entry is never shared with a caller.
func (r *CachedResponse) Clone() *CachedResponse {
	if r == nil {
		return nil
	}
	body := make([]byte, len(r.Body))
	copy(body, r.Body)
	return &CachedResponse{
		Status:   r.Status,
		Header:   r.Header.Clone(),
		Body:     body,
		StoredAt: r.StoredAt,
	}
}

// ResponseCache is one named cache generation.
type ResponseCache interface {
	Match(ctx context.Context, key string) (*CachedResponse, error)
	Put(ctx context.Context, key string, resp *CachedResponse) error
}

// CacheStorage manages the named generations.
type CacheStorage interface {
	Open(ctx context.Context, name string) (ResponseCache, error)
	Keys(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) (bool, error)
}

// RequestKey identifies a request within a generation.
func RequestKey(r *http.Request) string {
	return r.Method + " " + r.URL.RequestURI()
}

// PathKey is the key of a GET for path, used when seeding a generation.
func PathKey(path string) string {
	return http.MethodGet + " " + path
}
