// Package gateway fronts the static asset origin with a versioned,
// cache-first response cache that keeps the app usable offline.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"smart-task-list/internal/cache"
	"smart-task-list/internal/notify"
)

// NetworkErrorBody is the body of the synthetic response served when neither
// the cache nor the origin can answer.
const NetworkErrorBody = "Network error happened"

var ErrInstallFailed = errors.New("gateway install failed")

type Config struct {
	Version        string
	UpstreamOrigin string
	StaticAssets   []string
	Breaker        *cache.CircuitBreakerConfig
	SeedWorkers    int
}

// Gateway is the offline cache layer. Generation Version is the only one it
// reads from and writes to.
type Gateway struct {
	version  string
	origin   *url.URL
	assets   []string
	storage  cache.CacheStorage
	client   *http.Client
	breaker  *cache.CircuitBreaker
	metrics  *cache.CacheMetrics
	warmer   *cache.CacheWarmer
	notifier notify.Notifier
	center   *notify.Center
	now      func() time.Time

	controlling atomic.Bool
	offline     atomic.Bool
}

type Option func(*Gateway)

// WithHTTPClient replaces the client used to reach the origin.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) { g.client = client }
}

// WithNotifier routes push notifications through n instead of the center.
func WithNotifier(n notify.Notifier) Option {
	return func(g *Gateway) { g.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

func New(cfg Config, storage cache.CacheStorage, center *notify.Center, opts ...Option) (*Gateway, error) {
	if strings.TrimSpace(cfg.Version) == "" {
		return nil, fmt.Errorf("cache version is required")
	}

	origin, err := url.Parse(cfg.UpstreamOrigin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("invalid upstream origin %q", cfg.UpstreamOrigin)
	}
	if center == nil {
		center = notify.NewCenter(nil)
	}

	g := &Gateway{
		version:  cfg.Version,
		origin:   origin,
		assets:   append([]string(nil), cfg.StaticAssets...),
		storage:  storage,
		client:   http.DefaultClient,
		breaker:  cache.NewCircuitBreaker(cfg.Breaker),
		metrics:  cache.NewCacheMetrics(),
		center:   center,
		notifier: center,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.warmer = cache.NewCacheWarmer(storage, g.fetchAsset, cfg.SeedWorkers)

	return g, nil
}

func (g *Gateway) Version() string {
	return g.version
}

// Controlling reports whether Activate has completed.
func (g *Gateway) Controlling() bool {
	return g.controlling.Load()
}

// Online reports the outcome of the most recent origin request.
func (g *Gateway) Online() bool {
	return !g.offline.Load()
}

// Install seeds the current generation with every static asset. If any
// asset cannot be fetched with status 200 nothing is stored.
func (g *Gateway) Install(ctx context.Context) error {
	log.Printf("Caching static assets into %s", g.version)

	if err := g.warmer.Warm(ctx, g.version, g.assets); err != nil {
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}
	for range g.assets {
		g.metrics.RecordSet()
	}
	return nil
}

// Activate drops every generation other than the current one and then takes
// control of request handling.
func (g *Gateway) Activate(ctx context.Context) error {
	names, err := g.storage.Keys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cache generations: %w", err)
	}

	for _, name := range names {
		if name == g.version {
			continue
		}
		if _, err := g.storage.Delete(ctx, name); err != nil {
			return fmt.Errorf("failed to delete cache %s: %w", name, err)
		}
		g.metrics.RecordDelete()
		log.Printf("Deleted old cache %s", name)
	}

	g.controlling.Store(true)
	return nil
}

// Fetch answers r from the cache when possible and from the origin otherwise.
// It never returns an error: total failure yields a 408 response.
func (g *Gateway) Fetch(ctx context.Context, r *http.Request) *http.Response {
	key := cache.RequestKey(r)

	c, err := g.storage.Open(ctx, g.version)
	if err != nil {
		g.metrics.RecordError()
		log.Printf("Cache unavailable, going to network: %v", err)
		c = nil
	}

	if c != nil && r.Method == http.MethodGet {
		cached, err := c.Match(ctx, key)
		switch {
		case err == nil:
			g.metrics.RecordHit()
			return toResponse(cached, r)
		case errors.Is(err, cache.ErrCacheMiss):
			g.metrics.RecordMiss()
		default:
			g.metrics.RecordError()
			log.Printf("Cache lookup failed for %s: %v", key, err)
		}
	}

	resp, err := g.roundTrip(ctx, r)
	if err != nil {
		log.Printf("Network request failed for %s: %v", key, err)
		return networkError(r)
	}

	if r.Method != http.MethodGet || !g.cacheable(resp) {
		g.metrics.RecordUncacheable()
		return resp
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		g.markOffline(true)
		g.metrics.RecordNetworkError()
		log.Printf("Failed to read response for %s: %v", key, err)
		return networkError(r)
	}

	entry := &cache.CachedResponse{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: g.now(),
	}
	if c != nil {
		if err := c.Put(ctx, key, entry); err != nil {
			g.metrics.RecordError()
			log.Printf("Failed to cache %s: %v", key, err)
		} else {
			g.metrics.RecordSet()
		}
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp
}

// ServeHTTP writes the result of Fetch.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := g.Fetch(r.Context(), r)
	defer resp.Body.Close()

	for name, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Printf("Failed to write response for %s: %v", r.URL.Path, err)
	}
}

// cacheable reports a 200 response served by the origin itself, not one that
// was redirected to another origin.
func (g *Gateway) cacheable(resp *http.Response) bool {
	if resp.StatusCode != http.StatusOK {
		return false
	}
	if resp.Request == nil || resp.Request.URL == nil {
		return true
	}
	final := resp.Request.URL
	return final.Scheme == g.origin.Scheme && final.Host == g.origin.Host
}

func (g *Gateway) upstreamURL(r *http.Request) string {
	target := *g.origin
	target.Path = strings.TrimSuffix(g.origin.Path, "/") + r.URL.Path
	target.RawPath = ""
	target.RawQuery = r.URL.RawQuery
	return target.String()
}

// roundTrip forwards r to the origin through the circuit breaker. Only
// transport failures count against the breaker.
func (g *Gateway) roundTrip(ctx context.Context, r *http.Request) (*http.Response, error) {
	out, err := http.NewRequestWithContext(ctx, r.Method, g.upstreamURL(r), r.Body)
	if err != nil {
		return nil, err
	}
	out.Header = r.Header.Clone()
	out.ContentLength = r.ContentLength

	var resp *http.Response
	err = g.breaker.Execute(func() error {
		var doErr error
		resp, doErr = g.client.Do(out)
		return doErr
	})
	if err != nil {
		g.markOffline(true)
		g.metrics.RecordNetworkError()
		return nil, err
	}

	g.markOffline(false)
	return resp, nil
}

func (g *Gateway) fetchAsset(ctx context.Context, path string) (*cache.CachedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !g.cacheable(resp) {
		return nil, fmt.Errorf("unexpected response status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &cache.CachedResponse{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: g.now(),
	}, nil
}

func (g *Gateway) markOffline(offline bool) {
	if g.offline.Swap(offline) != offline {
		if offline {
			log.Println("Upstream unreachable, serving from cache")
		} else {
			log.Println("Upstream reachable again")
		}
	}
}

type Stats struct {
	Version     string                 `json:"version"`
	Controlling bool                   `json:"controlling"`
	Online      bool                   `json:"online"`
	Metrics     cache.CacheMetrics     `json:"metrics"`
	HitRate     float64                `json:"hit_rate"`
	Breaker     map[string]interface{} `json:"breaker"`
	Generations []string               `json:"generations,omitempty"`
}

func (g *Gateway) Stats(ctx context.Context) Stats {
	stats := Stats{
		Version:     g.version,
		Controlling: g.Controlling(),
		Online:      g.Online(),
		Metrics:     g.metrics.GetStats(),
		HitRate:     g.metrics.HitRate(),
		Breaker:     g.breaker.GetStats(),
	}

	if names, err := g.storage.Keys(ctx); err == nil {
		stats.Generations = names
	}
	return stats
}

func toResponse(cached *cache.CachedResponse, r *http.Request) *http.Response {
	header := cached.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Length", strconv.Itoa(len(cached.Body)))

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", cached.Status, http.StatusText(cached.Status)),
		StatusCode:    cached.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(cached.Body)),
		ContentLength: int64(len(cached.Body)),
		Request:       r,
	}
}

func networkError(r *http.Request) *http.Response {
	return toResponse(&cache.CachedResponse{
		Status: http.StatusRequestTimeout,
		Header: http.Header{"Content-Type": []string{"text/plain"}},
		Body:   []byte(NetworkErrorBody),
	}, r)
}
