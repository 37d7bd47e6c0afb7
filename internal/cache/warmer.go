package cache

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"
)

// FetchFunc retrieves the response to seed for one path.
type FetchFunc func(ctx context.Context, path string) (*CachedResponse, error)

// CacheWarmer seeds a generation with a fixed list of paths.
type CacheWarmer struct {
	storage        CacheStorage
	fetch          FetchFunc
	concurrentJobs int
}

func NewCacheWarmer(storage CacheStorage, fetch FetchFunc, concurrentJobs int) *CacheWarmer {
	if concurrentJobs <= 0 {
		concurrentJobs = 4
	}
	return &CacheWarmer{storage: storage, fetch: fetch, concurrentJobs: concurrentJobs}
}

// Warm fetches every path concurrently and stores the results in generation
// only if all of them succeeded. A failed write drops the generation so it is
// never left half seeded.
func (cw *CacheWarmer) Warm(ctx context.Context, generation string, paths []string) error {
	responses := make([]*CachedResponse, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cw.concurrentJobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			resp, err := cw.fetch(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to fetch %s: %w", path, err)
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c, err := cw.storage.Open(ctx, generation)
	if err != nil {
		return err
	}
	for i, path := range paths {
		if err := c.Put(ctx, PathKey(path), responses[i]); err != nil {
			if _, derr := cw.storage.Delete(ctx, generation); derr != nil {
				log.Printf("Failed to drop partly seeded cache %s: %v", generation, derr)
			}
			return fmt.Errorf("failed to store %s: %w", path, err)
		}
	}

	log.Printf("Cache %s seeded with %d assets", generation, len(paths))
	return nil
}
