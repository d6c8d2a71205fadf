package tiles

import (
	"context"
	"fmt"
	"image"

	"github.com/pmav99/thalassa/internal/lru"
	"github.com/pmav99/thalassa/internal/observability"
)

// CachedFetcher wraps a Fetcher with an in-memory LRU cache.
type CachedFetcher struct {
	inner   Fetcher
	cache   *lru.Cache[image.Image]
	metrics *observability.Metrics
}

// NewCachedFetcher creates a cache decorator around a tile fetcher.
func NewCachedFetcher(inner Fetcher, maxEntries int, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		cache:   lru.New[image.Image](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, z, x, y uint32) (image.Image, error) {
	key := fmt.Sprintf("%d/%d/%d", z, x, y)
	if img, ok := c.cache.Get(key); ok {
		c.metrics.TileCache.WithLabelValues("hit").Inc()
		return img, nil
	}
	c.metrics.TileCache.WithLabelValues("miss").Inc()
	img, err := c.inner.Fetch(ctx, z, x, y)
	if err != nil {
		return nil, err
	}
	c.cache.Put(key, img)
	return img, nil
}
