package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/isbn"
)

// SearchCache maps normalized ISBNs to completed search results. Concurrent
// lookups for the same ISBN share one underlying computation via
// singleflight. With Enabled false every operation short-circuits.
type SearchCache struct {
	enabled bool
	store   *Memory[isbn.ISBN13, *domain.SearchResult]
	group   singleflight.Group
}

// NewSearchCache creates a search cache.
func NewSearchCache(enabled bool, maxEntries int, ttl time.Duration) *SearchCache {
	c := &SearchCache{enabled: enabled}
	if enabled {
		c.store = NewMemory[isbn.ISBN13, *domain.SearchResult](maxEntries, ttl)
	}
	return c
}

// Get returns a cached result, or nil on miss or when disabled.
func (c *SearchCache) Get(key isbn.ISBN13) *domain.SearchResult {
	if !c.enabled {
		return nil
	}
	if result, ok := c.store.Get(key); ok {
		return result
	}
	return nil
}

// Set stores a completed result. No-op when disabled.
func (c *SearchCache) Set(key isbn.ISBN13, result *domain.SearchResult) {
	if !c.enabled {
		return
	}
	c.store.Set(key, result)
}

// GetOrCompute returns the cached result for key, or runs compute. All
// concurrent callers for the same key share one compute invocation and
// receive the same result. The hit return is true only for values read
// out of the store; a fresh computation reports hit false for every
// caller it was shared with, since nothing was cached when they arrived.
//
// When the cache is disabled, single-flight coalescing still applies:
// identical in-flight searches are pointless to duplicate even without
// result reuse.
func (c *SearchCache) GetOrCompute(
	ctx context.Context,
	key isbn.ISBN13,
	compute func(ctx context.Context) (*domain.SearchResult, error),
) (result *domain.SearchResult, hit bool, err error) {
	if cached := c.Get(key); cached != nil {
		return cached, true, nil
	}

	v, err, _ := c.group.Do(string(key), func() (any, error) {
		res, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, res)
		return res, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*domain.SearchResult), false, nil
}
