package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/errors"
)

const testISBN = "9780306406157"

func TestSearchCacheHit(t *testing.T) {
	c := NewSearchCache(true, 10, time.Minute)

	calls := 0
	compute := func(context.Context) (*domain.SearchResult, error) {
		calls++
		return &domain.SearchResult{ISBN13: testISBN}, nil
	}

	result, hit, err := c.GetOrCompute(context.Background(), testISBN, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, calls)
	require.NotNil(t, result)

	result, hit, err = c.GetOrCompute(context.Background(), testISBN, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, calls, "second lookup served from cache")
	assert.Equal(t, domain.SearchResult{ISBN13: testISBN}, *result)
}

func TestSearchCacheErrorNotCached(t *testing.T) {
	c := NewSearchCache(true, 10, time.Minute)

	calls := 0
	_, _, err := c.GetOrCompute(context.Background(), testISBN, func(context.Context) (*domain.SearchResult, error) {
		calls++
		return nil, errors.SearchTimeout("fan-out deadline")
	})
	require.Error(t, err)

	_, hit, err := c.GetOrCompute(context.Background(), testISBN, func(context.Context) (*domain.SearchResult, error) {
		calls++
		return &domain.SearchResult{ISBN13: testISBN}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls, "failed searches are recomputed")
}

func TestSearchCacheSingleFlight(t *testing.T) {
	c := NewSearchCache(true, 10, time.Minute)

	var calls atomic.Int32
	gate := make(chan struct{})
	compute := func(context.Context) (*domain.SearchResult, error) {
		calls.Add(1)
		<-gate
		return &domain.SearchResult{ISBN13: testISBN}, nil
	}

	var wg sync.WaitGroup
	results := make([]*domain.SearchResult, 8)
	hits := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res, hit, err := c.GetOrCompute(context.Background(), testISBN, compute)
			assert.NoError(t, err)
			results[n] = res
			hits[n] = hit
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent identical searches share one computation")
	for n, res := range results {
		assert.Same(t, results[0], res)
		assert.False(t, hits[n], "a coalesced computation is not a cache hit")
	}
}

func TestSearchCacheDisabled(t *testing.T) {
	c := NewSearchCache(false, 10, time.Minute)

	calls := 0
	compute := func(context.Context) (*domain.SearchResult, error) {
		calls++
		return &domain.SearchResult{ISBN13: testISBN}, nil
	}

	_, hit, err := c.GetOrCompute(context.Background(), testISBN, compute)
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = c.GetOrCompute(context.Background(), testISBN, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls, "disabled cache recomputes every time")

	assert.Nil(t, c.Get(testISBN))
	c.Set(testISBN, &domain.SearchResult{})
	assert.Nil(t, c.Get(testISBN))
}
