package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(maxEntries int, ttl time.Duration) (*Memory[string, int], *time.Time) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemory[string, int](maxEntries, ttl)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMemoryGetSet(t *testing.T) {
	c, _ := newTestMemory(4, time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryLRUEviction(t *testing.T) {
	c, _ := newTestMemory(2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	// Touch "a" so "b" becomes least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", 3)
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestMemoryTTLExpiry(t *testing.T) {
	c, now := newTestMemory(4, time.Minute)

	c.Set("a", 1)
	*now = now.Add(59 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok)

	*now = now.Add(2 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry past its TTL")
	assert.Equal(t, 0, c.Len(), "expired entry removed on read")
}

func TestMemorySetRefreshesTTL(t *testing.T) {
	c, now := newTestMemory(4, time.Minute)

	c.Set("a", 1)
	*now = now.Add(45 * time.Second)
	c.Set("a", 2)
	*now = now.Add(45 * time.Second)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryDeleteAndPurge(t *testing.T) {
	c, _ := newTestMemory(4, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("b")
	assert.False(t, ok)
}
