// Package cache provides an in-memory LRU cache with per-entry TTL, and a
// single-flight search-result cache built on top of it.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Memory is an LRU cache with per-entry absolute TTL. A get promotes the
// entry to most-recently-used; expired entries are removed lazily on read.
// The zero value is not usable; construct with NewMemory.
type Memory[K comparable, V any] struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	order      *list.List // front = most recently used
	entries    map[K]*list.Element
	now        func() time.Time
}

type memoryEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// NewMemory creates a cache holding at most maxEntries values, each living
// for ttl from the moment it was set.
func NewMemory[K comparable, V any](maxEntries int, ttl time.Duration) *Memory[K, V] {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Memory[K, V]{
		maxEntries: maxEntries,
		ttl:        ttl,
		order:      list.New(),
		entries:    make(map[K]*list.Element),
		now:        time.Now,
	}
}

// Get returns the value for key and promotes it to most-recently-used.
// Missing or expired keys report ok=false; an expired entry is removed.
func (c *Memory[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, found := c.entries[key]
	if !found {
		return value, false
	}
	entry := el.Value.(*memoryEntry[K, V])
	if c.now().After(entry.expiresAt) {
		c.removeLocked(el)
		return value, false
	}
	c.order.MoveToFront(el)
	return entry.value, true
}

// Set stores a value. Overwriting an existing key refreshes its TTL without
// changing size; inserting over capacity evicts the least-recently-used
// entry first.
func (c *Memory[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if el, found := c.entries[key]; found {
		entry := el.Value.(*memoryEntry[K, V])
		entry.value = value
		entry.expiresAt = expires
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.maxEntries {
		if oldest := c.order.Back(); oldest != nil {
			c.removeLocked(oldest)
		}
	}
	el := c.order.PushFront(&memoryEntry[K, V]{key: key, value: value, expiresAt: expires})
	c.entries[key] = el
}

// Delete removes a key if present.
func (c *Memory[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, found := c.entries[key]; found {
		c.removeLocked(el)
	}
}

// Len returns the number of entries, counting any not-yet-collected
// expired entries.
func (c *Memory[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge removes every entry.
func (c *Memory[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	clear(c.entries)
}

func (c *Memory[K, V]) removeLocked(el *list.Element) {
	entry := el.Value.(*memoryEntry[K, V])
	c.order.Remove(el)
	delete(c.entries, entry.key)
}
