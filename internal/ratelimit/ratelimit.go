// Package ratelimit provides a keyed fixed-window rate limiter for inbound
// search requests. Each key (client address) gets an independent window;
// over-limit callers learn how long until the window resets so the HTTP
// layer can emit a Retry-After header.
package ratelimit

import (
	"sync"
	"time"
)

// KeyedLimiter counts requests per key inside fixed windows.
type KeyedLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*bucket
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	windowStart time.Time
	count       int
}

// New creates a limiter allowing limit requests per key per window.
func New(limit int, window time.Duration) *KeyedLimiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	kl := &KeyedLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
		done:    make(chan struct{}),
	}

	go kl.cleanup()

	return kl
}

// Allow reports whether a request for key fits in the current window. When
// it does not, retryAfter is the time remaining until the window resets,
// rounded up to whole seconds for the Retry-After header.
func (kl *KeyedLimiter) Allow(key string) (allowed bool, retryAfter time.Duration) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	now := kl.now()
	b, ok := kl.buckets[key]
	if !ok || now.Sub(b.windowStart) >= kl.window {
		kl.buckets[key] = &bucket{windowStart: now, count: 1}
		return true, 0
	}

	if b.count < kl.limit {
		b.count++
		return true, 0
	}

	remaining := kl.window - now.Sub(b.windowStart)
	// Round up so the client never retries inside the same window.
	secs := (remaining + time.Second - 1) / time.Second * time.Second
	return false, secs
}

// Stop shuts down the cleanup goroutine.
func (kl *KeyedLimiter) Stop() {
	kl.stopOnce.Do(func() {
		close(kl.done)
	})
}

// cleanup drops stale buckets so the key map cannot grow without bound.
func (kl *KeyedLimiter) cleanup() {
	ticker := time.NewTicker(kl.window)
	defer ticker.Stop()
	for {
		select {
		case <-kl.done:
			return
		case <-ticker.C:
			kl.mu.Lock()
			cutoff := kl.now().Add(-2 * kl.window)
			for key, b := range kl.buckets {
				if b.windowStart.Before(cutoff) {
					delete(kl.buckets, key)
				}
			}
			kl.mu.Unlock()
		}
	}
}
