// Package pool bounds outbound request concurrency with two layered
// semaphores: a global cap across all library systems, and a per-host cap
// keyed by system id. A task takes the per-host slot first, then the global
// slot, so one slow host cannot hold global capacity while queueing.
package pool

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/arguspanoptes/argus-server/internal/domain"
)

// Pool is the two-layer limiter. Waiters queue FIFO in each semaphore.
type Pool struct {
	global    *semaphore.Weighted
	perHost   *SyncMap[domain.LibrarySystemId, *semaphore.Weighted]
	hostSlots int64
}

// New creates a pool with the given global and per-host capacities.
func New(maxConcurrency, maxPerHost int) *Pool {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if maxPerHost < 1 {
		maxPerHost = 1
	}
	return &Pool{
		global:    semaphore.NewWeighted(int64(maxConcurrency)),
		perHost:   NewSyncMap[domain.LibrarySystemId, *semaphore.Weighted](),
		hostSlots: int64(maxPerHost),
	}
}

// Acquire blocks until both a per-host and a global slot are held, or ctx
// is done. On success the caller must invoke the returned release function
// exactly once.
func (p *Pool) Acquire(ctx context.Context, systemID domain.LibrarySystemId) (release func(), err error) {
	host := p.hostSemaphore(systemID)

	// Per-host first: a host at its cap waits here without consuming
	// global capacity.
	if err := host.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := p.global.Acquire(ctx, 1); err != nil {
		host.Release(1)
		return nil, err
	}

	return func() {
		p.global.Release(1)
		host.Release(1)
	}, nil
}

// TryAcquire takes both slots without blocking. It reports false when
// either layer is at capacity.
func (p *Pool) TryAcquire(systemID domain.LibrarySystemId) (release func(), ok bool) {
	host := p.hostSemaphore(systemID)
	if !host.TryAcquire(1) {
		return nil, false
	}
	if !p.global.TryAcquire(1) {
		host.Release(1)
		return nil, false
	}
	return func() {
		p.global.Release(1)
		host.Release(1)
	}, true
}

func (p *Pool) hostSemaphore(systemID domain.LibrarySystemId) *semaphore.Weighted {
	if sem, ok := p.perHost.Load(systemID); ok {
		return sem
	}
	sem, _ := p.perHost.LoadOrStore(systemID, semaphore.NewWeighted(p.hostSlots))
	return sem
}
