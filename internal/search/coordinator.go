package search

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arguspanoptes/argus-server/internal/adapter"
	"github.com/arguspanoptes/argus-server/internal/cache"
	"github.com/arguspanoptes/argus-server/internal/config"
	"github.com/arguspanoptes/argus-server/internal/domain"
	domainerrors "github.com/arguspanoptes/argus-server/internal/errors"
	"github.com/arguspanoptes/argus-server/internal/isbn"
	"github.com/arguspanoptes/argus-server/internal/logger"
	"github.com/arguspanoptes/argus-server/internal/pool"
	"github.com/arguspanoptes/argus-server/internal/registry"
)

// Coordinator fans one ISBN out to every enabled system and assembles a
// SearchResult. The adapter registry is held behind an atomic pointer so a
// registry hot reload can swap it without pausing in-flight searches.
type Coordinator struct {
	registry *registry.Registry
	adapters atomic.Pointer[adapter.Registry]
	pool     *pool.Pool
	cache    *cache.SearchCache
	logger   *logger.Logger
	cfg      config.SearchConfig
}

// NewCoordinator wires the coordinator over its collaborators.
func NewCoordinator(
	reg *registry.Registry,
	adapters *adapter.Registry,
	p *pool.Pool,
	searchCache *cache.SearchCache,
	log *logger.Logger,
	cfg config.SearchConfig,
) *Coordinator {
	c := &Coordinator{
		registry: reg,
		pool:     p,
		cache:    searchCache,
		logger:   log,
		cfg:      cfg,
	}
	c.adapters.Store(adapters)
	return c
}

// SetAdapters installs a rebuilt adapter registry after a hot reload.
func (c *Coordinator) SetAdapters(adapters *adapter.Registry) {
	c.adapters.Store(adapters)
}

// Adapters returns the adapter registry currently in use.
func (c *Coordinator) Adapters() *adapter.Registry {
	return c.adapters.Load()
}

// Search returns the consolidated holdings for an ISBN. Cached results
// come back with FromCache set; concurrent searches for the same ISBN
// share one fan-out.
func (c *Coordinator) Search(ctx context.Context, query string, thirteen isbn.ISBN13, searchID string) (*domain.SearchResult, error) {
	result, hit, err := c.cache.GetOrCompute(ctx, thirteen, func(ctx context.Context) (*domain.SearchResult, error) {
		return c.run(ctx, query, thirteen, searchID)
	})
	if err != nil {
		return nil, err
	}
	if hit || result.SearchID != searchID {
		// Shallow copy so the shared value stays pristine; the caller
		// gets its own search id, and FromCache only when the result was
		// actually read out of the cache rather than computed on its
		// behalf by a coalesced fan-out.
		cp := *result
		cp.SearchID = searchID
		cp.FromCache = hit
		return &cp, nil
	}
	return result, nil
}

// fanout tracks shared mutable search state. closed stops late workers
// from touching the result after the global deadline has been accounted.
type fanout struct {
	mu      sync.Mutex
	closed  bool
	pending map[domain.LibrarySystemId]struct{}
	result  *domain.SearchResult
}

func (c *Coordinator) run(ctx context.Context, query string, thirteen isbn.ISBN13, searchID string) (*domain.SearchResult, error) {
	systems := c.registry.Systems()

	result := &domain.SearchResult{
		SearchID:        searchID,
		Query:           query,
		ISBN13:          thirteen,
		StartedAt:       time.Now().UTC(),
		SystemsSearched: len(systems),
	}

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.GlobalTimeout)
	defer cancel()

	state := &fanout{
		pending: make(map[domain.LibrarySystemId]struct{}, len(systems)),
		result:  result,
	}
	for _, s := range systems {
		state.pending[s.ID] = struct{}{}
	}

	adapters := c.adapters.Load()

	var wg sync.WaitGroup
	for i := range systems {
		system := systems[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.searchSystem(runCtx, thirteen, &system, adapters, state)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	deadlineHit := false
	select {
	case <-done:
	case <-runCtx.Done():
		deadlineHit = true
		cancel()
	}

	// Close the scaffold. Anything still pending is a timeout; workers
	// finishing after this point discard their outcome.
	state.mu.Lock()
	state.closed = true
	now := time.Now().UTC()
	for id := range state.pending {
		result.Errors = append(result.Errors, domain.SearchError{
			SystemID:  id,
			Type:      domainerrors.CodeTimeout.String(),
			Message:   "system did not complete before the search deadline",
			Timestamp: now,
		})
		result.SystemsTimedOut++
	}
	result.IsPartial = deadlineHit && result.SystemsTimedOut > 0
	state.mu.Unlock()

	Aggregate(result)
	result.CompletedAt = time.Now().UTC()

	c.logger.Info("search completed",
		"searchId", searchID,
		"isbn", thirteen,
		"systems", result.SystemsSearched,
		"succeeded", result.SystemsSucceeded,
		"failed", result.SystemsFailed,
		"timedOut", result.SystemsTimedOut,
		"holdings", len(result.Holdings),
		"partial", result.IsPartial,
	)
	return result, nil
}

// searchSystem runs one system's task: breaker gate, pool slots, the
// ordered adapter walk, and the scaffold update.
func (c *Coordinator) searchSystem(
	ctx context.Context,
	thirteen isbn.ISBN13,
	system *domain.LibrarySystem,
	adapters *adapter.Registry,
	state *fanout,
) {
	instances := adapters.Instances(system.ID)
	if len(instances) == 0 {
		c.finishSystem(state, system.ID, nil, []domain.SearchError{{
			SystemID:  system.ID,
			Type:      domainerrors.CodeConfiguration.String(),
			Message:   "no adapters configured",
			Timestamp: time.Now().UTC(),
		}})
		return
	}

	sysCtx, cancel := context.WithTimeout(ctx, c.cfg.PerSystemTimeout)
	defer cancel()

	release, err := c.pool.Acquire(sysCtx, system.ID)
	if err != nil {
		c.finishSystem(state, system.ID, nil, []domain.SearchError{{
			SystemID:  system.ID,
			Type:      domainerrors.CodeTimeout.String(),
			Message:   "gave up waiting for a request slot",
			Timestamp: time.Now().UTC(),
		}})
		return
	}
	defer release()

	var attemptErrors []domain.SearchError
	for _, inst := range instances {
		if !inst.Breaker.Allow() {
			attemptErrors = append(attemptErrors, domain.SearchError{
				SystemID:  system.ID,
				Protocol:  inst.Config.Protocol,
				Type:      domainerrors.CodeCircuitOpen.String(),
				Message:   "circuit breaker is open",
				Timestamp: time.Now().UTC(),
			})
			break
		}

		result, err := inst.Adapter.Search(sysCtx, thirteen, system)
		if err == nil {
			inst.Breaker.RecordSuccess()
			c.finishSystem(state, system.ID, result, attemptErrors)
			return
		}
		inst.Breaker.RecordFailure()

		code := domainerrors.CodeOf(err)
		attemptErrors = append(attemptErrors, domain.SearchError{
			SystemID:  system.ID,
			Protocol:  inst.Config.Protocol,
			Type:      code.String(),
			Message:   err.Error(),
			Timestamp: time.Now().UTC(),
		})

		// Only transport exhaustion and parse failures move on to a
		// fallback adapter. Auth and rate-limit failures would hit the
		// same wall again, so the walk stops.
		if code != domainerrors.CodeConnection && code != domainerrors.CodeTimeout && code != domainerrors.CodeParse {
			break
		}
	}

	c.finishSystem(state, system.ID, nil, attemptErrors)
}

// finishSystem applies one system's outcome to the scaffold, unless the
// search already closed.
func (c *Coordinator) finishSystem(
	state *fanout,
	systemID domain.LibrarySystemId,
	result *adapter.Result,
	attemptErrors []domain.SearchError,
) {
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.closed {
		return
	}
	delete(state.pending, systemID)

	state.result.Errors = append(state.result.Errors, attemptErrors...)
	if result != nil {
		state.result.Holdings = append(state.result.Holdings, result.Holdings...)
		state.result.SystemsSucceeded++
		return
	}
	state.result.SystemsFailed++
}
