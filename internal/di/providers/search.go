package providers

import (
	"github.com/samber/do/v2"

	"github.com/arguspanoptes/argus-server/internal/adapter"
	"github.com/arguspanoptes/argus-server/internal/cache"
	"github.com/arguspanoptes/argus-server/internal/config"
	"github.com/arguspanoptes/argus-server/internal/health"
	"github.com/arguspanoptes/argus-server/internal/logger"
	"github.com/arguspanoptes/argus-server/internal/pool"
	"github.com/arguspanoptes/argus-server/internal/registry"
	"github.com/arguspanoptes/argus-server/internal/retry"
	"github.com/arguspanoptes/argus-server/internal/search"
)

// ProvideHealthTracker provides the per-system health tracker.
func ProvideHealthTracker(i do.Injector) (*health.Tracker, error) {
	return health.NewTracker(), nil
}

// ProvidePool provides the two-layer outbound concurrency pool.
func ProvidePool(i do.Injector) (*pool.Pool, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return pool.New(cfg.Search.MaxConcurrency, cfg.Search.MaxPerHostConcurrency), nil
}

// ProvideSearchCache provides the per-ISBN result cache.
func ProvideSearchCache(i do.Injector) (*cache.SearchCache, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return cache.NewSearchCache(cfg.Search.CacheEnabled, cfg.Search.CacheSize, cfg.Search.CacheTTL), nil
}

// ProvideAdapterClient provides the shared outbound HTTP client.
func ProvideAdapterClient(i do.Injector) (*adapter.Client, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return adapter.NewClient(log), nil
}

// ProvideAdapterBase provides the shared adapter runtime (client, health
// recording, retry policy).
func ProvideAdapterBase(i do.Injector) (*adapter.Base, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*adapter.Client](i)
	tracker := do.MustInvoke[*health.Tracker](i)

	return adapter.NewBase(client, tracker, log, retry.Options{
		MaxRetries: cfg.Search.MaxRetries,
		BaseDelay:  cfg.Search.RetryBaseDelay,
	}), nil
}

// ProvideCoordinator provides the search coordinator with the adapter set
// built from the loaded registry.
func ProvideCoordinator(i do.Injector) (*search.Coordinator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	reg := do.MustInvoke[*registry.Registry](i)
	base := do.MustInvoke[*adapter.Base](i)
	p := do.MustInvoke[*pool.Pool](i)
	searchCache := do.MustInvoke[*cache.SearchCache](i)

	adapters := adapter.BuildRegistry(reg.All(), base)
	log.Info("Adapters built", "systems", reg.Len())

	return search.NewCoordinator(reg, adapters, p, searchCache, log, cfg.Search), nil
}
