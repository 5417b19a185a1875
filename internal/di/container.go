// Package di provides dependency injection configuration for the Argus server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/arguspanoptes/argus-server/internal/adapter"
	"github.com/arguspanoptes/argus-server/internal/cache"
	"github.com/arguspanoptes/argus-server/internal/config"
	"github.com/arguspanoptes/argus-server/internal/di/providers"
	"github.com/arguspanoptes/argus-server/internal/health"
	"github.com/arguspanoptes/argus-server/internal/logger"
	"github.com/arguspanoptes/argus-server/internal/pool"
	"github.com/arguspanoptes/argus-server/internal/registry"
	"github.com/arguspanoptes/argus-server/internal/search"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Library registry
	do.Provide(injector, providers.ProvideRegistry)

	// Search layer
	do.Provide(injector, providers.ProvideHealthTracker)
	do.Provide(injector, providers.ProvidePool)
	do.Provide(injector, providers.ProvideSearchCache)
	do.Provide(injector, providers.ProvideAdapterClient)
	do.Provide(injector, providers.ProvideAdapterBase)
	do.Provide(injector, providers.ProvideCoordinator)

	// Workers
	do.Provide(injector, providers.ProvideRegistryWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*registry.Registry](injector)
	_ = do.MustInvoke[*health.Tracker](injector)
	_ = do.MustInvoke[*pool.Pool](injector)
	_ = do.MustInvoke[*cache.SearchCache](injector)
	_ = do.MustInvoke[*adapter.Client](injector)
	_ = do.MustInvoke[*adapter.Base](injector)
	_ = do.MustInvoke[*search.Coordinator](injector)
	_ = do.MustInvoke[*providers.RegistryWatcherHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
