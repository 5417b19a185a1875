package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/arguspanoptes/argus-server/internal/adapter"
	"github.com/arguspanoptes/argus-server/internal/config"
	"github.com/arguspanoptes/argus-server/internal/logger"
	"github.com/arguspanoptes/argus-server/internal/registry"
	"github.com/arguspanoptes/argus-server/internal/search"
)

// ProvideRegistry loads all library system documents at startup.
func ProvideRegistry(i do.Injector) (*registry.Registry, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	loader := registry.NewLoader(log)
	systems, err := loader.LoadDir(cfg.Registry.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load library registry from %s: %w", cfg.Registry.Path, err)
	}
	if len(systems) == 0 {
		return nil, fmt.Errorf("no library systems found in %s", cfg.Registry.Path)
	}

	reg := registry.New(systems)
	log.Info("Library registry loaded", "systems", reg.Len(), "enabled", len(reg.Systems()))

	return reg, nil
}

// RegistryWatcherHandle wraps the registry watcher with shutdown capability.
type RegistryWatcherHandle struct {
	*registry.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *RegistryWatcherHandle) Shutdown() error {
	if h.cancel != nil {
		h.cancel()
	}
	return nil
}

// ProvideRegistryWatcher provides the hot-reload watcher for the registry
// directory. When reload succeeds the adapter set is rebuilt so new and
// changed systems take effect without a restart.
func ProvideRegistryWatcher(i do.Injector) (*RegistryWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Registry.Watch {
		log.Info("Registry hot reload disabled")
		return &RegistryWatcherHandle{}, nil
	}

	reg := do.MustInvoke[*registry.Registry](i)
	base := do.MustInvoke[*adapter.Base](i)
	coordinator := do.MustInvoke[*search.Coordinator](i)

	loader := registry.NewLoader(log)
	w, err := registry.NewWatcher(cfg.Registry.Path, loader, reg, log)
	if err != nil {
		return nil, err
	}

	w.OnReload(func(r *registry.Registry) {
		coordinator.SetAdapters(adapter.BuildRegistry(r.All(), base))
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := w.Start(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("Registry watcher stopped")
		}
	}()

	return &RegistryWatcherHandle{Watcher: w, cancel: cancel}, nil
}
