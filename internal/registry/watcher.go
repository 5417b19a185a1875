package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arguspanoptes/argus-server/internal/logger"
)

// reloadDebounce coalesces bursts of file events (editors often write a
// config file several times in quick succession) into a single reload.
const reloadDebounce = 500 * time.Millisecond

// Watcher reloads the registry when YAML files in the config directory
// change. A failed reload keeps the previous system set.
type Watcher struct {
	dir      string
	loader   *Loader
	registry *Registry
	log      *logger.Logger

	watcher *fsnotify.Watcher

	// onReload runs after a successful reload, outside the event loop.
	onReload func(*Registry)

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a Watcher for the given directory.
func NewWatcher(dir string, loader *Loader, registry *Registry, log *logger.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:      dir,
		loader:   loader,
		registry: registry,
		log:      log,
		watcher:  fsw,
	}, nil
}

// OnReload registers a callback invoked after each successful reload.
// Set it before Start.
func (w *Watcher) OnReload(fn func(*Registry)) {
	w.onReload = fn
}

// Start processes events until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close()

	w.log.Info("watching registry directory", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !isYAML(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug("registry file event", "op", event.Op.String(), "path", event.Name)
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("registry watch error", "error", err)
		}
	}
}

// scheduleReload arms (or re-arms) the debounce timer.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDebounce, w.reload)
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) reload() {
	systems, err := w.loader.LoadDir(w.dir)
	if err != nil {
		w.log.WithError(err).Error("registry reload failed, keeping previous systems")
		return
	}

	w.registry.Replace(systems)
	w.log.Info("registry reloaded", "systems", len(systems))

	if w.onReload != nil {
		w.onReload(w.registry)
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
