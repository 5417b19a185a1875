package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/arguspanoptes/argus-server/internal/domain"
)

// Registry holds the currently loaded library systems. Reloads replace the
// whole set atomically so in-flight searches keep working against the
// snapshot they started with.
type Registry struct {
	mu       sync.RWMutex
	systems  []domain.LibrarySystem
	byID     map[domain.LibrarySystemId]*domain.LibrarySystem
	loadedAt time.Time
}

// New creates a Registry seeded with the given systems.
func New(systems []domain.LibrarySystem) *Registry {
	r := &Registry{}
	r.Replace(systems)
	return r
}

// Replace swaps in a new set of systems. The slice is copied and re-sorted
// by system id so callers can keep mutating their own copy.
func (r *Registry) Replace(systems []domain.LibrarySystem) {
	next := make([]domain.LibrarySystem, len(systems))
	copy(next, systems)
	sort.Slice(next, func(i, j int) bool { return next[i].ID < next[j].ID })

	byID := make(map[domain.LibrarySystemId]*domain.LibrarySystem, len(next))
	for i := range next {
		byID[next[i].ID] = &next[i]
	}

	r.mu.Lock()
	r.systems = next
	r.byID = byID
	r.loadedAt = time.Now()
	r.mu.Unlock()
}

// Systems returns the enabled systems, in id order.
func (r *Registry) Systems() []domain.LibrarySystem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.LibrarySystem, 0, len(r.systems))
	for _, s := range r.systems {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// All returns every loaded system, including disabled ones.
func (r *Registry) All() []domain.LibrarySystem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.LibrarySystem, len(r.systems))
	copy(out, r.systems)
	return out
}

// System looks up a system by id.
func (r *Registry) System(id domain.LibrarySystemId) (*domain.LibrarySystem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	cp := *s
	return &cp, true
}

// Len reports the number of loaded systems.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.systems)
}

// LoadedAt reports when the current set was installed.
func (r *Registry) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}
