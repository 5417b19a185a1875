package adapter

import (
	"github.com/arguspanoptes/argus-server/internal/breaker"
	"github.com/arguspanoptes/argus-server/internal/domain"
)

// Instance pairs one constructed adapter with its circuit breaker. The
// breaker lives here because its state is per endpoint, not per system.
type Instance struct {
	Adapter Adapter
	Breaker *breaker.Breaker
	Config  domain.AdapterConfig
}

// Registry maps each system to its ordered adapter instances, primary
// first. It is built once from the library registry and never mutated;
// a hot reload builds a replacement wholesale.
type Registry struct {
	instances map[domain.LibrarySystemId][]*Instance
}

// BuildRegistry constructs adapter instances for every adapter config of
// every system. Protocols are matched with a closed switch; the library
// registry has already rejected unknown ones.
func BuildRegistry(systems []domain.LibrarySystem, base *Base) *Registry {
	r := &Registry{instances: make(map[domain.LibrarySystemId][]*Instance, len(systems))}
	for _, system := range systems {
		for _, cfg := range system.Adapters {
			a := newAdapter(base, cfg)
			if a == nil {
				continue
			}
			r.instances[system.ID] = append(r.instances[system.ID], &Instance{
				Adapter: a,
				Breaker: breaker.New(breaker.DefaultFailureThreshold, breaker.DefaultResetTimeout),
				Config:  cfg,
			})
		}
	}
	return r
}

// Instances returns the ordered adapter instances for a system, primary
// first. Callers must not mutate the returned slice.
func (r *Registry) Instances(systemID domain.LibrarySystemId) []*Instance {
	return r.instances[systemID]
}

// Primary returns the first adapter instance for a system, or nil.
func (r *Registry) Primary(systemID domain.LibrarySystemId) *Instance {
	if list := r.instances[systemID]; len(list) > 0 {
		return list[0]
	}
	return nil
}

func newAdapter(base *Base, cfg domain.AdapterConfig) Adapter {
	switch cfg.Protocol {
	case domain.ProtocolSRU:
		return NewSRU(base, cfg)
	case domain.ProtocolKoha:
		return NewKoha(base, cfg)
	case domain.ProtocolEnterprise:
		return NewEnterprise(base, cfg)
	case domain.ProtocolBiblioCommons:
		return NewBiblioCommons(base, cfg)
	case domain.ProtocolAtriuum:
		return NewAtriuum(base, cfg)
	case domain.ProtocolSpydus:
		return NewSpydus(base, cfg)
	case domain.ProtocolAspen:
		return NewAspen(base, cfg)
	case domain.ProtocolTLC:
		return NewTLC(base, cfg)
	case domain.ProtocolApollo:
		return NewApollo(base, cfg)
	case domain.ProtocolSierra:
		return NewSierra(base, cfg)
	case domain.ProtocolPolaris:
		return NewPolaris(base, cfg)
	}
	return nil
}
