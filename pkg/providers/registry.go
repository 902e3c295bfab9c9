package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry holds the capability objects of known providers, keyed by ID.
// The router consults it for declared features and cost estimates; a
// provider that is routed to but not registered is treated as having no
// declared features and unknown pricing.
//
// Registry is thread-safe and can be used concurrently.
type Registry struct {
	providers map[ProviderID]Provider
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[ProviderID]Provider),
	}
}

// Register adds a provider. A provider with the same ID is replaced.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return fmt.Errorf("provider cannot be nil")
	}
	id := p.ID()
	if id == "" {
		return &ValidationError{Field: "id", Message: "provider ID cannot be empty"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[id]; ok {
		slog.Warn("replacing registered provider", "provider", id)
	}
	r.providers[id] = p

	slog.Debug("provider registered",
		"provider", id,
		"features", p.Features().String(),
		"total_providers", len(r.providers),
	)

	return nil
}

// Unregister removes a provider. It reports whether the provider was present.
func (r *Registry) Unregister(id ProviderID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[id]; !ok {
		return false
	}
	delete(r.providers, id)
	return true
}

// Get returns a provider by ID.
func (r *Registry) Get(id ProviderID) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	return p, ok
}

// IDs returns all registered IDs in lexical order.
func (r *Registry) IDs() []ProviderID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ProviderID, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
