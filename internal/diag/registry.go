package diag

import (
	"fmt"
	"sync"
)

// Provider exposes a named set of diagnostic attributes. Attributes must be
// safe to call from any goroutine.
type Provider interface {
	Attributes() map[string]any
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func() map[string]any

// Attributes calls f().
func (f ProviderFunc) Attributes() map[string]any { return f() }

// Registry holds diagnostic providers by name. All methods are safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under the given name. The name must be unique.
func (r *Registry) Register(name string, p Provider) error {
	if name == "" {
		return ErrNameRequired
	}
	if p == nil {
		return ErrNilProvider
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; ok {
		return fmt.Errorf("%w: %s", ErrProviderRegistered, name)
	}
	r.providers[name] = p
	r.order = append(r.order, name)
	return nil
}

// Unregister removes the named provider. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return
	}
	delete(r.providers, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Names returns the registered provider names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Get returns the named provider's current attributes.
func (r *Registry) Get(name string) (map[string]any, bool) {
	r.mu.RLock()
	p, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return p.Attributes(), true
}

// Collect returns the attributes of every registered provider keyed by name.
func (r *Registry) Collect() map[string]map[string]any {
	r.mu.RLock()
	providers := make(map[string]Provider, len(r.providers))
	for name, p := range r.providers {
		providers[name] = p
	}
	r.mu.RUnlock()

	out := make(map[string]map[string]any, len(providers))
	for name, p := range providers {
		out[name] = p.Attributes()
	}
	return out
}
