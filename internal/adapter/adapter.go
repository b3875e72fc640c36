// Package adapter provides a uniform call contract over heterogeneous
// answer-generating backends. Each backend family gets one adapter;
// the dispatcher never branches on provider specifics.
package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// Adapter is the uniform contract for one backend family.
// Generate must honor ctx and return a timeout failure on deadline
// expiry rather than blocking past it.
type Adapter interface {
	// Generate sends a prompt to the model and returns the response.
	Generate(ctx context.Context, model string, prompt string) (*models.Response, error)

	// Name returns the adapter family identifier.
	Name() string
}

// Registry maps adapter family names to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its family name.
// Registering a duplicate name replaces the previous adapter.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Get returns the adapter for a family name.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for %q", name)
	}
	return a, nil
}

// Names returns the registered family names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
