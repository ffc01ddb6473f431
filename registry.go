// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlseed

import (
	"fmt"
	"sort"
	"sync"
)

// Resolver looks up named values such as populators and providers.
// Unknown names return an error matching ErrNotFound.
type Resolver interface {
	Resolve(name string) (any, error)
}

// ResolverFunc adapts an ordinary function to the Resolver interface.
type ResolverFunc func(name string) (any, error)

// Resolve calls f(name).
func (f ResolverFunc) Resolve(name string) (any, error) {
	return f(name)
}

// Registry is a Resolver backed by a map. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]any)}
}

// Register binds name to v. Names must be unique and non-empty.
func (r *Registry) Register(name string, v any) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrConfiguration)
	}
	if v == nil {
		return fmt.Errorf("%w: %q: nil value", ErrConfiguration, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %q already registered", ErrConfiguration, name)
	}
	r.entries[name] = v
	return nil
}

// Resolve implements Resolver.
func (r *Registry) Resolve(name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return v, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolvePopulator resolves name to a Populator.
func ResolvePopulator(r Resolver, name string) (Populator, error) {
	v, err := resolve(r, name)
	if err != nil {
		return nil, err
	}
	p, ok := v.(Populator)
	if !ok {
		return nil, fmt.Errorf("%w: %q is a %T, not a populator", ErrConfiguration, name, v)
	}
	return p, nil
}

// ResolveProvider resolves name to a Provider.
func ResolveProvider(r Resolver, name string) (Provider, error) {
	v, err := resolve(r, name)
	if err != nil {
		return nil, err
	}
	p, ok := v.(Provider)
	if !ok {
		return nil, fmt.Errorf("%w: %q is a %T, not a provider", ErrConfiguration, name, v)
	}
	return p, nil
}

func resolve(r Resolver, name string) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no resolver for %q: %w", ErrConfiguration, name, ErrNotFound)
	}
	v, err := r.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %q: %w", ErrConfiguration, name, err)
	}
	return v, nil
}
