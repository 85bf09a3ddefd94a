// Package config provides a service registry and human-readable pipeline configuration.
package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dcshock/servicepipe/pipeline"
)

// Registry maps names to services. Safe for concurrent use.
type Registry[S any] struct {
	mu       sync.RWMutex
	services map[string]pipeline.Service[S]
}

// NewRegistry returns an empty service registry.
func NewRegistry[S any]() *Registry[S] {
	return &Registry[S]{services: make(map[string]pipeline.Service[S])}
}

// Register adds a service under the given name. Overwrites any existing registration.
func (r *Registry[S]) Register(name string, svc pipeline.Service[S]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.services == nil {
		r.services = make(map[string]pipeline.Service[S])
	}
	r.services[name] = svc
}

// Get returns the service for name, or nil and false if not found.
func (r *Registry[S]) Get(name string) (pipeline.Service[S], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.services[name]
	return s, ok
}

// MustGet returns the service for name, or panics if not found.
func (r *Registry[S]) MustGet(name string) pipeline.Service[S] {
	s, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("config: service %q not registered", name))
	}
	return s
}

// Names returns all registered service names, sorted.
func (r *Registry[S]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.services)
}

// ObserverRegistry maps names to observers so pipeline configs can refer to
// them. Safe for concurrent use.
type ObserverRegistry struct {
	mu        sync.RWMutex
	observers map[string]pipeline.Observer
}

// NewObserverRegistry returns an empty observer registry.
func NewObserverRegistry() *ObserverRegistry {
	return &ObserverRegistry{observers: make(map[string]pipeline.Observer)}
}

// Register adds an observer under the given name. Overwrites any existing registration.
func (r *ObserverRegistry) Register(name string, obs pipeline.Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.observers == nil {
		r.observers = make(map[string]pipeline.Observer)
	}
	r.observers[name] = obs
}

// Get returns the observer for name.
func (r *ObserverRegistry) Get(name string) (pipeline.Observer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.observers[name]
	return o, ok
}

// Names returns all registered observer names, sorted.
func (r *ObserverRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.observers)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
