package component

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Factory builds a plugin component. It returns a nil Component when the
// plugin is disabled in the configuration.
type Factory func(deps Dependencies) (Component, error)

type plugin struct {
	namespace string
	factory   Factory
}

// Registry holds plugin factories keyed by their config namespace.
type Registry struct {
	mu      sync.RWMutex
	plugins []plugin
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a factory. Namespaces are unique; registering one twice is a
// programming error and panics.
func (r *Registry) Register(namespace string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, found := slices.BinarySearchFunc(r.plugins, namespace, func(p plugin, ns string) int {
		return strings.Compare(p.namespace, ns)
	})
	if found {
		panic(fmt.Sprintf("plugin %s already registered", namespace))
	}
	r.plugins = slices.Insert(r.plugins, i, plugin{namespace: namespace, factory: factory})
}

// Namespaces lists registered plugins in load order.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		out[i] = p.namespace
	}
	return out
}

// Load instantiates every plugin in namespace order. Disabled plugins are
// left out of the result.
func (r *Registry) Load(deps Dependencies) ([]Component, error) {
	r.mu.RLock()
	plugins := slices.Clone(r.plugins)
	r.mu.RUnlock()

	var components []Component
	for _, p := range plugins {
		comp, err := p.factory(deps)
		if err != nil {
			return nil, fmt.Errorf("create plugin %s: %w", p.namespace, err)
		}
		if comp != nil {
			components = append(components, comp)
		}
	}
	return components, nil
}

var plugins = NewRegistry()

// Register adds a factory to the process-wide registry. Plugins call it from
// init.
func Register(namespace string, factory Factory) {
	plugins.Register(namespace, factory)
}

func Plugins() []string {
	return plugins.Namespaces()
}

func LoadAll(deps Dependencies) ([]Component, error) {
	return plugins.Load(deps)
}
