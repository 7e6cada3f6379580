// registry.go resolves handler names to live handler instances.
package macro

import (
	"fmt"
	"sort"
)

// ModelLoader produces the domain object a handler works on, looked up by the
// handler's name.
type ModelLoader interface {
	LoadModel(name string) (any, error)
}

// ModelLoaderFunc adapts a function to ModelLoader.
type ModelLoaderFunc func(name string) (any, error)

func (f ModelLoaderFunc) LoadModel(name string) (any, error) {
	return f(name)
}

// Registry maps handler names to factories and caches the instances it builds
// until Reset. A Registry is not safe for concurrent use: give each
// concurrent expansion its own copy with Fork.
type Registry struct {
	factories map[string]Factory
	instances map[string]Handler
	loader    ModelLoader
}

// RegistryOption configures a Registry.
type RegistryOption func(r *Registry)

// WithModelLoader sets the loader handlers reach through Base.Model.
func WithModelLoader(l ModelLoader) RegistryOption {
	return func(r *Registry) {
		r.loader = l
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]Handler),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register adds a factory under name. Names are case-sensitive and may only
// be registered once.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("macro name must not be empty")
	}
	if f == nil {
		return fmt.Errorf("macro '%s' has a nil factory", name)
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("macro '%s' is already registered", name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Load returns the cached instance for name, constructing it on first use.
func (r *Registry) Load(name string) (Handler, error) {
	if h, ok := r.instances[name]; ok {
		return h, nil
	}

	f, ok := r.factories[name]
	if !ok {
		return nil, &Error{Kind: KindMissingHandler, Name: name}
	}

	h, err := f(r)
	if err != nil {
		return nil, &Error{Kind: KindMissingHandler, Name: name, Err: err}
	}
	r.instances[name] = h
	return h, nil
}

// Reset discards every cached instance.
func (r *Registry) Reset() {
	clear(r.instances)
}

// Fork returns a Registry sharing r's factories and loader with an empty
// instance cache. Factories must not be registered on either copy afterwards.
func (r *Registry) Fork() *Registry {
	return &Registry{
		factories: r.factories,
		instances: make(map[string]Handler),
		loader:    r.loader,
	}
}

// Has reports whether a factory is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	return sortedKeys(r.factories)
}

// Loaded returns the names of the currently cached instances, sorted.
func (r *Registry) Loaded() []string {
	return sortedKeys(r.instances)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
