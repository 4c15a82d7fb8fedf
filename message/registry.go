package message

import (
	"fmt"
	"sort"
	"sync"

	"github.com/santif/openid/ax"
	"github.com/santif/openid/extension"
	"github.com/santif/openid/observability"
	"github.com/santif/openid/sreg"
)

// FactoryConstructor builds an extension factory.
// It is called once at registration and again on every lookup.
type FactoryConstructor func() (extension.Factory, error)

// BuiltinFactories returns the constructors seeded into every new Registry
func BuiltinFactories() []FactoryConstructor {
	return []FactoryConstructor{
		func() (extension.Factory, error) { return ax.NewFactory(), nil },
		func() (extension.Factory, error) { return sreg.NewFactory(), nil },
	}
}

// Registry maps extension type URIs to factory constructors.
// It is safe for concurrent use; populating it at startup and sharing it
// read-only afterwards is the intended pattern.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FactoryConstructor
	logger    observability.Logger
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for registration and lookup failures
func WithRegistryLogger(logger observability.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a registry seeded with the built-in extensions
func NewRegistry(opts ...RegistryOption) *Registry {
	r := NewEmptyRegistry(opts...)
	for _, ctor := range BuiltinFactories() {
		if err := r.AddFactory(ctor); err != nil {
			r.logger.Error("Failed to register built-in extension factory", err)
		}
	}
	return r
}

// NewEmptyRegistry creates a registry without any factories
func NewEmptyRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		factories: make(map[string]FactoryConstructor),
		logger:    observability.GlobalLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddFactory registers a constructor under the type URI of the factory it builds.
// An existing registration for the same type URI is replaced.
func (r *Registry) AddFactory(ctor FactoryConstructor) error {
	if ctor == nil {
		return fmt.Errorf("%w: nil constructor", ErrFactoryInstantiation)
	}

	factory, err := ctor()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFactoryInstantiation, err)
	}
	if factory == nil {
		return fmt.Errorf("%w: constructor returned nil", ErrFactoryInstantiation)
	}

	typeURI := factory.TypeURI()

	r.mu.Lock()
	r.factories[typeURI] = ctor
	r.mu.Unlock()

	r.logger.Debug("Added extension factory", observability.NewField("type_uri", typeURI))
	return nil
}

// RemoveFactory unregisters the type URI and reports whether it was registered
func (r *Registry) RemoveFactory(typeURI string) bool {
	r.mu.Lock()
	_, ok := r.factories[typeURI]
	delete(r.factories, typeURI)
	r.mu.Unlock()

	if ok {
		r.logger.Debug("Removed extension factory", observability.NewField("type_uri", typeURI))
	}
	return ok
}

// HasFactory reports whether a factory is registered for the type URI
func (r *Registry) HasFactory(typeURI string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[typeURI]
	return ok
}

// Factory instantiates the factory registered for the type URI.
// A constructor failure is logged and reported as not found.
func (r *Registry) Factory(typeURI string) (extension.Factory, bool) {
	r.mu.RLock()
	ctor, ok := r.factories[typeURI]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	factory, err := ctor()
	if err != nil || factory == nil {
		if err == nil {
			err = fmt.Errorf("constructor returned nil")
		}
		r.logger.Error("Error getting extension factory", err, observability.NewField("type_uri", typeURI))
		return nil, false
	}

	return factory, true
}

// TypeURIs returns the registered type URIs in sorted order
func (r *Registry) TypeURIs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uris := make([]string, 0, len(r.factories))
	for uri := range r.factories {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}
