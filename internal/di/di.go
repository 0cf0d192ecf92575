// Package di is a small service container. Services are registered either as
// ready values under a name or as lazy factories behind typed tokens; a
// factory runs once, on first lookup.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves services.
type ServiceRegistry interface {
	Get(name string) any
	Has(name string) bool
}

// Container is a ServiceRegistry that accepts registrations.
type Container interface {
	ServiceRegistry
	Register(name string, service any)
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

// Token names a service of type T.
type Token[T any] struct {
	name string
}

// NewToken creates a token. Names are conventionally "module.Service" for
// public services and "module:service" for module-private ones.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the registry key.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a lazy factory for t.
func RegisterToken[T any](c Container, t Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(t.name, func(sr ServiceRegistry) any { return factory(sr) })
}

// GetToken resolves t. A factory may return the zero value to mark an
// optional service as absent. It panics when t was never registered, since
// that is a wiring bug.
func GetToken[T any](sr ServiceRegistry, t Token[T]) T {
	var zero T
	raw := sr.Get(t.name)
	if raw == nil {
		if sr.Has(t.name) {
			return zero
		}
		panic(fmt.Sprintf("di: %s is not registered", t.name))
	}
	v, ok := raw.(T)
	if !ok {
		panic(fmt.Sprintf("di: %s holds %T, not %T", t.name, raw, zero))
	}
	return v
}

type entry struct {
	once    sync.Once
	factory func(ServiceRegistry) any
	value   any
}

type container struct {
	mu       sync.RWMutex
	services map[string]*entry
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{services: make(map[string]*entry)}
}

func (c *container) Register(name string, service any) {
	e := &entry{value: service}
	e.once.Do(func() {})

	c.mu.Lock()
	c.services[name] = e
	c.mu.Unlock()
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	c.services[name] = &entry{factory: factory}
	c.mu.Unlock()
}

func (c *container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[name]
	return ok
}

// Get returns nil for an unknown name.
func (c *container) Get(name string) any {
	c.mu.RLock()
	e, ok := c.services[name]
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	e.once.Do(func() {
		e.value = e.factory(c)
	})
	return e.value
}
