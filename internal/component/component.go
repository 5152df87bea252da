// Package component is a minimal role/hint lookup table. The planner uses it
// to obtain its collaborators without knowing how they were built.
package component

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrNotRegistered is returned when no component is registered for a
// role and hint.
var ErrNotRegistered = errors.New("component not registered")

// DefaultHint is the hint used when a role has a single implementation.
const DefaultHint = "default"

// Roles the planner looks up.
const (
	RoleCoreRepository   = "repository.core"
	RoleLocalRepository  = "repository.local"
	RoleRemoteRepository = "repository.remote"
	RoleHandlerRegistry  = "handler.registry"
)

type key struct {
	role string
	hint string
}

// Registry maps (role, hint) pairs to component instances. It is safe for
// concurrent use.
type Registry struct {
	mu         sync.RWMutex
	components map[key]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{components: make(map[key]any)}
}

// Register binds v to role and hint. An empty hint means DefaultHint.
func (r *Registry) Register(role, hint string, v any) {
	if hint == "" {
		hint = DefaultHint
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[key{role, hint}] = v
}

// Lookup returns the component bound to role and hint.
func (r *Registry) Lookup(role, hint string) (any, error) {
	if hint == "" {
		hint = DefaultHint
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.components[key{role, hint}]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", role, hint, ErrNotRegistered)
	}
	return v, nil
}

// Lookup returns the component bound to role and hint as a T.
func Lookup[T any](r *Registry, role, hint string) (T, error) {
	var zero T
	v, err := r.Lookup(role, hint)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s/%s: component is %T, not %s", role, hint, v, reflect.TypeFor[T]())
	}
	return t, nil
}
