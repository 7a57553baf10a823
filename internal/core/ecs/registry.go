package ecs

import "reflect"

// Registry tracks every component store, keyed by component type, and
// supports bulk cleanup on entity destroy.
type Registry struct {
	stores []Removable
	byType map[reflect.Type]Removable
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Removable, 0, 16),
		byType: make(map[reflect.Type]Removable, 16),
	}
}

// RemoveAll clears the given entity from every registered component store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, s := range r.stores {
		s.Remove(id)
	}
}

// Len returns the number of registered component types.
func (r *Registry) Len() int { return len(r.stores) }

// Components returns the store for component type T, creating and
// registering it on first use.
func Components[T any](w *World) *Store[T] {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if s, ok := w.registry.byType[t]; ok {
		return s.(*Store[T])
	}
	s := NewStore[T]()
	w.registry.byType[t] = s
	w.registry.stores = append(w.registry.stores, s)
	return s
}
