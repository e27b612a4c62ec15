// Package world provides the minimal entity-component host state that console
// commands operate on.
//
// A World is owned by a single goroutine (the host's exclusive mutation pass).
// Code that cannot mutate the world directly records mutations in a Commands
// buffer, which the owner applies later.
package world

import (
	"iter"
	"reflect"
	"sort"
)

// Entity identifies a live entity in a World.
type Entity uint64

// World stores entities, their components, and global resources.
type World struct {
	next       Entity
	entities   map[Entity]struct{}
	components map[reflect.Type]map[Entity]any
	resources  map[reflect.Type]any
}

// New creates an empty world.
func New() *World {
	return &World{
		next:       1,
		entities:   make(map[Entity]struct{}),
		components: make(map[reflect.Type]map[Entity]any),
		resources:  make(map[reflect.Type]any),
	}
}

// Spawn creates a new entity with no components.
func (w *World) Spawn() Entity {
	e := w.next
	w.next++
	w.entities[e] = struct{}{}
	return e
}

// Alive reports whether the entity exists.
func (w *World) Alive(e Entity) bool {
	_, ok := w.entities[e]
	return ok
}

// Despawn removes an entity and all of its components.
// Returns false if the entity did not exist.
func (w *World) Despawn(e Entity) bool {
	if _, ok := w.entities[e]; !ok {
		return false
	}
	delete(w.entities, e)
	for _, store := range w.components {
		delete(store, e)
	}
	return true
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return len(w.entities)
}

// Entities returns all live entities in allocation order.
func (w *World) Entities() []Entity {
	out := make([]Entity, 0, len(w.entities))
	for e := range w.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Insert attaches a component to an entity, replacing any existing
// component of the same type. Returns false if the entity is not alive.
func Insert[T any](w *World, e Entity, c T) bool {
	if !w.Alive(e) {
		return false
	}
	t := typeOf[T]()
	store := w.components[t]
	if store == nil {
		store = make(map[Entity]any)
		w.components[t] = store
	}
	v := c
	store[e] = &v
	return true
}

// Get returns a pointer to the entity's component of type T.
func Get[T any](w *World, e Entity) (*T, bool) {
	store := w.components[typeOf[T]()]
	if store == nil {
		return nil, false
	}
	v, ok := store[e]
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// Remove detaches the component of type T from the entity.
func Remove[T any](w *World, e Entity) bool {
	store := w.components[typeOf[T]()]
	if store == nil {
		return false
	}
	if _, ok := store[e]; !ok {
		return false
	}
	delete(store, e)
	return true
}

// Query yields every entity holding a component of type T, in entity order.
// The world must not be structurally modified while iterating; record
// changes in a Commands buffer instead.
func Query[T any](w *World) iter.Seq2[Entity, *T] {
	return func(yield func(Entity, *T) bool) {
		store := w.components[typeOf[T]()]
		if len(store) == 0 {
			return
		}
		ids := make([]Entity, 0, len(store))
		for e := range store {
			ids = append(ids, e)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, e := range ids {
			v, ok := store[e]
			if !ok {
				continue
			}
			if !yield(e, v.(*T)) {
				return
			}
		}
	}
}

// Count returns how many entities hold a component of type T.
func Count[T any](w *World) int {
	return len(w.components[typeOf[T]()])
}

// SetResource stores a global resource, replacing any previous value of the
// same type.
func SetResource[T any](w *World, r T) {
	v := r
	w.resources[typeOf[T]()] = &v
}

// Resource returns a pointer to the global resource of type T.
func Resource[T any](w *World) (*T, bool) {
	v, ok := w.resources[typeOf[T]()]
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// RemoveResource deletes the resource of type T.
func RemoveResource[T any](w *World) {
	delete(w.resources, typeOf[T]())
}
