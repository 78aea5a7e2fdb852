package relay

import "reflect"

// Extensions is a type-keyed store threaded through a single chain run.
// Middleware use it to pass out-of-band state (timing, request IDs, the
// authenticated principal) downstream without changing the Handle signature.
//
// Each value is keyed by its static type, so callers should define a named
// type per concern instead of storing bare strings or ints.
//
// Extensions is not safe for concurrent use. A chain run is sequential, and
// every run gets its own store.
type Extensions struct {
	values map[reflect.Type]any
}

// NewExtensions returns an empty store.
func NewExtensions() *Extensions {
	return &Extensions{}
}

// Insert stores v under its type T. If a value of that type was already
// present it is returned along with true.
func Insert[T any](e *Extensions, v T) (T, bool) {
	if e.values == nil {
		e.values = make(map[reflect.Type]any)
	}
	key := reflect.TypeOf((*T)(nil)).Elem()
	prev, ok := e.values[key]
	e.values[key] = v
	if !ok {
		var zero T
		return zero, false
	}
	old, _ := prev.(T)
	return old, true
}

// Get returns the value stored under type T.
func Get[T any](e *Extensions) (T, bool) {
	v, ok := e.values[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		var zero T
		return zero, false
	}
	t, _ := v.(T)
	return t, true
}

// Remove deletes and returns the value stored under type T.
func Remove[T any](e *Extensions) (T, bool) {
	key := reflect.TypeOf((*T)(nil)).Elem()
	v, ok := e.values[key]
	if !ok {
		var zero T
		return zero, false
	}
	delete(e.values, key)
	t, _ := v.(T)
	return t, true
}

// Len reports how many values are stored.
func (e *Extensions) Len() int {
	return len(e.values)
}

// Clear removes every value.
func (e *Extensions) Clear() {
	clear(e.values)
}
