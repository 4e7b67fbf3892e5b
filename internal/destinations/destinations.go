// Package destinations implements the name-keyed fan-out container every
// layer of the engine flows data through: configured endpoints,
// per-destination requests, per-destination results.
//
// It is an ordered map rather than a plain Go map so report output stays
// reproducible across a run (plain Go maps randomize iteration order).
package destinations

// Map is an ordered name -> value container. Keys are unique; Names()
// returns them in insertion order, which callers rely on for deterministic
// report rendering and for pairing up values during compare evaluation.
type Map[T any] struct {
	order  []string
	values map[string]T
}

// New returns an empty Map.
func New[T any]() *Map[T] {
	return &Map[T]{values: make(map[string]T)}
}

// FromPairs builds a Map preserving the given order.
func FromPairs[T any](names []string, vals []T) *Map[T] {
	m := New[T]()
	for i, n := range names {
		m.Set(n, vals[i])
	}
	return m
}

// Set inserts or overwrites the value for name, appending to the order on
// first insertion.
func (m *Map[T]) Set(name string, v T) {
	if _, ok := m.values[name]; !ok {
		m.order = append(m.order, name)
	}
	m.values[name] = v
}

// Get looks up the value for name.
func (m *Map[T]) Get(name string) (T, bool) {
	v, ok := m.values[name]
	return v, ok
}

// MustGet looks up the value for name, panicking if absent. Only safe to
// call when the caller already enumerated Names() for this exact Map.
func (m *Map[T]) MustGet(name string) T {
	v, ok := m.values[name]
	if !ok {
		panic("destinations: no such destination " + name)
	}
	return v
}

// Names returns destination names in insertion order.
func (m *Map[T]) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of destinations.
func (m *Map[T]) Len() int {
	return len(m.order)
}

// Range iterates destinations in insertion order, stopping early if fn
// returns false.
func (m *Map[T]) Range(fn func(name string, v T) bool) {
	for _, n := range m.order {
		if !fn(n, m.values[n]) {
			return
		}
	}
}

// Values returns the values in insertion order.
func (m *Map[T]) Values() []T {
	out := make([]T, 0, len(m.order))
	for _, n := range m.order {
		out = append(out, m.values[n])
	}
	return out
}

// Map2 applies fn to every value, returning a new Map with the same order.
func Map2[T, U any](m *Map[T], fn func(name string, v T) U) *Map[U] {
	out := New[U]()
	m.Range(func(name string, v T) bool {
		out.Set(name, fn(name, v))
		return true
	})
	return out
}

// TransposeKeyed turns a destinations-of-maps into a map of destinations:
// for every key K present in any destination's map, collects that key's
// value across destinations into one per-key Map, preserving destination
// order. The header comparator uses this to pivot "headers per
// destination" into "destinations per header" so mismatches can be
// reported by header name.
func TransposeKeyed[K comparable, V any](d *Map[map[K]V]) map[K]*Map[V] {
	out := make(map[K]*Map[V])
	d.Range(func(name string, v map[K]V) bool {
		for k, val := range v {
			dm, ok := out[k]
			if !ok {
				dm = New[V]()
				out[k] = dm
			}
			dm.Set(name, val)
		}
		return true
	})
	return out
}
