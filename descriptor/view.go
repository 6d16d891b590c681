package descriptor

import (
	"reflect"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
)

// ListView reads a managed java.util.List on demand instead of copying
// it. It never owns the reference and is valid only during the call that
// produced it.
type ListView[T any] struct {
	env  managed.Env
	obj  managed.Object
	elem *Descriptor
}

func (ListView[T]) form() form               { return formListView }
func (ListView[T]) typeArgs() []reflect.Type { return []reflect.Type{reflect.TypeFor[T]()} }

func (l *ListView[T]) bind(env managed.Env, d *Descriptor, obj managed.Object) error {
	l.env, l.obj, l.elem = env, obj, d.Elem
	return nil
}

// Object returns the underlying managed list.
func (l ListView[T]) Object() managed.Object { return l.obj }

// IsNull reports whether the view refers to the null list.
func (l ListView[T]) IsNull() bool { return l.obj == nil }

// Len returns the number of elements. The null list is empty.
func (l ListView[T]) Len() (int, error) {
	if l.obj == nil {
		return 0, nil
	}
	return collectionSize(l.env, l.obj)
}

// Get returns the element at index i.
func (l ListView[T]) Get(i int) (T, error) {
	var out T
	n, err := l.Len()
	if err != nil {
		return out, err
	}
	if i < 0 || i >= n {
		return out, errors.OutOfBounds(errors.PhaseUnmarshal, nil, i, n)
	}
	item, err := l.env.CallMethod(l.obj, "get", getSig, int32(i))
	if err != nil {
		return out, err
	}
	err = l.elem.fromObject(l.env, item, reflect.ValueOf(&out).Elem())
	return out, err
}

// SetView reads a managed java.util.Set on demand.
type SetView[T any] struct {
	env  managed.Env
	obj  managed.Object
	elem *Descriptor
}

func (SetView[T]) form() form               { return formSetView }
func (SetView[T]) typeArgs() []reflect.Type { return []reflect.Type{reflect.TypeFor[T]()} }

func (s *SetView[T]) bind(env managed.Env, d *Descriptor, obj managed.Object) error {
	s.env, s.obj, s.elem = env, obj, d.Elem
	return nil
}

// Object returns the underlying managed set.
func (s SetView[T]) Object() managed.Object { return s.obj }

// IsNull reports whether the view refers to the null set.
func (s SetView[T]) IsNull() bool { return s.obj == nil }

// Len returns the number of elements.
func (s SetView[T]) Len() (int, error) {
	if s.obj == nil {
		return 0, nil
	}
	return collectionSize(s.env, s.obj)
}

// Contains reports whether v is in the set.
func (s SetView[T]) Contains(v T) (bool, error) {
	if s.obj == nil {
		return false, nil
	}
	o, err := s.elem.toObject(s.env, reflect.ValueOf(&v).Elem())
	if err != nil {
		return false, err
	}
	found, err := s.env.CallMethod(s.obj, "contains", containsSig, o)
	if err != nil {
		return false, err
	}
	ok, _ := found.(bool)
	return ok, nil
}

// Iterator starts a walk over the set.
func (s SetView[T]) Iterator() *Iterator[T] {
	it := &Iterator[T]{elem: s.elem, cursor: cursor{env: s.env}}
	it.start(s.obj)
	return it
}

// MapView reads a managed java.util.Map on demand.
type MapView[K comparable, V any] struct {
	env managed.Env
	obj managed.Object
	key *Descriptor
	val *Descriptor
}

func (MapView[K, V]) form() form { return formMapView }
func (MapView[K, V]) typeArgs() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[K](), reflect.TypeFor[V]()}
}

func (m *MapView[K, V]) bind(env managed.Env, d *Descriptor, obj managed.Object) error {
	m.env, m.obj, m.key, m.val = env, obj, d.Key, d.Elem
	return nil
}

// Object returns the underlying managed map.
func (m MapView[K, V]) Object() managed.Object { return m.obj }

// IsNull reports whether the view refers to the null map.
func (m MapView[K, V]) IsNull() bool { return m.obj == nil }

// Len returns the number of entries.
func (m MapView[K, V]) Len() (int, error) {
	if m.obj == nil {
		return 0, nil
	}
	return collectionSize(m.env, m.obj)
}

// Get looks up k. The second result is false when the key is absent.
func (m MapView[K, V]) Get(k K) (V, bool, error) {
	var out V
	if m.obj == nil {
		return out, false, nil
	}
	ko, err := m.key.toObject(m.env, reflect.ValueOf(&k).Elem())
	if err != nil {
		return out, false, err
	}
	found, err := m.env.CallMethod(m.obj, "containsKey", containsSig, ko)
	if err != nil {
		return out, false, err
	}
	if ok, _ := found.(bool); !ok {
		return out, false, nil
	}
	raw, err := m.env.CallMethod(m.obj, "get", lookupSig, ko)
	if err != nil {
		return out, false, err
	}
	if err := m.val.fromObject(m.env, raw, reflect.ValueOf(&out).Elem()); err != nil {
		return out, false, err
	}
	return out, true, nil
}

// Iterator starts a walk over the entries of the map.
func (m MapView[K, V]) Iterator() *EntryIterator[K, V] {
	it := &EntryIterator[K, V]{key: m.key, val: m.val, cursor: cursor{env: m.env}}
	if m.obj == nil {
		return it
	}
	entries, err := m.env.CallMethod(m.obj, "entrySet", entrySetSig)
	if err != nil {
		it.err = err
		return it
	}
	set, err := asObject(entries, errors.PhaseUnmarshal, "Ljava/util/Set;")
	if err != nil {
		it.err = err
		return it
	}
	it.start(set)
	return it
}

// cursor drives a managed java.util.Iterator. Errors stop the walk and
// are reported by Err.
type cursor struct {
	env  managed.Env
	iter managed.Object
	err  error
}

func (c *cursor) start(iterable managed.Object) {
	if iterable == nil {
		return
	}
	it, err := c.env.CallMethod(iterable, "iterator", iteratorSig)
	if err != nil {
		c.err = err
		return
	}
	c.iter, c.err = asObject(it, errors.PhaseUnmarshal, "Ljava/util/Iterator;")
}

// HasNext reports whether another element is available.
func (c *cursor) HasNext() bool {
	if c.iter == nil || c.err != nil {
		return false
	}
	more, err := c.env.CallMethod(c.iter, "hasNext", hasNextSig)
	if err != nil {
		c.err = err
		return false
	}
	ok, _ := more.(bool)
	return ok
}

func (c *cursor) next() (managed.Value, bool) {
	if c.iter == nil || c.err != nil {
		return nil, false
	}
	item, err := c.env.CallMethod(c.iter, "next", objectGetSig)
	if err != nil {
		c.err = err
		return nil, false
	}
	return item, true
}

// Err returns the first error met during the walk.
func (c *cursor) Err() error { return c.err }

// Iterator walks the elements of a SetView.
//
//	it := view.Iterator()
//	for it.HasNext() {
//		v := it.Next()
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator[T any] struct {
	elem *Descriptor
	cursor
}

// Next returns the next element, or the zero value after an error.
func (it *Iterator[T]) Next() T {
	var out T
	item, ok := it.next()
	if !ok {
		return out
	}
	if err := it.elem.fromObject(it.env, item, reflect.ValueOf(&out).Elem()); err != nil {
		it.err = err
	}
	return out
}

// EntryIterator walks the entries of a MapView.
type EntryIterator[K comparable, V any] struct {
	key *Descriptor
	val *Descriptor
	cursor
}

// Next returns the next entry, or zero values after an error.
func (it *EntryIterator[K, V]) Next() (K, V) {
	var (
		k K
		v V
	)
	item, ok := it.next()
	if !ok {
		return k, v
	}
	rk, rv, err := readEntry(it.env, item, it.key, it.val, reflect.TypeFor[map[K]V]())
	if err != nil {
		it.err = err
		return k, v
	}
	reflect.ValueOf(&k).Elem().Set(rk)
	reflect.ValueOf(&v).Elem().Set(rv)
	return k, v
}

func buildListView(t reflect.Type, elem *Descriptor) *Descriptor {
	d := collectionBase(t, KindList, listInterface, arrayListClass, elem)
	return buildView(d)
}

func buildSetView(t reflect.Type, elem *Descriptor) *Descriptor {
	d := collectionBase(t, KindSet, setInterface, hashSetClass, elem)
	return buildView(d)
}

func buildMapView(t reflect.Type, key, val *Descriptor) *Descriptor {
	d := collectionBase(t, KindMap, mapInterface, hashMapClass, key, val)
	return buildView(d)
}
