package descriptor

import (
	"cmp"
	"reflect"
)

// form identifies the builtin generic types of this package.
type form uint8

const (
	formBoxed form = iota + 1
	formArrayView
	formOptional
	formHashSet
	formTreeSet
	formTreeMap
	formListView
	formSetView
	formMapView
)

// marker is implemented by the generic types of this package so the
// resolver can recover their type arguments.
type marker interface {
	form() form
	typeArgs() []reflect.Type
}

var markerType = reflect.TypeFor[marker]()

func markerOf(t reflect.Type) (marker, bool) {
	if !t.Implements(markerType) {
		return nil, false
	}
	m, ok := reflect.Zero(t).Interface().(marker)
	return m, ok
}

// Set is an unordered set; it crosses as a java.util.HashSet.
type Set[T comparable] map[T]struct{}

// NewSet returns a set holding items.
func NewSet[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Has reports whether v is in the set.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

func (Set[T]) form() form               { return formHashSet }
func (Set[T]) typeArgs() []reflect.Type { return []reflect.Type{reflect.TypeFor[T]()} }

// OrderedSet is a set kept in ascending order; it crosses as a
// java.util.TreeSet. Unmarshaled sets are sorted and free of duplicates.
type OrderedSet[T cmp.Ordered] []T

func (OrderedSet[T]) form() form               { return formTreeSet }
func (OrderedSet[T]) typeArgs() []reflect.Type { return []reflect.Type{reflect.TypeFor[T]()} }

// OrderedMap is a map whose entries cross as a java.util.TreeMap.
type OrderedMap[K cmp.Ordered, V any] map[K]V

func (OrderedMap[K, V]) form() form { return formTreeMap }
func (OrderedMap[K, V]) typeArgs() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[K](), reflect.TypeFor[V]()}
}
