// Package descriptor maps Go types onto their managed counterparts.
//
// A Descriptor bundles the wire signature, the display declaration and the
// marshal/unmarshal pair of one Go type. Descriptors are produced by a
// Resolver, which walks composite types recursively and caches the result
// per reflect.Type:
//
//	r := descriptor.NewResolver()
//	d, err := descriptor.For[map[string][]string](r)
//	// d.Sig     == "Ljava/util/Map;"
//	// d.Display == "java.util.Map<String, java.util.List<String>>"
//
// Builtin types resolve on their own: primitives, strings, managed.Object,
// slices, maps, time.Duration, time.Time and funcs of one parameter. Records,
// native classes and enums must be declared on the resolver first.
//
// # Container Types
//
// Go has no direct equivalent for several managed shapes, so the package
// provides small generic types:
//
//	Boxed[T]          a primitive in reference form (java.lang.Integer, ...)
//	Optional[T]       absent crosses as null
//	Set[T]            java.util.HashSet
//	OrderedSet[T]     java.util.TreeSet, sorted ascending
//	OrderedMap[K, V]  java.util.TreeMap
//	UTF16String       a string as UTF-16 code units
//
// # Views
//
// StringView, ArrayView, ListView, SetView and MapView refer to the managed
// value instead of copying it. They never own the reference and are valid
// only during the call that produced them. SetView and MapView are walked
// with external iterators:
//
//	it := set.Iterator()
//	for it.HasNext() {
//		use(it.Next())
//	}
//	if err := it.Err(); err != nil {
//		return err
//	}
package descriptor
