package descriptor

import (
	"reflect"
	"slices"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/signature"
)

const (
	listInterface = "java/util/List"
	setInterface  = "java/util/Set"
	mapInterface  = "java/util/Map"

	arrayListClass = "java/util/ArrayList"
	hashSetClass   = "java/util/HashSet"
	treeSetClass   = "java/util/TreeSet"
	hashMapClass   = "java/util/HashMap"
	treeMapClass   = "java/util/TreeMap"
)

var (
	objectSig    = signature.Object(signature.ObjectClass)
	sizeSig      = signature.Method(signature.Int)
	getSig       = signature.Method(objectSig, signature.Int)
	addSig       = signature.Method(signature.Boolean, objectSig)
	putSig       = signature.Method(objectSig, objectSig, objectSig)
	lookupSig    = signature.Method(objectSig, objectSig)
	containsSig  = signature.Method(signature.Boolean, objectSig)
	iteratorSig  = signature.Method(signature.Object("java/util/Iterator"))
	entrySetSig  = signature.Method(signature.Object(setInterface))
	hasNextSig   = signature.Method(signature.Boolean)
	objectGetSig = signature.Method(objectSig)
	newSig       = signature.Method(signature.Void)
	newSizedSig  = signature.Method(signature.Void, signature.Int)
)

// toObject marshals v in its reference form.
func (d *Descriptor) toObject(env managed.Env, v reflect.Value) (managed.Value, error) {
	if d.marshalObject != nil {
		return d.marshalObject(env, v)
	}
	return d.marshal(env, v)
}

// fromObject unmarshals a reference into out.
func (d *Descriptor) fromObject(env managed.Env, v managed.Value, out reflect.Value) error {
	if d.unmarshalObject != nil {
		return d.unmarshalObject(env, v, out)
	}
	return d.unmarshal(env, v, out)
}

func collectionBase(t reflect.Type, kind Kind, iface, class string, elems ...*Descriptor) *Descriptor {
	args := make([]string, len(elems))
	for i, e := range elems {
		args[i] = e.ObjectDisplay
	}
	sig := signature.Object(iface)
	display := signature.Generic(signature.ClassName(iface), args...)
	d := &Descriptor{
		GoType:        t,
		Kind:          kind,
		Sig:           sig,
		Display:       display,
		ObjectSig:     sig,
		ObjectDisplay: display,
		Class:         class,
	}
	switch len(elems) {
	case 1:
		d.Elem = elems[0]
	case 2:
		d.Key, d.Elem = elems[0], elems[1]
	}
	return d
}

// newCollection instantiates class through its no-argument constructor.
func newCollection(env managed.Env, class string) (managed.Object, error) {
	cls, err := env.FindClass(class)
	if err != nil {
		return nil, err
	}
	return env.NewObject(cls, newSig)
}

// buildList copies a slice of references into a java.util.ArrayList and
// reads any java.util.List back through size and get.
func buildList(t reflect.Type, elem *Descriptor) *Descriptor {
	d := collectionBase(t, KindList, listInterface, arrayListClass, elem)
	d.marshal = func(env managed.Env, v reflect.Value) (managed.Value, error) {
		cls, err := env.FindClass(arrayListClass)
		if err != nil {
			return nil, err
		}
		list, err := env.NewObject(cls, newSizedSig, int32(v.Len()))
		if err != nil {
			return nil, err
		}
		for i := range v.Len() {
			item, err := elem.toObject(env, v.Index(i))
			if err != nil {
				return nil, err
			}
			if _, err := env.CallMethod(list, "add", addSig, item); err != nil {
				return nil, err
			}
		}
		return list, nil
	}
	d.unmarshal = func(env managed.Env, v managed.Value, out reflect.Value) error {
		obj, err := asObject(v, errors.PhaseUnmarshal, d.Sig)
		if err != nil {
			return err
		}
		if obj == nil {
			out.SetZero()
			return nil
		}
		n, err := collectionSize(env, obj)
		if err != nil {
			return err
		}
		s := reflect.MakeSlice(t, n, n)
		for i := range n {
			item, err := env.CallMethod(obj, "get", getSig, int32(i))
			if err != nil {
				return err
			}
			if err := elem.fromObject(env, item, s.Index(i)); err != nil {
				return err
			}
		}
		out.Set(s)
		return nil
	}
	return d
}

func collectionSize(env managed.Env, obj managed.Object) (int, error) {
	n, err := env.CallMethod(obj, "size", sizeSig)
	if err != nil {
		return 0, err
	}
	size, ok := n.(int32)
	if !ok {
		return 0, errors.InvalidData(errors.PhaseUnmarshal, nil, "size returned a non-int value")
	}
	return int(size), nil
}

// each walks a java.lang.Iterable through its iterator.
func each(env managed.Env, obj managed.Object, fn func(item managed.Value) error) error {
	it, err := env.CallMethod(obj, "iterator", iteratorSig)
	if err != nil {
		return err
	}
	iter, err := asObject(it, errors.PhaseUnmarshal, "Ljava/util/Iterator;")
	if err != nil {
		return err
	}
	if iter == nil {
		return errors.NilPointer(errors.PhaseUnmarshal, nil, "java.util.Iterator")
	}
	for {
		more, err := env.CallMethod(iter, "hasNext", hasNextSig)
		if err != nil {
			return err
		}
		if ok, _ := more.(bool); !ok {
			return nil
		}
		item, err := env.CallMethod(iter, "next", objectGetSig)
		if err != nil {
			return err
		}
		if err := fn(item); err != nil {
			return err
		}
	}
}

// sorter is implemented by OrderedSet to restore its ordering invariant.
type sorter interface {
	sorted() any
}

func (s OrderedSet[T]) sorted() any {
	c := slices.Clone(s)
	slices.Sort(c)
	return slices.Compact(c)
}

// buildSet handles Set (map backed) and OrderedSet (slice backed).
func buildSet(t reflect.Type, elem *Descriptor, class string) *Descriptor {
	d := collectionBase(t, KindSet, setInterface, class, elem)
	d.marshal = func(env managed.Env, v reflect.Value) (managed.Value, error) {
		set, err := newCollection(env, class)
		if err != nil {
			return nil, err
		}
		add := func(item reflect.Value) error {
			o, err := elem.toObject(env, item)
			if err != nil {
				return err
			}
			_, err = env.CallMethod(set, "add", addSig, o)
			return err
		}
		if t.Kind() == reflect.Map {
			for it := v.MapRange(); it.Next(); {
				if err := add(it.Key()); err != nil {
					return nil, err
				}
			}
			return set, nil
		}
		for i := range v.Len() {
			if err := add(v.Index(i)); err != nil {
				return nil, err
			}
		}
		return set, nil
	}
	d.unmarshal = func(env managed.Env, v managed.Value, out reflect.Value) error {
		obj, err := asObject(v, errors.PhaseUnmarshal, d.Sig)
		if err != nil {
			return err
		}
		if obj == nil {
			out.SetZero()
			return nil
		}
		if t.Kind() == reflect.Map {
			m := reflect.MakeMap(t)
			unit := reflect.New(t.Elem()).Elem()
			err := each(env, obj, func(item managed.Value) error {
				k := reflect.New(t.Key()).Elem()
				if err := elem.fromObject(env, item, k); err != nil {
					return err
				}
				m.SetMapIndex(k, unit)
				return nil
			})
			if err != nil {
				return err
			}
			out.Set(m)
			return nil
		}
		s := reflect.MakeSlice(t, 0, 0)
		err = each(env, obj, func(item managed.Value) error {
			e := reflect.New(t.Elem()).Elem()
			if err := elem.fromObject(env, item, e); err != nil {
				return err
			}
			s = reflect.Append(s, e)
			return nil
		})
		if err != nil {
			return err
		}
		if srt, ok := s.Interface().(sorter); ok {
			s = reflect.ValueOf(srt.sorted()).Convert(t)
		}
		out.Set(s)
		return nil
	}
	return d
}

// buildMap copies a Go map into class and reads any java.util.Map back
// through entrySet.
func buildMap(t reflect.Type, key, val *Descriptor, class string) *Descriptor {
	d := collectionBase(t, KindMap, mapInterface, class, key, val)
	d.marshal = func(env managed.Env, v reflect.Value) (managed.Value, error) {
		m, err := newCollection(env, class)
		if err != nil {
			return nil, err
		}
		for it := v.MapRange(); it.Next(); {
			k, err := key.toObject(env, it.Key())
			if err != nil {
				return nil, err
			}
			e, err := val.toObject(env, it.Value())
			if err != nil {
				return nil, err
			}
			if _, err := env.CallMethod(m, "put", putSig, k, e); err != nil {
				return nil, err
			}
		}
		return m, nil
	}
	d.unmarshal = func(env managed.Env, v managed.Value, out reflect.Value) error {
		obj, err := asObject(v, errors.PhaseUnmarshal, d.Sig)
		if err != nil {
			return err
		}
		if obj == nil {
			out.SetZero()
			return nil
		}
		entries, err := env.CallMethod(obj, "entrySet", entrySetSig)
		if err != nil {
			return err
		}
		set, err := asObject(entries, errors.PhaseUnmarshal, signature.Object(setInterface))
		if err != nil {
			return err
		}
		if set == nil {
			return errors.NilPointer(errors.PhaseUnmarshal, nil, "java.util.Set")
		}
		m := reflect.MakeMap(t)
		err = each(env, set, func(item managed.Value) error {
			k, e, err := readEntry(env, item, key, val, t)
			if err != nil {
				return err
			}
			m.SetMapIndex(k, e)
			return nil
		})
		if err != nil {
			return err
		}
		out.Set(m)
		return nil
	}
	return d
}

// readEntry unmarshals a java.util.Map$Entry into fresh key and value.
func readEntry(env managed.Env, item managed.Value, key, val *Descriptor, t reflect.Type) (reflect.Value, reflect.Value, error) {
	entry, err := asObject(item, errors.PhaseUnmarshal, "Ljava/util/Map$Entry;")
	if err != nil {
		return reflect.Value{}, reflect.Value{}, err
	}
	if entry == nil {
		return reflect.Value{}, reflect.Value{}, errors.NilPointer(errors.PhaseUnmarshal, nil, "java.util.Map.Entry")
	}
	rawKey, err := env.CallMethod(entry, "getKey", objectGetSig)
	if err != nil {
		return reflect.Value{}, reflect.Value{}, err
	}
	rawVal, err := env.CallMethod(entry, "getValue", objectGetSig)
	if err != nil {
		return reflect.Value{}, reflect.Value{}, err
	}
	k := reflect.New(t.Key()).Elem()
	if err := key.fromObject(env, rawKey, k); err != nil {
		return reflect.Value{}, reflect.Value{}, err
	}
	e := reflect.New(t.Elem()).Elem()
	if err := val.fromObject(env, rawVal, e); err != nil {
		return reflect.Value{}, reflect.Value{}, err
	}
	return k, e, nil
}
