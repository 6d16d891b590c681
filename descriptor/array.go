package descriptor

import (
	"reflect"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/signature"
)

func arrayBase(t reflect.Type, elem *Descriptor) *Descriptor {
	sig := signature.Array(elem.Sig)
	display := signature.ArrayDisplay(elem.Display)
	return &Descriptor{
		GoType:        t,
		Elem:          elem,
		Kind:          KindArray,
		Sig:           sig,
		Display:       display,
		ObjectSig:     sig,
		ObjectDisplay: display,
		Class:         sig,
	}
}

// buildArray copies a slice of primitives into a fresh managed array and
// back.
func buildArray(t reflect.Type, elem *Descriptor) *Descriptor {
	d := arrayBase(t, elem)
	wire := reflect.SliceOf(primitives[t.Elem().Kind()].wire)

	d.marshal = func(env managed.Env, v reflect.Value) (managed.Value, error) {
		arr, err := env.NewArray(elem.Sig, v.Len())
		if err != nil {
			return nil, err
		}
		backing, err := elements(env, arr, wire)
		if err != nil {
			return nil, err
		}
		if v.Type() == wire {
			reflect.Copy(backing, v)
			return arr, nil
		}
		for i := range v.Len() {
			backing.Index(i).Set(v.Index(i).Convert(wire.Elem()))
		}
		return arr, nil
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
		backing, err := elements(env, obj, wire)
		if err != nil {
			return err
		}
		n := backing.Len()
		s := reflect.MakeSlice(t, n, n)
		if t == wire {
			reflect.Copy(s, backing)
		} else {
			for i := range n {
				s.Index(i).Set(backing.Index(i).Convert(t.Elem()))
			}
		}
		out.Set(s)
		return nil
	}
	return d
}

// elements returns the backing slice of arr checked against the wire type.
func elements(env managed.Env, arr managed.Object, wire reflect.Type) (reflect.Value, error) {
	raw, err := env.ArrayElements(arr)
	if err != nil {
		return reflect.Value{}, err
	}
	backing := reflect.ValueOf(raw)
	if !backing.IsValid() || backing.Type() != wire {
		return reflect.Value{}, errors.New(errors.PhaseUnmarshal, errors.KindTypeMismatch).
			GoType(wire.String()).
			Detail("array elements are %T", raw).
			Build()
	}
	return backing, nil
}

// ArrayView aliases the elements of a managed primitive array. Writes
// through Elements are visible to the managed side. A view is valid only
// during the call that produced it.
type ArrayView[T Primitive] struct {
	obj   managed.Object
	elems []T
}

// Elements returns the aliased elements. It is nil for the null array.
func (a ArrayView[T]) Elements() []T { return a.elems }

// Len returns the number of elements.
func (a ArrayView[T]) Len() int { return len(a.elems) }

// IsNull reports whether the view refers to the null array.
func (a ArrayView[T]) IsNull() bool { return a.obj == nil }

// Object returns the underlying managed array.
func (a ArrayView[T]) Object() managed.Object { return a.obj }

func (ArrayView[T]) form() form               { return formArrayView }
func (ArrayView[T]) typeArgs() []reflect.Type { return []reflect.Type{reflect.TypeFor[T]()} }

func (a *ArrayView[T]) bind(env managed.Env, _ *Descriptor, obj managed.Object) error {
	a.obj, a.elems = obj, nil
	if obj == nil {
		return nil
	}
	raw, err := env.ArrayElements(obj)
	if err != nil {
		return err
	}
	elems, ok := raw.([]T)
	if !ok {
		return errors.New(errors.PhaseUnmarshal, errors.KindTypeMismatch).
			GoType(reflect.TypeFor[[]T]().String()).
			Detail("array elements are %T", raw).
			Build()
	}
	a.elems = elems
	return nil
}

// binder is implemented by pointers to view types.
type binder interface {
	bind(env managed.Env, d *Descriptor, obj managed.Object) error
}

// viewObject is implemented by view types to expose the managed reference.
type viewObject interface {
	Object() managed.Object
}

// buildView builds the marshal pair shared by every lazy view: marshaling
// hands back the referenced object and unmarshaling binds a fresh view.
func buildView(d *Descriptor) *Descriptor {
	d.marshal = func(_ managed.Env, v reflect.Value) (managed.Value, error) {
		obj := v.Interface().(viewObject).Object()
		if obj == nil {
			return nil, nil
		}
		return obj, nil
	}
	d.unmarshal = func(env managed.Env, v managed.Value, out reflect.Value) error {
		obj, err := asObject(v, errors.PhaseUnmarshal, d.Sig)
		if err != nil {
			return err
		}
		fresh := reflect.New(d.GoType)
		if err := fresh.Interface().(binder).bind(env, d, obj); err != nil {
			return err
		}
		out.Set(fresh.Elem())
		return nil
	}
	return d
}

func buildArrayView(t reflect.Type, elem *Descriptor) *Descriptor {
	return buildView(arrayBase(t, elem))
}
