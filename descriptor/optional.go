package descriptor

import (
	"reflect"

	"github.com/wippyai/nativebind/managed"
)

// Optional is a value that may be absent. Absent crosses as null; a
// present value crosses in its reference form.
type Optional[T any] struct {
	Value   T
	Present bool
}

// Some returns a present optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Present: true}
}

// None returns an absent optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Present
}

// OrElse returns the value if present and def otherwise.
func (o Optional[T]) OrElse(def T) T {
	if o.Present {
		return o.Value
	}
	return def
}

func (Optional[T]) form() form               { return formOptional }
func (Optional[T]) typeArgs() []reflect.Type { return []reflect.Type{reflect.TypeFor[T]()} }

func buildOptional(t reflect.Type, elem *Descriptor) *Descriptor {
	d := &Descriptor{
		GoType:        t,
		Elem:          elem,
		Kind:          KindOptional,
		Sig:           elem.ObjectSig,
		Display:       elem.ObjectDisplay,
		ObjectSig:     elem.ObjectSig,
		ObjectDisplay: elem.ObjectDisplay,
		Class:         elem.Class,
	}
	d.marshal = func(env managed.Env, v reflect.Value) (managed.Value, error) {
		if !v.Field(1).Bool() {
			return nil, nil
		}
		return elem.toObject(env, v.Field(0))
	}
	d.unmarshal = func(env managed.Env, v managed.Value, out reflect.Value) error {
		if isNull(v) {
			out.SetZero()
			return nil
		}
		if err := elem.fromObject(env, v, out.Field(0)); err != nil {
			return err
		}
		out.Field(1).SetBool(true)
		return nil
	}
	return d
}
