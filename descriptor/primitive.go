package descriptor

import (
	"reflect"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/signature"
)

// Primitive is the set of Go types that travel as managed primitives
// without conversion.
type Primitive interface {
	bool | int8 | uint16 | int16 | int32 | int64 | float32 | float64
}

type primitiveInfo struct {
	wire    reflect.Type
	sig     string
	box     string
	boxName string
	getter  string
}

var primitives = map[reflect.Kind]primitiveInfo{
	reflect.Bool:    {reflect.TypeFor[bool](), signature.Boolean, "java/lang/Boolean", "Boolean", "booleanValue"},
	reflect.Int8:    {reflect.TypeFor[int8](), signature.Byte, "java/lang/Byte", "Byte", "byteValue"},
	reflect.Uint16:  {reflect.TypeFor[uint16](), signature.Char, "java/lang/Character", "Character", "charValue"},
	reflect.Int16:   {reflect.TypeFor[int16](), signature.Short, "java/lang/Short", "Short", "shortValue"},
	reflect.Int32:   {reflect.TypeFor[int32](), signature.Int, "java/lang/Integer", "Integer", "intValue"},
	reflect.Int64:   {reflect.TypeFor[int64](), signature.Long, "java/lang/Long", "Long", "longValue"},
	reflect.Int:     {reflect.TypeFor[int64](), signature.Long, "java/lang/Long", "Long", "longValue"},
	reflect.Float32: {reflect.TypeFor[float32](), signature.Float, "java/lang/Float", "Float", "floatValue"},
	reflect.Float64: {reflect.TypeFor[float64](), signature.Double, "java/lang/Double", "Double", "doubleValue"},
}

func buildPrimitive(t reflect.Type) *Descriptor {
	info := primitives[t.Kind()]
	display, _ := signature.PrimitiveDisplay(info.sig)
	d := &Descriptor{
		GoType:        t,
		Kind:          KindPrimitive,
		Sig:           info.sig,
		Display:       display,
		ObjectSig:     signature.Object(info.box),
		ObjectDisplay: info.boxName,
		Class:         info.box,
	}

	d.marshal = func(_ managed.Env, v reflect.Value) (managed.Value, error) {
		return v.Convert(info.wire).Interface(), nil
	}
	d.unmarshal = func(_ managed.Env, v managed.Value, out reflect.Value) error {
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || rv.Type() != info.wire {
			return errors.New(errors.PhaseUnmarshal, errors.KindTypeMismatch).
				GoType(t.String()).
				Sig(info.sig).
				Detail("got %T", v).
				Build()
		}
		if t.Kind() == reflect.Int && rv.Type() != t {
			n := rv.Int()
			if out.OverflowInt(n) {
				return errors.Overflow(errors.PhaseUnmarshal, nil, n, t.String())
			}
		}
		out.Set(rv.Convert(t))
		return nil
	}

	boxSig := signature.Method(d.ObjectSig, info.sig)
	getterSig := signature.Method(info.sig)
	d.marshalObject = func(env managed.Env, v reflect.Value) (managed.Value, error) {
		cls, err := env.FindClass(info.box)
		if err != nil {
			return nil, err
		}
		return env.CallStaticMethod(cls, "valueOf", boxSig, v.Convert(info.wire).Interface())
	}
	d.unmarshalObject = func(env managed.Env, v managed.Value, out reflect.Value) error {
		obj, err := asObject(v, errors.PhaseUnmarshal, d.ObjectSig)
		if err != nil {
			return err
		}
		if obj == nil {
			return errors.NilPointer(errors.PhaseUnmarshal, nil, d.ObjectDisplay)
		}
		prim, err := env.CallMethod(obj, info.getter, getterSig)
		if err != nil {
			return err
		}
		return d.unmarshal(env, prim, out)
	}
	return d
}

// Boxed carries a primitive in its reference form (java.lang.Integer for
// int32 and so on). The boxed value is never null; use Optional for a
// nullable box.
type Boxed[T Primitive] struct {
	Value T
}

// Box returns v in its reference form.
func Box[T Primitive](v T) Boxed[T] {
	return Boxed[T]{Value: v}
}

func (Boxed[T]) form() form               { return formBoxed }
func (Boxed[T]) typeArgs() []reflect.Type { return []reflect.Type{reflect.TypeFor[T]()} }

func buildBoxed(t reflect.Type, elem *Descriptor) *Descriptor {
	d := &Descriptor{
		GoType:        t,
		Elem:          elem,
		Kind:          KindBoxed,
		Sig:           elem.ObjectSig,
		Display:       elem.ObjectDisplay,
		ObjectSig:     elem.ObjectSig,
		ObjectDisplay: elem.ObjectDisplay,
		Class:         elem.Class,
	}
	d.marshal = func(env managed.Env, v reflect.Value) (managed.Value, error) {
		return elem.marshalObject(env, v.Field(0))
	}
	d.unmarshal = func(env managed.Env, v managed.Value, out reflect.Value) error {
		return elem.unmarshalObject(env, v, out.Field(0))
	}
	return d
}
