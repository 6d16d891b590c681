package descriptor

import (
	"reflect"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/signature"
)

var stringSig = signature.Object(signature.StringClass)

func buildString(t reflect.Type) *Descriptor {
	d := stringBase(t)
	d.marshal = func(env managed.Env, v reflect.Value) (managed.Value, error) {
		return env.NewString(v.String())
	}
	d.unmarshal = func(env managed.Env, v managed.Value, out reflect.Value) error {
		obj, err := asObject(v, errors.PhaseUnmarshal, stringSig)
		if err != nil {
			return err
		}
		if obj == nil {
			out.SetString("")
			return nil
		}
		s, err := env.StringUTF(obj)
		if err != nil {
			return err
		}
		out.SetString(s)
		return nil
	}
	return d
}

func stringBase(t reflect.Type) *Descriptor {
	return &Descriptor{
		GoType:        t,
		Kind:          KindString,
		Sig:           stringSig,
		Display:       "String",
		ObjectSig:     stringSig,
		ObjectDisplay: "String",
		Class:         signature.StringClass,
	}
}

// UTF16String is a string held as UTF-16 code units, the managed side's
// native string encoding. Unpaired surrogates survive the round trip.
type UTF16String []uint16

var (
	utf16StringType = reflect.TypeFor[UTF16String]()
	utf16Descriptor = buildUTF16()
)

func buildUTF16() *Descriptor {
	d := stringBase(utf16StringType)
	d.marshal = func(env managed.Env, v reflect.Value) (managed.Value, error) {
		return env.NewStringUTF16(v.Interface().(UTF16String))
	}
	d.unmarshal = func(env managed.Env, v managed.Value, out reflect.Value) error {
		obj, err := asObject(v, errors.PhaseUnmarshal, stringSig)
		if err != nil {
			return err
		}
		if obj == nil {
			out.SetZero()
			return nil
		}
		units, err := env.StringUTF16(obj)
		if err != nil {
			return err
		}
		out.Set(reflect.ValueOf(UTF16String(units)))
		return nil
	}
	return d
}

// StringView refers to a managed string without copying it. Contents are
// decoded on demand. A view is valid only during the call that produced it.
type StringView struct {
	env managed.Env
	obj managed.Object
}

var (
	stringViewType       = reflect.TypeFor[StringView]()
	stringViewDescriptor = buildStringView()
)

// IsNull reports whether the view refers to the null string.
func (s StringView) IsNull() bool { return s.obj == nil }

// Object returns the underlying managed string.
func (s StringView) Object() managed.Object { return s.obj }

// String decodes the view. The null string decodes as "".
func (s StringView) String() (string, error) {
	if s.obj == nil {
		return "", nil
	}
	return s.env.StringUTF(s.obj)
}

// UTF16 returns the UTF-16 code units of the view.
func (s StringView) UTF16() ([]uint16, error) {
	if s.obj == nil {
		return nil, nil
	}
	return s.env.StringUTF16(s.obj)
}

// Len returns the length in UTF-16 code units.
func (s StringView) Len() (int, error) {
	if s.obj == nil {
		return 0, nil
	}
	n, err := s.env.CallMethod(s.obj, "length", signature.Method(signature.Int))
	if err != nil {
		return 0, err
	}
	return int(n.(int32)), nil
}

func buildStringView() *Descriptor {
	d := stringBase(stringViewType)
	d.marshal = func(_ managed.Env, v reflect.Value) (managed.Value, error) {
		return v.Interface().(StringView).obj, nil
	}
	d.unmarshal = func(env managed.Env, v managed.Value, out reflect.Value) error {
		obj, err := asObject(v, errors.PhaseUnmarshal, stringSig)
		if err != nil {
			return err
		}
		out.Set(reflect.ValueOf(StringView{env: env, obj: obj}))
		return nil
	}
	return d
}

var objectDescriptor = buildObject()

func buildObject() *Descriptor {
	sig := signature.Object(signature.ObjectClass)
	d := &Descriptor{
		GoType:        objectType,
		Kind:          KindObject,
		Sig:           sig,
		Display:       "Object",
		ObjectSig:     sig,
		ObjectDisplay: "Object",
	}
	d.marshal = func(_ managed.Env, v reflect.Value) (managed.Value, error) {
		if v.IsNil() {
			return nil, nil
		}
		return v.Interface(), nil
	}
	d.unmarshal = func(_ managed.Env, v managed.Value, out reflect.Value) error {
		obj, err := asObject(v, errors.PhaseUnmarshal, sig)
		if err != nil {
			return err
		}
		if obj == nil {
			out.SetZero()
			return nil
		}
		out.Set(reflect.ValueOf(obj))
		return nil
	}
	return d
}
