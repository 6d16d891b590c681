package descriptor

import (
	"reflect"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/signature"
)

// buildEnum maps a declared integer type onto its enum class through the
// enum's mapper. Both directions are table lookups once the enum is
// resolved.
func buildEnum(t reflect.Type, decl enumDecl) *Descriptor {
	sig := signature.Object(decl.class)
	display := signature.ClassName(decl.class)
	d := &Descriptor{
		GoType:        t,
		Kind:          KindEnum,
		Sig:           sig,
		Display:       display,
		ObjectSig:     sig,
		ObjectDisplay: display,
		Class:         decl.class,
	}
	signed := t.Kind() >= reflect.Int && t.Kind() <= reflect.Int64

	d.marshal = func(env managed.Env, v reflect.Value) (managed.Value, error) {
		var n int64
		if signed {
			n = v.Int()
		} else {
			n = int64(v.Uint())
		}
		return decl.mapper.BoundaryValue(env, n)
	}
	d.unmarshal = func(env managed.Env, v managed.Value, out reflect.Value) error {
		obj, err := asObject(v, errors.PhaseUnmarshal, sig)
		if err != nil {
			return err
		}
		if obj == nil {
			return errors.NilPointer(errors.PhaseUnmarshal, nil, display)
		}
		n, err := decl.mapper.NativeValue(env, obj)
		if err != nil {
			return err
		}
		if signed {
			out.SetInt(n)
		} else {
			out.SetUint(uint64(n))
		}
		return nil
	}
	return d
}
