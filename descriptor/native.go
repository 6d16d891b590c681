package descriptor

import (
	"reflect"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/signature"
)

// buildNative maps *T of a declared native class onto its managed
// wrapper. With byValue set the descriptor is for T itself: marshaling
// copies the value into a fresh native object and unmarshaling copies
// the native object out.
func buildNative(t reflect.Type, decl nativeDecl, byValue bool) *Descriptor {
	sig := signature.Object(decl.class)
	display := signature.ClassName(decl.class)
	d := &Descriptor{
		GoType:        t,
		Kind:          KindNative,
		Sig:           sig,
		Display:       display,
		ObjectSig:     sig,
		ObjectDisplay: display,
		Class:         decl.class,
	}

	d.marshal = func(env managed.Env, v reflect.Value) (managed.Value, error) {
		ptr := v
		if byValue {
			ptr = reflect.New(t)
			ptr.Elem().Set(v)
		} else if v.IsNil() {
			return nil, nil
		}
		return decl.store.Wrap(env, decl.class, ptr)
	}
	d.unmarshal = func(env managed.Env, v managed.Value, out reflect.Value) error {
		obj, err := asObject(v, errors.PhaseUnmarshal, sig)
		if err != nil {
			return err
		}
		if obj == nil {
			if byValue {
				return errors.NilPointer(errors.PhaseUnmarshal, nil, display)
			}
			out.SetZero()
			return nil
		}
		ptr, err := decl.store.Unwrap(env, decl.class, obj)
		if err != nil {
			return err
		}
		if byValue {
			out.Set(ptr.Elem())
			return nil
		}
		out.Set(ptr)
		return nil
	}
	return d
}
