package descriptor

import (
	"reflect"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/signature"
)

// buildRecord maps a declared struct onto a record class. Marshaling
// allocates the record without running its initializer and writes each
// field; unmarshaling reads each field into a zero struct. A declared
// RecordAccessor does the field copying.
func (r *Resolver) buildRecord(t reflect.Type, decl recordDecl, path []string, visiting map[reflect.Type]bool) (*Descriptor, error) {
	fields := make([]RecordField, len(decl.fields))
	for i, f := range decl.fields {
		fd, err := r.resolve(t.Field(f.Index).Type, at(path, t.Name()+"."+f.Name), visiting)
		if err != nil {
			return nil, err
		}
		if fd.Kind == KindVoid {
			return nil, errors.NoDescriptor(at(path, f.Name), t.Field(f.Index).Type.String())
		}
		fields[i] = RecordField{Desc: fd, Name: f.Name, Index: f.Index}
	}

	sig := signature.Object(decl.class)
	display := signature.ClassName(decl.class)
	d := &Descriptor{
		GoType:        t,
		Kind:          KindRecord,
		Sig:           sig,
		Display:       display,
		ObjectSig:     sig,
		ObjectDisplay: display,
		Class:         decl.class,
		Fields:        fields,
	}

	d.marshal = func(env managed.Env, v reflect.Value) (managed.Value, error) {
		cls, err := env.FindClass(decl.class)
		if err != nil {
			return nil, err
		}
		obj, err := env.AllocObject(cls)
		if err != nil {
			return nil, err
		}
		if decl.access != nil {
			if err := decl.access.StoreFields(env, v, obj); err != nil {
				return nil, err
			}
			return obj, nil
		}
		for _, f := range fields {
			fv, err := f.Desc.Marshal(env, v.Field(f.Index))
			if err != nil {
				return nil, err
			}
			if err := env.SetField(obj, f.Name, f.Desc.Sig, fv); err != nil {
				return nil, err
			}
		}
		return obj, nil
	}
	d.unmarshal = func(env managed.Env, v managed.Value, out reflect.Value) error {
		obj, err := asObject(v, errors.PhaseUnmarshal, sig)
		if err != nil {
			return err
		}
		if obj == nil {
			return errors.NilPointer(errors.PhaseUnmarshal, nil, display)
		}
		rec := reflect.New(t).Elem()
		if decl.access != nil {
			if err := decl.access.LoadFields(env, obj, rec); err != nil {
				return err
			}
			out.Set(rec)
			return nil
		}
		for _, f := range fields {
			fv, err := env.GetField(obj, f.Name, f.Desc.Sig)
			if err != nil {
				return err
			}
			if err := f.Desc.Unmarshal(env, fv, rec.Field(f.Index)); err != nil {
				return err
			}
		}
		out.Set(rec)
		return nil
	}
	return d, nil
}
