package descriptor

import (
	"reflect"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
)

// Kind classifies a descriptor.
type Kind uint8

const (
	KindVoid Kind = iota
	KindPrimitive
	KindBoxed
	KindString
	KindObject
	KindArray
	KindList
	KindSet
	KindMap
	KindOptional
	KindDuration
	KindInstant
	KindFunction
	KindRecord
	KindNative
	KindEnum
)

var kindNames = [...]string{
	KindVoid:      "void",
	KindPrimitive: "primitive",
	KindBoxed:     "boxed",
	KindString:    "string",
	KindObject:    "object",
	KindArray:     "array",
	KindList:      "list",
	KindSet:       "set",
	KindMap:       "map",
	KindOptional:  "optional",
	KindDuration:  "duration",
	KindInstant:   "instant",
	KindFunction:  "function",
	KindRecord:    "record",
	KindNative:    "native",
	KindEnum:      "enum",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

type (
	marshalFunc   func(env managed.Env, v reflect.Value) (managed.Value, error)
	unmarshalFunc func(env managed.Env, v managed.Value, out reflect.Value) error
)

// Descriptor describes how one Go type crosses the boundary.
// Descriptors are immutable once resolved and shared between callers.
type Descriptor struct {
	GoType reflect.Type
	Elem   *Descriptor
	Key    *Descriptor
	Func   *FuncInfo

	// Sig and Display describe the type in its native position.
	Sig     string
	Display string

	// ObjectSig and ObjectDisplay describe the type where only references
	// are allowed (collection elements, optionals, generic parameters).
	// They differ from Sig and Display only for primitives, which box.
	ObjectSig     string
	ObjectDisplay string

	// Class is the concrete class instantiated when marshaling, if any.
	Class string

	// Fields lists record fields in declaration order.
	Fields []RecordField

	marshal         marshalFunc
	unmarshal       unmarshalFunc
	marshalObject   marshalFunc
	unmarshalObject unmarshalFunc

	Kind Kind
}

// RecordField is a record field with its resolved descriptor.
type RecordField struct {
	Desc  *Descriptor
	Name  string
	Index int
}

// IsPrimitive reports whether the type travels as a primitive value.
func (d *Descriptor) IsPrimitive() bool {
	return d.Kind == KindPrimitive
}

// Marshal converts a Go value into its boundary representation.
func (d *Descriptor) Marshal(env managed.Env, v reflect.Value) (managed.Value, error) {
	if d.marshal == nil {
		return nil, nil
	}
	return d.marshal(env, v)
}

// Unmarshal converts a boundary value into the Go value out, which must
// be settable.
func (d *Descriptor) Unmarshal(env managed.Env, v managed.Value, out reflect.Value) error {
	if d.unmarshal == nil {
		return nil
	}
	return d.unmarshal(env, v, out)
}

// MarshalObject converts a Go value into a reference, boxing primitives.
func (d *Descriptor) MarshalObject(env managed.Env, v reflect.Value) (managed.Object, error) {
	m := d.marshalObject
	if m == nil {
		m = d.marshal
	}
	if m == nil {
		return nil, errors.Unsupported(errors.PhaseMarshal, "void has no object form")
	}
	val, err := m(env, v)
	if err != nil || val == nil {
		return nil, err
	}
	obj, ok := val.(managed.Object)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseMarshal, nil, d.GoType.String(), d.ObjectSig)
	}
	return obj, nil
}

// UnmarshalObject converts a reference into the Go value out, unboxing
// primitives.
func (d *Descriptor) UnmarshalObject(env managed.Env, obj managed.Object, out reflect.Value) error {
	u := d.unmarshalObject
	if u == nil {
		u = d.unmarshal
	}
	if u == nil {
		return nil
	}
	var v managed.Value
	if obj != nil {
		v = obj
	}
	return u(env, v, out)
}

// Value is a convenience wrapper around Marshal for an interface value.
func (d *Descriptor) Value(env managed.Env, v any) (managed.Value, error) {
	rv := reflect.New(d.GoType).Elem()
	if v != nil {
		rv.Set(reflect.ValueOf(v))
	}
	return d.Marshal(env, rv)
}

// Native is a convenience wrapper around Unmarshal returning a fresh Go value.
func (d *Descriptor) Native(env managed.Env, v managed.Value) (any, error) {
	out := reflect.New(d.GoType).Elem()
	if err := d.Unmarshal(env, v, out); err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// NativeStore maps native objects to and from managed wrappers.
type NativeStore interface {
	// Wrap returns a managed wrapper of class for the pointer ptr.
	Wrap(env managed.Env, class string, ptr reflect.Value) (managed.Object, error)
	// Unwrap returns the pointer held by the wrapper obj.
	Unwrap(env managed.Env, class string, obj managed.Object) (reflect.Value, error)
}

// RecordAccessor moves the fields of a record between a Go struct and its
// managed instance.
type RecordAccessor interface {
	// StoreFields writes every field of rec into obj.
	StoreFields(env managed.Env, rec reflect.Value, obj managed.Object) error
	// LoadFields reads every field of obj into rec.
	LoadFields(env managed.Env, obj managed.Object, rec reflect.Value) error
}

// EnumMapper maps enum values to and from managed enum instances.
type EnumMapper interface {
	BoundaryValue(env managed.Env, value int64) (managed.Object, error)
	NativeValue(env managed.Env, obj managed.Object) (int64, error)
}

// Callbacks exposes Go funcs to the managed side.
type Callbacks interface {
	// Wrap returns a managed instance of the descriptor's functional
	// interface that forwards to fn.
	Wrap(env managed.Env, d *Descriptor, fn reflect.Value) (managed.Object, error)
	// Unwrap returns the Go func behind obj if obj was produced by Wrap.
	Unwrap(env managed.Env, d *Descriptor, obj managed.Object) (reflect.Value, bool)
}

// isNull reports whether a boundary value is the null reference.
func isNull(v managed.Value) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// asObject converts a boundary value into a reference.
func asObject(v managed.Value, phase errors.Phase, sig string) (managed.Object, error) {
	if isNull(v) {
		return nil, nil
	}
	obj, ok := v.(managed.Object)
	if !ok {
		return nil, errors.New(phase, errors.KindTypeMismatch).
			Sig(sig).
			Detail("expected a reference, got %T", v).
			Build()
	}
	return obj, nil
}
