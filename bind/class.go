package bind

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wippyai/nativebind/descriptor"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/registry"
	"github.com/wippyai/nativebind/signature"
)

// Integer is the set of types an enum class can be backed by.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type classBuilder struct {
	m     *Module
	class string
}

// add queues fn as a function of the class. Its descriptors resolve in
// Prepare, so parameter types may be declared after the function.
func (b *classBuilder) add(name string, fn any, recv reflect.Type) {
	b.m.later(func() error {
		a, err := b.m.newAdapter(b.class, name, fn, recv)
		if err != nil {
			return err
		}
		return b.m.registry.AddFunction(b.class, a.binding())
	})
}

// StaticBuilder declares the functions of a static class.
type StaticBuilder struct {
	classBuilder
}

// StaticClass declares a class exposing free functions only.
func (m *Module) StaticClass(path string) *StaticBuilder {
	_, err := m.registry.RegisterClass(path, registry.KindStatic, nil)
	m.fail(err)
	return &StaticBuilder{classBuilder{m: m, class: path}}
}

// Func binds fn as the static method name.
func (b *StaticBuilder) Func(name string, fn any) *StaticBuilder {
	b.add(name, fn, nil)
	return b
}

// NativeBuilder declares the functions of a class wrapping *T.
type NativeBuilder[T any] struct {
	classBuilder
}

// NativeClass declares T as the native class at path. The managed class
// must declare a long nativePointer field and a native close()V method,
// which is bound automatically.
func NativeClass[T any](m *Module, path string) *NativeBuilder[T] {
	b := &NativeBuilder[T]{classBuilder{m: m, class: path}}
	t := reflect.TypeFor[T]()
	if _, err := m.registry.RegisterClass(path, registry.KindNative, t); err != nil {
		m.fail(err)
		return b
	}
	m.fail(m.resolver.RegisterNative(t, path, m.store))
	// close goes last among the instance methods.
	m.later(func() error {
		m.later(func() error {
			return m.registry.AddFunction(path, &registry.FunctionBinding{
				EntryPoint:    m.store.closeBinding,
				Name:          CloseMethod,
				Signature:     signature.Method(signature.Void),
				ReturnDisplay: "void",
				IsMember:      true,
			})
		})
		return nil
	})
	return b
}

// Constructor binds fn as a static factory. fn must return *T or T,
// optionally followed by an error; the result is wrapped without running
// any managed initializer.
func (b *NativeBuilder[T]) Constructor(name string, fn any) *NativeBuilder[T] {
	ft := reflect.TypeOf(fn)
	t := reflect.TypeFor[T]()
	if ft == nil || ft.Kind() != reflect.Func || ft.NumOut() == 0 ||
		(ft.Out(0) != t && ft.Out(0) != reflect.PointerTo(t)) {
		b.m.fail(errors.New(errors.PhaseRegister, errors.KindTypeMismatch).
			Path(b.class, name).
			GoType(fmt.Sprintf("%T", fn)).
			Detail("constructor must return *%s", t.Name()).
			Build())
		return b
	}
	b.add(name, fn, nil)
	return b
}

// Method binds fn as the instance method name. fn takes *T as its first
// parameter; a context.Context may come before or right after it, so
// method expressions like (*T).Do bind directly.
func (b *NativeBuilder[T]) Method(name string, fn any) *NativeBuilder[T] {
	b.add(name, fn, reflect.TypeFor[T]())
	return b
}

// Static binds fn as the static method name.
func (b *NativeBuilder[T]) Static(name string, fn any) *NativeBuilder[T] {
	b.add(name, fn, nil)
	return b
}

// RecordBuilder declares the functions of a record class.
type RecordBuilder[T any] struct {
	classBuilder
}

// RecordClass declares the struct T as the record class at path.
//
// Every exported field becomes a record field named after its bind tag,
// or after the Go name with a lower-case first letter. A tag of "-"
// skips the field.
func RecordClass[T any](m *Module, path string) *RecordBuilder[T] {
	b := &RecordBuilder[T]{classBuilder{m: m, class: path}}
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		m.fail(errors.New(errors.PhaseRegister, errors.KindTypeMismatch).
			Path(path).
			GoType(t.String()).
			Detail("record type must be a struct").
			Build())
		return b
	}
	cls, err := m.registry.RegisterClass(path, registry.KindRecord, t)
	if err != nil {
		m.fail(err)
		return b
	}
	if err := m.resolver.RegisterRecord(t, path, recordFields(t), cls); err != nil {
		m.fail(err)
		return b
	}
	m.later(func() error {
		d, err := m.resolver.Resolve(t)
		if err != nil {
			return err
		}
		for _, f := range d.Fields {
			if err := m.registry.AddField(path, fieldBinding(f)); err != nil {
				return err
			}
		}
		return nil
	})
	return b
}

// Static binds fn as the static method name.
func (b *RecordBuilder[T]) Static(name string, fn any) *RecordBuilder[T] {
	b.add(name, fn, nil)
	return b
}

func recordFields(t reflect.Type) []descriptor.FieldDecl {
	var out []descriptor.FieldDecl
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("bind")
		if name == "-" {
			continue
		}
		if name == "" {
			name = lowerFirst(f.Name)
		}
		out = append(out, descriptor.FieldDecl{Name: name, Index: i})
	}
	return out
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[n:]
}

func fieldBinding(f descriptor.RecordField) *registry.FieldBinding {
	d, idx := f.Desc, f.Index
	return &registry.FieldBinding{
		Name:      f.Name,
		Signature: d.Sig,
		Display:   d.Display,
		Index:     idx,
		Read: func(env managed.Env, rec reflect.Value) (managed.Value, error) {
			return d.Marshal(env, rec.Field(idx))
		},
		Write: func(env managed.Env, v managed.Value, rec reflect.Value) error {
			return d.Unmarshal(env, v, rec.Field(idx))
		},
	}
}

// EnumBuilder declares the constants of an enum class.
type EnumBuilder[T Integer] struct {
	classBuilder
}

// EnumClass declares the integer type T as the enum class at path.
func EnumClass[T Integer](m *Module, path string) *EnumBuilder[T] {
	b := &EnumBuilder[T]{classBuilder{m: m, class: path}}
	t := reflect.TypeFor[T]()
	c, err := m.registry.RegisterClass(path, registry.KindEnum, t)
	if err != nil {
		m.fail(err)
		return b
	}
	m.fail(m.resolver.RegisterEnum(t, path, c.Enum()))
	return b
}

// Value maps the managed constant name to v.
func (b *EnumBuilder[T]) Value(v T, name string) *EnumBuilder[T] {
	if strings.TrimSpace(name) == "" {
		b.m.fail(errors.InvalidInput(errors.PhaseRegister, "enum constant name is empty in "+b.class))
		return b
	}
	b.m.fail(b.m.registry.AddEnumValue(b.class, name, int64(v)))
	return b
}
