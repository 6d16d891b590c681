package descriptor

import (
	"reflect"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/signature"
)

// Resolver maps Go types to descriptors.
//
// Builtin types resolve on their own. Records, native classes and enums
// resolve only after they are declared with RegisterRecord, RegisterNative
// and RegisterEnum. Resolved descriptors are cached per type.
type Resolver struct {
	callbacks Callbacks
	records   map[reflect.Type]recordDecl
	natives   map[reflect.Type]nativeDecl
	enums     map[reflect.Type]enumDecl
	cache     sync.Map // reflect.Type -> *Descriptor
	mu        sync.RWMutex
}

type recordDecl struct {
	access RecordAccessor
	class  string
	fields []FieldDecl
}

// FieldDecl names a record field and the Go struct field that backs it.
type FieldDecl struct {
	Name  string
	Index int
}

type nativeDecl struct {
	store NativeStore
	class string
}

type enumDecl struct {
	mapper EnumMapper
	class  string
}

var (
	objectType   = reflect.TypeFor[managed.Object]()
	durationType = reflect.TypeFor[time.Duration]()
	timeType     = reflect.TypeFor[time.Time]()
	errorType    = reflect.TypeFor[error]()
)

// NewResolver creates a resolver with no declared classes.
func NewResolver() *Resolver {
	return &Resolver{
		records: make(map[reflect.Type]recordDecl),
		natives: make(map[reflect.Type]nativeDecl),
		enums:   make(map[reflect.Type]enumDecl),
	}
}

// SetCallbacks installs the factory used to expose Go funcs to the
// managed side. Without it, marshaling a func fails.
func (r *Resolver) SetCallbacks(cb Callbacks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = cb
}

func (r *Resolver) getCallbacks() Callbacks {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbacks
}

// RegisterRecord declares the struct type t as the record class at path.
// When access is nil, fields are copied one by one through their
// descriptors.
func (r *Resolver) RegisterRecord(t reflect.Type, path string, fields []FieldDecl, access RecordAccessor) error {
	if t.Kind() != reflect.Struct {
		return errors.New(errors.PhaseRegister, errors.KindTypeMismatch).
			GoType(t.String()).
			Detail("record type must be a struct").
			Build()
	}
	for _, f := range fields {
		if f.Index < 0 || f.Index >= t.NumField() {
			return errors.InvalidInput(errors.PhaseRegister, "record field index out of range: "+f.Name)
		}
		if !t.Field(f.Index).IsExported() {
			return errors.InvalidInput(errors.PhaseRegister, "record field must be exported: "+t.Field(f.Index).Name)
		}
	}
	return r.declare(t, path, func() { r.records[t] = recordDecl{class: path, fields: fields, access: access} })
}

// RegisterNative declares the struct type t as the native class at path.
// Both *t and t resolve afterwards; t by value is copied into a fresh
// native object when marshaled.
func (r *Resolver) RegisterNative(t reflect.Type, path string, store NativeStore) error {
	if t.Kind() != reflect.Struct {
		return errors.New(errors.PhaseRegister, errors.KindTypeMismatch).
			GoType(t.String()).
			Detail("native class type must be a struct").
			Build()
	}
	return r.declare(t, path, func() { r.natives[t] = nativeDecl{class: path, store: store} })
}

// RegisterEnum declares the integer type t as the enum class at path.
func (r *Resolver) RegisterEnum(t reflect.Type, path string, mapper EnumMapper) error {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return errors.New(errors.PhaseRegister, errors.KindTypeMismatch).
			GoType(t.String()).
			Detail("enum type must have an integer kind").
			Build()
	}
	return r.declare(t, path, func() { r.enums[t] = enumDecl{class: path, mapper: mapper} })
}

func (r *Resolver) declare(t reflect.Type, path string, store func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, rec := r.records[t]
	_, nat := r.natives[t]
	_, enu := r.enums[t]
	if rec || nat || enu {
		return errors.New(errors.PhaseRegister, errors.KindDuplicateRegistration).
			GoType(t.String()).
			Detail("type already declared").
			Build()
	}
	if _, ok := r.cache.Load(t); ok {
		return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
			GoType(t.String()).
			Detail("type already resolved as a builtin").
			Build()
	}
	store()
	Logger().Debug("type declared", zap.String("type", t.String()), zap.String("class", path))
	return nil
}

// Resolve returns the descriptor for t. A nil t resolves to void.
func (r *Resolver) Resolve(t reflect.Type) (*Descriptor, error) {
	if t == nil {
		return voidDescriptor, nil
	}
	return r.resolve(t, nil, map[reflect.Type]bool{})
}

// For returns the descriptor of T.
func For[T any](r *Resolver) (*Descriptor, error) {
	return r.Resolve(reflect.TypeFor[T]())
}

func (r *Resolver) resolve(t reflect.Type, path []string, visiting map[reflect.Type]bool) (*Descriptor, error) {
	if cached, ok := r.cache.Load(t); ok {
		return cached.(*Descriptor), nil
	}
	if visiting[t] {
		return nil, errors.New(errors.PhaseResolve, errors.KindUnsupported).
			Path(path...).
			GoType(t.String()).
			Detail("cyclic type").
			Build()
	}
	visiting[t] = true
	defer delete(visiting, t)

	d, err := r.build(t, path, visiting)
	if err != nil {
		return nil, err
	}
	actual, _ := r.cache.LoadOrStore(t, d)
	return actual.(*Descriptor), nil
}

func (r *Resolver) build(t reflect.Type, path []string, visiting map[reflect.Type]bool) (*Descriptor, error) {
	r.mu.RLock()
	rec, isRecord := r.records[t]
	enu, isEnum := r.enums[t]
	var nat nativeDecl
	isNative, byValue := false, false
	if t.Kind() == reflect.Pointer {
		nat, isNative = r.natives[t.Elem()]
	} else if n, ok := r.natives[t]; ok {
		nat, isNative, byValue = n, true, true
	}
	r.mu.RUnlock()

	switch {
	case isRecord:
		return r.buildRecord(t, rec, path, visiting)
	case isNative:
		return buildNative(t, nat, byValue), nil
	case isEnum:
		return buildEnum(t, enu), nil
	}

	switch t {
	case objectType:
		return objectDescriptor, nil
	case durationType:
		return durationDescriptor, nil
	case timeType:
		return instantDescriptor, nil
	case utf16StringType:
		return utf16Descriptor, nil
	case stringViewType:
		return stringViewDescriptor, nil
	}

	if m, ok := markerOf(t); ok {
		return r.buildMarked(t, m, path, visiting)
	}

	switch t.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint16, reflect.Int16, reflect.Int32,
		reflect.Int64, reflect.Int, reflect.Float32, reflect.Float64:
		return buildPrimitive(t), nil
	case reflect.String:
		return buildString(t), nil
	case reflect.Slice:
		elem, err := r.resolve(t.Elem(), at(path, "[]"), visiting)
		if err != nil {
			return nil, err
		}
		if elem.IsPrimitive() {
			return buildArray(t, elem), nil
		}
		return buildList(t, elem), nil
	case reflect.Map:
		key, err := r.resolve(t.Key(), at(path, "key"), visiting)
		if err != nil {
			return nil, err
		}
		val, err := r.resolve(t.Elem(), at(path, "value"), visiting)
		if err != nil {
			return nil, err
		}
		return buildMap(t, key, val, hashMapClass), nil
	case reflect.Func:
		return r.buildFunc(t, path, visiting)
	}

	return nil, errors.NoDescriptor(path, t.String())
}

func (r *Resolver) buildMarked(t reflect.Type, m marker, path []string, visiting map[reflect.Type]bool) (*Descriptor, error) {
	args := m.typeArgs()
	resolved := make([]*Descriptor, len(args))
	for i, a := range args {
		d, err := r.resolve(a, at(path, t.Name()), visiting)
		if err != nil {
			return nil, err
		}
		resolved[i] = d
	}
	switch m.form() {
	case formBoxed:
		return buildBoxed(t, resolved[0]), nil
	case formArrayView:
		return buildArrayView(t, resolved[0]), nil
	case formOptional:
		return buildOptional(t, resolved[0]), nil
	case formHashSet:
		return buildSet(t, resolved[0], hashSetClass), nil
	case formTreeSet:
		return buildSet(t, resolved[0], treeSetClass), nil
	case formTreeMap:
		return buildMap(t, resolved[0], resolved[1], treeMapClass), nil
	case formListView:
		return buildListView(t, resolved[0]), nil
	case formSetView:
		return buildSetView(t, resolved[0]), nil
	case formMapView:
		return buildMapView(t, resolved[0], resolved[1]), nil
	}
	return nil, errors.NoDescriptor(path, t.String())
}

// at extends a diagnostic path without aliasing the caller's slice.
func at(path []string, elem string) []string {
	return append(slices.Clip(path), elem)
}

var voidDescriptor = &Descriptor{
	Kind:    KindVoid,
	Sig:     signature.Void,
	Display: "void",
}

// Void returns the descriptor of "no result".
func Void() *Descriptor {
	return voidDescriptor
}
