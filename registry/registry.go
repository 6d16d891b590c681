package registry

import (
	"maps"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
)

// ClassKind says how a class is backed on the native side.
type ClassKind uint8

const (
	// KindStatic classes expose free functions only.
	KindStatic ClassKind = iota
	// KindNative classes wrap a native object behind a handle.
	KindNative
	// KindRecord classes are plain data copied field by field.
	KindRecord
	// KindEnum classes map managed enum constants to native values.
	KindEnum
)

func (k ClassKind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindNative:
		return "native"
	case KindRecord:
		return "record"
	case KindEnum:
		return "enum"
	}
	return "unknown"
}

// FunctionBinding is a native function exposed as a managed method.
type FunctionBinding struct {
	EntryPoint managed.NativeFunc

	Name      string
	Signature string

	ParamDisplay  []string
	ReturnDisplay string

	// IsMember marks instance methods; the others bind as static.
	IsMember bool
}

// FieldBinding is a record field.
type FieldBinding struct {
	// Read converts the field of the Go record rec to its boundary value.
	Read func(env managed.Env, rec reflect.Value) (managed.Value, error)
	// Write stores the boundary value v into the field of rec.
	Write func(env managed.Env, v managed.Value, rec reflect.Value) error

	Name      string
	Signature string
	Display   string
	Index     int
}

// Class is one registered class with its bindings in insertion order.
type Class struct {
	GoType    reflect.Type
	enum      *EnumBinding
	ID        string
	functions []*FunctionBinding
	fields    []*FieldBinding
	Kind      ClassKind
}

// Functions returns the function bindings in registration order.
func (c *Class) Functions() []*FunctionBinding { return c.functions }

// Fields returns the field bindings in registration order.
func (c *Class) Fields() []*FieldBinding { return c.fields }

// StoreFields writes every field of the Go record rec into obj through
// its field bindings.
func (c *Class) StoreFields(env managed.Env, rec reflect.Value, obj managed.Object) error {
	for _, f := range c.fields {
		v, err := f.Read(env, rec)
		if err != nil {
			return err
		}
		if err := env.SetField(obj, f.Name, f.Signature, v); err != nil {
			return err
		}
	}
	return nil
}

// LoadFields reads every field of obj into the Go record rec through its
// field bindings.
func (c *Class) LoadFields(env managed.Env, obj managed.Object, rec reflect.Value) error {
	for _, f := range c.fields {
		v, err := env.GetField(obj, f.Name, f.Signature)
		if err != nil {
			return err
		}
		if err := f.Write(env, v, rec); err != nil {
			return err
		}
	}
	return nil
}

// Enum returns the enum binding of an enum class, or nil.
func (c *Class) Enum() *EnumBinding { return c.enum }

// Registry is the table of every class exposed to the managed side.
//
// It is populated during package initialization, frozen by the load step
// and read concurrently afterwards. Reads after Freeze take no locks.
type Registry struct {
	classes  map[string]*Class
	snapshot atomic.Pointer[snapshot]
	order    []*Class
	mu       sync.Mutex
	frozen   atomic.Bool
}

type snapshot struct {
	byID  map[string]*Class
	order []*Class
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

// RegisterClass adds the class id. An id may be registered only once.
func (r *Registry) RegisterClass(id string, kind ClassKind, goType reflect.Type) (*Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return nil, errors.Frozen("register class " + id)
	}
	if id == "" {
		return nil, errors.InvalidInput(errors.PhaseRegister, "class identifier is empty")
	}
	if _, exists := r.classes[id]; exists {
		return nil, errors.DuplicateRegistration(id)
	}
	c := &Class{ID: id, Kind: kind, GoType: goType}
	if kind == KindEnum {
		c.enum = newEnumBinding(id)
	}
	r.classes[id] = c
	r.order = append(r.order, c)
	Logger().Debug("class registered", zap.String("class", id), zap.Stringer("kind", kind))
	return c, nil
}

// mutable returns class id for mutation.
func (r *Registry) mutable(id, what string) (*Class, error) {
	if r.frozen.Load() {
		return nil, errors.Frozen(what)
	}
	c, ok := r.classes[id]
	if !ok {
		return nil, errors.NotFound(errors.PhaseRegister, "class", id)
	}
	return c, nil
}

// AddFunction appends a function binding to class id. Two bindings with
// the same name and signature collide.
func (r *Registry) AddFunction(id string, fb *FunctionBinding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.mutable(id, "add function "+fb.Name)
	if err != nil {
		return err
	}
	for _, existing := range c.functions {
		if existing.Name == fb.Name && existing.Signature == fb.Signature {
			return errors.SignatureCollision(id, fb.Name, fb.Signature)
		}
	}
	c.functions = append(c.functions, fb)
	return nil
}

// AddField appends a field binding to the record class id.
func (r *Registry) AddField(id string, f *FieldBinding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.mutable(id, "add field "+f.Name)
	if err != nil {
		return err
	}
	if c.Kind != KindRecord {
		return errors.InvalidInput(errors.PhaseRegister, "fields can only be added to record classes: "+id)
	}
	if slices.ContainsFunc(c.fields, func(e *FieldBinding) bool { return e.Name == f.Name }) {
		return errors.SignatureCollision(id, f.Name, f.Signature)
	}
	c.fields = append(c.fields, f)
	return nil
}

// AddEnumValue declares that the enum constant name of class id maps to
// the native value.
func (r *Registry) AddEnumValue(id, name string, value int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.mutable(id, "add enum value "+name)
	if err != nil {
		return err
	}
	if c.Kind != KindEnum {
		return errors.InvalidInput(errors.PhaseRegister, "enum values can only be added to enum classes: "+id)
	}
	return c.enum.declare(name, value)
}

// Lookup returns the class id.
func (r *Registry) Lookup(id string) (*Class, bool) {
	if r.frozen.Load() {
		c, ok := r.snapshot.Load().byID[id]
		return c, ok
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.classes[id]
	return c, ok
}

// ForEachClass visits every class in registration order and stops at the
// first error.
func (r *Registry) ForEachClass(visit func(*Class) error) error {
	for _, c := range r.Classes() {
		if err := visit(c); err != nil {
			return err
		}
	}
	return nil
}

// Classes returns the classes in registration order.
func (r *Registry) Classes() []*Class {
	if r.frozen.Load() {
		return r.snapshot.Load().order
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

// Freeze ends the registration phase. It is idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return
	}
	r.snapshot.Store(&snapshot{byID: maps.Clone(r.classes), order: slices.Clone(r.order)})
	r.frozen.Store(true)
	Logger().Debug("registry frozen", zap.Int("classes", len(r.order)))
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}
