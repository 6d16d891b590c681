package memvm

import (
	"reflect"
	"sync"

	"github.com/wippyai/nativebind/managed"
)

// Impl is the body of a method implemented inside the VM.
// this is nil for static methods.
type Impl func(env *Env, this *Object, args []managed.Value) (managed.Value, error)

// FieldDecl declares a field.
type FieldDecl struct {
	Value  managed.Value
	Name   string
	Sig    string
	Static bool
}

// MethodDecl declares a method or constructor ("<init>").
// A method is either implemented (Impl set), native (bound later through
// RegisterNatives) or abstract.
type MethodDecl struct {
	Impl     Impl
	Name     string
	Sig      string
	Static   bool
	Native   bool
	Abstract bool
}

// ClassDecl describes a class to define in the VM.
type ClassDecl struct {
	Path       string
	Super      string
	Interfaces []string
	Fields     []FieldDecl
	Methods    []MethodDecl
	Abstract   bool
	Interface  bool
}

type method struct {
	impl     Impl
	owner    *Class
	name     string
	sig      string
	static   bool
	native   bool
	abstract bool
}

type memberKey struct {
	name string
	sig  string
}

// Class is a class defined in the VM.
type Class struct {
	natives    map[memberKey]managed.NativeFunc
	methods    map[memberKey]*method
	fields     map[string]FieldDecl
	statics    map[string]managed.Value
	super      *Class
	vm         *VM
	path       string
	interfaces []*Class
	fieldOrder []string
	mu         sync.RWMutex
	abstract   bool
	iface      bool
}

// Path returns the slash-separated class path.
func (c *Class) Path() string { return c.path }

// Class returns the class itself; classes are objects of java/lang/Class.
func (c *Class) Class() managed.Class { return c }

// Super returns the superclass, or nil for java/lang/Object and interfaces.
func (c *Class) Super() *Class { return c.super }

// IsInterface reports whether the class is an interface.
func (c *Class) IsInterface() bool { return c.iface }

// assignableTo reports whether instances of c are instances of target.
func (c *Class) assignableTo(target *Class) bool {
	if target.path == objectClass {
		return true
	}
	for k := c; k != nil; k = k.super {
		if k == target {
			return true
		}
		for _, i := range k.interfaces {
			if i.assignableTo(target) {
				return true
			}
		}
	}
	return false
}

// findMethod looks up a method by name and signature along the hierarchy.
func (c *Class) findMethod(name, sig string) *method {
	key := memberKey{name, sig}
	for k := c; k != nil; k = k.super {
		if m, ok := k.methods[key]; ok {
			return m
		}
	}
	for k := c; k != nil; k = k.super {
		for _, i := range k.interfaces {
			if m := i.findMethod(name, sig); m != nil {
				return m
			}
		}
	}
	return nil
}

// findField looks up a field by name along the superclass chain.
func (c *Class) findField(name string) (FieldDecl, *Class, bool) {
	for k := c; k != nil; k = k.super {
		if f, ok := k.fields[name]; ok {
			return f, k, true
		}
	}
	return FieldDecl{}, nil, false
}

func (c *Class) native(name, sig string) (managed.NativeFunc, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn, ok := c.natives[memberKey{name, sig}]
	return fn, ok
}

// Object is an instance in the VM.
//
// Builtin classes keep their state in a Go payload (a string for
// java/lang/String, a backing slice for arrays, and so on); declared
// fields live in a per-object table.
type Object struct {
	payload any
	cls     *Class
	fields  map[string]managed.Value
	mu      sync.Mutex
}

// Class returns the runtime class of the object.
func (o *Object) Class() managed.Class { return o.cls }

// RuntimeClass returns the concrete class of the object.
func (o *Object) RuntimeClass() *Class { return o.cls }

// Payload returns the builtin state of the object, if any.
func (o *Object) Payload() any { return o.payload }

func (o *Object) getField(name string) managed.Value {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fields[name]
}

func (o *Object) setField(name string, v managed.Value) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fields == nil {
		o.fields = make(map[string]managed.Value)
	}
	o.fields[name] = v
}

// asObject converts a boundary value into an object reference. The
// second result is false when v is not a reference at all.
func asObject(v managed.Value) (*Object, bool) {
	switch o := v.(type) {
	case nil:
		return nil, true
	case *Object:
		return o, true
	case *Class:
		return nil, false
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, true
	}
	return nil, false
}

// zeroValue returns the default value of a field with the given signature.
func zeroValue(sig string) managed.Value {
	switch sig {
	case "Z":
		return false
	case "B":
		return int8(0)
	case "C":
		return uint16(0)
	case "S":
		return int16(0)
	case "I":
		return int32(0)
	case "J":
		return int64(0)
	case "F":
		return float32(0)
	case "D":
		return float64(0)
	}
	return nil
}

// normalize replaces typed nil references with untyped nil.
func normalize(v managed.Value) managed.Value {
	if o, ok := asObject(v); ok && o == nil {
		return nil
	}
	return v
}
