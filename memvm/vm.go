package memvm

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/nativebind/managed"
)

const objectClass = "java/lang/Object"

// VM is an in-process managed object runtime.
//
// It implements managed.Runtime over a class table that starts with the
// builtin java/lang, java/util, java/util/function and java/time classes.
// Further classes are added with Define and DefineEnum.
type VM struct {
	logger   *zap.Logger
	classes  map[string]*Class
	lambdas  map[string]*Class
	globals  map[*Object]int
	mu       sync.RWMutex
	globalMu sync.Mutex
	attached atomic.Int32
}

// Option configures a VM.
type Option func(*VM)

// WithLogger sets the logger used by the VM.
func WithLogger(l *zap.Logger) Option {
	return func(vm *VM) {
		vm.logger = l
	}
}

// New creates a VM with the builtin class library defined.
func New(opts ...Option) *VM {
	vm := &VM{
		classes: make(map[string]*Class),
		lambdas: make(map[string]*Class),
		globals: make(map[*Object]int),
	}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.logger == nil {
		vm.logger = Logger()
	}
	for _, d := range builtins() {
		if _, err := vm.Define(d); err != nil {
			panic(fmt.Sprintf("memvm: builtin %s: %v", d.Path, err))
		}
	}
	return vm
}

// Env returns an environment that is not tied to any attach/detach pair.
func (vm *VM) Env() *Env {
	return &Env{vm: vm}
}

// AttachCurrentThread implements managed.Runtime.
func (vm *VM) AttachCurrentThread() (managed.Env, error) {
	vm.attached.Add(1)
	return &Env{vm: vm, attached: true}, nil
}

// DetachCurrentThread implements managed.Runtime.
func (vm *VM) DetachCurrentThread(env managed.Env) error {
	e, ok := env.(*Env)
	if !ok || e.vm != vm || !e.attached {
		return fmt.Errorf("memvm: detach of an environment that was not attached")
	}
	e.attached = false
	vm.attached.Add(-1)
	return nil
}

// Attached returns the number of environments currently attached.
func (vm *VM) Attached() int {
	return int(vm.attached.Load())
}

// NewGlobalRef implements managed.Runtime.
func (vm *VM) NewGlobalRef(obj managed.Object) managed.Object {
	o, ok := asObject(obj)
	if !ok || o == nil {
		return obj
	}
	vm.globalMu.Lock()
	vm.globals[o]++
	vm.globalMu.Unlock()
	return o
}

// DeleteGlobalRef implements managed.Runtime.
func (vm *VM) DeleteGlobalRef(obj managed.Object) {
	o, ok := asObject(obj)
	if !ok || o == nil {
		return
	}
	vm.globalMu.Lock()
	defer vm.globalMu.Unlock()
	if vm.globals[o] <= 1 {
		delete(vm.globals, o)
		return
	}
	vm.globals[o]--
}

// GlobalRefs returns the number of objects currently pinned by global references.
func (vm *VM) GlobalRefs() int {
	vm.globalMu.Lock()
	defer vm.globalMu.Unlock()
	return len(vm.globals)
}

// Define adds a class to the VM. The superclass and interfaces must
// already be defined.
func (vm *VM) Define(d ClassDecl) (*Class, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if _, exists := vm.classes[d.Path]; exists {
		return nil, fmt.Errorf("memvm: class %s already defined", d.Path)
	}
	c := &Class{
		vm:       vm,
		path:     d.Path,
		abstract: d.Abstract || d.Interface,
		iface:    d.Interface,
		methods:  make(map[memberKey]*method),
		fields:   make(map[string]FieldDecl),
		statics:  make(map[string]managed.Value),
		natives:  make(map[memberKey]managed.NativeFunc),
	}
	super := d.Super
	if super == "" && !d.Interface && d.Path != objectClass {
		super = objectClass
	}
	if super != "" {
		s, ok := vm.classes[super]
		if !ok {
			return nil, fmt.Errorf("memvm: superclass %s of %s not defined", super, d.Path)
		}
		c.super = s
	}
	for _, name := range d.Interfaces {
		i, ok := vm.classes[name]
		if !ok || !i.iface {
			return nil, fmt.Errorf("memvm: interface %s of %s not defined", name, d.Path)
		}
		c.interfaces = append(c.interfaces, i)
	}
	for _, f := range d.Fields {
		if _, dup := c.fields[f.Name]; dup {
			return nil, fmt.Errorf("memvm: duplicate field %s.%s", d.Path, f.Name)
		}
		c.fields[f.Name] = f
		if f.Static {
			v := f.Value
			if v == nil {
				v = zeroValue(f.Sig)
			}
			c.statics[f.Name] = v
		} else {
			c.fieldOrder = append(c.fieldOrder, f.Name)
		}
	}
	for _, md := range d.Methods {
		key := memberKey{md.Name, md.Sig}
		if _, dup := c.methods[key]; dup {
			return nil, fmt.Errorf("memvm: duplicate method %s.%s%s", d.Path, md.Name, md.Sig)
		}
		c.methods[key] = &method{
			owner:    c,
			name:     md.Name,
			sig:      md.Sig,
			static:   md.Static,
			native:   md.Native,
			abstract: md.Abstract || (md.Impl == nil && !md.Native),
			impl:     md.Impl,
		}
	}
	vm.classes[d.Path] = c
	vm.logger.Debug("class defined", zap.String("class", d.Path))
	return c, nil
}

// Class returns the class with the given path.
func (vm *VM) Class(path string) (*Class, bool) {
	if strings.HasPrefix(path, "[") {
		return vm.arrayClass(path[1:]), true
	}
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	c, ok := vm.classes[path]
	return c, ok
}

// arrayClass returns the class of arrays with the given element signature,
// creating it on first use.
func (vm *VM) arrayClass(elemSig string) *Class {
	path := "[" + elemSig
	vm.mu.RLock()
	c, ok := vm.classes[path]
	vm.mu.RUnlock()
	if ok {
		return c
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if c, ok := vm.classes[path]; ok {
		return c
	}
	c = &Class{
		vm:      vm,
		path:    path,
		super:   vm.classes[objectClass],
		methods: make(map[memberKey]*method),
		fields:  make(map[string]FieldDecl),
		statics: make(map[string]managed.Value),
		natives: make(map[memberKey]managed.NativeFunc),
	}
	vm.classes[path] = c
	return c
}

// Lambda creates an instance of the functional interface iface whose single
// abstract method runs fn.
func (vm *VM) Lambda(iface string, fn func(args []managed.Value) (managed.Value, error)) (*Object, error) {
	cls, err := vm.lambdaClass(iface)
	if err != nil {
		return nil, err
	}
	return &Object{cls: cls, payload: fn, fields: map[string]managed.Value{}}, nil
}

func (vm *VM) lambdaClass(iface string) (*Class, error) {
	vm.mu.RLock()
	c, ok := vm.lambdas[iface]
	it := vm.classes[iface]
	vm.mu.RUnlock()
	if ok {
		return c, nil
	}
	if it == nil || !it.iface {
		return nil, fmt.Errorf("memvm: %s is not an interface", iface)
	}
	var target *method
	for _, m := range it.methods {
		if m.abstract && !m.static {
			if target != nil {
				return nil, fmt.Errorf("memvm: %s is not a functional interface", iface)
			}
			target = m
		}
	}
	if target == nil {
		return nil, fmt.Errorf("memvm: %s has no abstract method", iface)
	}
	c, err := vm.Define(ClassDecl{
		Path:       iface + "$$Lambda",
		Interfaces: []string{iface},
		Methods: []MethodDecl{{
			Name: target.name,
			Sig:  target.sig,
			Impl: func(_ *Env, this *Object, args []managed.Value) (managed.Value, error) {
				return this.payload.(func([]managed.Value) (managed.Value, error))(args)
			},
		}},
	})
	if err != nil {
		return nil, err
	}
	vm.mu.Lock()
	vm.lambdas[iface] = c
	vm.mu.Unlock()
	return c, nil
}

// DefineEnum defines an enum class whose constants are named in order.
func (vm *VM) DefineEnum(path string, names ...string) (*Class, error) {
	fields := make([]FieldDecl, 0, len(names))
	for _, n := range names {
		fields = append(fields, FieldDecl{Name: n, Sig: "L" + path + ";", Static: true})
	}
	var values []managed.Object
	c, err := vm.Define(ClassDecl{
		Path:   path,
		Super:  enumClass,
		Fields: fields,
		Methods: []MethodDecl{{
			Name:   "values",
			Sig:    "()[L" + path + ";",
			Static: true,
			Impl: func(env *Env, _ *Object, _ []managed.Value) (managed.Value, error) {
				arr := env.newArray("L"+path+";", len(values))
				copy(arr.payload.([]managed.Object), values)
				return arr, nil
			},
		}},
	})
	if err != nil {
		return nil, err
	}
	for i, n := range names {
		constant := &Object{cls: c, payload: enumConstant{name: n, ordinal: int32(i)}, fields: map[string]managed.Value{}}
		values = append(values, constant)
		c.statics[n] = constant
	}
	return c, nil
}

// check verifies that v is a valid value for sig.
func (vm *VM) check(sig string, v managed.Value) error {
	ok := false
	switch sig[0] {
	case 'Z':
		_, ok = v.(bool)
	case 'B':
		_, ok = v.(int8)
	case 'C':
		_, ok = v.(uint16)
	case 'S':
		_, ok = v.(int16)
	case 'I':
		_, ok = v.(int32)
	case 'J':
		_, ok = v.(int64)
	case 'F':
		_, ok = v.(float32)
	case 'D':
		_, ok = v.(float64)
	case 'V':
		ok = v == nil
	case 'L', '[':
		o, isRef := asObject(v)
		if !isRef {
			break
		}
		if o == nil {
			ok = true
			break
		}
		target, known := vm.Class(refPath(sig))
		ok = !known || o.cls.assignableTo(target)
	}
	if !ok {
		return fmt.Errorf("memvm: value %v (%T) does not conform to %s", v, v, sig)
	}
	return nil
}

// refPath returns the class path named by an object or array signature.
func refPath(sig string) string {
	if sig[0] == 'L' {
		return sig[1 : len(sig)-1]
	}
	return sig
}
