package memvm

import (
	"fmt"
	"unicode/utf16"

	"go.uber.org/zap"

	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/signature"
)

// Env implements managed.Env for a VM.
type Env struct {
	vm       *VM
	attached bool
}

// Runtime implements managed.Env.
func (e *Env) Runtime() managed.Runtime { return e.vm }

// VM returns the VM the environment belongs to.
func (e *Env) VM() *VM { return e.vm }

// Throw returns a new throwable of the given class.
func (e *Env) Throw(classPath, format string, args ...any) *managed.Throwable {
	return e.NewThrowable(classPath, fmt.Sprintf(format, args...))
}

// NewThrowable implements managed.Env. An unknown class falls back to
// java/lang/RuntimeException.
func (e *Env) NewThrowable(classPath, message string) *managed.Throwable {
	cls, ok := e.vm.Class(classPath)
	if !ok || !cls.assignableTo(e.mustClass(throwableClass)) {
		classPath = runtimeExceptionClass
		cls = e.mustClass(classPath)
	}
	obj := e.alloc(cls)
	obj.payload = message
	return &managed.Throwable{Object: obj, Class: classPath, Message: message}
}

func (e *Env) mustClass(path string) *Class {
	c, ok := e.vm.Class(path)
	if !ok {
		panic("memvm: builtin class missing: " + path)
	}
	return c
}

// FindClass implements managed.Env.
func (e *Env) FindClass(path string) (managed.Class, error) {
	c, ok := e.vm.Class(path)
	if !ok {
		return nil, e.Throw(noClassDefFoundError, "%s", path)
	}
	return c, nil
}

// IsInstanceOf implements managed.Env.
func (e *Env) IsInstanceOf(obj managed.Object, cls managed.Class) bool {
	o, ok := asObject(obj)
	c, isClass := cls.(*Class)
	if !ok || o == nil || !isClass {
		return false
	}
	return o.cls.assignableTo(c)
}

func (e *Env) alloc(c *Class) *Object {
	o := &Object{cls: c, fields: make(map[string]managed.Value)}
	for k := c; k != nil; k = k.super {
		for _, name := range k.fieldOrder {
			o.fields[name] = zeroValue(k.fields[name].Sig)
		}
	}
	return o
}

func (e *Env) class(cls managed.Class) (*Class, error) {
	c, ok := cls.(*Class)
	if !ok || c == nil || c.vm != e.vm {
		return nil, e.Throw(illegalArgumentClass, "foreign class %v", cls)
	}
	return c, nil
}

func (e *Env) object(obj managed.Object) (*Object, error) {
	o, ok := asObject(obj)
	if !ok {
		return nil, e.Throw(illegalArgumentClass, "foreign object %T", obj)
	}
	if o == nil {
		return nil, e.Throw(nullPointerClass, "null reference")
	}
	return o, nil
}

// AllocObject implements managed.Env.
func (e *Env) AllocObject(cls managed.Class) (managed.Object, error) {
	c, err := e.class(cls)
	if err != nil {
		return nil, err
	}
	if c.abstract {
		return nil, e.Throw(instantiationClass, "%s", c.path)
	}
	return e.alloc(c), nil
}

// NewObject implements managed.Env.
func (e *Env) NewObject(cls managed.Class, ctorSig string, args ...managed.Value) (managed.Object, error) {
	c, err := e.class(cls)
	if err != nil {
		return nil, err
	}
	if c.abstract {
		return nil, e.Throw(instantiationClass, "%s", c.path)
	}
	m, ok := c.methods[memberKey{"<init>", ctorSig}]
	if !ok {
		return nil, e.Throw(noSuchMethodClass, "%s.<init>%s", c.path, ctorSig)
	}
	obj := e.alloc(c)
	if _, err := e.invoke(m, c, obj, args); err != nil {
		return nil, err
	}
	return obj, nil
}

// HasField implements managed.Env.
func (e *Env) HasField(cls managed.Class, name, sig string, static bool) bool {
	c, err := e.class(cls)
	if err != nil {
		return false
	}
	f, _, ok := c.findField(name)
	return ok && f.Sig == sig && f.Static == static
}

// HasMethod implements managed.Env.
func (e *Env) HasMethod(cls managed.Class, name, sig string, static bool) bool {
	c, err := e.class(cls)
	if err != nil {
		return false
	}
	m := c.findMethod(name, sig)
	return m != nil && m.static == static
}

// GetField implements managed.Env.
func (e *Env) GetField(obj managed.Object, name, sig string) (managed.Value, error) {
	o, err := e.object(obj)
	if err != nil {
		return nil, err
	}
	f, _, ok := o.cls.findField(name)
	if !ok || f.Static || f.Sig != sig {
		return nil, e.Throw(noSuchFieldClass, "%s.%s:%s", o.cls.path, name, sig)
	}
	return o.getField(name), nil
}

// SetField implements managed.Env.
func (e *Env) SetField(obj managed.Object, name, sig string, v managed.Value) error {
	o, err := e.object(obj)
	if err != nil {
		return err
	}
	f, _, ok := o.cls.findField(name)
	if !ok || f.Static || f.Sig != sig {
		return e.Throw(noSuchFieldClass, "%s.%s:%s", o.cls.path, name, sig)
	}
	if err := e.vm.check(sig, v); err != nil {
		return e.Throw(illegalArgumentClass, "%v", err)
	}
	o.setField(name, normalize(v))
	return nil
}

// GetStaticField implements managed.Env.
func (e *Env) GetStaticField(cls managed.Class, name, sig string) (managed.Value, error) {
	c, err := e.class(cls)
	if err != nil {
		return nil, err
	}
	f, owner, ok := c.findField(name)
	if !ok || !f.Static || f.Sig != sig {
		return nil, e.Throw(noSuchFieldClass, "%s.%s:%s", c.path, name, sig)
	}
	owner.mu.RLock()
	defer owner.mu.RUnlock()
	return owner.statics[name], nil
}

// CallMethod implements managed.Env with virtual dispatch on the receiver.
func (e *Env) CallMethod(obj managed.Object, name, sig string, args ...managed.Value) (managed.Value, error) {
	o, err := e.object(obj)
	if err != nil {
		return nil, err
	}
	m := o.cls.findMethod(name, sig)
	if m == nil || m.static {
		return nil, e.Throw(noSuchMethodClass, "%s.%s%s", o.cls.path, name, sig)
	}
	return e.invoke(m, o.cls, o, args)
}

// CallStaticMethod implements managed.Env.
func (e *Env) CallStaticMethod(cls managed.Class, name, sig string, args ...managed.Value) (managed.Value, error) {
	c, err := e.class(cls)
	if err != nil {
		return nil, err
	}
	m := c.findMethod(name, sig)
	if m == nil || !m.static {
		return nil, e.Throw(noSuchMethodClass, "%s.%s%s", c.path, name, sig)
	}
	return e.invoke(m, c, nil, args)
}

// invoke checks arguments against the method signature, runs the method
// and checks its result.
func (e *Env) invoke(m *method, c *Class, this *Object, args []managed.Value) (managed.Value, error) {
	params, ret, err := signature.Split(m.sig)
	if err != nil {
		return nil, e.Throw(illegalArgumentClass, "%v", err)
	}
	if len(args) != len(params) {
		return nil, e.Throw(illegalArgumentClass, "%s.%s%s: expected %d arguments, got %d",
			c.path, m.name, m.sig, len(params), len(args))
	}
	args = append([]managed.Value(nil), args...)
	for i, p := range params {
		if err := e.vm.check(p, args[i]); err != nil {
			return nil, e.Throw(illegalArgumentClass, "%s.%s%s: argument %d: %v", c.path, m.name, m.sig, i, err)
		}
		args[i] = normalize(args[i])
	}

	var result managed.Value
	switch {
	case m.native:
		fn, ok := m.owner.native(m.name, m.sig)
		if !ok {
			e.vm.logger.Warn("unbound native method called",
				zap.String("class", m.owner.path), zap.String("method", m.name), zap.String("sig", m.sig))
			return nil, e.Throw(unsatisfiedLinkClass, "%s.%s%s", m.owner.path, m.name, m.sig)
		}
		call := &managed.Call{Env: e, Class: c, Args: args}
		if this != nil {
			call.This = this
		}
		result, err = fn(call)
	case m.impl != nil:
		result, err = m.impl(e, this, args)
	default:
		return nil, e.Throw(abstractMethodClass, "%s.%s%s", c.path, m.name, m.sig)
	}
	if err != nil {
		if th, ok := err.(*managed.Throwable); ok {
			return nil, th
		}
		return nil, e.Throw(errorClass, "%s.%s%s: %v", m.owner.path, m.name, m.sig, err)
	}
	if ret == "V" {
		return nil, nil
	}
	if err := e.vm.check(ret, result); err != nil {
		return nil, e.Throw(errorClass, "%s.%s%s returned a bad value: %v", m.owner.path, m.name, m.sig, err)
	}
	return normalize(result), nil
}

// NewString implements managed.Env.
func (e *Env) NewString(s string) (managed.Object, error) {
	return e.newString(s), nil
}

func (e *Env) newString(s string) *Object {
	return &Object{cls: e.mustClass(stringClass), payload: s}
}

// NewStringUTF16 implements managed.Env.
func (e *Env) NewStringUTF16(s []uint16) (managed.Object, error) {
	return e.newString(string(utf16.Decode(s))), nil
}

// StringUTF implements managed.Env.
func (e *Env) StringUTF(obj managed.Object) (string, error) {
	o, err := e.object(obj)
	if err != nil {
		return "", err
	}
	s, ok := o.payload.(string)
	if !ok || o.cls.path != stringClass {
		return "", e.Throw(classCastClass, "%s is not a string", o.cls.path)
	}
	return s, nil
}

// StringUTF16 implements managed.Env.
func (e *Env) StringUTF16(obj managed.Object) ([]uint16, error) {
	s, err := e.StringUTF(obj)
	if err != nil {
		return nil, err
	}
	return utf16.Encode([]rune(s)), nil
}

// NewArray implements managed.Env.
func (e *Env) NewArray(elemSig string, length int) (managed.Object, error) {
	if length < 0 {
		return nil, e.Throw(negativeArraySizeClass, "%d", length)
	}
	return e.newArray(elemSig, length), nil
}

func (e *Env) newArray(elemSig string, length int) *Object {
	var backing any
	switch elemSig {
	case "Z":
		backing = make([]bool, length)
	case "B":
		backing = make([]int8, length)
	case "C":
		backing = make([]uint16, length)
	case "S":
		backing = make([]int16, length)
	case "I":
		backing = make([]int32, length)
	case "J":
		backing = make([]int64, length)
	case "F":
		backing = make([]float32, length)
	case "D":
		backing = make([]float64, length)
	default:
		backing = make([]managed.Object, length)
	}
	return &Object{cls: e.vm.arrayClass(elemSig), payload: backing}
}

// ArrayLength implements managed.Env.
func (e *Env) ArrayLength(arr managed.Object) (int, error) {
	backing, err := e.ArrayElements(arr)
	if err != nil {
		return 0, err
	}
	switch s := backing.(type) {
	case []bool:
		return len(s), nil
	case []int8:
		return len(s), nil
	case []uint16:
		return len(s), nil
	case []int16:
		return len(s), nil
	case []int32:
		return len(s), nil
	case []int64:
		return len(s), nil
	case []float32:
		return len(s), nil
	case []float64:
		return len(s), nil
	case []managed.Object:
		return len(s), nil
	}
	return 0, e.Throw(illegalArgumentClass, "not an array")
}

// ArrayElements implements managed.Env.
func (e *Env) ArrayElements(arr managed.Object) (any, error) {
	o, err := e.object(arr)
	if err != nil {
		return nil, err
	}
	if len(o.cls.path) == 0 || o.cls.path[0] != '[' {
		return nil, e.Throw(illegalArgumentClass, "%s is not an array", o.cls.path)
	}
	return o.payload, nil
}

// RegisterNatives implements managed.Env. Every method must be declared
// native by the class; on failure no method is bound.
func (e *Env) RegisterNatives(cls managed.Class, methods []managed.NativeMethod) error {
	c, err := e.class(cls)
	if err != nil {
		return err
	}
	for _, nm := range methods {
		m, ok := c.methods[memberKey{nm.Name, nm.Signature}]
		if !ok || !m.native {
			return e.Throw(noSuchMethodClass, "%s.%s%s is not a native method", c.path, nm.Name, nm.Signature)
		}
	}
	c.mu.Lock()
	for _, nm := range methods {
		c.natives[memberKey{nm.Name, nm.Signature}] = nm.Fn
	}
	c.mu.Unlock()
	e.vm.logger.Debug("natives registered", zap.String("class", c.path), zap.Int("count", len(methods)))
	return nil
}

// UnregisterNatives implements managed.Env.
func (e *Env) UnregisterNatives(cls managed.Class) error {
	c, err := e.class(cls)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.natives = make(map[memberKey]managed.NativeFunc)
	c.mu.Unlock()
	return nil
}
