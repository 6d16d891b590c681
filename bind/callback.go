package bind

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/wippyai/nativebind/descriptor"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/signature"
)

// callback is a Go func exposed to the managed side.
type callback struct {
	info *descriptor.FuncInfo
	fn   reflect.Value
}

// callbackFactory exposes Go funcs as instances of the support classes
// Native<Interface> (NativeFunction, NativeIntPredicate and so on). Each
// support class implements one functional interface, takes the handle in
// its <init>(J)V constructor and declares the interface method and
// close()V as native.
type callbackFactory struct {
	m *Module
}

func newCallbackFactory(m *Module) *callbackFactory {
	return &callbackFactory{m: m}
}

// SupportClass returns the path of the support class implementing the
// functional interface iface.
func (m *Module) SupportClass(iface string) string {
	return m.supportPackage + "/Native" + signature.SimpleName(iface)
}

// Wrap implements descriptor.Callbacks.
func (f *callbackFactory) Wrap(env managed.Env, d *descriptor.Descriptor, fn reflect.Value) (managed.Object, error) {
	class := f.m.SupportClass(d.Func.Interface)
	cls, err := env.FindClass(class)
	if err != nil {
		return nil, errors.New(errors.PhaseMarshal, errors.KindLookupFailure).
			Path(class).
			GoType(d.GoType.String()).
			Cause(err).
			Detail("callback support class is missing").
			Build()
	}
	h := f.m.handles.Insert(class, &callback{info: d.Func, fn: fn})
	if h == 0 {
		return nil, errors.NotInitialized(errors.PhaseMarshal, "native object table")
	}
	obj, err := env.NewObject(cls, signature.Method(signature.Void, signature.Long), h.Pointer())
	if err != nil {
		f.m.handles.Remove(h)
		return nil, err
	}
	return obj, nil
}

// Unwrap implements descriptor.Callbacks. It recognizes instances of the
// support class that still hold a live func of d's type.
func (f *callbackFactory) Unwrap(env managed.Env, d *descriptor.Descriptor, obj managed.Object) (reflect.Value, bool) {
	class := f.m.SupportClass(d.Func.Interface)
	cls, err := env.FindClass(class)
	if err != nil || !env.IsInstanceOf(obj, cls) {
		return reflect.Value{}, false
	}
	cb, err := f.lookup(env, class, obj)
	if err != nil || cb.fn.Type() != d.GoType {
		return reflect.Value{}, false
	}
	return cb.fn, true
}

func (f *callbackFactory) lookup(env managed.Env, class string, obj managed.Object) (*callback, error) {
	h, err := pointerOf(env, obj)
	if err != nil {
		return nil, err
	}
	v, ok := f.m.handles.GetTyped(h, class)
	if h == 0 || !ok {
		return nil, errors.DisposedHandle(signature.ClassName(class))
	}
	return v.(*callback), nil
}

// natives returns the native methods of the support class for info.
func (f *callbackFactory) natives(info descriptor.FuncInfo) []managed.NativeMethod {
	class := f.m.SupportClass(info.Interface)
	return []managed.NativeMethod{
		{Name: info.Method, Signature: info.MethodSig, Fn: f.invoker(class)},
		{Name: CloseMethod, Signature: signature.Method(signature.Void), Fn: f.m.store.closeBinding},
	}
}

func (f *callbackFactory) invoker(class string) managed.NativeFunc {
	return func(c *managed.Call) (result managed.Value, err error) {
		env := c.Env
		defer func() {
			if r := recover(); r != nil {
				f.m.log().Debug("callback panicked", zap.String("class", class), zap.Any("panic", r))
				result, err = nil, throw(env, panicError(r))
			}
		}()
		if c.This == nil {
			return nil, throw(env, errors.NilPointer(errors.PhaseCall, nil, signature.ClassName(class)))
		}
		cb, err := f.lookup(env, class, c.This)
		if err != nil {
			return nil, throw(env, err)
		}
		result, err = cb.info.Invoke(env, cb.fn, c.Args)
		if err != nil {
			return nil, throw(env, err)
		}
		return result, nil
	}
}
