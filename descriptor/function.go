package descriptor

import (
	"context"
	"fmt"
	"reflect"
	"runtime"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/signature"
)

// Functional interface shapes by parameter and result category.
type category uint8

const (
	catObject category = iota
	catInt
	catLong
	catDouble
	catBool
	catVoid
)

type functional struct {
	path   string
	method string
	param  category
	result category
}

const functionPackage = "java/util/function/"

var functionals = []functional{
	{"Function", "apply", catObject, catObject},
	{"IntFunction", "apply", catInt, catObject},
	{"LongFunction", "apply", catLong, catObject},
	{"DoubleFunction", "apply", catDouble, catObject},
	{"ToIntFunction", "applyAsInt", catObject, catInt},
	{"ToLongFunction", "applyAsLong", catObject, catLong},
	{"ToDoubleFunction", "applyAsDouble", catObject, catDouble},
	{"Predicate", "test", catObject, catBool},
	{"IntPredicate", "test", catInt, catBool},
	{"LongPredicate", "test", catLong, catBool},
	{"DoublePredicate", "test", catDouble, catBool},
	{"Consumer", "accept", catObject, catVoid},
	{"IntConsumer", "accept", catInt, catVoid},
	{"LongConsumer", "accept", catLong, catVoid},
	{"DoubleConsumer", "accept", catDouble, catVoid},
}

// FunctionalInterfaces returns the class paths of every functional
// interface a Go func can map to, with the name and erased signature of
// its single abstract method.
func FunctionalInterfaces() []FuncInfo {
	out := make([]FuncInfo, len(functionals))
	for i, f := range functionals {
		out[i] = FuncInfo{
			Interface: functionPackage + f.path,
			Method:    f.method,
			MethodSig: signature.Method(f.result.sig(), f.param.sig()),
		}
	}
	return out
}

func (c category) sig() string {
	switch c {
	case catInt:
		return signature.Int
	case catLong:
		return signature.Long
	case catDouble:
		return signature.Double
	case catBool:
		return signature.Boolean
	case catVoid:
		return signature.Void
	}
	return objectSig
}

func categoryOf(d *Descriptor) category {
	switch d.Sig {
	case signature.Int:
		return catInt
	case signature.Long:
		return catLong
	case signature.Double:
		return catDouble
	case signature.Boolean:
		return catBool
	case signature.Void:
		return catVoid
	}
	return catObject
}

// FuncInfo describes how a Go func maps onto a functional interface.
type FuncInfo struct {
	Param  *Descriptor
	Result *Descriptor

	// Interface is the functional interface path; Method and MethodSig name
	// its single abstract method in erased form.
	Interface string
	Method    string
	MethodSig string

	// ParamBoxed and ResultBoxed report whether the value crosses in
	// reference form.
	ParamBoxed  bool
	ResultBoxed bool

	// HasError reports a trailing error result.
	HasError bool
}

// SimpleName returns the unqualified interface name, e.g. "IntPredicate".
func (f *FuncInfo) SimpleName() string {
	return signature.SimpleName(f.Interface)
}

func selectFunctional(param, result *Descriptor) functional {
	pc, rc := categoryOf(param), categoryOf(result)
	if pc == catBool {
		pc = catObject
	}
	for _, f := range functionals {
		if f.param == pc && f.result == rc {
			return f
		}
	}
	// Primitive to primitive shapes without a dedicated interface fall
	// back to the reference forms.
	for _, f := range functionals {
		if f.param == catObject && f.result == rc {
			return f
		}
	}
	return functionals[0]
}

func (r *Resolver) buildFunc(t reflect.Type, path []string, visiting map[reflect.Type]bool) (*Descriptor, error) {
	unsupported := func(detail string) error {
		return errors.New(errors.PhaseResolve, errors.KindUnsupported).
			Path(path...).
			GoType(t.String()).
			Detail("%s", detail).
			Build()
	}
	if t.IsVariadic() || t.NumIn() != 1 {
		return nil, unsupported("functions must take exactly one parameter")
	}
	info := &FuncInfo{}
	var resultType reflect.Type
	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorType {
			info.HasError = true
		} else {
			resultType = t.Out(0)
		}
	case 2:
		if t.Out(1) != errorType {
			return nil, unsupported("second result must be error")
		}
		resultType, info.HasError = t.Out(0), true
	default:
		return nil, unsupported("too many results")
	}

	param, err := r.resolve(t.In(0), at(path, "arg0"), visiting)
	if err != nil {
		return nil, err
	}
	result := voidDescriptor
	if resultType != nil {
		if result, err = r.resolve(resultType, at(path, "result"), visiting); err != nil {
			return nil, err
		}
	}
	info.Param, info.Result = param, result

	f := selectFunctional(param, result)
	info.Interface = functionPackage + f.path
	info.Method = f.method
	info.MethodSig = signature.Method(f.result.sig(), f.param.sig())
	info.ParamBoxed = f.param == catObject
	info.ResultBoxed = f.result == catObject

	var generics []string
	if info.ParamBoxed {
		generics = append(generics, param.ObjectDisplay)
	}
	if info.ResultBoxed {
		generics = append(generics, result.ObjectDisplay)
	}
	sig := signature.Object(info.Interface)
	display := signature.Generic(signature.ClassName(info.Interface), generics...)
	d := &Descriptor{
		GoType:        t,
		Kind:          KindFunction,
		Func:          info,
		Sig:           sig,
		Display:       display,
		ObjectSig:     sig,
		ObjectDisplay: display,
		Class:         info.Interface,
	}

	d.marshal = func(env managed.Env, v reflect.Value) (managed.Value, error) {
		if v.IsNil() {
			return nil, nil
		}
		cb := r.getCallbacks()
		if cb == nil {
			return nil, errors.NotInitialized(errors.PhaseMarshal, "callback factory")
		}
		return cb.Wrap(env, d, v)
	}
	d.unmarshal = func(env managed.Env, v managed.Value, out reflect.Value) error {
		obj, err := asObject(v, errors.PhaseUnmarshal, sig)
		if err != nil {
			return err
		}
		if obj == nil {
			out.SetZero()
			return nil
		}
		if cb := r.getCallbacks(); cb != nil {
			if fn, ok := cb.Unwrap(env, d, obj); ok && fn.Type() == t {
				out.Set(fn)
				return nil
			}
		}
		out.Set(managedFunc(env, d, obj))
		return nil
	}
	return d, nil
}

// funcHolder keeps the managed callable alive while the Go func is
// reachable.
type funcHolder struct {
	ref *managed.GlobalRef
}

// managedFunc returns a Go func of d's type that forwards to the managed
// callable obj. Every invocation acquires its own environment. A managed
// exception is returned through the error result when the func has one
// and raised as a panic otherwise.
func managedFunc(env managed.Env, d *Descriptor, obj managed.Object) reflect.Value {
	holder := &funcHolder{ref: managed.NewGlobalRef(env.Runtime(), obj)}
	runtime.AddCleanup(holder, func(ref *managed.GlobalRef) { ref.Release() }, holder.ref)

	info := d.Func
	t := d.GoType
	return reflect.MakeFunc(t, func(args []reflect.Value) []reflect.Value {
		result, err := holder.call(info, args[0])
		return funcResults(t, info, result, err)
	})
}

func (h *funcHolder) call(info *FuncInfo, arg reflect.Value) (reflect.Value, error) {
	var result reflect.Value
	if info.Result.Kind != KindVoid {
		result = reflect.New(info.Result.GoType).Elem()
	}
	target := h.ref.Object()
	if target == nil {
		return result, errors.New(errors.PhaseCall, errors.KindDisposedHandle).
			Detail("managed callable released").
			Build()
	}
	env, release, err := managed.Acquire(context.Background(), h.ref.Runtime())
	if err != nil {
		return result, err
	}
	defer release()

	var wire managed.Value
	if info.ParamBoxed {
		wire, err = info.Param.toObject(env, arg)
	} else {
		wire, err = info.Param.Marshal(env, arg)
	}
	if err != nil {
		return result, err
	}
	ret, err := env.CallMethod(target, info.Method, info.MethodSig, wire)
	if err != nil {
		return result, err
	}
	if !result.IsValid() {
		return result, nil
	}
	if info.ResultBoxed {
		err = info.Result.fromObject(env, ret, result)
	} else {
		err = info.Result.Unmarshal(env, ret, result)
	}
	return result, err
}

func funcResults(t reflect.Type, info *FuncInfo, result reflect.Value, err error) []reflect.Value {
	if err != nil && !info.HasError {
		panic(err)
	}
	out := make([]reflect.Value, 0, t.NumOut())
	if result.IsValid() {
		out = append(out, result)
	}
	if info.HasError {
		errVal := reflect.New(errorType).Elem()
		if err != nil {
			errVal.Set(reflect.ValueOf(err))
		}
		out = append(out, errVal)
	}
	return out
}

// Invoke calls the Go func fn with boundary arguments laid out as the
// functional method expects them, and returns the boundary result. An
// error result of fn is returned as the error. Panics are not recovered.
func (f *FuncInfo) Invoke(env managed.Env, fn reflect.Value, args []managed.Value) (managed.Value, error) {
	if len(args) != 1 {
		return nil, errors.InvalidInput(errors.PhaseCall, fmt.Sprintf("%s expects 1 argument, got %d", f.Method, len(args)))
	}
	arg := reflect.New(f.Param.GoType).Elem()
	var err error
	if f.ParamBoxed {
		err = f.Param.fromObject(env, args[0], arg)
	} else {
		err = f.Param.Unmarshal(env, args[0], arg)
	}
	if err != nil {
		return nil, err
	}
	outs := fn.Call([]reflect.Value{arg})
	if f.HasError {
		if e := outs[len(outs)-1]; !e.IsNil() {
			return nil, e.Interface().(error)
		}
		outs = outs[:len(outs)-1]
	}
	if len(outs) == 0 {
		return nil, nil
	}
	if f.ResultBoxed {
		return f.Result.toObject(env, outs[0])
	}
	return f.Result.Marshal(env, outs[0])
}
