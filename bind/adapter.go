package bind

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/nativebind/descriptor"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/registry"
	"github.com/wippyai/nativebind/signature"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// adapter turns a Go func into a native method entry point.
//
// The func may take a leading context.Context, which carries the calling
// environment, and may return a trailing error. Instance methods take the
// receiver pointer right after the context.
type adapter struct {
	argsPool sync.Pool
	fn       reflect.Value
	result   *descriptor.Descriptor
	store    *handleStore
	module   *Module
	params   []*descriptor.Descriptor
	argTypes []reflect.Type
	class    string
	name     string
	numIn    int
	ctxAt    int // -1 when fn takes no context
	recvAt   int // -1 for static functions
	hasErr   bool
	member   bool
}

// newAdapter analyzes fn. recv is the receiver struct type for instance
// methods and nil otherwise.
func (m *Module) newAdapter(class, name string, fn any, recv reflect.Type) (*adapter, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return nil, errors.New(errors.PhaseRegister, errors.KindTypeMismatch).
			Path(class, name).
			GoType(fmt.Sprintf("%T", fn)).
			Detail("handler must be a function").
			Build()
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, errors.Unsupported(errors.PhaseRegister, "variadic handler "+class+"."+name)
	}

	numIn := ft.NumIn()
	a := &adapter{
		fn:       fv,
		module:   m,
		store:    m.store,
		class:    class,
		name:     name,
		numIn:    numIn,
		ctxAt:    -1,
		recvAt:   -1,
		argTypes: make([]reflect.Type, numIn),
		argsPool: sync.Pool{
			New: func() any {
				s := make([]reflect.Value, numIn)
				return &s
			},
		},
	}
	for i := range numIn {
		a.argTypes[i] = ft.In(i)
	}

	// A context may come first or, for methods, right after the receiver.
	i := 0
	if numIn > 0 && ft.In(0) == contextType {
		a.ctxAt = 0
		i++
	}
	if recv != nil {
		if i >= numIn || ft.In(i) != reflect.PointerTo(recv) {
			return nil, errors.New(errors.PhaseRegister, errors.KindTypeMismatch).
				Path(class, name).
				GoType(ft.String()).
				Detail("method must take *%s as its receiver", recv.Name()).
				Build()
		}
		a.member = true
		a.recvAt = i
		i++
		if a.ctxAt < 0 && i < numIn && ft.In(i) == contextType {
			a.ctxAt = i
			i++
		}
	}
	for ; i < numIn; i++ {
		d, err := m.resolver.Resolve(ft.In(i))
		if err != nil {
			return nil, errors.New(errors.PhaseRegister, errors.KindTypeMismatch).
				Path(class, name, fmt.Sprintf("arg%d", len(a.params))).
				GoType(ft.In(i).String()).
				Cause(err).
				Detail("parameter has no descriptor").
				Build()
		}
		a.params = append(a.params, d)
	}

	var resultType reflect.Type
	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == errorType {
			a.hasErr = true
		} else {
			resultType = ft.Out(0)
		}
	case 2:
		if ft.Out(1) != errorType {
			return nil, errors.New(errors.PhaseRegister, errors.KindTypeMismatch).
				Path(class, name).
				GoType(ft.String()).
				Detail("second result must be error").
				Build()
		}
		resultType = ft.Out(0)
		a.hasErr = true
	default:
		return nil, errors.Unsupported(errors.PhaseRegister, "handler with more than two results "+class+"."+name)
	}
	result, err := m.resolver.Resolve(resultType)
	if err != nil {
		return nil, errors.New(errors.PhaseRegister, errors.KindTypeMismatch).
			Path(class, name, "result").
			GoType(resultType.String()).
			Cause(err).
			Detail("result has no descriptor").
			Build()
	}
	a.result = result
	return a, nil
}

// binding describes the adapter as a registry entry.
func (a *adapter) binding() *registry.FunctionBinding {
	sigs := make([]string, len(a.params))
	displays := make([]string, len(a.params))
	for i, d := range a.params {
		sigs[i] = d.Sig
		displays[i] = d.Display
	}
	return &registry.FunctionBinding{
		EntryPoint:    a.call,
		Name:          a.name,
		Signature:     signature.Method(a.result.Sig, sigs...),
		ParamDisplay:  displays,
		ReturnDisplay: a.result.Display,
		IsMember:      a.member,
	}
}

// call is the native entry point. It never lets a Go error or panic
// escape: both reach the caller as a managed exception.
func (a *adapter) call(c *managed.Call) (result managed.Value, err error) {
	env := c.Env
	defer func() {
		if r := recover(); r != nil {
			a.module.log().Debug("native call panicked",
				zap.String("class", a.class),
				zap.String("method", a.name),
				zap.Any("panic", r))
			result, err = nil, throw(env, panicError(r))
		}
	}()

	if len(c.Args) != len(a.params) {
		return nil, throw(env, errors.InvalidInput(errors.PhaseCall,
			fmt.Sprintf("%s.%s expects %d arguments, got %d", a.class, a.name, len(a.params), len(c.Args))))
	}

	argsPtr := a.argsPool.Get().(*[]reflect.Value)
	args := *argsPtr
	defer func() {
		var zero reflect.Value
		for i := range args {
			args[i] = zero
		}
		a.argsPool.Put(argsPtr)
	}()

	j := 0
	for i := range args {
		switch i {
		case a.ctxAt:
			args[i] = reflect.ValueOf(managed.WithEnv(context.Background(), env))
		case a.recvAt:
			recv, err := a.store.Unwrap(env, a.class, c.This)
			if err != nil {
				return nil, throw(env, err)
			}
			args[i] = recv
		default:
			v := reflect.New(a.argTypes[i]).Elem()
			if err := a.params[j].Unmarshal(env, c.Args[j], v); err != nil {
				return nil, throw(env, err)
			}
			args[i] = v
			j++
		}
	}

	outs := a.fn.Call(args)
	if a.hasErr {
		if e := outs[len(outs)-1]; !e.IsNil() {
			return nil, throw(env, e.Interface().(error))
		}
	}
	if a.result.Kind == descriptor.KindVoid {
		return nil, nil
	}
	v, err := a.result.Marshal(env, outs[0])
	if err != nil {
		return nil, throw(env, err)
	}
	return v, nil
}

// throw converts err into the managed exception raised in the caller.
// Managed exceptions pass through unchanged. A disposed handle raises
// IllegalStateException; everything else raises Exception. The message is
// err's own text, shortened only when err is itself a structured error.
func throw(env managed.Env, err error) error {
	var th *managed.Throwable
	if stderrors.As(err, &th) {
		return th
	}
	msg := err.Error()
	if e, ok := err.(*errors.Error); ok {
		msg = e.Message()
	}
	class := signature.ExceptionClass
	var e *errors.Error
	if stderrors.As(err, &e) && e.Kind == errors.KindDisposedHandle {
		class = signature.IllegalState
	}
	return env.NewThrowable(class, msg)
}

// panicError converts a recovered panic value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.NativeException(fmt.Errorf("%v", r))
}
