package managed

import (
	"context"
	"sync/atomic"
)

type envKey struct{}

// WithEnv returns a context carrying env.
func WithEnv(ctx context.Context, env Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// EnvFrom returns the Env carried by ctx, if any.
func EnvFrom(ctx context.Context) (Env, bool) {
	if ctx == nil {
		return nil, false
	}
	env, ok := ctx.Value(envKey{}).(Env)
	return env, ok && env != nil
}

// Acquire returns the Env carried by ctx or attaches a new one.
// The release func detaches only an Env that Acquire attached itself.
func Acquire(ctx context.Context, rt Runtime) (Env, func(), error) {
	if env, ok := EnvFrom(ctx); ok {
		return env, func() {}, nil
	}
	env, err := rt.AttachCurrentThread()
	if err != nil {
		return nil, nil, err
	}
	return env, func() { _ = rt.DetachCurrentThread(env) }, nil
}

// GlobalRef is a reference-counted pin on a managed object.
// The object stays reachable until the last Release.
type GlobalRef struct {
	rt   Runtime
	obj  Object
	refs atomic.Int32
}

// NewGlobalRef pins obj with a reference count of one.
func NewGlobalRef(rt Runtime, obj Object) *GlobalRef {
	g := &GlobalRef{rt: rt, obj: rt.NewGlobalRef(obj)}
	g.refs.Store(1)
	return g
}

// Object returns the pinned object, or nil after the final Release.
func (g *GlobalRef) Object() Object {
	if g.refs.Load() <= 0 {
		return nil
	}
	return g.obj
}

// Runtime returns the runtime owning the reference.
func (g *GlobalRef) Runtime() Runtime {
	return g.rt
}

// Retain increments the reference count.
func (g *GlobalRef) Retain() *GlobalRef {
	g.refs.Add(1)
	return g
}

// Release decrements the reference count and unpins on zero.
func (g *GlobalRef) Release() {
	if g.refs.Add(-1) == 0 {
		g.rt.DeleteGlobalRef(g.obj)
	}
}

// Refs returns the current reference count.
func (g *GlobalRef) Refs() int {
	return int(g.refs.Load())
}
