package bind

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/nativebind/descriptor"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/registry"
	"github.com/wippyai/nativebind/signature"
)

// Load binds the module to rt and returns the interface version.
//
// It prepares the module, then for every registered class checks that
// the runtime declares the expected members, resolves enum constants and
// installs the native methods. Callback support classes are bound when
// the runtime defines them. Load is atomic: on the first failure every
// class bound so far is unbound again.
func (m *Module) Load(ctx context.Context, rt managed.Runtime) (Version, error) {
	if err := m.Prepare(); err != nil {
		m.log().Error("module load failed", zap.Error(err))
		return 0, err
	}
	state := &loadState{rt: rt}
	if !m.loaded.CompareAndSwap(nil, state) {
		return 0, errors.InvalidInput(errors.PhaseLoad, "module is already loaded")
	}

	env, release, err := managed.Acquire(ctx, rt)
	if err != nil {
		m.loaded.Store(nil)
		return 0, errors.Wrap(errors.PhaseLoad, errors.KindNotInitialized, err, "cannot attach to runtime")
	}
	defer release()

	if err := m.bindAll(env, state); err != nil {
		m.rollback(env, state)
		m.loaded.Store(nil)
		m.log().Error("module load failed", zap.Error(err))
		return 0, err
	}
	m.log().Debug("module loaded",
		zap.Int("classes", len(state.bound)),
		zap.Stringer("version", CurrentVersion))
	return CurrentVersion, nil
}

func (m *Module) bindAll(env managed.Env, state *loadState) error {
	err := m.registry.ForEachClass(func(c *registry.Class) error {
		return m.bindClass(env, c, state)
	})
	if err != nil {
		return err
	}
	for _, info := range descriptor.FunctionalInterfaces() {
		class := m.SupportClass(info.Interface)
		cls, err := env.FindClass(class)
		if err != nil {
			m.log().Debug("callback support class not defined", zap.String("class", class))
			continue
		}
		if err := env.RegisterNatives(cls, m.callbacks.natives(info)); err != nil {
			return errors.New(errors.PhaseLoad, errors.KindLookupFailure).
				Path(class).
				Cause(err).
				Detail("cannot register callback natives").
				Build()
		}
		state.bound = append(state.bound, cls)
	}
	return nil
}

func (m *Module) bindClass(env managed.Env, c *registry.Class, state *loadState) error {
	cls, err := env.FindClass(c.ID)
	if err != nil {
		lf := errors.LookupFailure("class", c.ID, "", "")
		lf.Cause = err
		return lf
	}

	switch c.Kind {
	case registry.KindNative:
		if !env.HasField(cls, PointerField, signature.Long, false) {
			return errors.LookupFailure("field", c.ID, PointerField, signature.Long)
		}
	case registry.KindRecord:
		for _, f := range c.Fields() {
			if !env.HasField(cls, f.Name, f.Signature, false) {
				return errors.LookupFailure("field", c.ID, f.Name, f.Signature)
			}
		}
	case registry.KindEnum:
		if err := c.Enum().Resolve(env); err != nil {
			return err
		}
		state.enums = append(state.enums, c.Enum())
	}

	fns := c.Functions()
	if len(fns) == 0 {
		return nil
	}
	methods := make([]managed.NativeMethod, 0, len(fns))
	for _, fb := range fns {
		if !env.HasMethod(cls, fb.Name, fb.Signature, !fb.IsMember) {
			return errors.LookupFailure("method", c.ID, fb.Name, fb.Signature)
		}
		methods = append(methods, managed.NativeMethod{Name: fb.Name, Signature: fb.Signature, Fn: fb.EntryPoint})
	}
	if err := env.RegisterNatives(cls, methods); err != nil {
		return errors.New(errors.PhaseLoad, errors.KindLookupFailure).
			Path(c.ID).
			Cause(err).
			Detail("cannot register native methods").
			Build()
	}
	state.bound = append(state.bound, cls)
	m.log().Debug("class bound",
		zap.String("class", c.ID),
		zap.Stringer("kind", c.Kind),
		zap.Int("methods", len(methods)))
	return nil
}

func (m *Module) rollback(env managed.Env, state *loadState) {
	for _, cls := range state.bound {
		if err := env.UnregisterNatives(cls); err != nil {
			m.log().Warn("unregister natives failed", zap.String("class", cls.Path()), zap.Error(err))
		}
	}
	for _, e := range state.enums {
		e.Release()
	}
}

// Unload unbinds the module from rt. Native methods are unregistered,
// enum constants released and every live native object disposed of.
func (m *Module) Unload(ctx context.Context, rt managed.Runtime) error {
	state := m.loaded.Load()
	if state == nil {
		return errors.NotInitialized(errors.PhaseLoad, "module")
	}
	if state.rt != rt {
		return errors.InvalidInput(errors.PhaseLoad, "module is loaded into a different runtime")
	}
	if !m.loaded.CompareAndSwap(state, nil) {
		return errors.NotInitialized(errors.PhaseLoad, "module")
	}
	env, release, err := managed.Acquire(ctx, rt)
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindNotInitialized, err, "cannot attach to runtime")
	}
	defer release()

	m.rollback(env, state)
	m.handles.Clear()
	m.log().Debug("module unloaded", zap.Int("classes", len(state.bound)))
	return nil
}
