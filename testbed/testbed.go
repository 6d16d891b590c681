// Package testbed runs modules against the in-memory runtime.
//
// Define generates the managed side of a module the way a stub generator
// would: one class per registered class with native methods matching the
// bindings, plus the callback support classes.
package testbed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/nativebind/bind"
	"github.com/wippyai/nativebind/descriptor"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/memvm"
	"github.com/wippyai/nativebind/registry"
	"github.com/wippyai/nativebind/signature"
)

const autoCloseable = "java/lang/AutoCloseable"

// Define declares in vm the managed counterpart of every class of m. The
// module is prepared first. Functions of enum classes are not declared.
func Define(vm *memvm.VM, m *bind.Module) error {
	if err := m.Prepare(); err != nil {
		return err
	}
	for _, c := range m.Registry().Classes() {
		if err := defineClass(vm, c); err != nil {
			return fmt.Errorf("define %s: %w", c.ID, err)
		}
	}
	for _, info := range descriptor.FunctionalInterfaces() {
		if _, err := vm.Define(supportDecl(m, info)); err != nil {
			return fmt.Errorf("define support class for %s: %w", info.Interface, err)
		}
	}
	return nil
}

func defineClass(vm *memvm.VM, c *registry.Class) error {
	if c.Kind == registry.KindEnum {
		_, err := vm.DefineEnum(c.ID, c.Enum().Names()...)
		return err
	}
	decl := memvm.ClassDecl{Path: c.ID}
	switch c.Kind {
	case registry.KindNative:
		decl.Interfaces = []string{autoCloseable}
		decl.Fields = append(decl.Fields, memvm.FieldDecl{Name: bind.PointerField, Sig: signature.Long})
	case registry.KindRecord:
		for _, f := range c.Fields() {
			decl.Fields = append(decl.Fields, memvm.FieldDecl{Name: f.Name, Sig: f.Signature})
		}
	}
	for _, fb := range c.Functions() {
		decl.Methods = append(decl.Methods, memvm.MethodDecl{
			Name:   fb.Name,
			Sig:    fb.Signature,
			Static: !fb.IsMember,
			Native: true,
		})
	}
	_, err := vm.Define(decl)
	return err
}

func supportDecl(m *bind.Module, info descriptor.FuncInfo) memvm.ClassDecl {
	return memvm.ClassDecl{
		Path:       m.SupportClass(info.Interface),
		Interfaces: []string{info.Interface, autoCloseable},
		Fields:     []memvm.FieldDecl{{Name: bind.PointerField, Sig: signature.Long}},
		Methods: []memvm.MethodDecl{
			{
				Name: "<init>",
				Sig:  signature.Method(signature.Void, signature.Long),
				Impl: func(env *memvm.Env, this *memvm.Object, args []managed.Value) (managed.Value, error) {
					return nil, env.SetField(this, bind.PointerField, signature.Long, args[0])
				},
			},
			{Name: info.Method, Sig: info.MethodSig, Native: true},
			{Name: bind.CloseMethod, Sig: signature.Method(signature.Void), Native: true},
		},
	}
}

// Runtime is a VM with a module loaded into it.
type Runtime struct {
	VM     *memvm.VM
	Module *bind.Module
}

// Load creates a VM, defines the classes of m in it and loads m.
func Load(ctx context.Context, m *bind.Module, opts ...memvm.Option) (*Runtime, error) {
	vm := memvm.New(opts...)
	if err := Define(vm, m); err != nil {
		return nil, err
	}
	if _, err := m.Load(ctx, vm); err != nil {
		return nil, err
	}
	Logger().Debug("testbed loaded", zap.Int("classes", len(m.Registry().Classes())))
	return &Runtime{VM: vm, Module: m}, nil
}

// Close unloads the module.
func (r *Runtime) Close(ctx context.Context) error {
	return r.Module.Unload(ctx, r.VM)
}

// Env returns an environment of the VM.
func (r *Runtime) Env() managed.Env {
	return r.VM.Env()
}

// Static calls the static method name of class.
func (r *Runtime) Static(class, name, sig string, args ...managed.Value) (managed.Value, error) {
	env := r.Env()
	cls, err := env.FindClass(class)
	if err != nil {
		return nil, err
	}
	return env.CallStaticMethod(cls, name, sig, args...)
}

// Call calls the instance method name of obj.
func (r *Runtime) Call(obj managed.Object, name, sig string, args ...managed.Value) (managed.Value, error) {
	return r.Env().CallMethod(obj, name, sig, args...)
}
