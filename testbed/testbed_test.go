package testbed

import (
	"context"
	"errors"
	"testing"

	"github.com/wippyai/nativebind/bind"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/memvm"
)

type box struct{ v int32 }

type size struct {
	W int32
	H int32
}

type level int32

func newModule() *bind.Module {
	m := bind.NewModule()
	bind.NativeClass[box](m, "tb/Box").
		Constructor("create", func(v int32) *box { return &box{v: v} }).
		Method("get", func(b *box) int32 { return b.v })
	bind.RecordClass[size](m, "tb/Size")
	bind.EnumClass[level](m, "tb/Level").Value(1, "LOW").Value(2, "HIGH")
	m.StaticClass("tb/Util").
		Func("area", func(s size) int32 { return s.W * s.H })
	return m
}

func TestDefine(t *testing.T) {
	vm := memvm.New()
	m := newModule()
	if err := Define(vm, m); err != nil {
		t.Fatalf("Define failed: %v", err)
	}
	env := vm.Env()

	tests := []struct {
		class  string
		name   string
		sig    string
		field  bool
		static bool
	}{
		{class: "tb/Box", name: "create", sig: "(I)Ltb/Box;", static: true},
		{class: "tb/Box", name: "get", sig: "()I"},
		{class: "tb/Box", name: "close", sig: "()V"},
		{class: "tb/Box", name: bind.PointerField, sig: "J", field: true},
		{class: "tb/Size", name: "w", sig: "I", field: true},
		{class: "tb/Size", name: "h", sig: "I", field: true},
		{class: "tb/Util", name: "area", sig: "(Ltb/Size;)I", static: true},
		{class: m.SupportClass("java/util/function/Function"), name: "<init>", sig: "(J)V"},
		{class: m.SupportClass("java/util/function/IntPredicate"), name: "test", sig: "(I)Z"},
	}
	for _, tt := range tests {
		t.Run(tt.class+"."+tt.name, func(t *testing.T) {
			cls, err := env.FindClass(tt.class)
			if err != nil {
				t.Fatalf("Expected class %s to be defined: %v", tt.class, err)
			}
			var ok bool
			if tt.field {
				ok = env.HasField(cls, tt.name, tt.sig, false)
			} else {
				ok = env.HasMethod(cls, tt.name, tt.sig, tt.static)
			}
			if !ok {
				t.Errorf("Expected %s %s to be declared", tt.name, tt.sig)
			}
		})
	}

	low, err := env.GetStaticField(mustClass(t, env, "tb/Level"), "LOW", "Ltb/Level;")
	if err != nil || low == nil {
		t.Errorf("Expected enum constant LOW, got %v, %v", low, err)
	}

	if err := Define(vm, m); err == nil {
		t.Error("Expected defining the same module twice to fail")
	}
}

func mustClass(t *testing.T, env managed.Env, path string) managed.Class {
	t.Helper()
	cls, err := env.FindClass(path)
	if err != nil {
		t.Fatal(err)
	}
	return cls
}

func TestLoadAndClose(t *testing.T) {
	ctx := context.Background()
	rt, err := Load(ctx, newModule())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	obj, err := rt.Static("tb/Box", "create", "(I)Ltb/Box;", int32(7))
	if err != nil {
		t.Fatal(err)
	}
	if v, err := rt.Call(obj.(managed.Object), "get", "()I"); err != nil || v != int32(7) {
		t.Errorf("Expected 7, got %v, %v", v, err)
	}

	if err := rt.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	_, err = rt.Static("tb/Box", "create", "(I)Ltb/Box;", int32(1))
	var th *managed.Throwable
	if !errors.As(err, &th) || th.Class != "java/lang/UnsatisfiedLinkError" {
		t.Errorf("Expected UnsatisfiedLinkError after close, got %v", err)
	}
}

func TestStaticUnknownClass(t *testing.T) {
	rt, err := Load(context.Background(), newModule())
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close(context.Background())
	if _, err := rt.Static("tb/Missing", "x", "()V"); err == nil {
		t.Error("Expected unknown class to fail")
	}
}
