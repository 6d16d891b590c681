package registry

import (
	"testing"

	nberrors "github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/memvm"
)

func enumFixture(t *testing.T, runtimeNames []string, declared ...string) (*memvm.VM, *EnumBinding) {
	t.Helper()
	vm := memvm.New()
	if _, err := vm.DefineEnum("test/Mode", runtimeNames...); err != nil {
		t.Fatalf("DefineEnum failed: %v", err)
	}
	r := New()
	c, err := r.RegisterClass("test/Mode", KindEnum, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, name := range declared {
		if err := r.AddEnumValue("test/Mode", name, int64(100+i)); err != nil {
			t.Fatal(err)
		}
	}
	return vm, c.Enum()
}

func TestEnumResolve(t *testing.T) {
	vm, e := enumFixture(t, []string{"Foo", "Bar"}, "Foo", "Bar")
	env := vm.Env()

	if _, err := e.BoundaryValue(env, 100); kindOf(err) != nberrors.KindNotInitialized {
		t.Errorf("Expected not initialized before resolve, got %v", err)
	}
	if err := e.Resolve(env); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !e.Resolved() {
		t.Fatal("Expected binding to be resolved")
	}

	cls, _ := env.FindClass("test/Mode")
	bar, _ := env.GetStaticField(cls, "Bar", "Ltest/Mode;")

	obj, err := e.BoundaryValue(env, 101)
	if err != nil {
		t.Fatal(err)
	}
	if obj != bar {
		t.Errorf("Expected Bar constant, got %v", obj)
	}
	v, err := e.NativeValue(env, bar.(managed.Object))
	if err != nil || v != 101 {
		t.Errorf("Expected 101, got %d, %v", v, err)
	}
	if _, err := e.BoundaryValue(env, 7); kindOf(err) != nberrors.KindInvalidEnum {
		t.Errorf("Expected invalid enum for unknown value, got %v", err)
	}
	if _, err := e.NativeValue(env, nil); kindOf(err) != nberrors.KindNilPointer {
		t.Errorf("Expected nil pointer for null constant, got %v", err)
	}

	if vm.GlobalRefs() != 2 {
		t.Errorf("Expected 2 pinned constants, got %d", vm.GlobalRefs())
	}
	e.Release()
	if vm.GlobalRefs() != 0 {
		t.Errorf("Expected constants to be released, %d remain", vm.GlobalRefs())
	}
	if e.Resolved() {
		t.Error("Expected binding to be unresolved after release")
	}
}

func TestEnumUndeclaredRuntimeName(t *testing.T) {
	vm, e := enumFixture(t, []string{"Foo", "Bar", "Baz"}, "Foo", "Bar")
	err := e.Resolve(vm.Env())
	if kindOf(err) != nberrors.KindConsistency {
		t.Fatalf("Expected consistency error, got %v", err)
	}
	if e.Resolved() {
		t.Error("Expected failed resolve to leave the binding unresolved")
	}
	if vm.GlobalRefs() != 0 {
		t.Errorf("Expected no pinned constants after failure, got %d", vm.GlobalRefs())
	}
}

func TestEnumMissingRuntimeName(t *testing.T) {
	vm, e := enumFixture(t, []string{"Foo"}, "Foo", "Bar")
	if err := e.Resolve(vm.Env()); kindOf(err) != nberrors.KindLookupFailure {
		t.Fatalf("Expected lookup failure, got %v", err)
	}
}

func TestEnumMissingClass(t *testing.T) {
	r := New()
	c, _ := r.RegisterClass("test/Nope", KindEnum, nil)
	if err := c.Enum().Resolve(memvm.New().Env()); kindOf(err) != nberrors.KindLookupFailure {
		t.Fatalf("Expected lookup failure, got %v", err)
	}
}
