package managed

import (
	"context"
	"testing"
)

type fakeEnv struct {
	Env
	rt *fakeRuntime
}

func (e *fakeEnv) Runtime() Runtime { return e.rt }

type fakeRuntime struct {
	attached int
	detached int
	pinned   map[Object]int
}

func (r *fakeRuntime) AttachCurrentThread() (Env, error) {
	r.attached++
	return &fakeEnv{rt: r}, nil
}

func (r *fakeRuntime) DetachCurrentThread(Env) error {
	r.detached++
	return nil
}

func (r *fakeRuntime) NewGlobalRef(obj Object) Object {
	if r.pinned == nil {
		r.pinned = make(map[Object]int)
	}
	r.pinned[obj]++
	return obj
}

func (r *fakeRuntime) DeleteGlobalRef(obj Object) {
	r.pinned[obj]--
}

type fakeObject struct{ name string }

func (o *fakeObject) Class() Class { return nil }

func TestAcquire_ReusesContextEnv(t *testing.T) {
	rt := &fakeRuntime{}
	env := &fakeEnv{rt: rt}
	ctx := WithEnv(context.Background(), env)

	got, release, err := Acquire(ctx, rt)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	release()

	if got != env {
		t.Fatal("Expected the context env to be reused")
	}
	if rt.attached != 0 || rt.detached != 0 {
		t.Fatalf("Expected no attach/detach, got %d/%d", rt.attached, rt.detached)
	}
}

func TestAcquire_AttachesAndDetaches(t *testing.T) {
	rt := &fakeRuntime{}

	env, release, err := Acquire(context.Background(), rt)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if env == nil {
		t.Fatal("Expected an env")
	}
	if rt.attached != 1 {
		t.Fatalf("Expected 1 attach, got %d", rt.attached)
	}

	release()
	if rt.detached != 1 {
		t.Fatalf("Expected 1 detach, got %d", rt.detached)
	}
}

func TestEnvFrom_Empty(t *testing.T) {
	if _, ok := EnvFrom(context.Background()); ok {
		t.Fatal("Expected no env in empty context")
	}
	if _, ok := EnvFrom(nil); ok {
		t.Fatal("Expected no env in nil context")
	}
}

func TestGlobalRef_Lifecycle(t *testing.T) {
	rt := &fakeRuntime{}
	obj := &fakeObject{name: "fn"}

	ref := NewGlobalRef(rt, obj)
	if rt.pinned[obj] != 1 {
		t.Fatalf("Expected object pinned once, got %d", rt.pinned[obj])
	}

	ref.Retain()
	if ref.Refs() != 2 {
		t.Fatalf("Expected 2 refs, got %d", ref.Refs())
	}

	ref.Release()
	if ref.Object() != obj {
		t.Fatal("Object should stay reachable while referenced")
	}
	if rt.pinned[obj] != 1 {
		t.Fatal("Object unpinned too early")
	}

	ref.Release()
	if ref.Object() != nil {
		t.Fatal("Expected nil object after final release")
	}
	if rt.pinned[obj] != 0 {
		t.Fatalf("Expected object unpinned, got %d", rt.pinned[obj])
	}
}

func TestThrowable_Error(t *testing.T) {
	tests := []struct {
		th   *Throwable
		want string
	}{
		{&Throwable{Class: "java/lang/Exception", Message: "boom"}, "java.lang.Exception: boom"},
		{&Throwable{Class: "java/lang/IllegalStateException"}, "java.lang.IllegalStateException"},
	}
	for _, tt := range tests {
		if got := tt.th.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
