package bind

import (
	"reflect"
	"sync"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/resource"
	"github.com/wippyai/nativebind/signature"
)

// handleStore keeps native objects in the handle table and stores their
// handle in the nativePointer field of the managed wrapper.
//
// A wrapper moves from uninitialized (no handle yet) to live (handle set)
// to disposed (field reset to zero). A native object owns exactly one
// handle: exposing the same pointer again reuses it, so disposing through
// any wrapper invalidates them all. Pointers to zero-size values may share
// an address, so each of those gets a handle of its own.
type handleStore struct {
	table  *resource.Table
	owners map[any]resource.Handle
	mu     sync.Mutex
}

func newHandleStore(table *resource.Table) *handleStore {
	s := &handleStore{table: table, owners: make(map[any]resource.Handle)}
	table.Subscribe(resource.ObserverFunc(s.onEvent))
	return s
}

func (s *handleStore) onEvent(e resource.Event) {
	if e.Type != resource.EventDisposed {
		return
	}
	s.mu.Lock()
	if h, ok := s.owners[e.Value]; ok && h == e.Handle {
		delete(s.owners, e.Value)
	}
	s.mu.Unlock()
}

// handle returns the handle owning ptr, inserting it on first use.
func (s *handleStore) handle(class string, ptr reflect.Value) (resource.Handle, error) {
	key := ptr.Interface()
	shared := ptr.Type().Elem().Size() > 0
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.owners[key]; ok && shared {
		if _, live := s.table.GetTyped(h, class); live {
			return h, nil
		}
	}
	h := s.table.Insert(class, key)
	if h == 0 {
		return 0, errors.New(errors.PhaseMarshal, errors.KindNotInitialized).
			Path(class).
			Detail("native object table is closed").
			Build()
	}
	if shared {
		s.owners[key] = h
	}
	return h, nil
}

// Wrap implements descriptor.NativeStore. The wrapper is allocated
// without running any managed initializer.
func (s *handleStore) Wrap(env managed.Env, class string, ptr reflect.Value) (managed.Object, error) {
	cls, err := env.FindClass(class)
	if err != nil {
		return nil, err
	}
	h, err := s.handle(class, ptr)
	if err != nil {
		return nil, err
	}
	obj, err := env.AllocObject(cls)
	if err != nil {
		return nil, err
	}
	if err := env.SetField(obj, PointerField, signature.Long, h.Pointer()); err != nil {
		return nil, err
	}
	return obj, nil
}

// Unwrap implements descriptor.NativeStore.
func (s *handleStore) Unwrap(env managed.Env, class string, obj managed.Object) (reflect.Value, error) {
	if obj == nil {
		return reflect.Value{}, errors.NilPointer(errors.PhaseCall, nil, signature.ClassName(class))
	}
	h, err := pointerOf(env, obj)
	if err != nil {
		return reflect.Value{}, err
	}
	v, ok := s.table.GetTyped(h, class)
	if h == 0 || !ok {
		return reflect.Value{}, errors.DisposedHandle(signature.ClassName(class))
	}
	return reflect.ValueOf(v), nil
}

// dispose removes the object behind obj and resets its pointer field.
// Disposing a wrapper twice is a no-op.
func (s *handleStore) dispose(env managed.Env, obj managed.Object) error {
	h, err := pointerOf(env, obj)
	if err != nil || h == 0 {
		return err
	}
	s.table.Remove(h)
	return env.SetField(obj, PointerField, signature.Long, int64(0))
}

func pointerOf(env managed.Env, obj managed.Object) (resource.Handle, error) {
	raw, err := env.GetField(obj, PointerField, signature.Long)
	if err != nil {
		return 0, err
	}
	p, ok := raw.(int64)
	if !ok {
		return 0, errors.New(errors.PhaseCall, errors.KindTypeMismatch).
			Path(PointerField).
			Sig(signature.Long).
			Detail("pointer field holds %T", raw).
			Build()
	}
	return resource.FromPointer(p), nil
}

// closeBinding is the entry point bound to close()V on every native class.
func (s *handleStore) closeBinding(c *managed.Call) (managed.Value, error) {
	if c.This == nil {
		return nil, nil
	}
	if err := s.dispose(c.Env, c.This); err != nil {
		return nil, throw(c.Env, err)
	}
	return nil, nil
}
