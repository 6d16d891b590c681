package resource

import (
	"sync"
)

// Table maps handles to native objects and notifies observers of their
// lifecycle.
type Table struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		backend: NewLocalBackend(),
	}
}

// Insert adds a value owned by the given class and returns its handle.
// It returns 0 once the table is closed.
func (t *Table) Insert(class string, value any) Handle {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0
	}
	t.closeMu.RUnlock()

	handle, err := t.backend.Create(class, value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		Class:  class,
		Value:  value,
	})

	return handle
}

// Get retrieves a value by handle.
func (t *Table) Get(handle Handle) (any, bool) {
	return t.backend.Get(handle)
}

// GetTyped retrieves a value only if it was inserted for class.
func (t *Table) GetTyped(handle Handle, class string) (any, bool) {
	actual, ok := t.backend.Class(handle)
	if !ok || actual != class {
		return nil, false
	}
	return t.backend.Get(handle)
}

// Remove disposes of a handle and returns its value. Removing a handle
// twice returns (nil, false) the second time.
func (t *Table) Remove(handle Handle) (any, bool) {
	value, class, ok := t.backend.Drop(handle)
	if !ok {
		return nil, false
	}

	if d, ok := value.(Disposer); ok {
		d.Dispose()
	}

	t.notify(Event{
		Type:   EventDisposed,
		Handle: handle,
		Class:  class,
		Value:  value,
	})

	return value, true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	return t.backend.Len()
}

// Clear disposes of every live handle.
func (t *Table) Clear() {
	var handles []Handle
	t.backend.Each(func(h Handle, _ string, _ any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		t.Remove(h)
	}
}

// Close disposes of every live handle, as Clear does, and stops accepting
// inserts.
func (t *Table) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	t.Clear()
	return t.backend.Close()
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnHandleEvent(e)
	}
}
