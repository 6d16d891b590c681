package resource

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("handle table closed")

// LocalBackend is the slot store behind a Table.
// Freed slots are reused with a bumped generation.
type LocalBackend struct {
	entries  []entry
	freeList []uint32
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value any
	class string
	gen   uint32
	valid bool
}

// NewLocalBackend creates an empty backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// Create stores a value and returns its handle.
func (b *LocalBackend) Create(class string, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	if len(b.freeList) > 0 {
		slot := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		e := &b.entries[slot-1]
		e.value = value
		e.class = class
		e.valid = true
		return makeHandle(slot, e.gen), nil
	}

	b.entries = append(b.entries, entry{class: class, value: value, valid: true})
	return makeHandle(uint32(len(b.entries)), 0), nil
}

// lookup returns the live entry for h. Callers hold b.mu.
func (b *LocalBackend) lookup(h Handle) *entry {
	if h == 0 {
		return nil
	}
	slot := h.slot()
	if slot == 0 || int(slot) > len(b.entries) {
		return nil
	}
	e := &b.entries[slot-1]
	if !e.valid || e.gen != h.generation() {
		return nil
	}
	return e
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(h Handle) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(h)
	if e == nil {
		return nil, false
	}
	return e.value, true
}

// Class returns the class identifier a handle was created for.
func (b *LocalBackend) Class(h Handle) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(h)
	if e == nil {
		return "", false
	}
	return e.class, true
}

// Drop frees a slot and returns its value. A stale or unknown handle
// returns (nil, false).
func (b *LocalBackend) Drop(h Handle) (any, string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(h)
	if e == nil {
		return nil, "", false
	}

	value, class := e.value, e.class
	e.valid = false
	e.value = nil
	e.class = ""
	e.gen++
	b.freeList = append(b.freeList, h.slot())

	return value, class, true
}

// Close releases every live value, disposing those that implement Disposer.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for i := range b.entries {
		if b.entries[i].valid {
			if d, ok := b.entries[i].value.(Disposer); ok {
				d.Dispose()
			}
			b.entries[i].valid = false
			b.entries[i].value = nil
		}
	}

	b.entries = nil
	b.freeList = nil
	return nil
}

// Len returns the number of live handles.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, e := range b.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over all live handles until fn returns false.
func (b *LocalBackend) Each(fn func(Handle, string, any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid {
			if !fn(makeHandle(uint32(i+1), e.gen), e.class, e.value) {
				break
			}
		}
	}
}
