package resource

// Handle is an opaque reference to a native object in a table.
//
// The low 32 bits hold the slot index plus one and the high 32 bits hold the
// slot's generation, so a handle to a disposed object never matches the
// object that later reuses its slot. Handle 0 is reserved and always invalid.
type Handle uint64

// Pointer returns the handle in the form stored in a managed wrapper's
// nativePointer field.
func (h Handle) Pointer() int64 {
	return int64(h)
}

// FromPointer converts a nativePointer field value back to a handle.
func FromPointer(p int64) Handle {
	return Handle(p)
}

func (h Handle) slot() uint32 {
	return uint32(h)
}

func (h Handle) generation() uint32 {
	return uint32(h >> 32)
}

func makeHandle(slot, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(slot))
}

// EventType identifies a lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDisposed
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Event represents a handle lifecycle event.
type Event struct {
	Value  any
	Class  string
	Handle Handle
	Type   EventType
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnHandleEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnHandleEvent calls f(e).
func (f ObserverFunc) OnHandleEvent(e Event) {
	f(e)
}

// Disposer is optionally implemented by native objects that need cleanup
// when their handle is removed.
type Disposer interface {
	Dispose()
}
