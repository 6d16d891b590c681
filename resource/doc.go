// Package resource manages the handles that tie managed wrapper objects to
// native Go objects.
//
// A wrapper never holds a Go pointer. Its nativePointer field holds a
// Handle, an index into a Table:
//
//	table := resource.NewTable()
//
//	h := table.Insert("com/example/Sample", sample)
//	wrapperField := h.Pointer()
//
//	value, ok := table.Get(resource.FromPointer(wrapperField))
//
//	// Dispose; a second Remove is a no-op
//	table.Remove(h)
//
// # Generations
//
// Slots are reused, but every reuse bumps the slot's generation, which is
// part of the handle. A handle kept past its disposal therefore misses
// instead of resolving to an unrelated object.
//
// # Type Safety
//
// Handles remember the class they were created for:
//
//	value, ok := table.GetTyped(h, "com/example/Sample") // ok
//	value, ok := table.GetTyped(h, "com/example/Person") // !ok
//
// # Observers
//
// Observers see every creation and disposal:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    log.Printf("%s %s %d", e.Type, e.Class, e.Handle)
//	}))
//
// Values implementing Disposer have Dispose called when removed or when the
// table is closed.
package resource
