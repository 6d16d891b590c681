// Package managed defines the boundary between native Go code and a managed
// object runtime.
//
// The runtime is reached through two interfaces: Runtime, the process-wide
// handle, and Env, the per-call view used for every object operation.
// Classes and members are addressed by slash-separated paths and wire
// signatures (see package signature).
//
// # Two-channel results
//
// Every operation that can raise a managed exception returns it as an error
// of type *Throwable instead of leaving it pending. Native entry points
// (NativeFunc) follow the same convention in the other direction: a
// returned *Throwable is raised in the managed caller.
//
// # Environments
//
// Go has no thread-local storage, so the current Env travels on a
// context.Context. Code that runs outside a managed call (for example a Go
// closure invoked from a background goroutine) uses Acquire, which attaches
// a fresh Env when none is present and detaches only what it attached:
//
//	env, release, err := managed.Acquire(ctx, rt)
//	if err != nil {
//	    return err
//	}
//	defer release()
package managed
