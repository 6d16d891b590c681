// Package bind exposes Go types and functions to a managed runtime.
//
// A library declares its classes on a Module, usually the Default one,
// from package initialization:
//
//	var m = bind.Default()
//
//	func init() {
//		bind.NativeClass[Counter](m, "com/example/Counter").
//			Constructor("create", NewCounter).
//			Method("add", (*Counter).Add).
//			Method("value", (*Counter).Value)
//
//		bind.RecordClass[Point](m, "com/example/Point")
//
//		bind.EnumClass[Mode](m, "com/example/Mode").
//			Value(ModeFast, "FAST").
//			Value(ModeSafe, "SAFE")
//
//		m.StaticClass("com/example/Util").
//			Func("sum", func(xs []int32) int64 { ... })
//	}
//
// The runtime side then calls Load once:
//
//	version, err := bind.Default().Load(ctx, runtime)
//
// examples/counter is a complete package declared this way.
//
// # Adapters
//
// Every bound func goes through an adapter that unmarshals the managed
// arguments, calls the func and marshals its result. A context.Context
// parameter, first or directly after a method's receiver, receives the
// calling environment (see managed.EnvFrom). A trailing error result, like
// a panic, is raised in the managed caller as java.lang.Exception carrying
// the error's text. Managed exceptions returned by the func propagate
// unchanged.
//
// # Native objects
//
// Instances of a native class hold a handle in their long nativePointer
// field. The handle indexes the module's object table and is tagged with
// a generation, so a stale handle never reaches a newer object. Calling
// close() disposes of the object; any later instance call raises
// java.lang.IllegalStateException. Objects implementing resource.Disposer
// are told when they are disposed of.
//
// # Callbacks
//
// Go funcs passed to the managed side become instances of support
// classes (NativeFunction, NativeIntPredicate and so on, see
// SupportClass) that the managed side must close when done.
package bind
