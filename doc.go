// Package nativebind binds Go code to a managed object runtime through a
// JNI-style native method interface.
//
// Go types and functions are declared once; the library derives the
// managed signatures, generates boundary adapters that marshal arguments
// and results in both directions, and installs them as native methods when
// the module is loaded into a runtime.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	nativebind/          Root package (documentation only)
//	├── bind/            Module API: class builders, adapters, Load/Unload
//	├── descriptor/      Type descriptors and marshaling between Go and managed values
//	├── registry/        Binding registry, enum bindings, stub declarations
//	├── signature/       Managed type signature grammar
//	├── managed/         Runtime interfaces, Throwable, global references
//	├── memvm/           In-memory reference runtime
//	├── resource/        Generation-tagged native handle table
//	├── errors/          Structured error types for debugging
//	├── testbed/         Generates managed classes for a module and loads it
//	└── cmd/bindview/    Inspect and call the sample bindings
//
// # Quick Start
//
// Declare classes and load the module:
//
//	m := bind.NewModule()
//	bind.NativeClass[Counter](m, "com/example/Counter").
//	    Constructor("create", NewCounter).
//	    Method("add", (*Counter).Add)
//	m.StaticClass("com/example/Util").
//	    Func("greet", func(name string) string { return "Hello, " + name })
//
//	version, err := m.Load(ctx, rt)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Unload(ctx, rt)
//
// # Boundary Types
//
//   - Primitives: bool, int8, uint16, int16, int32, int64, float32, float64
//   - Strings: string, UTF16String, StringView
//   - Arrays: []T of primitives, records, strings and native objects; ArrayView
//   - Collections: []T, Set, OrderedSet, map, OrderedMap; ListView and SetView
//   - Optional, Boxed, time.Duration, time.Time
//   - Records, enums, native objects and single-argument funcs
//
// # Thread Safety
//
// Declaration is single-threaded. Once loaded the registry is frozen and
// adapters may be called from any number of goroutines. Closing a native
// object while another goroutine is using it is the caller's
// responsibility to avoid.
//
// # Errors Across the Boundary
//
// A Go error returned by a bound function, or a panic inside one, is raised
// in the managed caller as java.lang.Exception carrying the error message.
// Use of a closed object raises java.lang.IllegalStateException. Managed
// exceptions thrown by callbacks pass back through Go unchanged.
package nativebind
