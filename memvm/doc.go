// Package memvm is an in-process managed object runtime.
//
// A VM holds a class table addressed by slash-separated paths and hands out
// environments implementing managed.Env. It ships with the subset of the
// standard class library the binding layer talks to:
//
//	java/lang            Object, String, boxed primitives, Enum, exceptions
//	java/util            ArrayList, HashSet, TreeSet, HashMap, TreeMap,
//	                     Map$Entry, Iterator
//	java/util/function   Function, Predicate, Consumer and their primitive forms
//	java/time            Duration, Instant
//
// Application classes are added with Define. Methods declared Native stay
// unbound until RegisterNatives supplies a managed.NativeFunc; calling an
// unbound native method raises java/lang/UnsatisfiedLinkError.
//
//	vm := memvm.New()
//	cls, _ := vm.Define(memvm.ClassDecl{
//	    Path: "com/example/Sample",
//	    Methods: []memvm.MethodDecl{
//	        {Name: "add", Sig: "(II)I", Static: true, Native: true},
//	    },
//	})
//	env := vm.Env()
//	_ = env.RegisterNatives(cls, natives)
//	sum, err := env.CallStaticMethod(cls, "add", "(II)I", int32(1), int32(2))
//
// Every call checks its arguments and result against the method signature,
// so a binding that produces the wrong representation fails loudly instead
// of corrupting state.
//
// Hash-based collections iterate in insertion order, which keeps tests
// deterministic. Strings, boxed primitives and java/time values compare by
// content; all other objects compare by identity.
package memvm
