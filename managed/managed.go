package managed

import (
	"strings"
)

// Value is a value as seen by the managed runtime.
//
// Primitives travel as bool, int8, uint16 (char), int16, int32, int64,
// float32 and float64. References travel as Object, with a nil Object
// standing for the null reference.
type Value = any

// Object is an opaque reference to a managed object.
type Object interface {
	// Class returns the runtime class of the object.
	Class() Class
}

// Class is a managed class, addressed by its slash-separated path.
type Class interface {
	Path() string
}

// Call is the context of a single managed-to-native invocation.
type Call struct {
	Env   Env
	Class Class
	// This is the receiver for instance methods and nil for static ones.
	This Object
	Args []Value
}

// NativeFunc is a native entry point bound to a managed method.
// A non-nil error must be a *Throwable; the runtime raises it in the caller.
type NativeFunc func(call *Call) (Value, error)

// NativeMethod binds a native entry point to a method declared native by a managed class.
type NativeMethod struct {
	Fn        NativeFunc
	Name      string
	Signature string
}

// Env is the per-call view of the managed runtime.
//
// Every operation that can raise a managed exception returns it as a
// *Throwable error; there is no pending-exception state.
type Env interface {
	Runtime() Runtime

	FindClass(path string) (Class, error)
	IsInstanceOf(obj Object, cls Class) bool

	// AllocObject allocates an instance without running any initializer.
	AllocObject(cls Class) (Object, error)
	NewObject(cls Class, ctorSig string, args ...Value) (Object, error)

	HasField(cls Class, name, sig string, static bool) bool
	HasMethod(cls Class, name, sig string, static bool) bool
	GetField(obj Object, name, sig string) (Value, error)
	SetField(obj Object, name, sig string, v Value) error
	GetStaticField(cls Class, name, sig string) (Value, error)
	CallMethod(obj Object, name, sig string, args ...Value) (Value, error)
	CallStaticMethod(cls Class, name, sig string, args ...Value) (Value, error)

	NewString(s string) (Object, error)
	NewStringUTF16(s []uint16) (Object, error)
	StringUTF(obj Object) (string, error)
	StringUTF16(obj Object) ([]uint16, error)

	// NewArray allocates an array whose element signature is elemSig.
	NewArray(elemSig string, length int) (Object, error)
	ArrayLength(arr Object) (int, error)
	// ArrayElements returns the array's backing slice ([]int32 for "[I",
	// []Object for object arrays). Writes through the slice are visible
	// to the runtime.
	ArrayElements(arr Object) (any, error)

	NewThrowable(classPath, message string) *Throwable

	RegisterNatives(cls Class, methods []NativeMethod) error
	UnregisterNatives(cls Class) error
}

// Runtime is the process-wide handle to the managed runtime.
type Runtime interface {
	// AttachCurrentThread returns a fresh Env for code running outside any
	// managed call.
	AttachCurrentThread() (Env, error)
	DetachCurrentThread(env Env) error

	// NewGlobalRef pins obj so it survives past the call that produced it.
	NewGlobalRef(obj Object) Object
	DeleteGlobalRef(obj Object)
}

// Throwable is a managed exception crossing the boundary.
type Throwable struct {
	Object  Object
	Class   string
	Message string
}

// Error implements the error interface.
func (t *Throwable) Error() string {
	name := strings.ReplaceAll(t.Class, "/", ".")
	if t.Message == "" {
		return name
	}
	return name + ": " + t.Message
}
