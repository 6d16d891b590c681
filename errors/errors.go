package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister  Phase = "register"  // static declaration of bindings
	PhaseResolve   Phase = "resolve"   // type descriptor resolution
	PhaseLoad      Phase = "load"      // binding against a live runtime
	PhaseMarshal   Phase = "marshal"   // native to managed
	PhaseUnmarshal Phase = "unmarshal" // managed to native
	PhaseCall      Phase = "call"      // adapter invocation
	PhaseDispose   Phase = "dispose"   // native object disposal
	PhaseRuntime   Phase = "runtime"   // managed runtime operations
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch          Kind = "type_mismatch"
	KindOutOfBounds           Kind = "out_of_bounds"
	KindInvalidData           Kind = "invalid_data"
	KindUnsupported           Kind = "unsupported"
	KindOverflow              Kind = "overflow"
	KindNilPointer            Kind = "nil_pointer"
	KindInvalidEnum           Kind = "invalid_enum"
	KindNotFound              Kind = "not_found"
	KindNotInitialized        Kind = "not_initialized"
	KindInvalidInput          Kind = "invalid_input"
	KindLookupFailure         Kind = "lookup_failure"
	KindDuplicateRegistration Kind = "duplicate_registration"
	KindSignatureCollision    Kind = "signature_collision"
	KindFrozen                Kind = "frozen"
	KindConsistency           Kind = "consistency"
	KindDisposedHandle        Kind = "disposed_handle"
	KindNativeException       Kind = "native_exception"
	KindBoundaryException     Kind = "boundary_exception"
)

// Error is the structured error type used throughout the binding engine
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Sig    string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.Sig != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.Sig != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", signature ")
			b.WriteString(e.Sig)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("signature ")
			b.WriteString(e.Sig)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.Sig != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Message returns the detail without phase and kind decoration.
// Adapters use it as the text of the managed exception they raise.
func (e *Error) Message() string {
	if e.Detail == "" && e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Detail
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the member path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Sig sets the wire signature
func (b *Builder) Sig(s string) *Builder {
	b.err.Sig = s
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, sig string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		Sig:    sig,
	}
}

// NoDescriptor reports a Go type that has no registered descriptor.
func NoDescriptor(path []string, goType string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		Detail: "no descriptor for type; declare it as a native, record or enum class",
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// InvalidEnum creates an invalid enum value error
func InvalidEnum(phase Phase, value any, enumClass string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidEnum,
		Detail: fmt.Sprintf("enum %s has no bound value %v", enumClass, value),
		Value:  value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// DuplicateRegistration reports a class identifier declared twice.
func DuplicateRegistration(classID string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindDuplicateRegistration,
		Detail: fmt.Sprintf("class %q is already registered", classID),
	}
}

// SignatureCollision reports two bindings sharing name and wire signature.
func SignatureCollision(classID, name, sig string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindSignatureCollision,
		Path:   []string{classID, name},
		Sig:    sig,
		Detail: "binding with the same name and signature already registered",
	}
}

// Frozen reports a registry mutation after the load step.
func Frozen(what string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindFrozen,
		Detail: fmt.Sprintf("cannot %s: registry is frozen", what),
	}
}

// LookupFailure reports a class, method, field or enumerator missing from the runtime.
func LookupFailure(what, class, member, sig string) *Error {
	e := &Error{
		Phase: PhaseLoad,
		Kind:  KindLookupFailure,
		Sig:   sig,
	}
	if member == "" {
		e.Detail = fmt.Sprintf("cannot find %s %q", what, class)
	} else {
		e.Path = []string{class, member}
		e.Detail = fmt.Sprintf("cannot find %s %q in class %q", what, member, class)
	}
	return e
}

// Consistency reports a disagreement between native declarations and the runtime.
func Consistency(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindConsistency,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// DisposedHandle reports a call through a handle whose object has been disposed of.
func DisposedHandle(class string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindDisposedHandle,
		Detail: fmt.Sprintf("object %s has already been disposed of", class),
	}
}

// NativeException wraps an error or panic raised by native code during an adapter call.
func NativeException(cause error) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindNativeException,
		Detail: cause.Error(),
		Cause:  cause,
	}
}
