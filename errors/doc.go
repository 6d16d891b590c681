// Package errors provides structured error types for the binding engine.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: member path, Go type name, wire signature,
// and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMarshal, errors.KindTypeMismatch).
//		Path("rect", "width").
//		GoType("string").
//		Sig("D").
//		Detail("cannot convert string to double").
//		Build()
//
// Or use convenience constructors for the registration and load taxonomy:
//
//	err := errors.DuplicateRegistration("com.example.Sample")
//	err := errors.LookupFailure("method", "com/example/Sample", "add", "(I)V")
//
// All errors implement the standard error interface and support errors.Is/As.
// Exceptions raised by the managed runtime are not *Error values; they are
// *managed.Throwable and cross the boundary unchanged.
package errors
