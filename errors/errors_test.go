package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseMarshal,
				Kind:   KindTypeMismatch,
				Path:   []string{"person", "residence", "city"},
				GoType: "int",
				Sig:    "Ljava/lang/String;",
				Detail: "cannot convert",
			},
			contains: []string{"[marshal]", "type_mismatch", "person.residence.city", "int", "Ljava/lang/String;", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseUnmarshal,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[unmarshal]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindLookupFailure,
				Detail: "class missing",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "lookup_failure", "class missing", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseCall,
		Kind:  KindNativeException,
		Cause: cause,
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := DuplicateRegistration("pkg.Sample")

	if !errors.Is(err, &Error{Phase: PhaseRegister, Kind: KindDuplicateRegistration}) {
		t.Error("errors.Is should match same phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseLoad, Kind: KindDuplicateRegistration}) {
		t.Error("Is should not match different phase")
	}
	if errors.Is(err, &Error{Phase: PhaseRegister, Kind: KindFrozen}) {
		t.Error("Is should not match different kind")
	}
}

func TestError_Message(t *testing.T) {
	if got := NativeException(errors.New("boom")).Message(); got != "boom" {
		t.Errorf("Message() = %q, want boom", got)
	}
	if got := Wrap(PhaseCall, KindNativeException, errors.New("inner"), "").Message(); got != "inner" {
		t.Errorf("Message() = %q, want inner", got)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseMarshal, KindTypeMismatch).
		Path("rect", "width").
		GoType("string").
		Sig("D").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "double", "string").
		Build()

	if err.Phase != PhaseMarshal || err.Kind != KindTypeMismatch {
		t.Errorf("Phase/Kind = %v/%v", err.Phase, err.Kind)
	}
	if strings.Join(err.Path, ".") != "rect.width" {
		t.Errorf("Path = %v, want [rect width]", err.Path)
	}
	if err.GoType != "string" || err.Sig != "D" {
		t.Errorf("GoType=%v Sig=%v", err.GoType, err.Sig)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected double, got string" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		err  *Error
		kind Kind
		text string
	}{
		{NoDescriptor([]string{"arg0"}, "chan int"), KindTypeMismatch, "chan int"},
		{OutOfBounds(PhaseUnmarshal, []string{"list"}, 10, 5), KindOutOfBounds, "index 10"},
		{NilPointer(PhaseMarshal, nil, "*Sample"), KindNilPointer, "*Sample"},
		{Overflow(PhaseMarshal, nil, 300, "byte"), KindOverflow, "300"},
		{InvalidEnum(PhaseMarshal, 7, "pkg.Color"), KindInvalidEnum, "pkg.Color"},
		{SignatureCollision("pkg.Sample", "add", "(I)V"), KindSignatureCollision, "(I)V"},
		{Frozen("register class"), KindFrozen, "frozen"},
		{LookupFailure("method", "pkg/Sample", "add", "(I)V"), KindLookupFailure, "add"},
		{LookupFailure("class", "pkg/Missing", "", ""), KindLookupFailure, "pkg/Missing"},
		{Consistency("enum %s has undeclared value %s", "pkg.Color", "RED"), KindConsistency, "RED"},
		{DisposedHandle("pkg.Sample"), KindDisposedHandle, "disposed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if !strings.Contains(tt.err.Error(), tt.text) {
				t.Errorf("error %q should contain %q", tt.err.Error(), tt.text)
			}
		})
	}
}
