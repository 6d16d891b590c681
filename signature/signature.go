// Package signature composes the wire signatures and display declarations
// used to locate methods and fields across the boundary.
//
// Wire grammar:
//
//	Z B C S I J F D V     primitive tags
//	Lpkg/Name;            object reference (slash-separated path)
//	[T                    array of T, one '[' per dimension
//	(params)return        function
//
// Display declarations are the human-readable counterparts used for stub
// output, e.g. "java.util.Map<String, Integer>" or "int[]".
package signature

import (
	"strings"

	"github.com/wippyai/nativebind/errors"
)

// Primitive type tags.
const (
	Void    = "V"
	Boolean = "Z"
	Byte    = "B"
	Char    = "C"
	Short   = "S"
	Int     = "I"
	Long    = "J"
	Float   = "F"
	Double  = "D"
)

// Well-known class paths.
const (
	ObjectClass    = "java/lang/Object"
	StringClass    = "java/lang/String"
	ExceptionClass = "java/lang/Exception"
	IllegalState   = "java/lang/IllegalStateException"
)

var primitiveDisplay = map[string]string{
	Void:    "void",
	Boolean: "boolean",
	Byte:    "byte",
	Char:    "char",
	Short:   "short",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
}

// IsPrimitive reports whether sig is a single primitive tag (void included).
func IsPrimitive(sig string) bool {
	_, ok := primitiveDisplay[sig]
	return ok
}

// PrimitiveDisplay returns the display name for a primitive tag.
func PrimitiveDisplay(sig string) (string, bool) {
	d, ok := primitiveDisplay[sig]
	return d, ok
}

// Object encodes a reference to the class at the given slash path.
func Object(classPath string) string {
	return "L" + classPath + ";"
}

// Array encodes a one-dimensional array of elem.
func Array(elem string) string {
	return "[" + elem
}

// ArrayN encodes an n-dimensional array of elem.
func ArrayN(elem string, dims int) string {
	return strings.Repeat("[", dims) + elem
}

// Method encodes a function signature.
func Method(ret string, params ...string) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range params {
		b.WriteString(p)
	}
	b.WriteByte(')')
	b.WriteString(ret)
	return b.String()
}

// ClassPath converts a dotted class name to its slash path.
func ClassPath(className string) string {
	return strings.ReplaceAll(className, ".", "/")
}

// ClassName converts a slash path to its dotted class name.
func ClassName(classPath string) string {
	return strings.ReplaceAll(classPath, "/", ".")
}

// SimpleName returns the last component of a dotted or slashed class name.
func SimpleName(name string) string {
	if i := strings.LastIndexAny(name, "./"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Package returns everything before the last component of a class name.
func Package(name string) string {
	if i := strings.LastIndexAny(name, "./"); i >= 0 {
		return name[:i]
	}
	return ""
}

// Generic renders a parameterized display declaration.
func Generic(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + "<" + strings.Join(args, ", ") + ">"
}

// ArrayDisplay renders the display declaration of an array of elem.
func ArrayDisplay(elem string) string {
	return elem + "[]"
}

// ObjectPath extracts the class path from an object signature.
func ObjectPath(sig string) (string, bool) {
	if len(sig) < 3 || sig[0] != 'L' || sig[len(sig)-1] != ';' {
		return "", false
	}
	return sig[1 : len(sig)-1], true
}

// Split splits a method signature into its parameter and return signatures.
func Split(sig string) (params []string, ret string, err error) {
	if len(sig) < 3 || sig[0] != '(' {
		return nil, "", invalid(sig, "method signature must start with '('")
	}
	i := 1
	for i < len(sig) && sig[i] != ')' {
		n, err := scan(sig, i)
		if err != nil {
			return nil, "", err
		}
		if sig[i:i+n] == Void {
			return nil, "", invalid(sig, "void is not a valid parameter type")
		}
		params = append(params, sig[i:i+n])
		i += n
	}
	if i >= len(sig) {
		return nil, "", invalid(sig, "missing ')'")
	}
	i++
	n, err := scan(sig, i)
	if err != nil {
		return nil, "", err
	}
	if i+n != len(sig) {
		return nil, "", invalid(sig, "trailing characters after return type")
	}
	return params, sig[i:], nil
}

// Validate checks that sig is a well-formed field or method signature.
func Validate(sig string) error {
	if strings.HasPrefix(sig, "(") {
		_, _, err := Split(sig)
		return err
	}
	n, err := scan(sig, 0)
	if err != nil {
		return err
	}
	if n != len(sig) {
		return invalid(sig, "trailing characters")
	}
	return nil
}

// scan returns the length of the single type signature starting at i.
func scan(sig string, i int) (int, error) {
	start := i
	for i < len(sig) && sig[i] == '[' {
		i++
	}
	if i >= len(sig) {
		return 0, invalid(sig, "unexpected end of signature")
	}
	switch sig[i] {
	case 'Z', 'B', 'C', 'S', 'I', 'J', 'F', 'D':
		return i - start + 1, nil
	case 'V':
		if i != start {
			return 0, invalid(sig, "array of void")
		}
		return 1, nil
	case 'L':
		end := strings.IndexByte(sig[i:], ';')
		if end < 2 {
			return 0, invalid(sig, "unterminated object type")
		}
		return i - start + end + 1, nil
	default:
		return 0, invalid(sig, "unknown type tag "+string(sig[i]))
	}
}

func invalid(sig, detail string) error {
	return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
		Sig(sig).
		Detail("%s", detail).
		Build()
}
