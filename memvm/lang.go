package memvm

import (
	"fmt"
	"unicode/utf16"

	"github.com/wippyai/nativebind/managed"
)

const (
	stringClass            = "java/lang/String"
	numberClass            = "java/lang/Number"
	enumClass              = "java/lang/Enum"
	throwableClass         = "java/lang/Throwable"
	errorClass             = "java/lang/Error"
	exceptionClass         = "java/lang/Exception"
	runtimeExceptionClass  = "java/lang/RuntimeException"
	illegalArgumentClass   = "java/lang/IllegalArgumentException"
	illegalStateClass      = "java/lang/IllegalStateException"
	nullPointerClass       = "java/lang/NullPointerException"
	classCastClass         = "java/lang/ClassCastException"
	arithmeticClass        = "java/lang/ArithmeticException"
	indexOutOfBoundsClass  = "java/lang/IndexOutOfBoundsException"
	negativeArraySizeClass = "java/lang/NegativeArraySizeException"
	noSuchElementClass     = "java/util/NoSuchElementException"
	instantiationClass     = "java/lang/InstantiationError"
	noSuchMethodClass      = "java/lang/NoSuchMethodError"
	noSuchFieldClass       = "java/lang/NoSuchFieldError"
	noClassDefFoundError   = "java/lang/NoClassDefFoundError"
	unsatisfiedLinkClass   = "java/lang/UnsatisfiedLinkError"
	abstractMethodClass    = "java/lang/AbstractMethodError"
)

// enumConstant is the payload of an enum instance.
type enumConstant struct {
	name    string
	ordinal int32
}

// builtins returns the builtin class library in definition order.
func builtins() []ClassDecl {
	decls := []ClassDecl{
		{
			Path: objectClass,
			Methods: []MethodDecl{
				{Name: "<init>", Sig: "()V", Impl: noop},
				{Name: "toString", Sig: "()Ljava/lang/String;", Impl: objectToString},
				{Name: "equals", Sig: "(Ljava/lang/Object;)Z", Impl: objectEquals},
			},
		},
		{
			Path: stringClass,
			Methods: []MethodDecl{
				{Name: "length", Sig: "()I", Impl: func(_ *Env, this *Object, _ []managed.Value) (managed.Value, error) {
					return int32(len(utf16.Encode([]rune(this.payload.(string))))), nil
				}},
				{Name: "toString", Sig: "()Ljava/lang/String;", Impl: func(_ *Env, this *Object, _ []managed.Value) (managed.Value, error) {
					return this, nil
				}},
			},
		},
		{Path: numberClass, Abstract: true},
		boxDecl("java/lang/Boolean", "Z", "booleanValue", ""),
		boxDecl("java/lang/Byte", "B", "byteValue", numberClass),
		boxDecl("java/lang/Character", "C", "charValue", ""),
		boxDecl("java/lang/Short", "S", "shortValue", numberClass),
		boxDecl("java/lang/Integer", "I", "intValue", numberClass),
		boxDecl("java/lang/Long", "J", "longValue", numberClass),
		boxDecl("java/lang/Float", "F", "floatValue", numberClass),
		boxDecl("java/lang/Double", "D", "doubleValue", numberClass),
		{
			Path:     enumClass,
			Abstract: true,
			Methods: []MethodDecl{
				{Name: "name", Sig: "()Ljava/lang/String;", Impl: func(env *Env, this *Object, _ []managed.Value) (managed.Value, error) {
					return env.newString(this.payload.(enumConstant).name), nil
				}},
				{Name: "ordinal", Sig: "()I", Impl: func(_ *Env, this *Object, _ []managed.Value) (managed.Value, error) {
					return this.payload.(enumConstant).ordinal, nil
				}},
			},
		},
		throwableDecl(throwableClass, ""),
		throwableDecl(errorClass, throwableClass),
		throwableDecl(exceptionClass, throwableClass),
		throwableDecl(runtimeExceptionClass, exceptionClass),
	}
	for _, path := range []string{
		illegalArgumentClass, illegalStateClass, nullPointerClass, classCastClass,
		arithmeticClass, indexOutOfBoundsClass, negativeArraySizeClass, noSuchElementClass,
	} {
		decls = append(decls, throwableDecl(path, runtimeExceptionClass))
	}
	for _, path := range []string{
		instantiationClass, noSuchMethodClass, noSuchFieldClass,
		noClassDefFoundError, unsatisfiedLinkClass, abstractMethodClass,
	} {
		decls = append(decls, throwableDecl(path, errorClass))
	}
	decls = append(decls, utilDecls()...)
	decls = append(decls, functionDecls()...)
	decls = append(decls, timeDecls()...)
	return decls
}

func noop(*Env, *Object, []managed.Value) (managed.Value, error) { return nil, nil }

func objectToString(env *Env, this *Object, _ []managed.Value) (managed.Value, error) {
	if this.payload != nil {
		return env.newString(fmt.Sprint(this.payload)), nil
	}
	return env.newString(fmt.Sprintf("%s@%p", this.cls.path, this)), nil
}

func objectEquals(_ *Env, this *Object, args []managed.Value) (managed.Value, error) {
	other, _ := asObject(args[0])
	return other != nil && keyOf(this) == keyOf(other), nil
}

// boxDecl declares a primitive wrapper class with valueOf and its unboxing getter.
func boxDecl(path, prim, getter, super string) ClassDecl {
	return ClassDecl{
		Path:  path,
		Super: super,
		Methods: []MethodDecl{
			{
				Name:   "valueOf",
				Sig:    "(" + prim + ")L" + path + ";",
				Static: true,
				Impl: func(env *Env, _ *Object, args []managed.Value) (managed.Value, error) {
					return &Object{cls: env.mustClass(path), payload: args[0]}, nil
				},
			},
			{
				Name: getter,
				Sig:  "()" + prim,
				Impl: func(_ *Env, this *Object, _ []managed.Value) (managed.Value, error) {
					return this.payload, nil
				},
			},
		},
	}
}

// throwableDecl declares an exception class carrying a message.
func throwableDecl(path, super string) ClassDecl {
	return ClassDecl{
		Path:  path,
		Super: super,
		Methods: []MethodDecl{
			{Name: "<init>", Sig: "()V", Impl: noop},
			{Name: "<init>", Sig: "(Ljava/lang/String;)V", Impl: func(env *Env, this *Object, args []managed.Value) (managed.Value, error) {
				if s, _ := asObject(args[0]); s != nil {
					this.payload = s.payload
				}
				return nil, nil
			}},
			{Name: "getMessage", Sig: "()Ljava/lang/String;", Impl: func(env *Env, this *Object, _ []managed.Value) (managed.Value, error) {
				msg, ok := this.payload.(string)
				if !ok {
					return nil, nil
				}
				return env.newString(msg), nil
			}},
		},
	}
}

// valueKey identifies a value for hashing and equality.
type valueKey struct {
	v    any
	path string
}

var valueClasses = map[string]bool{
	stringClass:           true,
	"java/lang/Boolean":   true,
	"java/lang/Byte":      true,
	"java/lang/Character": true,
	"java/lang/Short":     true,
	"java/lang/Integer":   true,
	"java/lang/Long":      true,
	"java/lang/Float":     true,
	"java/lang/Double":    true,
	durationClass:         true,
	instantClass:          true,
}

// keyOf returns the equality key of a reference. Strings, boxed
// primitives and java/time values compare by content, everything else by
// identity.
func keyOf(o *Object) any {
	if o == nil {
		return nil
	}
	if valueClasses[o.cls.path] {
		return valueKey{path: o.cls.path, v: o.payload}
	}
	return o
}
