package registry

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/signature"
)

// EnumBinding maps the constants of a managed enum class to native values.
//
// Names are declared during registration. Resolve then asks the runtime
// for the constants once; afterwards both directions are plain lookups
// that make no boundary calls.
type EnumBinding struct {
	table  atomic.Pointer[enumTable]
	byName map[string]int64
	class  string
	names  []string
}

type enumTable struct {
	refs      []*managed.GlobalRef
	byValue   map[int64]managed.Object
	byObject  map[managed.Object]int64
	byOrdinal []int64
}

func newEnumBinding(class string) *EnumBinding {
	return &EnumBinding{class: class, byName: make(map[string]int64)}
}

func (e *EnumBinding) declare(name string, value int64) error {
	if _, dup := e.byName[name]; dup {
		return errors.New(errors.PhaseRegister, errors.KindDuplicateRegistration).
			Path(e.class, name).
			Detail("enum value declared twice").
			Build()
	}
	e.byName[name] = value
	e.names = append(e.names, name)
	return nil
}

// Class returns the enum class path.
func (e *EnumBinding) Class() string { return e.class }

// Names returns the declared names in declaration order.
func (e *EnumBinding) Names() []string { return e.names }

// Resolved reports whether Resolve has completed.
func (e *EnumBinding) Resolved() bool { return e.table.Load() != nil }

// Resolve reads the enum constants from the runtime. Every runtime
// constant must have been declared; a declared name the runtime lacks is
// a lookup failure.
func (e *EnumBinding) Resolve(env managed.Env) error {
	cls, err := env.FindClass(e.class)
	if err != nil {
		return errors.LookupFailure("class", e.class, "", "")
	}
	valuesSig := signature.Method(signature.Array(signature.Object(e.class)))
	arr, err := env.CallStaticMethod(cls, "values", valuesSig)
	if err != nil {
		return errors.New(errors.PhaseLoad, errors.KindLookupFailure).
			Path(e.class, "values").
			Sig(valuesSig).
			Cause(err).
			Detail("cannot list enum constants").
			Build()
	}
	arrObj, _ := arr.(managed.Object)
	if arrObj == nil {
		return errors.Consistency("enum %s: values() returned null", e.class)
	}
	raw, err := env.ArrayElements(arrObj)
	if err != nil {
		return err
	}
	constants, ok := raw.([]managed.Object)
	if !ok {
		return errors.Consistency("enum %s: values() returned %T", e.class, raw)
	}

	t := &enumTable{
		byValue:   make(map[int64]managed.Object, len(constants)),
		byObject:  make(map[managed.Object]int64, len(constants)),
		byOrdinal: make([]int64, len(constants)),
	}
	fail := func(err error) error {
		for _, ref := range t.refs {
			ref.Release()
		}
		return err
	}
	seen := make(map[string]bool, len(constants))
	rt := env.Runtime()
	for _, c := range constants {
		name, ordinal, err := constantInfo(env, c)
		if err != nil {
			return fail(err)
		}
		value, declared := e.byName[name]
		if !declared {
			return fail(errors.Consistency("enum %s: runtime constant %s is not declared", e.class, name))
		}
		if ordinal < 0 || int(ordinal) >= len(constants) {
			return fail(errors.Consistency("enum %s: constant %s has ordinal %d", e.class, name, ordinal))
		}
		ref := managed.NewGlobalRef(rt, c)
		t.refs = append(t.refs, ref)
		t.byValue[value] = ref.Object()
		t.byObject[c] = value
		t.byObject[ref.Object()] = value
		t.byOrdinal[ordinal] = value
		seen[name] = true
	}
	for _, name := range e.names {
		if !seen[name] {
			return fail(errors.LookupFailure("enum constant", e.class, name, ""))
		}
	}
	if !e.table.CompareAndSwap(nil, t) {
		return fail(nil)
	}
	Logger().Debug("enum resolved", zap.String("class", e.class), zap.Int("constants", len(constants)))
	return nil
}

func constantInfo(env managed.Env, c managed.Object) (string, int32, error) {
	nameObj, err := env.CallMethod(c, "name", signature.Method(signature.Object(signature.StringClass)))
	if err != nil {
		return "", 0, err
	}
	obj, _ := nameObj.(managed.Object)
	if obj == nil {
		return "", 0, errors.InvalidData(errors.PhaseLoad, nil, "enum constant has a null name")
	}
	name, err := env.StringUTF(obj)
	if err != nil {
		return "", 0, err
	}
	ord, err := env.CallMethod(c, "ordinal", signature.Method(signature.Int))
	if err != nil {
		return "", 0, err
	}
	ordinal, ok := ord.(int32)
	if !ok {
		return "", 0, errors.InvalidData(errors.PhaseLoad, nil, "ordinal returned a non-int value")
	}
	return name, ordinal, nil
}

// Release drops the runtime constants. The binding must be resolved again
// before use.
func (e *EnumBinding) Release() {
	t := e.table.Swap(nil)
	if t == nil {
		return
	}
	for _, ref := range t.refs {
		ref.Release()
	}
}

// BoundaryValue returns the enum constant for a native value.
func (e *EnumBinding) BoundaryValue(_ managed.Env, value int64) (managed.Object, error) {
	t := e.table.Load()
	if t == nil {
		return nil, errors.NotInitialized(errors.PhaseMarshal, "enum "+e.class)
	}
	obj, ok := t.byValue[value]
	if !ok {
		return nil, errors.InvalidEnum(errors.PhaseMarshal, value, e.class)
	}
	return obj, nil
}

// NativeValue returns the native value of an enum constant. Constants
// not seen during Resolve, such as fresh local references to the same
// constant, are identified by ordinal.
func (e *EnumBinding) NativeValue(env managed.Env, obj managed.Object) (int64, error) {
	t := e.table.Load()
	if t == nil {
		return 0, errors.NotInitialized(errors.PhaseUnmarshal, "enum "+e.class)
	}
	if obj == nil {
		return 0, errors.NilPointer(errors.PhaseUnmarshal, nil, signature.ClassName(e.class))
	}
	if v, ok := t.byObject[obj]; ok {
		return v, nil
	}
	ord, err := env.CallMethod(obj, "ordinal", signature.Method(signature.Int))
	if err != nil {
		return 0, err
	}
	i, ok := ord.(int32)
	if !ok || i < 0 || int(i) >= len(t.byOrdinal) {
		return 0, errors.InvalidEnum(errors.PhaseUnmarshal, ord, e.class)
	}
	return t.byOrdinal[i], nil
}
