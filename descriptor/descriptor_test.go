package descriptor_test

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/nativebind/descriptor"
	nberrors "github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/memvm"
)

type point struct {
	X float64
	Y float64
}

type color int32

const (
	red color = iota + 1
	green
)

type widget struct {
	Name string
}

func kindOf(err error) nberrors.Kind {
	var e *nberrors.Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// fixture is a VM with a record class, an enum class and a native class.
type fixture struct {
	vm  *memvm.VM
	env *memvm.Env
	r   *descriptor.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	vm := memvm.New()
	_, err := vm.Define(memvm.ClassDecl{
		Path: "test/Point",
		Fields: []memvm.FieldDecl{
			{Name: "x", Sig: "D"},
			{Name: "y", Sig: "D"},
		},
	})
	if err != nil {
		t.Fatalf("Define(Point) failed: %v", err)
	}
	if _, err := vm.DefineEnum("test/Color", "RED", "GREEN"); err != nil {
		t.Fatalf("DefineEnum failed: %v", err)
	}
	if _, err := vm.Define(memvm.ClassDecl{Path: "test/Widget"}); err != nil {
		t.Fatalf("Define(Widget) failed: %v", err)
	}

	r := descriptor.NewResolver()
	if err := r.RegisterRecord(reflect.TypeFor[point](), "test/Point", []descriptor.FieldDecl{
		{Name: "x", Index: 0},
		{Name: "y", Index: 1},
	}, nil); err != nil {
		t.Fatalf("RegisterRecord failed: %v", err)
	}
	if err := r.RegisterEnum(reflect.TypeFor[color](), "test/Color", colorMapper{}); err != nil {
		t.Fatalf("RegisterEnum failed: %v", err)
	}
	if err := r.RegisterNative(reflect.TypeFor[widget](), "test/Widget", newWidgetStore()); err != nil {
		t.Fatalf("RegisterNative failed: %v", err)
	}
	return &fixture{vm: vm, env: vm.Env(), r: r}
}

type colorMapper struct{}

var colorNames = map[int64]string{int64(red): "RED", int64(green): "GREEN"}

func (colorMapper) BoundaryValue(env managed.Env, value int64) (managed.Object, error) {
	name, ok := colorNames[value]
	if !ok {
		return nil, nberrors.InvalidEnum(nberrors.PhaseMarshal, value, "test/Color")
	}
	cls, err := env.FindClass("test/Color")
	if err != nil {
		return nil, err
	}
	v, err := env.GetStaticField(cls, name, "Ltest/Color;")
	if err != nil {
		return nil, err
	}
	return v.(managed.Object), nil
}

func (colorMapper) NativeValue(env managed.Env, obj managed.Object) (int64, error) {
	ord, err := env.CallMethod(obj, "ordinal", "()I")
	if err != nil {
		return 0, err
	}
	return int64(ord.(int32)) + 1, nil
}

type widgetStore struct {
	ptrs map[managed.Object]reflect.Value
}

func newWidgetStore() *widgetStore {
	return &widgetStore{ptrs: map[managed.Object]reflect.Value{}}
}

func (s *widgetStore) Wrap(env managed.Env, class string, ptr reflect.Value) (managed.Object, error) {
	cls, err := env.FindClass(class)
	if err != nil {
		return nil, err
	}
	obj, err := env.AllocObject(cls)
	if err != nil {
		return nil, err
	}
	s.ptrs[obj] = ptr
	return obj, nil
}

func (s *widgetStore) Unwrap(_ managed.Env, _ string, obj managed.Object) (reflect.Value, error) {
	ptr, ok := s.ptrs[obj]
	if !ok {
		return reflect.Value{}, nberrors.DisposedHandle("test.Widget")
	}
	return ptr, nil
}

func roundTrip[T any](t *testing.T, f *fixture, in T) T {
	t.Helper()
	d, err := descriptor.For[T](f.r)
	if err != nil {
		t.Fatalf("For[%T] failed: %v", in, err)
	}
	wire, err := d.Value(f.env, in)
	if err != nil {
		t.Fatalf("Marshal(%v) failed: %v", in, err)
	}
	out, err := d.Native(f.env, wire)
	if err != nil {
		t.Fatalf("Unmarshal(%v) failed: %v", in, err)
	}
	return out.(T)
}

func check[T any](t *testing.T, f *fixture, in T, want T) {
	t.Helper()
	got := roundTrip(t, f, in)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip of %T mismatch (-want +got):\n%s", in, diff)
	}
}

func TestSignatures(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		typ     reflect.Type
		sig     string
		display string
	}{
		{reflect.TypeFor[bool](), "Z", "boolean"},
		{reflect.TypeFor[int8](), "B", "byte"},
		{reflect.TypeFor[uint16](), "C", "char"},
		{reflect.TypeFor[int16](), "S", "short"},
		{reflect.TypeFor[int32](), "I", "int"},
		{reflect.TypeFor[int64](), "J", "long"},
		{reflect.TypeFor[int](), "J", "long"},
		{reflect.TypeFor[float32](), "F", "float"},
		{reflect.TypeFor[float64](), "D", "double"},
		{reflect.TypeFor[string](), "Ljava/lang/String;", "String"},
		{reflect.TypeFor[descriptor.UTF16String](), "Ljava/lang/String;", "String"},
		{reflect.TypeFor[descriptor.StringView](), "Ljava/lang/String;", "String"},
		{reflect.TypeFor[managed.Object](), "Ljava/lang/Object;", "Object"},
		{reflect.TypeFor[descriptor.Boxed[int32]](), "Ljava/lang/Integer;", "Integer"},
		{reflect.TypeFor[[]int32](), "[I", "int[]"},
		{reflect.TypeFor[descriptor.ArrayView[float64]](), "[D", "double[]"},
		{reflect.TypeFor[[]string](), "Ljava/util/List;", "java.util.List<String>"},
		{reflect.TypeFor[[]descriptor.Boxed[int32]](), "Ljava/util/List;", "java.util.List<Integer>"},
		{reflect.TypeFor[descriptor.Set[int32]](), "Ljava/util/Set;", "java.util.Set<Integer>"},
		{reflect.TypeFor[descriptor.OrderedSet[int64]](), "Ljava/util/Set;", "java.util.Set<Long>"},
		{reflect.TypeFor[map[string]int32](), "Ljava/util/Map;", "java.util.Map<String, Integer>"},
		{reflect.TypeFor[descriptor.OrderedMap[string, []float64]](), "Ljava/util/Map;", "java.util.Map<String, double[]>"},
		{reflect.TypeFor[descriptor.ListView[point]](), "Ljava/util/List;", "java.util.List<test.Point>"},
		{reflect.TypeFor[descriptor.Optional[int32]](), "Ljava/lang/Integer;", "Integer"},
		{reflect.TypeFor[time.Duration](), "Ljava/time/Duration;", "java.time.Duration"},
		{reflect.TypeFor[time.Time](), "Ljava/time/Instant;", "java.time.Instant"},
		{reflect.TypeFor[color](), "Ltest/Color;", "test.Color"},
		{reflect.TypeFor[point](), "Ltest/Point;", "test.Point"},
		{reflect.TypeFor[*widget](), "Ltest/Widget;", "test.Widget"},
		{reflect.TypeFor[func(string) string](), "Ljava/util/function/Function;", "java.util.function.Function<String, String>"},
		{reflect.TypeFor[func(int32) bool](), "Ljava/util/function/IntPredicate;", "java.util.function.IntPredicate"},
		{reflect.TypeFor[func(string)](), "Ljava/util/function/Consumer;", "java.util.function.Consumer<String>"},
		{reflect.TypeFor[func(int64) string](), "Ljava/util/function/LongFunction;", "java.util.function.LongFunction<String>"},
		{reflect.TypeFor[func(point) float64](), "Ljava/util/function/ToDoubleFunction;", "java.util.function.ToDoubleFunction<test.Point>"},
		{reflect.TypeFor[func(int32) int32](), "Ljava/util/function/ToIntFunction;", "java.util.function.ToIntFunction<Integer>"},
		{reflect.TypeFor[func(float64) error](), "Ljava/util/function/DoubleConsumer;", "java.util.function.DoubleConsumer"},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			d, err := f.r.Resolve(tt.typ)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if d.Sig != tt.sig {
				t.Errorf("Expected sig %q, got %q", tt.sig, d.Sig)
			}
			if d.Display != tt.display {
				t.Errorf("Expected display %q, got %q", tt.display, d.Display)
			}
		})
	}
}

func TestVoid(t *testing.T) {
	d, err := descriptor.NewResolver().Resolve(nil)
	if err != nil {
		t.Fatal(err)
	}
	if d.Sig != "V" || d.Display != "void" || d != descriptor.Void() {
		t.Errorf("Expected void descriptor, got %s %s", d.Sig, d.Display)
	}
}

func TestResolveCaches(t *testing.T) {
	r := descriptor.NewResolver()
	a, _ := descriptor.For[map[string][]int32](r)
	b, _ := descriptor.For[map[string][]int32](r)
	if a != b {
		t.Error("Expected the same descriptor instance for repeated resolution")
	}
}

func TestResolveUnsupported(t *testing.T) {
	r := descriptor.NewResolver()
	tests := []struct {
		typ  reflect.Type
		kind nberrors.Kind
	}{
		{reflect.TypeFor[chan int](), nberrors.KindTypeMismatch},
		{reflect.TypeFor[uint32](), nberrors.KindTypeMismatch},
		{reflect.TypeFor[point](), nberrors.KindTypeMismatch},
		{reflect.TypeFor[[]chan int](), nberrors.KindTypeMismatch},
		{reflect.TypeFor[func(int32, int32) int32](), nberrors.KindUnsupported},
		{reflect.TypeFor[func() int32](), nberrors.KindUnsupported},
		{reflect.TypeFor[func(int32) (int32, int32)](), nberrors.KindUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			_, err := r.Resolve(tt.typ)
			if err == nil {
				t.Fatal("Expected error")
			}
			if got := kindOf(err); got != tt.kind {
				t.Errorf("Expected kind %s, got %s (%v)", tt.kind, got, err)
			}
		})
	}
}

func TestRegisterErrors(t *testing.T) {
	r := descriptor.NewResolver()
	if err := r.RegisterRecord(reflect.TypeFor[int](), "test/X", nil, nil); err == nil {
		t.Error("Expected error for non-struct record")
	}
	if err := r.RegisterRecord(reflect.TypeFor[point](), "test/Point", []descriptor.FieldDecl{{Name: "z", Index: 5}}, nil); err == nil {
		t.Error("Expected error for field index out of range")
	}
	if err := r.RegisterEnum(reflect.TypeFor[string](), "test/E", colorMapper{}); err == nil {
		t.Error("Expected error for non-integer enum")
	}
	if err := r.RegisterRecord(reflect.TypeFor[point](), "test/Point", nil, nil); err != nil {
		t.Fatal(err)
	}
	err := r.RegisterNative(reflect.TypeFor[point](), "test/Point2", newWidgetStore())
	if kindOf(err) != nberrors.KindDuplicateRegistration {
		t.Errorf("Expected duplicate registration, got %v", err)
	}

	if _, err := descriptor.For[color](r); err != nil {
		t.Fatal(err)
	}
	err = r.RegisterEnum(reflect.TypeFor[color](), "test/Color", colorMapper{})
	if kindOf(err) != nberrors.KindInvalidInput {
		t.Errorf("Expected late declaration to fail, got %v", err)
	}
}

func TestRoundTripPrimitives(t *testing.T) {
	f := newFixture(t)
	check(t, f, true, true)
	check(t, f, false, false)
	check(t, f, int8(math.MinInt8), int8(math.MinInt8))
	check(t, f, int8(math.MaxInt8), int8(math.MaxInt8))
	check(t, f, uint16(math.MaxUint16), uint16(math.MaxUint16))
	check(t, f, int16(math.MinInt16), int16(math.MinInt16))
	check(t, f, int32(math.MinInt32), int32(math.MinInt32))
	check(t, f, int32(math.MaxInt32), int32(math.MaxInt32))
	check(t, f, int64(math.MinInt64), int64(math.MinInt64))
	check(t, f, int64(math.MaxInt64), int64(math.MaxInt64))
	check(t, f, math.MaxInt, math.MaxInt)
	check(t, f, float32(-1.5), float32(-1.5))
	check(t, f, math.MaxFloat64, math.MaxFloat64)
	check(t, f, descriptor.Box(int32(7)), descriptor.Box(int32(7)))
	check(t, f, descriptor.Box(true), descriptor.Box(true))
	check(t, f, descriptor.Box(uint16('x')), descriptor.Box(uint16('x')))
}

func TestRoundTripStrings(t *testing.T) {
	f := newFixture(t)
	check(t, f, "", "")
	check(t, f, "hello", "hello")
	check(t, f, "árvíztűrő 🙂", "árvíztűrő 🙂")
	check(t, f, descriptor.UTF16String{0x48, 0xD83D, 0xDE42}, descriptor.UTF16String{0x48, 0xD83D, 0xDE42})

	d, _ := descriptor.For[string](f.r)
	got, err := d.Native(f.env, nil)
	if err != nil || got != "" {
		t.Errorf("Expected null to unmarshal as empty string, got %q, %v", got, err)
	}
}

func TestRoundTripArrays(t *testing.T) {
	f := newFixture(t)
	check(t, f, []int32{1, -2, math.MaxInt32}, []int32{1, -2, math.MaxInt32})
	check(t, f, []bool{true, false}, []bool{true, false})
	check(t, f, []int{1, 2}, []int{1, 2})
	check(t, f, []float64{}, []float64{})
	check(t, f, []int8(nil), []int8{})

	d, _ := descriptor.For[[]int32](f.r)
	got, err := d.Native(f.env, nil)
	if err != nil || got.([]int32) != nil {
		t.Errorf("Expected null to unmarshal as nil slice, got %v, %v", got, err)
	}
}

func TestRoundTripCollections(t *testing.T) {
	f := newFixture(t)
	check(t, f, []string{"a", "b", "c"}, []string{"a", "b", "c"})
	check(t, f, []string{}, []string{})
	check(t, f, [][]int32{{1}, {2, 3}}, [][]int32{{1}, {2, 3}})
	check(t, f, []descriptor.Boxed[int64]{descriptor.Box(int64(5))}, []descriptor.Boxed[int64]{descriptor.Box(int64(5))})
	check(t, f, map[string]int32{"one": 1, "two": 2}, map[string]int32{"one": 1, "two": 2})
	check(t, f, map[string]int32{}, map[string]int32{})
	check(t, f, descriptor.NewSet("x", "y"), descriptor.NewSet("x", "y"))
	check(t, f, descriptor.NewSet[int32](), descriptor.NewSet[int32]())
	check(t, f, descriptor.OrderedSet[int32]{3, 1, 2, 1}, descriptor.OrderedSet[int32]{1, 2, 3})
	check(t, f, descriptor.OrderedMap[string, []string]{"b": {"2"}, "a": {"1"}}, descriptor.OrderedMap[string, []string]{"a": {"1"}, "b": {"2"}})
}

func TestOrderedSetAscending(t *testing.T) {
	f := newFixture(t)
	d, _ := descriptor.For[descriptor.OrderedSet[int32]](f.r)
	wire, err := d.Value(f.env, descriptor.OrderedSet[int32]{3, 2, 1})
	if err != nil {
		t.Fatal(err)
	}
	it, err := f.env.CallMethod(wire.(managed.Object), "iterator", "()Ljava/util/Iterator;")
	if err != nil {
		t.Fatal(err)
	}
	var seen []int32
	for {
		more, _ := f.env.CallMethod(it.(managed.Object), "hasNext", "()Z")
		if more != true {
			break
		}
		v, _ := f.env.CallMethod(it.(managed.Object), "next", "()Ljava/lang/Object;")
		n, _ := f.env.CallMethod(v.(managed.Object), "intValue", "()I")
		seen = append(seen, n.(int32))
	}
	if diff := cmp.Diff([]int32{1, 2, 3}, seen); diff != "" {
		t.Errorf("iteration order mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripOptional(t *testing.T) {
	f := newFixture(t)
	check(t, f, descriptor.None[int32](), descriptor.None[int32]())
	check(t, f, descriptor.Some(int32(0)), descriptor.Some(int32(0)))
	check(t, f, descriptor.Some("s"), descriptor.Some("s"))
	check(t, f, descriptor.Some(point{X: 1}), descriptor.Some(point{X: 1}))
	check(t, f, []descriptor.Optional[string]{descriptor.None[string](), descriptor.Some("x")},
		[]descriptor.Optional[string]{descriptor.None[string](), descriptor.Some("x")})

	d, _ := descriptor.For[descriptor.Optional[int32]](f.r)
	wire, err := d.Value(f.env, descriptor.None[int32]())
	if err != nil || wire != nil {
		t.Errorf("Expected absent optional to marshal as null, got %v, %v", wire, err)
	}
}

func TestRoundTripTime(t *testing.T) {
	f := newFixture(t)
	check(t, f, time.Duration(0), time.Duration(0))
	check(t, f, 90*time.Minute+5, 90*time.Minute+5)
	check(t, f, -1500*time.Millisecond, -1500*time.Millisecond)
	check(t, f, time.Duration(math.MaxInt64), time.Duration(math.MaxInt64))
	check(t, f, time.Duration(math.MinInt64), time.Duration(math.MinInt64))

	ts := time.Date(2024, 2, 29, 12, 30, 0, 123456789, time.UTC)
	check(t, f, ts, ts)
	before := time.Unix(-10, 5).UTC()
	check(t, f, before, before)
}

func TestDurationOverflow(t *testing.T) {
	f := newFixture(t)
	cls, _ := f.env.FindClass("java/time/Duration")
	huge, err := f.env.CallStaticMethod(cls, "ofSeconds", "(JJ)Ljava/time/Duration;", int64(math.MaxInt64/2), int64(0))
	if err != nil {
		t.Fatal(err)
	}
	d, _ := descriptor.For[time.Duration](f.r)
	_, err = d.Native(f.env, huge)
	if kindOf(err) != nberrors.KindOverflow {
		t.Errorf("Expected overflow, got %v", err)
	}
}

func TestRoundTripRecord(t *testing.T) {
	f := newFixture(t)
	check(t, f, point{X: 3.0, Y: 4.0}, point{X: 3.0, Y: 4.0})
	check(t, f, []point{{1, 2}, {3, 4}}, []point{{1, 2}, {3, 4}})

	d, _ := descriptor.For[point](f.r)
	wire, err := d.Value(f.env, point{X: 3.0, Y: 4.0})
	if err != nil {
		t.Fatal(err)
	}
	x, _ := f.env.GetField(wire.(managed.Object), "x", "D")
	y, _ := f.env.GetField(wire.(managed.Object), "y", "D")
	if x != 3.0 || y != 4.0 {
		t.Errorf("Expected fields {3, 4}, got {%v, %v}", x, y)
	}
	if len(d.Fields) != 2 || d.Fields[0].Name != "x" || d.Fields[1].Name != "y" {
		t.Errorf("Expected fields in declaration order, got %+v", d.Fields)
	}

	if _, err := d.Native(f.env, nil); kindOf(err) != nberrors.KindNilPointer {
		t.Errorf("Expected nil pointer for null record, got %v", err)
	}
}

type span struct {
	From int32
	To   int32
}

// spanAccessor stores a span as from and length.
type spanAccessor struct {
	stores, loads int
}

func (a *spanAccessor) StoreFields(env managed.Env, rec reflect.Value, obj managed.Object) error {
	a.stores++
	s := rec.Interface().(span)
	if err := env.SetField(obj, "from", "I", s.From); err != nil {
		return err
	}
	return env.SetField(obj, "length", "I", s.To-s.From)
}

func (a *spanAccessor) LoadFields(env managed.Env, obj managed.Object, rec reflect.Value) error {
	a.loads++
	from, err := env.GetField(obj, "from", "I")
	if err != nil {
		return err
	}
	n, err := env.GetField(obj, "length", "I")
	if err != nil {
		return err
	}
	rec.Set(reflect.ValueOf(span{From: from.(int32), To: from.(int32) + n.(int32)}))
	return nil
}

func TestRecordAccessor(t *testing.T) {
	f := newFixture(t)
	if _, err := f.vm.Define(memvm.ClassDecl{
		Path:   "test/Span",
		Fields: []memvm.FieldDecl{{Name: "from", Sig: "I"}, {Name: "length", Sig: "I"}},
	}); err != nil {
		t.Fatal(err)
	}
	acc := &spanAccessor{}
	if err := f.r.RegisterRecord(reflect.TypeFor[span](), "test/Span", []descriptor.FieldDecl{
		{Name: "from", Index: 0},
		{Name: "to", Index: 1},
	}, acc); err != nil {
		t.Fatal(err)
	}

	check(t, f, span{From: 2, To: 7}, span{From: 2, To: 7})
	if acc.stores != 1 || acc.loads != 1 {
		t.Errorf("Expected one store and one load, got %d and %d", acc.stores, acc.loads)
	}

	d, _ := descriptor.For[span](f.r)
	wire, err := d.Value(f.env, span{From: 2, To: 7})
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := f.env.GetField(wire.(managed.Object), "length", "I"); n != int32(5) {
		t.Errorf("Expected length 5, got %v", n)
	}
}

func TestRoundTripEnum(t *testing.T) {
	f := newFixture(t)
	check(t, f, red, red)
	check(t, f, green, green)
	check(t, f, map[color]string{red: "r"}, map[color]string{red: "r"})

	d, _ := descriptor.For[color](f.r)
	if _, err := d.Value(f.env, color(99)); kindOf(err) != nberrors.KindInvalidEnum {
		t.Errorf("Expected invalid enum, got %v", err)
	}
}

func TestRoundTripNative(t *testing.T) {
	f := newFixture(t)
	w := &widget{Name: "w"}
	if got := roundTrip(t, f, w); got != w {
		t.Errorf("Expected the same pointer back, got %p want %p", got, w)
	}
	if got := roundTrip(t, f, (*widget)(nil)); got != nil {
		t.Errorf("Expected nil pointer, got %v", got)
	}

	byValue := roundTrip(t, f, widget{Name: "copy"})
	if byValue.Name != "copy" {
		t.Errorf("Expected copied widget, got %+v", byValue)
	}
}

func TestListView(t *testing.T) {
	f := newFixture(t)
	listDesc, _ := descriptor.For[[]string](f.r)
	wire, err := listDesc.Value(f.env, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	d, _ := descriptor.For[descriptor.ListView[string]](f.r)
	out, err := d.Native(f.env, wire)
	if err != nil {
		t.Fatal(err)
	}
	view := out.(descriptor.ListView[string])
	if n, _ := view.Len(); n != 2 {
		t.Errorf("Expected length 2, got %d", n)
	}
	if s, err := view.Get(1); err != nil || s != "b" {
		t.Errorf("Expected Get(1) = b, got %q, %v", s, err)
	}
	if _, err := view.Get(2); kindOf(err) != nberrors.KindOutOfBounds {
		t.Errorf("Expected out of bounds, got %v", err)
	}
	if _, err := view.Get(-1); kindOf(err) != nberrors.KindOutOfBounds {
		t.Errorf("Expected out of bounds, got %v", err)
	}

	back, err := d.Value(f.env, view)
	if err != nil || back != wire {
		t.Errorf("Expected view to marshal as its list, got %v, %v", back, err)
	}
}

func TestSetAndMapView(t *testing.T) {
	f := newFixture(t)
	setDesc, _ := descriptor.For[descriptor.OrderedSet[int32]](f.r)
	wire, _ := setDesc.Value(f.env, descriptor.OrderedSet[int32]{5, 1, 3})
	d, _ := descriptor.For[descriptor.SetView[int32]](f.r)
	out, err := d.Native(f.env, wire)
	if err != nil {
		t.Fatal(err)
	}
	set := out.(descriptor.SetView[int32])
	var seen []int32
	it := set.Iterator()
	for it.HasNext() {
		seen = append(seen, it.Next())
	}
	if err := it.Err(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int32{1, 3, 5}, seen); diff != "" {
		t.Errorf("set iteration mismatch (-want +got):\n%s", diff)
	}
	if ok, _ := set.Contains(3); !ok {
		t.Error("Expected set to contain 3")
	}

	mapDesc, _ := descriptor.For[map[string]float64](f.r)
	mwire, _ := mapDesc.Value(f.env, map[string]float64{"pi": 3.14})
	md, _ := descriptor.For[descriptor.MapView[string, float64]](f.r)
	mout, err := md.Native(f.env, mwire)
	if err != nil {
		t.Fatal(err)
	}
	mv := mout.(descriptor.MapView[string, float64])
	if v, ok, err := mv.Get("pi"); err != nil || !ok || v != 3.14 {
		t.Errorf("Expected pi = 3.14, got %v %v %v", v, ok, err)
	}
	if _, ok, _ := mv.Get("e"); ok {
		t.Error("Expected missing key")
	}
	entries := mv.Iterator()
	for entries.HasNext() {
		k, v := entries.Next()
		if k != "pi" || v != 3.14 {
			t.Errorf("Unexpected entry %s=%v", k, v)
		}
	}

	nullView, err := md.Native(f.env, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := nullView.(descriptor.MapView[string, float64]).Len(); n != 0 {
		t.Errorf("Expected empty null view, got %d", n)
	}
}

func TestArrayViewAliases(t *testing.T) {
	f := newFixture(t)
	arrDesc, _ := descriptor.For[[]int32](f.r)
	wire, _ := arrDesc.Value(f.env, []int32{1, 2, 3})

	d, _ := descriptor.For[descriptor.ArrayView[int32]](f.r)
	out, err := d.Native(f.env, wire)
	if err != nil {
		t.Fatal(err)
	}
	view := out.(descriptor.ArrayView[int32])
	view.Elements()[0] = 42

	back, _ := arrDesc.Native(f.env, wire)
	if diff := cmp.Diff([]int32{42, 2, 3}, back); diff != "" {
		t.Errorf("write through view not visible (-want +got):\n%s", diff)
	}

	_, err = d.Native(f.env, wire)
	if err != nil {
		t.Fatal(err)
	}
	longView, _ := descriptor.For[descriptor.ArrayView[int64]](f.r)
	if _, err := longView.Native(f.env, wire); kindOf(err) != nberrors.KindTypeMismatch {
		t.Errorf("Expected type mismatch for wrong element type, got %v", err)
	}
}

func TestStringView(t *testing.T) {
	f := newFixture(t)
	obj, _ := f.env.NewString("héllo")
	d, _ := descriptor.For[descriptor.StringView](f.r)
	out, err := d.Native(f.env, obj)
	if err != nil {
		t.Fatal(err)
	}
	view := out.(descriptor.StringView)
	if s, _ := view.String(); s != "héllo" {
		t.Errorf("Expected héllo, got %q", s)
	}
	if n, _ := view.Len(); n != 5 {
		t.Errorf("Expected 5 code units, got %d", n)
	}
	if view.Object() != obj {
		t.Error("Expected view to alias the managed string")
	}
}

func TestManagedFunc(t *testing.T) {
	f := newFixture(t)
	lambda, err := f.vm.Lambda("java/util/function/ToIntFunction", func(args []managed.Value) (managed.Value, error) {
		s, err := f.env.StringUTF(args[0].(managed.Object))
		if err != nil {
			return nil, err
		}
		if s == "boom" {
			return nil, f.env.NewThrowable("java/lang/IllegalArgumentException", "boom")
		}
		return int32(len(s)), nil
	})
	if err != nil {
		t.Fatal(err)
	}

	d, _ := descriptor.For[func(string) int32](f.r)
	out, err := d.Native(f.env, lambda)
	if err != nil {
		t.Fatal(err)
	}
	fn := out.(func(string) int32)
	if got := fn("four"); got != 4 {
		t.Errorf("Expected 4, got %d", got)
	}

	func() {
		defer func() {
			r := recover()
			th, ok := r.(*managed.Throwable)
			if !ok || th.Message != "boom" {
				t.Errorf("Expected throwable panic, got %v", r)
			}
		}()
		fn("boom")
	}()

	de, _ := descriptor.For[func(string) (int32, error)](f.r)
	out, err = de.Native(f.env, lambda)
	if err != nil {
		t.Fatal(err)
	}
	fe := out.(func(string) (int32, error))
	if _, err := fe("boom"); err == nil {
		t.Error("Expected error result")
	}
	if n, err := fe("ok"); err != nil || n != 2 {
		t.Errorf("Expected 2, got %d, %v", n, err)
	}

	if f.vm.Attached() != 0 {
		t.Errorf("Expected every attached environment to be released, %d remain", f.vm.Attached())
	}
}

func TestManagedPredicate(t *testing.T) {
	f := newFixture(t)
	lambda, err := f.vm.Lambda("java/util/function/IntPredicate", func(args []managed.Value) (managed.Value, error) {
		return args[0].(int32) > 0, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	d, _ := descriptor.For[func(int32) bool](f.r)
	out, err := d.Native(f.env, lambda)
	if err != nil {
		t.Fatal(err)
	}
	pred := out.(func(int32) bool)
	if !pred(1) || pred(-1) {
		t.Error("Expected predicate to forward to the lambda")
	}
}

func TestMarshalFuncWithoutCallbacks(t *testing.T) {
	f := newFixture(t)
	d, _ := descriptor.For[func(string) string](f.r)
	_, err := d.Value(f.env, func(s string) string { return s })
	if kindOf(err) != nberrors.KindNotInitialized {
		t.Errorf("Expected not initialized, got %v", err)
	}
	wire, err := d.Value(f.env, (func(string) string)(nil))
	if err != nil || wire != nil {
		t.Errorf("Expected nil func to marshal as null, got %v, %v", wire, err)
	}
}

func TestFuncInfoInvoke(t *testing.T) {
	f := newFixture(t)
	d, _ := descriptor.For[func(point) float64](f.r)
	recDesc, _ := descriptor.For[point](f.r)
	rec, _ := recDesc.Value(f.env, point{X: 3, Y: 4})

	got, err := d.Func.Invoke(f.env, reflect.ValueOf(func(p point) float64 { return p.X * p.Y }), []managed.Value{rec})
	if err != nil {
		t.Fatal(err)
	}
	if got != 12.0 {
		t.Errorf("Expected 12, got %v", got)
	}
	if d.Func.Method != "applyAsDouble" || d.Func.MethodSig != "(Ljava/lang/Object;)D" {
		t.Errorf("Unexpected functional method %s%s", d.Func.Method, d.Func.MethodSig)
	}
	if d.Func.SimpleName() != "ToDoubleFunction" {
		t.Errorf("Expected ToDoubleFunction, got %s", d.Func.SimpleName())
	}

	fe, _ := descriptor.For[func(string) (string, error)](f.r)
	s, _ := f.env.NewString("x")
	_, err = fe.Func.Invoke(f.env, reflect.ValueOf(func(string) (string, error) { return "", errors.New("bad") }), []managed.Value{s})
	if err == nil || err.Error() != "bad" {
		t.Errorf("Expected error from func, got %v", err)
	}
}

func TestFunctionalInterfaces(t *testing.T) {
	all := descriptor.FunctionalInterfaces()
	if len(all) != 15 {
		t.Fatalf("Expected 15 functional interfaces, got %d", len(all))
	}
	if all[0].Interface != "java/util/function/Function" || all[0].MethodSig != "(Ljava/lang/Object;)Ljava/lang/Object;" {
		t.Errorf("Unexpected first interface %+v", all[0])
	}
}
