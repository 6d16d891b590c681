package memvm

import (
	"cmp"
	"math"

	"github.com/wippyai/nativebind/managed"
)

const (
	durationClass = "java/time/Duration"
	instantClass  = "java/time/Instant"

	nanosPerSecond = 1_000_000_000
)

// durationValue is a normalized seconds/nanos pair, 0 <= nano < 1e9.
type durationValue struct {
	sec  int64
	nano int32
}

func (d durationValue) compare(o durationValue) int {
	if c := cmp.Compare(d.sec, o.sec); c != 0 {
		return c
	}
	return cmp.Compare(d.nano, o.nano)
}

type instantValue durationValue

func (i instantValue) compare(o instantValue) int {
	return durationValue(i).compare(durationValue(o))
}

// normalizeSeconds folds a nanosecond adjustment into whole seconds.
func normalizeSeconds(sec, nanoAdj int64) (durationValue, bool) {
	sec2 := sec + floorDiv(nanoAdj, nanosPerSecond)
	if (nanoAdj > 0 && sec2 < sec) || (nanoAdj < 0 && sec2 > sec) {
		return durationValue{}, false
	}
	return durationValue{sec: sec2, nano: int32(floorMod(nanoAdj, nanosPerSecond))}, true
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

func timeDecls() []ClassDecl {
	durationSig := "L" + durationClass + ";"
	instantSig := "L" + instantClass + ";"
	nano := func(_ *Env, this *Object, _ []managed.Value) (managed.Value, error) {
		switch p := this.payload.(type) {
		case durationValue:
			return p.nano, nil
		case instantValue:
			return p.nano, nil
		}
		return int32(0), nil
	}
	return []ClassDecl{
		{
			Path: durationClass,
			Methods: []MethodDecl{
				{Name: "ofSeconds", Sig: "(JJ)" + durationSig, Static: true, Impl: func(env *Env, _ *Object, args []managed.Value) (managed.Value, error) {
					d, ok := normalizeSeconds(args[0].(int64), args[1].(int64))
					if !ok {
						return nil, env.Throw(arithmeticClass, "long overflow")
					}
					return &Object{cls: env.mustClass(durationClass), payload: d}, nil
				}},
				{Name: "ofNanos", Sig: "(J)" + durationSig, Static: true, Impl: func(env *Env, _ *Object, args []managed.Value) (managed.Value, error) {
					d, _ := normalizeSeconds(0, args[0].(int64))
					return &Object{cls: env.mustClass(durationClass), payload: d}, nil
				}},
				{Name: "getSeconds", Sig: "()J", Impl: func(_ *Env, this *Object, _ []managed.Value) (managed.Value, error) {
					return this.payload.(durationValue).sec, nil
				}},
				{Name: "getNano", Sig: "()I", Impl: nano},
				{Name: "toNanos", Sig: "()J", Impl: func(env *Env, this *Object, _ []managed.Value) (managed.Value, error) {
					d := this.payload.(durationValue)
					sec, adj := d.sec, int64(d.nano)
					if sec < 0 {
						sec, adj = sec+1, adj-nanosPerSecond
					}
					if sec > math.MaxInt64/nanosPerSecond || sec < math.MinInt64/nanosPerSecond {
						return nil, env.Throw(arithmeticClass, "long overflow")
					}
					total := sec*nanosPerSecond + adj
					if (adj > 0 && total < sec*nanosPerSecond) || (adj < 0 && total > sec*nanosPerSecond) {
						return nil, env.Throw(arithmeticClass, "long overflow")
					}
					return total, nil
				}},
			},
		},
		{
			Path: instantClass,
			Methods: []MethodDecl{
				{Name: "ofEpochSecond", Sig: "(JJ)" + instantSig, Static: true, Impl: func(env *Env, _ *Object, args []managed.Value) (managed.Value, error) {
					d, ok := normalizeSeconds(args[0].(int64), args[1].(int64))
					if !ok {
						return nil, env.Throw(arithmeticClass, "long overflow")
					}
					return &Object{cls: env.mustClass(instantClass), payload: instantValue(d)}, nil
				}},
				{Name: "getEpochSecond", Sig: "()J", Impl: func(_ *Env, this *Object, _ []managed.Value) (managed.Value, error) {
					return this.payload.(instantValue).sec, nil
				}},
				{Name: "getNano", Sig: "()I", Impl: nano},
			},
		},
	}
}
