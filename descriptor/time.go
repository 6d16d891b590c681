package descriptor

import (
	"math"
	"reflect"
	"time"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/signature"
)

const (
	durationClass = "java/time/Duration"
	instantClass  = "java/time/Instant"
)

var (
	durationDescriptor = buildDuration()
	instantDescriptor  = buildInstant()
)

func timeBase(t reflect.Type, kind Kind, class string) *Descriptor {
	sig := signature.Object(class)
	display := signature.ClassName(class)
	return &Descriptor{
		GoType:        t,
		Kind:          kind,
		Sig:           sig,
		Display:       display,
		ObjectSig:     sig,
		ObjectDisplay: display,
		Class:         class,
	}
}

// secondsAndNanos reads a (seconds, nanos) pair through the two getters.
func secondsAndNanos(env managed.Env, obj managed.Object, secGetter string) (int64, int32, error) {
	sec, err := env.CallMethod(obj, secGetter, signature.Method(signature.Long))
	if err != nil {
		return 0, 0, err
	}
	nano, err := env.CallMethod(obj, "getNano", signature.Method(signature.Int))
	if err != nil {
		return 0, 0, err
	}
	s, ok1 := sec.(int64)
	n, ok2 := nano.(int32)
	if !ok1 || !ok2 {
		return 0, 0, errors.InvalidData(errors.PhaseUnmarshal, nil, "malformed seconds/nanos pair")
	}
	return s, n, nil
}

// buildDuration maps time.Duration to java.time.Duration. A null duration
// unmarshals as zero; durations beyond the int64 nanosecond range fail
// with an overflow error.
func buildDuration() *Descriptor {
	d := timeBase(durationType, KindDuration, durationClass)
	ofSeconds := signature.Method(d.Sig, signature.Long, signature.Long)
	d.marshal = func(env managed.Env, v reflect.Value) (managed.Value, error) {
		cls, err := env.FindClass(durationClass)
		if err != nil {
			return nil, err
		}
		n := v.Int()
		return env.CallStaticMethod(cls, "ofSeconds", ofSeconds, n/int64(time.Second), n%int64(time.Second))
	}
	d.unmarshal = func(env managed.Env, v managed.Value, out reflect.Value) error {
		obj, err := asObject(v, errors.PhaseUnmarshal, d.Sig)
		if err != nil {
			return err
		}
		if obj == nil {
			out.SetInt(0)
			return nil
		}
		sec, nano, err := secondsAndNanos(env, obj, "getSeconds")
		if err != nil {
			return err
		}
		if sec > math.MaxInt64/int64(time.Second) || sec < math.MinInt64/int64(time.Second)-1 {
			return errors.Overflow(errors.PhaseUnmarshal, nil, sec, "time.Duration")
		}
		total := sec*int64(time.Second) + int64(nano)
		if sec < 0 && total > 0 || sec >= 0 && total < 0 {
			return errors.Overflow(errors.PhaseUnmarshal, nil, sec, "time.Duration")
		}
		out.SetInt(total)
		return nil
	}
	return d
}

// buildInstant maps time.Time to java.time.Instant. Unmarshaled times are
// in UTC; a null instant unmarshals as the zero time.
func buildInstant() *Descriptor {
	d := timeBase(timeType, KindInstant, instantClass)
	ofEpochSecond := signature.Method(d.Sig, signature.Long, signature.Long)
	d.marshal = func(env managed.Env, v reflect.Value) (managed.Value, error) {
		cls, err := env.FindClass(instantClass)
		if err != nil {
			return nil, err
		}
		t := v.Interface().(time.Time)
		return env.CallStaticMethod(cls, "ofEpochSecond", ofEpochSecond, t.Unix(), int64(t.Nanosecond()))
	}
	d.unmarshal = func(env managed.Env, v managed.Value, out reflect.Value) error {
		obj, err := asObject(v, errors.PhaseUnmarshal, d.Sig)
		if err != nil {
			return err
		}
		if obj == nil {
			out.SetZero()
			return nil
		}
		sec, nano, err := secondsAndNanos(env, obj, "getEpochSecond")
		if err != nil {
			return err
		}
		out.Set(reflect.ValueOf(time.Unix(sec, int64(nano)).UTC()))
		return nil
	}
	return d
}
