package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/wippyai/nativebind/bind"
	"github.com/wippyai/nativebind/examples/sample"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/registry"
	"github.com/wippyai/nativebind/signature"
	"github.com/wippyai/nativebind/testbed"
)

// session is the sample module loaded into an in-memory runtime.
type session struct {
	rt *testbed.Runtime
}

func openSession(ctx context.Context, out io.Writer) (*session, error) {
	m := bind.NewModule(bind.WithLogger(logger))
	sample.Register(m, out)
	rt, err := testbed.Load(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("load sample module: %w", err)
	}
	return &session{rt: rt}, nil
}

func (s *session) Close(ctx context.Context) error {
	return s.rt.Close(ctx)
}

// entry is a static function that can be called with textual arguments.
type entry struct {
	class  string
	fn     *registry.FunctionBinding
	params []string
	ret    string
}

func (e entry) name() string {
	return signature.SimpleName(e.class) + "." + e.fn.Name
}

// callable lists the static functions whose parameters are all
// primitives or strings.
func callable(m *bind.Module) []entry {
	var out []entry
	for _, c := range m.Registry().Classes() {
		for _, fb := range c.Functions() {
			if fb.IsMember {
				continue
			}
			params, ret, err := signature.Split(fb.Signature)
			if err != nil || !allScalar(params) {
				continue
			}
			out = append(out, entry{class: c.ID, fn: fb, params: params, ret: ret})
		}
	}
	return out
}

func allScalar(params []string) bool {
	for _, p := range params {
		if !signature.IsPrimitive(p) && p != signature.Object(signature.StringClass) {
			return false
		}
	}
	return true
}

func (s *session) find(class, name string, argc int) (entry, error) {
	var found bool
	for _, e := range callable(s.rt.Module) {
		if e.class != class && signature.SimpleName(e.class) != class {
			continue
		}
		if e.fn.Name != name {
			continue
		}
		found = true
		if len(e.params) == argc {
			return e, nil
		}
	}
	if found {
		return entry{}, fmt.Errorf("%s.%s does not take %d arguments", class, name, argc)
	}
	return entry{}, fmt.Errorf("no callable function %s.%s", class, name)
}

func (s *session) call(e entry, args []string) (string, error) {
	env := s.rt.Env()
	values := make([]managed.Value, len(args))
	for i, a := range args {
		v, err := parseArg(env, e.params[i], a)
		if err != nil {
			return "", fmt.Errorf("argument %d: %w", i, err)
		}
		values[i] = v
	}
	res, err := s.rt.Static(e.class, e.fn.Name, e.fn.Signature, values...)
	if err != nil {
		return "", err
	}
	return format(env, e.ret, res)
}

func parseArg(env managed.Env, sig, s string) (managed.Value, error) {
	switch sig {
	case signature.Boolean:
		return strconv.ParseBool(s)
	case signature.Byte:
		v, err := strconv.ParseInt(s, 0, 8)
		return int8(v), err
	case signature.Char:
		r := []rune(s)
		if len(r) != 1 || r[0] > 0xffff {
			return nil, fmt.Errorf("%q is not a single UTF-16 unit", s)
		}
		return uint16(r[0]), nil
	case signature.Short:
		v, err := strconv.ParseInt(s, 0, 16)
		return int16(v), err
	case signature.Int:
		v, err := strconv.ParseInt(s, 0, 32)
		return int32(v), err
	case signature.Long:
		return strconv.ParseInt(s, 0, 64)
	case signature.Float:
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	case signature.Double:
		return strconv.ParseFloat(s, 64)
	}
	return env.NewString(s)
}

func format(env managed.Env, sig string, v managed.Value) (string, error) {
	switch {
	case sig == signature.Void:
		return "", nil
	case v == nil:
		return "null", nil
	case sig == signature.Char:
		return string(rune(v.(uint16))), nil
	case sig == signature.Object(signature.StringClass):
		return env.StringUTF(v.(managed.Object))
	case signature.IsPrimitive(sig):
		return fmt.Sprint(v), nil
	}
	if obj, ok := v.(managed.Object); ok {
		return "<" + obj.Class().Path() + ">", nil
	}
	return fmt.Sprint(v), nil
}
