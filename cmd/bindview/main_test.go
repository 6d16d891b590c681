package main

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/wippyai/nativebind/bind"
	"github.com/wippyai/nativebind/descriptor"
	"github.com/wippyai/nativebind/memvm"
	"github.com/wippyai/nativebind/registry"
	"github.com/wippyai/nativebind/testbed"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestList(t *testing.T) {
	out, err := run(t, "list", "Rectangle")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, want := range []string{"record com.wippy.sample.Rectangle {", "double width;", "double height;"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}

	if _, err := run(t, "list", "Nothing"); err == nil {
		t.Error("Expected unknown class to fail")
	}
}

func TestCall(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "int", args: []string{"StaticSample", "pass_int", "42"}, want: "42\n"},
		{name: "string", args: []string{"StaticSample", "pass_string", "héllo"}, want: "héllo\n"},
		{name: "char", args: []string{"StaticSample", "pass_char", "é"}, want: "é\n"},
		{name: "void writes output", args: []string{"StaticSample", "returns_void"}, want: "returns_void()\n"},
		{name: "full class path", args: []string{"com/wippy/sample/StaticSample", "returns_int"}, want: "82\n"},
		{name: "bad argument", args: []string{"StaticSample", "pass_int", "x"}, wantErr: true},
		{name: "wrong arity", args: []string{"StaticSample", "pass_int"}, wantErr: true},
		{name: "not callable", args: []string{"StaticSample", "pass_record"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"call"}, tt.args...)...)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got output %q", out)
				}
				return
			}
			if err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if out != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, out)
			}
		})
	}
}

func TestDebugInstallsLoggers(t *testing.T) {
	t.Cleanup(func() {
		nop := zap.NewNop()
		logger = nop
		bind.SetLogger(nop)
		descriptor.SetLogger(nop)
		registry.SetLogger(nop)
		memvm.SetLogger(nop)
		testbed.SetLogger(nop)
	})
	if _, err := run(t, "--debug", "list", "Rectangle"); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	loggers := map[string]*zap.Logger{
		"bind":       bind.Logger(),
		"descriptor": descriptor.Logger(),
		"registry":   registry.Logger(),
		"memvm":      memvm.Logger(),
		"testbed":    testbed.Logger(),
	}
	for name, l := range loggers {
		if !l.Core().Enabled(zap.DebugLevel) {
			t.Errorf("Expected %s logger to log at debug level", name)
		}
	}
}
