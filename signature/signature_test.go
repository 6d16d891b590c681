package signature

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestComposition(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"object", Object("java/lang/String"), "Ljava/lang/String;"},
		{"array", Array(Int), "[I"},
		{"array of objects", Array(Object(StringClass)), "[Ljava/lang/String;"},
		{"nested array", ArrayN(Double, 3), "[[[D"},
		{"void method", Method(Void), "()V"},
		{"method", Method(Object(StringClass), Int, Object(StringClass)), "(ILjava/lang/String;)Ljava/lang/String;"},
		{"class path", ClassPath("com.example.Sample"), "com/example/Sample"},
		{"class name", ClassName("com/example/Sample"), "com.example.Sample"},
		{"generic", Generic("java.util.Map", "String", "Integer"), "java.util.Map<String, Integer>"},
		{"generic no args", Generic("java.util.List"), "java.util.List"},
		{"array display", ArrayDisplay("int"), "int[]"},
		{"simple name", SimpleName("com.example.Sample"), "Sample"},
		{"simple name path", SimpleName("com/example/Sample"), "Sample"},
		{"package", Package("com.example.Sample"), "com.example"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	params, ret, err := Split("(IJ[ZLjava/lang/String;[[Lcom/x/Y;)Ljava/util/List;")
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	want := []string{"I", "J", "[Z", "Ljava/lang/String;", "[[Lcom/x/Y;"}
	if diff := cmp.Diff(want, params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
	if ret != "Ljava/util/List;" {
		t.Errorf("ret = %q", ret)
	}

	params, ret, err = Split("()V")
	if err != nil || len(params) != 0 || ret != "V" {
		t.Errorf("Split(()V) = %v, %q, %v", params, ret, err)
	}
}

func TestValidate(t *testing.T) {
	valid := []string{"I", "[J", "Ljava/lang/Object;", "()V", "(I)Z", "([Ljava/lang/String;)V"}
	for _, s := range valid {
		if err := Validate(s); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", s, err)
		}
	}

	invalid := []string{"", "X", "[", "L;", "Ljava/lang/Object", "(V)V", "(I", "(I)", "(I)VV", "II", "[V"}
	for _, s := range invalid {
		if err := Validate(s); err == nil {
			t.Errorf("Validate(%q) = nil, want error", s)
		}
	}
}

func TestObjectPath(t *testing.T) {
	if p, ok := ObjectPath("Lcom/x/Y;"); !ok || p != "com/x/Y" {
		t.Errorf("ObjectPath = %q, %v", p, ok)
	}
	if _, ok := ObjectPath("I"); ok {
		t.Error("ObjectPath should reject primitives")
	}
}

func TestPrimitiveDisplay(t *testing.T) {
	for sig, want := range map[string]string{Boolean: "boolean", Char: "char", Long: "long", Void: "void"} {
		if got, ok := PrimitiveDisplay(sig); !ok || got != want {
			t.Errorf("PrimitiveDisplay(%q) = %q, %v", sig, got, ok)
		}
		if !IsPrimitive(sig) {
			t.Errorf("IsPrimitive(%q) = false", sig)
		}
	}
	if IsPrimitive("Ljava/lang/Object;") {
		t.Error("object signature reported as primitive")
	}
}
