package registry

import (
	"fmt"
	"strings"
)

// DeclKind classifies a stub declaration.
type DeclKind uint8

const (
	DeclMethod DeclKind = iota
	DeclField
	DeclEnumConstant
)

// Param is a declared parameter.
type Param struct {
	Name string
	Type string
}

// Declaration is one member of a generated class stub.
type Declaration struct {
	Name   string
	Type   string // result type for methods
	Params []Param
	Kind   DeclKind
	Static bool
}

// String renders the declaration as a stub source line.
func (d Declaration) String() string {
	switch d.Kind {
	case DeclField:
		return fmt.Sprintf("%s %s;", d.Type, d.Name)
	case DeclEnumConstant:
		return d.Name
	}
	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = p.Type + " " + p.Name
	}
	mod := "public native "
	if d.Static {
		mod = "public static native "
	}
	return fmt.Sprintf("%s%s %s(%s);", mod, d.Type, d.Name, strings.Join(params, ", "))
}

// Declarations lists the members a stub for the class must declare.
// Static methods come first, then instance methods, each group in
// registration order; parameters are named arg0, arg1 and so on. Record
// classes then list their fields and enum classes their constants, both
// in registration order.
func (c *Class) Declarations() []Declaration {
	var static, member []Declaration
	for _, fb := range c.functions {
		d := Declaration{
			Kind:   DeclMethod,
			Name:   fb.Name,
			Type:   fb.ReturnDisplay,
			Static: !fb.IsMember,
			Params: make([]Param, len(fb.ParamDisplay)),
		}
		for i, p := range fb.ParamDisplay {
			d.Params[i] = Param{Name: fmt.Sprintf("arg%d", i), Type: p}
		}
		if d.Static {
			static = append(static, d)
		} else {
			member = append(member, d)
		}
	}
	out := append(static, member...)
	for _, f := range c.fields {
		out = append(out, Declaration{Kind: DeclField, Name: f.Name, Type: f.Display})
	}
	if c.enum != nil {
		for _, name := range c.enum.names {
			out = append(out, Declaration{Kind: DeclEnumConstant, Name: name})
		}
	}
	return out
}
