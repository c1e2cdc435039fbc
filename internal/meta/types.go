package meta

import (
	"strings"
	"unicode"

	"deflow/internal/ir"
)

// TypeDef is a type definition: a full name plus its field and method tables.
type TypeDef struct {
	Name    string
	Fields  []*FieldDef
	Methods []*MethodDef
}

// FieldDef is a field definition. Type is the full name of the field's
// declared type.
type FieldDef struct {
	Token  uint32
	Name   string
	Type   string
	Static bool

	declaring *TypeDef
}

// Declaring returns the type that declares this field (set by Module.Index).
func (f *FieldDef) Declaring() *TypeDef { return f.declaring }

// FullName returns "DeclaringType::field".
func (f *FieldDef) FullName() string {
	if f.declaring == nil {
		return f.Name
	}
	return f.declaring.Name + "::" + f.Name
}

// Ref returns a reference that resolves back to this field.
func (f *FieldDef) Ref() ir.Ref {
	return ir.Ref{Token: f.Token, Name: f.FullName()}
}

// MethodDef is a method definition with an optional body. Return is the
// full name of the return type; Params the full names of parameter types
// (the receiver, if any, is not listed).
type MethodDef struct {
	Token  uint32
	Name   string
	Static bool
	Return string
	Params []string
	Body   *ir.Body

	declaring *TypeDef
}

// Declaring returns the type that declares this method (set by Module.Index).
func (m *MethodDef) Declaring() *TypeDef { return m.declaring }

// FullName returns "DeclaringType::method".
func (m *MethodDef) FullName() string {
	if m.declaring == nil {
		return m.Name
	}
	return m.declaring.Name + "::" + m.Name
}

// ArgCount returns the number of stack arguments the method consumes,
// counting the receiver of an instance method.
func (m *MethodDef) ArgCount() int {
	n := len(m.Params)
	if !m.Static {
		n++
	}
	return n
}

// IsIntegerType reports whether a type full name denotes a 32-bit-or-smaller
// integer in the input format's primitive naming.
func IsIntegerType(name string) bool {
	switch name {
	case "int32", "uint32", "int16", "uint16", "int8", "uint8", "bool", "char":
		return true
	}
	return false
}

// IsSyntheticName reports whether a type name matches the obfuscator's
// generated-name convention: compiler-reserved "<>" prefixes, or names
// carrying no letters at all (control-character and digit salads).
// Heuristic tuned to the targeted obfuscator's output.
func IsSyntheticName(name string) bool {
	if strings.HasPrefix(name, "<>") || strings.HasPrefix(name, "<PrivateImplementation") {
		return true
	}
	for _, r := range name {
		if unicode.IsLetter(r) {
			return false
		}
	}
	return name != ""
}
