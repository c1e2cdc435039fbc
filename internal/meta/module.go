package meta

import (
	"deflow/internal/ir"
)

// Module is the metadata of one compiled module: its types with their
// fields and methods. Resolution maps reside in unexported fields and are
// rebuilt by Index after loading.
type Module struct {
	Name  string
	Types []*TypeDef

	fieldsByToken  map[uint32]*FieldDef
	methodsByToken map[uint32]*MethodDef
	fieldsByName   map[string]*FieldDef
	methodsByName  map[string]*MethodDef
}

// Index rebuilds the resolution maps and back-references from the type
// tables. Must be called after constructing or deserializing a module and
// after any structural edit to its type list.
func (m *Module) Index() {
	m.fieldsByToken = make(map[uint32]*FieldDef)
	m.methodsByToken = make(map[uint32]*MethodDef)
	m.fieldsByName = make(map[string]*FieldDef)
	m.methodsByName = make(map[string]*MethodDef)
	for _, t := range m.Types {
		for _, f := range t.Fields {
			f.declaring = t
			if f.Token != 0 {
				m.fieldsByToken[f.Token] = f
			}
			m.fieldsByName[f.FullName()] = f
		}
		for _, fn := range t.Methods {
			fn.declaring = t
			if fn.Token != 0 {
				m.methodsByToken[fn.Token] = fn
			}
			m.methodsByName[fn.FullName()] = fn
		}
	}
}

// ResolveField maps a field reference to its definition: by token first,
// then by full-name match. A failed resolution is "no information", never
// an error.
func (m *Module) ResolveField(r ir.Ref) (*FieldDef, bool) {
	if f, ok := m.fieldsByToken[r.Token]; ok {
		return f, true
	}
	if r.Name != "" {
		if f, ok := m.fieldsByName[r.Name]; ok {
			return f, true
		}
	}
	return nil, false
}

// ResolveMethod maps a method reference to its definition, with the same
// token-then-name strategy as ResolveField.
func (m *Module) ResolveMethod(r ir.Ref) (*MethodDef, bool) {
	if fn, ok := m.methodsByToken[r.Token]; ok {
		return fn, true
	}
	if r.Name != "" {
		if fn, ok := m.methodsByName[r.Name]; ok {
			return fn, true
		}
	}
	return nil, false
}

// MethodCount returns the number of method definitions in the module.
func (m *Module) MethodCount() int {
	n := 0
	for _, t := range m.Types {
		n += len(t.Methods)
	}
	return n
}
