package opaque

import (
	"fmt"
	"testing"

	"deflow/internal/diag"
	"deflow/internal/ir"
	"deflow/internal/meta"
)

// predicateModule builds a module with one synthetic singleton type whose
// initializer stores a constant expression into each integer field. The
// windows slice supplies the constant expression for each field in order;
// a nil window means the store has no singleton load anchoring it.
func predicateModule(t *testing.T, windows [][]ir.Instr) (*meta.Module, *meta.TypeDef) {
	t.Helper()

	td := &meta.TypeDef{Name: "<>c__Predicates"}
	singleton := &meta.FieldDef{Token: 100, Name: "Instance", Type: td.Name, Static: true}
	td.Fields = append(td.Fields, singleton)
	for i := range windows {
		td.Fields = append(td.Fields, &meta.FieldDef{
			Token: uint32(101 + i),
			Name:  fmt.Sprintf("f%d", i),
			Type:  "int32",
		})
	}

	var instrs []ir.Instr
	for i, w := range windows {
		if w != nil {
			instrs = append(instrs, ir.Instr{Op: ir.OpLoadStaticField, Ref: singleton.Ref()})
			instrs = append(instrs, w...)
		} else {
			instrs = append(instrs, ir.Const(0))
		}
		instrs = append(instrs, ir.Instr{Op: ir.OpStoreField, Ref: ir.Ref{Token: uint32(101 + i)}})
	}
	instrs = append(instrs, ir.Instr{Op: ir.OpReturn})

	td.Methods = append(td.Methods, &meta.MethodDef{
		Token: 200,
		Name:  ".cctor",
		Body:  &ir.Body{Instrs: instrs},
	})

	m := &meta.Module{Name: "obf", Types: []*meta.TypeDef{td}}
	m.Index()
	return m, td
}

// TestScan_ResolvesConstantField tests that a field assigned a constant
// expression in the initializer is recorded with its evaluated value.
func TestScan_ResolvesConstantField(t *testing.T) {
	// Eleven stores so the method qualifies as the initializer; the first
	// field gets "5 + 3", the rest plain constants.
	windows := make([][]ir.Instr, 11)
	windows[0] = []ir.Instr{ir.Const(5), ir.Const(3), {Op: ir.OpAdd}}
	for i := 1; i < len(windows); i++ {
		windows[i] = []ir.Instr{ir.Const(int32(i))}
	}
	m, td := predicateModule(t, windows)

	table := Scan(m, diag.Nop())
	if table.Len() != 11 {
		t.Fatalf("expected 11 recorded fields, got %d", table.Len())
	}

	rec, ok := table.Lookup(m, td.Fields[1].Ref())
	if !ok {
		t.Fatal("first predicate field not recorded")
	}
	if !rec.Resolved || rec.Value != 8 {
		t.Errorf("expected resolved value 8, got (%d, resolved=%v)", rec.Value, rec.Resolved)
	}
}

// TestScan_RecordsUnresolvedField tests that a field whose expression the
// interpreter cannot evaluate is still recorded, without a value.
func TestScan_RecordsUnresolvedField(t *testing.T) {
	windows := make([][]ir.Instr, 11)
	// Division by zero cannot be evaluated.
	windows[0] = []ir.Instr{ir.Const(5), ir.Const(0), {Op: ir.OpDiv}}
	for i := 1; i < len(windows); i++ {
		windows[i] = []ir.Instr{ir.Const(int32(i))}
	}
	m, td := predicateModule(t, windows)

	table := Scan(m, diag.Nop())
	rec, ok := table.Lookup(m, td.Fields[1].Ref())
	if !ok {
		t.Fatal("unresolvable field must still be recorded")
	}
	if rec.Resolved {
		t.Errorf("expected unresolved record, got value %d", rec.Value)
	}
	if table.ResolvedCount() != 10 {
		t.Errorf("expected 10 resolved fields, got %d", table.ResolvedCount())
	}
}

// TestScan_SkipsStoreWithoutSingletonLoad tests that a store not anchored by
// a singleton-instance load within the backscan window is not recorded.
func TestScan_SkipsStoreWithoutSingletonLoad(t *testing.T) {
	windows := make([][]ir.Instr, 11)
	windows[0] = nil // no singleton load before this store
	for i := 1; i < len(windows); i++ {
		windows[i] = []ir.Instr{ir.Const(int32(i))}
	}
	m, td := predicateModule(t, windows)

	table := Scan(m, diag.Nop())
	if _, ok := table.Lookup(m, td.Fields[1].Ref()); ok {
		t.Error("store without a singleton load must not be recorded")
	}
	if table.Len() != 10 {
		t.Errorf("expected 10 recorded fields, got %d", table.Len())
	}
}

// TestScan_IgnoresNonSyntheticTypes tests that ordinarily named types are
// never treated as predicate holders.
func TestScan_IgnoresNonSyntheticTypes(t *testing.T) {
	windows := make([][]ir.Instr, 11)
	for i := range windows {
		windows[i] = []ir.Instr{ir.Const(int32(i))}
	}
	m, td := predicateModule(t, windows)
	td.Name = "Config"
	for _, f := range td.Fields {
		if f.Static {
			f.Type = td.Name
		}
	}
	m.Index()

	if table := Scan(m, diag.Nop()); table.Len() != 0 {
		t.Errorf("non-synthetic type must yield no records, got %d", table.Len())
	}
}
