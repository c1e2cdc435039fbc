package opaque

import (
	"deflow/internal/diag"
	"deflow/internal/ir"
	"deflow/internal/meta"
)

// Heuristic bounds tuned to the targeted obfuscator's output.
const (
	// backscanWindow is how far behind a field store the scanner looks for
	// the singleton-instance load that anchors the constant expression.
	backscanWindow = 20
	// minPredicateFields is the least number of fields a synthetic type
	// must carry before it is considered a predicate holder.
	minPredicateFields = 3
	// minInitializerStores is the least number of field stores an
	// initializer must contain before it is treated as the predicate
	// initializer.
	minInitializerStores = 10
)

// Record is one opaque-predicate field. Resolved is false when the
// constant interpreter could not fully evaluate the initializer expression;
// such a field stays a candidate predicate but yields no foldable value.
type Record struct {
	Field    *meta.FieldDef
	Resolved bool
	Value    int32
}

// Table holds the module-wide opaque-field records. It is written once by
// Scan and read-only afterwards, so methods may be processed without
// locking.
type Table struct {
	records map[*meta.FieldDef]*Record
}

// Lookup resolves a field reference against the module and returns its
// opaque record, if any.
func (t *Table) Lookup(m *meta.Module, ref ir.Ref) (*Record, bool) {
	if t == nil {
		return nil, false
	}
	f, ok := m.ResolveField(ref)
	if !ok {
		return nil, false
	}
	rec, ok := t.records[f]
	return rec, ok
}

// Len returns the number of recorded fields.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// ResolvedCount returns how many recorded fields carry a value.
func (t *Table) ResolvedCount() int {
	n := 0
	for _, r := range t.records {
		if r.Resolved {
			n++
		}
	}
	return n
}

// Scan inspects module-initialization code once per module and learns which
// integer fields of synthetic singleton types are assigned constants
// exactly there. For each store to an integer field inside a qualifying
// initializer it walks backward up to backscanWindow instructions to the
// singleton-instance load, then evaluates the constant window in between.
// Fields are recorded regardless of evaluation success.
func Scan(m *meta.Module, log *diag.Logger) *Table {
	t := &Table{records: make(map[*meta.FieldDef]*Record)}

	for _, td := range m.Types {
		if !meta.IsSyntheticName(td.Name) || len(td.Fields) < minPredicateFields {
			continue
		}
		singleton := findSingletonField(td)
		if singleton == nil {
			continue
		}
		init := findInitializer(td)
		if init == nil {
			continue
		}
		scanInitializer(m, t, td, singleton, init)
	}

	if log.Enabled(diag.LevelDetail) && t.Len() > 0 {
		log.Detailf("opaque scan: %d predicate fields, %d resolved", t.Len(), t.ResolvedCount())
		if log.Enabled(diag.LevelFull) {
			for f, r := range t.records {
				if r.Resolved {
					log.Dumpf("  %s = %d", f.FullName(), r.Value)
				} else {
					log.Dumpf("  %s = ?", f.FullName())
				}
			}
		}
	}
	return t
}

// findSingletonField locates the static field whose declared type is the
// enclosing type itself.
func findSingletonField(td *meta.TypeDef) *meta.FieldDef {
	for _, f := range td.Fields {
		if f.Static && f.Type == td.Name {
			return f
		}
	}
	return nil
}

// findInitializer picks the type's method with more than
// minInitializerStores store-to-field instructions.
func findInitializer(td *meta.TypeDef) *meta.MethodDef {
	for _, fn := range td.Methods {
		if fn.Body == nil {
			continue
		}
		stores := 0
		for i := range fn.Body.Instrs {
			switch fn.Body.Instrs[i].Op {
			case ir.OpStoreField, ir.OpStoreStaticField:
				stores++
			}
		}
		if stores > minInitializerStores {
			return fn
		}
	}
	return nil
}

func scanInitializer(m *meta.Module, t *Table, td *meta.TypeDef, singleton *meta.FieldDef, init *meta.MethodDef) {
	instrs := init.Body.Instrs
	for i := range instrs {
		if instrs[i].Op != ir.OpStoreField {
			continue
		}
		field, ok := m.ResolveField(instrs[i].Ref)
		if !ok || field.Declaring() != td || !meta.IsIntegerType(field.Type) {
			continue
		}

		loadAt := -1
		for j := i - 1; j >= 0 && i-j <= backscanWindow; j-- {
			ins := &instrs[j]
			if ins.Op != ir.OpLoadStaticField {
				continue
			}
			if sf, ok := m.ResolveField(ins.Ref); ok && sf == singleton {
				loadAt = j
				break
			}
		}
		if loadAt < 0 {
			continue
		}

		rec := &Record{Field: field}
		if v, ok := Eval(instrs[loadAt+1 : i]); ok {
			rec.Resolved = true
			rec.Value = v
		}
		t.records[field] = rec
	}
}
