package deob

import (
	"deflow/internal/ir"
	"deflow/internal/meta"
	"deflow/internal/opaque"
)

// Folder recognizes instruction sequences that produce a compile-time
// constant: literal loads and the three load shapes of a resolved
// opaque-predicate field (direct field load, field-address then indirect
// load, and a getter call whose body is exactly load-field-then-return).
type Folder struct {
	mod   *meta.Module
	table *opaque.Table
}

// NewFolder builds a folder over a module and its opaque-field table.
func NewFolder(mod *meta.Module, table *opaque.Table) *Folder {
	return &Folder{mod: mod, table: table}
}

// Fold attempts to fold the sequence starting at instrs[i] to a constant.
// On success it returns the value and the number of instructions consumed.
// Unresolvable references are "no information": the fold simply does not
// fire.
func (f *Folder) Fold(instrs []ir.Instr, i int) (int32, int, bool) {
	ins := &instrs[i]
	switch ins.Op {
	case ir.OpLoadConst:
		return ins.Value, 1, true

	case ir.OpLoadStaticField:
		// Instance shapes on a singleton: the static load pushes the
		// instance, the following instruction(s) read the predicate field.
		if i+1 < len(instrs) {
			next := &instrs[i+1]
			switch next.Op {
			case ir.OpLoadField:
				if v, ok := f.fieldValue(next.Ref); ok {
					return v, 2, true
				}
			case ir.OpLoadFieldAddr:
				if i+2 < len(instrs) && instrs[i+2].Op == ir.OpLoadIndirect {
					if v, ok := f.fieldValue(next.Ref); ok {
						return v, 3, true
					}
				}
			case ir.OpCall:
				if v, ok := f.getterValue(next.Ref, 1); ok {
					return v, 2, true
				}
			}
		}
		// A static predicate field loaded directly.
		if v, ok := f.fieldValue(ins.Ref); ok {
			return v, 1, true
		}

	case ir.OpCall:
		if v, ok := f.getterValue(ins.Ref, 0); ok {
			return v, 1, true
		}
	}
	return 0, 0, false
}

func (f *Folder) fieldValue(ref ir.Ref) (int32, bool) {
	rec, ok := f.table.Lookup(f.mod, ref)
	if !ok || !rec.Resolved {
		return 0, false
	}
	return rec.Value, true
}

// getterValue folds a call to a getter with the given argument count whose
// body is exactly a load of a resolved predicate field followed by return.
func (f *Folder) getterValue(ref ir.Ref, args int) (int32, bool) {
	fn, ok := f.mod.ResolveMethod(ref)
	if !ok || fn.Body == nil || fn.ArgCount() != args {
		return 0, false
	}
	instrs := fn.Body.Instrs
	switch args {
	case 0:
		if len(instrs) == 2 &&
			instrs[0].Op == ir.OpLoadStaticField &&
			instrs[1].Op == ir.OpReturn {
			return f.fieldValue(instrs[0].Ref)
		}
	case 1:
		if len(instrs) == 3 &&
			instrs[0].Op == ir.OpLoadArg && instrs[0].Slot == 0 &&
			instrs[1].Op == ir.OpLoadField &&
			instrs[2].Op == ir.OpReturn {
			return f.fieldValue(instrs[1].Ref)
		}
	}
	return 0, false
}
