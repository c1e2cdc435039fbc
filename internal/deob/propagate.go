package deob

import (
	"deflow/internal/cfg"
	"deflow/internal/ir"
)

// ConstSet is the set of integer constants a local slot is known to
// possibly hold at some program point.
type ConstSet map[int32]struct{}

// AllEqual reports whether the set is non-empty and every member equals v.
func (s ConstSet) AllEqual(v int32) bool {
	if len(s) == 0 {
		return false
	}
	for x := range s {
		if x != v {
			return false
		}
	}
	return true
}

// NoneEqual reports whether the set is non-empty and no member equals v.
func (s ConstSet) NoneEqual(v int32) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[v]
	return !ok
}

// Single returns the sole member of a singleton set.
func (s ConstSet) Single() (int32, bool) {
	if len(s) != 1 {
		return 0, false
	}
	for x := range s {
		return x, true
	}
	return 0, false
}

// LocalState maps local slots to their known constant sets on entry to a
// block. This is a may-analysis used only to identify locals provably
// restricted to a small constant set; stores never kill prior values.
type LocalState map[int32]ConstSet

func (st LocalState) clone() LocalState {
	out := make(LocalState, len(st))
	for slot, set := range st {
		cp := make(ConstSet, len(set))
		for v := range set {
			cp[v] = struct{}{}
		}
		out[slot] = cp
	}
	return out
}

func (st LocalState) add(slot int32, v int32) {
	set, ok := st[slot]
	if !ok {
		set = make(ConstSet)
		st[slot] = set
	}
	set[v] = struct{}{}
}

// mergeFrom unions other into st.
func (st LocalState) mergeFrom(other LocalState) {
	for slot, set := range other {
		for v := range set {
			st.add(slot, v)
		}
	}
}

// applyInstrs runs the transfer function over a straight-line instruction
// run: every constant-producing sequence (literal or folded opaque-field
// load) immediately followed by a store-to-local adds the constant to that
// slot's set.
func applyInstrs(st LocalState, instrs []ir.Instr, f *Folder) {
	for i := 0; i < len(instrs); {
		v, n, ok := f.Fold(instrs, i)
		if ok && i+n < len(instrs) && instrs[i+n].Op == ir.OpStoreLocal {
			st.add(instrs[i+n].Slot, v)
			i += n + 1
			continue
		}
		i++
	}
}

// Propagate runs the forward worklist pass and returns each block's entry
// state; unreached blocks get nil. The entry block starts empty. A block's
// exit state flows unchanged to its fall-through and every branch target;
// pending successors are merged by set union, already-processed successors
// are not re-merged. This is deliberately a single-pass approximation
// sufficient for decoy detection, not a sound fixed-point analysis: the
// targeted obfuscation patterns never require loop-carried constant
// reasoning.
func Propagate(g *cfg.Graph, f *Folder) []LocalState {
	entry := make([]LocalState, len(g.Blocks))
	processed := make([]bool, len(g.Blocks))

	entry[g.Entry()] = LocalState{}
	work := []cfg.BlockID{g.Entry()}

	for len(work) > 0 {
		id := work[0]
		work = work[1:]
		if processed[id] {
			continue
		}
		processed[id] = true

		b := g.Block(id)
		exit := entry[id].clone()
		applyInstrs(exit, b.Instrs, f)

		flow := func(succ cfg.BlockID) {
			if succ == cfg.NoBlockID || !g.Contains(succ) || processed[succ] {
				return
			}
			if entry[succ] == nil {
				entry[succ] = LocalState{}
			}
			entry[succ].mergeFrom(exit)
			work = append(work, succ)
		}
		flow(b.FallThrough)
		for _, t := range b.Targets {
			flow(t)
		}
	}
	return entry
}
