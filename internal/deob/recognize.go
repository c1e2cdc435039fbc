package deob

import (
	"deflow/internal/cfg"
	"deflow/internal/ir"
)

// SentinelValue is the reserved constant the obfuscator compares against to
// fabricate an unreachable "early success" edge.
const SentinelValue int32 = 992

// DecoyKind is a closed tagged variant over the decoy shapes the rewriter
// knows how to route around. The rewriter switches exhaustively over it.
type DecoyKind uint8

const (
	// DecoyConstCompare is a branch on a local restricted to constants that
	// the compared constant fully determines.
	DecoyConstCompare DecoyKind = iota
	// DecoyDispatch is a multi-way dispatch keyed by a synthetic state
	// variable with exactly one live target.
	DecoyDispatch
	// DecoySentinelCompare is a constant compare against SentinelValue.
	DecoySentinelCompare
	// DecoyInitNoop is a block that only feeds constants into dispatch
	// variables no surviving block reads.
	DecoyInitNoop
)

func (k DecoyKind) String() string {
	switch k {
	case DecoyConstCompare:
		return "constant-compare"
	case DecoyDispatch:
		return "dispatch-switch"
	case DecoySentinelCompare:
		return "sentinel-compare"
	case DecoyInitNoop:
		return "init-noop"
	default:
		return "decoy?"
	}
}

// Decoy tags one block transiently during a pass, carrying the successor
// execution will actually take. Not persisted; recomputed every pass.
type Decoy struct {
	Kind      DecoyKind
	Block     cfg.BlockID
	Successor cfg.BlockID
}

// Recognize classifies decoy blocks given each block's propagated entry
// state. Blocks the propagation never reached are skipped.
func Recognize(g *cfg.Graph, entry []LocalState, f *Folder) []Decoy {
	var decoys []Decoy
	for i := range g.Blocks {
		id := cfg.BlockID(i) //nolint:gosec // G115: bounded by block count
		if entry[i] == nil {
			continue
		}
		if d, ok := recognizeCompare(g, id, entry[i], f); ok {
			decoys = append(decoys, d)
			continue
		}
		if d, ok := recognizeDispatch(g, id, entry[i], f); ok {
			decoys = append(decoys, d)
		}
	}
	return decoys
}

// recognizeCompare matches a block ending in
//
//	ldloc n; ldc c; beq T    (or bne)
//
// where slot n is restricted to a constant set that decides the branch: the
// set entirely equal to c takes the equality edge, the set entirely
// different takes the inequality edge, and a mixed set disqualifies the
// block. A compare against SentinelValue classifies as a sentinel return
// compare but rewrites identically.
func recognizeCompare(g *cfg.Graph, id cfg.BlockID, entry LocalState, f *Folder) (Decoy, bool) {
	b := g.Block(id)
	n := len(b.Instrs)
	if n < 3 || len(b.Targets) != 1 || b.FallThrough == cfg.NoBlockID {
		return Decoy{}, false
	}
	branch := &b.Instrs[n-1]
	if branch.Op != ir.OpBrEq && branch.Op != ir.OpBrNeq {
		return Decoy{}, false
	}
	konst := &b.Instrs[n-2]
	local := &b.Instrs[n-3]
	if konst.Op != ir.OpLoadConst || local.Op != ir.OpLoadLocal {
		return Decoy{}, false
	}
	// The rewrite clears the whole block; a prefix with an observable
	// effect must keep executing, so such a block is never a decoy.
	if hasEffectfulPrefix(b.Instrs[:n-3]) {
		return Decoy{}, false
	}

	state := entry.clone()
	applyInstrs(state, b.Instrs[:n-3], f)
	set := state[local.Slot]

	var equal bool
	switch {
	case set.AllEqual(konst.Value):
		equal = true
	case set.NoneEqual(konst.Value):
		equal = false
	default:
		return Decoy{}, false
	}

	taken := equal == (branch.Op == ir.OpBrEq)
	succ := b.FallThrough
	if taken {
		succ = b.Targets[0]
	}

	kind := DecoyConstCompare
	if konst.Value == SentinelValue {
		kind = DecoySentinelCompare
	}
	return Decoy{Kind: kind, Block: id, Successor: succ}, true
}

// recognizeDispatch matches a block ending in
//
//	ldloc n; switch [...]
//
// where slot n is a provable singleton, leaving exactly one live target.
func recognizeDispatch(g *cfg.Graph, id cfg.BlockID, entry LocalState, f *Folder) (Decoy, bool) {
	b := g.Block(id)
	n := len(b.Instrs)
	if n < 2 || len(b.Targets) == 0 || b.FallThrough == cfg.NoBlockID {
		return Decoy{}, false
	}
	if b.Instrs[n-1].Op != ir.OpSwitch || b.Instrs[n-2].Op != ir.OpLoadLocal {
		return Decoy{}, false
	}
	if hasEffectfulPrefix(b.Instrs[:n-2]) {
		return Decoy{}, false
	}

	state := entry.clone()
	applyInstrs(state, b.Instrs[:n-2], f)
	v, ok := state[b.Instrs[n-2].Slot].Single()
	if !ok {
		return Decoy{}, false
	}

	succ := b.FallThrough
	if v >= 0 && int(v) < len(b.Targets) {
		succ = b.Targets[v]
	}
	return Decoy{Kind: DecoyDispatch, Block: id, Successor: succ}, true
}

// RecognizeInitNoops finds blocks that consist solely of constant stores to
// local slots no reachable block loads any more, with a single outgoing
// edge. These are the dead feeds of the dispatch variables once the decoys
// themselves have been cleared.
func RecognizeInitNoops(g *cfg.Graph) []Decoy {
	reach := cfg.Reachable(g)

	loaded := make(map[int32]bool)
	for i := range g.Blocks {
		if !reach[i] {
			continue
		}
		for j := range g.Blocks[i].Instrs {
			if g.Blocks[i].Instrs[j].Op == ir.OpLoadLocal {
				loaded[g.Blocks[i].Instrs[j].Slot] = true
			}
		}
	}

	var decoys []Decoy
	for i := range g.Blocks {
		id := cfg.BlockID(i) //nolint:gosec // G115: bounded by block count
		if !reach[i] || id == g.Entry() {
			continue
		}
		if succ, ok := initNoopSuccessor(g.Block(id), loaded); ok {
			decoys = append(decoys, Decoy{Kind: DecoyInitNoop, Block: id, Successor: succ})
		}
	}
	return decoys
}

func hasEffectfulPrefix(instrs []ir.Instr) bool {
	for i := range instrs {
		if instrs[i].Op.IsEffectful() {
			return true
		}
	}
	return false
}

func initNoopSuccessor(b *cfg.Block, loaded map[int32]bool) (cfg.BlockID, bool) {
	if len(b.Instrs) == 0 || b.OutDegree() != 1 {
		return cfg.NoBlockID, false
	}
	succ := b.FallThrough
	instrs := b.Instrs
	if last := b.Last(); last.Op == ir.OpBr {
		succ = b.Targets[0]
		instrs = instrs[:len(instrs)-1]
	}
	if len(instrs) == 0 || len(instrs)%2 != 0 {
		return cfg.NoBlockID, false
	}
	for i := 0; i < len(instrs); i += 2 {
		if instrs[i].Op != ir.OpLoadConst || instrs[i+1].Op != ir.OpStoreLocal {
			return cfg.NoBlockID, false
		}
		if loaded[instrs[i+1].Slot] {
			return cfg.NoBlockID, false
		}
	}
	return succ, true
}
