package cfg_test

import (
	"testing"

	"deflow/internal/cfg"
	"deflow/internal/ir"
)

// TestAnalyze_Unreachable tests that blocks with no path from the entry are
// reported unreachable and everything on a path is reported reachable.
func TestAnalyze_Unreachable(t *testing.T) {
	g := &cfg.Graph{
		Blocks: []cfg.Block{
			{ // bb0: entry, branches to bb2
				Instrs:      []ir.Instr{ir.Load(0), ir.Const(1), ir.Branch(ir.OpBrEq, 0)},
				FallThrough: 1,
				Targets:     []cfg.BlockID{2},
			},
			{ // bb1: fall-through arm
				Instrs:      []ir.Instr{{Op: ir.OpReturn}},
				FallThrough: cfg.NoBlockID,
			},
			{ // bb2: taken arm
				Instrs:      []ir.Instr{{Op: ir.OpReturn}},
				FallThrough: cfg.NoBlockID,
			},
			{ // bb3: orphan
				Instrs:      []ir.Instr{{Op: ir.OpReturn}},
				FallThrough: cfg.NoBlockID,
			},
		},
	}

	facts := cfg.Analyze(g)
	for i, want := range []bool{true, true, true, false} {
		if facts[i].Reachable != want {
			t.Errorf("bb%d: reachable=%v, want %v", i, facts[i].Reachable, want)
		}
	}
}

// TestAnalyze_HandlerRoots tests that exception-handler entries count as
// reachability roots even with no explicit in-edge.
func TestAnalyze_HandlerRoots(t *testing.T) {
	g := &cfg.Graph{
		Blocks: []cfg.Block{
			{ // bb0: try body, jumps over the catch
				Instrs:      []ir.Instr{ir.Const(1), ir.Branch(ir.OpBr, 0)},
				FallThrough: cfg.NoBlockID,
				Targets:     []cfg.BlockID{2},
			},
			{ // bb1: catch body, entered only by exception dispatch
				Instrs:      []ir.Instr{{Op: ir.OpPop}},
				FallThrough: 2,
			},
			{ // bb2: shared tail
				Instrs:      []ir.Instr{{Op: ir.OpReturn}},
				FallThrough: cfg.NoBlockID,
			},
		},
		Handlers: []cfg.Handler{
			{TryStart: 0, TryEnd: 1, HandlerStart: 1, HandlerEnd: 2, CatchType: "Exception"},
		},
	}

	facts := cfg.Analyze(g)
	if !facts[1].Reachable {
		t.Error("catch body must be reachable through the handler root")
	}
}

// TestAnalyze_EmptyClassification tests the observable-effect test: a block
// is non-empty iff it stores to a field, calls, constructs, returns, or throws.
func TestAnalyze_EmptyClassification(t *testing.T) {
	g := &cfg.Graph{
		Blocks: []cfg.Block{
			{ // bb0: loads only, empty
				Instrs:      []ir.Instr{ir.Load(0), ir.Const(3), {Op: ir.OpAdd}, ir.Store(1)},
				FallThrough: 1,
			},
			{ // bb1: field store, non-empty
				Instrs:      []ir.Instr{ir.Const(1), {Op: ir.OpStoreStaticField, Ref: ir.Ref{Name: "T::f"}}},
				FallThrough: 2,
			},
			{ // bb2: call, non-empty
				Instrs:      []ir.Instr{{Op: ir.OpCall, Ref: ir.Ref{Name: "T::m"}}},
				FallThrough: 3,
			},
			{ // bb3: return, non-empty
				Instrs:      []ir.Instr{{Op: ir.OpReturn}},
				FallThrough: cfg.NoBlockID,
			},
		},
	}

	facts := cfg.Analyze(g)
	for i, wantEmpty := range []bool{true, false, false, false} {
		if facts[i].Empty != wantEmpty {
			t.Errorf("bb%d: empty=%v, want %v", i, facts[i].Empty, wantEmpty)
		}
	}
}
