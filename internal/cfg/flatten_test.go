package cfg_test

import (
	"testing"

	"deflow/internal/cfg"
	"deflow/internal/ir"
)

// TestFlatten_Roundtrip tests that building and flattening an unmodified
// graph reproduces an equivalent body.
func TestFlatten_Roundtrip(t *testing.T) {
	body := &ir.Body{
		Instrs: []ir.Instr{
			ir.Load(0),
			ir.Const(5),
			ir.Branch(ir.OpBrEq, 5),
			ir.Const(1),
			{Op: ir.OpReturn},
			ir.Const(2),
			{Op: ir.OpReturn},
		},
		Locals: []ir.Local{{Type: "int32", Name: "x"}},
	}

	g, err := cfg.Build(body)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	out, err := cfg.Flatten(g)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	if len(out.Instrs) != len(body.Instrs) {
		t.Fatalf("expected %d instructions, got %d", len(body.Instrs), len(out.Instrs))
	}
	for i := range out.Instrs {
		if out.Instrs[i].Op != body.Instrs[i].Op {
			t.Errorf("instr %d: op %s, want %s", i, out.Instrs[i].Op, body.Instrs[i].Op)
		}
	}
	if got := out.Instrs[2].Targets[0]; got != 5 {
		t.Errorf("branch target rebuilt to %d, want 5", got)
	}
	if len(out.Locals) != 1 {
		t.Errorf("locals lost in flattening")
	}
}

// TestFlatten_SkipsClearedOrphans tests that a cleared decoy block
// contributes no instructions and its former label resolves away.
func TestFlatten_SkipsClearedOrphans(t *testing.T) {
	g := &cfg.Graph{
		Blocks: []cfg.Block{
			{Instrs: []ir.Instr{ir.Const(7), ir.Store(0)}, FallThrough: 2},
			{}, // cleared orphan: no instructions, no edges
			{Instrs: []ir.Instr{{Op: ir.OpReturn}}, FallThrough: cfg.NoBlockID},
		},
	}

	out, err := cfg.Flatten(g)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	if len(out.Instrs) != 3 {
		t.Fatalf("expected 3 instructions, got %d", len(out.Instrs))
	}
	if out.Instrs[2].Op != ir.OpReturn {
		t.Errorf("expected trailing return, got %s", out.Instrs[2].Op)
	}
}

// TestFlatten_MaterializesBranch tests that a fall-through to a non-adjacent
// block becomes an explicit unconditional branch.
func TestFlatten_MaterializesBranch(t *testing.T) {
	// bb0 branches to bb1 and falls through to bb2; bb1 sits between them
	// in arena order, so the fall-through needs a materialized br.
	g := &cfg.Graph{
		Blocks: []cfg.Block{
			{
				Instrs:      []ir.Instr{ir.Load(0), ir.Const(0), ir.Branch(ir.OpBrEq, 0)},
				FallThrough: 2,
				Targets:     []cfg.BlockID{1},
			},
			{Instrs: []ir.Instr{ir.Const(2), ir.Store(0)}, FallThrough: 2},
			{Instrs: []ir.Instr{{Op: ir.OpReturn}}, FallThrough: cfg.NoBlockID},
		},
	}

	out, err := cfg.Flatten(g)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	// bb0 = 3 instrs; its fall-through bb2 is not adjacent, so a br must
	// follow; bb1 then bb2 are emitted after it.
	if out.Instrs[3].Op != ir.OpBr {
		t.Fatalf("expected materialized br after bb0, got %s", out.Instrs[3].Op)
	}
	brTo := out.Instrs[3].Targets[0]
	if out.Instrs[brTo].Op != ir.OpReturn {
		t.Errorf("materialized br must target the return block, points at %s", out.Instrs[brTo].Op)
	}
	condTo := out.Instrs[2].Targets[0]
	if out.Instrs[condTo].Op != ir.OpLoadConst || out.Instrs[condTo].Value != 2 {
		t.Errorf("conditional branch must target bb1's first instruction")
	}
}

// TestFlatten_RetargetsEmptyHandlerBoundary tests that a handler boundary on
// an emptied block is retargeted to the block's successor, never dropped.
func TestFlatten_RetargetsEmptyHandlerBoundary(t *testing.T) {
	g := &cfg.Graph{
		Blocks: []cfg.Block{
			{Instrs: []ir.Instr{ir.Const(1), ir.Store(0)}, FallThrough: 1},
			{FallThrough: 2}, // trivial block that is also a handler start
			{Instrs: []ir.Instr{ir.Const(2), ir.Store(0)}, FallThrough: 3},
			{Instrs: []ir.Instr{{Op: ir.OpReturn}}, FallThrough: cfg.NoBlockID},
		},
		Handlers: []cfg.Handler{
			{TryStart: 0, TryEnd: 1, HandlerStart: 1, HandlerEnd: cfg.NoBlockID, CatchType: "Exception"},
		},
	}

	out, err := cfg.Flatten(g)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	if len(out.Handlers) != 1 {
		t.Fatalf("handler region dropped")
	}
	h := out.Handlers[0]
	if out.Instrs[h.HandlerStart].Op != ir.OpLoadConst || out.Instrs[h.HandlerStart].Value != 2 {
		t.Errorf("handler start must resolve to the trivial block's successor")
	}
	if h.HandlerEnd != int32(len(out.Instrs)) {
		t.Errorf("open-ended region must end at the instruction count, got %d", h.HandlerEnd)
	}
}

// TestFlatten_EmitsHandlerOnlyBlocks tests that a catch body with no
// explicit in-edge is still emitted: it is entered by exception dispatch,
// not by a branch, and the try block jumps straight over it.
func TestFlatten_EmitsHandlerOnlyBlocks(t *testing.T) {
	// 0: ldc 1    (try start)
	// 1: stloc 0
	// 2: br -> 5  (jumps over the catch body)
	// 3: pop      (catch body, no in-edge)
	// 4: br -> 5
	// 5: ret
	body := &ir.Body{
		Instrs: []ir.Instr{
			ir.Const(1),
			ir.Store(0),
			ir.Branch(ir.OpBr, 5),
			{Op: ir.OpPop},
			ir.Branch(ir.OpBr, 5),
			{Op: ir.OpReturn},
		},
		Handlers: []ir.Handler{
			{TryStart: 0, TryEnd: 3, HandlerStart: 3, HandlerEnd: 5, CatchType: "Exception"},
		},
	}

	g, err := cfg.Build(body)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	out, err := cfg.Flatten(g)
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	if len(out.Instrs) != len(body.Instrs) {
		t.Fatalf("expected %d instructions, got %d", len(body.Instrs), len(out.Instrs))
	}
	h := out.Handlers[0]
	if out.Instrs[h.HandlerStart].Op != ir.OpPop {
		t.Errorf("handler start must point at the catch body, points at %s", out.Instrs[h.HandlerStart].Op)
	}
	if h.TryEnd != h.HandlerStart {
		t.Errorf("try end %d and handler start %d must coincide", h.TryEnd, h.HandlerStart)
	}
	if h.HandlerEnd <= h.HandlerStart {
		t.Errorf("handler region collapsed: [%d, %d)", h.HandlerStart, h.HandlerEnd)
	}
}

// TestFlatten_DanglingEdgeFails tests that an edge to a block outside the
// graph is rejected rather than emitted.
func TestFlatten_DanglingEdgeFails(t *testing.T) {
	g := &cfg.Graph{
		Blocks: []cfg.Block{
			{Instrs: []ir.Instr{ir.Const(1)}, FallThrough: 9},
		},
	}
	if _, err := cfg.Flatten(g); err == nil {
		t.Error("expected error for dangling fall-through edge")
	}
}
