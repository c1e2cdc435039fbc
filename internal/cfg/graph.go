package cfg

import (
	"fmt"
	"sort"

	"fortio.org/safecast"

	"deflow/internal/ir"
)

// Handler is an exception-handler region expressed over blocks. End
// references are exclusive: NoBlockID means the region runs to the end of
// the method.
type Handler struct {
	TryStart     BlockID
	TryEnd       BlockID
	HandlerStart BlockID
	HandlerEnd   BlockID
	CatchType    string
}

// Graph is a method body partitioned into basic blocks. Blocks live in an
// arena and reference each other by BlockID; the entry block is always
// block 0. Passes mutate blocks in place and the graph is flattened back
// to a linear body once rewriting is done.
type Graph struct {
	Blocks   []Block
	Handlers []Handler
	Locals   []ir.Local
}

// Entry returns the graph's entry block ID.
func (g *Graph) Entry() BlockID { return 0 }

// Contains reports whether id addresses a block in the arena.
func (g *Graph) Contains(id BlockID) bool {
	return id >= 0 && int(id) < len(g.Blocks)
}

// Block returns the block addressed by id. The pointer stays valid for the
// lifetime of the graph; the arena is never reallocated after Build.
func (g *Graph) Block(id BlockID) *Block {
	return &g.Blocks[id]
}

// Build partitions a linear method body into a block graph. Leaders are
// instruction 0, every branch target, the instruction after every
// block-ending instruction, and every exception-handler boundary.
func Build(body *ir.Body) (*Graph, error) {
	n := len(body.Instrs)
	if n == 0 {
		return nil, fmt.Errorf("build graph: empty body")
	}

	leader := make(map[int32]bool, n/2)
	leader[0] = true
	markLeader := func(idx int32, what string) error {
		if idx < 0 || int(idx) > n {
			return fmt.Errorf("build graph: %s index %d out of range [0,%d]", what, idx, n)
		}
		if int(idx) < n {
			leader[idx] = true
		}
		return nil
	}

	for i := range body.Instrs {
		ins := &body.Instrs[i]
		if !ins.Op.IsBranch() {
			continue
		}
		for _, t := range ins.Targets {
			if err := markLeader(t, "branch target"); err != nil {
				return nil, err
			}
		}
	}
	for i := range body.Instrs {
		if body.Instrs[i].Op.EndsBlock() && i+1 < n {
			idx, err := safecast.Conv[int32](i + 1)
			if err != nil {
				return nil, fmt.Errorf("build graph: %w", err)
			}
			leader[idx] = true
		}
	}
	for _, h := range body.Handlers {
		for _, idx := range []int32{h.TryStart, h.TryEnd, h.HandlerStart, h.HandlerEnd} {
			if err := markLeader(idx, "handler boundary"); err != nil {
				return nil, err
			}
		}
	}

	starts := make([]int32, 0, len(leader))
	for idx := range leader {
		starts = append(starts, idx)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	blockAt := make(map[int32]BlockID, len(starts))
	for i, s := range starts {
		blockAt[s] = BlockID(i) //nolint:gosec // G115: bounded by instruction count
	}

	g := &Graph{
		Blocks: make([]Block, len(starts)),
		Locals: body.Locals,
	}

	for i, s := range starts {
		end := int32(n) //nolint:gosec // G115: bounded by instruction count
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		b := &g.Blocks[i]
		b.Instrs = append([]ir.Instr(nil), body.Instrs[s:end]...)
		b.FallThrough = NoBlockID

		last := b.Last()
		if last.Op.IsBranch() {
			b.Targets = make([]BlockID, len(last.Targets))
			for j, t := range last.Targets {
				tb, ok := blockAt[t]
				if !ok {
					return nil, fmt.Errorf("build graph: branch target %d is not a leader", t)
				}
				b.Targets[j] = tb
			}
		}
		if last.Op.FallsThrough() {
			if i+1 < len(starts) {
				b.FallThrough = BlockID(i + 1) //nolint:gosec // G115: bounded by block count
			} else if last.Op.IsConditionalBranch() {
				return nil, fmt.Errorf("build graph: conditional branch at end of body has no fall-through")
			}
		}
	}

	g.Handlers = make([]Handler, len(body.Handlers))
	for i, h := range body.Handlers {
		mapBoundary := func(idx int32) BlockID {
			if int(idx) >= n {
				return NoBlockID // region runs to end of method
			}
			return blockAt[idx]
		}
		g.Handlers[i] = Handler{
			TryStart:     blockAt[h.TryStart],
			TryEnd:       mapBoundary(h.TryEnd),
			HandlerStart: blockAt[h.HandlerStart],
			HandlerEnd:   mapBoundary(h.HandlerEnd),
			CatchType:    h.CatchType,
		}
	}

	return g, nil
}
