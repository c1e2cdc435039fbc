package cfg

import (
	"fmt"

	"fortio.org/safecast"

	"deflow/internal/ir"
)

// Flatten rebuilds the linear method body from the graph: reachable blocks
// are concatenated in arena order (the resolved entry block first), every
// branch operand is rewritten to the new instruction index of its resolved
// successor's first instruction, and an explicit unconditional branch is
// materialized wherever a block's fall-through is not the next emitted
// block. Exception-handler boundaries are remapped the same way; a boundary
// whose block was emptied resolves to that block's successor rather than
// being dropped.
//
// Cleared decoy blocks contribute no instructions. Flatten fails, leaving
// the caller's body untouched, if any live edge cannot be resolved to an
// emitted block; that is a rewriter bug surfaced by Validate, never a
// degraded output.
func Flatten(g *Graph) (*ir.Body, error) {
	if err := Validate(g); err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}

	resolved := make(map[BlockID]BlockID, len(g.Blocks))
	var resolve func(id BlockID) (BlockID, error)
	resolve = func(id BlockID) (BlockID, error) {
		if r, ok := resolved[id]; ok {
			if r == NoBlockID {
				return NoBlockID, fmt.Errorf("flatten: empty-block cycle through bb%d", id)
			}
			return r, nil
		}
		resolved[id] = NoBlockID // cycle marker
		cur := id
		if g.Block(cur).IsTrivial() {
			next, err := resolve(g.Block(cur).FallThrough)
			if err != nil {
				return NoBlockID, err
			}
			cur = next
		}
		resolved[id] = cur
		return cur, nil
	}

	reach := Reachable(g)
	entry, err := resolve(g.Entry())
	if err != nil {
		return nil, err
	}

	order := make([]BlockID, 0, len(g.Blocks))
	order = append(order, entry)
	for i := range g.Blocks {
		id := BlockID(i) //nolint:gosec // G115: bounded by block count
		if id == entry || !reach[i] || len(g.Blocks[i].Instrs) == 0 {
			continue
		}
		order = append(order, id)
	}

	// Decide where each emitted block starts, accounting for branches that
	// must be materialized when the fall-through is not adjacent.
	needsBr := make([]bool, len(order))
	start := make(map[BlockID]int32, len(order))
	idx := 0
	for k, id := range order {
		start[id] = int32(idx) //nolint:gosec // G115: bounded by instruction count
		b := g.Block(id)
		idx += len(b.Instrs)
		if b.FallThrough != NoBlockID {
			ft, err := resolve(b.FallThrough)
			if err != nil {
				return nil, err
			}
			if k+1 >= len(order) || order[k+1] != ft {
				needsBr[k] = true
				idx++
			}
		}
	}

	label := func(id BlockID) (int32, error) {
		r, err := resolve(id)
		if err != nil {
			return 0, err
		}
		s, ok := start[r]
		if !ok {
			return 0, fmt.Errorf("flatten: edge to unemitted block bb%d", r)
		}
		return s, nil
	}

	out := &ir.Body{
		Instrs: make([]ir.Instr, 0, idx),
		Locals: g.Locals,
	}
	for k, id := range order {
		b := g.Block(id)
		for i := range b.Instrs {
			ins := b.Instrs[i]
			if i == len(b.Instrs)-1 && ins.Op.IsBranch() {
				targets := make([]int32, len(b.Targets))
				for j, t := range b.Targets {
					lbl, err := label(t)
					if err != nil {
						return nil, err
					}
					targets[j] = lbl
				}
				ins.Targets = targets
			}
			out.Instrs = append(out.Instrs, ins)
		}
		if needsBr[k] {
			lbl, err := label(b.FallThrough)
			if err != nil {
				return nil, err
			}
			out.Instrs = append(out.Instrs, ir.Branch(ir.OpBr, lbl))
		}
	}

	total, err := safecast.Conv[int32](len(out.Instrs))
	if err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}
	for _, h := range g.Handlers {
		boundary := func(id BlockID) (int32, error) {
			if id == NoBlockID {
				return total, nil
			}
			return label(id)
		}
		tryStart, err := boundary(h.TryStart)
		if err != nil {
			return nil, err
		}
		tryEnd, err := boundary(h.TryEnd)
		if err != nil {
			return nil, err
		}
		hStart, err := boundary(h.HandlerStart)
		if err != nil {
			return nil, err
		}
		hEnd, err := boundary(h.HandlerEnd)
		if err != nil {
			return nil, err
		}
		out.Handlers = append(out.Handlers, ir.Handler{
			TryStart:     tryStart,
			TryEnd:       tryEnd,
			HandlerStart: hStart,
			HandlerEnd:   hEnd,
			CatchType:    h.CatchType,
		})
	}

	return out, nil
}
