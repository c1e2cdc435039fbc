package cfg

import (
	"errors"
	"fmt"
)

// Validate checks the graph's structural invariants. A violation here is a
// rewriter bug, not an input problem: a dangling edge would corrupt the
// emitted method body, so it must never be tolerated silently.
func Validate(g *Graph) error {
	if g == nil || len(g.Blocks) == 0 {
		return fmt.Errorf("graph has no blocks")
	}

	var errs []error
	for i := range g.Blocks {
		b := &g.Blocks[i]
		if b.FallThrough != NoBlockID && !g.Contains(b.FallThrough) {
			errs = append(errs, fmt.Errorf("bb%d: fall-through bb%d outside graph", i, b.FallThrough))
		}
		for j, t := range b.Targets {
			if !g.Contains(t) {
				errs = append(errs, fmt.Errorf("bb%d: target %d (bb%d) outside graph", i, j, t))
			}
		}
		if last := b.Last(); last != nil {
			if last.Op.IsBranch() && len(b.Targets) == 0 {
				errs = append(errs, fmt.Errorf("bb%d: branch instruction with no block targets", i))
			}
			if last.Op.IsConditionalBranch() && b.FallThrough == NoBlockID {
				errs = append(errs, fmt.Errorf("bb%d: conditional branch with no fall-through", i))
			}
		}
		if len(b.Targets) > 0 {
			if last := b.Last(); last == nil || !last.Op.IsBranch() {
				errs = append(errs, fmt.Errorf("bb%d: block targets without a trailing branch", i))
			}
		}
	}

	for i := range g.Handlers {
		h := &g.Handlers[i]
		check := func(id BlockID, what string) {
			if id != NoBlockID && !g.Contains(id) {
				errs = append(errs, fmt.Errorf("handler %d: %s bb%d outside graph", i, what, id))
			}
		}
		check(h.TryStart, "try start")
		check(h.TryEnd, "try end")
		check(h.HandlerStart, "handler start")
		check(h.HandlerEnd, "handler end")
		if h.TryStart == NoBlockID || h.HandlerStart == NoBlockID {
			errs = append(errs, fmt.Errorf("handler %d: missing start boundary", i))
		}
	}

	return errors.Join(errs...)
}
