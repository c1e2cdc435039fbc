package deob

import (
	"deflow/internal/cfg"
	"deflow/internal/ir"
)

// OptimizeBlock is the per-block optimize entry point. The host invokes it
// repeatedly across a method's blocks until no pass reports a change;
// whole-method analysis runs only after that fixed point. Currently the
// only block-level pass is opaque-load inlining.
func (c *Context) OptimizeBlock(b *cfg.Block) bool {
	return c.inlineOpaqueLoads(b)
}

// inlineOpaqueLoads replaces every load shape of a resolved opaque field
// with a literal constant load. Running this before graph analysis exposes
// the folded constants to the propagator.
func (c *Context) inlineOpaqueLoads(b *cfg.Block) bool {
	changed := false
	for i := 0; i < len(b.Instrs); i++ {
		if b.Instrs[i].Op == ir.OpLoadConst {
			continue
		}
		v, n, ok := c.folder.Fold(b.Instrs, i)
		if !ok {
			continue
		}
		rest := b.Instrs[i+n:]
		b.Instrs = append(b.Instrs[:i], ir.Const(v))
		b.Instrs = append(b.Instrs, rest...)
		c.NumReplaced++
		changed = true
	}
	return changed
}
