package deob

import (
	"fmt"

	"deflow/internal/cfg"
	"deflow/internal/diag"
	"deflow/internal/meta"
)

// blockPassCap bounds the block-level fixed-point loop. The inlining passes
// strictly shrink the instruction stream, so the cap is never reached on
// well-formed input.
const blockPassCap = 100

// Stats summarizes one module's cleaning run.
type Stats struct {
	Methods   int
	Rewritten int
	Failed    int
}

// CleanModule runs the pipeline over every method in the module: the
// block-level optimize loop first, then the whole-method graph pass on
// asynchronous-continuation methods. A failure on one method is logged and
// leaves that method in its last structurally valid state; it never aborts
// the module.
func (c *Context) CleanModule() Stats {
	var stats Stats
	for _, td := range c.Module.Types {
		for _, fn := range td.Methods {
			if fn.Body == nil || len(fn.Body.Instrs) == 0 {
				continue
			}
			stats.Methods++
			rewritten, err := c.cleanMethod(fn)
			if err != nil {
				stats.Failed++
				c.Log.Warnf("%s: %v (method left as-is)", fn.FullName(), err)
				continue
			}
			if rewritten {
				stats.Rewritten++
			}
		}
	}
	c.Log.Summaryf("%s: %d methods, %d rewritten, %d replacements, %d failed",
		c.Module.Name, stats.Methods, stats.Rewritten, c.NumReplaced, stats.Failed)
	return stats
}

// cleanMethod applies the per-block optimize protocol until stable, then the
// whole-method finalize pass. The method body is only replaced by states
// that flattened successfully, so a finalize failure degrades to the
// block-optimized body, never to a partially rewritten one.
func (c *Context) cleanMethod(fn *meta.MethodDef) (bool, error) {
	g, err := cfg.Build(fn.Body)
	if err != nil {
		return false, err
	}

	for pass := 0; pass < blockPassCap; pass++ {
		changed := false
		for i := range g.Blocks {
			if c.OptimizeBlock(&g.Blocks[i]) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	flat, err := cfg.Flatten(g)
	if err != nil {
		return false, err
	}
	fn.Body = flat

	if !EligibleMethod(fn) {
		return false, nil
	}
	return c.finalizeMethod(fn)
}

// finalizeMethod is the whole-method pass: rebuild the graph, analyze
// reachability, propagate constants, recognize decoys, rewrite, and flatten
// back. Run once per method after block-level optimization stabilizes.
func (c *Context) finalizeMethod(fn *meta.MethodDef) (bool, error) {
	g, err := cfg.Build(fn.Body)
	if err != nil {
		return false, fmt.Errorf("finalize: %w", err)
	}

	if c.Log.Enabled(diag.LevelFull) {
		facts := cfg.Analyze(g)
		dead, empty := 0, 0
		for _, f := range facts {
			if !f.Reachable {
				dead++
			}
			if f.Empty {
				empty++
			}
		}
		c.Log.Dumpf("%s: %d blocks (%d unreachable, %d empty)", fn.FullName(), len(g.Blocks), dead, empty)
	}

	states := Propagate(g, c.folder)
	decoys := Recognize(g, states, c.folder)
	if len(decoys) == 0 {
		return false, nil
	}

	c.Log.Detailf("%s: %d decoy blocks", fn.FullName(), len(decoys))
	c.NumReplaced += Rewrite(g, decoys, c.Log)

	out, err := cfg.Flatten(g)
	if err != nil {
		// Leaves the block-optimized body in place; the output stays
		// structurally valid, just less simplified than optimal.
		return false, fmt.Errorf("finalize: %w", err)
	}
	fn.Body = out

	if c.Log.Enabled(diag.LevelFull) {
		c.Log.Dumpf("%s: rewritten graph", fn.FullName())
		if g2, err := cfg.Build(out); err == nil {
			_ = cfg.Dump(c.Log.Writer(), g2)
		}
	}
	return true, nil
}
