package deob

import (
	"fmt"

	"deflow/internal/cfg"
	"deflow/internal/diag"
)

// mergeCap bounds the empty-block merge loop. It is a safety valve against
// empty-block cycles left by a malformed obfuscation pattern, not a
// correctness mechanism; hitting it degrades to partial simplification.
const mergeCap = 10

// Rewrite routes control flow around the recognized decoys: every edge
// pointing at a decoy is redirected to its correct successor, each decoy is
// reduced to an empty block falling through to that successor, dead
// dispatch-variable feeds are cleared the same way, and trivial empty blocks
// are merged to a fixed point. Returns the number of blocks routed around.
func Rewrite(g *cfg.Graph, decoys []Decoy, log *diag.Logger) int {
	if len(decoys) == 0 {
		return 0
	}

	redirects := make(map[cfg.BlockID]cfg.BlockID, len(decoys))
	for _, d := range decoys {
		switch d.Kind {
		case DecoyConstCompare, DecoySentinelCompare, DecoyDispatch, DecoyInitNoop:
			redirects[d.Block] = d.Successor
			log.Detailf("  bb%d: %s -> bb%d", d.Block, d.Kind, d.Successor)
		default:
			// The variant is closed; an unknown kind is a programming error
			// that must not be silently routed.
			panic(fmt.Sprintf("deob: unhandled decoy kind %d", d.Kind))
		}
	}

	g.ApplyRedirects(redirects)
	for _, d := range decoys {
		b := g.Block(d.Block)
		b.Clear()
		// Keep a fall-through so a decoy with no predecessors, the entry
		// block in particular, still resolves to its live successor.
		b.FallThrough = d.Successor
	}
	routed := len(decoys)

	// Clearing the decoys strands the blocks that only seeded their state
	// variables; clear those too, repeating while each round exposes more.
	for round := 0; round < mergeCap; round++ {
		noops := RecognizeInitNoops(g)
		if len(noops) == 0 {
			break
		}
		more := make(map[cfg.BlockID]cfg.BlockID, len(noops))
		for _, d := range noops {
			more[d.Block] = d.Successor
			log.Detailf("  bb%d: %s -> bb%d", d.Block, d.Kind, d.Successor)
		}
		g.ApplyRedirects(more)
		for _, d := range noops {
			b := g.Block(d.Block)
			b.Clear()
			b.FallThrough = d.Successor
		}
		routed += len(noops)
	}

	merge := g.MergeTrivial(mergeCap)
	if merge.CapHit {
		log.Detailf("  empty-block merge hit iteration cap (%d); emitting partial simplification", mergeCap)
	} else if merge.Merged > 0 {
		log.Detailf("  merged %d empty-block edges in %d passes", merge.Merged, merge.Passes)
	}

	return routed
}
