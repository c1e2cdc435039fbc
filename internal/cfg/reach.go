package cfg

// BlockFacts is the per-block result of reachability analysis. Empty means
// the block contains no instruction with an observable effect (no field
// store, call, return, throw, or object construction); it is diagnostic
// input to later passes, not itself destructive.
type BlockFacts struct {
	Reachable bool
	Empty     bool
}

// Analyze classifies every block by breadth-first traversal, following the
// fall-through edge and every branch target. Roots are the entry block and
// every exception-handler region's try and handler entry: a catch body has
// no explicit in-edge, it is entered by exception dispatch, and must never
// be treated as dead.
func Analyze(g *Graph) []BlockFacts {
	facts := make([]BlockFacts, len(g.Blocks))
	for i := range g.Blocks {
		facts[i].Empty = !hasEffect(&g.Blocks[i])
	}
	if len(g.Blocks) == 0 {
		return facts
	}

	queue := make([]BlockID, 0, len(g.Blocks))
	root := func(id BlockID) {
		if !g.Contains(id) || facts[id].Reachable {
			return
		}
		facts[id].Reachable = true
		queue = append(queue, id)
	}
	root(g.Entry())
	for _, h := range g.Handlers {
		root(h.TryStart)
		root(h.HandlerStart)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		b := g.Block(id)

		visit := func(next BlockID) {
			if !g.Contains(next) || facts[next].Reachable {
				return
			}
			facts[next].Reachable = true
			queue = append(queue, next)
		}
		visit(b.FallThrough)
		for _, t := range b.Targets {
			visit(t)
		}
	}
	return facts
}

func hasEffect(b *Block) bool {
	for i := range b.Instrs {
		if b.Instrs[i].Op.IsEffectful() {
			return true
		}
	}
	return false
}

// Reachable returns just the reachability bits of Analyze.
func Reachable(g *Graph) []bool {
	facts := Analyze(g)
	out := make([]bool, len(facts))
	for i := range facts {
		out[i] = facts[i].Reachable
	}
	return out
}
