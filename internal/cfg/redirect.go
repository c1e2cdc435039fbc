package cfg

// RedirectEdges substitutes to for every edge in the graph equal to from.
func (g *Graph) RedirectEdges(from, to BlockID) {
	for i := range g.Blocks {
		g.Blocks[i].ReplaceEdges(from, to)
	}
}

// ApplyRedirects rewrites every edge through the redirect map, following
// chains inside the map to their final target. A cycle inside the map
// leaves the last ID before the repeat, so a malformed pattern cannot make
// this loop forever.
func (g *Graph) ApplyRedirects(redirects map[BlockID]BlockID) {
	if len(redirects) == 0 {
		return
	}
	resolve := func(id BlockID) BlockID {
		seen := map[BlockID]bool{}
		for {
			next, ok := redirects[id]
			if !ok || seen[id] {
				return id
			}
			seen[id] = true
			id = next
		}
	}
	for i := range g.Blocks {
		b := &g.Blocks[i]
		if b.FallThrough != NoBlockID {
			b.FallThrough = resolve(b.FallThrough)
		}
		for j := range b.Targets {
			b.Targets[j] = resolve(b.Targets[j])
		}
	}
	for i := range g.Handlers {
		h := &g.Handlers[i]
		if h.TryStart != NoBlockID {
			h.TryStart = resolve(h.TryStart)
		}
		if h.TryEnd != NoBlockID {
			h.TryEnd = resolve(h.TryEnd)
		}
		if h.HandlerStart != NoBlockID {
			h.HandlerStart = resolve(h.HandlerStart)
		}
		if h.HandlerEnd != NoBlockID {
			h.HandlerEnd = resolve(h.HandlerEnd)
		}
	}
}

// MergeResult reports what a MergeTrivial run did.
type MergeResult struct {
	Merged int
	Passes int
	CapHit bool
}

// MergeTrivial retargets every edge pointing at a non-entry block with zero
// instructions and a single fall-through edge to that block's successor,
// repeating until a fixed point. The iteration cap is a safety valve
// against empty-block cycles a malformed obfuscation pattern could leave
// behind, not a correctness mechanism; hitting it means the method is
// emitted with whatever partial simplification was achieved.
func (g *Graph) MergeTrivial(maxPasses int) MergeResult {
	var res MergeResult
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for i := range g.Blocks {
			id := BlockID(i) //nolint:gosec // G115: bounded by block count
			b := &g.Blocks[i]
			if id == g.Entry() || !b.IsTrivial() || b.FallThrough == id {
				continue
			}
			succ := b.FallThrough
			for j := range g.Blocks {
				if BlockID(j) == id { //nolint:gosec // G115: bounded by block count
					continue
				}
				other := &g.Blocks[j]
				if other.FallThrough == id || containsID(other.Targets, id) {
					other.ReplaceEdges(id, succ)
					changed = true
					res.Merged++
				}
			}
			for j := range g.Handlers {
				h := &g.Handlers[j]
				if h.TryStart == id || h.TryEnd == id || h.HandlerStart == id || h.HandlerEnd == id {
					replaceHandlerBoundary(h, id, succ)
					changed = true
				}
			}
		}
		res.Passes = pass + 1
		if !changed {
			return res
		}
	}
	res.CapHit = true
	return res
}

func containsID(ids []BlockID, id BlockID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func replaceHandlerBoundary(h *Handler, from, to BlockID) {
	if h.TryStart == from {
		h.TryStart = to
	}
	if h.TryEnd == from {
		h.TryEnd = to
	}
	if h.HandlerStart == from {
		h.HandlerStart = to
	}
	if h.HandlerEnd == from {
		h.HandlerEnd = to
	}
}
