package cfg

import "deflow/internal/ir"

// BlockID addresses a block inside a Graph's arena. Edges are plain IDs,
// so redirecting every edge that points at a block is a linear scan over
// the arena rather than a pointer chase.
type BlockID int32

// NoBlockID marks an absent edge (no fall-through successor).
const NoBlockID BlockID = -1

// Block is a maximal straight-line instruction run with a single entry,
// at most one fall-through successor, and zero or more explicit branch
// targets. When the last instruction is a branch, Targets mirrors its
// destinations and is the authoritative copy; the instruction operands are
// rebuilt from Targets only when the graph is flattened.
type Block struct {
	Instrs      []ir.Instr
	FallThrough BlockID
	Targets     []BlockID
}

// Last returns the block's final instruction, or nil for an empty block.
func (b *Block) Last() *ir.Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	return &b.Instrs[len(b.Instrs)-1]
}

// OutDegree returns the number of outgoing edges.
func (b *Block) OutDegree() int {
	n := len(b.Targets)
	if b.FallThrough != NoBlockID {
		n++
	}
	return n
}

// IsTrivial reports whether the block holds no instructions and exactly one
// fall-through edge, making it eligible for elision.
func (b *Block) IsTrivial() bool {
	return len(b.Instrs) == 0 && b.FallThrough != NoBlockID && len(b.Targets) == 0
}

// Clear discards the block's instructions and outgoing edges, leaving an
// empty orphan in the arena. The block is not removed; nothing may point
// at it afterwards except through edges the caller has already redirected.
func (b *Block) Clear() {
	b.Instrs = nil
	b.FallThrough = NoBlockID
	b.Targets = nil
}

// ReplaceEdges substitutes to for every outgoing edge equal to from, on
// both the fall-through and each targets entry.
func (b *Block) ReplaceEdges(from, to BlockID) {
	if b.FallThrough == from {
		b.FallThrough = to
	}
	for i := range b.Targets {
		if b.Targets[i] == from {
			b.Targets[i] = to
		}
	}
}
