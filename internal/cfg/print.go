package cfg

import (
	"fmt"
	"io"
	"strings"

	"deflow/internal/ir"
)

// Dump writes a human-readable representation of the graph.
func Dump(w io.Writer, g *Graph) error {
	if w == nil || g == nil {
		return nil
	}
	facts := Analyze(g)
	for i := range g.Blocks {
		b := &g.Blocks[i]
		marks := make([]string, 0, 2)
		if !facts[i].Reachable {
			marks = append(marks, "unreachable")
		}
		if facts[i].Empty {
			marks = append(marks, "empty")
		}
		suffix := ""
		if len(marks) > 0 {
			suffix = "  ; " + strings.Join(marks, ", ")
		}
		if _, err := fmt.Fprintf(w, "  bb%d:%s\n", i, suffix); err != nil {
			return err
		}
		for j := range b.Instrs {
			if _, err := fmt.Fprintf(w, "    %s\n", formatInstr(&b.Instrs[j])); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "    %s\n", formatEdges(b)); err != nil {
			return err
		}
	}
	for i, h := range g.Handlers {
		if _, err := fmt.Fprintf(w, "  handler %d: try [bb%d, bb%d) handler [bb%d, bb%d) catch %s\n",
			i, h.TryStart, h.TryEnd, h.HandlerStart, h.HandlerEnd, h.CatchType); err != nil {
			return err
		}
	}
	return nil
}

func formatInstr(ins *ir.Instr) string {
	switch ins.Op {
	case ir.OpLoadConst:
		return fmt.Sprintf("%s %d", ins.Op, ins.Value)
	case ir.OpLoadLocal, ir.OpStoreLocal, ir.OpLoadArg:
		return fmt.Sprintf("%s %d", ins.Op, ins.Slot)
	case ir.OpLoadField, ir.OpLoadFieldAddr, ir.OpLoadStaticField, ir.OpLoadStaticFieldAddr,
		ir.OpStoreField, ir.OpStoreStaticField, ir.OpCall, ir.OpNewObject:
		return fmt.Sprintf("%s %s", ins.Op, refString(ins.Ref))
	default:
		return ins.Op.String()
	}
}

func refString(r ir.Ref) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("token:%#x", r.Token)
}

func formatEdges(b *Block) string {
	var sb strings.Builder
	sb.WriteString("->")
	if b.FallThrough != NoBlockID {
		fmt.Fprintf(&sb, " fall bb%d", b.FallThrough)
	}
	if len(b.Targets) > 0 {
		sb.WriteString(" targets [")
		for i, t := range b.Targets {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "bb%d", t)
		}
		sb.WriteString("]")
	}
	if b.OutDegree() == 0 {
		sb.WriteString(" none")
	}
	return sb.String()
}
