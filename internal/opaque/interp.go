package opaque

import "deflow/internal/ir"

// Eval runs the constant-arithmetic window between a singleton load and a
// field store through a small stack machine and returns the residual value.
// Semantics are 32-bit two's-complement with shift counts masked to 5 bits.
// Opcodes outside the supported set are ignored rather than aborting; a pop
// from an empty stack or a division by zero aborts the whole evaluation and
// yields "no value". Success requires exactly one residual stack value.
func Eval(window []ir.Instr) (int32, bool) {
	var stack []int32

	pop := func() (int32, bool) {
		if len(stack) == 0 {
			return 0, false
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, true
	}

	for i := range window {
		ins := &window[i]
		switch ins.Op {
		case ir.OpLoadConst:
			stack = append(stack, ins.Value)

		case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpShl, ir.OpShr:
			right, ok := pop()
			if !ok {
				return 0, false
			}
			left, ok := pop()
			if !ok {
				return 0, false
			}
			v, ok := binop(ins.Op, left, right)
			if !ok {
				return 0, false
			}
			stack = append(stack, v)

		case ir.OpNeg, ir.OpNot:
			v, ok := pop()
			if !ok {
				return 0, false
			}
			if ins.Op == ir.OpNeg {
				v = -v
			} else {
				v = ^v
			}
			stack = append(stack, v)

		default:
			// Unsupported opcodes are treated as no-ops so one stray
			// instruction inside the window does not discard the field.
		}
	}

	if len(stack) != 1 {
		return 0, false
	}
	return stack[0], true
}

func binop(op ir.Opcode, left, right int32) (int32, bool) {
	switch op {
	case ir.OpAdd:
		return left + right, true
	case ir.OpSub:
		return left - right, true
	case ir.OpMul:
		return left * right, true
	case ir.OpDiv:
		if right == 0 {
			return 0, false
		}
		return left / right, true
	case ir.OpAnd:
		return left & right, true
	case ir.OpOr:
		return left | right, true
	case ir.OpXor:
		return left ^ right, true
	case ir.OpShl:
		return left << (uint32(right) & 31), true
	case ir.OpShr:
		return left >> (uint32(right) & 31), true
	}
	return 0, false
}
