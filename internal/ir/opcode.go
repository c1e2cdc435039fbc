package ir

// Opcode enumerates the instruction set of a compiled method body.
// The model is a 32-bit stack machine: values are pushed, operators pop
// their operands, branches consume the comparison operands they test.
type Opcode uint8

const (
	// OpNop does nothing.
	OpNop Opcode = iota
	// OpLoadConst pushes a 32-bit integer constant.
	OpLoadConst
	// OpLoadLocal pushes the value of a local slot.
	OpLoadLocal
	// OpStoreLocal pops a value into a local slot.
	OpStoreLocal
	// OpLoadArg pushes the value of an argument slot.
	OpLoadArg
	// OpDup duplicates the top of the stack.
	OpDup
	// OpPop discards the top of the stack.
	OpPop
	// OpLoadField pops an object and pushes one of its fields.
	OpLoadField
	// OpLoadFieldAddr pops an object and pushes the address of one of its fields.
	OpLoadFieldAddr
	// OpLoadStaticField pushes the value of a static field.
	OpLoadStaticField
	// OpLoadStaticFieldAddr pushes the address of a static field.
	OpLoadStaticFieldAddr
	// OpLoadIndirect pops an address and pushes the value it points at.
	OpLoadIndirect
	// OpStoreField pops a value and an object and stores into an instance field.
	OpStoreField
	// OpStoreStaticField pops a value into a static field.
	OpStoreStaticField
	// OpCall invokes the referenced method.
	OpCall
	// OpNewObject constructs an instance of the referenced type.
	OpNewObject
	// OpAdd pops two values and pushes their sum.
	OpAdd
	// OpSub pops two values and pushes their difference.
	OpSub
	// OpMul pops two values and pushes their product.
	OpMul
	// OpDiv pops two values and pushes their quotient.
	OpDiv
	// OpAnd pops two values and pushes their bitwise conjunction.
	OpAnd
	// OpOr pops two values and pushes their bitwise disjunction.
	OpOr
	// OpXor pops two values and pushes their bitwise exclusive-or.
	OpXor
	// OpShl pops a count and a value and pushes the left shift.
	OpShl
	// OpShr pops a count and a value and pushes the arithmetic right shift.
	OpShr
	// OpNeg pops a value and pushes its negation.
	OpNeg
	// OpNot pops a value and pushes its bitwise complement.
	OpNot
	// OpBr branches unconditionally.
	OpBr
	// OpBrEq pops two values and branches when they are equal.
	OpBrEq
	// OpBrNeq pops two values and branches when they differ.
	OpBrNeq
	// OpBrTrue pops a value and branches when it is non-zero.
	OpBrTrue
	// OpBrFalse pops a value and branches when it is zero.
	OpBrFalse
	// OpSwitch pops an index and branches to the matching target,
	// falling through when the index is out of range.
	OpSwitch
	// OpReturn returns from the method.
	OpReturn
	// OpThrow raises the popped exception object.
	OpThrow
)

var opcodeNames = [...]string{
	OpNop:                 "nop",
	OpLoadConst:           "ldc",
	OpLoadLocal:           "ldloc",
	OpStoreLocal:          "stloc",
	OpLoadArg:             "ldarg",
	OpDup:                 "dup",
	OpPop:                 "pop",
	OpLoadField:           "ldfld",
	OpLoadFieldAddr:       "ldflda",
	OpLoadStaticField:     "ldsfld",
	OpLoadStaticFieldAddr: "ldsflda",
	OpLoadIndirect:        "ldind",
	OpStoreField:          "stfld",
	OpStoreStaticField:    "stsfld",
	OpCall:                "call",
	OpNewObject:           "newobj",
	OpAdd:                 "add",
	OpSub:                 "sub",
	OpMul:                 "mul",
	OpDiv:                 "div",
	OpAnd:                 "and",
	OpOr:                  "or",
	OpXor:                 "xor",
	OpShl:                 "shl",
	OpShr:                 "shr",
	OpNeg:                 "neg",
	OpNot:                 "not",
	OpBr:                  "br",
	OpBrEq:                "beq",
	OpBrNeq:               "bne",
	OpBrTrue:              "brtrue",
	OpBrFalse:             "brfalse",
	OpSwitch:              "switch",
	OpReturn:              "ret",
	OpThrow:               "throw",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "op?"
}

// IsBranch reports whether the opcode transfers control to an explicit target.
func (op Opcode) IsBranch() bool {
	switch op {
	case OpBr, OpBrEq, OpBrNeq, OpBrTrue, OpBrFalse, OpSwitch:
		return true
	}
	return false
}

// IsConditionalBranch reports whether the opcode may either branch or fall through.
func (op Opcode) IsConditionalBranch() bool {
	switch op {
	case OpBrEq, OpBrNeq, OpBrTrue, OpBrFalse, OpSwitch:
		return true
	}
	return false
}

// FallsThrough reports whether control may continue to the next instruction.
func (op Opcode) FallsThrough() bool {
	switch op {
	case OpBr, OpReturn, OpThrow:
		return false
	}
	return true
}

// EndsBlock reports whether the opcode terminates a basic block.
func (op Opcode) EndsBlock() bool {
	return op.IsBranch() || op == OpReturn || op == OpThrow
}

// IsEffectful reports whether the opcode has an observable side effect.
// This is the non-emptiness test used by reachability classification.
func (op Opcode) IsEffectful() bool {
	switch op {
	case OpStoreField, OpStoreStaticField, OpCall, OpReturn, OpThrow, OpNewObject:
		return true
	}
	return false
}
