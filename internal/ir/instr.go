package ir

// Ref is an abstract reference to a field, method, or type in the module.
// Token addresses the definition directly; Name is the full name used as a
// fallback when the token does not resolve. Obfuscated modules routinely
// carry references that only resolve by name.
type Ref struct {
	Token uint32
	Name  string
}

// IsZero reports whether the reference is absent.
func (r Ref) IsZero() bool {
	return r.Token == 0 && r.Name == ""
}

// Instr is a single instruction of a method body. Only the operand fields
// meaningful for the opcode are set; Targets holds instruction indices for
// branch opcodes (one for a two-way branch, many for a switch).
type Instr struct {
	Op      Opcode
	Value   int32
	Slot    int32
	Ref     Ref
	Targets []int32
}

// Const builds a load-constant instruction.
func Const(v int32) Instr {
	return Instr{Op: OpLoadConst, Value: v}
}

// Load builds a load-local instruction.
func Load(slot int32) Instr {
	return Instr{Op: OpLoadLocal, Slot: slot}
}

// Store builds a store-local instruction.
func Store(slot int32) Instr {
	return Instr{Op: OpStoreLocal, Slot: slot}
}

// Branch builds a branch instruction targeting an instruction index.
func Branch(op Opcode, target int32) Instr {
	return Instr{Op: op, Targets: []int32{target}}
}
