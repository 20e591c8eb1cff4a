package ir

import "seraphim/internal/types"

// Opcode enumerates the Celestial IR instruction set (§3.3), grouped
// the way the grammar lists them.
type Opcode int

const (
	OpNop Opcode = iota

	// arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg

	// bitwise
	OpAnd
	OpOr
	OpXor
	OpNot
	OpShl
	OpShr
	OpSar

	// compare
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// conversion
	OpTrunc
	OpZext
	OpSext
	OpBitcast

	// VOID
	OpVoidTest
	OpVoidProp
	OpVoidAssert
	OpVoidCoalesce

	// capability
	OpCapCreate
	OpCapLoad
	OpCapStore
	OpCapRevoke

	// memory
	OpAlloca
	OpLoad
	OpStore
	OpGep

	// aggregate
	OpExtractField
	OpInsertField
	OpExtractElem
	OpInsertElem

	// substrate
	OpSubstrateEnter
	OpSubstrateExit
	OpAtlasBegin
	OpAtlasCommit
	OpAtlasRollback
	OpAetherSync

	// galactic
	OpGalacticAdd
	OpGalacticMul
	OpGalacticPredict

	// control
	OpJump
	OpBranch
	OpSwitch
	OpCall
	OpCallIndirect
	OpSyscall
	OpReturn
	OpUnreachable
	OpTrap

	// marker
	OpMarkerNop
)

// HasSideEffect reports whether opc belongs to the closed set of
// always-side-effecting opcodes from §4.4, independent of its
// instruction's effect bitmask (an instruction can also be kept live
// purely because effects != 0; that check is in
// optimize.EliminateDeadCode).
func (opc Opcode) HasSideEffect() bool {
	switch opc {
	case OpJump, OpBranch, OpSwitch, OpCall, OpCallIndirect, OpSyscall, OpTrap, OpUnreachable, OpReturn,
		OpStore, OpCapStore, OpCapRevoke,
		OpSubstrateEnter, OpSubstrateExit, OpAtlasBegin, OpAtlasCommit, OpAtlasRollback, OpAetherSync:
		return true
	default:
		return false
	}
}

// IsTerminator reports whether opc may be the last instruction of a
// block (§3.4 — "The last instruction of every block must be a
// terminator").
func (opc Opcode) IsTerminator() bool {
	switch opc {
	case OpJump, OpBranch, OpSwitch, OpReturn, OpUnreachable, OpTrap:
		return true
	default:
		return false
	}
}

var opcodeNames = map[Opcode]string{
	OpNop:             "nop",
	OpAdd:             "add",
	OpSub:             "sub",
	OpMul:             "mul",
	OpDiv:             "div",
	OpMod:             "mod",
	OpNeg:             "neg",
	OpAnd:             "and",
	OpOr:              "or",
	OpXor:             "xor",
	OpNot:             "not",
	OpShl:             "shl",
	OpShr:             "shr",
	OpSar:             "sar",
	OpEq:              "eq",
	OpNe:              "ne",
	OpLt:              "lt",
	OpLe:              "le",
	OpGt:              "gt",
	OpGe:              "ge",
	OpTrunc:           "trunc",
	OpZext:            "zext",
	OpSext:            "sext",
	OpBitcast:         "bitcast",
	OpVoidTest:        "void.test",
	OpVoidProp:        "void.prop",
	OpVoidAssert:      "void.assert",
	OpVoidCoalesce:    "void.coalesce",
	OpCapCreate:       "cap.create",
	OpCapLoad:         "cap.load",
	OpCapStore:        "cap.store",
	OpCapRevoke:       "cap.revoke",
	OpAlloca:          "alloca",
	OpLoad:            "load",
	OpStore:           "store",
	OpGep:             "gep",
	OpExtractField:    "extractfield",
	OpInsertField:     "insertfield",
	OpExtractElem:     "extractelem",
	OpInsertElem:      "insertelem",
	OpSubstrateEnter:  "substrate.enter",
	OpSubstrateExit:   "substrate.exit",
	OpAtlasBegin:      "atlas.begin",
	OpAtlasCommit:     "atlas.commit",
	OpAtlasRollback:   "atlas.rollback",
	OpAetherSync:      "aether.sync",
	OpGalacticAdd:     "galactic.add",
	OpGalacticMul:     "galactic.mul",
	OpGalacticPredict: "galactic.predict",
	OpJump:            "jump",
	OpBranch:          "branch",
	OpSwitch:          "switch",
	OpCall:            "call",
	OpCallIndirect:    "callindirect",
	OpSyscall:         "syscall",
	OpReturn:          "return",
	OpUnreachable:     "unreachable",
	OpTrap:            "trap",
	OpMarkerNop:       "marker.nop",
}

// String renders opc using the grammar's OPCODE terminal (§6.2).
func (opc Opcode) String() string {
	if s, ok := opcodeNames[opc]; ok {
		return s
	}
	return "unknown"
}

// BaseEffects returns the effect bitmask contributed by an opcode on
// its own (§4.2 rule 3), independent of a callee's declared effects
// (which the builder unions in separately for OpCall).
func BaseEffects(opc Opcode) types.Effect {
	switch opc {
	case OpDiv, OpMod:
		return types.EffVoid
	case OpLoad, OpCapLoad:
		return types.EffRead | types.EffVoid
	case OpStore, OpCapStore:
		return types.EffWrite
	case OpAlloca:
		return types.EffAlloc
	case OpAtlasBegin, OpAtlasCommit, OpAtlasRollback:
		return types.EffPersist
	case OpAetherSync, OpSubstrateEnter, OpSubstrateExit:
		return types.EffNetwork
	case OpCallIndirect:
		return types.EffIO | types.EffVoid
	case OpSyscall:
		return types.EffIO
	case OpTrap:
		return types.EffPanic
	case OpCapRevoke:
		return types.EffWrite
	case OpGep, OpCapCreate:
		return types.EffVoid
	case OpVoidAssert:
		return types.EffPanic
	default:
		return 0
	}
}
