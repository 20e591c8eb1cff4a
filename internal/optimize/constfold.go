// Package optimize implements the two module-level passes from C4:
// constant folding and dead-code elimination. Both operate per
// function and cannot fail: neither returns an error, and no function
// is ever left half rewritten since every mutation here is a local,
// always-valid opcode rewrite to nop.
package optimize

import "seraphim/internal/ir"

// FoldConstants runs the constant-folding peephole over every
// instruction in every block of fn, rewriting foldable instructions to
// `nop` with a Const result in place (§4.4). It never removes an
// instruction — "later passes may rely on linearity".
func FoldConstants(fn *ir.Function) {
	for _, b := range fn.Blocks {
		for i := b.First; i != nil; i = i.Next {
			foldInstruction(i)
		}
	}
}

func foldInstruction(instr *ir.Instruction) {
	if instr.Result == nil {
		return
	}
	switch instr.Opcode {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod,
		ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpShl, ir.OpShr, ir.OpSar:
		foldIntBinary(instr)
	case ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
		foldCompare(instr)
	case ir.OpNeg, ir.OpNot:
		foldUnary(instr)
	}
}

func asConstInt(v *ir.Value) (int64, bool) {
	if v.Kind != ir.ConstKind {
		return 0, false
	}
	return v.IntPayload, true
}

func foldIntBinary(instr *ir.Instruction) {
	if len(instr.Operands) != 2 {
		return
	}
	lhs, rhs := instr.Operands[0], instr.Operands[1]
	l, lok := asConstInt(lhs)
	r, rok := asConstInt(rhs)
	if !lok || !rok {
		return
	}

	switch instr.Opcode {
	case ir.OpDiv, ir.OpMod:
		if r == 0 {
			// "do not fold (preserve runtime VOID semantics)" — §4.4
			return
		}
	case ir.OpShl, ir.OpShr, ir.OpSar:
		if r < 0 {
			// "do not fold" — §4.4
			return
		}
	}

	var result int64
	switch instr.Opcode {
	case ir.OpAdd:
		result = l + r // two's-complement wraparound is Go int64's native behavior
	case ir.OpSub:
		result = l - r
	case ir.OpMul:
		result = l * r
	case ir.OpDiv:
		result = l / r
	case ir.OpMod:
		result = l % r
	case ir.OpAnd:
		result = l & r
	case ir.OpOr:
		result = l | r
	case ir.OpXor:
		result = l ^ r
	case ir.OpShl:
		result = l << uint64(r)
	case ir.OpShr:
		result = int64(uint64(l) >> uint64(r))
	case ir.OpSar:
		result = l >> uint64(r)
	}

	rewriteToConst(instr, result)
}

func foldCompare(instr *ir.Instruction) {
	if len(instr.Operands) != 2 {
		return
	}
	lhs, rhs := instr.Operands[0], instr.Operands[1]
	l, lok := asConstInt(lhs)
	r, rok := asConstInt(rhs)
	if !lok || !rok {
		return
	}

	var result bool
	switch instr.Opcode {
	case ir.OpEq:
		result = l == r
	case ir.OpNe:
		result = l != r
	case ir.OpLt:
		result = l < r
	case ir.OpLe:
		result = l <= r
	case ir.OpGt:
		result = l > r
	case ir.OpGe:
		result = l >= r
	}
	rewriteToConstBool(instr, result)
}

func foldUnary(instr *ir.Instruction) {
	if len(instr.Operands) != 1 {
		return
	}
	v, ok := asConstInt(instr.Operands[0])
	if !ok {
		return
	}
	var result int64
	switch instr.Opcode {
	case ir.OpNeg:
		result = -v
	case ir.OpNot:
		result = ^v
	}
	rewriteToConst(instr, result)
}

// rewriteToConst implements §4.4's "A folded instruction is rewritten
// in place: its result is converted to a Const value holding the new
// constant, and the opcode becomes nop."
func rewriteToConst(instr *ir.Instruction, result int64) {
	instr.Result.Kind = ir.ConstKind
	instr.Result.IntPayload = result
	instr.Result.MayBeVoid = ir.No
	instr.Operands = nil
	instr.Opcode = ir.OpNop
}

func rewriteToConstBool(instr *ir.Instruction, result bool) {
	instr.Result.Kind = ir.ConstKind
	instr.Result.BoolPayload = result
	instr.Result.MayBeVoid = ir.No
	instr.Operands = nil
	instr.Opcode = ir.OpNop
}
