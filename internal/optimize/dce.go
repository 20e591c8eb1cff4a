package optimize

import "seraphim/internal/ir"

// EliminateDeadCode implements the conservative mark-and-sweep from
// §4.4: seed the live set from every side-effecting instruction's
// operands, iterate to a fixed point, then sweep every instruction
// whose result is unused and which has no side effect to `nop`.
func EliminateDeadCode(fn *ir.Function) {
	live := make(map[*ir.Value]bool)
	defOf := make(map[*ir.Value]*ir.Instruction)

	var allInstrs []*ir.Instruction
	for _, b := range fn.Blocks {
		for i := b.First; i != nil; i = i.Next {
			allInstrs = append(allInstrs, i)
			if i.Result != nil {
				defOf[i.Result] = i
			}
		}
	}

	// Step 1: seed.
	markSideEffecting := func(i *ir.Instruction) bool {
		return i.Effects != 0 || i.Opcode.HasSideEffect()
	}
	for _, i := range allInstrs {
		if markSideEffecting(i) {
			for _, op := range i.Operands {
				live[op] = true
			}
		}
	}

	// Step 2: fixed point — while any operand of a live-result
	// instruction is not yet marked, mark it.
	changed := true
	for changed {
		changed = false
		for _, i := range allInstrs {
			if i.Result == nil || !live[i.Result] {
				continue
			}
			for _, op := range i.Operands {
				if !live[op] {
					live[op] = true
					changed = true
				}
			}
		}
	}

	// Step 3: sweep.
	for _, i := range allInstrs {
		if i.Result == nil {
			continue
		}
		if markSideEffecting(i) {
			continue
		}
		if live[i.Result] {
			continue
		}
		i.Opcode = ir.OpNop
		i.Operands = nil
	}
}
