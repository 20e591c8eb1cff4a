// Package verify implements the per-function structural verifier
// (C4): every function has at least one block, every block ends in a
// terminator, and substrate enter/exit pairs are balanced (§5:
// "Scoped acquisitions ... are strictly balanced; a dropped or
// mismatched pair is a verifier error").
//
// The verifier is fail-fast (§7): the first failure aborts the pass.
package verify

import (
	"fmt"

	"seraphim/internal/diagnostics"
	"seraphim/internal/ir"
)

// Error is returned by Function/Module on the first verification
// failure.
type Error struct {
	Kind diagnostics.Kind
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

func fail(kind diagnostics.Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Module verifies every function in m, stopping at the first failure.
func Module(m *ir.Module) error {
	for _, fn := range m.Functions {
		if err := Function(fn); err != nil {
			return fmt.Errorf("function %q: %w", fn.Name, err)
		}
	}
	return nil
}

// Function implements I1 plus the block-emptiness and substrate-
// balance checks described in §4.4 and §5.
func Function(fn *ir.Function) error {
	// "function has >= 1 block"
	if len(fn.Blocks) == 0 {
		return fail(diagnostics.MissingTerminator, "function %q has no blocks", fn.Name)
	}

	for _, b := range fn.Blocks {
		if b.First == nil {
			return fail(diagnostics.UnterminatedBlock, "block_%d is empty", b.ID)
		}
		term := b.Terminator()
		if !term.Opcode.IsTerminator() {
			return fail(diagnostics.MissingTerminator,
				"block_%d ends in %v, not a terminator", b.ID, term.Opcode)
		}
		if err := checkTargets(fn, b, term); err != nil {
			return err
		}
	}

	if err := checkSubstrateBalance(fn); err != nil {
		return err
	}

	return nil
}

func checkTargets(fn *ir.Function, b *ir.Block, term *ir.Instruction) error {
	check := func(id ir.BlockID) error {
		if id == ir.InvalidBlock {
			return nil
		}
		if int(id) < 0 || int(id) >= len(fn.Blocks) {
			return fail(diagnostics.MalformedAST, "block_%d: dangling target block_%d", b.ID, id)
		}
		return nil
	}
	if err := check(term.Target1); err != nil {
		return err
	}
	return check(term.Target2)
}

// checkSubstrateBalance walks every instruction stream looking for
// substrate.enter/exit and atlas.begin/commit|rollback that are not
// paired within the function. This is a conservative depth count
// across all of the function's blocks in order, not per control-flow
// path: a full interprocedural analysis is out of scope
// (spec.md §1 Non-goals).
func checkSubstrateBalance(fn *ir.Function) error {
	depth := 0
	atlasDepth := 0
	for _, b := range fn.Blocks {
		for i := b.First; i != nil; i = i.Next {
			switch i.Opcode {
			case ir.OpSubstrateEnter:
				depth++
			case ir.OpSubstrateExit:
				depth--
				if depth < 0 {
					return fail(diagnostics.MalformedAST,
						"function %q: substrate.exit without matching enter", fn.Name)
				}
			case ir.OpAtlasBegin:
				atlasDepth++
			case ir.OpAtlasCommit, ir.OpAtlasRollback:
				atlasDepth--
				if atlasDepth < 0 {
					return fail(diagnostics.MalformedAST,
						"function %q: atlas commit/rollback without matching begin", fn.Name)
				}
			}
		}
	}
	if depth != 0 {
		return fail(diagnostics.MalformedAST, "function %q: unbalanced substrate.enter/exit (depth %d)", fn.Name, depth)
	}
	if atlasDepth != 0 {
		return fail(diagnostics.MalformedAST, "function %q: unbalanced atlas.begin/commit (depth %d)", fn.Name, atlasDepth)
	}
	return nil
}
