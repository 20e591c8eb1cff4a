package verify

import (
	"testing"

	"seraphim/internal/ir"
	"seraphim/internal/types"
)

func simpleFunction() (*ir.Module, *ir.Builder, *ir.Function) {
	m := ir.NewModule("test")
	fn := ir.NewFunction("f", nil, types.I32T(), 0)
	m.AddFunction(fn)
	b := ir.NewBuilder(m)
	b.SetFunction(fn)
	return m, b, fn
}

// I1 — every block in every function ends in a terminator.
func TestTerminatedBlockPasses(t *testing.T) {
	_, b, fn := simpleFunction()
	entry := fn.NewBlock()
	b.Position(entry)
	v := b.Const.Int(types.I32T(), 7)
	b.BuildReturn(v)

	if err := Function(fn); err != nil {
		t.Fatalf("expected valid function to verify, got %v", err)
	}
}

func TestMissingTerminatorFails(t *testing.T) {
	_, b, fn := simpleFunction()
	entry := fn.NewBlock()
	b.Position(entry)
	b.Const.Int(types.I32T(), 7) // never appended as an instruction, block stays empty

	if err := Function(fn); err == nil {
		t.Fatal("expected error for block with no instructions")
	}
}

func TestNonTerminatorLastInstructionFails(t *testing.T) {
	_, b, fn := simpleFunction()
	entry := fn.NewBlock()
	b.Position(entry)
	lhs := b.Const.Int(types.I32T(), 1)
	rhs := b.Const.Int(types.I32T(), 2)
	b.BuildAdd(lhs, rhs) // block ends on `add`, not a terminator

	if err := Function(fn); err == nil {
		t.Fatal("expected error: block does not end in a terminator")
	}
}

func TestNoBlocksFails(t *testing.T) {
	_, _, fn := simpleFunction()
	if err := Function(fn); err == nil {
		t.Fatal("expected error for function with zero blocks")
	}
}

func TestUnbalancedSubstrateFails(t *testing.T) {
	_, b, fn := simpleFunction()
	entry := fn.NewBlock()
	b.Position(entry)
	ctx := b.Const.Int(types.I64T(), 0)
	b.BuildSubstrateEnter(ctx)
	// no matching exit
	v := b.Const.Int(types.I32T(), 0)
	b.BuildReturn(v)

	if err := Function(fn); err == nil {
		t.Fatal("expected error for unbalanced substrate.enter")
	}
}

func TestBalancedAtlasPasses(t *testing.T) {
	_, b, fn := simpleFunction()
	entry := fn.NewBlock()
	b.Position(entry)
	tx := b.BuildAtlasBegin()
	b.BuildAtlasCommit(tx)
	v := b.Const.Int(types.I32T(), 0)
	b.BuildReturn(v)

	if err := Function(fn); err != nil {
		t.Fatalf("expected balanced atlas begin/commit to verify, got %v", err)
	}
}

func TestDanglingBranchTargetFails(t *testing.T) {
	_, b, fn := simpleFunction()
	entry := fn.NewBlock()
	b.Position(entry)
	cond := b.Const.Bool(true)
	b.BuildBranch(cond, ir.BlockID(5), ir.BlockID(6)) // no such blocks exist

	if err := Function(fn); err == nil {
		t.Fatal("expected error for dangling branch targets")
	}
}
