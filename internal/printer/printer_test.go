package printer

import (
	"strings"
	"testing"

	"seraphim/internal/ir"
	"seraphim/internal/types"
)

// S1 — pure arithmetic fold shape: fn f() -> i32 { return (2 + 3) * 4; }
// printed before folding should show add/mul and a block_0 label.
func TestPrintModuleShape(t *testing.T) {
	m := ir.NewModule("demo")
	fn := ir.NewFunction("f", nil, types.I32T(), 0)
	m.AddFunction(fn)
	b := ir.NewBuilder(m)
	b.SetFunction(fn)
	entry := fn.NewBlock()
	b.Position(entry)

	two := b.Const.Int(types.I32T(), 2)
	three := b.Const.Int(types.I32T(), 3)
	four := b.Const.Int(types.I32T(), 4)
	sum := b.BuildAdd(two, three)
	prod := b.BuildMul(sum, four)
	b.BuildReturn(prod)

	out := New().PrintModule(m)
	if !strings.Contains(out, "; Celestial IR Module: demo") {
		t.Errorf("missing module header:\n%s", out)
	}
	if !strings.Contains(out, "fn f {") {
		t.Errorf("missing function header:\n%s", out)
	}
	if !strings.Contains(out, "block_0:") {
		t.Errorf("missing block label:\n%s", out)
	}
	if !strings.Contains(out, "add") || !strings.Contains(out, "mul") {
		t.Errorf("missing add/mul opcodes:\n%s", out)
	}
	if !strings.Contains(out, "return") {
		t.Errorf("missing return:\n%s", out)
	}
}

func TestPrintModuleBranchTargets(t *testing.T) {
	m := ir.NewModule("demo")
	fn := ir.NewFunction("g", []ir.Param{{Name: "x", Type: types.BoolT()}}, types.I32T(), 0)
	m.AddFunction(fn)
	b := ir.NewBuilder(m)
	b.SetFunction(fn)
	entry := fn.NewBlock()
	thenB := fn.NewBlock()
	elseB := fn.NewBlock()
	b.Position(entry)

	cond := &ir.Value{Kind: ir.ParamKind, Type: types.BoolT()}
	b.BuildBranch(cond, thenB.ID, elseB.ID)

	b.Position(thenB)
	b.BuildReturn(b.Const.Int(types.I32T(), 1))
	b.Position(elseB)
	b.BuildReturn(b.Const.Int(types.I32T(), 0))

	out := New().PrintModule(m)
	if !strings.Contains(out, "branch") || !strings.Contains(out, "-> block_1, block_2") {
		t.Errorf("expected branch with two targets:\n%s", out)
	}
}

func TestPrintLayoutReportStruct(t *testing.T) {
	m := ir.NewModule("demo")
	st := types.NewStruct("Point", []string{"tag", "x"}, []*types.Type{types.U8T(), types.U32T()})
	m.AddNamedType(st)

	out := PrintLayoutReport(m)
	if !strings.Contains(out, "Point") {
		t.Errorf("missing struct name:\n%s", out)
	}
	if !strings.Contains(out, ".tag") || !strings.Contains(out, ".x") {
		t.Errorf("missing field rows:\n%s", out)
	}
}
