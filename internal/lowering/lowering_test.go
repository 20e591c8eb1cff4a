package lowering

import (
	"testing"

	"github.com/kr/pretty"

	"seraphim/internal/ast"
	"seraphim/internal/ir"
	"seraphim/internal/printer"
	"seraphim/internal/types"
	"seraphim/internal/verify"
)

func primType(name string) ast.TypeNode {
	return ast.TypeNode{Kind: ast.TNPrimitive, Name: name}
}

func namedType(name string) ast.TypeNode {
	return ast.TypeNode{Kind: ast.TNNamed, Name: name}
}

func lowerOne(t *testing.T, decls ...ast.Decl) (*ir.Module, *Context) {
	t.Helper()
	m := ir.NewModule("test")
	c := LowerModule(m, &ast.Module{Decls: decls})
	if err := verify.Module(m); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	return m, c
}

func TestLowerSimpleFunctionAdd(t *testing.T) {
	fn := &ast.FnDecl{
		Name:       "add",
		Params:     []ast.Param{{Name: "a", Type: primType("i32")}, {Name: "b", Type: primType("i32")}},
		ReturnType: primType("i32"),
		Body: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.Binary{Op: "+", Left: &ast.Ident{Name: "a"}, Right: &ast.Ident{Name: "b"}}},
		},
	}
	m, c := lowerOne(t, fn)
	if c.HasError() {
		t.Fatalf("unexpected lowering error: %v", c.Diags.Items())
	}
	if len(m.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(m.Functions))
	}
	got := m.Functions[0]
	if got.Name != "add" {
		t.Errorf("name = %q, want add", got.Name)
	}
	if got.ReturnType.Kind != types.I32 {
		t.Errorf("return kind = %v, want I32", got.ReturnType.Kind)
	}
	if len(got.Blocks) < 2 {
		t.Errorf("expected at least entry+exit blocks, got %d", len(got.Blocks))
	}
}

func TestLowerIfExprTailValue(t *testing.T) {
	fn := &ast.FnDecl{
		Name:       "max",
		Params:     []ast.Param{{Name: "a", Type: primType("i32")}, {Name: "b", Type: primType("i32")}},
		ReturnType: primType("i32"),
		Body: []ast.Stmt{
			&ast.ExprStmt{Expr: &ast.IfExpr{
				Cond: &ast.Binary{Op: ">", Left: &ast.Ident{Name: "a"}, Right: &ast.Ident{Name: "b"}},
				Then: &ast.Ident{Name: "a"},
				Else: &ast.Ident{Name: "b"},
			}},
		},
	}
	_, c := lowerOne(t, fn)
	if c.HasError() {
		t.Fatalf("unexpected lowering error: %v", c.Diags.Items())
	}
}

func TestLowerWhileWithBreak(t *testing.T) {
	fn := &ast.FnDecl{
		Name:       "countdown",
		Params:     []ast.Param{{Name: "n", Type: primType("i32")}},
		ReturnType: primType("i32"),
		Body: []ast.Stmt{
			&ast.LetStmt{Name: "i", Value: &ast.Ident{Name: "n"}, Mutable: true},
			&ast.WhileStmt{
				Cond: &ast.Binary{Op: ">", Left: &ast.Ident{Name: "i"}, Right: &ast.IntLiteral{Value: 0}},
				Body: []ast.Stmt{
					&ast.AssignStmt{Target: &ast.Ident{Name: "i"},
						Value: &ast.Binary{Op: "-", Left: &ast.Ident{Name: "i"}, Right: &ast.IntLiteral{Value: 1}}},
					&ast.ExprStmt{Expr: &ast.IfExpr{
						Cond: &ast.Binary{Op: "==", Left: &ast.Ident{Name: "i"}, Right: &ast.IntLiteral{Value: 5}},
						Then: &ast.BlockExpr{Stmts: []ast.Stmt{&ast.BreakStmt{}}},
					}},
				},
			},
			&ast.ReturnStmt{Value: &ast.Ident{Name: "i"}},
		},
	}
	_, c := lowerOne(t, fn)
	if c.HasError() {
		t.Fatalf("unexpected lowering error: %v", c.Diags.Items())
	}
}

func TestLowerRangeFor(t *testing.T) {
	fn := &ast.FnDecl{
		Name:       "sum_to",
		Params:     []ast.Param{{Name: "n", Type: primType("i32")}},
		ReturnType: primType("i32"),
		Body: []ast.Stmt{
			&ast.LetStmt{Name: "acc", Value: &ast.IntLiteral{Value: 0}, Mutable: true},
			&ast.ForStmt{
				Var:  "i",
				Iter: &ast.Range{Start: &ast.IntLiteral{Value: 0}, End: &ast.Ident{Name: "n"}},
				Body: []ast.Stmt{
					&ast.AssignStmt{Target: &ast.Ident{Name: "acc"},
						Value: &ast.Binary{Op: "+", Left: &ast.Ident{Name: "acc"}, Right: &ast.Ident{Name: "i"}}},
				},
			},
			&ast.ReturnStmt{Value: &ast.Ident{Name: "acc"}},
		},
	}
	_, c := lowerOne(t, fn)
	if c.HasError() {
		t.Fatalf("unexpected lowering error: %v", c.Diags.Items())
	}
}

func TestLowerPropagateAndAssert(t *testing.T) {
	fn := &ast.FnDecl{
		Name:       "unwrap_twice",
		Params:     []ast.Param{{Name: "v", Type: ast.TypeNode{Kind: ast.TNVoidable, Elem: &ast.TypeNode{Kind: ast.TNPrimitive, Name: "i32"}}}},
		ReturnType: primType("i32"),
		Body: []ast.Stmt{
			&ast.LetStmt{Name: "propagated", Value: &ast.Propagate{Operand: &ast.Ident{Name: "v"}}},
			&ast.ReturnStmt{Value: &ast.Assert{Operand: &ast.Ident{Name: "propagated"}}},
		},
	}
	_, c := lowerOne(t, fn)
	if c.HasError() {
		t.Fatalf("unexpected lowering error: %v", c.Diags.Items())
	}
}

func TestLowerStructFieldAndMethodInPersist(t *testing.T) {
	counter := &ast.StructDecl{
		Name:   "Counter",
		Fields: []ast.FieldDef{{Name: "value", Type: primType("i32")}},
	}
	impl := &ast.ImplDecl{
		TargetType: "Counter",
		Methods: []*ast.FnDecl{
			{
				Name:       "inc",
				Effects:    []string{"PERSIST", "WRITE", "READ"},
				ReturnType: primType("i32"),
				Body: []ast.Stmt{
					&ast.PersistStmt{Body: []ast.Stmt{
						&ast.AssignStmt{
							Target: &ast.Field{Object: &ast.SelfExpr{}, Name: "value"},
							Value: &ast.Binary{Op: "+",
								Left:  &ast.Field{Object: &ast.SelfExpr{}, Name: "value"},
								Right: &ast.IntLiteral{Value: 1}},
						},
					}},
					&ast.ReturnStmt{Value: &ast.Field{Object: &ast.SelfExpr{}, Name: "value"}},
				},
			},
		},
	}
	m, c := lowerOne(t, counter, impl)
	if c.HasError() {
		t.Fatalf("unexpected lowering error: %v", c.Diags.Items())
	}
	if _, ok := c.Methods["Counter"]["inc"]; !ok {
		t.Fatalf("expected Counter.inc to be registered")
	}
	found := false
	for _, fn := range m.Functions {
		if fn.Name == "Counter.inc" {
			found = true
		}
	}
	if !found {
		t.Errorf("module missing lowered Counter.inc function")
	}
}

func TestLowerMethodCallDispatch(t *testing.T) {
	counter := &ast.StructDecl{
		Name:   "Counter",
		Fields: []ast.FieldDef{{Name: "value", Type: primType("i32")}},
	}
	impl := &ast.ImplDecl{
		TargetType: "Counter",
		Methods: []*ast.FnDecl{
			{Name: "get", ReturnType: primType("i32"), Body: []ast.Stmt{
				&ast.ReturnStmt{Value: &ast.Field{Object: &ast.SelfExpr{}, Name: "value"}},
			}},
		},
	}
	caller := &ast.FnDecl{
		Name:       "read_it",
		Params:     []ast.Param{{Name: "c", Type: namedType("Counter")}},
		ReturnType: primType("i32"),
		Body: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.MethodCall{Receiver: &ast.Ident{Name: "c"}, Method: "get"}},
		},
	}
	_, c := lowerOne(t, counter, impl, caller)
	if c.HasError() {
		t.Fatalf("unexpected lowering error: %v", c.Diags.Items())
	}
}

func TestLowerClosureCapture(t *testing.T) {
	fn := &ast.FnDecl{
		Name:       "make_offset",
		Params:     []ast.Param{{Name: "x", Type: primType("i32")}},
		ReturnType: primType("i32"),
		Body: []ast.Stmt{
			&ast.LetStmt{Name: "f", Value: &ast.Closure{
				Params: []ast.ClosureParam{{Name: "y", Type: primType("i32")}},
				Body:   &ast.Binary{Op: "+", Left: &ast.Ident{Name: "x"}, Right: &ast.Ident{Name: "y"}},
			}},
			&ast.ReturnStmt{Value: &ast.IntLiteral{Value: 0}},
		},
	}
	m, c := lowerOne(t, fn)
	if c.HasError() {
		t.Fatalf("unexpected lowering error: %v", c.Diags.Items())
	}
	foundClosure := false
	for _, f := range m.Functions {
		if len(f.Name) > 8 && f.Name[:8] == "closure$" {
			foundClosure = true
			if len(f.Params) != 2 {
				t.Errorf("closure fn expected 2 params ($env, y), got %d", len(f.Params))
			}
		}
	}
	if !foundClosure {
		t.Errorf("expected a lifted closure$N function in the module")
	}
}

func TestResolveTypeVoidable(t *testing.T) {
	m := ir.NewModule("test")
	c := NewContext(m)
	tn := ast.TypeNode{Kind: ast.TNVoidable, Elem: &ast.TypeNode{Kind: ast.TNPrimitive, Name: "i32"}}
	resolved := c.ResolveType(tn)
	if resolved.Kind != types.Voidable {
		t.Fatalf("kind = %v, want Voidable", resolved.Kind)
	}
	if resolved.Elem.Kind != types.I32 {
		t.Fatalf("elem kind = %v, want I32", resolved.Elem.Kind)
	}
}

func TestRegisterDeclsStructForwardReference(t *testing.T) {
	node := &ast.StructDecl{
		Name:   "Node",
		Fields: []ast.FieldDef{{Name: "next", Type: ast.TypeNode{Kind: ast.TNPointer, Elem: &ast.TypeNode{Kind: ast.TNNamed, Name: "Node"}}}},
	}
	m := ir.NewModule("test")
	c := NewContext(m)
	c.RegisterDecls(&ast.Module{Decls: []ast.Decl{node}})
	st := c.StructTypes["Node"]
	if st == nil {
		t.Fatalf("Node struct not registered")
	}
	if st.Fields[0].Kind != types.Pointer || st.Fields[0].Elem != st {
		t.Errorf("expected self-referential pointer field, got %+v", st.Fields[0])
	}
}

// TestLowerIsDeterministic guards against nondeterministic vreg/block
// numbering: lowering the same declarations twice into fresh modules
// must print identically. kr/pretty gives a readable field-by-field
// diff instead of a giant failed string comparison when it doesn't.
func TestLowerIsDeterministic(t *testing.T) {
	fn := func() *ast.FnDecl {
		return &ast.FnDecl{
			Name:       "add",
			Params:     []ast.Param{{Name: "a", Type: primType("i32")}, {Name: "b", Type: primType("i32")}},
			ReturnType: primType("i32"),
			Body: []ast.Stmt{
				&ast.ReturnStmt{Value: &ast.Binary{Op: "+", Left: &ast.Ident{Name: "a"}, Right: &ast.Ident{Name: "b"}}},
			},
		}
	}
	m1, _ := lowerOne(t, fn())
	m2, _ := lowerOne(t, fn())

	p1, p2 := printer.New(), printer.New()
	text1, text2 := p1.PrintModule(m1), p2.PrintModule(m2)
	if text1 != text2 {
		for _, diff := range pretty.Diff(m1.Functions[0], m2.Functions[0]) {
			t.Log(diff)
		}
		t.Fatalf("lowering the same declarations twice produced different IR")
	}
}
