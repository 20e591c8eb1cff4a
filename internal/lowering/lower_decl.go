package lowering

import (
	"seraphim/internal/ast"
	"seraphim/internal/ir"
	"seraphim/internal/types"
)

// LowerModule is the top-level entry point: register every struct/
// enum/impl/fn signature (so forward and recursive references
// resolve), then lower every function body. Returns the context
// (carrying Diags) regardless of whether lowering hit an error — the
// fail-soft policy means a partially-wrong program still produces as
// much IR as possible.
func LowerModule(m *ir.Module, am *ast.Module) *Context {
	c := NewContext(m)
	c.RegisterDecls(am)

	for _, d := range am.Decls {
		switch decl := d.(type) {
		case *ast.FnDecl:
			c.LowerFunction(decl, nil)
		case *ast.ImplDecl:
			for _, method := range decl.Methods {
				target := decl.TargetType
				c.LowerFunction(method, &target)
			}
		}
	}
	return c
}

// RegisterDecls populates StructTypes, EnumVariants, Methods and Funcs
// from every declaration in am, independent of declaration order
// (§4.3: "struct-type registry ... enum-variant registry").
func (c *Context) RegisterDecls(am *ast.Module) {
	for _, d := range am.Decls {
		if decl, ok := d.(*ast.StructDecl); ok {
			names := make([]string, len(decl.Fields))
			fields := make([]*types.Type, len(decl.Fields))
			for i, f := range decl.Fields {
				names[i] = f.Name
			}
			st := types.NewStruct(decl.Name, names, fields)
			c.StructTypes[decl.Name] = st
			c.Module.AddNamedType(st)
		}
	}
	// second pass: resolve field types now that every struct name is
	// registered, so mutually-referential structs (via pointer fields)
	// work regardless of declaration order.
	for _, d := range am.Decls {
		if decl, ok := d.(*ast.StructDecl); ok {
			st := c.StructTypes[decl.Name]
			for i, f := range decl.Fields {
				st.Fields[i] = c.ResolveType(f.Type)
			}
		}
	}

	for _, d := range am.Decls {
		if decl, ok := d.(*ast.EnumDecl); ok {
			variantMap := make(map[string]int32)
			var variants []types.EnumVariant
			for i, v := range decl.Variants {
				variantMap[v.Name] = int32(i)
				var payload *types.Type
				if v.Payload != nil {
					payload = c.ResolveType(*v.Payload)
				}
				variants = append(variants, types.EnumVariant{Name: v.Name, Payload: payload})
			}
			et := types.NewEnum(decl.Name, variants)
			c.EnumVariants[decl.Name] = variantMap
			c.EnumVariantType[decl.Name] = et
			c.Module.AddNamedType(et)
		}
	}

	// third pass: register a signature-only *ir.Function for every
	// fn/method, now that every struct name resolves, so a call site
	// lowered before its callee's body can still find it.
	for _, d := range am.Decls {
		switch decl := d.(type) {
		case *ast.FnDecl:
			c.registerSignature(decl, nil)
		case *ast.ImplDecl:
			for _, method := range decl.Methods {
				target := decl.TargetType
				c.registerSignature(method, &target)
			}
		}
	}
}

func (c *Context) registerSignature(fn *ast.FnDecl, receiverType *string) {
	retType := c.ResolveType(fn.ReturnType)
	declEffects := effectsFromNames(fn.Effects)

	var params []ir.Param
	if receiverType != nil {
		if st, ok := c.StructTypes[*receiverType]; ok {
			params = append(params, ir.Param{Name: "self", Type: types.PointerTo(st)})
		}
	}
	for _, p := range fn.Params {
		params = append(params, ir.Param{Name: p.Name, Type: c.ResolveType(p.Type)})
	}

	name := qualifiedName(receiverType, fn.Name)
	irFn := ir.NewFunction(name, params, retType, declEffects)
	c.Module.AddFunction(irFn)
	c.Funcs[name] = irFn
	if receiverType != nil {
		if c.Methods[*receiverType] == nil {
			c.Methods[*receiverType] = make(map[string]*ir.Function)
		}
		c.Methods[*receiverType][fn.Name] = irFn
	}
}

// LowerFunction implements §4.3's "Function lowering": builds entry/
// exit blocks and the unified-return slot around the signature
// RegisterDecls already created, lowers the body, and wires every
// `return` to jump to the shared exit block.
func (c *Context) LowerFunction(fn *ast.FnDecl, receiverType *string) *ir.Function {
	name := qualifiedName(receiverType, fn.Name)
	irFn := c.Funcs[name]
	if irFn == nil {
		// registerSignature always runs first via RegisterDecls; this
		// only happens if LowerFunction is called directly in a test
		// without that pass, so fall back to registering on demand.
		c.registerSignature(fn, receiverType)
		irFn = c.Funcs[name]
	}

	prevFn := c.Fn
	prevExit := c.ExitBlock
	prevSlot := c.ReturnSlot
	c.Fn = irFn

	entry := irFn.NewBlock()
	exit := irFn.NewBlock()
	c.ExitBlock = exit.ID

	c.Builder.SetFunction(irFn)
	c.Builder.Position(entry)

	c.ReturnSlot = c.Builder.BuildAlloca(irFn.ReturnType)

	c.Symtab.Push()
	for i, p := range irFn.Params {
		pv := &ir.Value{Kind: ir.ParamKind, Type: p.Type, ID: irFn.NextVregID(), MayBeVoid: ir.Maybe}
		irFn.Params[i].Value = pv
		slot := c.Builder.BuildAlloca(p.Type)
		c.Builder.BuildStore(slot, pv)
		c.Symtab.Define(&symbolEntry{Name: p.Name, Slot: slot, Type: p.Type, Mutable: true})
	}

	bodyResult := c.lowerStmtsWithTail(fn.Body)
	if !c.blockTerminated() {
		if bodyResult != nil {
			c.Builder.BuildStore(c.ReturnSlot, bodyResult)
		}
		c.Builder.BuildJump(c.ExitBlock)
	}

	c.Builder.Position(exit)
	loaded := c.Builder.BuildLoad(c.ReturnSlot, irFn.ReturnType)
	c.Builder.BuildReturn(loaded)

	c.Symtab.Pop()
	c.Fn = prevFn
	c.ExitBlock = prevExit
	c.ReturnSlot = prevSlot
	return irFn
}

func qualifiedName(receiverType *string, name string) string {
	if receiverType == nil {
		return name
	}
	return *receiverType + "." + name
}

// blockTerminated reports whether the builder's current block already
// ends in a terminator (e.g. every path through the body returned),
// so callers don't append a second, unreachable terminator.
func (c *Context) blockTerminated() bool {
	b := c.Builder.Block
	return b != nil && b.Last != nil && b.Last.Opcode.IsTerminator()
}

// lowerStmtsWithTail lowers a statement list as a function/block body,
// returning the value of its trailing expression statement (if the
// last statement is an ExprStmt), matching the teacher's
// VisitBlockExpr "last statement's result is the block's value"
// convention.
func (c *Context) lowerStmtsWithTail(stmts []ast.Stmt) *ir.Value {
	var result *ir.Value
	for _, s := range stmts {
		if c.blockTerminated() {
			break
		}
		if es, ok := s.(*ast.ExprStmt); ok {
			result = c.lowerExpr(es.Expr)
			continue
		}
		s.Accept(c)
		result = nil
	}
	return result
}
