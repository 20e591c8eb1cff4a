package lowering

import (
	"fmt"
	"sort"

	"seraphim/internal/ast"
	"seraphim/internal/ir"
	"seraphim/internal/types"
)

// collectFreeVarsExpr walks e collecting every identifier reference
// not present in bound into out — the capture set a closure literal
// needs lifted into its environment struct (§4.3 "Closure").
func collectFreeVarsExpr(e ast.Expr, bound map[string]bool, out map[string]bool) {
	switch n := e.(type) {
	case *ast.Ident:
		if !bound[n.Name] {
			out[n.Name] = true
		}
	case *ast.Binary:
		collectFreeVarsExpr(n.Left, bound, out)
		collectFreeVarsExpr(n.Right, bound, out)
	case *ast.Unary:
		collectFreeVarsExpr(n.Operand, bound, out)
	case *ast.Propagate:
		collectFreeVarsExpr(n.Operand, bound, out)
	case *ast.Assert:
		collectFreeVarsExpr(n.Operand, bound, out)
	case *ast.Coalesce:
		collectFreeVarsExpr(n.Operand, bound, out)
		collectFreeVarsExpr(n.Default, bound, out)
	case *ast.Call:
		collectFreeVarsExpr(n.Callee, bound, out)
		for _, a := range n.Args {
			collectFreeVarsExpr(a, bound, out)
		}
	case *ast.MethodCall:
		collectFreeVarsExpr(n.Receiver, bound, out)
		for _, a := range n.Args {
			collectFreeVarsExpr(a, bound, out)
		}
	case *ast.Field:
		collectFreeVarsExpr(n.Object, bound, out)
	case *ast.Index:
		collectFreeVarsExpr(n.Object, bound, out)
		collectFreeVarsExpr(n.Idx, bound, out)
	case *ast.BlockExpr:
		inner := cloneBoundSet(bound)
		for _, st := range n.Stmts {
			collectFreeVarsStmt(st, inner, out)
		}
		if n.Tail != nil {
			collectFreeVarsExpr(n.Tail, inner, out)
		}
	case *ast.IfExpr:
		collectFreeVarsExpr(n.Cond, bound, out)
		collectFreeVarsExpr(n.Then, bound, out)
		if n.Else != nil {
			collectFreeVarsExpr(n.Else, bound, out)
		}
	case *ast.MatchExpr:
		collectFreeVarsExpr(n.Subject, bound, out)
		for _, arm := range n.Arms {
			inner := cloneBoundSet(bound)
			if arm.Pattern.Binding != "" {
				inner[arm.Pattern.Binding] = true
			}
			collectFreeVarsExpr(arm.Body, inner, out)
		}
	case *ast.ArrayExpr:
		for _, el := range n.Elements {
			collectFreeVarsExpr(el, bound, out)
		}
	case *ast.StructInit:
		for _, f := range n.Fields {
			collectFreeVarsExpr(f.Value, bound, out)
		}
	case *ast.Cast:
		collectFreeVarsExpr(n.Operand, bound, out)
	case *ast.Range:
		collectFreeVarsExpr(n.Start, bound, out)
		collectFreeVarsExpr(n.End, bound, out)
	case *ast.Closure:
		inner := cloneBoundSet(bound)
		for _, p := range n.Params {
			inner[p.Name] = true
		}
		collectFreeVarsExpr(n.Body, inner, out)
	}
}

func collectFreeVarsStmt(s ast.Stmt, bound map[string]bool, out map[string]bool) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		collectFreeVarsExpr(n.Expr, bound, out)
	case *ast.LetStmt:
		collectFreeVarsExpr(n.Value, bound, out)
		bound[n.Name] = true
	case *ast.AssignStmt:
		collectFreeVarsExpr(n.Target, bound, out)
		collectFreeVarsExpr(n.Value, bound, out)
	case *ast.ReturnStmt:
		if n.Value != nil {
			collectFreeVarsExpr(n.Value, bound, out)
		}
	case *ast.ForStmt:
		collectFreeVarsExpr(n.Iter, bound, out)
		inner := cloneBoundSet(bound)
		inner[n.Var] = true
		for _, st := range n.Body {
			collectFreeVarsStmt(st, inner, out)
		}
	case *ast.WhileStmt:
		collectFreeVarsExpr(n.Cond, bound, out)
		inner := cloneBoundSet(bound)
		for _, st := range n.Body {
			collectFreeVarsStmt(st, inner, out)
		}
	case *ast.PersistStmt:
		inner := cloneBoundSet(bound)
		for _, st := range n.Body {
			collectFreeVarsStmt(st, inner, out)
		}
	case *ast.AetherStmt:
		inner := cloneBoundSet(bound)
		for _, st := range n.Body {
			collectFreeVarsStmt(st, inner, out)
		}
	case *ast.RecoverStmt:
		innerTry := cloneBoundSet(bound)
		for _, st := range n.Try {
			collectFreeVarsStmt(st, innerTry, out)
		}
		innerRec := cloneBoundSet(bound)
		for _, st := range n.Recover {
			collectFreeVarsStmt(st, innerRec, out)
		}
	}
}

func cloneBoundSet(b map[string]bool) map[string]bool {
	n := make(map[string]bool, len(b))
	for k, v := range b {
		n[k] = v
	}
	return n
}

// lowerClosure implements the closure-lifting step of §4.3: a closure
// literal becomes a fresh top-level function taking a captured-
// environment pointer as its first parameter, plus a {fn_ptr, env_ptr}
// pair struct materialized at the capture site — the representation a
// caller later dispatches through via an indirect call.
func (c *Context) lowerClosure(cl *ast.Closure) *ir.Value {
	bound := make(map[string]bool, len(cl.Params))
	for _, p := range cl.Params {
		bound[p.Name] = true
	}
	free := make(map[string]bool)
	collectFreeVarsExpr(cl.Body, bound, free)

	freeNames := make([]string, 0, len(free))
	for name := range free {
		freeNames = append(freeNames, name)
	}
	sort.Strings(freeNames)

	var captureNames []string
	var captureTypes []*types.Type
	var captureVals []*ir.Value
	for _, name := range freeNames {
		entry, ok := c.Symtab.Lookup(name)
		if !ok {
			continue // not a local binding (e.g. a free function name)
		}
		captureNames = append(captureNames, name)
		captureTypes = append(captureTypes, entry.Type)
		if entry.Slot != nil {
			captureVals = append(captureVals, c.Builder.BuildLoad(entry.Slot, entry.Type))
		} else {
			captureVals = append(captureVals, entry.Bound)
		}
	}
	envType := types.NewStruct("", captureNames, captureTypes)
	envPtrType := types.PointerTo(envType)

	id := c.nextClosureID()
	name := fmt.Sprintf("closure$%d", id)

	params := make([]ir.Param, 0, len(cl.Params)+1)
	params = append(params, ir.Param{Name: "$env", Type: envPtrType})
	paramTypes := make([]*types.Type, 0, len(cl.Params))
	for _, p := range cl.Params {
		t := c.ResolveType(p.Type)
		params = append(params, ir.Param{Name: p.Name, Type: t})
		paramTypes = append(paramTypes, t)
	}

	irFn := ir.NewFunction(name, params, types.Void_(), 0)
	c.Module.AddFunction(irFn)

	prevFn, prevBlock := c.Fn, c.Builder.Block
	prevExit, prevSlot := c.ExitBlock, c.ReturnSlot

	c.Fn = irFn
	c.Builder.SetFunction(irFn)
	entry := irFn.NewBlock()
	c.Builder.Position(entry)

	c.Symtab.Push()
	envVal := &ir.Value{Kind: ir.ParamKind, Type: envPtrType, ID: irFn.NextVregID(), MayBeVoid: ir.No}
	irFn.Params[0].Value = envVal
	for i, cname := range captureNames {
		fieldPtr := c.Builder.BuildGep(envVal, c.Builder.Const.Int(types.I32T(), int64(i)), captureTypes[i])
		loaded := c.Builder.BuildLoad(fieldPtr, captureTypes[i])
		c.Symtab.Define(&symbolEntry{Name: cname, Bound: loaded, Type: captureTypes[i], IsCapture: true})
	}
	for i, p := range cl.Params {
		pt := paramTypes[i]
		pv := &ir.Value{Kind: ir.ParamKind, Type: pt, ID: irFn.NextVregID(), MayBeVoid: ir.Maybe}
		irFn.Params[i+1].Value = pv
		slot := c.Builder.BuildAlloca(pt)
		c.Builder.BuildStore(slot, pv)
		c.Symtab.Define(&symbolEntry{Name: p.Name, Slot: slot, Type: pt, Mutable: true})
	}

	bodyVal := c.lowerExpr(cl.Body)
	irFn.ReturnType = bodyVal.Type
	if !c.blockTerminated() {
		c.Builder.BuildReturn(bodyVal)
	}
	c.Symtab.Pop()

	c.Fn = prevFn
	c.ExitBlock, c.ReturnSlot = prevExit, prevSlot
	c.Builder.SetFunction(prevFn)
	c.Builder.Position(prevBlock)

	envSlot := c.Builder.BuildAlloca(envType)
	for i, v := range captureVals {
		fp := c.Builder.BuildGep(envSlot, c.Builder.Const.Int(types.I32T(), int64(i)), captureTypes[i])
		c.Builder.BuildStore(fp, v)
	}

	fnPtrType := types.PointerTo(types.NewFunction(irFn.ReturnType, append([]*types.Type{}, paramTypes...), 0))
	closureType := types.NewStruct("", []string{"fn", "env"}, []*types.Type{fnPtrType, envPtrType})
	closureSlot := c.Builder.BuildAlloca(closureType)

	fnPtrVal := &ir.Value{Kind: ir.FnPtrKind, Type: fnPtrType, FnName: irFn.Name, MayBeVoid: ir.No}
	fnField := c.Builder.BuildGep(closureSlot, c.Builder.Const.Int(types.I32T(), 0), fnPtrType)
	c.Builder.BuildStore(fnField, fnPtrVal)
	envField := c.Builder.BuildGep(closureSlot, c.Builder.Const.Int(types.I32T(), 1), envPtrType)
	c.Builder.BuildStore(envField, envSlot)

	return c.Builder.BuildLoad(closureSlot, closureType)
}
