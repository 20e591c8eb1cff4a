package lowering

import (
	"math"

	"seraphim/internal/ast"
	"seraphim/internal/diagnostics"
	"seraphim/internal/ir"
	"seraphim/internal/types"
)

// lowerExpr dispatches e through the visitor and asserts its result
// back to *ir.Value, the only thing VisitXxx ever returns.
func (c *Context) lowerExpr(e ast.Expr) *ir.Value {
	return e.Accept(c).(*ir.Value)
}

func (c *Context) VisitIntLiteral(e *ast.IntLiteral) interface{} {
	return c.Builder.Const.Int(intTypeForSuffix(e.Suffix), e.Value)
}

func intTypeForSuffix(suffix string) *types.Type {
	switch suffix {
	case "i8":
		return types.I8T()
	case "i16":
		return types.I16T()
	case "i32":
		return types.I32T()
	case "u8":
		return types.U8T()
	case "u16":
		return types.U16T()
	case "u32":
		return types.U32T()
	case "u64":
		return types.U64T()
	default:
		return types.I64T()
	}
}

// VisitFloatLiteral materializes a scalar (Q64.64-ish) constant. The
// core type system carries no IEEE-float kind — every fractional
// literal targets `scalar` — so the literal's bit pattern is stashed
// verbatim in IntPayload; a later backend is responsible for the
// actual fixed-point conversion.
func (c *Context) VisitFloatLiteral(e *ast.FloatLiteral) interface{} {
	bits := int64(math.Float64bits(e.Value))
	return &ir.Value{Kind: ir.ConstKind, Type: types.ScalarT(), IntPayload: bits, MayBeVoid: ir.No}
}

func (c *Context) VisitBoolLiteral(e *ast.BoolLiteral) interface{} {
	return c.Builder.Const.Bool(e.Value)
}

func (c *Context) VisitStringLiteral(e *ast.StringLiteral) interface{} {
	return c.Builder.Const.String(c.Module, e.Value)
}

func (c *Context) VisitVoidLiteral(e *ast.VoidLiteral) interface{} {
	return c.Builder.Const.Void(c.ResolveType(e.TargetType))
}

func (c *Context) VisitIdent(e *ast.Ident) interface{} {
	entry, ok := c.Symtab.Lookup(e.Name)
	if !ok {
		c.fail(e.Position(), diagnostics.UndefinedSymbol, "undefined symbol %q", e.Name)
		return c.errorSentinel(types.Void_())
	}
	if entry.Slot != nil {
		return c.Builder.BuildLoad(entry.Slot, entry.Type)
	}
	return entry.Bound
}

// VisitPath resolves `EnumName::Variant` unit-variant construction —
// the only path form lowering handles on its own (module-qualified
// function paths are resolved directly by resolveFunc at call sites).
func (c *Context) VisitPath(e *ast.Path) interface{} {
	if len(e.Segments) != 2 {
		c.fail(e.Position(), diagnostics.MalformedAST, "unsupported path %v", e.Segments)
		return c.errorSentinel(types.Void_())
	}
	enumName, variantName := e.Segments[0], e.Segments[1]
	et, ok := c.EnumVariantType[enumName]
	if !ok {
		c.fail(e.Position(), diagnostics.UndefinedSymbol, "undefined enum %q", enumName)
		return c.errorSentinel(types.Void_())
	}
	disc, ok := c.EnumVariants[enumName][variantName]
	if !ok {
		c.fail(e.Position(), diagnostics.UndefinedSymbol, "enum %q has no variant %q", enumName, variantName)
		return c.errorSentinel(et)
	}
	slot := c.Builder.BuildAlloca(et)
	discPtr := c.Builder.BuildGep(slot, c.Builder.Const.Int(types.I32T(), 0), types.I32T())
	c.Builder.BuildStore(discPtr, c.Builder.Const.Int(types.I32T(), int64(disc)))
	return c.Builder.BuildLoad(slot, et)
}

func (c *Context) VisitBinary(e *ast.Binary) interface{} {
	lhs := c.lowerExpr(e.Left)
	rhs := c.lowerExpr(e.Right)
	switch e.Op {
	case "+":
		return c.Builder.BuildAdd(lhs, rhs)
	case "-":
		return c.Builder.BuildSub(lhs, rhs)
	case "*":
		return c.Builder.BuildMul(lhs, rhs)
	case "/":
		return c.Builder.BuildDiv(lhs, rhs)
	case "%":
		return c.Builder.BuildMod(lhs, rhs)
	case "&", "&&":
		return c.Builder.BuildAnd(lhs, rhs)
	case "|", "||":
		return c.Builder.BuildOr(lhs, rhs)
	case "^":
		return c.Builder.BuildXor(lhs, rhs)
	case "<<":
		return c.Builder.BuildShl(lhs, rhs)
	case ">>":
		return c.Builder.BuildShr(lhs, rhs)
	case ">>>":
		return c.Builder.BuildSar(lhs, rhs)
	case "==":
		return c.Builder.BuildEq(lhs, rhs)
	case "!=":
		return c.Builder.BuildNe(lhs, rhs)
	case "<":
		return c.Builder.BuildLt(lhs, rhs)
	case "<=":
		return c.Builder.BuildLe(lhs, rhs)
	case ">":
		return c.Builder.BuildGt(lhs, rhs)
	case ">=":
		return c.Builder.BuildGe(lhs, rhs)
	default:
		c.fail(e.Position(), diagnostics.MalformedAST, "unknown binary operator %q", e.Op)
		return c.errorSentinel(lhs.Type)
	}
}

func (c *Context) VisitUnary(e *ast.Unary) interface{} {
	v := c.lowerExpr(e.Operand)
	switch e.Op {
	case "-":
		return c.Builder.BuildNeg(v)
	case "!":
		return c.Builder.BuildNot(v)
	default:
		c.fail(e.Position(), diagnostics.MalformedAST, "unknown unary operator %q", e.Op)
		return c.errorSentinel(v.Type)
	}
}

// VisitPropagate lowers `expr??` per §4.3: a dynamic void.test guards
// an early return of the function's VOID sentinel, and the
// fallthrough value is forcibly reclassified NO via void.prop — the
// GLOSSARY's "return-on-VOID" behavior for `??`, mirroring
// VisitAssert's test+branch shape but returning instead of trapping.
func (c *Context) VisitPropagate(e *ast.Propagate) interface{} {
	v := c.lowerExpr(e.Operand)
	test := c.Builder.BuildVoidTest(v)
	propBlock := c.Fn.NewBlock()
	okBlock := c.Fn.NewBlock()
	c.Builder.BuildBranch(test, propBlock.ID, okBlock.ID)

	c.Builder.Position(propBlock)
	c.Builder.BuildStore(c.ReturnSlot, c.Builder.Const.Void(c.Fn.ReturnType))
	c.Builder.BuildJump(c.ExitBlock)

	c.Builder.Position(okBlock)
	return c.Builder.BuildVoidProp(v)
}

// VisitAssert lowers `expr!!` per §4.3: a dynamic void.test guards a
// trap on VOID, and the fallthrough value is forcibly reclassified NO
// via void.assert. When lowering runs inside an enclosing `recover`'s
// try body, the trap instead branches to that recover's `rec` arm
// (§4.3: "the rec arm must be the branch target when try traps").
func (c *Context) VisitAssert(e *ast.Assert) interface{} {
	v := c.lowerExpr(e.Operand)
	test := c.Builder.BuildVoidTest(v)
	trapBlock := c.Fn.NewBlock()
	contBlock := c.Fn.NewBlock()
	c.Builder.BuildBranch(test, trapBlock.ID, contBlock.ID)

	c.Builder.Position(trapBlock)
	if target, ok := c.currentRecover(); ok {
		c.Builder.BuildJump(target)
	} else {
		c.Builder.BuildTrap()
		c.Builder.BuildUnreachable()
	}

	c.Builder.Position(contBlock)
	return c.Builder.BuildVoidAssert(v)
}

// VisitCoalesce lowers `expr ?? default` to void.coalesce.
func (c *Context) VisitCoalesce(e *ast.Coalesce) interface{} {
	v := c.lowerExpr(e.Operand)
	fallback := c.lowerExpr(e.Default)
	return c.Builder.BuildVoidCoalesce(v, fallback)
}

func (c *Context) resolveFunc(callee ast.Expr) (*ir.Function, bool) {
	switch n := callee.(type) {
	case *ast.Ident:
		fn, ok := c.Funcs[n.Name]
		return fn, ok
	case *ast.Path:
		if len(n.Segments) == 0 {
			return nil, false
		}
		fn, ok := c.Funcs[n.Segments[len(n.Segments)-1]]
		return fn, ok
	default:
		return nil, false
	}
}

func (c *Context) VisitCall(e *ast.Call) interface{} {
	fn, ok := c.resolveFunc(e.Callee)
	if !ok {
		c.fail(e.Position(), diagnostics.UndefinedSymbol, "call to undefined function")
		return c.errorSentinel(types.Void_())
	}
	args := make([]*ir.Value, 0, len(e.Args))
	for _, a := range e.Args {
		args = append(args, c.lowerExpr(a))
	}
	return c.Builder.BuildCall(fn, args)
}

// staticStructName resolves the receiver expression's static struct
// name for method dispatch (§4.3: "Method call ... dispatched
// statically from the receiver's declared type"). Only identifier and
// `self` receivers are handled directly; anything more exotic (a
// method call chained off a field or another call) is left to a
// fuller type checker upstream.
func (c *Context) staticStructName(e ast.Expr) (string, bool) {
	var entry *symbolEntry
	var ok bool
	switch n := e.(type) {
	case *ast.Ident:
		entry, ok = c.Symtab.Lookup(n.Name)
	case *ast.SelfExpr:
		entry, ok = c.Symtab.Lookup("self")
	default:
		return "", false
	}
	if !ok {
		return "", false
	}
	t := entry.Type
	if t.Kind == types.Pointer {
		t = t.Elem
	}
	if t.Kind == types.Struct {
		return t.Name, true
	}
	return "", false
}

func (c *Context) VisitMethodCall(e *ast.MethodCall) interface{} {
	structName, ok := c.staticStructName(e.Receiver)
	if !ok {
		c.fail(e.Position(), diagnostics.UndefinedSymbol, "cannot resolve receiver type for method %q", e.Method)
		return c.errorSentinel(types.Void_())
	}
	fn, ok := c.Methods[structName][e.Method]
	if !ok {
		c.fail(e.Position(), diagnostics.UndefinedSymbol, "%s has no method %q", structName, e.Method)
		return c.errorSentinel(types.Void_())
	}
	selfPtr, _ := c.lowerBaseAddr(e.Receiver)
	args := make([]*ir.Value, 0, len(e.Args)+1)
	args = append(args, selfPtr)
	for _, a := range e.Args {
		args = append(args, c.lowerExpr(a))
	}
	return c.Builder.BuildCall(fn, args)
}

func fieldIndex(st *types.Type, name string) (int, *types.Type, bool) {
	if st == nil || st.Kind != types.Struct {
		return 0, types.Void_(), false
	}
	for i, n := range st.FieldNames {
		if n == name {
			return i, st.Fields[i], true
		}
	}
	return 0, types.Void_(), false
}

// lowerLValueAddr resolves e to an address usable as a BuildGep base:
// a plain binding's own slot, or the recursively-resolved address of
// a field/index chain. It never auto-dereferences — direct assignment
// to a pointer-typed binding must replace the pointer itself, not
// write through it (see lowerBaseAddr for the dereferencing variant
// used when such a binding is the *base* of a field/index access).
func (c *Context) lowerLValueAddr(e ast.Expr) (*ir.Value, *types.Type) {
	switch n := e.(type) {
	case *ast.Ident:
		entry, ok := c.Symtab.Lookup(n.Name)
		if !ok {
			c.fail(n.Position(), diagnostics.UndefinedSymbol, "undefined symbol %q", n.Name)
			return c.errorSentinel(types.PointerTo(types.Void_())), types.Void_()
		}
		return entry.Slot, entry.Type
	case *ast.SelfExpr:
		entry, ok := c.Symtab.Lookup("self")
		if !ok {
			c.fail(n.Position(), diagnostics.UndefinedSymbol, "self used outside a method")
			return c.errorSentinel(types.PointerTo(types.Void_())), types.Void_()
		}
		return entry.Slot, entry.Type
	case *ast.Field:
		basePtr, baseType := c.lowerBaseAddr(n.Object)
		idx, fieldType, ok := fieldIndex(baseType, n.Name)
		if !ok {
			c.fail(n.Position(), diagnostics.TypeMismatch, "no field %q on %v", n.Name, baseType)
			return c.errorSentinel(types.PointerTo(types.Void_())), types.Void_()
		}
		addr := c.Builder.BuildGep(basePtr, c.Builder.Const.Int(types.I32T(), int64(idx)), fieldType)
		return addr, fieldType
	case *ast.Index:
		basePtr, baseType := c.lowerBaseAddr(n.Object)
		elemType := types.Void_()
		if baseType.Elem != nil {
			elemType = baseType.Elem
		}
		idxVal := c.lowerExpr(n.Idx)
		addr := c.Builder.BuildGep(basePtr, idxVal, elemType)
		return addr, elemType
	default:
		c.fail(e.Position(), diagnostics.MalformedAST, "expression is not assignable")
		return c.errorSentinel(types.PointerTo(types.Void_())), types.Void_()
	}
}

// lowerBaseAddr resolves e to the address used to reach *into* it —
// auto-dereferencing one level when e's static type is itself a
// pointer (so `p.f` loads p's pointer value and indexes through it,
// while `x.f` on a by-value local indexes its slot directly).
func (c *Context) lowerBaseAddr(e ast.Expr) (*ir.Value, *types.Type) {
	addr, pointee := c.lowerLValueAddr(e)
	if pointee.Kind == types.Pointer {
		loaded := c.Builder.BuildLoad(addr, pointee)
		return loaded, pointee.Elem
	}
	return addr, pointee
}

func (c *Context) VisitField(e *ast.Field) interface{} {
	addr, pointee := c.lowerLValueAddr(e)
	return c.Builder.BuildLoad(addr, pointee)
}

func (c *Context) VisitIndex(e *ast.Index) interface{} {
	addr, pointee := c.lowerLValueAddr(e)
	return c.Builder.BuildLoad(addr, pointee)
}

func (c *Context) VisitBlockExpr(e *ast.BlockExpr) interface{} {
	c.Symtab.Push()
	defer c.Symtab.Pop()
	c.lowerStmtsWithTail(e.Stmts)
	if e.Tail != nil {
		return c.lowerExpr(e.Tail)
	}
	return c.Builder.Const.Void(types.Void_())
}

// VisitIfExpr lowers an if-expression via a shared stack slot (§4.3):
// both arms store their value into one alloca before jumping to a
// common merge block, which loads it back as the expression's result.
func (c *Context) VisitIfExpr(e *ast.IfExpr) interface{} {
	condVal := c.lowerExpr(e.Cond)
	originBlock := c.Builder.Block

	thenBlock := c.Fn.NewBlock()
	elseBlock := c.Fn.NewBlock()
	mergeBlock := c.Fn.NewBlock()

	c.Builder.Position(thenBlock)
	c.Symtab.Push()
	thenVal := c.lowerExpr(e.Then)
	c.Symtab.Pop()

	c.Builder.Position(elseBlock)
	var elseVal *ir.Value
	if e.Else != nil {
		c.Symtab.Push()
		elseVal = c.lowerExpr(e.Else)
		c.Symtab.Pop()
	} else {
		elseVal = c.Builder.Const.Void(thenVal.Type)
	}

	c.Builder.Position(originBlock)
	slot := c.Builder.BuildAlloca(thenVal.Type)
	c.Builder.BuildBranch(condVal, thenBlock.ID, elseBlock.ID)

	c.Builder.Position(thenBlock)
	if !c.blockTerminated() {
		c.Builder.BuildStore(slot, thenVal)
		c.Builder.BuildJump(mergeBlock.ID)
	}

	c.Builder.Position(elseBlock)
	if !c.blockTerminated() {
		c.Builder.BuildStore(slot, elseVal)
		c.Builder.BuildJump(mergeBlock.ID)
	}

	c.Builder.Position(mergeBlock)
	return c.Builder.BuildLoad(slot, thenVal.Type)
}

// VisitMatchExpr lowers a match over an enum discriminant to a switch
// on the loaded first 4 bytes of the enum value, using the same
// shared-slot merge pattern as VisitIfExpr.
func (c *Context) VisitMatchExpr(e *ast.MatchExpr) interface{} {
	subject := c.lowerExpr(e.Subject)
	originBlock := c.Builder.Block

	discSlot := c.Builder.BuildAlloca(subject.Type)
	c.Builder.BuildStore(discSlot, subject)
	discPtr := c.Builder.BuildGep(discSlot, c.Builder.Const.Int(types.I32T(), 0), types.I32T())
	disc := c.Builder.BuildLoad(discPtr, types.I32T())

	mergeBlock := c.Fn.NewBlock()
	var resultType *types.Type
	var cases []ir.SwitchCase
	var armBlocks []*ir.Block
	defaultBlock := c.Fn.NewBlock()
	defaultTarget := defaultBlock.ID

	for _, arm := range e.Arms {
		armBlock := c.Fn.NewBlock()
		armBlocks = append(armBlocks, armBlock)
		switch arm.Pattern.Kind {
		case ast.PatVariant:
			if discVal, ok := c.EnumVariants[subject.Type.Name][arm.Pattern.Variant]; ok {
				cases = append(cases, ir.SwitchCase{Value: int64(discVal), Target: armBlock.ID})
			}
		case ast.PatWildcard, ast.PatBinding:
			// a catch-all arm becomes the switch's default target
			// instead of the trap block, so it's actually reachable.
			defaultTarget = armBlock.ID
		}
	}

	var resultSlot *ir.Value
	for i, arm := range e.Arms {
		c.Builder.Position(armBlocks[i])
		c.Symtab.Push()
		if arm.Pattern.Kind == ast.PatBinding && arm.Pattern.Binding != "" {
			c.Symtab.Define(&symbolEntry{Name: arm.Pattern.Binding, Bound: subject, Type: subject.Type})
		}
		armVal := c.lowerExpr(arm.Body)
		c.Symtab.Pop()
		if resultType == nil {
			resultType = armVal.Type
		}
		if resultSlot == nil {
			c.Builder.Position(originBlock)
			resultSlot = c.Builder.BuildAlloca(resultType)
			c.Builder.Position(armBlocks[i])
		}
		if !c.blockTerminated() {
			c.Builder.BuildStore(resultSlot, armVal)
			c.Builder.BuildJump(mergeBlock.ID)
		}
	}

	c.Builder.Position(defaultBlock)
	c.Builder.BuildTrap()
	c.Builder.BuildUnreachable()

	c.Builder.Position(originBlock)
	c.Builder.BuildSwitch(disc, cases, defaultTarget)

	c.Builder.Position(mergeBlock)
	if resultSlot == nil {
		return c.Builder.Const.Void(types.Void_())
	}
	return c.Builder.BuildLoad(resultSlot, resultType)
}

func (c *Context) VisitArrayExpr(e *ast.ArrayExpr) interface{} {
	if len(e.Elements) == 0 {
		slot := c.Builder.BuildAlloca(types.ArrayOf(types.Void_(), 0))
		return c.Builder.BuildLoad(slot, types.ArrayOf(types.Void_(), 0))
	}
	first := c.lowerExpr(e.Elements[0])
	arrType := types.ArrayOf(first.Type, len(e.Elements))
	slot := c.Builder.BuildAlloca(arrType)
	elemPtr := c.Builder.BuildGep(slot, c.Builder.Const.Int(types.I32T(), 0), first.Type)
	c.Builder.BuildStore(elemPtr, first)
	for i := 1; i < len(e.Elements); i++ {
		v := c.lowerExpr(e.Elements[i])
		ep := c.Builder.BuildGep(slot, c.Builder.Const.Int(types.I32T(), int64(i)), first.Type)
		c.Builder.BuildStore(ep, v)
	}
	return c.Builder.BuildLoad(slot, arrType)
}

func (c *Context) VisitStructInit(e *ast.StructInit) interface{} {
	st, ok := c.StructTypes[e.StructName]
	if !ok {
		c.fail(e.Position(), diagnostics.UndefinedSymbol, "undefined struct %q", e.StructName)
		return c.errorSentinel(types.Void_())
	}
	slot := c.Builder.BuildAlloca(st)
	for _, f := range e.Fields {
		idx, fieldType, ok := fieldIndex(st, f.Name)
		if !ok {
			c.fail(e.Position(), diagnostics.TypeMismatch, "struct %q has no field %q", e.StructName, f.Name)
			continue
		}
		v := c.lowerExpr(f.Value)
		addr := c.Builder.BuildGep(slot, c.Builder.Const.Int(types.I32T(), int64(idx)), fieldType)
		c.Builder.BuildStore(addr, v)
	}
	return c.Builder.BuildLoad(slot, st)
}

func (c *Context) VisitCast(e *ast.Cast) interface{} {
	v := c.lowerExpr(e.Operand)
	target := c.ResolveType(e.Target)
	fromSize, toSize := types.Size(v.Type), types.Size(target)
	switch {
	case fromSize == toSize:
		return c.Builder.BuildBitcast(v, target)
	case fromSize > toSize:
		return c.Builder.BuildTrunc(v, target)
	default:
		return c.Builder.BuildSext(v, target)
	}
}

func (c *Context) VisitRange(e *ast.Range) interface{} {
	// Range only has first-class meaning as a `for` iterand; evaluated
	// as a plain expression it degrades to its start value.
	return c.lowerExpr(e.Start)
}

func (c *Context) VisitClosure(e *ast.Closure) interface{} {
	return c.lowerClosure(e)
}

func (c *Context) VisitSelfExpr(e *ast.SelfExpr) interface{} {
	entry, ok := c.Symtab.Lookup("self")
	if !ok {
		c.fail(e.Position(), diagnostics.UndefinedSymbol, "self used outside a method")
		return c.errorSentinel(types.Void_())
	}
	return c.Builder.BuildLoad(entry.Slot, entry.Type)
}
