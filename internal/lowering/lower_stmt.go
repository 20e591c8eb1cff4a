package lowering

import (
	"seraphim/internal/ast"
	"seraphim/internal/diagnostics"
	"seraphim/internal/ir"
	"seraphim/internal/types"
)

func (c *Context) VisitExprStmt(s *ast.ExprStmt) interface{} {
	c.lowerExpr(s.Expr)
	return nil
}

// VisitLetStmt lowers `let`/`let mut`/`const` uniformly to an alloca +
// store, matching the teacher's "every local is a stack slot" pattern;
// Mutable/IsConst are recorded on the symbol table entry for the
// (external) borrow/const checker rather than changing the IR shape.
func (c *Context) VisitLetStmt(s *ast.LetStmt) interface{} {
	v := c.lowerExpr(s.Value)
	declType := v.Type
	if s.Type.Kind != 0 || s.Type.Name != "" {
		if resolved := c.ResolveType(s.Type); resolved.Kind != types.Void {
			declType = resolved
		}
	}
	slot := c.Builder.BuildAlloca(declType)
	c.Builder.BuildStore(slot, v)
	c.Symtab.Define(&symbolEntry{Name: s.Name, Slot: slot, Type: declType, Mutable: s.Mutable && !s.IsConst})
	return nil
}

func (c *Context) VisitAssignStmt(s *ast.AssignStmt) interface{} {
	addr, _ := c.lowerLValueAddr(s.Target)
	v := c.lowerExpr(s.Value)
	c.Builder.BuildStore(addr, v)
	return nil
}

// VisitReturnStmt stores into the shared return slot and jumps to the
// function's exit block, implementing the unified-return convention
// from §4.3.
func (c *Context) VisitReturnStmt(s *ast.ReturnStmt) interface{} {
	if s.Value != nil {
		v := c.lowerExpr(s.Value)
		c.Builder.BuildStore(c.ReturnSlot, v)
	}
	c.Builder.BuildJump(c.ExitBlock)
	return nil
}

func (c *Context) VisitBreakStmt(s *ast.BreakStmt) interface{} {
	loop, ok := c.currentLoop()
	if !ok {
		c.fail(s.Position(), diagnostics.MalformedAST, "break outside a loop")
		return nil
	}
	c.Builder.BuildJump(loop.BreakBlock)
	return nil
}

func (c *Context) VisitContinueStmt(s *ast.ContinueStmt) interface{} {
	loop, ok := c.currentLoop()
	if !ok {
		c.fail(s.Position(), diagnostics.MalformedAST, "continue outside a loop")
		return nil
	}
	c.Builder.BuildJump(loop.ContinueBlock)
	return nil
}

func (c *Context) VisitWhileStmt(s *ast.WhileStmt) interface{} {
	headerBlock := c.Fn.NewBlock()
	bodyBlock := c.Fn.NewBlock()
	exitBlock := c.Fn.NewBlock()

	c.Builder.BuildJump(headerBlock.ID)

	c.Builder.Position(headerBlock)
	cond := c.lowerExpr(s.Cond)
	c.Builder.BuildBranch(cond, bodyBlock.ID, exitBlock.ID)

	c.Builder.Position(bodyBlock)
	c.Symtab.Push()
	c.pushLoop(exitBlock.ID, headerBlock.ID)
	c.lowerLoopBody(s.Body)
	c.popLoop()
	c.Symtab.Pop()
	if !c.blockTerminated() {
		c.Builder.BuildJump(headerBlock.ID)
	}

	c.Builder.Position(exitBlock)
	return nil
}

func (c *Context) lowerLoopBody(body []ast.Stmt) {
	for _, st := range body {
		if c.blockTerminated() {
			return
		}
		st.Accept(c)
	}
}

// VisitForStmt implements §4.3's for-desugaring: a numeric `for i in
// a..b` (or `a..=b`) lowers to a counting while loop; anything else is
// treated as an iterator expression desugared to a `next() !!`-style
// loop that runs until next() yields VOID.
func (c *Context) VisitForStmt(s *ast.ForStmt) interface{} {
	if rng, ok := s.Iter.(*ast.Range); ok {
		c.lowerRangeFor(s, rng)
		return nil
	}
	c.lowerIteratorFor(s)
	return nil
}

func (c *Context) lowerRangeFor(s *ast.ForStmt, rng *ast.Range) {
	start := c.lowerExpr(rng.Start)
	idxType := start.Type
	idxSlot := c.Builder.BuildAlloca(idxType)
	c.Builder.BuildStore(idxSlot, start)
	end := c.lowerExpr(rng.End)

	headerBlock := c.Fn.NewBlock()
	bodyBlock := c.Fn.NewBlock()
	incrBlock := c.Fn.NewBlock()
	exitBlock := c.Fn.NewBlock()

	c.Builder.BuildJump(headerBlock.ID)

	c.Builder.Position(headerBlock)
	cur := c.Builder.BuildLoad(idxSlot, idxType)
	var cond *ir.Value
	if rng.Inclusive {
		cond = c.Builder.BuildLe(cur, end)
	} else {
		cond = c.Builder.BuildLt(cur, end)
	}
	c.Builder.BuildBranch(cond, bodyBlock.ID, exitBlock.ID)

	c.Builder.Position(bodyBlock)
	c.Symtab.Push()
	loopVal := c.Builder.BuildLoad(idxSlot, idxType)
	loopSlot := c.Builder.BuildAlloca(idxType)
	c.Builder.BuildStore(loopSlot, loopVal)
	c.Symtab.Define(&symbolEntry{Name: s.Var, Slot: loopSlot, Type: idxType})
	c.pushLoop(exitBlock.ID, incrBlock.ID)
	c.lowerLoopBody(s.Body)
	c.popLoop()
	c.Symtab.Pop()
	if !c.blockTerminated() {
		c.Builder.BuildJump(incrBlock.ID)
	}

	c.Builder.Position(incrBlock)
	cur2 := c.Builder.BuildLoad(idxSlot, idxType)
	one := c.Builder.Const.Int(idxType, 1)
	next := c.Builder.BuildAdd(cur2, one)
	c.Builder.BuildStore(idxSlot, next)
	c.Builder.BuildJump(headerBlock.ID)

	c.Builder.Position(exitBlock)
}

func (c *Context) lowerIteratorFor(s *ast.ForStmt) {
	iterVal := c.lowerExpr(s.Iter)
	t := iterVal.Type
	if t.Kind == types.Pointer {
		t = t.Elem
	}
	if t.Kind != types.Struct {
		c.fail(s.Position(), diagnostics.TypeMismatch, "for-in target is not an iterable")
		return
	}
	nextFn, ok := c.Methods[t.Name]["next"]
	if !ok {
		c.fail(s.Position(), diagnostics.UndefinedSymbol, "%s has no next() method", t.Name)
		return
	}

	iterSlot := c.Builder.BuildAlloca(iterVal.Type)
	c.Builder.BuildStore(iterSlot, iterVal)

	headerBlock := c.Fn.NewBlock()
	bodyBlock := c.Fn.NewBlock()
	exitBlock := c.Fn.NewBlock()

	c.Builder.BuildJump(headerBlock.ID)

	c.Builder.Position(headerBlock)
	nextVal := c.Builder.BuildCall(nextFn, []*ir.Value{iterSlot})
	isVoid := c.Builder.BuildVoidTest(nextVal)
	c.Builder.BuildBranch(isVoid, exitBlock.ID, bodyBlock.ID)

	c.Builder.Position(bodyBlock)
	elem := c.Builder.BuildVoidAssert(nextVal)
	c.Symtab.Push()
	elemSlot := c.Builder.BuildAlloca(elem.Type)
	c.Builder.BuildStore(elemSlot, elem)
	c.Symtab.Define(&symbolEntry{Name: s.Var, Slot: elemSlot, Type: elem.Type})
	c.pushLoop(exitBlock.ID, headerBlock.ID)
	c.lowerLoopBody(s.Body)
	c.popLoop()
	c.Symtab.Pop()
	if !c.blockTerminated() {
		c.Builder.BuildJump(headerBlock.ID)
	}

	c.Builder.Position(exitBlock)
}

// VisitPersistStmt lowers `persist { ... }` by bracketing the body in
// an atlas transaction and tagging the current block atlas (§3.4,
// §4.3). Control-flow that escapes the body into a fresh block (an
// inner if/loop) keeps that block's substrate at the function's
// ambient default — nested substrate tagging across a persist body's
// internal branches is left to a fuller block-classification pass.
func (c *Context) VisitPersistStmt(s *ast.PersistStmt) interface{} {
	tx := c.Builder.BuildAtlasBegin()
	c.Builder.Block.Substrate = ir.Atlas
	c.Symtab.Push()
	c.lowerLoopBody(s.Body)
	c.Symtab.Pop()
	if !c.blockTerminated() {
		c.Builder.BuildAtlasCommit(tx)
	}
	return nil
}

// VisitAetherStmt lowers `aether { ... }` by bracketing the body in a
// substrate enter/exit pair tagged AETHER (§3.4, §4.3).
func (c *Context) VisitAetherStmt(s *ast.AetherStmt) interface{} {
	handle := c.Builder.BuildSubstrateEnter(c.Builder.Const.Int(types.I32T(), int64(ir.Aether)))
	c.Builder.Block.Substrate = ir.Aether
	c.Symtab.Push()
	c.lowerLoopBody(s.Body)
	c.Symtab.Pop()
	if !c.blockTerminated() {
		c.Builder.BuildSubstrateExit(handle)
	}
	return nil
}

// VisitRecoverStmt lowers `recover { try } else { rec }` (§4.3): `rec`
// is the branch target whenever `try` traps (wired through
// RecoverTargets so an `!!` inside `try` jumps here instead of
// trapping, §4.3) or falls through with a VOID-flagged value (an
// explicit trailing void.test). Per the resolved open question on
// rollback semantics: recovering out of a volatile (non-persist) try
// block does not undo any side effect already committed, so lowering
// emits a compile-time warning when `try` actually stores into memory
// with no enclosing persist to make that store undoable — not
// unconditionally, since a recover that never writes has nothing to
// warn about.
func (c *Context) VisitRecoverStmt(s *ast.RecoverStmt) interface{} {
	enclosingPersist := c.Builder.Block != nil && c.Builder.Block.Substrate == ir.Atlas

	handle := c.Builder.BuildSubstrateEnter(c.Builder.Const.Int(types.I32T(), int64(ir.Volatile)))
	tryBlock := c.Fn.NewBlock()
	recoverBlock := c.Fn.NewBlock()
	mergeBlock := c.Fn.NewBlock()

	c.Builder.BuildJump(tryBlock.ID)

	c.Builder.Position(tryBlock)
	c.Symtab.Push()
	c.pushRecover(recoverBlock.ID)
	tryValue := c.lowerStmtsWithTail(s.Try)
	c.popRecover()
	c.Symtab.Pop()

	if !c.blockTerminated() {
		if tryValue != nil {
			test := c.Builder.BuildVoidTest(tryValue)
			voidBlock := c.Fn.NewBlock()
			okBlock := c.Fn.NewBlock()
			c.Builder.BuildBranch(test, voidBlock.ID, okBlock.ID)

			c.Builder.Position(voidBlock)
			c.Builder.BuildJump(recoverBlock.ID)

			c.Builder.Position(okBlock)
			c.Builder.BuildSubstrateExit(handle)
			c.Builder.BuildJump(mergeBlock.ID)
		} else {
			c.Builder.BuildSubstrateExit(handle)
			c.Builder.BuildJump(mergeBlock.ID)
		}
	}

	if !enclosingPersist && tryBlockHasUnprotectedStore(tryBlock) {
		c.warn(s.Position(), diagnostics.UnprotectedRecover,
			"recover rolls back side effects only inside an enclosing persist block; this try stores into memory with no enclosing persist, so those writes are not undone on recovery")
	}

	c.Builder.Position(recoverBlock)
	c.Symtab.Push()
	c.lowerLoopBody(s.Recover)
	c.Symtab.Pop()
	if !c.blockTerminated() {
		c.Builder.BuildJump(mergeBlock.ID)
	}

	c.Builder.Position(mergeBlock)
	return nil
}

// tryBlockHasUnprotectedStore reports whether b contains a store,
// cap.store, or insertfield instruction — the memory-mutating opcodes
// a `persist` block's rollback undoes (§9). Only scans b itself: a
// `try` whose only writes happen inside a nested if/for/while (and so
// lower into other blocks) is not detected here.
func tryBlockHasUnprotectedStore(b *ir.Block) bool {
	for i := b.First; i != nil; i = i.Next {
		switch i.Opcode {
		case ir.OpStore, ir.OpCapStore, ir.OpInsertField:
			return true
		}
	}
	return false
}
