// Package lowering implements C3: the AST→IR lowering pass. It walks
// a type-checked *ast.Module, resolves names through a scoped symbol
// table, and emits Celestial IR via internal/ir's Builder, implementing
// the surface operator semantics (??, !!, substrate blocks, method
// dispatch, closure capture) described in spec.md §4.3.
//
// Grounded on the teacher's internal/compiler package: compiler.go and
// stmt_compiler.go's per-node-kind visitor dispatch, and
// hoisting_compiler.go's two-pass function collection for the closure
// lifting step.
package lowering

import (
	"seraphim/internal/ast"
	"seraphim/internal/diagnostics"
	"seraphim/internal/ir"
	"seraphim/internal/types"
)

// loopTarget pairs the break/continue destinations for one enclosing
// loop (§4.3: "break/continue target the inner-most enclosing
// exit/header captured in the context").
type loopTarget struct {
	BreakBlock    ir.BlockID
	ContinueBlock ir.BlockID
}

// Context threads the state §4.3 describes through one function's
// lowering: the current function/block, the builder, break/continue
// targets, the exit block + return-slot capability for unified
// return, the struct/enum registries, and the fail-soft error flag.
type Context struct {
	Module  *ir.Module
	Builder *ir.Builder

	Fn         *ir.Function
	ExitBlock  ir.BlockID
	ReturnSlot *ir.Value // alloca'd stack slot every `return` stores into before jumping to exit

	Symtab *SymbolTable
	Loops  []loopTarget

	// RecoverTargets is the stack of innermost-enclosing `recover`
	// blocks (§4.3): a trap raised while lowering a `try` body branches
	// to the top of this stack instead of unconditionally trapping.
	RecoverTargets []ir.BlockID

	// StructTypes / EnumVariants / EnumVariantType are populated once
	// per module from the declaration pass (RegisterDecls) before any
	// function body is lowered, so forward references between
	// declarations resolve.
	StructTypes     map[string]*types.Type
	EnumVariants    map[string]map[string]int32 // enum name -> variant name -> discriminant
	EnumVariantType map[string]*types.Type      // enum name -> *types.Type

	// Methods maps a receiver struct's name to its method table,
	// populated from impl blocks (§4.3 "Method call").
	Methods map[string]map[string]*ir.Function

	// Funcs maps every declared free function (and qualified method, as
	// "Receiver.method") to its pre-registered *ir.Function, populated
	// by RegisterDecls before any body is lowered so forward/recursive
	// calls resolve regardless of declaration order.
	Funcs map[string]*ir.Function

	Diags *diagnostics.Bag
	// errored is the fail-soft flag from §4.3/§7: once set, subsequent
	// emissions become no-ops returning an error-sentinel value so
	// lowering can finish the pass and report every diagnostic at
	// once.
	errored bool

	// pendingClosures is not used: lowerClosure adds each lifted
	// closure (§4.3 "Closure") to the module directly. closureSeq
	// numbers lifted closures within this Context.
	pendingClosures []*ir.Function
	closureSeq      int
}

// NewContext creates a lowering context for one module. Call
// RegisterDecls once before lowering any function bodies so struct/
// enum/impl forward references resolve.
func NewContext(m *ir.Module) *Context {
	return &Context{
		Module:          m,
		Builder:         ir.NewBuilder(m),
		Symtab:          NewSymbolTable(),
		StructTypes:     make(map[string]*types.Type),
		EnumVariants:    make(map[string]map[string]int32),
		EnumVariantType: make(map[string]*types.Type),
		Methods:         make(map[string]map[string]*ir.Function),
		Funcs:           make(map[string]*ir.Function),
		Diags:           &diagnostics.Bag{},
	}
}

// fail sets the fail-soft error flag and records a diagnostic (§7).
func (c *Context) fail(pos ast.Pos, kind diagnostics.Kind, format string, args ...interface{}) {
	c.errored = true
	c.Diags.Add(kind, diagnostics.Error, pos, format, args...)
}

// warn records a non-fatal diagnostic without setting the error flag
// (used for the recover-without-persist note in §9).
func (c *Context) warn(pos ast.Pos, kind diagnostics.Kind, format string, args ...interface{}) {
	c.Diags.Add(kind, diagnostics.Warning, pos, format, args...)
}

// HasError reports whether any fail-soft error has been recorded.
func (c *Context) HasError() bool { return c.errored }

// errorSentinel is the VOID-flagged placeholder value every no-op
// emission returns once the context is in its error state (§7:
// "subsequent lowering operations become no-ops that produce an
// error-sentinel value (VOID-flagged)").
func (c *Context) errorSentinel(t *types.Type) *ir.Value {
	if t == nil {
		t = types.Void_()
	}
	return &ir.Value{Kind: ir.VoidConstKind, Type: t, MayBeVoid: ir.Yes}
}

func (c *Context) pushLoop(breakB, continueB ir.BlockID) {
	c.Loops = append(c.Loops, loopTarget{BreakBlock: breakB, ContinueBlock: continueB})
}

func (c *Context) popLoop() {
	c.Loops = c.Loops[:len(c.Loops)-1]
}

func (c *Context) currentLoop() (loopTarget, bool) {
	if len(c.Loops) == 0 {
		return loopTarget{}, false
	}
	return c.Loops[len(c.Loops)-1], true
}

func (c *Context) pushRecover(target ir.BlockID) {
	c.RecoverTargets = append(c.RecoverTargets, target)
}

func (c *Context) popRecover() {
	c.RecoverTargets = c.RecoverTargets[:len(c.RecoverTargets)-1]
}

func (c *Context) currentRecover() (ir.BlockID, bool) {
	if len(c.RecoverTargets) == 0 {
		return ir.InvalidBlock, false
	}
	return c.RecoverTargets[len(c.RecoverTargets)-1], true
}

func (c *Context) nextClosureID() int {
	id := c.closureSeq
	c.closureSeq++
	return id
}
