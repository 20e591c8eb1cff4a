// Package ast defines the AST node shapes the lowering consumes
// (spec.md §6.1). The real lexer/parser/type-checker are external
// collaborators (out of scope — spec.md §1); this package is the
// contract their output is assumed to satisfy: every node carries a
// source location, and expressions/statements dispatch through a
// visitor, mirroring the teacher's internal/parser/ast.go + stmt.go
// Accept(Visitor) pattern generalized from Sentra's dynamic node set
// to Seraphim's typed, effect- and VOID-aware one.
package ast

import "seraphim/internal/diagnostics"

// Pos is the source location every node carries (§6.1).
type Pos = diagnostics.SourceLocation

// Expr is any expression node.
type Expr interface {
	Accept(v ExprVisitor) interface{}
	Position() Pos
}

// Stmt is any statement node.
type Stmt interface {
	Accept(v StmtVisitor) interface{}
	Position() Pos
}

// base embeds the position every concrete node carries.
type base struct{ Pos Pos }

func (b base) Position() Pos { return b.Pos }

// --- expressions -------------------------------------------------------------

// IntLiteral is an integer literal, optionally suffix-typed
// ("42i64"); Suffix == "" means the type checker infers it.
type IntLiteral struct {
	base
	Value  int64
	Suffix string
}

func (e *IntLiteral) Accept(v ExprVisitor) interface{} { return v.VisitIntLiteral(e) }

type FloatLiteral struct {
	base
	Value  float64
	Suffix string
}

func (e *FloatLiteral) Accept(v ExprVisitor) interface{} { return v.VisitFloatLiteral(e) }

type BoolLiteral struct {
	base
	Value bool
}

func (e *BoolLiteral) Accept(v ExprVisitor) interface{} { return v.VisitBoolLiteral(e) }

type StringLiteral struct {
	base
	Value string
}

func (e *StringLiteral) Accept(v ExprVisitor) interface{} { return v.VisitStringLiteral(e) }

// VoidLiteral is the `void` literal (§4.3: "void literal at a typed
// context -> void_const(t)"); TargetType is filled in by the type
// checker before lowering sees it.
type VoidLiteral struct {
	base
	TargetType TypeNode
}

func (e *VoidLiteral) Accept(v ExprVisitor) interface{} { return v.VisitVoidLiteral(e) }

// Ident is a bare identifier reference.
type Ident struct {
	base
	Name string
}

func (e *Ident) Accept(v ExprVisitor) interface{} { return v.VisitIdent(e) }

// Path is a qualified name (module::name, enum variant path, etc).
type Path struct {
	base
	Segments []string
}

func (e *Path) Accept(v ExprVisitor) interface{} { return v.VisitPath(e) }

type Binary struct {
	base
	Op          string
	Left, Right Expr
}

func (e *Binary) Accept(v ExprVisitor) interface{} { return v.VisitBinary(e) }

type Unary struct {
	base
	Op      string
	Operand Expr
}

func (e *Unary) Accept(v ExprVisitor) interface{} { return v.VisitUnary(e) }

// Propagate is `expr??` (§4.3).
type Propagate struct {
	base
	Operand Expr
}

func (e *Propagate) Accept(v ExprVisitor) interface{} { return v.VisitPropagate(e) }

// Assert is `expr!!` (§4.3).
type Assert struct {
	base
	Operand Expr
}

func (e *Assert) Accept(v ExprVisitor) interface{} { return v.VisitAssert(e) }

// Coalesce is `expr ?? default` (§4.3) — distinguished from Propagate
// by carrying a Default expression.
type Coalesce struct {
	base
	Operand, Default Expr
}

func (e *Coalesce) Accept(v ExprVisitor) interface{} { return v.VisitCoalesce(e) }

type Call struct {
	base
	Callee Expr
	Args   []Expr
}

func (e *Call) Accept(v ExprVisitor) interface{} { return v.VisitCall(e) }

// MethodCall is `recv.method(args)` (§4.3).
type MethodCall struct {
	base
	Receiver Expr
	Method   string
	Args     []Expr
}

func (e *MethodCall) Accept(v ExprVisitor) interface{} { return v.VisitMethodCall(e) }

// Field is `e.f` (§4.3).
type Field struct {
	base
	Object Expr
	Name   string
}

func (e *Field) Accept(v ExprVisitor) interface{} { return v.VisitField(e) }

// Index is `a[i]` (§4.3).
type Index struct {
	base
	Object, Idx Expr
}

func (e *Index) Accept(v ExprVisitor) interface{} { return v.VisitIndex(e) }

type BlockExpr struct {
	base
	Stmts []Stmt
	Tail  Expr // trailing expression whose value is the block's result, if any
}

func (e *BlockExpr) Accept(v ExprVisitor) interface{} { return v.VisitBlockExpr(e) }

type IfExpr struct {
	base
	Cond             Expr
	Then, Else       Expr
}

func (e *IfExpr) Accept(v ExprVisitor) interface{} { return v.VisitIfExpr(e) }

type MatchArm struct {
	Pattern Pattern
	Body    Expr
}

type MatchExpr struct {
	base
	Subject Expr
	Arms    []MatchArm
}

func (e *MatchExpr) Accept(v ExprVisitor) interface{} { return v.VisitMatchExpr(e) }

type ArrayExpr struct {
	base
	Elements []Expr
}

func (e *ArrayExpr) Accept(v ExprVisitor) interface{} { return v.VisitArrayExpr(e) }

// FieldInit is one `name: value` entry of a StructInit.
type FieldInit struct {
	Name  string
	Value Expr
}

type StructInit struct {
	base
	StructName string
	Fields     []FieldInit
}

func (e *StructInit) Accept(v ExprVisitor) interface{} { return v.VisitStructInit(e) }

type Cast struct {
	base
	Operand Expr
	Target  TypeNode
}

func (e *Cast) Accept(v ExprVisitor) interface{} { return v.VisitCast(e) }

// Range is `start..end` or `start..=end` (inclusive).
type Range struct {
	base
	Start, End Expr
	Inclusive  bool
}

func (e *Range) Accept(v ExprVisitor) interface{} { return v.VisitRange(e) }

type ClosureParam struct {
	Name string
	Type TypeNode
}

// Closure is `|params| body` (§4.3).
type Closure struct {
	base
	Params []ClosureParam
	Body   Expr
}

func (e *Closure) Accept(v ExprVisitor) interface{} { return v.VisitClosure(e) }

// SelfExpr is the implicit `self` receiver inside a method body.
type SelfExpr struct{ base }

func (e *SelfExpr) Accept(v ExprVisitor) interface{} { return v.VisitSelfExpr(e) }

// ExprVisitor dispatches over every expression kind in §6.1.
type ExprVisitor interface {
	VisitIntLiteral(*IntLiteral) interface{}
	VisitFloatLiteral(*FloatLiteral) interface{}
	VisitBoolLiteral(*BoolLiteral) interface{}
	VisitStringLiteral(*StringLiteral) interface{}
	VisitVoidLiteral(*VoidLiteral) interface{}
	VisitIdent(*Ident) interface{}
	VisitPath(*Path) interface{}
	VisitBinary(*Binary) interface{}
	VisitUnary(*Unary) interface{}
	VisitPropagate(*Propagate) interface{}
	VisitAssert(*Assert) interface{}
	VisitCoalesce(*Coalesce) interface{}
	VisitCall(*Call) interface{}
	VisitMethodCall(*MethodCall) interface{}
	VisitField(*Field) interface{}
	VisitIndex(*Index) interface{}
	VisitBlockExpr(*BlockExpr) interface{}
	VisitIfExpr(*IfExpr) interface{}
	VisitMatchExpr(*MatchExpr) interface{}
	VisitArrayExpr(*ArrayExpr) interface{}
	VisitStructInit(*StructInit) interface{}
	VisitCast(*Cast) interface{}
	VisitRange(*Range) interface{}
	VisitClosure(*Closure) interface{}
	VisitSelfExpr(*SelfExpr) interface{}
}
