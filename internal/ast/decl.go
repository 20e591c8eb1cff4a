package ast

// Decl is any top-level declaration (§6.1: "fn, let, const, struct,
// enum, type_alias, impl, use, foreign").
type Decl interface {
	Position() Pos
	declNode()
}

type FnDecl struct {
	base
	Name       string
	Receiver   *Param // not set by the decoder nor read by lowering; impl methods take their receiver type from ImplDecl.TargetType
	Params     []Param
	ReturnType TypeNode
	Effects    []string
	Body       []Stmt
}

func (d *FnDecl) declNode() {}

type StructDecl struct {
	base
	Name   string
	Fields []FieldDef
}

func (d *StructDecl) declNode() {}

type EnumDecl struct {
	base
	Name     string
	Variants []EnumVariantDef
}

func (d *EnumDecl) declNode() {}

type TypeAliasDecl struct {
	base
	Name string
	Type TypeNode
}

func (d *TypeAliasDecl) declNode() {}

// ImplDecl is `impl StructName { fn ... }` — methods resolved by
// receiver static type per §4.3 "Method call".
type ImplDecl struct {
	base
	TargetType string
	Methods    []*FnDecl
}

func (d *ImplDecl) declNode() {}

type UseDecl struct {
	base
	Path []string
}

func (d *UseDecl) declNode() {}

// ForeignDecl declares an externally-linked function signature (no
// body) — the syscall/C-ABI boundary the backends resolve, out of
// scope for lowering beyond recording its signature.
type ForeignDecl struct {
	base
	Name       string
	Params     []Param
	ReturnType TypeNode
}

func (d *ForeignDecl) declNode() {}

// Module is the top-level unit lowering consumes: an ordered list of
// declarations from one source file.
type Module struct {
	Decls []Decl
}
