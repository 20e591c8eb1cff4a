package ast

// TypeNode is the surface-syntax type grammar lowering resolves to
// *types.Type (§6.1: "primitive, named, path, array, slice, pointer,
// ref, mut_ref, substrate_ref, fn, voidable, tuple").
type TypeNode struct {
	Kind     TypeNodeKind
	Name     string     // Primitive / Named / Path (joined) / Substrate kind name
	Elem     *TypeNode  // Pointer, Ref, MutRef, SubstrateRef, Array, Slice, Voidable
	Length   int        // Array
	Elems    []TypeNode // Tuple
	Params   []TypeNode // Fn
	Ret      *TypeNode  // Fn
	Effects  []string   // Fn effect_list (§6.1 auxiliaries)
}

type TypeNodeKind int

const (
	TNPrimitive TypeNodeKind = iota
	TNNamed
	TNPath
	TNArray
	TNSlice
	TNPointer
	TNRef
	TNMutRef
	TNSubstrateRef
	TNFn
	TNVoidable
	TNTuple
)

// --- auxiliary nodes (§6.1) --------------------------------------------------

type Param struct {
	Name string
	Type TypeNode
}

type FieldDef struct {
	Name string
	Type TypeNode
}

type EnumVariantDef struct {
	Name    string
	Payload *TypeNode // nil for a unit variant
}

type GenericParam struct {
	Name string
}

// Pattern is the match-arm pattern grammar; kept intentionally small
// (literal, binding, enum-variant, wildcard) since generics/exhaustive
// pattern matching sit with the type checker, not this core.
type Pattern struct {
	Kind    PatternKind
	Binding string // PatBinding, PatVariant (bound name, if any)
	Variant string // PatVariant
	Literal *IntLiteral
}

type PatternKind int

const (
	PatWildcard PatternKind = iota
	PatBinding
	PatVariant
	PatLiteral
)
