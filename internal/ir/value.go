// Package ir implements the Celestial IR: the module/function/block/
// instruction/value entities (C1), the single-cursor builder (C2), and
// the arena that owns them all for the lifetime of a compilation.
package ir

import "seraphim/internal/types"

// VoidFact is the tri-state VOID-ness fact carried by every Value
// (§3.2). It is a dataflow fact, not a type-system discriminator —
// see DESIGN NOTES in spec.md §9.
type VoidFact int

const (
	No VoidFact = iota
	Maybe
	Yes
)

// Join combines two VoidFacts the way arithmetic results inherit the
// join of their operands' flags: YES dominates, then MAYBE, then NO.
func Join(a, b VoidFact) VoidFact {
	if a == Yes || b == Yes {
		return Yes
	}
	if a == Maybe || b == Maybe {
		return Maybe
	}
	return No
}

// ValueKind tags a Value's variant (§3.2).
type ValueKind int

const (
	ConstKind ValueKind = iota
	VoidConstKind
	VregKind
	ParamKind
	StringKind
	FnPtrKind
)

// Value is a single SSA value. ID is unique within its owning
// function. The payload fields are kind-dependent: IntPayload /
// BoolPayload for ConstKind, StringID for StringKind, FnName for
// FnPtrKind; VregKind and ParamKind carry no extra payload beyond
// their ID and the instruction/parameter that defines them.
type Value struct {
	Kind      ValueKind
	Type      *types.Type
	ID        uint32
	MayBeVoid VoidFact

	IntPayload  int64
	BoolPayload bool
	StringID    uint32
	FnName      string
}

// IsConst reports whether v is a compile-time constant (Const or
// VoidConst) — the category constant-folding and the static-shift-
// amount check in §4.4 operate on.
func (v *Value) IsConst() bool {
	return v.Kind == ConstKind || v.Kind == VoidConstKind
}
