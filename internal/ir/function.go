package ir

import "seraphim/internal/types"

// Param is one declared parameter of a Function.
type Param struct {
	Name  string
	Type  *types.Type
	Value *Value
}

// Function owns a list of blocks (entry = index 0), a parameter
// vector, a function type, a declared effect set, and the per-function
// monotonic id counters (§3.4).
type Function struct {
	Name        string
	Params      []Param
	ReturnType  *types.Type
	DeclEffects types.Effect

	Blocks []*Block // entry = Blocks[0]

	nextVreg  uint32
	nextBlock int
}

// NewFunction allocates a function with no blocks yet; use NewBlock to
// populate it. Declared effects come from the (external) effect
// checker and are trusted as-is, per §4.3 "Effect propagation".
func NewFunction(name string, params []Param, ret *types.Type, declEffects types.Effect) *Function {
	return &Function{
		Name:        name,
		Params:      params,
		ReturnType:  ret,
		DeclEffects: declEffects,
	}
}

// NewBlock appends a fresh block with a freshly allocated BlockID and
// returns it.
func (f *Function) NewBlock() *Block {
	id := BlockID(f.nextBlock)
	f.nextBlock++
	b := &Block{ID: id, Substrate: Volatile}
	f.Blocks = append(f.Blocks, b)
	return b
}

// Block resolves a BlockID to its Block. Panics on an invalid id —
// that is always a compiler bug (a dangling handle), never user input.
func (f *Function) Block(id BlockID) *Block {
	if int(id) < 0 || int(id) >= len(f.Blocks) {
		panic("ir: invalid BlockID")
	}
	return f.Blocks[id]
}

// Entry returns the function's entry block (Blocks[0]), or nil if the
// function has no blocks yet.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// NextVregID allocates and returns a fresh per-function vreg id
// (§4.2 rule 2: "function.next_vreg_id++").
func (f *Function) NextVregID() uint32 {
	id := f.nextVreg
	f.nextVreg++
	return id
}

// EffectiveEffects unions the effect bitmask of every instruction in
// every block — the set the lowering/verifier can check against
// DeclEffects (§4.3: "the inferred effect set must be a subset of the
// function's declared effect set").
func (f *Function) EffectiveEffects() types.Effect {
	var acc types.Effect
	for _, b := range f.Blocks {
		for i := b.First; i != nil; i = i.Next {
			acc |= i.Effects
		}
	}
	return acc
}
