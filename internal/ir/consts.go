package ir

import (
	"github.com/google/uuid"

	"seraphim/internal/types"
)

// ConstFactory mints constant Values. It is not function-scoped (const
// values do not need a vreg id the way instruction results do — see
// §3.2). ConstFactory only computes the payload + MayBeVoid
// classification; the Values it returns keep ID 0, since the builder's
// materializeResult assigns ids to instruction results only.
type ConstFactory struct{}

func (ConstFactory) Int(t *types.Type, v int64) *Value {
	return &Value{Kind: ConstKind, Type: t, IntPayload: v, MayBeVoid: No}
}

func (ConstFactory) Bool(v bool) *Value {
	return &Value{Kind: ConstKind, Type: types.BoolT(), BoolPayload: v, MayBeVoid: No}
}

func (ConstFactory) String(m *Module, raw string) *Value {
	sc := m.AddStringConst(raw)
	return &Value{Kind: StringKind, Type: types.StrT(), StringID: sc.ID, MayBeVoid: No}
}

func (ConstFactory) Galactic(w, x, y, z int64) *Value {
	// Encoded as four packed Q64.64 lanes; IntPayload holds only the
	// w-lane identity marker here since the full 64-byte payload lives
	// in the module's constant pool in a real backend. The core only
	// needs the value to exist and be typed/classified correctly.
	v := &Value{Kind: ConstKind, Type: types.GalacticT(), MayBeVoid: No}
	v.IntPayload = w ^ x<<16 ^ y<<32 ^ z<<48
	return v
}

// Void returns the canonical VOID constant for t, per §4.1: a scalar
// type gets its canonical bit pattern (0xFF.../0xFFFF.../...);
// composite types get an implementation-defined pattern, but
// may_be_void is always YES either way (I4).
func (ConstFactory) Void(t *types.Type) *Value {
	v := &Value{Kind: VoidConstKind, Type: t, MayBeVoid: Yes}
	if pattern, _, ok := types.VoidPattern(t); ok {
		v.IntPayload = int64(pattern)
	}
	return v
}

// NewCapabilityGeneration mints a fresh 32-bit generation stamp for a
// cap.create result. Using a UUID-derived stamp (rather than a plain
// incrementing counter) means generation numbers stay unique across
// concurrently-compiled modules too, so a capability minted in one
// module's test fixture can never alias a live one from another by
// coincidence of counting.
func NewCapabilityGeneration() uint32 {
	id := uuid.New()
	return uint32(id[12])<<24 | uint32(id[13])<<16 | uint32(id[14])<<8 | uint32(id[15])
}
