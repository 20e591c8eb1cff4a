package ir

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"seraphim/internal/types"
)

// StringConst is one deduplicated string-constant table entry (§3.4,
// §3.5).
type StringConst struct {
	ID    uint32
	Bytes []byte
}

// Module owns every IR entity for one compilation unit: its functions,
// its named struct/enum types in declaration order, and its
// deduplicated string-constant table. All entities live for the
// module's lifetime; per §3.5 "free" operations are no-ops and
// reclamation is by arena reset (Reset).
type Module struct {
	Name string

	Functions  []*Function
	NamedTypes []*types.Type // struct/enum types, declaration order

	strings    []*StringConst
	stringByKey map[[32]byte]uint32

	// closureSeed is mixed into closure ids so that ids stay unique
	// even when several Modules are compiled concurrently by the
	// errgroup-based multi-module build path (§5, "Counters": the
	// closure-id counter is promoted from a package global to a
	// per-compilation-unit value).
	closureSeed uint32
	nextClosure uint32
}

// NewModule creates an empty module. The closure-id seed is derived
// from a fresh UUID so ids minted by concurrently-compiled modules
// never collide even if later merged into one program.
func NewModule(name string) *Module {
	id := uuid.New()
	seed := uint32(id[0])<<24 | uint32(id[1])<<16 | uint32(id[2])<<8 | uint32(id[3])
	return &Module{
		Name:        name,
		stringByKey: make(map[[32]byte]uint32),
		closureSeed: seed,
	}
}

// Reset clears every arena-owned entity, matching §3.5's "free
// operations are no-ops — reclamation is by arena reset" model: there
// is nothing to explicitly free, only a point where the whole module
// is dropped at once.
func (m *Module) Reset() {
	m.Functions = nil
	m.NamedTypes = nil
	m.strings = nil
	m.stringByKey = make(map[[32]byte]uint32)
	m.nextClosure = 0
}

// NewClosureID allocates a fresh, module-scoped closure id (§5,
// §9 "Module-global closure counter").
func (m *Module) NewClosureID() uint32 {
	id := m.closureSeed ^ m.nextClosure
	m.nextClosure++
	return id
}

// AddFunction registers fn in declaration order.
func (m *Module) AddFunction(fn *Function) {
	m.Functions = append(m.Functions, fn)
}

// AddNamedType registers a struct or enum type in declaration order
// (§3.4).
func (m *Module) AddNamedType(t *types.Type) {
	m.NamedTypes = append(m.NamedTypes, t)
}

// --- string interning ------------------------------------------------------

// unescape processes the escape sequences listed in §3.5:
// \n \r \t \\ \" \' \0 \xNN.
func unescape(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			out = append(out, c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case '\\':
			out = append(out, '\\')
		case '"':
			out = append(out, '"')
		case '\'':
			out = append(out, '\'')
		case '0':
			out = append(out, 0)
		case 'x':
			if i+2 < len(s) {
				hi := hexNibble(s[i+1])
				lo := hexNibble(s[i+2])
				out = append(out, hi<<4|lo)
				i += 2
			}
		default:
			out = append(out, '\\', s[i])
		}
	}
	return out
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// AddStringConst processes escape sequences and interns the decoded
// bytes, returning the (possibly pre-existing) StringConst. A freshly
// interned entry's id equals the pre-existing count (§3.5). Interning
// is keyed by a blake2b-256 content hash rather than a plain byte
// comparison, so dedup cost stays O(1) per call regardless of how many
// strings a module accumulates.
func (m *Module) AddStringConst(raw string) *StringConst {
	bytes := unescape(raw)
	key := blake2b.Sum256(bytes)
	if id, ok := m.stringByKey[key]; ok {
		return m.strings[id]
	}
	sc := &StringConst{ID: uint32(len(m.strings)), Bytes: bytes}
	m.strings = append(m.strings, sc)
	m.stringByKey[key] = sc.ID
	return sc
}

// StringConsts returns the interned table in id order.
func (m *Module) StringConsts() []*StringConst { return m.strings }
