package lowering

import (
	"seraphim/internal/ir"
	"seraphim/internal/types"
)

// symbolEntry is one (name, value, type, is_mutable) binding, matching
// §4.3's symbol table description and the teacher's
// StmtCompiler.locals []string chain, generalized to carry the value
// and type alongside the name.
type symbolEntry struct {
	Name      string
	Slot      *ir.Value // the alloca'd stack slot for this binding, or nil for an immutable bound value
	Bound     *ir.Value // the value itself, when not stack-slotted (closure captures, match-arm bindings)
	Type      *types.Type
	Mutable   bool
	IsCapture bool // true if this binding resolved through a closure's captured environment
}

// scope is one level of the symbol table (§4.3: "A stack of scopes,
// each a chain of (name, value, type, is_mutable) entries").
type scope struct {
	entries map[string]*symbolEntry
	parent  *scope
}

// SymbolTable is a stack of scopes; push/pop is paired with block and
// function boundaries and every surface-syntax `{...}` block (§4.3).
type SymbolTable struct {
	top *scope
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{}
}

func (s *SymbolTable) Push() {
	s.top = &scope{entries: make(map[string]*symbolEntry), parent: s.top}
}

func (s *SymbolTable) Pop() {
	if s.top != nil {
		s.top = s.top.parent
	}
}

func (s *SymbolTable) Define(e *symbolEntry) {
	s.top.entries[e.Name] = e
}

// Lookup walks parent scopes outward, matching §4.3: "Lookup walks
// parent scopes".
func (s *SymbolTable) Lookup(name string) (*symbolEntry, bool) {
	for sc := s.top; sc != nil; sc = sc.parent {
		if e, ok := sc.entries[name]; ok {
			return e, true
		}
	}
	return nil, false
}
