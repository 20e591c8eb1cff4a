package ir

import (
	"testing"

	"seraphim/internal/types"
)

func newTestFunction(name string, params []Param, ret *types.Type, effects types.Effect) (*Module, *Builder, *Function) {
	m := NewModule("test")
	fn := NewFunction(name, params, ret, effects)
	m.AddFunction(fn)
	b := NewBuilder(m)
	b.SetFunction(fn)
	return m, b, fn
}

// S2 — VOID propagation: fn g(x: i32, y: i32) -> voidable<i32> { return
// x / y; } — the div instruction has effect VOID and its result's
// may_be_void = MAYBE.
func TestVoidPropagationS2(t *testing.T) {
	x := Param{Name: "x", Type: types.I32T()}
	y := Param{Name: "y", Type: types.I32T()}
	_, b, fn := newTestFunction("g", []Param{x, y}, types.VoidableOf(types.I32T()), 0)

	entry := fn.NewBlock()
	b.Position(entry)

	xv := &Value{Kind: ParamKind, Type: types.I32T(), MayBeVoid: Maybe}
	yv := &Value{Kind: ParamKind, Type: types.I32T(), MayBeVoid: Maybe}

	div := b.BuildDiv(xv, yv)
	if div.MayBeVoid != Maybe {
		t.Fatalf("div result may_be_void = %v, want Maybe", div.MayBeVoid)
	}
	last := entry.Last
	if last.Opcode != OpDiv {
		t.Fatalf("expected last instruction to be div, got %v", last.Opcode)
	}
	if last.Effects&types.EffVoid == 0 {
		t.Fatalf("div instruction effects = %v, want EffVoid set", last.Effects)
	}

	b.BuildReturn(div)
}

// I4 — VoidConst values always have may_be_void = YES.
func TestVoidConstI4(t *testing.T) {
	_, b, fn := newTestFunction("f", nil, types.I32T(), 0)
	fn.NewBlock()
	v := b.Const.Void(types.I32T())
	if v.Kind != VoidConstKind {
		t.Fatalf("Const.Void kind = %v, want VoidConstKind", v.Kind)
	}
	if v.MayBeVoid != Yes {
		t.Fatalf("Const.Void may_be_void = %v, want Yes", v.MayBeVoid)
	}
	if v.IntPayload != 0xFFFFFFFF {
		t.Fatalf("Const.Void(i32) payload = %x, want 0xFFFFFFFF", v.IntPayload)
	}
}

// I5 — void.prop / void.assert force may_be_void = NO on their result.
func TestVoidPropAssertForceNoI5(t *testing.T) {
	_, b, fn := newTestFunction("f", nil, types.I32T(), 0)
	entry := fn.NewBlock()
	b.Position(entry)

	maybe := &Value{Kind: ParamKind, Type: types.I32T(), MayBeVoid: Maybe}

	prop := b.BuildVoidProp(maybe)
	if prop.MayBeVoid != No {
		t.Errorf("void.prop result may_be_void = %v, want No", prop.MayBeVoid)
	}
	assertV := b.BuildVoidAssert(maybe)
	if assertV.MayBeVoid != No {
		t.Errorf("void.assert result may_be_void = %v, want No", assertV.MayBeVoid)
	}
}

func TestJoinSemantics(t *testing.T) {
	cases := []struct{ a, b, want VoidFact }{
		{Yes, No, Yes},
		{No, Maybe, Maybe},
		{No, No, No},
		{Maybe, Maybe, Maybe},
		{Yes, Yes, Yes},
	}
	for _, c := range cases {
		if got := Join(c.a, c.b); got != c.want {
			t.Errorf("Join(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestCallEffectsInheritCallee(t *testing.T) {
	m := NewModule("test")
	callee := NewFunction("helper", nil, types.I32T(), types.EffRead|types.EffAlloc)
	m.AddFunction(callee)

	caller := NewFunction("caller", nil, types.I32T(), types.EffRead|types.EffAlloc)
	m.AddFunction(caller)
	b := NewBuilder(m)
	b.SetFunction(caller)
	entry := caller.NewBlock()
	b.Position(entry)

	b.BuildCall(callee, nil)
	last := entry.Last
	if last.Effects != (types.EffRead | types.EffAlloc) {
		t.Fatalf("call effects = %v, want callee's declared effects", last.Effects)
	}
}

func TestStringInterningDedup(t *testing.T) {
	m := NewModule("test")
	a := m.AddStringConst("a\\nb")
	b := m.AddStringConst("a\nb") // same decoded bytes, already-unescaped form
	if a.ID != b.ID {
		t.Fatalf("expected dedup by content, got ids %d and %d", a.ID, b.ID)
	}
	if string(a.Bytes) != "a\nb" {
		t.Fatalf("decoded bytes = %q, want %q", a.Bytes, "a\nb")
	}
}

// R2 / S6 — escape decode: add_string_const("a\n\x41b") yields bytes
// {'a', 0x0A, 'A', 'b'} with length 4 and a fresh monotonically
// increasing id.
func TestEscapeDecodeS6(t *testing.T) {
	m := NewModule("test")
	first := m.AddStringConst("z")
	sc := m.AddStringConst(`a\n\x41b`)
	want := []byte{'a', 0x0A, 'A', 'b'}
	if len(sc.Bytes) != 4 {
		t.Fatalf("decoded length = %d, want 4", len(sc.Bytes))
	}
	for i := range want {
		if sc.Bytes[i] != want[i] {
			t.Fatalf("decoded bytes = %v, want %v", sc.Bytes, want)
		}
	}
	if sc.ID != first.ID+1 {
		t.Fatalf("id = %d, want %d (monotonically increasing)", sc.ID, first.ID+1)
	}
}
