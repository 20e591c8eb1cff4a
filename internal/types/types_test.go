package types

import "testing"

// S5 — Struct layout: {u8, u32, u8} has size 12, align 4, and field
// offsets 0, 4, 8.
func TestStructLayoutS5(t *testing.T) {
	s := NewStruct("S", []string{"a", "b", "c"}, []*Type{U8T(), U32T(), U8T()})

	if got := Align(s); got != 4 {
		t.Fatalf("align(S) = %d, want 4", got)
	}
	if got := Size(s); got != 12 {
		t.Fatalf("size(S) = %d, want 12", got)
	}
	wantOffsets := []int{0, 4, 8}
	for i, want := range wantOffsets {
		if got := FieldOffset(s, i); got != want {
			t.Errorf("field_offset(S, %d) = %d, want %d", i, got, want)
		}
	}
}

// I2 — size(Voidable(t)) = size(t), align(Voidable(t)) = align(t).
func TestVoidableLayoutI2(t *testing.T) {
	for _, inner := range []*Type{I32T(), ScalarT(), NewStruct("P", []string{"x", "y"}, []*Type{I32T(), I64T()})} {
		v := VoidableOf(inner)
		if Size(v) != Size(inner) {
			t.Errorf("size(Voidable(%v)) = %d, want %d", inner.Kind, Size(v), Size(inner))
		}
		if Align(v) != Align(inner) {
			t.Errorf("align(Voidable(%v)) = %d, want %d", inner.Kind, Align(v), Align(inner))
		}
	}
}

// I3 — field_offset(S, i) + size(f_i) <= size(S), and size(S) is a
// multiple of align(S).
func TestStructInvariantI3(t *testing.T) {
	s := NewStruct("T", []string{"a", "b", "c", "d"},
		[]*Type{U8T(), ScalarT(), U16T(), CapabilityT()})

	size := Size(s)
	align := Align(s)
	if size%align != 0 {
		t.Fatalf("size(T)=%d not a multiple of align(T)=%d", size, align)
	}
	for i, f := range s.Fields {
		off := FieldOffset(s, i)
		if off+Size(f) > size {
			t.Errorf("field %d: offset %d + size %d > struct size %d", i, off, Size(f), size)
		}
	}
}

func TestPrimitiveSingletons(t *testing.T) {
	if I32T() != I32T() {
		t.Fatal("I32T() is not a singleton")
	}
	if BoolT() == I32T() {
		t.Fatal("distinct primitives must not alias")
	}
}

func TestEnumLayout(t *testing.T) {
	e := NewEnum("Result", []EnumVariant{
		{Name: "Ok", Payload: I64T()},
		{Name: "Err", Payload: CapabilityT()},
		{Name: "None"},
	})
	if Align(e) != 8 {
		t.Fatalf("align(Result) = %d, want 8", Align(e))
	}
	// max payload is Capability (32 bytes), already a multiple of 8.
	if got, want := Size(e), 8+32; got != want {
		t.Fatalf("size(Result) = %d, want %d", got, want)
	}
}

func TestVoidPattern(t *testing.T) {
	cases := []struct {
		t    *Type
		want uint64
	}{
		{I8T(), 0xFF},
		{U16T(), 0xFFFF},
		{I32T(), 0xFFFFFFFF},
		{U64T(), 0xFFFFFFFFFFFFFFFF},
	}
	for _, c := range cases {
		got, _, ok := VoidPattern(c.t)
		if !ok || got != c.want {
			t.Errorf("VoidPattern(%v) = (%x, %v), want %x", c.t.Kind, got, ok, c.want)
		}
	}
	if _, _, ok := VoidPattern(NewStruct("S", nil, nil)); ok {
		t.Error("VoidPattern should report ok=false for composite types")
	}
}
