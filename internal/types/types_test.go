package types

import "testing"

func TestBuiltinSizesAndAlignment(t *testing.T) {
	s := NewSet(8)
	tests := []struct {
		kind       BuiltinKind
		wantSize   uint64
		wantAlign  uint64
	}{
		{I1, 1, 1},
		{I8, 1, 1},
		{I16, 2, 2},
		{I32, 4, 4},
		{I64, 8, 8},
		{F32, 4, 4},
		{F64, 8, 8},
		{Void, 0, 1},
	}
	for _, tt := range tests {
		got := s.Builtin(tt.kind)
		if got.Size() != tt.wantSize {
			t.Errorf("%s: size = %d, want %d", tt.kind, got.Size(), tt.wantSize)
		}
		if got.Align() != tt.wantAlign {
			t.Errorf("%s: align = %d, want %d", tt.kind, got.Align(), tt.wantAlign)
		}
		if !got.IsBuiltin() {
			t.Errorf("%s: IsBuiltin() = false", tt.kind)
		}
	}
}

func TestBuiltinIsInterned(t *testing.T) {
	s := NewSet(8)
	a := s.Builtin(I32)
	b := s.Builtin(I32)
	if a != b {
		t.Errorf("Builtin(I32) returned distinct pointers across calls")
	}
}

func TestPointerSizeTracksMachineWidth(t *testing.T) {
	for _, width := range []uint64{4, 8} {
		s := NewSet(width)
		p := s.Pointer()
		if p.Size() != width || p.Align() != width {
			t.Errorf("pointer width %d: got size=%d align=%d", width, p.Size(), p.Align())
		}
		if s.PointerSize() != width {
			t.Errorf("PointerSize() = %d, want %d", s.PointerSize(), width)
		}
	}
}

func TestNewSetRejectsUnsupportedPointerWidth(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("NewSet(6) did not panic on an unsupported pointer width")
		}
	}()
	NewSet(6)
}

func TestArrayIsContentAddressed(t *testing.T) {
	s := NewSet(8)
	i32 := s.Builtin(I32)
	a1 := s.Array(i32, 10)
	a2 := s.Array(i32, 10)
	if a1 != a2 {
		t.Errorf("Array(i32, 10) returned distinct pointers for the same (elem, count)")
	}
	if a1.Size() != 40 {
		t.Errorf("Array(i32, 10).Size() = %d, want 40", a1.Size())
	}
	if a1.Align() != i32.Align() {
		t.Errorf("array align = %d, want element align %d", a1.Align(), i32.Align())
	}

	a3 := s.Array(i32, 11)
	if a1 == a3 {
		t.Errorf("arrays with different counts were interned to the same pointer")
	}
}

func TestArrayPanicsOnSizeOverflow(t *testing.T) {
	s := NewSet(8)
	i64 := s.Builtin(I64)
	defer func() {
		if recover() == nil {
			t.Errorf("Array did not panic on an overflowing element count")
		}
	}()
	s.Array(i64, 1<<62)
}

func TestAggregateLayoutAndPadding(t *testing.T) {
	s := NewSet(8)
	i8 := s.Builtin(I8)
	i32 := s.Builtin(I32)

	// {i8, i32}: i8 at 0, i32 needs 4-byte alignment so it lands at offset 4,
	// total size 8 (rounded up to the aggregate's 4-byte alignment).
	agg := s.Aggregate([]*Type{i8, i32})
	wantOffsets := []uint64{0, 4}
	if len(agg.Offsets()) != 2 || agg.Offsets()[0] != wantOffsets[0] || agg.Offsets()[1] != wantOffsets[1] {
		t.Errorf("offsets = %v, want %v", agg.Offsets(), wantOffsets)
	}
	if agg.Size() != 8 {
		t.Errorf("size = %d, want 8", agg.Size())
	}
	if agg.Align() != 4 {
		t.Errorf("align = %d, want 4", agg.Align())
	}
}

func TestAggregateIsContentAddressed(t *testing.T) {
	s := NewSet(8)
	i32 := s.Builtin(I32)
	i8 := s.Builtin(I8)

	a1 := s.Aggregate([]*Type{i32, i8})
	a2 := s.Aggregate([]*Type{i32, i8})
	if a1 != a2 {
		t.Errorf("Aggregate returned distinct pointers for identical member lists")
	}

	a3 := s.Aggregate([]*Type{i8, i32})
	if a1 == a3 {
		t.Errorf("aggregates with different member order were interned to the same pointer")
	}
}

func TestStrAndSliceAreDistinctButStructurallyIdentical(t *testing.T) {
	s := NewSet(8)
	str := s.Str()
	slice := s.Slice()

	if str == slice {
		t.Errorf("Str() and Slice() returned the same pointer; they must be distinct identities")
	}
	if str.Size() != slice.Size() || str.Align() != slice.Align() {
		t.Errorf("str and slice should have identical layout: str size=%d align=%d, slice size=%d align=%d",
			str.Size(), str.Align(), slice.Size(), slice.Align())
	}
	if str.Size() != 2*s.PointerSize() {
		t.Errorf("str size = %d, want two pointers (%d)", str.Size(), 2*s.PointerSize())
	}

	// Repeated calls return the same cached handle.
	if s.Str() != str {
		t.Errorf("Str() is not idempotent")
	}
}

func TestNullTIsEmptyAggregate(t *testing.T) {
	s := NewSet(8)
	nt := s.NullT()
	if !nt.IsAggregate() {
		t.Errorf("NullT() is not an aggregate")
	}
	if nt.Size() != 0 || len(nt.Members()) != 0 {
		t.Errorf("NullT() size=%d members=%d, want 0 and empty", nt.Size(), len(nt.Members()))
	}
}

func TestOptionalWrapsValueWithFlag(t *testing.T) {
	s := NewSet(8)
	i32 := s.Builtin(I32)
	opt := s.Optional(i32)

	if !opt.IsAggregate() {
		t.Errorf("Optional(i32) is not an aggregate")
	}
	if len(opt.Members()) != 2 {
		t.Fatalf("Optional(i32) has %d members, want 2", len(opt.Members()))
	}
	if opt.Members()[0] != i32 {
		t.Errorf("Optional(i32)'s first member is not i32")
	}
	if opt.Members()[1] != s.Builtin(I1) {
		t.Errorf("Optional(i32)'s second member is not i1")
	}

	if s.Optional(i32) != opt {
		t.Errorf("Optional(i32) is not interned across calls")
	}
}

func TestKindPredicatesAreMutuallyExclusive(t *testing.T) {
	s := NewSet(8)
	i32 := s.Builtin(I32)
	ptr := s.Pointer()
	arr := s.Array(i32, 3)
	agg := s.Aggregate([]*Type{i32, i32})

	all := []struct {
		name string
		t    *Type
	}{
		{"builtin", i32},
		{"pointer", ptr},
		{"array", arr},
		{"aggregate", agg},
	}
	for _, tt := range all {
		count := 0
		for _, is := range []bool{tt.t.IsBuiltin(), tt.t.IsPointer(), tt.t.IsArray(), tt.t.IsAggregate()} {
			if is {
				count++
			}
		}
		if count != 1 {
			t.Errorf("%s: expected exactly one Is* predicate true, got %d", tt.name, count)
		}
	}
}
