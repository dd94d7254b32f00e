package memmodel

import (
	"testing"

	"constexec/internal/diag"
	"constexec/internal/ir"
	"constexec/internal/types"
)

func newTestManager(t *testing.T) (*Manager, *types.Set) {
	t.Helper()
	ts := types.NewSet(8)
	mem := NewManager(ts, 8, diag.NewCollector(0))
	return mem, ts
}

func TestAllocaRoundTripsAnInt(t *testing.T) {
	mem, ts := newTestManager(t)
	i32 := ts.Builtin(types.I32)
	ptr := mem.Alloca(i32, 0)

	if f := mem.StoreInt(ptr, ir.WI32, ir.LittleEndian, 42, 0); f != nil {
		t.Fatalf("StoreInt failed: %v", f)
	}
	got, f := mem.LoadInt(ptr, ir.WI32, ir.LittleEndian, true, 0)
	if f != nil {
		t.Fatalf("LoadInt failed: %v", f)
	}
	if got != 42 {
		t.Errorf("LoadInt() = %d, want 42", got)
	}
}

func TestFreeFrameReleasesObjectsLIFO(t *testing.T) {
	mem, ts := newTestManager(t)
	i32 := ts.Builtin(types.I32)

	mark := mem.StackMark()
	a := mem.Alloca(i32, 0)
	_ = mem.Alloca(i32, 0)
	mem.FreeFrame(mark)

	if f := mem.CheckDereference(a, i32, 0); f == nil {
		t.Errorf("CheckDereference succeeded on an object freed by FreeFrame")
	}
}

func TestFreeFrameDoesNotReleaseObjectsBeforeMark(t *testing.T) {
	mem, ts := newTestManager(t)
	i32 := ts.Builtin(types.I32)

	outer := mem.Alloca(i32, 0)
	mark := mem.StackMark()
	mem.Alloca(i32, 0)
	mem.FreeFrame(mark)

	if f := mem.CheckDereference(outer, i32, 0); f != nil {
		t.Errorf("FreeFrame released an object allocated before its mark: %v", f)
	}
}

func TestCheckDereferenceRejectsNullPointer(t *testing.T) {
	mem, ts := newTestManager(t)
	i32 := ts.Builtin(types.I32)
	if f := mem.CheckDereference(0, i32, 0); f == nil {
		t.Errorf("CheckDereference(0, ...) succeeded on the null pointer")
	}
}

func TestCheckDereferenceRejectsOutOfBoundsAccess(t *testing.T) {
	mem, ts := newTestManager(t)
	i32 := ts.Builtin(types.I32)
	arrT := ts.Array(i32, 3) // 12 bytes
	base := mem.Alloca(arrT, 0)

	// One past the last element: offset 12, accessing 4 bytes -> 16 > 12.
	oob := base.withOffset(12)
	if f := mem.CheckDereference(oob, i32, 0); f == nil {
		t.Errorf("CheckDereference allowed an access past the end of a 3-element array")
	}

	// Well inside bounds: offset 4 (second element).
	inBounds := base.withOffset(4)
	if f := mem.CheckDereference(inBounds, i32, 0); f != nil {
		t.Errorf("CheckDereference rejected an in-bounds access: %v", f)
	}
}

func TestCheckDereferenceNeverPanicsOnOutOfBoundsOffset(t *testing.T) {
	mem, ts := newTestManager(t)
	i32 := ts.Builtin(types.I32)
	base := mem.Alloca(i32, 0)

	// Wildly out-of-range offset must still come back as a *Fault, not a
	// slice-index panic.
	wild := base.withOffset(1 << 20)
	f := mem.CheckDereference(wild, i32, 0)
	if f == nil {
		t.Fatalf("expected a fault for a wildly out-of-bounds offset")
	}
}

func TestFreeDetectsDoubleFree(t *testing.T) {
	mem, ts := newTestManager(t)
	i32 := ts.Builtin(types.I32)
	ptr, f := mem.Malloc(i32, 1, 0)
	if f != nil {
		t.Fatalf("Malloc failed: %v", f)
	}
	if f := mem.Free(ptr, i32, 0); f != nil {
		t.Fatalf("first Free failed: %v", f)
	}
	if f := mem.Free(ptr, i32, 0); f == nil {
		t.Errorf("second Free on the same pointer succeeded; want double-free fault")
	}
}

func TestFreeRejectsNonHeapPointer(t *testing.T) {
	mem, ts := newTestManager(t)
	i32 := ts.Builtin(types.I32)
	stackPtr := mem.Alloca(i32, 0)
	if f := mem.Free(stackPtr, i32, 0); f == nil {
		t.Errorf("Free succeeded on a stack pointer; want a non-heap fault")
	}
}

func TestMallocRejectsZeroCount(t *testing.T) {
	mem, ts := newTestManager(t)
	i32 := ts.Builtin(types.I32)
	if _, f := mem.Malloc(i32, 0, 0); f == nil {
		t.Errorf("Malloc(count=0) succeeded; want a fault")
	}
}

func TestCheckPtrArithmeticAllowsOnePastEnd(t *testing.T) {
	mem, ts := newTestManager(t)
	i32 := ts.Builtin(types.I32)
	arrT := ts.Array(i32, 3) // 12 bytes
	base := mem.Alloca(arrT, 0)

	if f := mem.CheckPtrArithmetic(base, 12, arrT, 0); f != nil {
		t.Errorf("one-past-end pointer arithmetic rejected: %v", f)
	}
	if f := mem.CheckPtrArithmetic(base, 16, arrT, 0); f == nil {
		t.Errorf("pointer arithmetic past one-past-end accepted; want a fault")
	}
	if f := mem.CheckPtrArithmetic(base, -4, arrT, 0); f == nil {
		t.Errorf("pointer arithmetic before the object's start accepted; want a fault")
	}
}

func TestPtrAddCanonicalizesOnePastEndToMetaSegment(t *testing.T) {
	mem, ts := newTestManager(t)
	i32 := ts.Builtin(types.I32)
	arrT := ts.Array(i32, 3)
	base := mem.Alloca(arrT, 0)

	end, f := mem.PtrAdd(base, 12, arrT, 0)
	if f != nil {
		t.Fatalf("PtrAdd to one-past-end failed: %v", f)
	}
	if end.Segment() != SegMeta {
		t.Errorf("one-past-end pointer segment = %s, want meta", end.Segment())
	}
}

func TestStructGepAndArrayGepAddressing(t *testing.T) {
	mem, ts := newTestManager(t)
	i8 := ts.Builtin(types.I8)
	i32 := ts.Builtin(types.I32)
	agg := ts.Aggregate([]*types.Type{i8, i32}) // i32 member at offset 4

	base := mem.Alloca(agg, 0)
	field := mem.StructGep(base, agg, 1)
	if field.Offset() != 4 {
		t.Errorf("StructGep offset = %d, want 4", field.Offset())
	}

	arrT := ts.Array(i32, 4)
	arrBase := mem.Alloca(arrT, 0)
	elem2 := mem.ArrayGep(arrBase, 2, i32)
	if elem2.Offset() != 8 {
		t.Errorf("ArrayGep(2) offset = %d, want 8", elem2.Offset())
	}
}

func TestStringLenAndSliceConstructionChecks(t *testing.T) {
	mem, ts := newTestManager(t)
	i8 := ts.Builtin(types.I8)
	arrT := ts.Array(i8, 5)
	begin := mem.Alloca(arrT, 0)
	end := begin.withOffset(5)

	n, f := mem.StringLen(begin, end)
	if f != nil {
		t.Fatalf("StringLen failed: %v", f)
	}
	if n != 5 {
		t.Errorf("StringLen() = %d, want 5", n)
	}

	if f := mem.CheckSliceConstruction(begin, end, i8, 0); f != nil {
		t.Errorf("valid slice construction rejected: %v", f)
	}
	if f := mem.CheckSliceConstruction(end, begin, i8, 0); f == nil {
		t.Errorf("slice construction with end before begin accepted; want a fault")
	}
}

func TestNullAddrIsAlwaysNull(t *testing.T) {
	var zero Addr
	if !zero.IsNull() {
		t.Errorf("Addr(0).IsNull() = false")
	}
	mem, ts := newTestManager(t)
	ptr := mem.Alloca(ts.Builtin(types.I32), 0)
	if ptr.IsNull() {
		t.Errorf("a freshly allocated object's address reports IsNull()")
	}
}
