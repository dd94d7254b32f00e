package ir

import (
	"testing"

	"constexec/internal/types"
)

func newTestFunc() (*Function, *Builder) {
	fn := &Function{Name: "test"}
	b := NewBuilder(fn, types.NewSet(8))
	b.SetCurrentBasicBlock(b.AddBasicBlock())
	return fn, b
}

func TestBuilderEnsuresOpenBlockAfterTerminator(t *testing.T) {
	fn, b := newTestFunc()
	b.CreateJump(b.AddBasicBlock())
	if !b.HasTerminator() {
		t.Fatalf("block should be terminated after CreateJump")
	}
	// The next Create* call must silently open a new block rather than
	// append after a terminator.
	ref := b.CreateConstInt(WI32, 7)
	if ref.Block == uint32(0) {
		t.Errorf("instruction after a terminator landed in the terminated block")
	}
	if len(fn.Blocks) < 2 {
		t.Errorf("ensureOpenBlock did not open a fresh block")
	}
}

func TestAllocaUsesSentinelBlockRef(t *testing.T) {
	_, b := newTestFunc()
	i32 := b.TypeSet.Builtin(types.I32)
	ref := b.CreateAlloca(i32)
	if !ref.IsAlloca() {
		t.Errorf("CreateAlloca's ref does not report IsAlloca()")
	}
	if ref.Index != 0 {
		t.Errorf("first alloca's Index = %d, want 0", ref.Index)
	}
}

func TestFinalizeAssignsAllocaValueIndicesFirst(t *testing.T) {
	fn, b := newTestFunc()
	i32 := b.TypeSet.Builtin(types.I32)
	a0 := b.CreateAlloca(i32)
	a1 := b.CreateAlloca(i32)
	c := b.CreateConstInt(WI32, 1)
	b.CreateStore(c, a0, WI32, LittleEndian)
	b.CreateRetVoid()

	fn.Finalize()

	if !fn.Finalized {
		t.Fatalf("Finalize did not set Finalized")
	}
	// NumValues: 2 allocas + however many flat instructions.
	if fn.NumValues() != len(fn.Allocas)+len(fn.Instructions) {
		t.Errorf("NumValues() mismatch")
	}

	// Find the store instruction and confirm its ptr operand (a0) resolved
	// to ValueIndex 0, and a1 (unused operand-wise) still occupies index 1
	// conceptually — allocas always precede instruction-derived slots.
	var store *Instruction
	for i := range fn.Instructions {
		if fn.Instructions[i].Op == OpStore {
			store = &fn.Instructions[i]
		}
	}
	if store == nil {
		t.Fatalf("store instruction not found after finalize")
	}
	if store.Args[0] != ValueIndex(0) {
		t.Errorf("store's ptr operand = %d, want 0 (a0's alloca slot)", store.Args[0])
	}
	_ = a1
}

func TestFinalizeIsIdempotent(t *testing.T) {
	fn, b := newTestFunc()
	b.CreateRetVoid()
	fn.Finalize()
	first := len(fn.Instructions)
	fn.Finalize()
	if len(fn.Instructions) != first {
		t.Errorf("calling Finalize twice changed the flattened instruction count")
	}
}

func TestFinalizeRewritesJumpTargetsToInstrIndex(t *testing.T) {
	fn, b := newTestFunc()
	target := b.AddBasicBlock()
	jumpRef := b.CreateJump(target)
	b.SetCurrentBasicBlock(target)
	b.CreateRetVoid()
	fn.Finalize()

	flatJump := fn.Instructions[valueIndexToFlat(fn, jumpRef)]
	if flatJump.Op != OpJump {
		t.Fatalf("expected OpJump at the rewritten location")
	}
	wantTarget := fn.Blocks[target].ValueOffset
	if flatJump.Jump[0] != wantTarget {
		t.Errorf("jump target = %d, want block %d's offset %d", flatJump.Jump[0], target, wantTarget)
	}
}

// valueIndexToFlat finds the flat instruction index correspnding to ref,
// using the block offsets Finalize has already computed.
func valueIndexToFlat(fn *Function, ref InstrRef) int {
	return int(fn.Blocks[ref.Block].ValueOffset) + int(ref.Index)
}

func TestFinalizeSortsSwitchCasesByValue(t *testing.T) {
	fn, b := newTestFunc()
	def := b.AddBasicBlock()
	c3 := b.AddBasicBlock()
	c1 := b.AddBasicBlock()
	scrutinee := b.CreateConstInt(WI32, 0)
	switchRef := b.CreateSwitch(scrutinee, []SwitchCase{
		{Value: 3, DestRaw: uint32(c3)},
		{Value: 1, DestRaw: uint32(c1)},
	}, def)
	b.SetCurrentBasicBlock(def)
	b.CreateRetVoid()
	b.SetCurrentBasicBlock(c3)
	b.CreateRetVoid()
	b.SetCurrentBasicBlock(c1)
	b.CreateRetVoid()

	fn.Finalize()

	flat := fn.Instructions[valueIndexToFlat(fn, switchRef)]
	table := fn.Switches[flat.SwitchTableIndex]
	if len(table.Cases) != 2 {
		t.Fatalf("switch table has %d cases, want 2", len(table.Cases))
	}
	if table.Cases[0].Value != 1 || table.Cases[1].Value != 3 {
		t.Errorf("cases not sorted by value: got %d, %d", table.Cases[0].Value, table.Cases[1].Value)
	}
}

func TestOpIsTerminator(t *testing.T) {
	terminators := []Op{OpJump, OpConditionalJump, OpSwitch, OpRet, OpRetVoid, OpUnreachable}
	for _, op := range terminators {
		if !op.IsTerminator() {
			t.Errorf("%v: IsTerminator() = false, want true", op)
		}
	}
	nonTerminators := []Op{OpConstInt, OpAdd, OpLoad, OpStore, OpAlloca}
	for _, op := range nonTerminators {
		if op.IsTerminator() {
			t.Errorf("%v: IsTerminator() = true, want false", op)
		}
	}
}

func TestWidthValueTypeMapping(t *testing.T) {
	tests := []struct {
		w    Width
		want ValueType
	}{
		{WI1, I1}, {WI8, I8}, {WI16, I16}, {WI32, I32}, {WI64, I64},
		{WF32, F32}, {WF64, F64}, {WPtr32, Ptr}, {WPtr64, Ptr},
	}
	for _, tt := range tests {
		if got := tt.w.ValueType(); got != tt.want {
			t.Errorf("%v.ValueType() = %v, want %v", tt.w, got, tt.want)
		}
	}
}
