package executor

import (
	"testing"

	"constexec/internal/diag"
	"constexec/internal/ir"
	"constexec/internal/memmodel"
	"constexec/internal/types"
)

func newTestEnv(t *testing.T) (*types.Set, *memmodel.Manager, *diag.Collector) {
	t.Helper()
	ts := types.NewSet(8)
	collector := diag.NewCollector(0)
	mem := memmodel.NewManager(ts, 8, collector)
	return ts, mem, collector
}

func newFuncBuilder(ts *types.Set, name string, ret *types.Type) (*ir.Function, *ir.Builder) {
	fn := &ir.Function{Name: name, ReturnType: ret}
	b := ir.NewBuilder(fn, ts)
	b.SetCurrentBasicBlock(b.AddBasicBlock())
	return fn, b
}

func TestCallReturnsComputedIntValue(t *testing.T) {
	ts, mem, collector := newTestEnv(t)
	i32 := ts.Builtin(types.I32)
	fn, b := newFuncBuilder(ts, "add", i32)

	lhs := b.CreateConstInt(ir.WI32, 2)
	rhs := b.CreateConstInt(ir.WI32, 3)
	b.CreateAddCheck(lhs, rhs, true)
	sum := b.CreateAdd(lhs, rhs, ir.I32)
	b.CreateRet(sum)
	fn.Finalize()

	ex := NewExecutor(mem, ts, collector, []*ir.Function{fn}, ir.LittleEndian)
	result := ex.Call(0, nil)

	if collector.HadError() {
		t.Fatalf("unexpected diagnostics: %v", collector.Diagnostics())
	}
	if result.I != 5 {
		t.Errorf("Call result = %d, want 5", result.I)
	}
}

func TestExecDivByZeroReportsErrorWithoutPanicking(t *testing.T) {
	ts, mem, collector := newTestEnv(t)
	i32 := ts.Builtin(types.I32)
	fn, b := newFuncBuilder(ts, "divzero", i32)

	lhs := b.CreateConstInt(ir.WI32, 10)
	rhs := b.CreateConstInt(ir.WI32, 0)
	b.CreateDivCheck(lhs, rhs, true)
	quotient := b.CreateDiv(lhs, rhs, ir.I32, true)
	b.CreateRet(quotient)
	fn.Finalize()

	ex := NewExecutor(mem, ts, collector, []*ir.Function{fn}, ir.LittleEndian)
	result := ex.Call(0, nil)

	if !collector.HadError() {
		t.Fatalf("division by zero did not produce an error diagnostic")
	}
	if result.I != 0 {
		t.Errorf("div-by-zero result = %d, want 0 (div itself never panics)", result.I)
	}
}

func TestExecRemByZeroReportsErrorWithoutPanicking(t *testing.T) {
	ts, mem, collector := newTestEnv(t)
	i32 := ts.Builtin(types.I32)
	fn, b := newFuncBuilder(ts, "remzero", i32)

	lhs := b.CreateConstInt(ir.WI32, 10)
	rhs := b.CreateConstInt(ir.WI32, 0)
	remainder := b.CreateRem(lhs, rhs, ir.I32, true)
	b.CreateRet(remainder)
	fn.Finalize()

	ex := NewExecutor(mem, ts, collector, []*ir.Function{fn}, ir.LittleEndian)
	result := ex.Call(0, nil)

	if !collector.HadError() {
		t.Fatalf("remainder by zero did not produce an error diagnostic")
	}
	if result.I != 0 {
		t.Errorf("rem-by-zero result = %d, want 0", result.I)
	}
}

// TestCallFreesFrameAfterReturn confirms Call tears down its stack frame via
// FreeFrame before returning, even though the returned pointer still points
// at the freed local — a caller that dereferences it must see a fault, not
// stale live memory.
func TestCallFreesFrameAfterReturn(t *testing.T) {
	ts, mem, collector := newTestEnv(t)
	i32 := ts.Builtin(types.I32)
	ptrT := ts.Pointer()
	fn, b := newFuncBuilder(ts, "dangling", ptrT)

	local := b.CreateAlloca(i32)
	b.CreateStartLifetime(local)
	seven := b.CreateConstInt(ir.WI32, 7)
	b.CreateStore(seven, local, ir.WI32, ir.LittleEndian)
	b.CreateRet(local)
	fn.Finalize()

	ex := NewExecutor(mem, ts, collector, []*ir.Function{fn}, ir.LittleEndian)
	result := ex.Call(0, nil)

	if f := mem.CheckDereference(result.P, i32, 0); f == nil {
		t.Errorf("CheckDereference succeeded on a pointer into a frame FreeFrame should have released")
	}
}

func TestCallRespectsMaxCallDepth(t *testing.T) {
	ts, mem, collector := newTestEnv(t)
	i32 := ts.Builtin(types.I32)
	fn, b := newFuncBuilder(ts, "infiniteRecursion", i32)

	call := b.CreateFunctionCall(0, nil, ir.I32)
	b.CreateRet(call)
	fn.Finalize()

	ex := NewExecutor(mem, ts, collector, []*ir.Function{fn}, ir.LittleEndian)
	ex.MaxCallDepth = 8

	ex.Call(0, nil)

	if !collector.HadError() {
		t.Fatalf("unbounded recursion did not trip the max call depth diagnostic")
	}
}

func TestExecArrayBoundsCheckReportsOutOfRangeIndex(t *testing.T) {
	ts, mem, collector := newTestEnv(t)
	i32 := ts.Builtin(types.I32)
	voidT := ts.Builtin(types.Void)
	fn, b := newFuncBuilder(ts, "oob", voidT)

	index := b.CreateConstInt(ir.WI32, 5)
	size := b.CreateConstInt(ir.WI32, 3)
	b.CreateArrayBoundsCheck(index, size, true)
	b.CreateRetVoid()
	fn.Finalize()

	ex := NewExecutor(mem, ts, collector, []*ir.Function{fn}, ir.LittleEndian)
	ex.Call(0, nil)

	if !collector.HadError() {
		t.Errorf("out-of-range array index did not report a diagnostic")
	}
}

func TestExecShiftOutOfRangeReportsError(t *testing.T) {
	ts, mem, collector := newTestEnv(t)
	i32 := ts.Builtin(types.I32)
	fn, b := newFuncBuilder(ts, "badshift", i32)

	lhs := b.CreateConstInt(ir.WI32, 1)
	rhs := b.CreateConstInt(ir.WI32, 40) // wider than i32's 32 bits
	shifted := b.CreateShl(lhs, rhs, ir.I32, true)
	b.CreateRet(shifted)
	fn.Finalize()

	ex := NewExecutor(mem, ts, collector, []*ir.Function{fn}, ir.LittleEndian)
	ex.Call(0, nil)

	if !collector.HadError() {
		t.Errorf("out-of-range shift amount did not report a diagnostic")
	}
}
