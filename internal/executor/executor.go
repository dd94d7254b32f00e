// Package executor implements a tree-walking executor: it drives a
// finalized internal/ir.Function's instruction stream directly (no further
// lowering, no JIT), performing every memory access through internal/memmodel
// and routing every diagnostic through internal/diag, used to run
// consteval/array-bounds/pointer-arithmetic/diagnostic-check evaluation at
// compile time.
//
// Dispatch is a switch over internal/ir.Op rather than a byte-fetching
// fetch/decode loop, since a finalized Function is already a flat, fully
// decoded instruction array.
package executor

import (
	"fmt"
	"math"
	"math/bits"

	"constexec/internal/diag"
	"constexec/internal/ir"
	"constexec/internal/memmodel"
	"constexec/internal/types"
)

// Frame is one call's live evaluation state: its value slots (allocas
// first, then one per instruction, per internal/ir.Function.NumValues) and
// its incoming argument values.
type Frame struct {
	Fn     *ir.Function
	Values []Value
	Args   []Value

	Returned    bool
	ReturnValue Value
}

// Executor runs finalized internal/ir.Function bodies against a shared
// memmodel.Manager and diag.Collector. One Executor evaluates one
// compilation's whole function arena, so a function_call instruction can
// look up its callee by index without any further linking step.
type Executor struct {
	Mem    *memmodel.Manager
	Types  *types.Set
	Diag   *diag.Collector
	Funcs  []*ir.Function
	Endian ir.Endian

	// MaxCallDepth bounds recursion so a runaway consteval recursive
	// function reports a diagnostic instead of exhausting the host stack.
	MaxCallDepth int

	callDepth int
}

// NewExecutor creates an Executor sharing mem/collector with the code
// generator that produced funcs (codegen's global objects and the
// executor's reads of them must agree on both).
func NewExecutor(mem *memmodel.Manager, ts *types.Set, collector *diag.Collector, funcs []*ir.Function, endian ir.Endian) *Executor {
	return &Executor{
		Mem: mem, Types: ts, Diag: collector, Funcs: funcs, Endian: endian,
		MaxCallDepth: 4096,
	}
}

// Call evaluates fn at fnIndex with the given already-evaluated argument
// values and returns its result (zero Value for a void function). Failures
// specific to the evaluated program surface as diag.Collector diagnostics,
// not as a Go error; callers check ex.Diag.HadError() after Call returns.
func (ex *Executor) Call(fnIndex int32, args []Value) Value {
	if ex.callDepth >= ex.MaxCallDepth {
		ex.Diag.Error(0, "maximum consteval call depth exceeded")
		return noneValue()
	}
	fn := ex.Funcs[fnIndex]
	if !fn.Finalized {
		diag.FatalViolation("executor: call into unfinalized function %q", fn.Name)
	}

	frame := &Frame{Fn: fn, Values: make([]Value, fn.NumValues()), Args: args}
	mark := ex.Mem.StackMark()
	ex.setupAllocas(frame)

	ex.callDepth++
	ex.run(frame)
	ex.callDepth--

	ex.Mem.FreeFrame(mark)
	return frame.ReturnValue
}

func (ex *Executor) setupAllocas(frame *Frame) {
	for i, info := range frame.Fn.Allocas {
		var addr memmodel.Addr
		if info.HasLifetime {
			addr = ex.Mem.Alloca(info.Type, 0)
		} else {
			addr = ex.Mem.AllocaWithoutLifetime(info.Type, 0)
		}
		frame.Values[i] = ptrValue(addr)
	}
}

// run drives frame's instruction stream from its first instruction until a
// ret/ret_void terminates the call.
func (ex *Executor) run(frame *Frame) {
	fn := frame.Fn
	numAllocas := len(fn.Allocas)
	pc := ir.InstrIndex(0)

	for int(pc) < len(fn.Instructions) {
		inst := &fn.Instructions[pc]

		if inst.Op.IsTerminator() {
			next, done := ex.execTerminator(frame, inst)
			if done {
				return
			}
			pc = next
			continue
		}

		switch inst.Op {
		case ir.OpAlloca, ir.OpAllocaNoLifetime:
			// Recorded only for debug position; the live value already sits
			// in the alloca's own slot, populated before the loop started.
		default:
			frame.Values[numAllocas+int(pc)] = ex.execValue(frame, inst)
		}
		pc++
	}

	diag.FatalViolation("executor: function %q fell off the end of its instruction stream", fn.Name)
}

func (ex *Executor) span(fn *ir.Function, inst *ir.Instruction) diag.SourceSpan {
	if inst.SrcTokens < 0 {
		return 0
	}
	return diag.SourceSpan(fn.SrcTokens[inst.SrcTokens])
}

func (ex *Executor) readString(begin, end memmodel.Addr) string {
	n, f := ex.Mem.StringLen(begin, end)
	if f != nil {
		return ""
	}
	raw, f := ex.Mem.GetMemoryRaw(begin, 0)
	if f != nil || uint64(len(raw)) < n {
		return ""
	}
	return string(raw[:n])
}

// execTerminator executes a block-ending instruction, returning the next
// InstrIndex to run and whether the call is now complete.
func (ex *Executor) execTerminator(frame *Frame, inst *ir.Instruction) (ir.InstrIndex, bool) {
	fn := frame.Fn
	switch inst.Op {
	case ir.OpJump:
		return inst.Jump[0], false

	case ir.OpConditionalJump:
		if frame.Values[inst.Args[0]].bool() {
			return inst.Jump[0], false
		}
		return inst.Jump[1], false

	case ir.OpSwitch:
		scrutinee := uint64(frame.Values[inst.Args[0]].I)
		table := fn.Switches[inst.SwitchTableIndex]
		lo, hi := 0, len(table.Cases)
		for lo < hi {
			mid := (lo + hi) / 2
			if table.Cases[mid].Value < scrutinee {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo < len(table.Cases) && table.Cases[lo].Value == scrutinee {
			return ir.InstrIndex(table.Cases[lo].DestRaw), false
		}
		return ir.InstrIndex(table.DefaultRaw), false

	case ir.OpRet:
		frame.ReturnValue = frame.Values[inst.Args[0]]
		frame.Returned = true
		return 0, true

	case ir.OpRetVoid:
		frame.Returned = true
		return 0, true

	case ir.OpUnreachable:
		diag.FatalViolation("executor: reached unreachable instruction in %q", fn.Name)
		return 0, true

	default:
		diag.FatalViolation("executor: unknown terminator opcode %s", inst.Op)
		return 0, true
	}
}

// execValue executes a non-terminator instruction and returns the value to
// store in its own value slot (the zero Value for instructions with no
// result, e.g. store/diagnostics-as-instructions).
func (ex *Executor) execValue(frame *Frame, inst *ir.Instruction) Value {
	fn := frame.Fn
	src := ex.span(fn, inst)
	args := inst.Args

	switch inst.Op {

	// --- Constants ---------------------------------------------------
	case ir.OpConstInt:
		return intValue(inst.Width.ValueType(), inst.IntVal)
	case ir.OpConstFloat:
		return floatValue(inst.Width.ValueType(), inst.FloatVal)
	case ir.OpConstPtrNull:
		return ptrValue(0)

	// --- Memory --------------------------------------------------------
	case ir.OpLoad:
		return ex.execLoad(frame.Values[args[0]].P, inst, src)
	case ir.OpStore:
		ex.execStore(frame.Values[args[0]].P, frame.Values[args[1]], inst, src)
		return noneValue()
	case ir.OpStartLifetime:
		ex.Mem.StartLifetime(frame.Values[args[0]].P)
		return noneValue()
	case ir.OpEndLifetime:
		ex.Mem.EndLifetime(frame.Values[args[0]].P)
		return noneValue()
	case ir.OpStructGep:
		base := frame.Values[args[0]].P
		return ptrValue(ex.Mem.StructGep(base, inst.Type, int(inst.IntVal)))
	case ir.OpArrayGep:
		base := frame.Values[args[0]].P
		index := frame.Values[args[1]].I
		return ptrValue(ex.Mem.ArrayGep(base, index, inst.Type))
	case ir.OpConstMemcpy:
		f := ex.Mem.ConstMemcpy(frame.Values[args[0]].P, frame.Values[args[1]].P, uint64(inst.IntVal), src)
		ex.reportFault(f, src)
		return noneValue()
	case ir.OpConstMemsetZero:
		f := ex.Mem.ConstMemsetZero(frame.Values[args[0]].P, uint64(inst.IntVal), src)
		ex.reportFault(f, src)
		return noneValue()
	case ir.OpGetGlobalAddress:
		return ptrValue(memmodel.Addr(uint64(inst.IntVal)))
	case ir.OpCreateGlobalObject:
		diag.FatalViolation("executor: create_global_object must never appear in a block")
		return noneValue()

	// --- Casts -----------------------------------------------------------
	case ir.OpCastIntTrunc:
		return intValue(inst.Width.ValueType(), frame.Values[args[0]].I)
	case ir.OpCastIntZext:
		v := frame.Values[args[0]]
		raw := uint64(v.I) & mask(widthBits(v.VT))
		return intValue(inst.Width.ValueType(), int64(raw))
	case ir.OpCastIntSext:
		return intValue(inst.Width.ValueType(), frame.Values[args[0]].I)
	case ir.OpCastFloatFloat:
		return floatValue(inst.Width.ValueType(), frame.Values[args[0]].F)
	case ir.OpCastFloatToInt:
		f := frame.Values[args[0]].F
		if math.IsNaN(f) {
			return intValue(inst.Width.ValueType(), 0)
		}
		return intValue(inst.Width.ValueType(), int64(f))
	case ir.OpCastIntToFloat:
		v := frame.Values[args[0]]
		if inst.Signed {
			return floatValue(inst.Width.ValueType(), float64(v.I))
		}
		raw := uint64(v.I) & mask(widthBits(v.VT))
		return floatValue(inst.Width.ValueType(), float64(raw))

	// --- Comparisons -------------------------------------------------
	case ir.OpIntCmpEq:
		return boolValue(frame.Values[args[0]].I == frame.Values[args[1]].I)
	case ir.OpIntCmpNeq:
		return boolValue(frame.Values[args[0]].I != frame.Values[args[1]].I)
	case ir.OpIntCmpLt:
		return boolValue(cmpInt(frame.Values[args[0]], frame.Values[args[1]], inst.Signed) < 0)
	case ir.OpIntCmpGt:
		return boolValue(cmpInt(frame.Values[args[0]], frame.Values[args[1]], inst.Signed) > 0)
	case ir.OpIntCmpLte:
		return boolValue(cmpInt(frame.Values[args[0]], frame.Values[args[1]], inst.Signed) <= 0)
	case ir.OpIntCmpGte:
		return boolValue(cmpInt(frame.Values[args[0]], frame.Values[args[1]], inst.Signed) >= 0)

	case ir.OpFloatCmpEq:
		return boolValue(frame.Values[args[0]].F == frame.Values[args[1]].F)
	case ir.OpFloatCmpNeq:
		return boolValue(frame.Values[args[0]].F != frame.Values[args[1]].F)
	case ir.OpFloatCmpLt:
		return boolValue(frame.Values[args[0]].F < frame.Values[args[1]].F)
	case ir.OpFloatCmpGt:
		return boolValue(frame.Values[args[0]].F > frame.Values[args[1]].F)
	case ir.OpFloatCmpLte:
		return boolValue(frame.Values[args[0]].F <= frame.Values[args[1]].F)
	case ir.OpFloatCmpGte:
		return boolValue(frame.Values[args[0]].F >= frame.Values[args[1]].F)

	case ir.OpFloatCmpEqCheck, ir.OpFloatCmpNeqCheck, ir.OpFloatCmpLtCheck,
		ir.OpFloatCmpGtCheck, ir.OpFloatCmpLteCheck, ir.OpFloatCmpGteCheck:
		a, b := frame.Values[args[0]].F, frame.Values[args[1]].F
		if math.IsNaN(a) || math.IsNaN(b) {
			ex.Diag.Warning(diag.WarnFloatOverflow, src, "comparison with NaN operand is always false (except !=)")
		}
		return noneValue()

	case ir.OpPointerCmpEq:
		return boolValue(frame.Values[args[0]].P == frame.Values[args[1]].P)
	case ir.OpPointerCmpNeq:
		return boolValue(frame.Values[args[0]].P != frame.Values[args[1]].P)
	case ir.OpPointerCmpLt:
		return boolValue(frame.Values[args[0]].P < frame.Values[args[1]].P)
	case ir.OpPointerCmpGt:
		return boolValue(frame.Values[args[0]].P > frame.Values[args[1]].P)
	case ir.OpPointerCmpLte:
		return boolValue(frame.Values[args[0]].P <= frame.Values[args[1]].P)
	case ir.OpPointerCmpGte:
		return boolValue(frame.Values[args[0]].P >= frame.Values[args[1]].P)

	// --- Arithmetic ----------------------------------------------------
	case ir.OpNeg:
		v := frame.Values[args[0]]
		if isFloatVT(inst.Result) {
			return floatValue(inst.Result, -v.F)
		}
		return intValue(inst.Result, -v.I)
	case ir.OpNegCheck:
		v := frame.Values[args[0]]
		if !isFloatVT(v.VT) && isMinValue(v.VT, v.I) {
			ex.Diag.Warning(diag.WarnIntOverflow, src, "negation overflow")
		}
		return noneValue()

	case ir.OpAdd:
		return ex.execArith(inst, frame.Values[args[0]], frame.Values[args[1]], func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
	case ir.OpAddCheck:
		lhs, rhs := frame.Values[args[0]], frame.Values[args[1]]
		if _, overflow := checkedAdd(lhs.VT, inst.Signed, lhs.I, rhs.I); overflow {
			ex.Diag.Warning(diag.WarnIntOverflow, src, "integer overflow in addition")
		}
		return noneValue()

	case ir.OpPtrAddConstUnchecked:
		return ptrValue(ex.Mem.UncheckedOffset(frame.Values[args[0]].P, inst.IntVal))
	case ir.OpPtrAdd:
		return ex.execPtrOffset(frame.Values[args[0]].P, frame.Values[args[1]].I, inst, src, 1)
	case ir.OpSub:
		return ex.execArith(inst, frame.Values[args[0]], frame.Values[args[1]], func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
	case ir.OpSubCheck:
		lhs, rhs := frame.Values[args[0]], frame.Values[args[1]]
		if _, overflow := checkedSub(lhs.VT, inst.Signed, lhs.I, rhs.I); overflow {
			ex.Diag.Warning(diag.WarnIntOverflow, src, "integer overflow in subtraction")
		}
		return noneValue()
	case ir.OpPtrSub:
		return ex.execPtrOffset(frame.Values[args[0]].P, frame.Values[args[1]].I, inst, src, -1)
	case ir.OpPtrDiff:
		return ex.execPtrDiff(frame.Values[args[0]].P, frame.Values[args[1]].P, inst, src, true)
	case ir.OpPtrDiffUnchecked:
		return ex.execPtrDiff(frame.Values[args[0]].P, frame.Values[args[1]].P, inst, src, false)

	case ir.OpMul:
		return ex.execArith(inst, frame.Values[args[0]], frame.Values[args[1]], func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
	case ir.OpMulCheck:
		lhs, rhs := frame.Values[args[0]], frame.Values[args[1]]
		if _, overflow := checkedMul(lhs.VT, inst.Signed, lhs.I, rhs.I); overflow {
			ex.Diag.Warning(diag.WarnIntOverflow, src, "integer overflow in multiplication")
		}
		return noneValue()

	case ir.OpDiv:
		return ex.execDiv(inst, frame.Values[args[0]], frame.Values[args[1]])
	case ir.OpDivCheck:
		lhs, rhs := frame.Values[args[0]], frame.Values[args[1]]
		if !isFloatVT(lhs.VT) {
			if rhs.I == 0 {
				ex.Diag.Error(src, "division by zero")
			} else if inst.Signed && isMinValue(lhs.VT, lhs.I) && rhs.I == -1 {
				ex.Diag.Error(src, "signed integer division overflow")
			}
		}
		return noneValue()
	case ir.OpRem:
		return ex.execRem(inst, frame.Values[args[0]], frame.Values[args[1]], src)

	case ir.OpNot:
		return intValue(inst.Result, ^frame.Values[args[0]].I)
	case ir.OpAnd:
		return intValue(inst.Result, frame.Values[args[0]].I&frame.Values[args[1]].I)
	case ir.OpXor:
		return intValue(inst.Result, frame.Values[args[0]].I^frame.Values[args[1]].I)
	case ir.OpOr:
		return intValue(inst.Result, frame.Values[args[0]].I|frame.Values[args[1]].I)
	case ir.OpShl:
		return ex.execShl(inst, frame.Values[args[0]], frame.Values[args[1]], src)
	case ir.OpShr:
		return ex.execShr(inst, frame.Values[args[0]], frame.Values[args[1]], src)

	// --- Bit-twiddling ---------------------------------------------------
	case ir.OpBitreverse:
		w := widthBits(inst.Result)
		raw := uint64(frame.Values[args[0]].I) & mask(w)
		return intValue(inst.Result, int64(bitReverse(raw, w)))
	case ir.OpPopcount:
		w := widthBits(frame.Values[args[0]].VT)
		raw := uint64(frame.Values[args[0]].I) & mask(w)
		return intValue(inst.Result, int64(bits.OnesCount64(raw)))
	case ir.OpByteswap:
		w := widthBits(inst.Result)
		raw := uint64(frame.Values[args[0]].I) & mask(w)
		return intValue(inst.Result, int64(byteSwap(raw, w)))
	case ir.OpClz:
		w := widthBits(frame.Values[args[0]].VT)
		raw := uint64(frame.Values[args[0]].I) & mask(w)
		return intValue(inst.Result, int64(leadingZeros(raw, w)))
	case ir.OpCtz:
		w := widthBits(frame.Values[args[0]].VT)
		raw := uint64(frame.Values[args[0]].I) & mask(w)
		return intValue(inst.Result, int64(trailingZeros(raw, w)))
	case ir.OpFshl, ir.OpFshr:
		w := widthBits(inst.Result)
		a := uint64(frame.Values[args[0]].I) & mask(w)
		c := uint64(frame.Values[args[1]].I) & mask(w)
		amt := uint(uint64(frame.Values[args[2]].I) & mask(w))
		if inst.Op == ir.OpFshl {
			return intValue(inst.Result, int64(funnelLeft(a, c, amt, w)))
		}
		return intValue(inst.Result, int64(funnelRight(a, c, amt, w)))

	// --- Math intrinsics --------------------------------------------
	case ir.OpAbs:
		v := frame.Values[args[0]]
		if isFloatVT(inst.Result) {
			return floatValue(inst.Result, math.Abs(v.F))
		}
		if v.I < 0 {
			return intValue(inst.Result, -v.I)
		}
		return intValue(inst.Result, v.I)
	case ir.OpAbsCheck:
		v := frame.Values[args[0]]
		if !isFloatVT(v.VT) && isMinValue(v.VT, v.I) {
			ex.Diag.Warning(diag.WarnIntOverflow, src, "abs overflow")
		}
		return noneValue()
	case ir.OpMin, ir.OpMax:
		return ex.execMinMax(inst, frame.Values[args[0]], frame.Values[args[1]])
	case ir.OpMinCheck, ir.OpMaxCheck:
		a, b := frame.Values[args[0]], frame.Values[args[1]]
		if isFloatVT(a.VT) && (math.IsNaN(a.F) || math.IsNaN(b.F)) {
			ex.Diag.Warning(diag.WarnFloatOverflow, src, "min/max with NaN operand")
		}
		return noneValue()

	case ir.OpSqrt:
		return floatValue(inst.Result, math.Sqrt(frame.Values[args[0]].F))
	case ir.OpSqrtCheck:
		if frame.Values[args[0]].F < 0 {
			ex.Diag.Error(src, "sqrt of a negative number")
		}
		return noneValue()

	default:
		return ex.execMathOrDiagnostic(frame, inst, src)
	}
}

// isFloatVT reports whether vt denotes a float value.
func isFloatVT(vt ir.ValueType) bool { return vt == ir.F32 || vt == ir.F64 }

func cmpInt(a, b Value, signed bool) int {
	if signed {
		switch {
		case a.I < b.I:
			return -1
		case a.I > b.I:
			return 1
		default:
			return 0
		}
	}
	w := widthBits(a.VT)
	ua, ub := uint64(a.I)&mask(w), uint64(b.I)&mask(w)
	switch {
	case ua < ub:
		return -1
	case ua > ub:
		return 1
	default:
		return 0
	}
}

func (ex *Executor) execArith(inst *ir.Instruction, lhs, rhs Value, iop func(a, b int64) int64, fop func(a, b float64) float64) Value {
	if isFloatVT(inst.Result) {
		return floatValue(inst.Result, fop(lhs.F, rhs.F))
	}
	if inst.Result == ir.Ptr {
		return ptrValue(ex.Mem.UncheckedOffset(lhs.P, iop(0, rhs.I)))
	}
	return intValue(inst.Result, iop(lhs.I, rhs.I))
}

func (ex *Executor) execDiv(inst *ir.Instruction, lhs, rhs Value) Value {
	if isFloatVT(inst.Result) {
		return floatValue(inst.Result, lhs.F/rhs.F)
	}
	if rhs.I == 0 {
		return intValue(inst.Result, 0) // already reported by the preceding div_check
	}
	if inst.Signed {
		return intValue(inst.Result, lhs.I/rhs.I)
	}
	w := widthBits(lhs.VT)
	ua, ub := uint64(lhs.I)&mask(w), uint64(rhs.I)&mask(w)
	return intValue(inst.Result, int64(ua/ub))
}

func (ex *Executor) execRem(inst *ir.Instruction, lhs, rhs Value, src diag.SourceSpan) Value {
	if isFloatVT(inst.Result) {
		return floatValue(inst.Result, math.Mod(lhs.F, rhs.F))
	}
	if rhs.I == 0 {
		ex.Diag.Error(src, "remainder by zero")
		return intValue(inst.Result, 0)
	}
	if inst.Signed {
		return intValue(inst.Result, lhs.I%rhs.I)
	}
	w := widthBits(lhs.VT)
	ua, ub := uint64(lhs.I)&mask(w), uint64(rhs.I)&mask(w)
	return intValue(inst.Result, int64(ua%ub))
}

func (ex *Executor) execShl(inst *ir.Instruction, lhs, rhs Value, src diag.SourceSpan) Value {
	width := widthBits(inst.Result)
	amt, outOfRange := shiftAmount(rhs, inst.Signed, width)
	if outOfRange {
		ex.Diag.Error(src, "shift amount out of range")
		return intValue(inst.Result, 0)
	}
	raw := uint64(lhs.I) & mask(width)
	shifted := (raw << amt) & mask(width)
	return intValue(inst.Result, int64(shifted))
}

func (ex *Executor) execShr(inst *ir.Instruction, lhs, rhs Value, src diag.SourceSpan) Value {
	width := widthBits(inst.Result)
	amt, outOfRange := shiftAmount(rhs, inst.Signed, width)
	valSigned := !isFloatVT(lhs.VT) && lhs.VT != ir.I1
	if outOfRange {
		ex.Diag.Error(src, "shift amount out of range")
		if valSigned && lhs.I < 0 {
			return intValue(inst.Result, -1)
		}
		return intValue(inst.Result, 0)
	}
	if valSigned {
		return intValue(inst.Result, lhs.I>>amt)
	}
	raw := uint64(lhs.I) & mask(width)
	return intValue(inst.Result, int64(raw>>amt))
}

// shiftAmount resolves rhs (under rhsSigned interpretation) to a shift
// amount in [0, width), reporting out-of-range instead of wrapping it
// Go-style.
func shiftAmount(rhs Value, rhsSigned bool, width uint) (amt uint, outOfRange bool) {
	var v int64
	if rhsSigned {
		v = rhs.I
	} else {
		v = int64(uint64(rhs.I) & mask(widthBits(rhs.VT)))
	}
	if v < 0 || v >= int64(width) {
		return 0, true
	}
	return uint(v), false
}

func (ex *Executor) execMinMax(inst *ir.Instruction, a, b Value) Value {
	if isFloatVT(inst.Result) {
		if inst.Op == ir.OpMin {
			return floatValue(inst.Result, math.Min(a.F, b.F))
		}
		return floatValue(inst.Result, math.Max(a.F, b.F))
	}
	c := cmpInt(a, b, a.VT != ir.I1)
	if inst.Op == ir.OpMin {
		if c <= 0 {
			return intValue(inst.Result, a.I)
		}
		return intValue(inst.Result, b.I)
	}
	if c >= 0 {
		return intValue(inst.Result, a.I)
	}
	return intValue(inst.Result, b.I)
}

// execPtrOffset implements ptr_add/ptr_sub: offsetElems is scaled by
// inst.Type's size and applied through the checked memmodel.PtrAdd, sign
// flipped by dir (+1 for add, -1 for sub).
func (ex *Executor) execPtrOffset(base memmodel.Addr, offsetElems int64, inst *ir.Instruction, src diag.SourceSpan, dir int64) Value {
	byteOffset := dir * offsetElems * int64(inst.Type.Size())
	addr, f := ex.Mem.PtrAdd(base, byteOffset, inst.Type, src)
	if f != nil {
		ex.reportFault(f, src)
		return ptrValue(0)
	}
	return ptrValue(addr)
}

func (ex *Executor) execPtrDiff(lhs, rhs memmodel.Addr, inst *ir.Instruction, src diag.SourceSpan, checked bool) Value {
	if checked && lhs.ObjectID() != rhs.ObjectID() {
		ex.Diag.Error(src, "pointer difference between unrelated objects")
		return intValue(ir.I64, 0)
	}
	elemSize := inst.Type.Size()
	if elemSize == 0 {
		elemSize = 1
	}
	diffBytes := int64(lhs.Offset()) - int64(rhs.Offset())
	return intValue(ir.I64, diffBytes/int64(elemSize))
}

func (ex *Executor) execLoad(ptr memmodel.Addr, inst *ir.Instruction, src diag.SourceSpan) Value {
	vt := inst.Width.ValueType()
	switch {
	case isFloatVT(vt):
		v, f := ex.Mem.LoadFloat(ptr, inst.Width, inst.Endian, src)
		ex.reportFault(f, src)
		return floatValue(vt, v)
	case vt == ir.Ptr:
		v, f := ex.Mem.LoadPtr(ptr, inst.Endian, src)
		ex.reportFault(f, src)
		return ptrValue(v)
	default:
		signed := vt != ir.I1
		v, f := ex.Mem.LoadInt(ptr, inst.Width, inst.Endian, signed, src)
		ex.reportFault(f, src)
		return intValue(vt, v)
	}
}

func (ex *Executor) execStore(ptr memmodel.Addr, v Value, inst *ir.Instruction, src diag.SourceSpan) {
	vt := inst.Width.ValueType()
	var f *memmodel.Fault
	switch {
	case isFloatVT(vt):
		f = ex.Mem.StoreFloat(ptr, inst.Width, inst.Endian, v.F, src)
	case vt == ir.Ptr:
		f = ex.Mem.StorePtr(ptr, inst.Endian, v.P, src)
	default:
		f = ex.Mem.StoreInt(ptr, inst.Width, inst.Endian, v.I, src)
	}
	ex.reportFault(f, src)
}

func (ex *Executor) reportFault(f *memmodel.Fault, src diag.SourceSpan) {
	if f == nil {
		return
	}
	span := f.Span
	if span == 0 {
		span = src
	}
	ex.Diag.Error(span, f.Message)
	for _, n := range f.Notes {
		ex.Diag.WithNote(n.Span, n.Message)
	}
}

// execMathOrDiagnostic handles the transcendental math-intrinsic family
// (table-driven, every member sharing "value semantics are identical for
// the base/check pair") and the calls/diagnostics-as-instructions opcodes
// that execValue's main switch leaves to this fallback to keep that switch
// from growing unmanageably long.
func (ex *Executor) execMathOrDiagnostic(frame *Frame, inst *ir.Instruction, src diag.SourceSpan) Value {
	fn := frame.Values
	args := inst.Args

	if f, ok := mathUnary[inst.Op]; ok {
		return floatValue(inst.Result, f(fn[args[0]].F))
	}
	if f, ok := mathBinary[inst.Op]; ok {
		return floatValue(inst.Result, f(fn[args[0]].F, fn[args[1]].F))
	}
	if checkOp, ok := unaryCheckSource[inst.Op]; ok {
		if mf, ok := mathUnary[checkOp]; ok {
			v := mf(fn[args[0]].F)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				ex.Diag.Warning(diag.WarnFloatOverflow, src, fmt.Sprintf("%s produced a non-finite result", checkOp))
			}
		}
		return noneValue()
	}
	if checkOp, ok := binaryCheckSource[inst.Op]; ok {
		if mf, ok := mathBinary[checkOp]; ok {
			v := mf(fn[args[0]].F, fn[args[1]].F)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				ex.Diag.Warning(diag.WarnFloatOverflow, src, fmt.Sprintf("%s produced a non-finite result", checkOp))
			}
		}
		return noneValue()
	}

	switch inst.Op {
	case ir.OpFunctionCall:
		raw := frame.Fn.CallArgs[inst.CallArgsIndex]
		callArgs := make([]Value, len(raw))
		for i, vi := range raw {
			callArgs[i] = fn[vi]
		}
		return ex.Call(inst.CallFunc, callArgs)
	case ir.OpGetFunctionArg:
		return frame.Args[inst.IntVal]
	case ir.OpGetFunctionReturnAddress:
		return ptrValue(0)
	case ir.OpMalloc:
		count := fn[args[0]].I
		if count < 0 {
			ex.Diag.Error(src, "malloc with a negative element count")
			return ptrValue(0)
		}
		addr, f := ex.Mem.Malloc(inst.Type, uint64(count), src)
		if f != nil {
			ex.reportFault(f, src)
			return ptrValue(0)
		}
		return ptrValue(addr)
	case ir.OpFree:
		f := ex.Mem.Free(fn[args[0]].P, inst.Type, src)
		ex.reportFault(f, src)
		return noneValue()

	case ir.OpIsOptionSet:
		return boolValue(fn[args[0]].P != fn[args[1]].P)

	case ir.OpError:
		ex.Diag.Error(src, inst.Str)
		return noneValue()
	case ir.OpErrorStr:
		ex.Diag.Error(src, ex.readString(fn[args[0]].P, fn[args[1]].P))
		return noneValue()
	case ir.OpWarningStr:
		ex.Diag.Warning(diag.WarningKind(inst.IntVal), src, ex.readString(fn[args[0]].P, fn[args[1]].P))
		return noneValue()
	case ir.OpArrayBoundsCheck:
		index, size := fn[args[0]], fn[args[1]]
		var oob bool
		if inst.Signed {
			oob = index.I < 0 || index.I >= size.I
		} else {
			oob = uint64(index.I) >= uint64(size.I)
		}
		if oob {
			ex.Diag.Error(src, fmt.Sprintf("out-of-bounds access: index %d, size %d", index.I, size.I))
		}
		return noneValue()
	case ir.OpOptionalGetValueCheck:
		if !fn[args[0]].bool() {
			ex.Diag.Error(src, "access to unset optional value")
		}
		return noneValue()
	case ir.OpStrConstructionCheck:
		f := ex.Mem.CheckSliceConstruction(fn[args[0]].P, fn[args[1]].P, ex.Types.Builtin(types.I8), src)
		ex.reportFault(f, src)
		return noneValue()
	case ir.OpSliceConstructionCheck:
		elemType := frame.Fn.SliceChecks[inst.SliceCheckIndex].ElemType
		f := ex.Mem.CheckSliceConstruction(fn[args[0]].P, fn[args[1]].P, elemType, src)
		ex.reportFault(f, src)
		return noneValue()
	case ir.OpMemoryAccessCheck:
		objType := frame.Fn.MemChecks[inst.MemAccessCheckIndex].ObjectType
		f := ex.Mem.CheckDereference(fn[args[0]].P, objType, src)
		ex.reportFault(f, src)
		return noneValue()

	default:
		diag.FatalViolation("executor: unhandled opcode %s", inst.Op)
		return noneValue()
	}
}

// unaryCheckSource/binaryCheckSource map each math-intrinsic *_check opcode
// back to its value-producing sibling, so the check can recompute the same
// result and test it for NaN/Inf ("value semantics are identical for the
// base/check pair", op.go).
var unaryCheckSource = map[ir.Op]ir.Op{
	ir.OpExpCheck: ir.OpExp, ir.OpExp2Check: ir.OpExp2, ir.OpExpm1Check: ir.OpExpm1,
	ir.OpLogCheck: ir.OpLog, ir.OpLog10Check: ir.OpLog10, ir.OpLog2Check: ir.OpLog2, ir.OpLog1pCheck: ir.OpLog1p,
	ir.OpCbrtCheck: ir.OpCbrt,
	ir.OpSinCheck:  ir.OpSin, ir.OpCosCheck: ir.OpCos, ir.OpTanCheck: ir.OpTan,
	ir.OpAsinCheck: ir.OpAsin, ir.OpAcosCheck: ir.OpAcos, ir.OpAtanCheck: ir.OpAtan,
	ir.OpSinhCheck: ir.OpSinh, ir.OpCoshCheck: ir.OpCosh, ir.OpTanhCheck: ir.OpTanh,
	ir.OpAsinhCheck: ir.OpAsinh, ir.OpAcoshCheck: ir.OpAcosh, ir.OpAtanhCheck: ir.OpAtanh,
	ir.OpErfCheck: ir.OpErf, ir.OpErfcCheck: ir.OpErfc,
	ir.OpTgammaCheck: ir.OpTgamma, ir.OpLgammaCheck: ir.OpLgamma,
}

var binaryCheckSource = map[ir.Op]ir.Op{
	ir.OpPowCheck: ir.OpPow, ir.OpHypotCheck: ir.OpHypot, ir.OpAtan2Check: ir.OpAtan2,
}
