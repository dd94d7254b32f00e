package ir

import "constexec/internal/types"

// Builder wraps a Function under construction with a create_* vocabulary:
// one method per instruction family, returning either a value reference or
// nothing (checked variants).
//
// Each builder method has three effects: (a) if the current block is
// already terminated, open a fresh block; (b) append the new instruction
// and, if it has operands, register them for finalization; (c) return the
// new instruction's InstrRef.
type Builder struct {
	Func       *Function
	CurrentBB  BlockRef
	TypeSet    *types.Set
}

// NewBuilder starts building fn, with block 0 as the current block. Callers
// create block 0 themselves via AddBasicBlock before building into it.
func NewBuilder(fn *Function, typeSet *types.Set) *Builder {
	return &Builder{Func: fn, TypeSet: typeSet}
}

// CurrentBasicBlock returns the block instructions are currently appended
// to.
func (b *Builder) CurrentBasicBlock() BlockRef { return b.CurrentBB }

// AddBasicBlock appends a new, empty basic block and returns its ref.
func (b *Builder) AddBasicBlock() BlockRef {
	b.Func.Blocks = append(b.Func.Blocks, BasicBlock{})
	return BlockRef(len(b.Func.Blocks) - 1)
}

// SetCurrentBasicBlock switches the insertion point.
func (b *Builder) SetCurrentBasicBlock(bb BlockRef) { b.CurrentBB = bb }

// HasTerminator reports whether the current block already ends in a
// terminator.
func (b *Builder) HasTerminator() bool {
	return b.Func.Blocks[b.CurrentBB].Terminated()
}

// ensureOpenBlock implements effect (a): if the current block is
// terminated, silently open (and switch to) a fresh one.
func (b *Builder) ensureOpenBlock() {
	if b.HasTerminator() {
		b.SetCurrentBasicBlock(b.AddBasicBlock())
	}
}

// emit appends inst to the current block (opening a fresh block first if
// necessary) and returns its InstrRef.
func (b *Builder) emit(inst Instruction) InstrRef {
	b.ensureOpenBlock()
	bb := &b.Func.Blocks[b.CurrentBB]
	bb.Instructions = append(bb.Instructions, inst)
	return InstrRef{Block: uint32(b.CurrentBB), Index: uint32(len(bb.Instructions) - 1)}
}

// addSrcTokens interns an opaque front-end source-location handle and
// returns its index, or -1 if none was given.
func (b *Builder) addSrcTokens(tok int32) int32 {
	if tok < 0 {
		return -1
	}
	b.Func.SrcTokens = append(b.Func.SrcTokens, tok)
	return int32(len(b.Func.SrcTokens) - 1)
}

func newInst(op Op, result ValueType) Instruction {
	return Instruction{
		Op: op, Result: result,
		SliceCheckIndex: -1, PtrArithCheckIndex: -1, MemAccessCheckIndex: -1, ArrayCopyCheckIndex: -1,
		SrcTokens: -1,
	}
}

// --- Constants -------------------------------------------------------

func (b *Builder) CreateConstInt(w Width, signedVal int64) InstrRef {
	inst := newInst(OpConstInt, w.ValueType())
	inst.Width = w
	inst.IntVal = signedVal
	return b.emit(inst)
}

func (b *Builder) CreateConstFloat(w Width, v float64) InstrRef {
	inst := newInst(OpConstFloat, w.ValueType())
	inst.Width = w
	inst.FloatVal = v
	return b.emit(inst)
}

func (b *Builder) CreateConstPtrNull() InstrRef {
	return b.emit(newInst(OpConstPtrNull, Ptr))
}

// --- Memory ------------------------------------------------------------

func (b *Builder) CreateLoad(ptr InstrRef, w Width, e Endian) InstrRef {
	inst := newInst(OpLoad, w.ValueType())
	inst.Width, inst.Endian = w, e
	inst.ArgsRef[0] = ptr
	return b.emit(inst)
}

func (b *Builder) CreateStore(value, ptr InstrRef, w Width, e Endian) InstrRef {
	inst := newInst(OpStore, None)
	inst.Width, inst.Endian = w, e
	inst.ArgsRef[0], inst.ArgsRef[1] = ptr, value
	return b.emit(inst)
}

func (b *Builder) CreateAlloca(t *types.Type) InstrRef {
	idx := uint32(len(b.Func.Allocas))
	b.Func.Allocas = append(b.Func.Allocas, AllocaInfo{Type: t, HasLifetime: true})
	ref := InstrRef{Block: AllocaBlock, Index: idx}
	inst := newInst(OpAlloca, Ptr)
	inst.Type = t
	b.emit(inst) // recorded for debugging position only; operand-free
	return ref
}

func (b *Builder) CreateAllocaWithoutLifetime(t *types.Type) InstrRef {
	idx := uint32(len(b.Func.Allocas))
	b.Func.Allocas = append(b.Func.Allocas, AllocaInfo{Type: t, HasLifetime: false})
	ref := InstrRef{Block: AllocaBlock, Index: idx}
	inst := newInst(OpAllocaNoLifetime, Ptr)
	inst.Type = t
	b.emit(inst)
	return ref
}

func (b *Builder) CreateStartLifetime(ptr InstrRef) InstrRef {
	inst := newInst(OpStartLifetime, None)
	inst.ArgsRef[0] = ptr
	return b.emit(inst)
}

func (b *Builder) CreateEndLifetime(ptr InstrRef) InstrRef {
	inst := newInst(OpEndLifetime, None)
	inst.ArgsRef[0] = ptr
	return b.emit(inst)
}

func (b *Builder) CreateStructGep(base InstrRef, aggType *types.Type, index int) InstrRef {
	inst := newInst(OpStructGep, Ptr)
	inst.Type = aggType
	inst.IntVal = int64(index)
	inst.ArgsRef[0] = base
	return b.emit(inst)
}

func (b *Builder) CreateArrayGep(base, index InstrRef, elemType *types.Type) InstrRef {
	inst := newInst(OpArrayGep, Ptr)
	inst.Type = elemType
	inst.ArgsRef[0], inst.ArgsRef[1] = base, index
	return b.emit(inst)
}

func (b *Builder) CreateConstMemcpy(dest, source InstrRef, size uint64) InstrRef {
	inst := newInst(OpConstMemcpy, None)
	inst.IntVal = int64(size)
	inst.ArgsRef[0], inst.ArgsRef[1] = dest, source
	return b.emit(inst)
}

func (b *Builder) CreateConstMemsetZero(dest InstrRef, size uint64) InstrRef {
	inst := newInst(OpConstMemsetZero, None)
	inst.IntVal = int64(size)
	inst.ArgsRef[0] = dest
	return b.emit(inst)
}

// CreateGetGlobalAddress records packedAddr — a memmodel.Addr's full 64-bit
// bit pattern, not a small index — in IntVal. A global object's offset is
// always 0 at creation, so truncating through uint32 (as an "index" would
// suggest) would discard the segment/object-id bits every Addr actually
// carries there and collapse every global to the same reference.
func (b *Builder) CreateGetGlobalAddress(packedAddr uint64) InstrRef {
	inst := newInst(OpGetGlobalAddress, Ptr)
	inst.IntVal = int64(packedAddr)
	return b.emit(inst)
}

// --- Casts ---------------------------------------------------------------

func (b *Builder) CreateIntCast(value InstrRef, dest Width, srcSigned bool) InstrRef {
	// srcSigned alone picks sext over zext; widths are not compared and no
	// trunc is emitted here.
	op := OpCastIntZext
	if srcSigned {
		op = OpCastIntSext
	}
	inst := newInst(op, dest.ValueType())
	inst.Width, inst.Signed = dest, srcSigned
	inst.ArgsRef[0] = value
	return b.emit(inst)
}

func (b *Builder) CreateIntTrunc(value InstrRef, dest Width) InstrRef {
	inst := newInst(OpCastIntTrunc, dest.ValueType())
	inst.Width = dest
	inst.ArgsRef[0] = value
	return b.emit(inst)
}

func (b *Builder) CreateFloatCast(value InstrRef, dest Width) InstrRef {
	inst := newInst(OpCastFloatFloat, dest.ValueType())
	inst.Width = dest
	inst.ArgsRef[0] = value
	return b.emit(inst)
}

func (b *Builder) CreateFloatToIntCast(value InstrRef, dest Width, destSigned bool) InstrRef {
	inst := newInst(OpCastFloatToInt, dest.ValueType())
	inst.Width, inst.Signed = dest, destSigned
	inst.ArgsRef[0] = value
	return b.emit(inst)
}

func (b *Builder) CreateIntToFloatCast(value InstrRef, dest Width, srcSigned bool) InstrRef {
	inst := newInst(OpCastIntToFloat, dest.ValueType())
	inst.Width, inst.Signed = dest, srcSigned
	inst.ArgsRef[0] = value
	return b.emit(inst)
}

// --- Comparisons -----------------------------------------------------

func (b *Builder) binCmp(op Op, lhs, rhs InstrRef, signed bool) InstrRef {
	inst := newInst(op, I1)
	inst.Signed = signed
	inst.ArgsRef[0], inst.ArgsRef[1] = lhs, rhs
	return b.emit(inst)
}

func (b *Builder) CreateIntCmpEq(lhs, rhs InstrRef) InstrRef  { return b.binCmp(OpIntCmpEq, lhs, rhs, false) }
func (b *Builder) CreateIntCmpNeq(lhs, rhs InstrRef) InstrRef { return b.binCmp(OpIntCmpNeq, lhs, rhs, false) }
func (b *Builder) CreateIntCmpLt(lhs, rhs InstrRef, signed bool) InstrRef {
	return b.binCmp(OpIntCmpLt, lhs, rhs, signed)
}
func (b *Builder) CreateIntCmpGt(lhs, rhs InstrRef, signed bool) InstrRef {
	return b.binCmp(OpIntCmpGt, lhs, rhs, signed)
}
func (b *Builder) CreateIntCmpLte(lhs, rhs InstrRef, signed bool) InstrRef {
	return b.binCmp(OpIntCmpLte, lhs, rhs, signed)
}
func (b *Builder) CreateIntCmpGte(lhs, rhs InstrRef, signed bool) InstrRef {
	return b.binCmp(OpIntCmpGte, lhs, rhs, signed)
}

func (b *Builder) CreateFloatCmpEq(lhs, rhs InstrRef) InstrRef  { return b.binCmp(OpFloatCmpEq, lhs, rhs, false) }
func (b *Builder) CreateFloatCmpNeq(lhs, rhs InstrRef) InstrRef { return b.binCmp(OpFloatCmpNeq, lhs, rhs, false) }
func (b *Builder) CreateFloatCmpLt(lhs, rhs InstrRef) InstrRef  { return b.binCmp(OpFloatCmpLt, lhs, rhs, false) }
func (b *Builder) CreateFloatCmpGt(lhs, rhs InstrRef) InstrRef  { return b.binCmp(OpFloatCmpGt, lhs, rhs, false) }
func (b *Builder) CreateFloatCmpLte(lhs, rhs InstrRef) InstrRef { return b.binCmp(OpFloatCmpLte, lhs, rhs, false) }
func (b *Builder) CreateFloatCmpGte(lhs, rhs InstrRef) InstrRef { return b.binCmp(OpFloatCmpGte, lhs, rhs, false) }

func (b *Builder) checkOnly(op Op, args ...InstrRef) InstrRef {
	inst := newInst(op, None)
	for i, a := range args {
		inst.ArgsRef[i] = a
	}
	return b.emit(inst)
}

func (b *Builder) CreateFloatCmpEqCheck(lhs, rhs InstrRef) InstrRef  { return b.checkOnly(OpFloatCmpEqCheck, lhs, rhs) }
func (b *Builder) CreateFloatCmpNeqCheck(lhs, rhs InstrRef) InstrRef { return b.checkOnly(OpFloatCmpNeqCheck, lhs, rhs) }
func (b *Builder) CreateFloatCmpLtCheck(lhs, rhs InstrRef) InstrRef  { return b.checkOnly(OpFloatCmpLtCheck, lhs, rhs) }
func (b *Builder) CreateFloatCmpGtCheck(lhs, rhs InstrRef) InstrRef  { return b.checkOnly(OpFloatCmpGtCheck, lhs, rhs) }
func (b *Builder) CreateFloatCmpLteCheck(lhs, rhs InstrRef) InstrRef { return b.checkOnly(OpFloatCmpLteCheck, lhs, rhs) }
func (b *Builder) CreateFloatCmpGteCheck(lhs, rhs InstrRef) InstrRef { return b.checkOnly(OpFloatCmpGteCheck, lhs, rhs) }

func (b *Builder) CreatePointerCmpEq(lhs, rhs InstrRef) InstrRef  { return b.binCmp(OpPointerCmpEq, lhs, rhs, false) }
func (b *Builder) CreatePointerCmpNeq(lhs, rhs InstrRef) InstrRef { return b.binCmp(OpPointerCmpNeq, lhs, rhs, false) }
func (b *Builder) CreatePointerCmpLt(lhs, rhs InstrRef) InstrRef  { return b.binCmp(OpPointerCmpLt, lhs, rhs, false) }
func (b *Builder) CreatePointerCmpGt(lhs, rhs InstrRef) InstrRef  { return b.binCmp(OpPointerCmpGt, lhs, rhs, false) }
func (b *Builder) CreatePointerCmpLte(lhs, rhs InstrRef) InstrRef { return b.binCmp(OpPointerCmpLte, lhs, rhs, false) }
func (b *Builder) CreatePointerCmpGte(lhs, rhs InstrRef) InstrRef { return b.binCmp(OpPointerCmpGte, lhs, rhs, false) }

// --- Arithmetic ----------------------------------------------------------

func (b *Builder) arith(op Op, result ValueType, lhs, rhs InstrRef) InstrRef {
	inst := newInst(op, result)
	inst.ArgsRef[0], inst.ArgsRef[1] = lhs, rhs
	return b.emit(inst)
}

func (b *Builder) CreateNeg(v InstrRef, result ValueType) InstrRef {
	inst := newInst(OpNeg, result)
	inst.ArgsRef[0] = v
	return b.emit(inst)
}
func (b *Builder) CreateNegCheck(v InstrRef) InstrRef { return b.checkOnly(OpNegCheck, v) }

func (b *Builder) CreateAdd(lhs, rhs InstrRef, result ValueType) InstrRef { return b.arith(OpAdd, result, lhs, rhs) }
func (b *Builder) CreateAddCheck(lhs, rhs InstrRef, signed bool) InstrRef {
	inst := newInst(OpAddCheck, None)
	inst.Signed = signed
	inst.ArgsRef[0], inst.ArgsRef[1] = lhs, rhs
	return b.emit(inst)
}

func (b *Builder) CreatePtrAddConstUnchecked(addr InstrRef, byteOffset int64) InstrRef {
	inst := newInst(OpPtrAddConstUnchecked, Ptr)
	inst.IntVal = byteOffset
	inst.ArgsRef[0] = addr
	return b.emit(inst)
}

func (b *Builder) CreatePtrAdd(addr, offset InstrRef, objType *types.Type, offsetSigned bool) InstrRef {
	inst := newInst(OpPtrAdd, Ptr)
	inst.Type = objType
	inst.Signed = offsetSigned
	inst.ArgsRef[0], inst.ArgsRef[1] = addr, offset
	return b.emit(inst)
}

func (b *Builder) CreateSub(lhs, rhs InstrRef, result ValueType) InstrRef { return b.arith(OpSub, result, lhs, rhs) }
func (b *Builder) CreateSubCheck(lhs, rhs InstrRef, signed bool) InstrRef {
	inst := newInst(OpSubCheck, None)
	inst.Signed = signed
	inst.ArgsRef[0], inst.ArgsRef[1] = lhs, rhs
	return b.emit(inst)
}

func (b *Builder) CreatePtrSub(addr, offset InstrRef, objType *types.Type, offsetSigned bool) InstrRef {
	inst := newInst(OpPtrSub, Ptr)
	inst.Type = objType
	inst.Signed = offsetSigned
	inst.ArgsRef[0], inst.ArgsRef[1] = addr, offset
	return b.emit(inst)
}

func (b *Builder) CreatePtrDiff(lhs, rhs InstrRef, objType *types.Type) InstrRef {
	inst := newInst(OpPtrDiff, I64)
	inst.Type = objType
	inst.ArgsRef[0], inst.ArgsRef[1] = lhs, rhs
	return b.emit(inst)
}

func (b *Builder) CreatePtrDiffUnchecked(lhs, rhs InstrRef, objType *types.Type) InstrRef {
	inst := newInst(OpPtrDiffUnchecked, I64)
	inst.Type = objType
	inst.ArgsRef[0], inst.ArgsRef[1] = lhs, rhs
	return b.emit(inst)
}

func (b *Builder) CreateMul(lhs, rhs InstrRef, result ValueType) InstrRef { return b.arith(OpMul, result, lhs, rhs) }
func (b *Builder) CreateMulCheck(lhs, rhs InstrRef, signed bool) InstrRef {
	inst := newInst(OpMulCheck, None)
	inst.Signed = signed
	inst.ArgsRef[0], inst.ArgsRef[1] = lhs, rhs
	return b.emit(inst)
}

func (b *Builder) CreateDiv(lhs, rhs InstrRef, result ValueType, signed bool) InstrRef {
	inst := newInst(OpDiv, result)
	inst.Signed = signed
	inst.ArgsRef[0], inst.ArgsRef[1] = lhs, rhs
	return b.emit(inst)
}
func (b *Builder) CreateDivCheck(lhs, rhs InstrRef, signed bool) InstrRef {
	inst := newInst(OpDivCheck, None)
	inst.Signed = signed
	inst.ArgsRef[0], inst.ArgsRef[1] = lhs, rhs
	return b.emit(inst)
}

func (b *Builder) CreateRem(lhs, rhs InstrRef, result ValueType, signed bool) InstrRef {
	inst := newInst(OpRem, result)
	inst.Signed = signed
	inst.ArgsRef[0], inst.ArgsRef[1] = lhs, rhs
	return b.emit(inst)
}

// --- Bitwise / logic -------------------------------------------------

func (b *Builder) CreateNot(v InstrRef, result ValueType) InstrRef {
	inst := newInst(OpNot, result)
	inst.ArgsRef[0] = v
	return b.emit(inst)
}
func (b *Builder) CreateAnd(lhs, rhs InstrRef, result ValueType) InstrRef { return b.arith(OpAnd, result, lhs, rhs) }
func (b *Builder) CreateXor(lhs, rhs InstrRef, result ValueType) InstrRef { return b.arith(OpXor, result, lhs, rhs) }
func (b *Builder) CreateOr(lhs, rhs InstrRef, result ValueType) InstrRef  { return b.arith(OpOr, result, lhs, rhs) }

func (b *Builder) CreateShl(lhs, rhs InstrRef, result ValueType, rhsSigned bool) InstrRef {
	inst := newInst(OpShl, result)
	inst.Signed = rhsSigned
	inst.ArgsRef[0], inst.ArgsRef[1] = lhs, rhs
	return b.emit(inst)
}
func (b *Builder) CreateShr(lhs, rhs InstrRef, result ValueType, rhsSigned bool) InstrRef {
	inst := newInst(OpShr, result)
	inst.Signed = rhsSigned
	inst.ArgsRef[0], inst.ArgsRef[1] = lhs, rhs
	return b.emit(inst)
}

// --- Bit-twiddling / math intrinsics ----------------------------------

func (b *Builder) unary(op Op, result ValueType, v InstrRef) InstrRef {
	inst := newInst(op, result)
	inst.ArgsRef[0] = v
	return b.emit(inst)
}
func (b *Builder) binary(op Op, result ValueType, a, c InstrRef) InstrRef {
	inst := newInst(op, result)
	inst.ArgsRef[0], inst.ArgsRef[1] = a, c
	return b.emit(inst)
}

func (b *Builder) CreateBitreverse(v InstrRef, result ValueType) InstrRef { return b.unary(OpBitreverse, result, v) }
func (b *Builder) CreatePopcount(v InstrRef, result ValueType) InstrRef   { return b.unary(OpPopcount, result, v) }
func (b *Builder) CreateByteswap(v InstrRef, result ValueType) InstrRef   { return b.unary(OpByteswap, result, v) }
func (b *Builder) CreateClz(v InstrRef, result ValueType) InstrRef        { return b.unary(OpClz, result, v) }
func (b *Builder) CreateCtz(v InstrRef, result ValueType) InstrRef        { return b.unary(OpCtz, result, v) }
func (b *Builder) CreateFshl(a, c, amount InstrRef, result ValueType) InstrRef {
	inst := newInst(OpFshl, result)
	inst.ArgsRef[0], inst.ArgsRef[1], inst.ArgsRef[2] = a, c, amount
	return b.emit(inst)
}
func (b *Builder) CreateFshr(a, c, amount InstrRef, result ValueType) InstrRef {
	inst := newInst(OpFshr, result)
	inst.ArgsRef[0], inst.ArgsRef[1], inst.ArgsRef[2] = a, c, amount
	return b.emit(inst)
}

func (b *Builder) CreateAbs(v InstrRef, result ValueType) InstrRef { return b.unary(OpAbs, result, v) }
func (b *Builder) CreateAbsCheck(v InstrRef) InstrRef               { return b.checkOnly(OpAbsCheck, v) }
func (b *Builder) CreateMin(a, c InstrRef, result ValueType) InstrRef { return b.binary(OpMin, result, a, c) }
func (b *Builder) CreateMinCheck(a, c InstrRef) InstrRef              { return b.checkOnly(OpMinCheck, a, c) }
func (b *Builder) CreateMax(a, c InstrRef, result ValueType) InstrRef { return b.binary(OpMax, result, a, c) }
func (b *Builder) CreateMaxCheck(a, c InstrRef) InstrRef              { return b.checkOnly(OpMaxCheck, a, c) }

// unaryF64Intrinsic is shared plumbing for the one-argument transcendental
// math family, every member of which returns f64 and has a *_check sibling.
func (b *Builder) unaryF64Intrinsic(op, checkOp Op, x InstrRef) (InstrRef, InstrRef) {
	return b.unary(op, F64, x), b.checkOnly(checkOp, x)
}

func (b *Builder) CreateSqrt(x InstrRef, result ValueType) InstrRef { return b.unary(OpSqrt, result, x) }
func (b *Builder) CreateSqrtCheck(x InstrRef) InstrRef              { return b.checkOnly(OpSqrtCheck, x) }
func (b *Builder) CreateExp(x InstrRef) InstrRef                    { r, _ := b.unaryF64Intrinsic(OpExp, OpExpCheck, x); return r }
func (b *Builder) CreateExpCheck(x InstrRef) InstrRef               { return b.checkOnly(OpExpCheck, x) }
func (b *Builder) CreateExp2(x InstrRef) InstrRef                   { return b.unary(OpExp2, F64, x) }
func (b *Builder) CreateExp2Check(x InstrRef) InstrRef              { return b.checkOnly(OpExp2Check, x) }
func (b *Builder) CreateExpm1(x InstrRef) InstrRef                  { return b.unary(OpExpm1, F64, x) }
func (b *Builder) CreateExpm1Check(x InstrRef) InstrRef             { return b.checkOnly(OpExpm1Check, x) }
func (b *Builder) CreateLog(x InstrRef) InstrRef                    { return b.unary(OpLog, F64, x) }
func (b *Builder) CreateLogCheck(x InstrRef) InstrRef               { return b.checkOnly(OpLogCheck, x) }
func (b *Builder) CreateLog10(x InstrRef) InstrRef                  { return b.unary(OpLog10, F64, x) }
func (b *Builder) CreateLog10Check(x InstrRef) InstrRef             { return b.checkOnly(OpLog10Check, x) }
func (b *Builder) CreateLog2(x InstrRef) InstrRef                   { return b.unary(OpLog2, F64, x) }
func (b *Builder) CreateLog2Check(x InstrRef) InstrRef              { return b.checkOnly(OpLog2Check, x) }
func (b *Builder) CreateLog1p(x InstrRef) InstrRef                  { return b.unary(OpLog1p, F64, x) }
func (b *Builder) CreateLog1pCheck(x InstrRef) InstrRef             { return b.checkOnly(OpLog1pCheck, x) }
func (b *Builder) CreatePow(x, y InstrRef) InstrRef                 { return b.binary(OpPow, F64, x, y) }
func (b *Builder) CreatePowCheck(x, y InstrRef) InstrRef            { return b.checkOnly(OpPowCheck, x, y) }
func (b *Builder) CreateCbrt(x InstrRef) InstrRef                   { return b.unary(OpCbrt, F64, x) }
func (b *Builder) CreateCbrtCheck(x InstrRef) InstrRef              { return b.checkOnly(OpCbrtCheck, x) }
func (b *Builder) CreateHypot(x, y InstrRef) InstrRef               { return b.binary(OpHypot, F64, x, y) }
func (b *Builder) CreateHypotCheck(x, y InstrRef) InstrRef          { return b.checkOnly(OpHypotCheck, x, y) }
func (b *Builder) CreateSin(x InstrRef) InstrRef                    { return b.unary(OpSin, F64, x) }
func (b *Builder) CreateSinCheck(x InstrRef) InstrRef               { return b.checkOnly(OpSinCheck, x) }
func (b *Builder) CreateCos(x InstrRef) InstrRef                    { return b.unary(OpCos, F64, x) }
func (b *Builder) CreateCosCheck(x InstrRef) InstrRef               { return b.checkOnly(OpCosCheck, x) }
func (b *Builder) CreateTan(x InstrRef) InstrRef                    { return b.unary(OpTan, F64, x) }
func (b *Builder) CreateTanCheck(x InstrRef) InstrRef               { return b.checkOnly(OpTanCheck, x) }
func (b *Builder) CreateAsin(x InstrRef) InstrRef                   { return b.unary(OpAsin, F64, x) }
func (b *Builder) CreateAsinCheck(x InstrRef) InstrRef              { return b.checkOnly(OpAsinCheck, x) }
func (b *Builder) CreateAcos(x InstrRef) InstrRef                   { return b.unary(OpAcos, F64, x) }
func (b *Builder) CreateAcosCheck(x InstrRef) InstrRef              { return b.checkOnly(OpAcosCheck, x) }
func (b *Builder) CreateAtan(x InstrRef) InstrRef                   { return b.unary(OpAtan, F64, x) }
func (b *Builder) CreateAtanCheck(x InstrRef) InstrRef              { return b.checkOnly(OpAtanCheck, x) }
func (b *Builder) CreateAtan2(y, x InstrRef) InstrRef               { return b.binary(OpAtan2, F64, y, x) }
func (b *Builder) CreateAtan2Check(y, x InstrRef) InstrRef          { return b.checkOnly(OpAtan2Check, y, x) }
func (b *Builder) CreateSinh(x InstrRef) InstrRef                   { return b.unary(OpSinh, F64, x) }
func (b *Builder) CreateSinhCheck(x InstrRef) InstrRef              { return b.checkOnly(OpSinhCheck, x) }
func (b *Builder) CreateCosh(x InstrRef) InstrRef                   { return b.unary(OpCosh, F64, x) }
func (b *Builder) CreateCoshCheck(x InstrRef) InstrRef              { return b.checkOnly(OpCoshCheck, x) }
func (b *Builder) CreateTanh(x InstrRef) InstrRef                   { return b.unary(OpTanh, F64, x) }
func (b *Builder) CreateTanhCheck(x InstrRef) InstrRef              { return b.checkOnly(OpTanhCheck, x) }
func (b *Builder) CreateAsinh(x InstrRef) InstrRef                  { return b.unary(OpAsinh, F64, x) }
func (b *Builder) CreateAsinhCheck(x InstrRef) InstrRef             { return b.checkOnly(OpAsinhCheck, x) }
func (b *Builder) CreateAcosh(x InstrRef) InstrRef                  { return b.unary(OpAcosh, F64, x) }
func (b *Builder) CreateAcoshCheck(x InstrRef) InstrRef             { return b.checkOnly(OpAcoshCheck, x) }
func (b *Builder) CreateAtanh(x InstrRef) InstrRef                  { return b.unary(OpAtanh, F64, x) }
func (b *Builder) CreateAtanhCheck(x InstrRef) InstrRef             { return b.checkOnly(OpAtanhCheck, x) }
func (b *Builder) CreateErf(x InstrRef) InstrRef                    { return b.unary(OpErf, F64, x) }
func (b *Builder) CreateErfCheck(x InstrRef) InstrRef               { return b.checkOnly(OpErfCheck, x) }
func (b *Builder) CreateErfc(x InstrRef) InstrRef                   { return b.unary(OpErfc, F64, x) }
func (b *Builder) CreateErfcCheck(x InstrRef) InstrRef              { return b.checkOnly(OpErfcCheck, x) }
func (b *Builder) CreateTgamma(x InstrRef) InstrRef                 { return b.unary(OpTgamma, F64, x) }
func (b *Builder) CreateTgammaCheck(x InstrRef) InstrRef            { return b.checkOnly(OpTgammaCheck, x) }
func (b *Builder) CreateLgamma(x InstrRef) InstrRef                 { return b.unary(OpLgamma, F64, x) }
func (b *Builder) CreateLgammaCheck(x InstrRef) InstrRef            { return b.checkOnly(OpLgammaCheck, x) }

// --- Calls / malloc-free ----------------------------------------------

func (b *Builder) CreateFunctionCall(callee int32, args []InstrRef, result ValueType) InstrRef {
	idx := int32(len(b.Func.CallArgsRaw))
	b.Func.CallArgsRaw = append(b.Func.CallArgsRaw, CallArgsRaw(args))
	b.Func.CallArgs = append(b.Func.CallArgs, nil) // filled in by Finalize
	inst := newInst(OpFunctionCall, result)
	inst.CallFunc = callee
	inst.CallArgsIndex = idx
	return b.emit(inst)
}

func (b *Builder) CreateGetFunctionArg(argIndex uint32, result ValueType) InstrRef {
	inst := newInst(OpGetFunctionArg, result)
	inst.IntVal = int64(argIndex)
	return b.emit(inst)
}

func (b *Builder) CreateGetFunctionReturnAddress() InstrRef {
	return b.emit(newInst(OpGetFunctionReturnAddress, Ptr))
}

func (b *Builder) CreateMalloc(elemType *types.Type, count InstrRef) InstrRef {
	inst := newInst(OpMalloc, Ptr)
	inst.Type = elemType
	inst.ArgsRef[0] = count
	return b.emit(inst)
}

func (b *Builder) CreateFree(ptr InstrRef) InstrRef {
	inst := newInst(OpFree, None)
	inst.ArgsRef[0] = ptr
	return b.emit(inst)
}

func (b *Builder) CreateIsOptionSet(beginPtr, endPtr InstrRef) InstrRef {
	return b.binCmp(OpIsOptionSet, beginPtr, endPtr, false)
}

// --- Control flow (terminators) ---------------------------------------

func (b *Builder) CreateJump(dest BlockRef) InstrRef {
	inst := newInst(OpJump, None)
	inst.JumpRaw[0] = uint32(dest)
	return b.emit(inst)
}

func (b *Builder) CreateConditionalJump(cond InstrRef, trueBB, falseBB BlockRef) InstrRef {
	inst := newInst(OpConditionalJump, None)
	inst.ArgsRef[0] = cond
	inst.JumpRaw[0], inst.JumpRaw[1] = uint32(trueBB), uint32(falseBB)
	return b.emit(inst)
}

func (b *Builder) CreateSwitch(value InstrRef, cases []SwitchCase, defaultBB BlockRef) InstrRef {
	idx := int32(len(b.Func.Switches))
	b.Func.Switches = append(b.Func.Switches, SwitchTable{Cases: cases, DefaultRaw: uint32(defaultBB)})
	inst := newInst(OpSwitch, None)
	inst.ArgsRef[0] = value
	inst.SwitchTableIndex = idx
	return b.emit(inst)
}

func (b *Builder) CreateRet(value InstrRef) InstrRef {
	inst := newInst(OpRet, None)
	inst.ArgsRef[0] = value
	return b.emit(inst)
}

func (b *Builder) CreateRetVoid() InstrRef { return b.emit(newInst(OpRetVoid, None)) }

func (b *Builder) CreateUnreachable() InstrRef { return b.emit(newInst(OpUnreachable, None)) }

// --- Diagnostics-as-instructions --------------------------------------

func (b *Builder) CreateError(srcTokens int32, message string) InstrRef {
	inst := newInst(OpError, None)
	inst.Str = message
	inst.SrcTokens = b.addSrcTokens(srcTokens)
	return b.emit(inst)
}

func (b *Builder) CreateErrorStr(beginPtr, endPtr InstrRef) InstrRef {
	return b.binCmp(OpErrorStr, beginPtr, endPtr, false)
}

func (b *Builder) CreateWarningStr(warningKind int32, beginPtr, endPtr InstrRef) InstrRef {
	inst := newInst(OpWarningStr, None)
	inst.IntVal = int64(warningKind)
	inst.ArgsRef[0], inst.ArgsRef[1] = beginPtr, endPtr
	return b.emit(inst)
}

func (b *Builder) CreateArrayBoundsCheck(index, size InstrRef, indexSigned bool) InstrRef {
	inst := newInst(OpArrayBoundsCheck, None)
	inst.Signed = indexSigned
	inst.ArgsRef[0], inst.ArgsRef[1] = index, size
	return b.emit(inst)
}

func (b *Builder) CreateOptionalGetValueCheck(hasValue InstrRef) InstrRef {
	return b.checkOnly(OpOptionalGetValueCheck, hasValue)
}

func (b *Builder) CreateStrConstructionCheck(beginPtr, endPtr InstrRef) InstrRef {
	return b.checkOnly(OpStrConstructionCheck, beginPtr, endPtr)
}

func (b *Builder) CreateSliceConstructionCheck(beginPtr, endPtr InstrRef, elemType *types.Type) InstrRef {
	idx := int32(len(b.Func.SliceChecks))
	b.Func.SliceChecks = append(b.Func.SliceChecks, SliceCheckInfo{ElemType: elemType})
	inst := newInst(OpSliceConstructionCheck, None)
	inst.SliceCheckIndex = idx
	inst.ArgsRef[0], inst.ArgsRef[1] = beginPtr, endPtr
	return b.emit(inst)
}

func (b *Builder) CreateMemoryAccessCheck(ptr InstrRef, objType *types.Type) InstrRef {
	idx := int32(len(b.Func.MemChecks))
	b.Func.MemChecks = append(b.Func.MemChecks, MemAccessCheckInfo{ObjectType: objType})
	inst := newInst(OpMemoryAccessCheck, None)
	inst.MemAccessCheckIndex = idx
	inst.ArgsRef[0] = ptr
	return b.emit(inst)
}
