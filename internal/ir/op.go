// Package ir implements a typed, SSA-like bytecode intermediate
// representation: a closed instruction taxonomy, basic blocks, and
// functions, built through a Builder and reduced to a flat, finalized form
// by Function.Finalize.
//
// The instruction taxonomy is a flat opcode enum plus a side table of
// static per-opcode metadata, rather than one Go struct type per
// instruction kind behind an interface. Width/endianness/signedness are
// instruction *fields*, not separate opcodes — the executor dispatches on
// them at instruction-tag time rather than through a family of near-duplicate
// load/store opcodes.
package ir

// ValueType is the static type of an instruction's result slot or an
// operand slot.
type ValueType uint8

const (
	None ValueType = iota
	I1
	I8
	I16
	I32
	I64
	F32
	F64
	Ptr
	Any
)

func (v ValueType) String() string {
	switch v {
	case None:
		return "none"
	case I1:
		return "i1"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case Ptr:
		return "ptr"
	case Any:
		return "any"
	default:
		return "?"
	}
}

// Width identifies the scalar width/kind a load, store, cast, or constant
// instruction operates on. It is distinct from ValueType only in that it
// also distinguishes the two pointer widths (32/64-bit), which share
// ValueType Ptr.
type Width uint8

const (
	WI1 Width = iota
	WI8
	WI16
	WI32
	WI64
	WF32
	WF64
	WPtr32
	WPtr64
)

// ValueType reports the execution-level value type produced/consumed at
// this width.
func (w Width) ValueType() ValueType {
	switch w {
	case WI1:
		return I1
	case WI8:
		return I8
	case WI16:
		return I16
	case WI32:
		return I32
	case WI64:
		return I64
	case WF32:
		return F32
	case WF64:
		return F64
	case WPtr32, WPtr64:
		return Ptr
	default:
		return None
	}
}

// ByteSize reports the width's size in bytes, used by load/store/cast
// instructions to size their memory access.
func (w Width) ByteSize() int {
	switch w {
	case WI1, WI8:
		return 1
	case WI16:
		return 2
	case WI32, WF32, WPtr32:
		return 4
	case WI64, WF64, WPtr64:
		return 8
	default:
		return 0
	}
}

// Endian selects the byte order a load/store instruction dispatches
// through.
type Endian uint8

const (
	LittleEndian Endian = iota
	BigEndian
)

// Op is the closed instruction opcode enum.
type Op uint16

const (
	// Constants
	OpConstInt Op = iota // ConstInt/ConstFloat carried in Instruction.IntVal/FloatVal, Width selects type
	OpConstFloat
	OpConstPtrNull

	// Memory
	OpLoad  // Width+Endian select the access; Args[0] = pointer
	OpStore // Width+Endian select the access; Args[0] = pointer, Args[1] = value
	OpAlloca
	OpAllocaNoLifetime
	OpStartLifetime
	OpEndLifetime
	OpStructGep  // Type = aggregate type, IntVal = member index, Args[0] = base pointer
	OpArrayGep   // Type = element type, Args[0] = base pointer, Args[1] = index
	OpConstMemcpy
	OpConstMemsetZero
	OpGetGlobalAddress // IntVal = packed memmodel.Addr bit pattern (not a small index)
	OpCreateGlobalObject // handled by codegen.Context, never placed in a block directly

	// Casts
	OpCastIntTrunc  // Width = dest width, Args[0] = value
	OpCastIntZext
	OpCastIntSext
	OpCastFloatFloat  // f32<->f64
	OpCastFloatToInt  // Signed = dest signedness
	OpCastIntToFloat  // Signed = source signedness

	// Comparisons
	OpIntCmpEq
	OpIntCmpNeq
	OpIntCmpLt // Signed selects signed/unsigned compare
	OpIntCmpGt
	OpIntCmpLte
	OpIntCmpGte
	OpFloatCmpEq
	OpFloatCmpNeq
	OpFloatCmpLt
	OpFloatCmpGt
	OpFloatCmpLte
	OpFloatCmpGte
	OpFloatCmpEqCheck
	OpFloatCmpNeqCheck
	OpFloatCmpLtCheck
	OpFloatCmpGtCheck
	OpFloatCmpLteCheck
	OpFloatCmpGteCheck
	OpPointerCmpEq
	OpPointerCmpNeq
	OpPointerCmpLt
	OpPointerCmpGt
	OpPointerCmpLte
	OpPointerCmpGte

	// Arithmetic
	OpNeg
	OpNegCheck
	OpAdd
	OpAddCheck // Signed = signed overflow check
	OpPtrAddConstUnchecked // IntVal = byte offset (already scaled by elem size at build time)
	OpPtrAdd
	OpSub
	OpSubCheck
	OpPtrSub
	OpPtrDiff
	OpPtrDiffUnchecked
	OpMul
	OpMulCheck
	OpDiv // Signed selects signed/unsigned
	OpDivCheck
	OpRem

	// Bitwise / logic
	OpNot
	OpAnd
	OpXor
	OpOr
	OpShl // Signed = rhs signedness, for the shift-amount-overflow check
	OpShr

	// Bit-twiddling intrinsics
	OpBitreverse
	OpPopcount
	OpByteswap
	OpClz
	OpCtz
	OpFshl
	OpFshr

	// Math intrinsics (each has a paired *_check variant that only emits a
	// diagnostic; value semantics are identical for the base/check pair)
	OpAbs
	OpAbsCheck
	OpMin // int compare is signed for every int value type except i1
	OpMinCheck
	OpMax
	OpMaxCheck
	OpExp
	OpExpCheck
	OpExp2
	OpExp2Check
	OpExpm1
	OpExpm1Check
	OpLog
	OpLogCheck
	OpLog10
	OpLog10Check
	OpLog2
	OpLog2Check
	OpLog1p
	OpLog1pCheck
	OpSqrt
	OpSqrtCheck
	OpPow
	OpPowCheck
	OpCbrt
	OpCbrtCheck
	OpHypot
	OpHypotCheck
	OpSin
	OpSinCheck
	OpCos
	OpCosCheck
	OpTan
	OpTanCheck
	OpAsin
	OpAsinCheck
	OpAcos
	OpAcosCheck
	OpAtan
	OpAtanCheck
	OpAtan2
	OpAtan2Check
	OpSinh
	OpSinhCheck
	OpCosh
	OpCoshCheck
	OpTanh
	OpTanhCheck
	OpAsinh
	OpAsinhCheck
	OpAcosh
	OpAcoshCheck
	OpAtanh
	OpAtanhCheck
	OpErf
	OpErfCheck
	OpErfc
	OpErfcCheck
	OpTgamma
	OpTgammaCheck
	OpLgamma
	OpLgammaCheck

	// Calls
	OpFunctionCall     // CallFunc = callee, CallArgs = index into call_args table
	OpGetFunctionArg   // IntVal = arg index
	OpGetFunctionReturnAddress
	OpMalloc
	OpFree

	// Optional helpers
	OpIsOptionSet

	// Control flow (terminators)
	OpJump
	OpConditionalJump
	OpSwitch
	OpRet
	OpRetVoid
	OpUnreachable

	// Diagnostics-as-instructions
	OpError
	OpErrorStr
	OpWarningStr
	OpArrayBoundsCheck
	OpOptionalGetValueCheck
	OpStrConstructionCheck
	OpSliceConstructionCheck
	OpMemoryAccessCheck

	opCount
)

// OpInfo is the static, per-opcode metadata every builder/executor
// dispatches through: each opcode declares its operand value-types and its
// result value-type once, here, rather than via a virtual call on a
// per-variant struct (design note: "avoid virtual calls").
type OpInfo struct {
	Name        string
	Terminator  bool
	ArgCount    int // number of instruction_ref operands (0-3), excluding call_args side table
	// Result is usually derived from Width/Type at build time; Fixed is set
	// for opcodes whose result type never depends on instruction fields.
	Fixed ValueType
}

var opInfo = [opCount]OpInfo{
	OpConstInt:       {Name: "const_int", ArgCount: 0},
	OpConstFloat:     {Name: "const_float", ArgCount: 0},
	OpConstPtrNull:   {Name: "const_ptr_null", ArgCount: 0, Fixed: Ptr},

	OpLoad:  {Name: "load", ArgCount: 1},
	OpStore: {Name: "store", ArgCount: 2, Fixed: None},
	OpAlloca:           {Name: "alloca", ArgCount: 0, Fixed: Ptr},
	OpAllocaNoLifetime: {Name: "alloca_no_lifetime", ArgCount: 0, Fixed: Ptr},
	OpStartLifetime:    {Name: "start_lifetime", ArgCount: 1, Fixed: None},
	OpEndLifetime:      {Name: "end_lifetime", ArgCount: 1, Fixed: None},
	OpStructGep:        {Name: "struct_gep", ArgCount: 1, Fixed: Ptr},
	OpArrayGep:         {Name: "array_gep", ArgCount: 2, Fixed: Ptr},
	OpConstMemcpy:      {Name: "const_memcpy", ArgCount: 2, Fixed: None},
	OpConstMemsetZero:  {Name: "const_memset_zero", ArgCount: 1, Fixed: None},
	OpGetGlobalAddress: {Name: "get_global_address", ArgCount: 0, Fixed: Ptr},

	OpCastIntTrunc:   {Name: "cast_int_trunc", ArgCount: 1},
	OpCastIntZext:    {Name: "cast_int_zext", ArgCount: 1},
	OpCastIntSext:    {Name: "cast_int_sext", ArgCount: 1},
	OpCastFloatFloat: {Name: "cast_float_float", ArgCount: 1},
	OpCastFloatToInt: {Name: "cast_float_to_int", ArgCount: 1},
	OpCastIntToFloat: {Name: "cast_int_to_float", ArgCount: 1},

	OpIntCmpEq:  {Name: "int_cmp_eq", ArgCount: 2, Fixed: I1},
	OpIntCmpNeq: {Name: "int_cmp_neq", ArgCount: 2, Fixed: I1},
	OpIntCmpLt:  {Name: "int_cmp_lt", ArgCount: 2, Fixed: I1},
	OpIntCmpGt:  {Name: "int_cmp_gt", ArgCount: 2, Fixed: I1},
	OpIntCmpLte: {Name: "int_cmp_lte", ArgCount: 2, Fixed: I1},
	OpIntCmpGte: {Name: "int_cmp_gte", ArgCount: 2, Fixed: I1},

	OpFloatCmpEq:  {Name: "float_cmp_eq", ArgCount: 2, Fixed: I1},
	OpFloatCmpNeq: {Name: "float_cmp_neq", ArgCount: 2, Fixed: I1},
	OpFloatCmpLt:  {Name: "float_cmp_lt", ArgCount: 2, Fixed: I1},
	OpFloatCmpGt:  {Name: "float_cmp_gt", ArgCount: 2, Fixed: I1},
	OpFloatCmpLte: {Name: "float_cmp_lte", ArgCount: 2, Fixed: I1},
	OpFloatCmpGte: {Name: "float_cmp_gte", ArgCount: 2, Fixed: I1},

	OpFloatCmpEqCheck:  {Name: "float_cmp_eq_check", ArgCount: 2, Fixed: None},
	OpFloatCmpNeqCheck: {Name: "float_cmp_neq_check", ArgCount: 2, Fixed: None},
	OpFloatCmpLtCheck:  {Name: "float_cmp_lt_check", ArgCount: 2, Fixed: None},
	OpFloatCmpGtCheck:  {Name: "float_cmp_gt_check", ArgCount: 2, Fixed: None},
	OpFloatCmpLteCheck: {Name: "float_cmp_lte_check", ArgCount: 2, Fixed: None},
	OpFloatCmpGteCheck: {Name: "float_cmp_gte_check", ArgCount: 2, Fixed: None},

	OpPointerCmpEq:  {Name: "pointer_cmp_eq", ArgCount: 2, Fixed: I1},
	OpPointerCmpNeq: {Name: "pointer_cmp_neq", ArgCount: 2, Fixed: I1},
	OpPointerCmpLt:  {Name: "pointer_cmp_lt", ArgCount: 2, Fixed: I1},
	OpPointerCmpGt:  {Name: "pointer_cmp_gt", ArgCount: 2, Fixed: I1},
	OpPointerCmpLte: {Name: "pointer_cmp_lte", ArgCount: 2, Fixed: I1},
	OpPointerCmpGte: {Name: "pointer_cmp_gte", ArgCount: 2, Fixed: I1},

	OpNeg:      {Name: "neg", ArgCount: 1},
	OpNegCheck: {Name: "neg_check", ArgCount: 1, Fixed: None},
	OpAdd:      {Name: "add", ArgCount: 2},
	OpAddCheck: {Name: "add_check", ArgCount: 2, Fixed: None},
	OpPtrAddConstUnchecked: {Name: "ptr_add_const_unchecked", ArgCount: 1, Fixed: Ptr},
	OpPtrAdd:               {Name: "ptr_add", ArgCount: 2, Fixed: Ptr},
	OpSub:                  {Name: "sub", ArgCount: 2},
	OpSubCheck:             {Name: "sub_check", ArgCount: 2, Fixed: None},
	OpPtrSub:               {Name: "ptr_sub", ArgCount: 2, Fixed: Ptr},
	OpPtrDiff:              {Name: "ptr_diff", ArgCount: 2, Fixed: I64},
	OpPtrDiffUnchecked:     {Name: "ptr_diff_unchecked", ArgCount: 2, Fixed: I64},
	OpMul:                  {Name: "mul", ArgCount: 2},
	OpMulCheck:             {Name: "mul_check", ArgCount: 2, Fixed: None},
	OpDiv:                  {Name: "div", ArgCount: 2},
	OpDivCheck:             {Name: "div_check", ArgCount: 2, Fixed: None},
	OpRem:                  {Name: "rem", ArgCount: 2},

	OpNot: {Name: "not", ArgCount: 1},
	OpAnd: {Name: "and", ArgCount: 2},
	OpXor: {Name: "xor", ArgCount: 2},
	OpOr:  {Name: "or", ArgCount: 2},
	OpShl: {Name: "shl", ArgCount: 2},
	OpShr: {Name: "shr", ArgCount: 2},

	OpBitreverse: {Name: "bitreverse", ArgCount: 1},
	OpPopcount:   {Name: "popcount", ArgCount: 1},
	OpByteswap:   {Name: "byteswap", ArgCount: 1},
	OpClz:        {Name: "clz", ArgCount: 1},
	OpCtz:        {Name: "ctz", ArgCount: 1},
	OpFshl:       {Name: "fshl", ArgCount: 3},
	OpFshr:       {Name: "fshr", ArgCount: 3},

	OpAbs: {Name: "abs", ArgCount: 1}, OpAbsCheck: {Name: "abs_check", ArgCount: 1, Fixed: None},
	OpMin: {Name: "min", ArgCount: 2}, OpMinCheck: {Name: "min_check", ArgCount: 2, Fixed: None},
	OpMax: {Name: "max", ArgCount: 2}, OpMaxCheck: {Name: "max_check", ArgCount: 2, Fixed: None},
	OpExp: {Name: "exp", ArgCount: 1, Fixed: F64}, OpExpCheck: {Name: "exp_check", ArgCount: 1, Fixed: None},
	OpExp2: {Name: "exp2", ArgCount: 1, Fixed: F64}, OpExp2Check: {Name: "exp2_check", ArgCount: 1, Fixed: None},
	OpExpm1: {Name: "expm1", ArgCount: 1, Fixed: F64}, OpExpm1Check: {Name: "expm1_check", ArgCount: 1, Fixed: None},
	OpLog: {Name: "log", ArgCount: 1, Fixed: F64}, OpLogCheck: {Name: "log_check", ArgCount: 1, Fixed: None},
	OpLog10: {Name: "log10", ArgCount: 1, Fixed: F64}, OpLog10Check: {Name: "log10_check", ArgCount: 1, Fixed: None},
	OpLog2: {Name: "log2", ArgCount: 1, Fixed: F64}, OpLog2Check: {Name: "log2_check", ArgCount: 1, Fixed: None},
	OpLog1p: {Name: "log1p", ArgCount: 1, Fixed: F64}, OpLog1pCheck: {Name: "log1p_check", ArgCount: 1, Fixed: None},
	OpSqrt: {Name: "sqrt", ArgCount: 1}, OpSqrtCheck: {Name: "sqrt_check", ArgCount: 1, Fixed: None},
	OpPow: {Name: "pow", ArgCount: 2, Fixed: F64}, OpPowCheck: {Name: "pow_check", ArgCount: 2, Fixed: None},
	OpCbrt: {Name: "cbrt", ArgCount: 1, Fixed: F64}, OpCbrtCheck: {Name: "cbrt_check", ArgCount: 1, Fixed: None},
	OpHypot: {Name: "hypot", ArgCount: 2, Fixed: F64}, OpHypotCheck: {Name: "hypot_check", ArgCount: 2, Fixed: None},
	OpSin: {Name: "sin", ArgCount: 1, Fixed: F64}, OpSinCheck: {Name: "sin_check", ArgCount: 1, Fixed: None},
	OpCos: {Name: "cos", ArgCount: 1, Fixed: F64}, OpCosCheck: {Name: "cos_check", ArgCount: 1, Fixed: None},
	OpTan: {Name: "tan", ArgCount: 1, Fixed: F64}, OpTanCheck: {Name: "tan_check", ArgCount: 1, Fixed: None},
	OpAsin: {Name: "asin", ArgCount: 1, Fixed: F64}, OpAsinCheck: {Name: "asin_check", ArgCount: 1, Fixed: None},
	OpAcos: {Name: "acos", ArgCount: 1, Fixed: F64}, OpAcosCheck: {Name: "acos_check", ArgCount: 1, Fixed: None},
	OpAtan: {Name: "atan", ArgCount: 1, Fixed: F64}, OpAtanCheck: {Name: "atan_check", ArgCount: 1, Fixed: None},
	OpAtan2: {Name: "atan2", ArgCount: 2, Fixed: F64}, OpAtan2Check: {Name: "atan2_check", ArgCount: 2, Fixed: None},
	OpSinh: {Name: "sinh", ArgCount: 1, Fixed: F64}, OpSinhCheck: {Name: "sinh_check", ArgCount: 1, Fixed: None},
	OpCosh: {Name: "cosh", ArgCount: 1, Fixed: F64}, OpCoshCheck: {Name: "cosh_check", ArgCount: 1, Fixed: None},
	OpTanh: {Name: "tanh", ArgCount: 1, Fixed: F64}, OpTanhCheck: {Name: "tanh_check", ArgCount: 1, Fixed: None},
	OpAsinh: {Name: "asinh", ArgCount: 1, Fixed: F64}, OpAsinhCheck: {Name: "asinh_check", ArgCount: 1, Fixed: None},
	OpAcosh: {Name: "acosh", ArgCount: 1, Fixed: F64}, OpAcoshCheck: {Name: "acosh_check", ArgCount: 1, Fixed: None},
	OpAtanh: {Name: "atanh", ArgCount: 1, Fixed: F64}, OpAtanhCheck: {Name: "atanh_check", ArgCount: 1, Fixed: None},
	OpErf: {Name: "erf", ArgCount: 1, Fixed: F64}, OpErfCheck: {Name: "erf_check", ArgCount: 1, Fixed: None},
	OpErfc: {Name: "erfc", ArgCount: 1, Fixed: F64}, OpErfcCheck: {Name: "erfc_check", ArgCount: 1, Fixed: None},
	OpTgamma: {Name: "tgamma", ArgCount: 1, Fixed: F64}, OpTgammaCheck: {Name: "tgamma_check", ArgCount: 1, Fixed: None},
	OpLgamma: {Name: "lgamma", ArgCount: 1, Fixed: F64}, OpLgammaCheck: {Name: "lgamma_check", ArgCount: 1, Fixed: None},

	OpFunctionCall:             {Name: "function_call", ArgCount: 0},
	OpGetFunctionArg:           {Name: "get_function_arg", ArgCount: 0},
	OpGetFunctionReturnAddress: {Name: "get_function_return_address", ArgCount: 0, Fixed: Ptr},
	OpMalloc:                   {Name: "malloc", ArgCount: 1, Fixed: Ptr},
	OpFree:                     {Name: "free", ArgCount: 1, Fixed: None},

	OpIsOptionSet: {Name: "is_option_set", ArgCount: 2, Fixed: I1},

	OpJump:            {Name: "jump", Terminator: true, ArgCount: 0, Fixed: None},
	OpConditionalJump:  {Name: "conditional_jump", Terminator: true, ArgCount: 1, Fixed: None},
	OpSwitch:           {Name: "switch", Terminator: true, ArgCount: 1, Fixed: None},
	OpRet:              {Name: "ret", Terminator: true, ArgCount: 1, Fixed: None},
	OpRetVoid:          {Name: "ret_void", Terminator: true, ArgCount: 0, Fixed: None},
	OpUnreachable:      {Name: "unreachable", Terminator: true, ArgCount: 0, Fixed: None},

	OpError:                  {Name: "error", ArgCount: 0, Fixed: None},
	OpErrorStr:               {Name: "error_str", ArgCount: 2, Fixed: None},
	OpWarningStr:             {Name: "warning_str", ArgCount: 2, Fixed: None},
	OpArrayBoundsCheck:       {Name: "array_bounds_check", ArgCount: 2, Fixed: None},
	OpOptionalGetValueCheck:  {Name: "optional_get_value_check", ArgCount: 1, Fixed: None},
	OpStrConstructionCheck:   {Name: "str_construction_check", ArgCount: 2, Fixed: None},
	OpSliceConstructionCheck: {Name: "slice_construction_check", ArgCount: 2, Fixed: None},
	OpMemoryAccessCheck:      {Name: "memory_access_check", ArgCount: 1, Fixed: None},
}

// Info returns the static metadata for op.
func Info(op Op) OpInfo { return opInfo[op] }

func (op Op) String() string {
	if int(op) < len(opInfo) && opInfo[op].Name != "" {
		return opInfo[op].Name
	}
	return "unknown"
}

// IsTerminator reports whether op ends a basic block.
func (op Op) IsTerminator() bool { return opInfo[op].Terminator }

// IsCheck reports whether op is a checked diagnostic-only instruction
// (produces no value; only fires a diagnostic when its precondition fails).
func (op Op) IsCheck() bool {
	switch op {
	case OpAddCheck, OpSubCheck, OpMulCheck, OpDivCheck, OpNegCheck,
		OpFloatCmpEqCheck, OpFloatCmpNeqCheck, OpFloatCmpLtCheck, OpFloatCmpGtCheck, OpFloatCmpLteCheck, OpFloatCmpGteCheck,
		OpAbsCheck, OpMinCheck, OpMaxCheck,
		OpExpCheck, OpExp2Check, OpExpm1Check, OpLogCheck, OpLog10Check, OpLog2Check, OpLog1pCheck,
		OpSqrtCheck, OpPowCheck, OpCbrtCheck, OpHypotCheck,
		OpSinCheck, OpCosCheck, OpTanCheck, OpAsinCheck, OpAcosCheck, OpAtanCheck, OpAtan2Check,
		OpSinhCheck, OpCoshCheck, OpTanhCheck, OpAsinhCheck, OpAcoshCheck, OpAtanhCheck,
		OpErfCheck, OpErfcCheck, OpTgammaCheck, OpLgammaCheck,
		OpArrayBoundsCheck, OpOptionalGetValueCheck, OpStrConstructionCheck, OpSliceConstructionCheck, OpMemoryAccessCheck:
		return true
	default:
		return false
	}
}
