package codegen

import (
	"constexec/internal/diag"
	"constexec/internal/ir"
	"constexec/internal/memmodel"
	"constexec/internal/rast"
	"constexec/internal/types"
)

// GenProgram lowers every resolved function in prog into an internal/ir
// Function, in the same order as prog.Functions — internal/rast.FuncRef's
// Index is therefore valid directly as an internal/ir Instruction.CallFunc
// value against the returned slice, with no separate remapping table.
//
// Aggregate-by-value function returns are out of scope here: rast's Function
// contract assumes the front end already rewrote any by-value aggregate
// return into an explicit out-parameter before handing the resolved AST to
// this package, matching how a systems-language ABI lowers that case;
// genCall/genFunction below only model scalar and pointer results.
func GenProgram(prog *rast.Program, mem *memmodel.Manager, ts *types.Set, collector *diag.Collector, warnings diag.WarningSet, endian ir.Endian) []*ir.Function {
	funcs := make([]*ir.Function, len(prog.Functions))
	for i, fn := range prog.Functions {
		irFn := &ir.Function{Name: fn.Name, ReturnType: fn.ReturnType}
		for _, p := range fn.Params {
			irFn.ArgTypes = append(irFn.ArgTypes, p.Type)
		}
		funcs[i] = irFn
	}
	for i, fn := range prog.Functions {
		ctx := NewContext(funcs[i], mem, ts, collector, warnings, endian)
		genFunction(ctx, fn)
		funcs[i].Finalize()
	}
	return funcs
}

// genFunction binds each parameter to a fresh alloca (so Identifier lookups
// are uniform between parameters and local variables), lowers the body, and
// closes off any still-open block with an implicit return.
func genFunction(ctx *Context, fn *rast.Function) {
	for i, p := range fn.Params {
		argVal := ctx.Builder.CreateGetFunctionArg(uint32(i), ValueTypeOf(p.Type))
		ptr := ctx.Builder.CreateAlloca(p.Type)
		ctx.Builder.CreateStartLifetime(ptr)
		storeInto(ctx, ptr, ValueOf(argVal, p.Type), p.Type)
		ctx.BindVariable(i, ReferenceValue(ptr, p.Type))
	}

	genBlock(ctx, fn.Body)

	if !ctx.Builder.HasTerminator() {
		if fn.ReturnType != nil && fn.ReturnType.IsBuiltin() && fn.ReturnType.BuiltinKind() == types.Void {
			ctx.Builder.CreateRetVoid()
		} else {
			ctx.Builder.CreateUnreachable()
		}
	}
}

// storeInto writes v (already GetValue'd, or a reference for aggregate/array
// types) into the object at destPtr, choosing a byte copy for aggregate and
// array types and a typed scalar/pointer store otherwise.
func storeInto(ctx *Context, destPtr ir.InstrRef, v ExprValue, t *types.Type) {
	switch {
	case t.IsAggregate() || t.IsArray():
		ctx.Builder.CreateConstMemcpy(destPtr, v.Ref, t.Size())
	case t.IsPointer():
		ctx.Builder.CreateStore(v.Ref, destPtr, ctx.PointerWidth(), ctx.Endian)
	default:
		ctx.Builder.CreateStore(v.Ref, destPtr, WidthOf(t.BuiltinKind()), ctx.Endian)
	}
}

// loadFrom is storeInto's inverse: an aggregate/array stays a reference,
// everything else is loaded into a value.
func loadFrom(ctx *Context, ptr ir.InstrRef, t *types.Type) ExprValue {
	if t.IsAggregate() || t.IsArray() {
		return ReferenceValue(ptr, t)
	}
	if t.IsPointer() {
		return ValueOf(ctx.Builder.CreateLoad(ptr, ctx.PointerWidth(), ctx.Endian), t)
	}
	return ValueOf(ctx.Builder.CreateLoad(ptr, WidthOf(t.BuiltinKind()), ctx.Endian), t)
}

func genBlock(ctx *Context, block *rast.BlockStmt) {
	mark := ctx.PushScope()
	for _, s := range block.Stmts {
		genStmt(ctx, s)
		if ctx.Builder.HasTerminator() {
			break // rest of the block is unreachable
		}
	}
	ctx.PopScope(mark)
}

func genStmt(ctx *Context, stmt rast.Stmt) {
	switch s := stmt.(type) {
	case *rast.VarDeclStmt:
		genVarDecl(ctx, s)
	case *rast.ExprStmt:
		v := genExpr(ctx, s.X)
		if _, isCall := s.X.(*rast.Call); isCall && !v.IsNone() {
			if !(v.Type.IsBuiltin() && v.Type.BuiltinKind() == types.Void) {
				ctx.Diag.Warning(diag.WarnUnusedResult, s.Span, "result of call expression is discarded")
			}
		}
	case *rast.BlockStmt:
		genBlock(ctx, s)
	case *rast.IfStmt:
		genIf(ctx, s)
	case *rast.WhileStmt:
		genWhile(ctx, s)
	case *rast.ForStmt:
		genFor(ctx, s)
	case *rast.BreakStmt:
		if loop, ok := ctx.CurrentLoop(); ok {
			ctx.UnwindTo(loop.Marks)
			ctx.Builder.CreateJump(loop.BreakBB)
		}
	case *rast.ContinueStmt:
		if loop, ok := ctx.CurrentLoop(); ok {
			ctx.UnwindTo(loop.Marks)
			ctx.Builder.CreateJump(loop.ContinueBB)
		}
	case *rast.ReturnStmt:
		if s.Value != nil {
			v := genExpr(ctx, s.Value).GetValue(ctx, s.Span)
			ctx.UnwindTo(ScopeMark{})
			ctx.Builder.CreateRet(v.Ref)
		} else {
			ctx.UnwindTo(ScopeMark{})
			ctx.Builder.CreateRetVoid()
		}
	default:
		diag.FatalViolation("codegen: unhandled statement type %T", stmt)
	}
}

func genVarDecl(ctx *Context, s *rast.VarDeclStmt) {
	ptr := ctx.Builder.CreateAlloca(s.Type)
	ctx.Builder.CreateStartLifetime(ptr)
	ctx.PushEndLifetime(ptr, s.Type.Size())
	if s.Init != nil {
		v := genExpr(ctx, s.Init).GetValue(ctx, s.Span)
		storeInto(ctx, ptr, v, s.Type)
	} else {
		ctx.Builder.CreateConstMemsetZero(ptr, s.Type.Size())
	}
	ctx.BindVariable(s.Slot, ReferenceValue(ptr, s.Type))
}

// genIf lowers to a pair of blocks plus a shared join block, only created
// when at least one arm falls through. s.Else is nil, a *rast.BlockStmt, or
// a nested *rast.IfStmt — all three are valid genStmt targets.
func genIf(ctx *Context, s *rast.IfStmt) {
	cond := genExpr(ctx, s.Cond).GetValue(ctx, s.Span)
	thenBB := ctx.Builder.AddBasicBlock()
	elseBB := ctx.Builder.AddBasicBlock()
	ctx.Builder.CreateConditionalJump(cond.Ref, thenBB, elseBB)

	ctx.Builder.SetCurrentBasicBlock(thenBB)
	genBlock(ctx, s.Then)
	thenEnd := ctx.Builder.CurrentBasicBlock()
	thenTerminated := ctx.Builder.HasTerminator()

	ctx.Builder.SetCurrentBasicBlock(elseBB)
	if s.Else != nil {
		genStmt(ctx, s.Else)
	}
	elseEnd := ctx.Builder.CurrentBasicBlock()
	elseTerminated := ctx.Builder.HasTerminator()

	if thenTerminated && elseTerminated {
		return
	}
	endBB := ctx.Builder.AddBasicBlock()
	if !thenTerminated {
		ctx.Builder.SetCurrentBasicBlock(thenEnd)
		ctx.Builder.CreateJump(endBB)
	}
	if !elseTerminated {
		ctx.Builder.SetCurrentBasicBlock(elseEnd)
		ctx.Builder.CreateJump(endBB)
	}
	ctx.Builder.SetCurrentBasicBlock(endBB)
}

func genWhile(ctx *Context, s *rast.WhileStmt) {
	condBB := ctx.Builder.AddBasicBlock()
	bodyBB := ctx.Builder.AddBasicBlock()
	endBB := ctx.Builder.AddBasicBlock()

	ctx.Builder.CreateJump(condBB)
	ctx.Builder.SetCurrentBasicBlock(condBB)
	cond := genExpr(ctx, s.Cond).GetValue(ctx, s.Span)
	ctx.Builder.CreateConditionalJump(cond.Ref, bodyBB, endBB)

	ctx.Builder.SetCurrentBasicBlock(bodyBB)
	ctx.PushLoop(endBB, condBB)
	genBlock(ctx, s.Body)
	if !ctx.Builder.HasTerminator() {
		ctx.Builder.CreateJump(condBB)
	}
	ctx.PopLoop()

	ctx.Builder.SetCurrentBasicBlock(endBB)
}

func genFor(ctx *Context, s *rast.ForStmt) {
	mark := ctx.PushScope()
	if s.Init != nil {
		genStmt(ctx, s.Init)
	}

	condBB := ctx.Builder.AddBasicBlock()
	bodyBB := ctx.Builder.AddBasicBlock()
	postBB := ctx.Builder.AddBasicBlock()
	endBB := ctx.Builder.AddBasicBlock()

	ctx.Builder.CreateJump(condBB)
	ctx.Builder.SetCurrentBasicBlock(condBB)
	if s.Cond != nil {
		cond := genExpr(ctx, s.Cond).GetValue(ctx, s.Span)
		ctx.Builder.CreateConditionalJump(cond.Ref, bodyBB, endBB)
	} else {
		ctx.Builder.CreateJump(bodyBB)
	}

	ctx.Builder.SetCurrentBasicBlock(bodyBB)
	ctx.PushLoop(endBB, postBB)
	genBlock(ctx, s.Body)
	if !ctx.Builder.HasTerminator() {
		ctx.Builder.CreateJump(postBB)
	}
	ctx.PopLoop()

	ctx.Builder.SetCurrentBasicBlock(postBB)
	if s.Post != nil {
		genStmt(ctx, s.Post)
	}
	if !ctx.Builder.HasTerminator() {
		ctx.Builder.CreateJump(condBB)
	}

	ctx.Builder.SetCurrentBasicBlock(endBB)
	ctx.PopScope(mark)
}

// genExpr lowers a resolved expression into the current block, returning
// either a value (scalar/pointer) or a reference (aggregate/array, or an
// addressable lvalue a caller intends to load or assign through).
func genExpr(ctx *Context, expr rast.Expr) ExprValue {
	switch e := expr.(type) {
	case *rast.IntLiteral:
		ref := ctx.Builder.CreateConstInt(WidthOf(e.Typespec.BuiltinKind()), e.Value)
		return ValueOf(ref, e.Typespec)

	case *rast.FloatLiteral:
		ref := ctx.Builder.CreateConstFloat(WidthOf(e.Typespec.BuiltinKind()), e.Value)
		return ValueOf(ref, e.Typespec)

	case *rast.BoolLiteral:
		v := int64(0)
		if e.Value {
			v = 1
		}
		ref := ctx.Builder.CreateConstInt(ir.WI1, v)
		return ValueOf(ref, e.Typespec)

	case *rast.StringLiteral:
		v, f := ctx.EmitGlobalConstant(rast.ConstantValue{Kind: rast.ConstString, Str: e.Value}, e.Typespec, e.Span)
		if f != nil {
			ctx.Diag.Error(e.Span, f.Message)
			return NoneValue()
		}
		return v

	case *rast.NullLiteral:
		ref := ctx.Builder.CreateConstPtrNull()
		return ValueOf(ref, e.Typespec)

	case *rast.ArrayLiteral:
		return genArrayLiteral(ctx, e)

	case *rast.Identifier:
		v, ok := ctx.Variable(e.Slot)
		if !ok {
			diag.FatalViolation("codegen: reference to unbound variable slot %d (%s)", e.Slot, e.Name)
		}
		return v

	case *rast.Unary:
		return genUnary(ctx, e)

	case *rast.Binary:
		return genBinary(ctx, e)

	case *rast.Logical:
		return genLogical(ctx, e)

	case *rast.Ternary:
		return genTernary(ctx, e)

	case *rast.Call:
		return genCall(ctx, e)

	case *rast.Index:
		return genIndex(ctx, e)

	case *rast.Assign:
		return genAssign(ctx, e)

	default:
		diag.FatalViolation("codegen: unhandled expression type %T", expr)
		return NoneValue()
	}
}

func genArrayLiteral(ctx *Context, e *rast.ArrayLiteral) ExprValue {
	if e.Constant != nil {
		v, f := ctx.EmitGlobalConstant(*e.Constant, e.Typespec, e.Span)
		if f != nil {
			ctx.Diag.Error(e.Span, f.Message)
			return NoneValue()
		}
		return v
	}
	ptr := ctx.Builder.CreateAlloca(e.Typespec)
	ctx.Builder.CreateStartLifetime(ptr)
	elemT := e.Typespec.Elem()
	for i, el := range e.Elements {
		v := genExpr(ctx, el).GetValue(ctx, e.Span)
		idx := ctx.Builder.CreateConstInt(ir.WI64, int64(i))
		elAddr := ctx.Builder.CreateArrayGep(ptr, idx, elemT)
		storeInto(ctx, elAddr, v, elemT)
	}
	return ReferenceValue(ptr, e.Typespec)
}

func genUnary(ctx *Context, e *rast.Unary) ExprValue {
	switch e.Op {
	case rast.UnaryAddressOf:
		operand := genExpr(ctx, e.Operand)
		return ValueOf(operand.Ref, e.Typespec)

	case rast.UnaryDeref:
		ptr := genExpr(ctx, e.Operand).GetValue(ctx, e.Span)
		ctx.Builder.CreateMemoryAccessCheck(ptr.Ref, e.Typespec)
		return ReferenceValue(ptr.Ref, e.Typespec)

	case rast.UnaryNeg:
		v := genExpr(ctx, e.Operand).GetValue(ctx, e.Span)
		if e.Typespec.BuiltinKind().IsFloat() {
			ref := ctx.Builder.CreateNeg(v.Ref, ValueTypeOf(e.Typespec))
			return ValueOf(ref, e.Typespec)
		}
		ctx.Builder.CreateNegCheck(v.Ref)
		ref := ctx.Builder.CreateNeg(v.Ref, ValueTypeOf(e.Typespec))
		return ValueOf(ref, e.Typespec)

	case rast.UnaryNot:
		v := genExpr(ctx, e.Operand).GetValue(ctx, e.Span)
		ref := ctx.Builder.CreateNot(v.Ref, ir.I1)
		return ValueOf(ref, e.Typespec)

	case rast.UnaryBitNot:
		v := genExpr(ctx, e.Operand).GetValue(ctx, e.Span)
		ref := ctx.Builder.CreateNot(v.Ref, ValueTypeOf(e.Typespec))
		return ValueOf(ref, e.Typespec)

	default:
		diag.FatalViolation("codegen: unhandled unary operator %d", e.Op)
		return NoneValue()
	}
}

// operandSignedness reports whether t's builtin kind is treated as signed
// for comparison/shift/div purposes. i1 is the type system's only unsigned
// scalar (a 1-bit flag); every other integer builtin is signed — this
// language exposes no separate unsigned integer family.
func operandSignedness(t *types.Type) bool {
	return !(t.IsBuiltin() && t.BuiltinKind() == types.I1)
}

func genBinary(ctx *Context, e *rast.Binary) ExprValue {
	lhs := genExpr(ctx, e.Left).GetValue(ctx, e.Span)
	rhs := genExpr(ctx, e.Right).GetValue(ctx, e.Span)
	opType := e.Left.Type()
	isFloat := opType.IsBuiltin() && opType.BuiltinKind().IsFloat()
	isPointer := opType.IsPointer()
	signed := operandSignedness(opType)
	resultVT := ValueTypeOf(e.Typespec)

	switch e.Op {
	case rast.BinAdd:
		if isPointer {
			offsetSigned := operandSignedness(e.Right.Type())
			ref := ctx.Builder.CreatePtrAdd(lhs.Ref, rhs.Ref, opType.Elem(), offsetSigned)
			return ValueOf(ref, e.Typespec)
		}
		if !isFloat {
			ctx.Builder.CreateAddCheck(lhs.Ref, rhs.Ref, signed)
		}
		return ValueOf(ctx.Builder.CreateAdd(lhs.Ref, rhs.Ref, resultVT), e.Typespec)
	case rast.BinSub:
		if isPointer {
			if e.Right.Type().IsPointer() {
				ref := ctx.Builder.CreatePtrDiff(lhs.Ref, rhs.Ref, opType.Elem())
				return ValueOf(ref, e.Typespec)
			}
			offsetSigned := operandSignedness(e.Right.Type())
			ref := ctx.Builder.CreatePtrSub(lhs.Ref, rhs.Ref, opType.Elem(), offsetSigned)
			return ValueOf(ref, e.Typespec)
		}
		if !isFloat {
			ctx.Builder.CreateSubCheck(lhs.Ref, rhs.Ref, signed)
		}
		return ValueOf(ctx.Builder.CreateSub(lhs.Ref, rhs.Ref, resultVT), e.Typespec)
	case rast.BinMul:
		if !isFloat {
			ctx.Builder.CreateMulCheck(lhs.Ref, rhs.Ref, signed)
		}
		return ValueOf(ctx.Builder.CreateMul(lhs.Ref, rhs.Ref, resultVT), e.Typespec)
	case rast.BinDiv:
		if !isFloat {
			ctx.Builder.CreateDivCheck(lhs.Ref, rhs.Ref, signed)
		}
		return ValueOf(ctx.Builder.CreateDiv(lhs.Ref, rhs.Ref, resultVT, signed), e.Typespec)
	case rast.BinRem:
		return ValueOf(ctx.Builder.CreateRem(lhs.Ref, rhs.Ref, resultVT, signed), e.Typespec)
	case rast.BinBitAnd:
		return ValueOf(ctx.Builder.CreateAnd(lhs.Ref, rhs.Ref, resultVT), e.Typespec)
	case rast.BinBitOr:
		return ValueOf(ctx.Builder.CreateOr(lhs.Ref, rhs.Ref, resultVT), e.Typespec)
	case rast.BinBitXor:
		return ValueOf(ctx.Builder.CreateXor(lhs.Ref, rhs.Ref, resultVT), e.Typespec)
	case rast.BinShl:
		return ValueOf(ctx.Builder.CreateShl(lhs.Ref, rhs.Ref, resultVT, operandSignedness(e.Right.Type())), e.Typespec)
	case rast.BinShr:
		return ValueOf(ctx.Builder.CreateShr(lhs.Ref, rhs.Ref, resultVT, operandSignedness(e.Right.Type())), e.Typespec)
	case rast.BinCmpEq, rast.BinCmpNeq, rast.BinCmpLt, rast.BinCmpGt, rast.BinCmpLte, rast.BinCmpGte:
		ref := genCompare(ctx, e.Op, lhs, rhs, isFloat, isPointer, signed)
		return ValueOf(ref, e.Typespec)
	default:
		diag.FatalViolation("codegen: unhandled binary operator %d", e.Op)
		return NoneValue()
	}
}

func genCompare(ctx *Context, op rast.BinaryOp, lhs, rhs ExprValue, isFloat, isPointer, signed bool) ir.InstrRef {
	b := ctx.Builder
	switch {
	case isFloat:
		switch op {
		case rast.BinCmpEq:
			return b.CreateFloatCmpEq(lhs.Ref, rhs.Ref)
		case rast.BinCmpNeq:
			return b.CreateFloatCmpNeq(lhs.Ref, rhs.Ref)
		case rast.BinCmpLt:
			return b.CreateFloatCmpLt(lhs.Ref, rhs.Ref)
		case rast.BinCmpGt:
			return b.CreateFloatCmpGt(lhs.Ref, rhs.Ref)
		case rast.BinCmpLte:
			return b.CreateFloatCmpLte(lhs.Ref, rhs.Ref)
		default:
			return b.CreateFloatCmpGte(lhs.Ref, rhs.Ref)
		}
	case isPointer:
		switch op {
		case rast.BinCmpEq:
			return b.CreatePointerCmpEq(lhs.Ref, rhs.Ref)
		case rast.BinCmpNeq:
			return b.CreatePointerCmpNeq(lhs.Ref, rhs.Ref)
		case rast.BinCmpLt:
			return b.CreatePointerCmpLt(lhs.Ref, rhs.Ref)
		case rast.BinCmpGt:
			return b.CreatePointerCmpGt(lhs.Ref, rhs.Ref)
		case rast.BinCmpLte:
			return b.CreatePointerCmpLte(lhs.Ref, rhs.Ref)
		default:
			return b.CreatePointerCmpGte(lhs.Ref, rhs.Ref)
		}
	default:
		switch op {
		case rast.BinCmpEq:
			return b.CreateIntCmpEq(lhs.Ref, rhs.Ref)
		case rast.BinCmpNeq:
			return b.CreateIntCmpNeq(lhs.Ref, rhs.Ref)
		case rast.BinCmpLt:
			return b.CreateIntCmpLt(lhs.Ref, rhs.Ref, signed)
		case rast.BinCmpGt:
			return b.CreateIntCmpGt(lhs.Ref, rhs.Ref, signed)
		case rast.BinCmpLte:
			return b.CreateIntCmpLte(lhs.Ref, rhs.Ref, signed)
		default:
			return b.CreateIntCmpGte(lhs.Ref, rhs.Ref, signed)
		}
	}
}

// genLogical lowers && and || to a branch-and-merge over an i1 alloca,
// since this IR has no phi instruction: short-circuit operators lower to
// control flow, never to a single instruction.
func genLogical(ctx *Context, e *rast.Logical) ExprValue {
	i1 := ctx.Types.Builtin(types.I1)
	resultPtr := ctx.Builder.CreateAlloca(i1)
	ctx.Builder.CreateStartLifetime(resultPtr)

	lhs := genExpr(ctx, e.Left).GetValue(ctx, e.Span)

	rhsBB := ctx.Builder.AddBasicBlock()
	shortBB := ctx.Builder.AddBasicBlock()
	endBB := ctx.Builder.AddBasicBlock()

	shortValue := int64(0)
	if e.Op == rast.LogicalOr {
		shortValue = 1
		ctx.Builder.CreateConditionalJump(lhs.Ref, shortBB, rhsBB)
	} else {
		ctx.Builder.CreateConditionalJump(lhs.Ref, rhsBB, shortBB)
	}

	ctx.Builder.SetCurrentBasicBlock(shortBB)
	ctx.Builder.CreateStore(ctx.Builder.CreateConstInt(ir.WI1, shortValue), resultPtr, ir.WI1, ctx.Endian)
	if !ctx.Builder.HasTerminator() {
		ctx.Builder.CreateJump(endBB)
	}

	ctx.Builder.SetCurrentBasicBlock(rhsBB)
	rhs := genExpr(ctx, e.Right).GetValue(ctx, e.Span)
	rhsEnd := ctx.Builder.CurrentBasicBlock()
	ctx.Builder.CreateStore(rhs.Ref, resultPtr, ir.WI1, ctx.Endian)
	if !ctx.Builder.HasTerminator() {
		ctx.Builder.SetCurrentBasicBlock(rhsEnd)
		ctx.Builder.CreateJump(endBB)
	}

	ctx.Builder.SetCurrentBasicBlock(endBB)
	loaded := ctx.Builder.CreateLoad(resultPtr, ir.WI1, ctx.Endian)
	return ValueOf(loaded, e.Typespec)
}

func genTernary(ctx *Context, e *rast.Ternary) ExprValue {
	resultPtr := ctx.Builder.CreateAlloca(e.Typespec)
	ctx.Builder.CreateStartLifetime(resultPtr)

	cond := genExpr(ctx, e.Cond).GetValue(ctx, e.Span)
	thenBB := ctx.Builder.AddBasicBlock()
	elseBB := ctx.Builder.AddBasicBlock()
	endBB := ctx.Builder.AddBasicBlock()
	ctx.Builder.CreateConditionalJump(cond.Ref, thenBB, elseBB)

	ctx.Builder.SetCurrentBasicBlock(thenBB)
	thenVal := genExpr(ctx, e.Then).GetValue(ctx, e.Span)
	thenEnd := ctx.Builder.CurrentBasicBlock()
	storeInto(ctx, resultPtr, thenVal, e.Typespec)
	if !ctx.Builder.HasTerminator() {
		ctx.Builder.SetCurrentBasicBlock(thenEnd)
		ctx.Builder.CreateJump(endBB)
	}

	ctx.Builder.SetCurrentBasicBlock(elseBB)
	elseVal := genExpr(ctx, e.Else).GetValue(ctx, e.Span)
	elseEnd := ctx.Builder.CurrentBasicBlock()
	storeInto(ctx, resultPtr, elseVal, e.Typespec)
	if !ctx.Builder.HasTerminator() {
		ctx.Builder.SetCurrentBasicBlock(elseEnd)
		ctx.Builder.CreateJump(endBB)
	}

	ctx.Builder.SetCurrentBasicBlock(endBB)
	return loadFrom(ctx, resultPtr, e.Typespec)
}

func genCall(ctx *Context, e *rast.Call) ExprValue {
	args := make([]ir.InstrRef, len(e.Args))
	for i, a := range e.Args {
		args[i] = genExpr(ctx, a).GetValue(ctx, e.Span).Ref
	}
	ref := ctx.Builder.CreateFunctionCall(e.Callee.Index, args, ValueTypeOf(e.Typespec))
	return ValueOf(ref, e.Typespec)
}

// genIndex only supports indexing a statically-sized array object directly
// (e.Object must resolve to an ExprReference of array type) — pointer/slice
// subscripting goes through pointer arithmetic (BinAdd on a pointer) plus an
// explicit deref instead, per rast's Index node contract.
func genIndex(ctx *Context, e *rast.Index) ExprValue {
	object := genExpr(ctx, e.Object)
	index := genExpr(ctx, e.Index).GetValue(ctx, e.Span)
	arrType := object.Type
	sizeConst := ctx.Builder.CreateConstInt(ir.WI64, int64(arrType.Count()))
	ctx.Builder.CreateArrayBoundsCheck(index.Ref, sizeConst, operandSignedness(e.Index.Type()))
	elemAddr := ctx.Builder.CreateArrayGep(object.Ref, index.Ref, e.Typespec)
	return ReferenceValue(elemAddr, e.Typespec)
}

func genAssign(ctx *Context, e *rast.Assign) ExprValue {
	target := genExpr(ctx, e.Target)
	value := genExpr(ctx, e.Value).GetValue(ctx, e.Span)
	storeInto(ctx, target.Ref, value, e.Target.Type())
	return value
}
