// Package codegen implements the code-generation context and generator:
// translation of a resolved AST (internal/rast) into the IR (internal/ir),
// backed by the abstract memory manager (internal/memmodel) for
// global-object materialization and routing diagnostics through
// internal/diag.
//
// The context carries a scope model (destruct_stack_mark,
// lifetimes_stack_mark), push/pop-scope and push/pop-loop RAII-style
// helpers, and a create_* builder vocabulary reachable here through
// internal/ir.Builder, which this package wraps rather than duplicates.
// Cross-function references are arena indices (internal/rast.FuncRef)
// rather than raw function pointers.
package codegen

import (
	"constexec/internal/diag"
	"constexec/internal/ir"
	"constexec/internal/memmodel"
	"constexec/internal/types"
)

// ScopeMark is the (destruct_stack_mark, lifetime_stack_mark) pair pushed
// on scope entry and popped on scope exit.
type ScopeMark struct {
	DestructMark  int
	LifetimeMark  int
}

type destructKind uint8

const (
	destructVariable destructKind = iota
	destructSelf
	destructRvalueArray
	destructEndLifetime
)

// destructOp is one entry on the destruction stack.
// Destructor is nil unless the front end supplied one for this value's
// type; a nil Destructor makes Variable/Self/RvalueArray entries no-ops,
// since internal/rast does not (yet) model user-defined destructors —
// end_lifetime entries need no destructor and always fire.
type destructOp struct {
	kind        destructKind
	value       ExprValue
	condition   *ir.InstrRef // move-destruct indicator, i1
	destructor  *ir.InstrRef // reserved for a future callee reference
	lifetimeEnd *ir.InstrRef // ptr to end_lifetime, for destructEndLifetime
	size        uint64
}

// LoopInfo carries a loop's break/continue targets and the scope marks in
// effect when the loop was entered, so break/continue can unwind exactly
// the scopes opened inside the loop body.
type LoopInfo struct {
	BreakBB, ContinueBB ir.BlockRef
	Marks               ScopeMark
}

// Context is the per-function code-generation state: the IR builder, the
// memory manager and type set shared for the whole compilation, the
// destruct/lifetime stacks, the loop-info stack, and variable bindings.
type Context struct {
	Builder *ir.Builder
	Func    *ir.Function
	Mem     *memmodel.Manager
	Types   *types.Set
	Diag    *diag.Collector
	Warnings diag.WarningSet
	Endian  ir.Endian

	destructStack []destructOp
	lifetimeStack []ir.InstrRef

	loopStack []LoopInfo

	variables      map[int]ExprValue // rast var slot -> alloca reference
	moveIndicators map[int]ir.InstrRef

	valueRefStack []ExprValue // current_value_references, for nested result-slot threading
}

// NewContext starts generating fn (already given a name/arg types/return
// type by the caller) using the shared memory manager, type set, and
// diagnostic sink.
func NewContext(fn *ir.Function, mem *memmodel.Manager, ts *types.Set, sink diag.Sink, warnings diag.WarningSet, endian ir.Endian) *Context {
	collector, ok := sink.(*diag.Collector)
	if !ok {
		collector = diag.NewCollector(warnings)
	}
	b := ir.NewBuilder(fn, ts)
	b.SetCurrentBasicBlock(b.AddBasicBlock())
	return &Context{
		Builder:        b,
		Func:           fn,
		Mem:            mem,
		Types:          ts,
		Diag:           collector,
		Warnings:       warnings,
		Endian:         endian,
		variables:      make(map[int]ExprValue),
		moveIndicators: make(map[int]ir.InstrRef),
	}
}

// --- Scopes --------------------------------------------------------------

// PushScope opens a new scope and returns its mark.
func (c *Context) PushScope() ScopeMark {
	return ScopeMark{DestructMark: len(c.destructStack), LifetimeMark: len(c.lifetimeStack)}
}

// PopScope emits, in reverse order, every destruct operation registered
// since mark, provided the current block is not already terminated (an
// early-exit path already emitted its own unwind and left the block
// terminated, in which case popping here would be unreachable code).
func (c *Context) PopScope(mark ScopeMark) {
	c.emitDestructOperations(mark)
}

func (c *Context) emitDestructOperations(mark ScopeMark) {
	if !c.Builder.HasTerminator() {
		for i := len(c.destructStack) - 1; i >= mark.DestructMark; i-- {
			c.emitOneDestruct(c.destructStack[i])
		}
	}
	c.destructStack = c.destructStack[:mark.DestructMark]
	c.lifetimeStack = c.lifetimeStack[:mark.LifetimeMark]
}

func (c *Context) emitOneDestruct(op destructOp) {
	switch op.kind {
	case destructEndLifetime:
		c.Builder.CreateEndLifetime(*op.lifetimeEnd)
	case destructVariable, destructSelf, destructRvalueArray:
		if op.destructor == nil {
			return // no user-defined destructor supplied for this value's type
		}
		// A destructor callee would be invoked here via CreateFunctionCall;
		// left unimplemented until internal/rast models destructor bodies.
	}
}

// UnwindTo emits destruct operations down to (but not below) target,
// without popping the stacks — used by break/continue/return, which unwind
// intervening scopes before jumping but do not themselves own those
// scopes' marks.
func (c *Context) UnwindTo(target ScopeMark) {
	if c.Builder.HasTerminator() {
		return
	}
	for i := len(c.destructStack) - 1; i >= target.DestructMark; i-- {
		c.emitOneDestruct(c.destructStack[i])
	}
}

// PushEndLifetime registers an end_lifetime destruct entry for ptr, fired
// when the enclosing scope pops.
func (c *Context) PushEndLifetime(ptr ir.InstrRef, size uint64) {
	c.lifetimeStack = append(c.lifetimeStack, ptr)
	c.destructStack = append(c.destructStack, destructOp{kind: destructEndLifetime, lifetimeEnd: &ptr, size: size})
}

// PushVariableDestruct registers a variable destruct, conditioned on a
// move-destruct indicator when one is given.
func (c *Context) PushVariableDestruct(value ExprValue, condition *ir.InstrRef) {
	c.destructStack = append(c.destructStack, destructOp{kind: destructVariable, value: value, condition: condition})
}

// PushSelfDestruct registers an unconditional self destruct.
func (c *Context) PushSelfDestruct(value ExprValue) {
	c.destructStack = append(c.destructStack, destructOp{kind: destructSelf, value: value})
}

// --- Loops -----------------------------------------------------------------

func (c *Context) PushLoop(breakBB, continueBB ir.BlockRef) LoopInfo {
	info := LoopInfo{BreakBB: breakBB, ContinueBB: continueBB, Marks: c.PushScope()}
	c.loopStack = append(c.loopStack, info)
	return info
}

func (c *Context) PopLoop() {
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
}

func (c *Context) CurrentLoop() (LoopInfo, bool) {
	if len(c.loopStack) == 0 {
		return LoopInfo{}, false
	}
	return c.loopStack[len(c.loopStack)-1], true
}

// --- Move-destruct indicators ----------------------------------------------

// AddMoveDestructIndicator allocates an i1 at the variable's declaration,
// initialized true, for slot to thread through later destruct operations.
func (c *Context) AddMoveDestructIndicator(slot int) ir.InstrRef {
	i1 := c.Types.Builtin(types.I1)
	ptr := c.Builder.CreateAlloca(i1)
	one := c.Builder.CreateConstInt(ir.WI1, 1)
	c.Builder.CreateStore(one, ptr, ir.WI1, c.Endian)
	c.moveIndicators[slot] = ptr
	return ptr
}

func (c *Context) MoveDestructIndicator(slot int) (ir.InstrRef, bool) {
	ref, ok := c.moveIndicators[slot]
	return ref, ok
}

// MarkMoved lowers slot's move-destruct indicator to false.
func (c *Context) MarkMoved(slot int) {
	ptr, ok := c.moveIndicators[slot]
	if !ok {
		return
	}
	zero := c.Builder.CreateConstInt(ir.WI1, 0)
	c.Builder.CreateStore(zero, ptr, ir.WI1, c.Endian)
}

// --- Variable bindings ---------------------------------------------------

func (c *Context) BindVariable(slot int, value ExprValue) { c.variables[slot] = value }
func (c *Context) Variable(slot int) (ExprValue, bool)     { v, ok := c.variables[slot]; return v, ok }

// --- Value-reference stack (current_value_references) -------------------

func (c *Context) PushValueReference(v ExprValue) {
	c.valueRefStack = append(c.valueRefStack, v)
}

func (c *Context) PopValueReference() {
	c.valueRefStack = c.valueRefStack[:len(c.valueRefStack)-1]
}

func (c *Context) ValueReference(indexFromTop int) ExprValue {
	return c.valueRefStack[len(c.valueRefStack)-1-indexFromTop]
}

// PointerWidth reports the IR width matching this context's configured
// pointer size (4 or 8 bytes).
func (c *Context) PointerWidth() ir.Width {
	if c.Types.PointerSize() == 4 {
		return ir.WPtr32
	}
	return ir.WPtr64
}

// WidthOf maps a builtin scalar kind to its IR width.
func WidthOf(bk types.BuiltinKind) ir.Width {
	switch bk {
	case types.I1:
		return ir.WI1
	case types.I8:
		return ir.WI8
	case types.I16:
		return ir.WI16
	case types.I32:
		return ir.WI32
	case types.I64:
		return ir.WI64
	case types.F32:
		return ir.WF32
	case types.F64:
		return ir.WF64
	default:
		return ir.WI32
	}
}

// ValueTypeOf maps a resolved type to its IR value type, for scalar and
// pointer types. Aggregates/arrays have no single-slot value type: they
// are always manipulated by reference.
func ValueTypeOf(t *types.Type) ir.ValueType {
	switch {
	case t.IsPointer():
		return ir.Ptr
	case t.IsBuiltin():
		return WidthOf(t.BuiltinKind()).ValueType()
	default:
		return ir.Any
	}
}
