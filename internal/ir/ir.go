package ir

import (
	"math"

	"constexec/internal/types"

	"golang.org/x/exp/slices"
)

// InstrRef identifies an instruction during construction, before
// finalization: (block_index, in-block_index). A sentinel block index marks
// an alloca.
type InstrRef struct {
	Block uint32
	Index uint32
}

// AllocaBlock is the sentinel InstrRef.Block value that marks a reference to
// an alloca rather than to an instruction inside a block.
const AllocaBlock = math.MaxUint32

// IsAlloca reports whether r refers to an alloca slot (r.Index is then the
// alloca's index in Function.Allocas).
func (r InstrRef) IsAlloca() bool { return r.Block == AllocaBlock }

// ValueIndex is a dense index into a function's flat value-slot array,
// produced only at finalization. Slots [0, len(Allocas)) belong to
// allocas, in declaration order; the rest belong to instructions, in block
// order.
type ValueIndex uint32

// InstrIndex is a dense index into Function.Instructions, produced only at
// finalization. Jump/switch targets are rewritten to InstrIndex, always the
// first instruction of the destination block.
type InstrIndex uint32

// BlockRef identifies a basic block during construction.
type BlockRef uint32

// AllocaInfo describes one function-entry stack slot.
type AllocaInfo struct {
	Type        *types.Type
	HasLifetime bool
	Src         int32 // index into Function.SrcTokens, -1 if none
}

// CallArgs is one entry in a function's call_args side table: the operand
// list for a single function_call instruction, in its finalized form.
type CallArgs []ValueIndex

// CallArgsRaw is CallArgs' pre-finalization counterpart: the same operand
// list, still addressed as InstrRef (block, index) pairs.
type CallArgsRaw []InstrRef

// SwitchCase pairs a matched scrutinee value with its destination block.
// Populated during construction with a BlockRef; rewritten to InstrIndex at
// finalization.
type SwitchCase struct {
	Value   uint64
	DestRaw uint32 // BlockRef before finalize, InstrIndex after
}

// SwitchTable is one entry in a function's switch side table.
type SwitchTable struct {
	Cases      []SwitchCase
	DefaultRaw uint32 // BlockRef before finalize, InstrIndex after
}

// SliceCheckInfo, PtrArithCheckInfo, MemAccessCheckInfo, ArrayCopyCheckInfo
// record the extra static context a checked instruction needs to produce a
// good diagnostic.
type SliceCheckInfo struct {
	ElemType *types.Type
}

type PtrArithCheckInfo struct {
	ObjectType *types.Type
}

type MemAccessCheckInfo struct {
	ObjectType *types.Type
}

type ArrayCopyCheckInfo struct {
	ElemType *types.Type
	Count    uint64
}

// Instruction is one entry in a finalized function's flat instruction array,
// or one entry of a basic block's list during construction. It is a single
// closed tagged struct (not ~500 Go types) whose live fields are determined
// by Op; see op.go's OpInfo table for each opcode's operand/result shape.
type Instruction struct {
	Op     Op
	Result ValueType

	// Operand references. Pre-finalize these are InstrRef, encoded as
	// (Block,Index) pairs in ArgsRef; post-finalize, operands live in Args
	// as dense ValueIndex.
	ArgsRef [3]InstrRef
	Args    [3]ValueIndex

	Width  Width
	Endian Endian
	Signed bool

	Type *types.Type // alloca/struct_gep/array_gep/malloc/memcpy element or object type

	IntVal   int64
	FloatVal float64
	Str      string // global string payload / error message

	// Control flow (pre-finalize: BlockRef in JumpRaw; post: InstrIndex)
	JumpRaw [2]uint32
	Jump    [2]InstrIndex

	SwitchTableIndex int32 // index into Function.Switches

	// Calls
	CallFunc      int32 // index into the enclosing compilation's function arena
	CallArgsIndex int32 // index into Function.CallArgs

	// Check-info table indices (-1 if not applicable)
	SliceCheckIndex    int32
	PtrArithCheckIndex int32
	MemAccessCheckIndex int32
	ArrayCopyCheckIndex int32

	SrcTokens int32 // index into Function.SrcTokens, -1 if none
}

// BasicBlock holds an ordered instruction list during construction.
// ValueOffset is set at finalization: the InstrIndex of this block's first
// instruction.
type BasicBlock struct {
	Instructions []Instruction
	ValueOffset  InstrIndex
}

func (b *BasicBlock) Terminated() bool {
	if len(b.Instructions) == 0 {
		return false
	}
	return b.Instructions[len(b.Instructions)-1].Op.IsTerminator()
}

// Function is a single IR function. Before Finalize, Blocks is the live
// construction state; after Finalize, Instructions/Allocas/etc. are the
// authoritative, immutable flat form.
type Function struct {
	Name       string
	ArgTypes   []*types.Type
	ReturnType *types.Type

	// Construction state.
	Blocks []BasicBlock

	// Side tables, valid both during construction and after finalization.
	Allocas      []AllocaInfo
	CallArgsRaw  []CallArgsRaw // construction-time; rewritten into CallArgs by Finalize
	CallArgs     []CallArgs
	Switches     []SwitchTable
	SrcTokens    []int32 // opaque front-end source-location handles, stored as int32 ids
	SliceChecks  []SliceCheckInfo
	PtrChecks    []PtrArithCheckInfo
	MemChecks    []MemAccessCheckInfo
	ArrayChecks  []ArrayCopyCheckInfo
	Errors       []string

	// Flat, finalized form. Empty until Finalize is called.
	Instructions []Instruction
	Finalized    bool
}

// NumValues returns the total number of value slots this function has once
// finalized: allocas first, then one slot per flat instruction.
func (f *Function) NumValues() int { return len(f.Allocas) + len(f.Instructions) }

// Finalize flattens Blocks into Instructions, assigns every instruction a
// dense ValueIndex (allocas occupy the first range), rewrites every operand
// from InstrRef to ValueIndex, and rewrites every jump/switch target from
// BlockRef to the InstrIndex of the destination block's first instruction.
// Switch value lists are sorted.
func (f *Function) Finalize() {
	if f.Finalized {
		return
	}

	numAllocas := uint32(len(f.Allocas))

	// Pass 1: compute each block's InstrIndex offset and a (block,index)->
	// ValueIndex map.
	blockOffsets := make([]InstrIndex, len(f.Blocks))
	var flatCount uint32
	for bi, b := range f.Blocks {
		blockOffsets[bi] = InstrIndex(flatCount)
		flatCount += uint32(len(b.Instructions))
	}

	valueIndexOf := func(r InstrRef) ValueIndex {
		if r.IsAlloca() {
			return ValueIndex(r.Index)
		}
		return ValueIndex(numAllocas) + ValueIndex(blockOffsets[r.Block]) + ValueIndex(r.Index)
	}
	instrIndexOfBlockStart := func(bref uint32) InstrIndex {
		return blockOffsets[bref]
	}

	// Pass 2: flatten, rewriting operands and jump targets in place.
	flat := make([]Instruction, 0, flatCount)
	for bi := range f.Blocks {
		b := &f.Blocks[bi]
		b.ValueOffset = blockOffsets[bi]
		for ii := range b.Instructions {
			inst := b.Instructions[ii]
			info := Info(inst.Op)
			for a := 0; a < info.ArgCount; a++ {
				inst.Args[a] = valueIndexOf(inst.ArgsRef[a])
			}
			switch inst.Op {
			case OpJump:
				inst.Jump[0] = instrIndexOfBlockStart(inst.JumpRaw[0])
			case OpConditionalJump:
				inst.Jump[0] = instrIndexOfBlockStart(inst.JumpRaw[0])
				inst.Jump[1] = instrIndexOfBlockStart(inst.JumpRaw[1])
			case OpSwitch:
				st := &f.Switches[inst.SwitchTableIndex]
				st.DefaultRaw = uint32(instrIndexOfBlockStart(st.DefaultRaw))
				for ci := range st.Cases {
					st.Cases[ci].DestRaw = uint32(instrIndexOfBlockStart(st.Cases[ci].DestRaw))
				}
				slices.SortFunc(st.Cases, func(a, b SwitchCase) int {
					switch {
					case a.Value < b.Value:
						return -1
					case a.Value > b.Value:
						return 1
					default:
						return 0
					}
				})
			case OpFunctionCall:
				raw := f.CallArgsRaw[inst.CallArgsIndex]
				args := make(CallArgs, len(raw))
				for i, r := range raw {
					args[i] = valueIndexOf(r)
				}
				f.CallArgs[inst.CallArgsIndex] = args
			}
			flat = append(flat, inst)
		}
	}

	f.Instructions = flat
	f.Finalized = true
}
