package memmodel

import (
	"encoding/binary"
	"fmt"
	"math"

	"constexec/internal/diag"
	"constexec/internal/ir"
	"constexec/internal/types"

	"github.com/dustin/go-humanize"
)

// StackMark is a snapshot of the stack segment's high-water mark, taken on
// scope/call-frame entry and handed back to FreeFrame on exit.
type StackMark int

// Manager implements the abstract memory model over per-object byte slices.
// Global and heap objects live for the Manager's lifetime (or until Free);
// stack objects are released in bulk by FreeFrame, in LIFO order.
type Manager struct {
	types       *types.Set
	pointerSize uint64

	nextID  uint32
	objects map[uint32]*object

	stackOrder []uint32 // allocation order, for FreeFrame

	sink diag.Sink
}

// NewManager creates a memory manager over ts, targeting pointerSize bytes
// per pointer (4 or 8), routing faults as diagnostics to sink.
func NewManager(ts *types.Set, pointerSize uint64, sink diag.Sink) *Manager {
	return &Manager{
		types:       ts,
		pointerSize: pointerSize,
		nextID:      1, // id 0 reserved: Addr(0) must always mean null
		objects:     make(map[uint32]*object),
		sink:        sink,
	}
}

func (m *Manager) allocate(seg Segment, t *types.Type, count uint64, hasLifetime bool, src diag.SourceSpan) Addr {
	id := m.nextID
	m.nextID++
	obj := &object{id: id, segment: seg, typ: t, count: count, alive: true, hasLifetime: hasLifetime, src: src}
	obj.bytes = make([]byte, obj.byteSize())
	m.objects[id] = obj
	if seg == SegStack {
		m.stackOrder = append(m.stackOrder, id)
	}
	return makeAddr(seg, id, 0)
}

// Alloca allocates t in the current call frame — modeled as one object per
// alloca rather than a raw bump allocator, since every access goes through
// an object lookup anyway).
func (m *Manager) Alloca(t *types.Type, src diag.SourceSpan) Addr {
	return m.allocate(SegStack, t, 1, true, src)
}

// AllocaWithoutLifetime is Alloca for a slot the generator never brackets
// with start_lifetime/end_lifetime (e.g. the hidden return-value slot).
func (m *Manager) AllocaWithoutLifetime(t *types.Type, src diag.SourceSpan) Addr {
	return m.allocate(SegStack, t, 1, false, src)
}

// StackMark returns the current high-water mark for a later FreeFrame.
func (m *Manager) StackMark() StackMark { return StackMark(len(m.stackOrder)) }

// FreeFrame drops every stack object allocated since mark, in LIFO order.
func (m *Manager) FreeFrame(mark StackMark) {
	for i := len(m.stackOrder) - 1; i >= int(mark); i-- {
		id := m.stackOrder[i]
		if obj, ok := m.objects[id]; ok {
			obj.alive = false
			delete(m.objects, id)
		}
	}
	m.stackOrder = m.stackOrder[:mark]
}

// StartLifetime/EndLifetime toggle an object's liveness for diagnostics
// without releasing its storage: these instructions bracket an alloca's
// usable span within its frame.
func (m *Manager) StartLifetime(ptr Addr) {
	if obj := m.objects[ptr.ObjectID()]; obj != nil {
		obj.alive = true
	}
}

func (m *Manager) EndLifetime(ptr Addr) {
	if obj := m.objects[ptr.ObjectID()]; obj != nil {
		obj.alive = false
	}
}

// Malloc heap-allocates count contiguous elements of t.
func (m *Manager) Malloc(t *types.Type, count uint64, src diag.SourceSpan) (Addr, *Fault) {
	if count == 0 {
		return 0, fault(src, "malloc of zero elements")
	}
	if t.Size() != 0 && count > math.MaxUint64/t.Size() {
		return 0, fault(src, "malloc size overflow")
	}
	return m.allocate(SegHeap, t, count, true, src), nil
}

// Free releases a heap object, reporting double-free, a mismatched type,
// or a non-heap pointer.
func (m *Manager) Free(ptr Addr, t *types.Type, src diag.SourceSpan) *Fault {
	if ptr.IsNull() {
		return fault(src, "free of null pointer")
	}
	if ptr.Segment() != SegHeap {
		return fault(src, fmt.Sprintf("free of non-heap pointer (segment %s)", ptr.Segment()))
	}
	obj, ok := m.objects[ptr.ObjectID()]
	if !ok || !obj.alive {
		return fault(src, "double free")
	}
	if ptr.Offset() != 0 {
		return fault(src, "free of interior pointer")
	}
	if obj.typ != t {
		return fault(src, "free with mismatched type")
	}
	obj.alive = false
	delete(m.objects, obj.id)
	return nil
}

// CreateGlobalObject interns a write-once global object (string literal or
// consteval initializer payload) and returns its base address. initial, if
// non-nil, seeds the object's bytes.
func (m *Manager) CreateGlobalObject(t *types.Type, initial []byte, src diag.SourceSpan) Addr {
	addr := m.allocate(SegGlobal, t, 1, true, src)
	if initial != nil {
		obj := m.objects[addr.ObjectID()]
		copy(obj.bytes, initial)
	}
	return addr
}

func (m *Manager) lookup(ptr Addr) (*object, *Fault) {
	seg := ptr.Segment()
	if seg == SegMeta {
		return nil, fault(0, "meta-segment pointer is never readable")
	}
	obj, ok := m.objects[ptr.ObjectID()]
	if !ok || !obj.alive || obj.segment != seg {
		return nil, fault(0, "use of dead or unknown object")
	}
	return obj, nil
}

// CheckDereference validates that ptr is non-null and that the
// accessType-sized byte range at ptr lies inside a live object, without
// returning the memory itself. Only sizes are checked: the object's
// declared type is not compared with accessType.
func (m *Manager) CheckDereference(ptr Addr, accessType *types.Type, src diag.SourceSpan) *Fault {
	if ptr.IsNull() {
		return fault(src, "null pointer dereference")
	}
	obj, f := m.lookup(ptr)
	if f != nil {
		f.Span = src
		return f
	}
	size := accessType.Size()
	if ptr.Offset()+size > obj.byteSize() {
		return fault(src, fmt.Sprintf(
			"out-of-bounds access: offset %s, object size %s",
			humanize.Bytes(ptr.Offset()), humanize.Bytes(obj.byteSize())))
	}
	return nil
}

// GetMemory validates the access like CheckDereference and, on success,
// returns the backing byte slice covering the accessed range.
func (m *Manager) GetMemory(ptr Addr, accessType *types.Type, src diag.SourceSpan) ([]byte, *Fault) {
	if f := m.CheckDereference(ptr, accessType, src); f != nil {
		return nil, f
	}
	obj := m.objects[ptr.ObjectID()]
	size := accessType.Size()
	return obj.bytes[ptr.Offset() : ptr.Offset()+size], nil
}

// GetMemoryRaw returns the backing bytes from ptr's offset to the end of
// its object, without a type check — used by const_memcpy/memset_zero.
func (m *Manager) GetMemoryRaw(ptr Addr, src diag.SourceSpan) ([]byte, *Fault) {
	obj, f := m.lookup(ptr)
	if f != nil {
		f.Span = src
		return nil, f
	}
	if ptr.Offset() > obj.byteSize() {
		return nil, fault(src, "raw access past end of object")
	}
	return obj.bytes[ptr.Offset():], nil
}

// CheckSliceConstruction validates a (begin, end) slice/string pair: both
// must reference the same array-like object, end must not precede begin,
// and the span must be an exact multiple of elemType's size.
func (m *Manager) CheckSliceConstruction(begin, end Addr, elemType *types.Type, src diag.SourceSpan) *Fault {
	if begin.IsNull() && end.IsNull() {
		return nil
	}
	if begin.ObjectID() != end.ObjectID() || begin.Segment() != end.Segment() {
		return fault(src, "slice begin/end pointers reference different objects")
	}
	if end.Offset() < begin.Offset() {
		return fault(src, "slice construction with end before begin")
	}
	span := end.Offset() - begin.Offset()
	if elemType.Size() != 0 && span%elemType.Size() != 0 {
		return fault(src, "slice span is not a multiple of the element size")
	}
	return nil
}

// CheckPtrArithmetic validates that advancing ptr by offsetBytes stays
// within [base, base+count] of its originating array object: one-past-the-end
// is allowed, nothing further.
func (m *Manager) CheckPtrArithmetic(ptr Addr, offsetBytes int64, objectType *types.Type, src diag.SourceSpan) *Fault {
	obj, f := m.lookup(ptr)
	if f != nil {
		f.Span = src
		return f
	}
	newOffset := int64(ptr.Offset()) + offsetBytes
	if newOffset < 0 || uint64(newOffset) > obj.byteSize() {
		return fault(src, "pointer arithmetic out of bounds")
	}
	return nil
}

// PtrAdd performs checked pointer arithmetic: advances ptr by offsetBytes,
// canonicalizing the result to the meta segment if it lands exactly on the
// object's one-past-end address.
func (m *Manager) PtrAdd(ptr Addr, offsetBytes int64, objectType *types.Type, src diag.SourceSpan) (Addr, *Fault) {
	if f := m.CheckPtrArithmetic(ptr, offsetBytes, objectType, src); f != nil {
		return 0, f
	}
	obj := m.objects[ptr.ObjectID()]
	newOffset := uint64(int64(ptr.Offset()) + offsetBytes)
	if newOffset == obj.byteSize() {
		return m.MakeOnePastEnd(ptr.withOffset(newOffset)), nil
	}
	return ptr.withOffset(newOffset), nil
}

// CheckInplaceConstruct validates that ptr names a zero-offset, live object
// of exactly type t before in-place construction (placement of a value
// into already-allocated storage).
func (m *Manager) CheckInplaceConstruct(ptr Addr, t *types.Type, src diag.SourceSpan) *Fault {
	obj, f := m.lookup(ptr)
	if f != nil {
		f.Span = src
		return f
	}
	if ptr.Offset() != 0 {
		return fault(src, "in-place construction at non-zero offset")
	}
	if obj.typ != t {
		return fault(src, "in-place construction with mismatched type")
	}
	return nil
}

// MakeOnePastEnd produces the canonical meta-segment marker for ptr,
// assumed to already sit exactly at its object's one-past-end address.
// Idempotent: a pointer already in the meta segment is returned unchanged.
func (m *Manager) MakeOnePastEnd(ptr Addr) Addr {
	if ptr.Segment() == SegMeta {
		return ptr
	}
	return makeAddr(SegMeta, ptr.ObjectID(), ptr.Offset())
}

// --- Typed load/store, keyed on (width, endianness) --------------------

func byteOrder(e ir.Endian) binary.ByteOrder {
	if e == ir.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func widthType(ts *types.Set, w ir.Width) *types.Type {
	switch w {
	case ir.WI1:
		return ts.Builtin(types.I1)
	case ir.WI8:
		return ts.Builtin(types.I8)
	case ir.WI16:
		return ts.Builtin(types.I16)
	case ir.WI32:
		return ts.Builtin(types.I32)
	case ir.WI64:
		return ts.Builtin(types.I64)
	case ir.WF32:
		return ts.Builtin(types.F32)
	case ir.WF64:
		return ts.Builtin(types.F64)
	default:
		return ts.Pointer()
	}
}

// LoadInt reads an integer of width w at ptr, sign-extended to int64 when
// signed is true.
func (m *Manager) LoadInt(ptr Addr, w ir.Width, e ir.Endian, signed bool, src diag.SourceSpan) (int64, *Fault) {
	buf, f := m.GetMemory(ptr, widthType(m.types, w), src)
	if f != nil {
		return 0, f
	}
	order := byteOrder(e)
	switch w {
	case ir.WI1, ir.WI8:
		v := buf[0]
		if signed {
			return int64(int8(v)), nil
		}
		return int64(v), nil
	case ir.WI16:
		v := order.Uint16(buf)
		if signed {
			return int64(int16(v)), nil
		}
		return int64(v), nil
	case ir.WI32:
		v := order.Uint32(buf)
		if signed {
			return int64(int32(v)), nil
		}
		return int64(v), nil
	case ir.WI64:
		return int64(order.Uint64(buf)), nil
	default:
		return 0, fault(src, "load_int on non-integer width")
	}
}

// StoreInt writes v, truncated to width w, at ptr.
func (m *Manager) StoreInt(ptr Addr, w ir.Width, e ir.Endian, v int64, src diag.SourceSpan) *Fault {
	buf, f := m.GetMemory(ptr, widthType(m.types, w), src)
	if f != nil {
		return f
	}
	order := byteOrder(e)
	switch w {
	case ir.WI1, ir.WI8:
		buf[0] = byte(v)
	case ir.WI16:
		order.PutUint16(buf, uint16(v))
	case ir.WI32:
		order.PutUint32(buf, uint32(v))
	case ir.WI64:
		order.PutUint64(buf, uint64(v))
	default:
		return fault(src, "store_int on non-integer width")
	}
	return nil
}

// LoadFloat reads a float32/float64 at ptr per w, widened to float64.
func (m *Manager) LoadFloat(ptr Addr, w ir.Width, e ir.Endian, src diag.SourceSpan) (float64, *Fault) {
	buf, f := m.GetMemory(ptr, widthType(m.types, w), src)
	if f != nil {
		return 0, f
	}
	order := byteOrder(e)
	switch w {
	case ir.WF32:
		return float64(math.Float32frombits(order.Uint32(buf))), nil
	case ir.WF64:
		return math.Float64frombits(order.Uint64(buf)), nil
	default:
		return 0, fault(src, "load_float on non-float width")
	}
}

// StoreFloat writes v, narrowed to width w, at ptr.
func (m *Manager) StoreFloat(ptr Addr, w ir.Width, e ir.Endian, v float64, src diag.SourceSpan) *Fault {
	buf, f := m.GetMemory(ptr, widthType(m.types, w), src)
	if f != nil {
		return f
	}
	order := byteOrder(e)
	switch w {
	case ir.WF32:
		order.PutUint32(buf, math.Float32bits(float32(v)))
	case ir.WF64:
		order.PutUint64(buf, math.Float64bits(v))
	default:
		return fault(src, "store_float on non-float width")
	}
	return nil
}

// LoadPtr reads a pointer value at ptr, serialized as m.pointerSize bytes.
func (m *Manager) LoadPtr(ptr Addr, e ir.Endian, src diag.SourceSpan) (Addr, *Fault) {
	buf, f := m.GetMemory(ptr, m.types.Pointer(), src)
	if f != nil {
		return 0, f
	}
	order := byteOrder(e)
	if m.pointerSize == 4 {
		return Addr(order.Uint32(buf)), nil
	}
	return Addr(order.Uint64(buf)), nil
}

// StorePtr writes v at ptr, serialized as m.pointerSize bytes. Fatal if v's
// encoding does not fit in a 32-bit pointer when running in 32-bit mode.
func (m *Manager) StorePtr(ptr Addr, e ir.Endian, v Addr, src diag.SourceSpan) *Fault {
	buf, f := m.GetMemory(ptr, m.types.Pointer(), src)
	if f != nil {
		return f
	}
	order := byteOrder(e)
	if m.pointerSize == 4 {
		if uint64(v) > math.MaxUint32 {
			diag.FatalViolation("memmodel: 64-bit address %d does not fit a 32-bit pointer slot", uint64(v))
		}
		order.PutUint32(buf, uint32(v))
		return nil
	}
	order.PutUint64(buf, uint64(v))
	return nil
}

// ConstMemcpy copies size bytes from source to dest, validating both
// ranges via GetMemoryRaw.
func (m *Manager) ConstMemcpy(dest, source Addr, size uint64, src diag.SourceSpan) *Fault {
	d, f := m.GetMemoryRaw(dest, src)
	if f != nil {
		return f
	}
	s, f := m.GetMemoryRaw(source, src)
	if f != nil {
		return f
	}
	if uint64(len(d)) < size || uint64(len(s)) < size {
		return fault(src, "const_memcpy out of bounds")
	}
	copy(d[:size], s[:size])
	return nil
}

// ConstMemsetZero zeroes size bytes starting at dest.
func (m *Manager) ConstMemsetZero(dest Addr, size uint64, src diag.SourceSpan) *Fault {
	d, f := m.GetMemoryRaw(dest, src)
	if f != nil {
		return f
	}
	if uint64(len(d)) < size {
		return fault(src, "const_memset_zero out of bounds")
	}
	for i := uint64(0); i < size; i++ {
		d[i] = 0
	}
	return nil
}

// StructGep/ArrayGep addressing helpers.

// StructGep advances base to the offset of member index within aggType.
func (m *Manager) StructGep(base Addr, aggType *types.Type, index int) Addr {
	return base.withOffset(base.Offset() + aggType.Offsets()[index])
}

// ArrayGep advances base by index*elemType.Size(), clamped conceptually at
// count for one-past-end (bounds are enforced by the preceding check
// instruction, not here).
func (m *Manager) ArrayGep(base Addr, index int64, elemType *types.Type) Addr {
	return base.withOffset(uint64(int64(base.Offset()) + index*int64(elemType.Size())))
}

// ObjectSize reports ptr's underlying object's total byte size.
func (m *Manager) ObjectSize(ptr Addr) (uint64, *Fault) {
	obj, f := m.lookup(ptr)
	if f != nil {
		return 0, f
	}
	return obj.byteSize(), nil
}

// ObjectCount reports ptr's underlying object's logical element count.
func (m *Manager) ObjectCount(ptr Addr) (uint64, *Fault) {
	obj, f := m.lookup(ptr)
	if f != nil {
		return 0, f
	}
	return obj.count, nil
}

// StrType exposes this Manager's type set's interned str layout, so callers
// building or reading string aggregates don't need their own *types.Set
// reference.
func (m *Manager) StrType() *types.Type { return m.types.Str() }

// StringLen reports the byte length of a (begin, end) string span, both
// pointers assumed to reference the same backing object.
func (m *Manager) StringLen(begin, end Addr) (uint64, *Fault) {
	if begin.ObjectID() != end.ObjectID() {
		return 0, fault(0, "string begin/end pointers reference different objects")
	}
	if end.Offset() < begin.Offset() {
		return 0, fault(0, "string end precedes begin")
	}
	return end.Offset() - begin.Offset(), nil
}

// UncheckedOffset advances ptr by offsetBytes without validating the result
// stays within its object, for ptr_add_const_unchecked: the front end only
// emits that opcode where bounds were already proven by a preceding check
// (e.g. a constant struct-member address computed at compile time).
func (m *Manager) UncheckedOffset(ptr Addr, offsetBytes int64) Addr {
	return ptr.withOffset(uint64(int64(ptr.Offset()) + offsetBytes))
}
