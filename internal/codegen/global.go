package codegen

import (
	"fmt"

	"constexec/internal/diag"
	"constexec/internal/ir"
	"constexec/internal/memmodel"
	"constexec/internal/rast"
	"constexec/internal/types"
)

// WriteConstant serializes cv into the live object at addr, recursively for
// arrays/aggregates, matching the byte layout the executor's load routines
// expect exactly.
func (c *Context) WriteConstant(addr memmodel.Addr, cv rast.ConstantValue, t *types.Type, src diag.SourceSpan) *memmodel.Fault {
	switch {
	case t.IsBuiltin():
		bk := t.BuiltinKind()
		if bk.IsFloat() {
			return c.Mem.StoreFloat(addr, WidthOf(bk), c.Endian, cv.Float, src)
		}
		v := cv.Int
		if bk == types.I1 && cv.Bool {
			v = 1
		}
		return c.Mem.StoreInt(addr, WidthOf(bk), c.Endian, v, src)

	case t.IsPointer():
		return c.Mem.StorePtr(addr, c.Endian, memmodel.Addr(uint64(cv.Int)), src)

	case t.IsArray():
		elem := t.Elem()
		for i, el := range cv.Elements {
			elAddr := c.Mem.ArrayGep(addr, int64(i), elem)
			if f := c.WriteConstant(elAddr, el, elem, src); f != nil {
				return f
			}
		}
		return nil

	case t.IsAggregate():
		// A str with a string constant is written as a (begin, one-past-end)
		// pointer pair; every other aggregate, slice included, is written
		// member-by-member from cv.Elements in order.
		if t == c.Types.Str() && cv.Kind == rast.ConstString {
			return c.writeStringPayload(addr, cv.Str, src)
		}
		for i, m := range t.Members() {
			if i >= len(cv.Elements) {
				break
			}
			memberAddr := c.Mem.StructGep(addr, t, i)
			if f := c.WriteConstant(memberAddr, cv.Elements[i], m, src); f != nil {
				return f
			}
		}
		return nil

	default:
		return nil
	}
}

// writeStringPayload allocates the backing byte array for s as a separate
// global object, then writes the (begin, one-past-end) pointer pair into
// the str/slice aggregate at addr.
func (c *Context) writeStringPayload(addr memmodel.Addr, s string, src diag.SourceSpan) *memmodel.Fault {
	raw := []byte(s)
	elemT := c.Types.Builtin(types.I8)
	arrT := c.Types.Array(elemT, uint64(len(raw)))
	dataAddr := c.Mem.CreateGlobalObject(arrT, raw, src)
	endAddr, f := c.Mem.PtrAdd(dataAddr, int64(len(raw)), arrT, src)
	if f != nil {
		return f
	}
	beginField := c.Mem.StructGep(addr, c.Types.Str(), 0)
	endField := c.Mem.StructGep(addr, c.Types.Str(), 1)
	if f := c.Mem.StorePtr(beginField, c.Endian, dataAddr, src); f != nil {
		return f
	}
	return c.Mem.StorePtr(endField, c.Endian, endAddr, src)
}

// EmitGlobalConstant materializes cv as a global object of type t and
// returns a reference to it. For a scalar builtin constant this still
// allocates a one-word global object rather than folding to a bare
// const_int/const_float instruction, so every constant — scalar or not —
// has a uniform addressable identity a reference can point to.
func (c *Context) EmitGlobalConstant(cv rast.ConstantValue, t *types.Type, src diag.SourceSpan) (ExprValue, *memmodel.Fault) {
	addr := c.Mem.CreateGlobalObject(t, nil, src)
	if f := c.WriteConstant(addr, cv, t, src); f != nil {
		return ExprValue{}, f
	}
	ref := c.Builder.CreateGetGlobalAddress(uint64(addr))
	return ReferenceValue(ref, t), nil
}

// Materialize reads the result object at ptr back into a rast.ConstantValue
// using the same endianness rules as codegen — the reverse serializer
// needed to turn a successful evaluation's memory back into a source-level
// constant.
func Materialize(mem *memmodel.Manager, ptr memmodel.Addr, t *types.Type, endian ir.Endian) (rast.ConstantValue, error) {
	switch {
	case t.IsBuiltin():
		bk := t.BuiltinKind()
		if bk.IsFloat() {
			v, f := mem.LoadFloat(ptr, WidthOf(bk), endian, 0)
			if f != nil {
				return rast.ConstantValue{}, f
			}
			return rast.ConstantValue{Kind: rast.ConstFloat, Float: v}, nil
		}
		signed := bk != types.I1
		v, f := mem.LoadInt(ptr, WidthOf(bk), endian, signed, 0)
		if f != nil {
			return rast.ConstantValue{}, f
		}
		if bk == types.I1 {
			return rast.ConstantValue{Kind: rast.ConstBool, Bool: v != 0}, nil
		}
		return rast.ConstantValue{Kind: rast.ConstInt, Int: v}, nil

	case t.IsPointer():
		v, f := mem.LoadPtr(ptr, endian, 0)
		if f != nil {
			return rast.ConstantValue{}, f
		}
		return rast.ConstantValue{Kind: rast.ConstInt, Int: int64(v)}, nil

	case t.IsArray():
		elem := t.Elem()
		out := rast.ConstantValue{Kind: rast.ConstArray}
		for i := uint64(0); i < t.Count(); i++ {
			elAddr := mem.ArrayGep(ptr, int64(i), elem)
			cv, err := Materialize(mem, elAddr, elem, endian)
			if err != nil {
				return rast.ConstantValue{}, err
			}
			out.Elements = append(out.Elements, cv)
		}
		return out, nil

	case t.IsAggregate():
		if t == mem.StrType() {
			return materializeString(mem, ptr, endian)
		}
		out := rast.ConstantValue{Kind: rast.ConstArray}
		for i, m := range t.Members() {
			memberAddr := mem.StructGep(ptr, t, i)
			cv, err := Materialize(mem, memberAddr, m, endian)
			if err != nil {
				return rast.ConstantValue{}, err
			}
			out.Elements = append(out.Elements, cv)
		}
		return out, nil

	default:
		return rast.ConstantValue{Kind: rast.ConstNull}, nil
	}
}

func materializeString(mem *memmodel.Manager, ptr memmodel.Addr, endian ir.Endian) (rast.ConstantValue, error) {
	beginField := mem.StructGep(ptr, mem.StrType(), 0)
	endField := mem.StructGep(ptr, mem.StrType(), 1)
	begin, f := mem.LoadPtr(beginField, endian, 0)
	if f != nil {
		return rast.ConstantValue{}, f
	}
	end, f := mem.LoadPtr(endField, endian, 0)
	if f != nil {
		return rast.ConstantValue{}, f
	}
	n, f := mem.StringLen(begin, end)
	if f != nil {
		return rast.ConstantValue{}, f
	}
	raw, f := mem.GetMemoryRaw(begin, 0)
	if f != nil {
		return rast.ConstantValue{}, f
	}
	if uint64(len(raw)) < n {
		return rast.ConstantValue{}, fmt.Errorf("string payload shorter than reported length")
	}
	return rast.ConstantValue{Kind: rast.ConstString, Str: string(raw[:n])}, nil
}
