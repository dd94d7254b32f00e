package codegen

import (
	"constexec/internal/diag"
	"constexec/internal/ir"
	"constexec/internal/types"
)

// ExprValueKind tags what an ExprValue denotes, mirroring expr_value_kind
// in codegen_context.h.
type ExprValueKind uint8

const (
	ExprNone ExprValueKind = iota
	ExprReference
	ExprValueKindValue
)

// ExprValue is the codegen-level wrapper every gen_expr call returns: a
// plain struct with a tag and two fields, used in place of operator
// overloads or smart-pointer idioms.
type ExprValue struct {
	Kind ExprValueKind
	Ref  ir.InstrRef
	Type *types.Type
}

func NoneValue() ExprValue { return ExprValue{Kind: ExprNone} }

func ReferenceValue(ref ir.InstrRef, t *types.Type) ExprValue {
	return ExprValue{Kind: ExprReference, Ref: ref, Type: t}
}

func ValueOf(ref ir.InstrRef, t *types.Type) ExprValue {
	return ExprValue{Kind: ExprValueKindValue, Ref: ref, Type: t}
}

func (v ExprValue) IsNone() bool      { return v.Kind == ExprNone }
func (v ExprValue) IsReference() bool { return v.Kind == ExprReference }
func (v ExprValue) IsValue() bool     { return v.Kind == ExprValueKindValue }

// GetValue loads a reference into a value when Type is a scalar or pointer;
// a value ExprValue is returned unchanged. Aggregate/array references are
// returned unchanged too — non-scalar values are always manipulated by
// reference, never loaded into a single value slot.
func (v ExprValue) GetValue(c *Context, src diag.SourceSpan) ExprValue {
	if v.Kind != ExprReference {
		return v
	}
	if v.Type.IsAggregate() || v.Type.IsArray() {
		return v
	}
	if v.Type.IsPointer() {
		loaded := c.Builder.CreateLoad(v.Ref, c.PointerWidth(), c.Endian)
		_ = src
		return ValueOf(loaded, v.Type)
	}
	w := WidthOf(v.Type.BuiltinKind())
	loaded := c.Builder.CreateLoad(v.Ref, w, c.Endian)
	return ValueOf(loaded, v.Type)
}
