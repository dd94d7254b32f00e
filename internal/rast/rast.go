// Package rast defines the resolved-AST contract this subsystem consumes:
// an immutable tree of function bodies whose statements and typed
// expressions carry final semantic information — a typespec and, if
// constant, a constant_value. Name resolution, type checking, and source
// tokenization happen upstream of this package; it only states the shape
// the front end is expected to hand over.
//
// Every node is sealed to a closed interface and carries its resolved type
// directly; internal/codegen dispatches over them with a type switch
// rather than a visitor, avoiding a virtual call per node.
package rast

import (
	"constexec/internal/diag"
	"constexec/internal/types"
)

// ConstKind tags the shape of a compile-time constant value already folded
// by the front end.
type ConstKind uint8

const (
	ConstNone ConstKind = iota
	ConstInt
	ConstFloat
	ConstBool
	ConstString
	ConstArray
	ConstNull
)

// ConstantValue is the resolved constant payload attached to an expression
// node that the front end has already proven constant.
type ConstantValue struct {
	Kind     ConstKind
	Int      int64
	Float    float64
	Bool     bool
	Str      string
	Elements []ConstantValue // valid when Kind == ConstArray
}

// ExprBase is embedded by every expression node: its resolved type, an
// optional folded constant, and a source span for diagnostics.
type ExprBase struct {
	Typespec *types.Type
	Constant *ConstantValue // nil unless the front end proved this constant
	Span     diag.SourceSpan
}

func (ExprBase) exprNode() {}

// Type returns the expression's resolved type.
func (e ExprBase) Type() *types.Type { return e.Typespec }

// Expr is the sealed resolved-expression interface. The concrete types
// below are its only members.
type Expr interface {
	exprNode()
}

type IntLiteral struct {
	ExprBase
	Value  int64
	Signed bool
}

type FloatLiteral struct {
	ExprBase
	Value float64
}

type BoolLiteral struct {
	ExprBase
	Value bool
}

type StringLiteral struct {
	ExprBase
	Value string
}

type NullLiteral struct{ ExprBase }

type ArrayLiteral struct {
	ExprBase
	Elements []Expr
}

// Identifier references a previously declared variable by its resolved
// binding slot (assigned by the front end's name resolution; opaque here).
type Identifier struct {
	ExprBase
	Name string
	Slot int
}

// UnaryOp enumerates the closed set of unary operators, compressed as an
// instruction field rather than one node type per operator (the same
// compression internal/ir applies to its own instruction families).
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
	UnaryBitNot
	UnaryAddressOf
	UnaryDeref
)

type Unary struct {
	ExprBase
	Op      UnaryOp
	Operand Expr
}

// BinaryOp enumerates the closed set of non-short-circuit binary operators.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
	BinCmpEq
	BinCmpNeq
	BinCmpLt
	BinCmpGt
	BinCmpLte
	BinCmpGte
)

type Binary struct {
	ExprBase
	Op          BinaryOp
	Left, Right Expr
}

// LogicalOp enumerates the two short-circuit operators, kept distinct from
// Binary because codegen lowers them to conditional jumps, not a single
// instruction.
type LogicalOp uint8

const (
	LogicalAnd LogicalOp = iota
	LogicalOr
)

type Logical struct {
	ExprBase
	Op          LogicalOp
	Left, Right Expr
}

// Ternary is `cond ? then : else`, lowered the same way as an if/else
// producing a value.
type Ternary struct {
	ExprBase
	Cond, Then, Else Expr
}

// FuncRef is an arena index into a Program's function list, used in place
// of a raw cross-function pointer.
type FuncRef struct {
	Index int32
}

type Call struct {
	ExprBase
	Callee FuncRef
	Args   []Expr
}

type Index struct {
	ExprBase
	Object Expr
	Index  Expr
}

type Assign struct {
	ExprBase
	Target Expr
	Value  Expr
}

// StmtBase is embedded by every statement node.
type StmtBase struct {
	Span diag.SourceSpan
}

func (StmtBase) stmtNode() {}

// Stmt is the sealed resolved-statement interface.
type Stmt interface {
	stmtNode()
}

type VarDeclStmt struct {
	StmtBase
	Name string
	Type *types.Type
	Init Expr // nil for a default-initialized (zeroed) declaration
	Slot int
}

type ExprStmt struct {
	StmtBase
	X Expr
}

type BlockStmt struct {
	StmtBase
	Stmts []Stmt
}

// IfStmt's Else is nil, a *BlockStmt, or a nested *IfStmt (else-if chain).
type IfStmt struct {
	StmtBase
	Cond Expr
	Then *BlockStmt
	Else Stmt
}

type WhileStmt struct {
	StmtBase
	Cond Expr
	Body *BlockStmt
}

type ForStmt struct {
	StmtBase
	Init Stmt // nil, *VarDeclStmt, or *ExprStmt
	Cond Expr // nil means "always true"
	Post Stmt // nil or *ExprStmt
	Body *BlockStmt
}

type BreakStmt struct{ StmtBase }
type ContinueStmt struct{ StmtBase }

// ReturnStmt's Value is nil for a void return.
type ReturnStmt struct {
	StmtBase
	Value Expr
}

// Param is one resolved function parameter.
type Param struct {
	Name string
	Type *types.Type
}

// Function is one resolved function body, fully resolved and ready for
// internal/codegen to lower into internal/ir.
type Function struct {
	Name       string
	Params     []Param
	ReturnType *types.Type
	Body       *BlockStmt
	Src        diag.SourceSpan
}

// Program is the top-level arena of resolved functions a compilation hands
// to the code generator. FuncRef.Index indexes into Functions.
type Program struct {
	Functions []*Function
}
