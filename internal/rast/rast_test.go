package rast

import (
	"testing"

	"constexec/internal/types"
)

func TestExprBaseTypeReturnsTypespec(t *testing.T) {
	ts := types.NewSet(8)
	i32 := ts.Builtin(types.I32)
	e := IntLiteral{ExprBase: ExprBase{Typespec: i32}, Value: 7}
	if e.Type() != i32 {
		t.Errorf("Type() = %v, want %v", e.Type(), i32)
	}
}

// sealedExprs and sealedStmts exist only to confirm, at compile time, that
// every node type below satisfies the closed Expr/Stmt interfaces. A new
// node type that forgets to embed ExprBase/StmtBase fails to compile here,
// not silently at some distant call site.
var sealedExprs = []Expr{
	&IntLiteral{}, &FloatLiteral{}, &BoolLiteral{}, &StringLiteral{},
	&NullLiteral{}, &ArrayLiteral{}, &Identifier{}, &Unary{}, &Binary{},
	&Logical{}, &Ternary{}, &Call{}, &Index{}, &Assign{},
}

var sealedStmts = []Stmt{
	&VarDeclStmt{}, &ExprStmt{}, &BlockStmt{}, &IfStmt{}, &WhileStmt{},
	&ForStmt{}, &BreakStmt{}, &ContinueStmt{}, &ReturnStmt{},
}

func TestSealedNodeListsAreNonEmpty(t *testing.T) {
	if len(sealedExprs) == 0 || len(sealedStmts) == 0 {
		t.Fatalf("sealed node lists must not be empty")
	}
}

func TestIfStmtElseAcceptsBlockOrNestedIf(t *testing.T) {
	inner := &IfStmt{Cond: &BoolLiteral{Value: false}, Then: &BlockStmt{}}
	outer := &IfStmt{Cond: &BoolLiteral{Value: true}, Then: &BlockStmt{}, Else: inner}
	if _, ok := outer.Else.(*IfStmt); !ok {
		t.Errorf("IfStmt.Else did not hold a nested *IfStmt")
	}

	outer.Else = &BlockStmt{}
	if _, ok := outer.Else.(*BlockStmt); !ok {
		t.Errorf("IfStmt.Else did not hold a *BlockStmt")
	}
}

func TestConstantValueArrayHoldsNestedElements(t *testing.T) {
	cv := ConstantValue{
		Kind: ConstArray,
		Elements: []ConstantValue{
			{Kind: ConstInt, Int: 1},
			{Kind: ConstInt, Int: 2},
		},
	}
	if len(cv.Elements) != 2 {
		t.Fatalf("Elements has %d entries, want 2", len(cv.Elements))
	}
	if cv.Elements[0].Int != 1 || cv.Elements[1].Int != 2 {
		t.Errorf("Elements = %+v, want [1, 2]", cv.Elements)
	}
}

func TestVarDeclStmtInitIsOptional(t *testing.T) {
	decl := &VarDeclStmt{Name: "x", Slot: 0}
	if decl.Init != nil {
		t.Errorf("zero-value VarDeclStmt.Init is not nil")
	}
}

func TestFuncRefIndexesIntoProgramFunctions(t *testing.T) {
	prog := &Program{Functions: []*Function{
		{Name: "first"},
		{Name: "second"},
	}}
	ref := FuncRef{Index: 1}
	if prog.Functions[ref.Index].Name != "second" {
		t.Errorf("FuncRef{1} did not index the second function")
	}
}

func TestReturnStmtValueNilMeansVoidReturn(t *testing.T) {
	r := &ReturnStmt{}
	if r.Value != nil {
		t.Errorf("zero-value ReturnStmt.Value is not nil")
	}
}
