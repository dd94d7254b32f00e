// Package main's scenario builders hand-construct small rast.Program trees,
// standing in for the front end this subsystem otherwise consumes (the core
// consumes an already-resolved AST). Each mirrors one concrete end-to-end
// evaluation scenario; there is no lexer or parser in scope here, so the
// resolved tree is built directly.
package main

import (
	"constexec/internal/diag"
	"constexec/internal/rast"
	"constexec/internal/types"
)

// scenario bundles everything one consteval run needs: a fresh type set and
// memory manager sized for this run, the program to lower, and the warning
// configuration. The function that is run is the one named "main", looked
// up by name; it takes no arguments.
type scenario struct {
	Name string
	Desc string

	PointerSize uint64
	Warnings    diag.WarningSet
	Build       func(ts *types.Set) *rast.Program
}

func intLit(t *types.Type, v int64) *rast.IntLiteral {
	return &rast.IntLiteral{ExprBase: rast.ExprBase{Typespec: t}, Value: v, Signed: true}
}

func ident(t *types.Type, slot int) *rast.Identifier {
	return &rast.Identifier{ExprBase: rast.ExprBase{Typespec: t}, Name: "_", Slot: slot}
}

func block(stmts ...rast.Stmt) *rast.BlockStmt {
	return &rast.BlockStmt{Stmts: stmts}
}

func ret(e rast.Expr) *rast.ReturnStmt { return &rast.ReturnStmt{Value: e} }

var scenarios = []scenario{
	{
		Name:        "overflow",
		Desc:        `consteval let x: i32 = 2_000_000_000 + 2_000_000_000;`,
		PointerSize: 8,
		Build: func(ts *types.Set) *rast.Program {
			i32 := ts.Builtin(types.I32)
			sum := &rast.Binary{
				ExprBase: rast.ExprBase{Typespec: i32},
				Op:       rast.BinAdd,
				Left:     intLit(i32, 2_000_000_000),
				Right:    intLit(i32, 2_000_000_000),
			}
			body := block(
				&rast.VarDeclStmt{Name: "x", Type: i32, Init: sum, Slot: 0},
				ret(ident(i32, 0)),
			)
			fn := &rast.Function{Name: "main", ReturnType: i32, Body: body}
			return &rast.Program{Functions: []*rast.Function{fn}}
		},
	},
	{
		Name:        "divzero",
		Desc:        `consteval let y = 10 / 0;`,
		PointerSize: 8,
		Build: func(ts *types.Set) *rast.Program {
			i32 := ts.Builtin(types.I32)
			div := &rast.Binary{
				ExprBase: rast.ExprBase{Typespec: i32},
				Op:       rast.BinDiv,
				Left:     intLit(i32, 10),
				Right:    intLit(i32, 0),
			}
			body := block(
				&rast.VarDeclStmt{Name: "y", Type: i32, Init: div, Slot: 0},
				ret(ident(i32, 0)),
			)
			fn := &rast.Function{Name: "main", ReturnType: i32, Body: body}
			return &rast.Program{Functions: []*rast.Function{fn}}
		},
	},
	{
		Name:        "bounds",
		Desc:        `consteval a: [3]i32 = [1,2,3]; a[3]`,
		PointerSize: 8,
		Build: func(ts *types.Set) *rast.Program {
			i32 := ts.Builtin(types.I32)
			arrT := ts.Array(i32, 3)
			lit := &rast.ArrayLiteral{
				ExprBase: rast.ExprBase{Typespec: arrT},
				Elements: []rast.Expr{intLit(i32, 1), intLit(i32, 2), intLit(i32, 3)},
			}
			idx := &rast.Index{
				ExprBase: rast.ExprBase{Typespec: i32},
				Object:   ident(arrT, 0),
				Index:    intLit(i32, 3),
			}
			body := block(
				&rast.VarDeclStmt{Name: "a", Type: arrT, Init: lit, Slot: 0},
				ret(idx),
			)
			fn := &rast.Function{Name: "main", ReturnType: i32, Body: body}
			return &rast.Program{Functions: []*rast.Function{fn}}
		},
	},
	{
		Name:        "ptrarith",
		Desc:        `consteval a: [3]i32 = [1,2,3]; p := &a[0]; q := p + 4;`,
		PointerSize: 8,
		Build: func(ts *types.Set) *rast.Program {
			i32 := ts.Builtin(types.I32)
			arrT := ts.Array(i32, 3)
			ptrT := ts.Pointer()
			lit := &rast.ArrayLiteral{
				ExprBase: rast.ExprBase{Typespec: arrT},
				Elements: []rast.Expr{intLit(i32, 1), intLit(i32, 2), intLit(i32, 3)},
			}
			a0 := &rast.Index{
				ExprBase: rast.ExprBase{Typespec: i32},
				Object:   ident(arrT, 0),
				Index:    intLit(i32, 0),
			}
			addrOf := &rast.Unary{
				ExprBase: rast.ExprBase{Typespec: ptrT},
				Op:       rast.UnaryAddressOf,
				Operand:  a0,
			}
			q := &rast.Binary{
				ExprBase: rast.ExprBase{Typespec: ptrT},
				Op:       rast.BinAdd,
				Left:     ident(ptrT, 1),
				Right:    intLit(i32, 4),
			}
			body := block(
				&rast.VarDeclStmt{Name: "a", Type: arrT, Init: lit, Slot: 0},
				&rast.VarDeclStmt{Name: "p", Type: ptrT, Init: addrOf, Slot: 1},
				&rast.VarDeclStmt{Name: "q", Type: ptrT, Init: q, Slot: 2},
				ret(ident(ptrT, 2)),
			)
			fn := &rast.Function{Name: "main", ReturnType: ptrT, Body: body}
			return &rast.Program{Functions: []*rast.Function{fn}}
		},
	},
	{
		Name:        "string",
		Desc:        `consteval let s: str = "héllo";`,
		PointerSize: 8,
		Build: func(ts *types.Set) *rast.Program {
			strT := ts.Str()
			// Returned directly rather than bound to a local "s" first: a
			// local str variable would copy the struct onto the stack frame
			// this call tears down on return, and by-value aggregate
			// returns are out of scope for codegen (see generator.go's
			// GenProgram doc comment) — the string itself still lives in
			// the global segment either way, so the read-back is identical.
			lit := &rast.StringLiteral{ExprBase: rast.ExprBase{Typespec: strT}, Value: "héllo"}
			body := block(ret(lit))
			fn := &rast.Function{Name: "main", ReturnType: strT, Body: body}
			return &rast.Program{Functions: []*rast.Function{fn}}
		},
	},
	{
		Name:        "factorial",
		Desc:        `consteval fact(5), fact(n) = n <= 1 ? 1 : n * fact(n-1)`,
		PointerSize: 8,
		Build: func(ts *types.Set) *rast.Program {
			i32 := ts.Builtin(types.I32)

			fact := &rast.Function{
				Name:       "fact",
				Params:     []rast.Param{{Name: "n", Type: i32}},
				ReturnType: i32,
			}
			nSlot := 0
			cond := &rast.Binary{
				ExprBase: rast.ExprBase{Typespec: ts.Builtin(types.I1)},
				Op:       rast.BinCmpLte,
				Left:     ident(i32, nSlot),
				Right:    intLit(i32, 1),
			}
			recurse := &rast.Call{
				ExprBase: rast.ExprBase{Typespec: i32},
				Callee:   rast.FuncRef{Index: 0},
				Args: []rast.Expr{&rast.Binary{
					ExprBase: rast.ExprBase{Typespec: i32},
					Op:       rast.BinSub,
					Left:     ident(i32, nSlot),
					Right:    intLit(i32, 1),
				}},
			}
			step := &rast.Binary{
				ExprBase: rast.ExprBase{Typespec: i32},
				Op:       rast.BinMul,
				Left:     ident(i32, nSlot),
				Right:    recurse,
			}
			fact.Body = block(ret(&rast.Ternary{
				ExprBase: rast.ExprBase{Typespec: i32},
				Cond:     cond,
				Then:     intLit(i32, 1),
				Else:     step,
			}))

			main := &rast.Function{
				Name:       "main",
				ReturnType: i32,
				Body: block(ret(&rast.Call{
					ExprBase: rast.ExprBase{Typespec: i32},
					Callee:   rast.FuncRef{Index: 0},
					Args:     []rast.Expr{intLit(i32, 5)},
				})),
			}
			return &rast.Program{Functions: []*rast.Function{fact, main}}
		},
	},
}

// entryFunc reports the index of prog's function named "main" — the one
// every scenario above calls with no arguments.
func entryFunc(prog *rast.Program) int32 {
	for i, fn := range prog.Functions {
		if fn.Name == "main" {
			return int32(i)
		}
	}
	return 0
}
