package irgen

import (
	"fmt"

	"github.com/decaf-lang/minidecaf/pkg/ast"
	"github.com/decaf-lang/minidecaf/pkg/ir"
	"github.com/decaf-lang/minidecaf/pkg/namer"
	"github.com/decaf-lang/minidecaf/pkg/typer"
	"github.com/decaf-lang/minidecaf/pkg/types"
)

var unaryOps = map[ast.UnaryOp]ir.UnaryOp{
	ast.OpNeg:    ir.Neg,
	ast.OpNot:    ir.LNot,
	ast.OpBitNot: ir.BitNot,
}

var binaryOps = map[ast.BinaryOp]ir.BinaryOp{
	ast.OpAdd: ir.Add,
	ast.OpSub: ir.Sub,
	ast.OpMul: ir.Mul,
	ast.OpDiv: ir.Div,
	ast.OpMod: ir.Rem,
	ast.OpLt:  ir.Lt,
	ast.OpLe:  ir.Le,
	ast.OpGt:  ir.Gt,
	ast.OpGe:  ir.Ge,
	ast.OpEq:  ir.Eq,
	ast.OpNe:  ir.Ne,
	ast.OpAnd: ir.LAnd,
	ast.OpOr:  ir.LOr,
}

// genExpr emits code leaving the value of e on the stack. The value of an
// array is its address.
func (g *Generator) genExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Constant:
		g.emit(ir.Const{Value: e.Value})

	case *ast.Ident:
		g.genAddressOf(g.names.Var(e))
		g.loadUnlessArray(e)

	case *ast.Unary:
		switch e.Op {
		case ast.OpAddrOf:
			g.genLoc(g.ti.Loc(e.X))
		case ast.OpDeref:
			g.genExpr(e.X)
			g.loadUnlessArray(e)
		default:
			g.genExpr(e.X)
			g.emit(ir.Unary{Op: unaryOps[e.Op]})
		}

	case *ast.Binary:
		g.genBinary(e)

	case *ast.Assign:
		g.genExpr(e.Value)
		g.genLoc(g.ti.Loc(e.Target))
		g.emit(ir.Store{})

	case *ast.Paren:
		g.genExpr(e.X)

	case *ast.Conditional:
		end := g.labels.newLabel("cond_end")
		els := g.labels.newLabel("cond_else")
		g.genExpr(e.Cond)
		g.branch(ir.Beqz, els)
		g.genExpr(e.Then)
		g.branch(ir.Br, end)
		g.label(els)
		g.genExpr(e.Else)
		g.label(end)

	case *ast.Call:
		for i := len(e.Args) - 1; i >= 0; i-- {
			g.genExpr(e.Args[i])
		}
		g.emit(ir.Call{Func: e.Func, NArgs: len(e.Args)})

	case *ast.Index:
		g.genExpr(e.Array)
		g.genExpr(e.Index)
		g.scale(g.ti.TypeOf(e.Array))
		g.emit(ir.Binary{Op: ir.Add})
		g.loadUnlessArray(e)

	case *ast.Cast:
		g.genExpr(e.X)

	default:
		panic(fmt.Sprintf("irgen: unexpected expression %T", expr))
	}
}

func (g *Generator) loadUnlessArray(e ast.Expr) {
	if !types.IsArray(g.ti.TypeOf(e)) {
		g.emit(ir.Load{})
	}
}

// scale multiplies the top of the stack by the element size of ptr
func (g *Generator) scale(ptr types.Type) {
	g.emit(ir.Const{Value: types.Sizeof(types.Elem(ptr))}, ir.Binary{Op: ir.Mul})
}

func (g *Generator) genBinary(e *ast.Binary) {
	switch e.Op {
	case ast.OpAnd:
		g.genShortCircuit(e, ir.Beqz, "land_false", "land_exit")
		return
	case ast.OpOr:
		g.genShortCircuit(e, ir.Bnez, "lor_true", "lor_exit")
		return
	}

	lt, rt := g.ti.TypeOf(e.Left), g.ti.TypeOf(e.Right)
	if e.Op == ast.OpAdd || e.Op == ast.OpSub {
		switch {
		case e.Op == ast.OpSub && types.IsPointer(rt):
			// p - q counts elements
			g.genExpr(e.Left)
			g.genExpr(e.Right)
			g.emit(ir.Binary{Op: ir.Sub})
			g.emit(ir.Const{Value: types.Sizeof(types.Elem(lt))}, ir.Binary{Op: ir.Div})
			return
		case types.IsPointer(lt):
			g.genExpr(e.Left)
			g.genExpr(e.Right)
			g.scale(lt)
			g.emit(ir.Binary{Op: binaryOps[e.Op]})
			return
		case types.IsPointer(rt):
			g.genExpr(e.Left)
			g.scale(rt)
			g.genExpr(e.Right)
			g.emit(ir.Binary{Op: binaryOps[e.Op]})
			return
		}
	}

	g.genExpr(e.Left)
	g.genExpr(e.Right)
	g.emit(ir.Binary{Op: binaryOps[e.Op]})
}

// genShortCircuit lowers && (jump on zero) and || (jump on non-zero):
//
//	lhs; jump short; rhs; jump short; const !v; br exit; short: const v; exit:
func (g *Generator) genShortCircuit(e *ast.Binary, jump ir.BranchKind, shortTag, exitTag string) {
	short := g.labels.newLabel(shortTag)
	exit := g.labels.newLabel(exitTag)
	shortValue := int64(0)
	if jump == ir.Bnez {
		shortValue = 1
	}

	g.genExpr(e.Left)
	g.branch(jump, short)
	g.genExpr(e.Right)
	g.branch(jump, short)
	g.emit(ir.Const{Value: 1 - shortValue})
	g.branch(ir.Br, exit)
	g.label(short)
	g.emit(ir.Const{Value: shortValue})
	g.label(exit)
}

func (g *Generator) genAddressOf(v *namer.Variable) {
	if v.Global {
		g.emit(ir.GlobalSymbol{Name: v.Name})
		return
	}
	g.emit(ir.FrameSlot{Offset: v.Offset})
}

// genLoc pushes the address described by loc
func (g *Generator) genLoc(loc typer.Location) {
	switch l := loc.(type) {
	case typer.AddressOf:
		g.genAddressOf(l.Var)
	case typer.Deref:
		g.genExpr(l.Pointer)
	case typer.IndexAddress:
		g.genExpr(l.Base)
		g.genExpr(l.Index)
		g.emit(ir.Const{Value: l.Scale}, ir.Binary{Op: ir.Mul}, ir.Binary{Op: ir.Add})
	default:
		panic(fmt.Sprintf("irgen: unexpected location %T", loc))
	}
}
