// Package typer computes the type of every expression, checks operator,
// assignment, call and return rules, and records how to compute the
// address of every lvalue.
package typer

import (
	"fmt"
	"strings"

	"github.com/decaf-lang/minidecaf/pkg/ast"
	"github.com/decaf-lang/minidecaf/pkg/diag"
	"github.com/decaf-lang/minidecaf/pkg/namer"
	"github.com/decaf-lang/minidecaf/pkg/types"
)

// FuncTypeInfo is a function signature
type FuncTypeInfo struct {
	Return types.Type
	Params []types.Type
}

// Compatible reports whether two signatures match exactly
func (f *FuncTypeInfo) Compatible(o *FuncTypeInfo) bool {
	return types.Equal(f.Return, o.Return) && types.EqualAll(f.Params, o.Params)
}

// CallRule checks the argument types of a call against the signature
func (f *FuncTypeInfo) CallRule() Rule {
	return Rule{Name: "call", Check: func(args ...types.Type) (types.Type, string) {
		if len(args) != len(f.Params) {
			return nil, fmt.Sprintf("%d arguments expected, %d given", len(f.Params), len(args))
		}
		if !types.EqualAll(f.Params, args) {
			return nil, fmt.Sprintf("bad argument types (%s), expected (%s)", typeList(args), typeList(f.Params))
		}
		return f.Return, ""
	}}
}

func (f *FuncTypeInfo) String() string {
	return fmt.Sprintf("(%s) -> %s", typeList(f.Params), f.Return)
}

func typeList(ts []types.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// TypeInfo is the result of type checking
type TypeInfo struct {
	Types     map[ast.Expr]types.Type
	Funcs     map[string]*FuncTypeInfo
	FuncOrder []string
	Locs      map[ast.Expr]Location
	Vars      map[*namer.Variable]types.Type

	locOrder []ast.Expr
}

// TypeOf returns the type computed for e
func (ti *TypeInfo) TypeOf(e ast.Expr) types.Type {
	return ti.Types[e]
}

// Loc returns the location of an lvalue expression
func (ti *TypeInfo) Loc(e ast.Expr) Location {
	return ti.Locs[e]
}

func (ti *TypeInfo) setLoc(e ast.Expr, loc Location) {
	if _, ok := ti.Locs[e]; !ok {
		ti.locOrder = append(ti.locOrder, e)
	}
	ti.Locs[e] = loc
}

// Typer performs type checking over a resolved program
type Typer struct {
	names *namer.NameInfo
	info  *TypeInfo
	fn    *FuncTypeInfo // function being checked
}

// New creates a Typer using the given name resolution result
func New(names *namer.NameInfo) *Typer {
	return &Typer{
		names: names,
		info: &TypeInfo{
			Types: make(map[ast.Expr]types.Type),
			Funcs: make(map[string]*FuncTypeInfo),
			Locs:  make(map[ast.Expr]Location),
			Vars:  make(map[*namer.Variable]types.Type),
		},
	}
}

// Check type checks prog
func Check(prog *ast.Program, names *namer.NameInfo) (*TypeInfo, error) {
	return New(names).Check(prog)
}

// Check type checks prog. The first violation, in left-to-right post-order,
// is returned.
func (t *Typer) Check(prog *ast.Program) (*TypeInfo, error) {
	for _, def := range prog.Definitions {
		var err error
		switch d := def.(type) {
		case *ast.FunDef:
			err = t.checkFunc(d)
		case *ast.Declaration:
			err = t.checkGlobal(d)
		default:
			panic(fmt.Sprintf("typer: unexpected definition %T", def))
		}
		if err != nil {
			return nil, err
		}
	}
	return t.info, nil
}

// TypeOfName converts a written type
func TypeOfName(tn *ast.TypeName) types.Type {
	if tn.Void {
		return types.Void()
	}
	t := types.Int()
	for i := 0; i < tn.Stars; i++ {
		t = types.Pointer(t)
	}
	return t
}

// declType is the type of a declared variable; int a[2][3] is an array
// of 2 arrays of 3 ints
func declType(d *ast.Declaration) types.Type {
	t := TypeOfName(d.Type)
	for i := len(d.Dims) - 1; i >= 0; i-- {
		t = types.Array(t, d.Dims[i])
	}
	return t
}

func (t *Typer) checkFunc(fd *ast.FunDef) error {
	sig := &FuncTypeInfo{Return: TypeOfName(fd.Return), Params: make([]types.Type, len(fd.Params))}
	for i, param := range fd.Params {
		sig.Params[i] = declType(param)
	}

	if prev, ok := t.info.Funcs[fd.Name]; ok {
		if !sig.Compatible(prev) {
			return diag.Errorf(fd.Pos, diag.ErrConflict, "conflicting types for %s", fd.Name)
		}
	} else {
		t.info.Funcs[fd.Name] = sig
		t.info.FuncOrder = append(t.info.FuncOrder, fd.Name)
	}

	if fd.Body == nil {
		return nil
	}
	t.fn = sig
	for i, param := range fd.Params {
		t.info.Vars[t.names.Var(param)] = sig.Params[i]
	}
	err := t.checkStmt(fd.Body)
	t.fn = nil
	return err
}

func (t *Typer) checkGlobal(d *ast.Declaration) error {
	v := t.names.Var(d)
	typ := declType(d)
	if prev, ok := t.info.Vars[v]; ok {
		if !types.Equal(prev, typ) {
			return diag.Errorf(d.Pos, diag.ErrConflict, "conflicting types for %s", d.Name)
		}
	} else {
		t.info.Vars[v] = typ
	}
	return t.checkInit(d, typ)
}

func (t *Typer) checkInit(d *ast.Declaration, typ types.Type) error {
	if d.Init == nil {
		return nil
	}
	initType, err := t.checkExpr(d.Init)
	if err != nil {
		return err
	}
	_, err = Assign.Apply(d.Pos, typ, initType)
	return err
}

func (t *Typer) checkStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.Declaration:
		typ := declType(s)
		t.info.Vars[t.names.Var(s)] = typ
		return t.checkInit(s, typ)
	case *ast.Block:
		for _, item := range s.Items {
			if err := t.checkStmt(item); err != nil {
				return err
			}
		}
		return nil
	case *ast.ExprStmt:
		if s.Expr == nil {
			return nil
		}
		_, err := t.checkExpr(s.Expr)
		return err
	case *ast.Return:
		got := types.Void()
		if s.Expr != nil {
			var err error
			if got, err = t.checkExpr(s.Expr); err != nil {
				return err
			}
		}
		_, err := Return.Apply(s.Pos, t.fn.Return, got)
		return err
	case *ast.If:
		cond, err := t.checkExpr(s.Cond)
		if err != nil {
			return err
		}
		if err := t.checkStmt(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			if err := t.checkStmt(s.Else); err != nil {
				return err
			}
		}
		_, err = StmtCond.Apply(s.Cond.Position(), cond)
		return err
	case *ast.While:
		cond, err := t.checkExpr(s.Cond)
		if err != nil {
			return err
		}
		if err := t.checkStmt(s.Body); err != nil {
			return err
		}
		_, err = StmtCond.Apply(s.Cond.Position(), cond)
		return err
	case *ast.DoWhile:
		if err := t.checkStmt(s.Body); err != nil {
			return err
		}
		cond, err := t.checkExpr(s.Cond)
		if err != nil {
			return err
		}
		_, err = StmtCond.Apply(s.Cond.Position(), cond)
		return err
	case *ast.For:
		if s.Init != nil {
			if err := t.checkStmt(s.Init); err != nil {
				return err
			}
		}
		var cond types.Type
		if s.Cond != nil {
			var err error
			if cond, err = t.checkExpr(s.Cond); err != nil {
				return err
			}
		}
		if s.Post != nil {
			if _, err := t.checkExpr(s.Post); err != nil {
				return err
			}
		}
		if err := t.checkStmt(s.Body); err != nil {
			return err
		}
		if s.Cond == nil {
			return nil
		}
		_, err := StmtCond.Apply(s.Cond.Position(), cond)
		return err
	case *ast.Break, *ast.Continue:
		return nil
	}
	panic(fmt.Sprintf("typer: unexpected statement %T", stmt))
}

func (t *Typer) checkExpr(expr ast.Expr) (types.Type, error) {
	typ, err := t.exprType(expr)
	if err != nil {
		return nil, err
	}
	t.info.Types[expr] = typ
	return typ, nil
}

func (t *Typer) exprType(expr ast.Expr) (types.Type, error) {
	switch e := expr.(type) {
	case *ast.Constant:
		if e.Value == 0 {
			return types.Zero(), nil
		}
		return types.Int(), nil

	case *ast.Ident:
		v := t.names.Var(e)
		typ, ok := t.info.Vars[v]
		if !ok {
			panic(fmt.Sprintf("typer: no type for %v at %v", v, e.Pos))
		}
		return typ, nil

	case *ast.Unary:
		x, err := t.checkExpr(e.X)
		if err != nil {
			return nil, err
		}
		res, err := unaryRule(e.Op).Apply(e.Pos, x)
		if err != nil {
			return nil, err
		}
		if e.Op == ast.OpAddrOf {
			if err := t.locate(e.X); err != nil {
				return nil, err
			}
		}
		return res, nil

	case *ast.Binary:
		l, err := t.checkExpr(e.Left)
		if err != nil {
			return nil, err
		}
		r, err := t.checkExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return binaryRule(e.Op).Apply(e.Pos, l, r)

	case *ast.Assign:
		target, err := t.checkExpr(e.Target)
		if err != nil {
			return nil, err
		}
		value, err := t.checkExpr(e.Value)
		if err != nil {
			return nil, err
		}
		res, err := Assign.Apply(e.Pos, target, value)
		if err != nil {
			return nil, err
		}
		if err := t.locate(e.Target); err != nil {
			return nil, err
		}
		return res, nil

	case *ast.Paren:
		return t.checkExpr(e.X)

	case *ast.Conditional:
		c, err := t.checkExpr(e.Cond)
		if err != nil {
			return nil, err
		}
		th, err := t.checkExpr(e.Then)
		if err != nil {
			return nil, err
		}
		el, err := t.checkExpr(e.Else)
		if err != nil {
			return nil, err
		}
		return Cond.Apply(e.Pos, c, th, el)

	case *ast.Call:
		args := make([]types.Type, len(e.Args))
		for i, arg := range e.Args {
			var err error
			if args[i], err = t.checkExpr(arg); err != nil {
				return nil, err
			}
		}
		sig, ok := t.info.Funcs[e.Func]
		if !ok {
			panic(fmt.Sprintf("typer: no signature for %s at %v", e.Func, e.Pos))
		}
		return sig.CallRule().Apply(e.Pos, args...)

	case *ast.Index:
		a, err := t.checkExpr(e.Array)
		if err != nil {
			return nil, err
		}
		i, err := t.checkExpr(e.Index)
		if err != nil {
			return nil, err
		}
		return Array.Apply(e.Pos, a, i)

	case *ast.Cast:
		if _, err := t.checkExpr(e.X); err != nil {
			return nil, err
		}
		return TypeOfName(e.Type), nil
	}
	panic(fmt.Sprintf("typer: unexpected expression %T", expr))
}

// locate records the location of an lvalue, or fails if e is not one
func (t *Typer) locate(e ast.Expr) error {
	loc := locateExpr(t.names, t.info, e)
	if loc == nil {
		return diag.TypeErrorf(e.Position(), diag.ErrNotLvalue, "lvalue expected")
	}
	t.info.setLoc(e, loc)
	return nil
}
