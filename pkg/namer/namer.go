// Package namer resolves every identifier occurrence to the variable it
// denotes and assigns frame offsets to locals. Different declarations of
// the same name become different Variables, so later passes never look at
// names again.
package namer

import (
	"fmt"

	"github.com/decaf-lang/minidecaf/pkg/ast"
	"github.com/decaf-lang/minidecaf/pkg/diag"
	"github.com/decaf-lang/minidecaf/pkg/types"
)

// MaxArrayElems bounds the element count of a single array declaration
const MaxArrayElems = 1 << 20

// Variable is a resolved variable. Identity is the pointer: two variables
// with the same Name are different if their IDs differ.
type Variable struct {
	Name   string
	ID     int
	Offset int64 // fp-relative offset of the lowest slot, locals only
	Global bool
	Size   int64
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s(%d)", v.Name, v.ID)
}

// FuncSymbolInfo holds the resolution result for one function
type FuncSymbolInfo struct {
	Name    string
	Defined bool
	NParams int

	// Vars maps each *ast.Ident and local *ast.Declaration to its variable
	Vars map[ast.Node]*Variable
	// BlockSlots maps each *ast.Block and *ast.For to the number of slots
	// its scope opens. A function body's count includes the parameters.
	BlockSlots map[ast.Node]int64

	varOrder   []ast.Node
	blockOrder []ast.Node
}

func newFuncSymbolInfo(name string, nparams int, defined bool) *FuncSymbolInfo {
	return &FuncSymbolInfo{
		Name:       name,
		Defined:    defined,
		NParams:    nparams,
		Vars:       make(map[ast.Node]*Variable),
		BlockSlots: make(map[ast.Node]int64),
	}
}

func (f *FuncSymbolInfo) bind(n ast.Node, v *Variable) {
	if _, ok := f.Vars[n]; !ok {
		f.varOrder = append(f.varOrder, n)
	}
	f.Vars[n] = v
}

func (f *FuncSymbolInfo) setSlots(n ast.Node, slots int64) {
	if _, ok := f.BlockSlots[n]; !ok {
		f.blockOrder = append(f.blockOrder, n)
	}
	f.BlockSlots[n] = slots
}

// GlobalInfo describes a global variable
type GlobalInfo struct {
	Var  *Variable
	Size int64
	Init *int64 // nil if no declaration has an initializer
	Pos  ast.Pos
}

// NameInfo is the result of name resolution for a program
type NameInfo struct {
	Funcs       map[string]*FuncSymbolInfo
	FuncOrder   []string
	Globals     map[string]*GlobalInfo
	GlobalOrder []string

	vars map[ast.Node]*Variable // all functions plus global declarations
}

// Var returns the variable an identifier or declaration resolves to
func (ni *NameInfo) Var(n ast.Node) *Variable {
	return ni.vars[n]
}

func (ni *NameInfo) freeze() {
	for _, name := range ni.FuncOrder {
		for n, v := range ni.Funcs[name].Vars {
			ni.vars[n] = v
		}
	}
}

// scope is one level of the lexical scope chain
type scope struct {
	parent *scope
	node   ast.Node
	vars   map[string]*Variable
	slots  int64 // slot counter at entry
}

func (s *scope) lookup(name string) *Variable {
	for ; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v
		}
	}
	return nil
}

// Namer performs name resolution. A Namer is good for one program.
type Namer struct {
	info   *NameInfo
	global *scope
	scope  *scope
	slots  int64
	fn     *FuncSymbolInfo
	ids    map[string]int
}

// New creates a Namer with fresh counters
func New() *Namer {
	global := &scope{vars: make(map[string]*Variable)}
	return &Namer{
		info: &NameInfo{
			Funcs:   make(map[string]*FuncSymbolInfo),
			Globals: make(map[string]*GlobalInfo),
			vars:    make(map[ast.Node]*Variable),
		},
		global: global,
		scope:  global,
		ids:    make(map[string]int),
	}
}

// Resolve runs name resolution over prog
func Resolve(prog *ast.Program) (*NameInfo, error) {
	return New().Resolve(prog)
}

// Resolve runs name resolution over prog
func (n *Namer) Resolve(prog *ast.Program) (*NameInfo, error) {
	for _, def := range prog.Definitions {
		var err error
		switch d := def.(type) {
		case *ast.FunDef:
			err = n.resolveFunc(d)
		case *ast.Declaration:
			err = n.resolveGlobal(d)
		default:
			panic(fmt.Sprintf("namer: unexpected definition %T", def))
		}
		if err != nil {
			return nil, err
		}
	}
	n.info.freeze()
	return n.info, nil
}

func (n *Namer) newVar(name string, offset int64, global bool, size int64) *Variable {
	n.ids[name]++
	return &Variable{Name: name, ID: n.ids[name], Offset: offset, Global: global, Size: size}
}

func (n *Namer) enterScope(node ast.Node) {
	n.scope = &scope{parent: n.scope, node: node, vars: make(map[string]*Variable), slots: n.slots}
}

func (n *Namer) exitScope() {
	n.fn.setSlots(n.scope.node, n.slots-n.scope.slots)
	n.slots = n.scope.slots
	n.scope = n.scope.parent
}

// elems returns the element count of a declaration: 1 for scalars, the
// product of the dimensions for arrays
func elems(d *ast.Declaration) (int64, error) {
	count := int64(1)
	for _, dim := range d.Dims {
		if dim <= 0 {
			return 0, diag.Errorf(d.Pos, diag.ErrArraySize, "array size <= 0")
		}
		if dim > MaxArrayElems || count*dim > MaxArrayElems {
			return 0, diag.Errorf(d.Pos, diag.ErrArraySize, "array %s is too large", d.Name)
		}
		count *= dim
	}
	return count, nil
}

func (n *Namer) resolveFunc(fd *ast.FunDef) error {
	if _, ok := n.info.Globals[fd.Name]; ok {
		return diag.Errorf(fd.Pos, diag.ErrConflict, "%s redeclared as a different kind of symbol", fd.Name)
	}

	prev, seen := n.info.Funcs[fd.Name]
	if seen {
		if prev.Defined && fd.Body != nil {
			return diag.Errorf(fd.Pos, diag.ErrRedefinition, "redefinition of function %s", fd.Name)
		}
		if prev.NParams != len(fd.Params) {
			return diag.Errorf(fd.Pos, diag.ErrConflict, "conflicting types for %s", fd.Name)
		}
	}

	fn := newFuncSymbolInfo(fd.Name, len(fd.Params), fd.Body != nil)
	switch {
	case !seen:
		n.info.Funcs[fd.Name] = fn
		n.info.FuncOrder = append(n.info.FuncOrder, fd.Name)
	case fd.Body != nil:
		n.info.Funcs[fd.Name] = fn
	}

	// Parameters live in the body's own scope, so a local cannot redeclare
	// one. A prototype's parameters are still checked for duplicates, into
	// a throwaway table.
	var scopeNode ast.Node = fd.Body
	if fd.Body == nil {
		fn = newFuncSymbolInfo(fd.Name, len(fd.Params), false)
		scopeNode = fd
	}

	n.fn = fn
	n.slots = 0
	n.enterScope(scopeNode)
	for _, param := range fd.Params {
		if err := n.declare(param, 1); err != nil {
			return err
		}
	}
	if fd.Body != nil {
		for _, item := range fd.Body.Items {
			if err := n.resolveStmt(item); err != nil {
				return err
			}
		}
	}
	n.exitScope()
	n.fn = nil
	return nil
}

// declare binds d in the current scope at the next free slots
func (n *Namer) declare(d *ast.Declaration, nelems int64) error {
	if _, ok := n.scope.vars[d.Name]; ok {
		return diag.Errorf(d.Pos, diag.ErrRedefinition, "redefinition of %s", d.Name)
	}
	n.slots += nelems
	v := n.newVar(d.Name, -types.WordSize*n.slots, false, types.WordSize*nelems)
	n.scope.vars[d.Name] = v
	n.fn.bind(d, v)
	return nil
}

func (n *Namer) resolveStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.Declaration:
		// the initializer cannot see the name being declared
		if s.Init != nil {
			if err := n.resolveExpr(s.Init); err != nil {
				return err
			}
		}
		count, err := elems(s)
		if err != nil {
			return err
		}
		return n.declare(s, count)
	case *ast.Block:
		n.enterScope(s)
		for _, item := range s.Items {
			if err := n.resolveStmt(item); err != nil {
				return err
			}
		}
		n.exitScope()
		return nil
	case *ast.ExprStmt:
		return n.resolveOptExpr(s.Expr)
	case *ast.Return:
		return n.resolveOptExpr(s.Expr)
	case *ast.If:
		if err := n.resolveExpr(s.Cond); err != nil {
			return err
		}
		if err := n.resolveStmt(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			return n.resolveStmt(s.Else)
		}
		return nil
	case *ast.While:
		if err := n.resolveExpr(s.Cond); err != nil {
			return err
		}
		return n.resolveStmt(s.Body)
	case *ast.DoWhile:
		if err := n.resolveStmt(s.Body); err != nil {
			return err
		}
		return n.resolveExpr(s.Cond)
	case *ast.For:
		n.enterScope(s)
		if s.Init != nil {
			if err := n.resolveStmt(s.Init); err != nil {
				return err
			}
		}
		for _, e := range []ast.Expr{s.Cond, s.Post} {
			if err := n.resolveOptExpr(e); err != nil {
				return err
			}
		}
		if err := n.resolveStmt(s.Body); err != nil {
			return err
		}
		n.exitScope()
		return nil
	case *ast.Break, *ast.Continue:
		return nil
	}
	panic(fmt.Sprintf("namer: unexpected statement %T", stmt))
}

func (n *Namer) resolveOptExpr(e ast.Expr) error {
	if e == nil {
		return nil
	}
	return n.resolveExpr(e)
}

func (n *Namer) resolveExpr(expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.Constant:
		return nil
	case *ast.Ident:
		v := n.scope.lookup(e.Name)
		if v == nil {
			return diag.Errorf(e.Pos, diag.ErrUndeclared, "%s undeclared", e.Name)
		}
		n.fn.bind(e, v)
		return nil
	case *ast.Unary:
		return n.resolveExpr(e.X)
	case *ast.Binary:
		if err := n.resolveExpr(e.Left); err != nil {
			return err
		}
		return n.resolveExpr(e.Right)
	case *ast.Assign:
		if err := n.resolveExpr(e.Target); err != nil {
			return err
		}
		return n.resolveExpr(e.Value)
	case *ast.Paren:
		return n.resolveExpr(e.X)
	case *ast.Conditional:
		for _, sub := range []ast.Expr{e.Cond, e.Then, e.Else} {
			if err := n.resolveExpr(sub); err != nil {
				return err
			}
		}
		return nil
	case *ast.Call:
		if _, ok := n.info.Funcs[e.Func]; !ok {
			return diag.Errorf(e.Pos, diag.ErrUndeclared, "function %s undeclared", e.Func)
		}
		for _, arg := range e.Args {
			if err := n.resolveExpr(arg); err != nil {
				return err
			}
		}
		return nil
	case *ast.Index:
		if err := n.resolveExpr(e.Array); err != nil {
			return err
		}
		return n.resolveExpr(e.Index)
	case *ast.Cast:
		return n.resolveExpr(e.X)
	}
	panic(fmt.Sprintf("namer: unexpected expression %T", expr))
}

func (n *Namer) resolveGlobal(d *ast.Declaration) error {
	if _, ok := n.info.Funcs[d.Name]; ok {
		return diag.Errorf(d.Pos, diag.ErrConflict, "%s redeclared as a different kind of symbol", d.Name)
	}

	var init *int64
	if d.Init != nil {
		v, ok := EvalConst(d.Init)
		if !ok {
			return diag.Errorf(d.Init.Position(), diag.ErrNotConstant, "global initializers must be constants")
		}
		init = &v
	}
	count, err := elems(d)
	if err != nil {
		return err
	}

	if prev, ok := n.info.Globals[d.Name]; ok {
		if prev.Init != nil && init != nil {
			return diag.Errorf(d.Pos, diag.ErrRedefinition, "redefinition of variable %s", d.Name)
		}
		if init != nil {
			prev.Init = init
		}
		n.info.vars[d] = prev.Var
		return nil
	}

	v := n.newVar(d.Name, 0, true, types.WordSize*count)
	n.global.vars[d.Name] = v
	n.info.Globals[d.Name] = &GlobalInfo{Var: v, Size: v.Size, Init: init, Pos: d.Pos}
	n.info.GlobalOrder = append(n.info.GlobalOrder, d.Name)
	n.info.vars[d] = v
	return nil
}

// EvalConst evaluates an expression made only of integer literals and
// operators. It reports false for anything else, including division by
// zero.
func EvalConst(expr ast.Expr) (int64, bool) {
	switch e := expr.(type) {
	case *ast.Constant:
		return e.Value, true
	case *ast.Paren:
		return EvalConst(e.X)
	case *ast.Unary:
		x, ok := EvalConst(e.X)
		if !ok {
			return 0, false
		}
		switch e.Op {
		case ast.OpNeg:
			return -x, true
		case ast.OpNot:
			return b2i(x == 0), true
		case ast.OpBitNot:
			return ^x, true
		}
	case *ast.Binary:
		l, ok := EvalConst(e.Left)
		if !ok {
			return 0, false
		}
		r, ok := EvalConst(e.Right)
		if !ok {
			return 0, false
		}
		switch e.Op {
		case ast.OpAdd:
			return l + r, true
		case ast.OpSub:
			return l - r, true
		case ast.OpMul:
			return l * r, true
		case ast.OpDiv:
			if r == 0 {
				return 0, false
			}
			return l / r, true
		case ast.OpMod:
			if r == 0 {
				return 0, false
			}
			return l % r, true
		case ast.OpLt:
			return b2i(l < r), true
		case ast.OpLe:
			return b2i(l <= r), true
		case ast.OpGt:
			return b2i(l > r), true
		case ast.OpGe:
			return b2i(l >= r), true
		case ast.OpEq:
			return b2i(l == r), true
		case ast.OpNe:
			return b2i(l != r), true
		case ast.OpAnd:
			return b2i(l != 0 && r != 0), true
		case ast.OpOr:
			return b2i(l != 0 || r != 0), true
		}
	}
	return 0, false
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
