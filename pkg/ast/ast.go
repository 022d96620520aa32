// Package ast defines the syntax tree of MiniDecaf, the C subset accepted by
// the compiler. Nodes are pointers: later passes key their side tables by
// node identity, so two occurrences of the same name are different keys.
package ast

import "fmt"

// Pos is a source position, 1-based.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is the base interface for all AST nodes
type Node interface {
	Position() Pos
	implNode()
}

// Expr is the interface for all expression nodes
type Expr interface {
	Node
	implExpr()
}

// Stmt is the interface for all statement nodes
type Stmt interface {
	Node
	implStmt()
}

// Definition is the interface for top-level definitions
type Definition interface {
	Node
	implDefinition()
}

// BinaryOp represents binary operators
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpAnd // &&
	OpOr  // ||
)

func (op BinaryOp) String() string {
	names := []string{"+", "-", "*", "/", "%", "<", "<=", ">", ">=", "==", "!=", "&&", "||"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// UnaryOp represents unary operators
type UnaryOp int

const (
	OpNeg    UnaryOp = iota // -
	OpNot                   // !
	OpBitNot                // ~
	OpDeref                 // *
	OpAddrOf                // &
)

func (op UnaryOp) String() string {
	names := []string{"-", "!", "~", "*", "&"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// TypeName is a written type: int or void followed by Stars pointer levels.
type TypeName struct {
	Pos
	Void  bool
	Stars int
}

func (t *TypeName) String() string {
	base := "int"
	if t.Void {
		base = "void"
	}
	for i := 0; i < t.Stars; i++ {
		base += "*"
	}
	return base
}

// Constant represents an integer constant
type Constant struct {
	Pos
	Value int64
}

// Ident represents a use of a variable
type Ident struct {
	Pos
	Name string
}

// Unary represents a unary expression
type Unary struct {
	Pos
	Op UnaryOp
	X  Expr
}

// Binary represents a binary expression
type Binary struct {
	Pos
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// Assign represents target = value
type Assign struct {
	Pos
	Target Expr
	Value  Expr
}

// Paren represents a parenthesized expression
type Paren struct {
	Pos
	X Expr
}

// Conditional represents the ternary operator: cond ? then : else
type Conditional struct {
	Pos
	Cond Expr
	Then Expr
	Else Expr
}

// Call represents a function call. Only named functions can be called.
type Call struct {
	Pos
	Func string
	Args []Expr
}

// Index represents array subscript access: arr[idx]
type Index struct {
	Pos
	Array Expr
	Index Expr
}

// Cast represents (type) expr
type Cast struct {
	Pos
	Type *TypeName
	X    Expr
}

// Declaration declares a variable: a block item, a for-loop initializer,
// a function parameter or a global. Dims lists array dimensions outermost
// first, so int a[2][3] has Dims [2 3].
type Declaration struct {
	Pos
	Type *TypeName
	Name string
	Dims []int64
	Init Expr // nil if absent
}

// ExprStmt is an expression evaluated for its effect. Expr is nil for ";".
type ExprStmt struct {
	Pos
	Expr Expr
}

// Return represents a return statement
type Return struct {
	Pos
	Expr Expr // nil for bare return
}

// Block represents a compound statement (block)
type Block struct {
	Pos
	Items []Stmt
}

// If represents if/else; Else is nil when absent
type If struct {
	Pos
	Cond Expr
	Then Stmt
	Else Stmt
}

// While represents while (cond) body
type While struct {
	Pos
	Cond Expr
	Body Stmt
}

// DoWhile represents do body while (cond);
type DoWhile struct {
	Pos
	Body Stmt
	Cond Expr
}

// For represents for (init; cond; post) body. Init is a *Declaration, an
// *ExprStmt or nil; Cond and Post may be nil.
type For struct {
	Pos
	Init Stmt
	Cond Expr
	Post Expr
	Body Stmt
}

// Break represents a break statement
type Break struct {
	Pos
}

// Continue represents a continue statement
type Continue struct {
	Pos
}

// FunDef represents a function definition, or a prototype when Body is nil
type FunDef struct {
	Pos
	Return *TypeName
	Name   string
	Params []*Declaration
	Body   *Block
}

// Program is a translation unit: globals and functions in source order
type Program struct {
	Definitions []Definition
}

// Position returns the position of the node
func (p Pos) Position() Pos { return p }

// Marker methods for interface implementation
func (*Constant) implNode() {}
func (*Constant) implExpr() {}

func (*Ident) implNode() {}
func (*Ident) implExpr() {}

func (*Unary) implNode() {}
func (*Unary) implExpr() {}

func (*Binary) implNode() {}
func (*Binary) implExpr() {}

func (*Assign) implNode() {}
func (*Assign) implExpr() {}

func (*Paren) implNode() {}
func (*Paren) implExpr() {}

func (*Conditional) implNode() {}
func (*Conditional) implExpr() {}

func (*Call) implNode() {}
func (*Call) implExpr() {}

func (*Index) implNode() {}
func (*Index) implExpr() {}

func (*Cast) implNode() {}
func (*Cast) implExpr() {}

func (*Declaration) implNode()       {}
func (*Declaration) implStmt()       {}
func (*Declaration) implDefinition() {}

func (*ExprStmt) implNode() {}
func (*ExprStmt) implStmt() {}

func (*Return) implNode() {}
func (*Return) implStmt() {}

func (*Block) implNode() {}
func (*Block) implStmt() {}

func (*If) implNode() {}
func (*If) implStmt() {}

func (*While) implNode() {}
func (*While) implStmt() {}

func (*DoWhile) implNode() {}
func (*DoWhile) implStmt() {}

func (*For) implNode() {}
func (*For) implStmt() {}

func (*Break) implNode() {}
func (*Break) implStmt() {}

func (*Continue) implNode() {}
func (*Continue) implStmt() {}

func (*FunDef) implNode()       {}
func (*FunDef) implDefinition() {}
