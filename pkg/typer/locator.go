package typer

import (
	"fmt"

	"github.com/decaf-lang/minidecaf/pkg/ast"
	"github.com/decaf-lang/minidecaf/pkg/namer"
	"github.com/decaf-lang/minidecaf/pkg/types"
)

// Location says how to compute the address of an lvalue. The IR generator
// replays it instead of evaluating the lvalue as a value.
type Location interface {
	implLocation()
	String() string
}

// AddressOf is the address of a variable: a frame slot or a global symbol
type AddressOf struct {
	Var *namer.Variable
}

// Deref is the address held by a pointer: evaluate Pointer as a value
type Deref struct {
	Pointer ast.Expr
}

// IndexAddress is Base + Index*Scale. Base is evaluated as a value, which
// for an array is its address.
type IndexAddress struct {
	Base  ast.Expr
	Index ast.Expr
	Scale int64
}

func (AddressOf) implLocation()    {}
func (Deref) implLocation()        {}
func (IndexAddress) implLocation() {}

func (l AddressOf) String() string {
	if l.Var.Global {
		return "globalsymbol " + l.Var.Name
	}
	return fmt.Sprintf("frameslot %d", l.Var.Offset)
}

func (l Deref) String() string {
	return fmt.Sprintf("[%v]", l.Pointer.Position())
}

func (l IndexAddress) String() string {
	return fmt.Sprintf("[%v] :: [%v] :: const %d :: mul :: add", l.Base.Position(), l.Index.Position(), l.Scale)
}

// locateExpr computes the location of e, or nil if e is not an lvalue.
// Sub-expressions must already be typed.
func locateExpr(names *namer.NameInfo, info *TypeInfo, e ast.Expr) Location {
	switch x := e.(type) {
	case *ast.Ident:
		return AddressOf{Var: names.Var(x)}
	case *ast.Unary:
		if x.Op == ast.OpDeref {
			return Deref{Pointer: x.X}
		}
	case *ast.Index:
		elem := types.Elem(info.TypeOf(x.Array))
		return IndexAddress{Base: x.Array, Index: x.Index, Scale: types.Sizeof(elem)}
	case *ast.Paren:
		return locateExpr(names, info, x.X)
	}
	return nil
}
