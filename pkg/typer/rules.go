package typer

import (
	"fmt"
	"strings"

	"github.com/decaf-lang/minidecaf/pkg/ast"
	"github.com/decaf-lang/minidecaf/pkg/diag"
	"github.com/decaf-lang/minidecaf/pkg/types"
)

// Rule is a type rule: a pure function from operand types to a result
// type, or to a message saying why the operands are rejected.
type Rule struct {
	Name  string
	Check func(in ...types.Type) (types.Type, string)
}

// Apply runs the rule, turning a rejection into a TypeError at pos
func (r Rule) Apply(pos ast.Pos, in ...types.Type) (types.Type, error) {
	t, msg := r.Check(in...)
	if msg != "" {
		return nil, diag.TypeErrorf(pos, diag.ErrType, "%s: %s", r.Name, msg)
	}
	return t, nil
}

// TryEach combines rules: the first one that accepts the operands wins.
// If all reject, the messages of every alternative are reported.
func TryEach(name string, rules ...Rule) Rule {
	return Rule{Name: name, Check: func(in ...types.Type) (types.Type, string) {
		msgs := make([]string, 0, len(rules))
		for _, r := range rules {
			t, msg := r.Check(in...)
			if msg == "" {
				return t, ""
			}
			msgs = append(msgs, r.Name+": "+msg)
		}
		return nil, strings.Join(msgs, "; ")
	}}
}

func unary(name string, f func(x types.Type) (types.Type, string)) Rule {
	return Rule{Name: name, Check: func(in ...types.Type) (types.Type, string) {
		return f(in[0])
	}}
}

func binary(name string, f func(l, r types.Type) (types.Type, string)) Rule {
	return Rule{Name: name, Check: func(in ...types.Type) (types.Type, string) {
		return f(in[0], in[1])
	}}
}

var (
	// IntUnary covers - ! ~
	IntUnary = unary("intUnary", func(x types.Type) (types.Type, string) {
		if types.IsInt(x) {
			return types.Int(), ""
		}
		return nil, fmt.Sprintf("integer expected, got %s", x)
	})

	// IntBinary covers * / % && || and the integer forms of + -
	IntBinary = binary("intBinary", func(l, r types.Type) (types.Type, string) {
		if types.IsInt(l) && types.IsInt(r) {
			return types.Int(), ""
		}
		return nil, fmt.Sprintf("integer expected, got %s and %s", l, r)
	})

	// PtrArith is pointer + integer in either order
	PtrArith = binary("ptrArith", func(l, r types.Type) (types.Type, string) {
		if types.IsPointer(l) && types.IsInt(r) {
			return l, ""
		}
		if types.IsInt(l) && types.IsPointer(r) {
			return r, ""
		}
		return nil, fmt.Sprintf("pointer and integer expected, got %s and %s", l, r)
	})

	// PtrSub is pointer - integer
	PtrSub = binary("ptrSub", func(l, r types.Type) (types.Type, string) {
		if types.IsPointer(l) && types.IsInt(r) {
			return l, ""
		}
		return nil, fmt.Sprintf("pointer minus integer expected, got %s and %s", l, r)
	})

	// PtrDiff is the difference of two pointers of the same type
	PtrDiff = binary("ptrDiff", func(l, r types.Type) (types.Type, string) {
		if types.IsPointer(l) && types.IsPointer(r) && types.Equal(l, r) {
			return types.Int(), ""
		}
		return nil, fmt.Sprintf("two pointers of the same type expected, got %s and %s", l, r)
	})

	PtrDeref = unary("deref", func(x types.Type) (types.Type, string) {
		if p, ok := x.(types.Tpointer); ok {
			return p.Elem, ""
		}
		return nil, fmt.Sprintf("pointer expected, got %s", x)
	})

	AddrOf = unary("addrOf", func(x types.Type) (types.Type, string) {
		return types.Pointer(types.Decay(x)), ""
	})

	// EqRel covers == != < <= > >=
	EqRel = binary("eqRel", func(l, r types.Type) (types.Type, string) {
		if !types.Equal(l, r) {
			return nil, fmt.Sprintf("cannot equate or compare %s to %s", l, r)
		}
		if !types.IsInt(l) && !types.IsPointer(l) {
			return nil, fmt.Sprintf("integer or pointer types expected, got %s", l)
		}
		return types.Int(), ""
	})

	Assign = binary("assign", func(l, r types.Type) (types.Type, string) {
		if types.IsArray(l) {
			return nil, fmt.Sprintf("cannot assign to array type %s", l)
		}
		if !types.Equal(l, r) {
			return nil, fmt.Sprintf("cannot assign %s to %s", r, l)
		}
		return l, ""
	})

	// Return compares the function's return type with the returned one
	Return = binary("return", func(want, got types.Type) (types.Type, string) {
		if !types.Equal(want, got) {
			return nil, fmt.Sprintf("%s expected, %s found", want, got)
		}
		return types.Void(), ""
	})

	// StmtCond checks the controlling expression of if and loops
	StmtCond = unary("stmtCond", func(x types.Type) (types.Type, string) {
		if types.IsInt(x) {
			return types.Void(), ""
		}
		return nil, fmt.Sprintf("integer expected, %s found", x)
	})

	// Cond is the ternary operator: (cond, then, else)
	Cond = Rule{Name: "cond", Check: func(in ...types.Type) (types.Type, string) {
		c, th, el := in[0], in[1], in[2]
		if !types.IsInt(c) {
			return nil, fmt.Sprintf("integer condition expected, %s found", c)
		}
		if !types.Equal(th, el) {
			return nil, fmt.Sprintf("branches of different types %s and %s", th, el)
		}
		// 0 : p has the pointer's type
		if _, ok := th.(types.Tzero); ok {
			return el, ""
		}
		return th, ""
	}}

	// Array is subscripting: (array or pointer, index)
	Array = binary("array", func(a, i types.Type) (types.Type, string) {
		if !types.IsArray(a) && !types.IsPointer(a) {
			return nil, fmt.Sprintf("array or pointer expected, %s found", a)
		}
		if !types.IsInt(i) {
			return nil, fmt.Sprintf("index must be an integer, %s found", i)
		}
		return types.Elem(a), ""
	})
)

// Rules for the binary operators
var (
	addRule = TryEach("+", IntBinary, PtrArith)
	subRule = TryEach("-", IntBinary, PtrSub, PtrDiff)
)

func binaryRule(op ast.BinaryOp) Rule {
	switch op {
	case ast.OpAdd:
		return addRule
	case ast.OpSub:
		return subRule
	case ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpAnd, ast.OpOr:
		return IntBinary
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpEq, ast.OpNe:
		return EqRel
	}
	panic(fmt.Sprintf("typer: unknown binary operator %v", op))
}

func unaryRule(op ast.UnaryOp) Rule {
	switch op {
	case ast.OpNeg, ast.OpNot, ast.OpBitNot:
		return IntUnary
	case ast.OpDeref:
		return PtrDeref
	case ast.OpAddrOf:
		return AddrOf
	}
	panic(fmt.Sprintf("typer: unknown unary operator %v", op))
}
