package namer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decaf-lang/minidecaf/pkg/ast"
	"github.com/decaf-lang/minidecaf/pkg/diag"
	"github.com/decaf-lang/minidecaf/pkg/parser"
)

func resolve(t *testing.T, src string) (*ast.Program, *NameInfo) {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	ni, err := Resolve(prog)
	require.NoError(t, err)
	return prog, ni
}

// idents returns the occurrences of name in source order
func idents(prog *ast.Program, name string) []*ast.Ident {
	var res []*ast.Ident
	ast.InspectProgram(prog, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Name == name {
			res = append(res, id)
		}
		return true
	})
	return res
}

func decls(prog *ast.Program, name string) []*ast.Declaration {
	var res []*ast.Declaration
	ast.InspectProgram(prog, func(n ast.Node) bool {
		if d, ok := n.(*ast.Declaration); ok && d.Name == name {
			res = append(res, d)
		}
		return true
	})
	return res
}

func blocks(prog *ast.Program) []*ast.Block {
	var res []*ast.Block
	ast.InspectProgram(prog, func(n ast.Node) bool {
		if b, ok := n.(*ast.Block); ok {
			res = append(res, b)
		}
		return true
	})
	return res
}

func TestLocalOffsets(t *testing.T) {
	prog, ni := resolve(t, "int main() { int a; int b[3]; int c; return a + c; }")

	a := ni.Var(decls(prog, "a")[0])
	b := ni.Var(decls(prog, "b")[0])
	c := ni.Var(decls(prog, "c")[0])
	require.NotNil(t, a)
	assert.Equal(t, int64(-8), a.Offset)
	assert.Equal(t, int64(-32), b.Offset)
	assert.Equal(t, int64(24), b.Size)
	assert.Equal(t, int64(-40), c.Offset)
	assert.False(t, c.Global)

	assert.Same(t, a, ni.Var(idents(prog, "a")[0]))
	assert.Same(t, c, ni.Var(idents(prog, "c")[0]))

	main := ni.Funcs["main"]
	assert.Equal(t, int64(5), main.BlockSlots[prog.Definitions[0].(*ast.FunDef).Body])
}

func TestParamsAreFirstSlots(t *testing.T) {
	prog, ni := resolve(t, "int f(int x, int y) { int z; return x + y + z; }")
	fd := prog.Definitions[0].(*ast.FunDef)

	assert.Equal(t, int64(-8), ni.Var(fd.Params[0]).Offset)
	assert.Equal(t, int64(-16), ni.Var(fd.Params[1]).Offset)
	assert.Equal(t, int64(-24), ni.Var(decls(prog, "z")[0]).Offset)

	fn := ni.Funcs["f"]
	assert.Equal(t, 2, fn.NParams)
	assert.Equal(t, int64(3), fn.BlockSlots[fd.Body])
	_, ok := fn.BlockSlots[fd]
	assert.False(t, ok)
}

func TestSiblingBlocksReuseSlots(t *testing.T) {
	prog, ni := resolve(t, `int main() {
		int a;
		{ int b; int c; }
		{ int d; }
		int e;
		return a;
	}`)

	b := ni.Var(decls(prog, "b")[0])
	d := ni.Var(decls(prog, "d")[0])
	e := ni.Var(decls(prog, "e")[0])
	assert.Equal(t, b.Offset, d.Offset, "sibling blocks start at the same slot")
	assert.Equal(t, int64(-16), e.Offset, "slots are released on block exit")

	bs := blocks(prog)
	fn := ni.Funcs["main"]
	assert.Equal(t, int64(2), fn.BlockSlots[bs[0]])
	assert.Equal(t, int64(2), fn.BlockSlots[bs[1]])
	assert.Equal(t, int64(1), fn.BlockSlots[bs[2]])
}

func TestShadowing(t *testing.T) {
	prog, ni := resolve(t, `int main() {
		int x = 1;
		{ int x = x + 1; x = 3; }
		return x;
	}`)

	outer := ni.Var(decls(prog, "x")[0])
	inner := ni.Var(decls(prog, "x")[1])
	assert.NotSame(t, outer, inner)
	assert.Equal(t, "x(1)", outer.String())
	assert.Equal(t, "x(2)", inner.String())

	uses := idents(prog, "x")
	require.Len(t, uses, 3)
	// the initializer of the inner x still sees the outer one
	assert.Same(t, outer, ni.Var(uses[0]))
	assert.Same(t, inner, ni.Var(uses[1]))
	assert.Same(t, outer, ni.Var(uses[2]), "outer binding restored after the block")
}

func TestForScope(t *testing.T) {
	prog, ni := resolve(t, `int main() {
		int s = 0;
		for (int i = 0; i < 3; i = i + 1) { int t = i; s = s + t; }
		for (int i = 0; i < 3; i = i + 1) s = s + i;
		return s;
	}`)

	is := decls(prog, "i")
	first, second := ni.Var(is[0]), ni.Var(is[1])
	assert.NotSame(t, first, second)
	assert.Equal(t, first.Offset, second.Offset)

	var loops []*ast.For
	ast.InspectProgram(prog, func(n ast.Node) bool {
		if f, ok := n.(*ast.For); ok {
			loops = append(loops, f)
		}
		return true
	})
	fn := ni.Funcs["main"]
	assert.Equal(t, int64(1), fn.BlockSlots[loops[0]])
	assert.Equal(t, int64(1), fn.BlockSlots[loops[1]])
}

func TestGlobals(t *testing.T) {
	prog, ni := resolve(t, `
		int g;
		int h = 2 * (3 + 4);
		int g = -1;
		int g;
		int arr[2][3];
		int main() { int g = 5; return g + h; }`)

	require.Equal(t, []string{"g", "h", "arr"}, ni.GlobalOrder)

	g := ni.Globals["g"]
	require.NotNil(t, g.Init)
	assert.Equal(t, int64(-1), *g.Init)
	assert.True(t, g.Var.Global)

	for _, d := range decls(prog, "g")[:3] {
		assert.Same(t, g.Var, ni.Var(d), "redeclarations bind to one variable")
	}

	assert.Equal(t, int64(14), *ni.Globals["h"].Init)
	assert.Equal(t, int64(48), ni.Globals["arr"].Size)
	assert.Nil(t, ni.Globals["arr"].Init)

	uses := idents(prog, "g")
	require.Len(t, uses, 1)
	assert.False(t, ni.Var(uses[0]).Global, "local shadows global")
	assert.Same(t, ni.Globals["h"].Var, ni.Var(idents(prog, "h")[0]))
}

func TestFunctionDeclarations(t *testing.T) {
	_, ni := resolve(t, `
		int f(int a);
		int f(int b);
		int main() { return f(1); }
		int f(int c) { return c; }
		int f(int d);`)

	require.Equal(t, []string{"f", "main"}, ni.FuncOrder)
	assert.True(t, ni.Funcs["f"].Defined)
	assert.Equal(t, 1, ni.Funcs["f"].NParams)
}

func TestParamCountOnlyCheck(t *testing.T) {
	// Prototypes are only compared by parameter count here; the
	// differing parameter types are caught by the type checker.
	_, ni := resolve(t, "int f(int a); int f(int* a) { return 0; }")
	assert.True(t, ni.Funcs["f"].Defined)
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind error
		msg  string
	}{
		{"undeclared", "int main() { return x; }", diag.ErrUndeclared, "1:21: x undeclared"},
		{"use before declaration", "int main() { x = 1; int x; }", diag.ErrUndeclared, "x undeclared"},
		{"self reference in initializer", "int main() { int x = x; }", diag.ErrUndeclared, "x undeclared"},
		{"out of scope", "int main() { { int y; } return y; }", diag.ErrUndeclared, "y undeclared"},
		{"for variable out of scope", "int main() { for (int i = 0; i < 1; i = i + 1) ; return i; }", diag.ErrUndeclared, "i undeclared"},
		{"undeclared function", "int main() { return f(); }", diag.ErrUndeclared, "function f undeclared"},
		{"function declared later", "int main() { return f(); } int f() { return 0; }", diag.ErrUndeclared, "function f undeclared"},
		{"local redefinition", "int main() { int a; int a; }", diag.ErrRedefinition, "1:25: redefinition of a"},
		{"param redefinition", "int f(int a, int a) { return 0; }", diag.ErrRedefinition, "redefinition of a"},
		{"prototype param redefinition", "int f(int a, int a);", diag.ErrRedefinition, "redefinition of a"},
		{"local redefines param", "int f(int a) { int a; return 0; }", diag.ErrRedefinition, "redefinition of a"},
		{"function redefinition", "int f() { return 0; } int f() { return 1; }", diag.ErrRedefinition, "redefinition of function f"},
		{"param count mismatch", "int f(int a); int f(int a, int b) { return 0; }", diag.ErrConflict, "conflicting types for f"},
		{"prototype count mismatch", "int f(int a) { return 0; } int f();", diag.ErrConflict, "conflicting types for f"},
		{"global initialized twice", "int g = 1; int g = 2;", diag.ErrRedefinition, "redefinition of variable g"},
		{"global non-constant", "int a; int g = a;", diag.ErrNotConstant, "global initializers must be constants"},
		{"global division by zero", "int g = 1 / 0;", diag.ErrNotConstant, "global initializers must be constants"},
		{"global call", "int f() { return 1; } int g = f();", diag.ErrNotConstant, ""},
		{"zero array", "int main() { int a[0]; }", diag.ErrArraySize, "array size <= 0"},
		{"zero inner dimension", "int a[2][0];", diag.ErrArraySize, "array size <= 0"},
		{"huge array", "int main() { int a[1048576][2]; }", diag.ErrArraySize, "too large"},
		{"global shadows function", "int f(); int f;", diag.ErrConflict, "different kind of symbol"},
		{"function shadows global", "int f; int f() { return 0; }", diag.ErrConflict, "different kind of symbol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := parser.Parse(tt.src)
			require.NoError(t, err)

			ni, err := Resolve(prog)
			require.Error(t, err)
			assert.Nil(t, ni)
			assert.True(t, errors.Is(err, tt.kind), "error %v is not %v", err, tt.kind)
			assert.Contains(t, err.Error(), tt.msg)

			var le *diag.LocatedError
			assert.True(t, errors.As(err, &le))
		})
	}
}

func TestEvalConst(t *testing.T) {
	tests := []struct {
		src  string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{"-(3 - 5) * 2", 4, true},
		{"7 / 2 + 7 % 2", 4, true},
		{"!0 + ~0", 0, true},
		{"1 < 2 && 3 >= 3 || 0", 1, true},
		{"2 == 2", 1, true},
		{"1 ? 2 : 3", 0, false},
		{"1 / (1 - 1)", 0, false},
		{"5 % 0", 0, false},
		{"(int)3", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			prog, err := parser.Parse("int g = " + tt.src + ";")
			require.NoError(t, err)
			got, ok := EvalConst(prog.Definitions[0].(*ast.Declaration).Init)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFreshNamerPerCompilation(t *testing.T) {
	src := "int main() { int x; return x; }"
	prog1, ni1 := resolve(t, src)
	prog2, ni2 := resolve(t, src)
	assert.Equal(t, "x(1)", ni1.Var(decls(prog1, "x")[0]).String())
	assert.Equal(t, "x(1)", ni2.Var(decls(prog2, "x")[0]).String())
}

func TestPrinter(t *testing.T) {
	_, ni := resolve(t, "int g = 3; int h; int main() { int a; { int b; } return a + g; }")

	var buf bytes.Buffer
	NewPrinter(&buf).PrintNameInfo(ni)
	out := buf.String()

	assert.Contains(t, out, "NameInfo for main:")
	assert.Contains(t, out, "a(1)       at frameslot -8")
	assert.Contains(t, out, "b(1)       at frameslot -16")
	assert.Contains(t, out, "g(1)       global symbol")
	assert.Contains(t, out, "g(1), size=8, initializer=3")
	assert.Contains(t, out, "h(1), size=8, uninitialized")
}
