package irexec

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decaf-lang/minidecaf/pkg/ir"
	"github.com/decaf-lang/minidecaf/pkg/irgen"
	"github.com/decaf-lang/minidecaf/pkg/namer"
	"github.com/decaf-lang/minidecaf/pkg/parser"
	"github.com/decaf-lang/minidecaf/pkg/typer"
)

func build(t *testing.T, src string) *ir.Program {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	names, err := namer.Resolve(prog)
	require.NoError(t, err)
	ti, err := typer.Check(prog, names)
	require.NoError(t, err)
	p, err := irgen.Generate(prog, names, ti)
	require.NoError(t, err)
	return p
}

func run(t *testing.T, src string) (int64, error) {
	t.Helper()
	return Run(context.Background(), build(t, src), Config{})
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int64
	}{
		{"arithmetic", "int main(){return 1+2*3;}", 7},
		{"array", "int main(){int a[3]; a[1]=5; return a[1];}", 5},
		{"pointer", "int main(){int a=1; int* p=&a; *p=2; return a;}", 2},
		{"call", "int f(int x){return x+1;} int main(){return f(41);}", 42},
		{"while", "int main(){int i=0; int s=0; while(i<5){s=s+i; i=i+1;} return s;}", 10},
		{"global", "int g; int main(){g=9; return g;}", 9},
		{"global initializer", "int g = 6 * 7; int main(){return g;}", 42},
		{"negative division", "int main(){return -7 / 2 * 10 + -7 % 2;}", -31},
		{"unary", "int main(){return !0 + ~0 + -(-3);}", 3},
		{"comparisons", "int main(){return (1<2) + (2<=2) + (3>2) + (2>=3) + (1==1) + (1!=1);}", 4},
		{"short circuit", "int main(){return 0 && 1/0;}", 0},
		{"short circuit or", "int main(){return 1 || 1/0;}", 1},
		{"ternary", "int main(){int x = 3; return x > 2 ? x * 2 : 0;}", 6},
		{"chained assignment", "int main(){int a; int b; a = b = 4; return a + b;}", 8},
		{"fib", "int fib(int n){if (n<2) return n; return fib(n-1)+fib(n-2);} int main(){return fib(12);}", 144},
		{"argument order", "int f(int a, int b, int c){return a*100+b*10+c;} int main(){return f(1,2,3);}", 123},
		{"shadowing", "int main(){int x=1; {int x=2; x=3;} return x;}", 1},
		{"break in block", "int main(){int s=0; for(int i=0;;i=i+1){int t=i*2; if (t>6) break; s=s+t;} return s;}", 12},
		{"continue", "int main(){int s=0; for(int i=0;i<10;i=i+1){if (i%2) continue; s=s+i;} return s;}", 20},
		{"do while", "int main(){int i=0; do { i=i+1; } while(i<5); return i;}", 5},
		{"do while runs once", "int main(){int i=10; do i=i+1; while(i<5); return i;}", 11},
		{"pointer arithmetic", "int main(){int a[4]; int *p=(int*)a; *(p+2)=7; return a[2] + (p+3-p);}", 10},
		{"int plus pointer", "int main(){int a[4]; a[3]=9; int *p=(int*)a; return *(3+p);}", 9},
		{"multi-dim", "int main(){int a[2][3]; int i; int j; for(i=0;i<2;i=i+1) for(j=0;j<3;j=j+1) a[i][j]=i*3+j; return a[1][2]*10+a[0][1];}", 51},
		{"pointer parameter", "void set(int *p, int v){*p=v;} int main(){int x; set(&x, 11); return x;}", 11},
		{"global array", "int a[3]; int main(){a[0]=1; a[2]=a[0]+4; return a[2];}", 5},
		{"fall off end", "int main(){int x=5;}", 0},
		{"void call", "int g; void inc(){g=g+1; return;} int main(){inc(); inc(); return g;}", 2},
		{"null compare", "int main(){int *p=0; return p==0;}", 1},
		{"bubble sort", `
int main() {
	int a[5];
	a[0]=4; a[1]=1; a[2]=3; a[3]=5; a[4]=2;
	for (int i = 0; i < 5; i = i + 1)
		for (int j = 0; j + 1 < 5 - i; j = j + 1)
			if (a[j] > a[j+1]) { int t = a[j]; a[j] = a[j+1]; a[j+1] = t; }
	return a[0]*10000 + a[1]*1000 + a[2]*100 + a[3]*10 + a[4];
}`, 12345},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind error
	}{
		{"division by zero", "int main(){int z=0; return 1/z;}", ErrDivisionByZero},
		{"remainder by zero", "int main(){int z=0; return 1%z;}", ErrDivisionByZero},
		{"null dereference", "int main(){int *p=0; return *p;}", ErrBadAddress},
		{"unbounded recursion", "int f(int n){return f(n+1);} int main(){return f(0);}", ErrStackOverflow},
		{"infinite loop", "int main(){while(1);}", ErrStepLimit},
		{"undefined function", "int f(); int main(){return f();}", ErrUnknownFunc},
		{"no main", "int f(){return 0;}", ErrNoMain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), build(t, tt.src), Config{MaxSteps: 100000, StackWords: 4096})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestRuntimeErrorLocation(t *testing.T) {
	_, err := run(t, "int main(){int z=0; return 1/z;}")
	var re *RuntimeError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "main", re.Func)
	assert.Contains(t, err.Error(), "main+")
	assert.Contains(t, err.Error(), "div by zero")
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, build(t, "int main(){return 0;}"), Config{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandWrittenIR(t *testing.T) {
	main := ir.NewFunc("main", 0)
	main.Append(
		ir.Const{Value: 20},
		ir.Const{Value: 22},
		ir.Call{Func: "add", NArgs: 2},
		ir.Ret{},
	)
	add := ir.NewFunc("add", 2)
	add.Append(
		ir.FrameSlot{Offset: -8}, ir.Load{},
		ir.FrameSlot{Offset: -16}, ir.Load{},
		ir.Binary{Op: ir.Add},
		ir.Ret{},
	)
	got, err := Run(context.Background(), &ir.Program{Funcs: []*ir.Func{main, add}}, Config{})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestGlobalsAreIndependentPerMachine(t *testing.T) {
	p := build(t, "int g; int main(){g=g+1; return g;}")
	for i := 0; i < 2; i++ {
		got, err := Run(context.Background(), p, Config{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	}
}
