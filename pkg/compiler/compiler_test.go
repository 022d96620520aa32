package compiler

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/decaf-lang/minidecaf/pkg/diag"
	"github.com/decaf-lang/minidecaf/pkg/irexec"
)

// ProgramSpec is a program with the value main returns
type ProgramSpec struct {
	Name  string `yaml:"name"`
	Input string `yaml:"input"`
	Exit  int64  `yaml:"exit"`
	Skip  string `yaml:"skip,omitempty"`
}

// ErrorSpec is a program the compiler must reject
type ErrorSpec struct {
	Name    string `yaml:"name"`
	Input   string `yaml:"input"`
	Kind    string `yaml:"kind"`
	Message string `yaml:"message,omitempty"`
}

var errorKinds = map[string]error{
	"syntax":       diag.ErrSyntax,
	"redefinition": diag.ErrRedefinition,
	"undeclared":   diag.ErrUndeclared,
	"conflict":     diag.ErrConflict,
	"not_constant": diag.ErrNotConstant,
	"array_size":   diag.ErrArraySize,
	"type":         diag.ErrType,
	"not_lvalue":   diag.ErrNotLvalue,
	"not_in_loop":  diag.ErrNotInLoop,
}

func loadYAML(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, v))
}

func loadPrograms(t *testing.T) []ProgramSpec {
	var f struct {
		Tests []ProgramSpec `yaml:"tests"`
	}
	loadYAML(t, "../../testdata/programs.yaml", &f)
	require.NotEmpty(t, f.Tests)
	return f.Tests
}

func loadErrors(t *testing.T) []ErrorSpec {
	var f struct {
		Tests []ErrorSpec `yaml:"tests"`
	}
	loadYAML(t, "../../testdata/errors.yaml", &f)
	require.NotEmpty(t, f.Tests)
	return f.Tests
}

func TestExecutePrograms(t *testing.T) {
	ctx := context.Background()
	for _, tc := range loadPrograms(t) {
		t.Run(tc.Name, func(t *testing.T) {
			if tc.Skip != "" {
				t.Skip(tc.Skip)
			}
			got, err := Execute(ctx, tc.Input, Options{Verify: true})
			require.NoError(t, err)
			assert.Equal(t, tc.Exit, got)
		})
	}
}

func TestCompilePrograms(t *testing.T) {
	ctx := context.Background()
	for _, tc := range loadPrograms(t) {
		t.Run(tc.Name, func(t *testing.T) {
			asm, err := Compile(ctx, tc.Input, Options{Verify: true})
			require.NoError(t, err)
			assert.Contains(t, asm, "\t.text\n")
			assert.Contains(t, asm, "\t.globl\tmain\nmain:\n")
			assert.Contains(t, asm, ".Lmain_exit:\n")
		})
	}
}

func TestRejectedPrograms(t *testing.T) {
	ctx := context.Background()
	for _, tc := range loadErrors(t) {
		t.Run(tc.Name, func(t *testing.T) {
			kind, ok := errorKinds[tc.Kind]
			require.True(t, ok, "unknown error kind %q", tc.Kind)

			_, err := Compile(ctx, tc.Input, Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, kind), "got %v", err)

			var le *diag.LocatedError
			require.True(t, errors.As(err, &le), "not a located error: %v", err)
			if tc.Message != "" {
				assert.Contains(t, le.Error(), tc.Message)
			}
		})
	}
}

func TestStagesStopEarly(t *testing.T) {
	ctx := context.Background()
	src := "int main() { return 0; }"

	tests := []struct {
		upto  Stage
		check func(t *testing.T, res *Result)
	}{
		{StageParse, func(t *testing.T, res *Result) {
			assert.NotNil(t, res.Prog)
			assert.Nil(t, res.Names)
		}},
		{StageNames, func(t *testing.T, res *Result) {
			assert.NotNil(t, res.Names)
			assert.Nil(t, res.Types)
		}},
		{StageTypes, func(t *testing.T, res *Result) {
			assert.NotNil(t, res.Types)
			assert.Nil(t, res.IR)
		}},
		{StageIR, func(t *testing.T, res *Result) {
			assert.NotNil(t, res.IR)
			assert.Nil(t, res.Asm)
		}},
		{StageAsm, func(t *testing.T, res *Result) {
			assert.NotNil(t, res.Asm)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.upto.String(), func(t *testing.T) {
			res, err := Run(ctx, "t.c", src, tt.upto, Options{})
			require.NoError(t, err)
			assert.Equal(t, "t.c", res.Name)
			tt.check(t, res)
		})
	}
}

func TestTypeErrorStopsBeforeIR(t *testing.T) {
	// the break would fail in IR generation; the type error comes first
	_, err := Run(context.Background(), "", "int main() { int *p = 1; break; }", StageAsm, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.ErrType), "got %v", err)

	var te *diag.TypeError
	assert.True(t, errors.As(err, &te))
}

func TestErrorsNameTheStage(t *testing.T) {
	_, err := Types(context.Background(), "int main() { return x; }")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "resolve names"), "got %q", err.Error())
}

func TestExecuteRuntimeError(t *testing.T) {
	_, err := Execute(context.Background(), "int main() { int z = 0; return 5 / z; }", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, irexec.ErrDivisionByZero), "got %v", err)
}

func TestExecuteStepLimit(t *testing.T) {
	opts := Options{Exec: irexec.Config{MaxSteps: 1000}}
	_, err := Execute(context.Background(), "int main() { while (1); }", opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, irexec.ErrStepLimit), "got %v", err)
}

func TestExecuteNoMain(t *testing.T) {
	_, err := Execute(context.Background(), "int f() { return 1; }", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, irexec.ErrNoMain), "got %v", err)
}

func TestCompileFile(t *testing.T) {
	path := t.TempDir() + "/prog.c"
	require.NoError(t, os.WriteFile(path, []byte("int main() { return 3; }"), 0o644))

	asm, err := CompileFile(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Contains(t, asm, "main:")

	_, err = CompileFile(context.Background(), path+".missing", Options{})
	assert.Error(t, err)
}

func TestCompilationsAreIndependent(t *testing.T) {
	src := "int main() { if (1) return 1; return 0; }"
	a, err := Compile(context.Background(), src, Options{})
	require.NoError(t, err)
	b, err := Compile(context.Background(), src, Options{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, a, ".Lif_end_1:")
}
