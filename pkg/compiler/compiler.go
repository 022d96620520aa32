// Package compiler drives the passes: parse, resolve names, check types,
// generate IR, lower to RISC-V. Each stage runs only when the one before
// it succeeded, and the first error ends the compilation.
package compiler

import (
	"context"
	"os"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/decaf-lang/minidecaf/pkg/ast"
	"github.com/decaf-lang/minidecaf/pkg/ir"
	"github.com/decaf-lang/minidecaf/pkg/irexec"
	"github.com/decaf-lang/minidecaf/pkg/irgen"
	"github.com/decaf-lang/minidecaf/pkg/namer"
	"github.com/decaf-lang/minidecaf/pkg/parser"
	"github.com/decaf-lang/minidecaf/pkg/riscv"
	"github.com/decaf-lang/minidecaf/pkg/riscvgen"
	"github.com/decaf-lang/minidecaf/pkg/typer"
)

// Stage is how far a compilation goes
type Stage int

const (
	StageParse Stage = iota
	StageNames
	StageTypes
	StageIR
	StageAsm
)

var stageNames = [...]string{"parse", "names", "types", "ir", "asm"}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// Options controls a compilation
type Options struct {
	// Verify runs the IR stack checker after generation
	Verify bool
	// Exec bounds Execute
	Exec irexec.Config
}

// Result holds the output of every stage that ran
type Result struct {
	Name  string
	Prog  *ast.Program
	Names *namer.NameInfo
	Types *typer.TypeInfo
	IR    *ir.Program
	Asm   *riscv.Program
}

// Run compiles src up to and including stage
func Run(ctx context.Context, name, src string, upto Stage, opts Options) (res *Result, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name, "upto", upto)
	defer tr.Finish("err", &err)

	res = &Result{Name: name}

	res.Prog, err = parser.Parse(src)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	tr.Printw("parsed", "definitions", len(res.Prog.Definitions))
	if upto == StageParse {
		return res, nil
	}

	res.Names, err = namer.Resolve(res.Prog)
	if err != nil {
		return nil, errors.Wrap(err, "resolve names")
	}
	tr.Printw("names resolved", "funcs", len(res.Names.Funcs), "globals", len(res.Names.GlobalOrder))
	if upto == StageNames {
		return res, nil
	}

	res.Types, err = typer.Check(res.Prog, res.Names)
	if err != nil {
		return nil, errors.Wrap(err, "type check")
	}
	tr.Printw("types checked", "exprs", len(res.Types.Types), "lvalues", len(res.Types.Locs))
	if upto == StageTypes {
		return res, nil
	}

	res.IR, err = irgen.Generate(res.Prog, res.Names, res.Types)
	if err != nil {
		return nil, errors.Wrap(err, "generate ir")
	}
	if opts.Verify {
		if err = ir.CheckProgram(res.IR); err != nil {
			return nil, errors.Wrap(err, "verify ir")
		}
	}
	tr.Printw("ir generated", "funcs", len(res.IR.Funcs), "globs", len(res.IR.Globs))
	if upto == StageIR {
		return res, nil
	}

	res.Asm = riscvgen.TransformProgram(res.IR)
	tr.Printw("assembly lowered", "functions", len(res.Asm.Functions))
	return res, nil
}

// Parse parses src
func Parse(ctx context.Context, src string) (*ast.Program, error) {
	res, err := Run(ctx, "", src, StageParse, Options{})
	if err != nil {
		return nil, err
	}
	return res.Prog, nil
}

// Names parses src and resolves its names
func Names(ctx context.Context, src string) (*Result, error) {
	return Run(ctx, "", src, StageNames, Options{})
}

// Types runs the front end through type checking
func Types(ctx context.Context, src string) (*Result, error) {
	return Run(ctx, "", src, StageTypes, Options{})
}

// IR compiles src to IR
func IR(ctx context.Context, src string, opts Options) (*ir.Program, error) {
	res, err := Run(ctx, "", src, StageIR, opts)
	if err != nil {
		return nil, err
	}
	return res.IR, nil
}

// Assemble compiles src to the assembly model
func Assemble(ctx context.Context, src string, opts Options) (*riscv.Program, error) {
	res, err := Run(ctx, "", src, StageAsm, opts)
	if err != nil {
		return nil, err
	}
	return res.Asm, nil
}

// Compile compiles src to assembly text
func Compile(ctx context.Context, src string, opts Options) (string, error) {
	prog, err := Assemble(ctx, src, opts)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	riscv.NewPrinter(&b).PrintProgram(prog)
	return b.String(), nil
}

// CompileFile reads and compiles the named file
func CompileFile(ctx context.Context, name string, opts Options) (string, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return "", errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, string(text), opts)
}

// Execute compiles src to IR and interprets it, returning main's result
func Execute(ctx context.Context, src string, opts Options) (v int64, err error) {
	prog, err := IR(ctx, src, opts)
	if err != nil {
		return 0, err
	}

	v, err = irexec.Run(ctx, prog, opts.Exec)
	if err != nil {
		return 0, errors.Wrap(err, "execute")
	}
	return v, nil
}
