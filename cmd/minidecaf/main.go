package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"tlog.app/go/tlog"

	"github.com/decaf-lang/minidecaf/pkg/ast"
	"github.com/decaf-lang/minidecaf/pkg/compiler"
	"github.com/decaf-lang/minidecaf/pkg/diag"
	"github.com/decaf-lang/minidecaf/pkg/ir"
	"github.com/decaf-lang/minidecaf/pkg/irexec"
	"github.com/decaf-lang/minidecaf/pkg/lexer"
	"github.com/decaf-lang/minidecaf/pkg/namer"
	"github.com/decaf-lang/minidecaf/pkg/riscv"
	"github.com/decaf-lang/minidecaf/pkg/typer"
)

var version = "0.1.0"

// Dump flags stop the compilation after a stage and print its result
var (
	dLex   bool
	dParse bool
	dNames bool
	dTypes bool
	dIR    bool
	dExec  bool
)

var (
	outputFile string
	backtrace  bool
	verbose    bool
	verifyIR   bool
	maxSteps   int64
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// longFlagNames lists the flags that also accept a single dash, as in -ir
var longFlagNames = []string{"lex", "parse", "ni", "ty", "ir", "exec", "backtrace", "verify"}

// normalizeFlags converts single-dash long flags like -ni to --ni
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		for _, name := range longFlagNames {
			if arg == "-"+name {
				result[i] = "--" + name
				break
			}
		}
		if result[i] == "" {
			result[i] = arg
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "minidecaf [file]",
		Short: "minidecaf compiles a subset of C to RISC-V assembly",
		Long: `minidecaf compiles MiniDecaf, a small subset of C with int,
pointers, arrays and functions, to RV64 assembly for the GNU assembler.
The intermediate results of every pass can be dumped.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			filename := args[0]

			src, err := readSource(filename, cmd.InOrStdin())
			if err != nil {
				fmt.Fprintf(errOut, "minidecaf: %v\n", err)
				return err
			}

			ctx := context.Background()
			if verbose {
				l := tlog.New(tlog.NewConsoleWriter(errOut, tlog.LstdFlags))
				ctx = tlog.ContextWithSpan(ctx, tlog.Span{Logger: l})
			}

			err = compile(ctx, filename, src, out)
			if err != nil {
				reportError(errOut, filename, err)
			}
			return err
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&dLex, "lex", false, "Dump the tokens")
	rootCmd.Flags().BoolVar(&dParse, "parse", false, "Dump the syntax tree")
	rootCmd.Flags().BoolVar(&dNames, "ni", false, "Dump the name resolution result")
	rootCmd.Flags().BoolVar(&dTypes, "ty", false, "Dump the type checking result")
	rootCmd.Flags().BoolVar(&dIR, "ir", false, "Dump the IR")
	rootCmd.Flags().BoolVar(&dExec, "exec", false, "Interpret the IR and print the value main returns")

	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the assembly to `file` instead of stdout")
	rootCmd.Flags().BoolVar(&backtrace, "backtrace", false, "Print the full error chain instead of the located message")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log the passes to stderr")
	rootCmd.Flags().BoolVar(&verifyIR, "verify", false, "Check the stack discipline of the generated IR")
	rootCmd.Flags().Int64Var(&maxSteps, "max-steps", irexec.DefaultMaxSteps, "Instruction limit for -exec")

	rootCmd.Flags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "names":
			name = "ni"
		case "types":
			name = "ty"
		}
		return pflag.NormalizedName(name)
	})

	return rootCmd
}

// readSource reads the named file, or stdin for "-"
func readSource(filename string, stdin io.Reader) (string, error) {
	if filename == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// stage returns how far the dump flags let the compilation go
func stage() compiler.Stage {
	switch {
	case dParse:
		return compiler.StageParse
	case dNames:
		return compiler.StageNames
	case dTypes:
		return compiler.StageTypes
	case dIR, dExec:
		return compiler.StageIR
	}
	return compiler.StageAsm
}

func compile(ctx context.Context, filename, src string, out io.Writer) error {
	if dLex {
		for _, tok := range lexer.New(src).Tokens() {
			fmt.Fprintln(out, tok)
		}
		return nil
	}

	opts := compiler.Options{
		Verify: verifyIR,
		Exec:   irexec.Config{MaxSteps: maxSteps},
	}
	res, err := compiler.Run(ctx, filename, src, stage(), opts)
	if err != nil {
		return err
	}

	switch {
	case dParse:
		ast.NewPrinter(out).PrintProgram(res.Prog)
	case dNames:
		namer.NewPrinter(out).PrintNameInfo(res.Names)
	case dTypes:
		typer.NewPrinter(out).PrintTypeInfo(res.Types)
	case dIR:
		ir.NewPrinter(out).PrintProgram(res.IR)
	case dExec:
		v, err := irexec.Run(ctx, res.IR, opts.Exec)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, v)
	default:
		return writeAssembly(res.Asm, out)
	}
	return nil
}

func writeAssembly(prog *riscv.Program, out io.Writer) error {
	if outputFile == "" {
		riscv.NewPrinter(out).PrintProgram(prog)
		return nil
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	defer f.Close()

	riscv.NewPrinter(f).PrintProgram(prog)
	return f.Close()
}

// reportError prints err as file:line:col: message, or the whole chain
// with -backtrace
func reportError(w io.Writer, filename string, err error) {
	if backtrace {
		fmt.Fprintf(w, "%s: %+v\n", filename, err)
		return
	}

	var le *diag.LocatedError
	if errors.As(err, &le) {
		fmt.Fprintf(w, "%s:%s\n", filename, le)
		return
	}
	fmt.Fprintf(w, "%s: %v\n", filename, err)
}
