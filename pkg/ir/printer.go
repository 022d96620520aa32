package ir

import (
	"fmt"
	"io"
)

// Printer outputs IR in a readable format
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new IR printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram prints globals, then functions
func (p *Printer) PrintProgram(prog *Program) {
	for _, g := range prog.Globs {
		p.PrintGlob(g)
	}
	if len(prog.Globs) > 0 {
		fmt.Fprintln(p.w)
	}
	for i, f := range prog.Funcs {
		p.PrintFunc(f)
		if i < len(prog.Funcs)-1 {
			fmt.Fprintln(p.w)
		}
	}
}

// PrintGlob prints one global
func (p *Printer) PrintGlob(g *Glob) {
	fmt.Fprintf(p.w, "glob %s: size=%d, align=%d", g.Name, g.Size, g.Align)
	if g.Init != nil {
		fmt.Fprintf(p.w, ", init=%d", *g.Init)
	}
	fmt.Fprintln(p.w)
}

// PrintFunc prints one function, labels flush left
func (p *Printer) PrintFunc(f *Func) {
	fmt.Fprintf(p.w, "func %s(%d) {\n", f.Name, f.NParams)
	for _, instr := range f.Code {
		if _, ok := instr.(Label); ok {
			fmt.Fprintf(p.w, "%s\n", instr)
			continue
		}
		fmt.Fprintf(p.w, "  %s\n", instr)
	}
	fmt.Fprintln(p.w, "}")
}
