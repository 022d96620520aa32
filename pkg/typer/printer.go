package typer

import (
	"fmt"
	"io"
)

// Printer outputs type checking results
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new TypeInfo printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintTypeInfo prints the lvalue locations and function signatures
func (p *Printer) PrintTypeInfo(ti *TypeInfo) {
	fmt.Fprintln(p.w, "Lvalue analysis result (location of expr at lhs == value of rhs):")
	for _, e := range ti.locOrder {
		fmt.Fprintf(p.w, "  %8s : %s\n", e.Position(), ti.Locs[e])
	}
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, "Type info for funcs:")
	for _, name := range ti.FuncOrder {
		fmt.Fprintf(p.w, "  %8s : %s\n", name, ti.Funcs[name])
	}
}
