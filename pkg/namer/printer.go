package namer

import (
	"fmt"
	"io"
)

// Printer outputs name resolution results in a readable form
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new NameInfo printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintNameInfo prints each defined function's bindings and block slot
// counts, then the globals
func (p *Printer) PrintNameInfo(ni *NameInfo) {
	for _, name := range ni.FuncOrder {
		fn := ni.Funcs[name]
		if !fn.Defined {
			continue
		}
		fmt.Fprintf(p.w, "NameInfo for %s:\n", name)
		fmt.Fprintln(p.w, "  name resolution:")
		for _, n := range fn.varOrder {
			v := fn.Vars[n]
			fmt.Fprintf(p.w, "    %8s : %-10s %s\n", n.Position(), v, location(v))
		}
		fmt.Fprintln(p.w, "  number of slots in each block:")
		for _, n := range fn.blockOrder {
			fmt.Fprintf(p.w, "    %8s : %d\n", n.Position(), fn.BlockSlots[n])
		}
		fmt.Fprintln(p.w)
	}

	fmt.Fprintln(p.w, "GlobalInfos:")
	for _, name := range ni.GlobalOrder {
		g := ni.Globals[name]
		init := "uninitialized"
		if g.Init != nil {
			init = fmt.Sprintf("initializer=%d", *g.Init)
		}
		fmt.Fprintf(p.w, "  %s, size=%d, %s\n", g.Var, g.Size, init)
	}
}

func location(v *Variable) string {
	if v.Global {
		return "global symbol"
	}
	return fmt.Sprintf("at frameslot %d", v.Offset)
}
