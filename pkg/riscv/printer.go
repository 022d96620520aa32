package riscv

import (
	"fmt"
	"io"
)

// Printer outputs RISC-V assembly in GNU as syntax
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new assembly printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram outputs an entire program
func (p *Printer) PrintProgram(prog *Program) {
	var data, common []GlobVar
	for _, g := range prog.Globals {
		if g.Init != nil {
			data = append(data, g)
		} else {
			common = append(common, g)
		}
	}

	if len(data) > 0 {
		fmt.Fprintf(p.w, "\t.data\n")
		for _, g := range data {
			p.printGlobal(g)
		}
		fmt.Fprintf(p.w, "\n")
	}
	for _, g := range common {
		fmt.Fprintf(p.w, "\t.comm\t%s, %d, %d\n", g.Name, g.Size, g.Align)
	}
	if len(common) > 0 {
		fmt.Fprintf(p.w, "\n")
	}

	fmt.Fprintf(p.w, "\t.text\n")
	for _, f := range prog.Functions {
		p.printFunction(&f)
	}
}

// log2 returns the base-2 logarithm of n (assumes n is a power of 2)
func log2(n int64) int {
	r := 0
	for n > 1 {
		n >>= 1
		r++
	}
	return r
}

func (p *Printer) printGlobal(g GlobVar) {
	fmt.Fprintf(p.w, "\t.globl\t%s\n", g.Name)
	if g.Align > 1 {
		fmt.Fprintf(p.w, "\t.p2align\t%d\n", log2(g.Align))
	}
	fmt.Fprintf(p.w, "\t.size\t%s, %d\n", g.Name, g.Size)
	fmt.Fprintf(p.w, "%s:\n", g.Name)
	fmt.Fprintf(p.w, "\t.dword\t%d\n", *g.Init)
	if g.Size > 8 {
		fmt.Fprintf(p.w, "\t.zero\t%d\n", g.Size-8)
	}
}

func (p *Printer) printFunction(f *Function) {
	fmt.Fprintf(p.w, "\t.globl\t%s\n", f.Name)
	fmt.Fprintf(p.w, "%s:\n", f.Name)
	for _, inst := range f.Code {
		p.printInstruction(inst)
	}
	fmt.Fprintf(p.w, "\n")
}

func (p *Printer) printInstruction(inst Instruction) {
	switch i := inst.(type) {
	case LabelDef:
		fmt.Fprintf(p.w, "%s:\n", i.Name)
	case Comment:
		fmt.Fprintf(p.w, "\t# %s\n", i.Text)

	case Op:
		fmt.Fprintf(p.w, "\t%s\t%s, %s, %s\n", i.Mnemonic, i.Rd, i.Rs1, i.Rs2)
	case OpUnary:
		fmt.Fprintf(p.w, "\t%s\t%s, %s\n", i.Mnemonic, i.Rd, i.Rs)
	case ADDI:
		fmt.Fprintf(p.w, "\taddi\t%s, %s, %d\n", i.Rd, i.Rs1, i.Imm)
	case LI:
		fmt.Fprintf(p.w, "\tli\t%s, %d\n", i.Rd, i.Imm)
	case LA:
		fmt.Fprintf(p.w, "\tla\t%s, %s\n", i.Rd, i.Symbol)
	case MV:
		fmt.Fprintf(p.w, "\tmv\t%s, %s\n", i.Rd, i.Rs)

	case LD:
		fmt.Fprintf(p.w, "\tld\t%s, %d(%s)\n", i.Rd, i.Ofs, i.Base)
	case SD:
		fmt.Fprintf(p.w, "\tsd\t%s, %d(%s)\n", i.Rs, i.Ofs, i.Base)

	case J:
		fmt.Fprintf(p.w, "\tj\t%s\n", i.Target)
	case BEQZ:
		fmt.Fprintf(p.w, "\tbeqz\t%s, %s\n", i.Rs, i.Target)
	case BNEZ:
		fmt.Fprintf(p.w, "\tbnez\t%s, %s\n", i.Rs, i.Target)
	case CALL:
		fmt.Fprintf(p.w, "\tcall\t%s\n", i.Target)
	case RET:
		fmt.Fprintf(p.w, "\tret\n")

	default:
		fmt.Fprintf(p.w, "\t# unknown instruction %T\n", inst)
	}
}
