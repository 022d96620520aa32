// Package riscvgen lowers the stack IR to RV64 assembly. The IR operand
// stack is the machine stack: every IR push and pop is an sp adjustment
// plus a load or store, with t1 and t2 as scratch registers.
package riscvgen

import (
	"fmt"
	"strings"

	"github.com/decaf-lang/minidecaf/pkg/ir"
	"github.com/decaf-lang/minidecaf/pkg/riscv"
	"github.com/decaf-lang/minidecaf/pkg/types"
)

const wordSize = types.WordSize

// frameHeader is the saved fp and ra below the incoming arguments
const frameHeader = 2 * wordSize

// TransformProgram lowers an IR program to assembly
func TransformProgram(prog *ir.Program) *riscv.Program {
	result := &riscv.Program{
		Globals:   make([]riscv.GlobVar, len(prog.Globs)),
		Functions: make([]riscv.Function, len(prog.Funcs)),
	}

	for i, g := range prog.Globs {
		result.Globals[i] = riscv.GlobVar{
			Name:  g.Name,
			Size:  g.Size,
			Align: g.Align,
			Init:  g.Init,
		}
	}

	for i, f := range prog.Funcs {
		result.Functions[i] = transformFunction(f)
	}
	return result
}

// genContext holds state while lowering one function
type genContext struct {
	fn   *ir.Func
	exit riscv.Label
	out  riscv.Function
}

func transformFunction(f *ir.Func) riscv.Function {
	ctx := &genContext{
		fn:   f,
		exit: exitLabel(f.Name),
		out:  riscv.Function{Name: f.Name},
	}

	ctx.prologue()
	for _, inst := range f.Code {
		ctx.translateInstruction(inst)
	}
	ctx.epilogue()
	return ctx.out
}

// irLabel converts an IR label to an assembler-local label
func irLabel(name string) riscv.Label {
	return riscv.Label(".L" + name)
}

func exitLabel(fn string) riscv.Label {
	return riscv.Label(fmt.Sprintf(".L%s_exit", fn))
}

func (ctx *genContext) emit(instrs ...riscv.Instruction) {
	ctx.out.Append(instrs...)
}

func (ctx *genContext) push(r riscv.Reg) {
	ctx.emit(
		riscv.ADDI{Rd: riscv.SP, Rs1: riscv.SP, Imm: -wordSize},
		riscv.SD{Rs: r, Base: riscv.SP, Ofs: 0},
	)
}

func (ctx *genContext) pop(r riscv.Reg) {
	ctx.emit(
		riscv.LD{Rd: r, Base: riscv.SP, Ofs: 0},
		riscv.ADDI{Rd: riscv.SP, Rs1: riscv.SP, Imm: wordSize},
	)
}

func (ctx *genContext) discard(words int64) {
	if words != 0 {
		ctx.addImm(riscv.SP, riscv.SP, words*wordSize)
	}
}

// addImm computes rd = rs + imm, going through t0 when imm does not fit
// in 12 bits
func (ctx *genContext) addImm(rd, rs riscv.Reg, imm int64) {
	if fitsImm12(imm) {
		ctx.emit(riscv.ADDI{Rd: rd, Rs1: rs, Imm: imm})
		return
	}
	ctx.emit(
		riscv.LI{Rd: riscv.T0, Imm: imm},
		riscv.Op{Mnemonic: "add", Rd: rd, Rs1: rs, Rs2: riscv.T0},
	)
}

func fitsImm12(imm int64) bool {
	return imm >= -2048 && imm < 2048
}

// prologue saves ra and fp, points fp at them and copies the arguments
// into the first local slots:
//
//	16+8i(fp)  argument i
//	 8(fp)     saved ra
//	 0(fp)     saved fp
//	-8(fp)     local slot 1 (argument 0)
func (ctx *genContext) prologue() {
	ctx.emit(
		riscv.ADDI{Rd: riscv.SP, Rs1: riscv.SP, Imm: -frameHeader},
		riscv.SD{Rs: riscv.RA, Base: riscv.SP, Ofs: wordSize},
		riscv.SD{Rs: riscv.FP, Base: riscv.SP, Ofs: 0},
		riscv.MV{Rd: riscv.FP, Rs: riscv.SP},
	)
	for i := 0; i < ctx.fn.NParams; i++ {
		ofs := frameHeader + int64(i)*wordSize
		if fitsImm12(ofs) {
			ctx.emit(riscv.LD{Rd: riscv.T1, Base: riscv.FP, Ofs: ofs})
		} else {
			ctx.addImm(riscv.T1, riscv.FP, ofs)
			ctx.emit(riscv.LD{Rd: riscv.T1, Base: riscv.T1, Ofs: 0})
		}
		ctx.push(riscv.T1)
	}
}

// epilogue is reached by every return with the result on top of the
// stack. Falling off the end returns 0.
func (ctx *genContext) epilogue() {
	ctx.emit(riscv.LI{Rd: riscv.T1, Imm: 0})
	ctx.push(riscv.T1)
	ctx.emit(riscv.LabelDef{Name: ctx.exit})
	ctx.pop(riscv.A0)
	ctx.emit(
		riscv.MV{Rd: riscv.SP, Rs: riscv.FP},
		riscv.LD{Rd: riscv.RA, Base: riscv.SP, Ofs: wordSize},
		riscv.LD{Rd: riscv.FP, Base: riscv.SP, Ofs: 0},
		riscv.ADDI{Rd: riscv.SP, Rs1: riscv.SP, Imm: frameHeader},
		riscv.RET{},
	)
}

var unaryOps = map[ir.UnaryOp]string{
	ir.Neg:    "neg",
	ir.LNot:   "seqz",
	ir.BitNot: "not",
}

var simpleBinaryOps = map[ir.BinaryOp]string{
	ir.Add: "add",
	ir.Sub: "sub",
	ir.Mul: "mul",
	ir.Div: "div",
	ir.Rem: "rem",
	ir.Lt:  "slt",
	ir.Gt:  "sgt",
}

// translateInstruction lowers one IR instruction
func (ctx *genContext) translateInstruction(inst ir.Instruction) {
	switch i := inst.(type) {
	case ir.Const:
		ctx.emit(riscv.LI{Rd: riscv.T1, Imm: i.Value})
		ctx.push(riscv.T1)

	case ir.Unary:
		op, ok := unaryOps[i.Op]
		if !ok {
			panic(fmt.Sprintf("riscvgen: unknown unary op %v", i.Op))
		}
		ctx.pop(riscv.T1)
		ctx.emit(riscv.OpUnary{Mnemonic: op, Rd: riscv.T1, Rs: riscv.T1})
		ctx.push(riscv.T1)

	case ir.Binary:
		ctx.pop(riscv.T2)
		ctx.pop(riscv.T1)
		ctx.emit(binary(i.Op)...)
		ctx.push(riscv.T1)

	case ir.Load:
		ctx.pop(riscv.T1)
		ctx.emit(riscv.LD{Rd: riscv.T1, Base: riscv.T1, Ofs: 0})
		ctx.push(riscv.T1)

	case ir.Store:
		// the value stays on the stack as the result
		ctx.pop(riscv.T1)
		ctx.emit(
			riscv.LD{Rd: riscv.T2, Base: riscv.SP, Ofs: 0},
			riscv.SD{Rs: riscv.T2, Base: riscv.T1, Ofs: 0},
		)

	case ir.FrameSlot:
		ctx.addImm(riscv.T1, riscv.FP, i.Offset)
		ctx.push(riscv.T1)

	case ir.GlobalSymbol:
		ctx.emit(riscv.LA{Rd: riscv.T1, Symbol: riscv.Label(i.Name)})
		ctx.push(riscv.T1)

	case ir.Pop:
		ctx.discard(1)

	case ir.Label:
		ctx.emit(riscv.LabelDef{Name: irLabel(i.Name)})

	case ir.Branch:
		target := irLabel(i.Target)
		switch i.Kind {
		case ir.Br:
			ctx.emit(riscv.J{Target: target})
		case ir.Beqz:
			ctx.pop(riscv.T1)
			ctx.emit(riscv.BEQZ{Rs: riscv.T1, Target: target})
		case ir.Bnez:
			ctx.pop(riscv.T1)
			ctx.emit(riscv.BNEZ{Rs: riscv.T1, Target: target})
		default:
			panic(fmt.Sprintf("riscvgen: unknown branch kind %v", i.Kind))
		}

	case ir.Call:
		ctx.emit(riscv.CALL{Target: riscv.Label(i.Func)})
		ctx.discard(int64(i.NArgs))
		ctx.push(riscv.A0)

	case ir.Ret:
		ctx.emit(riscv.J{Target: ctx.exit})

	case ir.Comment:
		ctx.emit(riscv.Comment{Text: i.Text})

	default:
		panic(fmt.Sprintf("riscvgen: unexpected instruction %T", inst))
	}
}

// binary computes t1 = t1 op t2
func binary(op ir.BinaryOp) []riscv.Instruction {
	rr := func(mnemonic string) riscv.Instruction {
		return riscv.Op{Mnemonic: mnemonic, Rd: riscv.T1, Rs1: riscv.T1, Rs2: riscv.T2}
	}
	un := func(mnemonic string, rs riscv.Reg) riscv.Instruction {
		return riscv.OpUnary{Mnemonic: mnemonic, Rd: rs, Rs: rs}
	}

	if m, ok := simpleBinaryOps[op]; ok {
		return []riscv.Instruction{rr(m)}
	}
	switch op {
	case ir.Eq:
		return []riscv.Instruction{rr("sub"), un("seqz", riscv.T1)}
	case ir.Ne:
		return []riscv.Instruction{rr("sub"), un("snez", riscv.T1)}
	case ir.Le:
		return []riscv.Instruction{rr("sgt"), un("seqz", riscv.T1)}
	case ir.Ge:
		return []riscv.Instruction{rr("slt"), un("seqz", riscv.T1)}
	case ir.LAnd:
		return []riscv.Instruction{un("snez", riscv.T1), un("snez", riscv.T2), rr("and")}
	case ir.LOr:
		return []riscv.Instruction{rr("or"), un("snez", riscv.T1)}
	}
	panic(fmt.Sprintf("riscvgen: unknown binary op %v", op))
}

// Emit lowers prog and returns the assembly text
func Emit(prog *ir.Program) string {
	var buf strings.Builder
	riscv.NewPrinter(&buf).PrintProgram(TransformProgram(prog))
	return buf.String()
}
