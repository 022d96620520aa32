// Package riscv defines the RV64 assembly representation: the final
// output of the compiler, printed in GNU as syntax.
package riscv

// Reg is an integer register
type Reg int

const (
	Zero Reg = iota
	RA
	SP
	FP // s0
	T0
	T1
	T2
	A0
	A1
)

var regNames = [...]string{"zero", "ra", "sp", "fp", "t0", "t1", "t2", "a0", "a1"}

func (r Reg) String() string {
	if r >= 0 && int(r) < len(regNames) {
		return regNames[r]
	}
	return "?"
}

// Label is a branch target or symbol name
type Label string

// Instruction is the interface for RISC-V instructions
type Instruction interface {
	implInstruction()
}

// --- Arithmetic ---

// Op is a register-register operation: Rd = Rs1 op Rs2
type Op struct {
	Mnemonic string // add sub mul div rem slt sgt and or xor
	Rd       Reg
	Rs1, Rs2 Reg
}

// OpUnary is a register pseudo-instruction: Rd = op Rs
type OpUnary struct {
	Mnemonic string // neg not seqz snez
	Rd, Rs   Reg
}

// ADDI - Add immediate
type ADDI struct {
	Rd, Rs1 Reg
	Imm     int64
}

// LI - Load immediate
type LI struct {
	Rd  Reg
	Imm int64
}

// LA - Load address of a symbol
type LA struct {
	Rd     Reg
	Symbol Label
}

// MV - Register move
type MV struct {
	Rd, Rs Reg
}

// --- Memory ---

// LD - Load doubleword: Rd = mem[Base+Ofs]
type LD struct {
	Rd   Reg
	Base Reg
	Ofs  int64
}

// SD - Store doubleword: mem[Base+Ofs] = Rs
type SD struct {
	Rs   Reg
	Base Reg
	Ofs  int64
}

// --- Control flow ---

// J - Unconditional jump
type J struct {
	Target Label
}

// BEQZ - Branch if Rs == 0
type BEQZ struct {
	Rs     Reg
	Target Label
}

// BNEZ - Branch if Rs != 0
type BNEZ struct {
	Rs     Reg
	Target Label
}

// CALL - Call a function
type CALL struct {
	Target Label
}

// RET - Return to ra
type RET struct{}

// --- Labels and comments ---

// LabelDef defines a label
type LabelDef struct {
	Name Label
}

// Comment is emitted as an assembler comment
type Comment struct {
	Text string
}

// Marker methods for Instruction interface
func (Op) implInstruction()       {}
func (OpUnary) implInstruction()  {}
func (ADDI) implInstruction()     {}
func (LI) implInstruction()       {}
func (LA) implInstruction()       {}
func (MV) implInstruction()       {}
func (LD) implInstruction()       {}
func (SD) implInstruction()       {}
func (J) implInstruction()        {}
func (BEQZ) implInstruction()     {}
func (BNEZ) implInstruction()     {}
func (CALL) implInstruction()     {}
func (RET) implInstruction()      {}
func (LabelDef) implInstruction() {}
func (Comment) implInstruction()  {}

// Function is a global function symbol with its code
type Function struct {
	Name string
	Code []Instruction
}

// Append adds instructions to the function
func (f *Function) Append(instrs ...Instruction) {
	f.Code = append(f.Code, instrs...)
}

// GlobVar is a global variable. Without Init it is emitted as a common
// symbol.
type GlobVar struct {
	Name  string
	Size  int64
	Align int64
	Init  *int64
}

// Program is a complete assembly file
type Program struct {
	Globals   []GlobVar
	Functions []Function
}
