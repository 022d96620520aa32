// Package ir defines the stack-machine intermediate representation.
// Every instruction has a fixed effect on the operand stack; locals live
// in the stack itself, addressed through the frame pointer.
package ir

import "fmt"

// UnaryOp is a one-operand arithmetic or logical operation
type UnaryOp int

const (
	Neg    UnaryOp = iota // -x
	LNot                  // !x
	BitNot                // ~x
)

func (op UnaryOp) String() string {
	switch op {
	case Neg:
		return "neg"
	case LNot:
		return "lnot"
	case BitNot:
		return "not"
	}
	return fmt.Sprintf("unary(%d)", int(op))
}

// BinaryOp is a two-operand operation. Comparisons and the logical
// operators yield 0 or 1.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Rem
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	LAnd
	LOr
)

var binaryNames = [...]string{"add", "sub", "mul", "div", "rem", "eq", "ne", "lt", "le", "gt", "ge", "land", "lor"}

func (op BinaryOp) String() string {
	if op >= 0 && int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return fmt.Sprintf("binary(%d)", int(op))
}

// BranchKind selects the branch condition
type BranchKind int

const (
	Br   BranchKind = iota // unconditional
	Beqz                   // pop, branch if zero
	Bnez                   // pop, branch if not zero
)

func (k BranchKind) String() string {
	switch k {
	case Br:
		return "br"
	case Beqz:
		return "beqz"
	case Bnez:
		return "bnez"
	}
	return fmt.Sprintf("branch(%d)", int(k))
}

// Instruction is the interface for IR instructions
type Instruction interface {
	implInstruction()
	// StackEffect is the net number of words pushed
	StackEffect() int
	String() string
}

// Const pushes an integer
type Const struct {
	Value int64
}

// Unary pops x and pushes op(x)
type Unary struct {
	Op UnaryOp
}

// Binary pops right, then left, and pushes left op right
type Binary struct {
	Op BinaryOp
}

// Load pops an address and pushes the word stored there
type Load struct{}

// Store pops an address, then a value, writes the value and pushes it back
type Store struct{}

// FrameSlot pushes fp + Offset
type FrameSlot struct {
	Offset int64
}

// GlobalSymbol pushes the address of a global
type GlobalSymbol struct {
	Name string
}

// Pop discards the top of the stack
type Pop struct{}

// Label marks a branch target
type Label struct {
	Name string
}

// Branch jumps to Target. Beqz and Bnez pop their operand.
type Branch struct {
	Kind   BranchKind
	Target string
}

// Call invokes a function whose NArgs arguments are on the stack, first
// argument on top. The arguments are replaced by the return value.
type Call struct {
	Func  string
	NArgs int
}

// Ret pops the return value and leaves the function
type Ret struct{}

// Comment is a note carried into the dumps and the assembly
type Comment struct {
	Text string
}

// Marker methods for Instruction interface
func (Const) implInstruction()        {}
func (Unary) implInstruction()        {}
func (Binary) implInstruction()       {}
func (Load) implInstruction()         {}
func (Store) implInstruction()        {}
func (FrameSlot) implInstruction()    {}
func (GlobalSymbol) implInstruction() {}
func (Pop) implInstruction()          {}
func (Label) implInstruction()        {}
func (Branch) implInstruction()       {}
func (Call) implInstruction()         {}
func (Ret) implInstruction()          {}
func (Comment) implInstruction()      {}

func (Const) StackEffect() int        { return 1 }
func (Unary) StackEffect() int        { return 0 }
func (Binary) StackEffect() int       { return -1 }
func (Load) StackEffect() int         { return 0 }
func (Store) StackEffect() int        { return -1 }
func (FrameSlot) StackEffect() int    { return 1 }
func (GlobalSymbol) StackEffect() int { return 1 }
func (Pop) StackEffect() int          { return -1 }
func (Label) StackEffect() int        { return 0 }
func (Ret) StackEffect() int          { return -1 }
func (Comment) StackEffect() int      { return 0 }
func (c Call) StackEffect() int       { return 1 - c.NArgs }

func (b Branch) StackEffect() int {
	if b.Kind == Br {
		return 0
	}
	return -1
}

func (i Const) String() string        { return fmt.Sprintf("const %d", i.Value) }
func (i Unary) String() string        { return i.Op.String() }
func (i Binary) String() string       { return i.Op.String() }
func (Load) String() string           { return "load" }
func (Store) String() string          { return "store" }
func (i FrameSlot) String() string    { return fmt.Sprintf("frameslot %d", i.Offset) }
func (i GlobalSymbol) String() string { return "globalsymbol " + i.Name }
func (Pop) String() string            { return "pop" }
func (i Label) String() string        { return i.Name + ":" }
func (i Branch) String() string       { return i.Kind.String() + " " + i.Target }
func (i Call) String() string         { return fmt.Sprintf("call %s(%d)", i.Func, i.NArgs) }
func (Ret) String() string            { return "ret" }
func (i Comment) String() string      { return "# " + i.Text }

// Func is one function. Its parameters are already in frame slots
// -8 ... -8*NParams, and on the operand stack, when Code starts.
type Func struct {
	Name    string
	NParams int
	Code    []Instruction
}

// NewFunc creates an empty function
func NewFunc(name string, nparams int) *Func {
	return &Func{Name: name, NParams: nparams}
}

// Append adds instructions to the function
func (f *Func) Append(instrs ...Instruction) {
	f.Code = append(f.Code, instrs...)
}

// Glob is a global variable. Init is nil for an uninitialized global.
type Glob struct {
	Name  string
	Size  int64
	Align int64
	Init  *int64
}

// Program is a compilation unit in IR form
type Program struct {
	Globs []*Glob
	Funcs []*Func
}

// Func returns the function with the given name, or nil
func (p *Program) Func(name string) *Func {
	for _, f := range p.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}
