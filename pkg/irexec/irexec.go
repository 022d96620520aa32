// Package irexec interprets IR programs. Memory is a map of 8-byte words
// laid out like the RISC-V target: globals at low addresses, the stack
// growing down from a high one, and the same frame layout, so pointers
// behave as they would on the machine.
package irexec

import (
	"context"
	"fmt"

	"tlog.app/go/errors"

	"github.com/decaf-lang/minidecaf/pkg/ir"
	"github.com/decaf-lang/minidecaf/pkg/types"
)

// Kinds of runtime failures. A RuntimeError unwraps to one of these.
var (
	ErrNoMain         = errors.New("no main function")
	ErrUnknownFunc    = errors.New("call to undefined function")
	ErrDivisionByZero = errors.New("division by zero")
	ErrBadAddress     = errors.New("bad memory access")
	ErrStackOverflow  = errors.New("stack overflow")
	ErrStepLimit      = errors.New("step limit exceeded")
)

const (
	globalBase = 0x10000
	stackTop   = 0x7fff0000
	wordSize   = types.WordSize

	// DefaultMaxSteps bounds the instructions executed by Run
	DefaultMaxSteps = 50_000_000
	// DefaultStackWords bounds the stack depth in words
	DefaultStackWords = 1 << 20
)

// Config controls the limits of a run. Zero values select the defaults.
type Config struct {
	MaxSteps   int64
	StackWords int64
}

// RuntimeError is a failure while executing a program
type RuntimeError struct {
	Func string
	PC   int
	Kind error
	Msg  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s+%d: %s", e.Func, e.PC, e.Msg)
}

func (e *RuntimeError) Unwrap() error { return e.Kind }

type function struct {
	*ir.Func
	labels map[string]int
}

// frame is a suspended caller
type frame struct {
	fn *function
	pc int
}

// Machine executes one program
type Machine struct {
	cfg     Config
	funcs   map[string]*function
	globals map[string]int64
	mem     map[int64]int64

	sp, fp int64
	fn     *function
	pc     int
	calls  []frame
	steps  int64
}

// New prepares prog for execution: globals are laid out and initialized,
// labels resolved.
func New(prog *ir.Program, cfg Config) *Machine {
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.StackWords == 0 {
		cfg.StackWords = DefaultStackWords
	}
	m := &Machine{
		cfg:     cfg,
		funcs:   make(map[string]*function),
		globals: make(map[string]int64),
		mem:     make(map[int64]int64),
	}

	addr := int64(globalBase)
	for _, g := range prog.Globs {
		align := g.Align
		if align < wordSize {
			align = wordSize
		}
		addr = (addr + align - 1) / align * align
		m.globals[g.Name] = addr
		if g.Init != nil {
			m.mem[addr] = *g.Init
		}
		addr += (g.Size + wordSize - 1) / wordSize * wordSize
	}

	for _, f := range prog.Funcs {
		fn := &function{Func: f, labels: make(map[string]int)}
		for pc, instr := range f.Code {
			if l, ok := instr.(ir.Label); ok {
				fn.labels[l.Name] = pc
			}
		}
		m.funcs[f.Name] = fn
	}
	return m
}

// Run executes prog from main with no arguments
func Run(ctx context.Context, prog *ir.Program, cfg Config) (int64, error) {
	return New(prog, cfg).Run(ctx)
}

// Run executes main and returns its result
func (m *Machine) Run(ctx context.Context) (int64, error) {
	main, ok := m.funcs["main"]
	if !ok {
		return 0, ErrNoMain
	}

	m.sp, m.fp = stackTop, stackTop
	m.calls = m.calls[:0]
	m.steps = 0
	if err := m.enter(main); err != nil {
		return 0, err
	}

	for {
		if m.steps&0xffff == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		m.steps++
		if m.steps > m.cfg.MaxSteps {
			return 0, m.fail(ErrStepLimit, "more than %d steps", m.cfg.MaxSteps)
		}

		if m.pc == len(m.fn.Code) {
			// falling off the end returns 0
			m.push(0)
			if done, err := m.ret(); done || err != nil {
				return m.result(err)
			}
			continue
		}

		instr := m.fn.Code[m.pc]
		m.pc++
		if _, ok := instr.(ir.Ret); ok {
			if done, err := m.ret(); done || err != nil {
				return m.result(err)
			}
			continue
		}
		if err := m.step(instr); err != nil {
			return 0, err
		}
	}
}

func (m *Machine) result(err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return m.pop(), nil
}

func (m *Machine) step(instr ir.Instruction) error {
	switch i := instr.(type) {
	case ir.Const:
		return m.checkedPush(i.Value)
	case ir.FrameSlot:
		return m.checkedPush(m.fp + i.Offset)
	case ir.GlobalSymbol:
		addr, ok := m.globals[i.Name]
		if !ok {
			return m.fail(ErrBadAddress, "undefined global %s", i.Name)
		}
		return m.checkedPush(addr)
	case ir.Unary:
		m.push(unary(i.Op, m.pop()))
	case ir.Binary:
		r, l := m.pop(), m.pop()
		v, err := m.binary(i.Op, l, r)
		if err != nil {
			return err
		}
		m.push(v)
	case ir.Load:
		addr := m.pop()
		if err := m.checkAddress(addr); err != nil {
			return err
		}
		m.push(m.mem[addr])
	case ir.Store:
		addr, v := m.pop(), m.pop()
		if err := m.checkAddress(addr); err != nil {
			return err
		}
		m.mem[addr] = v
		m.push(v)
	case ir.Pop:
		m.pop()
	case ir.Label, ir.Comment:
	case ir.Branch:
		return m.branch(i)
	case ir.Call:
		callee, ok := m.funcs[i.Func]
		if !ok {
			return m.fail(ErrUnknownFunc, "call to undefined function %s", i.Func)
		}
		m.calls = append(m.calls, frame{fn: m.fn, pc: m.pc})
		return m.enter(callee)
	default:
		panic(fmt.Sprintf("irexec: unexpected instruction %T", instr))
	}
	return nil
}

func (m *Machine) branch(b ir.Branch) error {
	taken := true
	switch b.Kind {
	case ir.Beqz:
		taken = m.pop() == 0
	case ir.Bnez:
		taken = m.pop() != 0
	}
	if !taken {
		return nil
	}
	pc, ok := m.fn.labels[b.Target]
	if !ok {
		return m.fail(ErrBadAddress, "undefined label %s", b.Target)
	}
	m.pc = pc
	return nil
}

// enter builds the callee frame: saved ra and fp below the arguments,
// then the arguments copied into the first local slots
func (m *Machine) enter(fn *function) error {
	if m.sp-2*wordSize < m.stackLimit() {
		return m.fail(ErrStackOverflow, "stack overflow calling %s", fn.Name)
	}
	m.sp -= 2 * wordSize
	m.mem[m.sp] = m.fp
	m.fp = m.sp
	m.fn, m.pc = fn, 0
	for i := 0; i < fn.NParams; i++ {
		if err := m.checkedPush(m.mem[m.fp+2*wordSize+int64(i)*wordSize]); err != nil {
			return err
		}
	}
	return nil
}

// ret leaves the current function with the value on top of the stack. It
// reports true when main returns.
func (m *Machine) ret() (bool, error) {
	v := m.pop()
	nargs := m.fn.NParams
	m.sp = m.fp
	m.fp = m.mem[m.sp]
	m.sp += 2 * wordSize

	if len(m.calls) == 0 {
		m.push(v)
		return true, nil
	}
	caller := m.calls[len(m.calls)-1]
	m.calls = m.calls[:len(m.calls)-1]
	m.fn, m.pc = caller.fn, caller.pc
	m.sp += int64(nargs) * wordSize
	m.push(v)
	return false, nil
}

func (m *Machine) push(v int64) {
	m.sp -= wordSize
	m.mem[m.sp] = v
}

func (m *Machine) checkedPush(v int64) error {
	if m.sp-wordSize < m.stackLimit() {
		return m.fail(ErrStackOverflow, "stack overflow")
	}
	m.push(v)
	return nil
}

func (m *Machine) stackLimit() int64 {
	return stackTop - m.cfg.StackWords*wordSize
}

func (m *Machine) pop() int64 {
	v := m.mem[m.sp]
	delete(m.mem, m.sp)
	m.sp += wordSize
	return v
}

func (m *Machine) checkAddress(addr int64) error {
	if addr%wordSize != 0 || addr < globalBase || addr >= stackTop {
		return m.fail(ErrBadAddress, "bad memory access at %#x", addr)
	}
	return nil
}

func (m *Machine) fail(kind error, format string, args ...interface{}) error {
	e := &RuntimeError{PC: m.pc, Kind: kind, Msg: fmt.Sprintf(format, args...)}
	if m.fn != nil {
		e.Func = m.fn.Name
	}
	return e
}

func unary(op ir.UnaryOp, x int64) int64 {
	switch op {
	case ir.Neg:
		return -x
	case ir.LNot:
		return b2i(x == 0)
	case ir.BitNot:
		return ^x
	}
	panic(fmt.Sprintf("irexec: unknown unary op %v", op))
}

func (m *Machine) binary(op ir.BinaryOp, l, r int64) (int64, error) {
	switch op {
	case ir.Add:
		return l + r, nil
	case ir.Sub:
		return l - r, nil
	case ir.Mul:
		return l * r, nil
	case ir.Div, ir.Rem:
		if r == 0 {
			return 0, m.fail(ErrDivisionByZero, "%v by zero", op)
		}
		if op == ir.Div {
			return l / r, nil
		}
		return l % r, nil
	case ir.Eq:
		return b2i(l == r), nil
	case ir.Ne:
		return b2i(l != r), nil
	case ir.Lt:
		return b2i(l < r), nil
	case ir.Le:
		return b2i(l <= r), nil
	case ir.Gt:
		return b2i(l > r), nil
	case ir.Ge:
		return b2i(l >= r), nil
	case ir.LAnd:
		return b2i(l != 0 && r != 0), nil
	case ir.LOr:
		return b2i(l != 0 || r != 0), nil
	}
	panic(fmt.Sprintf("irexec: unknown binary op %v", op))
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
