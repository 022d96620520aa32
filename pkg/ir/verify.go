package ir

import "tlog.app/go/errors"

// CheckStack verifies the stack discipline of f: the depth never goes
// negative, every label is reached with one depth, Ret has a value to
// pop, and falling off the end leaves the stack empty. Code after an unconditional branch or Ret
// is not checked until a label with a known depth.
func CheckStack(f *Func) error {
	labels := make(map[string]int)
	depth := f.NParams
	reachable := true

	record := func(pc int, label string, d int) error {
		if prev, ok := labels[label]; ok && prev != d {
			return errors.New("%s: %d: label %s reached with depth %d and %d", f.Name, pc, label, prev, d)
		}
		labels[label] = d
		return nil
	}

	for pc, instr := range f.Code {
		if l, ok := instr.(Label); ok {
			if reachable {
				if err := record(pc, l.Name, depth); err != nil {
					return err
				}
			} else if d, ok := labels[l.Name]; ok {
				depth, reachable = d, true
			}
			continue
		}
		if !reachable {
			continue
		}

		switch i := instr.(type) {
		case Ret:
			if depth < 1 {
				return errors.New("%s: %d: ret with empty stack", f.Name, pc)
			}
			reachable = false
			continue
		case Branch:
			depth += i.StackEffect()
			if depth < 0 {
				return errors.New("%s: %d: %v with empty stack", f.Name, pc, i)
			}
			if err := record(pc, i.Target, depth); err != nil {
				return err
			}
			if i.Kind == Br {
				reachable = false
			}
			continue
		case Call:
			if depth < i.NArgs {
				return errors.New("%s: %d: %v with %d words on the stack", f.Name, pc, i, depth)
			}
		case Unary, Load:
			if depth < 1 {
				return errors.New("%s: %d: %v with empty stack", f.Name, pc, i)
			}
		case Binary, Store:
			if depth < 2 {
				return errors.New("%s: %d: %v needs two operands, have %d", f.Name, pc, i, depth)
			}
		}
		depth += instr.StackEffect()
		if depth < 0 {
			return errors.New("%s: %d: %v with empty stack", f.Name, pc, instr)
		}
	}

	if reachable && depth != 0 {
		return errors.New("%s: falls off the end with depth %d", f.Name, depth)
	}
	return nil
}

// CheckProgram runs CheckStack on every function
func CheckProgram(p *Program) error {
	for _, f := range p.Funcs {
		if err := CheckStack(f); err != nil {
			return err
		}
	}
	return nil
}
