package ir

import "testing"

func TestStackEffect(t *testing.T) {
	tests := []struct {
		instr Instruction
		want  int
	}{
		{Const{Value: 3}, 1},
		{Unary{Op: Neg}, 0},
		{Binary{Op: Add}, -1},
		{Load{}, 0},
		{Store{}, -1},
		{FrameSlot{Offset: -8}, 1},
		{GlobalSymbol{Name: "g"}, 1},
		{Pop{}, -1},
		{Label{Name: "l"}, 0},
		{Branch{Kind: Br, Target: "l"}, 0},
		{Branch{Kind: Beqz, Target: "l"}, -1},
		{Branch{Kind: Bnez, Target: "l"}, -1},
		{Call{Func: "f", NArgs: 0}, 1},
		{Call{Func: "f", NArgs: 3}, -2},
		{Ret{}, -1},
		{Comment{Text: "x"}, 0},
	}
	for _, tt := range tests {
		if got := tt.instr.StackEffect(); got != tt.want {
			t.Errorf("%v: StackEffect() = %d, want %d", tt.instr, got, tt.want)
		}
	}
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		instr Instruction
		want  string
	}{
		{Const{Value: -5}, "const -5"},
		{Unary{Op: LNot}, "lnot"},
		{Unary{Op: BitNot}, "not"},
		{Binary{Op: Rem}, "rem"},
		{Binary{Op: LOr}, "lor"},
		{Binary{Op: Ge}, "ge"},
		{FrameSlot{Offset: -16}, "frameslot -16"},
		{GlobalSymbol{Name: "count"}, "globalsymbol count"},
		{Label{Name: "while_entry_1"}, "while_entry_1:"},
		{Branch{Kind: Beqz, Target: "if_else_2"}, "beqz if_else_2"},
		{Call{Func: "fib", NArgs: 1}, "call fib(1)"},
		{Comment{Text: "return"}, "# return"},
	}
	for _, tt := range tests {
		if got := tt.instr.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if got := BinaryOp(42).String(); got != "binary(42)" {
		t.Errorf("unknown op printed as %q", got)
	}
}

func TestProgramFunc(t *testing.T) {
	f := NewFunc("main", 0)
	f.Append(Const{Value: 1}, Ret{})
	prog := &Program{Funcs: []*Func{NewFunc("f", 2), f}}

	if prog.Func("main") != f {
		t.Error("Func(main) did not return main")
	}
	if prog.Func("g") != nil {
		t.Error("Func(g) should be nil")
	}
	if len(f.Code) != 2 {
		t.Errorf("expected 2 instructions, got %d", len(f.Code))
	}
}
