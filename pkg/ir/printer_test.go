package ir

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrinterProgram(t *testing.T) {
	three := int64(3)
	f := NewFunc("main", 0)
	f.Append(
		Comment{Text: "return"},
		GlobalSymbol{Name: "g"},
		Load{},
		Branch{Kind: Br, Target: "main_end"},
		Label{Name: "main_end"},
		Ret{},
	)
	prog := &Program{
		Globs: []*Glob{{Name: "g", Size: 8, Align: 8, Init: &three}, {Name: "a", Size: 24, Align: 8}},
		Funcs: []*Func{f},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgram(prog)
	output := buf.String()

	for _, want := range []string{
		"glob g: size=8, align=8, init=3\n",
		"glob a: size=24, align=8\n",
		"func main(0) {\n",
		"  # return\n",
		"  globalsymbol g\n",
		"  br main_end\n",
		"\nmain_end:\n",
		"  ret\n}\n",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestPrinterSeparatesFunctions(t *testing.T) {
	prog := &Program{Funcs: []*Func{NewFunc("f", 1), NewFunc("g", 2)}}
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgram(prog)

	want := "func f(1) {\n}\n\nfunc g(2) {\n}\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
