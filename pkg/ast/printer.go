package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer outputs the AST as MiniDecaf source
type Printer struct {
	w      io.Writer
	indent int
}

// NewPrinter creates a new AST printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, indent: 0}
}

// PrintProgram prints a complete program
func (p *Printer) PrintProgram(prog *Program) {
	for _, def := range prog.Definitions {
		p.printDefinition(def)
		fmt.Fprintln(p.w)
	}
}

func (p *Printer) writeIndent() {
	fmt.Fprint(p.w, strings.Repeat("  ", p.indent))
}

func (p *Printer) printDefinition(def Definition) {
	switch d := def.(type) {
	case *FunDef:
		p.printFunDef(d)
	case *Declaration:
		p.printDecl(d)
		fmt.Fprintln(p.w, ";")
	default:
		fmt.Fprintf(p.w, "/* unknown definition %T */\n", def)
	}
}

func (p *Printer) printFunDef(f *FunDef) {
	fmt.Fprintf(p.w, "%s %s(", f.Return, f.Name)
	for i, param := range f.Params {
		if i > 0 {
			fmt.Fprint(p.w, ", ")
		}
		p.printDecl(param)
	}
	if f.Body == nil {
		// Function declaration (prototype)
		fmt.Fprintln(p.w, ");")
		return
	}
	fmt.Fprintln(p.w, ")")
	p.printBlock(f.Body)
}

// printDecl prints a declaration without the trailing semicolon
func (p *Printer) printDecl(d *Declaration) {
	fmt.Fprintf(p.w, "%s %s", d.Type, d.Name)
	for _, dim := range d.Dims {
		fmt.Fprintf(p.w, "[%d]", dim)
	}
	if d.Init != nil {
		fmt.Fprint(p.w, " = ")
		p.printExpr(d.Init)
	}
}

func (p *Printer) printBlock(b *Block) {
	p.writeIndent()
	fmt.Fprintln(p.w, "{")
	p.indent++
	for _, stmt := range b.Items {
		p.printStmt(stmt)
	}
	p.indent--
	p.writeIndent()
	fmt.Fprintln(p.w, "}")
}

// printBody prints the body of a control statement one level deeper
func (p *Printer) printBody(s Stmt) {
	if b, ok := s.(*Block); ok {
		p.printBlock(b)
		return
	}
	p.indent++
	p.printStmt(s)
	p.indent--
}

func (p *Printer) printStmt(stmt Stmt) {
	if b, ok := stmt.(*Block); ok {
		p.printBlock(b)
		return
	}
	p.writeIndent()
	switch s := stmt.(type) {
	case *Return:
		fmt.Fprint(p.w, "return")
		if s.Expr != nil {
			fmt.Fprint(p.w, " ")
			p.printExpr(s.Expr)
		}
		fmt.Fprintln(p.w, ";")
	case *ExprStmt:
		if s.Expr != nil {
			p.printExpr(s.Expr)
		}
		fmt.Fprintln(p.w, ";")
	case *Declaration:
		p.printDecl(s)
		fmt.Fprintln(p.w, ";")
	case *If:
		fmt.Fprint(p.w, "if (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ")")
		p.printBody(s.Then)
		if s.Else != nil {
			p.writeIndent()
			fmt.Fprintln(p.w, "else")
			p.printBody(s.Else)
		}
	case *While:
		fmt.Fprint(p.w, "while (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ")")
		p.printBody(s.Body)
	case *DoWhile:
		fmt.Fprintln(p.w, "do")
		p.printBody(s.Body)
		p.writeIndent()
		fmt.Fprint(p.w, "while (")
		p.printExpr(s.Cond)
		fmt.Fprintln(p.w, ");")
	case *For:
		fmt.Fprint(p.w, "for (")
		switch init := s.Init.(type) {
		case *Declaration:
			p.printDecl(init)
		case *ExprStmt:
			if init.Expr != nil {
				p.printExpr(init.Expr)
			}
		}
		fmt.Fprint(p.w, "; ")
		if s.Cond != nil {
			p.printExpr(s.Cond)
		}
		fmt.Fprint(p.w, "; ")
		if s.Post != nil {
			p.printExpr(s.Post)
		}
		fmt.Fprintln(p.w, ")")
		p.printBody(s.Body)
	case *Break:
		fmt.Fprintln(p.w, "break;")
	case *Continue:
		fmt.Fprintln(p.w, "continue;")
	default:
		fmt.Fprintf(p.w, "/* unknown stmt %T */;\n", stmt)
	}
}

func (p *Printer) printExpr(expr Expr) {
	switch e := expr.(type) {
	case *Constant:
		fmt.Fprintf(p.w, "%d", e.Value)
	case *Ident:
		fmt.Fprint(p.w, e.Name)
	case *Unary:
		fmt.Fprint(p.w, e.Op.String())
		p.printExpr(e.X)
	case *Binary:
		p.printExpr(e.Left)
		fmt.Fprintf(p.w, " %s ", e.Op.String())
		p.printExpr(e.Right)
	case *Assign:
		p.printExpr(e.Target)
		fmt.Fprint(p.w, " = ")
		p.printExpr(e.Value)
	case *Paren:
		fmt.Fprint(p.w, "(")
		p.printExpr(e.X)
		fmt.Fprint(p.w, ")")
	case *Conditional:
		p.printExpr(e.Cond)
		fmt.Fprint(p.w, " ? ")
		p.printExpr(e.Then)
		fmt.Fprint(p.w, " : ")
		p.printExpr(e.Else)
	case *Call:
		fmt.Fprintf(p.w, "%s(", e.Func)
		for i, arg := range e.Args {
			if i > 0 {
				fmt.Fprint(p.w, ", ")
			}
			p.printExpr(arg)
		}
		fmt.Fprint(p.w, ")")
	case *Index:
		p.printExpr(e.Array)
		fmt.Fprint(p.w, "[")
		p.printExpr(e.Index)
		fmt.Fprint(p.w, "]")
	case *Cast:
		fmt.Fprintf(p.w, "(%s)", e.Type)
		p.printExpr(e.X)
	default:
		fmt.Fprintf(p.w, "/* unknown expr %T */", expr)
	}
}
