// Package irgen lowers a checked program to the stack-machine IR.
// Locals are stack-positional: a declaration leaves its initial value on
// the operand stack, in the slot the namer assigned, and the block that
// declares it pops it on exit.
package irgen

import (
	"fmt"

	"github.com/decaf-lang/minidecaf/pkg/ast"
	"github.com/decaf-lang/minidecaf/pkg/diag"
	"github.com/decaf-lang/minidecaf/pkg/ir"
	"github.com/decaf-lang/minidecaf/pkg/namer"
	"github.com/decaf-lang/minidecaf/pkg/typer"
	"github.com/decaf-lang/minidecaf/pkg/types"
)

// Generator holds the state for lowering one program
type Generator struct {
	names  *namer.NameInfo
	ti     *typer.TypeInfo
	labels *labelManager

	fn  *namer.FuncSymbolInfo
	out *ir.Func

	// live is the number of local slots on the operand stack below the
	// value being computed
	live int64
}

// New creates a Generator
func New(names *namer.NameInfo, ti *typer.TypeInfo) *Generator {
	return &Generator{
		names:  names,
		ti:     ti,
		labels: newLabelManager(),
	}
}

// Generate lowers prog to IR
func Generate(prog *ast.Program, names *namer.NameInfo, ti *typer.TypeInfo) (*ir.Program, error) {
	return New(names, ti).Generate(prog)
}

// Generate lowers prog to IR. The only error it reports is break or
// continue outside a loop.
func (g *Generator) Generate(prog *ast.Program) (*ir.Program, error) {
	out := &ir.Program{}
	for _, name := range g.names.GlobalOrder {
		info := g.names.Globals[name]
		out.Globs = append(out.Globs, &ir.Glob{
			Name:  name,
			Size:  info.Size,
			Align: types.WordSize,
			Init:  info.Init,
		})
	}

	for _, def := range prog.Definitions {
		fd, ok := def.(*ast.FunDef)
		if !ok || fd.Body == nil {
			continue
		}
		f, err := g.genFunc(fd)
		if err != nil {
			return nil, err
		}
		out.Funcs = append(out.Funcs, f)
	}
	return out, nil
}

func (g *Generator) genFunc(fd *ast.FunDef) (*ir.Func, error) {
	g.fn = g.names.Funcs[fd.Name]
	g.out = ir.NewFunc(fd.Name, len(fd.Params))
	g.live = int64(len(fd.Params))

	// the parameters are the body's first slots, so the body pops them too
	if err := g.genBlock(fd.Body); err != nil {
		return nil, err
	}

	f := g.out
	g.fn, g.out = nil, nil
	return f, nil
}

func (g *Generator) emit(instrs ...ir.Instruction) {
	g.out.Append(instrs...)
}

func (g *Generator) pop(n int64) {
	for i := int64(0); i < n; i++ {
		g.emit(ir.Pop{})
	}
}

func (g *Generator) label(name string) {
	g.emit(ir.Label{Name: name})
}

func (g *Generator) branch(kind ir.BranchKind, target string) {
	g.emit(ir.Branch{Kind: kind, Target: target})
}

func (g *Generator) genBlock(b *ast.Block) error {
	for _, item := range b.Items {
		if err := g.genStmt(item); err != nil {
			return err
		}
	}
	slots := g.fn.BlockSlots[b]
	g.pop(slots)
	g.live -= slots
	return nil
}

func (g *Generator) genStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.Declaration:
		g.emit(ir.Comment{Text: "decl " + s.Name})
		g.genDecl(s)
		return nil

	case *ast.ExprStmt:
		if s.Expr == nil {
			return nil
		}
		g.emit(ir.Comment{Text: "expr"})
		g.genExpr(s.Expr)
		g.emit(ir.Pop{})
		return nil

	case *ast.Return:
		g.emit(ir.Comment{Text: "return"})
		if s.Expr == nil {
			g.emit(ir.Const{Value: 0})
		} else {
			g.genExpr(s.Expr)
		}
		g.emit(ir.Ret{})
		return nil

	case *ast.Block:
		return g.genBlock(s)

	case *ast.If:
		g.emit(ir.Comment{Text: "if"})
		return g.genIf(s)

	case *ast.While:
		g.emit(ir.Comment{Text: "while"})
		return g.genLoop("while", nil, s.Cond, s.Body, nil)

	case *ast.For:
		g.emit(ir.Comment{Text: "for"})
		start := g.live
		if err := g.genLoop("for", s.Init, s.Cond, s.Body, s.Post); err != nil {
			return err
		}
		g.pop(g.fn.BlockSlots[s])
		g.live = start
		return nil

	case *ast.DoWhile:
		g.emit(ir.Comment{Text: "do while"})
		return g.genDoWhile(s)

	case *ast.Break:
		loop, ok := g.labels.innermost()
		if !ok {
			return diag.Errorf(s.Pos, diag.ErrNotInLoop, "break is not in a loop")
		}
		g.pop(g.live - loop.live)
		g.branch(ir.Br, loop.exit)
		return nil

	case *ast.Continue:
		loop, ok := g.labels.innermost()
		if !ok {
			return diag.Errorf(s.Pos, diag.ErrNotInLoop, "continue is not in a loop")
		}
		g.pop(g.live - loop.live)
		g.branch(ir.Br, loop.cont)
		return nil
	}
	panic(fmt.Sprintf("irgen: unexpected statement %T", stmt))
}

func (g *Generator) genDecl(d *ast.Declaration) {
	v := g.names.Var(d)
	slots := v.Size / types.WordSize
	if d.Init != nil {
		g.genExpr(d.Init)
	} else {
		for i := int64(0); i < slots; i++ {
			g.emit(ir.Const{Value: 0})
		}
	}
	g.live += slots
}

func (g *Generator) genIf(s *ast.If) error {
	end := g.labels.newLabel("if_end")
	els := g.labels.newLabel("if_else")
	g.genExpr(s.Cond)
	if s.Else == nil {
		g.branch(ir.Beqz, end)
		if err := g.genStmt(s.Then); err != nil {
			return err
		}
		g.label(end)
		return nil
	}

	g.branch(ir.Beqz, els)
	if err := g.genStmt(s.Then); err != nil {
		return err
	}
	g.branch(ir.Br, end)
	g.label(els)
	if err := g.genStmt(s.Else); err != nil {
		return err
	}
	g.label(end)
	return nil
}

// genLoop lowers while and for:
//
//	init; entry: cond; beqz exit; body; continue: post; br entry; exit:
//
// Without post, continue jumps straight to entry.
func (g *Generator) genLoop(tag string, init ast.Stmt, cond ast.Expr, body ast.Stmt, post ast.Expr) error {
	entry := g.labels.newLabel(tag + "_entry")
	cont := entry
	if post != nil {
		cont = g.labels.newLabel(tag + "_continue")
	}
	exit := g.labels.newLabel(tag + "_exit")

	if init != nil {
		if err := g.genStmt(init); err != nil {
			return err
		}
	}

	g.labels.enterLoop(cont, exit, g.live)
	defer g.labels.exitLoop()

	g.label(entry)
	if cond != nil {
		g.genExpr(cond)
	} else {
		g.emit(ir.Const{Value: 1})
	}
	g.branch(ir.Beqz, exit)
	if err := g.genStmt(body); err != nil {
		return err
	}
	if post != nil {
		g.label(cont)
		g.genExpr(post)
		g.emit(ir.Pop{})
	}
	g.branch(ir.Br, entry)
	g.label(exit)
	return nil
}

// genDoWhile lowers
//
//	entry: body; continue: cond; bnez entry; exit:
func (g *Generator) genDoWhile(s *ast.DoWhile) error {
	entry := g.labels.newLabel("dowhile_entry")
	cont := g.labels.newLabel("dowhile_continue")
	exit := g.labels.newLabel("dowhile_exit")

	g.labels.enterLoop(cont, exit, g.live)
	defer g.labels.exitLoop()

	g.label(entry)
	if err := g.genStmt(s.Body); err != nil {
		return err
	}
	g.label(cont)
	g.genExpr(s.Cond)
	g.branch(ir.Bnez, entry)
	g.label(exit)
	return nil
}
