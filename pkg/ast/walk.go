package ast

// Inspect traverses the tree rooted at node in depth-first order, calling f
// for each node before its children. If f returns false the children are
// skipped.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}
	switch n := node.(type) {
	case *Unary:
		Inspect(n.X, f)
	case *Binary:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *Assign:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *Paren:
		Inspect(n.X, f)
	case *Conditional:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		Inspect(n.Else, f)
	case *Call:
		for _, arg := range n.Args {
			Inspect(arg, f)
		}
	case *Index:
		Inspect(n.Array, f)
		Inspect(n.Index, f)
	case *Cast:
		Inspect(n.X, f)
	case *Declaration:
		if n.Init != nil {
			Inspect(n.Init, f)
		}
	case *ExprStmt:
		if n.Expr != nil {
			Inspect(n.Expr, f)
		}
	case *Return:
		if n.Expr != nil {
			Inspect(n.Expr, f)
		}
	case *Block:
		for _, item := range n.Items {
			Inspect(item, f)
		}
	case *If:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		if n.Else != nil {
			Inspect(n.Else, f)
		}
	case *While:
		Inspect(n.Cond, f)
		Inspect(n.Body, f)
	case *DoWhile:
		Inspect(n.Body, f)
		Inspect(n.Cond, f)
	case *For:
		if n.Init != nil {
			Inspect(n.Init, f)
		}
		if n.Cond != nil {
			Inspect(n.Cond, f)
		}
		if n.Post != nil {
			Inspect(n.Post, f)
		}
		Inspect(n.Body, f)
	case *FunDef:
		for _, param := range n.Params {
			Inspect(param, f)
		}
		if n.Body != nil {
			Inspect(n.Body, f)
		}
	}
}

// InspectProgram calls Inspect on every definition of prog
func InspectProgram(prog *Program, f func(Node) bool) {
	for _, def := range prog.Definitions {
		Inspect(def, f)
	}
}
