// Package parser implements a recursive descent parser for MiniDecaf
package parser

import (
	"fmt"
	"strconv"

	"github.com/decaf-lang/minidecaf/pkg/ast"
	"github.com/decaf-lang/minidecaf/pkg/diag"
	"github.com/decaf-lang/minidecaf/pkg/lexer"
)

// Parser parses MiniDecaf source code into an AST. Parsing stops at the
// first syntax error.
type Parser struct {
	l         *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
	errors    []error
}

// bailout unwinds the parser after the first error
type bailout struct{}

// New creates a new Parser for the given lexer
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	// Read two tokens to initialize curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a whole translation unit
func Parse(src string) (*ast.Program, error) {
	p := New(lexer.New(src))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	return prog, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// Errors returns the parsing errors. There is at most one.
func (p *Parser) Errors() []error {
	return p.errors
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, diag.Errorf(p.pos(), diag.ErrSyntax, "%s", msg))
	panic(bailout{})
}

func (p *Parser) pos() ast.Pos {
	return ast.Pos{Line: p.curToken.Line, Column: p.curToken.Column}
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expect(t lexer.TokenType) {
	if !p.curTokenIs(t) {
		p.addError(fmt.Sprintf("expected %s, got %s", quote(t), describe(p.curToken)))
	}
	p.nextToken()
}

func (p *Parser) expectIdent() (string, ast.Pos) {
	if !p.curTokenIs(lexer.TokenIdent) {
		p.addError(fmt.Sprintf("expected identifier, got %s", describe(p.curToken)))
	}
	name, pos := p.curToken.Literal, p.pos()
	p.nextToken()
	return name, pos
}

func quote(t lexer.TokenType) string {
	switch t {
	case lexer.TokenIdent:
		return "identifier"
	case lexer.TokenInt:
		return "integer"
	case lexer.TokenEOF:
		return "end of file"
	}
	return "'" + t.String() + "'"
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokenIdent:
		return fmt.Sprintf("identifier %q", tok.Literal)
	case lexer.TokenInt:
		return fmt.Sprintf("integer %s", tok.Literal)
	case lexer.TokenIllegal:
		return fmt.Sprintf("illegal token %q", tok.Literal)
	}
	return quote(tok.Type)
}

// ParseProgram parses definitions until EOF
func (p *Parser) ParseProgram() (prog *ast.Program) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			prog = nil
		}
	}()

	prog = &ast.Program{}
	for !p.curTokenIs(lexer.TokenEOF) {
		prog.Definitions = append(prog.Definitions, p.parseDefinition())
	}
	return prog
}

// parseDefinition parses a function definition, a prototype or a global
func (p *Parser) parseDefinition() ast.Definition {
	typ := p.parseType(true)
	name, pos := p.expectIdent()

	if p.curTokenIs(lexer.TokenLParen) {
		return p.parseFunction(typ, name, pos)
	}
	if typ.Void {
		p.addError(fmt.Sprintf("variable %s declared void", name))
	}
	decl := p.parseDeclarationRest(typ, name, pos)
	p.expect(lexer.TokenSemicolon)
	return decl
}

// parseType parses int or void followed by any number of '*'
func (p *Parser) parseType(allowVoid bool) *ast.TypeName {
	typ := &ast.TypeName{Pos: p.pos()}
	switch p.curToken.Type {
	case lexer.TokenInt_:
	case lexer.TokenVoid:
		if !allowVoid {
			p.addError("void is only allowed as a function return type")
		}
		typ.Void = true
	default:
		p.addError(fmt.Sprintf("expected type, got %s", describe(p.curToken)))
	}
	p.nextToken()
	for p.curTokenIs(lexer.TokenStar) {
		if typ.Void {
			p.addError("pointer to void is not supported")
		}
		typ.Stars++
		p.nextToken()
	}
	return typ
}

func (p *Parser) isTypeSpecifier() bool {
	return p.curTokenIs(lexer.TokenInt_) || p.curTokenIs(lexer.TokenVoid)
}

func (p *Parser) parseFunction(ret *ast.TypeName, name string, pos ast.Pos) *ast.FunDef {
	fn := &ast.FunDef{Pos: pos, Return: ret, Name: name, Params: []*ast.Declaration{}}

	p.expect(lexer.TokenLParen)
	if !p.curTokenIs(lexer.TokenRParen) {
		for {
			typ := p.parseType(false)
			pname, ppos := p.expectIdent()
			if p.curTokenIs(lexer.TokenLBracket) {
				p.addError("array parameters are not supported")
			}
			fn.Params = append(fn.Params, &ast.Declaration{Pos: ppos, Type: typ, Name: pname})
			if !p.curTokenIs(lexer.TokenComma) {
				break
			}
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRParen)

	if p.curTokenIs(lexer.TokenSemicolon) {
		// Function declaration (prototype)
		p.nextToken()
		return fn
	}
	fn.Body = p.parseBlock()
	return fn
}

// parseDeclarationRest parses array dimensions and an initializer after
// the declared name
func (p *Parser) parseDeclarationRest(typ *ast.TypeName, name string, pos ast.Pos) *ast.Declaration {
	decl := &ast.Declaration{Pos: pos, Type: typ, Name: name}
	for p.curTokenIs(lexer.TokenLBracket) {
		p.nextToken()
		if !p.curTokenIs(lexer.TokenInt) {
			p.addError(fmt.Sprintf("expected array size, got %s", describe(p.curToken)))
		}
		decl.Dims = append(decl.Dims, p.intValue())
		p.nextToken()
		p.expect(lexer.TokenRBracket)
	}
	if p.curTokenIs(lexer.TokenAssign) {
		if len(decl.Dims) > 0 {
			p.addError("array initializers are not supported")
		}
		p.nextToken()
		decl.Init = p.parseExpression()
	}
	return decl
}

func (p *Parser) parseDeclaration() *ast.Declaration {
	typ := p.parseType(false)
	name, pos := p.expectIdent()
	decl := p.parseDeclarationRest(typ, name, pos)
	p.expect(lexer.TokenSemicolon)
	return decl
}

func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Pos: p.pos(), Items: []ast.Stmt{}}

	p.expect(lexer.TokenLBrace)
	for !p.curTokenIs(lexer.TokenRBrace) {
		if p.curTokenIs(lexer.TokenEOF) {
			p.addError("expected '}', got end of file")
		}
		if p.isTypeSpecifier() {
			block.Items = append(block.Items, p.parseDeclaration())
			continue
		}
		block.Items = append(block.Items, p.parseStatement())
	}
	p.nextToken() // consume '}'

	return block
}

func (p *Parser) parseStatement() ast.Stmt {
	pos := p.pos()
	switch p.curToken.Type {
	case lexer.TokenReturn:
		p.nextToken()
		ret := &ast.Return{Pos: pos}
		if !p.curTokenIs(lexer.TokenSemicolon) {
			ret.Expr = p.parseExpression()
		}
		p.expect(lexer.TokenSemicolon)
		return ret
	case lexer.TokenLBrace:
		return p.parseBlock()
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenWhile:
		p.nextToken()
		p.expect(lexer.TokenLParen)
		cond := p.parseExpression()
		p.expect(lexer.TokenRParen)
		return &ast.While{Pos: pos, Cond: cond, Body: p.parseStatement()}
	case lexer.TokenDo:
		p.nextToken()
		body := p.parseStatement()
		p.expect(lexer.TokenWhile)
		p.expect(lexer.TokenLParen)
		cond := p.parseExpression()
		p.expect(lexer.TokenRParen)
		p.expect(lexer.TokenSemicolon)
		return &ast.DoWhile{Pos: pos, Body: body, Cond: cond}
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenBreak:
		p.nextToken()
		p.expect(lexer.TokenSemicolon)
		return &ast.Break{Pos: pos}
	case lexer.TokenContinue:
		p.nextToken()
		p.expect(lexer.TokenSemicolon)
		return &ast.Continue{Pos: pos}
	case lexer.TokenInt_, lexer.TokenVoid:
		p.addError("declaration is not allowed here")
	}
	return p.parseExprStatement()
}

// parseExprStatement parses "expr;" or the empty statement ";"
func (p *Parser) parseExprStatement() *ast.ExprStmt {
	stmt := &ast.ExprStmt{Pos: p.pos()}
	if !p.curTokenIs(lexer.TokenSemicolon) {
		stmt.Expr = p.parseExpression()
	}
	p.expect(lexer.TokenSemicolon)
	return stmt
}

func (p *Parser) parseIf() *ast.If {
	stmt := &ast.If{Pos: p.pos()}
	p.nextToken() // consume 'if'
	p.expect(lexer.TokenLParen)
	stmt.Cond = p.parseExpression()
	p.expect(lexer.TokenRParen)
	stmt.Then = p.parseStatement()
	// else binds to the nearest if
	if p.curTokenIs(lexer.TokenElse) {
		p.nextToken()
		stmt.Else = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseFor() *ast.For {
	stmt := &ast.For{Pos: p.pos()}
	p.nextToken() // consume 'for'
	p.expect(lexer.TokenLParen)

	if p.isTypeSpecifier() {
		stmt.Init = p.parseDeclaration()
	} else {
		init := p.parseExprStatement()
		if init.Expr != nil {
			stmt.Init = init
		}
	}

	if !p.curTokenIs(lexer.TokenSemicolon) {
		stmt.Cond = p.parseExpression()
	}
	p.expect(lexer.TokenSemicolon)

	if !p.curTokenIs(lexer.TokenRParen) {
		stmt.Post = p.parseExpression()
	}
	p.expect(lexer.TokenRParen)

	stmt.Body = p.parseStatement()
	return stmt
}

func (p *Parser) parseExpression() ast.Expr {
	return p.parseAssignment()
}

// parseAssignment parses a right-associative assignment. Any expression is
// accepted as the target; lvalue checking happens during type checking.
func (p *Parser) parseAssignment() ast.Expr {
	left := p.parseConditional()
	if p.curTokenIs(lexer.TokenAssign) {
		pos := p.pos()
		p.nextToken()
		return &ast.Assign{Pos: pos, Target: left, Value: p.parseAssignment()}
	}
	return left
}

func (p *Parser) parseConditional() ast.Expr {
	cond := p.parseBinary(0)
	if !p.curTokenIs(lexer.TokenQuestion) {
		return cond
	}
	pos := p.pos()
	p.nextToken()
	then := p.parseExpression()
	p.expect(lexer.TokenColon)
	return &ast.Conditional{Pos: pos, Cond: cond, Then: then, Else: p.parseConditional()}
}

// binary operator precedence levels, loosest first
var binaryLevels = []map[lexer.TokenType]ast.BinaryOp{
	{lexer.TokenOr: ast.OpOr},
	{lexer.TokenAnd: ast.OpAnd},
	{lexer.TokenEq: ast.OpEq, lexer.TokenNe: ast.OpNe},
	{lexer.TokenLt: ast.OpLt, lexer.TokenLe: ast.OpLe, lexer.TokenGt: ast.OpGt, lexer.TokenGe: ast.OpGe},
	{lexer.TokenPlus: ast.OpAdd, lexer.TokenMinus: ast.OpSub},
	{lexer.TokenStar: ast.OpMul, lexer.TokenSlash: ast.OpDiv, lexer.TokenPercent: ast.OpMod},
}

// parseBinary parses left-associative binary operators at the given level
func (p *Parser) parseBinary(level int) ast.Expr {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	left := p.parseBinary(level + 1)
	for {
		op, ok := binaryLevels[level][p.curToken.Type]
		if !ok {
			return left
		}
		pos := p.pos()
		p.nextToken()
		left = &ast.Binary{Pos: pos, Op: op, Left: left, Right: p.parseBinary(level + 1)}
	}
}

var unaryOps = map[lexer.TokenType]ast.UnaryOp{
	lexer.TokenMinus:     ast.OpNeg,
	lexer.TokenNot:       ast.OpNot,
	lexer.TokenTilde:     ast.OpBitNot,
	lexer.TokenStar:      ast.OpDeref,
	lexer.TokenAmpersand: ast.OpAddrOf,
}

// parseUnary parses prefix operators and casts
func (p *Parser) parseUnary() ast.Expr {
	pos := p.pos()
	if op, ok := unaryOps[p.curToken.Type]; ok {
		p.nextToken()
		return &ast.Unary{Pos: pos, Op: op, X: p.parseUnary()}
	}
	if p.curTokenIs(lexer.TokenLParen) && (p.peekTokenIs(lexer.TokenInt_) || p.peekTokenIs(lexer.TokenVoid)) {
		p.nextToken() // consume '('
		typ := p.parseType(false)
		p.expect(lexer.TokenRParen)
		return &ast.Cast{Pos: pos, Type: typ, X: p.parseUnary()}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for p.curTokenIs(lexer.TokenLBracket) {
		pos := p.pos()
		p.nextToken()
		index := p.parseExpression()
		p.expect(lexer.TokenRBracket)
		expr = &ast.Index{Pos: pos, Array: expr, Index: index}
	}
	return expr
}

func (p *Parser) parsePrimary() ast.Expr {
	pos := p.pos()
	switch p.curToken.Type {
	case lexer.TokenInt:
		v := p.intValue()
		p.nextToken()
		return &ast.Constant{Pos: pos, Value: v}
	case lexer.TokenIdent:
		name := p.curToken.Literal
		p.nextToken()
		if p.curTokenIs(lexer.TokenLParen) {
			return p.parseCall(name, pos)
		}
		return &ast.Ident{Pos: pos, Name: name}
	case lexer.TokenLParen:
		p.nextToken()
		x := p.parseExpression()
		p.expect(lexer.TokenRParen)
		return &ast.Paren{Pos: pos, X: x}
	}
	p.addError(fmt.Sprintf("expected expression, got %s", describe(p.curToken)))
	return nil
}

func (p *Parser) parseCall(name string, pos ast.Pos) *ast.Call {
	call := &ast.Call{Pos: pos, Func: name, Args: []ast.Expr{}}
	p.nextToken() // consume '('
	if !p.curTokenIs(lexer.TokenRParen) {
		for {
			call.Args = append(call.Args, p.parseExpression())
			if !p.curTokenIs(lexer.TokenComma) {
				break
			}
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRParen)
	return call
}

// intValue converts the current integer token
func (p *Parser) intValue() int64 {
	v, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.addError(fmt.Sprintf("integer literal %s out of range", p.curToken.Literal))
	}
	return v
}
