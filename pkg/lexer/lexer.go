// Package lexer splits MiniDecaf source into tokens with line and column
// positions.
package lexer

// Lexer tokenizes MiniDecaf source code
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // next reading position
	ch      byte // current character
	line    int
	column  int
}

// New creates a new Lexer for the given input
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// NextToken returns the next token from the input. Characters outside the
// MiniDecaf alphabet come back as TokenIllegal; the parser reports them.
func (l *Lexer) NextToken() Token {
	l.skipSpaceAndComments()

	tok := Token{Line: l.line, Column: l.column}

	switch {
	case l.ch == 0 && l.pos >= len(l.input):
		tok.Type = TokenEOF
		return tok
	case isLetter(l.ch):
		tok.Literal = l.readWhile(func(c byte) bool { return isLetter(c) || isDigit(c) })
		tok.Type = LookupIdent(tok.Literal)
		return tok
	case isDigit(l.ch):
		tok.Type = TokenInt
		tok.Literal = l.readWhile(isDigit)
		// 12ab is one malformed token, not a number and a name
		if isLetter(l.ch) {
			tok.Type = TokenIllegal
			tok.Literal += l.readWhile(func(c byte) bool { return isLetter(c) || isDigit(c) })
		}
		return tok
	}

	if typ, ok := doubles[string([]byte{l.ch, l.peekChar()})]; ok {
		tok.Type = typ
		tok.Literal = typ.String()
		l.readChar()
		l.readChar()
		return tok
	}

	tok.Literal = string(l.ch)
	if typ, ok := singles[l.ch]; ok {
		tok.Type = typ
	} else {
		tok.Type = TokenIllegal
	}
	l.readChar()
	return tok
}

// Tokens returns all tokens up to and including EOF
func (l *Lexer) Tokens() []Token {
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks
		}
	}
}

func (l *Lexer) skipSpaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.pos < len(l.input) {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar() // consume /
			l.readChar() // consume *
			for l.pos < len(l.input) && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if l.pos < len(l.input) {
				l.readChar() // consume *
				l.readChar() // consume /
			}
		default:
			return
		}
	}
}

func (l *Lexer) readWhile(ok func(byte) bool) string {
	pos := l.pos
	for l.pos < len(l.input) && ok(l.ch) {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
