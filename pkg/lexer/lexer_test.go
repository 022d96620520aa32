package lexer

import "testing"

type expectedToken struct {
	expectedType    TokenType
	expectedLiteral string
}

func checkTokens(t *testing.T, input string, tests []expectedToken) {
	t.Helper()
	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken(t *testing.T) {
	checkTokens(t, `int main() { return 42; }`, []expectedToken{
		{TokenInt_, "int"},
		{TokenIdent, "main"},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBrace, "{"},
		{TokenReturn, "return"},
		{TokenInt, "42"},
		{TokenSemicolon, ";"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	})
}

func TestOperators(t *testing.T) {
	checkTokens(t, `+ - * / % = == != < <= > >= && || ! & ~ ? : [ ] ,`, []expectedToken{
		{TokenPlus, "+"},
		{TokenMinus, "-"},
		{TokenStar, "*"},
		{TokenSlash, "/"},
		{TokenPercent, "%"},
		{TokenAssign, "="},
		{TokenEq, "=="},
		{TokenNe, "!="},
		{TokenLt, "<"},
		{TokenLe, "<="},
		{TokenGt, ">"},
		{TokenGe, ">="},
		{TokenAnd, "&&"},
		{TokenOr, "||"},
		{TokenNot, "!"},
		{TokenAmpersand, "&"},
		{TokenTilde, "~"},
		{TokenQuestion, "?"},
		{TokenColon, ":"},
		{TokenLBracket, "["},
		{TokenRBracket, "]"},
		{TokenComma, ","},
		{TokenEOF, ""},
	})
}

func TestAdjacentOperators(t *testing.T) {
	checkTokens(t, `a==-b&&!c<=*p`, []expectedToken{
		{TokenIdent, "a"},
		{TokenEq, "=="},
		{TokenMinus, "-"},
		{TokenIdent, "b"},
		{TokenAnd, "&&"},
		{TokenNot, "!"},
		{TokenIdent, "c"},
		{TokenLe, "<="},
		{TokenStar, "*"},
		{TokenIdent, "p"},
		{TokenEOF, ""},
	})
}

func TestKeywords(t *testing.T) {
	checkTokens(t, `int void return if else while do for break continue integer _x1`, []expectedToken{
		{TokenInt_, "int"},
		{TokenVoid, "void"},
		{TokenReturn, "return"},
		{TokenIf, "if"},
		{TokenElse, "else"},
		{TokenWhile, "while"},
		{TokenDo, "do"},
		{TokenFor, "for"},
		{TokenBreak, "break"},
		{TokenContinue, "continue"},
		{TokenIdent, "integer"},
		{TokenIdent, "_x1"},
		{TokenEOF, ""},
	})
}

func TestComments(t *testing.T) {
	checkTokens(t, `int // comment
main /* block
comment */ ()`, []expectedToken{
		{TokenInt_, "int"},
		{TokenIdent, "main"},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenEOF, ""},
	})
}

func TestIllegal(t *testing.T) {
	checkTokens(t, `a | b ^ c.d 12x "s"`, []expectedToken{
		{TokenIdent, "a"},
		{TokenIllegal, "|"},
		{TokenIdent, "b"},
		{TokenIllegal, "^"},
		{TokenIdent, "c"},
		{TokenIllegal, "."},
		{TokenIdent, "d"},
		{TokenIllegal, "12x"},
		{TokenIllegal, `"`},
		{TokenIdent, "s"},
		{TokenIllegal, `"`},
		{TokenEOF, ""},
	})
}

func TestPositions(t *testing.T) {
	l := New("int x;\n  x = 1;")
	want := [][2]int{{1, 1}, {1, 5}, {1, 6}, {2, 3}, {2, 5}, {2, 7}, {2, 8}}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Line != w[0] || tok.Column != w[1] {
			t.Errorf("token %d (%s): position %d:%d, want %d:%d", i, tok.Type, tok.Line, tok.Column, w[0], w[1])
		}
	}
}

func TestTokens(t *testing.T) {
	toks := New("return 0;").Tokens()
	if len(toks) != 4 {
		t.Fatalf("got %d tokens, want 4", len(toks))
	}
	if toks[3].Type != TokenEOF {
		t.Errorf("last token = %s, want EOF", toks[3].Type)
	}
	if got := toks[1].String(); got != `1:8 INT "0"` {
		t.Errorf("String() = %q", got)
	}
	if got := toks[2].String(); got != "1:9 ;" {
		t.Errorf("String() = %q", got)
	}
}
