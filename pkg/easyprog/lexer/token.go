package lexer

import "fmt"

// TokenType represents different types of tokens
type TokenType int

const (
	UNKNOWN TokenType = iota // any character outside the language alphabet
	EOF

	IDENT  // print, set, +, <=
	NUMBER // 42, -7
	STRING // "hello"

	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }
	COMMA  // ,
)

var tokenNames = map[TokenType]string{
	UNKNOWN: "UNKNOWN",
	EOF:     "EOF",
	IDENT:   "IDENT",
	NUMBER:  "NUMBER",
	STRING:  "STRING",
	LPAREN:  "LPAREN",
	RPAREN:  "RPAREN",
	LBRACE:  "LBRACE",
	RBRACE:  "RBRACE",
	COMMA:   "COMMA",
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Describe returns the wording used in diagnostics, e.g. "left brace ('{')".
func (tt TokenType) Describe() string {
	switch tt {
	case IDENT:
		return "identifier"
	case NUMBER:
		return "number"
	case STRING:
		return "string"
	case LPAREN:
		return "left parenthesis ('(')"
	case RPAREN:
		return "right parenthesis (')')"
	case LBRACE:
		return "left brace ('{')"
	case RBRACE:
		return "right brace ('}')"
	case COMMA:
		return "comma (',')"
	case EOF:
		return "end of input"
	default:
		return "unknown character"
	}
}

// IsOpener reports whether the type opens a bracket pair.
func (tt TokenType) IsOpener() bool {
	return tt == LPAREN || tt == LBRACE
}

// IsCloser reports whether the type closes a bracket pair.
func (tt TokenType) IsCloser() bool {
	return tt == RPAREN || tt == RBRACE
}

// closerFor maps an opener to the closer that matches it.
func closerFor(tt TokenType) TokenType {
	if tt == LBRACE {
		return RBRACE
	}
	return RPAREN
}

// Token represents a single token. Line and Column are 1-based and point at
// the first character of the token.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %q, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Line, t.Column)
}
