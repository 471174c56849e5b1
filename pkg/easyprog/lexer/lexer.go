// Package lexer turns easy_prog source text into tokens and checks that the
// token stream has a plausible shape before it reaches the parser.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	perrors "github.com/easyprog/easyprog/pkg/easyprog/errors"
)

const eof rune = -1

// identSymbols are the operator-style characters allowed in identifiers,
// so that names such as "+" or "<=" can be bound like any other function.
const identSymbols = "_+-*/%$^!&~`?:<>"

// LexerError is a malformed character stream, always tied to a position.
type LexerError struct {
	Code    string
	Line    int
	Column  int
	Message string
	Hints   []string
}

func newError(code string, line, column int, data map[string]any) *LexerError {
	se := perrors.NewWithPosition(code, line, column, data)
	return &LexerError{
		Code:    code,
		Line:    line,
		Column:  column,
		Message: se.Message,
		Hints:   se.Hints,
	}
}

// Error implements the error interface.
func (e *LexerError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// ToScriptError converts the error to the shared structured form.
func (e *LexerError) ToScriptError() *perrors.ScriptError {
	return &perrors.ScriptError{
		Class:   perrors.ClassLexer,
		Code:    e.Code,
		Message: e.Message,
		Hints:   e.Hints,
		Line:    e.Line,
		Column:  e.Column,
	}
}

// Lexer is a single left-to-right scanner with one character of lookahead.
type Lexer struct {
	input        string
	position     int  // byte offset of ch
	readPosition int  // byte offset after ch
	ch           rune // current character, eof at end of input
	line         int  // line of ch
	column       int  // column of ch
}

// New creates a new lexer instance
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// readChar advances to the next character. Newlines bump the line counter
// and reset the column.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}

	if l.readPosition >= len(l.input) {
		l.ch = eof
		l.position = len(l.input)
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// NextToken scans the input and returns the next token. At end of input it
// returns an EOF token positioned after the last character.
func (l *Lexer) NextToken() (Token, *LexerError) {
	l.skipWhitespaceAndComments()

	tok := Token{Line: l.line, Column: l.column}

	switch {
	case l.ch == eof:
		tok.Type = EOF
	case l.ch == '-' || isDigit(l.ch):
		tok.Type = NUMBER
		tok.Literal = l.readNumber()
	case l.ch == '(':
		tok = l.single(LPAREN, tok)
	case l.ch == ')':
		tok = l.single(RPAREN, tok)
	case l.ch == '{':
		tok = l.single(LBRACE, tok)
	case l.ch == '}':
		tok = l.single(RBRACE, tok)
	case l.ch == ',':
		tok = l.single(COMMA, tok)
	case l.ch == '"':
		str, ok := l.readString()
		if !ok {
			return tok, newError("LEX-0001", tok.Line, tok.Column, nil)
		}
		tok.Type = STRING
		tok.Literal = str
	case IsIdentifierChar(l.ch, true):
		tok.Type = IDENT
		tok.Literal = l.readIdentifier()
	default:
		tok = l.single(UNKNOWN, tok)
	}

	return tok, nil
}

func (l *Lexer) single(tt TokenType, tok Token) Token {
	tok.Type = tt
	tok.Literal = string(l.ch)
	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch l.ch {
		case ' ', '\t', '\n', '\r':
			l.readChar()
		case '#':
			l.readChar()
			if l.ch == '#' {
				l.readChar()
				l.skipBlockComment()
			} else {
				for l.ch != '\n' && l.ch != eof {
					l.readChar()
				}
			}
		default:
			return
		}
	}
}

// skipBlockComment consumes everything up to and including the next "##".
// A block comment left open at end of input simply ends there.
func (l *Lexer) skipBlockComment() {
	for l.ch != eof {
		if l.ch == '#' && l.peekChar() == '#' {
			l.readChar()
			l.readChar()
			return
		}
		l.readChar()
	}
}

// readNumber reads an optional leading minus followed by digits.
func (l *Lexer) readNumber() string {
	start := l.position
	l.readChar()
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	l.readChar()
	for IsIdentifierChar(l.ch, false) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readString reads a string literal verbatim. A backslash keeps the next
// character in the literal, so \" does not close it; the pair itself is
// kept as written. Strings cannot span lines.
func (l *Lexer) readString() (string, bool) {
	l.readChar() // skip opening quote
	start := l.position

	for l.ch != '"' && l.ch != eof && l.ch != '\n' {
		if l.ch == '\\' {
			l.readChar()
			if l.ch == eof || l.ch == '\n' {
				return l.input[start:l.position], false
			}
		}
		l.readChar()
	}

	if l.ch != '"' {
		return l.input[start:l.position], false
	}
	lit := l.input[start:l.position]
	l.readChar() // skip closing quote
	return lit, true
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

// IsIdentifierChar reports whether ch may appear in an identifier. The first
// character of an identifier may not be a digit.
func IsIdentifierChar(ch rune, first bool) bool {
	if ch == eof {
		return false
	}
	if unicode.IsLetter(ch) || strings.ContainsRune(identSymbols, ch) {
		return true
	}
	return !first && isDigit(ch)
}

// Scan tokenizes source without validating the token stream.
func Scan(source string) ([]Token, *LexerError) {
	l := New(source)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == EOF {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// Tokenize scans source and validates the result with CheckTokens. Either the
// full token list or a single error is returned.
func Tokenize(source string) ([]Token, *LexerError) {
	tokens, err := Scan(source)
	if err != nil {
		return nil, err
	}
	if err := CheckTokens(tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}
