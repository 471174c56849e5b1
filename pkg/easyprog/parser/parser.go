// Package parser builds an AST from easy_prog tokens by recursive descent.
//
// Grammar:
//
//	program         = expression_list EOF
//	expression_list = expression { "," expression } [ "," ]
//	expression      = STRING | NUMBER | lambda | call | variable
//	call            = IDENT "(" [ expression_list ] ")"
//	lambda          = "{" [ expression_list ] "}"
//	variable        = IDENT
//
// An identifier is a call exactly when the next token is "(". Only calls
// may appear at the top level of a program.
package parser

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/easyprog/easyprog/pkg/easyprog/ast"
	perrors "github.com/easyprog/easyprog/pkg/easyprog/errors"
	"github.com/easyprog/easyprog/pkg/easyprog/lexer"
)

// ErrorCode discriminates parser failures.
type ErrorCode int

const (
	EmptyTokenList ErrorCode = iota + 1 // nothing to parse
	ShortTokenList                      // input ended mid-production
	UnexpectedType                      // a token of the wrong kind
	InvalidValue                        // a literal that does not convert
	Lexer                               // the lexer rejected the source
)

func (c ErrorCode) String() string {
	switch c {
	case EmptyTokenList:
		return "EmptyTokenList"
	case ShortTokenList:
		return "ShortTokenList"
	case UnexpectedType:
		return "UnexpectedType"
	case InvalidValue:
		return "InvalidValue"
	case Lexer:
		return "Lexer"
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// ParserError is the single failure of a parse. No partial AST accompanies it.
type ParserError struct {
	Code    ErrorCode
	Line    int
	Column  int
	Message string
	Hints   []string
	Lexer   *lexer.LexerError // set when Code is Lexer
	catalog string
}

// Error implements the error interface.
func (e *ParserError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// Unwrap exposes the wrapped lexer failure to errors.As.
func (e *ParserError) Unwrap() error {
	if e.Lexer == nil {
		return nil
	}
	return e.Lexer
}

// ToScriptError converts the error to the shared structured form. A wrapped
// lexer error keeps its own class and code.
func (e *ParserError) ToScriptError() *perrors.ScriptError {
	if e.Lexer != nil {
		return e.Lexer.ToScriptError()
	}
	return &perrors.ScriptError{
		Class:   perrors.ClassParse,
		Code:    e.catalog,
		Message: e.Message,
		Hints:   e.Hints,
		Line:    e.Line,
		Column:  e.Column,
	}
}

func newError(code ErrorCode, catalog string, tok lexer.Token, data map[string]any) *ParserError {
	se := perrors.NewWithPosition(catalog, tok.Line, tok.Column, data)
	return &ParserError{
		Code:    code,
		Line:    tok.Line,
		Column:  tok.Column,
		Message: se.Message,
		Hints:   se.Hints,
		catalog: catalog,
	}
}

func fromLexer(err *lexer.LexerError) *ParserError {
	return &ParserError{
		Code:    Lexer,
		Line:    err.Line,
		Column:  err.Column,
		Message: err.Message,
		Hints:   err.Hints,
		Lexer:   err,
		catalog: err.Code,
	}
}

// Parse tokenizes, validates and parses source. Source holding no tokens at
// all (empty, or only comments) yields an empty Sequence.
func Parse(source string) (*ast.Sequence, *ParserError) {
	tokens, lexErr := lexer.Tokenize(source)
	if lexErr != nil {
		return nil, fromLexer(lexErr)
	}
	if len(tokens) == 0 {
		return &ast.Sequence{Token: lexer.Token{Type: lexer.EOF, Line: 1, Column: 1}}, nil
	}
	return ParseTokens(tokens)
}

// ParseTokens parses an already scanned token list.
func ParseTokens(tokens []lexer.Token) (*ast.Sequence, *ParserError) {
	if len(tokens) == 0 {
		return nil, newError(EmptyTokenList, "PARSE-0001", lexer.Token{Line: 1, Column: 1}, nil)
	}
	p := newParser(tokens)
	return p.parseProgram()
}

// Parser holds the token list and a cursor into it.
type Parser struct {
	tokens []lexer.Token
	pos    int
	eof    lexer.Token
}

func newParser(tokens []lexer.Token) *Parser {
	last := tokens[len(tokens)-1]
	return &Parser{
		tokens: tokens,
		eof: lexer.Token{
			Type:   lexer.EOF,
			Line:   last.Line,
			Column: last.Column + utf8.RuneCountInString(last.Literal),
		},
	}
}

func (p *Parser) curToken() lexer.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return p.eof
}

func (p *Parser) peekToken() lexer.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.eof
}

func (p *Parser) nextToken() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken().Type == t
}

// expectCur consumes the current token if it has type t.
func (p *Parser) expectCur(t lexer.TokenType) *ParserError {
	tok := p.curToken()
	if tok.Type == t {
		p.nextToken()
		return nil
	}
	return p.unexpected(tok, t.Describe())
}

func (p *Parser) unexpected(tok lexer.Token, expected string) *ParserError {
	if tok.Type == lexer.EOF {
		return newError(ShortTokenList, "PARSE-0002", tok, map[string]any{"Expected": expected})
	}
	got := tok.Type.Describe()
	if tok.Type == lexer.UNKNOWN {
		got = "'" + tok.Literal + "'"
	}
	return newError(UnexpectedType, "PARSE-0003", tok, map[string]any{"Expected": expected, "Got": got})
}

func (p *Parser) parseProgram() (*ast.Sequence, *ParserError) {
	seq := &ast.Sequence{Token: p.curToken()}

	body, err := p.parseExpressionList(lexer.EOF)
	if err != nil {
		return nil, err
	}
	if !p.curTokenIs(lexer.EOF) {
		return nil, p.unexpected(p.curToken(), "comma (',')")
	}

	for _, node := range body {
		if node.Kind() != ast.CallKind {
			tok := lexer.Token{Line: node.Line(), Column: node.Column()}
			return nil, newError(UnexpectedType, "PARSE-0003", tok, map[string]any{
				"Expected": "function call",
				"Got":      kindDescription(node),
			})
		}
	}

	seq.Body = body
	return seq, nil
}

func kindDescription(node ast.Node) string {
	switch node.Kind() {
	case ast.IntKind:
		return "number"
	case ast.StrKind:
		return "string"
	case ast.SequenceKind:
		return "function literal"
	case ast.VariableKind:
		return "variable"
	}
	return "function call"
}

// parseExpressionList parses comma separated expressions up to, but not
// including, closer. A trailing comma before closer is allowed.
func (p *Parser) parseExpressionList(closer lexer.TokenType) ([]ast.Node, *ParserError) {
	var list []ast.Node
	if p.curTokenIs(closer) {
		return list, nil
	}

	for {
		node, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		list = append(list, node)

		if !p.curTokenIs(lexer.COMMA) {
			return list, nil
		}
		p.nextToken()
		if p.curTokenIs(closer) {
			return list, nil
		}
	}
}

func (p *Parser) parseExpression() (ast.Node, *ParserError) {
	tok := p.curToken()
	switch tok.Type {
	case lexer.STRING:
		p.nextToken()
		return &ast.ConstStr{Token: tok, Value: tok.Literal}, nil
	case lexer.NUMBER:
		return p.parseInteger()
	case lexer.LBRACE:
		return p.parseLambda()
	case lexer.IDENT:
		if p.peekToken().Type == lexer.LPAREN {
			return p.parseCall()
		}
		p.nextToken()
		return &ast.Variable{Token: tok, Name: tok.Literal}, nil
	}
	return nil, p.unexpected(tok, "expression")
}

func (p *Parser) parseInteger() (ast.Node, *ParserError) {
	tok := p.curToken()
	value, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		return nil, newError(InvalidValue, "PARSE-0004", tok, map[string]any{"Literal": tok.Literal})
	}
	p.nextToken()
	return &ast.ConstInt{Token: tok, Value: value}, nil
}

func (p *Parser) parseCall() (ast.Node, *ParserError) {
	call := &ast.CallFunc{Token: p.curToken(), Name: p.curToken().Literal}
	p.nextToken() // identifier
	p.nextToken() // '('

	args, err := p.parseExpressionList(lexer.RPAREN)
	if err != nil {
		return nil, err
	}
	if err := p.expectCur(lexer.RPAREN); err != nil {
		return nil, err
	}
	call.Args = args
	return call, nil
}

func (p *Parser) parseLambda() (ast.Node, *ParserError) {
	seq := &ast.Sequence{Token: p.curToken(), Block: true}
	p.nextToken() // '{'

	body, err := p.parseExpressionList(lexer.RBRACE)
	if err != nil {
		return nil, err
	}
	if err := p.expectCur(lexer.RBRACE); err != nil {
		return nil, err
	}
	seq.Body = body
	return seq, nil
}
