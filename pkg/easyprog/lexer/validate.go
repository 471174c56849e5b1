package lexer

// LineStatus is the verdict of the lenient line checker.
type LineStatus int

const (
	LineComplete   LineStatus = iota // ready to parse and run
	LineIncomplete                   // well-formed so far, more input needed
	LineInvalid                      // malformed, see the accompanying error
)

func (s LineStatus) String() string {
	switch s {
	case LineComplete:
		return "complete"
	case LineIncomplete:
		return "incomplete"
	default:
		return "invalid"
	}
}

// CheckTokens validates the shape of a whole program: every bracket is
// closed by a bracket of the same kind, and every token is followed by a
// token that may legally come after it. No AST is built.
func CheckTokens(tokens []Token) *LexerError {
	_, err := check(tokens, false)
	return err
}

// CheckLineTokens applies the same rules as CheckTokens but reports a program
// that stops inside open brackets or after a trailing top-level comma as
// LineIncomplete instead of failing, so a line-oriented caller can keep
// reading.
func CheckLineTokens(tokens []Token) (LineStatus, *LexerError) {
	return check(tokens, true)
}

// CheckLine scans and leniently checks a chunk of interactive input.
func CheckLine(source string) (LineStatus, *LexerError) {
	tokens, err := Scan(source)
	if err != nil {
		return LineInvalid, err
	}
	return CheckLineTokens(tokens)
}

func check(tokens []Token, lenient bool) (LineStatus, *LexerError) {
	open, err := checkBrackets(tokens)
	if err != nil {
		return LineInvalid, err
	}
	if len(open) > 0 && !lenient {
		opener := open[len(open)-1]
		return LineInvalid, newError("LEX-0004", opener.Line, opener.Column, map[string]any{
			"Opener":     opener.Type.Describe(),
			"OpenLine":   opener.Line,
			"OpenColumn": opener.Column,
		})
	}

	if err := checkAdjacency(tokens, lenient); err != nil {
		return LineInvalid, err
	}

	if len(open) > 0 {
		return LineIncomplete, nil
	}
	if lenient && len(tokens) > 0 {
		if last := tokens[len(tokens)-1].Type; last == COMMA || last == IDENT {
			return LineIncomplete, nil
		}
	}
	return LineComplete, nil
}

// checkBrackets matches closers against openers and returns the openers
// still unclosed at end of input, innermost last.
func checkBrackets(tokens []Token) ([]Token, *LexerError) {
	var stack []Token
	for _, tok := range tokens {
		switch {
		case tok.Type.IsOpener():
			stack = append(stack, tok)
		case tok.Type.IsCloser():
			if len(stack) == 0 {
				return nil, newError("LEX-0002", tok.Line, tok.Column, map[string]any{
					"Bracket": tok.Type.Describe(),
				})
			}
			opener := stack[len(stack)-1]
			if closerFor(opener.Type) != tok.Type {
				return nil, newError("LEX-0003", tok.Line, tok.Column, map[string]any{
					"Bracket":    tok.Type.Describe(),
					"Opener":     opener.Type.Describe(),
					"OpenLine":   opener.Line,
					"OpenColumn": opener.Column,
				})
			}
			stack = stack[:len(stack)-1]
		}
	}
	return stack, nil
}

var (
	exprStart  = []TokenType{IDENT, NUMBER, STRING, LBRACE}
	closers    = []TokenType{RPAREN, RBRACE}
	afterValue = []TokenType{COMMA, RPAREN, RBRACE}
)

// followers lists what may come directly after a token of type tt when the
// bracket depth after that token is depth. At depth zero only calls
// separated by commas are legal.
func followers(tt TokenType, depth int) []TokenType {
	switch tt {
	case IDENT:
		if depth == 0 {
			return []TokenType{LPAREN}
		}
		return append([]TokenType{LPAREN}, afterValue...)
	case NUMBER, STRING:
		return afterValue
	case COMMA:
		if depth == 0 {
			return []TokenType{IDENT}
		}
		return append(append([]TokenType{}, exprStart...), closers...)
	case LPAREN, LBRACE:
		return append(append([]TokenType{}, exprStart...), closers...)
	case RPAREN, RBRACE:
		if depth == 0 {
			return []TokenType{COMMA}
		}
		return afterValue
	}
	return nil
}

func contains(types []TokenType, tt TokenType) bool {
	for _, t := range types {
		if t == tt {
			return true
		}
	}
	return false
}

// checkAdjacency assumes checkBrackets already passed, so depth never goes
// negative and every closer matches. In lenient mode a call name at the very
// end may still be followed by its arguments.
func checkAdjacency(tokens []Token, lenient bool) *LexerError {
	if len(tokens) == 0 {
		return nil
	}

	first := tokens[0]
	if first.Type == UNKNOWN {
		return newError("LEX-0007", first.Line, first.Column, map[string]any{"Char": first.Literal})
	}
	if first.Type != IDENT {
		return newError("LEX-0006", first.Line, first.Column, nil)
	}

	depth := 0
	for i, tok := range tokens {
		switch {
		case tok.Type.IsOpener():
			depth++
		case tok.Type.IsCloser():
			depth--
		}

		if i+1 == len(tokens) {
			// Open brackets at the end are only reachable in lenient mode.
			if depth == 0 && tok.Type == IDENT && !lenient {
				return newError("LEX-0008", tok.Line, tok.Column, map[string]any{"After": tok.Type.Describe()})
			}
			return nil
		}

		next := tokens[i+1]
		if next.Type == UNKNOWN {
			return newError("LEX-0007", next.Line, next.Column, map[string]any{"Char": next.Literal})
		}
		if contains(followers(tok.Type, depth), next.Type) {
			continue
		}
		if depth == 0 && tok.Type == COMMA && contains(exprStart, next.Type) {
			return newError("LEX-0009", next.Line, next.Column, map[string]any{"Text": next.Literal})
		}
		return newError("LEX-0005", tok.Line, tok.Column, map[string]any{"After": tok.Type.Describe()})
	}
	return nil
}
