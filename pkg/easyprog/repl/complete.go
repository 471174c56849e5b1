package repl

import (
	"strings"

	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
	"github.com/easyprog/easyprog/pkg/easyprog/lexer"
)

// completeWord is a liner.WordCompleter over the names visible from scope.
// pos counts runes. The identifier ending at pos is replaced by each
// candidate; head and tail keep the rest of the line.
func completeWord(scope *evaluator.Scope, line string, pos int) (string, []string, string) {
	runes := []rune(line)
	if pos > len(runes) {
		pos = len(runes)
	}
	start := pos
	for start > 0 && lexer.IsIdentifierChar(runes[start-1], false) {
		start--
	}
	head, word, tail := string(runes[:start]), string(runes[start:pos]), string(runes[pos:])
	if word == "" || !lexer.IsIdentifierChar([]rune(word)[0], true) {
		return head, nil, tail
	}
	return head, completions(scope, word), tail
}

// completions returns the variable and function names that extend prefix,
// sorted with variables first.
func completions(scope *evaluator.Scope, prefix string) []string {
	var matches []string
	seen := make(map[string]bool)
	for _, names := range [][]string{scope.VariableNames(), scope.FunctionNames()} {
		for _, name := range names {
			if strings.HasPrefix(name, prefix) && !seen[name] {
				seen[name] = true
				matches = append(matches, name)
			}
		}
	}
	return matches
}
