package stdlib

import (
	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
)

func debugBuiltins() []builtin {
	return []builtin{
		{"inspect_scope", builtinInspectScope},
	}
}

// builtinInspectScope lists the bindings of the calling scope, sorted by
// name. User functions show their body.
func builtinInspectScope(c *call) (evaluator.Value, error) {
	if err := c.arity(0); err != nil {
		return nil, err
	}
	out := c.scope.Out
	out.LogLine("Begin of inspection")
	for _, name := range c.scope.LocalVariableNames() {
		v, _ := c.scope.GetVariable(name)
		out.LogLine("Variable ", name, " = ", describe(v))
	}
	for _, name := range c.scope.LocalFunctionNames() {
		fn, _ := c.scope.GetFunction(name)
		out.LogLine("Function ", name, " = ", describe(fn))
	}
	out.LogLine("End of inspection")
	return void, nil
}

func describe(v evaluator.Value) string {
	switch x := v.(type) {
	case evaluator.Void:
		return "<null>"
	case *evaluator.Function:
		if body := x.Body(); body != nil {
			return body.String()
		}
	}
	return v.Inspect()
}
