package stdlib

import (
	"github.com/easyprog/easyprog/pkg/easyprog/ast"
	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
)

func coreBuiltins() []builtin {
	return []builtin{
		{"declfunc", builtinDeclfunc},
		{"set", builtinSet},
		{"null", builtinNull},
		{"if", builtinIf},
		{"if_else", builtinIfElse},
		{"add", arith(func(a, b int64) int64 { return a + b })},
		{"subt", arith(func(a, b int64) int64 { return a - b })},
		{"mult", arith(func(a, b int64) int64 { return a * b })},
		{"idiv", builtinIdiv},
		{"and", logic(func(a, b bool) bool { return a && b })},
		{"or", logic(func(a, b bool) bool { return a || b })},
		{"eq", builtinEq},
		{"neq", builtinNeq},
		{"exit", builtinExit},
	}
}

func builtinDeclfunc(c *call) (evaluator.Value, error) {
	if err := c.arity(2); err != nil {
		return nil, err
	}
	name, err := c.strArg(0)
	if err != nil {
		return nil, err
	}
	fn, err := c.fnArg(1)
	if err != nil {
		return nil, err
	}
	c.scope.SetFunction(name, fn)
	return void, nil
}

func builtinSet(c *call) (evaluator.Value, error) {
	if err := c.arity(2); err != nil {
		return nil, err
	}
	name, err := c.strArg(0)
	if err != nil {
		return nil, err
	}
	c.scope.SetVariable(name, c.args[1])
	return void, nil
}

// builtinNull resets a variable to the zero value of its kind: 0, "" or an
// empty function. Custom values cannot be reset.
func builtinNull(c *call) (evaluator.Value, error) {
	if err := c.arity(1); err != nil {
		return nil, err
	}
	name, err := c.strArg(0)
	if err != nil {
		return nil, err
	}
	current, ok := c.scope.GetVariable(name)
	if !ok {
		return nil, c.fail("UNDEF-0002", map[string]any{"Name": name})
	}

	switch current.(type) {
	case evaluator.Int:
		c.scope.SetVariable(name, integer(0))
	case evaluator.Str:
		c.scope.SetVariable(name, str(""))
	case *evaluator.Function:
		c.scope.SetVariable(name, evaluator.NewUserFunction(&ast.Sequence{Block: true}))
	case *evaluator.Custom:
		return nil, evaluator.NativeErrorf(c.line, c.column, "null: cannot reset a %s value", evaluator.TypeName(current))
	}
	return void, nil
}

func builtinIf(c *call) (evaluator.Value, error) {
	if err := c.arity(2); err != nil {
		return nil, err
	}
	cond, err := c.intArg(0)
	if err != nil {
		return nil, err
	}
	body, err := c.fnArg(1)
	if err != nil {
		return nil, err
	}
	if cond == 0 {
		return void, nil
	}
	return void, evaluator.RunBody(c.scope, body, c.line, c.column)
}

func builtinIfElse(c *call) (evaluator.Value, error) {
	if err := c.arity(3); err != nil {
		return nil, err
	}
	cond, err := c.intArg(0)
	if err != nil {
		return nil, err
	}
	then, err := c.fnArg(1)
	if err != nil {
		return nil, err
	}
	otherwise, err := c.fnArg(2)
	if err != nil {
		return nil, err
	}
	body := then
	if cond == 0 {
		body = otherwise
	}
	return void, evaluator.RunBody(c.scope, body, c.line, c.column)
}

// arith builds a two-int operator. Overflow wraps.
func arith(op func(a, b int64) int64) builtinFunc {
	return func(c *call) (evaluator.Value, error) {
		n, err := c.ints(2)
		if err != nil {
			return nil, err
		}
		return integer(op(n[0], n[1])), nil
	}
}

func builtinIdiv(c *call) (evaluator.Value, error) {
	n, err := c.ints(2)
	if err != nil {
		return nil, err
	}
	if n[1] == 0 {
		return nil, c.fail("VALUE-0001", nil)
	}
	return integer(n[0] / n[1]), nil
}

func logic(op func(a, b bool) bool) builtinFunc {
	return func(c *call) (evaluator.Value, error) {
		n, err := c.ints(2)
		if err != nil {
			return nil, err
		}
		return evaluator.Bool(op(n[0] != 0, n[1] != 0)), nil
	}
}

func builtinEq(c *call) (evaluator.Value, error) {
	if err := c.arity(2); err != nil {
		return nil, err
	}
	return evaluator.Bool(c.args[0].Equal(c.args[1])), nil
}

// builtinNeq is the negation of eq, so values of different kinds are unequal.
func builtinNeq(c *call) (evaluator.Value, error) {
	if err := c.arity(2); err != nil {
		return nil, err
	}
	return evaluator.Bool(!c.args[0].Equal(c.args[1])), nil
}

// builtinExit closes the interpreter's resources and ends the program with
// the given status, 0 by default.
func builtinExit(c *call) (evaluator.Value, error) {
	if err := c.arityRange(0, 1); err != nil {
		return nil, err
	}
	code := int64(0)
	if len(c.args) == 1 {
		var err error
		if code, err = c.intArg(0); err != nil {
			return nil, err
		}
	}
	return nil, c.scope.Exit(int(code))
}
