package stdlib

import (
	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
)

// call bundles what a native needs to validate and report on its arguments.
type call struct {
	name   string
	line   int
	column int
	scope  *evaluator.Scope
	args   []evaluator.Value
}

// builtinFunc is the shape every library function is written against; wrap
// turns it into an evaluator.NativeFunc bound to a name.
type builtinFunc func(c *call) (evaluator.Value, error)

func wrap(name string, fn builtinFunc) evaluator.NativeFunc {
	return func(line, column int, scope *evaluator.Scope, args []evaluator.Value) (evaluator.Value, error) {
		return fn(&call{name: name, line: line, column: column, scope: scope, args: args})
	}
}

func (c *call) fail(code string, data map[string]any) *evaluator.NativeException {
	return evaluator.NewNativeException(c.line, c.column, code, data)
}

// failErr is fail with the host error attached for errors.Is/As.
func (c *call) failErr(code string, err error, data map[string]any) *evaluator.NativeException {
	if data == nil {
		data = map[string]any{}
	}
	data["Error"] = err.Error()
	ne := c.fail(code, data)
	ne.Err = err
	return ne
}

func (c *call) arity(n int) error {
	if len(c.args) != n {
		return c.fail("ARITY-0001", map[string]any{"Function": c.name, "Want": n, "Got": len(c.args)})
	}
	return nil
}

func (c *call) atLeast(n int) error {
	if len(c.args) < n {
		return c.fail("ARITY-0002", map[string]any{"Function": c.name, "Want": n, "Got": len(c.args)})
	}
	return nil
}

func (c *call) arityRange(min, max int) error {
	if len(c.args) < min || len(c.args) > max {
		return c.fail("ARITY-0003", map[string]any{"Function": c.name, "Min": min, "Max": max, "Got": len(c.args)})
	}
	return nil
}

func (c *call) typeError(i int, expected string) *evaluator.NativeException {
	return c.fail("TYPE-0001", map[string]any{
		"Function": c.name,
		"Index":    i + 1,
		"Expected": expected,
		"Got":      evaluator.TypeName(c.args[i]),
	})
}

func (c *call) intArg(i int) (int64, error) {
	v, ok := c.args[i].(evaluator.Int)
	if !ok {
		return 0, c.typeError(i, "int")
	}
	return v.Value, nil
}

func (c *call) strArg(i int) (string, error) {
	v, ok := c.args[i].(evaluator.Str)
	if !ok {
		return "", c.typeError(i, "str")
	}
	return v.Value, nil
}

func (c *call) fnArg(i int) (*evaluator.Function, error) {
	v, ok := c.args[i].(*evaluator.Function)
	if !ok {
		return nil, c.typeError(i, "func")
	}
	return v, nil
}

// handleArg unwraps a Custom argument of the given host kind.
func (c *call) handleArg(i int, id uint64, kind string) (evaluator.HostValue, error) {
	v, ok := c.args[i].(*evaluator.Custom)
	if !ok || v.ID != id || v.Data == nil {
		return nil, c.fail("TYPE-0002", map[string]any{
			"Function": c.name,
			"Index":    i + 1,
			"Expected": kind,
			"Got":      evaluator.TypeName(c.args[i]),
		})
	}
	return v.Data, nil
}

// ints validates a fixed number of int arguments.
func (c *call) ints(n int) ([]int64, error) {
	if err := c.arity(n); err != nil {
		return nil, err
	}
	out := make([]int64, n)
	for i := range out {
		v, err := c.intArg(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

var void = evaluator.Void{}

func str(s string) evaluator.Str { return evaluator.Str{Value: s} }
func integer(n int64) evaluator.Int { return evaluator.Int{Value: n} }
