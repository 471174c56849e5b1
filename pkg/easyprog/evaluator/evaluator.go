// Package evaluator runs easy_prog syntax trees against a Scope.
//
// Evaluation is single-threaded, left to right and depth first. A call
// resolves its name in the function namespace, evaluates its arguments, then
// either runs a user body in the caller's scope or hands the arguments to a
// native function. Function literals capture nothing: their bodies see
// whatever scope the call site supplies.
//
// Every failing call returns one of two error types: *RunnerError for
// structural problems such as unknown names, and *NativeException for a
// native function's own failures. A program that calls exit under an
// intercepting host unwinds with *ExitError.
package evaluator

import (
	"errors"
	"fmt"

	"github.com/easyprog/easyprog/pkg/easyprog/ast"
	perrors "github.com/easyprog/easyprog/pkg/easyprog/errors"
)

// ExecuteSequence runs each call of seq in order and stops at the first
// failure. Every element must be a *ast.CallFunc; the parser guarantees it,
// so anything else is a programming error and panics.
func ExecuteSequence(scope *Scope, seq *ast.Sequence) error {
	for _, node := range seq.Body {
		call, ok := node.(*ast.CallFunc)
		if !ok {
			panic(fmt.Sprintf("evaluator: %s at line %d column %d in statement position",
				node.Kind(), node.Line(), node.Column()))
		}
		if _, err := ExecuteCall(scope, call); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteCall evaluates a single call and returns its value.
func ExecuteCall(scope *Scope, call *ast.CallFunc) (Value, error) {
	fn, ok := scope.GetFunction(call.Name)
	if !ok {
		se := perrors.NewUndefinedFunction(call.Name, call.Line(), call.Column(), scope.FunctionNames())
		return nil, runnerErrorFrom(se)
	}

	args := make([]Value, 0, len(call.Args))
	for _, arg := range call.Args {
		v, err := evalArgument(scope, arg)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	return CallFunction(scope, fn, call.Line(), call.Column(), args)
}

// CallFunction invokes fn as if called at line:column. User bodies run in
// scope itself; no child scope is pushed and the result is Void.
func CallFunction(scope *Scope, fn *Function, line, column int, args []Value) (Value, error) {
	root := scope.Root()
	if root.maxDepth > 0 && root.depth >= root.maxDepth {
		se := perrors.NewWithPosition("RUN-0001", line, column, map[string]any{"Depth": root.maxDepth})
		return nil, runnerErrorFrom(se)
	}
	root.depth++
	defer func() { root.depth-- }()

	if fn.body != nil {
		if err := executeBody(scope, fn.body); err != nil {
			return nil, err
		}
		return Void{}, nil
	}

	v, err := fn.native(line, column, scope, args)
	if err != nil {
		return nil, normalizeNativeError(line, column, err)
	}
	if v == nil {
		return Void{}, nil
	}
	return v, nil
}

// executeBody is ExecuteSequence for function literals. Braces may hold
// literals and variables, so a non-call statement is reported as a
// RunnerError instead of panicking.
func executeBody(scope *Scope, body *ast.Sequence) error {
	for _, node := range body.Body {
		call, ok := node.(*ast.CallFunc)
		if !ok {
			se := perrors.NewWithPosition("RUN-0002", node.Line(), node.Column(), map[string]any{"Node": node.String()})
			return runnerErrorFrom(se)
		}
		if _, err := ExecuteCall(scope, call); err != nil {
			return err
		}
	}
	return nil
}

// normalizeNativeError keeps the evaluator's error contract: a native may
// pass through failures from nested evaluation, anything else becomes a
// NativeException at the call site.
func normalizeNativeError(line, column int, err error) error {
	var ne *NativeException
	var re *RunnerError
	var ee *ExitError
	switch {
	case errors.As(err, &ne):
		return ne
	case errors.As(err, &re):
		return re
	case errors.As(err, &ee):
		return ee
	}
	return AsNativeException(line, column, err)
}

func evalArgument(scope *Scope, node ast.Node) (Value, error) {
	switch n := node.(type) {
	case *ast.Sequence:
		return NewUserFunction(n), nil
	case *ast.CallFunc:
		return ExecuteCall(scope, n)
	case *ast.ConstInt:
		return Int{Value: n.Value}, nil
	case *ast.ConstStr:
		return Str{Value: n.Value}, nil
	case *ast.Variable:
		v, ok := scope.GetVariable(n.Name)
		if !ok {
			se := perrors.NewUndefinedVariable(n.Name, n.Line(), n.Column(), scope.VariableNames())
			return nil, runnerErrorFrom(se)
		}
		return v, nil
	}
	panic(fmt.Sprintf("evaluator: unknown node kind %s", node.Kind()))
}

// RunBody runs a user function's body for a control-flow native and
// translates a structural failure inside it into a NativeException at the
// failing position. Exit requests pass through unchanged.
func RunBody(scope *Scope, fn *Function, line, column int) error {
	_, err := CallFunction(scope, fn, line, column, nil)
	if err == nil {
		return nil
	}
	if _, ok := IsExit(err); ok {
		return err
	}
	return AsNativeException(line, column, err)
}
