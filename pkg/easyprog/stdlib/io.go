package stdlib

import (
	"io"

	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
)

// Flusher is implemented by loggers that buffer output.
type Flusher interface {
	Flush() error
}

func ioBuiltins() []builtin {
	return []builtin{
		{"print", builtinPrint},
		{"printerr", builtinPrintErr},
		{"flush_stdout", builtinFlushStdout},
		{"input", builtinInput},
	}
}

func builtinPrint(c *call) (evaluator.Value, error) {
	for _, arg := range c.args {
		c.scope.Out.Log(evaluator.PrintString(arg))
	}
	return void, nil
}

func builtinPrintErr(c *call) (evaluator.Value, error) {
	for _, arg := range c.args {
		c.scope.Err.Log(evaluator.PrintString(arg))
	}
	return void, nil
}

func builtinFlushStdout(c *call) (evaluator.Value, error) {
	if err := c.arity(0); err != nil {
		return nil, err
	}
	if err := flush(c.scope.Out); err != nil {
		return nil, c.failErr("IO-0003", err, nil)
	}
	return void, nil
}

func flush(l evaluator.Logger) error {
	if f, ok := l.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// builtinInput reads one line. End of input yields an empty string.
func builtinInput(c *call) (evaluator.Value, error) {
	if err := c.arity(0); err != nil {
		return nil, err
	}
	if err := flush(c.scope.Out); err != nil {
		return nil, c.failErr("IO-0003", err, nil)
	}

	line, err := c.scope.ReadLine()
	if err == io.EOF {
		return str(""), nil
	}
	if err != nil {
		return nil, c.failErr("IO-0002", err, nil)
	}
	return str(line), nil
}
