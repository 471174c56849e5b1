package evaluator

import (
	"errors"
	"fmt"

	perrors "github.com/easyprog/easyprog/pkg/easyprog/errors"
)

// RunnerError is a structural failure: a well-formed program referring to a
// function or variable that does not exist, or exceeding the call depth.
type RunnerError struct {
	Code    string
	Line    int
	Column  int
	Message string
	Hints   []string
}

func (e *RunnerError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// ToScriptError converts the error to the shared structured form.
func (e *RunnerError) ToScriptError() *perrors.ScriptError {
	class := perrors.ClassUndefined
	if def, ok := perrors.ErrorCatalog[e.Code]; ok {
		class = def.Class
	}
	return &perrors.ScriptError{
		Class:   class,
		Code:    e.Code,
		Message: e.Message,
		Hints:   e.Hints,
		Line:    e.Line,
		Column:  e.Column,
	}
}

func runnerErrorFrom(se *perrors.ScriptError) *RunnerError {
	return &RunnerError{
		Code:    se.Code,
		Line:    se.Line,
		Column:  se.Column,
		Message: se.Message,
		Hints:   se.Hints,
	}
}

// NativeException is a native function's own domain failure: wrong arity,
// wrong argument kind, division by zero, I/O and so on.
type NativeException struct {
	Code    string
	Class   perrors.ErrorClass
	Line    int
	Column  int
	Message string
	Hints   []string
	Err     error // underlying host error, if any
}

func (e *NativeException) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func (e *NativeException) Unwrap() error { return e.Err }

// ToScriptError converts the exception to the shared structured form.
func (e *NativeException) ToScriptError() *perrors.ScriptError {
	class := e.Class
	if class == "" || class == perrors.ClassLexer || class == perrors.ClassParse ||
		class == perrors.ClassUndefined || class == perrors.ClassRuntime {
		class = perrors.ClassState
	}
	return &perrors.ScriptError{
		Class:   class,
		Code:    e.Code,
		Message: e.Message,
		Hints:   e.Hints,
		Line:    e.Line,
		Column:  e.Column,
	}
}

// NewNativeException builds an exception from the error catalog.
func NewNativeException(line, column int, code string, data map[string]any) *NativeException {
	se := perrors.NewWithPosition(code, line, column, data)
	return &NativeException{
		Code:    se.Code,
		Class:   se.Class,
		Line:    line,
		Column:  column,
		Message: se.Message,
		Hints:   se.Hints,
	}
}

// NativeErrorf builds an exception with a free-form message.
func NativeErrorf(line, column int, format string, args ...any) *NativeException {
	return &NativeException{
		Class:   perrors.ClassState,
		Line:    line,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
	}
}

// ExitError unwinds a program that called exit under a host whose exit
// function returns. It is not a failure and passes through the evaluator and
// control-flow natives untouched.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// IsExit reports whether err is a program exit request and returns its code.
func IsExit(err error) (int, bool) {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code, true
	}
	return 0, false
}

// AsNativeException normalises any failure into a NativeException at the
// given position. A RunnerError keeps its own position and message; this is
// how control-flow natives report a failed branch.
func AsNativeException(line, column int, err error) *NativeException {
	var ne *NativeException
	if errors.As(err, &ne) {
		return ne
	}
	var re *RunnerError
	if errors.As(err, &re) {
		return &NativeException{
			Code:    re.Code,
			Class:   perrors.ClassState,
			Line:    re.Line,
			Column:  re.Column,
			Message: re.Message,
			Hints:   re.Hints,
			Err:     re,
		}
	}
	return &NativeException{
		Class:   perrors.ClassState,
		Line:    line,
		Column:  column,
		Message: err.Error(),
		Err:     err,
	}
}

// ToScriptError converts any evaluator failure to the shared form. It
// returns nil for errors that did not come from the evaluator.
func ToScriptError(err error) *perrors.ScriptError {
	// A translated branch failure wraps its RunnerError, so the outer
	// exception has to win.
	var ne *NativeException
	if errors.As(err, &ne) {
		return ne.ToScriptError()
	}
	var re *RunnerError
	if errors.As(err, &re) {
		return re.ToScriptError()
	}
	return nil
}
