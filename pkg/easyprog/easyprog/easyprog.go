// Package easyprog provides a public API for embedding the easy_prog
// interpreter: run files and snippets against a Scope, evaluate single
// interactive lines, and check syntax without running anything.
//
// Failures are reported as one diagnostic per source unit in the form
//
//	<path>: Error on line L column C: <message>
//	<path>: Runtime error on line L column C: <message>
//	<path>: Native function exception on line L column C: <message>
//	<path>: File error: <message>
package easyprog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/easyprog/easyprog/pkg/easyprog/ast"
	perrors "github.com/easyprog/easyprog/pkg/easyprog/errors"
	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
	"github.com/easyprog/easyprog/pkg/easyprog/lexer"
	"github.com/easyprog/easyprog/pkg/easyprog/parser"
	"github.com/easyprog/easyprog/pkg/easyprog/stdlib"
)

// InlineName labels diagnostics for code that did not come from a file.
const InlineName = "<eval>"

// Options configures NewScope.
type Options struct {
	Out      Logger    // print; stdout when nil
	Err      Logger    // printerr; stderr when nil
	In       io.Reader // input; stdin when nil
	Disable  []string  // stdlib groups to leave out
	MaxDepth int       // nested call limit; 0 keeps the default
}

// NewScope returns a root scope with the standard library registered.
func NewScope(opts Options) (*evaluator.Scope, error) {
	scope := evaluator.NewScope()
	if opts.Out != nil {
		scope.Out = opts.Out
	}
	if opts.Err != nil {
		scope.Err = opts.Err
	}
	if opts.In != nil {
		scope.SetInput(opts.In)
	}
	if opts.MaxDepth != 0 {
		scope.SetMaxDepth(opts.MaxDepth)
	}
	if err := stdlib.Register(scope, opts.Disable...); err != nil {
		return nil, err
	}
	return scope, nil
}

// FileError reports a source file that could not be read.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e *FileError) Unwrap() error { return e.Err }

// Parse lexes, validates and parses code.
func Parse(code string) (*ast.Sequence, error) {
	seq, perr := parser.Parse(code)
	if perr != nil {
		return nil, perr
	}
	return seq, nil
}

// Check reports the first syntax error in code, or nil.
func Check(code string) error {
	_, err := Parse(code)
	return err
}

// CheckFile reads and checks path without running it.
func CheckFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return &FileError{Path: path, Err: err}
	}
	return Check(string(src))
}

// Run parses and executes code in scope. It does not close the scope.
func Run(code string, scope *evaluator.Scope) error {
	seq, err := Parse(code)
	if err != nil {
		return err
	}
	return evaluator.ExecuteSequence(scope, seq)
}

// RunFile executes path in scope, writes a diagnostic to diag on failure and
// reports success. The scope is closed afterwards either way.
func RunFile(path string, scope *evaluator.Scope, diag io.Writer) bool {
	defer scope.Close()

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(diag, Diagnostic(path, &FileError{Path: path, Err: err}))
		return false
	}
	return report(path, Run(string(src), scope), diag)
}

// RunCode is RunFile for a snippet; diagnostics are labelled InlineName.
func RunCode(code string, scope *evaluator.Scope, diag io.Writer) bool {
	defer scope.Close()
	return report(InlineName, Run(code, scope), diag)
}

func report(name string, err error, diag io.Writer) bool {
	if err == nil {
		return true
	}
	if code, ok := evaluator.IsExit(err); ok {
		return code == 0
	}
	fmt.Fprintln(diag, Diagnostic(name, err))
	return false
}

// RunLine executes one interactive input in scope and returns the value of
// its last call; input with no calls yields Void. The scope stays open.
func RunLine(code string, scope *evaluator.Scope) (evaluator.Value, error) {
	seq, err := Parse(code)
	if err != nil {
		return nil, err
	}
	var last evaluator.Value = evaluator.Void{}
	for _, node := range seq.Body {
		call, ok := node.(*ast.CallFunc)
		if !ok {
			return nil, fmt.Errorf("statement at line %d column %d is not a call", node.Line(), node.Column())
		}
		v, err := evaluator.ExecuteCall(scope, call)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

// ToScriptError converts an error from any layer to the shared form.
func ToScriptError(err error) *perrors.ScriptError {
	var pe *parser.ParserError
	if errors.As(err, &pe) {
		return pe.ToScriptError()
	}
	var le *lexer.LexerError
	if errors.As(err, &le) {
		return le.ToScriptError()
	}
	if se := evaluator.ToScriptError(err); se != nil {
		return se
	}
	var se *perrors.ScriptError
	if errors.As(err, &se) {
		return se
	}
	return perrors.NewSimple(perrors.ClassState, err.Error())
}

// Diagnostic renders err the way file-running mode reports it.
func Diagnostic(name string, err error) string {
	var fe *FileError
	if errors.As(err, &fe) {
		return fmt.Sprintf("%s: File error: %v", name, fe.Err)
	}
	return ToScriptError(err).WithFile(name).Diagnostic()
}
