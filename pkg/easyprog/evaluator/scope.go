package evaluator

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Logger receives program output. Log writes values without a trailing
// newline; LogLine adds one.
type Logger interface {
	Log(values ...any)
	LogLine(values ...any)
}

type fileLogger struct {
	f *os.File
}

func (l *fileLogger) Log(values ...any) {
	fmt.Fprint(l.f, joinValues(values))
}

func (l *fileLogger) LogLine(values ...any) {
	fmt.Fprintln(l.f, joinValues(values))
}

func joinValues(values []any) string {
	var sb strings.Builder
	for _, v := range values {
		fmt.Fprint(&sb, v)
	}
	return sb.String()
}

// DefaultLogger writes to standard output.
var DefaultLogger Logger = &fileLogger{f: os.Stdout}

// DefaultErrLogger writes to standard error.
var DefaultErrLogger Logger = &fileLogger{f: os.Stderr}

// CleanupHook runs when a Scope is closed. Hooks must tolerate resources
// that an earlier hook already released.
type CleanupHook func(*Scope)

// DefaultMaxDepth bounds nested calls so runaway recursion in a program
// becomes a RunnerError instead of exhausting the Go stack.
const DefaultMaxDepth = 100000

// Scope is an environment of variables and functions. Lookups walk the
// parent chain; writes always go to the scope they are called on. A Scope is
// not safe for concurrent use; run concurrent programs in separate roots.
type Scope struct {
	variables map[string]Value
	functions map[string]*Function
	parent    *Scope

	hooks  []CleanupHook
	closed bool

	Out Logger // print
	Err Logger // printerr
	in  *bufio.Reader

	// root-only state
	exit     func(code int)
	depth    int
	maxDepth int
}

// NewScope creates an empty root scope writing to standard output and
// reading standard input.
func NewScope() *Scope {
	return &Scope{
		variables: make(map[string]Value),
		functions: make(map[string]*Function),
		Out:       DefaultLogger,
		Err:       DefaultErrLogger,
		in:        bufio.NewReader(os.Stdin),
		exit:      os.Exit,
		maxDepth:  DefaultMaxDepth,
	}
}

// NewChildScope creates a scope whose lookups fall back to parent. The child
// shares the parent's output, input and exit handling.
func NewChildScope(parent *Scope) *Scope {
	if parent == nil {
		return NewScope()
	}
	return &Scope{
		variables: make(map[string]Value),
		functions: make(map[string]*Function),
		parent:    parent,
		Out:       parent.Out,
		Err:       parent.Err,
		in:        parent.in,
	}
}

// Parent returns the enclosing scope, or nil for a root.
func (s *Scope) Parent() *Scope { return s.parent }

// Root returns the outermost scope of the chain.
func (s *Scope) Root() *Scope {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

// GetVariable looks name up locally, then in each ancestor.
func (s *Scope) GetVariable(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.variables[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// SetVariable binds name in this scope only.
func (s *Scope) SetVariable(name string, v Value) {
	s.variables[name] = v
}

// HasVariable reports whether name is bound anywhere in the chain.
func (s *Scope) HasVariable(name string) bool {
	_, ok := s.GetVariable(name)
	return ok
}

// DeleteVariable removes a local binding.
func (s *Scope) DeleteVariable(name string) {
	delete(s.variables, name)
}

// GetFunction looks name up in the function namespace of the chain.
func (s *Scope) GetFunction(name string) (*Function, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if f, ok := cur.functions[name]; ok {
			return f, true
		}
	}
	return nil, false
}

// SetFunction binds name in this scope's function namespace.
func (s *Scope) SetFunction(name string, f *Function) {
	s.functions[name] = f
}

// HasFunction reports whether name is bound as a function anywhere in the chain.
func (s *Scope) HasFunction(name string) bool {
	_, ok := s.GetFunction(name)
	return ok
}

// RegisterNative binds a host function under name.
func (s *Scope) RegisterNative(name string, fn NativeFunc) {
	s.SetFunction(name, NewNativeFunction(fn))
}

// LocalVariableNames returns the variables bound directly in this scope, sorted.
func (s *Scope) LocalVariableNames() []string {
	return sortedKeys(s.variables)
}

// LocalFunctionNames returns the functions bound directly in this scope, sorted.
func (s *Scope) LocalFunctionNames() []string {
	return sortedKeys(s.functions)
}

// VariableNames returns every variable visible from this scope, sorted and
// without duplicates.
func (s *Scope) VariableNames() []string {
	seen := make(map[string]bool)
	for cur := s; cur != nil; cur = cur.parent {
		for name := range cur.variables {
			seen[name] = true
		}
	}
	return sortedKeys(seen)
}

// FunctionNames returns every function visible from this scope, sorted and
// without duplicates.
func (s *Scope) FunctionNames() []string {
	seen := make(map[string]bool)
	for cur := s; cur != nil; cur = cur.parent {
		for name := range cur.functions {
			seen[name] = true
		}
	}
	return sortedKeys(seen)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AddCleanupHook registers fn to run when this scope is closed.
func (s *Scope) AddCleanupHook(fn CleanupHook) {
	s.hooks = append(s.hooks, fn)
}

// Close runs every cleanup hook once, in registration order. Later calls do
// nothing.
func (s *Scope) Close() {
	if s.closed {
		return
	}
	s.closed = true
	hooks := s.hooks
	s.hooks = nil
	for _, hook := range hooks {
		hook(s)
	}
}

// Closed reports whether Close has run.
func (s *Scope) Closed() bool { return s.closed }

// SetInput replaces the reader used by input(). It applies to this scope and
// to children created afterwards.
func (s *Scope) SetInput(r io.Reader) {
	s.in = bufio.NewReader(r)
}

// ReadLine reads one line of input without its line terminator. At end of
// input a final unterminated line is returned with a nil error.
func (s *Scope) ReadLine() (string, error) {
	line, err := s.in.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
	}
	return line, nil
}

// SetExitFunc replaces the process exit used by Exit. Embedding hosts and
// tests use it to intercept a program's exit call.
func (s *Scope) SetExitFunc(fn func(code int)) {
	s.Root().exit = fn
}

// Exit closes the root scope and terminates through the exit function. When
// the exit function returns, as an intercepting host's does, Exit reports an
// *ExitError that unwinds the running program.
func (s *Scope) Exit(code int) error {
	root := s.Root()
	root.Close()
	if root.exit != nil {
		root.exit(code)
	}
	return &ExitError{Code: code}
}

// SetMaxDepth changes the nested call limit for the whole chain. Values
// below one disable the limit.
func (s *Scope) SetMaxDepth(n int) {
	s.Root().maxDepth = n
}
