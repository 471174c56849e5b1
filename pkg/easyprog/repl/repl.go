// Package repl implements the interactive easy_prog prompt.
package repl

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/peterh/liner"

	"github.com/easyprog/easyprog/pkg/easyprog/easyprog"
	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
	"github.com/easyprog/easyprog/pkg/easyprog/lexer"
)

const BANNER = `
█▀▀ ▄▀█ █▀ █▄█   █▀█ █▀█ █▀█ █▀▀
██▄ █▀█ ▄█ ░█░   █▀▀ █▀▄ █▄█ █▄█ `

const (
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

// Options configures a REPL session.
type Options struct {
	Prompt             string
	ContinuationPrompt string
	HistoryFile        string // empty disables history
	Color              bool

	// NewScope builds the session scope, and a fresh one for :clear.
	NewScope func() (*evaluator.Scope, error)
}

// Start runs the prompt until exit, quit, Ctrl+D or a program's exit call,
// and returns the process exit status.
func Start(out io.Writer, version string, opts Options) int {
	s, err := newSession(out, opts)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return 1
	}
	defer s.close()

	line := liner.NewLiner()
	defer line.Close()

	// Enable Ctrl+C to abort current line
	line.SetCtrlCAborts(true)
	line.SetWordCompleter(func(input string, pos int) (string, []string, string) {
		return completeWord(s.scope, input, pos)
	})

	hist := newHistory(opts.HistoryFile)
	if err := hist.load(line); err != nil {
		fmt.Fprintf(out, "Warning: could not read history: %v\n", err)
	}
	defer func() {
		if err := hist.save(line); err != nil {
			fmt.Fprintf(out, "Warning: could not save history: %v\n", err)
		}
	}()

	fmt.Fprintf(out, "%s", BANNER)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	for !s.done {
		input, err := line.Prompt(s.prompt())
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl+C drops any buffered input
				if s.pending.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				s.pending.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				break
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		if entry := s.step(input); entry != "" {
			line.AppendHistory(entry)
		}
	}
	return s.exitCode
}

// session holds the state of one REPL run apart from the terminal, so the
// loop body can be driven line by line.
type session struct {
	opts     Options
	out      io.Writer
	scope    *evaluator.Scope
	pending  strings.Builder
	done     bool
	exitCode int
}

func newSession(out io.Writer, opts Options) (*session, error) {
	if opts.Prompt == "" {
		opts.Prompt = ">>> "
	}
	if opts.ContinuationPrompt == "" {
		opts.ContinuationPrompt = "... "
	}
	if opts.NewScope == nil {
		opts.NewScope = func() (*evaluator.Scope, error) {
			return easyprog.NewScope(easyprog.Options{})
		}
	}
	s := &session{opts: opts, out: out}
	if err := s.reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// reset replaces the session scope with a fresh one.
func (s *session) reset() error {
	scope, err := s.opts.NewScope()
	if err != nil {
		return err
	}
	// exit() ends the session instead of the process
	scope.SetExitFunc(func(int) {})
	if s.scope != nil {
		s.scope.Close()
	}
	s.scope = scope
	return nil
}

func (s *session) close() {
	if s.scope != nil {
		s.scope.Close()
	}
}

func (s *session) prompt() string {
	if s.pending.Len() > 0 {
		return s.opts.ContinuationPrompt
	}
	return s.opts.Prompt
}

// step handles one line of input. It returns the complete entry to record in
// history, or "" while more input is needed or for REPL commands.
func (s *session) step(input string) string {
	trimmed := strings.TrimSpace(input)
	if s.pending.Len() == 0 {
		if trimmed == "exit" || trimmed == "quit" {
			fmt.Fprintln(s.out, "Goodbye!")
			s.done = true
			return ""
		}
		if strings.HasPrefix(trimmed, ":") {
			s.handleCommand(trimmed)
			return ""
		}
		if trimmed == "" {
			return ""
		}
		s.pending.WriteString(input)
	} else {
		s.pending.WriteString("\n")
		s.pending.WriteString(input)
	}

	entry := s.pending.String()
	status, lerr := lexer.CheckLine(entry)
	if lerr == nil && status == lexer.LineIncomplete {
		return ""
	}
	s.pending.Reset()
	if lerr != nil {
		s.printError(lerr)
		return entry
	}
	s.evaluate(entry)
	return entry
}

// evaluate runs a complete entry and echoes the value of its last call.
func (s *session) evaluate(entry string) {
	v, err := easyprog.RunLine(entry, s.scope)
	if err != nil {
		if code, ok := evaluator.IsExit(err); ok {
			s.done = true
			s.exitCode = code
			return
		}
		s.printError(err)
		return
	}
	if text := evaluator.Echo(v); text != "" {
		fmt.Fprintln(s.out, text)
	}
}

func (s *session) printError(err error) {
	se := easyprog.ToScriptError(err)
	heading, rest, _ := strings.Cut(se.Diagnostic(), ":")
	if s.opts.Color {
		heading = colorRed + heading + colorReset
	}
	fmt.Fprintf(s.out, "%s:%s\n", heading, rest)
}

// handleCommand handles REPL meta-commands that start with ':'
func (s *session) handleCommand(cmd string) {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(s.out, "REPL Commands:")
		fmt.Fprintln(s.out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(s.out, "  :env            Show variables and functions in scope")
		fmt.Fprintln(s.out, "  :clear          Start again with a fresh scope")
		fmt.Fprintln(s.out, "  exit, quit      Exit the REPL")
		fmt.Fprintln(s.out, "")
		fmt.Fprintln(s.out, "Every line must be a call, e.g. print(add(1, 2)).")
		fmt.Fprintln(s.out, "Input continues on the next line while brackets are open.")

	case ":env":
		printEnvironment(s.scope, s.out)

	case ":clear":
		if err := s.reset(); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(s.out, "Environment cleared")

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

// printEnvironment lists the variables of scope and the functions defined
// with declfunc. Native functions are only counted.
func printEnvironment(scope *evaluator.Scope, out io.Writer) {
	vars := scope.VariableNames()
	if len(vars) == 0 {
		fmt.Fprintln(out, "(no variables)")
	}
	for _, name := range vars {
		v, _ := scope.GetVariable(name)
		value := evaluator.Echo(v)
		if value == "" {
			value = evaluator.PrintString(v)
		}
		fmt.Fprintf(out, "  %s: %s = %s\n", name, evaluator.TypeName(v), truncate(value, 60))
	}

	natives := 0
	for _, name := range scope.FunctionNames() {
		fn, _ := scope.GetFunction(name)
		if fn.IsNative() {
			natives++
			continue
		}
		fmt.Fprintf(out, "  %s: function = %s\n", name, fn.Body().String())
	}
	fmt.Fprintf(out, "  (%d native functions)\n", natives)
}
