package repl

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/easyprog/easyprog/pkg/easyprog/easyprog"
	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
)

func newTestSession(t *testing.T, opts Options) (*session, *bytes.Buffer, *easyprog.BufferedLogger) {
	t.Helper()
	printed := easyprog.NewBufferedLogger()
	opts.NewScope = func() (*evaluator.Scope, error) {
		return easyprog.NewScope(easyprog.Options{Out: printed, Err: easyprog.NullLogger()})
	}
	var out bytes.Buffer
	s, err := newSession(&out, opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.close)
	return s, &out, printed
}

func TestStepEchoesLastCall(t *testing.T) {
	tests := []struct {
		input string
		echo  string
	}{
		{`add(1, 2)`, "3\n"},
		{`concat("a", "b")`, "\"ab\"\n"},
		{`set("x", 4)`, ""},
		{`set("y", 2), mult(y, 5)`, "10\n"},
		{`   `, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s, out, _ := newTestSession(t, Options{})
			s.step(tt.input)
			if out.String() != tt.echo {
				t.Errorf("echo = %q, want %q", out.String(), tt.echo)
			}
		})
	}
}

func TestStepContinuation(t *testing.T) {
	s, out, printed := newTestSession(t, Options{})

	if s.prompt() != ">>> " {
		t.Errorf("prompt = %q", s.prompt())
	}
	if entry := s.step(`print(add(1,`); entry != "" {
		t.Errorf("incomplete input returned entry %q", entry)
	}
	if s.prompt() != "... " {
		t.Errorf("continuation prompt = %q", s.prompt())
	}
	if entry := s.step(`  2)),`); entry != "" {
		t.Errorf("trailing comma should keep reading, got entry %q", entry)
	}
	entry := s.step(`print("!")`)
	if want := "print(add(1,\n  2)),\nprint(\"!\")"; entry != want {
		t.Errorf("entry = %q, want %q", entry, want)
	}
	if printed.String() != "3!" {
		t.Errorf("printed = %q", printed.String())
	}
	if out.String() != "" {
		t.Errorf("echo = %q", out.String())
	}
	if s.prompt() != ">>> " {
		t.Errorf("prompt after entry = %q", s.prompt())
	}
}

func TestStepErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lexer", `pri nt()`, "Error on line 1 column 1: "},
		{"unbalanced", `print(1))`, "Error on line 1 column "},
		{"runtime", `prnt(1)`, "Runtime error on line 1 column 1: function 'prnt' is not defined"},
		{"native", `idiv(1, 0)`, "Native function exception on line 1 column 1: division by zero"},
		{"bare value", `"hello"`, "Error on line 1 column 1: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, out, _ := newTestSession(t, Options{})
			if entry := s.step(tt.input); entry != tt.input {
				t.Errorf("entry = %q, failed input should still reach history", entry)
			}
			if !strings.HasPrefix(out.String(), tt.want) {
				t.Errorf("output = %q, want prefix %q", out.String(), tt.want)
			}
			if s.done {
				t.Error("an error must not end the session")
			}
		})
	}
}

func TestStepErrorColor(t *testing.T) {
	s, out, _ := newTestSession(t, Options{Color: true})
	s.step(`idiv(1, 0)`)
	want := colorRed + "Native function exception on line 1 column 1" + colorReset + ": division by zero\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestStepQuit(t *testing.T) {
	for _, word := range []string{"exit", "quit", "  quit  "} {
		s, out, _ := newTestSession(t, Options{})
		s.step(word)
		if !s.done || out.String() != "Goodbye!\n" {
			t.Errorf("%q: done=%v output=%q", word, s.done, out.String())
		}
	}
}

func TestStepExitCall(t *testing.T) {
	s, _, printed := newTestSession(t, Options{})
	s.step(`print("bye"), exit(3), print("never")`)
	if !s.done || s.exitCode != 3 {
		t.Errorf("done=%v exitCode=%d", s.done, s.exitCode)
	}
	if printed.String() != "bye" {
		t.Errorf("printed = %q", printed.String())
	}
	if !s.scope.Closed() {
		t.Error("exit should close the session scope")
	}
}

func TestCommands(t *testing.T) {
	s, out, _ := newTestSession(t, Options{})
	s.step(`set("greeting", "hi")`)
	s.step(`declfunc("hello", {print(greeting)})`)

	out.Reset()
	s.step(":env")
	env := out.String()
	for _, want := range []string{
		`  greeting: str = "hi"`,
		`  true: int = 1`,
		`  hello: function = {print(greeting)}`,
		" native functions)",
	} {
		if !strings.Contains(env, want) {
			t.Errorf(":env output missing %q:\n%s", want, env)
		}
	}
	if strings.Contains(env, "  print: function") {
		t.Error(":env should not list native functions")
	}

	out.Reset()
	old := s.scope
	s.step(":clear")
	if out.String() != "Environment cleared\n" {
		t.Errorf(":clear output = %q", out.String())
	}
	if !old.Closed() {
		t.Error(":clear should close the old scope")
	}
	if s.scope.HasVariable("greeting") || s.scope.HasFunction("hello") {
		t.Error(":clear should drop user bindings")
	}
	if !s.scope.HasFunction("print") {
		t.Error(":clear should keep the standard library")
	}

	out.Reset()
	s.step(":help")
	if !strings.HasPrefix(out.String(), "REPL Commands:") {
		t.Errorf(":help output = %q", out.String())
	}

	out.Reset()
	s.step(":bogus")
	if !strings.Contains(out.String(), "Unknown command: :bogus") {
		t.Errorf("unknown command output = %q", out.String())
	}
}

func TestEnvTruncatesLongValues(t *testing.T) {
	s, out, _ := newTestSession(t, Options{})
	s.step(`set("accents", "` + strings.Repeat("é", 70) + `")`)

	out.Reset()
	s.step(":env")
	var line string
	for _, l := range strings.Split(out.String(), "\n") {
		if strings.HasPrefix(l, "  accents: ") {
			line = l
		}
	}
	if !utf8.ValidString(line) {
		t.Errorf(":env cut a character in half: %q", line)
	}
	value := strings.TrimPrefix(line, "  accents: str = ")
	if utf8.RuneCountInString(value) != 60 || !strings.HasSuffix(value, "...") {
		t.Errorf("value = %q, want 60 runes ending in ...", value)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"abcdefghijk", 10, "abcdefg..."},
		{"ééééééééééé", 10, "ééééééé..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestCallNameContinuesOnNextLine(t *testing.T) {
	s, _, printed := newTestSession(t, Options{})
	if entry := s.step(`print`); entry != "" {
		t.Errorf("a bare call name should keep reading, got entry %q", entry)
	}
	if s.prompt() != "... " {
		t.Errorf("prompt = %q", s.prompt())
	}
	if entry := s.step(`("late")`); entry != "print\n(\"late\")" {
		t.Errorf("entry = %q", entry)
	}
	if printed.String() != "late" {
		t.Errorf("printed = %q", printed.String())
	}
}

func TestCommandsOnlyAtStartOfEntry(t *testing.T) {
	s, out, printed := newTestSession(t, Options{})
	s.step(`print(`)
	s.step(`":env")`)
	if printed.String() != ":env" {
		t.Errorf("printed = %q", printed.String())
	}
	if strings.Contains(out.String(), "native functions") {
		t.Error("a continuation line must not run commands")
	}
}

func TestCustomPrompts(t *testing.T) {
	s, _, _ := newTestSession(t, Options{Prompt: "ep> ", ContinuationPrompt: "  | "})
	if s.prompt() != "ep> " {
		t.Errorf("prompt = %q", s.prompt())
	}
	s.step("print(")
	if s.prompt() != "  | " {
		t.Errorf("continuation prompt = %q", s.prompt())
	}
}

func TestCompleteWord(t *testing.T) {
	s, _, _ := newTestSession(t, Options{})
	s.step(`set("counter", 1), set("count_max", 9)`)

	tests := []struct {
		line  string
		pos   int
		head  string
		want  []string
		tail  string
	}{
		{"print(cou", 9, "print(", []string{"count_max", "counter"}, ""},
		{"print(cou)", 9, "print(", []string{"count_max", "counter"}, ")"},
		{"printe", 6, "", []string{"printerr"}, ""},
		{"print(1)", 8, "print(1)", nil, ""},
		{"add(9", 5, "add(", nil, ""},
		{"", 0, "", nil, ""},
		{"zzz", 3, "", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			head, got, tail := completeWord(s.scope, tt.line, tt.pos)
			if head != tt.head || tail != tt.tail {
				t.Errorf("head/tail = %q/%q, want %q/%q", head, tail, tt.head, tt.tail)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("completions = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompletionsIncludeFunctions(t *testing.T) {
	s, _, _ := newTestSession(t, Options{})
	got := completions(s.scope, "pr")
	want := []string{"print", "printerr"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("completions(pr) = %v, want %v", got, want)
	}
}

type fakeLines struct {
	lines []string
}

func (f *fakeLines) ReadHistory(r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.lines = strings.Split(strings.TrimSpace(string(data)), "\n")
	return len(f.lines), nil
}

func (f *fakeLines) WriteHistory(w io.Writer) (int, error) {
	for _, l := range f.lines {
		if _, err := io.WriteString(w, l+"\n"); err != nil {
			return 0, err
		}
	}
	return len(f.lines), nil
}

func TestHistoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	h := newHistory(path)

	var empty fakeLines
	if err := h.load(&empty); err != nil {
		t.Fatalf("load of a missing file: %v", err)
	}
	if len(empty.lines) != 0 {
		t.Errorf("lines = %v", empty.lines)
	}

	if err := h.save(&fakeLines{lines: []string{`print(1)`, `add(2, 3)`}}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".lock"); err != nil {
		t.Errorf("lock file: %v", err)
	}

	var loaded fakeLines
	if err := newHistory(path).load(&loaded); err != nil {
		t.Fatal(err)
	}
	if want := []string{`print(1)`, `add(2, 3)`}; !reflect.DeepEqual(loaded.lines, want) {
		t.Errorf("loaded = %v, want %v", loaded.lines, want)
	}
}

func TestHistoryDisabled(t *testing.T) {
	h := newHistory("")
	if err := h.save(&fakeLines{lines: []string{"x"}}); err != nil {
		t.Error(err)
	}
	if err := h.load(&fakeLines{}); err != nil {
		t.Error(err)
	}
}
