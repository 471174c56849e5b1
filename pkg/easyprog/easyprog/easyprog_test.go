package easyprog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/easyprog/easyprog/pkg/easyprog/ast"
	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
	"github.com/easyprog/easyprog/pkg/easyprog/parser"
)

func newTestScope(t *testing.T) (*evaluator.Scope, *BufferedLogger) {
	t.Helper()
	out := NewBufferedLogger()
	scope, err := NewScope(Options{Out: out, Err: NullLogger()})
	if err != nil {
		t.Fatal(err)
	}
	return scope, out
}

func writeScript(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunFile(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		ok     bool
		output string
		diag   string
	}{
		{"hello", `print("Hello, World!")`, true, "Hello, World!", ""},
		{"variables", `set("x", 5), print(x)`, true, "5", ""},
		{"lexer error", `pri nt()`, false, "", "Error on line 1 column 1: unexpected type after identifier"},
		{"unterminated paren", `print(`, false, "", "Error on line 1 column 6: unterminated left parenthesis ('(') opened on line 1 column 6"},
		{"runtime error", "print(1),\nprnt(2)", false, "1", "Runtime error on line 2 column 1: function 'prnt' is not defined"},
		{"native exception", `print("a"), print(idiv(4, 0))`, false, "a", "Native function exception on line 1 column 19: division by zero"},
		{"exit zero", `print("a"), exit(0), print("b")`, true, "a", ""},
		{"exit non-zero", `exit(2)`, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScript(t, "prog.ep", tt.src)
			scope, out := newTestScope(t)
			scope.SetExitFunc(func(int) {})
			var diag bytes.Buffer

			ok := RunFile(path, scope, &diag)
			if ok != tt.ok {
				t.Errorf("RunFile() = %v, want %v (diag %q)", ok, tt.ok, diag.String())
			}
			if got := out.String(); got != tt.output {
				t.Errorf("output = %q, want %q", got, tt.output)
			}
			if tt.diag == "" {
				if diag.Len() != 0 {
					t.Errorf("unexpected diagnostic %q", diag.String())
				}
			} else if want := path + ": " + tt.diag; !strings.HasPrefix(diag.String(), want) {
				t.Errorf("diagnostic = %q, want prefix %q", diag.String(), want)
			}
			if !scope.Closed() {
				t.Error("RunFile should close the scope")
			}
		})
	}
}

func TestRunFileMissing(t *testing.T) {
	scope, _ := newTestScope(t)
	var diag bytes.Buffer
	path := filepath.Join(t.TempDir(), "nope.ep")

	if RunFile(path, scope, &diag) {
		t.Fatal("RunFile should fail for a missing file")
	}
	if !strings.HasPrefix(diag.String(), path+": File error: ") {
		t.Errorf("diagnostic = %q", diag.String())
	}
}

func TestRunFileClosesResources(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "out.txt")
	path := writeScript(t, "write.ep", `set("f", fopen(`+ast.Quote(data)+`, "w")), fwrite(f, "kept"), idiv(1, 0)`)

	scope, _ := newTestScope(t)
	if RunFile(path, scope, &bytes.Buffer{}) {
		t.Fatal("expected failure")
	}
	got, err := os.ReadFile(data)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "kept" {
		t.Errorf("file content = %q, buffered write lost after failure", got)
	}
}

func TestRunCode(t *testing.T) {
	scope, out := newTestScope(t)
	var diag bytes.Buffer
	if RunCode(`print(nope)`, scope, &diag) {
		t.Fatal("expected failure")
	}
	if want := "<eval>: Runtime error on line 1 column 7: variable 'nope' is not defined"; !strings.HasPrefix(diag.String(), want) {
		t.Errorf("diagnostic = %q", diag.String())
	}
	if out.String() != "" {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunLine(t *testing.T) {
	scope, out := newTestScope(t)

	tests := []struct {
		line    string
		echo    string
		wantErr bool
	}{
		{`add(2, 3)`, "5", false},
		{`set("x", "hi")`, "", false},
		{`concat(x, "!")`, `"hi!"`, false},
		{`print("side effect")`, "", false},
		{``, "", false},
		{`set("n", 1), add(n, n)`, "2", false},
		{`set("y", 1), y`, "", true},
		{`lf`, "", true},
		{`idiv(1, 0)`, "", true},
	}

	for _, tt := range tests {
		v, err := RunLine(tt.line, scope)
		if tt.wantErr {
			if err == nil {
				t.Errorf("RunLine(%q) should fail", tt.line)
			}
			continue
		}
		if err != nil {
			t.Fatalf("RunLine(%q): %v", tt.line, err)
		}
		if got := evaluator.Echo(v); got != tt.echo {
			t.Errorf("RunLine(%q) echo = %q, want %q", tt.line, got, tt.echo)
		}
	}
	if scope.Closed() {
		t.Error("RunLine must leave the scope open")
	}
	if out.String() != "side effect" {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunLineKeepsState(t *testing.T) {
	scope, _ := newTestScope(t)
	if _, err := RunLine(`set("x", "hi")`, scope); err != nil {
		t.Fatal(err)
	}
	v, err := RunLine(`concat(x, "!")`, scope)
	if err != nil {
		t.Fatal(err)
	}
	if evaluator.Echo(v) != `"hi!"` {
		t.Errorf("echo = %s", evaluator.Echo(v))
	}
}

func TestCheckFile(t *testing.T) {
	good := writeScript(t, "good.ep", `print(undefined_function())`)
	if err := CheckFile(good); err != nil {
		t.Errorf("CheckFile(good) = %v; names are only resolved at run time", err)
	}

	bad := writeScript(t, "bad.ep", `print(1 2)`)
	err := CheckFile(bad)
	var pe *parser.ParserError
	if !errors.As(err, &pe) || pe.Code != parser.Lexer {
		t.Fatalf("CheckFile(bad) = %v", err)
	}
	if d := Diagnostic(bad, err); !strings.HasPrefix(d, bad+": Error on line 1 column 7: ") {
		t.Errorf("Diagnostic = %q", d)
	}

	var fe *FileError
	if err := CheckFile(filepath.Join(t.TempDir(), "missing.ep")); !errors.As(err, &fe) {
		t.Errorf("missing file error = %T", err)
	}
}

func TestNewScopeOptions(t *testing.T) {
	if _, err := NewScope(Options{Disable: []string{"nope"}}); err == nil {
		t.Error("unknown stdlib group should be rejected")
	}

	scope, err := NewScope(Options{Disable: []string{"db"}, In: strings.NewReader("typed\n"), Out: NullLogger()})
	if err != nil {
		t.Fatal(err)
	}
	if scope.HasFunction("db_open") {
		t.Error("db group should be disabled")
	}
	v, err := RunLine(`input()`, scope)
	if err != nil || evaluator.Echo(v) != `"typed"` {
		t.Errorf("input() = %v, %v", v, err)
	}
}

func TestDiagnosticForPlainErrors(t *testing.T) {
	got := Diagnostic("x.ep", errors.New("boom"))
	if got != "x.ep: Native function exception: boom" {
		t.Errorf("Diagnostic = %q", got)
	}
}
