package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noEnv(string) string { return "" }

type result struct {
	code   int
	stdout string
	stderr string
}

// runEp runs the command with no config file in reach.
func runEp(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr, noEnv)
	return result{code, stdout.String(), stderr.String()}
}

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunVersion(t *testing.T) {
	for _, flag := range []string{"-V", "--version"} {
		r := runEp(t, "", flag)
		if r.code != 0 || !strings.Contains(r.stdout, "ep version "+Version) {
			t.Errorf("%s: code=%d stdout=%q", flag, r.code, r.stdout)
		}
	}
}

func TestRunHelp(t *testing.T) {
	for _, flag := range []string{"-h", "--help"} {
		r := runEp(t, "", flag)
		if r.code != 0 {
			t.Errorf("%s: code=%d", flag, r.code)
		}
		for _, want := range []string{"ep - easy_prog interpreter", "--check", "--watch", "--config", "EASYPROG_CONFIG"} {
			if !strings.Contains(r.stdout, want) {
				t.Errorf("%s: help missing %q", flag, want)
			}
		}
	}
}

func TestRunInvalidFlag(t *testing.T) {
	r := runEp(t, "", "--invalid-flag")
	if r.code != 2 {
		t.Errorf("code = %d, want 2", r.code)
	}
}

func TestRunMissingConfig(t *testing.T) {
	r := runEp(t, "", "--config", "/nonexistent/easyprog.yaml", "-e", "print(1)")
	if r.code != 2 {
		t.Errorf("code = %d, want 2", r.code)
	}
	if !strings.Contains(r.stderr, "config file not found") {
		t.Errorf("stderr = %q", r.stderr)
	}
}

func TestEvaluateInline(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		status int
		stdout string
		stderr string
	}{
		{"print", `print(add(1, 2))`, 0, "3", ""},
		{"several calls", `print("a"), print(lf()), print("b")`, 0, "a\nb", ""},
		{"runtime error", `print(nope)`, 1, "", "<eval>: Runtime error on line 1 column 7: variable 'nope' is not defined"},
		{"syntax error", `print(1 2)`, 1, "", "<eval>: Error on line 1 column 7: "},
		{"exit code", `print("x"), exit(4), print("y")`, 4, "x", ""},
		{"exit zero", `exit()`, 0, "", ""},
		{"printerr", `printerr("oops")`, 0, "", "oops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runEp(t, "", "-e", tt.code)
			if r.code != tt.status {
				t.Errorf("code = %d, want %d (stderr %q)", r.code, tt.status, r.stderr)
			}
			if r.stdout != tt.stdout {
				t.Errorf("stdout = %q, want %q", r.stdout, tt.stdout)
			}
			if !strings.HasPrefix(r.stderr, tt.stderr) {
				t.Errorf("stderr = %q, want prefix %q", r.stderr, tt.stderr)
			}
		})
	}
}

func TestEvaluateInlineReadsStdin(t *testing.T) {
	r := runEp(t, "world\n", "--eval", `print(concat("hello ", input()))`)
	if r.code != 0 || r.stdout != "hello world" {
		t.Errorf("code=%d stdout=%q stderr=%q", r.code, r.stdout, r.stderr)
	}
}

func TestRunFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeScript(t, dir, "a.ep", `set("x", 1), print(x)`)
	b := writeScript(t, dir, "b.ep", `print(x)`)
	c := writeScript(t, dir, "c.ep", `print("c")`)

	r := runEp(t, "", a, b, c)
	if r.code != 1 {
		t.Errorf("code = %d, want 1", r.code)
	}
	// Each file gets a fresh scope, so b cannot see a's variable
	if r.stdout != "1c" {
		t.Errorf("stdout = %q", r.stdout)
	}
	if want := b + ": Runtime error on line 1 column 7: variable 'x' is not defined"; !strings.HasPrefix(r.stderr, want) {
		t.Errorf("stderr = %q, want prefix %q", r.stderr, want)
	}
}

func TestRunFilesAllSucceed(t *testing.T) {
	dir := t.TempDir()
	a := writeScript(t, dir, "a.ep", `print("a")`)
	b := writeScript(t, dir, "b.ep", `print("b")`)

	r := runEp(t, "", a, b)
	if r.code != 0 || r.stdout != "ab" || r.stderr != "" {
		t.Errorf("code=%d stdout=%q stderr=%q", r.code, r.stdout, r.stderr)
	}
}

func TestRunFilesMissing(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.ep")
	ok := writeScript(t, dir, "ok.ep", `print("ok")`)

	r := runEp(t, "", missing, ok)
	if r.code != 1 {
		t.Errorf("code = %d", r.code)
	}
	if !strings.HasPrefix(r.stderr, missing+": File error: ") {
		t.Errorf("stderr = %q", r.stderr)
	}
	if r.stdout != "ok" {
		t.Errorf("stdout = %q", r.stdout)
	}
}

func TestRunFilesExitStopsRemaining(t *testing.T) {
	dir := t.TempDir()
	a := writeScript(t, dir, "a.ep", `print("a"), exit(3)`)
	b := writeScript(t, dir, "b.ep", `print("b")`)

	r := runEp(t, "", a, b)
	if r.code != 3 || r.stdout != "a" {
		t.Errorf("code=%d stdout=%q", r.code, r.stdout)
	}
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeScript(t, dir, "good.ep", `print(not_defined_until_run())`)
	bad := writeScript(t, dir, "bad.ep", "print(1),\n\tprint(1 2)")

	r := runEp(t, "", "--check", good)
	if r.code != 0 || r.stderr != "" {
		t.Errorf("good: code=%d stderr=%q", r.code, r.stderr)
	}

	r = runEp(t, "", "--check", good, bad)
	if r.code != 1 {
		t.Errorf("bad: code = %d", r.code)
	}
	want := bad + ": Error on line 2 column 8: "
	if !strings.HasPrefix(r.stderr, want) {
		t.Errorf("stderr = %q, want prefix %q", r.stderr, want)
	}
	if !strings.Contains(r.stderr, "    print(1 2)\n          ^\n") {
		t.Errorf("stderr should point at the error:\n%s", r.stderr)
	}
	if r.stdout != "" {
		t.Errorf("--check must not run anything, stdout = %q", r.stdout)
	}

	r = runEp(t, "", "--check")
	if r.code != 2 {
		t.Errorf("no files: code = %d", r.code)
	}

	r = runEp(t, "", "--check", filepath.Join(dir, "missing.ep"))
	if r.code != 2 {
		t.Errorf("missing file: code = %d", r.code)
	}
}

func TestConfigDisablesGroups(t *testing.T) {
	dir := t.TempDir()
	cfg := writeScript(t, dir, "easyprog.yaml", "stdlib:\n  disable: [crypto]\n")

	r := runEp(t, "", "--config", cfg, "-e", `hash_password("pw")`)
	if r.code != 1 || !strings.Contains(r.stderr, "function 'hash_password' is not defined") {
		t.Errorf("code=%d stderr=%q", r.code, r.stderr)
	}

	r = runEp(t, "", "--disable", "string", "-e", `print(upper("x"))`)
	if r.code != 1 || !strings.Contains(r.stderr, "function 'upper' is not defined") {
		t.Errorf("--disable: code=%d stderr=%q", r.code, r.stderr)
	}

	r = runEp(t, "", "--disable", "network", "-e", `print(1)`)
	if r.code != 2 || !strings.Contains(r.stderr, `unknown group "network"`) {
		t.Errorf("unknown group: code=%d stderr=%q", r.code, r.stderr)
	}
}

func TestWatchRunsOnceBeforeCancel(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	script := writeScript(t, dir, "w.ep", `print("watched"), exit(1)`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"--watch", script}, strings.NewReader(""), &stdout, &stderr, noEnv)
	if code != 0 {
		t.Errorf("code = %d (stderr %q)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "[WATCH] watching ") || !strings.Contains(stdout.String(), "watched") {
		t.Errorf("stdout = %q", stdout.String())
	}

	r := runEp(t, "", "--watch")
	if r.code != 2 {
		t.Errorf("--watch without files: code = %d", r.code)
	}
}

func TestPrintSourceContext(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		line   int
		column int
		want   string
	}{
		{"first column", []string{"prnt(1)"}, 1, 1, "    prnt(1)\n    ^\n"},
		{"indented with spaces", []string{"  print(1 2)"}, 1, 9, "    print(1 2)\n          ^\n"},
		{"out of range", []string{"print(1)"}, 3, 1, ""},
		{"no column", []string{"print(1)"}, 1, 0, "    print(1)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printSourceContext(&buf, tt.lines, tt.line, tt.column)
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
