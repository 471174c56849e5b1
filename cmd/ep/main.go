package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/easyprog/easyprog/pkg/easyprog/config"
	"github.com/easyprog/easyprog/pkg/easyprog/easyprog"
	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
	"github.com/easyprog/easyprog/pkg/easyprog/repl"
	"github.com/easyprog/easyprog/pkg/easyprog/watch"
)

// Version is set at build time via -ldflags
var Version = "0.1.0-dev"

func main() {
	ctx := context.Background()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv))
}

// run is the main entry point, designed for testability. It returns the
// process exit status: 0 on success, 1 when a script failed, 2 for usage,
// configuration and file errors, or the code a script passed to exit.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	flags := flag.NewFlagSet("ep", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { printUsage(stderr) }

	var (
		helpFlag     = flags.Bool("h", false, "Show help message")
		helpLong     = flags.Bool("help", false, "Show help message")
		versionFlag  = flags.Bool("V", false, "Show version information")
		versionLong  = flags.Bool("version", false, "Show version information")
		evalFlag     = flags.String("e", "", "Evaluate code string")
		evalLong     = flags.String("eval", "", "Evaluate code string")
		checkFlag    = flags.Bool("check", false, "Check syntax without executing")
		watchFlag    = flags.Bool("watch", false, "Re-run files when they change")
		configPath   = flags.String("config", "", "Path to config file")
		disableGroup = flags.String("disable", "", "Comma-separated stdlib groups to leave out")
	)

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *helpFlag || *helpLong {
		printUsage(stdout)
		return 0
	}
	if *versionFlag || *versionLong {
		fmt.Fprintf(stdout, "ep version %s\n", Version)
		return 0
	}

	cfg, err := config.Load(*configPath, getenv)
	if err != nil {
		fmt.Fprintf(stderr, "error: loading config: %v\n", err)
		return 2
	}

	// Apply CLI overrides
	if *disableGroup != "" {
		for _, g := range strings.Split(*disableGroup, ",") {
			if g = strings.TrimSpace(g); g != "" {
				cfg.Stdlib.Disable = append(cfg.Stdlib.Disable, g)
			}
		}
		if err := config.Validate(cfg); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 2
		}
	}

	h := &host{cfg: cfg, stdin: stdin, stdout: easyprog.NewFlushingLogger(stdout), stderr: stderr}
	defer h.stdout.Flush()

	code := *evalFlag
	if code == "" {
		code = *evalLong
	}
	files := flags.Args()

	// Mode dispatch
	switch {
	case code != "":
		return h.runCode(code)

	case *checkFlag:
		if len(files) == 0 {
			fmt.Fprintln(stderr, "Error: --check requires at least one file")
			return 2
		}
		return checkFiles(files, stderr)

	case *watchFlag:
		if len(files) == 0 {
			fmt.Fprintln(stderr, "Error: --watch requires at least one file")
			return 2
		}
		ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return h.watchFiles(ctx, files, stdout)

	case len(files) > 0:
		return h.runFiles(files)

	default:
		return repl.Start(stdout, Version, repl.Options{
			Prompt:             cfg.REPL.Prompt,
			ContinuationPrompt: cfg.REPL.ContinuationPrompt,
			HistoryFile:        cfg.REPL.HistoryFile,
			Color:              cfg.REPL.Color && isTerminal(stdout),
			NewScope: func() (*evaluator.Scope, error) {
				// The prompt writes straight through so print output shows up
				// before the next prompt.
				return h.newScope(easyprog.WriterLogger(stdout))
			},
		})
	}
}

// host carries what every script run shares.
type host struct {
	cfg    *config.Config
	stdin  io.Reader
	stdout *easyprog.FlushingLogger
	stderr io.Writer

	exited   bool
	exitCode int
}

func (h *host) newScope(out easyprog.Logger) (*evaluator.Scope, error) {
	scope, err := easyprog.NewScope(easyprog.Options{
		Out:      out,
		Err:      easyprog.WriterLogger(h.stderr),
		In:       h.stdin,
		Disable:  h.cfg.Stdlib.Disable,
		MaxDepth: h.cfg.Stdlib.MaxDepth,
	})
	if err != nil {
		return nil, err
	}
	scope.SetExitFunc(func(code int) {
		h.exited = true
		h.exitCode = code
	})
	return scope, nil
}

// runFiles runs each file in its own fresh scope and keeps going after a
// failure. A script's exit call stops the remaining files.
func (h *host) runFiles(files []string) int {
	status := 0
	for _, path := range files {
		if !h.runFile(path) {
			status = 1
		}
		if h.exited {
			return h.exitCode
		}
	}
	return status
}

func (h *host) runFile(path string) bool {
	defer h.stdout.Flush()
	scope, err := h.newScope(h.stdout)
	if err != nil {
		fmt.Fprintf(h.stderr, "error: %v\n", err)
		return false
	}
	return easyprog.RunFile(path, scope, h.stderr)
}

func (h *host) runCode(code string) int {
	defer h.stdout.Flush()
	scope, err := h.newScope(h.stdout)
	if err != nil {
		fmt.Fprintf(h.stderr, "error: %v\n", err)
		return 2
	}
	ok := easyprog.RunCode(code, scope, h.stderr)
	if h.exited {
		return h.exitCode
	}
	if !ok {
		return 1
	}
	return 0
}

// watchFiles runs files now and again whenever one changes, until ctx is
// cancelled. exit calls end a single run, not the watch.
func (h *host) watchFiles(ctx context.Context, files []string, stdout io.Writer) int {
	w, err := watch.New(files, h.cfg.Watch.Debounce, func(path string) {
		h.runFile(path)
		h.exited = false
	}, stdout, h.stderr)
	if err != nil {
		fmt.Fprintf(h.stderr, "error: %v\n", err)
		return 2
	}
	if err := w.Run(ctx); err != nil {
		fmt.Fprintf(h.stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// checkFiles checks the syntax of one or more files without executing them
func checkFiles(files []string, stderr io.Writer) int {
	hasErrors := false

	for _, filename := range files {
		content, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading %s: %v\n", filename, err)
			return 2 // File error
		}

		if err := easyprog.Check(string(content)); err != nil {
			fmt.Fprintln(stderr, easyprog.Diagnostic(filename, err))
			se := easyprog.ToScriptError(err)
			printSourceContext(stderr, strings.Split(string(content), "\n"), se.Line, se.Column)
			hasErrors = true
		}
	}

	if hasErrors {
		return 1 // Syntax errors
	}
	return 0
}

// printSourceContext prints the source line and error pointer
func printSourceContext(w io.Writer, lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}

	sourceLine := []rune(lines[lineNum-1])

	// Leading whitespace is trimmed; tabs count as 8 columns
	trimCount, indent := 0, 0
	for _, r := range sourceLine {
		if r == '\t' {
			trimCount += 8
		} else if r == ' ' {
			trimCount++
		} else {
			break
		}
		indent++
	}
	fmt.Fprintf(w, "    %s\n", string(sourceLine[indent:]))

	if colNum > 0 {
		visualCol := 0
		for i := 0; i < colNum-1 && i < len(sourceLine); i++ {
			if sourceLine[i] == '\t' {
				visualCol += 8
			} else {
				visualCol++
			}
		}
		fmt.Fprintf(w, "    %s^\n", strings.Repeat(" ", max(visualCol-trimCount, 0)))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `ep - easy_prog interpreter version %s

Usage:
  ep [options]                 Start the interactive prompt
  ep [options] <file>...       Run each file in a fresh scope
  ep -e "code"                 Run inline code
  ep --check <file>...         Check syntax without executing
  ep --watch <file>...         Run files again whenever they change

Options:
  -h, --help            Show this help message
  -V, --version         Show version information
  -e, --eval <code>     Evaluate code string
  --check               Check syntax without executing
  --watch               Re-run files when they change
  --config PATH         Path to config file (default: auto-detect)
  --disable GROUPS      Comma-separated stdlib groups to leave out
                        (io, file, string, core, debug, time, db, crypto)

Config Resolution:
  1. --config flag
  2. EASYPROG_CONFIG environment variable
  3. ./easyprog.yaml
  4. ~/.config/easyprog/easyprog.yaml

Exit Status:
  0 success, 1 a script failed, 2 usage or file error,
  or the code passed to exit()

Examples:
  ep                           Start the REPL
  ep hello.ep                  Run a script
  ep -e 'print(add(1, 2))'     Prints 3
  ep --check *.ep              Check several files
  ep --disable db,crypto a.ep  Run without database and crypto functions
`, Version)
}
