package easyprog

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
)

// Logger is an alias for evaluator.Logger for convenience
type Logger = evaluator.Logger

// StdoutLogger returns the logger print uses by default.
func StdoutLogger() Logger {
	return evaluator.DefaultLogger
}

// StderrLogger returns the logger printerr uses by default.
func StderrLogger() Logger {
	return evaluator.DefaultErrLogger
}

// writerLogger writes to an io.Writer
type writerLogger struct {
	w io.Writer
}

func (l *writerLogger) Log(values ...any) {
	fmt.Fprint(l.w, formatLogValues(values...))
}

func (l *writerLogger) LogLine(values ...any) {
	fmt.Fprintln(l.w, formatLogValues(values...))
}

// WriterLogger returns a logger that writes to an io.Writer
func WriterLogger(w io.Writer) Logger {
	return &writerLogger{w: w}
}

// FlushingLogger buffers writes to w until Flush, which flush_stdout calls.
type FlushingLogger struct {
	mu sync.Mutex
	bw *bufio.Writer
}

// NewFlushingLogger wraps w in a buffer.
func NewFlushingLogger(w io.Writer) *FlushingLogger {
	return &FlushingLogger{bw: bufio.NewWriter(w)}
}

func (l *FlushingLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bw.WriteString(formatLogValues(values...))
}

func (l *FlushingLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bw.WriteString(formatLogValues(values...))
	l.bw.WriteByte('\n')
}

// Flush writes out anything buffered.
func (l *FlushingLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bw.Flush()
}

// BufferedLogger captures log output for later retrieval
type BufferedLogger struct {
	mu    sync.Mutex
	lines []string
	buf   strings.Builder
}

// NewBufferedLogger creates a new buffered logger
func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{
		lines: make([]string, 0),
	}
}

// Log appends to the current line. Embedded newlines end lines.
func (l *BufferedLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.write(formatLogValues(values...))
}

func (l *BufferedLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.write(formatLogValues(values...) + "\n")
}

func (l *BufferedLogger) write(s string) {
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			l.buf.WriteString(s)
			return
		}
		l.buf.WriteString(s[:i])
		l.lines = append(l.lines, l.buf.String())
		l.buf.Reset()
		s = s[i+1:]
	}
}

// String returns all captured output as a single string
func (l *BufferedLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := strings.Join(l.lines, "\n")
	if len(l.lines) > 0 {
		result += "\n"
	}
	return result + l.buf.String()
}

// Lines returns the completed lines; a trailing partial line is left out.
func (l *BufferedLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]string, len(l.lines))
	copy(result, l.lines)
	return result
}

// Reset clears all captured output
func (l *BufferedLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = l.lines[:0]
	l.buf.Reset()
}

// nullLogger discards all output
type nullLogger struct{}

func (l *nullLogger) Log(values ...any)     {}
func (l *nullLogger) LogLine(values ...any) {}

// NullLogger returns a logger that discards all output
func NullLogger() Logger {
	return &nullLogger{}
}

// formatLogValues concatenates values with no separator, matching print.
func formatLogValues(values ...any) string {
	var sb strings.Builder
	for _, v := range values {
		fmt.Fprint(&sb, v)
	}
	return sb.String()
}
