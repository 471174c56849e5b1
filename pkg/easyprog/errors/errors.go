// Package errors provides the structured error type shared by every layer
// of the easy_prog engine.
//
// Each layer (lexer, parser, evaluator, native library) keeps its own error
// type, but all of them are built from the catalog below and can be turned
// into a ScriptError for uniform display and JSON output.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassLexer     ErrorClass = "lexer"     // Character stream errors
	ClassParse     ErrorClass = "parse"     // Grammar errors
	ClassUndefined ErrorClass = "undefined" // Unknown function or variable
	ClassRuntime   ErrorClass = "runtime"   // Evaluator limits
	ClassType      ErrorClass = "type"      // Argument kind mismatches
	ClassArity     ErrorClass = "arity"     // Wrong argument count
	ClassValue     ErrorClass = "value"     // Bad argument value
	ClassIO        ErrorClass = "io"        // File and console operations
	ClassDatabase  ErrorClass = "database"  // DB operations
	ClassState     ErrorClass = "state"     // Invalid state
)

// ScriptError represents any error produced while lexing, parsing or running
// a program.
type ScriptError struct {
	Class   ErrorClass     `json:"class"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hints   []string       `json:"hints,omitempty"`
	Line    int            `json:"line"`
	Column  int            `json:"column"`
	File    string         `json:"file,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return e.String()
}

// String returns a single-line representation followed by any hints.
func (e *ScriptError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, "line %d, column %d: ", e.Line, e.Column)
	}
	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// Kind returns the diagnostic heading used by the CLI and the REPL.
func (e *ScriptError) Kind() string {
	switch e.Class {
	case ClassLexer, ClassParse:
		return "Error"
	case ClassUndefined, ClassRuntime:
		return "Runtime error"
	default:
		return "Native function exception"
	}
}

// Diagnostic formats the error the way file-running mode reports it:
// "<file>: <kind> on line L column C: <message>".
func (e *ScriptError) Diagnostic() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind())
	if e.Line > 0 {
		fmt.Fprintf(&sb, " on line %d column %d", e.Line, e.Column)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}
	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *ScriptError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithFile returns a copy of the error with the file path set.
func (e *ScriptError) WithFile(file string) *ScriptError {
	copy := *e
	copy.File = file
	return &copy
}

// WithPosition returns a copy of the error with line and column set.
func (e *ScriptError) WithPosition(line, column int) *ScriptError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsSyntaxError reports whether the error happened before evaluation.
func (e *ScriptError) IsSyntaxError() bool {
	return e.Class == ClassLexer || e.Class == ClassParse
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Lexer errors (LEX-0xxx)
	// ========================================
	"LEX-0001": {
		Class:    ClassLexer,
		Template: "unterminated string literal",
	},
	"LEX-0002": {
		Class:    ClassLexer,
		Template: "unexpected closing bracket {{.Bracket}}",
	},
	"LEX-0003": {
		Class:    ClassLexer,
		Template: "mismatched closing bracket {{.Bracket}}, {{.Opener}} opened on line {{.OpenLine}} column {{.OpenColumn}}",
	},
	"LEX-0004": {
		Class:    ClassLexer,
		Template: "unterminated {{.Opener}} opened on line {{.OpenLine}} column {{.OpenColumn}}",
	},
	"LEX-0005": {
		Class:    ClassLexer,
		Template: "unexpected type after {{.After}}",
	},
	"LEX-0006": {
		Class:    ClassLexer,
		Template: "first element should be identifier",
	},
	"LEX-0007": {
		Class:    ClassLexer,
		Template: "unexpected character '{{.Char}}'",
	},
	"LEX-0008": {
		Class:    ClassLexer,
		Template: "unexpected end of input after {{.After}}",
	},
	"LEX-0009": {
		Class:    ClassLexer,
		Template: "statement must be a function call",
		Hints:    []string{"wrap the value in a call such as print(...)"},
	},

	// ========================================
	// Parser errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "no tokens to parse",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "unexpected end of input, expected {{.Expected}}",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "expected {{.Expected}}, got {{.Got}}",
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "invalid integer literal '{{.Literal}}'",
	},

	// ========================================
	// Undefined names (UNDEF-0xxx)
	// ========================================
	"UNDEF-0001": {
		Class:    ClassUndefined,
		Template: "function '{{.Name}}' is not defined",
	},
	"UNDEF-0002": {
		Class:    ClassUndefined,
		Template: "variable '{{.Name}}' is not defined",
	},

	"RUN-0001": {
		Class:    ClassRuntime,
		Template: "maximum call depth of {{.Depth}} exceeded",
	},
	"RUN-0002": {
		Class:    ClassRuntime,
		Template: "{{.Node}} cannot be run as a statement",
		Hints:    []string{"a function body may only contain calls"},
	},

	// ========================================
	// Arity errors (ARITY-0xxx)
	// ========================================
	"ARITY-0001": {
		Class:    ClassArity,
		Template: "{{.Function}} takes {{.Want}} arguments, {{.Got}} given",
	},
	"ARITY-0002": {
		Class:    ClassArity,
		Template: "{{.Function}} takes at least {{.Want}} arguments, {{.Got}} given",
	},
	"ARITY-0003": {
		Class:    ClassArity,
		Template: "{{.Function}} takes {{.Min}} to {{.Max}} arguments, {{.Got}} given",
	},

	// ========================================
	// Type errors (TYPE-0xxx)
	// ========================================
	"TYPE-0001": {
		Class:    ClassType,
		Template: "{{.Function}}: argument {{.Index}} must be {{.Expected}}, got {{.Got}}",
	},
	"TYPE-0002": {
		Class:    ClassType,
		Template: "{{.Function}}: argument {{.Index}} must be a {{.Expected}} handle, got {{.Got}}",
	},

	// ========================================
	// Value errors (VALUE-0xxx)
	// ========================================
	"VALUE-0001": {
		Class:    ClassValue,
		Template: "division by zero",
	},
	"VALUE-0002": {
		Class:    ClassValue,
		Template: "cannot parse '{{.Text}}' as integer",
	},
	"VALUE-0003": {
		Class:    ClassValue,
		Template: "unknown file mode '{{.Mode}}'",
		Hints:    []string{"use one of r, w, a, rz, wz"},
	},
	"VALUE-0004": {
		Class:    ClassValue,
		Template: "cannot parse time '{{.Text}}': {{.Error}}",
	},
	"VALUE-0005": {
		Class:    ClassValue,
		Template: "unknown locale '{{.Locale}}'",
	},
	"VALUE-0006": {
		Class:    ClassValue,
		Template: "cannot hash password: {{.Error}}",
	},
	"VALUE-0007": {
		Class:    ClassValue,
		Template: "cannot render markdown: {{.Error}}",
	},

	// ========================================
	// I/O errors (IO-0xxx)
	// ========================================
	"IO-0001": {
		Class:    ClassIO,
		Template: "cannot open '{{.Path}}': {{.Error}}",
	},
	"IO-0002": {
		Class:    ClassIO,
		Template: "read failed: {{.Error}}",
	},
	"IO-0003": {
		Class:    ClassIO,
		Template: "write failed: {{.Error}}",
	},
	"IO-0004": {
		Class:    ClassIO,
		Template: "file is not open for {{.Op}}",
	},
	"IO-0005": {
		Class:    ClassIO,
		Template: "cannot read PDF '{{.Path}}': {{.Error}}",
	},

	// ========================================
	// Database errors (DB-0xxx)
	// ========================================
	"DB-0001": {
		Class:    ClassDatabase,
		Template: "unsupported database driver '{{.Driver}}'",
		Hints:    []string{"supported drivers: {{.Supported}}"},
	},
	"DB-0002": {
		Class:    ClassDatabase,
		Template: "cannot open database: {{.Error}}",
	},
	"DB-0003": {
		Class:    ClassDatabase,
		Template: "query failed: {{.Error}}",
	},
	"DB-0004": {
		Class:    ClassDatabase,
		Template: "database connection is closed",
	},
	"DB-0005": {
		Class:    ClassDatabase,
		Template: "query returned no rows",
	},

	// ========================================
	// State errors (STATE-0xxx)
	// ========================================
	"STATE-0001": {
		Class:    ClassState,
		Template: "{{.Function}}: {{.Error}}",
	},
}

// New creates a ScriptError from the catalog.
// If the code is not found, creates a generic error with the message.
func New(code string, data map[string]any) *ScriptError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &ScriptError{
			Class:   ClassState,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &ScriptError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates a ScriptError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *ScriptError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// NewSimple creates an error without using the catalog.
func NewSimple(class ErrorClass, message string) *ScriptError {
	return &ScriptError{
		Class:   class,
		Message: message,
	}
}

func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// ============================================================================
// Fuzzy Matching - "Did you mean?" suggestions
// ============================================================================

func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// matchThreshold allows more edits for longer names.
func matchThreshold(input string) int {
	switch {
	case len(input) >= 7:
		return 3
	case len(input) >= 4:
		return 2
	default:
		return 1
	}
}

// FindClosestMatch returns the candidate nearest to input, or "" when nothing
// is close enough. Exact matches are never suggested.
func FindClosestMatch(input string, candidates []string) string {
	matches := FindTopMatches(input, candidates, 1)
	if len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// FindTopMatches returns up to n candidates within the edit threshold,
// closest first. Ties keep candidate order.
func FindTopMatches(input string, candidates []string, n int) []string {
	if len(input) == 0 || len(candidates) == 0 || n <= 0 {
		return nil
	}

	type fuzzyMatch struct {
		value    string
		distance int
	}

	inputLower := strings.ToLower(input)
	threshold := matchThreshold(input)

	var matches []fuzzyMatch
	for _, candidate := range candidates {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if dist > 0 && dist <= threshold {
			matches = append(matches, fuzzyMatch{value: candidate, distance: dist})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	var result []string
	for i := 0; i < len(matches) && i < n; i++ {
		result = append(result, matches[i].value)
	}
	return result
}

// NewUndefinedFunction creates an undefined function error with an optional
// "Did you mean?" hint drawn from the names currently in scope.
func NewUndefinedFunction(name string, line, column int, available []string) *ScriptError {
	err := NewWithPosition("UNDEF-0001", line, column, map[string]any{"Name": name})
	if suggestion := FindClosestMatch(name, available); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}
	return err
}

// NewUndefinedVariable is the variable-namespace counterpart of NewUndefinedFunction.
func NewUndefinedVariable(name string, line, column int, available []string) *ScriptError {
	err := NewWithPosition("UNDEF-0002", line, column, map[string]any{"Name": name})
	if suggestion := FindClosestMatch(name, available); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}
	return err
}
