package evaluator

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/easyprog/easyprog/pkg/easyprog/ast"
)

// ValueKind tags the closed set of runtime value kinds.
type ValueKind int

const (
	VoidKind ValueKind = iota
	IntKind
	StrKind
	FuncKind
	CustomKind
)

func (k ValueKind) String() string {
	switch k {
	case VoidKind:
		return "void"
	case IntKind:
		return "int"
	case StrKind:
		return "str"
	case FuncKind:
		return "func"
	case CustomKind:
		return "custom"
	}
	return "unknown"
}

// Value is a runtime value. The interface is sealed; Void, Int, Str,
// *Function and *Custom are the only implementations. Values are immutable
// and shared freely.
type Value interface {
	Kind() ValueKind
	// Inspect renders the value the way the interactive prompt echoes it.
	Inspect() string
	// Equal compares kind-aware; values of different kinds are never equal.
	Equal(other Value) bool
	value()
}

// Void is the result of calls that produce nothing.
type Void struct{}

func (Void) value()                 {}
func (Void) Kind() ValueKind        { return VoidKind }
func (Void) Inspect() string        { return "" }
func (Void) Equal(other Value) bool { _, ok := other.(Void); return ok }

// Int is a 64-bit signed integer.
type Int struct{ Value int64 }

func (Int) value()          {}
func (Int) Kind() ValueKind { return IntKind }
func (i Int) Inspect() string {
	return strconv.FormatInt(i.Value, 10)
}
func (i Int) Equal(other Value) bool {
	o, ok := other.(Int)
	return ok && o.Value == i.Value
}

// Str is a UTF-8 string.
type Str struct{ Value string }

func (Str) value()            {}
func (Str) Kind() ValueKind   { return StrKind }
func (s Str) Inspect() string { return ast.Quote(s.Value) }
func (s Str) Equal(other Value) bool {
	o, ok := other.(Str)
	return ok && o.Value == s.Value
}

// NativeFunc is the contract a host function satisfies. line and column
// locate the call site. Failures should be reported as *NativeException;
// any other error is wrapped into one at the call site.
type NativeFunc func(line, column int, scope *Scope, args []Value) (Value, error)

// Function is either a native host function or a user body. Exactly one of
// the two is set; the constructors enforce it.
type Function struct {
	native NativeFunc
	body   *ast.Sequence
}

// NewNativeFunction wraps a host function.
func NewNativeFunction(fn NativeFunc) *Function {
	if fn == nil {
		panic("evaluator: NewNativeFunction called with nil function")
	}
	return &Function{native: fn}
}

// NewUserFunction wraps a function literal body.
func NewUserFunction(body *ast.Sequence) *Function {
	if body == nil {
		panic("evaluator: NewUserFunction called with nil body")
	}
	return &Function{body: body}
}

func (*Function) value()          {}
func (*Function) Kind() ValueKind { return FuncKind }

// IsNative reports whether the function is implemented by the host.
func (f *Function) IsNative() bool { return f.native != nil }

// Body returns the user body, or nil for native functions.
func (f *Function) Body() *ast.Sequence { return f.body }

func (f *Function) Inspect() string {
	if f.native != nil {
		return fmt.Sprintf("<NativeFunction(0x%x)>", reflect.ValueOf(f.native).Pointer())
	}
	return "<Function>"
}

// Equal holds for the same function, or for two user functions built from
// the same literal.
func (f *Function) Equal(other Value) bool {
	o, ok := other.(*Function)
	if !ok {
		return false
	}
	if f == o {
		return true
	}
	return f.body != nil && f.body == o.body
}

// HostValue is the payload of a Custom value. Each host kind decides its
// own equality.
type HostValue interface {
	TypeName() string
	Equal(other HostValue) bool
}

// Custom is an opaque host value such as an open file or database handle.
// ID identifies the host kind.
type Custom struct {
	ID   uint64
	Data HostValue
}

func (*Custom) value()            {}
func (*Custom) Kind() ValueKind   { return CustomKind }
func (c *Custom) Inspect() string { return fmt.Sprintf("<Custom id=%d>", c.ID) }
func (c *Custom) Equal(other Value) bool {
	o, ok := other.(*Custom)
	if !ok || o.ID != c.ID {
		return false
	}
	if c.Data == nil || o.Data == nil {
		return c.Data == nil && o.Data == nil
	}
	return c.Data.Equal(o.Data)
}

// TypeName names the value's kind for diagnostics; custom values report
// their host type.
func TypeName(v Value) string {
	if c, ok := v.(*Custom); ok && c.Data != nil {
		return c.Data.TypeName()
	}
	return v.Kind().String()
}

// PrintString renders a value the way print writes it: strings raw, void as
// "<null>", everything else as Inspect.
func PrintString(v Value) string {
	switch x := v.(type) {
	case Str:
		return x.Value
	case Void:
		return "<null>"
	default:
		return v.Inspect()
	}
}

// Echo renders the result of an interactive statement.
func Echo(v Value) string {
	if v == nil {
		return ""
	}
	return v.Inspect()
}

// Truthy treats every non-zero Int as true.
func Truthy(v Value) bool {
	i, ok := v.(Int)
	return ok && i.Value != 0
}

// Bool converts a Go bool to the language's 1/0 convention.
func Bool(b bool) Int {
	if b {
		return Int{Value: 1}
	}
	return Int{Value: 0}
}
