// Package ast defines the syntax tree produced by the parser. Every program
// is a Sequence of calls; function literals are nested Sequences.
package ast

import (
	"strconv"
	"strings"

	"github.com/easyprog/easyprog/pkg/easyprog/lexer"
)

// Kind tags the closed set of node variants.
type Kind int

const (
	SequenceKind Kind = iota
	CallKind
	IntKind
	StrKind
	VariableKind
)

func (k Kind) String() string {
	switch k {
	case SequenceKind:
		return "Sequence"
	case CallKind:
		return "CallFunc"
	case IntKind:
		return "ConstInt"
	case StrKind:
		return "ConstStr"
	case VariableKind:
		return "Variable"
	}
	return "Unknown"
}

// Node represents any node in the AST. The interface is sealed: only the
// types in this package implement it, so a type switch over them is
// exhaustive.
type Node interface {
	Kind() Kind
	Line() int
	Column() int
	String() string
	node()
}

// Sequence is a program or the body of a function literal.
type Sequence struct {
	Token lexer.Token // first token of the program, or the '{' of a literal
	Body  []Node
	Block bool // true for a function literal
}

func (s *Sequence) node()       {}
func (s *Sequence) Kind() Kind  { return SequenceKind }
func (s *Sequence) Line() int   { return s.Token.Line }
func (s *Sequence) Column() int { return s.Token.Column }
func (s *Sequence) String() string {
	parts := make([]string, len(s.Body))
	for i, n := range s.Body {
		parts[i] = n.String()
	}
	if s.Block {
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return strings.Join(parts, ",\n")
}

// CallFunc invokes the function bound to Name with Args.
type CallFunc struct {
	Token lexer.Token // the identifier token
	Name  string
	Args  []Node
}

func (c *CallFunc) node()       {}
func (c *CallFunc) Kind() Kind  { return CallKind }
func (c *CallFunc) Line() int   { return c.Token.Line }
func (c *CallFunc) Column() int { return c.Token.Column }
func (c *CallFunc) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

// ConstInt is a 64-bit signed integer literal.
type ConstInt struct {
	Token lexer.Token
	Value int64
}

func (c *ConstInt) node()          {}
func (c *ConstInt) Kind() Kind     { return IntKind }
func (c *ConstInt) Line() int      { return c.Token.Line }
func (c *ConstInt) Column() int    { return c.Token.Column }
func (c *ConstInt) String() string { return strconv.FormatInt(c.Value, 10) }

// ConstStr is a string literal with escapes already resolved.
type ConstStr struct {
	Token lexer.Token
	Value string
}

func (c *ConstStr) node()          {}
func (c *ConstStr) Kind() Kind     { return StrKind }
func (c *ConstStr) Line() int      { return c.Token.Line }
func (c *ConstStr) Column() int    { return c.Token.Column }
func (c *ConstStr) String() string { return Quote(c.Value) }

// Variable reads a name from the variable namespace.
type Variable struct {
	Token lexer.Token
	Name  string
}

func (v *Variable) node()          {}
func (v *Variable) Kind() Kind     { return VariableKind }
func (v *Variable) Line() int      { return v.Token.Line }
func (v *Variable) Column() int    { return v.Token.Column }
func (v *Variable) String() string { return v.Name }

// Quote renders s as a string literal. Literal text is kept verbatim, so any
// value the lexer produced reads back unchanged.
func Quote(s string) string {
	return `"` + s + `"`
}

// Equal reports whether two trees have the same shape: same kinds, names,
// literal values and arguments. Source positions are ignored.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case *Sequence:
		return equalNodes(x.Body, b.(*Sequence).Body)
	case *CallFunc:
		y := b.(*CallFunc)
		return x.Name == y.Name && equalNodes(x.Args, y.Args)
	case *ConstInt:
		return x.Value == b.(*ConstInt).Value
	case *ConstStr:
		return x.Value == b.(*ConstStr).Value
	case *Variable:
		return x.Name == b.(*Variable).Name
	}
	return false
}

func equalNodes(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
