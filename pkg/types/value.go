// Package types defines the Flare expression model. An Expr is both the
// syntax tree produced by the parser and the runtime value produced by the
// evaluator: evaluation never changes representation, only which variant is
// final.
package types

import (
	"math"
	"strconv"
	"strings"
)

// ExprType identifies the variant of an expression.
type ExprType int

const (
	TypeSymbol ExprType = iota
	TypeNumber          // float64
	TypeString          // text
	TypeList            // call form
	TypePrint           // display <inner>
	TypeFunc            // built-in procedure
	TypeLet             // let <name> = <expr>
	TypeAssign          // = <name> <expr>
	TypeIf              // if <cond> <then> <else>
	TypeOp              // <op> <left> <right>
)

// String returns the variant name.
func (t ExprType) String() string {
	switch t {
	case TypeSymbol:
		return "symbol"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypePrint:
		return "print"
	case TypeFunc:
		return "func"
	case TypeLet:
		return "let"
	case TypeAssign:
		return "assign"
	case TypeIf:
		return "if"
	case TypeOp:
		return "op"
	default:
		return "unknown"
	}
}

// Expr is the closed set of Flare expressions. Only types in this package
// implement it.
type Expr interface {
	Type() ExprType
	String() string
	sealed()
}

// Value is an Expr that evaluation has reduced. Number, String and Func are
// the terminal variants.
type Value = Expr

// NativeFunc is the signature of a built-in procedure.
type NativeFunc func(args []Value) (Value, error)

// Symbol is an identifier resolved at evaluation time.
type Symbol struct {
	Name string
}

// Number is a 64-bit floating point literal.
type Number struct {
	Value float64
}

// String is a text literal.
type String struct {
	Text string
}

// List is a parenthesized call form: the head evaluates to a Func and the
// remaining items are its arguments.
type List struct {
	Items []Expr
}

// Print displays the value of Inner.
type Print struct {
	Inner Expr
}

// Func is a built-in procedure. It cannot be written in source; the name is
// kept so functions stay comparable and printable.
type Func struct {
	Name string
	Fn   NativeFunc
}

// Let declares or overwrites a binding.
type Let struct {
	Name  string
	Value Expr
}

// Assign updates a binding that must already exist.
type Assign struct {
	Name  string
	Value Expr
}

// If evaluates exactly one of Then or Else.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
}

// Op is a binary arithmetic form.
type Op struct {
	Operator string
	Left     Expr
	Right    Expr
}

func (Symbol) Type() ExprType { return TypeSymbol }
func (Number) Type() ExprType { return TypeNumber }
func (String) Type() ExprType { return TypeString }
func (List) Type() ExprType   { return TypeList }
func (Print) Type() ExprType  { return TypePrint }
func (Func) Type() ExprType   { return TypeFunc }
func (Let) Type() ExprType    { return TypeLet }
func (Assign) Type() ExprType { return TypeAssign }
func (If) Type() ExprType     { return TypeIf }
func (Op) Type() ExprType     { return TypeOp }

func (Symbol) sealed() {}
func (Number) sealed() {}
func (String) sealed() {}
func (List) sealed()   {}
func (Print) sealed()  {}
func (Func) sealed()   {}
func (Let) sealed()    {}
func (Assign) sealed() {}
func (If) sealed()     {}
func (Op) sealed()     {}

// Zero is the placeholder result of display and let.
var Zero Value = Number{Value: 0}

// NewNumber returns a Number value.
func NewNumber(f float64) Value { return Number{Value: f} }

// NewString returns a String value.
func NewString(s string) Value { return String{Text: s} }

// NewSymbol returns a Symbol expression.
func NewSymbol(name string) Expr { return Symbol{Name: name} }

// NewList returns a List expression over items.
func NewList(items ...Expr) Expr { return List{Items: items} }

// NewFunc returns a named built-in procedure.
func NewFunc(name string, fn NativeFunc) Value { return Func{Name: name, Fn: fn} }

func (s Symbol) String() string { return s.Name }

func (n Number) String() string { return FormatNumber(n.Value) }

func (s String) String() string { return s.Text }

func (l List) String() string {
	parts := make([]string, len(l.Items))
	for i, item := range l.Items {
		parts[i] = render(item)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func (p Print) String() string { return "display " + render(p.Inner) }

func (Func) String() string { return "Function {}" }

func (l Let) String() string { return "let " + l.Name + " = " + render(l.Value) }

func (a Assign) String() string { return a.Name + " = " + render(a.Value) }

func (i If) String() string {
	return "if " + render(i.Cond) + " { " + render(i.Then) + " } else { " + render(i.Else) + " }"
}

func (o Op) String() string { return render(o.Left) + " " + o.Operator + " " + render(o.Right) }

// render tolerates nil children in hand-built trees.
func render(e Expr) string {
	if e == nil {
		return ""
	}
	return e.String()
}

// FormatNumber renders f as the shortest decimal text that reads back to
// the same value: 3 rather than 3.0, 0.5, -2.
func FormatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// AsNumber returns the float value of a Number.
func AsNumber(v Value) (float64, bool) {
	n, ok := v.(Number)
	if !ok {
		return 0, false
	}
	return n.Value, true
}

// Truthy reports whether v selects the then-branch of an if: only a
// non-zero Number does. Strings and every other variant are falsy.
func Truthy(v Value) bool {
	n, ok := v.(Number)
	return ok && n.Value != 0
}

// Equal compares two expressions structurally. Funcs compare by name.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() {
		return false
	}
	switch x := a.(type) {
	case Symbol:
		return x.Name == b.(Symbol).Name
	case Number:
		return x.Value == b.(Number).Value
	case String:
		return x.Text == b.(String).Text
	case List:
		y := b.(List)
		if len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !Equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	case Print:
		return Equal(x.Inner, b.(Print).Inner)
	case Func:
		return x.Name == b.(Func).Name
	case Let:
		y := b.(Let)
		return x.Name == y.Name && Equal(x.Value, y.Value)
	case Assign:
		y := b.(Assign)
		return x.Name == y.Name && Equal(x.Value, y.Value)
	case If:
		y := b.(If)
		return Equal(x.Cond, y.Cond) && Equal(x.Then, y.Then) && Equal(x.Else, y.Else)
	case Op:
		y := b.(Op)
		return x.Operator == y.Operator && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	default:
		return false
	}
}
