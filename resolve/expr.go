// Package resolve binds a parsed formula to a scope and the function table,
// producing a tree the emitter can lower without further checks.
package resolve

import (
	"github.com/rulego/formula/functions"
	"github.com/rulego/formula/ir"
	"github.com/rulego/formula/scope"
	"github.com/rulego/formula/syntax"
)

// Expr is a resolved expression. Like syntax.Node the variant set is closed.
type Expr interface {
	Pos() syntax.Span
	expr()
}

// Value is a literal: float64, string or bool.
type Value struct {
	Value any
	Type  syntax.LiteralType
	Span  syntax.Span
}

// Ref is a reference bound to a scope entry.
type Ref struct {
	Binding scope.Binding
	Span    syntax.Span
}

// Negate is arithmetic negation of a non-literal operand.
type Negate struct {
	Operand Expr
	Span    syntax.Span
}

// Not is logical negation.
type Not struct {
	Operand Expr
	Span    syntax.Span
}

// Operator is a binary infix operation. Op is the IR keyword:
// + - * / = != < <= > >= and or.
type Operator struct {
	Op    string
	Left  Expr
	Right Expr
	Span  syntax.Span
}

// Placement is where a function's option map is emitted.
type Placement int

const (
	// OptionsNone emits no map.
	OptionsNone Placement = iota
	// OptionsLeading emits the map right after the keyword.
	OptionsLeading
	// OptionsTrailing emits the map after the last argument.
	OptionsTrailing
)

// Apply is a call of a known function with its packed options.
type Apply struct {
	Function  *functions.Function
	Args      []Expr
	Options   ir.Options
	Placement Placement
	Span      syntax.Span
}

// Keyword returns the IR head of the call.
func (a *Apply) Keyword() string {
	return a.Function.Keyword
}

// Case is one (condition, result) arm.
type Case struct {
	When Expr
	Then Expr
}

// Conditional is a resolved CASE or IF. Default is nil when absent.
type Conditional struct {
	Keyword string
	Cases   []Case
	Default Expr
	Span    syntax.Span
}

// Group is a parenthesized expression; it stops operator flattening.
type Group struct {
	Inner Expr
	Span  syntax.Span
}

func (e *Value) Pos() syntax.Span       { return e.Span }
func (e *Ref) Pos() syntax.Span         { return e.Span }
func (e *Negate) Pos() syntax.Span      { return e.Span }
func (e *Not) Pos() syntax.Span         { return e.Span }
func (e *Operator) Pos() syntax.Span    { return e.Span }
func (e *Apply) Pos() syntax.Span       { return e.Span }
func (e *Conditional) Pos() syntax.Span { return e.Span }
func (e *Group) Pos() syntax.Span       { return e.Span }

func (*Value) expr()       {}
func (*Ref) expr()         {}
func (*Negate) expr()      {}
func (*Not) expr()         {}
func (*Operator) expr()    {}
func (*Apply) expr()       {}
func (*Conditional) expr() {}
func (*Group) expr()       {}

// Visitor handles every resolved variant. Lowering a resolved tree cannot
// fail, so methods return only a value.
type Visitor[T any] interface {
	VisitValue(*Value) T
	VisitRef(*Ref) T
	VisitNegate(*Negate) T
	VisitNot(*Not) T
	VisitOperator(*Operator) T
	VisitApply(*Apply) T
	VisitConditional(*Conditional) T
	VisitGroup(*Group) T
}

// Visit dispatches e to the matching Visitor method.
func Visit[T any](e Expr, v Visitor[T]) T {
	switch e := e.(type) {
	case *Value:
		return v.VisitValue(e)
	case *Ref:
		return v.VisitRef(e)
	case *Negate:
		return v.VisitNegate(e)
	case *Not:
		return v.VisitNot(e)
	case *Operator:
		return v.VisitOperator(e)
	case *Apply:
		return v.VisitApply(e)
	case *Conditional:
		return v.VisitConditional(e)
	case *Group:
		return v.VisitGroup(e)
	}
	panic("resolve: unknown expression type")
}

// Unwrap strips enclosing groups.
func Unwrap(e Expr) Expr {
	for {
		g, ok := e.(*Group)
		if !ok {
			return e
		}
		e = g.Inner
	}
}
