/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package resolve

import (
	"fmt"

	"github.com/rulego/formula/functions"
	"github.com/rulego/formula/scope"
	"github.com/rulego/formula/syntax"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithRegistry resolves calls against r instead of the built-in table.
func WithRegistry(r *functions.Registry) Option {
	return func(res *Resolver) {
		if r != nil {
			res.registry = r
		}
	}
}

// WithSuggestions caps the "did you mean" hints; 0 disables them.
func WithSuggestions(max int) Option {
	return func(res *Resolver) {
		res.suggestions = max
	}
}

// Resolver binds one syntax tree at a time. It keeps per-call state and must
// not be shared between goroutines; create one per compilation.
type Resolver struct {
	scope       scope.Scope
	rule        syntax.StartRule
	registry    *functions.Registry
	suggestions int

	// aggregate is the enclosing aggregation call, if any.
	aggregate *functions.Function
}

// New returns a resolver for sc under rule. A nil scope resolves nothing.
func New(sc scope.Scope, rule syntax.StartRule, opts ...Option) *Resolver {
	if sc == nil {
		sc = scope.Empty
	}
	r := &Resolver{
		scope:       sc,
		rule:        rule,
		registry:    functions.Default(),
		suggestions: DefaultSuggestions,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve binds node with the built-in function table.
func Resolve(node syntax.Node, sc scope.Scope, rule syntax.StartRule) (Expr, error) {
	return New(sc, rule).Resolve(node)
}

// Resolve binds node, validates it against the start rule and returns the
// resolved tree. The first failure aborts with a *syntax.Error.
func (r *Resolver) Resolve(node syntax.Node) (Expr, error) {
	r.aggregate = nil
	e, err := syntax.Visit[Expr](node, r)
	if err != nil {
		return nil, err
	}
	if r.rule == syntax.RuleBoolean && !IsBoolean(e) {
		return nil, syntax.NewResolutionError(syntax.CodeInvalidContext,
			"Expecting a boolean expression for a filter", e.Pos(), "")
	}
	return e, nil
}

func (r *Resolver) VisitLiteral(n *syntax.Literal) (Expr, error) {
	return &Value{Value: n.Value, Type: n.Type, Span: n.Span}, nil
}

func (r *Resolver) VisitReference(n *syntax.Reference) (Expr, error) {
	b, ok := r.scope.ResolveName(n.Name)
	if !ok {
		err := syntax.NewResolutionError(syntax.CodeUnknownReference,
			fmt.Sprintf("Unknown column, segment or metric: %s", n.Name), n.Span, n.Name)
		if fn, isFn := r.registry.Get(n.Name); isFn && !n.Bracketed {
			return nil, err.WithSuggestions(fmt.Sprintf("%s(...)", fn.Name))
		}
		if names, can := r.scope.(scope.Enumerator); can {
			if hints := suggest(n.Name, names.Names(), r.suggestions); len(hints) > 0 {
				return nil, err.WithSuggestions(bracketAll(hints)...)
			}
		}
		return nil, err
	}
	if b.Kind == scope.KindMetric {
		if r.rule != syntax.RuleAggregation {
			return nil, syntax.NewResolutionError(syntax.CodeInvalidContext,
				fmt.Sprintf("Metric %s is only allowed in aggregation formulas", n.Name), n.Span, n.Name)
		}
		if r.aggregate != nil {
			return nil, syntax.NewResolutionError(syntax.CodeInvalidContext,
				fmt.Sprintf("Metric %s cannot be used inside %s", n.Name, r.aggregate.Name), n.Span, n.Name)
		}
	}
	return &Ref{Binding: b, Span: n.Span}, nil
}

func bracketAll(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = syntax.EscapeName(name)
	}
	return out
}

func (r *Resolver) VisitUnary(n *syntax.Unary) (Expr, error) {
	operand, err := syntax.Visit[Expr](n.Operand, r)
	if err != nil {
		return nil, err
	}
	if n.Op == syntax.KeywordNot {
		if err := requireBoolean(operand, "NOT"); err != nil {
			return nil, err
		}
		return &Not{Operand: operand, Span: n.Span}, nil
	}
	return &Negate{Operand: operand, Span: n.Span}, nil
}

func (r *Resolver) VisitBinary(n *syntax.Binary) (Expr, error) {
	left, err := syntax.Visit[Expr](n.Left, r)
	if err != nil {
		return nil, err
	}
	right, err := syntax.Visit[Expr](n.Right, r)
	if err != nil {
		return nil, err
	}

	op := n.Op
	switch op {
	case syntax.KeywordAnd, syntax.KeywordOr:
		if err := requireBoolean(left, op); err != nil {
			return nil, err
		}
		if err := requireBoolean(right, op); err != nil {
			return nil, err
		}
		op = operatorKeyword(op)
	}
	return &Operator{Op: op, Left: left, Right: right, Span: n.Span}, nil
}

func operatorKeyword(op string) string {
	switch op {
	case syntax.KeywordAnd:
		return "and"
	case syntax.KeywordOr:
		return "or"
	}
	return op
}

func requireBoolean(e Expr, op string) error {
	if IsBoolean(e) {
		return nil
	}
	return syntax.NewResolutionError(syntax.CodeInvalidContext,
		fmt.Sprintf("Expecting a boolean operand for %s", op), e.Pos(), "")
}

func (r *Resolver) VisitCall(n *syntax.Call) (Expr, error) {
	fn, ok := r.registry.Get(n.Name)
	if !ok {
		err := syntax.NewResolutionError(syntax.CodeUnknownFunction,
			fmt.Sprintf("Unknown function %s", n.Name), n.Span, n.Name)
		if hints := suggest(n.Name, r.registry.Names(), r.suggestions); len(hints) > 0 {
			return nil, err.WithSuggestions(hints...)
		}
		return nil, err
	}

	if fn.Packing == functions.PackConditional {
		return r.VisitConditional(asConditional(fn, n))
	}

	if fn.IsAggregation() {
		if r.rule != syntax.RuleAggregation {
			return nil, syntax.NewResolutionError(syntax.CodeInvalidContext,
				fmt.Sprintf("Aggregation %s is only allowed in aggregation formulas", fn.Name), n.Span, n.Name)
		}
		if r.aggregate != nil {
			return nil, syntax.NewResolutionError(syntax.CodeInvalidContext,
				fmt.Sprintf("Aggregation %s cannot be nested inside %s", fn.Name, r.aggregate.Name), n.Span, n.Name)
		}
		r.aggregate = fn
		defer func() { r.aggregate = nil }()
	}

	args := make([]Expr, 0, len(n.Args))
	for _, arg := range n.Args {
		e, err := syntax.Visit[Expr](arg, r)
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}

	apply := &Apply{Function: fn, Args: args, Span: n.Span}
	switch fn.Packing {
	case functions.PackCaseSensitivity:
		return packCaseSensitivity(apply, n)
	case functions.PackInterval:
		return packInterval(apply, n)
	}
	if len(n.Trailing) > 0 {
		return nil, syntax.NewResolutionError(syntax.CodeInvalidArgument,
			fmt.Sprintf("Function %s does not accept options", fn.Name), n.Trailing[0].Pos(), "")
	}
	return apply, nil
}

// asConditional reshapes a call of a conditional function into the node the
// parser builds for the CASE and IF keywords.
func asConditional(fn *functions.Function, n *syntax.Call) *syntax.Conditional {
	cond := &syntax.Conditional{Name: fn.Name, Span: n.Span}
	args := n.Args
	for len(args) >= 2 {
		cond.Clauses = append(cond.Clauses, syntax.Clause{Condition: args[0], Result: args[1]})
		args = args[2:]
	}
	if len(args) == 1 {
		cond.Default = args[0]
	}
	return cond
}

func (r *Resolver) VisitConditional(n *syntax.Conditional) (Expr, error) {
	fn, ok := r.registry.Get(n.Name)
	if !ok {
		return nil, syntax.NewResolutionError(syntax.CodeUnknownFunction,
			fmt.Sprintf("Unknown function %s", n.Name), n.Span, n.Name)
	}

	out := &Conditional{Keyword: fn.Keyword, Span: n.Span}
	for _, clause := range n.Clauses {
		when, err := syntax.Visit[Expr](clause.Condition, r)
		if err != nil {
			return nil, err
		}
		if err := requireBoolean(when, fn.Name+" condition"); err != nil {
			return nil, err
		}
		then, err := syntax.Visit[Expr](clause.Result, r)
		if err != nil {
			return nil, err
		}
		out.Cases = append(out.Cases, Case{When: when, Then: then})
	}
	if n.Default != nil {
		def, err := syntax.Visit[Expr](n.Default, r)
		if err != nil {
			return nil, err
		}
		out.Default = def
	}
	return out, nil
}

func (r *Resolver) VisitGroup(n *syntax.Group) (Expr, error) {
	inner, err := syntax.Visit[Expr](n.Inner, r)
	if err != nil {
		return nil, err
	}
	return &Group{Inner: inner, Span: n.Span}, nil
}

// IsBoolean reports whether e can stand alone as a filter. Columns and custom
// expressions with no declared base type are given the benefit of the doubt.
func IsBoolean(e Expr) bool {
	switch e := Unwrap(e).(type) {
	case *Value:
		return e.Type == syntax.LiteralBoolean
	case *Ref:
		b := e.Binding
		switch b.Kind {
		case scope.KindColumn, scope.KindExpression:
			return b.BaseType == "" || b.IsBoolean()
		default:
			return b.IsBoolean()
		}
	case *Not:
		return true
	case *Operator:
		switch e.Op {
		case "+", "-", "*", "/":
			return false
		}
		return true
	case *Apply:
		return e.Function.Return == functions.ReturnBoolean || e.Function.Return == functions.ReturnAny
	case *Conditional:
		return true
	}
	return false
}
