// Package format renders compiled IR back into formula source.
//
// The output is canonical rather than faithful: references are always
// bracketed, functions use their preferred surface name and parentheses are
// emitted only where precedence or flattening requires them. Compiling the
// output under the same scope yields the original clause.
package format

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/rulego/formula/functions"
	"github.com/rulego/formula/ir"
	"github.com/rulego/formula/scope"
	"github.com/rulego/formula/syntax"
)

// ErrUnsupported is returned for clauses the formula language cannot express.
var ErrUnsupported = errors.New("format: unsupported clause")

// binding power, loosest first
const (
	precOr = iota + 1
	precAnd
	precNot
	precComparison
	precAdditive
	precMultiplicative
	precUnary
	precPrimary
)

var infix = map[string]struct {
	prec   int
	symbol string
}{
	"or":  {precOr, "OR"},
	"and": {precAnd, "AND"},
	"=":   {precComparison, "="},
	"!=":  {precComparison, "!="},
	"<":   {precComparison, "<"},
	"<=":  {precComparison, "<="},
	">":   {precComparison, ">"},
	">=":  {precComparison, ">="},
	"+":   {precAdditive, "+"},
	"-":   {precAdditive, "-"},
	"*":   {precMultiplicative, "*"},
	"/":   {precMultiplicative, "/"},
}

var associative = map[string]bool{"+": true, "*": true, "and": true, "or": true}

// Formatter renders clauses with a given namer and function table.
type Formatter struct {
	namer    scope.Namer
	registry *functions.Registry
}

// New returns a formatter. A nil registry selects the built-in table.
func New(namer scope.Namer, registry *functions.Registry) *Formatter {
	if registry == nil {
		registry = functions.Default()
	}
	return &Formatter{namer: namer, registry: registry}
}

// Format renders c using the built-in function table.
func Format(c ir.Clause, namer scope.Namer) (string, error) {
	return New(namer, nil).Format(c)
}

// Format renders c as formula source.
func (f *Formatter) Format(c ir.Clause) (string, error) {
	if c.Head() == ir.KeywordValue {
		if len(c) < 2 {
			return "", fmt.Errorf("%w: value clause without operand", ErrUnsupported)
		}
		s, _, err := f.literal(c[1])
		return s, err
	}
	s, _, err := f.node(c)
	return s, err
}

// node renders v and returns its binding power.
func (f *Formatter) node(v any) (string, int, error) {
	c, ok := ir.AsClause(v)
	if !ok {
		return f.literal(v)
	}

	head := c.Head()
	args := c.Operands()
	switch head {
	case ir.KeywordField, ir.KeywordSegment, ir.KeywordMetric, ir.KeywordExpression:
		s, err := f.reference(head, args)
		return s, precPrimary, err
	case ir.KeywordNot:
		if len(args) != 1 {
			return "", 0, fmt.Errorf("%w: not expects one operand", ErrUnsupported)
		}
		operand, err := f.operand(args[0], precNot)
		return "NOT " + operand, precNot, err
	case ir.KeywordValue:
		return "", 0, fmt.Errorf("%w: nested value clause", ErrUnsupported)
	}

	if head == ir.KeywordNegate && len(args) == 1 {
		return f.negate(args[0])
	}
	if op, ok := infix[head]; ok && len(args) >= 2 {
		return f.infix(head, op.prec, op.symbol, args)
	}
	if ir.IsConditional(head) {
		s, err := f.conditional(head, args)
		return s, precPrimary, err
	}
	s, err := f.call(head, args)
	return s, precPrimary, err
}

// operand renders v, parenthesized when it binds looser than min.
func (f *Formatter) operand(v any, min int) (string, error) {
	s, prec, err := f.node(v)
	if err != nil {
		return "", err
	}
	if prec < min {
		return "(" + s + ")", nil
	}
	return s, nil
}

func (f *Formatter) literal(v any) (string, int, error) {
	switch t := v.(type) {
	case string:
		return syntax.QuoteString(t), precPrimary, nil
	case bool:
		if t {
			return "True", precPrimary, nil
		}
		return "False", precPrimary, nil
	case nil:
		return "", 0, fmt.Errorf("%w: null literal", ErrUnsupported)
	}
	n, err := cast.ToFloat64E(v)
	if err != nil {
		return "", 0, fmt.Errorf("%w: literal %v", ErrUnsupported, v)
	}
	s := strconv.FormatFloat(n, 'f', -1, 64)
	if n < 0 {
		return s, precUnary, nil
	}
	return s, precPrimary, nil
}

func (f *Formatter) reference(head string, args []any) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: %s without id", ErrUnsupported, head)
	}
	if head == ir.KeywordExpression {
		name, ok := args[0].(string)
		if !ok {
			return "", fmt.Errorf("%w: expression name %v", ErrUnsupported, args[0])
		}
		return syntax.EscapeName(name), nil
	}

	kind := scope.KindColumn
	switch head {
	case ir.KeywordSegment:
		kind = scope.KindSegment
	case ir.KeywordMetric:
		kind = scope.KindMetric
	}
	if f.namer == nil {
		return "", fmt.Errorf("%w: no names available for %s %v", ErrUnsupported, kind, args[0])
	}
	name, ok := f.namer.NameOf(kind, args[0])
	if !ok {
		return "", fmt.Errorf("%w: unknown %s %v", ErrUnsupported, kind, args[0])
	}
	return syntax.EscapeName(name), nil
}

// negate renders unary minus. A non-negative number operand is parenthesized,
// otherwise the parser would fold the sign into the literal.
func (f *Formatter) negate(v any) (string, int, error) {
	if !ir.IsClause(v) {
		if n, err := cast.ToFloat64E(v); err == nil && n >= 0 {
			s, _, err := f.literal(v)
			return "-(" + s + ")", precUnary, err
		}
	}
	s, err := f.operand(v, precUnary)
	return "-" + s, precUnary, err
}

// infix renders a left-associative chain. The first operand may share the
// operator's binding power unless it is the same associative operator, which
// would otherwise merge into this chain when compiled again.
func (f *Formatter) infix(head string, prec int, symbol string, args []any) (string, int, error) {
	parts := make([]string, len(args))
	for i, arg := range args {
		s, p, err := f.node(arg)
		if err != nil {
			return "", 0, err
		}
		paren := p < prec
		if p == prec {
			sub, _ := ir.AsClause(arg)
			paren = i > 0 || (associative[head] && sub.Head() == head)
		}
		if paren {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, " "+symbol+" "), prec, nil
}

func (f *Formatter) conditional(head string, args []any) (string, error) {
	fn, ok := f.registry.ByKeyword(head)
	if !ok {
		return "", fmt.Errorf("%w: unknown function %s", ErrUnsupported, head)
	}
	if len(args) == 0 {
		return "", fmt.Errorf("%w: %s without clauses", ErrUnsupported, head)
	}

	var parts []string
	for _, pair := range pairsOf(args[0]) {
		when, _, err := f.node(pair[0])
		if err != nil {
			return "", err
		}
		then, _, err := f.node(pair[1])
		if err != nil {
			return "", err
		}
		parts = append(parts, when, then)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: %s without clauses", ErrUnsupported, head)
	}
	if len(args) > 1 {
		if opts, ok := ir.AsOptions(args[1]); ok {
			if def, has := opts[ir.OptionDefault]; has {
				s, _, err := f.node(def)
				if err != nil {
					return "", err
				}
				parts = append(parts, s)
			}
		}
	}
	return strings.ToUpper(fn.Name) + "(" + strings.Join(parts, ", ") + ")", nil
}

func pairsOf(v any) []ir.Pair {
	switch t := v.(type) {
	case []ir.Pair:
		return t
	case []any:
		out := make([]ir.Pair, 0, len(t))
		for _, e := range t {
			switch p := e.(type) {
			case ir.Pair:
				out = append(out, p)
			case []any:
				if len(p) == 2 {
					out = append(out, ir.Pair{p[0], p[1]})
				}
			}
		}
		return out
	}
	return nil
}

func (f *Formatter) call(head string, args []any) (string, error) {
	fn, ok := f.registry.ByKeyword(head)
	if !ok {
		return "", fmt.Errorf("%w: unknown function %s", ErrUnsupported, head)
	}

	var opts ir.Options
	if len(args) > 0 {
		if o, ok := ir.AsOptions(args[0]); ok {
			opts, args = o, args[1:]
		} else if o, ok := ir.AsOptions(args[len(args)-1]); ok {
			opts, args = o, args[:len(args)-1]
		}
	}

	if len(args) == 0 && fn.AllowsBare() {
		return fn.Name, nil
	}

	parts := make([]string, 0, len(args)+1)
	for i, arg := range args {
		s, _, err := f.node(arg)
		if err != nil {
			return "", err
		}
		if i == len(args)-1 && fn.Packing == functions.PackCaseSensitivity && len(args) > 2 {
			// keep a trailing flag-like value from being read as a flag
			if lit, ok := arg.(string); ok {
				if _, isFlag := fn.LookupFlag(lit); isFlag {
					s = "(" + s + ")"
				}
			}
		}
		parts = append(parts, s)
	}

	flags, err := flagLiterals(fn, opts)
	if err != nil {
		return "", err
	}
	parts = append(parts, flags...)
	return fn.Name + "(" + strings.Join(parts, ", ") + ")", nil
}

// flagLiterals turns an option map back into the flag arguments that
// produce it.
func flagLiterals(fn *functions.Function, opts ir.Options) ([]string, error) {
	var out []string
	matched := 0
	for _, flag := range fn.Flags {
		v, ok := opts[flag.Key]
		if !ok {
			continue
		}
		if v != flag.Value {
			return nil, fmt.Errorf("%w: option %s=%v for %s", ErrUnsupported, flag.Key, v, fn.Name)
		}
		out = append(out, syntax.QuoteString(flag.Literal))
		matched++
	}
	if matched != len(opts) {
		return nil, fmt.Errorf("%w: unknown options for %s", ErrUnsupported, fn.Name)
	}
	return out, nil
}
