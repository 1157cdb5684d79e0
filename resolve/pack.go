package resolve

import (
	"fmt"
	"strings"

	"github.com/rulego/formula/functions"
	"github.com/rulego/formula/ir"
	"github.com/rulego/formula/syntax"
)

// intervalUnits are the accepted time units, singular or plural.
var intervalUnits = map[string]bool{
	"millisecond": true,
	"second":      true,
	"minute":      true,
	"hour":        true,
	"day":         true,
	"week":        true,
	"month":       true,
	"quarter":     true,
	"year":        true,
}

// intervalAnchors are the word forms accepted in place of an interval count.
var intervalAnchors = map[string]bool{
	"current": true,
	"last":    true,
	"next":    true,
}

// IsIntervalUnit reports whether s names a time unit.
func IsIntervalUnit(s string) bool {
	return intervalUnits[strings.TrimSuffix(s, "s")]
}

func stringLiteral(n syntax.Node) (string, bool) {
	lit, ok := syntax.Unwrap(n).(*syntax.Literal)
	if !ok || lit.Type != syntax.LiteralString {
		return "", false
	}
	return lit.Value.(string), true
}

// applyFlags folds flag nodes into an option map. Every flag must be a string
// literal the function declares.
func applyFlags(fn *functions.Function, flags []syntax.Node) (ir.Options, error) {
	opts := ir.Options{}
	for _, node := range flags {
		s, ok := stringLiteral(node)
		if !ok {
			return nil, syntax.NewResolutionError(syntax.CodeInvalidArgument,
				fmt.Sprintf("Options of %s must be one of %s", fn.Name, quoteAll(fn.FlagLiterals())), node.Pos(), "")
		}
		flag, ok := fn.LookupFlag(s)
		if !ok {
			return nil, syntax.NewResolutionError(syntax.CodeInvalidArgument,
				fmt.Sprintf("Unknown option '%s' for %s, expected one of %s", s, fn.Name, quoteAll(fn.FlagLiterals())),
				node.Pos(), s)
		}
		opts[flag.Key] = flag.Value
	}
	return opts, nil
}

func quoteAll(literals []string) string {
	out := make([]string, len(literals))
	for i, l := range literals {
		out[i] = syntax.QuoteString(l)
	}
	return strings.Join(out, ", ")
}

// packCaseSensitivity shapes contains, doesNotContain, startsWith and endsWith.
// With three or more positional arguments a final 'case-insensitive' literal
// is read as a flag; with exactly two it stays a search value. Two arguments
// carry a trailing map only when a flag was given; more always carry a
// leading one.
func packCaseSensitivity(a *Apply, n *syntax.Call) (Expr, error) {
	positional := n.Args
	flags := n.Trailing
	args := a.Args

	if len(flags) == 0 && len(positional) > 2 {
		last := positional[len(positional)-1]
		// a parenthesized literal is always a value
		if lit, ok := last.(*syntax.Literal); ok && lit.Type == syntax.LiteralString {
			if _, isFlag := a.Function.LookupFlag(lit.Value.(string)); isFlag {
				flags = []syntax.Node{last}
				args = args[:len(args)-1]
			}
		}
	}

	opts, err := applyFlags(a.Function, flags)
	if err != nil {
		return nil, err
	}

	a.Args = args
	a.Options = opts
	switch {
	case len(args) > 2:
		a.Placement = OptionsLeading
	case len(opts) > 0:
		a.Placement = OptionsTrailing
	default:
		a.Options = nil
		a.Placement = OptionsNone
	}
	return a, nil
}

// packInterval shapes interval and intervalStartingFrom:
//
//	interval(column, n, unit[, 'include-current'])
//	intervalStartingFrom(column, n, unit, offset, offsetUnit)
//
// n is a number or one of 'current', 'last', 'next'; units are singular or
// plural time unit names.
func packInterval(a *Apply, n *syntax.Call) (Expr, error) {
	positional := n.Args
	flags := n.Trailing
	args := a.Args
	fn := a.Function

	if fn.HasFlags() && len(positional) > 3 {
		flags = append([]syntax.Node{positional[3]}, flags...)
		positional = positional[:3]
		args = args[:3]
	}
	if len(positional) < 3 {
		return nil, syntax.NewResolutionError(syntax.CodeInvalidArgument,
			fmt.Sprintf("%s expects a column, an amount and a unit", fn.Name), n.Span, n.Name)
	}

	if err := checkAmount(fn, positional[1], fn.HasFlags()); err != nil {
		return nil, err
	}
	if err := checkUnit(fn, positional[2]); err != nil {
		return nil, err
	}
	if len(positional) == 5 {
		if err := checkAmount(fn, positional[3], false); err != nil {
			return nil, err
		}
		if err := checkUnit(fn, positional[4]); err != nil {
			return nil, err
		}
	}

	opts, err := applyFlags(fn, flags)
	if err != nil {
		return nil, err
	}

	a.Args = args
	if len(opts) > 0 {
		a.Options = opts
		a.Placement = OptionsTrailing
	}
	return a, nil
}

func checkAmount(fn *functions.Function, n syntax.Node, anchors bool) error {
	lit, ok := syntax.Unwrap(n).(*syntax.Literal)
	if ok && lit.Type == syntax.LiteralNumber {
		return nil
	}
	if ok && lit.Type == syntax.LiteralString && anchors && intervalAnchors[lit.Value.(string)] {
		return nil
	}
	msg := fmt.Sprintf("%s expects a number as the interval amount", fn.Name)
	if anchors {
		msg = fmt.Sprintf("%s expects a number, 'current', 'last' or 'next' as the interval amount", fn.Name)
	}
	return syntax.NewResolutionError(syntax.CodeInvalidArgument, msg, n.Pos(), "")
}

func checkUnit(fn *functions.Function, n syntax.Node) error {
	s, ok := stringLiteral(n)
	if ok && IsIntervalUnit(s) {
		return nil
	}
	return syntax.NewResolutionError(syntax.CodeInvalidArgument,
		fmt.Sprintf("%s expects a time unit such as 'day' or 'months'", fn.Name), n.Pos(), s)
}
