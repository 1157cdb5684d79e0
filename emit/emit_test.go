package emit

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/expr-lang/expr"
	"github.com/spf13/cast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/formula/ir"
	"github.com/rulego/formula/resolve"
	"github.com/rulego/formula/scope"
	"github.com/rulego/formula/syntax"
)

var testScope = scope.NewStatic(
	scope.Column("A", 1, ""),
	scope.Column("B", 2, ""),
	scope.Column("C", 3, ""),
	scope.Column("Name", 4, "type/Text"),
	scope.Segment("S", 9),
)

func compile(t *testing.T, source string, rule syntax.StartRule) ir.Clause {
	t.Helper()
	node, err := syntax.ParseString(source, rule)
	require.NoError(t, err)
	e, err := resolve.Resolve(node, testScope, rule)
	require.NoError(t, err)
	return Emit(e)
}

func field(id int) ir.Clause {
	return ir.Clause{"field", id, nil}
}

// nameField is the typed reference [Name] encodes to.
var nameField = ir.Clause{"field", 4, ir.Options{"base-type": "type/Text"}}

func TestEmit(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		rule     syntax.StartRule
		expected ir.Clause
	}{
		{"top-level number", "42", syntax.RuleExpression, ir.Clause{"value", 42.0, nil}},
		{"top-level string", "'abc'", syntax.RuleExpression, ir.Clause{"value", "abc", nil}},
		{"top-level group of literal", "(1)", syntax.RuleExpression, ir.Clause{"value", 1.0, nil}},
		{"reference", "[A]", syntax.RuleExpression, field(1)},
		{"flatten plus", "1 + 2 + 3", syntax.RuleExpression, ir.Clause{"+", 1.0, 2.0, 3.0}},
		{"flatten times", "[A] * [B] * [C]", syntax.RuleExpression, ir.Clause{"*", field(1), field(2), field(3)}},
		{"no flatten minus", "1 - 2 - 3", syntax.RuleExpression,
			ir.Clause{"-", ir.Clause{"-", 1.0, 2.0}, 3.0}},
		{"no flatten divide", "1 / 2 / 3", syntax.RuleExpression,
			ir.Clause{"/", ir.Clause{"/", 1.0, 2.0}, 3.0}},
		{"mixed additive", "1 - 2 + 3", syntax.RuleExpression,
			ir.Clause{"+", ir.Clause{"-", 1.0, 2.0}, 3.0}},
		{"flatten stops at operator change", "1 + 2 - 3 + 4", syntax.RuleExpression,
			ir.Clause{"+", ir.Clause{"-", ir.Clause{"+", 1.0, 2.0}, 3.0}, 4.0}},
		{"group stops flattening", "1 + (2 + 3)", syntax.RuleExpression,
			ir.Clause{"+", 1.0, ir.Clause{"+", 2.0, 3.0}}},
		{"left group stops flattening", "(1 + 2) + 3", syntax.RuleExpression,
			ir.Clause{"+", ir.Clause{"+", 1.0, 2.0}, 3.0}},
		{"negative literal", "-5 * [A]", syntax.RuleExpression, ir.Clause{"*", -5.0, field(1)}},
		{"double negative", "--5", syntax.RuleExpression, ir.Clause{"-", -5.0}},
		{"negate reference", "-[A]", syntax.RuleExpression, ir.Clause{"-", field(1)}},
		{"flatten and", "[S] AND [A] AND [B]", syntax.RuleBoolean,
			ir.Clause{"and", ir.Clause{"segment", 9}, field(1), field(2)}},
		{"flatten or under and", "[A] OR [B] OR [C] AND [S]", syntax.RuleBoolean,
			ir.Clause{"or", field(1), field(2), ir.Clause{"and", field(3), ir.Clause{"segment", 9}}}},
		{"not", "NOT [S]", syntax.RuleBoolean, ir.Clause{"not", ir.Clause{"segment", 9}}},
		{"comparison", "[A] >= 10", syntax.RuleBoolean, ir.Clause{">=", field(1), 10.0}},
		{"function", "abs([A])", syntax.RuleExpression, ir.Clause{"abs", field(1)}},
		{"bare count", "Count", syntax.RuleAggregation, ir.Clause{"count"}},
		{"aggregation arithmetic", "Sum([A]) / Count", syntax.RuleAggregation,
			ir.Clause{"/", ir.Clause{"sum", field(1)}, ir.Clause{"count"}}},
		{"contains two values", "contains([Name], 'x')", syntax.RuleBoolean,
			ir.Clause{"contains", nameField, "x"}},
		{"contains trailing options", "contains([Name], 'x',, 'case-insensitive')", syntax.RuleBoolean,
			ir.Clause{"contains", nameField, "x", ir.Options{"case-sensitive": false}}},
		{"contains leading options", "contains([Name], 'x', 'y', 'case-insensitive')", syntax.RuleBoolean,
			ir.Clause{"contains", ir.Options{"case-sensitive": false}, nameField, "x", "y"}},
		{"contains empty leading options", "startsWith([Name], 'x', 'y')", syntax.RuleBoolean,
			ir.Clause{"starts-with", ir.Options{}, nameField, "x", "y"}},
		{"interval", "interval([A], -1, 'day')", syntax.RuleBoolean,
			ir.Clause{"time-interval", field(1), -1.0, "day"}},
		{"interval include current", "interval([A], 'current', 'month', 'include-current')", syntax.RuleBoolean,
			ir.Clause{"time-interval", field(1), "current", "month", ir.Options{"include-current": true}}},
		{"case with default", "case([S], 1, 2)", syntax.RuleExpression,
			ir.Clause{"case", []ir.Pair{{ir.Clause{"segment", 9}, 1.0}}, ir.Options{"default": 2.0}}},
		{"if without default", "if([S], [A], [B] > 1, [B])", syntax.RuleExpression,
			ir.Clause{"if", []ir.Pair{
				{ir.Clause{"segment", 9}, field(1)},
				{ir.Clause{">", field(2), 1.0}, field(2)},
			}, ir.Options{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, compile(t, tt.source, tt.rule))
		})
	}
}

func TestIsAssociative(t *testing.T) {
	for _, op := range []string{"+", "*", "and", "or"} {
		assert.True(t, IsAssociative(op), op)
	}
	for _, op := range []string{"-", "/", "=", "<"} {
		assert.False(t, IsAssociative(op), op)
	}
}

// infix renders an arithmetic clause fully parenthesized. N-ary clauses are
// folded left to right.
func infix(v any) string {
	c, ok := ir.AsClause(v)
	if !ok {
		n := cast.ToFloat64(v)
		s := strconv.FormatFloat(n, 'f', -1, 64)
		if n < 0 {
			return "(" + s + ")"
		}
		return s
	}
	args := c.Operands()
	if c.Head() == "value" {
		return infix(args[0])
	}
	if c.Head() == "-" && len(args) == 1 {
		return "(-" + infix(args[0]) + ")"
	}
	out := infix(args[0])
	for _, arg := range args[1:] {
		out = fmt.Sprintf("(%s %s %s)", out, c.Head(), infix(arg))
	}
	return out
}

// TestEvaluationOrder checks that lowering never reassociates: evaluating the
// emitted tree gives the same number as evaluating the source directly.
func TestEvaluationOrder(t *testing.T) {
	sources := []string{
		"1 - 2 - 3",
		"1 - (2 - 3)",
		"100 / 10 / 5",
		"100 / (10 / 5)",
		"1 + 2 * 3 - 4 / 8",
		"2 * 3 + 4 * 5 - 6",
		"1 - 2 + 3 - 4 + 5",
		"(1 + 2) * (3 - 4) / 5",
		"-2 * -3 - -4",
		"-(-5) - 1",
		"-(2 + 3) * 4",
		"1.5 * 4 / 3 - 0.25",
		"8 - 4 - 2 * 3 + 7 * (1 - 9)",
	}

	for _, source := range sources {
		t.Run(source, func(t *testing.T) {
			want, err := expr.Eval(source, nil)
			require.NoError(t, err)

			rendered := infix(compile(t, source, syntax.RuleExpression))
			got, err := expr.Eval(rendered, nil)
			require.NoError(t, err, rendered)

			assert.InDelta(t, cast.ToFloat64(want), cast.ToFloat64(got), 1e-9, "%s rendered as %s", source, rendered)
			assert.False(t, strings.Contains(rendered, "value"))
		})
	}
}
