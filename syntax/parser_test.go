package syntax

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sexpr renders a tree without spans.
func sexpr(n Node) string {
	switch n := n.(type) {
	case *Literal:
		if s, ok := n.Value.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprint(n.Value)
	case *Reference:
		if n.Bracketed {
			return "[" + n.Name + "]"
		}
		return n.Name
	case *Unary:
		return "(" + n.Op + " " + sexpr(n.Operand) + ")"
	case *Binary:
		return "(" + n.Op + " " + sexpr(n.Left) + " " + sexpr(n.Right) + ")"
	case *Call:
		if n.Bare {
			return n.Name
		}
		parts := make([]string, 0, len(n.Args))
		for _, a := range n.Args {
			parts = append(parts, sexpr(a))
		}
		s := n.Name + "(" + strings.Join(parts, " ")
		if len(n.Trailing) > 0 {
			var flags []string
			for _, a := range n.Trailing {
				flags = append(flags, sexpr(a))
			}
			s += " | " + strings.Join(flags, " ")
		}
		return s + ")"
	case *Conditional:
		var parts []string
		for _, c := range n.Clauses {
			parts = append(parts, sexpr(c.Condition)+"->"+sexpr(c.Result))
		}
		if n.Default != nil {
			parts = append(parts, "else "+sexpr(n.Default))
		}
		return n.Name + "{" + strings.Join(parts, ", ") + "}"
	case *Group:
		return "{" + sexpr(n.Inner) + "}"
	}
	return "?"
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		rule     StartRule
		expected string
	}{
		{"number", "42", RuleExpression, "42"},
		{"string", "'abc'", RuleExpression, `"abc"`},
		{"boolean", "True", RuleBoolean, "true"},
		{"precedence", "1 + 2 * 3", RuleExpression, "(+ 1 (* 2 3))"},
		{"left associative", "1 - 2 - 3", RuleExpression, "(- (- 1 2) 3)"},
		{"division chain", "1 / 2 / 3", RuleExpression, "(/ (/ 1 2) 3)"},
		{"group", "(1 + 2) * 3", RuleExpression, "(* {(+ 1 2)} 3)"},
		{"comparison below arithmetic", "[A] + 1 > [B] * 2", RuleBoolean, "(> (+ [A] 1) (* [B] 2))"},
		{"and binds tighter than or", "a OR b AND c", RuleBoolean, "(OR a (AND b c))"},
		{"not binds looser than comparison", "NOT a = b", RuleBoolean, "(NOT (= a b))"},
		{"double not", "NOT NOT a", RuleBoolean, "(NOT (NOT a))"},
		{"negative literal folds", "-5", RuleExpression, "-5"},
		{"double negative", "--5", RuleExpression, "(- -5)"},
		{"plus is dropped", "-+8", RuleExpression, "-8"},
		{"negate reference", "-[Total]", RuleExpression, "(- [Total])"},
		{"negate group", "-(5)", RuleExpression, "(- {5})"},
		{"unary binds tighter than product", "-2 * 3", RuleExpression, "(* -2 3)"},
		{"bracketed name", "[Created At]", RuleExpression, "[Created At]"},
		{"bare identifier", "Subtotal", RuleExpression, "Subtotal"},
		{"call", "concat([A], ' ', [B])", RuleExpression, `concat([A] " " [B])`},
		{"nested call", "floor(Sum([Tax]))", RuleAggregation, "floor(Sum([Tax]))"},
		{"bare count", "Count", RuleAggregation, "Count"},
		{"bare count in arithmetic", "COUNT / 2", RuleAggregation, "(/ COUNT 2)"},
		{"count with parentheses", "Count()", RuleAggregation, "Count()"},
		{"flag after placeholder", "contains([A], 'x',, 'case-insensitive')", RuleBoolean,
			`contains([A] "x" | "case-insensitive")`},
		{"flag as positional", "contains([A], 'x', 'case-insensitive')", RuleBoolean,
			`contains([A] "x" "case-insensitive")`},
		{"case", "CASE([A] > 1, 'big', 'small')", RuleExpression, `CASE{(> [A] 1)->"big", else "small"}`},
		{"if without default", "if([A], 1, [B], 2)", RuleExpression, "IF{[A]->1, [B]->2}"},
		{"case-insensitive function", "LOWER([A])", RuleExpression, "LOWER([A])"},
		{"unknown function parses", "frobnicate(1)", RuleExpression, "frobnicate(1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := ParseString(tt.input, tt.rule)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sexpr(node))
		})
	}
}

func TestParseSpans(t *testing.T) {
	node, err := ParseString("abs([A]) + -2", RuleExpression)
	require.NoError(t, err)

	bin, ok := node.(*Binary)
	require.True(t, ok)
	assert.Equal(t, 0, bin.Span.Start.Offset)
	assert.Equal(t, 13, bin.Span.End.Offset)

	call := bin.Left.(*Call)
	assert.Equal(t, 0, call.Span.Start.Offset)
	assert.Equal(t, 8, call.Span.End.Offset)

	lit := bin.Right.(*Literal)
	assert.Equal(t, -2.0, lit.Value)
	assert.True(t, lit.Signed)
	assert.Equal(t, 11, lit.Span.Start.Offset)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		rule   StartRule
		code   Code
		offset int
	}{
		{"empty", "", RuleExpression, CodeEmptyExpression, 0},
		{"blank", "   ", RuleExpression, CodeEmptyExpression, 3},
		{"dangling operator", "1 +", RuleExpression, CodeMissingToken, 3},
		{"two operands", "1 2", RuleExpression, CodeUnexpectedToken, 2},
		{"empty group", "()", RuleExpression, CodeUnexpectedToken, 1},
		{"unclosed group", "(1 + 2", RuleExpression, CodeUnbalancedParen, 0},
		{"extra closing paren", "1 + 2)", RuleExpression, CodeUnbalancedParen, 5},
		{"unclosed call", "abs(1", RuleExpression, CodeUnbalancedParen, 3},
		{"trailing comma", "concat(1,)", RuleExpression, CodeTrailingComma, 9},
		{"placeholder without flags", "abs(1,,2)", RuleExpression, CodeUnexpectedToken, 6},
		{"two placeholders", "contains([A],,'x',,'y')", RuleBoolean, CodeUnexpectedToken, 18},
		{"too many arguments", "abs(1, 2)", RuleExpression, CodeArity, 0},
		{"too few arguments", "between([A], 1)", RuleBoolean, CodeArity, 0},
		{"flag cannot fill a required slot", "contains([A],, 'case-insensitive')", RuleBoolean, CodeArity, 0},
		{"empty brackets", "[] + 1", RuleExpression, CodeMissingToken, 0},
		{"bare count outside aggregation", "Count + 1", RuleExpression, CodeBareIdentifier, 0},
		{"bare cumulative count in filter", "CumulativeCount > 1", RuleBoolean, CodeBareIdentifier, 0},
		{"case without parenthesis", "CASE 1", RuleExpression, CodeMissingToken, 5},
		{"case arity", "case([A])", RuleExpression, CodeArity, 0},
		{"case placeholder", "case([A],,1)", RuleExpression, CodeUnexpectedToken, 9},
		{"keyword as operand", "1 + AND", RuleBoolean, CodeUnexpectedToken, 4},
		{"lexical error surfaces", "'open", RuleExpression, CodeUnterminatedString, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input, tt.rule)
			require.Error(t, err)

			var e *Error
			require.True(t, errors.As(err, &e), "expected *Error, got %T", err)
			assert.Equal(t, tt.code, e.Code, e.Error())
			assert.Equal(t, tt.offset, e.Span.Start.Offset)
		})
	}
}

func TestParseErrorSentinels(t *testing.T) {
	_, err := ParseString("abs(1, 2)", RuleExpression)
	assert.ErrorIs(t, err, ErrArity)
	assert.NotErrorIs(t, err, ErrUnexpectedToken)

	_, err = ParseString("(1", RuleExpression)
	assert.ErrorIs(t, err, ErrUnbalancedParen)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []string{")"}, e.Expected)
	assert.Equal(t, ErrorTypeSyntax, e.Type)
}

func TestNewParserAppendsEOF(t *testing.T) {
	tokens, err := Tokenize("1 + 2")
	require.NoError(t, err)

	node, err := NewParser(tokens[:len(tokens)-1], RuleExpression, nil).Parse()
	require.NoError(t, err)
	assert.Equal(t, "(+ 1 2)", sexpr(node))
}

func TestParseStartRule(t *testing.T) {
	for _, r := range Rules() {
		got, err := ParseStartRule(strings.ToUpper(string(r)))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := ParseStartRule("filter")
	assert.Error(t, err)
}

func TestUnwrap(t *testing.T) {
	node, err := ParseString("((([A])))", RuleExpression)
	require.NoError(t, err)
	assert.Equal(t, "[A]", sexpr(Unwrap(node)))
}
