package resolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/formula/functions"
	"github.com/rulego/formula/ir"
	"github.com/rulego/formula/scope"
	"github.com/rulego/formula/syntax"
)

func testScope() *scope.Static {
	return scope.NewStatic(
		scope.Column("Total", 1, "type/Float"),
		scope.Column("Tax", 2, "type/Float"),
		scope.Column("Created At", 3, "type/DateTime"),
		scope.Column("Name", 4, "type/Text"),
		scope.Column("bool", 5, scope.BaseTypeBoolean),
		scope.Column("Untyped", 6, ""),
		scope.Segment("Expensive Things", 1),
		scope.Metric("Revenue", 7),
		scope.Expression("Margin", "type/Float"),
		scope.Expression("Flag", scope.BaseTypeBoolean),
	)
}

func resolveString(t *testing.T, source string, rule syntax.StartRule) (Expr, error) {
	t.Helper()
	node, err := syntax.ParseString(source, rule)
	require.NoError(t, err, "parse %q", source)
	return New(testScope(), rule).Resolve(node)
}

func TestResolveShapes(t *testing.T) {
	e, err := resolveString(t, "[Total] + 1", syntax.RuleExpression)
	require.NoError(t, err)
	op, ok := e.(*Operator)
	require.True(t, ok)
	assert.Equal(t, "+", op.Op)
	ref := op.Left.(*Ref)
	assert.Equal(t, scope.KindColumn, ref.Binding.Kind)
	assert.Equal(t, 1, ref.Binding.ID)

	e, err = resolveString(t, "[bool] AND NOT [Expensive Things] OR [Flag]", syntax.RuleBoolean)
	require.NoError(t, err)
	or := e.(*Operator)
	assert.Equal(t, "or", or.Op)
	and := or.Left.(*Operator)
	assert.Equal(t, "and", and.Op)
	_, isNot := and.Right.(*Not)
	assert.True(t, isNot)

	e, err = resolveString(t, "-[Total]", syntax.RuleExpression)
	require.NoError(t, err)
	_, isNegate := e.(*Negate)
	assert.True(t, isNegate)

	e, err = resolveString(t, "(1)", syntax.RuleExpression)
	require.NoError(t, err)
	_, isGroup := e.(*Group)
	assert.True(t, isGroup)
	assert.Equal(t, 1.0, Unwrap(e).(*Value).Value)
}

func TestResolveBareIdentifier(t *testing.T) {
	e, err := resolveString(t, "Total * 2", syntax.RuleExpression)
	require.NoError(t, err)
	ref := e.(*Operator).Left.(*Ref)
	assert.Equal(t, "Total", ref.Binding.Name)
}

func TestResolveConditional(t *testing.T) {
	e, err := resolveString(t, "CASE([Total] > 10, 'big', [Tax] > 1, 'taxed', 'small')", syntax.RuleExpression)
	require.NoError(t, err)
	c := e.(*Conditional)
	assert.Equal(t, "case", c.Keyword)
	require.Len(t, c.Cases, 2)
	assert.Equal(t, "big", c.Cases[0].Then.(*Value).Value)
	require.NotNil(t, c.Default)
	assert.Equal(t, "small", c.Default.(*Value).Value)

	e, err = resolveString(t, "if([Expensive Things], 1)", syntax.RuleExpression)
	require.NoError(t, err)
	c = e.(*Conditional)
	assert.Equal(t, "if", c.Keyword)
	assert.Nil(t, c.Default)
}

func TestPackCaseSensitivity(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		args      int
		placement Placement
		options   ir.Options
	}{
		{"two arguments", "contains([Name], 'A')", 2, OptionsNone, nil},
		{"two arguments, flag is a value", "contains([Name], 'case-insensitive')", 2, OptionsNone, nil},
		{"two arguments with placeholder flag", "contains([Name], 'A',, 'case-insensitive')", 2,
			OptionsTrailing, ir.Options{ir.OptionCaseSensitive: false}},
		{"three arguments", "contains([Name], 'A', 'B')", 3, OptionsLeading, ir.Options{}},
		{"three arguments with flag", "startsWith([Name], 'A', 'B', 'case-insensitive')", 3,
			OptionsLeading, ir.Options{ir.OptionCaseSensitive: false}},
		{"parenthesized flag stays a value", "endsWith([Name], 'A', ('case-insensitive'))", 3,
			OptionsLeading, ir.Options{}},
		{"placeholder flag with many values", "doesNotContain([Name], 'A', 'B',, 'case-insensitive')", 3,
			OptionsLeading, ir.Options{ir.OptionCaseSensitive: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := resolveString(t, tt.source, syntax.RuleBoolean)
			require.NoError(t, err)
			a := e.(*Apply)
			assert.Len(t, a.Args, tt.args)
			assert.Equal(t, tt.placement, a.Placement)
			assert.Equal(t, tt.options, a.Options)
		})
	}
}

func TestPackInterval(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		args    int
		options ir.Options
	}{
		{"number amount", "interval([Created At], -1, 'days')", 3, nil},
		{"anchor amount", "interval([Created At], 'current', 'month')", 3, nil},
		{"flag as fourth argument", "interval([Created At], -2, 'year', 'include-current')", 3,
			ir.Options{ir.OptionIncludeCurrent: true}},
		{"flag after placeholder", "interval([Created At], 3, 'weeks',, 'include-current')", 3,
			ir.Options{ir.OptionIncludeCurrent: true}},
		{"starting from", "intervalStartingFrom([Created At], -3, 'month', -1, 'years')", 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := resolveString(t, tt.source, syntax.RuleBoolean)
			require.NoError(t, err)
			a := e.(*Apply)
			assert.Len(t, a.Args, tt.args)
			assert.Equal(t, tt.options, a.Options)
			if tt.options != nil {
				assert.Equal(t, OptionsTrailing, a.Placement)
			} else {
				assert.Equal(t, OptionsNone, a.Placement)
			}
		})
	}
}

func TestIsIntervalUnit(t *testing.T) {
	for _, u := range []string{"day", "days", "millisecond", "quarters", "year"} {
		assert.True(t, IsIntervalUnit(u), u)
	}
	for _, u := range []string{"s", "fortnight", "Day", ""} {
		assert.False(t, IsIntervalUnit(u), u)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		rule   syntax.StartRule
		code   syntax.Code
	}{
		{"unknown column", "[Totl] + 1", syntax.RuleExpression, syntax.CodeUnknownReference},
		{"unknown function", "frobnicate([Total])", syntax.RuleExpression, syntax.CodeUnknownFunction},
		{"aggregation in expression", "Sum([Total])", syntax.RuleExpression, syntax.CodeInvalidContext},
		{"aggregation in filter", "Sum([Total]) > 1", syntax.RuleBoolean, syntax.CodeInvalidContext},
		{"nested aggregation", "Sum(Count([Total]))", syntax.RuleAggregation, syntax.CodeInvalidContext},
		{"metric in expression", "[Revenue] + 1", syntax.RuleExpression, syntax.CodeInvalidContext},
		{"metric inside aggregation", "Sum([Revenue])", syntax.RuleAggregation, syntax.CodeInvalidContext},
		{"filter must be boolean", "[Total] + 1", syntax.RuleBoolean, syntax.CodeInvalidContext},
		{"filter on numeric column", "[Total]", syntax.RuleBoolean, syntax.CodeInvalidContext},
		{"filter on string literal", "'abc'", syntax.RuleBoolean, syntax.CodeInvalidContext},
		{"NOT of a number", "NOT [Total]", syntax.RuleBoolean, syntax.CodeInvalidContext},
		{"AND of a number", "[bool] AND 1", syntax.RuleBoolean, syntax.CodeInvalidContext},
		{"OR of a string function", "lower([Name]) OR [bool]", syntax.RuleBoolean, syntax.CodeInvalidContext},
		{"case condition not boolean", "case([Total], 1, 2)", syntax.RuleExpression, syntax.CodeInvalidContext},
		{"unknown flag", "contains([Name], 'A',, 'ignore-case')", syntax.RuleBoolean, syntax.CodeInvalidArgument},
		{"flag not a string", "contains([Name], 'A',, 1)", syntax.RuleBoolean, syntax.CodeInvalidArgument},
		{"wrong flag for function", "interval([Created At], 1, 'day', 'case-insensitive')", syntax.RuleBoolean,
			syntax.CodeInvalidArgument},
		{"bad unit", "interval([Created At], 1, 'fortnight')", syntax.RuleBoolean, syntax.CodeInvalidArgument},
		{"unit not a literal", "interval([Created At], 1, [Name])", syntax.RuleBoolean, syntax.CodeInvalidArgument},
		{"bad amount", "interval([Created At], 'soon', 'day')", syntax.RuleBoolean, syntax.CodeInvalidArgument},
		{"anchor in offset", "intervalStartingFrom([Created At], 1, 'day', 'last', 'day')", syntax.RuleBoolean,
			syntax.CodeInvalidArgument},
		{"bad offset unit", "intervalStartingFrom([Created At], 1, 'day', 1, 'eon')", syntax.RuleBoolean,
			syntax.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveString(t, tt.source, tt.rule)
			require.Error(t, err)

			var e *syntax.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, syntax.ErrorTypeResolution, e.Type)
			assert.Equal(t, tt.code, e.Code, e.Error())
		})
	}
}

func TestResolveErrorSpan(t *testing.T) {
	_, err := resolveString(t, "1 + [Missing]", syntax.RuleExpression)
	var e *syntax.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 4, e.Span.Start.Offset)
	assert.Equal(t, 13, e.Span.End.Offset)
	assert.Equal(t, "Missing", e.Token)
}

func TestResolveAccepted(t *testing.T) {
	tests := []struct {
		name   string
		source string
		rule   syntax.StartRule
	}{
		{"aggregation arithmetic", "Sum([Total]) / Count", syntax.RuleAggregation},
		{"function around aggregation", "floor(Sum([Tax]))", syntax.RuleAggregation},
		{"metric in aggregation", "[Revenue] / 2", syntax.RuleAggregation},
		{"sibling aggregations", "Sum([Total]) - Sum([Tax])", syntax.RuleAggregation},
		{"conditional aggregation", "SumIf([Total], [Tax] > 1)", syntax.RuleAggregation},
		{"untyped column filter", "[Untyped]", syntax.RuleBoolean},
		{"boolean column filter", "[bool]", syntax.RuleBoolean},
		{"segment filter", "[Expensive Things]", syntax.RuleBoolean},
		{"boolean expression filter", "NOT [Flag]", syntax.RuleBoolean},
		{"literal filter", "True", syntax.RuleBoolean},
		{"predicate filter", "isNull([Name])", syntax.RuleBoolean},
		{"coalesce filter", "coalesce([bool], False)", syntax.RuleBoolean},
		{"case filter", "case([bool], True, False)", syntax.RuleBoolean},
		{"comparison of booleans", "[Total] = True", syntax.RuleBoolean},
		{"non-boolean expression", "'abc'", syntax.RuleExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveString(t, tt.source, tt.rule)
			assert.NoError(t, err)
		})
	}
}

func TestResolverIsReusable(t *testing.T) {
	r := New(testScope(), syntax.RuleAggregation)

	bad, err := syntax.ParseString("Sum(Sum([Total]))", syntax.RuleAggregation)
	require.NoError(t, err)
	_, err = r.Resolve(bad)
	require.Error(t, err)

	good, err := syntax.ParseString("Sum([Total])", syntax.RuleAggregation)
	require.NoError(t, err)
	_, err = r.Resolve(good)
	assert.NoError(t, err)
}

func TestSuggestions(t *testing.T) {
	_, err := resolveString(t, "[Totl] + 1", syntax.RuleExpression)
	var e *syntax.Error
	require.ErrorAs(t, err, &e)
	require.NotEmpty(t, e.Suggestions)
	assert.Equal(t, "[Total]", e.Suggestions[0])

	_, err = resolveString(t, "Sumx([Total])", syntax.RuleAggregation)
	require.ErrorAs(t, err, &e)
	require.NotEmpty(t, e.Suggestions)
	assert.Equal(t, "Sum", e.Suggestions[0])

	// a bare function name is suggested as a call
	_, err = resolveString(t, "Sum + 1", syntax.RuleAggregation)
	require.ErrorAs(t, err, &e)
	assert.Equal(t, syntax.CodeUnknownReference, e.Code)
	assert.Equal(t, []string{"Sum(...)"}, e.Suggestions)
}

func TestSuggestionsDisabled(t *testing.T) {
	node, err := syntax.ParseString("[Totl]", syntax.RuleExpression)
	require.NoError(t, err)
	_, err = New(testScope(), syntax.RuleExpression, WithSuggestions(0)).Resolve(node)
	var e *syntax.Error
	require.ErrorAs(t, err, &e)
	assert.Empty(t, e.Suggestions)
}

func TestNilScope(t *testing.T) {
	node, err := syntax.ParseString("[Total]", syntax.RuleExpression)
	require.NoError(t, err)
	_, err = Resolve(node, nil, syntax.RuleExpression)
	assert.ErrorIs(t, err, syntax.ErrUnknownReference)
}

func TestWithRegistry(t *testing.T) {
	r, err := functions.NewRegistry(
		&functions.Function{Name: "double", Type: functions.TypeMath, Return: functions.ReturnNumber, MinArgs: 1, MaxArgs: 1},
	)
	require.NoError(t, err)

	tokens, err := syntax.Tokenize("double([Total])")
	require.NoError(t, err)
	node, err := syntax.NewParser(tokens, syntax.RuleExpression, r).Parse()
	require.NoError(t, err)

	e, err := New(testScope(), syntax.RuleExpression, WithRegistry(r)).Resolve(node)
	require.NoError(t, err)
	assert.Equal(t, "double", e.(*Apply).Keyword())

	_, err = New(testScope(), syntax.RuleExpression).Resolve(node)
	assert.ErrorIs(t, err, syntax.ErrUnknownFunction)
}

func TestSuggest(t *testing.T) {
	candidates := []string{"Total", "Tax", "Created At", "Subtotal"}

	assert.Equal(t, []string{"Total", "Subtotal"}, suggest("Totl", candidates, 3))
	assert.Equal(t, []string{"Total"}, suggest("Totl", candidates, 1))
	assert.Contains(t, suggest("Tex", candidates, 3), "Tax")
	assert.Empty(t, suggest("Total", []string{"Total"}, 3))
	assert.Empty(t, suggest("zzzzzz", candidates, 3))
	assert.Nil(t, suggest("Totl", candidates, 0))
	assert.Nil(t, suggest("", candidates, 3))
}
