package functions

import "github.com/rulego/formula/ir"

var caseSensitivityFlags = []Flag{
	{Literal: "case-insensitive", Key: ir.OptionCaseSensitive, Value: false},
}

var intervalFlags = []Flag{
	{Literal: "include-current", Key: ir.OptionIncludeCurrent, Value: true},
}

func aggregate(name string, minArgs, maxArgs int, desc string) *Function {
	return &Function{Name: name, Type: TypeAggregation, Return: ReturnNumber,
		MinArgs: minArgs, MaxArgs: maxArgs, Description: desc}
}

func scalar(name string, t FunctionType, ret ReturnType, minArgs, maxArgs int, desc string) *Function {
	return &Function{Name: name, Type: t, Return: ret,
		MinArgs: minArgs, MaxArgs: maxArgs, Description: desc}
}

// keyword overrides the kebab-case keyword derived from the surface name.
func keyword(kw string, fn *Function) *Function {
	fn.Keyword = kw
	return fn
}

func withAliases(fn *Function, aliases ...string) *Function {
	fn.Aliases = aliases
	return fn
}

func caseSensitive(name, desc string) *Function {
	return &Function{Name: name, Type: TypePredicate, Return: ReturnBoolean,
		MinArgs: 2, MaxArgs: -1, Packing: PackCaseSensitivity, Flags: caseSensitivityFlags, Description: desc}
}

var builtins = []*Function{
	// aggregations
	aggregate("Count", 0, 1, "Number of rows"),
	keyword("cum-count", aggregate("CumulativeCount", 0, 1, "Running count of rows")),
	aggregate("Sum", 1, 1, "Sum of a column"),
	keyword("cum-sum", aggregate("CumulativeSum", 1, 1, "Running sum of a column")),
	aggregate("Distinct", 1, 1, "Number of distinct values"),
	keyword("stddev", aggregate("StandardDeviation", 1, 1, "Standard deviation")),
	keyword("var", aggregate("Variance", 1, 1, "Variance")),
	withAliases(keyword("avg", aggregate("Average", 1, 1, "Arithmetic mean")), "Avg"),
	aggregate("Median", 1, 1, "Median value"),
	aggregate("Percentile", 2, 2, "Value at a percentile"),
	aggregate("Min", 1, 1, "Smallest value"),
	aggregate("Max", 1, 1, "Largest value"),
	aggregate("Share", 1, 1, "Fraction of rows matching a condition"),
	keyword("count-where", aggregate("CountIf", 1, 1, "Rows matching a condition")),
	keyword("sum-where", aggregate("SumIf", 2, 2, "Sum over rows matching a condition")),
	keyword("distinct-where", aggregate("DistinctIf", 2, 2, "Distinct values over rows matching a condition")),

	// math
	scalar("abs", TypeMath, ReturnNumber, 1, 1, "Absolute value"),
	scalar("ceil", TypeMath, ReturnNumber, 1, 1, "Round up"),
	scalar("floor", TypeMath, ReturnNumber, 1, 1, "Round down"),
	scalar("round", TypeMath, ReturnNumber, 1, 1, "Round to nearest integer"),
	scalar("sqrt", TypeMath, ReturnNumber, 1, 1, "Square root"),
	scalar("power", TypeMath, ReturnNumber, 2, 2, "Raise to a power"),
	scalar("log", TypeMath, ReturnNumber, 1, 1, "Base 10 logarithm"),
	scalar("exp", TypeMath, ReturnNumber, 1, 1, "e raised to a power"),

	// strings
	scalar("lower", TypeString, ReturnString, 1, 1, "Lower-case text"),
	scalar("upper", TypeString, ReturnString, 1, 1, "Upper-case text"),
	scalar("trim", TypeString, ReturnString, 1, 1, "Strip surrounding whitespace"),
	scalar("ltrim", TypeString, ReturnString, 1, 1, "Strip leading whitespace"),
	scalar("rtrim", TypeString, ReturnString, 1, 1, "Strip trailing whitespace"),
	scalar("length", TypeString, ReturnNumber, 1, 1, "Number of characters"),
	scalar("substring", TypeString, ReturnString, 3, 3, "Part of a text"),
	scalar("concat", TypeString, ReturnString, 1, -1, "Join texts"),
	scalar("replace", TypeString, ReturnString, 3, 3, "Replace occurrences"),
	keyword("regex-match-first", scalar("regexextract", TypeString, ReturnString, 2, 2, "First regular expression match")),
	scalar("splitPart", TypeString, ReturnString, 3, 3, "Field of a delimited text"),
	scalar("domain", TypeString, ReturnString, 1, 1, "Domain of a URL or email"),
	scalar("subdomain", TypeString, ReturnString, 1, 1, "Subdomain of a URL"),
	scalar("host", TypeString, ReturnString, 1, 1, "Host of a URL or email"),
	scalar("path", TypeString, ReturnString, 1, 1, "Path of a URL"),

	// predicates
	caseSensitive("contains", "Text contains any of the values"),
	caseSensitive("doesNotContain", "Text contains none of the values"),
	caseSensitive("startsWith", "Text starts with any of the values"),
	caseSensitive("endsWith", "Text ends with any of the values"),
	scalar("isNull", TypePredicate, ReturnBoolean, 1, 1, "Value is null"),
	scalar("notNull", TypePredicate, ReturnBoolean, 1, 1, "Value is not null"),
	scalar("isEmpty", TypePredicate, ReturnBoolean, 1, 1, "Value is null or empty"),
	scalar("notEmpty", TypePredicate, ReturnBoolean, 1, 1, "Value is neither null nor empty"),
	scalar("between", TypePredicate, ReturnBoolean, 3, 3, "Value lies in a closed range"),
	scalar("in", TypePredicate, ReturnBoolean, 2, -1, "Value equals any of the candidates"),
	scalar("notIn", TypePredicate, ReturnBoolean, 2, -1, "Value equals none of the candidates"),
	{Name: "interval", Keyword: "time-interval", Type: TypePredicate, Return: ReturnBoolean,
		MinArgs: 3, MaxArgs: 4, Packing: PackInterval, Flags: intervalFlags,
		Description: "Datetime lies in a relative interval"},
	{Name: "intervalStartingFrom", Keyword: "relative-time-interval", Type: TypePredicate, Return: ReturnBoolean,
		MinArgs: 5, MaxArgs: 5, Packing: PackInterval,
		Description: "Datetime lies in a relative interval shifted by an offset"},

	// conversions
	scalar("text", TypeConversion, ReturnString, 1, 1, "Convert to text"),
	scalar("integer", TypeConversion, ReturnNumber, 1, 1, "Convert to integer"),
	scalar("float", TypeConversion, ReturnNumber, 1, 1, "Convert to floating point"),
	scalar("date", TypeConversion, ReturnDateTime, 1, 1, "Convert to date"),

	// datetimes
	keyword("get-year", scalar("year", TypeDateTime, ReturnNumber, 1, 1, "Year of a datetime")),
	keyword("get-quarter", scalar("quarter", TypeDateTime, ReturnNumber, 1, 1, "Quarter of a datetime")),
	keyword("get-month", scalar("month", TypeDateTime, ReturnNumber, 1, 1, "Month of a datetime")),
	keyword("get-week", scalar("week", TypeDateTime, ReturnNumber, 1, 2, "Week of a datetime")),
	keyword("get-day", scalar("day", TypeDateTime, ReturnNumber, 1, 1, "Day of month")),
	keyword("get-day-of-week", scalar("weekday", TypeDateTime, ReturnNumber, 1, 2, "Day of week")),
	keyword("get-hour", scalar("hour", TypeDateTime, ReturnNumber, 1, 1, "Hour of day")),
	keyword("get-minute", scalar("minute", TypeDateTime, ReturnNumber, 1, 1, "Minute of hour")),
	keyword("get-second", scalar("second", TypeDateTime, ReturnNumber, 1, 1, "Second of minute")),
	scalar("dayName", TypeDateTime, ReturnString, 1, 1, "Name of a weekday number"),
	scalar("monthName", TypeDateTime, ReturnString, 1, 1, "Name of a month number"),
	scalar("quarterName", TypeDateTime, ReturnString, 1, 1, "Name of a quarter number"),
	scalar("datetimeAdd", TypeDateTime, ReturnDateTime, 3, 3, "Add an amount of units"),
	scalar("datetimeSubtract", TypeDateTime, ReturnDateTime, 3, 3, "Subtract an amount of units"),
	scalar("datetimeDiff", TypeDateTime, ReturnNumber, 3, 3, "Units between two datetimes"),
	scalar("convertTimezone", TypeDateTime, ReturnDateTime, 2, 3, "Shift to another time zone"),
	scalar("now", TypeDateTime, ReturnDateTime, 0, 0, "Current datetime"),

	// conditionals
	{Name: "case", Keyword: "case", Type: TypeConditional, Return: ReturnAny,
		MinArgs: 2, MaxArgs: -1, Packing: PackConditional, Description: "First result whose condition holds"},
	{Name: "if", Keyword: "if", Type: TypeConditional, Return: ReturnAny,
		MinArgs: 2, MaxArgs: -1, Packing: PackConditional, Description: "Alias of case"},
	scalar("coalesce", TypeConditional, ReturnAny, 1, -1, "First non-null value"),
}
