package functions

import (
	"fmt"
	"strings"
)

// FunctionType 函数类型枚举
type FunctionType string

const (
	// TypeAggregation aggregate functions, legal only under the aggregation start rule
	TypeAggregation FunctionType = "aggregation"
	TypeMath        FunctionType = "math"
	TypeString      FunctionType = "string"
	TypeDateTime    FunctionType = "datetime"
	TypeConversion  FunctionType = "conversion"
	TypeConditional FunctionType = "conditional"
	// TypePredicate boolean-valued filter functions
	TypePredicate FunctionType = "predicate"
)

// Types lists every function type.
func Types() []FunctionType {
	return []FunctionType{TypeAggregation, TypeMath, TypeString, TypeDateTime, TypeConversion, TypeConditional, TypePredicate}
}

// IsType reports whether s names a function type, ignoring case.
func IsType(s string) bool {
	for _, t := range Types() {
		if strings.EqualFold(string(t), s) {
			return true
		}
	}
	return false
}

// ReturnType is the inferred result type of a call, used by the boolean start
// rule to check the shape of a filter.
type ReturnType string

const (
	ReturnNumber   ReturnType = "number"
	ReturnString   ReturnType = "string"
	ReturnBoolean  ReturnType = "boolean"
	ReturnDateTime ReturnType = "datetime"
	// ReturnAny result type depends on the arguments (case, coalesce, ...)
	ReturnAny ReturnType = "any"
)

// Packing selects how trailing option flags are folded into the emitted call.
type Packing int

const (
	// PackNone arguments are emitted positionally.
	PackNone Packing = iota
	// PackCaseSensitivity 'case-insensitive' becomes {"case-sensitive": false};
	// two positional arguments keep a trailing map only when a flag was given,
	// three or more always carry a leading map.
	PackCaseSensitivity
	// PackInterval 'include-current' becomes a trailing {"include-current": true}.
	PackInterval
	// PackConditional arguments pair into (condition, result) clauses with an
	// optional trailing default.
	PackConditional
)

func (p Packing) String() string {
	switch p {
	case PackNone:
		return "none"
	case PackCaseSensitivity:
		return "case-sensitivity"
	case PackInterval:
		return "interval"
	case PackConditional:
		return "conditional"
	default:
		return "unknown"
	}
}

// Flag maps a trailing literal string argument to an option value.
type Flag struct {
	Literal string
	Key     string
	Value   any
}

// Function describes one entry in the canonical function table.
type Function struct {
	// Name is the preferred surface spelling, used when decompiling.
	Name string
	// Aliases are documented synonyms that resolve to the same keyword.
	Aliases []string
	// Keyword is the canonical IR head.
	Keyword string
	Type    FunctionType
	Return  ReturnType
	MinArgs int
	MaxArgs int // -1 表示无限制
	Packing Packing
	Flags   []Flag
	// Description is shown by the CLI function catalogue.
	Description string
}

// IsAggregation reports whether the function is only legal in aggregation mode.
func (f *Function) IsAggregation() bool {
	return f.Type == TypeAggregation
}

// AllowsBare reports whether the function may be written without parentheses
// (Count, CumulativeCount).
func (f *Function) AllowsBare() bool {
	return f.IsAggregation() && f.MinArgs == 0
}

// HasFlags reports whether the function accepts trailing option flags.
func (f *Function) HasFlags() bool {
	return len(f.Flags) > 0
}

// LookupFlag returns the flag spelled by literal, if the function accepts it.
func (f *Function) LookupFlag(literal string) (Flag, bool) {
	for _, flag := range f.Flags {
		if flag.Literal == literal {
			return flag, true
		}
	}
	return Flag{}, false
}

// FlagLiterals lists the accepted flag spellings.
func (f *Function) FlagLiterals() []string {
	out := make([]string, len(f.Flags))
	for i, flag := range f.Flags {
		out[i] = flag.Literal
	}
	return out
}

// ValidateArgCount 验证参数数量
func (f *Function) ValidateArgCount(argCount int) error {
	if argCount < f.MinArgs {
		return fmt.Errorf("function %s expects at least %d %s, got %d", f.Name, f.MinArgs, plural(f.MinArgs), argCount)
	}

	if f.MaxArgs != -1 && argCount > f.MaxArgs {
		if f.MaxArgs == 0 {
			return fmt.Errorf("function %s expects no arguments, got %d", f.Name, argCount)
		}
		return fmt.Errorf("function %s expects at most %d %s, got %d", f.Name, f.MaxArgs, plural(f.MaxArgs), argCount)
	}

	return nil
}

// Arity renders the accepted argument count, e.g. "1", "2..3", "2+".
func (f *Function) Arity() string {
	switch {
	case f.MaxArgs == -1:
		return fmt.Sprintf("%d+", f.MinArgs)
	case f.MinArgs == f.MaxArgs:
		return fmt.Sprintf("%d", f.MinArgs)
	default:
		return fmt.Sprintf("%d..%d", f.MinArgs, f.MaxArgs)
	}
}

// Names returns the surface name followed by its aliases.
func (f *Function) Names() []string {
	return append([]string{f.Name}, f.Aliases...)
}

func (f *Function) String() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteString(" -> ")
	b.WriteString(f.Keyword)
	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return "argument"
	}
	return "arguments"
}
