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

// Package ir defines the nested-array query representation produced by the
// formula compiler.
//
// A compiled expression is a Clause: an ordered slice whose first element is a
// lower-kebab-case keyword followed by operands. Operands are literals
// (float64, string, bool, nil), nested clauses, pair lists for conditionals,
// or an Options map placed before or after the positional operands.
//
//	["+", 1, 2, ["*", 3, 4]]
//	["contains", {"case-sensitive": false}, "A", "B", "C"]
//	["case", [[["=", ["field", 1, {"base-type": "type/Float"}], 1], "A"]], {"default": "B"}]
package ir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Clause is one compiled expression node.
type Clause []any

// Options is the per-function option record (e.g. case-sensitive, include-current, default).
type Options map[string]any

// Pair is a (condition, result) clause of a conditional.
type Pair [2]any

// Reserved keywords that are not function names.
const (
	KeywordValue      = "value"
	KeywordField      = "field"
	KeywordExpression = "expression"
	KeywordSegment    = "segment"
	KeywordMetric     = "metric"
	KeywordNot        = "not"
	KeywordAnd        = "and"
	KeywordOr         = "or"
	KeywordNegate     = "-"
)

// Option keys recognized by the packing rules.
const (
	OptionCaseSensitive  = "case-sensitive"
	OptionIncludeCurrent = "include-current"
	OptionDefault        = "default"
	OptionBaseType       = "base-type"
)

// New builds a clause from a keyword and its operands.
func New(keyword string, operands ...any) Clause {
	c := make(Clause, 0, len(operands)+1)
	c = append(c, keyword)
	return append(c, operands...)
}

// Value wraps a literal as a typed top-level value clause.
func Value(v any) Clause {
	return Clause{KeywordValue, v, nil}
}

// Head returns the keyword of the clause, or "" if the clause is malformed.
func (c Clause) Head() string {
	if len(c) == 0 {
		return ""
	}
	s, _ := c[0].(string)
	return s
}

// Operands returns everything after the keyword.
func (c Clause) Operands() []any {
	if len(c) < 2 {
		return nil
	}
	return c[1:]
}

// IsClause reports whether v is a clause with a string head.
func IsClause(v any) bool {
	c, ok := AsClause(v)
	return ok && c.Head() != ""
}

// AsClause converts v to a Clause when it is one, including the []any form
// produced by decoding JSON.
func AsClause(v any) (Clause, bool) {
	switch c := v.(type) {
	case Clause:
		return c, true
	case []any:
		if len(c) == 0 {
			return nil, false
		}
		if _, ok := c[0].(string); !ok {
			return nil, false
		}
		return Clause(c), true
	}
	return nil, false
}

// AsOptions converts v to Options when it is a map.
func AsOptions(v any) (Options, bool) {
	switch o := v.(type) {
	case Options:
		return o, true
	case map[string]any:
		return Options(o), true
	}
	return nil, false
}

// String renders the clause as JSON.
func (c Clause) String() string {
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return fmt.Sprintf("%v", []any(c))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Decode parses JSON text into a clause. Numbers decode as float64, objects as
// Options, and arrays as Clause (when headed by a string) or []any.
func Decode(data []byte) (Clause, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	c, ok := AsClause(raw)
	if !ok {
		return nil, fmt.Errorf("ir: expected a clause array, got %s", string(data))
	}
	return normalize(c).(Clause), nil
}

// normalize converts decoded JSON containers into the package types so decoded
// clauses compare equal to compiled ones.
func normalize(v any) any {
	switch t := v.(type) {
	case []any:
		if c, ok := AsClause(t); ok {
			return normalizeClause(c)
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case Clause:
		return normalizeClause(t)
	case map[string]any:
		out := make(Options, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	}
	return v
}

func normalizeClause(c Clause) Clause {
	out := make(Clause, len(c))
	out[0] = c[0]
	for i := 1; i < len(c); i++ {
		if i == 1 && IsConditional(c.Head()) {
			if list, ok := c[1].([]any); ok {
				out[1] = normalizePairs(list)
				continue
			}
		}
		out[i] = normalize(c[i])
	}
	return out
}

func normalizePairs(list []any) []Pair {
	pairs := make([]Pair, 0, len(list))
	for _, e := range list {
		p, ok := e.([]any)
		if !ok || len(p) != 2 {
			continue
		}
		pairs = append(pairs, Pair{normalize(p[0]), normalize(p[1])})
	}
	return pairs
}

// IsConditional reports whether keyword heads a [keyword, pairs, options] clause.
func IsConditional(keyword string) bool {
	return keyword == "case" || keyword == "if"
}
