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

// Package scope binds formula names to columns, custom expressions, segments
// and metrics.
//
// A Scope is consulted read-only during compilation. Callers must not mutate
// it while a compilation is running; sharing one scope between concurrent
// compilations is safe.
package scope

import (
	"fmt"
	"sort"

	"github.com/rulego/formula/ir"
)

// Kind is what a name is bound to.
type Kind int

const (
	KindColumn Kind = iota
	// KindExpression a named custom expression defined earlier in the query.
	KindExpression
	KindSegment
	KindMetric
)

func (k Kind) String() string {
	switch k {
	case KindColumn:
		return "column"
	case KindExpression:
		return "expression"
	case KindSegment:
		return "segment"
	case KindMetric:
		return "metric"
	default:
		return "unknown"
	}
}

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "column", "field":
		return KindColumn, nil
	case "expression":
		return KindExpression, nil
	case "segment":
		return KindSegment, nil
	case "metric":
		return KindMetric, nil
	}
	return 0, fmt.Errorf("unknown binding kind %q", s)
}

// BaseTypeBoolean is the base type of boolean columns.
const BaseTypeBoolean = "type/Boolean"

// Binding is the target of a resolved name.
type Binding struct {
	Kind Kind
	// ID identifies the column, segment or metric. Custom expressions are
	// identified by Name.
	ID       any
	Name     string
	BaseType string
}

// Encode returns the binding's IR reference encoding:
//
//	["field", id, {"base-type": t}]
//	["expression", name, {"base-type": t}]
//	["segment", id]
//	["metric", id]
func (b Binding) Encode() ir.Clause {
	switch b.Kind {
	case KindExpression:
		return ir.New(ir.KeywordExpression, b.Name, b.options())
	case KindSegment:
		return ir.New(ir.KeywordSegment, b.ID)
	case KindMetric:
		return ir.New(ir.KeywordMetric, b.ID)
	default:
		return ir.New(ir.KeywordField, b.ID, b.options())
	}
}

func (b Binding) options() any {
	if b.BaseType == "" {
		return nil
	}
	return ir.Options{ir.OptionBaseType: b.BaseType}
}

// IsBoolean reports whether the binding can stand alone as a filter.
func (b Binding) IsBoolean() bool {
	switch b.Kind {
	case KindSegment:
		return true
	case KindColumn, KindExpression:
		return b.BaseType == BaseTypeBoolean
	}
	return false
}

// Scope resolves a display name, already unescaped, to a binding.
type Scope interface {
	ResolveName(name string) (Binding, bool)
}

// Enumerator is implemented by scopes that can list their names, used for
// "did you mean" suggestions.
type Enumerator interface {
	Names() []string
}

// Namer is implemented by scopes that map a reference encoding back to a
// display name, used when decompiling.
type Namer interface {
	NameOf(kind Kind, id any) (string, bool)
}

// Func adapts a lookup function to Scope.
type Func func(name string) (Binding, bool)

func (f Func) ResolveName(name string) (Binding, bool) {
	return f(name)
}

// Empty resolves nothing.
var Empty Scope = Func(func(string) (Binding, bool) { return Binding{}, false })

// Static is an in-memory scope. Names are matched exactly (case-preserving).
type Static struct {
	byName map[string]Binding
	names  []string
}

// NewStatic builds a scope from bindings. A later binding with the same name
// replaces an earlier one.
func NewStatic(bindings ...Binding) *Static {
	s := &Static{byName: make(map[string]Binding, len(bindings))}
	for _, b := range bindings {
		s.add(b)
	}
	return s
}

func (s *Static) add(b Binding) {
	if _, exists := s.byName[b.Name]; !exists {
		s.names = append(s.names, b.Name)
	}
	s.byName[b.Name] = b
}

// Column returns a column binding.
func Column(name string, id any, baseType string) Binding {
	return Binding{Kind: KindColumn, ID: id, Name: name, BaseType: baseType}
}

// Expression returns a custom expression binding.
func Expression(name string, baseType string) Binding {
	return Binding{Kind: KindExpression, ID: name, Name: name, BaseType: baseType}
}

// Segment returns a segment binding.
func Segment(name string, id any) Binding {
	return Binding{Kind: KindSegment, ID: id, Name: name}
}

// Metric returns a metric binding.
func Metric(name string, id any) Binding {
	return Binding{Kind: KindMetric, ID: id, Name: name}
}

func (s *Static) ResolveName(name string) (Binding, bool) {
	b, ok := s.byName[name]
	return b, ok
}

// Names returns every bound name in sorted order.
func (s *Static) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	sort.Strings(out)
	return out
}

// NameOf finds the display name of a binding by kind and id. Ids are compared
// by their formatted value so 1 and 1.0 decoded from JSON match.
func (s *Static) NameOf(kind Kind, id any) (string, bool) {
	want := idKey(id)
	for _, name := range s.names {
		b := s.byName[name]
		if b.Kind != kind {
			continue
		}
		if kind == KindExpression && b.Name == fmt.Sprint(id) {
			return name, true
		}
		if idKey(b.ID) == want {
			return name, true
		}
	}
	return "", false
}

// Len returns the number of bindings.
func (s *Static) Len() int {
	return len(s.byName)
}
