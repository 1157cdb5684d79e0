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

package formula

import (
	"errors"

	"github.com/rulego/formula/emit"
	"github.com/rulego/formula/format"
	"github.com/rulego/formula/functions"
	"github.com/rulego/formula/ir"
	"github.com/rulego/formula/logger"
	"github.com/rulego/formula/resolve"
	"github.com/rulego/formula/scope"
	"github.com/rulego/formula/syntax"
)

// Compiler 是公式编译器的主要接口。
// It runs Lexer → Parser → Resolver → Emitter and holds only immutable
// configuration, so one Compiler may serve concurrent compilations.
//
// 使用示例:
//
//	c := formula.New(formula.WithLogLevel(logger.DEBUG))
//	clause, err := c.Compile("[Total] * 2", syntax.RuleExpression, sc)
type Compiler struct {
	registry    *functions.Registry
	log         logger.Logger
	ownLog      bool // false while log is the process default
	suggestions int
}

// New 创建一个新的编译器实例。
func New(options ...Option) *Compiler {
	c := &Compiler{
		registry:    functions.Default(),
		log:         logger.GetDefault(),
		suggestions: resolve.DefaultSuggestions,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

var defaultCompiler = New()

// Compile compiles source with the default compiler.
func Compile(source string, rule syntax.StartRule, sc scope.Scope) (ir.Clause, error) {
	return defaultCompiler.Compile(source, rule, sc)
}

// Compile 编译公式. On failure the error is a *syntax.Error and no clause is
// returned.
func (c *Compiler) Compile(source string, rule syntax.StartRule, sc scope.Scope) (ir.Clause, error) {
	tokens, err := syntax.Tokenize(source)
	if err != nil {
		c.log.Debug("lex failed: %v", err)
		return nil, err
	}
	c.log.Debug("lexed %d tokens", len(tokens)-1)

	node, err := syntax.NewParser(tokens, rule, c.registry).Parse()
	if err != nil {
		c.log.Debug("parse failed under %s rule: %v", rule, err)
		return nil, err
	}

	resolved, err := resolve.New(sc, rule,
		resolve.WithRegistry(c.registry),
		resolve.WithSuggestions(c.suggestions),
	).Resolve(node)
	if err != nil {
		c.log.Debug("resolve failed under %s rule: %v", rule, err)
		return nil, err
	}

	clause := emit.Emit(resolved)
	if c.log.Enabled(logger.DEBUG) {
		c.log.Debug("compiled %q under %s rule to %s", source, rule, clause)
	}
	return clause, nil
}

// Request is one compilation.
type Request struct {
	Source string
	Rule   syntax.StartRule
	Scope  scope.Scope
}

// Result carries exactly one of Expression or Error.
type Result struct {
	Expression ir.Clause   `json:"expression,omitempty"`
	Error      *Diagnostic `json:"error,omitempty"`
}

// Diagnostic is the serializable form of a compilation failure.
type Diagnostic struct {
	Message     string          `json:"message"`
	Type        string          `json:"type"`
	Code        syntax.Code     `json:"code"`
	Position    syntax.Position `json:"position"`
	Span        syntax.Span     `json:"span"`
	Token       string          `json:"token,omitempty"`
	Expected    []string        `json:"expected,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
}

// NewDiagnostic converts err. Errors that did not come from the compiler are
// reported without a code or position.
func NewDiagnostic(err error) *Diagnostic {
	var e *syntax.Error
	if !errors.As(err, &e) {
		return &Diagnostic{Message: err.Error()}
	}
	return &Diagnostic{
		Message:     e.Message,
		Type:        e.Type.String(),
		Code:        e.Code,
		Position:    e.Span.Start,
		Span:        e.Span,
		Token:       e.Token,
		Expected:    e.Expected,
		Suggestions: e.Suggestions,
	}
}

// CompileExpression compiles req into a Result instead of an error return.
func (c *Compiler) CompileExpression(req Request) Result {
	clause, err := c.Compile(req.Source, req.Rule, req.Scope)
	if err != nil {
		return Result{Error: NewDiagnostic(err)}
	}
	return Result{Expression: clause}
}

// Format renders clause back to formula source using the compiler's function
// table. namer maps column, segment and metric ids back to names.
func (c *Compiler) Format(clause ir.Clause, namer scope.Namer) (string, error) {
	return format.New(namer, c.registry).Format(clause)
}

// Functions lists the compiler's function table.
func (c *Compiler) Functions() []*functions.Function {
	return c.registry.List()
}
