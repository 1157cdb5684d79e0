package syntax

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrorType 定义错误类型, one per pipeline stage.
type ErrorType int

const (
	ErrorTypeLexical ErrorType = iota
	ErrorTypeSyntax
	ErrorTypeResolution
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeLexical:
		return "LEXICAL_ERROR"
	case ErrorTypeSyntax:
		return "SYNTAX_ERROR"
	case ErrorTypeResolution:
		return "RESOLUTION_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Code identifies the specific failure within a stage.
type Code string

const (
	CodeInvalidCharacter   Code = "invalid-character"
	CodeUnterminatedString Code = "unterminated-string"
	CodeUnterminatedName   Code = "unterminated-bracket"
	CodeEmptyExpression    Code = "empty-expression"
	CodeUnexpectedToken    Code = "unexpected-token"
	CodeMissingToken       Code = "missing-token"
	CodeUnbalancedParen    Code = "unbalanced-paren"
	CodeTrailingComma      Code = "trailing-comma"
	CodeBareIdentifier     Code = "bare-identifier"
	CodeArity              Code = "arity"
	CodeUnknownReference   Code = "unknown-reference"
	CodeUnknownFunction    Code = "unknown-function"
	CodeInvalidContext     Code = "invalid-context"
	CodeInvalidArgument    Code = "invalid-argument"
)

// Sentinels for errors.Is; they match any *Error carrying the same code.
var (
	ErrInvalidCharacter   = &Error{Type: ErrorTypeLexical, Code: CodeInvalidCharacter}
	ErrUnterminatedString = &Error{Type: ErrorTypeLexical, Code: CodeUnterminatedString}
	ErrUnterminatedName   = &Error{Type: ErrorTypeLexical, Code: CodeUnterminatedName}
	ErrEmptyExpression    = &Error{Type: ErrorTypeSyntax, Code: CodeEmptyExpression}
	ErrUnexpectedToken    = &Error{Type: ErrorTypeSyntax, Code: CodeUnexpectedToken}
	ErrMissingToken       = &Error{Type: ErrorTypeSyntax, Code: CodeMissingToken}
	ErrUnbalancedParen    = &Error{Type: ErrorTypeSyntax, Code: CodeUnbalancedParen}
	ErrTrailingComma      = &Error{Type: ErrorTypeSyntax, Code: CodeTrailingComma}
	ErrBareIdentifier     = &Error{Type: ErrorTypeSyntax, Code: CodeBareIdentifier}
	ErrArity              = &Error{Type: ErrorTypeSyntax, Code: CodeArity}
	ErrUnknownReference   = &Error{Type: ErrorTypeResolution, Code: CodeUnknownReference}
	ErrUnknownFunction    = &Error{Type: ErrorTypeResolution, Code: CodeUnknownFunction}
	ErrInvalidContext     = &Error{Type: ErrorTypeResolution, Code: CodeInvalidContext}
	ErrInvalidArgument    = &Error{Type: ErrorTypeResolution, Code: CodeInvalidArgument}
)

// Error is the single diagnostic produced by any stage of the pipeline.
type Error struct {
	Type        ErrorType
	Code        Code
	Message     string
	Span        Span
	Token       string
	Expected    []string
	Suggestions []string
}

// Error 实现 error 接口
func (e *Error) Error() string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("[%s] %s", e.Type, e.Message))

	if e.Span.Start.Line > 0 && e.Span.Start.Column > 0 {
		builder.WriteString(fmt.Sprintf(" at line %d, column %d", e.Span.Start.Line, e.Span.Start.Column))
	}

	if e.Token != "" {
		builder.WriteString(fmt.Sprintf(" (found '%s')", e.Token))
	}

	if len(e.Expected) > 0 {
		builder.WriteString(fmt.Sprintf(", expected: %s", strings.Join(e.Expected, ", ")))
	}

	if len(e.Suggestions) > 0 {
		builder.WriteString(fmt.Sprintf("\nSuggestions: %s", strings.Join(e.Suggestions, "; ")))
	}

	return builder.String()
}

// Is matches sentinel errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithSuggestions returns a copy of e carrying hints.
func (e *Error) WithSuggestions(hints ...string) *Error {
	cp := *e
	cp.Suggestions = append(append([]string(nil), e.Suggestions...), hints...)
	return &cp
}

// NewLexicalError 创建词法错误
func NewLexicalError(code Code, message string, span Span, char string) *Error {
	return &Error{
		Type:    ErrorTypeLexical,
		Code:    code,
		Message: message,
		Span:    span,
		Token:   char,
	}
}

// NewSyntaxError 创建语法错误
func NewSyntaxError(code Code, message string, tok Token, expected ...string) *Error {
	return &Error{
		Type:     ErrorTypeSyntax,
		Code:     code,
		Message:  message,
		Span:     tok.Span,
		Token:    tok.Text,
		Expected: expected,
	}
}

// NewResolutionError reports a failure binding or validating a node.
func NewResolutionError(code Code, message string, span Span, token string) *Error {
	return &Error{
		Type:    ErrorTypeResolution,
		Code:    code,
		Message: message,
		Span:    span,
		Token:   token,
	}
}

// FormatErrorContext 格式化错误上下文: the source around offset with a caret
// under it.
func FormatErrorContext(input string, position int, contextLength int) string {
	if position < 0 || position > len(input) {
		return ""
	}

	start := position - contextLength
	if start < 0 {
		start = 0
	}

	end := position + contextLength
	if end > len(input) {
		end = len(input)
	}
	// 不截断多字节字符
	for start > 0 && !utf8.RuneStart(input[start]) {
		start--
	}
	for end < len(input) && !utf8.RuneStart(input[end]) {
		end++
	}

	context := input[start:end]
	pointer := strings.Repeat(" ", len([]rune(input[start:position]))) + "^"

	return fmt.Sprintf("%s\n%s", context, pointer)
}
