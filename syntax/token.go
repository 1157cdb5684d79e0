package syntax

import (
	"fmt"
	"strings"
)

// TokenType 表示 Token 的类型
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenString
	TokenIdent
	// TokenName is a bracketed name such as [Created At].
	TokenName
	TokenOperator
	TokenPunctuation
	TokenKeyword
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of input"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenIdent:
		return "identifier"
	case TokenName:
		return "bracketed name"
	case TokenOperator:
		return "operator"
	case TokenPunctuation:
		return "punctuation"
	case TokenKeyword:
		return "keyword"
	default:
		return "unknown"
	}
}

// Keywords, matched case-insensitively and stored upper-case in Token.Value.
const (
	KeywordNot   = "NOT"
	KeywordAnd   = "AND"
	KeywordOr    = "OR"
	KeywordCase  = "CASE"
	KeywordIf    = "IF"
	KeywordTrue  = "TRUE"
	KeywordFalse = "FALSE"
)

var keywords = map[string]string{
	KeywordNot:   KeywordNot,
	KeywordAnd:   KeywordAnd,
	KeywordOr:    KeywordOr,
	KeywordCase:  KeywordCase,
	KeywordIf:    KeywordIf,
	KeywordTrue:  KeywordTrue,
	KeywordFalse: KeywordFalse,
}

// LookupKeyword 用于根据给定的标识符，返回其对应的关键字
func LookupKeyword(ident string) (string, bool) {
	kw, ok := keywords[strings.ToUpper(ident)]
	return kw, ok
}

// Position is a location in the source. Offset is a byte index; Line and
// Column are 1-based, Column counting runes.
type Position struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is the half-open source range [Start, End) of a token or node.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Cover returns the smallest span containing both s and o.
func (s Span) Cover(o Span) Span {
	out := s
	if o.Start.Offset < out.Start.Offset {
		out.Start = o.Start
	}
	if o.End.Offset > out.End.Offset {
		out.End = o.End
	}
	return out
}

// Token 是一个词法单元. Text is the raw source slice; Value is the decoded
// form (unescaped string or name, upper-case keyword, operator spelling).
type Token struct {
	Type  TokenType
	Text  string
	Value string
	Span  Span
}

// Is reports whether the token is an operator or punctuation spelled s.
func (t Token) Is(s string) bool {
	return (t.Type == TokenOperator || t.Type == TokenPunctuation) && t.Value == s
}

// IsKeyword reports whether the token is the keyword kw.
func (t Token) IsKeyword(kw string) bool {
	return t.Type == TokenKeyword && t.Value == kw
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return t.Type.String()
	}
	return fmt.Sprintf("%s %q", t.Type, t.Text)
}
