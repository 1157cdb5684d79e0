package syntax

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer turns formula source into tokens. It reads runes so that columns in
// diagnostics line up with what the editor shows.
type Lexer struct {
	input   string
	pos     int // byte offset of ch
	readPos int
	ch      rune
	line    int
	column  int
	eof     bool
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

// Tokenize returns every token of source followed by a single TokenEOF, or
// the first lexical error.
func Tokenize(source string) ([]Token, error) {
	l := NewLexer(source)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// NextToken scans one token. Whitespace is skipped.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	start := l.position()

	switch l.ch {
	case 0:
		if l.pos >= len(l.input) {
			return Token{Type: TokenEOF, Span: Span{Start: start, End: start}}, nil
		}
	case ',', '(', ')':
		ch := string(l.ch)
		l.readChar()
		return l.token(TokenPunctuation, start, ch), nil
	case '+', '-', '*', '/', '=':
		ch := string(l.ch)
		l.readChar()
		return l.token(TokenOperator, start, ch), nil
	case '<', '>':
		op := string(l.ch)
		l.readChar()
		if l.ch == '=' {
			op += "="
			l.readChar()
		}
		return l.token(TokenOperator, start, op), nil
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return l.token(TokenOperator, start, "!="), nil
		}
	case '\'', '"':
		return l.readString(start)
	case '[':
		return l.readName(start)
	}

	if isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
		return l.readNumber(start)
	}

	if isIdentStart(l.ch) {
		ident := l.readIdentifier()
		tok := Token{Type: TokenIdent, Text: ident, Value: ident, Span: Span{Start: start, End: l.position()}}
		if kw, ok := LookupKeyword(ident); ok {
			tok.Type = TokenKeyword
			tok.Value = kw
		}
		return tok, nil
	}

	ch := string(l.ch)
	l.readChar()
	return Token{}, NewLexicalError(CodeInvalidCharacter,
		fmt.Sprintf("Invalid character %q", ch),
		Span{Start: start, End: l.position()}, ch)
}

func (l *Lexer) token(t TokenType, start Position, value string) Token {
	return Token{Type: t, Text: l.input[start.Offset:l.pos], Value: value, Span: Span{Start: start, End: l.position()}}
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPos >= len(l.input) {
		if !l.eof {
			l.column++
			l.eof = true
		}
		l.pos = len(l.input)
		l.ch = 0
		return
	}
	l.pos = l.readPos
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.readPos += size
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) position() Position {
	offset := l.pos
	if offset > len(l.input) {
		offset = len(l.input)
	}
	return Position{Offset: offset, Line: l.line, Column: l.column}
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) readIdentifier() string {
	pos := l.pos
	for isIdentPart(l.ch) && !l.atEnd() {
		l.readChar()
	}
	return l.input[pos:l.pos]
}

// readNumber reads an unsigned integer or decimal with an optional exponent.
// Signs are unary operators handled by the parser.
func (l *Lexer) readNumber(start Position) (Token, error) {
	pos := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			if !isDigit(l.ch) {
				return Token{}, NewLexicalError(CodeInvalidCharacter, "Missing exponent digits",
					Span{Start: start, End: l.position()}, l.input[pos:l.pos])
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	text := l.input[pos:l.pos]
	return Token{Type: TokenNumber, Text: text, Value: text, Span: Span{Start: start, End: l.position()}}, nil
}

// readString reads a quoted literal. Backslash escapes the next character;
// \n, \t, \r, \b and \f decode to control characters.
func (l *Lexer) readString(start Position) (Token, error) {
	quote := l.ch
	l.readChar() // 跳过开头引号

	var value strings.Builder
	for {
		if l.atEnd() {
			return Token{}, NewLexicalError(CodeUnterminatedString, "Missing closing quotes",
				Span{Start: start, End: l.position()}, string(quote))
		}
		if l.ch == quote {
			l.readChar()
			break
		}
		if l.ch == '\\' {
			l.readChar()
			if l.atEnd() {
				continue
			}
			value.WriteRune(unescape(l.ch))
			l.readChar()
			continue
		}
		value.WriteRune(l.ch)
		l.readChar()
	}

	return Token{
		Type:  TokenString,
		Text:  l.input[start.Offset:l.pos],
		Value: value.String(),
		Span:  Span{Start: start, End: l.position()},
	}, nil
}

// readName reads a bracketed name. Inside the brackets only \[, \] and \\ are
// escapes; any other backslash is kept literally.
func (l *Lexer) readName(start Position) (Token, error) {
	l.readChar() // skip [

	var value strings.Builder
	for {
		if l.atEnd() {
			return Token{}, NewLexicalError(CodeUnterminatedName, "Missing a closing bracket",
				Span{Start: start, End: l.position()}, "[")
		}
		if l.ch == ']' {
			l.readChar()
			break
		}
		if l.ch == '\\' {
			next := l.peekChar()
			if next == '[' || next == ']' || next == '\\' {
				l.readChar()
				value.WriteRune(l.ch)
				l.readChar()
				continue
			}
		}
		value.WriteRune(l.ch)
		l.readChar()
	}

	return Token{
		Type:  TokenName,
		Text:  l.input[start.Offset:l.pos],
		Value: value.String(),
		Span:  Span{Start: start, End: l.position()},
	}, nil
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() && unicode.IsSpace(l.ch) {
		l.readChar()
	}
}

func unescape(ch rune) rune {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	default:
		return ch
	}
}

// EscapeName quotes name as a bracketed reference, escaping brackets and
// backslashes.
func EscapeName(name string) string {
	var b strings.Builder
	b.WriteByte('[')
	for _, r := range name {
		if r == '[' || r == ']' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte(']')
	return b.String()
}

// QuoteString renders s as a single-quoted string literal.
func QuoteString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

// IsIdentifier reports whether s can be written as a bare identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if !isIdentPart(r) {
			return false
		}
	}
	_, kw := LookupKeyword(s)
	return !kw
}
