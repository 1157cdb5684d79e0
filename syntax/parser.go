package syntax

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/rulego/formula/functions"
)

// Parser is a recursive-descent parser over a token slice. Binding power from
// loosest to tightest:
//
//	OR < AND < NOT < comparison < + - < * / < unary sign < primary
type Parser struct {
	tokens   []Token
	pos      int
	rule     StartRule
	registry *functions.Registry
}

// NewParser returns a parser for tokens under rule. A nil registry selects the
// built-in function table.
func NewParser(tokens []Token, rule StartRule, registry *functions.Registry) *Parser {
	if registry == nil {
		registry = functions.Default()
	}
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != TokenEOF {
		var end Span
		if len(tokens) > 0 {
			last := tokens[len(tokens)-1].Span.End
			end = Span{Start: last, End: last}
		}
		tokens = append(tokens, Token{Type: TokenEOF, Span: end})
	}
	return &Parser{tokens: tokens, rule: rule, registry: registry}
}

// Parse parses tokens under rule with the built-in function table.
func Parse(tokens []Token, rule StartRule) (Node, error) {
	return NewParser(tokens, rule, nil).Parse()
}

// ParseString tokenizes and parses source.
func ParseString(source string, rule StartRule) (Node, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, rule)
}

// Parse parses a complete formula. Any token left over is an error.
func (p *Parser) Parse() (Node, error) {
	if p.peek().Type == TokenEOF {
		return nil, NewSyntaxError(CodeEmptyExpression, "Expression is empty", p.peek())
	}

	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.Type != TokenEOF {
		if tok.Is(")") {
			return nil, NewSyntaxError(CodeUnbalancedParen, "Unexpected closing parenthesis", tok)
		}
		return nil, NewSyntaxError(CodeUnexpectedToken, fmt.Sprintf("Unexpected %s", tok), tok)
	}
	return node, nil
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().IsKeyword(KeywordOr) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: KeywordOr, Left: left, Right: right, Span: left.Pos().Cover(right.Pos())}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().IsKeyword(KeywordAnd) {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: KeywordAnd, Left: left, Right: right, Span: left.Pos().Cover(right.Pos())}
	}
	return left, nil
}

func (p *Parser) parseNot() (Node, error) {
	if tok := p.peek(); tok.IsKeyword(KeywordNot) {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: KeywordNot, Operand: operand, Span: tok.Span.Cover(operand.Pos())}, nil
	}
	return p.parseComparison()
}

func isComparison(tok Token) bool {
	if tok.Type != TokenOperator {
		return false
	}
	switch tok.Value {
	case "=", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

func (p *Parser) parseComparison() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for isComparison(p.peek()) {
		op := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op.Value, Left: left, Right: right, Span: left.Pos().Cover(right.Pos())}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().Is("+") || p.peek().Is("-") {
		op := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op.Value, Left: left, Right: right, Span: left.Pos().Cover(right.Pos())}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().Is("*") || p.peek().Is("/") {
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op.Value, Left: left, Right: right, Span: left.Pos().Cover(right.Pos())}
	}
	return left, nil
}

// parseUnary handles sign prefixes. "+" is always dropped. "-" folds into an
// unsigned number literal; applied to anything else, including a literal that
// already absorbed a minus, it builds a negate node. Hence "-+8" is -8 while
// "--5" is a negation of -5.
func (p *Parser) parseUnary() (Node, error) {
	tok := p.peek()
	if !tok.Is("+") && !tok.Is("-") {
		return p.parsePrimary()
	}
	p.advance()

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	span := tok.Span.Cover(operand.Pos())

	if tok.Value == "+" {
		return operand, nil
	}

	if lit, ok := operand.(*Literal); ok && lit.Type == LiteralNumber && !lit.Signed {
		return &Literal{Value: -lit.Value.(float64), Type: LiteralNumber, Signed: true, Span: span}, nil
	}
	return &Unary{Op: "-", Operand: operand, Span: span}, nil
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.peek()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		f, err := cast.ToFloat64E(tok.Value)
		if err != nil {
			return nil, NewSyntaxError(CodeUnexpectedToken, fmt.Sprintf("Invalid number %s", tok.Text), tok)
		}
		return &Literal{Value: f, Type: LiteralNumber, Span: tok.Span}, nil

	case TokenString:
		p.advance()
		return &Literal{Value: tok.Value, Type: LiteralString, Span: tok.Span}, nil

	case TokenName:
		p.advance()
		if tok.Value == "" {
			return nil, NewSyntaxError(CodeMissingToken, "Missing a name inside the brackets", tok)
		}
		return &Reference{Name: tok.Value, Bracketed: true, Span: tok.Span}, nil

	case TokenIdent:
		if p.peekAt(1).Is("(") {
			return p.parseCall()
		}
		p.advance()
		return p.parseBare(tok)

	case TokenKeyword:
		switch tok.Value {
		case KeywordTrue, KeywordFalse:
			p.advance()
			return &Literal{Value: tok.Value == KeywordTrue, Type: LiteralBoolean, Span: tok.Span}, nil
		case KeywordCase, KeywordIf:
			return p.parseConditional()
		}

	case TokenPunctuation:
		if tok.Is("(") {
			return p.parseGroup()
		}
		if tok.Is(")") {
			return nil, NewSyntaxError(CodeUnexpectedToken, "Expected expression", tok)
		}

	case TokenEOF:
		return nil, NewSyntaxError(CodeMissingToken, "Unexpected end of input, expected expression", tok)
	}

	return nil, NewSyntaxError(CodeUnexpectedToken, fmt.Sprintf("Unexpected %s", tok), tok)
}

// parseBare resolves an identifier written without parentheses. Zero-argument
// aggregations are calls, legal only in aggregation mode; everything else is a
// reference.
func (p *Parser) parseBare(tok Token) (Node, error) {
	if fn, ok := p.registry.Get(tok.Value); ok && fn.AllowsBare() {
		if p.rule != RuleAggregation {
			return nil, NewSyntaxError(CodeBareIdentifier,
				fmt.Sprintf("%s is an aggregation and is only allowed in aggregation formulas", tok.Value), tok)
		}
		return &Call{Name: tok.Value, Bare: true, Span: tok.Span}, nil
	}
	return &Reference{Name: tok.Value, Span: tok.Span}, nil
}

func (p *Parser) parseGroup() (Node, error) {
	open := p.advance()
	if p.peek().Is(")") {
		return nil, NewSyntaxError(CodeUnexpectedToken, "Expected expression inside parentheses", p.peek())
	}
	inner, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	closing := p.peek()
	if !closing.Is(")") {
		if closing.Type == TokenEOF {
			return nil, NewSyntaxError(CodeUnbalancedParen, "Expecting a closing parenthesis", open, ")")
		}
		return nil, NewSyntaxError(CodeUnexpectedToken, fmt.Sprintf("Unexpected %s", closing), closing, ")")
	}
	p.advance()
	return &Group{Inner: inner, Span: open.Span.Cover(closing.Span)}, nil
}

// argumentList is the parsed content of a parenthesized call.
type argumentList struct {
	args        []Node
	trailing    []Node
	placeholder *Token
	span        Span
}

func (a argumentList) count() int {
	return len(a.args) + len(a.trailing)
}

// parseArguments parses "(" [arg {"," arg} [",," flag {"," flag}]] ")".
func (p *Parser) parseArguments() (argumentList, error) {
	var list argumentList

	open := p.advance()
	list.span = open.Span
	if closing := p.peek(); closing.Is(")") {
		p.advance()
		list.span = open.Span.Cover(closing.Span)
		return list, nil
	}

	for {
		arg, err := p.parseOr()
		if err != nil {
			return list, err
		}
		if list.placeholder != nil {
			list.trailing = append(list.trailing, arg)
		} else {
			list.args = append(list.args, arg)
		}

		tok := p.peek()
		if tok.Is(")") {
			p.advance()
			list.span = open.Span.Cover(tok.Span)
			return list, nil
		}
		if !tok.Is(",") {
			if tok.Type == TokenEOF {
				return list, NewSyntaxError(CodeUnbalancedParen, "Expecting a closing parenthesis", open, ")")
			}
			return list, NewSyntaxError(CodeUnexpectedToken, fmt.Sprintf("Unexpected %s", tok), tok, ",", ")")
		}
		p.advance()

		if next := p.peek(); next.Is(",") {
			if list.placeholder != nil {
				return list, NewSyntaxError(CodeUnexpectedToken, "Unexpected empty argument", next)
			}
			p.advance()
			list.placeholder = &next
		}

		if next := p.peek(); next.Is(")") {
			return list, NewSyntaxError(CodeTrailingComma, "Unexpected trailing comma", next)
		}
	}
}

func (p *Parser) parseCall() (Node, error) {
	name := p.advance()
	list, err := p.parseArguments()
	if err != nil {
		return nil, err
	}

	if fn, ok := p.registry.Get(name.Value); ok {
		if list.placeholder != nil && !fn.HasFlags() {
			return nil, NewSyntaxError(CodeUnexpectedToken,
				fmt.Sprintf("Function %s does not accept an empty argument", fn.Name), *list.placeholder)
		}
		if err := p.checkArity(fn, name, list); err != nil {
			return nil, err
		}
	}

	return &Call{
		Name:     name.Value,
		Args:     list.args,
		Trailing: list.trailing,
		Span:     name.Span.Cover(list.span),
	}, nil
}

// checkArity bounds the positional count from below and the full count from
// above, so option flags never stand in for required arguments.
func (p *Parser) checkArity(fn *functions.Function, name Token, list argumentList) error {
	count := list.count()
	if len(list.args) < fn.MinArgs {
		count = len(list.args)
	}
	if err := fn.ValidateArgCount(count); err != nil {
		e := NewSyntaxError(CodeArity, err.Error(), name)
		e.Span = name.Span.Cover(list.span)
		return e
	}
	return nil
}

// parseConditional parses CASE(...) and IF(...): arguments pair up as
// (condition, result) and an unpaired final argument is the default.
func (p *Parser) parseConditional() (Node, error) {
	kw := p.advance()
	if !p.peek().Is("(") {
		return nil, NewSyntaxError(CodeMissingToken,
			fmt.Sprintf("Expecting an opening parenthesis after %s", kw.Text), p.peek(), "(")
	}
	list, err := p.parseArguments()
	if err != nil {
		return nil, err
	}
	if list.placeholder != nil {
		return nil, NewSyntaxError(CodeUnexpectedToken,
			fmt.Sprintf("%s does not accept an empty argument", kw.Text), *list.placeholder)
	}
	if fn, ok := p.registry.Get(kw.Value); ok {
		if err := p.checkArity(fn, kw, list); err != nil {
			return nil, err
		}
	}

	cond := &Conditional{Name: kw.Value, Span: kw.Span.Cover(list.span)}
	args := list.args
	for len(args) >= 2 {
		cond.Clauses = append(cond.Clauses, Clause{Condition: args[0], Result: args[1]})
		args = args[2:]
	}
	if len(args) == 1 {
		cond.Default = args[0]
	}
	return cond, nil
}
