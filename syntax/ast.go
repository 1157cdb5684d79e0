package syntax

// Node is a formula syntax tree node. The set of implementations is closed:
// the unexported marker keeps other packages from adding variants, and Visit
// dispatches over exactly the variants that Visitor declares, so adding one
// breaks every consumer at compile time until it handles the new case.
type Node interface {
	Pos() Span
	node()
}

// LiteralType is the type inferred for a literal at parse time.
type LiteralType int

const (
	LiteralNumber LiteralType = iota
	LiteralString
	LiteralBoolean
)

func (t LiteralType) String() string {
	switch t {
	case LiteralNumber:
		return "number"
	case LiteralString:
		return "string"
	case LiteralBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// Literal is a number, string or boolean constant. Value holds a float64,
// string or bool. Signed marks a number that absorbed a unary minus at parse
// time; a further minus then builds a Unary node instead of folding again.
type Literal struct {
	Value  any
	Type   LiteralType
	Signed bool
	Span   Span
}

// Reference is a bare identifier or bracketed name to be bound by the scope.
// Name is already unescaped.
type Reference struct {
	Name      string
	Bracketed bool
	Span      Span
}

// Unary is a prefix operator: "-" (negate) or "NOT".
type Unary struct {
	Op      string
	Operand Node
	Span    Span
}

// Binary is an infix operator. Op is one of + - * / = != < <= > >= AND OR.
type Binary struct {
	Op    string
	Left  Node
	Right Node
	Span  Span
}

// Call is a function application. Args are the positional arguments; Trailing
// holds the arguments written after an empty slot (",,") which may only be
// option flags. Bare is set for zero-argument aggregations written without
// parentheses.
type Call struct {
	Name     string
	Args     []Node
	Trailing []Node
	Bare     bool
	Span     Span
}

// Clause is one (condition, result) arm of a conditional.
type Clause struct {
	Condition Node
	Result    Node
}

// Conditional is CASE(...) or IF(...). Default is nil when the argument list
// had no unpaired final argument.
type Conditional struct {
	Name    string
	Clauses []Clause
	Default Node
	Span    Span
}

// Group is a parenthesized sub-expression. It bounds operator flattening.
type Group struct {
	Inner Node
	Span  Span
}

func (n *Literal) Pos() Span     { return n.Span }
func (n *Reference) Pos() Span   { return n.Span }
func (n *Unary) Pos() Span       { return n.Span }
func (n *Binary) Pos() Span      { return n.Span }
func (n *Call) Pos() Span        { return n.Span }
func (n *Conditional) Pos() Span { return n.Span }
func (n *Group) Pos() Span       { return n.Span }

func (*Literal) node()     {}
func (*Reference) node()   {}
func (*Unary) node()       {}
func (*Binary) node()      {}
func (*Call) node()        {}
func (*Conditional) node() {}
func (*Group) node()       {}

// Visitor handles every node variant.
type Visitor[T any] interface {
	VisitLiteral(*Literal) (T, error)
	VisitReference(*Reference) (T, error)
	VisitUnary(*Unary) (T, error)
	VisitBinary(*Binary) (T, error)
	VisitCall(*Call) (T, error)
	VisitConditional(*Conditional) (T, error)
	VisitGroup(*Group) (T, error)
}

// Visit dispatches n to the matching Visitor method.
func Visit[T any](n Node, v Visitor[T]) (T, error) {
	switch n := n.(type) {
	case *Literal:
		return v.VisitLiteral(n)
	case *Reference:
		return v.VisitReference(n)
	case *Unary:
		return v.VisitUnary(n)
	case *Binary:
		return v.VisitBinary(n)
	case *Call:
		return v.VisitCall(n)
	case *Conditional:
		return v.VisitConditional(n)
	case *Group:
		return v.VisitGroup(n)
	}
	panic("syntax: unknown node type")
}

// Unwrap strips any number of enclosing groups.
func Unwrap(n Node) Node {
	for {
		g, ok := n.(*Group)
		if !ok {
			return n
		}
		n = g.Inner
	}
}
