// Package emit lowers a resolved formula to the nested-array IR.
package emit

import (
	"github.com/rulego/formula/ir"
	"github.com/rulego/formula/resolve"
)

// associative operators are flattened into one n-ary clause when chained
// without parentheses.
var associative = map[string]bool{
	"+":   true,
	"*":   true,
	"and": true,
	"or":  true,
}

// IsAssociative reports whether chains of op are emitted n-ary.
func IsAssociative(op string) bool {
	return associative[op]
}

// Emit lowers e. A literal at the top wraps as ["value", v, null]; literals
// nested in a clause stay raw.
func Emit(e resolve.Expr) ir.Clause {
	out := resolve.Visit[any](e, emitter{})
	if c, ok := out.(ir.Clause); ok {
		return c
	}
	return ir.Value(out)
}

type emitter struct{}

func (v emitter) lower(e resolve.Expr) any {
	return resolve.Visit[any](e, v)
}

func (v emitter) VisitValue(e *resolve.Value) any {
	return e.Value
}

func (v emitter) VisitRef(e *resolve.Ref) any {
	return e.Binding.Encode()
}

func (v emitter) VisitNegate(e *resolve.Negate) any {
	return ir.New(ir.KeywordNegate, v.lower(e.Operand))
}

func (v emitter) VisitNot(e *resolve.Not) any {
	return ir.New(ir.KeywordNot, v.lower(e.Operand))
}

func (v emitter) VisitOperator(e *resolve.Operator) any {
	if !associative[e.Op] {
		return ir.New(e.Op, v.lower(e.Left), v.lower(e.Right))
	}
	return ir.New(e.Op, v.chain(e)...)
}

// chain collects the operands of a left-nested run of e.Op. A group, or an
// operator change, ends the run.
func (v emitter) chain(e *resolve.Operator) []any {
	var operands []any
	if left, ok := e.Left.(*resolve.Operator); ok && left.Op == e.Op {
		operands = v.chain(left)
	} else {
		operands = []any{v.lower(e.Left)}
	}
	return append(operands, v.lower(e.Right))
}

func (v emitter) VisitApply(e *resolve.Apply) any {
	out := ir.New(e.Keyword())
	if e.Placement == resolve.OptionsLeading {
		out = append(out, options(e.Options))
	}
	for _, arg := range e.Args {
		out = append(out, v.lower(arg))
	}
	if e.Placement == resolve.OptionsTrailing {
		out = append(out, options(e.Options))
	}
	return out
}

func options(o ir.Options) ir.Options {
	if o == nil {
		return ir.Options{}
	}
	return o
}

func (v emitter) VisitConditional(e *resolve.Conditional) any {
	pairs := make([]ir.Pair, len(e.Cases))
	for i, c := range e.Cases {
		pairs[i] = ir.Pair{v.lower(c.When), v.lower(c.Then)}
	}
	opts := ir.Options{}
	if e.Default != nil {
		opts[ir.OptionDefault] = v.lower(e.Default)
	}
	return ir.New(e.Keyword, pairs, opts)
}

func (v emitter) VisitGroup(e *resolve.Group) any {
	return v.lower(e.Inner)
}
