// Package expr implements the arithmetic expression language accepted as input.
//
// The grammar is a small sandboxed subset of Python's numeric expressions:
// integer literals in base 10, 16 (0x), 8 (0o) and 2 (0b), float literals,
// the operators | ^ & << >> + - * / // % ** and unary - + ~, parentheses and
// calls to functions registered on a Parser. Nothing else is reachable from
// an expression.
//
// Integers are exact while the expression is evaluated as long as they stay
// within 128 bits, and the final result has to fit in 64 bits.
package expr

import (
	"sync"

	"storj.io/vcalc/value"
)

var evalStatePool = sync.Pool{New: func() any { return new(EvalState) }}

// Evaluator parses and evaluates text with the builtin functions. It is safe
// for concurrent use.
type Evaluator struct {
	parser Parser
}

func NewEvaluator() *Evaluator {
	e := new(Evaluator)
	SetBuiltins(&e.parser)
	return e
}

// Evaluate parses and runs text. Every error it returns matches ErrParse.
func (e *Evaluator) Evaluate(text string) (value.Value, error) {
	prog, err := e.parser.Parse(text)
	if err != nil {
		return value.Value{}, err
	}

	es := evalStatePool.Get().(*EvalState)
	defer evalStatePool.Put(es)

	return es.Evaluate(prog)
}
