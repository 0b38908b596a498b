package expr

import (
	"errors"
	"fmt"

	"github.com/zeebo/errs/v2"

	"storj.io/vcalc/value"
)

var (
	// ErrParse is the class of every failure to turn text into a number.
	ErrParse = errors.New("parse error")

	// ErrOverflow is returned when an integer leaves the supported range.
	ErrOverflow = fmt.Errorf("%w: value out of range", ErrParse)

	// ErrDivideByZero is returned for /, // and % with a zero divisor.
	ErrDivideByZero = fmt.Errorf("%w: division by zero", ErrParse)
)

// EvalState runs compiled programs. It can be reused across programs but not
// concurrently.
type EvalState struct {
	stack    []value.Value
	args     []value.Value
	executed int
}

// Evaluate runs the program and returns its single result. Integer results
// must fit in an int64 or a uint64.
func (es *EvalState) Evaluate(p *Program) (value.Value, error) {
	es.stack = es.stack[:0]
	es.executed = 0

	for pc := uint(0); pc < uint(len(p.prog)); pc++ {
		i := p.prog[pc]
		es.executed++

		switch i.op {
		case instNop:

		case instPushNum:
			if int(i.arg) >= len(p.nums) {
				return value.Value{}, errs.Errorf("%w: invalid constant %d", ErrParse, i.arg)
			}
			es.Push(p.nums[i.arg])

		case instCall:
			fn, argc := i.arg>>8, int(i.arg&0xFF)
			if int(fn) >= len(p.parser.funcs) {
				return value.Value{}, errs.Errorf("%w: invalid function %d", ErrParse, fn)
			}
			args, ok := es.popN(argc)
			if !ok {
				return value.Value{}, errs.Errorf("%w: stack underflow", ErrParse)
			}
			out, err := p.parser.funcs[fn](es, args)
			if err != nil {
				return value.Value{}, err
			}
			es.Push(out)

		case instNeg, instPos, instInvert:
			x, ok := es.Pop()
			if !ok {
				return value.Value{}, errs.Errorf("%w: stack underflow", ErrParse)
			}
			out, err := unary(i.op, x)
			if err != nil {
				return value.Value{}, err
			}
			es.Push(out)

		default:
			right, rok := es.Pop()
			left, lok := es.Pop()
			if !lok || !rok {
				return value.Value{}, errs.Errorf("%w: stack underflow", ErrParse)
			}
			out, err := binary(i.op, left, right)
			if err != nil {
				return value.Value{}, err
			}
			es.Push(out)
		}
	}

	res, ok := es.Pop()
	if !ok || len(es.stack) != 0 {
		return value.Value{}, errs.Errorf("%w: malformed program", ErrParse)
	}
	if res.Kind() == value.KindBig {
		return value.Value{}, errs.Errorf("%w: %s", ErrOverflow, res.Format())
	}
	return res, nil
}

func (es *EvalState) Push(v value.Value) {
	es.stack = append(es.stack, v)
}

func (es *EvalState) Pop() (value.Value, bool) {
	if n := len(es.stack); n > 0 {
		v := es.stack[n-1]
		es.stack = es.stack[:n-1]
		return v, true
	}
	return value.Value{}, false
}

func (es *EvalState) Peek() (value.Value, bool) {
	if n := len(es.stack); n > 0 {
		return es.stack[n-1], true
	}
	return value.Value{}, false
}

// popN pops n values into a scratch slice in push order. The slice is only
// valid until the next call.
func (es *EvalState) popN(n int) ([]value.Value, bool) {
	if n > len(es.stack) {
		return nil, false
	}
	split := len(es.stack) - n
	es.args = append(es.args[:0], es.stack[split:]...)
	es.stack = es.stack[:split]
	return es.args, true
}
