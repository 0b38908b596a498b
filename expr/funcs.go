package expr

import (
	"math"
	"math/big"
	"strconv"

	"github.com/zeebo/errs/v2"

	"storj.io/vcalc/value"
)

type Funcs struct{}

func SetBuiltins(p *Parser) {
	p.SetFunction("abs", Funcs{}.Abs)
	p.SetFunction("int", Funcs{}.Int)
	p.SetFunction("float", Funcs{}.Float)
	p.SetFunction("round", Funcs{}.Round)
	p.SetFunction("min", Funcs{}.Min)
	p.SetFunction("max", Funcs{}.Max)
	p.SetFunction("pow", Funcs{}.Pow)
}

func (Funcs) Abs(es *EvalState, args []value.Value) (value.Value, error) {
	if err := wantArgs("abs", args, 1, 1); err != nil {
		return value.Value{}, err
	}
	if args[0].Negative() {
		return unary(instNeg, args[0])
	}
	return args[0], nil
}

// Int truncates floats toward zero.
func (Funcs) Int(es *EvalState, args []value.Value) (value.Value, error) {
	if err := wantArgs("int", args, 1, 1); err != nil {
		return value.Value{}, err
	}
	if args[0].IsInteger() {
		return args[0], nil
	}
	f, _ := args[0].Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return value.Value{}, errs.Errorf("%w: cannot convert %s to integer", ErrParse, args[0].Format())
	}
	n, _ := big.NewFloat(math.Trunc(f)).Int(nil)
	if n.BitLen() > maxBits {
		return value.Value{}, errs.Errorf("%w: %s", ErrOverflow, args[0].Format())
	}
	return value.Big(n), nil
}

func (Funcs) Float(es *EvalState, args []value.Value) (value.Value, error) {
	if err := wantArgs("float", args, 1, 1); err != nil {
		return value.Value{}, err
	}
	f, _ := args[0].Float64()
	return value.Float(f), nil
}

// Round rounds half to even. With one argument the result is an integer, with
// a number of digits it keeps the kind of its input.
func (f Funcs) Round(es *EvalState, args []value.Value) (value.Value, error) {
	if err := wantArgs("round", args, 1, 2); err != nil {
		return value.Value{}, err
	}
	x := args[0]

	if len(args) == 1 {
		if x.IsInteger() {
			return x, nil
		}
		fl, _ := x.Float64()
		return f.Int(es, []value.Value{value.Float(math.RoundToEven(fl))})
	}

	digits, ok := args[1].Int()
	if !ok {
		return value.Value{}, errs.Errorf("%w: round digits must be an integer", ErrParse)
	}

	if x.IsInteger() {
		if digits >= 0 {
			return x, nil
		}
		n, _ := x.BigInt()
		if digits < -maxBits {
			return value.Int(0), nil
		}
		unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(-digits), nil)
		q, m := floorDivMod(n, unit)
		// round half to even on the quotient
		switch c := new(big.Int).Lsh(m, 1).Cmp(unit); {
		case c > 0, c == 0 && q.Bit(0) == 1:
			q.Add(q, big.NewInt(1))
		}
		return value.Big(q.Mul(q, unit)), nil
	}

	fl, _ := x.Float64()
	if digits > 308 || math.IsInf(fl, 0) || math.IsNaN(fl) {
		return x, nil
	}
	if digits < -308 {
		return value.Float(math.Copysign(0, fl)), nil
	}
	if digits < 0 {
		scale := math.Pow(10, float64(-digits))
		return value.Float(math.RoundToEven(fl/scale) * scale), nil
	}
	// decimal formatting rounds the exact binary value, so 2.675 is 2.67.
	r, err := strconv.ParseFloat(strconv.FormatFloat(fl, 'f', int(digits), 64), 64)
	if err != nil {
		return value.Value{}, errs.Errorf("%w: %s", ErrOverflow, x.Format())
	}
	return value.Float(r), nil
}

func (Funcs) Min(es *EvalState, args []value.Value) (value.Value, error) {
	return pick("min", args, func(cand, best value.Value) bool {
		less, ok := value.Less(cand, best)
		return less && ok
	})
}

func (Funcs) Max(es *EvalState, args []value.Value) (value.Value, error) {
	return pick("max", args, func(cand, best value.Value) bool {
		less, ok := value.Less(best, cand)
		return less && ok
	})
}

// Pow is the ** operator with an optional integer modulus.
func (Funcs) Pow(es *EvalState, args []value.Value) (value.Value, error) {
	if err := wantArgs("pow", args, 2, 3); err != nil {
		return value.Value{}, err
	}
	if len(args) == 2 {
		return binary(instPow, args[0], args[1])
	}

	b, bok := args[0].BigInt()
	e, eok := args[1].BigInt()
	m, mok := args[2].BigInt()
	switch {
	case !bok || !eok || !mok:
		return value.Value{}, errs.Errorf("%w: pow with a modulus requires integers", ErrParse)
	case e.Sign() < 0:
		return value.Value{}, errs.Errorf("%w: pow with a modulus requires a non-negative exponent", ErrParse)
	case m.Sign() == 0:
		return value.Value{}, errs.Wrap(ErrDivideByZero)
	}

	abs := new(big.Int).Abs(m)
	z := new(big.Int).Exp(new(big.Int).Mod(b, abs), e, abs)
	if m.Sign() < 0 && z.Sign() != 0 {
		z.Add(z, m)
	}
	return value.Big(z), nil
}

func wantArgs(name string, args []value.Value, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		if lo == hi {
			return errs.Errorf("%w: %s expects %d argument(s), got %d", ErrParse, name, lo, len(args))
		}
		return errs.Errorf("%w: %s expects %d to %d arguments, got %d", ErrParse, name, lo, hi, len(args))
	}
	return nil
}

func pick(name string, args []value.Value, better func(cand, best value.Value) bool) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, errs.Errorf("%w: %s expects at least 1 argument", ErrParse, name)
	}
	best := args[0]
	for _, cand := range args[1:] {
		if better(cand, best) {
			best = cand
		}
	}
	return best, nil
}
