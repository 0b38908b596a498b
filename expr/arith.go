package expr

import (
	"math"
	"math/big"

	"github.com/zeebo/errs/v2"

	"storj.io/vcalc/value"
)

func unary(op byte, x value.Value) (value.Value, error) {
	if n, ok := x.BigInt(); ok {
		switch op {
		case instNeg:
			return value.Big(n.Neg(n)), nil
		case instPos:
			return x, nil
		case instInvert:
			return value.Big(n.Not(n)), nil
		}
	}

	f, ok := x.Float64()
	if !ok {
		return value.Value{}, errs.Errorf("%w: missing operand", ErrParse)
	}
	switch op {
	case instNeg:
		return value.Float(-f), nil
	case instPos:
		return x, nil
	default:
		return value.Value{}, errs.Errorf("%w: bad operand type for %v: float", ErrParse, inst{op: op})
	}
}

func binary(op byte, left, right value.Value) (value.Value, error) {
	l, lok := left.BigInt()
	r, rok := right.BigInt()

	// true division always produces a float, like every operation that
	// involves a float.
	if lok && rok && op != instDiv {
		return binaryInt(op, l, r)
	}

	switch op {
	case instShl, instShr, instAnd, instOr, instXor:
		return value.Value{}, errs.Errorf("%w: unsupported operand type for %v: float", ErrParse, inst{op: op})
	}

	lf, lok := left.Float64()
	rf, rok := right.Float64()
	if !lok || !rok {
		return value.Value{}, errs.Errorf("%w: missing operand", ErrParse)
	}
	return binaryFloat(op, lf, rf)
}

func binaryInt(op byte, l, r *big.Int) (value.Value, error) {
	z := new(big.Int)

	switch op {
	case instAdd:
		z.Add(l, r)
	case instSub:
		z.Sub(l, r)
	case instMul:
		z.Mul(l, r)
	case instAnd:
		z.And(l, r)
	case instOr:
		z.Or(l, r)
	case instXor:
		z.Xor(l, r)

	case instFloorDiv, instMod:
		if r.Sign() == 0 {
			return value.Value{}, errs.Wrap(ErrDivideByZero)
		}
		q, m := floorDivMod(l, r)
		if op == instFloorDiv {
			z = q
		} else {
			z = m
		}

	case instShl, instShr:
		if r.Sign() < 0 {
			return value.Value{}, errs.Errorf("%w: negative shift count", ErrParse)
		}
		if op == instShr {
			if !r.IsInt64() || r.Int64() > maxBits {
				// everything has been shifted out; only the sign remains.
				if l.Sign() < 0 {
					return value.Int(-1), nil
				}
				return value.Int(0), nil
			}
			z.Rsh(l, uint(r.Int64()))
			break
		}
		if l.Sign() == 0 {
			return value.Int(0), nil
		}
		if !r.IsInt64() || r.Int64() > maxBits {
			return value.Value{}, errs.Errorf("%w: shift count %s", ErrOverflow, r)
		}
		z.Lsh(l, uint(r.Int64()))

	case instPow:
		if r.Sign() < 0 {
			lf, _ := new(big.Float).SetInt(l).Float64()
			rf, _ := new(big.Float).SetInt(r).Float64()
			return binaryFloat(op, lf, rf)
		}
		if l.CmpAbs(big.NewInt(1)) > 0 && (!r.IsInt64() || r.Int64() > maxBits) {
			return value.Value{}, errs.Errorf("%w: exponent %s", ErrOverflow, r)
		}
		if !r.IsInt64() {
			// |l| <= 1 so only the parity of the exponent matters.
			r = new(big.Int).And(r, big.NewInt(1))
			r.Add(r, big.NewInt(2))
		}
		z.Exp(l, r, nil)

	default:
		return value.Value{}, errs.Errorf("%w: unknown operator %v", ErrParse, inst{op: op})
	}

	if z.BitLen() > maxBits {
		return value.Value{}, errs.Errorf("%w: intermediate result too large", ErrOverflow)
	}
	return value.Big(z), nil
}

// floorDivMod divides rounding toward negative infinity so the modulus takes
// the sign of the divisor.
func floorDivMod(l, r *big.Int) (q, m *big.Int) {
	q, m = new(big.Int).QuoRem(l, r, new(big.Int))
	if m.Sign() != 0 && (m.Sign() < 0) != (r.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
		m.Add(m, r)
	}
	return q, m
}

func binaryFloat(op byte, l, r float64) (value.Value, error) {
	switch op {
	case instAdd:
		return value.Float(l + r), nil
	case instSub:
		return value.Float(l - r), nil
	case instMul:
		return value.Float(l * r), nil

	case instDiv, instFloorDiv, instMod:
		if r == 0 {
			return value.Value{}, errs.Wrap(ErrDivideByZero)
		}
		switch op {
		case instDiv:
			return value.Float(l / r), nil
		case instFloorDiv:
			return value.Float(math.Floor(l / r)), nil
		default:
			m := math.Mod(l, r)
			if m != 0 && (m < 0) != (r < 0) {
				m += r
			}
			return value.Float(m), nil
		}

	case instPow:
		if l == 0 && r < 0 {
			return value.Value{}, errs.Wrap(ErrDivideByZero)
		}
		z := math.Pow(l, r)
		finite := !math.IsInf(l, 0) && !math.IsInf(r, 0) && !math.IsNaN(l) && !math.IsNaN(r)
		switch {
		case finite && math.IsNaN(z):
			return value.Value{}, errs.Errorf("%w: math domain error", ErrParse)
		case finite && math.IsInf(z, 0):
			return value.Value{}, errs.Errorf("%w: float power", ErrOverflow)
		}
		return value.Float(z), nil

	default:
		return value.Value{}, errs.Errorf("%w: unknown operator %v", ErrParse, inst{op: op})
	}
}
