// Package value holds the numeric result of evaluating an expression. A Value is
// either an integer (Int, Uint, or an intermediate Big) or a Float, and knows how
// to render itself the way the decimal view shows it.
package value

import (
	"math"
	"math/big"
)

type Kind uint8

const (
	KindEmpty Kind = iota
	KindInt
	KindUint
	KindFloat
	KindBig
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindBig:
		return "big"
	default:
		return "unknown"
	}
}

// Value is a tagged numeric value. The zero Value is empty.
type Value struct {
	kind Kind
	data uint64
	big  *big.Int
}

func Int(x int64) Value {
	return Value{kind: KindInt, data: uint64(x)}
}

func (v Value) Int() (x int64, ok bool) {
	ok = v.kind == KindInt
	if ok {
		x = int64(v.data)
	}
	return x, ok
}

func Uint(x uint64) Value {
	return Value{kind: KindUint, data: x}
}

func (v Value) Uint() (x uint64, ok bool) {
	ok = v.kind == KindUint
	if ok {
		x = v.data
	}
	return x, ok
}

func Float(x float64) Value {
	return Value{kind: KindFloat, data: math.Float64bits(x)}
}

func (v Value) Float() (x float64, ok bool) {
	ok = v.kind == KindFloat
	if ok {
		x = math.Float64frombits(v.data)
	}
	return x, ok
}

// Big returns an integer Value for x. Values that fit in an int64 or a uint64
// are stored as Int or Uint; only larger magnitudes keep the big representation.
// x is copied.
func Big(x *big.Int) Value {
	switch {
	case x == nil:
		return Value{}
	case x.IsInt64():
		return Int(x.Int64())
	case x.IsUint64():
		return Uint(x.Uint64())
	}
	return Value{kind: KindBig, big: new(big.Int).Set(x)}
}

func (v Value) Big() (x *big.Int, ok bool) {
	ok = v.kind == KindBig
	if ok {
		x = new(big.Int).Set(v.big)
	}
	return x, ok
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// IsInteger reports if the value has an integer kind. A Float is never an
// integer, even when it has no fractional part.
func (v Value) IsInteger() bool {
	switch v.kind {
	case KindInt, KindUint, KindBig:
		return true
	}
	return false
}

// Negative reports if the value is below zero.
func (v Value) Negative() bool {
	switch v.kind {
	case KindInt:
		return int64(v.data) < 0
	case KindFloat:
		return math.Float64frombits(v.data) < 0
	case KindBig:
		return v.big.Sign() < 0
	}
	return false
}

// Unsigned returns the value as a uint64 if it is a non-negative integer that
// fits in 64 bits.
func (v Value) Unsigned() (uint64, bool) {
	switch v.kind {
	case KindInt:
		if x := int64(v.data); x >= 0 {
			return uint64(x), true
		}
	case KindUint:
		return v.data, true
	case KindBig:
		if v.big.Sign() >= 0 && v.big.IsUint64() {
			return v.big.Uint64(), true
		}
	}
	return 0, false
}

// BigInt returns a fresh big.Int holding the value if it is an integer.
func (v Value) BigInt() (*big.Int, bool) {
	switch v.kind {
	case KindInt:
		return big.NewInt(int64(v.data)), true
	case KindUint:
		return new(big.Int).SetUint64(v.data), true
	case KindBig:
		return new(big.Int).Set(v.big), true
	}
	return nil, false
}

// Float64 converts any non-empty value to a float64, rounding large integers.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(int64(v.data)), true
	case KindUint:
		return float64(v.data), true
	case KindFloat:
		return math.Float64frombits(v.data), true
	case KindBig:
		f, _ := new(big.Float).SetInt(v.big).Float64()
		return f, true
	}
	return 0, false
}

func (v Value) AsAny() (x any) {
	switch v.kind {
	case KindInt:
		x, _ = v.Int()
	case KindUint:
		x, _ = v.Uint()
	case KindFloat:
		x, _ = v.Float()
	case KindBig:
		x, _ = v.Big()
	}
	return x
}
