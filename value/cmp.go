package value

import "math"

// Less compares two numeric values. Integers compare exactly with each other;
// any comparison involving a float happens in float64. ok is false if either
// side is empty or a float is NaN.
func Less(left, right Value) (b bool, ok bool) {
	switch uint64(left.Kind())<<8 | uint64(right.Kind()) {
	case uint64(KindInt)<<8 | uint64(KindInt):
		l, _ := left.Int()
		r, _ := right.Int()
		return l < r, true

	case uint64(KindUint)<<8 | uint64(KindUint):
		l, _ := left.Uint()
		r, _ := right.Uint()
		return l < r, true
	}

	if left.IsInteger() && right.IsInteger() {
		l, _ := left.BigInt()
		r, _ := right.BigInt()
		return l.Cmp(r) < 0, true
	}

	l, lok := left.Float64()
	r, rok := right.Float64()
	if !lok || !rok || math.IsNaN(l) || math.IsNaN(r) {
		return false, false
	}
	return l < r, true
}

// Equal reports if two values are numerically equal. An integer and a float
// are never equal because they render differently.
func Equal(left, right Value) bool {
	if left.Kind() == KindFloat || right.Kind() == KindFloat {
		l, lok := left.Float()
		r, rok := right.Float()
		return lok && rok && l == r
	}
	if left.IsEmpty() || right.IsEmpty() {
		return left.IsEmpty() && right.IsEmpty()
	}
	l, _ := left.BigInt()
	r, _ := right.BigInt()
	return l.Cmp(r) == 0
}
