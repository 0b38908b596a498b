package value

import (
	"math"
	"strconv"
	"strings"
)

// Format renders the value for the decimal view. Integers are rendered in base
// 10. Floats follow the shortest round-tripping form used by Python's str():
// they always carry a decimal point or an exponent so that 3.0 is
// distinguishable from 3.
func (v Value) Format() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(int64(v.data), 10)
	case KindUint:
		return strconv.FormatUint(v.data, 10)
	case KindBig:
		return v.big.String()
	case KindFloat:
		return formatFloat(math.Float64frombits(v.data))
	}
	return ""
}

// FormatBase renders a non-negative 64-bit integer value in the given base with
// upper case digits. It returns false for anything else.
func (v Value) FormatBase(base int) (string, bool) {
	u, ok := v.Unsigned()
	if !ok {
		return "", false
	}
	return strings.ToUpper(strconv.FormatUint(u, base)), true
}

func (v Value) String() string { return v.Format() }

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	// the shortest digits in exponent form tell us where the decimal point lands.
	exp := strconv.FormatFloat(f, 'e', -1, 64)
	idx := strings.LastIndexByte(exp, 'e')
	e, err := strconv.Atoi(exp[idx+1:])
	if err != nil {
		return exp
	}

	if point := e + 1; point <= -4 || point > 16 {
		return exp
	}

	out := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(out, '.') {
		out += ".0"
	}
	return out
}
