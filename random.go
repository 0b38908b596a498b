package vcalc

import (
	"math"
	"math/bits"

	"github.com/zeebo/errs/v2"
	"github.com/zeebo/mwc"

	"storj.io/vcalc/value"
)

// Source produces uniformly distributed random numbers.
type Source interface {
	Uint64() uint64
	Float64() float64 // in [0, 1)
}

type mwcSource struct{}

func (mwcSource) Uint64() uint64   { return mwc.Uint64() }
func (mwcSource) Float64() float64 { return mwc.Float64() }

// RandomInteger evaluates both bounds and returns an integer drawn uniformly
// from [low, high]. The bounds must be integers that fit in an int64.
func (s *Sync) RandomInteger(low, high string) (value.Value, error) {
	lo, err := s.intBound("low", low)
	if err != nil {
		return value.Value{}, err
	}
	hi, err := s.intBound("high", high)
	if err != nil {
		return value.Value{}, err
	}
	if lo > hi {
		return value.Value{}, errs.Errorf("%w: %d > %d", ErrInvalidRange, lo, hi)
	}

	// the span wraps to zero only for the full int64 range.
	span := uint64(hi) - uint64(lo) + 1
	if span == 0 {
		return value.Int(int64(s.source.Uint64())), nil
	}
	return value.Int(lo + int64(uniform(s.source, span))), nil
}

// RandomReal evaluates both bounds and returns a float drawn uniformly from
// [low, high), or low when the bounds are equal.
func (s *Sync) RandomReal(low, high string) (value.Value, error) {
	lo, err := s.floatBound("low", low)
	if err != nil {
		return value.Value{}, err
	}
	hi, err := s.floatBound("high", high)
	if err != nil {
		return value.Value{}, err
	}
	if lo > hi {
		return value.Value{}, errs.Errorf("%w: %v > %v", ErrInvalidRange, lo, hi)
	}
	if lo == hi {
		return value.Float(lo), nil
	}

	// interpolate instead of scaling hi-lo, which overflows for wide bounds.
	f := s.source.Float64()
	x := lo*(1-f) + hi*f
	if x >= hi {
		x = math.Nextafter(hi, lo)
	}
	return value.Float(x), nil
}

func (s *Sync) intBound(name, text string) (int64, error) {
	v, err := s.eval.Evaluate(text)
	if err != nil {
		return 0, errs.Errorf("%w: %s bound: %w", ErrInvalidRange, name, err)
	}
	n, ok := v.Int()
	if !ok {
		return 0, errs.Errorf("%w: %s bound %s is not a 64 bit integer", ErrInvalidRange, name, v.Format())
	}
	return n, nil
}

func (s *Sync) floatBound(name, text string) (float64, error) {
	v, err := s.eval.Evaluate(text)
	if err != nil {
		return 0, errs.Errorf("%w: %s bound: %w", ErrInvalidRange, name, err)
	}
	f, ok := v.Float64()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errs.Errorf("%w: %s bound %s is not finite", ErrInvalidRange, name, v.Format())
	}
	return f, nil
}

// uniform returns a number in [0, n) without modulo bias using Lemire's
// multiply and reject method.
func uniform(src Source, n uint64) uint64 {
	hi, lo := bits.Mul64(src.Uint64(), n)
	if lo < n {
		thresh := -n % n
		for lo < thresh {
			hi, lo = bits.Mul64(src.Uint64(), n)
		}
	}
	return hi
}
