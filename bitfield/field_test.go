package bitfield

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/zeebo/assert"
	"github.com/zeebo/mwc"

	"storj.io/vcalc/value"
)

func TestNew(t *testing.T) {
	f := New()
	assert.Equal(t, f.Width(), Width32)
	assert.Equal(t, f.Value(), uint64(0))
	assert.That(t, f.Empty())
	assert.Equal(t, len(f.Bits()), 0)
}

func TestRoundTrip(t *testing.T) {
	f := New()
	check := func(u uint64) {
		assert.NoError(t, f.SetFromValue(value.Uint(u)))
		assert.Equal(t, f.Value(), u)
	}

	check(0)
	check(10)
	check(math.MaxUint32)
	check(math.MaxUint32 + 1)
	check(math.MaxUint64)
	for range 1000 {
		check(mwc.Uint64())
	}

	assert.NoError(t, f.SetFromValue(value.Int(10)))
	assert.Equal(t, f.Bits(), []int{1, 3})
	assert.Equal(t, f.Len(), 2)
	assert.Equal(t, f.Highest(), 3)
}

func TestSetFromValueRejects(t *testing.T) {
	f := New()
	big65 := new(big.Int).Lsh(big.NewInt(1), 64)

	for _, v := range []value.Value{
		value.Int(-5),
		value.Float(3.0),
		value.Float(0.5),
		value.Big(big65),
		{},
	} {
		assert.NoError(t, f.SetFromValue(value.Int(7)))

		err := f.SetFromValue(v)
		assert.Error(t, err)
		assert.That(t, errors.Is(err, ErrNotRepresentable))
		assert.That(t, f.Empty())
	}
}

func TestToggle(t *testing.T) {
	f := New()
	assert.NoError(t, f.SetFromValue(value.Int(10)))

	assert.Equal(t, f.Toggle(0), uint64(11))
	assert.That(t, f.Has(0))
	assert.Equal(t, f.Toggle(0), uint64(10))
	assert.That(t, !f.Has(0))

	for i := range 64 {
		before := f.Value()
		f.Toggle(i)
		assert.Equal(t, f.Toggle(i), before)
	}

	assert.Equal(t, f.Toggle(63), uint64(1<<63|10))
	assert.Equal(t, f.Highest(), 63)
}

func TestTogglePanics(t *testing.T) {
	for _, i := range []int{-1, 64, 1000} {
		func() {
			defer func() { assert.That(t, recover() != nil) }()
			New().Toggle(i)
		}()
	}
}

func TestWidth(t *testing.T) {
	f := New()
	f.Toggle(40)
	f.Toggle(3)
	v := f.Value()

	assert.That(t, !f.Visible(40))
	assert.That(t, f.Visible(3))
	assert.That(t, f.Has(40))

	assert.NoError(t, f.SetWidth(Width64))
	assert.Equal(t, f.Value(), v)
	assert.That(t, f.Visible(40))

	assert.NoError(t, f.SetWidth(Width32))
	assert.Equal(t, f.Value(), v)
	assert.That(t, f.Has(40))

	err := f.SetWidth(Width(16))
	assert.That(t, errors.Is(err, ErrInvalidWidth))
	assert.Equal(t, f.Width(), Width32)

	assert.That(t, !f.Visible(-1))
	assert.That(t, !f.Visible(32))
}

func TestVisiblePositions(t *testing.T) {
	f := New()
	pos := f.VisiblePositions()
	assert.Equal(t, len(pos), 32)
	assert.Equal(t, pos[0], 31)
	assert.Equal(t, pos[31], 0)

	assert.NoError(t, f.SetWidth(Width64))
	pos = f.VisiblePositions()
	assert.Equal(t, len(pos), 64)
	assert.Equal(t, pos[0], 63)
}

func TestClear(t *testing.T) {
	f := New()
	f.Toggle(5)
	f.Toggle(50)

	f.Clear()
	assert.That(t, f.Empty())
	f.Clear()
	assert.That(t, f.Empty())
	assert.Equal(t, f.Width(), Width32)
}

func TestObserve(t *testing.T) {
	f := New()

	var seen []uint64
	f.Observe(func(v uint64) { seen = append(seen, v) })

	f.Toggle(1)
	assert.NoError(t, f.SetFromValue(value.Int(255)))
	assert.Error(t, f.SetFromValue(value.Int(-1)))
	f.Clear()

	assert.Equal(t, seen, []uint64{2, 255})
}

func TestParseWidth(t *testing.T) {
	w, err := ParseWidth("32")
	assert.NoError(t, err)
	assert.Equal(t, w, Width32)

	w, err = ParseWidth(" 64 ")
	assert.NoError(t, err)
	assert.Equal(t, w, Width64)

	for _, in := range []string{"", "16", "288", "sixty-four", "-32"} {
		_, err := ParseWidth(in)
		assert.That(t, errors.Is(err, ErrInvalidWidth))
	}

	var into Width
	assert.NoError(t, into.UnmarshalText([]byte("64")))
	assert.Equal(t, into, Width64)

	text, err := Width64.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, string(text), "64")
}

//
// benchmarks
//

func BenchmarkBits(b *testing.B) {
	f := New()
	assert.NoError(b, f.SetFromValue(value.Uint(mwc.Uint64())))

	b.ReportAllocs()
	for b.Loop() {
		_ = f.Bits()
	}
}
