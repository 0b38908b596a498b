package vcalc

import (
	"errors"
	"testing"

	"github.com/zeebo/assert"

	"storj.io/vcalc/bitfield"
	"storj.io/vcalc/expr"
	"storj.io/vcalc/value"
)

func newTestSync(opts Options) *Sync {
	return New(nil, expr.NewEvaluator(), opts)
}

func TestInputInteger(t *testing.T) {
	s := newTestSync(Options{})

	st := s.Input("10")
	assert.Equal(t, st, State{Decimal: "10", Binary: "1010", Hex: "A"})
	assert.Equal(t, s.Status(), StatusInteger)
	assert.Equal(t, s.Field().Value(), uint64(10))
	assert.Equal(t, s.InputText(), "10")

	cur, ok := s.Current()
	assert.That(t, ok)
	assert.Equal(t, cur.Format(), "10")

	st = s.Input("0xFFFFFFFFFFFFFFFF")
	assert.Equal(t, st, State{
		Decimal: "18446744073709551615",
		Binary:  "1111111111111111111111111111111111111111111111111111111111111111",
		Hex:     "FFFFFFFFFFFFFFFF",
	})
	assert.Equal(t, s.Field().Len(), 64)

	st = s.Input("0")
	assert.Equal(t, st, State{Decimal: "0", Binary: "0", Hex: "0"})
	assert.That(t, s.Field().Empty())
}

func TestInputToggleScenario(t *testing.T) {
	s := newTestSync(Options{})

	s.Input("10")
	st, err := s.Toggle(0)
	assert.NoError(t, err)
	assert.Equal(t, st, State{Decimal: "11", Binary: "1011", Hex: "B"})
	assert.Equal(t, s.Field().Value(), uint64(11))
	assert.Equal(t, s.Status(), StatusInteger)

	// the input text is not rewritten by toggles.
	assert.Equal(t, s.InputText(), "10")
}

func TestInputNegativeKeepsBits(t *testing.T) {
	s := newTestSync(Options{})

	s.Input("10")
	st := s.Input("-5")
	assert.Equal(t, st, State{Decimal: "-5"})
	assert.Equal(t, s.Status(), StatusNonInteger)
	assert.Equal(t, s.Field().Value(), uint64(10))

	st = s.Input("7/2")
	assert.Equal(t, st, State{Decimal: "3.5"})
	assert.Equal(t, s.Field().Value(), uint64(10))

	st = s.Input("6/2")
	assert.Equal(t, st, State{Decimal: "3.0"})
	assert.Equal(t, s.Field().Value(), uint64(10))
}

func TestInputClearStaleBits(t *testing.T) {
	s := newTestSync(Options{ClearStaleBits: true})

	s.Input("10")
	st := s.Input("-5")
	assert.Equal(t, st, State{Decimal: "-5"})
	assert.That(t, s.Field().Empty())

	s.Input("10")
	s.SetClearStaleBits(false)
	s.Input("1.5")
	assert.Equal(t, s.Field().Value(), uint64(10))
}

func TestInputInvalid(t *testing.T) {
	s := newTestSync(Options{})

	for _, in := range []string{"1 +", "2**64", "1/0", "foo", "-0x8000000000000001"} {
		s.Input("10")
		st := s.Input(in)
		assert.That(t, st.Empty())
		assert.Equal(t, s.Status(), StatusInvalid)
		assert.That(t, s.Field().Empty())
		_, ok := s.Current()
		assert.That(t, !ok)
	}

	s.Input("10")
	st := s.Input("")
	assert.That(t, st.Empty())
	assert.Equal(t, s.Status(), StatusEmpty)
	assert.That(t, s.Field().Empty())

	s.Input("10")
	st = s.Input("   ")
	assert.That(t, st.Empty())
	assert.Equal(t, s.Status(), StatusEmpty)
}

func TestToggleHidden(t *testing.T) {
	s := newTestSync(Options{})
	s.Input("1")

	for _, i := range []int{-1, 32, 40, 63, 64} {
		st, err := s.Toggle(i)
		assert.That(t, errors.Is(err, ErrHiddenBit))
		assert.Equal(t, st, State{Decimal: "1", Binary: "1", Hex: "1"})
	}
	assert.Equal(t, s.Field().Value(), uint64(1))

	assert.NoError(t, s.SetWidth(bitfield.Width64))
	st, err := s.Toggle(63)
	assert.NoError(t, err)
	assert.Equal(t, st.Decimal, "9223372036854775809")
	assert.Equal(t, st.Hex, "8000000000000001")

	cur, _ := s.Current()
	assert.Equal(t, cur.Kind(), value.KindUint)

	_, err = s.Toggle(64)
	assert.That(t, errors.Is(err, ErrHiddenBit))
}

func TestWidthKeepsValue(t *testing.T) {
	s := newTestSync(Options{})

	s.Input("5")
	assert.NoError(t, s.SetWidth(bitfield.Width64))
	assert.Equal(t, s.Field().Value(), uint64(5))
	assert.NoError(t, s.SetWidth(bitfield.Width32))
	assert.Equal(t, s.Field().Value(), uint64(5))
	assert.Equal(t, s.State(), State{Decimal: "5", Binary: "101", Hex: "5"})

	err := s.SetWidth(bitfield.Width(8))
	assert.That(t, errors.Is(err, bitfield.ErrInvalidWidth))
	assert.Equal(t, s.Field().Width(), bitfield.Width32)
}

func TestClear(t *testing.T) {
	s := newTestSync(Options{})

	s.Input("255")
	st := s.Clear()
	assert.That(t, st.Empty())
	assert.Equal(t, s.Status(), StatusEmpty)
	assert.Equal(t, s.InputText(), "")
	assert.That(t, s.Field().Empty())

	st = s.Clear()
	assert.That(t, st.Empty())
}

func TestUpdates(t *testing.T) {
	var updates []Update
	s := newTestSync(Options{OnUpdate: func(u Update) { updates = append(updates, u) }})

	s.Input("10")
	_, _ = s.Toggle(0)
	_, _ = s.Toggle(40)
	_ = s.SetWidth(bitfield.Width64)
	s.Commit("10")
	s.ClearLog()

	var events []Event
	for _, u := range updates {
		events = append(events, u.Event)
	}
	assert.Equal(t, events, []Event{EventInput, EventToggle, EventWidth, EventCommit, EventClearLog})

	assert.Equal(t, updates[1].State, State{Decimal: "11", Binary: "1011", Hex: "B"})
	assert.Equal(t, updates[1].Bits, uint64(11))
	assert.Equal(t, updates[2].Width, bitfield.Width64)
	assert.Equal(t, updates[3].Status, StatusEmpty)
}
