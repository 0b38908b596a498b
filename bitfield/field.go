// Package bitfield holds the bit grid view of a value: a set of positions in
// [0, 64) together with the width of the grid that shows them.
package bitfield

import (
	"fmt"
	"math/bits"

	"github.com/zeebo/errs/v2"

	"storj.io/vcalc/value"
)

// Field is a set of bit positions. Positions at or above the width are hidden
// from the grid but keep their state, so the value never depends on the width.
//
// A Field is not safe for concurrent use.
type Field struct {
	b     uint64
	width Width
	obs   []func(uint64)
}

// New returns an empty Field with width 32.
func New() *Field {
	return &Field{width: Width32}
}

func (f *Field) Value() uint64      { return f.b }
func (f *Field) Width() Width       { return f.width }
func (f *Field) Empty() bool        { return f.b == 0 }
func (f *Field) Len() int           { return bits.OnesCount64(f.b) }
func (f *Field) Has(i int) bool     { return inRange(i) && f.b&(1<<uint(i)) != 0 }
func (f *Field) Visible(i int) bool { return 0 <= i && i < int(f.width) }
func (f *Field) String() string     { return fmt.Sprintf("%064b", f.b) }

func inRange(i int) bool { return 0 <= i && i < 64 }

// Observe registers fn to be called with the new value after every Toggle and
// every successful SetFromValue.
func (f *Field) Observe(fn func(uint64)) {
	f.obs = append(f.obs, fn)
}

func (f *Field) notify() {
	for _, fn := range f.obs {
		fn(f.b)
	}
}

// SetWidth changes how many positions are visible. The value is unchanged.
func (f *Field) SetWidth(w Width) error {
	if !w.Valid() {
		return errs.Errorf("%w: %d", ErrInvalidWidth, uint8(w))
	}
	f.width = w
	return nil
}

// Toggle flips position i and returns the new value. Hidden positions may be
// toggled. It panics if i is outside [0, 64).
func (f *Field) Toggle(i int) uint64 {
	if !inRange(i) {
		panic(fmt.Sprintf("bitfield: toggle of position %d outside [0, 64)", i))
	}
	f.b ^= 1 << uint(i)
	f.notify()
	return f.b
}

// SetFromValue replaces the contents with the binary rendering of v. Values
// that are not non-negative integers below 2^64 clear the field and return an
// error wrapping ErrNotRepresentable.
func (f *Field) SetFromValue(v value.Value) error {
	u, ok := v.Unsigned()
	if !ok {
		f.b = 0
		return errs.Errorf("%w: %s %s", ErrNotRepresentable, v.Kind(), v.Format())
	}
	f.b = u
	f.notify()
	return nil
}

// Clear removes every position. It does not notify observers.
func (f *Field) Clear() { f.b = 0 }

// Bits returns the set positions in ascending order.
func (f *Field) Bits() []int {
	out := make([]int, 0, bits.OnesCount64(f.b))
	for b := f.b; b != 0; b &= b - 1 {
		out = append(out, bits.TrailingZeros64(b))
	}
	return out
}

// VisiblePositions returns the visible positions, most significant first.
func (f *Field) VisiblePositions() []int {
	out := make([]int, 0, f.width)
	for i := int(f.width) - 1; i >= 0; i-- {
		out = append(out, i)
	}
	return out
}

// Highest returns the most significant set position, or -1 if the field is
// empty.
func (f *Field) Highest() int {
	if f.b == 0 {
		return -1
	}
	return 63 - bits.LeadingZeros64(f.b)
}
