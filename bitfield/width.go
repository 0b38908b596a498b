package bitfield

import (
	"errors"
	"strconv"
	"strings"

	"github.com/zeebo/errs/v2"
)

var (
	// ErrInvalidWidth is returned for any width other than 32 or 64.
	ErrInvalidWidth = errors.New("invalid width")

	// ErrNotRepresentable is returned when a value has no bit pattern: it is
	// negative, not an integer, or needs more than 64 bits.
	ErrNotRepresentable = errors.New("value not representable as bits")
)

// Width is the number of positions shown by a Field.
type Width uint8

const (
	Width32 Width = 32
	Width64 Width = 64
)

func (w Width) Valid() bool { return w == Width32 || w == Width64 }

func (w Width) String() string { return strconv.Itoa(int(w)) }

// ParseWidth parses "32" or "64".
func ParseWidth(s string) (Width, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Width(n).Valid() || n != int(Width(n)) {
		return 0, errs.Errorf("%w: %q", ErrInvalidWidth, s)
	}
	return Width(n), nil
}

func (w Width) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, errs.Errorf("%w: %d", ErrInvalidWidth, uint8(w))
	}
	return []byte(w.String()), nil
}

func (w *Width) UnmarshalText(b []byte) (err error) {
	*w, err = ParseWidth(string(b))
	return err
}
