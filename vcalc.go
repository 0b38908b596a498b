// Package vcalc keeps a decimal, a binary and a hexadecimal view of a value in
// sync with a bit grid, and records committed values in a log.
//
// A Sync is driven by a host one event at a time: text input, bit toggles,
// width changes, commits and random draws. It performs no I/O and is not safe
// for concurrent use.
package vcalc

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/zeebo/errs/v2"

	"storj.io/vcalc/bitfield"
	"storj.io/vcalc/value"
)

var (
	// ErrInvalidRange is returned by random draws when a bound can not be
	// evaluated or the low bound is above the high bound.
	ErrInvalidRange = errors.New("invalid range")

	// ErrHiddenBit is returned when toggling a position the grid does not show.
	ErrHiddenBit = errors.New("bit position not visible")
)

// Evaluator turns input text into a value.
type Evaluator interface {
	Evaluate(text string) (value.Value, error)
}

// Options configures a Sync. The zero value is usable.
type Options struct {
	// ClearStaleBits clears the bit grid when the input evaluates to a
	// negative or non-integer value. By default the grid keeps its bits.
	ClearStaleBits bool

	// Source supplies random numbers. Defaults to a mwc generator.
	Source Source

	// Log receives rejected inputs at debug level. Defaults to slog.Default.
	Log *slog.Logger

	// OnUpdate is called after every change to the display or the log.
	OnUpdate func(Update)
}

// Sync mediates between raw input, the bit field and the display texts.
type Sync struct {
	field  *bitfield.Field
	eval   Evaluator
	opts   Options
	logger *slog.Logger
	source Source

	input   string
	current value.Value
	state   State
	status  Status
	entries []Entry
}

// New returns a Sync owning field. If field is nil a new 32 bit field is used.
func New(field *bitfield.Field, eval Evaluator, opts Options) *Sync {
	if field == nil {
		field = bitfield.New()
	}
	s := &Sync{
		field:  field,
		eval:   eval,
		opts:   opts,
		logger: opts.Log,
		source: opts.Source,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.source == nil {
		s.source = mwcSource{}
	}
	return s
}

func (s *Sync) Field() *bitfield.Field { return s.field }
func (s *Sync) State() State           { return s.state }
func (s *Sync) Status() Status         { return s.status }
func (s *Sync) InputText() string      { return s.input }

// Current returns the last evaluated value, if the display shows one.
func (s *Sync) Current() (value.Value, bool) {
	return s.current, !s.current.IsEmpty()
}

// SetClearStaleBits changes the stale grid policy of future inputs.
func (s *Sync) SetClearStaleBits(clear bool) { s.opts.ClearStaleBits = clear }

// Input evaluates raw and refreshes the display from the result.
//
// Empty input or an evaluation error clears the texts and the bit field. A
// non-negative integer is loaded into the bit field and shown in every base.
// Any other value is shown in decimal only.
func (s *Sync) Input(raw string) State {
	s.input = raw

	if strings.TrimSpace(raw) == "" {
		s.reset(StatusEmpty)
		s.input = raw
		s.emit(EventInput)
		return s.state
	}

	v, err := s.eval.Evaluate(raw)
	if err != nil {
		s.logger.Debug("rejected input", "input", raw, "error", err)
		s.reset(StatusInvalid)
		s.input = raw
		s.emit(EventInput)
		return s.state
	}
	s.current = v

	if _, ok := v.Unsigned(); ok {
		if err := s.field.SetFromValue(v); err != nil {
			// unreachable: Unsigned values are always representable.
			s.logger.Error("set bits", "value", v.Format(), "error", err)
		}
		s.show(v, StatusInteger)
	} else {
		s.logger.Debug("value has no bit pattern", "value", v.Format(), "kind", v.Kind())
		if s.opts.ClearStaleBits {
			s.field.Clear()
		}
		s.show(v, StatusNonInteger)
	}

	s.emit(EventInput)
	return s.state
}

// Toggle flips a visible bit position and refreshes every text from the new
// value of the field. Positions outside the current width are rejected with
// ErrHiddenBit.
func (s *Sync) Toggle(i int) (State, error) {
	if !s.field.Visible(i) {
		return s.state, errs.Errorf("%w: %d at width %v", ErrHiddenBit, i, s.field.Width())
	}

	u := s.field.Toggle(i)
	s.current = fromBits(u)
	s.show(s.current, StatusInteger)

	s.emit(EventToggle)
	return s.state, nil
}

// SetWidth changes the number of visible positions. The value is unchanged.
func (s *Sync) SetWidth(w bitfield.Width) error {
	if err := s.field.SetWidth(w); err != nil {
		return err
	}
	s.emit(EventWidth)
	return nil
}

// Clear resets the input, the display and the bit field.
func (s *Sync) Clear() State {
	s.reset(StatusEmpty)
	s.emit(EventClear)
	return s.state
}

func (s *Sync) reset(status Status) {
	s.input = ""
	s.current = value.Value{}
	s.state = State{}
	s.status = status
	s.field.Clear()
}

func (s *Sync) show(v value.Value, status Status) {
	s.status = status
	s.state = State{Decimal: v.Format()}
	if status == StatusInteger {
		s.state.Binary, _ = v.FormatBase(2)
		s.state.Hex, _ = v.FormatBase(16)
	}
}

func (s *Sync) emit(ev Event) {
	if s.opts.OnUpdate == nil {
		return
	}
	s.opts.OnUpdate(Update{
		Event:  ev,
		Input:  s.input,
		State:  s.state,
		Status: s.status,
		Width:  s.field.Width(),
		Bits:   s.field.Value(),
	})
}

func fromBits(u uint64) value.Value {
	if int64(u) >= 0 {
		return value.Int(int64(u))
	}
	return value.Uint(u)
}
