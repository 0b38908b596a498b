package vcalc

import (
	"github.com/zeebo/errs/v2"

	"storj.io/vcalc/bitfield"
)

// State holds the three synchronized texts. Binary and Hex are only set when
// the current value is a non-negative integer.
type State struct {
	Decimal string `json:"decimal"`
	Binary  string `json:"binary"`
	Hex     string `json:"hex"`
}

func (s State) Empty() bool { return s == State{} }

// Status classifies what the display currently shows.
type Status uint8

const (
	StatusEmpty Status = iota
	StatusInteger
	StatusNonInteger
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusInteger:
		return "integer"
	case StatusNonInteger:
		return "non-integer"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	for c := StatusEmpty; c <= StatusInvalid; c++ {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return errs.Errorf("unknown status %q", b)
}

// Event names what caused an Update.
type Event string

const (
	EventInput    Event = "input"
	EventToggle   Event = "toggle"
	EventWidth    Event = "width"
	EventClear    Event = "clear"
	EventCommit   Event = "commit"
	EventClearLog Event = "clearlog"
)

// Update is a snapshot of the display taken after every change.
type Update struct {
	Event  Event          `json:"event"`
	Input  string         `json:"input"`
	State  State          `json:"state"`
	Status Status         `json:"status"`
	Width  bitfield.Width `json:"width"`
	Bits   uint64         `json:"bits"`
}
