package vcalc

import (
	"strings"
)

// Entry is one committed record of the log.
type Entry struct {
	Expression string `json:"expression"`
	Decimal    string `json:"decimal"`
	Binary     string `json:"binary"`
	Hex        string `json:"hex"`
}

// String renders the four line form of the entry, terminated by a newline.
func (e Entry) String() string {
	var b strings.Builder
	b.Grow(24 + len(e.Expression) + len(e.Decimal) + len(e.Binary) + len(e.Hex))
	b.WriteString("EXP = ")
	b.WriteString(e.Expression)
	b.WriteString("\nDEC = ")
	b.WriteString(e.Decimal)
	b.WriteString("\nBIN = ")
	b.WriteString(e.Binary)
	b.WriteString("\nHEX = ")
	b.WriteString(e.Hex)
	b.WriteString("\n")
	return b.String()
}

// Commit records expression with the current display texts and then resets
// the input, the display and the bit field. It does nothing and returns false
// when expression is empty.
func (s *Sync) Commit(expression string) (Entry, bool) {
	if expression == "" {
		return Entry{}, false
	}

	e := Entry{
		Expression: expression,
		Decimal:    s.state.Decimal,
		Binary:     s.state.Binary,
		Hex:        s.state.Hex,
	}
	s.entries = append(s.entries, e)
	s.logger.Debug("commit", "expression", expression, "entries", len(s.entries))

	s.reset(StatusEmpty)
	s.emit(EventCommit)
	return e, true
}

// Log returns a copy of the committed entries, oldest first.
func (s *Sync) Log() []Entry {
	return append([]Entry(nil), s.entries...)
}

// ClearLog removes every entry.
func (s *Sync) ClearLog() {
	s.entries = nil
	s.emit(EventClearLog)
}

// WriteLog renders every entry to a single string in commit order.
func WriteLog(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.String())
	}
	return b.String()
}
