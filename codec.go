package vcalc

import (
	"github.com/zeebo/errs/v2"

	"storj.io/vcalc/internal/rw"
)

// AppendTo appends the binary form of the entry to buf.
func (e Entry) AppendTo(buf []byte) []byte {
	buf = rw.AppendString(buf, e.Expression)
	buf = rw.AppendString(buf, e.Decimal)
	buf = rw.AppendString(buf, e.Binary)
	buf = rw.AppendString(buf, e.Hex)
	return buf
}

// ReadFrom decodes an entry written by AppendTo and returns the rest of buf.
func (e *Entry) ReadFrom(buf []byte) ([]byte, error) {
	r := rw.NewReader(buf)
	next := Entry{
		Expression: r.ReadString(),
		Decimal:    r.ReadString(),
		Binary:     r.ReadString(),
		Hex:        r.ReadString(),
	}
	rem, err := r.Done()
	if err != nil {
		return nil, err
	}
	*e = next
	return rem, nil
}

// AppendLog appends a count followed by every entry.
func AppendLog(buf []byte, entries []Entry) []byte {
	buf = rw.AppendVarint(buf, uint64(len(entries)))
	for _, e := range entries {
		buf = e.AppendTo(buf)
	}
	return buf
}

// ReadLog decodes a log written by AppendLog. Trailing bytes are an error.
func ReadLog(buf []byte) ([]Entry, error) {
	r := rw.NewReader(buf)
	count := r.ReadVarint()
	buf, err := r.Done()
	if err != nil {
		return nil, err
	}
	// every entry takes at least four bytes.
	if count > uint64(len(buf))/4 {
		return nil, errs.Errorf("invalid entry count %d", count)
	}

	entries := make([]Entry, count)
	for i := range entries {
		buf, err = entries[i].ReadFrom(buf)
		if err != nil {
			return nil, err
		}
	}
	if len(buf) != 0 {
		return nil, errs.Errorf("%d trailing bytes", len(buf))
	}
	return entries, nil
}
