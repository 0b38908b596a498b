package rw

import (
	"github.com/zeebo/errs/v2"

	"github.com/histdb/histdb/buffer"
	"github.com/histdb/histdb/varint"
)

// Reader consumes a buffer. The first failure sticks: later reads return zero
// values and Done reports the error.
type Reader struct {
	buf []byte
	err error
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Invalid(err error) {
	if r.err == nil {
		r.err = errs.Wrap(err)
		r.buf = nil
	}
}

func (r *Reader) Len() int { return len(r.buf) }

func (r *Reader) ReadVarint() (x uint64) {
	if len(r.buf) >= 9 {
		var ndec uintptr
		ndec, x = varint.FastConsume((*[9]byte)(r.buf[:]))
		r.buf = r.buf[ndec:]
	} else if len(r.buf) > 0 {
		var rem buffer.T
		var ok bool
		x, rem, ok = varint.Consume(buffer.OfLen(r.buf))
		if !ok {
			r.Invalid(errs.Errorf("short buffer"))
		} else {
			r.buf = rem.Suffix()
		}
	} else {
		r.Invalid(errs.Errorf("short buffer"))
	}
	return x
}

func (r *Reader) ReadBytes(n uint64) (x []byte) {
	if uint64(len(r.buf)) >= n {
		x = r.buf[:n]
		r.buf = r.buf[n:]
	} else {
		r.Invalid(errs.Errorf("short buffer: need %d bytes, have %d", n, len(r.buf)))
	}
	return x
}

// ReadString reads a string written by AppendString.
func (r *Reader) ReadString() string {
	return string(r.ReadBytes(r.ReadVarint()))
}

func (r *Reader) Done() ([]byte, error) {
	buf := r.buf
	r.buf = nil
	return buf, r.err
}
