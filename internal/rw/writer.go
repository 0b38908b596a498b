// Package rw encodes and decodes the compact binary records used to export
// the log.
package rw

import (
	"github.com/histdb/histdb/varint"
)

func AppendVarint(buf []byte, x uint64) []byte {
	var tmp [9]byte
	nb := varint.Append(&tmp, x)
	return append(buf, tmp[:nb]...)
}

// AppendString appends x prefixed with its length.
func AppendString(buf []byte, x string) []byte {
	buf = AppendVarint(buf, uint64(len(x)))
	return append(buf, x...)
}
