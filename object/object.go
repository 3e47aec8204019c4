// Package object implements the DCPU-16 object-file codec: a flat
// stream of 16-bit words in big-endian byte order, with no header,
// section table, or symbol table.
package object

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrOddLength is the cause wrapped by Decode when the input byte count
// is odd; a well-formed object file always has an even length.
var ErrOddLength = errors.New("object: odd byte length")

// Encode serializes words as big-endian bytes, two per word.
func Encode(words []uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		binary.BigEndian.PutUint16(out[i*2:], w)
	}
	return out
}

// Decode interprets b as a sequence of big-endian 16-bit words.
func Decode(b []byte) ([]uint16, error) {
	if len(b)%2 != 0 {
		return nil, errors.Wrapf(ErrOddLength, "got %d bytes", len(b))
	}
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = binary.BigEndian.Uint16(b[i*2:])
	}
	return out, nil
}
