package bitbuf

import (
	"bytes"

	"github.com/icza/bitio"
)

// Reader consumes bits MSB-first from a byte sequence. Past the end of the
// data it returns zero bits indefinitely; the arithmetic decoder's tail
// handling relies on this synthetic zero-extension.
type Reader struct {
	br *bitio.Reader
}

// NewReader returns a bit reader over data. The reader does not copy data;
// the caller keeps it unmodified for the reader's lifetime.
func NewReader(data []byte) *Reader {
	return &Reader{br: bitio.NewReader(bytes.NewReader(data))}
}

// ReadBit returns the next bit, or 0 once the underlying data is exhausted.
func (r *Reader) ReadBit() uint8 {
	bit, err := r.br.ReadBits(1)
	if err != nil {
		return 0
	}
	return uint8(bit)
}
