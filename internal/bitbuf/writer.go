// Package bitbuf implements the packed bit buffers shared by the entropy
// coders: an append-only MSB-first bit writer and a zero-extending bit
// reader over the same byte layout.
package bitbuf

import (
	"bytes"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

// Writer appends bits MSB-first into a growing byte buffer, rolling to a new
// zero byte after every eighth bit. The logical bit length is tracked
// separately from the byte count, so the trailing byte stays partial until
// Close zero-pads it and freezes the buffer.
type Writer struct {
	buf    bytes.Buffer
	bw     *bitio.Writer
	nbits  uint64
	closed bool
}

// NewWriter returns an empty bit writer.
func NewWriter() *Writer {
	w := new(Writer)
	w.bw = bitio.NewWriter(&w.buf)
	return w
}

// WriteBit appends a single bit; bit must be 0 or 1.
func (w *Writer) WriteBit(bit uint8) error {
	if w.closed {
		return errors.New("bitbuf: write on closed writer")
	}
	if err := w.bw.WriteBits(uint64(bit), 1); err != nil {
		return errors.WithStack(err)
	}
	w.nbits++
	return nil
}

// WriteBitWithPending appends bit followed by n copies of its complement.
// The complement run is emitted in chunks of up to 32 bits, so deferring
// millions of bits costs no intermediate allocation.
func (w *Writer) WriteBitWithPending(bit uint8, n uint64) error {
	if err := w.WriteBit(bit); err != nil {
		return err
	}
	var pattern uint64
	if bit == 0 {
		pattern = 1<<32 - 1
	}
	for n > 0 {
		k := n
		if k > 32 {
			k = 32
		}
		if err := w.bw.WriteBits(pattern&(1<<k-1), uint8(k)); err != nil {
			return errors.WithStack(err)
		}
		w.nbits += k
		n -= k
	}
	return nil
}

// Close zero-pads the trailing partial byte and freezes the buffer. No
// writes are accepted afterwards.
func (w *Writer) Close() error {
	if w.closed {
		return errors.New("bitbuf: writer already closed")
	}
	if err := w.bw.Close(); err != nil {
		return errors.WithStack(err)
	}
	w.closed = true
	return nil
}

// Len returns the number of bits written so far.
func (w *Writer) Len() uint64 {
	return w.nbits
}

// Bytes returns the packed byte sequence. It is only complete after Close;
// the returned slice aliases the writer's storage and must not be modified.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}
