package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/kykchain/kyk/pkg/types"
)

// Writer writes fields into a caller-sized buffer. The first write that
// does not fit sets a sticky error and every later write is dropped, so a
// serializer can emit all of its fields and check Err once at the end.
type Writer struct {
	buf []byte
	off int
	err error
}

// NewWriter returns a Writer over buf.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.off }

// Err returns the first error encountered, if any.
func (w *Writer) Err() error { return w.err }

func (w *Writer) reserve(n int) []byte {
	if w.err != nil {
		return nil
	}
	if len(w.buf)-w.off < n {
		w.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrShortBuffer, n, w.off, len(w.buf)-w.off)
		return nil
	}
	b := w.buf[w.off : w.off+n]
	w.off += n
	return b
}

// Uint8 writes a single byte.
func (w *Writer) Uint8(v uint8) {
	if b := w.reserve(1); b != nil {
		b[0] = v
	}
}

// Uint32 writes v as 4 little-endian bytes.
func (w *Writer) Uint32(v uint32) {
	if b := w.reserve(4); b != nil {
		binary.LittleEndian.PutUint32(b, v)
	}
}

// Uint64 writes v as 8 little-endian bytes.
func (w *Writer) Uint64(v uint64) {
	if b := w.reserve(8); b != nil {
		binary.LittleEndian.PutUint64(b, v)
	}
}

// VarInt writes v as a CompactSize varint.
func (w *Writer) VarInt(v uint64) {
	if b := w.reserve(VarIntSize(v)); b != nil {
		PutVarInt(b, v)
	}
}

// Bytes writes p verbatim.
func (w *Writer) Bytes(p []byte) {
	if b := w.reserve(len(p)); b != nil {
		copy(b, p)
	}
}

// VarBytes writes a varint length prefix followed by p.
func (w *Writer) VarBytes(p []byte) {
	w.VarInt(uint64(len(p)))
	w.Bytes(p)
}

// Hash writes h in its in-memory byte order.
func (w *Writer) Hash(h types.Hash) {
	w.Bytes(h[:])
}

// HashReversed writes h with its bytes reversed, the order Bitcoin uses
// for hashes on the wire.
func (w *Writer) HashReversed(h types.Hash) {
	r := h.Reverse()
	w.Bytes(r[:])
}
