package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/kykchain/kyk/pkg/types"
)

// Reader decodes fields from the front of an input buffer, tracking how
// many bytes have been consumed.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader over buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) next(n int, field string) ([]byte, error) {
	if r.Remaining() < n {
		return nil, fmt.Errorf("%w: %s needs %d bytes at offset %d, have %d",
			ErrTruncated, field, n, r.off, r.Remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Uint8 reads a single byte.
func (r *Reader) Uint8(field string) (uint8, error) {
	b, err := r.next(1, field)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint32 reads 4 little-endian bytes.
func (r *Reader) Uint32(field string) (uint32, error) {
	b, err := r.next(4, field)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint64 reads 8 little-endian bytes.
func (r *Reader) Uint64(field string) (uint64, error) {
	b, err := r.next(8, field)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// VarInt reads a canonical CompactSize varint.
func (r *Reader) VarInt(field string) (uint64, error) {
	v, n, err := ReadVarInt(r.buf[r.off:])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	r.off += n
	return v, nil
}

// Bytes reads n bytes and returns a copy that does not alias the input.
func (r *Reader) Bytes(n int, field string) ([]byte, error) {
	b, err := r.next(n, field)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// VarBytes reads a varint length followed by that many bytes. A zero
// length is rejected.
func (r *Reader) VarBytes(field string) ([]byte, error) {
	n, err := r.VarInt(field + " length")
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrInvalidLength, field)
	}
	if n > uint64(r.Remaining()) {
		return nil, fmt.Errorf("%w: %w: %s declares %d bytes at offset %d, have %d",
			ErrTruncated, ErrAllocationLimit, field, n, r.off, r.Remaining())
	}
	return r.Bytes(int(n), field)
}

// CheckCount verifies that count items of at least minSize bytes each
// could still fit in the unread input. Decoders call it before allocating
// space for a declared number of elements. The error matches both
// ErrTruncated and ErrAllocationLimit.
func (r *Reader) CheckCount(count uint64, minSize int, field string) error {
	if minSize < 1 {
		minSize = 1
	}
	if count > uint64(r.Remaining())/uint64(minSize) {
		return fmt.Errorf("%w: %w: %s declares %d items of >= %d bytes, %d bytes left",
			ErrTruncated, ErrAllocationLimit, field, count, minSize, r.Remaining())
	}
	return nil
}

// Hash reads 32 bytes in their in-memory order.
func (r *Reader) Hash(field string) (types.Hash, error) {
	var h types.Hash
	b, err := r.next(types.HashSize, field)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

// HashReversed reads 32 wire-order bytes and returns them in display order.
func (r *Reader) HashReversed(field string) (types.Hash, error) {
	h, err := r.Hash(field)
	if err != nil {
		return h, err
	}
	return h.Reverse(), nil
}
