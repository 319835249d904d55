// Package wire implements the low-level binary encoding shared by the
// transaction, block and UTXO codecs: CompactSize varints, little-endian
// integers and byte-reversed hashes.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Varint discriminator bytes.
const (
	varIntUint16 = 0xfd
	varIntUint32 = 0xfe
	varIntUint64 = 0xff
)

// MaxVarIntSize is the widest encoding a varint can take.
const MaxVarIntSize = 9

// VarIntSize returns the number of bytes needed to encode v.
func VarIntSize(v uint64) int {
	switch {
	case v < varIntUint16:
		return 1
	case v <= 0xffff:
		return 3
	case v <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// PutVarInt encodes v into buf and returns the number of bytes written.
// It panics if buf is shorter than VarIntSize(v).
func PutVarInt(buf []byte, v uint64) int {
	switch {
	case v < varIntUint16:
		buf[0] = byte(v)
		return 1
	case v <= 0xffff:
		buf[0] = varIntUint16
		binary.LittleEndian.PutUint16(buf[1:3], uint16(v))
		return 3
	case v <= 0xffffffff:
		buf[0] = varIntUint32
		binary.LittleEndian.PutUint32(buf[1:5], uint32(v))
		return 5
	default:
		buf[0] = varIntUint64
		binary.LittleEndian.PutUint64(buf[1:9], v)
		return 9
	}
}

// AppendVarInt appends the encoding of v to dst.
func AppendVarInt(dst []byte, v uint64) []byte {
	var tmp [MaxVarIntSize]byte
	n := PutVarInt(tmp[:], v)
	return append(dst, tmp[:n]...)
}

// EncodeVarInt returns the encoding of v in a new slice.
func EncodeVarInt(v uint64) []byte {
	return AppendVarInt(make([]byte, 0, VarIntSize(v)), v)
}

// ReadVarInt decodes a varint from the front of buf and returns the value
// together with the number of bytes consumed. Encodings that use more bytes
// than the value requires are rejected.
func ReadVarInt(buf []byte) (uint64, int, error) {
	if len(buf) == 0 {
		return 0, 0, fmt.Errorf("%w: varint discriminator", ErrTruncated)
	}

	var (
		v   uint64
		n   int
		min uint64
	)
	switch d := buf[0]; d {
	case varIntUint64:
		if len(buf) < 9 {
			return 0, 0, fmt.Errorf("%w: varint needs 9 bytes, have %d", ErrTruncated, len(buf))
		}
		v, n, min = binary.LittleEndian.Uint64(buf[1:9]), 9, 0x100000000
	case varIntUint32:
		if len(buf) < 5 {
			return 0, 0, fmt.Errorf("%w: varint needs 5 bytes, have %d", ErrTruncated, len(buf))
		}
		v, n, min = uint64(binary.LittleEndian.Uint32(buf[1:5])), 5, 0x10000
	case varIntUint16:
		if len(buf) < 3 {
			return 0, 0, fmt.Errorf("%w: varint needs 3 bytes, have %d", ErrTruncated, len(buf))
		}
		v, n, min = uint64(binary.LittleEndian.Uint16(buf[1:3])), 3, varIntUint16
	default:
		return uint64(d), 1, nil
	}

	if v < min {
		return 0, 0, fmt.Errorf("%w: %#x with discriminator %#x must be at least %#x",
			ErrNonCanonicalVarInt, v, buf[0], min)
	}
	return v, n, nil
}
