package wire

import "errors"

// Decoding and encoding errors.
var (
	ErrTruncated          = errors.New("truncated input")
	ErrInvalidLength      = errors.New("invalid length")
	ErrNonCanonicalVarInt = errors.New("non-canonical varint")
	ErrAllocationLimit    = errors.New("declared length exceeds input")
	ErrShortBuffer        = errors.New("output buffer too small")
)
