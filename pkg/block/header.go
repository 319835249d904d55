package block

import (
	"fmt"

	"github.com/kykchain/kyk/pkg/crypto"
	"github.com/kykchain/kyk/pkg/tx"
	"github.com/kykchain/kyk/pkg/types"
	"github.com/kykchain/kyk/pkg/wire"
)

// Header sizes in bytes.
const (
	HeaderSize             = 80
	HeaderSizeWithoutNonce = 76
)

// Header contains block metadata. Hashes are held in display order and
// reversed on the wire.
type Header struct {
	Version    uint32     `json:"version"`
	PrevHash   types.Hash `json:"prev_hash"`
	MerkleRoot types.Hash `json:"merkle_root"`
	Timestamp  uint32     `json:"timestamp"`
	Bits       uint32     `json:"bits"`
	Nonce      uint32     `json:"nonce"`
}

// MakeHeader builds a header committing to txs. The nonce is left at zero;
// proof-of-work search is left to the caller.
func MakeHeader(txs []*tx.Transaction, version uint32, prev types.Hash, timestamp, bits uint32) (*Header, error) {
	if len(txs) == 0 {
		return nil, ErrNoTransactions
	}
	ids, err := TxHashes(txs)
	if err != nil {
		return nil, err
	}
	return &Header{
		Version:    version,
		PrevHash:   prev,
		MerkleRoot: ComputeMerkleRoot(ids),
		Timestamp:  timestamp,
		Bits:       bits,
	}, nil
}

// Hash computes the block hash: SHA-256d of the 80-byte header, reversed
// into display order.
func (h *Header) Hash() types.Hash {
	return crypto.DoubleHash(h.Bytes()).Reverse()
}

// Bytes returns the 80-byte wire encoding.
//
// Layout: version(4) | prev_hash(32, reversed) | merkle_root(32, reversed) |
// timestamp(4) | bits(4) | nonce(4). Integers are little-endian.
func (h *Header) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	h.Encode(wire.NewWriter(buf))
	return buf
}

// BytesWithoutNonce returns the first 76 bytes of the encoding, the part
// a miner keeps fixed while searching nonces.
func (h *Header) BytesWithoutNonce() []byte {
	buf := make([]byte, HeaderSizeWithoutNonce)
	h.encodeFixed(wire.NewWriter(buf))
	return buf
}

// SerializeInto writes the 80-byte encoding into buf.
func (h *Header) SerializeInto(buf []byte) (int, error) {
	w := wire.NewWriter(buf)
	h.Encode(w)
	if err := w.Err(); err != nil {
		return 0, err
	}
	return w.Len(), nil
}

// Encode writes the header to w.
func (h *Header) Encode(w *wire.Writer) {
	h.encodeFixed(w)
	w.Uint32(h.Nonce)
}

func (h *Header) encodeFixed(w *wire.Writer) {
	w.Uint32(h.Version)
	w.HashReversed(h.PrevHash)
	w.HashReversed(h.MerkleRoot)
	w.Uint32(h.Timestamp)
	w.Uint32(h.Bits)
}

// DeserializeHeader decodes an 80-byte header from the front of buf.
func DeserializeHeader(buf []byte) (*Header, int, error) {
	r := wire.NewReader(buf)
	h, err := DecodeHeader(r)
	if err != nil {
		return nil, 0, err
	}
	return h, r.Offset(), nil
}

// DecodeHeader reads an 80-byte header from r.
func DecodeHeader(r *wire.Reader) (*Header, error) {
	if r.Remaining() < HeaderSize {
		return nil, fmt.Errorf("%w: header: %w: need %d bytes, have %d",
			ErrMalformedBlock, wire.ErrTruncated, HeaderSize, r.Remaining())
	}
	// The length check above guarantees none of these reads fail.
	var h Header
	h.Version, _ = r.Uint32("version")
	h.PrevHash, _ = r.HashReversed("prev hash")
	h.MerkleRoot, _ = r.HashReversed("merkle root")
	h.Timestamp, _ = r.Uint32("timestamp")
	h.Bits, _ = r.Uint32("bits")
	h.Nonce, _ = r.Uint32("nonce")
	return &h, nil
}
