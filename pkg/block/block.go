// Package block defines Bitcoin blocks, their wire codec and validation.
package block

import (
	"errors"
	"fmt"
	"math"

	"github.com/kykchain/kyk/pkg/tx"
	"github.com/kykchain/kyk/pkg/types"
	"github.com/kykchain/kyk/pkg/wire"
)

// Network magic numbers, as read little-endian from the first four bytes
// of a framed block.
const (
	MainnetMagic uint32 = 0xD9B4BEF9
	TestnetMagic uint32 = 0x0709110B
	RegtestMagic uint32 = 0xDAB5BFFA
)

// frameSize is the length of the magic and size prefix of a framed block.
const frameSize = 8

// Codec errors.
var (
	ErrMalformedBlock = errors.New("malformed block")
	ErrBadMagic       = errors.New("unknown network magic")
	ErrSizeMismatch   = errors.New("declared block size does not match contents")
)

// Block represents a block in the chain. Size is the length in bytes of
// the block body, the header followed by the transaction list, which is
// what the size prefix of a framed block describes.
type Block struct {
	Magic        uint32            `json:"magic"`
	Size         uint32            `json:"size"`
	Header       *Header           `json:"header"`
	Transactions []*tx.Transaction `json:"transactions"`
}

// IsKnownMagic reports whether m identifies a supported network.
func IsKnownMagic(m uint32) bool {
	switch m {
	case MainnetMagic, TestnetMagic, RegtestMagic:
		return true
	}
	return false
}

// MakeBlock assembles a mainnet block from a header and its transactions,
// computing Size. Use SetMagic to retarget another network.
func MakeBlock(header *Header, txs []*tx.Transaction) (*Block, error) {
	if header == nil {
		return nil, ErrNilHeader
	}
	if len(txs) == 0 {
		return nil, ErrNoTransactions
	}
	b := &Block{
		Magic:        MainnetMagic,
		Header:       header,
		Transactions: txs,
	}
	size, err := b.BodySize()
	if err != nil {
		return nil, err
	}
	if uint64(size) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBlockTooLarge, size)
	}
	b.Size = uint32(size)
	return b, nil
}

// SetMagic sets the network magic and returns b.
func (b *Block) SetMagic(m uint32) *Block {
	b.Magic = m
	return b
}

// Hash returns the block header hash.
func (b *Block) Hash() types.Hash {
	if b.Header == nil {
		return types.Hash{}
	}
	return b.Header.Hash()
}

// TxHashes returns the ids of the block's transactions in order.
func (b *Block) TxHashes() ([]types.Hash, error) {
	return TxHashes(b.Transactions)
}

// BodySize returns the length of the unframed block: header, transaction
// count and transactions.
func (b *Block) BodySize() (int, error) {
	if b.Header == nil {
		return 0, ErrNilHeader
	}
	n := HeaderSize + wire.VarIntSize(uint64(len(b.Transactions)))
	for i, t := range b.Transactions {
		if t == nil {
			return 0, fmt.Errorf("tx %d: %w", i, ErrNilTransaction)
		}
		size, err := t.SerializeSize()
		if err != nil {
			return 0, fmt.Errorf("tx %d: %w", i, err)
		}
		n += size
	}
	return n, nil
}

// SerializeSize returns the length of the framed encoding.
func (b *Block) SerializeSize() (int, error) {
	n, err := b.BodySize()
	if err != nil {
		return 0, err
	}
	return frameSize + n, nil
}

// Serialize returns the framed wire encoding of the block.
//
// Layout: magic(4) | size(4) | header(80) | tx_count(varint) | tx... .
// The size field is recomputed from the contents, not taken from b.Size.
func (b *Block) Serialize() ([]byte, error) {
	body, err := b.BodySize()
	if err != nil {
		return nil, err
	}
	if uint64(body) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBlockTooLarge, body)
	}
	buf := make([]byte, frameSize+body)
	w := wire.NewWriter(buf)
	w.Uint32(b.Magic)
	w.Uint32(uint32(body))
	b.encodeBody(w)
	if w.Err() != nil || w.Len() != len(buf) {
		panic(fmt.Sprintf("block serialize: wrote %d of %d bytes: %v", w.Len(), len(buf), w.Err()))
	}
	return buf, nil
}

// SerializeForStorage returns the unframed block body, the record kept by
// the block store. Its length equals b.Size for blocks built by MakeBlock.
func (b *Block) SerializeForStorage() ([]byte, error) {
	body, err := b.BodySize()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, body)
	w := wire.NewWriter(buf)
	b.encodeBody(w)
	if w.Err() != nil || w.Len() != body {
		panic(fmt.Sprintf("block serialize: wrote %d of %d bytes: %v", w.Len(), body, w.Err()))
	}
	return buf, nil
}

func (b *Block) encodeBody(w *wire.Writer) {
	b.Header.Encode(w)
	w.VarInt(uint64(len(b.Transactions)))
	for _, t := range b.Transactions {
		t.Encode(w)
	}
}

// DeserializeBlock decodes a framed block from the front of buf and
// returns it with the number of bytes consumed. The magic must belong to
// a known network and the size prefix must match the decoded body exactly.
// Failures wrap ErrMalformedBlock and return no block.
func DeserializeBlock(buf []byte) (*Block, int, error) {
	r := wire.NewReader(buf)
	magic, err := r.Uint32("magic")
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedBlock, err)
	}
	if !IsKnownMagic(magic) {
		return nil, 0, fmt.Errorf("%w: %w: %#08x", ErrMalformedBlock, ErrBadMagic, magic)
	}
	size, err := r.Uint32("size")
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedBlock, err)
	}
	if size > MaxBlockSize {
		return nil, 0, fmt.Errorf("%w: %w: declared %d bytes, max %d",
			ErrMalformedBlock, ErrBlockTooLarge, size, MaxBlockSize)
	}
	if int(size) > r.Remaining() {
		return nil, 0, fmt.Errorf("%w: %w: declared %d bytes, have %d",
			ErrMalformedBlock, wire.ErrTruncated, size, r.Remaining())
	}

	blk, n, err := DeserializeBlockBody(buf[frameSize : frameSize+int(size)])
	if err != nil {
		return nil, 0, err
	}
	if n != int(size) {
		return nil, 0, fmt.Errorf("%w: %w: declared %d bytes, decoded %d",
			ErrMalformedBlock, ErrSizeMismatch, size, n)
	}
	blk.Magic = magic
	return blk, frameSize + n, nil
}

// DeserializeBlockBody decodes an unframed block (header, tx count and
// transactions) from the front of buf. The result carries the mainnet
// magic and a Size equal to the bytes consumed.
func DeserializeBlockBody(buf []byte) (*Block, int, error) {
	r := wire.NewReader(buf)
	header, err := DecodeHeader(r)
	if err != nil {
		return nil, 0, err
	}
	count, err := r.VarInt("tx count")
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedBlock, err)
	}
	if count == 0 {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedBlock, ErrNoTransactions)
	}
	txs, err := tx.DecodeList(r, count)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedBlock, err)
	}
	if uint64(r.Offset()) > math.MaxUint32 {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedBlock, ErrBlockTooLarge)
	}
	return &Block{
		Magic:        MainnetMagic,
		Size:         uint32(r.Offset()),
		Header:       header,
		Transactions: txs,
	}, r.Offset(), nil
}
