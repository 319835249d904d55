// Package utxo holds the unspent-output ledger: the binary UTXO record,
// an append-only chain of records used as a ledger snapshot, and a store
// that keeps the live set in a storage.DB.
package utxo

import (
	"errors"
	"fmt"

	"github.com/kykchain/kyk/pkg/types"
	"github.com/kykchain/kyk/pkg/wire"
)

// MaxAddressLen is the longest address a record can carry; its length is
// encoded in a single byte.
const MaxAddressLen = 255

// Record errors.
var (
	ErrMalformedRecord  = errors.New("malformed utxo record")
	ErrEmptyAddress     = fmt.Errorf("%w: empty address", wire.ErrInvalidLength)
	ErrAddressTooLong   = fmt.Errorf("%w: address longer than %d bytes", wire.ErrInvalidLength, MaxAddressLen)
	ErrEmptyScript      = fmt.Errorf("%w: empty script", wire.ErrInvalidLength)
	ErrInvalidSpentFlag = errors.New("spent flag must be 0 or 1")
)

// Fixed field widths of the record encoding.
const (
	indexSize    = 4
	valueSize    = 8
	spentSize    = 1
	minRecordLen = 2*types.HashSize + 1 + 1 + indexSize + valueSize + 1 + 1 + spentSize
)

// UTXO is one spendable (or spent) output and the address that can claim
// it. Address holds the encoded address string as bytes.
type UTXO struct {
	TxID        types.Hash   `json:"txid"`
	BlockHash   types.Hash   `json:"block_hash"`
	Address     []byte       `json:"address"`
	OutputIndex uint32       `json:"output_index"`
	Value       uint64       `json:"value"`
	Script      types.Script `json:"script"`
	Spent       bool         `json:"spent"`
}

// Outpoint returns the outpoint that spends this output.
func (u *UTXO) Outpoint() types.Outpoint {
	return types.Outpoint{TxID: u.TxID, Index: u.OutputIndex}
}

// AddressString returns Address as a string.
func (u *UTXO) AddressString() string {
	return string(u.Address)
}

// Clone returns a deep copy of u.
func (u *UTXO) Clone() *UTXO {
	c := *u
	c.Address = append([]byte(nil), u.Address...)
	c.Script = u.Script.Clone()
	return &c
}

// SerializeSize returns the exact length of the record encoding.
func (u *UTXO) SerializeSize() (int, error) {
	switch {
	case len(u.Address) == 0:
		return 0, ErrEmptyAddress
	case len(u.Address) > MaxAddressLen:
		return 0, ErrAddressTooLong
	case len(u.Script) == 0:
		return 0, ErrEmptyScript
	}
	return 2*types.HashSize + 1 + len(u.Address) + indexSize + valueSize +
		wire.VarIntSize(uint64(len(u.Script))) + len(u.Script) + spentSize, nil
}

// SerializeInto writes the record into buf and returns the bytes written.
//
// Layout: txid(32) | block_hash(32) | addr_len(1) | address |
// out_index(4) | value(8) | script_len(varint) | script | spent(1).
// Hashes are written as held in memory, not reversed.
func (u *UTXO) SerializeInto(buf []byte) (int, error) {
	if _, err := u.SerializeSize(); err != nil {
		return 0, err
	}
	w := wire.NewWriter(buf)
	u.Encode(w)
	if err := w.Err(); err != nil {
		return 0, err
	}
	return w.Len(), nil
}

// Serialize returns the record encoding in a new slice.
func (u *UTXO) Serialize() ([]byte, error) {
	size, err := u.SerializeSize()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	w := wire.NewWriter(buf)
	u.Encode(w)
	if w.Err() != nil || w.Len() != size {
		panic(fmt.Sprintf("utxo serialize: wrote %d of %d bytes: %v", w.Len(), size, w.Err()))
	}
	return buf, nil
}

// Encode writes the record to w, which must be sized with SerializeSize.
func (u *UTXO) Encode(w *wire.Writer) {
	w.Hash(u.TxID)
	w.Hash(u.BlockHash)
	w.Uint8(uint8(len(u.Address)))
	w.Bytes(u.Address)
	w.Uint32(u.OutputIndex)
	w.Uint64(u.Value)
	w.VarBytes(u.Script)
	if u.Spent {
		w.Uint8(1)
	} else {
		w.Uint8(0)
	}
}

// DeserializeRecord decodes one record from the front of buf and returns
// it with the number of bytes consumed.
func DeserializeRecord(buf []byte) (*UTXO, int, error) {
	r := wire.NewReader(buf)
	u, err := DecodeRecord(r)
	if err != nil {
		return nil, 0, err
	}
	return u, r.Offset(), nil
}

// DecodeRecord reads one record from r. Failures wrap ErrMalformedRecord.
func DecodeRecord(r *wire.Reader) (*UTXO, error) {
	start := r.Offset()
	u, err := decodeRecord(r)
	if err != nil {
		return nil, fmt.Errorf("%w at offset %d: %w", ErrMalformedRecord, start, err)
	}
	return u, nil
}

func decodeRecord(r *wire.Reader) (*UTXO, error) {
	var (
		u   UTXO
		err error
	)
	if u.TxID, err = r.Hash("txid"); err != nil {
		return nil, err
	}
	if u.BlockHash, err = r.Hash("block hash"); err != nil {
		return nil, err
	}
	addrLen, err := r.Uint8("address length")
	if err != nil {
		return nil, err
	}
	if addrLen == 0 {
		return nil, ErrEmptyAddress
	}
	if u.Address, err = r.Bytes(int(addrLen), "address"); err != nil {
		return nil, err
	}
	if u.OutputIndex, err = r.Uint32("output index"); err != nil {
		return nil, err
	}
	if u.Value, err = r.Uint64("value"); err != nil {
		return nil, err
	}
	script, err := r.VarBytes("script")
	if err != nil {
		return nil, err
	}
	u.Script = script
	spent, err := r.Uint8("spent")
	if err != nil {
		return nil, err
	}
	switch spent {
	case 0:
	case 1:
		u.Spent = true
	default:
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSpentFlag, spent)
	}
	return &u, nil
}
