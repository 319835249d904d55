package tx

import (
	"errors"
	"fmt"

	"github.com/kykchain/kyk/pkg/crypto"
	"github.com/kykchain/kyk/pkg/types"
	"github.com/kykchain/kyk/pkg/wire"
)

// Codec errors.
var (
	ErrMalformedTransaction = errors.New("malformed transaction")
	ErrEmptyScript          = fmt.Errorf("%w: empty script", wire.ErrInvalidLength)
)

// Fixed field widths of the transaction encoding.
const (
	versionSize   = 4
	lockTimeSize  = 4
	prevOutSize   = types.HashSize + 4
	sequenceSize  = 4
	valueSize     = 8
	minInputSize  = prevOutSize + 1 + 1 + sequenceSize
	minOutputSize = valueSize + 1 + 1
)

// SerializeSize returns the exact number of bytes Serialize will produce.
// It fails if the transaction has no inputs, no outputs or an empty
// script, since none of those can be encoded.
func (tx *Transaction) SerializeSize() (int, error) {
	if len(tx.Inputs) == 0 {
		return 0, ErrNoInputs
	}
	if len(tx.Outputs) == 0 {
		return 0, ErrNoOutputs
	}

	n := versionSize + wire.VarIntSize(uint64(len(tx.Inputs)))
	for i, in := range tx.Inputs {
		if len(in.Script) == 0 {
			return 0, fmt.Errorf("input %d: %w", i, ErrEmptyScript)
		}
		n += prevOutSize + wire.VarIntSize(uint64(len(in.Script))) + len(in.Script) + sequenceSize
	}
	n += wire.VarIntSize(uint64(len(tx.Outputs)))
	for i, out := range tx.Outputs {
		if len(out.Script) == 0 {
			return 0, fmt.Errorf("output %d: %w", i, ErrEmptyScript)
		}
		n += valueSize + wire.VarIntSize(uint64(len(out.Script))) + len(out.Script)
	}
	return n + lockTimeSize, nil
}

// SerializeInto writes the wire encoding of tx into buf and returns the
// number of bytes written. buf must hold at least SerializeSize bytes.
//
// Layout: version(4) | vin_count(varint) | [prev_txid(32, reversed) |
// prev_index(4) | script_len(varint) | script | sequence(4)]... |
// vout_count(varint) | [value(8) | script_len(varint) | script]... |
// lock_time(4). Integers are little-endian.
func (tx *Transaction) SerializeInto(buf []byte) (int, error) {
	if _, err := tx.SerializeSize(); err != nil {
		return 0, err
	}
	w := wire.NewWriter(buf)
	tx.Encode(w)
	if err := w.Err(); err != nil {
		return 0, err
	}
	return w.Len(), nil
}

// Serialize returns the wire encoding of tx in a freshly allocated slice.
func (tx *Transaction) Serialize() ([]byte, error) {
	size, err := tx.SerializeSize()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	w := wire.NewWriter(buf)
	tx.Encode(w)
	if w.Err() != nil || w.Len() != size {
		panic(fmt.Sprintf("tx serialize: wrote %d of %d bytes: %v", w.Len(), size, w.Err()))
	}
	return buf, nil
}

// Encode writes tx to w. The caller must have sized w with SerializeSize;
// the block codec uses it to stream transactions into one buffer.
func (tx *Transaction) Encode(w *wire.Writer) {
	w.Uint32(tx.Version)
	w.VarInt(uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		w.HashReversed(in.PrevOut.TxID)
		w.Uint32(in.PrevOut.Index)
		w.VarBytes(in.Script)
		w.Uint32(in.Sequence)
	}
	w.VarInt(uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		w.Uint64(out.Value)
		w.VarBytes(out.Script)
	}
	w.Uint32(tx.LockTime)
}

// Deserialize decodes one transaction from the front of buf and returns it
// with the number of bytes consumed. Any failure is reported as
// ErrMalformedTransaction wrapping the cause, and no transaction is
// returned.
func Deserialize(buf []byte) (*Transaction, int, error) {
	r := wire.NewReader(buf)
	tx, err := Decode(r)
	if err != nil {
		return nil, 0, err
	}
	return tx, r.Offset(), nil
}

// Decode reads one transaction from r, advancing it past the encoding.
func Decode(r *wire.Reader) (*Transaction, error) {
	start := r.Offset()
	tx, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w at offset %d: %w", ErrMalformedTransaction, start, err)
	}
	return tx, nil
}

func decode(r *wire.Reader) (*Transaction, error) {
	var (
		tx  Transaction
		err error
	)
	if tx.Version, err = r.Uint32("version"); err != nil {
		return nil, err
	}

	nIn, err := r.VarInt("input count")
	if err != nil {
		return nil, err
	}
	if nIn == 0 {
		return nil, ErrNoInputs
	}
	if err := r.CheckCount(nIn, minInputSize, "inputs"); err != nil {
		return nil, err
	}
	tx.Inputs = make([]Input, nIn)
	for i := range tx.Inputs {
		if err := decodeInput(r, &tx.Inputs[i]); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}

	nOut, err := r.VarInt("output count")
	if err != nil {
		return nil, err
	}
	if nOut == 0 {
		return nil, ErrNoOutputs
	}
	if err := r.CheckCount(nOut, minOutputSize, "outputs"); err != nil {
		return nil, err
	}
	tx.Outputs = make([]Output, nOut)
	for i := range tx.Outputs {
		if err := decodeOutput(r, &tx.Outputs[i]); err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
	}

	if tx.LockTime, err = r.Uint32("lock time"); err != nil {
		return nil, err
	}
	return &tx, nil
}

func decodeInput(r *wire.Reader, in *Input) error {
	var err error
	if in.PrevOut.TxID, err = r.HashReversed("prev txid"); err != nil {
		return err
	}
	if in.PrevOut.Index, err = r.Uint32("prev index"); err != nil {
		return err
	}
	if in.Script, err = r.VarBytes("script"); err != nil {
		return err
	}
	in.Sequence, err = r.Uint32("sequence")
	return err
}

func decodeOutput(r *wire.Reader, out *Output) error {
	var err error
	if out.Value, err = r.Uint64("value"); err != nil {
		return err
	}
	out.Script, err = r.VarBytes("script")
	return err
}

// DeserializeList decodes count consecutive transactions from buf. It
// stops at the first failure and returns no transactions in that case.
func DeserializeList(buf []byte, count int) ([]*Transaction, int, error) {
	r := wire.NewReader(buf)
	txs, err := DecodeList(r, uint64(count))
	if err != nil {
		return nil, 0, err
	}
	return txs, r.Offset(), nil
}

// DecodeList reads count consecutive transactions from r.
func DecodeList(r *wire.Reader, count uint64) ([]*Transaction, error) {
	if err := r.CheckCount(count, versionSize+1+minInputSize+1+minOutputSize+lockTimeSize, "transactions"); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTransaction, err)
	}
	txs := make([]*Transaction, 0, count)
	for i := uint64(0); i < count; i++ {
		tx, err := Decode(r)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// hashBytes returns the display-order SHA-256d of raw.
func hashBytes(raw []byte) types.Hash {
	return crypto.DoubleHash(raw).Reverse()
}
