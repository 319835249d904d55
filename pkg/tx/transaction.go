// Package tx defines Bitcoin transactions, their wire codec and validation.
package tx

import (
	"fmt"
	"math"

	"github.com/kykchain/kyk/pkg/types"
)

// Transaction represents a Bitcoin transaction. A Transaction owns its
// inputs and outputs exclusively; use Copy to share one across owners.
type Transaction struct {
	Version  uint32   `json:"version"`
	Inputs   []Input  `json:"inputs"`
	Outputs  []Output `json:"outputs"`
	LockTime uint32   `json:"locktime"`
}

// Input references a previous output being spent.
type Input struct {
	PrevOut  types.Outpoint `json:"prevout"`
	Script   types.Script   `json:"script"`
	Sequence uint32         `json:"sequence"`
}

// Output creates a new spendable amount locked by a script.
type Output struct {
	Value  uint64       `json:"value"`
	Script types.Script `json:"script"`
}

// Hash computes the transaction ID: SHA-256d of the serialized
// transaction, byte-reversed into display order. The value is recomputed
// on every call.
func (tx *Transaction) Hash() (types.Hash, error) {
	raw, err := tx.Serialize()
	if err != nil {
		return types.Hash{}, err
	}
	return hashBytes(raw), nil
}

// MustHash is like Hash but panics if the transaction cannot be encoded.
// Only use it on transactions that have already passed Validate or were
// produced by Deserialize.
func (tx *Transaction) MustHash() types.Hash {
	h, err := tx.Hash()
	if err != nil {
		panic(fmt.Sprintf("tx hash: %v", err))
	}
	return h
}

// IsCoinbase reports whether tx is a coinbase transaction: exactly one
// input spending the null outpoint.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PrevOut.IsCoinbase()
}

// TotalOutputValue returns the sum of all output values.
// Returns an error if the sum overflows uint64.
func (tx *Transaction) TotalOutputValue() (uint64, error) {
	var total uint64
	for _, out := range tx.Outputs {
		if total > math.MaxUint64-out.Value {
			return 0, fmt.Errorf("output value overflow")
		}
		total += out.Value
	}
	return total, nil
}

// Copy returns a deep copy of tx. Scripts are duplicated so the copy
// shares no memory with the original.
func (tx *Transaction) Copy() *Transaction {
	cp := &Transaction{
		Version:  tx.Version,
		LockTime: tx.LockTime,
	}
	if tx.Inputs != nil {
		cp.Inputs = make([]Input, len(tx.Inputs))
		for i, in := range tx.Inputs {
			cp.Inputs[i] = Input{
				PrevOut:  in.PrevOut,
				Script:   in.Script.Clone(),
				Sequence: in.Sequence,
			}
		}
	}
	if tx.Outputs != nil {
		cp.Outputs = make([]Output, len(tx.Outputs))
		for i, out := range tx.Outputs {
			cp.Outputs[i] = Output{Value: out.Value, Script: out.Script.Clone()}
		}
	}
	return cp
}
