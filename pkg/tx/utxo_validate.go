package tx

import (
	"errors"
	"fmt"
	"math"

	"github.com/kykchain/kyk/pkg/types"
)

// UTXO-aware validation errors.
var (
	ErrInputNotFound   = errors.New("input UTXO not found")
	ErrInputSpent      = errors.New("input UTXO already spent")
	ErrInsufficientFee = errors.New("insufficient fee")
	ErrInputOverflow   = errors.New("input values overflow")
)

// UTXOProvider provides read-only access to the UTXO set for validation.
type UTXOProvider interface {
	HasUTXO(outpoint types.Outpoint) bool
	GetUTXO(outpoint types.Outpoint) (value uint64, spent bool, err error)
}

// ValidateWithUTXOs checks tx against the UTXO set: every input must
// reference a known unspent output and the inputs must cover the outputs.
// Scripts are not executed. Returns the fee (inputs - outputs).
func (tx *Transaction) ValidateWithUTXOs(provider UTXOProvider) (uint64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	if tx.IsCoinbase() {
		return 0, nil
	}

	var totalInput uint64
	for i, in := range tx.Inputs {
		if !provider.HasUTXO(in.PrevOut) {
			return 0, fmt.Errorf("input %d (%s): %w", i, in.PrevOut, ErrInputNotFound)
		}
		value, spent, err := provider.GetUTXO(in.PrevOut)
		if err != nil {
			return 0, fmt.Errorf("input %d: %w", i, err)
		}
		if spent {
			return 0, fmt.Errorf("input %d (%s): %w", i, in.PrevOut, ErrInputSpent)
		}
		if totalInput > math.MaxUint64-value {
			return 0, fmt.Errorf("input %d: %w", i, ErrInputOverflow)
		}
		totalInput += value
	}

	totalOutput, err := tx.TotalOutputValue()
	if err != nil {
		return 0, fmt.Errorf("output overflow: %w", err)
	}
	if totalInput < totalOutput {
		return 0, fmt.Errorf("%w: inputs=%d outputs=%d", ErrInsufficientFee, totalInput, totalOutput)
	}
	return totalInput - totalOutput, nil
}
