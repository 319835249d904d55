package tx

import (
	"errors"
	"fmt"
	"math"

	"github.com/kykchain/kyk/pkg/types"
)

// Structural limits.
const (
	// MaxMoney is the largest value any output or sum of outputs may carry.
	MaxMoney = 21_000_000 * 100_000_000
	// MaxScriptSize is the largest script accepted by Validate.
	MaxScriptSize = 10_000
	// MaxCoinbaseScriptLen bounds the input script of a coinbase
	// transaction.
	MaxCoinbaseScriptLen = 100
	// MinCoinbaseScriptLen is the shortest coinbase input script allowed.
	MinCoinbaseScriptLen = 2
)

// Validation errors.
var (
	ErrNoInputs           = errors.New("transaction has no inputs")
	ErrNoOutputs          = errors.New("transaction has no outputs")
	ErrDuplicateInput     = errors.New("duplicate input")
	ErrOutputOverflow     = errors.New("output values overflow")
	ErrOutputRange        = errors.New("output value out of range")
	ErrScriptTooLarge     = errors.New("script too large")
	ErrCoinbaseScriptSize = errors.New("coinbase script size out of range")
	ErrNullPrevOut        = errors.New("non-coinbase input spends null outpoint")
)

// Validate checks transaction structure and basic rules.
// This does NOT check UTXO existence (that requires the UTXO set).
func (tx *Transaction) Validate() error {
	if len(tx.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(tx.Outputs) == 0 {
		return ErrNoOutputs
	}

	coinbase := tx.IsCoinbase()
	seen := make(map[types.Outpoint]bool, len(tx.Inputs))
	for i, in := range tx.Inputs {
		if len(in.Script) == 0 {
			return fmt.Errorf("input %d: %w", i, ErrEmptyScript)
		}
		if len(in.Script) > MaxScriptSize {
			return fmt.Errorf("input %d: %w: %d bytes, max %d", i, ErrScriptTooLarge, len(in.Script), MaxScriptSize)
		}
		if seen[in.PrevOut] {
			return fmt.Errorf("input %d: %w", i, ErrDuplicateInput)
		}
		seen[in.PrevOut] = true
		if !coinbase && in.PrevOut.IsCoinbase() {
			return fmt.Errorf("input %d: %w", i, ErrNullPrevOut)
		}
	}
	if coinbase {
		if n := len(tx.Inputs[0].Script); n < MinCoinbaseScriptLen || n > MaxCoinbaseScriptLen {
			return fmt.Errorf("%w: %d bytes, want %d..%d", ErrCoinbaseScriptSize, n, MinCoinbaseScriptLen, MaxCoinbaseScriptLen)
		}
	}

	var totalOutput uint64
	for i, out := range tx.Outputs {
		if len(out.Script) == 0 {
			return fmt.Errorf("output %d: %w", i, ErrEmptyScript)
		}
		if len(out.Script) > MaxScriptSize {
			return fmt.Errorf("output %d: %w: %d bytes, max %d", i, ErrScriptTooLarge, len(out.Script), MaxScriptSize)
		}
		if out.Value > MaxMoney {
			return fmt.Errorf("output %d: %w: %d", i, ErrOutputRange, out.Value)
		}
		if totalOutput > math.MaxUint64-out.Value {
			return fmt.Errorf("output %d: %w", i, ErrOutputOverflow)
		}
		totalOutput += out.Value
		if totalOutput > MaxMoney {
			return fmt.Errorf("output %d: %w: total %d", i, ErrOutputRange, totalOutput)
		}
	}

	return nil
}
