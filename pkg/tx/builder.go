package tx

import (
	"github.com/kykchain/kyk/pkg/types"
)

// DefaultSequence is the sequence number of a final input.
const DefaultSequence = 0xffffffff

// Builder constructs transactions incrementally.
type Builder struct {
	tx *Transaction
}

// NewBuilder creates a new transaction builder.
func NewBuilder() *Builder {
	return &Builder{
		tx: &Transaction{Version: 1},
	}
}

// SetVersion sets the transaction version.
func (b *Builder) SetVersion(version uint32) *Builder {
	b.tx.Version = version
	return b
}

// AddInput adds an input spending prevOut with the given unlocking script
// and a final sequence number.
func (b *Builder) AddInput(prevOut types.Outpoint, script types.Script) *Builder {
	return b.AddInputWithSequence(prevOut, script, DefaultSequence)
}

// AddInputWithSequence adds an input with an explicit sequence number.
func (b *Builder) AddInputWithSequence(prevOut types.Outpoint, script types.Script, sequence uint32) *Builder {
	b.tx.Inputs = append(b.tx.Inputs, Input{
		PrevOut:  prevOut,
		Script:   script.Clone(),
		Sequence: sequence,
	})
	return b
}

// AddOutput adds an output with a value and locking script.
func (b *Builder) AddOutput(value uint64, script types.Script) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, Output{Value: value, Script: script.Clone()})
	return b
}

// SetLockTime sets the transaction lock time.
func (b *Builder) SetLockTime(lockTime uint32) *Builder {
	b.tx.LockTime = lockTime
	return b
}

// Build validates and returns the constructed transaction.
func (b *Builder) Build() (*Transaction, error) {
	if err := b.tx.Validate(); err != nil {
		return nil, err
	}
	return b.tx, nil
}
