package tx

import (
	"errors"
	"fmt"

	"github.com/kykchain/kyk/pkg/crypto"
	"github.com/kykchain/kyk/pkg/types"
)

// coinbaseScriptPrefix is pushed ahead of the note in every coinbase
// input script: <0x1d00ffff> <0x04>, the script of the genesis coinbase.
var coinbaseScriptPrefix = []byte{0x04, 0xff, 0xff, 0x00, 0x1d, 0x01, 0x04}

// MaxCoinbaseNoteLen is the longest note NewCoinbase accepts: the script
// limit less the 7-byte prefix and the note length byte.
const MaxCoinbaseNoteLen = MaxCoinbaseScriptLen - 8

// ErrCoinbaseScriptTooLong is returned when a note would push the coinbase
// input script past MaxCoinbaseScriptLen.
var ErrCoinbaseScriptTooLong = errors.New("coinbase script too long")

// CoinbaseScript returns the coinbase input script carrying note.
func CoinbaseScript(note []byte) (types.Script, error) {
	if len(note) > MaxCoinbaseNoteLen {
		return nil, fmt.Errorf("%w: note is %d bytes, max %d", ErrCoinbaseScriptTooLong, len(note), MaxCoinbaseNoteLen)
	}
	s := make(types.Script, 0, len(coinbaseScriptPrefix)+1+len(note))
	s = append(s, coinbaseScriptPrefix...)
	s = append(s, byte(len(note)))
	return append(s, note...), nil
}

// NewCoinbase builds a version-1 coinbase transaction paying value to the
// P2PKH address of pubKey, with note embedded in the input script.
func NewCoinbase(note []byte, value uint64, pubKey []byte) (*Transaction, error) {
	script, err := CoinbaseScript(note)
	if err != nil {
		return nil, err
	}
	lock, err := crypto.P2PKHScript(pubKey)
	if err != nil {
		return nil, fmt.Errorf("coinbase output: %w", err)
	}
	return &Transaction{
		Version: 1,
		Inputs: []Input{{
			PrevOut:  types.Outpoint{Index: types.CoinbaseIndex},
			Script:   script,
			Sequence: DefaultSequence,
		}},
		Outputs: []Output{{Value: value, Script: lock}},
	}, nil
}
