package types

import "fmt"

// CoinbaseIndex is the previous-output index carried by coinbase inputs.
const CoinbaseIndex = 0xffffffff

// Outpoint references a specific output in a transaction.
type Outpoint struct {
	TxID  Hash   `json:"txid"`
	Index uint32 `json:"index"`
}

// IsZero returns true if the outpoint has a zero TxID and zero index.
func (o Outpoint) IsZero() bool {
	return o.TxID.IsZero() && o.Index == 0
}

// IsCoinbase reports whether o is the null outpoint spent by a coinbase
// input: an all-zero txid with index 0xffffffff.
func (o Outpoint) IsCoinbase() bool {
	return o.TxID.IsZero() && o.Index == CoinbaseIndex
}

// String returns "txid:index" in hex.
func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID.String(), o.Index)
}
