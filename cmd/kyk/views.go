package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kykchain/kyk/config"
	"github.com/kykchain/kyk/internal/chain"
	"github.com/kykchain/kyk/internal/utxo"
	"github.com/kykchain/kyk/pkg/block"
	"github.com/kykchain/kyk/pkg/tx"
	"github.com/kykchain/kyk/pkg/types"
)

type inputView struct {
	PrevTxID  types.Hash   `json:"prev_txid"`
	PrevIndex uint32       `json:"prev_index"`
	Script    types.Script `json:"script"`
	Sequence  uint32       `json:"sequence"`
}

type outputView struct {
	Value   uint64       `json:"value"`
	Amount  string       `json:"amount"`
	Script  types.Script `json:"script"`
	Type    string       `json:"type"`
	Address string       `json:"address,omitempty"`
}

type txView struct {
	TxID     types.Hash   `json:"txid"`
	Version  uint32       `json:"version"`
	Size     int          `json:"size"`
	Coinbase bool         `json:"coinbase"`
	Inputs   []inputView  `json:"inputs"`
	Outputs  []outputView `json:"outputs"`
	LockTime uint32       `json:"lock_time"`
}

type headerView struct {
	Hash       types.Hash `json:"hash"`
	Height     *uint64    `json:"height,omitempty"`
	Version    uint32     `json:"version"`
	PrevHash   types.Hash `json:"prev_hash"`
	MerkleRoot types.Hash `json:"merkle_root"`
	Timestamp  uint32     `json:"timestamp"`
	Bits       string     `json:"bits"`
	Nonce      uint32     `json:"nonce"`
}

type blockView struct {
	Magic   string     `json:"magic"`
	Size    uint32     `json:"size"`
	Header  headerView `json:"header"`
	TxCount int        `json:"tx_count"`
	Txs     []txView   `json:"transactions"`
}

type utxoView struct {
	Outpoint  string     `json:"outpoint"`
	BlockHash types.Hash `json:"block_hash"`
	Address   string     `json:"address"`
	Value     uint64     `json:"value"`
	Amount    string     `json:"amount"`
	Spent     bool       `json:"spent"`
}

func newTxView(t *tx.Transaction) (txView, error) {
	id, err := t.Hash()
	if err != nil {
		return txView{}, err
	}
	size, err := t.SerializeSize()
	if err != nil {
		return txView{}, err
	}
	v := txView{
		TxID:     id,
		Version:  t.Version,
		Size:     size,
		Coinbase: t.IsCoinbase(),
		LockTime: t.LockTime,
	}
	for _, in := range t.Inputs {
		v.Inputs = append(v.Inputs, inputView{
			PrevTxID:  in.PrevOut.TxID,
			PrevIndex: in.PrevOut.Index,
			Script:    in.Script,
			Sequence:  in.Sequence,
		})
	}
	for _, out := range t.Outputs {
		addr, _ := chain.ScriptAddress(out.Script)
		v.Outputs = append(v.Outputs, outputView{
			Value:   out.Value,
			Amount:  formatAmount(out.Value),
			Script:  out.Script,
			Type:    out.Script.Type().String(),
			Address: addr,
		})
	}
	return v, nil
}

func newHeaderView(h *block.Header) headerView {
	return headerView{
		Hash:       h.Hash(),
		Version:    h.Version,
		PrevHash:   h.PrevHash,
		MerkleRoot: h.MerkleRoot,
		Timestamp:  h.Timestamp,
		Bits:       fmt.Sprintf("%08x", h.Bits),
		Nonce:      h.Nonce,
	}
}

func newBlockView(b *block.Block) (blockView, error) {
	v := blockView{
		Magic:   fmt.Sprintf("%#08x", b.Magic),
		Size:    b.Size,
		Header:  newHeaderView(b.Header),
		TxCount: len(b.Transactions),
	}
	for i, t := range b.Transactions {
		tv, err := newTxView(t)
		if err != nil {
			return blockView{}, fmt.Errorf("tx %d: %w", i, err)
		}
		v.Txs = append(v.Txs, tv)
	}
	return v, nil
}

func newUTXOView(u *utxo.UTXO) utxoView {
	return utxoView{
		Outpoint:  u.Outpoint().String(),
		BlockHash: u.BlockHash,
		Address:   u.AddressString(),
		Value:     u.Value,
		Amount:    formatAmount(u.Value),
		Spent:     u.Spent,
	}
}

// formatAmount renders satoshis as a decimal coin amount.
func formatAmount(units uint64) string {
	return fmt.Sprintf("%d.%08d", units/config.Coin, units%config.Coin)
}

// parseAmount converts a decimal coin amount to satoshis.
func parseAmount(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount")
	}

	whole, fracStr, hasFrac := strings.Cut(s, ".")
	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid whole part: %w", err)
	}

	var frac uint64
	if hasFrac {
		if len(fracStr) == 0 || len(fracStr) > config.Decimals {
			return 0, fmt.Errorf("fractional part must have 1 to %d digits", config.Decimals)
		}
		fracStr += strings.Repeat("0", config.Decimals-len(fracStr))
		frac, err = strconv.ParseUint(fracStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid fractional part: %w", err)
		}
	}

	if w > tx.MaxMoney/config.Coin {
		return 0, fmt.Errorf("amount too large")
	}
	total := w*config.Coin + frac
	if total > tx.MaxMoney {
		return 0, fmt.Errorf("amount too large")
	}
	return total, nil
}
