package node

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kykchain/kyk/config"
	"github.com/kykchain/kyk/pkg/block"
	"github.com/kykchain/kyk/pkg/tx"
)

// Header fields stamped on locally assembled blocks. No proof of work is
// searched, so the nonce stays zero.
const (
	localBlockVersion = 1
	localBlockBits    = 0x1d00ffff
)

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// logFilePath returns the configured log file, defaulting to kyk.log in
// the logs directory, which is created if needed.
func logFilePath(cfg *config.Config) (string, error) {
	if cfg.Log.File != "" {
		return expandHome(cfg.Log.File), nil
	}
	logsDir := expandHome(cfg.LogsDir())
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return "", fmt.Errorf("creating logs dir: %w", err)
	}
	return filepath.Join(logsDir, "kyk.log"), nil
}

// NewCoinbase builds a coinbase paying the configured reward to the
// configured public key. An empty note falls back to the configured one.
func (n *Node) NewCoinbase(note string) (*tx.Transaction, error) {
	pub, err := n.cfg.CoinbasePubKey()
	if err != nil {
		return nil, err
	}
	if pub == nil {
		return nil, fmt.Errorf("coinbase requires coinbase.pubkey")
	}
	if note == "" {
		note = n.cfg.Coinbase.Note
	}
	return tx.NewCoinbase([]byte(note), n.cfg.Coinbase.Reward, pub)
}

// NextBlock assembles a block on top of the current tip holding a fresh
// coinbase followed by txs. The block is returned, not processed.
func (n *Node) NextBlock(note string, txs ...*tx.Transaction) (*block.Block, error) {
	coinbase, err := n.NewCoinbase(note)
	if err != nil {
		return nil, err
	}
	prev, height, ok := n.ch.Tip()
	if ok {
		height++
	}
	// Coinbases at different heights must not share a txid.
	coinbase.LockTime = uint32(height)
	all := append([]*tx.Transaction{coinbase}, txs...)

	header, err := block.MakeHeader(all, localBlockVersion, prev, uint32(time.Now().Unix()), localBlockBits)
	if err != nil {
		return nil, err
	}
	blk, err := block.MakeBlock(header, all)
	if err != nil {
		return nil, err
	}
	return blk.SetMagic(n.params.Magic), nil
}
