package config

import (
	"encoding/hex"
	"fmt"

	"github.com/kykchain/kyk/internal/log"
	"github.com/kykchain/kyk/internal/storage"
	"github.com/kykchain/kyk/pkg/crypto"
	"github.com/kykchain/kyk/pkg/tx"
)

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if _, ok := ParamsFor(cfg.Network); !ok {
		return fmt.Errorf("network must be %q, %q or %q", Mainnet, Testnet, Regtest)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir is empty")
	}

	switch cfg.DB.Backend {
	case storage.BackendBadger, storage.BackendLevelDB, storage.BackendMemory:
	default:
		return fmt.Errorf("db.backend must be %s, %s or %s", storage.BackendBadger, storage.BackendLevelDB, storage.BackendMemory)
	}

	if n := len(cfg.Coinbase.Note); n > tx.MaxCoinbaseNoteLen {
		return fmt.Errorf("coinbase.note is %d bytes, max is %d", n, tx.MaxCoinbaseNoteLen)
	}
	if cfg.Coinbase.Reward > tx.MaxMoney {
		return fmt.Errorf("coinbase.reward %d exceeds the money supply", cfg.Coinbase.Reward)
	}
	if cfg.Coinbase.PubKey != "" {
		if _, err := cfg.CoinbasePubKey(); err != nil {
			return err
		}
	}

	if cfg.Log.Level != "" && !log.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	return nil
}

// CoinbasePubKey decodes and checks the configured coinbase public key.
// It returns nil when none is configured.
func (c *Config) CoinbasePubKey() ([]byte, error) {
	if c.Coinbase.PubKey == "" {
		return nil, nil
	}
	pub, err := hex.DecodeString(c.Coinbase.PubKey)
	if err != nil {
		return nil, fmt.Errorf("coinbase.pubkey must be hex: %w", err)
	}
	if err := crypto.ValidatePubKey(pub); err != nil {
		return nil, fmt.Errorf("coinbase.pubkey: %w", err)
	}
	return pub, nil
}
