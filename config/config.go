// Package config handles application configuration.
//
// Settings are layered: built-in defaults for the selected network, then
// the kyk.conf file in the data directory, then a .env file and KYK_*
// environment variables, then command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies the Bitcoin network whose blocks are processed.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
	Regtest NetworkType = "regtest"
)

// Config holds runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Storage
	DB DBConfig

	// Ledger rules
	Chain ChainConfig

	// Coinbase construction
	Coinbase CoinbaseConfig

	// Logging
	Log LogConfig
}

// DBConfig holds storage settings.
type DBConfig struct {
	Backend string `conf:"db.backend"` // badger, leveldb or memory
}

// ChainConfig holds ledger settings.
type ChainConfig struct {
	// StrictInputs rejects blocks that spend outputs the ledger has not
	// seen. Leave it off to import a chain that does not start at genesis.
	StrictInputs bool `conf:"chain.strict"`

	// ProofOfWork checks each block hash against the target its bits
	// declare, bounded by the network limit.
	ProofOfWork bool `conf:"chain.pow"`
}

// CoinbaseConfig holds the defaults used when building coinbase
// transactions.
type CoinbaseConfig struct {
	Note   string `conf:"coinbase.note"`
	Reward uint64 `conf:"coinbase.reward"` // satoshis
	PubKey string `conf:"coinbase.pubkey"` // hex, compressed or uncompressed
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.kyk
//	macOS:   ~/Library/Application Support/Kyk
//	Windows: %APPDATA%\Kyk
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kyk"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Kyk")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Kyk")
		}
		return filepath.Join(home, "AppData", "Roaming", "Kyk")
	default:
		return filepath.Join(home, ".kyk")
	}
}

// ChainDataDir returns the network-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// DBDir returns the database directory.
func (c *Config) DBDir() string {
	return filepath.Join(c.ChainDataDir(), "chaindata")
}

// ExportDir returns the directory that snapshots and exports default to.
func (c *Config) ExportDir() string {
	return filepath.Join(c.ChainDataDir(), "export")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "kyk.conf")
}
