package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile loads configuration values from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		values[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}

	return values, scanner.Err()
}

func unquote(value string) string {
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// ApplyFileConfig applies key/value settings to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(strings.ToLower(value))
	case "datadir":
		cfg.DataDir = value

	// Storage
	case "db.backend", "db":
		cfg.DB.Backend = strings.ToLower(value)

	// Ledger
	case "chain.strict", "strict":
		cfg.Chain.StrictInputs = parseBool(value)
	case "chain.pow", "pow":
		cfg.Chain.ProofOfWork = parseBool(value)

	// Coinbase
	case "coinbase.note":
		cfg.Coinbase.Note = value
	case "coinbase.reward":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Coinbase.Reward = n
	case "coinbase.pubkey":
		cfg.Coinbase.PubKey = value

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	content := `# kyk ledger configuration

# Network: mainnet, testnet or regtest
network = ` + string(network) + `

# Data directory (default: ~/.kyk)
# datadir = ~/.kyk

# ============================================================================
# Storage
# ============================================================================

# Backend: badger, leveldb or memory
db.backend = badger

# ============================================================================
# Ledger
# ============================================================================

# Reject blocks that spend outputs the ledger has not seen.
# Leave off when importing a chain that does not start at genesis.
# chain.strict = false

# Check block hashes against their difficulty target.
# Defaults to on for mainnet and testnet, off for regtest.
# chain.pow = true

# ============================================================================
# Coinbase
# ============================================================================

# Note embedded in the coinbase input script (max 92 bytes)
# coinbase.note =

# Reward in satoshis
coinbase.reward = 5000000000

# Public key (hex) that receives the reward
# coinbase.pubkey =

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
